package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-now/internal/location"
	"github.com/i474232898/weather-now/internal/weather"
)

func TestFreshFix(t *testing.T) {
	s := NewMemoryStore(10 * time.Minute)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	_, err := s.FreshFix(now)
	assert.ErrorIs(t, err, ErrNotFound)

	coord := location.Coordinate{Latitude: 34.0194704, Longitude: -118.4912273}
	s.SaveFix(coord, now)

	got, err := s.FreshFix(now.Add(10 * time.Minute))
	require.NoError(t, err)
	assert.Equal(t, coord, got)

	_, err = s.FreshFix(now.Add(10*time.Minute + time.Second))
	assert.ErrorIs(t, err, ErrStale)
}

func TestFreshFixDisabled(t *testing.T) {
	s := NewMemoryStore(0)
	now := time.Now()
	s.SaveFix(location.Coordinate{Latitude: 1, Longitude: 2}, now)

	_, err := s.FreshFix(now)
	assert.ErrorIs(t, err, ErrStale)
}

func TestLatestReportIsACopy(t *testing.T) {
	s := NewMemoryStore(time.Minute)

	_, _, err := s.LatestReport()
	assert.ErrorIs(t, err, ErrNotFound)

	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	r := weather.Report{
		ID:           500,
		LocationName: "Santa Monica",
		Conditions:   []weather.Condition{{ID: 800, Category: "Clear", Description: "clear sky", IconCode: "01d"}},
	}
	s.SaveReport(r, at)
	r.Conditions[0].Description = "changed by caller"

	got, gotAt, err := s.LatestReport()
	require.NoError(t, err)
	assert.Equal(t, at, gotAt)
	assert.Equal(t, "clear sky", got.Conditions[0].Description)

	got.Conditions[0].Description = "changed by reader"
	again, _, err := s.LatestReport()
	require.NoError(t, err)
	assert.Equal(t, "clear sky", again.Conditions[0].Description)
}

func TestMemoryStoreSatisfiesWeatherStore(t *testing.T) {
	var _ weather.Store = NewMemoryStore(time.Minute)
}
