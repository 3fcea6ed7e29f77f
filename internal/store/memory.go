package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/weather-now/internal/location"
	"github.com/i474232898/weather-now/internal/weather"
)

var (
	// ErrNotFound is returned when nothing has been recorded yet.
	ErrNotFound = errors.New("no weather data recorded")
	// ErrStale is returned when the recorded fix is older than the max age.
	ErrStale = errors.New("recorded location fix is stale")
)

// MemoryStore is a concurrency-safe in-memory holder of the last location fix
// and the last successfully fetched report. Nothing survives a restart.
type MemoryStore struct {
	mu sync.RWMutex

	fix   *location.Coordinate
	fixAt time.Time

	report   *weather.Report
	reportAt time.Time

	// a fix older than maxAge is not reused; <= 0 means never reuse
	maxAge time.Duration
}

// NewMemoryStore creates a new MemoryStore.
func NewMemoryStore(maxAge time.Duration) *MemoryStore {
	return &MemoryStore{maxAge: maxAge}
}

// SaveFix records coord as the last known location, obtained at at.
func (s *MemoryStore) SaveFix(coord location.Coordinate, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fix = &coord
	s.fixAt = at
}

// FreshFix returns the last known location if it is no older than maxAge at now.
func (s *MemoryStore) FreshFix(now time.Time) (location.Coordinate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.fix == nil {
		return location.Coordinate{}, ErrNotFound
	}
	if s.maxAge <= 0 || now.Sub(s.fixAt) > s.maxAge {
		return location.Coordinate{}, ErrStale
	}
	return *s.fix, nil
}

// SaveReport keeps a private copy of r.
func (s *MemoryStore) SaveReport(r weather.Report, at time.Time) {
	c := r.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.report = &c
	s.reportAt = at
}

// LatestReport returns a copy of the most recent report and when it was stored.
func (s *MemoryStore) LatestReport() (weather.Report, time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.report == nil {
		return weather.Report{}, time.Time{}, ErrNotFound
	}
	return s.report.Clone(), s.reportAt, nil
}
