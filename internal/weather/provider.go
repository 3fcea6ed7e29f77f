package weather

import (
	"context"
	"time"

	"github.com/i474232898/weather-now/internal/location"
)

// Fetcher abstracts a current-weather source (the OpenWeather client or a
// bundled fixture behind the same client).
type Fetcher interface {
	FetchCurrentWeather(ctx context.Context, coord location.Coordinate) (Report, error)
}

// Store is the contract the in-memory store (and any future persistent store) must satisfy.
type Store interface {
	SaveFix(coord location.Coordinate, at time.Time)
	FreshFix(now time.Time) (location.Coordinate, error)
	SaveReport(r Report, at time.Time)
	LatestReport() (Report, time.Time, error)
}
