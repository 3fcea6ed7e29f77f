package location

import (
	"fmt"
	"strings"
	"sync"

	"github.com/kelvins/geocoder"
)

// geocodeMu guards geocoder.ApiKey, which the library keeps as a package global.
var geocodeMu sync.Mutex

// lookup is swapped out in tests.
var lookup = geocoder.Geocoding

// ResolveCity turns a configured city/country pair into a coordinate using
// the Google geocoding API.
func ResolveCity(apiKey, city, country string) (Coordinate, error) {
	city = strings.TrimSpace(city)
	country = strings.TrimSpace(country)
	if city == "" {
		return Coordinate{}, fmt.Errorf("%w: no city configured", ErrUnavailable)
	}
	if apiKey == "" {
		return Coordinate{}, fmt.Errorf("%w: geocoder api key is not configured", ErrUnavailable)
	}

	geocodeMu.Lock()
	geocoder.ApiKey = apiKey
	loc, err := lookup(geocoder.Address{
		City:    city,
		Country: country,
	})
	geocodeMu.Unlock()
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: geocode %s,%s: %v", ErrUnavailable, city, country, err)
	}

	c := Coordinate{Latitude: loc.Latitude, Longitude: loc.Longitude}
	if err := Validate(c); err != nil {
		return Coordinate{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return c, nil
}
