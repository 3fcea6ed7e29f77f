package providers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/i474232898/weather-now/internal/location"
	"github.com/i474232898/weather-now/internal/weather"
)

const currentWeatherPath = "/data/2.5/weather"

// OpenWeatherClient implements weather.Fetcher for OpenWeatherMap's
// current-weather endpoint. The resolver and performer decide whether it talks
// to the network or reads a fixture.
type OpenWeatherClient struct {
	name      string
	apiKey    string
	resolver  Resolver
	performer Performer
}

func NewOpenWeatherClient(resolver Resolver, performer Performer, apiKey string) *OpenWeatherClient {
	return &OpenWeatherClient{
		name:      "openweathermap",
		apiKey:    apiKey,
		resolver:  resolver,
		performer: performer,
	}
}

func (c *OpenWeatherClient) Name() string {
	return c.name
}

func (c *OpenWeatherClient) FetchCurrentWeather(ctx context.Context, coord location.Coordinate) (weather.Report, error) {
	target, err := c.resolver.Resolve(currentWeatherPath, []QueryParam{
		{Name: "lat", Value: strconv.FormatFloat(coord.Latitude, 'f', -1, 64)},
		{Name: "lon", Value: strconv.FormatFloat(coord.Longitude, 'f', -1, 64)},
		{Name: "appid", Value: c.apiKey},
	})
	if err != nil {
		return weather.Report{}, &weather.FetchError{Err: err}
	}

	report, err := Do(ctx, c.performer, target, weather.DecodeReport)
	if err != nil {
		return weather.Report{}, &weather.FetchError{Err: fmt.Errorf("%s: %w", c.name, err)}
	}
	return report, nil
}
