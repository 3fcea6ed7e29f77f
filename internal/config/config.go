package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/weather-now/internal/location"
)

const (
	ModeLive    = "live"
	ModeFixture = "fixture"
)

var validate = validator.New()

type AppConfig struct {
	OpenWeatherAPIKey  string `validate:"required_if=Mode live"`
	OpenWeatherBaseURL string `validate:"required,url"`

	// Mode selects the network API or the bundled fixture.
	Mode       string `validate:"oneof=live fixture"`
	FixtureDir string

	// HTTPTimeout bounds outbound requests; 0 means no timeout.
	HTTPTimeout time.Duration `validate:"gte=0"`

	// Static location: a coordinate, or a city/country to geocode.
	Latitude        *float64
	Longitude       *float64
	LocationCity    string
	LocationCountry string
	GeocoderAPIKey  string

	Authorization location.AuthorizationStatus

	// CoordinateMaxAge is how long a fix is reused by Retry.
	CoordinateMaxAge time.Duration `validate:"gte=0"`
	// LocationTimeout bounds the wait for a fix; 0 means no bound.
	LocationTimeout time.Duration `validate:"gte=0"`
	// RefreshInterval triggers periodic retries; 0 disables them.
	RefreshInterval time.Duration `validate:"gte=0"`

	WindSpeedUnit string `validate:"required"`

	Port string `validate:"required,numeric"`
}

// HasCoordinate reports whether a static coordinate was configured.
func (c *AppConfig) HasCoordinate() bool {
	return c.Latitude != nil && c.Longitude != nil
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.OpenWeatherBaseURL = getenvDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org")
	cfg.Mode = strings.ToLower(getenvDefault("WEATHER_MODE", ModeLive))
	cfg.FixtureDir = os.Getenv("WEATHER_FIXTURE_DIR")

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 0); err != nil {
		return nil, err
	}
	if cfg.CoordinateMaxAge, err = getenvDuration("COORDINATE_MAX_AGE", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.LocationTimeout, err = getenvDuration("LOCATION_TIMEOUT", 0); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", 0); err != nil {
		return nil, err
	}

	if err := loadLocation(cfg); err != nil {
		return nil, err
	}

	cfg.WindSpeedUnit = getenvDefault("WIND_SPEED_UNIT", "mph")
	cfg.Port = getenvDefault("PORT", "8080")

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loadLocation(cfg *AppConfig) error {
	lat, err := getenvFloat("WEATHER_LAT")
	if err != nil {
		return err
	}
	lon, err := getenvFloat("WEATHER_LON")
	if err != nil {
		return err
	}
	if (lat == nil) != (lon == nil) {
		return fmt.Errorf("WEATHER_LAT and WEATHER_LON must be set together")
	}
	if lat != nil {
		if err := location.Validate(location.Coordinate{Latitude: *lat, Longitude: *lon}); err != nil {
			return err
		}
	}
	cfg.Latitude, cfg.Longitude = lat, lon

	cfg.LocationCity = strings.TrimSpace(os.Getenv("WEATHER_LOCATION_CITY"))
	cfg.LocationCountry = strings.TrimSpace(os.Getenv("WEATHER_LOCATION_COUNTRY"))
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	status, err := location.ParseAuthorizationStatus(getenvDefault("LOCATION_AUTHORIZATION", "authorized"))
	if err != nil {
		return fmt.Errorf("invalid LOCATION_AUTHORIZATION: %w", err)
	}
	cfg.Authorization = status
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getenvFloat(key string) (*float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return &f, nil
}
