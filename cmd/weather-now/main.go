package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/weather-now/internal/api/http"
	"github.com/i474232898/weather-now/internal/config"
	"github.com/i474232898/weather-now/internal/location"
	"github.com/i474232898/weather-now/internal/scheduler"
	"github.com/i474232898/weather-now/internal/store"
	"github.com/i474232898/weather-now/internal/weather"
	"github.com/i474232898/weather-now/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	fetcher := newFetcher(cfg)

	locator, err := newLocator(cfg)
	if err != nil {
		log.Fatalf("failed to set up location: %v", err)
	}

	// Holds the last fix (reused by Retry) and the last report.
	memStore := store.NewMemoryStore(cfg.CoordinateMaxAge)

	format := weather.DefaultFormatConfig()
	format.WindSpeedUnit = cfg.WindSpeedUnit

	controller := weather.NewController(fetcher, locator, memStore, weather.ControllerConfig{
		Format:        format,
		LocateTimeout: cfg.LocationTimeout,
	})
	presenter := httpapi.NewPresenter(controller.States())

	// Scheduler that periodically refreshes the screen.
	sched := scheduler.New(cfg.RefreshInterval, controller)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "weather-now",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-now",
			"state":   presenter.Latest().Kind.String(),
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, controller, presenter)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	log.Printf("INFO: weather-now listening on :%s (mode=%s, location access=%s)", cfg.Port, cfg.Mode, cfg.Authorization)
	controller.Start()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}

	controller.Close()
	<-presenter.Done()
}

// newFetcher builds the OpenWeather client for the configured mode.
func newFetcher(cfg *config.AppConfig) *providers.OpenWeatherClient {
	if cfg.Mode == config.ModeFixture {
		performer := providers.FixturePerformer{}
		if cfg.FixtureDir != "" {
			performer.FS = os.DirFS(cfg.FixtureDir)
		}
		log.Printf("INFO: serving weather from fixture %s", providers.WeatherFixture)
		return providers.NewOpenWeatherClient(providers.FixtureResolver{Name: providers.WeatherFixture}, performer, cfg.OpenWeatherAPIKey)
	}

	// Zero timeout means the client waits as long as the server does.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	return providers.NewOpenWeatherClient(
		providers.NetworkResolver{BaseURL: cfg.OpenWeatherBaseURL},
		providers.NewHTTPPerformer("openweather", httpClient),
		cfg.OpenWeatherAPIKey,
	)
}

// newLocator seeds a headless location provider from the configured
// coordinate, or from the configured city when only that is set.
func newLocator(cfg *config.AppConfig) (*location.Static, error) {
	locator := location.NewStatic(cfg.Authorization, location.Authorized)

	switch {
	case cfg.HasCoordinate():
		locator.Set(location.Coordinate{Latitude: *cfg.Latitude, Longitude: *cfg.Longitude})
	case cfg.LocationCity != "":
		coord, err := location.ResolveCity(cfg.GeocoderAPIKey, cfg.LocationCity, cfg.LocationCountry)
		if err != nil {
			return nil, err
		}
		log.Printf("INFO: resolved %s,%s to (%f, %f)", cfg.LocationCity, cfg.LocationCountry, coord.Latitude, coord.Longitude)
		locator.Set(coord)
	default:
		log.Println("INFO: no location configured; waiting for POST /api/v1/weather/location")
	}

	return locator, nil
}
