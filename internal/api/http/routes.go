package httpapi

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-now/internal/location"
	"github.com/i474232898/weather-now/internal/weather"
)

var validate = validator.New()

// Controller is the subset of weather.Controller the routes drive.
type Controller interface {
	Retry()
	UpdateLocation(coord location.Coordinate) error
	EnableLocationAccess() error
}

// StateSource yields the state to render.
type StateSource interface {
	Latest() weather.State
}

// ErrorHandler renders every error as a JSON body with the matching status.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, ctrl Controller, states StateSource) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather/state", func(c *fiber.Ctx) error {
		return c.JSON(newStateResponse(states.Latest()))
	})

	v1.Post("/weather/retry", func(c *fiber.Ctx) error {
		ctrl.Retry()
		return c.SendStatus(fiber.StatusAccepted)
	})

	v1.Post("/weather/location", func(c *fiber.Ctx) error {
		coord, err := parseCoordinateQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := ctrl.UpdateLocation(coord); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.SendStatus(fiber.StatusAccepted)
	})

	v1.Post("/location/settings", func(c *fiber.Ctx) error {
		if err := ctrl.EnableLocationAccess(); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to open location settings")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// coordinateQuery holds the raw query parameters of a location update.
type coordinateQuery struct {
	Lat string `validate:"required"`
	Lon string `validate:"required"`
}

func parseCoordinateQuery(c *fiber.Ctx) (location.Coordinate, error) {
	q := coordinateQuery{
		Lat: c.Query("lat"),
		Lon: c.Query("lon"),
	}
	if err := validate.Struct(q); err != nil {
		return location.Coordinate{}, err
	}

	lat, err := strconv.ParseFloat(q.Lat, 64)
	if err != nil {
		return location.Coordinate{}, errors.New("lat must be a number")
	}
	lon, err := strconv.ParseFloat(q.Lon, 64)
	if err != nil {
		return location.Coordinate{}, errors.New("lon must be a number")
	}

	coord := location.Coordinate{Latitude: lat, Longitude: lon}
	if err := location.Validate(coord); err != nil {
		return location.Coordinate{}, err
	}
	return coord, nil
}

type stateResponse struct {
	State   string          `json:"state"`
	Cycle   uint64          `json:"cycle"`
	CycleID string          `json:"cycleId,omitempty"`
	Weather *weatherPayload `json:"weather,omitempty"`
	Error   *errorPayload   `json:"error,omitempty"`
}

type weatherPayload struct {
	Name                 string  `json:"name"`
	IconURL              string  `json:"iconUrl,omitempty"`
	TemperatureText      string  `json:"temperature"`
	DescriptionText      *string `json:"description,omitempty"`
	TemperatureRangeText string  `json:"temperatureRange"`
	WindText             string  `json:"wind"`
}

type errorPayload struct {
	Message     string `json:"message"`
	Icon        string `json:"icon"`
	ActionLabel string `json:"actionLabel"`
	Action      string `json:"action"`
}

func newStateResponse(s weather.State) stateResponse {
	resp := stateResponse{
		State:   s.Kind.String(),
		Cycle:   s.Cycle,
		CycleID: s.CycleID,
	}

	if m := s.Model; m != nil {
		resp.Weather = &weatherPayload{
			Name:                 m.Name,
			TemperatureText:      m.TemperatureText,
			DescriptionText:      m.DescriptionText,
			TemperatureRangeText: m.TemperatureRangeText,
			WindText:             m.WindText,
		}
		if m.IconURL != nil {
			resp.Weather.IconURL = m.IconURL.String()
		}
	}

	if f := s.Failure; f != nil {
		resp.Error = &errorPayload{
			Message:     f.Message,
			Icon:        f.IconRef,
			ActionLabel: f.ActionLabel,
			Action:      f.Action.String(),
		}
	}

	return resp
}
