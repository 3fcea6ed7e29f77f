package location

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrDenied is returned when the user denied or the platform restricted location access.
	ErrDenied = errors.New("location access denied")
	// ErrUnavailable is returned when no coordinate could be obtained.
	ErrUnavailable = errors.New("location unavailable")
)

var validate = validator.New()

// Coordinate is a single location fix. It has no identity beyond its value.
type Coordinate struct {
	Latitude  float64 `json:"lat" validate:"min=-90,max=90"`
	Longitude float64 `json:"lon" validate:"min=-180,max=180"`
}

// Validate reports whether c lies within the valid latitude/longitude range.
func Validate(c Coordinate) error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid coordinate (%f, %f): %w", c.Latitude, c.Longitude, err)
	}
	return nil
}

// AuthorizationStatus mirrors the platform's location permission states.
type AuthorizationStatus int

const (
	NotDetermined AuthorizationStatus = iota
	Denied
	Restricted
	Authorized
)

func (s AuthorizationStatus) String() string {
	switch s {
	case NotDetermined:
		return "not_determined"
	case Denied:
		return "denied"
	case Restricted:
		return "restricted"
	case Authorized:
		return "authorized"
	default:
		return fmt.Sprintf("AuthorizationStatus(%d)", int(s))
	}
}

// ParseAuthorizationStatus accepts the names produced by String.
func ParseAuthorizationStatus(s string) (AuthorizationStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "not_determined", "":
		return NotDetermined, nil
	case "denied":
		return Denied, nil
	case "restricted":
		return Restricted, nil
	case "authorized":
		return Authorized, nil
	}
	return NotDetermined, fmt.Errorf("unknown authorization status %q", s)
}

// Update is one event of a location stream: either a coordinate or a failure.
type Update struct {
	Coordinate Coordinate
	Err        error
}

// Provider supplies device coordinates and permission state.
type Provider interface {
	AuthorizationStatus() AuthorizationStatus

	// RequestAuthorization prompts for access and blocks until the user answers
	// or ctx is done. It returns the resulting status.
	RequestAuthorization(ctx context.Context) (AuthorizationStatus, error)

	// Updates subscribes to location events. The stream ends when ctx is done;
	// cancelling ctx is how a subscriber unsubscribes.
	Updates(ctx context.Context) <-chan Update

	// OpenSettings opens the platform's permission settings surface.
	OpenSettings() error
}
