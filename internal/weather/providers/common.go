package providers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/i474232898/weather-now/internal/weather"
	"github.com/sony/gobreaker"
)

var (
	// ErrEmptyBody is returned when a request succeeds but carries no content.
	ErrEmptyBody    = errors.New("empty response body")
	errNoHTTPClient = errors.New("http client not configured")
)

// TransportError wraps a failure to obtain a response at all.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "transport: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// Performer loads the raw bytes behind a resolved URL.
type Performer interface {
	Perform(ctx context.Context, target *url.URL) ([]byte, error)
}

// HTTPPerformer issues a single GET per call through a circuit breaker.
// Status codes are not inspected; an error page is handed to the decoder
// like any other body.
type HTTPPerformer struct {
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

// breakerOpenTimeout is how long an open circuit fails fast before it lets
// a trial request through.
const breakerOpenTimeout = 15 * time.Second

// callerError marks a request that ended because the caller's context did.
// The server was not at fault, so the breaker does not count it.
type callerError struct {
	err error
}

func (e *callerError) Error() string { return e.err.Error() }

func (e *callerError) Unwrap() error { return e.err }

func countsAsSuccess(err error) bool {
	var ce *callerError
	return err == nil || errors.As(err, &ce)
}

// NewHTTPPerformer creates a performer. A nil client is rejected on use.
func NewHTTPPerformer(name string, client *http.Client) *HTTPPerformer {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:         name,
		MaxRequests:  5,
		Interval:     1 * time.Minute,
		Timeout:      breakerOpenTimeout,
		IsSuccessful: countsAsSuccess,
	})

	return &HTTPPerformer{
		client:  client,
		circuit: cb,
	}
}

func (p *HTTPPerformer) Perform(ctx context.Context, target *url.URL) ([]byte, error) {
	if p.client == nil {
		return nil, &TransportError{Err: errNoHTTPClient}
	}
	if err := ctx.Err(); err != nil {
		return nil, &TransportError{Err: err}
	}

	result, err := p.circuit.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
		if err != nil {
			return nil, err
		}

		resp, err := p.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, &callerError{err: err}
			}
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil && ctx.Err() != nil {
			return nil, &callerError{err: err}
		}
		return body, err
	})
	if err != nil {
		// Includes gobreaker.ErrOpenState: an open circuit fails fast.
		return nil, &TransportError{Err: err}
	}

	body, ok := result.([]byte)
	if !ok {
		return nil, &TransportError{Err: fmt.Errorf("unexpected result type %T from circuit breaker", result)}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyBody
	}
	return body, nil
}

// Do performs target and decodes the body. Decode failures always surface as
// *weather.DecodeError.
func Do[T any](ctx context.Context, p Performer, target *url.URL, decode func([]byte) (T, error)) (T, error) {
	var zero T

	body, err := p.Perform(ctx, target)
	if err != nil {
		return zero, err
	}

	v, err := decode(body)
	if err != nil {
		var decodeErr *weather.DecodeError
		if !errors.As(err, &decodeErr) {
			err = &weather.DecodeError{Err: err}
		}
		return zero, err
	}
	return v, nil
}
