package weather

import (
	"errors"
	"fmt"
)

var errMissingField = errors.New("missing required field")

// DecodeError reports a response body that does not match the report schema.
// Field is the JSON path of the offending field, empty when the body itself
// is not valid JSON.
type DecodeError struct {
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("decode weather report: %v", e.Err)
	}
	return fmt.Sprintf("decode weather report: field %q: %v", e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// FetchError wraps every failure of a current-weather fetch.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return "fetch current weather: " + e.Err.Error()
}

func (e *FetchError) Unwrap() error { return e.Err }
