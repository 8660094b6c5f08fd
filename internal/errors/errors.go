// internal/errors/errors.go
package errors

import "fmt"

// ErrMalformedResponse is returned when an upstream API response is missing a
// field the pipeline cannot proceed without.
type ErrMalformedResponse struct {
	Field string
}

func (e *ErrMalformedResponse) Error() string {
	return fmt.Sprintf("malformed upstream response: missing %q", e.Field)
}
