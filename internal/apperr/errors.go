// FILE: internal/apperr/errors.go
package apperr

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Sentinel errors for the API error taxonomy. Services wrap these with
// fmt.Errorf("...: %w", Err...) and the error handler middleware maps
// them to HTTP statuses.
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrQuotaExceeded   = fmt.Errorf("%w: quota exceeded", ErrConflict)
	ErrInvalidPlan     = fmt.Errorf("%w: invalid plan", ErrValidation)
	ErrUpstream        = errors.New("upstream failure")
)

// UpstreamFormatError signals that an external service answered, but with
// content we could not parse. Raw is kept for diagnostics and returned to
// the caller.
type UpstreamFormatError struct {
	Raw string
}

func (e *UpstreamFormatError) Error() string {
	return "failed to parse upstream response"
}

func (e *UpstreamFormatError) Unwrap() error {
	return ErrUpstream
}

// StatusCode maps a taxonomy error to its HTTP status. Order matters:
// quota exceeded is a Conflict, invalid plan is a ValidationError.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return fiber.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrConflict):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
