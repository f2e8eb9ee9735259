package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds returned by the allocation engine and party manager. Every
// failed operation wraps exactly one of these so controllers can map it
// to an HTTP status without string matching.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidState = errors.New("invalid state")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("store unavailable")
)

// StoreError wraps an unexpected storage failure as ErrUnavailable,
// keeping the driver error visible in the message.
func StoreError(err error) error {
	return fmt.Errorf("%v: %w", err, ErrUnavailable)
}

// HTTPStatus maps an error kind to its HTTP status code. Unknown errors
// are treated as unexpected store failures.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidState):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
