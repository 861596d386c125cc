// Package apperror defines the error taxonomy shared by every layer.
//
// Lower layers return one of the sentinels below (usually wrapped in an AppError
// carrying a human-readable message). Only the HTTP layer turns them into status
// codes, via Status.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation error")
	ErrConflict           = errors.New("conflict")
	ErrAuthRequired       = errors.New("authentication required")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrCatalogNotFound    = errors.New("catalog entry not found")

	// ErrDuplicateKey is raised by storage when a UNIQUE constraint rejects an insert.
	// It is recovered inside the reconciler and never reaches a user.
	ErrDuplicateKey = errors.New("duplicate key")
)

type AppError struct {
	Err     error  // sentinel
	Message string // Human-readable error message
	Field   string // Optional: form field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(field, message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
		Field:   field,
	}
}

func AuthRequired() *AppError {
	return &AppError{
		Err:     ErrAuthRequired,
		Message: "valid authentication required",
	}
}

// CatalogUnavailable wraps the underlying transport or decoding failure so it
// still shows up in server logs, while Message stays safe to display.
func CatalogUnavailable(cause error) *AppError {
	err := ErrCatalogUnavailable
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrCatalogUnavailable, cause)
	}
	return &AppError{
		Err:     err,
		Message: "Could not fetch games from external service.",
	}
}

func CatalogNotFound(externalID int64) *AppError {
	return &AppError{
		Err:     ErrCatalogNotFound,
		Message: fmt.Sprintf("game %d was not found in the catalog", externalID),
	}
}

func DuplicateKey(resource string, cause error) *AppError {
	err := ErrDuplicateKey
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrDuplicateKey, cause)
	}
	return &AppError{
		Err:     err,
		Message: fmt.Sprintf("%s already exists", resource),
	}
}

// Status maps an error chain to the HTTP status the boundary should use.
// Anything unclassified, including raw storage failures, is a 500.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrCatalogNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrAuthRequired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrCatalogUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the display text for err. Unclassified errors never leak
// their text: the caller gets a fixed, opaque message instead.
func Message(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && Status(err) != http.StatusInternalServerError {
		return appErr.Message
	}
	return "An internal server error occurred."
}
