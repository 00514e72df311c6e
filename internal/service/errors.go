// Package service holds the business rules: the product registry, the
// balance engine, reporting, notifications and the token service.  Errors
// returned from here wrap the sentinels below; handlers map them to HTTP.
package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("conflict")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidRange         = errors.New("invalid date range")
	ErrNotificationDelivery = errors.New("notification delivery failed")
)

// ValidationError reports malformed input.  Field is the JSON name.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func notFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}

func conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// unauthorized keeps the reason for logs; callers only ever show the
// sentinel's text.
func unauthorized(reason string) error {
	return fmt.Errorf("%w: %s", ErrUnauthorized, reason)
}
