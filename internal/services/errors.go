// internal/services/errors.go
package services

import (
	"errors"
	"fmt"
)

// Sentinel errors the handlers map onto HTTP status codes. Services wrap them
// with context via fmt.Errorf("...: %w", Err...).
var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
	ErrConflict  = errors.New("conflict")
	ErrInvalid   = errors.New("invalid request")
)

func notFoundErr(resource string) error {
	return fmt.Errorf("%s %w", resource, ErrNotFound)
}

func conflictErr(message string) error {
	return fmt.Errorf("%s: %w", message, ErrConflict)
}

func forbiddenErr(message string) error {
	return fmt.Errorf("%s: %w", message, ErrForbidden)
}

func invalidErr(message string) error {
	return fmt.Errorf("%s: %w", message, ErrInvalid)
}
