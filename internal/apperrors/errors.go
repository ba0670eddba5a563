// Package apperrors defines the error taxonomy shared across the core:
// validation, not-found, and authorization failures, distinguished so the
// HTTP layer can map them to status codes without string matching.
package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound signals that a requested snapshot, file, or entry is absent.
	ErrNotFound = errors.New("not found")
	// ErrForbidden signals a privileged operation attempted without the
	// required admin flag.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError reports required fields missing from a request.
type ValidationError struct {
	// Missing lists the names of the absent required fields.
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Missing, ", "))
}
