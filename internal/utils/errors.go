package utils

import "fmt"

// ValidationError reports a malformed resolution target or a degenerate
// download window. It is local, surfaced immediately, and never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
