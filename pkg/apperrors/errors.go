package apperrors

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the failure classes every command can return.
// Typed wrappers below unwrap to these so callers can branch with errors.Is.
var (
	ErrValidation     = errors.New("validation failed")
	ErrAuthentication = errors.New("authentication required")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrRateLimited    = errors.New("rate limited")
	ErrInvalidCursor  = errors.New("invalid cursor")
	ErrAlreadyExists  = errors.New("already exists")
)

// ValidationError reports malformed input or a domain invariant violation.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "validation failed: " + e.Reason }
func (e *ValidationError) Unwrap() error { return ErrValidation }

func Validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// AuthzError reports a denied action. The action name is kept so the
// transport layer can tell the caller what exactly was refused.
type AuthzError struct {
	Action string
}

func (e *AuthzError) Error() string { return "not allowed to " + e.Action }
func (e *AuthzError) Unwrap() error { return ErrForbidden }

// ConflictError reports a state transition that is no longer legal, such as
// an expired edit window or removing the last owner.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return "conflict: " + e.Reason }
func (e *ConflictError) Unwrap() error { return ErrConflict }

func Conflictf(format string, args ...any) error {
	return &ConflictError{Reason: fmt.Sprintf(format, args...)}
}

// RateLimitError tells the sender when the window resets.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }
