package errors

import (
	"errors"
	"sort"
	"strconv"
	"strings"
)

// Sentinel errors for handlers to map to HTTP status.
var (
	ErrValidation          = errors.New("validation failed")
	ErrEmailTaken          = errors.New("a user with this email already exists")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInconsistentState   = errors.New("tenants exist but none could be loaded")
	ErrTokenInvalid        = errors.New("invalid session token")
	ErrTransactionConflict = errors.New("concurrent bootstrap transaction conflict")
	ErrAccountLocked       = errors.New("too many failed login attempts")
)

// ValidationError lists per-field messages. errors.Is(err, ErrValidation) holds.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns a ValidationError for a single field.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// LockedError reports an email in login cooldown. errors.Is(err, ErrAccountLocked) holds.
type LockedError struct {
	RetryAfterSeconds int
}

func (e *LockedError) Error() string {
	return ErrAccountLocked.Error() + "; retry after " + strconv.Itoa(e.RetryAfterSeconds) + "s"
}

func (e *LockedError) Is(target error) bool {
	return target == ErrAccountLocked
}
