package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	for _, err := range []error{
		ErrValidation,
		ErrEmailTaken,
		ErrInvalidCredentials,
		ErrInconsistentState,
		ErrTokenInvalid,
		ErrTransactionConflict,
		ErrAccountLocked,
	} {
		if err == nil {
			t.Fatal("sentinel should not be nil")
		}
	}
}

func TestValidationErrorIs(t *testing.T) {
	err := fmt.Errorf("signup: %w", &ValidationError{Fields: map[string]string{
		"password": "must be at least 8 characters",
		"email":    "must be a valid email",
	}})
	if !errors.Is(err, ErrValidation) {
		t.Error("wrapped ValidationError should match ErrValidation")
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatal("errors.As should find ValidationError")
	}
	want := "validation failed: email: must be a valid email; password: must be at least 8 characters"
	if ve.Error() != want {
		t.Errorf("Error() = %q, want %q", ve.Error(), want)
	}
	if errors.Is(err, ErrEmailTaken) {
		t.Error("ValidationError must not match ErrEmailTaken")
	}
}

func TestLockedErrorIs(t *testing.T) {
	err := fmt.Errorf("login: %w", &LockedError{RetryAfterSeconds: 30})
	if !errors.Is(err, ErrAccountLocked) {
		t.Fatal("expected LockedError to match ErrAccountLocked")
	}
	var locked *LockedError
	if !errors.As(err, &locked) || locked.RetryAfterSeconds != 30 {
		t.Fatalf("expected retry after 30s, got %+v", locked)
	}
}
