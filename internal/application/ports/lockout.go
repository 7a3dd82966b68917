package ports

import "context"

// LoginLockoutStore tracks failed login attempts and cooldown per email.
// Keys are emails whether or not an account exists, so lock state reveals nothing.
type LoginLockoutStore interface {
	// IsLocked returns true if the email is locked, and the remaining cooldown.
	IsLocked(ctx context.Context, email string) (locked bool, retryAfterSeconds int)
	// RecordFailure records a failed login; may lock the email after N failures.
	RecordFailure(ctx context.Context, email string)
	// RecordSuccess clears the failure count (call on successful login).
	RecordSuccess(ctx context.Context, email string)
}
