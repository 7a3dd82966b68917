package lockout

import (
	"context"
	"sync"
	"time"

	"github.com/amirhosseinghanipour/expensa/internal/application/ports"
)

// DefaultCooldown applies when a store is built with a non-positive cooldown.
const DefaultCooldown = 15 * time.Minute

type entry struct {
	failures     int
	firstFailure time.Time
	lockedUntil  time.Time
}

// expired reports whether e no longer affects logins: its lock has run out, or it
// never locked and its counting window has closed.
func (e *entry) expired(now time.Time, cooldown time.Duration) bool {
	if !e.lockedUntil.IsZero() {
		return !now.Before(e.lockedUntil)
	}
	return !now.Before(e.firstFailure.Add(cooldown))
}

// MemoryStore is an in-memory LoginLockoutStore for a single instance. Use RedisStore
// when several instances share logins.
type MemoryStore struct {
	mu       sync.Mutex
	data     map[string]*entry
	max      int
	cooldown time.Duration
	now      func() time.Time
	swept    time.Time
}

// NewMemoryStore locks an email for cooldown after maxAttempts failures. maxAttempts 0 disables lockout.
func NewMemoryStore(maxAttempts int, cooldown time.Duration) *MemoryStore {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &MemoryStore{
		data:     make(map[string]*entry),
		max:      maxAttempts,
		cooldown: cooldown,
		now:      time.Now,
	}
}

func (s *MemoryStore) IsLocked(ctx context.Context, email string) (bool, int) {
	if s.max <= 0 {
		return false, 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[email]
	if !ok {
		return false, 0
	}
	remaining := e.lockedUntil.Sub(s.now())
	if remaining <= 0 {
		return false, 0
	}
	return true, retrySeconds(remaining)
}

func (s *MemoryStore) RecordFailure(ctx context.Context, email string) {
	if s.max <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweep(now)
	// Failures count within a cooldown-long window, as the Redis counter's TTL does.
	e := s.data[email]
	if e == nil || e.expired(now, s.cooldown) {
		e = &entry{firstFailure: now}
		s.data[email] = e
	}
	e.failures++
	if e.failures >= s.max {
		e.lockedUntil = now.Add(s.cooldown)
	}
}

func (s *MemoryStore) RecordSuccess(ctx context.Context, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, email)
}

// sweep drops expired entries, at most once per cooldown.
func (s *MemoryStore) sweep(now time.Time) {
	if now.Before(s.swept.Add(s.cooldown)) {
		return
	}
	s.swept = now
	for email, e := range s.data {
		if e.expired(now, s.cooldown) {
			delete(s.data, email)
		}
	}
}

// retrySeconds rounds up so a caller never retries while still locked.
func retrySeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

var _ ports.LoginLockoutStore = (*MemoryStore)(nil)
