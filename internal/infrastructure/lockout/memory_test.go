package lockout

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryStore_LocksAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(3, time.Minute)
	s.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		s.RecordFailure(ctx, "ann@acme.test")
		locked, _ := s.IsLocked(ctx, "ann@acme.test")
		assert.False(t, locked)
	}
	s.RecordFailure(ctx, "ann@acme.test")
	locked, retry := s.IsLocked(ctx, "ann@acme.test")
	assert.True(t, locked)
	assert.Equal(t, 60, retry)

	other, _ := s.IsLocked(ctx, "bob@acme.test")
	assert.False(t, other)

	now = now.Add(time.Minute)
	locked, _ = s.IsLocked(ctx, "ann@acme.test")
	assert.False(t, locked)

	// Counting starts over after the cooldown.
	s.RecordFailure(ctx, "ann@acme.test")
	locked, _ = s.IsLocked(ctx, "ann@acme.test")
	assert.False(t, locked)
}

func TestMemoryStore_FailuresExpireAfterCooldown(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(3, time.Minute)
	s.now = func() time.Time { return now }

	s.RecordFailure(ctx, "ann@acme.test")
	s.RecordFailure(ctx, "ann@acme.test")
	now = now.Add(time.Minute)
	s.RecordFailure(ctx, "ann@acme.test")
	locked, _ := s.IsLocked(ctx, "ann@acme.test")
	assert.False(t, locked, "failures outside the window must not count")

	s.RecordFailure(ctx, "ann@acme.test")
	s.RecordFailure(ctx, "ann@acme.test")
	locked, _ = s.IsLocked(ctx, "ann@acme.test")
	assert.True(t, locked)
}

func TestMemoryStore_EvictsStaleEntries(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(3, time.Minute)
	s.now = func() time.Time { return now }

	for i := 0; i < 10; i++ {
		s.RecordFailure(ctx, fmt.Sprintf("user%d@acme.test", i))
	}
	assert.Len(t, s.data, 10)

	now = now.Add(2 * time.Minute)
	s.RecordFailure(ctx, "ann@acme.test")
	assert.Len(t, s.data, 1)
	assert.Contains(t, s.data, "ann@acme.test")
}

func TestMemoryStore_SuccessResets(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2, time.Minute)

	s.RecordFailure(ctx, "ann@acme.test")
	s.RecordSuccess(ctx, "ann@acme.test")
	s.RecordFailure(ctx, "ann@acme.test")
	locked, _ := s.IsLocked(ctx, "ann@acme.test")
	assert.False(t, locked)
}

func TestMemoryStore_Disabled(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0, time.Minute)
	for i := 0; i < 10; i++ {
		s.RecordFailure(ctx, "ann@acme.test")
	}
	locked, _ := s.IsLocked(ctx, "ann@acme.test")
	assert.False(t, locked)
}
