package lockout

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/expensa/internal/application/ports"
)

const keyPrefix = "expensa:lockout:"

// RedisStore is a LoginLockoutStore shared by every instance pointing at the same Redis.
// Failure counters expire after the cooldown window; a lock is a key with the cooldown as TTL.
// Redis errors are logged and treated as "not locked" so an outage cannot block all logins.
type RedisStore struct {
	rdb      redis.UniversalClient
	max      int
	cooldown time.Duration
	log      zerolog.Logger
}

func NewRedisStore(rdb redis.UniversalClient, maxAttempts int, cooldown time.Duration, log zerolog.Logger) *RedisStore {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &RedisStore{
		rdb:      rdb,
		max:      maxAttempts,
		cooldown: cooldown,
		log:      log.With().Str("component", "lockout").Logger(),
	}
}

func failKey(email string) string { return keyPrefix + "fail:" + email }
func lockKey(email string) string { return keyPrefix + "lock:" + email }

func (s *RedisStore) IsLocked(ctx context.Context, email string) (bool, int) {
	if s.max <= 0 {
		return false, 0
	}
	ttl, err := s.rdb.PTTL(ctx, lockKey(email)).Result()
	if err != nil {
		s.log.Warn().Err(err).Msg("lockout lookup failed")
		return false, 0
	}
	// -2 missing, -1 no expiry; a lock is always written with one.
	if ttl <= 0 {
		return false, 0
	}
	return true, retrySeconds(ttl)
}

func (s *RedisStore) RecordFailure(ctx context.Context, email string) {
	if s.max <= 0 {
		return
	}
	n, err := s.rdb.Incr(ctx, failKey(email)).Result()
	if err != nil {
		s.log.Warn().Err(err).Msg("lockout record failure failed")
		return
	}
	if n == 1 {
		if err := s.rdb.Expire(ctx, failKey(email), s.cooldown).Err(); err != nil {
			s.log.Warn().Err(err).Msg("lockout window expiry failed")
		}
	}
	if n < int64(s.max) {
		return
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, lockKey(email), 1, s.cooldown)
	pipe.Del(ctx, failKey(email))
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn().Err(err).Msg("lockout lock failed")
	}
}

func (s *RedisStore) RecordSuccess(ctx context.Context, email string) {
	if err := s.rdb.Del(ctx, failKey(email), lockKey(email)).Err(); err != nil {
		s.log.Warn().Err(err).Msg("lockout reset failed")
	}
}

var _ ports.LoginLockoutStore = (*RedisStore)(nil)
