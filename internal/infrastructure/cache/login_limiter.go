package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	maxFailedAttempts = 5
	attemptWindow     = 15 * time.Minute
)

// RedisLoginLimiter tracks failed authentication attempts per email so that
// repeated credential guessing gets throttled. Counters expire after the
// attempt window; a successful login resets the counter.
//
// The limiter fails open: if redis is unreachable we log and allow the
// attempt, since authentication itself is decided against the primary store.
type RedisLoginLimiter struct {
	client *redis.Client
}

func NewRedisLoginLimiter(client *RedisClient) *RedisLoginLimiter {
	return &RedisLoginLimiter{client: client.Client}
}

func (l *RedisLoginLimiter) key(email string) string {
	return fmt.Sprintf("login_attempts:%s", email)
}

func (l *RedisLoginLimiter) TooManyAttempts(ctx context.Context, email string) bool {
	count, err := l.client.Get(ctx, l.key(email)).Int()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Msg("login limiter read failed, allowing attempt")
		}
		return false
	}
	return count >= maxFailedAttempts
}

func (l *RedisLoginLimiter) RecordFailure(ctx context.Context, email string) {
	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, l.key(email))
	pipe.Expire(ctx, l.key(email), attemptWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warn().Err(err).Msg("login limiter write failed")
		return
	}

	if incr.Val() == maxFailedAttempts {
		log.Warn().Str("email", email).Msg("login attempt threshold reached")
	}
}

func (l *RedisLoginLimiter) Reset(ctx context.Context, email string) {
	if err := l.client.Del(ctx, l.key(email)).Err(); err != nil {
		log.Warn().Err(err).Msg("login limiter reset failed")
	}
}
