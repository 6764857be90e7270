package goGrant

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/redis/go-redis/v9"
)

var (
	errRequestLimiterUnavailable = errors.New("request limiter unavailable")
)

// requestLimiter enforces a fixed window of narrow/derive attempts per API
// key. Redis keys are built from a hash of the key so raw credential material
// never reaches redis.
type requestLimiter struct {
	redis  *redis.Client
	config SecurityConfig
}

func newRequestLimiter(redisClient *redis.Client, cfg SecurityConfig) *requestLimiter {
	return &requestLimiter{
		redis:  redisClient,
		config: cfg,
	}
}

func (l *requestLimiter) Check(ctx context.Context, apiKey string) error {
	if l == nil || !l.config.EnableRequestThrottle {
		return nil
	}
	return l.enforceFixedWindow(ctx, requestWindowKey(l.config.RedisPrefix, apiKey))
}

func (l *requestLimiter) enforceFixedWindow(ctx context.Context, key string) error {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return wrapUnavailable(errRequestLimiterUnavailable, err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.RequestCooldown).Err(); err != nil {
			return wrapUnavailable(errRequestLimiterUnavailable, err)
		}
	}

	if count > int64(l.config.MaxRequestsPerWindow) {
		return ErrRequestRateLimited
	}

	return nil
}

func requestWindowKey(prefix, apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return prefix + "rw:" + hex.EncodeToString(sum[:16])
}
