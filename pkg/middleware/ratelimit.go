package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/imobsites/imobsites-panel/pkg/logger"
	"github.com/imobsites/imobsites-panel/pkg/response"
)

// RateLimitConfig holds per-client rate limiting configuration
type RateLimitConfig struct {
	// RequestsPerSecond refills the bucket (0 = unlimited)
	RequestsPerSecond float64
	// BurstSize is the bucket capacity
	BurstSize int
	// Redis shares buckets across replicas when set
	Redis goredis.Scripter
	// KeyPrefix namespaces the Redis keys
	KeyPrefix string
	// EntryTTL drops idle local buckets
	EntryTTL time.Duration
}

// DefaultRateLimitConfig returns limits suited to public form posts
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 2,
		BurstSize:         10,
		KeyPrefix:         "ratelimit:",
		EntryTTL:          10 * time.Minute,
	}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalRateLimiter keeps one token bucket per key in memory
type LocalRateLimiter struct {
	config  RateLimitConfig
	mu      sync.Mutex
	entries map[string]*limiterEntry
	now     func() time.Time
}

// NewLocalRateLimiter creates a new local rate limiter
func NewLocalRateLimiter(config RateLimitConfig) *LocalRateLimiter {
	return &LocalRateLimiter{
		config:  config,
		entries: make(map[string]*limiterEntry),
		now:     time.Now,
	}
}

// Allow takes one token from key's bucket
func (rl *LocalRateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	e, ok := rl.entries[key]
	if !ok {
		rl.sweep(now)
		e = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.BurstSize)}
		rl.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// sweep drops idle buckets; caller holds mu
func (rl *LocalRateLimiter) sweep(now time.Time) {
	if rl.config.EntryTTL <= 0 {
		return
	}
	cutoff := now.Add(-rl.config.EntryTTL)
	for k, e := range rl.entries {
		if e.lastSeen.Before(cutoff) {
			delete(rl.entries, k)
		}
	}
}

// tokenBucketScript refills and takes one token atomically
var tokenBucketScript = goredis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local data = redis.call("HMGET", key, "tokens", "last_update")
local tokens = tonumber(data[1]) or burst
local last_update = tonumber(data[2]) or now

tokens = math.min(burst, tokens + (now - last_update) * rate)

local allowed = 0
if tokens >= 1 then
	tokens = tokens - 1
	allowed = 1
end
redis.call("HSET", key, "tokens", tokens, "last_update", now)
redis.call("EXPIRE", key, 60)
return allowed
`)

// RedisRateLimiter keeps the buckets in Redis so every replica sees them
type RedisRateLimiter struct {
	config RateLimitConfig
}

// NewRedisRateLimiter creates a new Redis rate limiter
func NewRedisRateLimiter(config RateLimitConfig) *RedisRateLimiter {
	return &RedisRateLimiter{config: config}
}

// Allow takes one token from key's bucket
func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := float64(time.Now().UnixNano()) / 1e9
	allowed, err := tokenBucketScript.Run(ctx, rl.config.Redis,
		[]string{rl.config.KeyPrefix + key},
		rl.config.RequestsPerSecond,
		rl.config.BurstSize,
		now,
	).Int()
	if err != nil {
		return false, fmt.Errorf("rate limit script: %w", err)
	}
	return allowed == 1, nil
}

// RateLimiter limits requests per client IP and route
func RateLimiter(config RateLimitConfig) gin.HandlerFunc {
	if config.RequestsPerSecond <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	var local *LocalRateLimiter
	var remote *RedisRateLimiter
	if config.Redis != nil {
		remote = NewRedisRateLimiter(config)
	} else {
		local = NewLocalRateLimiter(config)
	}

	return func(c *gin.Context) {
		key := c.ClientIP() + ":" + c.FullPath()

		var allowed bool
		if remote != nil {
			var err error
			allowed, err = remote.Allow(c.Request.Context(), key)
			if err != nil {
				// fail open
				logger.Get().WithContext(c.Request.Context()).Warn("rate limiter unavailable", zap.Error(err))
				allowed = true
			}
		} else {
			allowed = local.Allow(key)
		}

		c.Header("X-RateLimit-Limit", strconv.FormatFloat(config.RequestsPerSecond, 'f', -1, 64))
		if !allowed {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				response.Error(response.ErrCodeTooManyRequests, "Rate limit exceeded. Please retry in a moment."))
			return
		}

		c.Next()
	}
}
