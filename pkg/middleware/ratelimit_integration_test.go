package middleware

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRedis(t *testing.T) *goredis.Client {
	t.Helper()
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run")
	}
	addr := "localhost:6379"
	if host := os.Getenv("TEST_REDIS_HOST"); host != "" {
		addr = host + ":6379"
	}
	client := goredis.NewClient(&goredis.Options{Addr: addr, Password: os.Getenv("TEST_REDIS_PASSWORD")})
	require.NoError(t, client.Ping(context.Background()).Err())
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// A burst of concurrent checkouts from one client drains exactly the bucket
func TestRedisRateLimiter_ConcurrentBurst_Integration(t *testing.T) {
	client := testRedis(t)
	ctx := context.Background()
	key := "herd:" + time.Now().Format("150405.000000")
	defer client.Del(ctx, "test:ratelimit:"+key)

	rl := NewRedisRateLimiter(RateLimitConfig{
		RequestsPerSecond: 0.01,
		BurstSize:         10,
		Redis:             client,
		KeyPrefix:         "test:ratelimit:",
	})

	const requests = 200
	var allowed, errs int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			ok, err := rl.Allow(ctx, key)
			if err != nil {
				atomic.AddInt32(&errs, 1)
				return
			}
			if ok {
				atomic.AddInt32(&allowed, 1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(0), errs)
	assert.Equal(t, int32(10), allowed)
}
