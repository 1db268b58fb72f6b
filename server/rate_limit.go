package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimiterConfig configures the fixed-window limiter.
type RateLimiterConfig struct {
	RedisClient *redis.Client
	Limit       int
	Window      time.Duration
	KeyPrefix   string

	// Extractor identifies the client. Defaults to c.ClientIP(), which only
	// honours forwarding headers from the engine's trusted proxies.
	Extractor func(c *gin.Context) string
}

// NewRateLimiter counts requests per client in Redis and rejects the
// excess with 429. Redis errors let the request through.
func NewRateLimiter(cfg RateLimiterConfig) gin.HandlerFunc {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "equipdash:rl:"
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Second
	}
	if cfg.Extractor == nil {
		cfg.Extractor = func(c *gin.Context) string { return c.ClientIP() }
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id := cfg.Extractor(c)
		if id == "" {
			id = "anonymous"
		}
		key := cfg.KeyPrefix + id

		// The window starts with the first request; SET NX PX and INCR run in
		// one transaction so a counter never exists without its expiry.
		var (
			count *redis.IntCmd
			ttl   *redis.DurationCmd
		)
		_, err := cfg.RedisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SetArgs(ctx, key, 0, redis.SetArgs{Mode: "NX", TTL: cfg.Window})
			count = pipe.Incr(ctx, key)
			ttl = pipe.PTTL(ctx, key)
			return nil
		})
		// SET NX replies nil when the window is already open.
		if err != nil && !errors.Is(err, redis.Nil) {
			c.Next()
			return
		}

		reset := int(ttl.Val().Seconds())
		if reset < 0 {
			reset = 0
		}
		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", cfg.Limit))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", reset))

		if count.Val() > int64(cfg.Limit) {
			c.Header("X-RateLimit-Remaining", "0")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":           "rate limit exceeded",
				"retry_after_sec": reset,
			})
			return
		}

		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", cfg.Limit-int(count.Val())))
		c.Next()
	}
}
