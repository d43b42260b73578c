package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	domainerror "github.com/user-accounts/backend/internal/domain/error"
	"github.com/user-accounts/backend/internal/integration/entrypoint/dto"
)

const rateLimitKeyPrefix = "ratelimit:"

// fixedWindow counts a hit and starts the window on the first one.
var fixedWindow = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("PTTL", KEYS[1])}
`)

// RateLimiter limits requests per client IP with a fixed window kept in
// Redis, so every API instance shares the same counters.
type RateLimiter struct {
	client         *redis.Client
	scope          string
	maxAttempts    int
	windowDuration time.Duration
	logger         *slog.Logger
}

// NewRateLimiter creates a rate limiter for one group of routes. A
// non-positive maxAttempts disables limiting.
func NewRateLimiter(client *redis.Client, scope string, maxAttempts int, windowDuration time.Duration, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{
		client:         client,
		scope:          scope,
		maxAttempts:    maxAttempts,
		windowDuration: windowDuration,
		logger:         logger.With("component", "rate_limiter", "scope", scope),
	}
}

// Middleware returns a Gin middleware handler that enforces rate limiting.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.maxAttempts <= 0 {
			c.Next()
			return
		}

		clientIP := c.ClientIP()
		if clientIP == "" {
			clientIP = c.Request.RemoteAddr
		}

		allowed, retryAfter, err := rl.allow(c.Request.Context(), clientIP)
		if err != nil {
			// Fail open; the limiter must not take logins down with Redis.
			rl.logger.Warn("Rate limit check failed", "error", err)
			c.Next()
			return
		}

		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Round(time.Second).Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.ErrorResponse{
				Error: "Too many requests. Please try again later.",
				Code:  string(domainerror.ErrCodeRateLimited),
			})
			return
		}

		c.Next()
	}
}

// allow counts a request from key and reports whether it is within the limit.
func (rl *RateLimiter) allow(ctx context.Context, key string) (bool, time.Duration, error) {
	res, err := fixedWindow.Run(ctx, rl.client,
		[]string{rateLimitKeyPrefix + rl.scope + ":" + key},
		rl.windowDuration.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return false, 0, err
	}

	count, ttl := res[0], time.Duration(res[1])*time.Millisecond
	return count <= int64(rl.maxAttempts), ttl, nil
}
