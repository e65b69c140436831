package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/inspiringwave/ticket-management/internal/config"
)

// LoginRateLimiter returns a fixed-window limiter keyed by client IP, backed
// by Redis INCR with a TTL on the first hit of each window. When Redis is
// unreachable the request passes through rather than locking everyone out.
func LoginRateLimiter(cfg config.RateLimitConfig, rdb *redis.Client, logger *zap.Logger) fiber.Handler {
	if !cfg.Enabled || rdb == nil {
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	return func(c *fiber.Ctx) error {
		key := cfg.KeyPrefix + ":" + c.IP()
		ctx := c.UserContext()

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.Error(err))
			return c.Next()
		}
		if count == 1 {
			if err := rdb.Expire(ctx, key, cfg.Window()).Err(); err != nil {
				logger.Warn("rate limiter expire failed", zap.String("key", key), zap.Error(err))
			}
		}

		remaining := int64(cfg.MaxAttempts) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(cfg.MaxAttempts))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(cfg.MaxAttempts) {
			ttl, err := rdb.TTL(ctx, key).Result()
			if err == nil && ttl > 0 {
				c.Set("Retry-After", strconv.Itoa(int(ttl.Seconds())))
			}
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    "TOO_MANY_REQUESTS",
					"message": "too many login attempts, try again later",
				},
			})
		}
		return c.Next()
	}
}
