package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RateLimit caps requests per client IP over a fixed window, counted in
// Redis. With no Redis client configured the middleware is a no-op, and a
// Redis failure lets the request through.
func RateLimit(client *redis.Client, maxRequests int, window time.Duration, logger zerolog.Logger) fiber.Handler {
	if client == nil || maxRequests <= 0 || window <= 0 {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	logger = logger.With().Str("component", "ratelimit").Logger()

	return func(c *fiber.Ctx) error {
		key := "ratelimit:" + c.IP()

		pipe := client.Pipeline()
		count := pipe.Incr(c.Context(), key)
		pipe.Expire(c.Context(), key, window)
		if _, err := pipe.Exec(c.Context()); err != nil {
			logger.Error().Err(err).Msg("rate limit check failed")
			return c.Next()
		}

		if count.Val() > int64(maxRequests) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests",
			})
		}

		return c.Next()
	}
}
