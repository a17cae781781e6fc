package middleware

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	fiberredis "github.com/gofiber/storage/redis/v3"
	"github.com/redis/go-redis/v9"

	"github.com/Alijeyrad/medtrack_backend/config"
)

// NewLimiter is a sliding window limiter keyed by client IP. With a Redis
// client the counters are shared across instances; otherwise they live in
// process memory.
func NewLimiter(rdb redis.UniversalClient, cfg config.RateLimit) fiber.Handler {
	limit := cfg.Max
	if limit <= 0 {
		limit = 20
	}
	exp := time.Duration(cfg.ExpirationSeconds) * time.Second
	if exp <= 0 {
		exp = 30 * time.Second
	}

	lc := limiter.Config{
		Max:               limit,
		Expiration:        exp,
		LimiterMiddleware: limiter.SlidingWindow{},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many requests"})
		},
	}
	if rdb != nil {
		lc.Storage = fiberredis.NewFromConnection(rdb)
	}
	return limiter.New(lc)
}
