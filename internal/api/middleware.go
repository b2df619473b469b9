package api

import (
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/trust-insurance/quotation/internal/metrics"
	"github.com/trust-insurance/quotation/internal/rate"
)

// RateLimit rejects clients that exceed their token bucket with 429.
// Clients are keyed by remote IP.
func RateLimit(m *rate.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.IP()
		if m.Allow(key) {
			return c.Next()
		}
		wait := m.GetLimiter(key).RetryAfter().Seconds()
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Max(1, math.Ceil(wait)))))
		metrics.IncError("api", "rate_limited")
		return c.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse{Error: "too many requests"})
	}
}
