package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trust-insurance/quotation/internal/rate"
)

// HealthChecker is implemented by the store.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

func RegisterRoutes(app *fiber.App, nc *nats.Conn, st HealthChecker,
	quotes *QuoteHandler,
	catalog *CatalogHandler,
	limiter *rate.Manager,
) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		checks := map[string]string{
			"nats":  "ok",
			"store": "ok",
		}
		status := "ok"
		code := fiber.StatusOK

		if nc == nil || !nc.IsConnected() {
			checks["nats"] = "disconnected"
			status = "degraded"
			code = fiber.StatusServiceUnavailable
		} else if err := nc.FlushTimeout(1 * time.Second); err != nil {
			checks["nats"] = err.Error()
			status = "degraded"
			code = fiber.StatusServiceUnavailable
		}

		healthCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := st.HealthCheck(healthCtx); err != nil {
			checks["store"] = err.Error()
			status = "degraded"
			code = fiber.StatusServiceUnavailable
		}

		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	})

	// API routes
	v1 := app.Group("/api/v1")
	if limiter != nil {
		v1.Use(RateLimit(limiter))
	}
	v1.Post("/quotes/preview", quotes.PreviewQuote)
	v1.Post("/quotes", quotes.CreateQuote)
	v1.Post("/quotes/:line/from-chat", quotes.CreateQuoteFromChat)
	v1.Get("/quotes/:quoteId", quotes.GetQuote)
	v1.Patch("/quotes/:quoteId/status", quotes.UpdateQuoteStatus)

	v1.Get("/products", catalog.ListProducts)
	v1.Get("/products/:productId/coverage-options", catalog.CoverageOptions)
}
