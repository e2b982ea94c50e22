// Package server assembles the Fiber application: middleware, product routes,
// health check and metrics endpoint.
package server

import (
	"context"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"produtos/internal/handlers"
	"produtos/internal/middleware"
	"produtos/internal/services"
	"produtos/pkg/metrics"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Products *services.ProductService
	// Database is nil when products live in memory.
	Database Pinger
	// Gatherer backs GET /metrics; the endpoint is omitted when nil.
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics
	Log         zerolog.Logger
	// AccessLog receives one line per request; nil disables it.
	AccessLog io.Writer
}

// NewApp builds the Fiber app with every route registered.
func NewApp(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "produtos-api",
		ErrorHandler:          middleware.ErrorHandler(d.Log),
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	if d.AccessLog != nil {
		app.Use(logger.New(logger.Config{
			Output: d.AccessLog,
			Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		}))
	}
	app.Use(middleware.RequestLogger(d.Log))
	app.Use(middleware.Metrics(d.HTTPMetrics))

	app.Get("/health", healthHandler(d.Database))
	if d.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")
	handlers.NewProductHandler(d.Products, d.Log).RegisterRoutes(api)

	return app
}

func healthHandler(db Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		database := "memory"
		if db != nil {
			database = "up"
			if err := db.Ping(c.UserContext()); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"status":   "unhealthy",
					"time":     time.Now().Format(time.RFC3339),
					"database": "down",
					"error":    err.Error(),
				})
			}
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": database,
		})
	}
}
