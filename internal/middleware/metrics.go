package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"produtos/pkg/metrics"
)

// Metrics records every request on m, labelled with the matched route
// pattern rather than the raw path to keep label cardinality bounded.
func Metrics(m *metrics.HTTPMetrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := ""
		if r := c.Route(); r != nil {
			route = r.Path
		}
		m.Observe(c.Method(), route, statusOf(c, err), time.Since(start))
		return err
	}
}

// statusOf predicts the status the error handler will write for err.
func statusOf(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}
