package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RequestIDKey is the fiber Locals key holding the request id.
const RequestIDKey = "requestid"

// RequestID tags every request with a uuid, reusing X-Request-ID when the
// caller sent one.
func RequestID() fiber.Handler {
	return requestid.New(requestid.Config{
		Header:     fiber.HeaderXRequestID,
		Generator:  uuid.NewString,
		ContextKey: RequestIDKey,
	})
}

// RequestLogger stores a logger carrying the request id in the request's user
// context, then logs the outcome once the handler chain returns.
// It must run after RequestID.
func RequestLogger(base zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		reqLog := base.With().
			Str("request_id", requestIDFrom(c)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Logger()
		c.SetUserContext(reqLog.WithContext(c.UserContext()))

		err := c.Next()

		reqLog.Debug().
			Int("status", statusOf(c, err)).
			Dur("latency", time.Since(start)).
			Msg("request completed")
		return err
	}
}

func requestIDFrom(c *fiber.Ctx) string {
	if id, ok := c.Locals(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
