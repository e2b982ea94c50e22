package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// ErrorHandler answers errors that escaped the handlers with a JSON body.
// Server-side failures are logged; their details are not sent to the client.
func ErrorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal server error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		}

		if code >= fiber.StatusInternalServerError {
			l := zerolog.Ctx(c.UserContext())
			if l.GetLevel() == zerolog.Disabled {
				l = &log
			}
			l.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
		}

		return c.Status(code).JSON(fiber.Map{
			"message": message,
		})
	}
}
