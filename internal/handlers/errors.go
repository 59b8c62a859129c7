package handlers

import (
	"errors"
	"strings"

	"inventory/internal/auth"
	"inventory/internal/models"
	"inventory/internal/services"
	"inventory/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// errInvalidBody is returned when a request body cannot be decoded.
var errInvalidBody = fiber.NewError(fiber.StatusBadRequest, "Invalid request body")

// ErrorHandler renders every error returned by a handler or middleware.
// With development set, unexpected errors include their text in the body.
func ErrorHandler(development bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		return respondError(c, err, development)
	}
}

func respondError(c *fiber.Ctx, err error, development bool) error {
	var validationErr *models.ValidationError
	var fiberErr *fiber.Error

	switch {
	case errors.As(err, &validationErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Validation failed",
			"errors":  validationErr.Fields,
		})
	case errors.Is(err, services.ErrConflict):
		return fail(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		return fail(c, fiber.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, auth.ErrUnauthenticated):
		// The cause is never surfaced: a bad signature, an expired token and
		// an unreachable auth service all look the same.
		return fail(c, fiber.StatusUnauthorized, "Not authorized")
	case errors.Is(err, auth.ErrForbidden):
		return fail(c, fiber.StatusForbidden, "You do not have permission to perform this action")
	case errors.Is(err, services.ErrNotFound):
		return fail(c, fiber.StatusNotFound, capitalize(err.Error()))
	case errors.As(err, &fiberErr):
		if fiberErr.Code >= fiber.StatusInternalServerError {
			logger.Error("request failed", "method", c.Method(), "path", c.Path(), "err", err)
		}
		return fail(c, fiberErr.Code, fiberErr.Message)
	}

	logger.Error("unhandled request error", "method", c.Method(), "path", c.Path(), "err", err)
	body := fiber.Map{
		"success": false,
		"message": "Something went wrong!",
	}
	if development {
		body["error"] = err.Error()
	}
	return c.Status(fiber.StatusInternalServerError).JSON(body)
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
