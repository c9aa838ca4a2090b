package utils

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	apperrors "walletledger/internal/errors"
)

// Respond sends a JSON response with the specified status code.
func Respond(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(data)
}

// Success sends a successful JSON response.
func Success(c *fiber.Ctx, data interface{}) error {
	return Respond(c, fiber.StatusOK, data)
}

// RetryAfterSeconds is advertised on retryable failures.
const RetryAfterSeconds = 1

// Fail writes err as {"error": {"code", "message"}} with the status its
// DomainError carries.
func Fail(c *fiber.Ctx, err error) error {
	de := apperrors.FromError(err)
	if de.Retryable() {
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(RetryAfterSeconds))
	}
	return Respond(c, de.Status, fiber.Map{"error": de})
}

// BadRequest sends an INVALID_REQUEST error with a specific message.
func BadRequest(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusBadRequest, fiber.Map{"error": apperrors.DomainError{
		Code:    apperrors.ErrInvalidRequest.Code,
		Message: message,
	}})
}

// Unauthorized sends a JSON error response with status 401.
func Unauthorized(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusUnauthorized, fiber.Map{"error": apperrors.DomainError{
		Code:    apperrors.ErrUnauthorized.Code,
		Message: message,
	}})
}

// Forbidden sends a JSON error response with status 403.
func Forbidden(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusForbidden, fiber.Map{"error": apperrors.DomainError{
		Code:    "FORBIDDEN",
		Message: message,
	}})
}
