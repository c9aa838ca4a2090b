package utils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"walletledger/internal/models"
)

// GetUserClaims extracts the user claims from the Fiber context.
// It returns an error if the claims are missing or of an invalid type.
func GetUserClaims(c *fiber.Ctx) (*models.UserClaims, error) {
	v := c.Locals("claims")
	if v == nil {
		return nil, errors.New("claims not found in context")
	}

	claims, ok := v.(*models.UserClaims)
	if !ok {
		return nil, errors.New("invalid claims type")
	}
	return claims, nil
}

// CallerID returns the authenticated owner id, or "" when there is none.
func CallerID(c *fiber.Ctx) string {
	id, _ := c.Locals("userID").(string)
	return id
}
