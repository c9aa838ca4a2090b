// Package middleware provides HTTP middleware components for the application.
// It includes authentication, authorization, idempotency and metrics
// middleware for the fiber web framework.
package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"walletledger/internal/utils"
)

// AuthMiddleware handles JWT token validation. It extracts the bearer
// token, validates it and adds the user claims to the request context.
type AuthMiddleware struct {
	secret string
}

func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{secret: secret}
}

// Handler stores the claims under "claims" and the owner id under "userID".
func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return utils.Unauthorized(c, "missing authorization header")
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		return utils.Unauthorized(c, "invalid authorization format")
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	_, claims, err := utils.ParseToken(m.secret, tokenString)
	if err != nil {
		log.Printf("Token validation error: %v", err)
		return utils.Unauthorized(c, "invalid token")
	}

	c.Locals("claims", claims)
	c.Locals("userID", claims.UserID)

	return c.Next()
}

// HasPermission returns a middleware that checks for a specific permission.
func HasPermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := utils.GetUserClaims(c)
		if err != nil {
			return utils.Unauthorized(c, "unauthorized")
		}

		// If user is admin, allow all permissions
		if claims.Role == "admin" || claims.HasPermission(permission) {
			return c.Next()
		}

		log.Printf("Access denied: user %s lacks %s", claims.UserID, permission)
		return utils.Forbidden(c, "insufficient permissions")
	}
}
