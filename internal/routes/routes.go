// Package routes defines the API routing configuration.
// It sets up all HTTP routes and their corresponding handlers,
// including middleware and authentication requirements.
package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"walletledger/internal/handlers"
	"walletledger/internal/middleware"
	"walletledger/internal/models"
	"walletledger/internal/repositories"
	"walletledger/internal/services/idempotency"
	"walletledger/internal/services/wallet"
	"walletledger/internal/utils"
)

// Deps are the collaborators the routes are built from. Metrics and
// Health are optional.
type Deps struct {
	JWTSecret string
	Wallet    wallet.Service
	Users     repositories.UserRepository
	Guard     *idempotency.Guard
	Metrics   *middleware.HTTPMetrics
	Health    *handlers.HealthHandler

	// WriteLimit caps write requests per caller per minute. Zero disables it.
	WriteLimit int
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, deps Deps) {
	if deps.Metrics != nil {
		app.Use(deps.Metrics.Handler)
	}
	if deps.Health != nil {
		app.Get("/health", deps.Health.Check)
	}

	authMiddleware := middleware.NewAuthMiddleware(deps.JWTSecret)

	// Order matters: the caller must be known before keys are scoped.
	api := app.Group("/api", authMiddleware.Handler)
	if deps.WriteLimit > 0 {
		api.Use(writeLimiter(deps.WriteLimit))
	}
	api.Use(middleware.Idempotency(deps.Guard))

	walletHandler := handlers.NewWalletHandler(deps.Wallet, deps.Users)
	accountHandler := handlers.NewAccountHandler(deps.Users)

	setupWalletRoutes(api, walletHandler)
	api.Put("/account/webhook", middleware.HasPermission(models.PermissionUserWrite), accountHandler.UpdateWebhook)
}

func setupWalletRoutes(router fiber.Router, h *handlers.WalletHandler) {
	read := middleware.HasPermission(models.PermissionWalletRead)
	write := middleware.HasPermission(models.PermissionWalletWrite)

	w := router.Group("/wallet")
	w.Get("/balance", read, h.GetBalance)
	w.Get("/transactions", read, h.GetTransactions)
	w.Post("/deposit", write, h.Deposit)
	w.Post("/withdraw", write, h.Withdraw)
	w.Post("/transfer", write, h.Transfer)
}

func writeLimiter(limit int) fiber.Handler {
	return limiter.New(limiter.Config{
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodGet || c.Method() == fiber.MethodHead
		},
		Max:        limit,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return utils.CallerID(c)
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": fiber.Map{"code": "RATE_LIMITED", "message": "Too many requests. Please try again later."},
			})
		},
	})
}
