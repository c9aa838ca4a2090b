package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"walletledger/internal/repositories/cache"
)

const healthTimeout = 2 * time.Second

type HealthHandler struct {
	db    *gorm.DB
	redis redis.UniversalClient
}

// NewHealthHandler builds the health endpoint. client may be nil when no
// component is configured to use it.
func NewHealthHandler(db *gorm.DB, client redis.UniversalClient) *HealthHandler {
	return &HealthHandler{db: db, redis: client}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
	defer cancel()

	status := fiber.StatusOK
	services := fiber.Map{}

	if err := h.pingDB(ctx); err != nil {
		services["database"] = err.Error()
		status = fiber.StatusServiceUnavailable
	} else {
		services["database"] = "connected"
	}

	if h.redis != nil {
		if err := cache.Ping(ctx, h.redis); err != nil {
			services["redis"] = err.Error()
			status = fiber.StatusServiceUnavailable
		} else {
			services["redis"] = "connected"
		}
	}

	label := "ok"
	if status != fiber.StatusOK {
		label = "degraded"
	}
	return c.Status(status).JSON(fiber.Map{
		"status":   label,
		"services": services,
	})
}

func (h *HealthHandler) pingDB(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
