package handlers

import (
	"github.com/gofiber/fiber/v2"

	"walletledger/internal/repositories"
	"walletledger/internal/utils"
)

// AccountHandler manages owner settings.
type AccountHandler struct {
	users repositories.UserRepository
}

func NewAccountHandler(users repositories.UserRepository) *AccountHandler {
	return &AccountHandler{users: users}
}

// UpdateWebhook sets where transfer_received notifications are posted.
// An empty webhook_url turns notifications off.
func (h *AccountHandler) UpdateWebhook(c *fiber.Ctx) error {
	var input webhookRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	if err := utils.ValidateWebhookURL(input.WebhookURL); err != nil {
		return utils.BadRequest(c, err.Error())
	}

	user, err := h.users.UpdateWebhookURL(c.UserContext(), utils.CallerID(c), input.WebhookURL)
	if err != nil {
		return userError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"user": user,
	})
}
