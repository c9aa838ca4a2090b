package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Sender delivers one payload to one webhook URL.
type Sender interface {
	Send(ctx context.Context, url string, payload Payload) error
}

// WebhookSender posts JSON with fiber's HTTP client.
type WebhookSender struct {
	timeout time.Duration
}

func NewWebhookSender(timeout time.Duration) *WebhookSender {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookSender{timeout: timeout}
}

func (s *WebhookSender) Send(ctx context.Context, url string, payload Payload) error {
	timeout := s.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return context.DeadlineExceeded
	}

	agent := fiber.Post(url).
		Timeout(timeout).
		Set(fiber.HeaderUserAgent, "walletledger-webhook/1").
		JSON(payload)

	code, _, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("webhook request failed: %w", errors.Join(errs...))
	}
	if code < 200 || code >= 300 {
		return fmt.Errorf("webhook returned status %d", code)
	}
	return nil
}
