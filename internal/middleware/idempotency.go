package middleware

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"walletledger/internal/services/idempotency"
	"walletledger/internal/utils"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderIdempotencyHit = "X-Idempotency-Hit"

	MaxIdempotencyKeyLength = 255
)

// Idempotency replays stored responses for write requests that repeat an
// Idempotency-Key. It must run after authentication so keys can be scoped
// to the caller. Requests without the header pass straight through.
func Idempotency(guard *idempotency.Guard) fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch c.Method() {
		case fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch:
		default:
			return c.Next()
		}

		key := c.Get(HeaderIdempotencyKey)
		if key == "" {
			return c.Next()
		}
		if len(key) > MaxIdempotencyKeyLength {
			return utils.BadRequest(c, "Idempotency-Key must be at most 255 characters")
		}

		resp, hit, err := guard.Execute(c.UserContext(), utils.CallerID(c), key, func(context.Context) (idempotency.Response, error) {
			if err := c.Next(); err != nil {
				return idempotency.Response{}, err
			}
			return idempotency.Response{
				StatusCode:  c.Response().StatusCode(),
				Body:        append([]byte(nil), c.Response().Body()...),
				ContentType: string(c.Response().Header.ContentType()),
			}, nil
		})
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return fe
			}
			return utils.Fail(c, err)
		}
		if !hit {
			return nil
		}

		c.Set(HeaderIdempotencyHit, "true")
		if resp.ContentType != "" {
			c.Set(fiber.HeaderContentType, resp.ContentType)
		}
		return c.Status(resp.StatusCode).Send(resp.Body)
	}
}
