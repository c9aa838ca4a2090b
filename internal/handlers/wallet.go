package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"walletledger/internal/domain/ledger"
	apperrors "walletledger/internal/errors"
	"walletledger/internal/repositories"
	"walletledger/internal/services/wallet"
	"walletledger/internal/utils"
)

type WalletHandler struct {
	walletService wallet.Service
	users         repositories.UserRepository
}

func NewWalletHandler(walletService wallet.Service, users repositories.UserRepository) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
		users:         users,
	}
}

type eventView struct {
	ID                    string    `json:"id"`
	Type                  string    `json:"type"`
	Amount                int64     `json:"amount"`
	Delta                 int64     `json:"delta"`
	CounterpartyAccountID string    `json:"counterparty_account_id,omitempty"`
	TransferID            string    `json:"transfer_id,omitempty"`
	OccurredAt            time.Time `json:"occurred_at"`
}

func newEventView(e ledger.Event) eventView {
	v := eventView{
		ID:         e.ID,
		Type:       string(e.Type()),
		Amount:     e.Amount(),
		Delta:      e.Delta(),
		OccurredAt: e.OccurredAt,
	}
	switch p := e.Payload.(type) {
	case ledger.TransferSent:
		v.CounterpartyAccountID, v.TransferID = p.CounterpartyAccountID, p.TransferID
	case ledger.TransferReceived:
		v.CounterpartyAccountID, v.TransferID = p.CounterpartyAccountID, p.TransferID
	}
	return v
}

func (h *WalletHandler) GetBalance(c *fiber.Ctx) error {
	acc, err := h.walletService.GetBalance(c.UserContext(), utils.CallerID(c))
	if err != nil {
		return utils.Fail(c, err)
	}

	return utils.Success(c, fiber.Map{
		"account_id": acc.ID,
		"balance":    acc.Balance,
		"version":    acc.Version,
	})
}

func (h *WalletHandler) GetTransactions(c *fiber.Ctx) error {
	p := utils.GetPagination(c, wallet.DefaultHistoryLimit)

	page, err := h.walletService.History(c.UserContext(), utils.CallerID(c), p.Limit, p.Offset)
	if err != nil {
		return utils.Fail(c, err)
	}

	views := make([]eventView, 0, len(page.Events))
	for _, e := range page.Events {
		views = append(views, newEventView(e))
	}
	return utils.Success(c, fiber.Map{
		"account_id": page.AccountID,
		"transactions": utils.NewPaginatedResponse(views, utils.Pagination{
			Limit:  page.Limit,
			Offset: page.Offset,
			Total:  page.Total,
		}),
	})
}

func (h *WalletHandler) Deposit(c *fiber.Ctx) error {
	return h.single(c, h.walletService.Deposit)
}

func (h *WalletHandler) Withdraw(c *fiber.Ctx) error {
	return h.single(c, h.walletService.Withdraw)
}

func (h *WalletHandler) single(c *fiber.Ctx, op func(ctx context.Context, ownerID string, amount int64) (*wallet.OperationResult, error)) error {
	var input amountRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	amount, err := parseAmount(input.Amount)
	if err != nil {
		return amountError(c, err)
	}

	res, err := op(c.UserContext(), utils.CallerID(c), amount)
	if err != nil {
		return utils.Fail(c, err)
	}

	return utils.Success(c, fiber.Map{
		"account_id":  res.AccountID,
		"new_balance": res.Balance,
		"event_id":    res.Event.ID,
	})
}

func (h *WalletHandler) Transfer(c *fiber.Ctx) error {
	var input transferRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	amount, err := parseAmount(input.Amount)
	if err != nil {
		return amountError(c, err)
	}

	payeeID := input.PayeeID
	if payeeID == "" {
		if input.TargetEmail == "" {
			return utils.BadRequest(c, "payee_id or target_email is required")
		}
		if !utils.IsValidEmail(input.TargetEmail) {
			return utils.BadRequest(c, "target_email is not a valid email")
		}
		payee, err := h.users.GetByEmail(c.UserContext(), input.TargetEmail)
		if err != nil {
			return userError(c, err)
		}
		payeeID = payee.ID
	}

	res, err := h.walletService.Transfer(c.UserContext(), utils.CallerID(c), payeeID, amount)
	if err != nil {
		return utils.Fail(c, err)
	}

	return utils.Success(c, fiber.Map{
		"transfer_id": res.TransferID,
		"account_id":  res.PayerAccountID,
		"new_balance": res.PayerBalance,
		"payee_id":    res.PayeeOwnerID,
	})
}

func amountError(c *fiber.Ctx, err error) error {
	var malformed errMalformedAmount
	if errors.As(err, &malformed) {
		return utils.BadRequest(c, malformed.Error())
	}
	return utils.Fail(c, err)
}

func userError(c *fiber.Ctx, err error) error {
	if errors.Is(err, repositories.ErrUserNotFound) {
		return utils.Fail(c, apperrors.ErrOwnerNotFound)
	}
	return utils.Fail(c, err)
}
