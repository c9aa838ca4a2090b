package handlers

import (
	"bytes"
	"encoding/json"
	"strconv"

	"walletledger/internal/domain/ledger"
)

type amountRequest struct {
	Amount json.RawMessage `json:"amount"`
}

type transferRequest struct {
	Amount      json.RawMessage `json:"amount"`
	PayeeID     string          `json:"payee_id"`
	TargetEmail string          `json:"target_email"`
}

type webhookRequest struct {
	WebhookURL string `json:"webhook_url"`
}

type errMalformedAmount string

func (e errMalformedAmount) Error() string { return string(e) }

// parseAmount accepts only a bare JSON integer. Numbers that are not
// integers, or that overflow int64, are ledger.ErrInvalidAmount; anything
// that is not a number at all is errMalformedAmount.
func parseAmount(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, errMalformedAmount("amount is required")
	}
	if raw[0] == '"' {
		return 0, errMalformedAmount("amount must be a JSON number")
	}

	amount, err := strconv.ParseInt(string(raw), 10, 64)
	if err == nil {
		return amount, nil
	}
	if _, ferr := strconv.ParseFloat(string(raw), 64); ferr == nil || isRangeErr(ferr) {
		return 0, ledger.ErrInvalidAmount
	}
	return 0, errMalformedAmount("amount must be a JSON number")
}

func isRangeErr(err error) bool {
	ne, ok := err.(*strconv.NumError)
	return ok && ne.Err == strconv.ErrRange
}
