package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"walletledger/internal/domain/ledger"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"invalid amount", ledger.ErrInvalidAmount, "INVALID_AMOUNT", http.StatusUnprocessableEntity},
		{"insufficient", ledger.ErrInsufficientFunds, "INSUFFICIENT_FUNDS", http.StatusUnprocessableEntity},
		{"self transfer", ledger.ErrSelfTransfer, "SELF_TRANSFER", http.StatusBadRequest},
		{"not found", ledger.ErrAccountNotFound, "ACCOUNT_NOT_FOUND", http.StatusNotFound},
		{"wrapped lock timeout", fmt.Errorf("lock acc-1: %w", ledger.ErrLockTimeout), "LOCK_TIMEOUT", http.StatusConflict},
		{"wrapped infra", fmt.Errorf("append: %w: disk full", ledger.ErrInfrastructure), "INFRASTRUCTURE", http.StatusServiceUnavailable},
		{"domain error passthrough", fmt.Errorf("bind: %w", ErrInvalidRequest), "INVALID_REQUEST", http.StatusBadRequest},
		{"unknown", fmt.Errorf("boom"), "INTERNAL", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			de := FromError(tt.err)
			assert.Equal(t, tt.code, de.Code)
			assert.Equal(t, tt.status, de.Status)
		})
	}

	assert.Nil(t, FromError(nil))
}

func TestRetryable(t *testing.T) {
	assert.True(t, ErrLockTimeout.Retryable())
	assert.True(t, ErrInfrastructure.Retryable())
	assert.False(t, ErrInsufficientFunds.Retryable())
}
