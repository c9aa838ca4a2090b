package wallet

import (
	"time"

	"walletledger/internal/domain/ledger"
)

// OperationResult is the outcome of a committed deposit or withdraw.
type OperationResult struct {
	AccountID string
	OwnerID   string
	Event     ledger.Event
	Balance   int64
	Version   uint64
}

// TransferResult is the outcome of a committed transfer. Both legs share
// TransferID.
type TransferResult struct {
	TransferID     string
	Amount         int64
	PayerOwnerID   string
	PayeeOwnerID   string
	PayerAccountID string
	PayeeAccountID string
	PayerBalance   int64
	PayeeBalance   int64
	PayerVersion   uint64
	PayeeVersion   uint64
	Sent           ledger.Event
	Received       ledger.Event
}

// HistoryPage is a slice of an account's events, newest first.
type HistoryPage struct {
	AccountID string
	Events    []ledger.Event
	Total     int64
	Limit     int
	Offset    int
}

// Config holds tunables for the wallet service.
type Config struct {
	// DefaultHistoryLimit applies when the caller passes limit <= 0.
	DefaultHistoryLimit int
	MaxHistoryLimit     int
}

// MetricsCollector defines the interface for collecting wallet metrics
type MetricsCollector interface {
	RecordOperationDuration(operation string, duration time.Duration)
	RecordOperationResult(operation, result string)
	RecordCacheHit(key string)
	RecordCacheMiss(key string)
	RecordTransactionVolume(operation string, amount int64)
}
