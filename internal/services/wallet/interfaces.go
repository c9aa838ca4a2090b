package wallet

import (
	"context"

	"walletledger/internal/models"
)

// Service defines the main wallet service interface
type Service interface {
	Deposit(ctx context.Context, ownerID string, amount int64) (*OperationResult, error)
	Withdraw(ctx context.Context, ownerID string, amount int64) (*OperationResult, error)
	Transfer(ctx context.Context, payerOwnerID, payeeOwnerID string, amount int64) (*TransferResult, error)

	// GetBalance reads the projection, possibly from cache.
	GetBalance(ctx context.Context, ownerID string) (*models.Account, error)
	History(ctx context.Context, ownerID string, limit, offset int) (*HistoryPage, error)
}

// BalanceCache is implemented by cache.CacheService.
type BalanceCache interface {
	GetBalance(ctx context.Context, ownerID string) (*models.Account, error)
	// CacheBalance must not replace an entry holding a higher Version.
	CacheBalance(ctx context.Context, account *models.Account) (bool, error)
	InvalidateBalance(ctx context.Context, ownerIDs ...string) error
}

// TransferNotifier hands a committed transfer to the outbound webhook
// queue. Errors are logged by the caller and never fail the transfer.
type TransferNotifier interface {
	SendTransferNotification(ctx context.Context, payeeOwnerID string, amount int64, transferID string) error
}
