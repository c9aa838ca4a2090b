package repositories

import (
	"context"

	"walletledger/internal/domain/ledger"
	"walletledger/internal/models"
)

// EventStore is the append-only log of ledger events.
type EventStore interface {
	// Append writes one immutable event. Callers hold the account lock.
	Append(ctx context.Context, event ledger.Event) error
	// LoadHistory returns every event of the account in (occurred_at, id)
	// order, or an empty slice for a fresh account.
	LoadHistory(ctx context.Context, accountID string) ([]ledger.Event, error)
}

// AccountResolver maps an owner to their account without locking it.
type AccountResolver interface {
	FindAccountByOwner(ctx context.Context, ownerID string) (*models.Account, error)
}

// ProjectionStore writes the balance read model.
type ProjectionStore interface {
	AccountResolver
	UpdateProjection(ctx context.Context, accountID string, balance int64, version uint64) error
}

// AccountLocker takes an exclusive lock on one account for the rest of the
// enclosing transaction. Waiting longer than the configured timeout fails
// with ledger.ErrLockTimeout.
type AccountLocker interface {
	LockAccount(ctx context.Context, accountID string) error
}

// LedgerTx is the view of the ledger available inside one unit of work.
type LedgerTx interface {
	EventStore
	ProjectionStore
	AccountLocker
}

// LedgerRepository runs ledger commands as atomic units of work. If fn
// returns an error nothing it wrote is kept and every lock is released.
type LedgerRepository interface {
	AccountResolver
	ExecuteInTransaction(ctx context.Context, fn func(LedgerTx) error) error
}
