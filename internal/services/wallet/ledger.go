package wallet

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"walletledger/internal/domain/ledger"
	"walletledger/internal/repositories"
)

// Ledger runs commands as atomic units of work over a LedgerRepository.
type Ledger struct {
	repo          repositories.LedgerRepository
	opts          []ledger.Option
	newTransferID func() string
}

type LedgerOption func(*Ledger)

// WithAggregateOptions passes clock and id generator overrides to every
// aggregate the ledger rebuilds.
func WithAggregateOptions(opts ...ledger.Option) LedgerOption {
	return func(l *Ledger) { l.opts = append(l.opts, opts...) }
}

func WithTransferIDs(gen func() string) LedgerOption {
	return func(l *Ledger) { l.newTransferID = gen }
}

func NewLedger(repo repositories.LedgerRepository, opts ...LedgerOption) *Ledger {
	if repo == nil {
		panic("repo is required")
	}
	l := &Ledger{repo: repo, newTransferID: uuid.NewString}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LockOrder returns the distinct account ids in the order they must be
// locked.
func LockOrder(accountIDs ...string) []string {
	seen := make(map[string]bool, len(accountIDs))
	out := make([]string, 0, len(accountIDs))
	for _, id := range accountIDs {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func lockAll(ctx context.Context, tx repositories.LedgerTx, accountIDs ...string) error {
	for _, id := range LockOrder(accountIDs...) {
		if err := tx.LockAccount(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (l *Ledger) retrieve(ctx context.Context, tx repositories.LedgerTx, accountID string) (*ledger.Aggregate, error) {
	history, err := tx.LoadHistory(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return ledger.Retrieve(accountID, history, l.opts...)
}

// ExecuteSingle applies a deposit or withdraw to the owner's account.
func (l *Ledger) ExecuteSingle(ctx context.Context, ownerID string, cmd ledger.Command) (*OperationResult, error) {
	if cmd.Amount <= 0 {
		return nil, ledger.ErrInvalidAmount
	}

	acc, err := l.repo.FindAccountByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var res *OperationResult
	err = l.repo.ExecuteInTransaction(ctx, func(tx repositories.LedgerTx) error {
		if err := lockAll(ctx, tx, acc.ID); err != nil {
			return err
		}
		agg, err := l.retrieve(ctx, tx, acc.ID)
		if err != nil {
			return err
		}
		event, err := cmd.Apply(agg)
		if err != nil {
			return err
		}
		if err := tx.Append(ctx, event); err != nil {
			return err
		}
		if err := tx.UpdateProjection(ctx, acc.ID, agg.Balance(), agg.Version()); err != nil {
			return err
		}

		res = &OperationResult{
			AccountID: acc.ID,
			OwnerID:   ownerID,
			Event:     event,
			Balance:   agg.Balance(),
			Version:   agg.Version(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ExecuteTransfer moves amount from the payer's account to the payee's.
// A transfer to oneself is rejected before any lookup or lock.
func (l *Ledger) ExecuteTransfer(ctx context.Context, payerOwnerID, payeeOwnerID string, amount int64) (*TransferResult, error) {
	if payerOwnerID == payeeOwnerID {
		return nil, ledger.ErrSelfTransfer
	}
	if amount <= 0 {
		return nil, ledger.ErrInvalidAmount
	}

	payer, err := l.repo.FindAccountByOwner(ctx, payerOwnerID)
	if err != nil {
		return nil, err
	}
	payee, err := l.repo.FindAccountByOwner(ctx, payeeOwnerID)
	if err != nil {
		return nil, err
	}
	if payer.ID == payee.ID {
		return nil, ledger.ErrSelfTransfer
	}

	transferID := l.newTransferID()
	var res *TransferResult
	err = l.repo.ExecuteInTransaction(ctx, func(tx repositories.LedgerTx) error {
		if err := lockAll(ctx, tx, payer.ID, payee.ID); err != nil {
			return err
		}

		from, err := l.retrieve(ctx, tx, payer.ID)
		if err != nil {
			return err
		}
		to, err := l.retrieve(ctx, tx, payee.ID)
		if err != nil {
			return err
		}

		sent, err := from.SendTransfer(payee.ID, transferID, amount)
		if err != nil {
			return err
		}
		received, err := to.ReceiveTransfer(payer.ID, transferID, amount)
		if err != nil {
			return err
		}

		for _, e := range []ledger.Event{sent, received} {
			if err := tx.Append(ctx, e); err != nil {
				return err
			}
		}
		if err := tx.UpdateProjection(ctx, payer.ID, from.Balance(), from.Version()); err != nil {
			return err
		}
		if err := tx.UpdateProjection(ctx, payee.ID, to.Balance(), to.Version()); err != nil {
			return err
		}

		res = &TransferResult{
			TransferID:     transferID,
			Amount:         amount,
			PayerOwnerID:   payerOwnerID,
			PayeeOwnerID:   payeeOwnerID,
			PayerAccountID: payer.ID,
			PayeeAccountID: payee.ID,
			PayerBalance:   from.Balance(),
			PayeeBalance:   to.Balance(),
			PayerVersion:   from.Version(),
			PayeeVersion:   to.Version(),
			Sent:           sent,
			Received:       received,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
