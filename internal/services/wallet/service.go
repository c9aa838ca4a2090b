package wallet

import (
	"context"
	"errors"
	"log"
	"time"

	"walletledger/internal/domain/ledger"
	"walletledger/internal/models"
	"walletledger/internal/repositories"
)

type service struct {
	ledger   *Ledger
	accounts repositories.AccountRepository
	cache    BalanceCache
	notifier TransferNotifier
	config   Config
	metrics  MetricsCollector
}

// NewService creates a new wallet service. cache and notifier may be nil.
func NewService(
	l *Ledger,
	accounts repositories.AccountRepository,
	cache BalanceCache,
	notifier TransferNotifier,
	config Config,
	metrics MetricsCollector,
) Service {
	if l == nil {
		panic("ledger is required")
	}
	if accounts == nil {
		panic("accounts repository is required")
	}

	if config.DefaultHistoryLimit <= 0 {
		config.DefaultHistoryLimit = DefaultHistoryLimit
	}
	if config.MaxHistoryLimit <= 0 {
		config.MaxHistoryLimit = MaxHistoryLimit
	}

	// Metrics is optional, create no-op collector if nil
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}

	return &service{
		ledger:   l,
		accounts: accounts,
		cache:    cache,
		notifier: notifier,
		config:   config,
		metrics:  metrics,
	}
}

func (s *service) Deposit(ctx context.Context, ownerID string, amount int64) (*OperationResult, error) {
	return s.single(ctx, OpDeposit, ownerID, ledger.Command{Kind: ledger.CommandDeposit, Amount: amount})
}

func (s *service) Withdraw(ctx context.Context, ownerID string, amount int64) (*OperationResult, error) {
	return s.single(ctx, OpWithdraw, ownerID, ledger.Command{Kind: ledger.CommandWithdraw, Amount: amount})
}

func (s *service) single(ctx context.Context, op, ownerID string, cmd ledger.Command) (*OperationResult, error) {
	start := time.Now()
	res, err := s.ledger.ExecuteSingle(ctx, ownerID, cmd)
	s.observe(op, start, err)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTransactionVolume(op, cmd.Amount)
	s.storeBalances(ctx, committed(res.AccountID, ownerID, res.Balance, res.Version))
	return res, nil
}

func (s *service) Transfer(ctx context.Context, payerOwnerID, payeeOwnerID string, amount int64) (*TransferResult, error) {
	start := time.Now()
	res, err := s.ledger.ExecuteTransfer(ctx, payerOwnerID, payeeOwnerID, amount)
	s.observe(OpTransfer, start, err)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTransactionVolume(OpTransfer, amount)
	s.storeBalances(ctx,
		committed(res.PayerAccountID, payerOwnerID, res.PayerBalance, res.PayerVersion),
		committed(res.PayeeAccountID, payeeOwnerID, res.PayeeBalance, res.PayeeVersion),
	)

	if s.notifier != nil {
		if err := s.notifier.SendTransferNotification(ctx, payeeOwnerID, amount, res.TransferID); err != nil {
			log.Printf("Failed to enqueue notification for transfer %s: %v", res.TransferID, err)
		}
	}
	return res, nil
}

func (s *service) GetBalance(ctx context.Context, ownerID string) (*models.Account, error) {
	if s.cache != nil {
		cached, err := s.cache.GetBalance(ctx, ownerID)
		switch {
		case err != nil:
			log.Printf("Balance cache read failed for %s: %v", ownerID, err)
		case cached != nil:
			s.metrics.RecordCacheHit(OpBalance)
			return cached, nil
		}
		s.metrics.RecordCacheMiss(OpBalance)
	}

	acc, err := s.accounts.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if _, err := s.cache.CacheBalance(ctx, acc); err != nil {
			log.Printf("Balance cache write failed for %s: %v", ownerID, err)
		}
	}
	return acc, nil
}

func (s *service) History(ctx context.Context, ownerID string, limit, offset int) (*HistoryPage, error) {
	if limit <= 0 {
		limit = s.config.DefaultHistoryLimit
	}
	if limit > s.config.MaxHistoryLimit {
		limit = s.config.MaxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	start := time.Now()
	page, err := s.history(ctx, ownerID, limit, offset)
	s.observe(OpHistory, start, err)
	return page, err
}

func (s *service) history(ctx context.Context, ownerID string, limit, offset int) (*HistoryPage, error) {
	acc, err := s.accounts.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	events, total, err := s.accounts.ListEvents(ctx, acc.ID, limit, offset)
	if err != nil {
		return nil, err
	}
	return &HistoryPage{AccountID: acc.ID, Events: events, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *service) observe(op string, start time.Time, err error) {
	s.metrics.RecordOperationDuration(op, time.Since(start))
	s.metrics.RecordOperationResult(op, resultLabel(err))
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ledger.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ledger.ErrSelfTransfer):
		return "self_transfer"
	case errors.Is(err, ledger.ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, ledger.ErrLockTimeout):
		return "lock_timeout"
	default:
		return "error"
	}
}
