package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"walletledger/internal/domain/ledger"
	"walletledger/internal/models"
)

// SQLSTATE lock_not_available, raised when lock_timeout expires.
const pgLockNotAvailable = "55P03"

type ledgerRepository struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

func NewLedgerRepository(db *gorm.DB, lockTimeout time.Duration) LedgerRepository {
	return &ledgerRepository{db: db, lockTimeout: lockTimeout}
}

func (r *ledgerRepository) FindAccountByOwner(ctx context.Context, ownerID string) (*models.Account, error) {
	return findAccountByOwner(r.db.WithContext(ctx), ownerID)
}

func (r *ledgerRepository) ExecuteInTransaction(ctx context.Context, fn func(LedgerTx) error) error {
	if isPostgres(r.db) {
		return r.transaction(r.db.WithContext(ctx), fn)
	}

	// The single sqlite connection is the lock, so waiting for it is
	// bounded by the lock timeout. waitCtx only covers acquisition.
	waitCtx, cancel := context.WithTimeout(ctx, r.lockTimeout)
	defer cancel()
	acquired := false
	err := r.db.WithContext(waitCtx).Connection(func(conn *gorm.DB) error {
		acquired = true
		return r.transaction(conn.WithContext(ctx), fn)
	})
	if err == nil || acquired {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("await connection: %w", ledger.ErrLockTimeout)
	}
	return storageError("acquire connection", err)
}

func (r *ledgerRepository) transaction(db *gorm.DB, fn func(LedgerTx) error) error {
	var fnErr error
	err := db.Transaction(func(tx *gorm.DB) error {
		if isPostgres(tx) {
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", lockTimeoutMillis(r.lockTimeout))
			if err := tx.Exec(stmt).Error; err != nil {
				return storageError("set lock timeout", err)
			}
		}
		fnErr = fn(&gormLedgerTx{db: tx, lockTimeout: r.lockTimeout})
		return fnErr
	})
	if err == nil || (fnErr != nil && errors.Is(err, fnErr)) {
		return err
	}
	return storageError("transaction", err)
}

// lockTimeoutMillis rounds up to 1ms; postgres reads 0 as wait forever.
func lockTimeoutMillis(d time.Duration) int64 {
	ms := d.Milliseconds()
	if ms < 1 {
		return 1
	}
	return ms
}

type gormLedgerTx struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

func (t *gormLedgerTx) LockAccount(ctx context.Context, accountID string) error {
	q := t.db.WithContext(ctx)
	if isPostgres(q) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	} else {
		// No row locks here; bound the wait with the context instead.
		lockCtx, cancel := context.WithTimeout(ctx, t.lockTimeout)
		defer cancel()
		q = q.WithContext(lockCtx)
	}

	var acc models.Account
	err := q.Select("id").Where("id = ?", accountID).Take(&acc).Error
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ledger.ErrAccountNotFound
	case isLockTimeout(err):
		return fmt.Errorf("lock account %s: %w", accountID, ledger.ErrLockTimeout)
	default:
		return storageError("lock account", err)
	}
}

func (t *gormLedgerTx) Append(ctx context.Context, event ledger.Event) error {
	typ, version, data, err := ledger.Encode(event.Payload)
	if err != nil {
		return err
	}
	row := models.StoredEvent{
		ID:            event.ID,
		AccountID:     event.AccountID,
		Type:          string(typ),
		SchemaVersion: version,
		Payload:       models.JSON(data),
		OccurredAt:    event.OccurredAt,
	}
	if err := t.db.WithContext(ctx).Create(&row).Error; err != nil {
		return storageError("append event", err)
	}
	return nil
}

func (t *gormLedgerTx) LoadHistory(ctx context.Context, accountID string) ([]ledger.Event, error) {
	return loadEvents(t.db.WithContext(ctx).Order("occurred_at ASC, id ASC"), accountID)
}

func (t *gormLedgerTx) FindAccountByOwner(ctx context.Context, ownerID string) (*models.Account, error) {
	return findAccountByOwner(t.db.WithContext(ctx), ownerID)
}

func (t *gormLedgerTx) UpdateProjection(ctx context.Context, accountID string, balance int64, version uint64) error {
	result := t.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", accountID).
		Updates(map[string]interface{}{
			"balance":    balance,
			"version":    version,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return storageError("update projection", result.Error)
	}
	if result.RowsAffected == 0 {
		return ledger.ErrAccountNotFound
	}
	return nil
}

func findAccountByOwner(db *gorm.DB, ownerID string) (*models.Account, error) {
	var acc models.Account
	if err := db.Where("owner_id = ?", ownerID).Take(&acc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrAccountNotFound
		}
		return nil, storageError("find account", err)
	}
	return &acc, nil
}

// loadEvents decodes the account's rows in the order set on db.
func loadEvents(db *gorm.DB, accountID string) ([]ledger.Event, error) {
	var rows []models.StoredEvent
	if err := db.Where("account_id = ?", accountID).Find(&rows).Error; err != nil {
		return nil, storageError("load events", err)
	}

	events := make([]ledger.Event, 0, len(rows))
	for _, row := range rows {
		payload, err := ledger.Decode(ledger.EventType(row.Type), row.SchemaVersion, row.Payload)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", row.ID, err)
		}
		events = append(events, ledger.Event{
			ID:         row.ID,
			AccountID:  row.AccountID,
			OccurredAt: row.OccurredAt.UTC(),
			Payload:    payload,
		})
	}
	return events, nil
}

func isPostgres(db *gorm.DB) bool {
	return db.Dialector.Name() == "postgres"
}

func isLockTimeout(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func storageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ledger.ErrInfrastructure, err)
}
