package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"walletledger/internal/domain/ledger"
	"walletledger/internal/models"
)

func TestAccountRepository_ListEventsNewestFirst(t *testing.T) {
	db := newTestDB(t)
	accounts := NewAccountRepository(db)
	ledgerRepo := NewLedgerRepository(db, time.Second)
	acc := seedAccount(t, db)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	err := ledgerRepo.ExecuteInTransaction(ctx, func(tx LedgerTx) error {
		for i := 0; i < 5; i++ {
			if err := tx.Append(ctx, deposit(acc.ID, fmt.Sprintf("e%d", i), base.Add(time.Duration(i)*time.Second), int64(i+1))); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	events, total, err := accounts.ListEvents(ctx, acc.ID, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, events, 2)
	assert.Equal(t, "e3", events[0].ID)
	assert.Equal(t, "e2", events[1].ID)
	assert.Equal(t, ledger.EventDeposited, events[0].Type())
}

func TestAccountRepository_OneAccountPerOwner(t *testing.T) {
	db := newTestDB(t)
	accounts := NewAccountRepository(db)
	ctx := context.Background()

	acc, err := accounts.Create(ctx, "owner-1")
	require.NoError(t, err)
	assert.NotEmpty(t, acc.ID)

	_, err = accounts.Create(ctx, "owner-1")
	assert.Error(t, err)

	got, err := accounts.GetByOwnerID(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.ID)

	_, err = accounts.GetByOwnerID(ctx, "owner-2")
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

func TestUserRepository(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	ctx := context.Background()

	u := &models.User{Email: "alice@example.com", Name: "Alice"}
	require.NoError(t, users.Create(ctx, u))
	assert.NotEmpty(t, u.ID)

	assert.ErrorIs(t, users.Create(ctx, &models.User{Email: "alice@example.com", Name: "Other"}), ErrEmailTaken)

	got, err := users.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	updated, err := users.UpdateWebhookURL(ctx, u.ID, "https://hooks.example.com/alice")
	require.NoError(t, err)
	assert.Equal(t, "https://hooks.example.com/alice", updated.WebhookURL)

	_, err = users.UpdateWebhookURL(ctx, "missing", "https://x")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = users.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
