package wallet

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"walletledger/internal/domain/ledger"
	"walletledger/internal/models"
	"walletledger/internal/repositories/memory"
)

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetBalance(ctx context.Context, ownerID string) (*models.Account, error) {
	args := m.Called(ctx, ownerID)
	acc, _ := args.Get(0).(*models.Account)
	return acc, args.Error(1)
}

func (m *MockCache) CacheBalance(ctx context.Context, account *models.Account) (bool, error) {
	args := m.Called(ctx, account)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) InvalidateBalance(ctx context.Context, ownerIDs ...string) error {
	return m.Called(ctx, ownerIDs).Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendTransferNotification(ctx context.Context, payeeOwnerID string, amount int64, transferID string) error {
	return m.Called(ctx, payeeOwnerID, amount, transferID).Error(0)
}

func newTestService(t *testing.T, cache BalanceCache, notifier TransferNotifier, metrics MetricsCollector) (Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore(time.Second)
	for _, o := range []string{"alice", "bob"} {
		_, err := store.Create(context.Background(), o)
		require.NoError(t, err)
	}
	return NewService(NewLedger(store), store, cache, notifier, Config{}, metrics), store
}

func TestWalletService_Deposit(t *testing.T) {
	tests := []struct {
		name      string
		owner     string
		amount    int64
		setupMock func(*MockCache)
		wantErr   error
	}{
		{
			name:   "successful deposit writes the balance through",
			owner:  "alice",
			amount: 100,
			setupMock: func(c *MockCache) {
				c.On("CacheBalance", mock.Anything, mock.MatchedBy(func(a *models.Account) bool {
					return a.OwnerID == "alice" && a.Balance == 100 && a.Version == 1
				})).Return(true, nil)
			},
		},
		{
			name:   "cache failure does not fail the deposit",
			owner:  "alice",
			amount: 100,
			setupMock: func(c *MockCache) {
				c.On("CacheBalance", mock.Anything, mock.Anything).Return(false, errors.New("redis down"))
				c.On("InvalidateBalance", mock.Anything, []string{"alice"}).Return(errors.New("redis down"))
			},
		},
		{
			name:    "invalid amount",
			owner:   "alice",
			amount:  -100,
			wantErr: ledger.ErrInvalidAmount,
		},
		{
			name:    "unknown owner",
			owner:   "carol",
			amount:  5,
			wantErr: ledger.ErrAccountNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := new(MockCache)
			if tt.setupMock != nil {
				tt.setupMock(cache)
			}
			svc, _ := newTestService(t, cache, nil, nil)

			res, err := svc.Deposit(context.Background(), tt.owner, tt.amount)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, res)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.amount, res.Balance)
			}
			cache.AssertExpectations(t)
		})
	}
}

func TestWalletService_TransferNotifiesPayee(t *testing.T) {
	cache := new(MockCache)
	cache.On("CacheBalance", mock.Anything, mock.Anything).Return(true, nil)
	notifier := new(MockNotifier)
	svc, _ := newTestService(t, cache, notifier, nil)
	ctx := context.Background()

	_, err := svc.Deposit(ctx, "alice", 500)
	require.NoError(t, err)

	notifier.On("SendTransferNotification", mock.Anything, "bob", int64(200), mock.AnythingOfType("string")).
		Return(errors.New("queue full")).Once()

	res, err := svc.Transfer(ctx, "alice", "bob", 200)
	require.NoError(t, err, "enqueue failure never fails a committed transfer")
	assert.Equal(t, int64(300), res.PayerBalance)

	notifier.AssertExpectations(t)
	cache.AssertCalled(t, "CacheBalance", mock.Anything, mock.MatchedBy(func(a *models.Account) bool {
		return a.OwnerID == "alice" && a.Balance == 300 && a.Version == 2
	}))
	cache.AssertCalled(t, "CacheBalance", mock.Anything, mock.MatchedBy(func(a *models.Account) bool {
		return a.OwnerID == "bob" && a.Balance == 200 && a.Version == 1
	}))
	cache.AssertNotCalled(t, "InvalidateBalance", mock.Anything, mock.Anything)
}

func TestWalletService_FailedTransferDoesNotNotify(t *testing.T) {
	notifier := new(MockNotifier)
	svc, _ := newTestService(t, nil, notifier, nil)

	_, err := svc.Transfer(context.Background(), "alice", "bob", 10)
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	_, err = svc.Transfer(context.Background(), "alice", "alice", 10)
	assert.ErrorIs(t, err, ledger.ErrSelfTransfer)

	notifier.AssertNotCalled(t, "SendTransferNotification", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWalletService_GetBalance(t *testing.T) {
	t.Run("cache hit", func(t *testing.T) {
		cache := new(MockCache)
		cached := &models.Account{ID: "acc", OwnerID: "alice", Balance: 42}
		cache.On("GetBalance", mock.Anything, "alice").Return(cached, nil)
		svc, _ := newTestService(t, cache, nil, nil)

		got, err := svc.GetBalance(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(42), got.Balance)
		cache.AssertNotCalled(t, "CacheBalance", mock.Anything, mock.Anything)
	})

	t.Run("cache miss reads projection and fills cache", func(t *testing.T) {
		cache := new(MockCache)
		cache.On("GetBalance", mock.Anything, "alice").Return(nil, nil)
		cache.On("CacheBalance", mock.Anything, mock.MatchedBy(func(a *models.Account) bool {
			return a.OwnerID == "alice" && a.Balance == 75
		})).Return(true, nil)
		svc, _ := newTestService(t, cache, nil, nil)

		_, err := svc.Deposit(context.Background(), "alice", 75)
		require.NoError(t, err)

		got, err := svc.GetBalance(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(75), got.Balance)
		assert.Equal(t, uint64(1), got.Version)
		cache.AssertExpectations(t)
	})

	t.Run("cache error falls through", func(t *testing.T) {
		cache := new(MockCache)
		cache.On("GetBalance", mock.Anything, "alice").Return(nil, errors.New("redis down"))
		cache.On("CacheBalance", mock.Anything, mock.Anything).Return(false, errors.New("redis down"))
		svc, _ := newTestService(t, cache, nil, nil)

		got, err := svc.GetBalance(context.Background(), "alice")
		require.NoError(t, err)
		assert.Zero(t, got.Balance)
	})

	t.Run("unknown owner", func(t *testing.T) {
		svc, _ := newTestService(t, nil, nil, nil)
		_, err := svc.GetBalance(context.Background(), "carol")
		assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
	})
}

func TestWalletService_HistoryPagination(t *testing.T) {
	svc, _ := newTestService(t, nil, nil, nil)
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		_, err := svc.Deposit(ctx, "alice", int64(i))
		require.NoError(t, err)
	}

	page, err := svc.History(ctx, "alice", 0, -4)
	require.NoError(t, err)
	assert.Equal(t, DefaultHistoryLimit, page.Limit)
	assert.Equal(t, 0, page.Offset)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Events, 3)
	assert.Equal(t, int64(3), page.Events[0].Amount(), "newest first")

	page, err = svc.History(ctx, "alice", 1000, 2)
	require.NoError(t, err)
	assert.Equal(t, MaxHistoryLimit, page.Limit)
	require.Len(t, page.Events, 1)
	assert.Equal(t, int64(1), page.Events[0].Amount())
}

func TestPrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewPrometheusMetrics(reg)
	svc, _ := newTestService(t, nil, nil, metrics)
	ctx := context.Background()

	_, err := svc.Deposit(ctx, "alice", 10)
	require.NoError(t, err)
	_, err = svc.Withdraw(ctx, "alice", 50)
	require.Error(t, err)
	_, err = svc.History(ctx, "alice", 10, 0)
	require.NoError(t, err)
	_, err = svc.History(ctx, "carol", 10, 0)
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.results.WithLabelValues(OpDeposit, "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.results.WithLabelValues(OpHistory, "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.results.WithLabelValues(OpHistory, "account_not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.results.WithLabelValues(OpWithdraw, "insufficient_funds")))
	assert.Equal(t, 10.0, testutil.ToFloat64(metrics.volume.WithLabelValues(OpDeposit)))
}
