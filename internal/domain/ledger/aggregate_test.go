package ledger

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) Clock { return func() time.Time { return t } }

func sequentialIDs() IDGenerator {
	n := 0
	return func() (string, error) {
		n++
		return fmt.Sprintf("evt-%04d", n), nil
	}
}

func newTestAggregate(t *testing.T, history ...Event) *Aggregate {
	t.Helper()
	a, err := Retrieve("acc-1", history, WithClock(fixedClock(epoch)), WithIDGenerator(sequentialIDs()))
	require.NoError(t, err)
	return a
}

func TestAggregate_DepositWithdraw(t *testing.T) {
	a := newTestAggregate(t)

	e, err := a.Deposit(1000)
	require.NoError(t, err)
	assert.Equal(t, EventDeposited, e.Type())
	assert.Equal(t, int64(1000), a.Balance())

	e, err = a.Withdraw(400)
	require.NoError(t, err)
	assert.Equal(t, EventWithdrawn, e.Type())
	assert.Equal(t, int64(-400), e.Delta())
	assert.Equal(t, int64(600), a.Balance())
	assert.Equal(t, uint64(2), a.Version())
}

func TestAggregate_Validation(t *testing.T) {
	tests := []struct {
		name    string
		run     func(a *Aggregate) error
		wantErr error
	}{
		{"zero deposit", func(a *Aggregate) error { _, err := a.Deposit(0); return err }, ErrInvalidAmount},
		{"negative deposit", func(a *Aggregate) error { _, err := a.Deposit(-5); return err }, ErrInvalidAmount},
		{"zero withdraw", func(a *Aggregate) error { _, err := a.Withdraw(0); return err }, ErrInvalidAmount},
		{"withdraw from empty", func(a *Aggregate) error { _, err := a.Withdraw(50); return err }, ErrInsufficientFunds},
		{"send from empty", func(a *Aggregate) error { _, err := a.SendTransfer("acc-2", "t", 1); return err }, ErrInsufficientFunds},
		{"receive negative", func(a *Aggregate) error { _, err := a.ReceiveTransfer("acc-2", "t", -1); return err }, ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAggregate(t)
			err := tt.run(a)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, int64(0), a.Balance())
			assert.Equal(t, uint64(0), a.Version())
		})
	}
}

func TestAggregate_ReceiveNeedsNoBalance(t *testing.T) {
	a := newTestAggregate(t)
	e, err := a.ReceiveTransfer("acc-2", "tr-1", 75)
	require.NoError(t, err)

	p, ok := e.Payload.(TransferReceived)
	require.True(t, ok)
	assert.Equal(t, "acc-2", p.CounterpartyAccountID)
	assert.Equal(t, "tr-1", p.TransferID)
	assert.Equal(t, int64(75), a.Balance())
}

func TestRetrieve_CanonicalOrder(t *testing.T) {
	same := epoch.Add(time.Second)
	history := []Event{
		{ID: "b", AccountID: "acc-1", OccurredAt: same, Payload: Withdrawn{Amount: 30}},
		{ID: "z", AccountID: "acc-1", OccurredAt: epoch, Payload: Deposited{Amount: 100}},
		{ID: "a", AccountID: "acc-1", OccurredAt: same, Payload: Deposited{Amount: 5}},
	}

	first := newTestAggregate(t, history...)
	second := newTestAggregate(t, history[2], history[0], history[1])

	assert.Equal(t, int64(75), first.Balance())
	assert.Equal(t, first.Balance(), second.Balance())
	assert.Equal(t, first.Version(), second.Version())
	assert.Equal(t, "b", history[0].ID, "input must not be reordered")
}

func TestRetrieve_ForeignEvent(t *testing.T) {
	_, err := Retrieve("acc-1", []Event{{ID: "x", AccountID: "acc-9", OccurredAt: epoch, Payload: Deposited{Amount: 1}}})
	assert.ErrorIs(t, err, ErrHistoryMismatch)
}

func TestAggregate_OccurredAtStrictlyIncreases(t *testing.T) {
	later := epoch.Add(time.Hour)
	a := newTestAggregate(t, Event{ID: "h", AccountID: "acc-1", OccurredAt: later, Payload: Deposited{Amount: 10}})

	// clock is behind the last event
	e1, err := a.Deposit(1)
	require.NoError(t, err)
	e2, err := a.Deposit(1)
	require.NoError(t, err)

	assert.True(t, e1.OccurredAt.After(later))
	assert.True(t, e2.OccurredAt.After(e1.OccurredAt))
}

func TestAggregate_DefaultIDsAreUnique(t *testing.T) {
	a, err := Retrieve("acc-1", nil)
	require.NoError(t, err)

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		e, err := a.Deposit(1)
		require.NoError(t, err)
		assert.False(t, seen[e.ID])
		seen[e.ID] = true
	}
}

func TestCommand_Apply(t *testing.T) {
	a := newTestAggregate(t)

	_, err := Command{Kind: CommandDeposit, Amount: 20}.Apply(a)
	require.NoError(t, err)
	_, err = Command{Kind: CommandWithdraw, Amount: 50}.Apply(a)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	_, err = Command{Kind: "refund", Amount: 1}.Apply(a)
	assert.Error(t, err)
	assert.Equal(t, int64(20), a.Balance())
}
