package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Clock returns the current time. It is called once per emitted event.
type Clock func() time.Time

// IDGenerator returns a fresh, globally unique event id.
type IDGenerator func() (string, error)

func systemClock() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func uuidV7() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

type Option func(*Aggregate)

func WithClock(c Clock) Option {
	return func(a *Aggregate) { a.clock = c }
}

func WithIDGenerator(g IDGenerator) Option {
	return func(a *Aggregate) { a.newID = g }
}

// Aggregate is the transient wallet state rebuilt from an account's
// history on every command. It never touches storage.
type Aggregate struct {
	accountID string
	balance   int64
	version   uint64
	last      time.Time

	clock Clock
	newID IDGenerator
}

// Retrieve replays history in canonical (OccurredAt, ID) order. The input
// slice is not modified.
func Retrieve(accountID string, history []Event, opts ...Option) (*Aggregate, error) {
	a := &Aggregate{accountID: accountID, clock: systemClock, newID: uuidV7}
	for _, opt := range opts {
		opt(a)
	}

	ordered := make([]Event, len(history))
	copy(ordered, history)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].before(ordered[j]) })

	for _, e := range ordered {
		if e.AccountID != accountID {
			return nil, fmt.Errorf("%w: event %s has account %s, want %s", ErrHistoryMismatch, e.ID, e.AccountID, accountID)
		}
		a.apply(e)
	}
	return a, nil
}

func (a *Aggregate) AccountID() string { return a.accountID }
func (a *Aggregate) Balance() int64    { return a.balance }

// Version is the number of events applied so far.
func (a *Aggregate) Version() uint64 { return a.version }

func (a *Aggregate) apply(e Event) {
	a.balance += e.Delta()
	a.version++
	if e.OccurredAt.After(a.last) {
		a.last = e.OccurredAt
	}
}

// Deposit credits a positive amount.
func (a *Aggregate) Deposit(amount int64) (Event, error) {
	if amount <= 0 {
		return Event{}, ErrInvalidAmount
	}
	return a.emit(Deposited{Amount: amount})
}

// Withdraw debits a positive amount not exceeding the balance.
func (a *Aggregate) Withdraw(amount int64) (Event, error) {
	if err := a.checkDebit(amount); err != nil {
		return Event{}, err
	}
	return a.emit(Withdrawn{Amount: amount})
}

// SendTransfer debits the payer leg of a transfer.
func (a *Aggregate) SendTransfer(counterpartyAccountID, transferID string, amount int64) (Event, error) {
	if err := a.checkDebit(amount); err != nil {
		return Event{}, err
	}
	return a.emit(TransferSent{
		Amount:                amount,
		CounterpartyAccountID: counterpartyAccountID,
		TransferID:            transferID,
	})
}

// ReceiveTransfer credits the payee leg of a transfer.
func (a *Aggregate) ReceiveTransfer(counterpartyAccountID, transferID string, amount int64) (Event, error) {
	if amount <= 0 {
		return Event{}, ErrInvalidAmount
	}
	return a.emit(TransferReceived{
		Amount:                amount,
		CounterpartyAccountID: counterpartyAccountID,
		TransferID:            transferID,
	})
}

func (a *Aggregate) checkDebit(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if amount > a.balance {
		return ErrInsufficientFunds
	}
	return nil
}

// emit builds the event and applies it so the aggregate reflects the
// post-command state. occurred_at is kept strictly increasing per account.
func (a *Aggregate) emit(p Payload) (Event, error) {
	id, err := a.newID()
	if err != nil {
		return Event{}, fmt.Errorf("generate event id: %w", err)
	}

	at := a.clock().UTC().Truncate(time.Microsecond)
	if !a.last.IsZero() && !at.After(a.last) {
		at = a.last.Add(time.Microsecond)
	}

	e := Event{ID: id, AccountID: a.accountID, OccurredAt: at, Payload: p}
	a.apply(e)
	return e, nil
}

// CommandKind names a single-account command.
type CommandKind string

const (
	CommandDeposit  CommandKind = "deposit"
	CommandWithdraw CommandKind = "withdraw"
)

// Command is a deposit or withdraw against one account.
type Command struct {
	Kind   CommandKind
	Amount int64
}

func (c Command) Apply(a *Aggregate) (Event, error) {
	switch c.Kind {
	case CommandDeposit:
		return a.Deposit(c.Amount)
	case CommandWithdraw:
		return a.Withdraw(c.Amount)
	default:
		return Event{}, fmt.Errorf("unknown command %q", c.Kind)
	}
}
