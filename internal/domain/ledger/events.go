package ledger

import (
	"encoding/json"
	"fmt"
	"time"
)

type EventType string

const (
	EventDeposited        EventType = "Deposited"
	EventWithdrawn        EventType = "Withdrawn"
	EventTransferSent     EventType = "TransferSent"
	EventTransferReceived EventType = "TransferReceived"
)

// SchemaVersion is the payload schema written by Encode. Decode accepts
// every version listed in its switch; adding a field means adding a case.
const SchemaVersion = 1

// Payload is the type-specific part of an event. The set of
// implementations is closed: Deposited, Withdrawn, TransferSent,
// TransferReceived.
type Payload interface {
	Type() EventType
	// Delta is the signed effect on the account balance.
	Delta() int64
}

type Deposited struct {
	Amount int64
}

type Withdrawn struct {
	Amount int64
}

type TransferSent struct {
	Amount                int64
	CounterpartyAccountID string
	TransferID            string
}

type TransferReceived struct {
	Amount                int64
	CounterpartyAccountID string
	TransferID            string
}

func (Deposited) Type() EventType        { return EventDeposited }
func (Withdrawn) Type() EventType        { return EventWithdrawn }
func (TransferSent) Type() EventType     { return EventTransferSent }
func (TransferReceived) Type() EventType { return EventTransferReceived }

func (p Deposited) Delta() int64        { return p.Amount }
func (p Withdrawn) Delta() int64        { return -p.Amount }
func (p TransferSent) Delta() int64     { return -p.Amount }
func (p TransferReceived) Delta() int64 { return p.Amount }

// Event is one immutable fact in an account's history.
type Event struct {
	ID         string
	AccountID  string
	OccurredAt time.Time
	Payload    Payload
}

func (e Event) Type() EventType { return e.Payload.Type() }
func (e Event) Delta() int64    { return e.Payload.Delta() }

// Amount is the unsigned amount carried by the event.
func (e Event) Amount() int64 {
	d := e.Payload.Delta()
	if d < 0 {
		return -d
	}
	return d
}

// before reports whether e sorts before o in canonical replay order.
func (e Event) before(o Event) bool {
	if !e.OccurredAt.Equal(o.OccurredAt) {
		return e.OccurredAt.Before(o.OccurredAt)
	}
	return e.ID < o.ID
}

// =============================================================================
// CODEC - explicit wire schema per event type
// =============================================================================

type amountV1 struct {
	Amount int64 `json:"amount"`
}

type transferV1 struct {
	Amount                int64  `json:"amount"`
	CounterpartyAccountID string `json:"counterparty_account_id"`
	TransferID            string `json:"transfer_id"`
}

// Encode serializes a payload with the current schema version.
func Encode(p Payload) (EventType, int, []byte, error) {
	var (
		data []byte
		err  error
	)
	switch v := p.(type) {
	case Deposited:
		data, err = json.Marshal(amountV1{Amount: v.Amount})
	case Withdrawn:
		data, err = json.Marshal(amountV1{Amount: v.Amount})
	case TransferSent:
		data, err = json.Marshal(transferV1{
			Amount:                v.Amount,
			CounterpartyAccountID: v.CounterpartyAccountID,
			TransferID:            v.TransferID,
		})
	case TransferReceived:
		data, err = json.Marshal(transferV1{
			Amount:                v.Amount,
			CounterpartyAccountID: v.CounterpartyAccountID,
			TransferID:            v.TransferID,
		})
	default:
		return "", 0, nil, fmt.Errorf("%w: %T", ErrUnknownEventType, p)
	}
	if err != nil {
		return "", 0, nil, fmt.Errorf("encode %s: %w", p.Type(), err)
	}
	return p.Type(), SchemaVersion, data, nil
}

// Decode rebuilds a payload from its stored type, schema version and bytes.
func Decode(t EventType, version int, data []byte) (Payload, error) {
	if version != 1 {
		return nil, fmt.Errorf("%w: %s v%d", ErrUnsupportedSchema, t, version)
	}

	switch t {
	case EventDeposited, EventWithdrawn:
		var v amountV1
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", t, err)
		}
		if t == EventDeposited {
			return Deposited{Amount: v.Amount}, nil
		}
		return Withdrawn{Amount: v.Amount}, nil
	case EventTransferSent, EventTransferReceived:
		var v transferV1
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", t, err)
		}
		if t == EventTransferSent {
			return TransferSent{Amount: v.Amount, CounterpartyAccountID: v.CounterpartyAccountID, TransferID: v.TransferID}, nil
		}
		return TransferReceived{Amount: v.Amount, CounterpartyAccountID: v.CounterpartyAccountID, TransferID: v.TransferID}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, t)
	}
}
