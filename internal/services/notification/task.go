package notification

import "time"

// EventTransferReceived is the event name posted to payee webhooks.
const EventTransferReceived = "transfer_received"

// Task is one pending webhook delivery.
type Task struct {
	PayeeOwnerID string    `json:"payee_owner_id"`
	Amount       int64     `json:"amount"`
	TransferID   string    `json:"transfer_id"`
	CreatedAt    time.Time `json:"created_at"`
	// Attempts already made, carried across a requeue on shutdown.
	Attempts int `json:"attempts"`
}

// Payload is the JSON body posted to the webhook.
type Payload struct {
	Event      string `json:"event"`
	Amount     int64  `json:"amount"`
	TransferID string `json:"transfer_id"`
	Timestamp  string `json:"timestamp"`
}

func (t Task) Payload() Payload {
	return Payload{
		Event:      EventTransferReceived,
		Amount:     t.Amount,
		TransferID: t.TransferID,
		Timestamp:  t.CreatedAt.UTC().Format(time.RFC3339),
	}
}
