package notification

import (
	"context"
	"time"
)

// Service is the producer side used by the wallet service after a
// transfer commits.
type Service struct {
	queue Queue
	now   func() time.Time
}

// NewService creates a new notification service.
func NewService(queue Queue) *Service {
	return &Service{queue: queue, now: time.Now}
}

// SendTransferNotification enqueues a transfer_received webhook for the payee.
func (s *Service) SendTransferNotification(ctx context.Context, payeeOwnerID string, amount int64, transferID string) error {
	return s.queue.Enqueue(ctx, Task{
		PayeeOwnerID: payeeOwnerID,
		Amount:       amount,
		TransferID:   transferID,
		CreatedAt:    s.now().UTC(),
	})
}
