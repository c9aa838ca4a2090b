package notification

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"walletledger/internal/models"
	"walletledger/internal/repositories"
)

// WebhookDirectory finds where to deliver an owner's notifications.
type WebhookDirectory interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

type DispatcherConfig struct {
	Workers     int
	MaxAttempts int
	// Backoff[i] is the wait before attempt i+2. The last value repeats.
	Backoff []time.Duration
}

const dequeueRetryDelay = time.Second

// Dispatcher drains a Queue with a fixed pool of workers.
type Dispatcher struct {
	queue     Queue
	directory WebhookDirectory
	sender    Sender
	cfg       DispatcherConfig
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewDispatcher(queue Queue, directory WebhookDirectory, sender Sender, cfg DispatcherConfig) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	return &Dispatcher{
		queue:     queue,
		directory: directory,
		sender:    sender,
		cfg:       cfg,
		sleep:     sleepCtx,
	}
}

// Run blocks until ctx is cancelled. Queue errors are logged and retried.
func (d *Dispatcher) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < d.cfg.Workers; i++ {
		g.Go(func() error { return d.work(ctx) })
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (d *Dispatcher) work(ctx context.Context) error {
	for {
		task, err := d.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("Notification queue error: %v", err)
			if d.sleep(ctx, dequeueRetryDelay) != nil {
				return nil
			}
			continue
		}
		d.Deliver(ctx, task)
	}
}

// Deliver makes the remaining attempts for one task. A failed payee
// lookup uses up an attempt the same way a failed send does.
func (d *Dispatcher) Deliver(ctx context.Context, task Task) {
	payload := task.Payload()
	webhookURL := ""
	for task.Attempts < d.cfg.MaxAttempts {
		if task.Attempts > 0 {
			if err := d.sleep(ctx, d.backoff(task.Attempts)); err != nil {
				d.requeue(task)
				return
			}
		}

		task.Attempts++
		if webhookURL == "" {
			user, err := d.directory.GetByID(ctx, task.PayeeOwnerID)
			switch {
			case errors.Is(err, repositories.ErrUserNotFound):
				log.Printf("Notification %s dropped: payee %s not found", task.TransferID, task.PayeeOwnerID)
				return
			case err != nil:
				log.Printf("Notification %s attempt %d/%d: payee lookup failed: %v", task.TransferID, task.Attempts, d.cfg.MaxAttempts, err)
				continue
			case user.WebhookURL == "":
				log.Printf("Notification %s skipped: payee %s has no webhook", task.TransferID, task.PayeeOwnerID)
				return
			}
			webhookURL = user.WebhookURL
		}

		err := d.sender.Send(ctx, webhookURL, payload)
		if err == nil {
			return
		}
		log.Printf("Notification %s attempt %d/%d failed: %v", task.TransferID, task.Attempts, d.cfg.MaxAttempts, err)
	}
	log.Printf("Notification %s abandoned after %d attempts", task.TransferID, task.Attempts)
}

// backoff returns the wait after the given number of failed attempts.
func (d *Dispatcher) backoff(failed int) time.Duration {
	if len(d.cfg.Backoff) == 0 {
		return 0
	}
	i := failed - 1
	if i >= len(d.cfg.Backoff) {
		i = len(d.cfg.Backoff) - 1
	}
	return d.cfg.Backoff[i]
}

// requeue puts an interrupted task back so another process can finish it.
func (d *Dispatcher) requeue(task Task) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := d.queue.Enqueue(ctx, task); err != nil {
		log.Printf("Notification %s lost on shutdown: %v", task.TransferID, err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("backoff interrupted: %w", ctx.Err())
	}
}
