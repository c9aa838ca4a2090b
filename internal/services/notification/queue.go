package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrQueueFull = errors.New("notification queue is full")

// Queue hands tasks from request handlers to the dispatcher. Dequeue
// blocks until a task is available or ctx is done.
type Queue interface {
	Enqueue(ctx context.Context, task Task) error
	Dequeue(ctx context.Context) (Task, error)
}

// MemoryQueue is a bounded in-process queue. Tasks are lost on restart.
type MemoryQueue struct {
	tasks chan Task
}

func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 1024
	}
	return &MemoryQueue{tasks: make(chan Task, size)}
}

// Enqueue never blocks the request path.
func (q *MemoryQueue) Enqueue(_ context.Context, task Task) error {
	select {
	case q.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (Task, error) {
	select {
	case t := <-q.tasks:
		return t, nil
	case <-ctx.Done():
		return Task{}, ctx.Err()
	}
}

// RedisQueue is a list consumed with BRPOP, shared by every server process.
type RedisQueue struct {
	client  redis.UniversalClient
	key     string
	pollFor time.Duration
}

func NewRedisQueue(client redis.UniversalClient, key string) *RedisQueue {
	if key == "" {
		key = "notifications:transfer"
	}
	return &RedisQueue{client: client, key: key, pollFor: time.Second}
}

func (q *RedisQueue) Enqueue(ctx context.Context, task Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to encode task: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context) (Task, error) {
	for {
		res, err := q.client.BRPop(ctx, q.pollFor, q.key).Result()
		if err != nil {
			if ctx.Err() != nil {
				return Task{}, ctx.Err()
			}
			if errors.Is(err, redis.Nil) {
				continue
			}
			return Task{}, fmt.Errorf("failed to dequeue task: %w", err)
		}

		// res is [key, value]
		var task Task
		if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
			return Task{}, fmt.Errorf("failed to decode task: %w", err)
		}
		return task, nil
	}
}
