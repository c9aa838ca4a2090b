package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"walletledger/internal/models"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]models.IdempotencyRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]models.IdempotencyRecord)}
}

func (s *MemoryStore) Get(_ context.Context, key string, now time.Time) (*models.IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok || !rec.ExpiresAt.After(now) {
		return nil, nil
	}
	return &rec, nil
}

func (s *MemoryStore) Save(_ context.Context, rec *models.IdempotencyRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[rec.Key]; ok && existing.ExpiresAt.After(rec.CreatedAt) {
		return false, nil
	}
	s.records[rec.Key] = *rec
	return true, nil
}

// RedisStore keeps records as JSON strings and lets redis expire them.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client, prefix: "idempotency:"}
}

func (s *RedisStore) Get(ctx context.Context, key string, now time.Time) (*models.IdempotencyRecord, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get idempotency record: %w", err)
	}

	var rec models.IdempotencyRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode idempotency record: %w", err)
	}
	if !rec.ExpiresAt.After(now) {
		return nil, nil
	}
	return &rec, nil
}

func (s *RedisStore) Save(ctx context.Context, rec *models.IdempotencyRecord) (bool, error) {
	ttl := rec.ExpiresAt.Sub(rec.CreatedAt)
	if ttl <= 0 {
		return false, fmt.Errorf("idempotency record %s already expired", rec.Key)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf("failed to encode idempotency record: %w", err)
	}
	ok, err := s.client.SetNX(ctx, s.prefix+rec.Key, data, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to save idempotency record: %w", err)
	}
	return ok, nil
}
