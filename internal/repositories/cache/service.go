package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"walletledger/internal/models"
)

// CacheService stores JSON values in redis. Cache failures are reported to
// the caller, who decides whether to fall through to the database.
type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client, defaultTTL time.Duration) *CacheService {
	return &CacheService{
		client: client,
		ttl:    defaultTTL,
	}
}

func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache value: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

func (s *CacheService) Delete(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

// Key generation
func (s *CacheService) GenerateKey(entityType, keyType string, value interface{}) string {
	return fmt.Sprintf("%s:%s:%v", entityType, keyType, value)
}

// setIfNotOlder writes ARGV[1] unless the cached document carries a
// higher version than ARGV[2]. ARGV[3] is the TTL in ms, 0 for none.
var setIfNotOlder = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur then
  local ok, doc = pcall(cjson.decode, cur)
  if ok and type(doc) == 'table' and tonumber(doc.version) and tonumber(doc.version) > tonumber(ARGV[2]) then
    return 0
  end
end
if tonumber(ARGV[3]) > 0 then
  redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
else
  redis.call('SET', KEYS[1], ARGV[1])
end
return 1
`)

// CacheBalance stores the projection keyed by owner. An entry with a
// higher version is kept, so a slow reader cannot overwrite a newer
// committed balance. It reports whether the entry was written.
func (s *CacheService) CacheBalance(ctx context.Context, account *models.Account) (bool, error) {
	if account == nil {
		return false, errors.New("cannot cache nil account")
	}
	data, err := json.Marshal(account)
	if err != nil {
		return false, fmt.Errorf("failed to marshal cache value: %w", err)
	}
	key := s.GenerateKey("balance", "owner", account.OwnerID)
	written, err := setIfNotOlder.Run(ctx, s.client, []string{key}, data, account.Version, s.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("failed to cache balance: %w", err)
	}
	return written == 1, nil
}

// GetBalance returns nil, nil on a cache miss.
func (s *CacheService) GetBalance(ctx context.Context, ownerID string) (*models.Account, error) {
	var account models.Account
	found, err := s.Get(ctx, s.GenerateKey("balance", "owner", ownerID), &account)
	if err != nil || !found {
		return nil, err
	}
	return &account, nil
}

func (s *CacheService) InvalidateBalance(ctx context.Context, ownerIDs ...string) error {
	if len(ownerIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(ownerIDs))
	for _, id := range ownerIDs {
		keys = append(keys, s.GenerateKey("balance", "owner", id))
	}
	return s.Delete(ctx, keys...)
}

// Client exposes the underlying connection for stores sharing it.
func (s *CacheService) Client() *redis.Client {
	return s.client
}

// Close closes the Redis client connection
func (s *CacheService) Close() error {
	return s.client.Close()
}
