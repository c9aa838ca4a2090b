package wallet

import (
	"context"
	"log"
	"time"

	"walletledger/internal/models"
)

// storeBalances writes committed projections through to the cache. The
// cache keeps the highest version it has seen, so a reader that loaded
// an older projection cannot hide this one. If the write fails the entry
// is dropped instead; failing that too leaves it stale until its TTL.
func (s *service) storeBalances(ctx context.Context, accounts ...*models.Account) {
	if s.cache == nil {
		return
	}
	for _, acc := range accounts {
		_, err := s.cache.CacheBalance(ctx, acc)
		if err == nil {
			continue
		}
		log.Printf("Error caching balance for %s: %v", acc.OwnerID, err)
		if err := s.cache.InvalidateBalance(ctx, acc.OwnerID); err != nil {
			log.Printf("Error invalidating balance cache for %s: %v", acc.OwnerID, err)
		}
	}
}

func committed(accountID, ownerID string, balance int64, version uint64) *models.Account {
	return &models.Account{
		ID:        accountID,
		OwnerID:   ownerID,
		Balance:   balance,
		Version:   version,
		UpdatedAt: time.Now().UTC(),
	}
}
