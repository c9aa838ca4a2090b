// Package memory keeps the ledger in process memory. It honours the same
// locking and atomicity rules as the database store and backs tests and
// single process development runs.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"walletledger/internal/domain/ledger"
	"walletledger/internal/models"
	"walletledger/internal/repositories"
)

type Store struct {
	mu       sync.RWMutex
	accounts map[string]*models.Account // by account id
	byOwner  map[string]string          // owner id -> account id
	events   map[string][]ledger.Event  // by account id, append order

	locks       sync.Map // account id -> chan struct{}
	lockTimeout time.Duration
	lockCount   atomic.Int64
}

var (
	_ repositories.LedgerRepository  = (*Store)(nil)
	_ repositories.AccountRepository = (*Store)(nil)
)

func NewStore(lockTimeout time.Duration) *Store {
	return &Store{
		accounts:    make(map[string]*models.Account),
		byOwner:     make(map[string]string),
		events:      make(map[string][]ledger.Event),
		lockTimeout: lockTimeout,
	}
}

// LockCount is the number of account locks acquired so far.
func (s *Store) LockCount() int64 {
	return s.lockCount.Load()
}

func (s *Store) Create(_ context.Context, ownerID string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byOwner[ownerID]; ok {
		return nil, fmt.Errorf("owner %s already has an account", ownerID)
	}
	now := time.Now().UTC()
	acc := &models.Account{ID: uuid.NewString(), OwnerID: ownerID, CreatedAt: now, UpdatedAt: now}
	s.accounts[acc.ID] = acc
	s.byOwner[ownerID] = acc.ID
	cp := *acc
	return &cp, nil
}

func (s *Store) GetByOwnerID(ctx context.Context, ownerID string) (*models.Account, error) {
	return s.FindAccountByOwner(ctx, ownerID)
}

func (s *Store) FindAccountByOwner(_ context.Context, ownerID string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byOwner[ownerID]
	if !ok {
		return nil, ledger.ErrAccountNotFound
	}
	cp := *s.accounts[id]
	return &cp, nil
}

func (s *Store) ListEvents(_ context.Context, accountID string, limit, offset int) ([]ledger.Event, int64, error) {
	s.mu.RLock()
	all := sortedCopy(s.events[accountID])
	s.mu.RUnlock()

	total := int64(len(all))
	out := make([]ledger.Event, 0, limit)
	for i := len(all) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, total, nil
}

func (s *Store) ExecuteInTransaction(ctx context.Context, fn func(repositories.LedgerTx) error) error {
	tx := &memoryTx{store: s, projections: make(map[string]projection)}
	defer tx.release()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.commit()
}

func (s *Store) lockFor(accountID string) chan struct{} {
	ch, _ := s.locks.LoadOrStore(accountID, make(chan struct{}, 1))
	return ch.(chan struct{})
}

func sortedCopy(events []ledger.Event) []ledger.Event {
	out := make([]ledger.Event, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.Before(out[j].OccurredAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

type projection struct {
	balance int64
	version uint64
}

// memoryTx stages writes and applies them all at commit.
type memoryTx struct {
	store       *Store
	held        []chan struct{}
	heldIDs     map[string]bool
	staged      []ledger.Event
	projections map[string]projection
}

func (t *memoryTx) LockAccount(ctx context.Context, accountID string) error {
	t.store.mu.RLock()
	_, ok := t.store.accounts[accountID]
	t.store.mu.RUnlock()
	if !ok {
		return ledger.ErrAccountNotFound
	}
	if t.heldIDs[accountID] {
		return nil
	}

	timer := time.NewTimer(t.store.lockTimeout)
	defer timer.Stop()

	ch := t.store.lockFor(accountID)
	select {
	case ch <- struct{}{}:
	case <-timer.C:
		return fmt.Errorf("lock account %s: %w", accountID, ledger.ErrLockTimeout)
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("lock account %s: %w", accountID, ledger.ErrLockTimeout)
		}
		return fmt.Errorf("lock account %s: %w: %v", accountID, ledger.ErrInfrastructure, ctx.Err())
	}

	if t.heldIDs == nil {
		t.heldIDs = make(map[string]bool)
	}
	t.heldIDs[accountID] = true
	t.held = append(t.held, ch)
	t.store.lockCount.Add(1)
	return nil
}

func (t *memoryTx) Append(_ context.Context, event ledger.Event) error {
	// Round trip through the codec so the memory store rejects what the
	// database store would.
	if _, _, _, err := ledger.Encode(event.Payload); err != nil {
		return err
	}
	t.staged = append(t.staged, event)
	return nil
}

func (t *memoryTx) LoadHistory(_ context.Context, accountID string) ([]ledger.Event, error) {
	t.store.mu.RLock()
	history := append([]ledger.Event(nil), t.store.events[accountID]...)
	t.store.mu.RUnlock()

	for _, e := range t.staged {
		if e.AccountID == accountID {
			history = append(history, e)
		}
	}
	return sortedCopy(history), nil
}

func (t *memoryTx) FindAccountByOwner(ctx context.Context, ownerID string) (*models.Account, error) {
	return t.store.FindAccountByOwner(ctx, ownerID)
}

func (t *memoryTx) UpdateProjection(_ context.Context, accountID string, balance int64, version uint64) error {
	t.store.mu.RLock()
	_, ok := t.store.accounts[accountID]
	t.store.mu.RUnlock()
	if !ok {
		return ledger.ErrAccountNotFound
	}
	t.projections[accountID] = projection{balance: balance, version: version}
	return nil
}

func (t *memoryTx) commit() error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range t.staged {
		s.events[e.AccountID] = append(s.events[e.AccountID], e)
	}
	now := time.Now().UTC()
	for id, p := range t.projections {
		acc := s.accounts[id]
		acc.Balance = p.balance
		acc.Version = p.version
		acc.UpdatedAt = now
	}
	return nil
}

// release frees locks in reverse acquisition order.
func (t *memoryTx) release() {
	for i := len(t.held) - 1; i >= 0; i-- {
		<-t.held[i]
	}
	t.held = nil
}
