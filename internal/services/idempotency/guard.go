// Package idempotency makes write requests safe to retry. A successful
// response is stored under a caller scoped key and replayed verbatim for
// every retry until the record expires.
package idempotency

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"

	"walletledger/internal/domain/ledger"
	"walletledger/internal/models"
)

const DefaultTTL = 24 * time.Hour

// Response is what gets stored and replayed.
type Response struct {
	StatusCode  int
	Body        []byte
	ContentType string
}

func (r Response) Successful() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Command produces the response for a first time request.
type Command func(ctx context.Context) (Response, error)

// Store persists idempotency records. Get must hide expired records and
// Save must never replace a live one.
type Store interface {
	Get(ctx context.Context, key string, now time.Time) (*models.IdempotencyRecord, error)
	Save(ctx context.Context, rec *models.IdempotencyRecord) (bool, error)
}

// saveAttempts bounds how often a response is offered to the store.
const saveAttempts = 2

type Guard struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
	saves *prometheus.CounterVec

	// collapses concurrent requests with the same key in this process
	inflight singleflight.Group
}

type Option func(*Guard)

func WithTTL(ttl time.Duration) Option {
	return func(g *Guard) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(g *Guard) { g.now = now }
}

// WithRegisterer exports the save outcome counter to reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(g *Guard) { g.saves = newSaveCounter(reg) }
}

func NewGuard(store Store, opts ...Option) *Guard {
	g := &Guard{
		store: store,
		ttl:   DefaultTTL,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.saves == nil {
		g.saves = newSaveCounter(nil)
	}
	return g
}

func newSaveCounter(reg prometheus.Registerer) *prometheus.CounterVec {
	return promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_idempotency_saves_total",
		Help: "Idempotency record writes by outcome",
	}, []string{"result"})
}

// outcome is shared with every request collapsed onto the same key.
type outcome struct {
	resp     Response
	replayed bool
	stored   bool
}

// ScopedKey binds a client supplied key to the caller that sent it, so
// two callers never share a record.
func ScopedKey(callerID, key string) string {
	return callerID + ":" + key
}

// Execute runs cmd at most once per (callerID, key) while a record is
// live. hit reports whether the response is a replay: it came from the
// store, or it was shared from a concurrent duplicate and then stored.
// With an empty key cmd always runs and nothing is stored.
func (g *Guard) Execute(ctx context.Context, callerID, key string, cmd Command) (Response, bool, error) {
	if key == "" {
		resp, err := cmd(ctx)
		return resp, false, err
	}

	scoped := ScopedKey(callerID, key)
	executed := false
	v, err, _ := g.inflight.Do(scoped, func() (interface{}, error) {
		rec, err := g.store.Get(ctx, scoped, g.now())
		if err != nil {
			return nil, fmt.Errorf("idempotency lookup: %w: %v", ledger.ErrInfrastructure, err)
		}
		if rec != nil {
			return outcome{
				resp: Response{
					StatusCode:  rec.StatusCode,
					Body:        rec.ResponseBody,
					ContentType: rec.ContentType,
				},
				replayed: true,
			}, nil
		}

		executed = true
		resp, err := cmd(ctx)
		if err != nil {
			return nil, err
		}
		o := outcome{resp: resp}
		if resp.Successful() {
			o.stored = g.save(ctx, callerID, scoped, resp)
		}
		return o, nil
	})
	if err != nil {
		return Response{}, false, err
	}
	o := v.(outcome)
	if executed {
		return o.resp, false, nil
	}
	return o.resp, o.replayed || o.stored, nil
}

// save stores resp and reports whether a record now holds it. The command
// already ran, so a storage failure only costs the replay. It is retried
// once and counted.
func (g *Guard) save(ctx context.Context, callerID, scoped string, resp Response) bool {
	now := g.now()
	rec := &models.IdempotencyRecord{
		Key:          scoped,
		CallerID:     callerID,
		StatusCode:   resp.StatusCode,
		ContentType:  resp.ContentType,
		ResponseBody: resp.Body,
		CreatedAt:    now,
		ExpiresAt:    now.Add(g.ttl),
	}

	var err error
	for attempt := 1; attempt <= saveAttempts; attempt++ {
		var stored bool
		stored, err = g.store.Save(ctx, rec)
		if err != nil {
			continue
		}
		if !stored {
			g.saves.WithLabelValues("duplicate").Inc()
			log.Printf("Idempotency record %s already present, keeping the first response", scoped)
			return false
		}
		g.saves.WithLabelValues("stored").Inc()
		return true
	}
	g.saves.WithLabelValues("failed").Inc()
	log.Printf("Failed to store idempotency record %s: %v", scoped, err)
	return false
}
