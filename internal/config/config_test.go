package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "LOCK_TIMEOUT", "IDEMPOTENCY_TTL", "NOTIFY_BACKOFF", "NOTIFY_MAX_ATTEMPTS"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.LockTimeout)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, 3, cfg.Notify.MaxAttempts)
	assert.Equal(t, []time.Duration{10 * time.Second, 30 * time.Second}, cfg.Notify.Backoff)
	assert.Equal(t, 5*time.Second, cfg.Notify.Timeout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("LOCK_TIMEOUT", "250ms")
	t.Setenv("NOTIFY_BACKOFF", "1s, 2s,3s")
	t.Setenv("NOTIFY_WORKERS", "9")
	t.Setenv("DB_PORT", "6543")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.LockTimeout)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}, cfg.Notify.Backoff)
	assert.Equal(t, 9, cfg.Notify.Workers)
	assert.Contains(t, cfg.DB.DSN(), "port=6543")
}

func TestGetters_FallBackOnGarbage(t *testing.T) {
	t.Setenv("X_INT", "abc")
	t.Setenv("X_DUR", "-5s")
	t.Setenv("X_LIST", "1s,nope")

	assert.Equal(t, 7, GetIntEnv("X_INT", 7))
	assert.Equal(t, time.Minute, GetDurationEnv("X_DUR", time.Minute))
	assert.Equal(t, []time.Duration{time.Hour}, GetDurationListEnv("X_LIST", []time.Duration{time.Hour}))
}
