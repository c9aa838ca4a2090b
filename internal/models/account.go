package models

import "time"

// Account is the read projection of a wallet. Only the ledger writes
// Balance and Version; both follow from the account's stored events.
type Account struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	OwnerID   string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"owner_id"`
	Balance   int64     `gorm:"not null;default:0" json:"balance"`
	Version   uint64    `gorm:"not null;default:0" json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StoredEvent is one row of the append-only event log.
type StoredEvent struct {
	ID            string    `gorm:"type:varchar(36);primaryKey;index:idx_events_replay,priority:3"`
	AccountID     string    `gorm:"type:varchar(36);not null;index:idx_events_replay,priority:1"`
	Type          string    `gorm:"type:varchar(32);not null"`
	SchemaVersion int       `gorm:"not null;default:1"`
	Payload       JSON      `gorm:"not null"`
	OccurredAt    time.Time `gorm:"precision:6;not null;index:idx_events_replay,priority:2"`
	CreatedAt     time.Time `gorm:"precision:6"`
}

func (StoredEvent) TableName() string { return "stored_events" }

// IdempotencyRecord caches a successful response for a caller scoped key.
type IdempotencyRecord struct {
	Key          string `gorm:"column:idempotency_key;type:varchar(255);primaryKey"`
	CallerID     string `gorm:"type:varchar(36);not null;index"`
	StatusCode   int    `gorm:"not null"`
	ContentType  string `gorm:"type:varchar(100)"`
	ResponseBody []byte `gorm:"not null"`
	CreatedAt    time.Time
	ExpiresAt    time.Time `gorm:"not null;index"`
}

func (IdempotencyRecord) TableName() string { return "idempotency_keys" }
