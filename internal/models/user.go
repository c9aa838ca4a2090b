package models

import "time"

// User owns exactly one account. Credentials live with the identity
// provider that issues bearer tokens.
type User struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Email      string    `gorm:"uniqueIndex;not null" json:"email"` // Unique index on Email
	Name       string    `gorm:"not null" json:"name"`
	Role       string    `gorm:"default:'user'" json:"role"`
	WebhookURL string    `gorm:"default:''" json:"webhook_url"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
