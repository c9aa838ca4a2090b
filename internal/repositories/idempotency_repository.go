package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"walletledger/internal/models"
)

// IdempotencyRepository keeps cached responses in the idempotency_keys table.
type IdempotencyRepository struct {
	db *gorm.DB
}

func NewIdempotencyRepository(db *gorm.DB) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

// Get returns the live record for key, or nil when it is absent or expired.
func (r *IdempotencyRepository) Get(ctx context.Context, key string, now time.Time) (*models.IdempotencyRecord, error) {
	var rec models.IdempotencyRecord
	err := r.db.WithContext(ctx).
		Where("idempotency_key = ? AND expires_at > ?", key, now).
		Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get idempotency record: %w", err)
	}
	return &rec, nil
}

// Save inserts rec unless a live record already holds the key. An expired
// record is overwritten in place. It reports whether rec was written.
func (r *IdempotencyRepository) Save(ctx context.Context, rec *models.IdempotencyRecord) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "idempotency_key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"caller_id", "status_code", "content_type", "response_body", "created_at", "expires_at",
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "idempotency_keys.expires_at <= ?", Vars: []interface{}{rec.CreatedAt}},
		}},
	}).Create(rec)
	if result.Error != nil {
		return false, fmt.Errorf("failed to save idempotency record: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// PurgeExpired deletes records that can no longer be replayed.
func (r *IdempotencyRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&models.IdempotencyRecord{})
	return result.RowsAffected, result.Error
}
