package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"walletledger/internal/domain/ledger"
	"walletledger/internal/models"
)

// AccountRepository serves reads of the balance projection and the event
// history. Writes to balances only happen through LedgerRepository.
type AccountRepository interface {
	// Create opens a zero balance account for an owner.
	Create(ctx context.Context, ownerID string) (*models.Account, error)
	GetByOwnerID(ctx context.Context, ownerID string) (*models.Account, error)
	// ListEvents returns the newest events first along with the total count.
	ListEvents(ctx context.Context, accountID string, limit, offset int) ([]ledger.Event, int64, error)
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, ownerID string) (*models.Account, error) {
	acc := &models.Account{ID: uuid.NewString(), OwnerID: ownerID}
	if err := r.db.WithContext(ctx).Create(acc).Error; err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return acc, nil
}

func (r *accountRepository) GetByOwnerID(ctx context.Context, ownerID string) (*models.Account, error) {
	return findAccountByOwner(r.db.WithContext(ctx), ownerID)
}

func (r *accountRepository) ListEvents(ctx context.Context, accountID string, limit, offset int) ([]ledger.Event, int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.StoredEvent{}).
		Where("account_id = ?", accountID).
		Count(&total).Error
	if err != nil {
		return nil, 0, storageError("count events", err)
	}

	q := r.db.WithContext(ctx).
		Order("occurred_at DESC, id DESC").
		Limit(limit).
		Offset(offset)
	events, err := loadEvents(q, accountID)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already taken")
)

// UserRepository manages account owners.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateWebhookURL(ctx context.Context, id, webhookURL string) (*models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if _, err := r.GetByEmail(ctx, user.Email); err == nil {
		return ErrEmailTaken
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *userRepository) UpdateWebhookURL(ctx context.Context, id, webhookURL string) (*models.User, error) {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("webhook_url", webhookURL)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update webhook: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *userRepository) first(ctx context.Context, query string, arg string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(query, arg).Take(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}
