// Command seed creates owners with accounts and prints a bearer token for
// each, for local development. It is safe to run repeatedly.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"walletledger/internal/config"
	"walletledger/internal/domain/ledger"
	"walletledger/internal/models"
	"walletledger/internal/repositories"
	"walletledger/internal/services/wallet"
	"walletledger/internal/utils"
)

func main() {
	config.LoadEnv()
	cfg := config.Load()

	emails := strings.Split(config.GetEnv("SEED_EMAILS", "alice@example.com,bob@example.com"), ",")
	role := config.GetEnv("SEED_ROLE", "user")
	initial := int64(config.GetIntEnv("SEED_DEPOSIT", 0))
	tokenTTL := config.GetDurationEnv("SEED_TOKEN_TTL", 24*time.Hour)

	db, err := repositories.Open(cfg.DB)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	if err := repositories.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}
	defer func() {
		sqlDB, err := db.DB()
		if err != nil {
			log.Printf("⚠️ Failed to get SQL DB instance: %v", err)
			return
		}
		if err := sqlDB.Close(); err != nil {
			log.Printf("⚠️ Failed to close database connection: %v", err)
		}
	}()

	users := repositories.NewUserRepository(db)
	accounts := repositories.NewAccountRepository(db)
	svc := wallet.NewService(
		wallet.NewLedger(repositories.NewLedgerRepository(db, cfg.LockTimeout)),
		accounts,
		nil,
		nil,
		wallet.Config{},
		nil,
	)

	ctx := context.Background()
	for _, email := range emails {
		email = strings.TrimSpace(email)
		if email == "" {
			continue
		}

		user, err := ensureUser(ctx, users, email, role)
		if err != nil {
			log.Fatalf("Failed to seed %s: %v", email, err)
		}
		acc, created, err := ensureAccount(ctx, accounts, user.ID)
		if err != nil {
			log.Fatalf("Failed to open account for %s: %v", email, err)
		}
		if created && initial > 0 {
			if _, err := svc.Deposit(ctx, user.ID, initial); err != nil {
				log.Fatalf("Failed to fund %s: %v", email, err)
			}
		}

		token, err := utils.GenerateToken(cfg.JWTSecret, &models.UserClaims{
			UserID:      user.ID,
			Email:       user.Email,
			Role:        user.Role,
			Permissions: models.GetDefaultPermissions(user.Role),
		}, tokenTTL)
		if err != nil {
			log.Fatalf("Failed to sign token for %s: %v", email, err)
		}

		fmt.Printf("%s\towner=%s\taccount=%s\n\tAuthorization: Bearer %s\n", email, user.ID, acc.ID, token)
	}

	log.Println("✅ Seed complete")
}

func ensureUser(ctx context.Context, users repositories.UserRepository, email, role string) (*models.User, error) {
	user, err := users.GetByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, err
	}

	user = &models.User{
		Email: email,
		Name:  strings.SplitN(email, "@", 2)[0],
		Role:  role,
	}
	if err := users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func ensureAccount(ctx context.Context, accounts repositories.AccountRepository, ownerID string) (*models.Account, bool, error) {
	acc, err := accounts.GetByOwnerID(ctx, ownerID)
	if err == nil {
		return acc, false, nil
	}
	if !errors.Is(err, ledger.ErrAccountNotFound) {
		return nil, false, err
	}
	acc, err = accounts.Create(ctx, ownerID)
	return acc, err == nil, err
}
