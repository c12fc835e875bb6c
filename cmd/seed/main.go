// seed inserts a bootstrap admin account for local testing.
// Idempotent: skips the insert if the admin account already exists.
package main

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	accountdomain "gatekeeper/backend/internal/account/domain"
	accountrepo "gatekeeper/backend/internal/account/repository"
	"gatekeeper/backend/internal/authz"
	"gatekeeper/backend/internal/config"
	"gatekeeper/backend/internal/db"
	"gatekeeper/backend/internal/security"
)

const (
	adminName     = "admin"
	adminPassword = "ChangeMe!234"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("seed: DATABASE_URL is required")
	}

	pool, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	random := security.CryptoRandomSource{}
	hasher, err := security.NewHasher(cfg.HashAlgorithm, random)
	if err != nil {
		log.Fatalf("hasher: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	accounts := accountrepo.NewPostgresRepository(pool)
	existing, err := accounts.GetByName(ctx, adminName)
	if err != nil {
		log.Fatalf("seed: lookup: %v", err)
	}
	if existing != nil {
		log.Printf("seed: account %q already exists, nothing to do", adminName)
		return
	}

	salt, err := hasher.GenerateSalt()
	if err != nil {
		log.Fatalf("seed: salt: %v", err)
	}
	account := &accountdomain.Account{
		ID:           uuid.New().String(),
		Name:         adminName,
		PasswordHash: hasher.Hash(adminPassword, salt),
		PasswordSalt: salt,
		Roles:        authz.RoleUser | authz.RoleAdmin,
	}
	if err := accounts.Create(ctx, account); err != nil {
		log.Fatalf("seed: create: %v", err)
	}
	log.Printf("seed: created admin account %s (change the password immediately)", account.ID)
}
