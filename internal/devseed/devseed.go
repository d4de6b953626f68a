package devseed

// Package devseed provisions a development admin account so a fresh local
// stack is usable without running the admin CLI. It must only be invoked in
// dev mode; production admin provisioning goes through cmd/indicator-admin.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/macrowatch/indicator-api/internal/data"
)

const (
	devAdminEmail    = "admin@localhost"
	devAdminName     = "Dev Admin"
	devAdminPassword = "admin"
)

// ErrNotDevMode is returned when seeding is attempted outside dev mode.
var ErrNotDevMode = errors.New("devseed: refusing to seed outside dev mode")

// Run seeds the development admin account. Idempotent: re-running rotates the
// hash back to the dev password. Refuses to run unless isDev is set.
func Run(ctx context.Context, db *sql.DB, isDev bool, logger *slog.Logger) error {
	if !isDev {
		return ErrNotDevMode
	}
	if logger == nil {
		logger = slog.Default()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(devAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash dev admin password: %w", err)
	}

	repo := data.NewUserRepo(db)
	identity, err := repo.UpsertAdmin(ctx, data.UpsertAdminInput{
		Email:        devAdminEmail,
		Name:         devAdminName,
		PasswordHash: string(hash),
	})
	if err != nil {
		return fmt.Errorf("seed dev admin: %w", err)
	}

	logger.InfoContext(ctx, "dev admin seeded", "email", identity.Email, "id", identity.ID)
	return nil
}
