package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/macrowatch/indicator-api/internal/data/pgxutil"
	domainauth "github.com/macrowatch/indicator-api/internal/domain/auth"
	"github.com/macrowatch/indicator-api/internal/ports"
)

// UserRepo provides database operations for the user directory.
// It implements ports.UserDirectory; the provisioning helpers
// (UpsertAdmin) are deliberately kept off that interface so request-path
// code cannot write credentials.
type UserRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewUserRepo creates a new UserRepo with the real time provider.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db, timeProvider: RealTimeProvider{}}
}

// NewUserRepoWithTimeProvider creates a UserRepo with a custom time provider
// (useful for tests).
func NewUserRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *UserRepo {
	return &UserRepo{DB: db, timeProvider: tp}
}

// Compile-time conformance to the directory port.
var _ ports.UserDirectory = (*UserRepo)(nil)

// userRow mirrors the users table for pgx row collection.
type userRow struct {
	ID               string    `db:"id"`
	Email            string    `db:"email"`
	Name             *string   `db:"name"`
	Image            *string   `db:"image"`
	Role             string    `db:"role"`
	AdminLevel       *string   `db:"admin_level"`
	SubscriptionTier string    `db:"subscription_tier"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func (r userRow) toIdentity() domainauth.Identity {
	id := domainauth.Identity{
		ID:               r.ID,
		Email:            r.Email,
		Role:             domainauth.Role(r.Role),
		SubscriptionTier: r.SubscriptionTier,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	if r.Name != nil {
		id.Name = *r.Name
	}
	if r.Image != nil {
		id.Image = *r.Image
	}
	if r.AdminLevel != nil {
		id.AdminLevel = domainauth.AdminLevel(*r.AdminLevel)
	}
	return id
}

// credentialRow mirrors the credential projection of the users table.
type credentialRow struct {
	ID           string  `db:"id"`
	Email        string  `db:"email"`
	PasswordHash *string `db:"password_hash"`
	Role         string  `db:"role"`
}

// SQL query constants for static queries.
const (
	userIdentityColumns = `id, email, name, image, role, admin_level, subscription_tier, created_at, updated_at`

	userGetByEmailQuery = `
		SELECT ` + userIdentityColumns + `
		FROM users
		WHERE email = $1`

	userGetByIDQuery = `
		SELECT ` + userIdentityColumns + `
		FROM users
		WHERE id = $1`

	adminCredentialQuery = `
		SELECT id, email, password_hash, role
		FROM users
		WHERE email = $1 AND role = 'admin'`

	userUpsertQuery = `
		INSERT INTO users (email, name, image, role, subscription_tier, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), 'user', 'free', $4, $4)
		ON CONFLICT (email) DO UPDATE SET
			name = COALESCE(NULLIF(EXCLUDED.name, ''), users.name),
			image = COALESCE(NULLIF(EXCLUDED.image, ''), users.image),
			updated_at = EXCLUDED.updated_at
		RETURNING ` + userIdentityColumns

	adminUpsertQuery = `
		INSERT INTO users (email, name, role, admin_level, password_hash, subscription_tier, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), 'admin', 'super', $3, 'free', $4, $4)
		ON CONFLICT (email) DO UPDATE SET
			name = COALESCE(NULLIF(EXCLUDED.name, ''), users.name),
			role = 'admin',
			admin_level = 'super',
			password_hash = EXCLUDED.password_hash,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + userIdentityColumns
)

// normalizeEmail lower-cases and trims an email so uniqueness and lookups
// are case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FindAdminCredentialByEmail returns the credential record for an
// admin-role account, or ports.ErrUserNotFound when no such account exists.
func (r *UserRepo) FindAdminCredentialByEmail(ctx context.Context, email string) (domainauth.AdminCredential, error) {
	var row credentialRow
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, adminCredentialQuery, normalizeEmail(email))
		if err != nil {
			return err
		}
		defer rows.Close()
		row, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[credentialRow])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainauth.AdminCredential{}, ports.ErrUserNotFound
		}
		return domainauth.AdminCredential{}, fmt.Errorf("failed to get admin credential: %w", err)
	}

	cred := domainauth.AdminCredential{
		ID:    row.ID,
		Email: row.Email,
		Role:  domainauth.Role(row.Role),
	}
	if row.PasswordHash != nil {
		cred.PasswordHash = *row.PasswordHash
	}
	return cred, nil
}

// FindByEmail retrieves an identity by email.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (domainauth.Identity, error) {
	return r.getByQuery(ctx, userGetByEmailQuery, "failed to get user by email", normalizeEmail(email))
}

// FindByID retrieves an identity by id.
func (r *UserRepo) FindByID(ctx context.Context, id string) (domainauth.Identity, error) {
	return r.getByQuery(ctx, userGetByIDQuery, "failed to get user by id", id)
}

// UpsertByEmail finds the user with the given email or creates a new
// free-tier user account. The role column is never touched on conflict, so
// this path cannot elevate an existing account.
func (r *UserRepo) UpsertByEmail(ctx context.Context, in ports.UpsertUserInput) (domainauth.Identity, error) {
	email := normalizeEmail(in.Email)
	if email == "" {
		return domainauth.Identity{}, errors.New("email is required")
	}

	now := r.timeProvider.Now().UTC()
	var row userRow
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, userUpsertQuery, email, strings.TrimSpace(in.Name), strings.TrimSpace(in.Image), now)
		if err != nil {
			return err
		}
		defer rows.Close()
		row, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[userRow])
		return err
	})
	if err != nil {
		return domainauth.Identity{}, mapWriteErr(err, "failed to upsert user")
	}
	return row.toIdentity(), nil
}

// UpsertAdmin creates or updates an administrator account with the given
// bcrypt password hash. This is the trusted initialization path used by
// cmd/indicator-admin and devseed; it is intentionally not part of
// ports.UserDirectory.
func (r *UserRepo) UpsertAdmin(ctx context.Context, in UpsertAdminInput) (domainauth.Identity, error) {
	email := normalizeEmail(in.Email)
	if email == "" {
		return domainauth.Identity{}, errors.New("email is required")
	}
	if in.PasswordHash == "" {
		return domainauth.Identity{}, errors.New("password hash is required")
	}

	now := r.timeProvider.Now().UTC()
	var row userRow
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, adminUpsertQuery, email, strings.TrimSpace(in.Name), in.PasswordHash, now)
		if err != nil {
			return err
		}
		defer rows.Close()
		row, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[userRow])
		return err
	})
	if err != nil {
		return domainauth.Identity{}, mapWriteErr(err, "failed to upsert admin")
	}
	return row.toIdentity(), nil
}

// UpsertAdminInput carries the attributes for provisioning an admin account.
type UpsertAdminInput struct {
	Email        string
	Name         string
	PasswordHash string
}

// getByQuery executes a query expected to return a single user row.
func (r *UserRepo) getByQuery(ctx context.Context, q, errMsg string, args ...any) (domainauth.Identity, error) {
	var row userRow
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		row, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[userRow])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainauth.Identity{}, ports.ErrUserNotFound
		}
		return domainauth.Identity{}, fmt.Errorf("%s: %w", errMsg, err)
	}
	return row.toIdentity(), nil
}

func mapWriteErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return ErrEmailExists
	}
	return fmt.Errorf("%s: %w", msg, err)
}
