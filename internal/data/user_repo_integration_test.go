package data

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/macrowatch/indicator-api/internal/domain/auth"
	"github.com/macrowatch/indicator-api/internal/ports"
	"github.com/macrowatch/indicator-api/internal/testutil"
)

func TestUserRepo_UpsertAndFind(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewUserRepo(db)
		ctx := context.Background()

		created, err := repo.UpsertByEmail(ctx, ports.UpsertUserInput{
			Email: "Alice@Example.com",
			Name:  "Alice",
			Image: "https://example.com/alice.png",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "alice@example.com", created.Email)
		assert.Equal(t, domainauth.RoleUser, created.Role)
		assert.Equal(t, "free", created.SubscriptionTier)

		byEmail, err := repo.FindByEmail(ctx, "ALICE@example.COM")
		require.NoError(t, err)
		assert.Equal(t, created.ID, byEmail.ID)

		byID, err := repo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Alice", byID.Name)
	})
}

func TestUserRepo_UpsertUpdatesProfileOnly(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewUserRepo(db)
		ctx := context.Background()

		first, err := repo.UpsertByEmail(ctx, ports.UpsertUserInput{Email: "bob@example.com", Name: "Bob"})
		require.NoError(t, err)

		second, err := repo.UpsertByEmail(ctx, ports.UpsertUserInput{Email: "bob@example.com", Name: "Robert"})
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "Robert", second.Name)

		// Empty attributes never blank existing profile fields.
		third, err := repo.UpsertByEmail(ctx, ports.UpsertUserInput{Email: "bob@example.com"})
		require.NoError(t, err)
		assert.Equal(t, "Robert", third.Name)
	})
}

func TestUserRepo_FindNotFound(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewUserRepo(db)
		ctx := context.Background()

		_, err := repo.FindByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, ports.ErrUserNotFound)

		_, err = repo.FindByID(ctx, "00000000-0000-0000-0000-000000000000")
		assert.ErrorIs(t, err, ports.ErrUserNotFound)
	})
}

func TestUserRepo_AdminCredential(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewUserRepo(db)
		ctx := context.Background()

		admin, err := repo.UpsertAdmin(ctx, UpsertAdminInput{
			Email:        "Ops@Example.com",
			Name:         "Ops",
			PasswordHash: "$2a$10$abcdefghijklmnopqrstuvwx",
		})
		require.NoError(t, err)
		assert.Equal(t, domainauth.RoleAdmin, admin.Role)
		assert.Equal(t, domainauth.AdminLevelSuper, admin.AdminLevel)

		cred, err := repo.FindAdminCredentialByEmail(ctx, "ops@EXAMPLE.com")
		require.NoError(t, err)
		assert.Equal(t, admin.ID, cred.ID)
		assert.Equal(t, "$2a$10$abcdefghijklmnopqrstuvwx", cred.PasswordHash)
		assert.Equal(t, domainauth.RoleAdmin, cred.Role)
	})
}

func TestUserRepo_AdminCredentialIgnoresPlainUsers(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewUserRepo(db)
		ctx := context.Background()

		_, err := repo.UpsertByEmail(ctx, ports.UpsertUserInput{Email: "user@example.com"})
		require.NoError(t, err)

		// A user-role account must not satisfy an admin credential lookup.
		_, err = repo.FindAdminCredentialByEmail(ctx, "user@example.com")
		assert.ErrorIs(t, err, ports.ErrUserNotFound)
	})
}

func TestUserRepo_UserUpsertNeverDemotesAdmin(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewUserRepo(db)
		ctx := context.Background()

		_, err := repo.UpsertAdmin(ctx, UpsertAdminInput{
			Email:        "ops@example.com",
			PasswordHash: "$2a$10$abcdefghijklmnopqrstuvwx",
		})
		require.NoError(t, err)

		// A user-flow login for the same email keeps the admin role and hash.
		identity, err := repo.UpsertByEmail(ctx, ports.UpsertUserInput{Email: "ops@example.com", Name: "Still Admin"})
		require.NoError(t, err)
		assert.Equal(t, domainauth.RoleAdmin, identity.Role)

		cred, err := repo.FindAdminCredentialByEmail(ctx, "ops@example.com")
		require.NoError(t, err)
		assert.NotEmpty(t, cred.PasswordHash)
	})
}

func TestUserRepo_AdminUpsertRotatesHash(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewUserRepo(db)
		ctx := context.Background()

		_, err := repo.UpsertAdmin(ctx, UpsertAdminInput{Email: "ops@example.com", PasswordHash: "hash-one"})
		require.NoError(t, err)

		_, err = repo.UpsertAdmin(ctx, UpsertAdminInput{Email: "ops@example.com", PasswordHash: "hash-two"})
		require.NoError(t, err)

		cred, err := repo.FindAdminCredentialByEmail(ctx, "ops@example.com")
		require.NoError(t, err)
		assert.Equal(t, "hash-two", cred.PasswordHash)
	})
}
