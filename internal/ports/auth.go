package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/data and internal/adapters; orchestration
// in internal/service.

import (
	"context"
	"errors"
	"time"

	domainauth "github.com/macrowatch/indicator-api/internal/domain/auth"
)

// ErrUserNotFound is returned by UserDirectory lookups when no matching
// identity or credential record exists.
var ErrUserNotFound = errors.New("user not found")

// UpsertUserInput carries the attributes used when finding-or-creating a
// user account by email. Role and subscription tier are never taken from
// the caller; new accounts are created as free-tier users.
type UpsertUserInput struct {
	Email string
	Name  string
	Image string
}

// UserDirectory is the persisted store of identities and credential records.
// The auth core reads identities through it; password hashes are provisioned
// only through the trusted admin CLI, never through this interface's
// request-path callers.
type UserDirectory interface {
	// FindAdminCredentialByEmail returns the credential record for the given
	// email where the account's role is admin. Returns ErrUserNotFound when
	// no such admin account exists.
	FindAdminCredentialByEmail(ctx context.Context, email string) (domainauth.AdminCredential, error)

	// FindByEmail returns the identity with the given email (compared
	// case-insensitively). Returns ErrUserNotFound when absent.
	FindByEmail(ctx context.Context, email string) (domainauth.Identity, error)

	// FindByID returns the identity with the given id.
	// Returns ErrUserNotFound when absent.
	FindByID(ctx context.Context, id string) (domainauth.Identity, error)

	// UpsertByEmail finds the identity with the given email or creates a new
	// free-tier user account with the provided attributes.
	UpsertByEmail(ctx context.Context, in UpsertUserInput) (domainauth.Identity, error)
}

// TokenService issues and verifies signed, audience-scoped tokens.
type TokenService interface {
	// IssueUserToken mints an access token with role=user for the users audience.
	IssueUserToken(identity domainauth.Identity) (string, error)

	// IssueAdminToken mints an access token with role=admin and the given
	// admin level for the admin audience.
	IssueAdminToken(identity domainauth.Identity, level domainauth.AdminLevel) (string, error)

	// IssueRefreshToken mints a long-lived token for the refresh audience.
	// The role mirrors the session it refreshes; admin level is never
	// embedded (admin status is re-derived from the directory at refresh).
	IssueRefreshToken(identity domainauth.Identity, role domainauth.Role) (string, error)

	// Verify checks signature, issuer, audience, and expiry, returning the
	// decoded payload. Failures map to the sentinel errors in domain/auth.
	Verify(token string, audience domainauth.Audience) (domainauth.TokenPayload, error)

	// AccessTokenTTL reports the configured access-token lifetime.
	AccessTokenTTL() time.Duration
}

// LoginLimiter throttles credential-guessing attempts against login endpoints.
type LoginLimiter interface {
	// Allow reports whether another attempt for the given key may proceed.
	Allow(ctx context.Context, key string) (bool, error)

	// Reset clears the attempt counter for a key after a successful login.
	Reset(ctx context.Context, key string) error
}
