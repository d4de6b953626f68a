package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	domainauth "github.com/macrowatch/indicator-api/internal/domain/auth"
	apperrors "github.com/macrowatch/indicator-api/internal/errors"
	"github.com/macrowatch/indicator-api/internal/ports"
)

// dummyPasswordHash is a valid bcrypt hash compared against when the account
// does not exist or carries no hash, so the failure path costs the same as a
// real comparison and lookups cannot be distinguished by timing.
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Directory ports.UserDirectory
	Tokens    ports.TokenService
	Limiter   ports.LoginLimiter
	Logger    *slog.Logger
}

// AuthService orchestrates credential validation and token lifecycle:
// admin login, user login, refresh rotation, and identity lookup.
type AuthService struct {
	directory ports.UserDirectory
	tokens    ports.TokenService
	limiter   ports.LoginLimiter
	logger    *slog.Logger
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		directory: opts.Directory,
		tokens:    opts.Tokens,
		limiter:   opts.Limiter,
		logger:    logger.With("component", "auth_service"),
	}
}

// LoginResult contains the issued token pair and the identity it was issued
// for. The password hash never appears here; Identity carries no hash field.
type LoginResult struct {
	Pair domainauth.TokenPair
	User domainauth.Identity
}

// AdminLoginInput groups parameters for an admin credential login.
// ClientIP is optional and only sharpens the rate-limit key.
type AdminLoginInput struct {
	Email    string
	Password string
	ClientIP string
}

// AdminLogin validates an email/password pair against the directory's admin
// credential records and, on success, issues an admin access token plus a
// refresh token. All credential failures collapse into a single unauthorized
// error so callers cannot probe which accounts exist.
func (s *AuthService) AdminLogin(ctx context.Context, input AdminLoginInput) (*LoginResult, error) {
	if input.Email == "" || input.Password == "" {
		return nil, apperrors.Validation("email and password are required")
	}

	limiterKey := "admin:" + input.Email
	if input.ClientIP != "" {
		limiterKey += ":" + input.ClientIP
	}
	if s.limiter != nil {
		ok, err := s.limiter.Allow(ctx, limiterKey)
		if err != nil {
			// Limiter outage must not open the login endpoint wide.
			s.logger.Error("login limiter check failed", "error", err)
			return nil, apperrors.Internal("login unavailable")
		}
		if !ok {
			return nil, apperrors.RateLimited("too many login attempts")
		}
	}

	identity, err := s.validateAdminCredential(ctx, input.Email, input.Password)
	if err != nil {
		return nil, err
	}

	if s.limiter != nil {
		// A successful login should not leave earlier failed attempts
		// counting against the account.
		if resetErr := s.limiter.Reset(ctx, limiterKey); resetErr != nil {
			s.logger.Warn("login limiter reset failed", "error", resetErr)
		}
	}

	return s.issueAdminPair(identity)
}

// validateAdminCredential checks the password against the stored bcrypt hash.
// The bcrypt comparison runs on every path, against the dummy hash when the
// account is missing or has no hash stored.
func (s *AuthService) validateAdminCredential(ctx context.Context, email, password string) (domainauth.Identity, error) {
	cred, lookupErr := s.directory.FindAdminCredentialByEmail(ctx, email)

	hash := dummyPasswordHash
	if lookupErr == nil && cred.PasswordHash != "" {
		hash = cred.PasswordHash
	}
	compareErr := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	if lookupErr != nil {
		if errors.Is(lookupErr, ports.ErrUserNotFound) {
			return domainauth.Identity{}, apperrors.Unauthorized("invalid credentials")
		}
		// Directory errors fail closed. Log the email for operators, never
		// the password.
		s.logger.Error("admin credential lookup failed", "email", email, "error", lookupErr)
		return domainauth.Identity{}, apperrors.Unauthorized("invalid credentials")
	}
	if cred.PasswordHash == "" || compareErr != nil {
		return domainauth.Identity{}, apperrors.Unauthorized("invalid credentials")
	}
	if cred.Role != domainauth.RoleAdmin {
		return domainauth.Identity{}, apperrors.Unauthorized("invalid credentials")
	}

	identity, err := s.directory.FindByID(ctx, cred.ID)
	if err != nil {
		s.logger.Error("admin identity fetch failed", "email", email, "error", err)
		return domainauth.Identity{}, apperrors.Unauthorized("invalid credentials")
	}
	if !identity.IsAdmin() {
		return domainauth.Identity{}, apperrors.Unauthorized("invalid credentials")
	}
	return identity, nil
}

// UserLoginInput groups parameters for a user login.
type UserLoginInput struct {
	Email string
	Name  string
	Image string
}

// UserLogin finds or creates a user account for the given email and issues a
// users-audience access token plus a refresh token. The issued role is always
// user, regardless of the account's directory role; directory admins must use
// the admin login to obtain admin-audience tokens.
func (s *AuthService) UserLogin(ctx context.Context, input UserLoginInput) (*LoginResult, error) {
	if input.Email == "" {
		return nil, apperrors.Validation("email is required")
	}

	identity, err := s.directory.UpsertByEmail(ctx, ports.UpsertUserInput{
		Email: input.Email,
		Name:  input.Name,
		Image: input.Image,
	})
	if err != nil {
		s.logger.Error("user upsert failed", "email", input.Email, "error", err)
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "login failed")
	}

	return s.issueUserPair(identity)
}

// Refresh verifies a refresh-audience token and mints a new token pair. The
// role of the new pair comes from the directory at refresh time, not from the
// old token, so a demoted admin's refresh silently downgrades to user tokens
// and a deleted account stops refreshing entirely.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	if refreshToken == "" {
		return nil, apperrors.Validation("refresh token is required")
	}

	payload, err := s.tokens.Verify(refreshToken, domainauth.AudienceRefresh)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid refresh token")
	}

	identity, err := s.directory.FindByID(ctx, payload.SubjectID)
	if err != nil {
		if errors.Is(err, ports.ErrUserNotFound) {
			return nil, apperrors.Unauthorized("invalid refresh token")
		}
		s.logger.Error("refresh identity fetch failed", "subject", payload.SubjectID, "error", err)
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "refresh failed")
	}

	if identity.IsAdmin() && payload.Role == domainauth.RoleAdmin {
		return s.issueAdminPair(identity)
	}
	return s.issueUserPair(identity)
}

// Identity returns the directory identity for a verified access-token payload.
func (s *AuthService) Identity(ctx context.Context, payload domainauth.TokenPayload) (domainauth.Identity, error) {
	identity, err := s.directory.FindByID(ctx, payload.SubjectID)
	if err != nil {
		if errors.Is(err, ports.ErrUserNotFound) {
			return domainauth.Identity{}, apperrors.NotFound("user not found")
		}
		return domainauth.Identity{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "identity lookup failed")
	}
	return identity, nil
}

func (s *AuthService) issueAdminPair(identity domainauth.Identity) (*LoginResult, error) {
	// Every administrator currently operates at the super level.
	access, err := s.tokens.IssueAdminToken(identity, domainauth.AdminLevelSuper)
	if err != nil {
		return nil, fmt.Errorf("issue admin token: %w", err)
	}
	refresh, err := s.tokens.IssueRefreshToken(identity, domainauth.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	return &LoginResult{
		Pair: domainauth.TokenPair{
			AccessToken:  access,
			RefreshToken: refresh,
			ExpiresIn:    int64(s.tokens.AccessTokenTTL().Seconds()),
		},
		User: identity,
	}, nil
}

func (s *AuthService) issueUserPair(identity domainauth.Identity) (*LoginResult, error) {
	access, err := s.tokens.IssueUserToken(identity)
	if err != nil {
		return nil, fmt.Errorf("issue user token: %w", err)
	}
	refresh, err := s.tokens.IssueRefreshToken(identity, domainauth.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	return &LoginResult{
		Pair: domainauth.TokenPair{
			AccessToken:  access,
			RefreshToken: refresh,
			ExpiresIn:    int64(s.tokens.AccessTokenTTL().Seconds()),
		},
		User: identity,
	}, nil
}
