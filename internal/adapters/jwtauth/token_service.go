package jwtauth

// Package jwtauth implements the token-service port with HS256-signed JWTs.
// Claims are mapped into the pure domain payload shape so nothing outside
// this package depends on the JWT library.

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	domainauth "github.com/macrowatch/indicator-api/internal/domain/auth"
)

const (
	defaultAccessTokenTTL  = time.Hour
	defaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Claims extends the registered JWT claims with identity fields.
// AdminLevel is present only on admin-audience tokens; refresh tokens never
// carry it, so admin status is re-derived from the directory on refresh.
type Claims struct {
	jwt.RegisteredClaims
	Email      string                `json:"email"`
	Role       domainauth.Role       `json:"role"`
	AdminLevel domainauth.AdminLevel `json:"adminLevel,omitempty"`
}

// Config groups the signing policy for a TokenService.
// It is constructed once at startup from config.AuthConfig and is immutable.
type Config struct {
	Secret          []byte
	Issuer          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// TokenService issues and verifies audience-scoped HS256 JWTs.
type TokenService struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenService creates a TokenService from the given signing policy.
func NewTokenService(cfg Config) (*TokenService, error) {
	return NewTokenServiceWithClock(cfg, time.Now)
}

// NewTokenServiceWithClock creates a TokenService with a custom clock
// (useful for expiry tests).
func NewTokenServiceWithClock(cfg Config, now func() time.Time) (*TokenService, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token signing secret is required")
	}
	if cfg.Issuer == "" {
		return nil, errors.New("token issuer is required")
	}
	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTokenTTL
	}
	refreshTTL := cfg.RefreshTokenTTL
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTokenTTL
	}
	if now == nil {
		now = time.Now
	}
	return &TokenService{
		secret:     cfg.Secret,
		issuer:     cfg.Issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        now,
	}, nil
}

// AccessTokenTTL reports the configured access-token lifetime.
func (s *TokenService) AccessTokenTTL() time.Duration { return s.accessTTL }

// RefreshTokenTTL reports the configured refresh-token lifetime.
func (s *TokenService) RefreshTokenTTL() time.Duration { return s.refreshTTL }

// IssueUserToken mints an access token with role=user for the users audience.
func (s *TokenService) IssueUserToken(identity domainauth.Identity) (string, error) {
	return s.issue(issueParams{
		Identity: identity,
		Role:     domainauth.RoleUser,
		Audience: domainauth.AudienceUsers,
		TTL:      s.accessTTL,
	})
}

// IssueAdminToken mints an access token with role=admin and the given level
// for the admin audience.
func (s *TokenService) IssueAdminToken(identity domainauth.Identity, level domainauth.AdminLevel) (string, error) {
	return s.issue(issueParams{
		Identity:   identity,
		Role:       domainauth.RoleAdmin,
		AdminLevel: level,
		Audience:   domainauth.AudienceAdmin,
		TTL:        s.accessTTL,
	})
}

// IssueRefreshToken mints a long-lived token for the refresh audience.
// The role mirrors the session being refreshed; no admin level is embedded.
func (s *TokenService) IssueRefreshToken(identity domainauth.Identity, role domainauth.Role) (string, error) {
	return s.issue(issueParams{
		Identity: identity,
		Role:     role,
		Audience: domainauth.AudienceRefresh,
		TTL:      s.refreshTTL,
	})
}

// issueParams groups token issuance inputs to keep parameter count ≤3.
type issueParams struct {
	Identity   domainauth.Identity
	Role       domainauth.Role
	AdminLevel domainauth.AdminLevel
	Audience   domainauth.Audience
	TTL        time.Duration
}

func (s *TokenService) issue(p issueParams) (string, error) {
	if p.Identity.ID == "" {
		return "", errors.New("identity id is required")
	}

	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Identity.ID,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{string(p.Audience)},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.TTL)),
			ID:        uuid.NewString(),
		},
		Email:      p.Identity.Email,
		Role:       p.Role,
		AdminLevel: p.AdminLevel,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", p.Audience, err)
	}
	return signed, nil
}

// Verify checks signature, issuer, audience, and expiry, and returns the
// decoded payload. Expiry is classified before audience so an expired token
// always surfaces as ErrTokenExpired regardless of which audience it was
// presented to.
func (s *TokenService) Verify(tokenString string, audience domainauth.Audience) (domainauth.TokenPayload, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(string(audience)),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return domainauth.TokenPayload{}, classifyParseError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return domainauth.TokenPayload{}, domainauth.ErrTokenMalformed
	}
	if claims.Subject == "" {
		return domainauth.TokenPayload{}, fmt.Errorf("%w: missing subject", domainauth.ErrTokenMalformed)
	}
	if claims.Role == "" {
		return domainauth.TokenPayload{}, fmt.Errorf("%w: missing role", domainauth.ErrTokenMalformed)
	}

	payload := domainauth.TokenPayload{
		SubjectID:  claims.Subject,
		Email:      claims.Email,
		Role:       claims.Role,
		AdminLevel: claims.AdminLevel,
		Audience:   audience,
	}
	if claims.IssuedAt != nil {
		payload.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		payload.ExpiresAt = claims.ExpiresAt.Time
	}
	return payload, nil
}

// classifyParseError maps jwt/v5 parse errors onto the domain sentinels.
// The order matters: v5 joins claim-validation errors, and an expired token
// presented to the wrong audience must still classify as expired.
func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return domainauth.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return domainauth.ErrAudienceMismatch
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return domainauth.ErrTokenSignatureInvalid
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return fmt.Errorf("%w: issuer mismatch", domainauth.ErrTokenMalformed)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return domainauth.ErrTokenMalformed
	default:
		return fmt.Errorf("%w: %v", domainauth.ErrTokenMalformed, err)
	}
}
