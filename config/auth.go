package config

import (
	"errors"
	"time"
)

// devJWTSecret is the signing secret used when none is configured in
// development mode. Validate rejects an empty secret outside dev, so this
// value can never sign production tokens.
const devJWTSecret = "dev-only-insecure-secret"

// AuthConfig groups token signing and login throttling configuration.
type AuthConfig struct {
	// JWTSecret is the HS256 signing secret. Required outside dev mode.
	JWTSecret string `env:"JWT_SECRET"`

	// JWTIssuer is the iss claim stamped on and required of every token.
	JWTIssuer string `env:"JWT_ISSUER" envDefault:"indicator-api"`

	// AccessTokenTTL is the lifetime of user and admin access tokens.
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"1h"`

	// RefreshTokenTTL is the lifetime of refresh tokens.
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`

	// LoginMaxAttempts is the number of admin login attempts allowed per
	// window before throttling kicks in.
	LoginMaxAttempts int64 `env:"LOGIN_MAX_ATTEMPTS" envDefault:"10"`

	// LoginWindow is the fixed throttling window for admin login attempts.
	LoginWindow time.Duration `env:"LOGIN_WINDOW" envDefault:"1m"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	if a.AccessTokenTTL <= 0 {
		a.AccessTokenTTL = time.Hour
	}
	if a.RefreshTokenTTL <= 0 {
		a.RefreshTokenTTL = 168 * time.Hour
	}
	if a.LoginMaxAttempts <= 0 {
		a.LoginMaxAttempts = 10
	}
	if a.LoginWindow <= 0 {
		a.LoginWindow = time.Minute
	}
}

// Validate enforces that production runs never fall back to the dev secret.
func (a *AuthConfig) Validate(isDev bool) error {
	if a.JWTSecret == "" {
		if !isDev {
			return errors.New("AUTH_JWT_SECRET is required outside development mode")
		}
		a.JWTSecret = devJWTSecret
	}
	if a.JWTIssuer == "" {
		return errors.New("AUTH_JWT_ISSUER must not be empty")
	}
	return nil
}
