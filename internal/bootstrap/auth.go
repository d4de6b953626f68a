package bootstrap

import (
	"database/sql"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/macrowatch/indicator-api/config"
	"github.com/macrowatch/indicator-api/internal/adapters/jwtauth"
	redisadapter "github.com/macrowatch/indicator-api/internal/adapters/redis"
	"github.com/macrowatch/indicator-api/internal/data"
	"github.com/macrowatch/indicator-api/internal/service"
)

// AuthDeps groups dependencies for BuildAuth.
type AuthDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient goredis.UniversalClient
	Logger      *slog.Logger
}

// AuthContainer holds the assembled auth components.
type AuthContainer struct {
	Users   *data.UserRepo
	Tokens  *jwtauth.TokenService
	Limiter *redisadapter.LoginLimiter
	Auth    *service.AuthService
}

// BuildAuth wires the user directory, token service, login limiter, and auth
// service from configuration.
func BuildAuth(deps AuthDeps) (*AuthContainer, error) {
	tokens, err := jwtauth.NewTokenService(jwtauth.Config{
		Secret:          []byte(deps.Config.Auth.JWTSecret),
		Issuer:          deps.Config.Auth.JWTIssuer,
		AccessTokenTTL:  deps.Config.Auth.AccessTokenTTL,
		RefreshTokenTTL: deps.Config.Auth.RefreshTokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("build token service: %w", err)
	}

	users := data.NewUserRepo(deps.DB)

	var limiter *redisadapter.LoginLimiter
	if deps.RedisClient != nil {
		limiter = redisadapter.NewLoginLimiterWithConfig(deps.RedisClient, redisadapter.LoginLimiterConfig{
			MaxAttempts: deps.Config.Auth.LoginMaxAttempts,
			Window:      deps.Config.Auth.LoginWindow,
		})
	}

	opts := service.AuthServiceOptions{
		Directory: users,
		Tokens:    tokens,
		Logger:    deps.Logger,
	}
	if limiter != nil {
		opts.Limiter = limiter
	}

	return &AuthContainer{
		Users:   users,
		Tokens:  tokens,
		Limiter: limiter,
		Auth:    service.NewAuthService(opts),
	}, nil
}
