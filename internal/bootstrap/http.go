package bootstrap

import (
	"log/slog"
	"net/http"

	"github.com/macrowatch/indicator-api/config"
	httpx "github.com/macrowatch/indicator-api/internal/http"
)

// NewHTTPServer builds the HTTP server around the auth routes.
func NewHTTPServer(cfg config.HTTPConfig, auth *AuthContainer, logger *slog.Logger) *http.Server {
	if logger == nil {
		logger = slog.Default()
	}

	handler := httpx.NewRouter(httpx.RouterServices{
		Auth:   auth.Auth,
		Tokens: auth.Tokens,
		Logger: logger,
	})

	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
