package httpx

import (
	"log/slog"
	"net/http"

	domainauth "github.com/macrowatch/indicator-api/internal/domain/auth"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth   AuthServiceInterface
	Tokens TokenVerifier
	Logger *slog.Logger
}

// NewRouter creates and configures a new HTTP router.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	authHandlers := &AuthHandlers{Svc: services.Auth, Logger: logger}
	registerAuthRoutes(mux, authHandlers, services.Tokens)

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	var handler http.Handler = mux
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	return handler
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, verifier TokenVerifier) {
	mux.Handle("POST /api/auth/admin/login", http.HandlerFunc(h.AdminLogin))
	mux.Handle("POST /api/auth/login", http.HandlerFunc(h.UserLogin))
	mux.Handle("POST /api/auth/refresh", http.HandlerFunc(h.Refresh))

	// Both token flavors can introspect themselves; refresh tokens cannot.
	requireUser := RequireAuth(verifier, domainauth.AudienceUsers, domainauth.AudienceAdmin)
	mux.Handle("GET /api/auth/me", requireUser(http.HandlerFunc(h.Me)))

	requireAdmin := RequireAdmin(verifier)
	mux.Handle("GET /api/auth/admin/me", requireAdmin(http.HandlerFunc(h.Me)))
}
