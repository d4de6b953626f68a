package httpx

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	domainauth "github.com/macrowatch/indicator-api/internal/domain/auth"
)

// TokenVerifier is the subset of the token service the middleware needs.
type TokenVerifier interface {
	Verify(token string, audience domainauth.Audience) (domainauth.TokenPayload, error)
}

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// BearerToken extracts the token from an Authorization: Bearer header.
// Returns the empty string when the header is absent or not a bearer scheme.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireAuth returns a middleware that verifies the bearer token against the
// given audiences (first match wins) and stores the decoded payload in the
// request context. All verification failures, expiry included, produce the
// same 401 so the response leaks nothing about why the token was rejected.
func RequireAuth(verifier TokenVerifier, audiences ...domainauth.Audience) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				WriteError(w, ErrorParams{
					Code:    http.StatusUnauthorized,
					ErrCode: CodeNotAuthenticated,
					Message: "authentication required",
				})
				return
			}

			var payload domainauth.TokenPayload
			verified := false
			for _, audience := range audiences {
				p, err := verifier.Verify(token, audience)
				if err == nil {
					payload = p
					verified = true
					break
				}
			}
			if !verified {
				WriteError(w, ErrorParams{
					Code:    http.StatusUnauthorized,
					ErrCode: CodeNotAuthenticated,
					Message: "authentication required",
				})
				return
			}

			ctx := SetClaimsInContext(r.Context(), payload)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin returns a middleware for admin-audience endpoints. It verifies
// the bearer token against the admin audience and additionally checks the
// embedded role claim.
func RequireAdmin(verifier TokenVerifier) func(http.Handler) http.Handler {
	requireAuth := RequireAuth(verifier, domainauth.AudienceAdmin)
	return func(next http.Handler) http.Handler {
		return requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			payload, ok := GetClaimsFromContext(r.Context())
			if !ok || payload.Role != domainauth.RoleAdmin {
				WriteError(w, ErrorParams{
					Code:    http.StatusForbidden,
					ErrCode: CodeForbidden,
					Message: "admin access required",
				})
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}
