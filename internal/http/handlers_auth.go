package httpx

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	domainauth "github.com/macrowatch/indicator-api/internal/domain/auth"
	apperrors "github.com/macrowatch/indicator-api/internal/errors"
	"github.com/macrowatch/indicator-api/internal/service"
)

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	AdminLogin(ctx context.Context, input service.AdminLoginInput) (*service.LoginResult, error)
	UserLogin(ctx context.Context, input service.UserLoginInput) (*service.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*service.LoginResult, error)
	Identity(ctx context.Context, payload domainauth.TokenPayload) (domainauth.Identity, error)
}

// loginResponse flattens the token pair alongside the identity it was
// issued for.
type loginResponse struct {
	domainauth.TokenPair
	User domainauth.Identity `json:"user"`
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc    AuthServiceInterface
	Logger *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

type adminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// clientIP returns the request's peer address without the port. Proxy
// headers are deliberately not consulted; they are spoofable and the
// deployment terminates TLS at the process.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// AdminLogin handles the admin credential login endpoint.
// POST /api/auth/admin/login.
func (h *AuthHandlers) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.Svc.AdminLogin(r.Context(), service.AdminLoginInput{
		Email:    req.Email,
		Password: req.Password,
		ClientIP: clientIP(r),
	})
	if err != nil {
		switch {
		case apperrors.IsValidation(err):
			WriteError(w, ErrorParams{
				Code:    http.StatusBadRequest,
				ErrCode: CodeMissingCredentials,
				Message: "email and password are required",
			})
		case apperrors.IsUnauthorized(err):
			WriteError(w, ErrorParams{
				Code:    http.StatusUnauthorized,
				ErrCode: CodeInvalidCredentials,
				Message: "invalid email or password",
			})
		case apperrors.IsRateLimited(err):
			WriteError(w, ErrorParams{
				Code:    http.StatusTooManyRequests,
				ErrCode: CodeRateLimited,
				Message: "too many login attempts, try again later",
			})
		default:
			h.logger().Error("admin login failed", "error", err)
			WriteError(w, ErrorParams{
				Code:    http.StatusInternalServerError,
				ErrCode: CodeLoginError,
				Message: "login failed",
			})
		}
		return
	}

	WriteJSON(w, http.StatusOK, loginResponse{TokenPair: result.Pair, User: result.User})
}

type userLoginRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// UserLogin handles the user login endpoint.
// POST /api/auth/login.
func (h *AuthHandlers) UserLogin(w http.ResponseWriter, r *http.Request) {
	var req userLoginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.Svc.UserLogin(r.Context(), service.UserLoginInput{
		Email: req.Email,
		Name:  req.Name,
		Image: req.Image,
	})
	if err != nil {
		if apperrors.IsValidation(err) {
			WriteError(w, ErrorParams{
				Code:    http.StatusBadRequest,
				ErrCode: CodeMissingEmail,
				Message: "email is required",
			})
			return
		}
		h.logger().Error("user login failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: CodeLoginError,
			Message: "login failed",
		})
		return
	}

	WriteJSON(w, http.StatusOK, loginResponse{TokenPair: result.Pair, User: result.User})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh handles the token refresh endpoint.
// POST /api/auth/refresh.
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: CodeMissingRefreshToken,
			Message: "refresh token is required",
		})
		return
	}

	result, err := h.Svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		if apperrors.IsUnauthorized(err) || apperrors.IsValidation(err) {
			WriteError(w, ErrorParams{
				Code:    http.StatusUnauthorized,
				ErrCode: CodeInvalidRefreshToken,
				Message: "invalid refresh token",
			})
			return
		}
		h.logger().Error("token refresh failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: CodeLoginError,
			Message: "refresh failed",
		})
		return
	}

	WriteJSON(w, http.StatusOK, loginResponse{TokenPair: result.Pair, User: result.User})
}

// Me handles the current-identity endpoint. The route is mounted behind
// RequireAuth, which put the verified claims in context.
// GET /api/auth/me.
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	payload, ok := GetClaimsFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: CodeNotAuthenticated,
			Message: "authentication required",
		})
		return
	}

	identity, err := h.Svc.Identity(r.Context(), payload)
	if err != nil {
		if apperrors.IsNotFound(err) {
			WriteError(w, ErrorParams{
				Code:    http.StatusNotFound,
				ErrCode: CodeUserNotFound,
				Message: "user not found",
			})
			return
		}
		h.logger().Error("identity lookup failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: CodeLoginError,
			Message: "identity lookup failed",
		})
		return
	}

	WriteJSON(w, http.StatusOK, identity)
}
