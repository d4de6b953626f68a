package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/macrowatch/indicator-api/internal/adapters/jwtauth"
	domainauth "github.com/macrowatch/indicator-api/internal/domain/auth"
	mockauth "github.com/macrowatch/indicator-api/internal/mocks/auth"
	"github.com/macrowatch/indicator-api/internal/ports"
	"github.com/macrowatch/indicator-api/internal/service"
)

type testEnv struct {
	handler   http.Handler
	directory *mockauth.MemoryUserDirectory
	tokens    *jwtauth.TokenService
	clock     *fakeClock
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestEnv(t *testing.T, limiter ports.LoginLimiter) *testEnv {
	t.Helper()

	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	tokens, err := jwtauth.NewTokenServiceWithClock(jwtauth.Config{
		Secret: []byte("test-secret"),
		Issuer: "indicator-api",
	}, clock.Now)
	require.NoError(t, err)

	directory := mockauth.NewMemoryUserDirectory()
	svc := service.NewAuthService(service.AuthServiceOptions{
		Directory: directory,
		Tokens:    tokens,
		Limiter:   limiter,
	})

	return &testEnv{
		handler:   NewRouter(RouterServices{Auth: svc, Tokens: tokens}),
		directory: directory,
		tokens:    tokens,
		clock:     clock,
	}
}

func (e *testEnv) postJSON(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(t *testing.T, path, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func decodePair(t *testing.T, rec *httptest.ResponseRecorder) domainauth.TokenPair {
	t.Helper()
	var pair domainauth.TokenPair
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pair))
	return pair
}

func seedAdmin(t *testing.T, env *testEnv, email, password string) domainauth.Identity {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return env.directory.SeedAdmin(domainauth.Identity{Email: email, AdminLevel: domainauth.AdminLevelSuper}, string(hash))
}

func TestAdminLoginEndpoint_Success(t *testing.T) {
	env := newTestEnv(t, nil)
	seedAdmin(t, env, "ops@example.com", "hunter2!")

	rec := env.postJSON(t, "/api/auth/admin/login", map[string]string{
		"email":    "ops@example.com",
		"password": "hunter2!",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	pair := decodePair(t, rec)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, int64(3600), pair.ExpiresIn)

	payload, err := env.tokens.Verify(pair.AccessToken, domainauth.AudienceAdmin)
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, payload.Role)

	var body struct {
		User domainauth.Identity `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ops@example.com", body.User.Email)
}

func TestAdminLoginEndpoint_MissingCredentials(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.postJSON(t, "/api/auth/admin/login", map[string]string{"email": "ops@example.com"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeMissingCredentials, decodeErrorCode(t, rec))
}

func TestAdminLoginEndpoint_WrongPassword(t *testing.T) {
	env := newTestEnv(t, nil)
	seedAdmin(t, env, "ops@example.com", "right")

	rec := env.postJSON(t, "/api/auth/admin/login", map[string]string{
		"email":    "ops@example.com",
		"password": "wrong",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, CodeInvalidCredentials, decodeErrorCode(t, rec))
}

func TestAdminLoginEndpoint_UnknownEmailSameShape(t *testing.T) {
	env := newTestEnv(t, nil)
	seedAdmin(t, env, "ops@example.com", "right")

	wrongPassword := env.postJSON(t, "/api/auth/admin/login", map[string]string{
		"email": "ops@example.com", "password": "wrong",
	})
	unknownEmail := env.postJSON(t, "/api/auth/admin/login", map[string]string{
		"email": "ghost@example.com", "password": "wrong",
	})

	assert.Equal(t, wrongPassword.Code, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
}

func TestAdminLoginEndpoint_RateLimited(t *testing.T) {
	env := newTestEnv(t, &mockauth.StaticLimiter{Allowed: false})
	seedAdmin(t, env, "ops@example.com", "pw")

	rec := env.postJSON(t, "/api/auth/admin/login", map[string]string{
		"email":    "ops@example.com",
		"password": "pw",
	})

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, CodeRateLimited, decodeErrorCode(t, rec))
}

func TestUserLoginEndpoint_Success(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.postJSON(t, "/api/auth/login", map[string]string{
		"email": "new@example.com",
		"name":  "New User",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	pair := decodePair(t, rec)

	payload, err := env.tokens.Verify(pair.AccessToken, domainauth.AudienceUsers)
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleUser, payload.Role)
}

func TestUserLoginEndpoint_RoleFieldIgnored(t *testing.T) {
	env := newTestEnv(t, nil)

	// A role smuggled into the body is not decoded; the service issues
	// role=user regardless.
	rec := env.postJSON(t, "/api/auth/login", map[string]string{
		"email": "u@example.com",
		"role":  "admin",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	pair := decodePair(t, rec)

	payload, err := env.tokens.Verify(pair.AccessToken, domainauth.AudienceUsers)
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleUser, payload.Role)

	identity, err := env.directory.FindByEmail(t.Context(), "u@example.com")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleUser, identity.Role)
}

func TestUserLoginEndpoint_MalformedBody(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeInvalidJSON, decodeErrorCode(t, rec))
}

func TestUserLoginEndpoint_MissingEmail(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.postJSON(t, "/api/auth/login", map[string]string{"name": "No Email"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeMissingEmail, decodeErrorCode(t, rec))
}

func TestRefreshEndpoint_Success(t *testing.T) {
	env := newTestEnv(t, nil)

	login := env.postJSON(t, "/api/auth/login", map[string]string{"email": "u@example.com"})
	require.Equal(t, http.StatusOK, login.Code)
	pair := decodePair(t, login)

	rec := env.postJSON(t, "/api/auth/refresh", map[string]string{"refreshToken": pair.RefreshToken})

	require.Equal(t, http.StatusOK, rec.Code)
	rotated := decodePair(t, rec)
	assert.NotEmpty(t, rotated.AccessToken)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)
}

func TestRefreshEndpoint_MissingToken(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.postJSON(t, "/api/auth/refresh", map[string]string{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeMissingRefreshToken, decodeErrorCode(t, rec))
}

func TestRefreshEndpoint_RejectsAccessToken(t *testing.T) {
	env := newTestEnv(t, nil)

	login := env.postJSON(t, "/api/auth/login", map[string]string{"email": "u@example.com"})
	pair := decodePair(t, login)

	// An access token presented as a refresh token must be rejected.
	rec := env.postJSON(t, "/api/auth/refresh", map[string]string{"refreshToken": pair.AccessToken})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, CodeInvalidRefreshToken, decodeErrorCode(t, rec))
}

func TestMeEndpoint_Success(t *testing.T) {
	env := newTestEnv(t, nil)

	login := env.postJSON(t, "/api/auth/login", map[string]string{"email": "u@example.com", "name": "U"})
	pair := decodePair(t, login)

	rec := env.get(t, "/api/auth/me", pair.AccessToken)

	require.Equal(t, http.StatusOK, rec.Code)
	var identity domainauth.Identity
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &identity))
	assert.Equal(t, "u@example.com", identity.Email)
}

func TestMeEndpoint_NoToken(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.get(t, "/api/auth/me", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, CodeNotAuthenticated, decodeErrorCode(t, rec))
}

func TestMeEndpoint_ExpiredTokenIsUnauthorized(t *testing.T) {
	env := newTestEnv(t, nil)

	login := env.postJSON(t, "/api/auth/login", map[string]string{"email": "u@example.com"})
	pair := decodePair(t, login)

	env.clock.Advance(2 * time.Hour)

	// Expired must be a clean 401, never a 500.
	rec := env.get(t, "/api/auth/me", pair.AccessToken)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, CodeNotAuthenticated, decodeErrorCode(t, rec))
}

func TestMeEndpoint_AcceptsAdminToken(t *testing.T) {
	env := newTestEnv(t, nil)
	seedAdmin(t, env, "ops@example.com", "pw")

	login := env.postJSON(t, "/api/auth/admin/login", map[string]string{
		"email": "ops@example.com", "password": "pw",
	})
	pair := decodePair(t, login)

	rec := env.get(t, "/api/auth/me", pair.AccessToken)

	require.Equal(t, http.StatusOK, rec.Code)
	var identity domainauth.Identity
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &identity))
	assert.Equal(t, domainauth.RoleAdmin, identity.Role)
}

func TestMeEndpoint_RejectsRefreshToken(t *testing.T) {
	env := newTestEnv(t, nil)

	login := env.postJSON(t, "/api/auth/login", map[string]string{"email": "u@example.com"})
	pair := decodePair(t, login)

	rec := env.get(t, "/api/auth/me", pair.RefreshToken)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, CodeNotAuthenticated, decodeErrorCode(t, rec))
}

func TestAdminMeEndpoint_Success(t *testing.T) {
	env := newTestEnv(t, nil)
	seedAdmin(t, env, "ops@example.com", "pw")

	login := env.postJSON(t, "/api/auth/admin/login", map[string]string{
		"email": "ops@example.com", "password": "pw",
	})
	pair := decodePair(t, login)

	rec := env.get(t, "/api/auth/admin/me", pair.AccessToken)

	require.Equal(t, http.StatusOK, rec.Code)
	var identity domainauth.Identity
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &identity))
	assert.Equal(t, domainauth.RoleAdmin, identity.Role)
}

func TestAdminMeEndpoint_UserTokenRejected(t *testing.T) {
	env := newTestEnv(t, nil)

	login := env.postJSON(t, "/api/auth/login", map[string]string{"email": "u@example.com"})
	pair := decodePair(t, login)

	rec := env.get(t, "/api/auth/admin/me", pair.AccessToken)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthzEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.get(t, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
}
