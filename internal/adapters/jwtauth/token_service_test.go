package jwtauth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/macrowatch/indicator-api/internal/domain/auth"
)

func newFixedClockService(t *testing.T, now *time.Time) *TokenService {
	t.Helper()
	svc, err := NewTokenServiceWithClock(Config{
		Secret: []byte("unit-test-secret"),
		Issuer: "indicator-api",
	}, func() time.Time { return *now })
	require.NoError(t, err)
	return svc
}

func testIdentity() domainauth.Identity {
	return domainauth.Identity{
		ID:    "11111111-2222-3333-4444-555555555555",
		Email: "user@example.com",
		Role:  domainauth.RoleUser,
	}
}

func TestNewTokenService_RequiresSecretAndIssuer(t *testing.T) {
	_, err := NewTokenService(Config{Issuer: "indicator-api"})
	assert.Error(t, err)

	_, err = NewTokenService(Config{Secret: []byte("s")})
	assert.Error(t, err)
}

func TestTokenService_UserTokenRoundTrip(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newFixedClockService(t, &now)
	identity := testIdentity()

	token, err := svc.IssueUserToken(identity)
	require.NoError(t, err)

	payload, err := svc.Verify(token, domainauth.AudienceUsers)
	require.NoError(t, err)
	assert.Equal(t, identity.ID, payload.SubjectID)
	assert.Equal(t, identity.Email, payload.Email)
	assert.Equal(t, domainauth.RoleUser, payload.Role)
	assert.Empty(t, payload.AdminLevel)
	assert.Equal(t, now, payload.IssuedAt)
	assert.Equal(t, now.Add(time.Hour), payload.ExpiresAt)
}

func TestTokenService_AdminTokenCarriesLevel(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newFixedClockService(t, &now)

	token, err := svc.IssueAdminToken(testIdentity(), domainauth.AdminLevelSuper)
	require.NoError(t, err)

	payload, err := svc.Verify(token, domainauth.AudienceAdmin)
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, payload.Role)
	assert.Equal(t, domainauth.AdminLevelSuper, payload.AdminLevel)
}

func TestTokenService_RefreshTokenOmitsAdminLevel(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newFixedClockService(t, &now)

	token, err := svc.IssueRefreshToken(testIdentity(), domainauth.RoleAdmin)
	require.NoError(t, err)

	payload, err := svc.Verify(token, domainauth.AudienceRefresh)
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, payload.Role)
	assert.Empty(t, payload.AdminLevel)
	assert.Equal(t, now.Add(7*24*time.Hour), payload.ExpiresAt)
}

func TestTokenService_AudienceMatrix(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newFixedClockService(t, &now)
	identity := testIdentity()

	userToken, err := svc.IssueUserToken(identity)
	require.NoError(t, err)
	adminToken, err := svc.IssueAdminToken(identity, domainauth.AdminLevelSuper)
	require.NoError(t, err)
	refreshToken, err := svc.IssueRefreshToken(identity, domainauth.RoleUser)
	require.NoError(t, err)

	tests := []struct {
		name     string
		token    string
		audience domainauth.Audience
		wantErr  error
	}{
		{"user token at users", userToken, domainauth.AudienceUsers, nil},
		{"user token at admin", userToken, domainauth.AudienceAdmin, domainauth.ErrAudienceMismatch},
		{"user token at refresh", userToken, domainauth.AudienceRefresh, domainauth.ErrAudienceMismatch},
		{"admin token at admin", adminToken, domainauth.AudienceAdmin, nil},
		{"admin token at users", adminToken, domainauth.AudienceUsers, domainauth.ErrAudienceMismatch},
		{"refresh token at refresh", refreshToken, domainauth.AudienceRefresh, nil},
		{"refresh token at users", refreshToken, domainauth.AudienceUsers, domainauth.ErrAudienceMismatch},
		{"refresh token at admin", refreshToken, domainauth.AudienceAdmin, domainauth.ErrAudienceMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Verify(tt.token, tt.audience)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestTokenService_ExpiredToken(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newFixedClockService(t, &now)

	token, err := svc.IssueUserToken(testIdentity())
	require.NoError(t, err)

	now = now.Add(time.Hour + time.Second)

	_, err = svc.Verify(token, domainauth.AudienceUsers)
	assert.ErrorIs(t, err, domainauth.ErrTokenExpired)
}

func TestTokenService_ExpiredBeatsWrongAudience(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newFixedClockService(t, &now)

	token, err := svc.IssueUserToken(testIdentity())
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)

	// Expired and presented to the wrong audience: expiry wins.
	_, err = svc.Verify(token, domainauth.AudienceAdmin)
	assert.ErrorIs(t, err, domainauth.ErrTokenExpired)
}

func TestTokenService_TamperedTokenSignatureInvalid(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newFixedClockService(t, &now)

	token, err := svc.IssueUserToken(testIdentity())
	require.NoError(t, err)

	// Flip the final signature character to another valid base64url rune.
	last := "A"
	if token[len(token)-1] == 'A' {
		last = "B"
	}
	tampered := token[:len(token)-1] + last

	_, err = svc.Verify(tampered, domainauth.AudienceUsers)
	assert.ErrorIs(t, err, domainauth.ErrTokenSignatureInvalid)
}

func TestTokenService_WrongSecret(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newFixedClockService(t, &now)
	other, err := NewTokenServiceWithClock(Config{
		Secret: []byte("a-different-secret"),
		Issuer: "indicator-api",
	}, func() time.Time { return now })
	require.NoError(t, err)

	token, err := svc.IssueUserToken(testIdentity())
	require.NoError(t, err)

	_, err = other.Verify(token, domainauth.AudienceUsers)
	assert.ErrorIs(t, err, domainauth.ErrTokenSignatureInvalid)
}

func TestTokenService_GarbageToken(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newFixedClockService(t, &now)

	_, err := svc.Verify("not.a.jwt", domainauth.AudienceUsers)
	assert.ErrorIs(t, err, domainauth.ErrTokenMalformed)

	_, err = svc.Verify("", domainauth.AudienceUsers)
	assert.ErrorIs(t, err, domainauth.ErrTokenMalformed)
}

func TestTokenService_IssueRequiresIdentityID(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newFixedClockService(t, &now)

	_, err := svc.IssueUserToken(domainauth.Identity{Email: "no-id@example.com"})
	assert.Error(t, err)
}
