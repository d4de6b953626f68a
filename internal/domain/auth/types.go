package auth

// Package auth contains domain-level types for identity and token handling.
// It is pure and free of framework/adapter concerns.

import "time"

// Role represents an application's authorization role.
// Keep string form for easy persistence and token claims.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// AdminLevel is the coarse privilege tier of an administrator account.
// Current behavior grants every administrator RoleLevelSuper; the lower
// tiers exist in the data model for forward compatibility only.
type AdminLevel string

const (
	AdminLevelRead  AdminLevel = "read"
	AdminLevelWrite AdminLevel = "write"
	AdminLevelSuper AdminLevel = "super"
)

// Audience restricts which verification context may accept a token.
// Tokens for the three purposes are structurally identical; the audience
// tag is what keeps a refresh token from being replayed as an access token.
type Audience string

const (
	AudienceUsers   Audience = "users"
	AudienceAdmin   Audience = "admin"
	AudienceRefresh Audience = "refresh"
)

// Identity represents a principal as persisted in the user directory.
// The auth core only reads identities; it never mutates roles or hashes.
type Identity struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Name             string     `json:"name,omitempty"`
	Image            string     `json:"image,omitempty"`
	Role             Role       `json:"role"`
	AdminLevel       AdminLevel `json:"adminLevel,omitempty"`
	SubscriptionTier string     `json:"subscriptionTier,omitempty"`
	CreatedAt        time.Time  `json:"-"`
	UpdatedAt        time.Time  `json:"-"`
}

// IsAdmin reports whether the identity's directory role is admin.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// AdminCredential is the credential record consulted during admin login.
// It exists only for administrator accounts and is compared, never decoded;
// the hash must never be serialized into any response.
type AdminCredential struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
}

// TokenPayload is the decoded claim set carried by a verified token.
// Payloads are created at issuance, immutable, and never persisted
// server-side; expiry plus the signature is the only state.
type TokenPayload struct {
	SubjectID  string
	Email      string
	Role       Role
	AdminLevel AdminLevel // empty for user and refresh payloads
	Audience   Audience
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

// TokenPair is the issuance result handed to a caller after login or refresh.
// ExpiresIn is the access-token lifetime in seconds.
type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}
