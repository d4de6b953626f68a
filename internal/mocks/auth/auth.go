package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	domainauth "github.com/macrowatch/indicator-api/internal/domain/auth"
	"github.com/macrowatch/indicator-api/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.UserDirectory = (*MemoryUserDirectory)(nil)
	_ ports.TokenService  = (*StubTokenService)(nil)
	_ ports.LoginLimiter  = (*StaticLimiter)(nil)
)

// MemoryUserDirectory is an in-memory ports.UserDirectory for tests.
// Func fields override individual methods when error paths need exercising.
type MemoryUserDirectory struct {
	mu      sync.Mutex
	byEmail map[string]domainauth.Identity
	byID    map[string]domainauth.Identity
	creds   map[string]domainauth.AdminCredential
	nextID  int

	FindAdminCredentialFunc func(ctx context.Context, email string) (domainauth.AdminCredential, error)
	FindByEmailFunc         func(ctx context.Context, email string) (domainauth.Identity, error)
	FindByIDFunc            func(ctx context.Context, id string) (domainauth.Identity, error)
	UpsertByEmailFunc       func(ctx context.Context, in ports.UpsertUserInput) (domainauth.Identity, error)
}

// NewMemoryUserDirectory creates an empty in-memory directory.
func NewMemoryUserDirectory() *MemoryUserDirectory {
	return &MemoryUserDirectory{
		byEmail: make(map[string]domainauth.Identity),
		byID:    make(map[string]domainauth.Identity),
		creds:   make(map[string]domainauth.AdminCredential),
	}
}

// SeedUser inserts an identity, assigning an id when empty.
func (d *MemoryUserDirectory) SeedUser(identity domainauth.Identity) domainauth.Identity {
	d.mu.Lock()
	defer d.mu.Unlock()
	if identity.ID == "" {
		d.nextID++
		identity.ID = fmt.Sprintf("user-%d", d.nextID)
	}
	identity.Email = strings.ToLower(identity.Email)
	d.byEmail[identity.Email] = identity
	d.byID[identity.ID] = identity
	return identity
}

// SeedAdmin inserts an admin identity along with its credential record.
func (d *MemoryUserDirectory) SeedAdmin(identity domainauth.Identity, passwordHash string) domainauth.Identity {
	identity.Role = domainauth.RoleAdmin
	identity = d.SeedUser(identity)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.creds[identity.Email] = domainauth.AdminCredential{
		ID:           identity.ID,
		Email:        identity.Email,
		PasswordHash: passwordHash,
		Role:         domainauth.RoleAdmin,
	}
	return identity
}

func (d *MemoryUserDirectory) FindAdminCredentialByEmail(ctx context.Context, email string) (domainauth.AdminCredential, error) {
	if d.FindAdminCredentialFunc != nil {
		return d.FindAdminCredentialFunc(ctx, email)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	cred, ok := d.creds[strings.ToLower(email)]
	if !ok {
		return domainauth.AdminCredential{}, ports.ErrUserNotFound
	}
	return cred, nil
}

func (d *MemoryUserDirectory) FindByEmail(ctx context.Context, email string) (domainauth.Identity, error) {
	if d.FindByEmailFunc != nil {
		return d.FindByEmailFunc(ctx, email)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	identity, ok := d.byEmail[strings.ToLower(email)]
	if !ok {
		return domainauth.Identity{}, ports.ErrUserNotFound
	}
	return identity, nil
}

func (d *MemoryUserDirectory) FindByID(ctx context.Context, id string) (domainauth.Identity, error) {
	if d.FindByIDFunc != nil {
		return d.FindByIDFunc(ctx, id)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	identity, ok := d.byID[id]
	if !ok {
		return domainauth.Identity{}, ports.ErrUserNotFound
	}
	return identity, nil
}

func (d *MemoryUserDirectory) UpsertByEmail(ctx context.Context, in ports.UpsertUserInput) (domainauth.Identity, error) {
	if d.UpsertByEmailFunc != nil {
		return d.UpsertByEmailFunc(ctx, in)
	}
	d.mu.Lock()
	email := strings.ToLower(in.Email)
	existing, ok := d.byEmail[email]
	d.mu.Unlock()
	if ok {
		if in.Name != "" {
			existing.Name = in.Name
		}
		if in.Image != "" {
			existing.Image = in.Image
		}
		return d.SeedUser(existing), nil
	}
	return d.SeedUser(domainauth.Identity{
		Email:            email,
		Name:             in.Name,
		Image:            in.Image,
		Role:             domainauth.RoleUser,
		SubscriptionTier: "free",
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}), nil
}

// StubTokenService issues opaque tokens it can later verify from an internal
// map, keyed by the token string. It never signs anything.
type StubTokenService struct {
	mu       sync.Mutex
	payloads map[string]domainauth.TokenPayload
	seq      int

	TTL      time.Duration
	IssueErr error
}

// NewStubTokenService creates a StubTokenService with a one hour TTL.
func NewStubTokenService() *StubTokenService {
	return &StubTokenService{
		payloads: make(map[string]domainauth.TokenPayload),
		TTL:      time.Hour,
	}
}

func (s *StubTokenService) issue(identity domainauth.Identity, role domainauth.Role, level domainauth.AdminLevel, aud domainauth.Audience) (string, error) {
	if s.IssueErr != nil {
		return "", s.IssueErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	token := fmt.Sprintf("%s-token-%d", aud, s.seq)
	now := time.Now()
	s.payloads[token] = domainauth.TokenPayload{
		SubjectID:  identity.ID,
		Email:      identity.Email,
		Role:       role,
		AdminLevel: level,
		Audience:   aud,
		IssuedAt:   now,
		ExpiresAt:  now.Add(s.TTL),
	}
	return token, nil
}

func (s *StubTokenService) IssueUserToken(identity domainauth.Identity) (string, error) {
	return s.issue(identity, domainauth.RoleUser, "", domainauth.AudienceUsers)
}

func (s *StubTokenService) IssueAdminToken(identity domainauth.Identity, level domainauth.AdminLevel) (string, error) {
	return s.issue(identity, domainauth.RoleAdmin, level, domainauth.AudienceAdmin)
}

func (s *StubTokenService) IssueRefreshToken(identity domainauth.Identity, role domainauth.Role) (string, error) {
	return s.issue(identity, role, "", domainauth.AudienceRefresh)
}

func (s *StubTokenService) Verify(token string, audience domainauth.Audience) (domainauth.TokenPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, ok := s.payloads[token]
	if !ok {
		return domainauth.TokenPayload{}, domainauth.ErrTokenMalformed
	}
	if payload.Audience != audience {
		return domainauth.TokenPayload{}, domainauth.ErrAudienceMismatch
	}
	if time.Now().After(payload.ExpiresAt) {
		return domainauth.TokenPayload{}, domainauth.ErrTokenExpired
	}
	return payload, nil
}

func (s *StubTokenService) AccessTokenTTL() time.Duration { return s.TTL }

// Expire marks a previously issued token as expired.
func (s *StubTokenService) Expire(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if payload, ok := s.payloads[token]; ok {
		payload.ExpiresAt = time.Now().Add(-time.Minute)
		s.payloads[token] = payload
	}
}

// StaticLimiter is a ports.LoginLimiter with a fixed answer.
type StaticLimiter struct {
	Allowed  bool
	Err      error
	ResetErr error
	Calls    int
	Resets   int
}

func (l *StaticLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.Calls++
	return l.Allowed, l.Err
}

func (l *StaticLimiter) Reset(ctx context.Context, key string) error {
	l.Resets++
	return l.ResetErr
}
