package httpx

import (
	"context"

	domainauth "github.com/macrowatch/indicator-api/internal/domain/auth"
)

// claimsKey is an unexported context key type to avoid collisions across packages.
// Centralized in this file so all handlers/middleware use the same key.
type claimsKey struct{}

// SetClaimsInContext returns a child context carrying the verified token payload.
func SetClaimsInContext(ctx context.Context, payload domainauth.TokenPayload) context.Context {
	return context.WithValue(ctx, claimsKey{}, payload)
}

// GetClaimsFromContext returns the verified token payload from context and a
// boolean indicating presence. Absence means the request never passed through
// RequireAuth.
func GetClaimsFromContext(ctx context.Context) (domainauth.TokenPayload, bool) {
	payload, ok := ctx.Value(claimsKey{}).(domainauth.TokenPayload)
	return payload, ok
}
