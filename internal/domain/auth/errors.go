package auth

import "errors"

// Token verification errors. Each failure mode stays distinct so internal
// logs keep the cause while the HTTP layer collapses them all to a single
// generic rejection.
var (
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenSignatureInvalid = errors.New("token signature invalid")
	ErrAudienceMismatch      = errors.New("token audience mismatch")
	ErrTokenMalformed        = errors.New("token malformed")
)
