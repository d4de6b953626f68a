package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	// ErrEmailExists is returned when an insert collides with an existing
	// email. With the upsert paths this should only surface from the
	// trusted provisioning helpers.
	ErrEmailExists = errors.New("email already exists")
)
