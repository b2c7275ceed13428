// Package id provides surrogate identities for persisted entities.
// Identities are UUIDv7 values assigned by the application on insert,
// so a nil ID always means "not persisted yet".
package id

import (
	"github.com/google/uuid"
)

// ID is the surrogate key type shared by all entities.
type ID = uuid.UUID

// New generates a time-ordered UUIDv7.
func New() ID {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return v
}

// Parse converts string to ID with validation.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// MustParse converts string to ID, panics on error.
// Use only for constants and tests.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

// IsNil reports whether the ID is unassigned.
func IsNil(v ID) bool {
	return v == uuid.Nil
}

// Token returns a random opaque token (UUIDv4 text form).
// Used wherever a unique business key must be invented.
func Token() string {
	return uuid.NewString()
}
