package auth

import "github.com/google/uuid"

// Identity is the verified outcome of any sign-in strategy. Every strategy
// (PIN, password, OAuth) resolves to this shape before session issuance.
type Identity struct {
	ID    uuid.UUID
	Email string
	Role  Role
}
