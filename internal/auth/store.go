package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"fractalshop/internal/models"
)

// PinStore persists pending PIN verifications keyed by email. Lookups that
// find nothing return (nil, nil) so callers can distinguish absence from
// infrastructure failure.
type PinStore interface {
	// Upsert atomically replaces the pending record for rec.Email, or
	// creates one. Last write wins for concurrent calls on the same email.
	Upsert(ctx context.Context, rec *models.PinVerification) error
	// FindValid returns the record for email whose pin matches exactly and
	// whose expiry is still in the future.
	FindValid(ctx context.Context, email, pin string, now time.Time) (*models.PinVerification, error)
	// FindByEmail returns the pending record for email regardless of state.
	FindByEmail(ctx context.Context, email string) (*models.PinVerification, error)
	// IncrementAttempts adds one to the attempt counter of the record.
	IncrementAttempts(ctx context.Context, id uuid.UUID) error
	// Delete removes the record. Called once on successful verification.
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserStore resolves and creates user accounts.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}
