package login

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrAccountNotFound is returned when no account exists for a lookup.
var ErrAccountNotFound = errors.New("account not found")

// Account is the identity-provider view of a user: the opaque id and email
// the security core needs, the credential hash it verifies against, and the
// per-account second-factor toggle.
type Account struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	MFAEnabled   bool      `json:"mfa_enabled"`
	CreatedAt    time.Time `json:"created_at"`
}

// Repository defines storage for accounts
type Repository interface {
	// Create inserts a new account and returns it with ID and CreatedAt set.
	Create(ctx context.Context, email, passwordHash string, mfaEnabled bool) (Account, error)

	// FindByEmail returns the account for an email, or ErrAccountNotFound.
	FindByEmail(ctx context.Context, email string) (Account, error)

	// GetByID returns the account by id, or ErrAccountNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (Account, error)

	// SetMFAEnabled toggles the second-factor requirement for an account.
	SetMFAEnabled(ctx context.Context, id uuid.UUID, enabled bool) error
}
