package sessions

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a session does not exist or is not owned by
// the given account.
var ErrNotFound = errors.New("session not found")

// Repository defines storage for device sessions. Delete operations are
// scoped by account so a caller can never revoke a session it does not own.
type Repository interface {
	// Create inserts a new session and returns it with ID and timestamps set.
	Create(ctx context.Context, params UpsertParams) (DeviceSession, error)

	// FindByAccountAndUserAgent returns the most recently active session for
	// the (account, user agent) pair, or ErrNotFound.
	FindByAccountAndUserAgent(ctx context.Context, accountID uuid.UUID, userAgent string) (DeviceSession, error)

	// Refresh updates device name, IP and last-active time of a session in
	// place and returns the updated record.
	Refresh(ctx context.Context, id uuid.UUID, params UpsertParams) (DeviceSession, error)

	// ListByAccount returns all sessions for an account ordered by
	// LastActiveAt descending.
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]DeviceSession, error)

	// Count returns the number of sessions for an account.
	Count(ctx context.Context, accountID uuid.UUID) (int, error)

	// CountAll returns the number of sessions across all accounts.
	CountAll(ctx context.Context) (int, error)

	// Delete removes one session owned by the account. Returns ErrNotFound
	// when the session does not exist or belongs to another account.
	Delete(ctx context.Context, accountID, id uuid.UUID) error

	// DeleteAllExcept removes every session for the account except keepID,
	// applied atomically in a single statement. A keepID matching no session
	// deletes all of them.
	DeleteAllExcept(ctx context.Context, accountID, keepID uuid.UUID) error
}
