package attempt

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines storage for the append-only attempt ledger. Listings are
// ordered by CreatedAt descending. The repository performs no deduplication;
// callers needing distinct entries dedupe by ID themselves.
type Repository interface {
	// Record appends a new attempt and returns it with ID and CreatedAt set.
	Record(ctx context.Context, params RecordParams) (LoginAttempt, error)

	// ListRecent returns the most recent attempts for an email, newest first.
	ListRecent(ctx context.Context, email string, limit int) ([]LoginAttempt, error)

	// ListRecentAll returns the most recent attempts across all accounts.
	ListRecentAll(ctx context.Context, limit int) ([]LoginAttempt, error)

	// ListSuccessful returns all successful attempts for an account, newest first.
	ListSuccessful(ctx context.Context, accountID uuid.UUID) ([]LoginAttempt, error)

	// CountFailed counts failed attempts for an email.
	CountFailed(ctx context.Context, email string) (int, error)

	// CountAll counts every recorded attempt.
	CountAll(ctx context.Context) (int, error)

	// CountAllFailed counts every failed attempt.
	CountAllFailed(ctx context.Context) (int, error)
}
