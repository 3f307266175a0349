package otp

import (
	"context"
	"errors"
)

// ErrNoChallenge is returned when no live challenge exists for a scope key.
var ErrNoChallenge = errors.New("no challenge for scope key")

// Repository defines storage for pending challenges. Challenge state lives in
// shared storage, not process memory, so verification works across multiple
// server instances.
type Repository interface {
	// Upsert stores the challenge for its scope key, replacing any existing
	// challenge for that key.
	Upsert(ctx context.Context, challenge Challenge) error

	// Get returns the challenge for a scope key, or ErrNoChallenge.
	Get(ctx context.Context, scopeKey string) (Challenge, error)

	// Delete removes the challenge for a scope key. Deleting a missing key
	// is not an error.
	Delete(ctx context.Context, scopeKey string) error
}
