package otp

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository using PostgreSQL, keyed by scope
// key so at most one live challenge exists per pending login.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL challenge repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{
		pool: pool,
	}
}

// Upsert stores the challenge, replacing any existing one for the scope key
func (r *PostgresRepository) Upsert(ctx context.Context, challenge Challenge) error {
	query := `
		INSERT INTO otp_challenges (scope_key, code, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (scope_key)
		DO UPDATE SET code = EXCLUDED.code, expires_at = EXCLUDED.expires_at, created_at = EXCLUDED.created_at
	`

	_, err := r.pool.Exec(ctx, query, challenge.ScopeKey, challenge.Code, challenge.ExpiresAt, challenge.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert challenge: %w", err)
	}
	return nil
}

// Get returns the challenge for a scope key
func (r *PostgresRepository) Get(ctx context.Context, scopeKey string) (Challenge, error) {
	query := `
		SELECT scope_key, code, expires_at, created_at
		FROM otp_challenges
		WHERE scope_key = $1
	`

	var challenge Challenge
	err := r.pool.QueryRow(ctx, query, scopeKey).Scan(
		&challenge.ScopeKey,
		&challenge.Code,
		&challenge.ExpiresAt,
		&challenge.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Challenge{}, ErrNoChallenge
	}
	if err != nil {
		return Challenge{}, fmt.Errorf("failed to get challenge: %w", err)
	}
	return challenge, nil
}

// Delete removes the challenge for a scope key
func (r *PostgresRepository) Delete(ctx context.Context, scopeKey string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM otp_challenges WHERE scope_key = $1`, scopeKey); err != nil {
		return fmt.Errorf("failed to delete challenge: %w", err)
	}
	return nil
}
