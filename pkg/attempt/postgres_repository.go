package attempt

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/trustedge/device-trust/pkg/utils"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL attempt repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{
		pool: pool,
	}
}

// Record appends a new attempt
func (r *PostgresRepository) Record(ctx context.Context, params RecordParams) (LoginAttempt, error) {
	query := `
		INSERT INTO login_attempts (account_id, email, succeeded, user_agent, ip_address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	attempt := LoginAttempt{
		AccountID: params.AccountID,
		Email:     params.Email,
		Succeeded: params.Succeeded,
		UserAgent: params.UserAgent,
		IPAddress: params.IPAddress,
	}

	err := r.pool.QueryRow(ctx, query,
		utils.ToNullUUID(params.AccountID),
		params.Email,
		params.Succeeded,
		params.UserAgent,
		params.IPAddress,
	).Scan(&attempt.ID, &attempt.CreatedAt)
	if err != nil {
		return LoginAttempt{}, fmt.Errorf("failed to record attempt: %w", err)
	}

	return attempt, nil
}

// ListRecent returns the most recent attempts for an email, newest first
func (r *PostgresRepository) ListRecent(ctx context.Context, email string, limit int) ([]LoginAttempt, error) {
	query := `
		SELECT id, account_id, email, succeeded, user_agent, ip_address, created_at
		FROM login_attempts
		WHERE email = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, email, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	defer rows.Close()

	return scanAttempts(rows)
}

// ListRecentAll returns the most recent attempts across all accounts
func (r *PostgresRepository) ListRecentAll(ctx context.Context, limit int) ([]LoginAttempt, error) {
	query := `
		SELECT id, account_id, email, succeeded, user_agent, ip_address, created_at
		FROM login_attempts
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	defer rows.Close()

	return scanAttempts(rows)
}

// ListSuccessful returns all successful attempts for an account, newest first
func (r *PostgresRepository) ListSuccessful(ctx context.Context, accountID uuid.UUID) ([]LoginAttempt, error) {
	query := `
		SELECT id, account_id, email, succeeded, user_agent, ip_address, created_at
		FROM login_attempts
		WHERE account_id = $1 AND succeeded = true
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list successful attempts: %w", err)
	}
	defer rows.Close()

	return scanAttempts(rows)
}

// CountFailed counts failed attempts for an email
func (r *PostgresRepository) CountFailed(ctx context.Context, email string) (int, error) {
	query := `SELECT COUNT(*) FROM login_attempts WHERE email = $1 AND succeeded = false`

	var count int
	if err := r.pool.QueryRow(ctx, query, email).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count failed attempts: %w", err)
	}
	return count, nil
}

// CountAll counts every recorded attempt
func (r *PostgresRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM login_attempts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count attempts: %w", err)
	}
	return count, nil
}

// CountAllFailed counts every failed attempt
func (r *PostgresRepository) CountAllFailed(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM login_attempts WHERE succeeded = false`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count failed attempts: %w", err)
	}
	return count, nil
}

func scanAttempts(rows pgx.Rows) ([]LoginAttempt, error) {
	attempts := []LoginAttempt{}
	for rows.Next() {
		var attempt LoginAttempt
		var accountID uuid.NullUUID

		err := rows.Scan(
			&attempt.ID,
			&accountID,
			&attempt.Email,
			&attempt.Succeeded,
			&attempt.UserAgent,
			&attempt.IPAddress,
			&attempt.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}

		attempt.AccountID = utils.FromNullUUID(accountID)
		attempts = append(attempts, attempt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read attempts: %w", err)
	}

	return attempts, nil
}
