package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/trustedge/device-trust/pkg/utils"
)

// PostgresRepository implements Repository using PostgreSQL. The
// device_sessions table deliberately carries no unique constraint on
// (account_id, user_agent): the lookup-then-write upsert race is an accepted
// inconsistency that self-heals on the next upsert.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL session repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{
		pool: pool,
	}
}

const sessionColumns = `id, account_id, device_name, user_agent, ip_address, created_at, last_active_at`

// Create inserts a new session
func (r *PostgresRepository) Create(ctx context.Context, params UpsertParams) (DeviceSession, error) {
	query := `
		INSERT INTO device_sessions (account_id, device_name, user_agent, ip_address)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + sessionColumns

	row := r.pool.QueryRow(ctx, query,
		params.AccountID,
		params.DeviceName,
		params.UserAgent,
		utils.ToNullString(params.IPAddress),
	)

	session, err := scanSession(row)
	if err != nil {
		return DeviceSession{}, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// FindByAccountAndUserAgent returns the most recently active session for the pair
func (r *PostgresRepository) FindByAccountAndUserAgent(ctx context.Context, accountID uuid.UUID, userAgent string) (DeviceSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM device_sessions
		WHERE account_id = $1 AND user_agent = $2
		ORDER BY last_active_at DESC
		LIMIT 1
	`

	session, err := scanSession(r.pool.QueryRow(ctx, query, accountID, userAgent))
	if errors.Is(err, pgx.ErrNoRows) {
		return DeviceSession{}, ErrNotFound
	}
	if err != nil {
		return DeviceSession{}, fmt.Errorf("failed to find session: %w", err)
	}
	return session, nil
}

// Refresh updates a session in place
func (r *PostgresRepository) Refresh(ctx context.Context, id uuid.UUID, params UpsertParams) (DeviceSession, error) {
	query := `
		UPDATE device_sessions
		SET device_name = $3, ip_address = $4, last_active_at = NOW()
		WHERE id = $1 AND account_id = $2
		RETURNING ` + sessionColumns

	session, err := scanSession(r.pool.QueryRow(ctx, query, id, params.AccountID, params.DeviceName, utils.ToNullString(params.IPAddress)))
	if errors.Is(err, pgx.ErrNoRows) {
		return DeviceSession{}, ErrNotFound
	}
	if err != nil {
		return DeviceSession{}, fmt.Errorf("failed to refresh session: %w", err)
	}
	return session, nil
}

// ListByAccount returns all sessions for an account, most recently active first
func (r *PostgresRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]DeviceSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM device_sessions
		WHERE account_id = $1
		ORDER BY last_active_at DESC
	`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []DeviceSession{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sessions: %w", err)
	}

	return sessions, nil
}

// Count returns the number of sessions for an account
func (r *PostgresRepository) Count(ctx context.Context, accountID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM device_sessions WHERE account_id = $1`, accountID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

// CountAll returns the number of sessions across all accounts
func (r *PostgresRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM device_sessions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

// Delete removes one session owned by the account
func (r *PostgresRepository) Delete(ctx context.Context, accountID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM device_sessions WHERE id = $1 AND account_id = $2`, id, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAllExcept removes every session for the account except keepID in a
// single statement, so sessions created after the call began are untouched.
func (r *PostgresRepository) DeleteAllExcept(ctx context.Context, accountID, keepID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM device_sessions WHERE account_id = $1 AND id <> $2`, accountID, keepID)
	if err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}
	return nil
}

func scanSession(row pgx.Row) (DeviceSession, error) {
	var session DeviceSession
	var ipAddress sql.NullString
	err := row.Scan(
		&session.ID,
		&session.AccountID,
		&session.DeviceName,
		&session.UserAgent,
		&ipAddress,
		&session.CreatedAt,
		&session.LastActiveAt,
	)
	session.IPAddress = ipAddress.String
	return session, err
}
