package login

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL account repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{
		pool: pool,
	}
}

// Create inserts a new account
func (r *PostgresRepository) Create(ctx context.Context, email, passwordHash string, mfaEnabled bool) (Account, error) {
	query := `
		INSERT INTO accounts (email, password_hash, mfa_enabled)
		VALUES ($1, $2, $3)
		RETURNING id, email, password_hash, mfa_enabled, created_at
	`

	account, err := scanAccount(r.pool.QueryRow(ctx, query, email, passwordHash, mfaEnabled))
	if err != nil {
		return Account{}, fmt.Errorf("failed to create account: %w", err)
	}
	return account, nil
}

// FindByEmail returns the account for an email
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (Account, error) {
	query := `
		SELECT id, email, password_hash, mfa_enabled, created_at
		FROM accounts
		WHERE LOWER(email) = LOWER($1)
	`

	account, err := scanAccount(r.pool.QueryRow(ctx, query, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrAccountNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("failed to find account: %w", err)
	}
	return account, nil
}

// GetByID returns the account by id
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (Account, error) {
	query := `
		SELECT id, email, password_hash, mfa_enabled, created_at
		FROM accounts
		WHERE id = $1
	`

	account, err := scanAccount(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrAccountNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// SetMFAEnabled toggles the second-factor requirement
func (r *PostgresRepository) SetMFAEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE accounts SET mfa_enabled = $2 WHERE id = $1`, id, enabled)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (Account, error) {
	var account Account
	err := row.Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.MFAEnabled,
		&account.CreatedAt,
	)
	return account, err
}
