package login

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrAuthFailed is returned on bad credentials. Whether the email was
// unknown or the password wrong is not disclosed.
var ErrAuthFailed = errors.New("authentication failed")

// Service is the identity provider: it owns credential verification and the
// per-account MFA toggle. The rest of the module treats it as opaque.
type Service struct {
	repo Repository
}

// NewService creates a new login service
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
	}
}

// Authenticate verifies email and password, returning the account on
// success and ErrAuthFailed otherwise.
func (s *Service) Authenticate(ctx context.Context, email, password string) (Account, error) {
	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			// Burn a comparison so unknown emails take as long as bad passwords.
			bcrypt.CompareHashAndPassword([]byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"), []byte(password))
			return Account{}, ErrAuthFailed
		}
		return Account{}, fmt.Errorf("failed to look up account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return Account{}, ErrAuthFailed
	}

	return account, nil
}

// Register creates a new account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, email, password string, mfaEnabled bool) (Account, error) {
	if email == "" || password == "" {
		return Account{}, fmt.Errorf("email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, fmt.Errorf("failed to hash password: %w", err)
	}

	account, err := s.repo.Create(ctx, email, string(hash), mfaEnabled)
	if err != nil {
		return Account{}, fmt.Errorf("failed to create account: %w", err)
	}

	slog.Info("Account registered", "accountID", account.ID, "email", account.Email)
	return account, nil
}

// GetAccount returns the account by id
func (s *Service) GetAccount(ctx context.Context, id uuid.UUID) (Account, error) {
	return s.repo.GetByID(ctx, id)
}

// SetMFAEnabled toggles the second-factor requirement for an account
func (s *Service) SetMFAEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	if err := s.repo.SetMFAEnabled(ctx, id, enabled); err != nil {
		return fmt.Errorf("failed to update mfa setting: %w", err)
	}
	slog.Info("MFA setting updated", "accountID", id, "enabled", enabled)
	return nil
}
