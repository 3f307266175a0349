package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"
)

// ErrInvalidOrExpired is the single verification failure returned to
// callers. Whether the code was wrong, expired, or never issued is not
// disclosed, so a caller cannot probe which sub-check failed.
var ErrInvalidOrExpired = errors.New("invalid or expired code")

// Service manages the challenge lifecycle: issue, resend (reissue) and
// single-use verification. The stored expiry is the sole authority on
// whether a code is still valid.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new OTP service
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// Issue creates a fresh challenge for the scope key, superseding any live
// challenge: the previous code becomes invalid the moment this returns. A
// resend is exactly another Issue, which also resets the countdown.
func (s *Service) Issue(ctx context.Context, scopeKey string) (Challenge, error) {
	if scopeKey == "" {
		return Challenge{}, fmt.Errorf("scope key is required")
	}

	code, err := generateCode()
	if err != nil {
		return Challenge{}, fmt.Errorf("failed to generate code: %w", err)
	}

	now := s.now().UTC()
	challenge := Challenge{
		ScopeKey:  scopeKey,
		Code:      code,
		ExpiresAt: now.Add(ChallengeTTL),
		CreatedAt: now,
	}

	if err := s.repo.Upsert(ctx, challenge); err != nil {
		return Challenge{}, fmt.Errorf("failed to store challenge: %w", err)
	}

	slog.Info("Issued OTP challenge", "scopeKey", scopeKey, "expiresAt", challenge.ExpiresAt.Format(time.RFC3339))
	return challenge, nil
}

// Verify checks the submitted code against the live challenge for the scope
// key. It fails with ErrInvalidOrExpired when no challenge exists, the
// challenge is past its stored expiry, or the code does not match. On
// success the challenge is deleted: a code verifies exactly once.
func (s *Service) Verify(ctx context.Context, scopeKey, submittedCode string) error {
	challenge, err := s.repo.Get(ctx, scopeKey)
	if err != nil {
		if errors.Is(err, ErrNoChallenge) {
			return ErrInvalidOrExpired
		}
		return fmt.Errorf("failed to load challenge: %w", err)
	}

	if challenge.Expired(s.now().UTC()) {
		return ErrInvalidOrExpired
	}

	if challenge.Code != submittedCode {
		return ErrInvalidOrExpired
	}

	if err := s.repo.Delete(ctx, scopeKey); err != nil {
		return fmt.Errorf("failed to consume challenge: %w", err)
	}

	slog.Info("OTP challenge verified", "scopeKey", scopeKey)
	return nil
}

// TimeRemaining returns the advisory countdown for the live challenge,
// or zero when none exists. UI state only; Verify is the authority.
func (s *Service) TimeRemaining(ctx context.Context, scopeKey string) time.Duration {
	challenge, err := s.repo.Get(ctx, scopeKey)
	if err != nil {
		return 0
	}
	return challenge.TimeRemaining(s.now().UTC())
}

// generateCode draws a uniformly random six-digit code from the inclusive
// range 100000-999999.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+100000), nil
}
