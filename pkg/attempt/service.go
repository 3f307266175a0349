package attempt

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/trustedge/device-trust/pkg/deviceinfo"
)

// overFetch is how many extra rows RecentActivity pulls beyond the display
// limit before deduplicating by ID. The legacy dashboard fetched extra rows
// and deduped client-side; the ledger keeps that behavior for parity.
const overFetch = 5

// Service wraps the attempt ledger with logging and the listing decoration
// used by activity views.
type Service struct {
	repo Repository
}

// NewService creates a new attempt service
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
	}
}

// Record appends an attempt to the ledger. It fails only on storage
// unavailability, never on business rules.
func (s *Service) Record(ctx context.Context, params RecordParams) (LoginAttempt, error) {
	recorded, err := s.repo.Record(ctx, params)
	if err != nil {
		slog.Error("Failed to record login attempt", "email", params.Email, "succeeded", params.Succeeded, "error", err)
		return LoginAttempt{}, fmt.Errorf("failed to record login attempt: %w", err)
	}

	slog.Debug("Recorded login attempt", "id", recorded.ID, "email", recorded.Email, "succeeded", recorded.Succeeded)
	return recorded, nil
}

// RecentActivity returns up to limit activity entries for an email, newest
// first. It over-fetches, dedupes by ID, then truncates. A storage failure
// degrades to an empty list.
func (s *Service) RecentActivity(ctx context.Context, email string, limit int) []ActivityEntry {
	attempts, err := s.repo.ListRecent(ctx, email, limit+overFetch)
	if err != nil {
		slog.Error("Failed to fetch recent activity", "email", email, "error", err)
		return []ActivityEntry{}
	}

	return toActivityEntries(attempts, limit)
}

// RecentActivityAll returns up to limit activity entries across all
// accounts, newest first. Used by reporting views.
func (s *Service) RecentActivityAll(ctx context.Context, limit int) []ActivityEntry {
	attempts, err := s.repo.ListRecentAll(ctx, limit+overFetch)
	if err != nil {
		slog.Error("Failed to fetch recent activity", "error", err)
		return []ActivityEntry{}
	}

	return toActivityEntries(attempts, limit)
}

// ListSuccessful returns all successful attempts for an account, newest first.
func (s *Service) ListSuccessful(ctx context.Context, accountID uuid.UUID) ([]LoginAttempt, error) {
	attempts, err := s.repo.ListSuccessful(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list successful attempts: %w", err)
	}
	return attempts, nil
}

// CountFailed counts failed attempts for an email. Degrades to zero on
// storage failure.
func (s *Service) CountFailed(ctx context.Context, email string) int {
	count, err := s.repo.CountFailed(ctx, email)
	if err != nil {
		slog.Error("Failed to count failed attempts", "email", email, "error", err)
		return 0
	}
	return count
}

// CountAll counts every recorded attempt. Degrades to zero on storage
// failure.
func (s *Service) CountAll(ctx context.Context) int {
	count, err := s.repo.CountAll(ctx)
	if err != nil {
		slog.Error("Failed to count attempts", "error", err)
		return 0
	}
	return count
}

// CountAllFailed counts every failed attempt. Degrades to zero on storage
// failure.
func (s *Service) CountAllFailed(ctx context.Context) int {
	count, err := s.repo.CountAllFailed(ctx)
	if err != nil {
		slog.Error("Failed to count failed attempts", "error", err)
		return 0
	}
	return count
}

func toActivityEntries(attempts []LoginAttempt, limit int) []ActivityEntry {
	seen := make(map[uuid.UUID]bool, len(attempts))
	entries := make([]ActivityEntry, 0, limit)

	for _, a := range attempts {
		if seen[a.ID] {
			continue
		}
		seen[a.ID] = true

		status := "failed"
		if a.Succeeded {
			status = "success"
		}

		entries = append(entries, ActivityEntry{
			ID:        a.ID,
			Email:     a.Email,
			Status:    status,
			Device:    deviceinfo.Summary(a.UserAgent),
			UserAgent: a.UserAgent,
			Timestamp: a.CreatedAt,
		})

		if len(entries) == limit {
			break
		}
	}

	return entries
}
