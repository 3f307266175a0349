// Package admin aggregates cross-account counters and recent activity for
// the operator dashboard.
package admin

import (
	"context"
	"log/slog"

	"github.com/trustedge/device-trust/pkg/attempt"
	"github.com/trustedge/device-trust/pkg/sessions"
)

// Overview is the dashboard headline: totals across every account.
type Overview struct {
	TotalAttempts  int `json:"total_attempts"`
	FailedAttempts int `json:"failed_attempts"`
	ActiveSessions int `json:"active_sessions"`
}

// Service provides the operator views
type Service struct {
	attempts *attempt.Service
	registry sessions.Repository
}

// NewService creates an admin service
func NewService(attempts *attempt.Service, registry sessions.Repository) *Service {
	return &Service{
		attempts: attempts,
		registry: registry,
	}
}

// GetOverview returns the cross-account counters. Each counter degrades to
// zero independently so one failing store does not blank the whole view.
func (s *Service) GetOverview(ctx context.Context) Overview {
	overview := Overview{
		TotalAttempts:  s.attempts.CountAll(ctx),
		FailedAttempts: s.attempts.CountAllFailed(ctx),
	}

	active, err := s.registry.CountAll(ctx)
	if err != nil {
		slog.Error("Failed to count active sessions", "error", err)
	} else {
		overview.ActiveSessions = active
	}

	return overview
}

// RecentActivity returns the latest attempts across all accounts, decorated
// for display.
func (s *Service) RecentActivity(ctx context.Context, limit int) []attempt.ActivityEntry {
	return s.attempts.RecentActivityAll(ctx, limit)
}
