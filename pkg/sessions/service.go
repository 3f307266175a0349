package sessions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/trustedge/device-trust/pkg/deviceinfo"
	"github.com/trustedge/device-trust/pkg/geo"
)

// retryDelay is how long List waits before the single retry when a read
// comes back empty right after an upsert. Accommodates storage layers where
// a just-written row may not be visible yet.
const retryDelay = 500 * time.Millisecond

// ErrRefusingFullRevoke is returned by RevokeAllExcept when the caller passes
// an empty current-session ID without opting in, since that would revoke
// every session including the caller's own.
var ErrRefusingFullRevoke = errors.New("refusing to revoke all sessions without a current session id")

// Service provides device session registry logic: upsert-by-user-agent,
// enumeration, single revoke and bulk revoke-except-current.
type Service struct {
	repo Repository
	geo  *geo.Client
}

// NewService creates a new session service. The geo client may be nil, in
// which case listings carry the Unknown Location placeholder.
func NewService(repo Repository, geoClient *geo.Client) *Service {
	return &Service{
		repo: repo,
		geo:  geoClient,
	}
}

// Upsert finds the most recently active session for (account, user agent)
// and refreshes it, or creates a new session when none exists.
//
// Lookup-then-write is not atomic: two concurrent upserts for a brand-new
// user agent can both observe "not found" and both insert. The duplicate
// rows self-heal on the next upsert because the lookup takes the most
// recently active row.
func (s *Service) Upsert(ctx context.Context, params UpsertParams) (DeviceSession, error) {
	if params.AccountID == uuid.Nil {
		return DeviceSession{}, fmt.Errorf("account id is required")
	}
	if params.DeviceName == "" {
		params.DeviceName = deviceinfo.Parse(params.UserAgent).DeviceName
	}

	existing, err := s.repo.FindByAccountAndUserAgent(ctx, params.AccountID, params.UserAgent)
	if err == nil {
		slog.Debug("Refreshing existing device session", "sessionID", existing.ID, "accountID", params.AccountID)
		updated, err := s.repo.Refresh(ctx, existing.ID, params)
		if err != nil {
			return DeviceSession{}, fmt.Errorf("failed to refresh session: %w", err)
		}
		return updated, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return DeviceSession{}, fmt.Errorf("failed to look up session: %w", err)
	}

	slog.Debug("Creating new device session", "accountID", params.AccountID, "deviceName", params.DeviceName)
	created, err := s.repo.Create(ctx, params)
	if err != nil {
		return DeviceSession{}, fmt.Errorf("failed to create session: %w", err)
	}
	return created, nil
}

// List returns all sessions for an account, most recently active first. An
// empty result is retried once after a short delay, since a session written
// moments ago may not be visible yet.
func (s *Service) List(ctx context.Context, accountID uuid.UUID) ([]DeviceSession, error) {
	sessions, err := s.repo.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(sessions) == 0 {
		time.Sleep(retryDelay)
		sessions, err = s.repo.ListByAccount(ctx, accountID)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions on retry: %w", err)
		}
	}

	return sessions, nil
}

// ListSummaries returns the decorated listing view for an account. Location
// enrichment is best-effort and never fails the listing.
func (s *Service) ListSummaries(ctx context.Context, accountID uuid.UUID, currentUserAgent string) (*SessionListResponse, error) {
	sessions, err := s.List(ctx, accountID)
	if err != nil {
		return nil, err
	}

	summaries := make([]SessionSummary, len(sessions))
	for i, session := range sessions {
		info := deviceinfo.Parse(session.UserAgent)

		deviceName := session.DeviceName
		if deviceName == "" {
			deviceName = info.DeviceName
		}

		location := geo.UnknownLocation
		if s.geo != nil {
			location = s.geo.LookupString(ctx, session.IPAddress)
		}

		summaries[i] = SessionSummary{
			ID:           session.ID,
			DeviceName:   deviceName,
			Browser:      info.Browser,
			OS:           info.OS,
			DeviceType:   info.DeviceType,
			IPAddress:    session.IPAddress,
			Location:     location,
			LastActiveAt: session.LastActiveAt,
			CreatedAt:    session.CreatedAt,
			IsCurrent:    IsCurrent(session, currentUserAgent),
		}
	}

	return &SessionListResponse{
		Sessions:    summaries,
		Total:       len(summaries),
		ActiveCount: len(summaries),
	}, nil
}

// Revoke deletes one session owned by the account. Returns ErrNotFound when
// the session does not exist or is owned by another account.
func (s *Service) Revoke(ctx context.Context, accountID, sessionID uuid.UUID) error {
	if err := s.repo.Delete(ctx, accountID, sessionID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	slog.Info("Device session revoked", "accountID", accountID, "sessionID", sessionID)
	return nil
}

// RevokeAllExcept deletes every session for the account except currentID.
// A nil currentID is refused: it would log the caller out of every device,
// including the one making the request.
func (s *Service) RevokeAllExcept(ctx context.Context, accountID, currentID uuid.UUID) error {
	if currentID == uuid.Nil {
		return ErrRefusingFullRevoke
	}

	if err := s.repo.DeleteAllExcept(ctx, accountID, currentID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	slog.Info("All other device sessions revoked", "accountID", accountID, "keptSessionID", currentID)
	return nil
}

// Count returns the number of sessions for an account. Degrades to zero on
// storage failure.
func (s *Service) Count(ctx context.Context, accountID uuid.UUID) int {
	count, err := s.repo.Count(ctx, accountID)
	if err != nil {
		slog.Error("Failed to count sessions", "accountID", accountID, "error", err)
		return 0
	}
	return count
}

// IsCurrent reports whether a session belongs to the presenting device,
// by plain equality of the raw user agent strings. Display only, never a
// security check.
func IsCurrent(session DeviceSession, currentUserAgent string) bool {
	return currentUserAgent != "" && session.UserAgent == currentUserAgent
}
