// Package trust classifies the device behind the current login as risky,
// recognized or trusted, from the attempt ledger and the session registry.
// Assessments are advisory: they inform the user-facing dashboard and never
// gate authentication.
package trust

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/trustedge/device-trust/pkg/attempt"
	"github.com/trustedge/device-trust/pkg/sessions"
)

// Level is the discretized trust classification
type Level string

const (
	LevelRisky      Level = "risky"
	LevelRecognized Level = "recognized"
	LevelTrusted    Level = "trusted"
)

// Classification thresholds. Boundaries are inclusive: 70 is trusted,
// 30 is recognized, 29 is risky.
const (
	trustedThreshold    = 70
	recognizedThreshold = 30
)

// Scoring weights and the history sizes that trigger them.
const (
	knownUserAgentBonus   = 40
	newUserAgentPenalty   = 20
	knownSessionBonus     = 30
	frequentIPBonus       = 20
	newComboPenalty       = 15
	activeSessionBonus    = 10
	frequentIPMinAttempts = 3
	newComboMinHistory    = 5
)

// Assessment is the derived trust classification for one login. It has no
// independent lifecycle; it is recomputed on demand and never persisted.
type Assessment struct {
	Level   Level    `json:"level"`
	Score   int      `json:"score"`
	Reasons []string `json:"reasons"`
}

// DisplayScore clamps the score to [0, 100] for the dashboard meter. The
// raw score is unclamped.
func (a Assessment) DisplayScore() int {
	if a.Score < 0 {
		return 0
	}
	if a.Score > 100 {
		return 100
	}
	return a.Score
}

// Service computes trust assessments
type Service struct {
	attempts attempt.Repository
	registry sessions.Repository
}

// NewService creates a new trust service
func NewService(attempts attempt.Repository, registry sessions.Repository) *Service {
	return &Service{
		attempts: attempts,
		registry: registry,
	}
}

// Assess classifies the device presenting currentUserAgent from currentIP for
// the given account. Deterministic given the ledger and registry snapshots.
// On storage read failure the error is returned and callers skip the
// assessment; an absent assessment means "unknown trust", never a blocked
// login.
func (s *Service) Assess(ctx context.Context, accountID uuid.UUID, currentUserAgent, currentIP string) (Assessment, error) {
	successful, err := s.attempts.ListSuccessful(ctx, accountID)
	if err != nil {
		return Assessment{}, fmt.Errorf("failed to fetch successful attempts: %w", err)
	}

	if len(successful) == 0 {
		return Assessment{
			Level:   LevelRisky,
			Score:   0,
			Reasons: []string{"First login from this device"},
		}, nil
	}

	score := 0
	reasons := []string{}

	sameUserAgentCount := 0
	for _, a := range successful {
		if a.UserAgent == currentUserAgent {
			sameUserAgentCount++
		}
	}

	if sameUserAgentCount > 0 {
		score += knownUserAgentBonus
		reasons = append(reasons, fmt.Sprintf("Used %d time(s) before", sameUserAgentCount))
	} else {
		score -= newUserAgentPenalty
		reasons = append(reasons, "New browser detected")
	}

	registered, err := s.registry.ListByAccount(ctx, accountID)
	if err != nil {
		return Assessment{}, fmt.Errorf("failed to fetch device sessions: %w", err)
	}

	hasSession := false
	for _, sess := range registered {
		if sess.UserAgent == currentUserAgent {
			hasSession = true
			break
		}
	}
	if hasSession {
		score += knownSessionBonus
		reasons = append(reasons, "Previously recognized device")
	}

	sameIPCount := 0
	if currentIP != "" && currentIP != "Unknown" {
		for _, a := range successful {
			if a.IPAddress != "" && a.IPAddress != "Unknown" && a.IPAddress == currentIP {
				sameIPCount++
			}
		}
	}
	if sameIPCount > frequentIPMinAttempts {
		score += frequentIPBonus
		reasons = append(reasons, "Frequent IP address")
	} else if sameUserAgentCount == 0 && len(successful) > newComboMinHistory {
		score -= newComboPenalty
		reasons = append(reasons, "New device/IP combination")
	}

	// The session bonus stacks with the recognition bonus, but the reason is
	// only listed once for the same underlying fact.
	if hasSession {
		score += activeSessionBonus
		if !contains(reasons, "Previously recognized device") {
			reasons = append(reasons, "Active session exists")
		}
	}

	assessment := Assessment{Level: levelFor(score), Score: score, Reasons: reasons}
	slog.Debug("Computed device trust assessment",
		"accountID", accountID,
		"level", assessment.Level,
		"score", assessment.Score,
		"reasons", assessment.Reasons)

	return assessment, nil
}

// levelFor maps a raw score to its classification. Both thresholds are
// inclusive.
func levelFor(score int) Level {
	switch {
	case score >= trustedThreshold:
		return LevelTrusted
	case score >= recognizedThreshold:
		return LevelRecognized
	default:
		return LevelRisky
	}
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
