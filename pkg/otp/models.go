package otp

import (
	"time"
)

// ChallengeTTL is how long an issued code stays valid. The displayed
// countdown is derived from the stored expiry; it carries no authority of
// its own.
const ChallengeTTL = 120 * time.Second

// CodeLength is the number of digits in a challenge code
const CodeLength = 6

// Challenge is the single pending one-time passcode for a scope key
// (typically the account ID of an authenticated-but-unverified login).
// Issuing a new challenge for the same scope supersedes this one.
type Challenge struct {
	ScopeKey  string    `json:"scope_key"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the challenge is past its stored expiry
func (c Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// TimeRemaining returns the advisory countdown until expiry, floored at zero.
func (c Challenge) TimeRemaining(now time.Time) time.Duration {
	remaining := c.ExpiresAt.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}
