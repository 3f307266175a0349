package attempt

import (
	"time"

	"github.com/google/uuid"
)

// LoginAttempt is one appended authentication attempt. Records are immutable
// once written; they are never updated or deleted by this package.
type LoginAttempt struct {
	ID        uuid.UUID `json:"id"`
	AccountID uuid.UUID `json:"account_id"` // uuid.Nil when the account is unknown (failed attempts)
	Email     string    `json:"email"`
	Succeeded bool      `json:"succeeded"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	CreatedAt time.Time `json:"created_at"`
}

// RecordParams carries the fields of a new attempt. ID and CreatedAt are
// assigned by the repository.
type RecordParams struct {
	AccountID uuid.UUID
	Email     string
	Succeeded bool
	UserAgent string
	IPAddress string
}

// ActivityEntry is the listing view of an attempt, decorated with the short
// device label derived from the stored user agent.
type ActivityEntry struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Status    string    `json:"status"` // "success" or "failed"
	Device    string    `json:"device"`
	UserAgent string    `json:"user_agent,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
