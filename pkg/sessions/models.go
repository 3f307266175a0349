package sessions

import (
	"time"

	"github.com/google/uuid"
)

// DeviceSession is one remembered device for an account. The raw user agent
// string is the natural upsert key: at most one live session should exist per
// (account, user agent) pair. Sessions are never expired by time; they are
// deleted only by explicit revoke.
type DeviceSession struct {
	ID           uuid.UUID `json:"id"`
	AccountID    uuid.UUID `json:"account_id"`
	DeviceName   string    `json:"device_name"`
	UserAgent    string    `json:"user_agent"`
	IPAddress    string    `json:"ip_address,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}

// UpsertParams carries the fields refreshed on every login or heartbeat.
type UpsertParams struct {
	AccountID  uuid.UUID
	UserAgent  string
	DeviceName string
	IPAddress  string
}

// SessionSummary is the listing view of a session, decorated with parsed
// device details and best-effort location.
type SessionSummary struct {
	ID           uuid.UUID `json:"id"`
	DeviceName   string    `json:"device_name"`
	Browser      string    `json:"browser"`
	OS           string    `json:"os"`
	DeviceType   string    `json:"device_type"`
	IPAddress    string    `json:"ip_address,omitempty"`
	Location     string    `json:"location"`
	LastActiveAt time.Time `json:"last_active_at"`
	CreatedAt    time.Time `json:"created_at"`
	IsCurrent    bool      `json:"is_current"`
}

// SessionListResponse is the response for listing sessions
type SessionListResponse struct {
	Sessions    []SessionSummary `json:"sessions"`
	Total       int              `json:"total"`
	ActiveCount int              `json:"active_count"`
}
