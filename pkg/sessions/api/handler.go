package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/trustedge/device-trust/pkg/sessions"
	"github.com/trustedge/device-trust/pkg/token"
)

// Handler handles HTTP requests for device session management
type Handler struct {
	service *sessions.Service
}

// NewHandler creates a new session handler
func NewHandler(service *sessions.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes registers the session management routes.
// These routes must be mounted under an authenticated route group.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.ListSessions)
	r.Post("/revoke", h.RevokeSession)
	r.Post("/revoke-all", h.RevokeAllSessions)
}

// RevokeSessionRequest is the request body for revoking one session
type RevokeSessionRequest struct {
	SessionID uuid.UUID `json:"session_id"`
}

// SessionView is one session row as rendered to the client
type SessionView struct {
	ID           uuid.UUID `json:"id"`
	DeviceName   string    `json:"device_name"`
	Browser      string    `json:"browser"`
	OS           string    `json:"os"`
	DeviceType   string    `json:"device_type"`
	IPAddress    string    `json:"ip_address,omitempty"`
	Location     string    `json:"location"`
	LastActiveAt string    `json:"last_active_at"`
	CreatedAt    string    `json:"created_at"`
	IsCurrent    bool      `json:"is_current"`
}

// ListSessionsResponse is the response body for listing sessions
type ListSessionsResponse struct {
	Sessions    []SessionView `json:"sessions"`
	Total       int           `json:"total"`
	ActiveCount int           `json:"active_count"`
}

// ListSessions handles GET /sessions - list the caller's device sessions
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	accountID, err := token.AccountID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	listing, err := h.service.ListSummaries(r.Context(), accountID, r.UserAgent())
	if err != nil {
		slog.Error("Failed to list sessions", "accountID", accountID, "error", err)
		http.Error(w, "Failed to list sessions", http.StatusInternalServerError)
		return
	}

	views := make([]SessionView, 0, len(listing.Sessions))
	for _, summary := range listing.Sessions {
		var view SessionView
		if err := copier.Copy(&view, &summary); err != nil {
			slog.Error("Failed to map session summary", "sessionID", summary.ID, "error", err)
			continue
		}
		view.LastActiveAt = summary.LastActiveAt.UTC().Format("2006-01-02T15:04:05Z07:00")
		view.CreatedAt = summary.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
		views = append(views, view)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ListSessionsResponse{
		Sessions:    views,
		Total:       listing.Total,
		ActiveCount: listing.ActiveCount,
	})
}

// RevokeSession handles POST /sessions/revoke - revoke one session the
// caller owns
func (h *Handler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	accountID, err := token.AccountID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req RevokeSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == uuid.Nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.Revoke(r.Context(), accountID, req.SessionID); err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			// Not-found and not-yours collapse to the same answer so a
			// caller cannot probe for other accounts' session IDs.
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}
		slog.Error("Failed to revoke session", "sessionID", req.SessionID, "error", err)
		http.Error(w, "Failed to revoke session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Session revoked successfully",
	})
}

// RevokeAllSessions handles POST /sessions/revoke-all - revoke every session
// except the one the presented token was minted for
func (h *Handler) RevokeAllSessions(w http.ResponseWriter, r *http.Request) {
	accountID, err := token.AccountID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	currentID := token.SessionID(r)

	if err := h.service.RevokeAllExcept(r.Context(), accountID, currentID); err != nil {
		if errors.Is(err, sessions.ErrRefusingFullRevoke) {
			http.Error(w, "Current session unknown, refusing to revoke all sessions", http.StatusBadRequest)
			return
		}
		slog.Error("Failed to revoke sessions", "accountID", accountID, "error", err)
		http.Error(w, "Failed to revoke sessions", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "All other sessions revoked successfully",
	})
}
