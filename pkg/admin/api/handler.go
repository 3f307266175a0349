package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/trustedge/device-trust/pkg/admin"
)

const defaultActivityLimit = 10

// Handler handles the operator dashboard endpoints
type Handler struct {
	service *admin.Service
}

// NewHandler creates a new admin handler
func NewHandler(service *admin.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes registers the admin routes. Mount these behind an
// operator-only authentication layer.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/overview", h.GetOverview)
	r.Get("/activity", h.GetActivity)
}

// GetOverview handles GET /admin/overview
func (h *Handler) GetOverview(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, h.service.GetOverview(r.Context()))
}

// GetActivity handles GET /admin/activity?limit=N
func (h *Handler) GetActivity(w http.ResponseWriter, r *http.Request) {
	limit := defaultActivityLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]interface{}{
		"activity": h.service.RecentActivity(r.Context(), limit),
	})
}
