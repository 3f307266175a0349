package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/trustedge/device-trust/pkg/errs"
	"github.com/trustedge/device-trust/pkg/recovery"
	"github.com/trustedge/device-trust/pkg/token"
)

// Handler handles the security question endpoints
type Handler struct {
	service *recovery.Service
}

// NewHandler creates a new recovery handler
func NewHandler(service *recovery.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes registers the authenticated recovery routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/questions", h.ListQuestions)
	r.Get("/answers", h.ListConfigured)
	r.Post("/answer", h.SaveAnswer)
}

// SaveAnswerRequest is the request body for configuring an answer
type SaveAnswerRequest struct {
	QuestionID uuid.UUID `json:"question_id"`
	Answer     string    `json:"answer"`
}

// ConfiguredView lists the questions the account has answered
type ConfiguredView struct {
	QuestionIDs []uuid.UUID `json:"question_ids"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// ListQuestions handles GET /recovery/questions
func (h *Handler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.service.Questions(r.Context())
	if err != nil {
		slog.Error("Failed to list security questions", "error", err)
		renderError(w, r, errs.Wrap(err, errs.CodeInternal, "Failed to load questions"))
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]interface{}{"questions": questions})
}

// ListConfigured handles GET /recovery/answers
func (h *Handler) ListConfigured(w http.ResponseWriter, r *http.Request) {
	accountID, err := token.AccountID(r)
	if err != nil {
		renderError(w, r, errs.New(errs.CodeNotAuthenticated, "Not authenticated"))
		return
	}

	answers, err := h.service.Configured(r.Context(), accountID)
	if err != nil {
		slog.Error("Failed to list security answers", "accountID", accountID, "error", err)
		renderError(w, r, errs.Wrap(err, errs.CodeInternal, "Failed to load answers"))
		return
	}

	view := ConfiguredView{QuestionIDs: make([]uuid.UUID, 0, len(answers))}
	for _, a := range answers {
		view.QuestionIDs = append(view.QuestionIDs, a.QuestionID)
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, view)
}

// SaveAnswer handles POST /recovery/answer
func (h *Handler) SaveAnswer(w http.ResponseWriter, r *http.Request) {
	accountID, err := token.AccountID(r)
	if err != nil {
		renderError(w, r, errs.New(errs.CodeNotAuthenticated, "Not authenticated"))
		return
	}

	var req SaveAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, errs.New(errs.CodeInvalidInput, "Invalid request body"))
		return
	}
	if req.QuestionID == uuid.Nil || req.Answer == "" {
		renderError(w, r, errs.New(errs.CodeInvalidInput, "Question and answer are required"))
		return
	}

	if _, err := h.service.SetAnswer(r.Context(), accountID, req.QuestionID, req.Answer); err != nil {
		if errors.Is(err, recovery.ErrQuestionNotFound) {
			renderError(w, r, errs.New(errs.CodeNotFound, "Security question not found"))
			return
		}
		slog.Error("Failed to save security answer", "accountID", accountID, "error", err)
		renderError(w, r, errs.Wrap(err, errs.CodeInternal, "Failed to save answer"))
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]string{
		"status":  "success",
		"message": "Security question configured",
	})
}

// renderError renders a structured error with its mapped HTTP status
func renderError(w http.ResponseWriter, r *http.Request, e *errs.Error) {
	render.Status(r, e.HTTPStatusCode())
	render.JSON(w, r, ErrorResponse{
		Status:  "error",
		Code:    string(e.Code),
		Message: e.Message,
	})
}
