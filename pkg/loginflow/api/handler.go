package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/trustedge/device-trust/pkg/errs"
	"github.com/trustedge/device-trust/pkg/loginflow"
	"github.com/trustedge/device-trust/pkg/trust"
)

// Handler handles the login and OTP verification endpoints
type Handler struct {
	flow *loginflow.Flow
}

// NewHandler creates a new login flow handler
func NewHandler(flow *loginflow.Flow) *Handler {
	return &Handler{
		flow: flow,
	}
}

// RegisterRoutes registers the unauthenticated login flow routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/login", h.Login)
	r.Post("/otp/verify", h.VerifyOTP)
	r.Post("/otp/resend", h.ResendOTP)
}

// LoginRequest is the request body for a login attempt
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyOTPRequest is the request body for completing a pending login
type VerifyOTPRequest struct {
	AccountID uuid.UUID `json:"account_id"`
	Code      string    `json:"code"`
}

// ResendOTPRequest is the request body for requesting a fresh code
type ResendOTPRequest struct {
	AccountID uuid.UUID `json:"account_id"`
}

// TrustView is the trust assessment as rendered to the client
type TrustView struct {
	Level   string   `json:"level"`
	Score   int      `json:"score"`
	Reasons []string `json:"reasons"`
}

// LoginResponse is the response body for login and OTP verification
type LoginResponse struct {
	Status       string     `json:"status"`
	AccountID    string     `json:"account_id,omitempty"`
	OTPRequired  bool       `json:"otp_required"`
	Token        string     `json:"token,omitempty"`
	TokenExpires string     `json:"token_expires,omitempty"`
	Trust        *TrustView `json:"trust,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// Login handles POST /login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, errs.New(errs.CodeInvalidInput, "Invalid request body"))
		return
	}
	if req.Email == "" || req.Password == "" {
		renderError(w, r, errs.New(errs.CodeInvalidInput, "Email and password are required"))
		return
	}

	result, err := h.flow.Login(r.Context(), loginflow.Request{
		Email:     req.Email,
		Password:  req.Password,
		UserAgent: r.UserAgent(),
		IPAddress: clientIP(r),
	})
	if err != nil {
		if errors.Is(err, loginflow.ErrAuthFailed) {
			renderError(w, r, errs.New(errs.CodeAuthFailed, "Invalid email or password"))
			return
		}
		slog.Error("Login failed", "email", req.Email, "error", err)
		renderError(w, r, errs.Wrap(err, errs.CodeInternal, "Login failed"))
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toLoginResponse(result))
}

// VerifyOTP handles POST /otp/verify
func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, errs.New(errs.CodeInvalidInput, "Invalid request body"))
		return
	}
	if req.AccountID == uuid.Nil || req.Code == "" {
		renderError(w, r, errs.New(errs.CodeInvalidInput, "Account ID and code are required"))
		return
	}

	result, err := h.flow.VerifyOTP(r.Context(), req.AccountID, req.Code)
	if err != nil {
		if errors.Is(err, loginflow.ErrOTPInvalidOrExpired) {
			renderError(w, r, errs.New(errs.CodeOTPInvalidOrExpired, "Invalid or expired code"))
			return
		}
		slog.Error("OTP verification failed", "accountID", req.AccountID, "error", err)
		renderError(w, r, errs.Wrap(err, errs.CodeInternal, "Verification failed"))
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toLoginResponse(result))
}

// ResendOTP handles POST /otp/resend
func (h *Handler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req ResendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AccountID == uuid.Nil {
		renderError(w, r, errs.New(errs.CodeInvalidInput, "Invalid request body"))
		return
	}

	if err := h.flow.ResendOTP(r.Context(), req.AccountID); err != nil {
		slog.Error("OTP resend failed", "accountID", req.AccountID, "error", err)
		renderError(w, r, errs.Wrap(err, errs.CodeInternal, "Failed to resend code"))
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]string{
		"status":  "success",
		"message": "A new code has been sent",
	})
}

func toLoginResponse(result loginflow.Result) LoginResponse {
	resp := LoginResponse{
		Status:      "success",
		AccountID:   result.AccountID.String(),
		OTPRequired: result.OTPRequired,
		Token:       result.Token,
		Trust:       toTrustView(result.Trust),
	}
	if !result.TokenExpires.IsZero() {
		resp.TokenExpires = result.TokenExpires.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return resp
}

func toTrustView(assessment *trust.Assessment) *TrustView {
	if assessment == nil {
		return nil
	}
	return &TrustView{
		Level:   string(assessment.Level),
		Score:   assessment.DisplayScore(),
		Reasons: assessment.Reasons,
	}
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

// clientIP extracts the originating client address, preferring the first
// X-Forwarded-For hop when the service sits behind a proxy.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
