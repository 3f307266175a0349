// Package loginflow orchestrates one login end to end: credential check,
// attempt recording, device session upsert, trust assessment, and the OTP
// second factor when the account requires it.
package loginflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/trustedge/device-trust/pkg/attempt"
	"github.com/trustedge/device-trust/pkg/deviceinfo"
	"github.com/trustedge/device-trust/pkg/login"
	"github.com/trustedge/device-trust/pkg/notification"
	"github.com/trustedge/device-trust/pkg/otp"
	"github.com/trustedge/device-trust/pkg/sessions"
	"github.com/trustedge/device-trust/pkg/token"
	"github.com/trustedge/device-trust/pkg/trust"
	"github.com/trustedge/device-trust/pkg/utils"
)

// ErrAuthFailed mirrors the identity provider's rejection: bad credentials,
// with the failed attempt already recorded.
var ErrAuthFailed = login.ErrAuthFailed

// ErrOTPInvalidOrExpired mirrors the challenge manager's single failure mode.
var ErrOTPInvalidOrExpired = otp.ErrInvalidOrExpired

// Request carries the client context of one login
type Request struct {
	Email     string
	Password  string
	UserAgent string
	IPAddress string
}

// Result is the outcome of a login or verification step. Exactly one of
// OTPRequired and Verified is set. The trust assessment is nil when scoring
// was skipped because of a storage failure ("unknown trust").
type Result struct {
	AccountID    uuid.UUID               `json:"account_id"`
	Email        string                  `json:"email"`
	OTPRequired  bool                    `json:"otp_required"`
	Verified     bool                    `json:"verified"`
	Token        string                  `json:"token,omitempty"`
	TokenExpires time.Time               `json:"token_expires,omitempty"`
	Session      *sessions.DeviceSession `json:"session,omitempty"`
	Trust        *trust.Assessment       `json:"trust,omitempty"`
}

// Flow wires the security-core services into the login control flow
type Flow struct {
	logins   *login.Service
	attempts *attempt.Service
	registry *sessions.Service
	trust    *trust.Service
	otp      *otp.Service
	tokens   *token.Service
	notify   *notification.Manager
}

// NewFlow creates a login flow
func NewFlow(
	logins *login.Service,
	attempts *attempt.Service,
	registry *sessions.Service,
	trustSvc *trust.Service,
	otpSvc *otp.Service,
	tokens *token.Service,
	notify *notification.Manager,
) *Flow {
	return &Flow{
		logins:   logins,
		attempts: attempts,
		registry: registry,
		trust:    trustSvc,
		otp:      otpSvc,
		tokens:   tokens,
		notify:   notify,
	}
}

// Login runs one authentication attempt through the full flow.
//
// Failures are asymmetric: a bad credential is recorded and rejected, while
// storage trouble on the session upsert or the trust assessment only
// degrades the result. Neither is allowed to block a valid login.
func (f *Flow) Login(ctx context.Context, req Request) (Result, error) {
	account, err := f.logins.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, login.ErrAuthFailed) {
			// Best-effort: the rejection stands even if the ledger is down.
			f.attempts.Record(ctx, attempt.RecordParams{
				Email:     req.Email,
				Succeeded: false,
				UserAgent: req.UserAgent,
				IPAddress: req.IPAddress,
			})
			return Result{}, ErrAuthFailed
		}
		return Result{}, fmt.Errorf("authentication error: %w", err)
	}

	if _, err := f.attempts.Record(ctx, attempt.RecordParams{
		AccountID: account.ID,
		Email:     account.Email,
		Succeeded: true,
		UserAgent: req.UserAgent,
		IPAddress: req.IPAddress,
	}); err != nil {
		slog.Error("Proceeding with login despite unrecorded attempt", "accountID", account.ID, "error", err)
	}

	result := Result{
		AccountID: account.ID,
		Email:     account.Email,
	}

	session, err := f.registry.Upsert(ctx, sessions.UpsertParams{
		AccountID:  account.ID,
		UserAgent:  req.UserAgent,
		DeviceName: deviceinfo.Parse(req.UserAgent).DeviceName,
		IPAddress:  req.IPAddress,
	})
	if err != nil {
		slog.Error("Device session upsert failed, continuing degraded", "accountID", account.ID, "error", err)
	} else {
		result.Session = &session
	}

	assessment, err := f.trust.Assess(ctx, account.ID, req.UserAgent, req.IPAddress)
	if err != nil {
		slog.Error("Trust assessment skipped", "accountID", account.ID, "error", err)
	} else {
		result.Trust = &assessment
	}

	if account.MFAEnabled {
		challenge, err := f.otp.Issue(ctx, account.ID.String())
		if err != nil {
			return Result{}, fmt.Errorf("failed to issue challenge: %w", err)
		}

		f.deliverCode(account.Email, challenge.Code)
		result.OTPRequired = true
		return result, nil
	}

	return f.complete(result)
}

// VerifyOTP completes a pending login by checking the submitted code.
func (f *Flow) VerifyOTP(ctx context.Context, accountID uuid.UUID, submittedCode string) (Result, error) {
	if err := f.otp.Verify(ctx, accountID.String(), submittedCode); err != nil {
		if errors.Is(err, otp.ErrInvalidOrExpired) {
			return Result{}, ErrOTPInvalidOrExpired
		}
		return Result{}, fmt.Errorf("verification error: %w", err)
	}

	account, err := f.logins.GetAccount(ctx, accountID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load account: %w", err)
	}

	return f.complete(Result{AccountID: account.ID, Email: account.Email})
}

// ResendOTP issues a fresh challenge for a pending login, invalidating the
// previous code and resetting the countdown.
func (f *Flow) ResendOTP(ctx context.Context, accountID uuid.UUID) error {
	account, err := f.logins.GetAccount(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to load account: %w", err)
	}

	challenge, err := f.otp.Issue(ctx, accountID.String())
	if err != nil {
		return fmt.Errorf("failed to reissue challenge: %w", err)
	}

	f.deliverCode(account.Email, challenge.Code)
	return nil
}

// complete marks the login verified and mints its access token.
func (f *Flow) complete(result Result) (Result, error) {
	sessionID := uuid.Nil
	if result.Session != nil {
		sessionID = result.Session.ID
	}

	signed, expiresAt, err := f.tokens.Mint(result.AccountID, result.Email, sessionID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to mint token: %w", err)
	}

	result.Verified = true
	result.Token = signed
	result.TokenExpires = expiresAt
	return result, nil
}

// deliverCode hands the code to the out-of-band channel. The code is never
// returned to the requester.
func (f *Flow) deliverCode(email, code string) {
	if f.notify == nil {
		return
	}
	f.notify.SendBestEffort(notification.EmailSystem, notification.Data{
		To:      email,
		Subject: "Your verification code",
		Body:    fmt.Sprintf("Your 6-digit verification code is %s. It expires in 2 minutes.", code),
	})
	slog.Info("Verification code dispatched", "email", utils.MaskEmail(email))
}
