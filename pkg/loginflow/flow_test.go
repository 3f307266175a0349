package loginflow

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trustedge/device-trust/pkg/attempt"
	"github.com/trustedge/device-trust/pkg/login"
	"github.com/trustedge/device-trust/pkg/notification"
	"github.com/trustedge/device-trust/pkg/otp"
	"github.com/trustedge/device-trust/pkg/sessions"
	"github.com/trustedge/device-trust/pkg/token"
	"github.com/trustedge/device-trust/pkg/trust"
)

const (
	uaChrome = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	testIP   = "203.0.113.10"
)

var codePattern = regexp.MustCompile(`\b(\d{6})\b`)

type flowFixture struct {
	flow     *Flow
	logins   *login.Service
	attempts *attempt.Service
	notifier *notification.MockNotifier
}

func setupFlow(t *testing.T) *flowFixture {
	tempDir := filepath.Join(os.TempDir(), "loginflow-test-"+uuid.New().String())
	require.NoError(t, os.MkdirAll(tempDir, 0755))
	t.Cleanup(func() {
		os.RemoveAll(tempDir)
	})

	accountRepo, err := login.NewFileRepository(tempDir)
	require.NoError(t, err)
	attemptRepo, err := attempt.NewFileRepository(tempDir)
	require.NoError(t, err)
	sessionRepo, err := sessions.NewFileRepository(tempDir)
	require.NoError(t, err)
	otpRepo, err := otp.NewFileRepository(tempDir)
	require.NoError(t, err)

	notifier := notification.NewMockNotifier()
	manager := notification.NewManager()
	manager.Register(notification.EmailSystem, notifier)

	logins := login.NewService(accountRepo)
	attempts := attempt.NewService(attemptRepo)

	flow := NewFlow(
		logins,
		attempts,
		sessions.NewService(sessionRepo, nil),
		trust.NewService(attemptRepo, sessionRepo),
		otp.NewService(otpRepo),
		token.NewService("flow-test-secret", "device-trust-test"),
		manager,
	)

	return &flowFixture{flow: flow, logins: logins, attempts: attempts, notifier: notifier}
}

func (f *flowFixture) register(t *testing.T, email, password string, mfa bool) login.Account {
	t.Helper()
	account, err := f.logins.Register(context.Background(), email, password, mfa)
	require.NoError(t, err)
	return account
}

func (f *flowFixture) lastDeliveredCode(t *testing.T) string {
	t.Helper()
	sent := f.notifier.Sent()
	require.NotEmpty(t, sent)
	match := codePattern.FindStringSubmatch(sent[len(sent)-1].Body)
	require.Len(t, match, 2)
	return match[1]
}

func TestLogin_WithoutMFA(t *testing.T) {
	fixture := setupFlow(t)
	ctx := context.Background()
	account := fixture.register(t, "user@example.com", "s3cret-password", false)

	result, err := fixture.flow.Login(ctx, Request{
		Email:     "user@example.com",
		Password:  "s3cret-password",
		UserAgent: uaChrome,
		IPAddress: testIP,
	})
	require.NoError(t, err)

	assert.True(t, result.Verified)
	assert.False(t, result.OTPRequired)
	assert.Equal(t, account.ID, result.AccountID)
	assert.NotEmpty(t, result.Token)
	require.NotNil(t, result.Session)
	assert.Equal(t, uaChrome, result.Session.UserAgent)
	require.NotNil(t, result.Trust)
	// The attempt is recorded before scoring, so the very first login
	// already counts itself.
	assert.Contains(t, result.Trust.Reasons, "Used 1 time(s) before")

	// Nothing was sent: no second factor on this account.
	assert.Empty(t, fixture.notifier.Sent())
}

func TestLogin_BadPasswordRecordsFailedAttempt(t *testing.T) {
	fixture := setupFlow(t)
	ctx := context.Background()
	fixture.register(t, "user@example.com", "s3cret-password", false)

	_, err := fixture.flow.Login(ctx, Request{
		Email:     "user@example.com",
		Password:  "wrong",
		UserAgent: uaChrome,
		IPAddress: testIP,
	})
	assert.ErrorIs(t, err, ErrAuthFailed)

	assert.Equal(t, 1, fixture.attempts.CountFailed(ctx, "user@example.com"))
}

func TestLogin_UnknownEmail(t *testing.T) {
	fixture := setupFlow(t)
	ctx := context.Background()

	_, err := fixture.flow.Login(ctx, Request{
		Email:     "nobody@example.com",
		Password:  "whatever",
		UserAgent: uaChrome,
		IPAddress: testIP,
	})
	assert.ErrorIs(t, err, ErrAuthFailed)

	// The failed probe still lands in the ledger, without an account ID.
	assert.Equal(t, 1, fixture.attempts.CountFailed(ctx, "nobody@example.com"))
}

func TestLogin_WithMFA(t *testing.T) {
	fixture := setupFlow(t)
	ctx := context.Background()
	account := fixture.register(t, "user@example.com", "s3cret-password", true)

	result, err := fixture.flow.Login(ctx, Request{
		Email:     "user@example.com",
		Password:  "s3cret-password",
		UserAgent: uaChrome,
		IPAddress: testIP,
	})
	require.NoError(t, err)

	assert.True(t, result.OTPRequired)
	assert.False(t, result.Verified)
	// No token until the code is verified.
	assert.Empty(t, result.Token)

	code := fixture.lastDeliveredCode(t)

	verified, err := fixture.flow.VerifyOTP(ctx, account.ID, code)
	require.NoError(t, err)
	assert.True(t, verified.Verified)
	assert.NotEmpty(t, verified.Token)
	assert.Equal(t, account.ID, verified.AccountID)
}

func TestVerifyOTP_WrongCode(t *testing.T) {
	fixture := setupFlow(t)
	ctx := context.Background()
	account := fixture.register(t, "user@example.com", "s3cret-password", true)

	_, err := fixture.flow.Login(ctx, Request{
		Email:     "user@example.com",
		Password:  "s3cret-password",
		UserAgent: uaChrome,
		IPAddress: testIP,
	})
	require.NoError(t, err)

	code := fixture.lastDeliveredCode(t)
	wrong := "000000"
	if wrong == code {
		wrong = "999999"
	}

	_, err = fixture.flow.VerifyOTP(ctx, account.ID, wrong)
	assert.ErrorIs(t, err, ErrOTPInvalidOrExpired)

	// The right code still works after a failed guess.
	result, err := fixture.flow.VerifyOTP(ctx, account.ID, code)
	require.NoError(t, err)
	assert.True(t, result.Verified)
}

func TestVerifyOTP_CodeIsSingleUse(t *testing.T) {
	fixture := setupFlow(t)
	ctx := context.Background()
	account := fixture.register(t, "user@example.com", "s3cret-password", true)

	_, err := fixture.flow.Login(ctx, Request{
		Email:     "user@example.com",
		Password:  "s3cret-password",
		UserAgent: uaChrome,
		IPAddress: testIP,
	})
	require.NoError(t, err)

	code := fixture.lastDeliveredCode(t)

	_, err = fixture.flow.VerifyOTP(ctx, account.ID, code)
	require.NoError(t, err)

	_, err = fixture.flow.VerifyOTP(ctx, account.ID, code)
	assert.ErrorIs(t, err, ErrOTPInvalidOrExpired)
}

func TestResendOTP_SupersedesPreviousCode(t *testing.T) {
	fixture := setupFlow(t)
	ctx := context.Background()
	account := fixture.register(t, "user@example.com", "s3cret-password", true)

	_, err := fixture.flow.Login(ctx, Request{
		Email:     "user@example.com",
		Password:  "s3cret-password",
		UserAgent: uaChrome,
		IPAddress: testIP,
	})
	require.NoError(t, err)
	first := fixture.lastDeliveredCode(t)

	require.NoError(t, fixture.flow.ResendOTP(ctx, account.ID))
	second := fixture.lastDeliveredCode(t)

	if first != second {
		_, err = fixture.flow.VerifyOTP(ctx, account.ID, first)
		assert.ErrorIs(t, err, ErrOTPInvalidOrExpired)
	}

	result, err := fixture.flow.VerifyOTP(ctx, account.ID, second)
	require.NoError(t, err)
	assert.True(t, result.Verified)
}

func TestLogin_RepeatDeviceGainsTrust(t *testing.T) {
	fixture := setupFlow(t)
	ctx := context.Background()
	fixture.register(t, "user@example.com", "s3cret-password", false)

	request := Request{
		Email:     "user@example.com",
		Password:  "s3cret-password",
		UserAgent: uaChrome,
		IPAddress: testIP,
	}

	first, err := fixture.flow.Login(ctx, request)
	require.NoError(t, err)
	require.NotNil(t, first.Trust)

	second, err := fixture.flow.Login(ctx, request)
	require.NoError(t, err)
	require.NotNil(t, second.Trust)

	// Same device again: the registered session now contributes.
	assert.GreaterOrEqual(t, second.Trust.Score, first.Trust.Score)
	assert.Contains(t, second.Trust.Reasons, "Previously recognized device")
	assert.Equal(t, trust.LevelTrusted, second.Trust.Level)
}
