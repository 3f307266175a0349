package trust

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trustedge/device-trust/pkg/attempt"
	"github.com/trustedge/device-trust/pkg/sessions"
)

const (
	uaChrome  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	uaFirefox = "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"
	homeIP    = "203.0.113.10"
	otherIP   = "198.51.100.7"
)

func setupTrustService(t *testing.T) (*Service, *attempt.FileRepository, *sessions.FileRepository) {
	tempDir := filepath.Join(os.TempDir(), "trust-test-"+uuid.New().String())
	require.NoError(t, os.MkdirAll(tempDir, 0755))
	t.Cleanup(func() {
		os.RemoveAll(tempDir)
	})

	attemptRepo, err := attempt.NewFileRepository(tempDir)
	require.NoError(t, err)
	sessionRepo, err := sessions.NewFileRepository(tempDir)
	require.NoError(t, err)

	return NewService(attemptRepo, sessionRepo), attemptRepo, sessionRepo
}

func recordSuccess(t *testing.T, repo *attempt.FileRepository, accountID uuid.UUID, userAgent, ip string) {
	t.Helper()
	_, err := repo.Record(context.Background(), attempt.RecordParams{
		AccountID: accountID,
		Email:     "user@example.com",
		Succeeded: true,
		UserAgent: userAgent,
		IPAddress: ip,
	})
	require.NoError(t, err)
}

func TestAssess_FirstLogin(t *testing.T) {
	svc, _, _ := setupTrustService(t)
	accountID := uuid.New()

	assessment, err := svc.Assess(context.Background(), accountID, uaChrome, homeIP)
	require.NoError(t, err)

	assert.Equal(t, LevelRisky, assessment.Level)
	assert.Equal(t, 0, assessment.Score)
	assert.Equal(t, []string{"First login from this device"}, assessment.Reasons)
}

func TestAssess_FirstLoginIgnoresFailedAttempts(t *testing.T) {
	svc, attemptRepo, _ := setupTrustService(t)
	accountID := uuid.New()

	// Failed attempts carry no account ID and never count as history.
	_, err := attemptRepo.Record(context.Background(), attempt.RecordParams{
		Email:     "user@example.com",
		Succeeded: false,
		UserAgent: uaChrome,
		IPAddress: homeIP,
	})
	require.NoError(t, err)

	assessment, err := svc.Assess(context.Background(), accountID, uaChrome, homeIP)
	require.NoError(t, err)
	assert.Equal(t, LevelRisky, assessment.Level)
	assert.Equal(t, []string{"First login from this device"}, assessment.Reasons)
}

func TestAssess_KnownUserAgent(t *testing.T) {
	svc, attemptRepo, _ := setupTrustService(t)
	accountID := uuid.New()

	recordSuccess(t, attemptRepo, accountID, uaChrome, homeIP)
	recordSuccess(t, attemptRepo, accountID, uaChrome, otherIP)

	assessment, err := svc.Assess(context.Background(), accountID, uaChrome, otherIP)
	require.NoError(t, err)

	// +40 for the known user agent, nothing else.
	assert.Equal(t, 40, assessment.Score)
	assert.Equal(t, LevelRecognized, assessment.Level)
	assert.Contains(t, assessment.Reasons, "Used 2 time(s) before")
}

func TestAssess_NewBrowserShortHistory(t *testing.T) {
	svc, attemptRepo, _ := setupTrustService(t)
	accountID := uuid.New()

	recordSuccess(t, attemptRepo, accountID, uaChrome, homeIP)

	assessment, err := svc.Assess(context.Background(), accountID, uaFirefox, homeIP)
	require.NoError(t, err)

	// -20 for the unseen user agent; the new-combination penalty needs more
	// than five prior logins, so it does not apply here.
	assert.Equal(t, -20, assessment.Score)
	assert.Equal(t, LevelRisky, assessment.Level)
	assert.Contains(t, assessment.Reasons, "New browser detected")
	assert.NotContains(t, assessment.Reasons, "New device/IP combination")
	assert.Equal(t, 0, assessment.DisplayScore())
}

func TestAssess_NewDeviceIPCombination(t *testing.T) {
	svc, attemptRepo, _ := setupTrustService(t)
	accountID := uuid.New()

	for i := 0; i < 6; i++ {
		recordSuccess(t, attemptRepo, accountID, uaChrome, homeIP)
	}

	assessment, err := svc.Assess(context.Background(), accountID, uaFirefox, otherIP)
	require.NoError(t, err)

	// -20 new browser, -15 new device/IP combination.
	assert.Equal(t, -35, assessment.Score)
	assert.Equal(t, LevelRisky, assessment.Level)
	assert.Contains(t, assessment.Reasons, "New browser detected")
	assert.Contains(t, assessment.Reasons, "New device/IP combination")
	assert.Equal(t, 0, assessment.DisplayScore())
}

func TestAssess_FrequentIP(t *testing.T) {
	svc, attemptRepo, _ := setupTrustService(t)
	accountID := uuid.New()

	// Four prior logins from the same IP clears the >3 bar.
	for i := 0; i < 4; i++ {
		recordSuccess(t, attemptRepo, accountID, uaChrome, homeIP)
	}

	assessment, err := svc.Assess(context.Background(), accountID, uaChrome, homeIP)
	require.NoError(t, err)

	// +40 known user agent, +20 frequent IP.
	assert.Equal(t, 60, assessment.Score)
	assert.Equal(t, LevelRecognized, assessment.Level)
	assert.Contains(t, assessment.Reasons, "Frequent IP address")
}

func TestAssess_RegisteredSessionMakesTrusted(t *testing.T) {
	svc, attemptRepo, sessionRepo := setupTrustService(t)
	accountID := uuid.New()

	recordSuccess(t, attemptRepo, accountID, uaChrome, homeIP)
	_, err := sessionRepo.Create(context.Background(), sessions.UpsertParams{
		AccountID:  accountID,
		UserAgent:  uaChrome,
		DeviceName: "Chrome on Windows 10",
		IPAddress:  homeIP,
	})
	require.NoError(t, err)

	assessment, err := svc.Assess(context.Background(), accountID, uaChrome, otherIP)
	require.NoError(t, err)

	// +40 known user agent, +30 recognized session, +10 session bonus.
	assert.Equal(t, 80, assessment.Score)
	assert.Equal(t, LevelTrusted, assessment.Level)
	assert.Contains(t, assessment.Reasons, "Previously recognized device")
	// The stacked session bonus does not repeat the same fact.
	assert.NotContains(t, assessment.Reasons, "Active session exists")
}

func TestAssess_SessionWithUnseenUserAgent(t *testing.T) {
	svc, attemptRepo, sessionRepo := setupTrustService(t)
	accountID := uuid.New()

	recordSuccess(t, attemptRepo, accountID, uaChrome, homeIP)
	_, err := sessionRepo.Create(context.Background(), sessions.UpsertParams{
		AccountID: accountID,
		UserAgent: uaFirefox,
	})
	require.NoError(t, err)

	assessment, err := svc.Assess(context.Background(), accountID, uaFirefox, homeIP)
	require.NoError(t, err)

	// -20 new browser, +30 session, +10 session bonus: below the
	// recognized threshold of 30.
	assert.Equal(t, 20, assessment.Score)
	assert.Equal(t, LevelRisky, assessment.Level)
}

func TestAssess_IgnoresUnknownIPPlaceholder(t *testing.T) {
	svc, attemptRepo, _ := setupTrustService(t)
	accountID := uuid.New()

	for i := 0; i < 4; i++ {
		recordSuccess(t, attemptRepo, accountID, uaChrome, "Unknown")
	}

	assessment, err := svc.Assess(context.Background(), accountID, uaChrome, "Unknown")
	require.NoError(t, err)

	// "Unknown" placeholder IPs never count towards the frequency bonus.
	assert.Equal(t, 40, assessment.Score)
	assert.NotContains(t, assessment.Reasons, "Frequent IP address")
}

func TestAssess_Deterministic(t *testing.T) {
	svc, attemptRepo, _ := setupTrustService(t)
	accountID := uuid.New()

	recordSuccess(t, attemptRepo, accountID, uaChrome, homeIP)
	recordSuccess(t, attemptRepo, accountID, uaChrome, homeIP)

	first, err := svc.Assess(context.Background(), accountID, uaChrome, homeIP)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := svc.Assess(context.Background(), accountID, uaChrome, homeIP)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestLevelFor_ThresholdBoundaries(t *testing.T) {
	tests := []struct {
		score int
		level Level
	}{
		{-35, LevelRisky},
		{0, LevelRisky},
		{29, LevelRisky},
		{30, LevelRecognized},
		{69, LevelRecognized},
		{70, LevelTrusted},
		{100, LevelTrusted},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.level, levelFor(tc.score), "score %d", tc.score)
	}
}

func TestDisplayScore_Clamps(t *testing.T) {
	assert.Equal(t, 0, Assessment{Score: -35}.DisplayScore())
	assert.Equal(t, 0, Assessment{Score: 0}.DisplayScore())
	assert.Equal(t, 55, Assessment{Score: 55}.DisplayScore())
	assert.Equal(t, 100, Assessment{Score: 100}.DisplayScore())
	assert.Equal(t, 100, Assessment{Score: 120}.DisplayScore())
}
