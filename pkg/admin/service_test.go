package admin

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

const uaChrome = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func setupAdminService(t *testing.T) (*Service, *attempt.Service, *sessions.FileRepository) {
	tempDir := filepath.Join(os.TempDir(), "admin-test-"+uuid.New().String())
	require.NoError(t, os.MkdirAll(tempDir, 0755))
	t.Cleanup(func() {
		os.RemoveAll(tempDir)
	})

	attemptRepo, err := attempt.NewFileRepository(tempDir)
	require.NoError(t, err)
	sessionRepo, err := sessions.NewFileRepository(tempDir)
	require.NoError(t, err)

	attempts := attempt.NewService(attemptRepo)
	return NewService(attempts, sessionRepo), attempts, sessionRepo
}

func TestGetOverview(t *testing.T) {
	svc, attempts, sessionRepo := setupAdminService(t)
	ctx := context.Background()
	accountID := uuid.New()

	for i := 0; i < 3; i++ {
		_, err := attempts.Record(ctx, attempt.RecordParams{
			AccountID: accountID,
			Email:     "user@example.com",
			Succeeded: true,
			UserAgent: uaChrome,
			IPAddress: "203.0.113.10",
		})
		require.NoError(t, err)
	}
	_, err := attempts.Record(ctx, attempt.RecordParams{
		Email:     "intruder@example.com",
		Succeeded: false,
		UserAgent: uaChrome,
		IPAddress: "198.51.100.7",
	})
	require.NoError(t, err)

	_, err = sessionRepo.Create(ctx, sessions.UpsertParams{
		AccountID:  accountID,
		UserAgent:  uaChrome,
		DeviceName: "Chrome on Windows 10",
		IPAddress:  "203.0.113.10",
	})
	require.NoError(t, err)

	overview := svc.GetOverview(ctx)
	assert.Equal(t, 4, overview.TotalAttempts)
	assert.Equal(t, 1, overview.FailedAttempts)
	assert.Equal(t, 1, overview.ActiveSessions)
}

func TestGetOverview_Empty(t *testing.T) {
	svc, _, _ := setupAdminService(t)

	overview := svc.GetOverview(context.Background())
	assert.Equal(t, 0, overview.TotalAttempts)
	assert.Equal(t, 0, overview.FailedAttempts)
	assert.Equal(t, 0, overview.ActiveSessions)
}

func TestRecentActivity(t *testing.T) {
	svc, attempts, _ := setupAdminService(t)
	ctx := context.Background()

	emails := []string{"a@example.com", "b@example.com", "c@example.com"}
	for _, email := range emails {
		_, err := attempts.Record(ctx, attempt.RecordParams{
			AccountID: uuid.New(),
			Email:     email,
			Succeeded: true,
			UserAgent: uaChrome,
			IPAddress: "203.0.113.10",
		})
		require.NoError(t, err)
	}

	activity := svc.RecentActivity(ctx, 2)
	require.Len(t, activity, 2)
	assert.Equal(t, "c@example.com", activity[0].Email)
	assert.Equal(t, "b@example.com", activity[1].Email)
}
