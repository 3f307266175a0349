package login

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLoginService(t *testing.T) *Service {
	tempDir := filepath.Join(os.TempDir(), "login-test-"+uuid.New().String())
	require.NoError(t, os.MkdirAll(tempDir, 0755))
	t.Cleanup(func() {
		os.RemoveAll(tempDir)
	})

	repo, err := NewFileRepository(tempDir)
	require.NoError(t, err)

	return NewService(repo)
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := setupLoginService(t)
	ctx := context.Background()

	account, err := svc.Register(ctx, "user@example.com", "correct horse battery staple", false)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, account.ID)
	assert.Equal(t, "user@example.com", account.Email)
	assert.False(t, account.MFAEnabled)
	// The hash is stored, never the password.
	assert.NotEmpty(t, account.PasswordHash)
	assert.NotContains(t, account.PasswordHash, "correct horse")

	authed, err := svc.Authenticate(ctx, "user@example.com", "correct horse battery staple")
	require.NoError(t, err)
	assert.Equal(t, account.ID, authed.ID)
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	svc := setupLoginService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "user@example.com", "right-password", false)
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "user@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrAuthFailed)
}

func TestAuthenticate_UnknownEmail(t *testing.T) {
	svc := setupLoginService(t)

	_, err := svc.Authenticate(context.Background(), "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrAuthFailed)
}

func TestAuthenticate_EmailCaseInsensitive(t *testing.T) {
	svc := setupLoginService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "User@Example.com", "s3cret-password", false)
	require.NoError(t, err)

	authed, err := svc.Authenticate(ctx, "user@example.com", "s3cret-password")
	require.NoError(t, err)
	assert.Equal(t, "User@Example.com", authed.Email)
}

func TestRegister_RequiresEmailAndPassword(t *testing.T) {
	svc := setupLoginService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "", "password", false)
	assert.Error(t, err)

	_, err = svc.Register(ctx, "user@example.com", "", false)
	assert.Error(t, err)
}

func TestSetMFAEnabled(t *testing.T) {
	svc := setupLoginService(t)
	ctx := context.Background()

	account, err := svc.Register(ctx, "user@example.com", "s3cret-password", false)
	require.NoError(t, err)

	require.NoError(t, svc.SetMFAEnabled(ctx, account.ID, true))

	updated, err := svc.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, updated.MFAEnabled)
}

func TestSetMFAEnabled_UnknownAccount(t *testing.T) {
	svc := setupLoginService(t)

	err := svc.SetMFAEnabled(context.Background(), uuid.New(), true)
	assert.Error(t, err)
}

func TestGetAccount_Unknown(t *testing.T) {
	svc := setupLoginService(t)

	_, err := svc.GetAccount(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrAccountNotFound)
}
