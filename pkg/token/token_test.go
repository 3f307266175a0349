package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMint(t *testing.T) {
	svc := NewService("test-secret", "device-trust-test")
	accountID := uuid.New()
	sessionID := uuid.New()

	signed, expiresAt, err := svc.Mint(accountID, "user@example.com", sessionID)
	require.NoError(t, err)
	assert.NotEmpty(t, signed)
	assert.WithinDuration(t, time.Now().UTC().Add(DefaultExpiry), expiresAt, 5*time.Second)

	var claims Claims
	parsed, err := jwt.ParseWithClaims(signed, &claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	assert.Equal(t, accountID.String(), claims.Subject)
	assert.Equal(t, sessionID.String(), claims.ID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, "device-trust-test", claims.Issuer)
}

func TestMint_NilSessionID(t *testing.T) {
	svc := NewService("test-secret", "device-trust-test")

	signed, _, err := svc.Mint(uuid.New(), "user@example.com", uuid.Nil)
	require.NoError(t, err)

	var claims Claims
	_, err = jwt.ParseWithClaims(signed, &claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil.String(), claims.ID)
}

func TestMint_RejectedWithWrongSecret(t *testing.T) {
	svc := NewService("test-secret", "device-trust-test")

	signed, _, err := svc.Mint(uuid.New(), "user@example.com", uuid.New())
	require.NoError(t, err)

	var claims Claims
	_, err = jwt.ParseWithClaims(signed, &claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("other-secret"), nil
	})
	assert.Error(t, err)
}

func TestAuth_VerifiesMintedToken(t *testing.T) {
	svc := NewService("test-secret", "device-trust-test")

	signed, _, err := svc.Mint(uuid.New(), "user@example.com", uuid.New())
	require.NoError(t, err)

	decoded, err := svc.Auth().Decode(signed)
	require.NoError(t, err)

	email, ok := decoded.Get("email")
	require.True(t, ok)
	assert.Equal(t, "user@example.com", email)
}
