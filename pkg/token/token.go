// Package token mints and validates the access tokens handed out once a
// login is fully verified, and exposes the jwtauth verifier used by the
// authenticated route groups.
package token

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultExpiry is how long an access token stays valid
const DefaultExpiry = 1 * time.Hour

// Claims carried by an access token
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Service mints HS256 access tokens
type Service struct {
	secret []byte
	issuer string
	expiry time.Duration
	auth   *jwtauth.JWTAuth
}

// NewService creates a token service
func NewService(secret, issuer string) *Service {
	return &Service{
		secret: []byte(secret),
		issuer: issuer,
		expiry: DefaultExpiry,
		auth:   jwtauth.New("HS256", []byte(secret), nil),
	}
}

// Mint creates a signed token for a verified account. The session ID is the
// token's jti, which ties the token back to the device session it was
// minted for.
func (s *Service) Mint(accountID uuid.UUID, email string, sessionID uuid.UUID) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(s.expiry)

	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-5 * time.Minute)),
			Issuer:    s.issuer,
			ID:        sessionID.String(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Auth returns the verifier for chi's jwtauth middleware
func (s *Service) Auth() *jwtauth.JWTAuth {
	return s.auth
}

// AccountID extracts the authenticated account ID from a request processed
// by the jwtauth middleware.
func AccountID(r *http.Request) (uuid.UUID, error) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return uuid.Nil, fmt.Errorf("no token in context: %w", err)
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("token has no subject")
	}

	accountID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid subject in token: %w", err)
	}
	return accountID, nil
}

// SessionID extracts the session hint (jti) from a request processed by the
// jwtauth middleware. Returns uuid.Nil when absent or malformed.
func SessionID(r *http.Request) uuid.UUID {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return uuid.Nil
	}

	jti, ok := claims["jti"].(string)
	if !ok {
		return uuid.Nil
	}

	id, err := uuid.Parse(jti)
	if err != nil {
		return uuid.Nil
	}
	return id
}
