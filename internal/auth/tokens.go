// Package auth issues and verifies the bearer tokens presented on
// habit-scoped requests. Tokens are HS256 JWTs carrying a fixed claims
// struct; the only claim ever read back is the subject (user id), and
// expiry is enforced by the JWT library at parse time.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	serrors "github.com/habitloop/habitloop/internal/errors"
)

const issuer = "habitloop"

// Claims is the fixed token payload. Subject holds the user id.
type Claims struct {
	jwt.RegisteredClaims
}

// Manager signs and verifies tokens with a shared secret.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewManager creates a token manager. A zero ttl defaults to 30 minutes.
func NewManager(secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock overrides the time source. Tests use it to mint expired tokens.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Issue returns a signed token for the user, valid for the configured TTL.
func (m *Manager) Issue(userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user id is required")
	}
	now := m.now().UTC()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify parses the token and returns its subject. Malformed tokens, bad
// signatures, expired tokens, and missing subjects all collapse into one
// generic Unauthenticated error so the failing check never leaks.
func (m *Manager) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return "", serrors.InvalidToken(err)
	}
	if !token.Valid {
		return "", serrors.InvalidToken(nil)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return "", serrors.InvalidToken(nil)
	}
	return claims.Subject, nil
}
