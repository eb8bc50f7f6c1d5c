// Package user defines the authenticated user entity. Secrets are stored
// only as bcrypt digests and verified with the library's constant-time
// comparison, never by equality.
package user

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// User is immutable after creation within the current scope.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// New creates a user with a freshly hashed password.
func New(username, password string, now time.Time) (User, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	return User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(digest),
		CreatedAt:    now.UTC(),
	}, nil
}

// VerifyPassword reports whether the candidate matches the stored digest.
// An empty candidate never matches.
func (u User) VerifyPassword(password string) bool {
	if password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}
