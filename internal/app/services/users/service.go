// Package users manages user registration and credential verification.
package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/habitloop/habitloop/internal/app/domain/user"
	"github.com/habitloop/habitloop/internal/app/storage"
	serrors "github.com/habitloop/habitloop/internal/errors"
	"github.com/habitloop/habitloop/pkg/logger"
)

// Service registers and authenticates users.
type Service struct {
	store storage.UserStore
	log   *logger.Logger
	now   func() time.Time
}

// New constructs a user service.
func New(store storage.UserStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("users")
	}
	return &Service{store: store, log: log, now: time.Now}
}

// WithClock overrides the time source for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Register creates a user with the given credentials. Usernames are unique
// and case-sensitive.
func (s *Service) Register(ctx context.Context, username, password string) (user.User, error) {
	if username == "" {
		return user.User{}, serrors.Validation("username is required")
	}
	if password == "" {
		return user.User{}, serrors.Validation("password is required")
	}

	if _, err := s.store.GetUserByUsername(ctx, username); err == nil {
		return user.User{}, serrors.Validation("username already taken")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return user.User{}, fmt.Errorf("check username: %w", err)
	}

	u, err := user.New(username, password, s.now())
	if err != nil {
		return user.User{}, fmt.Errorf("hash password: %w", err)
	}
	saved, err := s.store.SaveUser(ctx, u)
	if err != nil {
		return user.User{}, fmt.Errorf("save user: %w", err)
	}
	s.log.WithField("user_id", saved.ID).Info("user registered")
	return saved, nil
}

// Authenticate verifies a username/password pair. Unknown usernames and
// wrong passwords both return the same generic failure so account existence
// never leaks.
func (s *Service) Authenticate(ctx context.Context, username, password string) (user.User, error) {
	u, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return user.User{}, serrors.AuthenticationFailed()
		}
		return user.User{}, fmt.Errorf("lookup user: %w", err)
	}
	if !u.VerifyPassword(password) {
		return user.User{}, serrors.AuthenticationFailed()
	}
	return u, nil
}

// Get returns the user with the given id.
func (s *Service) Get(ctx context.Context, id string) (user.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return user.User{}, serrors.NotFound(fmt.Sprintf("user %s not found", id))
		}
		return user.User{}, err
	}
	return u, nil
}
