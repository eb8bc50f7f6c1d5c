package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/habitloop/habitloop/internal/app/services/habits"
	"github.com/habitloop/habitloop/internal/app/services/users"
	"github.com/habitloop/habitloop/internal/app/storage"
	"github.com/habitloop/habitloop/internal/app/storage/memory"
	"github.com/habitloop/habitloop/internal/auth"
	"github.com/habitloop/habitloop/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Users  storage.UserStore
	Habits storage.HabitStore
}

// Application ties the domain services together.
type Application struct {
	log    *logger.Logger
	stores Stores

	Users  *users.Service
	Habits *habits.Service
	Tokens *auth.Manager
}

// New builds a fully initialised application with the provided stores and
// token manager.
func New(stores Stores, tokens *auth.Manager, log *logger.Logger) (*Application, error) {
	if tokens == nil {
		return nil, fmt.Errorf("token manager is required")
	}
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Users == nil {
		stores.Users = mem
	}
	if stores.Habits == nil {
		stores.Habits = mem
	}

	return &Application{
		log:    log,
		stores: stores,
		Users:  users.New(stores.Users, log),
		Habits: habits.New(stores.Habits, log),
		Tokens: tokens,
	}, nil
}

// SeedUsers registers the given username/password pairs, skipping any
// username that already exists. Used to provision accounts at startup.
func (a *Application) SeedUsers(ctx context.Context, seeds map[string]string) error {
	for username, password := range seeds {
		if _, err := a.stores.Users.GetUserByUsername(ctx, username); err == nil {
			// Already registered; leave the existing account untouched.
			continue
		} else if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("check seed user %s: %w", username, err)
		}
		if _, err := a.Users.Register(ctx, username, password); err != nil {
			return fmt.Errorf("seed user %s: %w", username, err)
		}
		a.log.WithField("username", username).Info("seeded user")
	}
	return nil
}
