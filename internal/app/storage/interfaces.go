// Package storage defines the persistence interfaces for the service. The
// contract guarantees no durability; the default implementation is volatile
// and process-lifetime only.
package storage

import (
	"context"
	"errors"

	"github.com/habitloop/habitloop/internal/app/domain/habit"
	"github.com/habitloop/habitloop/internal/app/domain/user"
)

// ErrNotFound is returned (possibly wrapped) when an id has no backing
// record.
var ErrNotFound = errors.New("not found")

// UserStore persists user records indexed by id and by username.
type UserStore interface {
	// SaveUser upserts the record and keeps the username index current.
	// The index is last-writer-wins; usernames are immutable post-creation
	// in the current scope so the case is not exercised.
	SaveUser(ctx context.Context, u user.User) (user.User, error)
	GetUser(ctx context.Context, id string) (user.User, error)
	// GetUserByUsername matches exactly and case-sensitively.
	GetUserByUsername(ctx context.Context, username string) (user.User, error)
	UserExists(ctx context.Context, id string) (bool, error)
}

// HabitStore persists habit aggregates indexed by id.
type HabitStore interface {
	SaveHabit(ctx context.Context, h habit.Habit) (habit.Habit, error)
	GetHabit(ctx context.Context, id string) (habit.Habit, error)
	HabitExists(ctx context.Context, id string) (bool, error)
	// DeleteHabit reports whether a record was removed. No service
	// operation currently invokes it.
	DeleteHabit(ctx context.Context, id string) (bool, error)
	// ListHabits returns all habits in no particular order.
	ListHabits(ctx context.Context) ([]habit.Habit, error)
}
