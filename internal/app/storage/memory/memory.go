// Package memory provides an in-memory implementation of the storage
// interfaces. It is safe for concurrent use and is the default backend for
// tests and local development. Contents live for the process lifetime only.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/habitloop/habitloop/internal/app/domain/habit"
	"github.com/habitloop/habitloop/internal/app/domain/user"
	"github.com/habitloop/habitloop/internal/app/storage"
)

// Store holds all records behind one RWMutex. Values are cloned on the way
// in and out so callers never share the entries slice with the store.
type Store struct {
	mu          sync.RWMutex
	users       map[string]user.User
	usersByName map[string]string
	habits      map[string]habit.Habit
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.HabitStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		users:       make(map[string]user.User),
		usersByName: make(map[string]string),
		habits:      make(map[string]habit.Habit),
	}
}

// UserStore implementation ----------------------------------------------------

func (s *Store) SaveUser(_ context.Context, u user.User) (user.User, error) {
	if u.ID == "" {
		return user.User{}, fmt.Errorf("user id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[u.ID] = u
	s.usersByName[u.Username] = u.ID
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	return u, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByName[username]
	if !ok {
		return user.User{}, fmt.Errorf("user %q: %w", username, storage.ErrNotFound)
	}
	u, ok := s.users[id]
	if !ok {
		return user.User{}, fmt.Errorf("user %q: %w", username, storage.ErrNotFound)
	}
	return u, nil
}

func (s *Store) UserExists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.users[id]
	return ok, nil
}

// DeleteUser removes a user record and its username index entry. It exists
// for tests that exercise the vanished-user path; no service operation
// deletes users.
func (s *Store) DeleteUser(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return false, nil
	}
	delete(s.users, id)
	if s.usersByName[u.Username] == id {
		delete(s.usersByName, u.Username)
	}
	return true, nil
}

// HabitStore implementation ---------------------------------------------------

func (s *Store) SaveHabit(_ context.Context, h habit.Habit) (habit.Habit, error) {
	if h.ID == "" {
		return habit.Habit{}, fmt.Errorf("habit id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.habits[h.ID] = cloneHabit(h)
	return h, nil
}

func (s *Store) GetHabit(_ context.Context, id string) (habit.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.habits[id]
	if !ok {
		return habit.Habit{}, fmt.Errorf("habit %s: %w", id, storage.ErrNotFound)
	}
	return cloneHabit(h), nil
}

func (s *Store) HabitExists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.habits[id]
	return ok, nil
}

func (s *Store) DeleteHabit(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.habits[id]; !ok {
		return false, nil
	}
	delete(s.habits, id)
	return true, nil
}

func (s *Store) ListHabits(_ context.Context) ([]habit.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]habit.Habit, 0, len(s.habits))
	for _, h := range s.habits {
		result = append(result, cloneHabit(h))
	}
	return result, nil
}

// Helpers -----------------------------------------------------------------------

func cloneHabit(h habit.Habit) habit.Habit {
	h.Entries = append([]habit.Entry(nil), h.Entries...)
	return h
}
