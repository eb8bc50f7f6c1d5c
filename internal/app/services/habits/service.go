// Package habits implements the habit use-cases: create, read, complete,
// miss, and progress. Every habit-scoped operation checks ownership after
// loading and before touching the aggregate.
package habits

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/habitloop/habitloop/internal/app/domain/habit"
	"github.com/habitloop/habitloop/internal/app/metrics"
	"github.com/habitloop/habitloop/internal/app/storage"
	serrors "github.com/habitloop/habitloop/internal/errors"
	"github.com/habitloop/habitloop/pkg/logger"
)

// Service coordinates habit state transitions against the store.
type Service struct {
	store storage.HabitStore
	log   *logger.Logger
	now   func() time.Time

	// locks serializes the load-mutate-save sequence per habit so
	// concurrent completions cannot read the same base state and lose an
	// increment on the final write.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New constructs a habit service using the wall clock.
func New(store storage.HabitStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("habits")
	}
	return &Service{
		store: store,
		log:   log,
		now:   time.Now,
		locks: make(map[string]*sync.Mutex),
	}
}

// WithClock overrides the time source so tests control "today".
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create makes a new habit owned by the caller. The caller becomes the
// owner, so there is no prior owner to check.
func (s *Service) Create(ctx context.Context, callerID, title, description string) (habit.Habit, error) {
	if callerID == "" {
		return habit.Habit{}, serrors.Validation("caller id is required")
	}

	h := habit.New(callerID, title, description, s.now())
	saved, err := s.store.SaveHabit(ctx, h)
	if err != nil {
		return habit.Habit{}, fmt.Errorf("save habit: %w", err)
	}
	s.log.WithField("habit_id", saved.ID).
		WithField("user_id", callerID).
		Info("habit created")
	return saved, nil
}

// Get returns the habit if it exists and the caller owns it.
func (s *Service) Get(ctx context.Context, callerID, habitID string) (habit.Habit, error) {
	return s.loadOwned(ctx, callerID, habitID)
}

// Complete records a completion and returns the updated habit.
func (s *Service) Complete(ctx context.Context, callerID, habitID string) (habit.Habit, error) {
	return s.transition(ctx, callerID, habitID, func(h *habit.Habit) {
		h.Complete(s.now())
		metrics.RecordHabitTransition("complete")
	})
}

// Miss records a miss and returns the updated habit.
func (s *Service) Miss(ctx context.Context, callerID, habitID string) (habit.Habit, error) {
	return s.transition(ctx, callerID, habitID, func(h *habit.Habit) {
		h.Miss(s.now())
		metrics.RecordHabitTransition("miss")
	})
}

// Progress returns the habit for its progress and streak view. Reads are
// idempotent: two calls with no intervening mutation see identical values.
func (s *Service) Progress(ctx context.Context, callerID, habitID string) (habit.Habit, error) {
	return s.loadOwned(ctx, callerID, habitID)
}

func (s *Service) transition(ctx context.Context, callerID, habitID string, apply func(*habit.Habit)) (habit.Habit, error) {
	unlock := s.lockHabit(habitID)
	defer unlock()

	h, err := s.loadOwned(ctx, callerID, habitID)
	if err != nil {
		return habit.Habit{}, err
	}

	apply(&h)

	saved, err := s.store.SaveHabit(ctx, h)
	if err != nil {
		return habit.Habit{}, fmt.Errorf("save habit: %w", err)
	}
	s.log.WithField("habit_id", habitID).
		WithField("total_entries", saved.Progress.TotalEntries).
		WithField("streak", saved.Streak.Count).
		Debug("habit updated")
	return saved, nil
}

// loadOwned loads the habit and enforces ownership. Authorization failures
// happen before any mutation, so a Forbidden result never has side effects.
func (s *Service) loadOwned(ctx context.Context, callerID, habitID string) (habit.Habit, error) {
	h, err := s.store.GetHabit(ctx, habitID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return habit.Habit{}, serrors.NotFound(fmt.Sprintf("habit %s not found", habitID))
		}
		return habit.Habit{}, fmt.Errorf("load habit: %w", err)
	}
	if h.UserID != callerID {
		return habit.Habit{}, serrors.Forbidden("")
	}
	return h, nil
}

func (s *Service) lockHabit(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}
