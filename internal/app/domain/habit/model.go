// Package habit defines the Habit aggregate and its owned value objects.
// All progress and streak mutation flows through the two transitions on the
// aggregate root; nothing outside this package touches the counters.
package habit

import (
	"time"

	"github.com/google/uuid"
)

// Progress tracks completed versus total entries for one habit.
type Progress struct {
	CompletedEntries int `json:"completed_entries"`
	TotalEntries     int `json:"total_entries"`
}

// Percentage returns the completion ratio as a whole percentage,
// truncating toward zero. A habit with no entries reports 0.
func (p Progress) Percentage() int {
	if p.TotalEntries == 0 {
		return 0
	}
	return p.CompletedEntries * 100 / p.TotalEntries
}

func (p *Progress) recordCompleted() {
	p.CompletedEntries++
	p.TotalEntries++
}

func (p *Progress) recordMissed() {
	p.TotalEntries++
}

// Streak counts consecutive completions since the last miss.
type Streak struct {
	Count int `json:"count"`
}

func (s *Streak) increment() { s.Count++ }

func (s *Streak) reset() { s.Count = 0 }

// Entry records one completion or miss. The entry sequence is append-only:
// never reordered, never pruned.
type Entry struct {
	ID        string    `json:"id"`
	Date      time.Time `json:"date"`
	Completed bool      `json:"completed"`
}

// Habit is the aggregate root. It exclusively owns its Progress, Streak,
// and entry sequence; stores clone the entries slice at the boundary so no
// external aliasing is possible.
type Habit struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Progress    Progress  `json:"progress"`
	Streak      Streak    `json:"streak"`
	Entries     []Entry   `json:"entries"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// New creates a habit owned by userID with zeroed progress and streak.
// The caller supplies the current time so tests control the clock.
func New(userID, title, description string, now time.Time) Habit {
	now = now.UTC()
	return Habit{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       title,
		Description: description,
		Entries:     []Entry{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Complete appends a completed entry, advances both progress counters, and
// extends the streak. It cannot fail. Each call records one entry; there is
// no once-per-day deduplication.
func (h *Habit) Complete(now time.Time) {
	h.appendEntry(now, true)
	h.Progress.recordCompleted()
	h.Streak.increment()
	h.UpdatedAt = now.UTC()
}

// Miss appends a missed entry, advances only the total counter, and resets
// the streak. It cannot fail.
func (h *Habit) Miss(now time.Time) {
	h.appendEntry(now, false)
	h.Progress.recordMissed()
	h.Streak.reset()
	h.UpdatedAt = now.UTC()
}

func (h *Habit) appendEntry(now time.Time, completed bool) {
	h.Entries = append(h.Entries, Entry{
		ID:        uuid.NewString(),
		Date:      day(now),
		Completed: completed,
	})
}

// day truncates a timestamp to its UTC calendar date.
func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
