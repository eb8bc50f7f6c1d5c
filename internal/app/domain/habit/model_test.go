package habit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHabit(t *testing.T) {
	now := time.Date(2026, 3, 1, 15, 4, 5, 0, time.UTC)
	h := New("user-1", "read", "read 20 pages", now)

	require.NotEmpty(t, h.ID)
	assert.Equal(t, "user-1", h.UserID)
	assert.Equal(t, "read", h.Title)
	assert.Equal(t, "read 20 pages", h.Description)
	assert.Equal(t, 0, h.Progress.CompletedEntries)
	assert.Equal(t, 0, h.Progress.TotalEntries)
	assert.Equal(t, 0, h.Streak.Count)
	assert.NotNil(t, h.Entries)
	assert.Empty(t, h.Entries)
	assert.Equal(t, now, h.CreatedAt)
	assert.Equal(t, now, h.UpdatedAt)
}

func TestCompleteAndMissCounters(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	h := New("user-1", "run", "", now)

	for i := 0; i < 7; i++ {
		h.Complete(now.Add(time.Duration(i) * time.Hour))
	}
	h.Miss(now.Add(8 * time.Hour))
	for i := 9; i < 12; i++ {
		h.Complete(now.Add(time.Duration(i) * time.Hour))
	}

	assert.Equal(t, 10, h.Progress.CompletedEntries)
	assert.Equal(t, 11, h.Progress.TotalEntries)
	assert.Equal(t, 3, h.Streak.Count, "streak counts completions since the last miss")
	assert.Len(t, h.Entries, h.Progress.TotalEntries)
}

func TestPercentageTruncates(t *testing.T) {
	cases := []struct {
		completed, total, want int
	}{
		{0, 0, 0},
		{1, 3, 33},
		{2, 3, 66},
		{3, 3, 100},
		{1, 6, 16},
		{5, 8, 62},
	}
	for _, tc := range cases {
		p := Progress{CompletedEntries: tc.completed, TotalEntries: tc.total}
		assert.Equalf(t, tc.want, p.Percentage(), "%d/%d", tc.completed, tc.total)
	}
}

func TestCompleteRecordsOneEntryPerCall(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	h := New("user-1", "meditate", "", now)

	// Two completions on the same calendar day both count.
	h.Complete(now)
	h.Complete(now.Add(time.Minute))

	require.Len(t, h.Entries, 2)
	assert.Equal(t, 2, h.Progress.CompletedEntries)
	assert.Equal(t, h.Entries[0].Date, h.Entries[1].Date)
	assert.NotEqual(t, h.Entries[0].ID, h.Entries[1].ID)
}

func TestEntryDateTruncatedToUTCDay(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	local := time.Date(2026, 3, 2, 1, 30, 0, 0, loc) // 2026-03-01T16:30Z
	h := New("user-1", "sleep", "", local)

	h.Complete(local)

	want := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, want, h.Entries[0].Date)
}

func TestMissResetsStreakOnly(t *testing.T) {
	now := time.Now().UTC()
	h := New("user-1", "write", "", now)

	h.Complete(now)
	h.Complete(now)
	h.Miss(now)

	assert.Equal(t, 0, h.Streak.Count)
	assert.Equal(t, 2, h.Progress.CompletedEntries)
	assert.Equal(t, 3, h.Progress.TotalEntries)
	assert.False(t, h.Entries[2].Completed)
}

func TestUpdatedAtAdvances(t *testing.T) {
	created := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	h := New("user-1", "stretch", "", created)

	later := created.Add(48 * time.Hour)
	h.Complete(later)

	assert.Equal(t, created, h.CreatedAt)
	assert.Equal(t, later, h.UpdatedAt)
}
