// Package postgres implements the storage interfaces backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/habitloop/habitloop/internal/app/domain/habit"
	"github.com/habitloop/habitloop/internal/app/domain/user"
	"github.com/habitloop/habitloop/internal/app/storage"
)

// Store persists users and habits in PostgreSQL. Habit entries are stored
// as a JSONB column so the aggregate round-trips whole.
type Store struct {
	db *sql.DB
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.HabitStore = (*Store)(nil)

// Open connects to the database at dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{db: db}, nil
}

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			username   TEXT NOT NULL UNIQUE,
			pass_hash  TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS habits (
			id                TEXT PRIMARY KEY,
			user_id           TEXT NOT NULL,
			title             TEXT NOT NULL,
			description       TEXT NOT NULL,
			completed_entries INTEGER NOT NULL,
			total_entries     INTEGER NOT NULL,
			streak            INTEGER NOT NULL,
			entries           JSONB NOT NULL,
			created_at        TIMESTAMPTZ NOT NULL,
			updated_at        TIMESTAMPTZ NOT NULL
		);
	`)
	return err
}

// --- UserStore ----------------------------------------------------------------

func (s *Store) SaveUser(ctx context.Context, u user.User) (user.User, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, pass_hash, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET username = EXCLUDED.username, pass_hash = EXCLUDED.pass_hash
	`, u.ID, u.Username, u.PasswordHash, u.CreatedAt)
	if err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (user.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, username, pass_hash, created_at
		FROM users
		WHERE id = $1
	`, id)
	return scanUser(row, id)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, username, pass_hash, created_at
		FROM users
		WHERE username = $1
	`, username)
	return scanUser(row, username)
}

func (s *Store) UserExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func scanUser(row *sql.Row, key string) (user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, fmt.Errorf("user %s: %w", key, storage.ErrNotFound)
	}
	if err != nil {
		return user.User{}, err
	}
	return u, nil
}

// --- HabitStore ---------------------------------------------------------------

func (s *Store) SaveHabit(ctx context.Context, h habit.Habit) (habit.Habit, error) {
	entriesJSON, err := json.Marshal(h.Entries)
	if err != nil {
		return habit.Habit{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO habits (id, user_id, title, description,
			completed_entries, total_entries, streak, entries,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title,
			description = EXCLUDED.description,
			completed_entries = EXCLUDED.completed_entries,
			total_entries = EXCLUDED.total_entries,
			streak = EXCLUDED.streak,
			entries = EXCLUDED.entries,
			updated_at = EXCLUDED.updated_at
	`, h.ID, h.UserID, h.Title, h.Description,
		h.Progress.CompletedEntries, h.Progress.TotalEntries, h.Streak.Count, entriesJSON,
		h.CreatedAt, h.UpdatedAt)
	if err != nil {
		return habit.Habit{}, err
	}
	return h, nil
}

func (s *Store) GetHabit(ctx context.Context, id string) (habit.Habit, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, description,
			completed_entries, total_entries, streak, entries,
			created_at, updated_at
		FROM habits
		WHERE id = $1
	`, id)

	var (
		h          habit.Habit
		entriesRaw []byte
	)
	err := row.Scan(&h.ID, &h.UserID, &h.Title, &h.Description,
		&h.Progress.CompletedEntries, &h.Progress.TotalEntries, &h.Streak.Count, &entriesRaw,
		&h.CreatedAt, &h.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return habit.Habit{}, fmt.Errorf("habit %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return habit.Habit{}, err
	}
	if err := json.Unmarshal(entriesRaw, &h.Entries); err != nil {
		return habit.Habit{}, fmt.Errorf("decode habit entries: %w", err)
	}
	return h, nil
}

func (s *Store) HabitExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM habits WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (s *Store) DeleteHabit(ctx context.Context, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM habits WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (s *Store) ListHabits(ctx context.Context) ([]habit.Habit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, description,
			completed_entries, total_entries, streak, entries,
			created_at, updated_at
		FROM habits
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []habit.Habit
	for rows.Next() {
		var (
			h          habit.Habit
			entriesRaw []byte
		)
		if err := rows.Scan(&h.ID, &h.UserID, &h.Title, &h.Description,
			&h.Progress.CompletedEntries, &h.Progress.TotalEntries, &h.Streak.Count, &entriesRaw,
			&h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(entriesRaw, &h.Entries); err != nil {
			return nil, fmt.Errorf("decode habit entries: %w", err)
		}
		result = append(result, h)
	}
	return result, rows.Err()
}
