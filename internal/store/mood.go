package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/prem-prasad1710/ritualos/internal/model"
)

type MoodStore struct {
	db *sql.DB
}

func NewMoodStore(db *sql.DB) *MoodStore {
	return &MoodStore{db: db}
}

const moodCols = `id, user_id, mood, energy, note, created_at`

func scanMood(s scanner) (*model.MoodEntry, error) {
	var m model.MoodEntry
	if err := s.Scan(&m.ID, &m.UserID, &m.Mood, &m.Energy, &m.Note, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *MoodStore) Create(userID int64, mood string, energy int, note string, now time.Time) (*model.MoodEntry, error) {
	result, err := s.db.Exec(
		`INSERT INTO mood_entries (user_id, mood, energy, note, created_at) VALUES (?, ?, ?, ?, ?)`,
		userID, mood, energy, note, now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert mood entry: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+moodCols+` FROM mood_entries WHERE id = ?`, id)
	m, err := scanMood(row)
	if err != nil {
		return nil, fmt.Errorf("get mood entry: %w", err)
	}
	return m, nil
}

// List returns the user's most recent mood entries, newest first.
func (s *MoodStore) List(userID int64, limit int) ([]model.MoodEntry, error) {
	if limit <= 0 {
		limit = 30
	}
	return s.query(
		`SELECT `+moodCols+` FROM mood_entries WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		userID, limit,
	)
}

// ListSince returns the user's entries created at or after since, oldest first.
func (s *MoodStore) ListSince(userID int64, since time.Time) ([]model.MoodEntry, error) {
	return s.query(
		`SELECT `+moodCols+` FROM mood_entries WHERE user_id = ? AND created_at >= ? ORDER BY created_at ASC, id ASC`,
		userID, since.UTC(),
	)
}

func (s *MoodStore) query(query string, args ...any) ([]model.MoodEntry, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list mood entries: %w", err)
	}
	defer rows.Close()

	var entries []model.MoodEntry
	for rows.Next() {
		m, err := scanMood(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mood entry: %w", err)
		}
		entries = append(entries, *m)
	}
	return entries, rows.Err()
}
