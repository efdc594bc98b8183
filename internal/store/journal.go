package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/prem-prasad1710/ritualos/internal/model"
)

type JournalStore struct {
	db *sql.DB
}

func NewJournalStore(db *sql.DB) *JournalStore {
	return &JournalStore{db: db}
}

const journalCols = `id, user_id, title, content, mood, created_at`

func scanJournal(s scanner) (*model.JournalEntry, error) {
	var j model.JournalEntry
	var mood sql.NullString
	if err := s.Scan(&j.ID, &j.UserID, &j.Title, &j.Content, &mood, &j.CreatedAt); err != nil {
		return nil, err
	}
	if mood.Valid {
		j.Mood = &mood.String
	}
	return &j, nil
}

func (s *JournalStore) Create(userID int64, title, content string, mood *string, now time.Time) (*model.JournalEntry, error) {
	result, err := s.db.Exec(
		`INSERT INTO journal_entries (user_id, title, content, mood, created_at) VALUES (?, ?, ?, ?, ?)`,
		userID, title, content, nullString(mood), now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert journal entry: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+journalCols+` FROM journal_entries WHERE id = ?`, id)
	j, err := scanJournal(row)
	if err != nil {
		return nil, fmt.Errorf("get journal entry: %w", err)
	}
	return j, nil
}

// List returns the user's journal entries, newest first.
func (s *JournalStore) List(userID int64, limit int) ([]model.JournalEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT `+journalCols+` FROM journal_entries WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	defer rows.Close()

	var entries []model.JournalEntry
	for rows.Next() {
		j, err := scanJournal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		entries = append(entries, *j)
	}
	return entries, rows.Err()
}
