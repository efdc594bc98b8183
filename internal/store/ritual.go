package store

import (
	"database/sql"
	"fmt"

	"github.com/prem-prasad1710/ritualos/internal/model"
)

type RitualStore struct {
	db *sql.DB
}

func NewRitualStore(db *sql.DB) *RitualStore {
	return &RitualStore{db: db}
}

func scanRitual(s scanner) (*model.Ritual, error) {
	var r model.Ritual
	var moodTag sql.NullString
	err := s.Scan(&r.ID, &r.UserID, &r.Name, &r.Description, &r.Category, &r.DurationMinutes,
		&moodTag, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if moodTag.Valid {
		r.MoodTag = &moodTag.String
	}
	return &r, nil
}

const ritualCols = `id, user_id, name, description, category, duration_minutes, mood_tag, created_at, updated_at`

func (s *RitualStore) Create(userID int64, name, description, category string, durationMinutes int, moodTag *string) (*model.Ritual, error) {
	id, err := insertRitual(s.db, userID, name, description, category, durationMinutes, moodTag)
	if err != nil {
		return nil, err
	}
	return s.GetByID(userID, id)
}

func insertRitual(q querier, userID int64, name, description, category string, durationMinutes int, moodTag *string) (int64, error) {
	result, err := q.Exec(
		`INSERT INTO rituals (user_id, name, description, category, duration_minutes, mood_tag) VALUES (?, ?, ?, ?, ?, ?)`,
		userID, name, description, category, durationMinutes, nullString(moodTag),
	)
	if err != nil {
		return 0, fmt.Errorf("insert ritual: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// GetByID returns the ritual if it exists and belongs to userID.
func (s *RitualStore) GetByID(userID, id int64) (*model.Ritual, error) {
	row := s.db.QueryRow(`SELECT `+ritualCols+` FROM rituals WHERE id = ? AND user_id = ?`, id, userID)
	r, err := scanRitual(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ritual: %w", err)
	}
	return r, nil
}

// List returns the user's rituals grouped by category, then by name.
func (s *RitualStore) List(userID int64) ([]model.Ritual, error) {
	rows, err := s.db.Query(
		`SELECT `+ritualCols+` FROM rituals WHERE user_id = ? ORDER BY category ASC, name ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list rituals: %w", err)
	}
	defer rows.Close()

	var rituals []model.Ritual
	for rows.Next() {
		r, err := scanRitual(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ritual: %w", err)
		}
		rituals = append(rituals, *r)
	}
	return rituals, rows.Err()
}

func (s *RitualStore) Update(userID, id int64, name, description, category string, durationMinutes int, moodTag *string) (*model.Ritual, error) {
	_, err := s.db.Exec(
		`UPDATE rituals SET name = ?, description = ?, category = ?, duration_minutes = ?, mood_tag = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND user_id = ?`,
		name, description, category, durationMinutes, nullString(moodTag), id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update ritual: %w", err)
	}
	return s.GetByID(userID, id)
}

func (s *RitualStore) Delete(userID, id int64) error {
	_, err := s.db.Exec(`DELETE FROM rituals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete ritual: %w", err)
	}
	return nil
}
