package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/prem-prasad1710/ritualos/internal/model"
)

type LoopStore struct {
	db *sql.DB
}

func NewLoopStore(db *sql.DB) *LoopStore {
	return &LoopStore{db: db}
}

func scanLoop(s scanner) (*model.RitualLoop, error) {
	var l model.RitualLoop
	var isStack int
	err := s.Scan(&l.ID, &l.UserID, &l.Name, &l.Description, &isStack, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.IsHabitStack = isStack != 0
	return &l, nil
}

const loopSelect = `SELECT l.id, l.user_id, l.name, l.description,
	EXISTS (SELECT 1 FROM habit_stacks hs WHERE hs.loop_id = l.id),
	l.created_at, l.updated_at
	FROM ritual_loops l`

// Create inserts a loop with steps in the given ritual order. Every ritual
// must belong to userID.
func (s *LoopStore) Create(userID int64, name, description string, ritualIDs []int64) (*model.RitualLoop, error) {
	var id int64
	err := withTx(s.db, func(tx *sql.Tx) error {
		var err error
		id, err = insertLoop(tx, userID, name, description, ritualIDs)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(userID, id)
}

func insertLoop(q querier, userID int64, name, description string, ritualIDs []int64) (int64, error) {
	result, err := q.Exec(
		`INSERT INTO ritual_loops (user_id, name, description) VALUES (?, ?, ?)`,
		userID, name, description,
	)
	if err != nil {
		return 0, fmt.Errorf("insert loop: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	if err := replaceSteps(q, userID, id, ritualIDs); err != nil {
		return 0, err
	}
	return id, nil
}

func replaceSteps(q querier, userID, loopID int64, ritualIDs []int64) error {
	if _, err := q.Exec(`DELETE FROM ritual_loop_steps WHERE loop_id = ?`, loopID); err != nil {
		return fmt.Errorf("clear steps: %w", err)
	}
	for i, rid := range ritualIDs {
		var owner int64
		err := q.QueryRow(`SELECT user_id FROM rituals WHERE id = ?`, rid).Scan(&owner)
		if err == sql.ErrNoRows || (err == nil && owner != userID) {
			return ErrRitualNotFound
		}
		if err != nil {
			return fmt.Errorf("check ritual %d: %w", rid, err)
		}
		if _, err := q.Exec(
			`INSERT INTO ritual_loop_steps (loop_id, ritual_id, step_order) VALUES (?, ?, ?)`,
			loopID, rid, i+1,
		); err != nil {
			return fmt.Errorf("insert step: %w", err)
		}
	}
	return nil
}

// GetByID returns the loop with its steps if it belongs to userID.
func (s *LoopStore) GetByID(userID, id int64) (*model.RitualLoop, error) {
	return getLoop(s.db, userID, id)
}

func getLoop(q querier, userID, id int64) (*model.RitualLoop, error) {
	row := q.QueryRow(loopSelect+` WHERE l.id = ? AND l.user_id = ?`, id, userID)
	l, err := scanLoop(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get loop: %w", err)
	}
	steps, err := loadSteps(q, []int64{l.ID})
	if err != nil {
		return nil, err
	}
	l.Steps = steps[l.ID]
	if l.Steps == nil {
		l.Steps = []model.RitualLoopStep{}
	}
	return l, nil
}

// List returns all of the user's loops, newest first, including habit stacks.
func (s *LoopStore) List(userID int64) ([]model.RitualLoop, error) {
	rows, err := s.db.Query(loopSelect+` WHERE l.user_id = ? ORDER BY l.created_at DESC, l.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list loops: %w", err)
	}
	var loops []model.RitualLoop
	for rows.Next() {
		l, err := scanLoop(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan loop: %w", err)
		}
		loops = append(loops, *l)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate loops: %w", err)
	}
	rows.Close()

	ids := make([]int64, len(loops))
	for i := range loops {
		ids[i] = loops[i].ID
	}
	steps, err := loadSteps(s.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range loops {
		loops[i].Steps = steps[loops[i].ID]
		if loops[i].Steps == nil {
			loops[i].Steps = []model.RitualLoopStep{}
		}
	}
	return loops, nil
}

// Update replaces the loop's name, description and steps.
func (s *LoopStore) Update(userID, id int64, name, description string, ritualIDs []int64) (*model.RitualLoop, error) {
	err := withTx(s.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			`UPDATE ritual_loops SET name = ?, description = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ?`,
			name, description, id, userID,
		); err != nil {
			return fmt.Errorf("update loop: %w", err)
		}
		return replaceSteps(tx, userID, id, ritualIDs)
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(userID, id)
}

func (s *LoopStore) Delete(userID, id int64) error {
	_, err := s.db.Exec(`DELETE FROM ritual_loops WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete loop: %w", err)
	}
	return nil
}

// loadSteps returns the ordered steps for each of the given loops.
func loadSteps(q querier, loopIDs []int64) (map[int64][]model.RitualLoopStep, error) {
	out := make(map[int64][]model.RitualLoopStep, len(loopIDs))
	if len(loopIDs) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(loopIDs)), ",")
	args := make([]any, len(loopIDs))
	for i, id := range loopIDs {
		args[i] = id
	}

	rows, err := q.Query(
		`SELECT s.id, s.loop_id, s.ritual_id, s.step_order, r.name, r.duration_minutes
		 FROM ritual_loop_steps s JOIN rituals r ON r.id = s.ritual_id
		 WHERE s.loop_id IN (`+placeholders+`)
		 ORDER BY s.loop_id, s.step_order`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var st model.RitualLoopStep
		if err := rows.Scan(&st.ID, &st.LoopID, &st.RitualID, &st.Order, &st.RitualName, &st.DurationMinutes); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		out[st.LoopID] = append(out[st.LoopID], st)
	}
	return out, rows.Err()
}
