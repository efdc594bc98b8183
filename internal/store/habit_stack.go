package store

import (
	"database/sql"
	"fmt"

	"github.com/prem-prasad1710/ritualos/internal/habitstack"
	"github.com/prem-prasad1710/ritualos/internal/model"
)

type HabitStackStore struct {
	db *sql.DB
}

func NewHabitStackStore(db *sql.DB) *HabitStackStore {
	return &HabitStackStore{db: db}
}

const stackSelect = `SELECT l.id, l.name, l.description, hs.trigger_type, hs.trigger_value, hs.is_active,
	l.created_at, hs.updated_at
	FROM ritual_loops l JOIN habit_stacks hs ON hs.loop_id = l.id`

func scanStack(s scanner) (*model.HabitStack, error) {
	var hs model.HabitStack
	var active int
	err := s.Scan(&hs.ID, &hs.Name, &hs.Description, &hs.Trigger.Type, &hs.Trigger.Value, &active,
		&hs.CreatedAt, &hs.UpdatedAt)
	if err != nil {
		return nil, err
	}
	hs.IsActive = active != 0
	return &hs, nil
}

// List returns the user's habit stacks, newest first. Loops flagged as legacy
// stacks by migration are imported before listing.
func (s *HabitStackStore) List(userID int64) ([]model.HabitStack, error) {
	if _, err := s.ImportLegacy(userID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(stackSelect+` WHERE l.user_id = ? ORDER BY l.created_at DESC, l.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list habit stacks: %w", err)
	}
	var stacks []model.HabitStack
	for rows.Next() {
		hs, err := scanStack(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan habit stack: %w", err)
		}
		stacks = append(stacks, *hs)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate habit stacks: %w", err)
	}
	rows.Close()

	ids := make([]int64, len(stacks))
	for i := range stacks {
		ids[i] = stacks[i].ID
	}
	steps, err := loadSteps(s.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range stacks {
		stacks[i].Steps = steps[stacks[i].ID]
		if stacks[i].Steps == nil {
			stacks[i].Steps = []model.RitualLoopStep{}
		}
	}
	return stacks, nil
}

func (s *HabitStackStore) GetByID(userID, id int64) (*model.HabitStack, error) {
	return getStack(s.db, userID, id)
}

func getStack(q querier, userID, id int64) (*model.HabitStack, error) {
	row := q.QueryRow(stackSelect+` WHERE l.id = ? AND l.user_id = ?`, id, userID)
	hs, err := scanStack(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get habit stack: %w", err)
	}
	steps, err := loadSteps(q, []int64{hs.ID})
	if err != nil {
		return nil, err
	}
	hs.Steps = steps[hs.ID]
	if hs.Steps == nil {
		hs.Steps = []model.RitualLoopStep{}
	}
	return hs, nil
}

// Create inserts a loop for the rituals and attaches the trigger to it.
func (s *HabitStackStore) Create(userID int64, name, description string, ritualIDs []int64, trigger model.HabitTrigger, isActive bool) (*model.HabitStack, error) {
	var id int64
	err := withTx(s.db, func(tx *sql.Tx) error {
		var err error
		id, err = insertLoop(tx, userID, name, description, ritualIDs)
		if err != nil {
			return err
		}
		_, err = tx.Exec(
			`INSERT INTO habit_stacks (loop_id, trigger_type, trigger_value, is_active) VALUES (?, ?, ?, ?)`,
			id, trigger.Type, trigger.Value, boolInt(isActive),
		)
		if err != nil {
			return fmt.Errorf("insert habit stack: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(userID, id)
}

// Update changes the stack's trigger, active flag and description.
func (s *HabitStackStore) Update(userID, id int64, description string, trigger model.HabitTrigger, isActive bool) (*model.HabitStack, error) {
	existing, err := s.GetByID(userID, id)
	if err != nil || existing == nil {
		return existing, err
	}
	err = withTx(s.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			`UPDATE ritual_loops SET description = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			description, id,
		); err != nil {
			return fmt.Errorf("update loop description: %w", err)
		}
		if _, err := tx.Exec(
			`UPDATE habit_stacks SET trigger_type = ?, trigger_value = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE loop_id = ?`,
			trigger.Type, trigger.Value, boolInt(isActive), id,
		); err != nil {
			return fmt.Errorf("update habit stack: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(userID, id)
}

// Toggle flips the stack's active flag.
func (s *HabitStackStore) Toggle(userID, id int64) (*model.HabitStack, error) {
	_, err := s.db.Exec(
		`UPDATE habit_stacks SET is_active = 1 - is_active, updated_at = CURRENT_TIMESTAMP
		 WHERE loop_id = (SELECT id FROM ritual_loops WHERE id = ? AND user_id = ?)`,
		id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("toggle habit stack: %w", err)
	}
	return s.GetByID(userID, id)
}

// Delete removes the stack and its underlying loop.
func (s *HabitStackStore) Delete(userID, id int64) error {
	_, err := s.db.Exec(
		`DELETE FROM ritual_loops WHERE id = ? AND user_id = ? AND id IN (SELECT loop_id FROM habit_stacks)`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("delete habit stack: %w", err)
	}
	return nil
}

// ImportLegacy moves trigger metadata out of the encoded descriptions of
// loops flagged legacy_stack into habit_stacks rows, rewrites those
// descriptions to plain text and clears the flag. Loops created after the
// flagging migration are never touched, whatever their description says. It
// returns the number of loops imported.
func (s *HabitStackStore) ImportLegacy(userID int64) (int, error) {
	imported := 0
	err := withTx(s.db, func(tx *sql.Tx) error {
		rows, err := tx.Query(
			`SELECT id, description FROM ritual_loops
			 WHERE user_id = ? AND legacy_stack = 1
			 AND id NOT IN (SELECT loop_id FROM habit_stacks)`,
			userID,
		)
		if err != nil {
			return fmt.Errorf("find legacy stacks: %w", err)
		}
		type legacy struct {
			id   int64
			desc string
		}
		var found []legacy
		for rows.Next() {
			var l legacy
			if err := rows.Scan(&l.id, &l.desc); err != nil {
				rows.Close()
				return fmt.Errorf("scan legacy stack: %w", err)
			}
			found = append(found, l)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("iterate legacy stacks: %w", err)
		}
		rows.Close()

		for _, l := range found {
			if !habitstack.IsEncoded(l.desc) {
				if _, err := tx.Exec(`UPDATE ritual_loops SET legacy_stack = 0 WHERE id = ?`, l.id); err != nil {
					return fmt.Errorf("clear legacy flag %d: %w", l.id, err)
				}
				continue
			}
			dec := habitstack.Decode(l.desc)
			if _, err := tx.Exec(
				`INSERT INTO habit_stacks (loop_id, trigger_type, trigger_value, is_active) VALUES (?, ?, ?, ?)`,
				l.id, dec.Trigger.Type, dec.Trigger.Value, boolInt(dec.IsActive),
			); err != nil {
				return fmt.Errorf("import habit stack %d: %w", l.id, err)
			}
			if _, err := tx.Exec(`UPDATE ritual_loops SET description = ?, legacy_stack = 0 WHERE id = ?`, dec.Description, l.id); err != nil {
				return fmt.Errorf("rewrite loop description %d: %w", l.id, err)
			}
			imported++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return imported, nil
}
