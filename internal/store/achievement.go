package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/prem-prasad1710/ritualos/internal/achievement"
	"github.com/prem-prasad1710/ritualos/internal/model"
	"github.com/prem-prasad1710/ritualos/internal/streak"
)

type AchievementStore struct {
	db *sql.DB
}

func NewAchievementStore(db *sql.DB) *AchievementStore {
	return &AchievementStore{db: db}
}

// Seed inserts any catalog achievements that are missing, keyed by name.
func (s *AchievementStore) Seed() error {
	return seedAchievements(s.db)
}

func seedAchievements(q querier) error {
	for _, a := range achievement.Catalog {
		_, err := q.Exec(
			`INSERT INTO achievements (name, description, category, requirement, points, icon)
			 VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT(name) DO NOTHING`,
			a.Name, a.Description, a.Category, a.Requirement, a.Points, a.Icon,
		)
		if err != nil {
			return fmt.Errorf("seed achievement %q: %w", a.Name, err)
		}
	}
	return nil
}

func (s *AchievementStore) List() ([]model.Achievement, error) {
	return listAchievements(s.db)
}

func listAchievements(q querier) ([]model.Achievement, error) {
	rows, err := q.Query(
		`SELECT id, name, description, category, requirement, points, icon FROM achievements ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	defer rows.Close()

	var out []model.Achievement
	for rows.Next() {
		var a model.Achievement
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.Category, &a.Requirement, &a.Points, &a.Icon); err != nil {
			return nil, fmt.Errorf("scan achievement: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListForUser returns every achievement decorated with the user's unlock
// state and progress.
func (s *AchievementStore) ListForUser(userID int64) ([]achievement.View, error) {
	if err := s.Seed(); err != nil {
		return nil, err
	}
	catalog, err := listAchievements(s.db)
	if err != nil {
		return nil, err
	}
	unlocked, err := unlockedAchievements(s.db, userID)
	if err != nil {
		return nil, err
	}
	stats, err := userStats(s.db, userID)
	if err != nil {
		return nil, err
	}
	return achievement.Build(catalog, unlocked, stats), nil
}

// Unlock grants a Special achievement by name. It is the only way Special
// achievements are awarded. Unknown names return ErrAchievementNotFound and
// progress-based achievements return ErrNotSpecial. Granting one the user
// already holds is a no-op.
func (s *AchievementStore) Unlock(userID int64, name string, now time.Time) error {
	return withTx(s.db, func(tx *sql.Tx) error {
		if err := seedAchievements(tx); err != nil {
			return err
		}
		var id int64
		var category string
		err := tx.QueryRow(`SELECT id, category FROM achievements WHERE name = ?`, name).Scan(&id, &category)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAchievementNotFound
		}
		if err != nil {
			return fmt.Errorf("get achievement: %w", err)
		}
		if category != achievement.CategorySpecial {
			return ErrNotSpecial
		}

		_, err = tx.Exec(
			`INSERT INTO user_achievements (user_id, achievement_id, unlocked_at) VALUES (?, ?, ?)
			 ON CONFLICT(user_id, achievement_id) DO NOTHING`,
			userID, id, now.UTC(),
		)
		if err != nil {
			return fmt.Errorf("unlock achievement: %w", err)
		}
		return recomputeUser(tx, userID)
	})
}

func unlockedAchievements(q querier, userID int64) (map[int64]time.Time, error) {
	rows, err := q.Query(`SELECT achievement_id, unlocked_at FROM user_achievements WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("list unlocked achievements: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]time.Time)
	for rows.Next() {
		var id int64
		var at time.Time
		if err := rows.Scan(&id, &at); err != nil {
			return nil, fmt.Errorf("scan unlocked achievement: %w", err)
		}
		out[id] = at
	}
	return out, rows.Err()
}

func userStats(q querier, userID int64) (achievement.Stats, error) {
	var st achievement.Stats

	completions, err := completionTimes(q, userID)
	if err != nil {
		return st, err
	}
	st.CompletedSessions = len(completions)
	st.CurrentStreak = streak.Calculate(completions)

	if err := q.QueryRow(`SELECT COUNT(*) FROM circle_members WHERE user_id = ?`, userID).Scan(&st.CircleCount); err != nil {
		return st, fmt.Errorf("count circles: %w", err)
	}
	return st, nil
}

// unlockEligible records every achievement whose requirement the user now
// meets and returns the newly unlocked ones. Callers recompute the user's
// totals afterwards.
func unlockEligible(q querier, userID int64, now time.Time) ([]model.Achievement, error) {
	if err := seedAchievements(q); err != nil {
		return nil, err
	}
	catalog, err := listAchievements(q)
	if err != nil {
		return nil, err
	}
	unlocked, err := unlockedAchievements(q, userID)
	if err != nil {
		return nil, err
	}
	stats, err := userStats(q, userID)
	if err != nil {
		return nil, err
	}

	eligible := achievement.Eligible(catalog, unlocked, stats)
	for _, a := range eligible {
		if _, err := q.Exec(
			`INSERT INTO user_achievements (user_id, achievement_id, unlocked_at) VALUES (?, ?, ?)`,
			userID, a.ID, now.UTC(),
		); err != nil {
			return nil, fmt.Errorf("unlock %q: %w", a.Name, err)
		}
	}
	return eligible, nil
}
