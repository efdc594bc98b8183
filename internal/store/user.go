package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/prem-prasad1710/ritualos/internal/model"
	"github.com/prem-prasad1710/ritualos/internal/streak"
)

const pointsPerLevel = 100

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(s scanner) (*model.User, error) {
	var u model.User
	err := s.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.StreakCount, &u.TotalPoints,
		&u.Level, &u.FocusGoal, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

const userCols = `id, email, name, password_hash, streak_count, total_points, level, focus_goal, created_at, updated_at`

// Create inserts a user. Emails are stored lower-cased.
func (s *UserStore) Create(email, name, passwordHash string) (*model.User, error) {
	result, err := s.db.Exec(
		`INSERT INTO users (email, name, password_hash) VALUES (?, ?, ?)`,
		strings.ToLower(strings.TrimSpace(email)), name, passwordHash,
	)
	if isUniqueViolation(err) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id int64) (*model.User, error) {
	return getUser(s.db, id)
}

func getUser(q querier, id int64) (*model.User, error) {
	row := q.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(email string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE email = ?`, strings.ToLower(strings.TrimSpace(email)))
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *UserStore) UpdateProfile(id int64, name, focusGoal string) (*model.User, error) {
	_, err := s.db.Exec(
		`UPDATE users SET name = ?, focus_goal = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, focusGoal, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return s.GetByID(id)
}

// Recompute rebuilds one user's streak, points and level from the event tables.
func (s *UserStore) Recompute(id int64) (*model.User, error) {
	err := withTx(s.db, func(tx *sql.Tx) error {
		return recomputeUser(tx, id)
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(id)
}

// RecomputeAll rebuilds projections for every user and returns how many were updated.
func (s *UserStore) RecomputeAll() (int, error) {
	rows, err := s.db.Query(`SELECT id FROM users ORDER BY id`)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("iterate users: %w", err)
	}
	rows.Close()

	for _, id := range ids {
		if _, err := s.Recompute(id); err != nil {
			return 0, fmt.Errorf("recompute user %d: %w", id, err)
		}
	}
	return len(ids), nil
}

// LevelFor maps a point total to a level, starting at 1.
func LevelFor(points int) int {
	if points < 0 {
		points = 0
	}
	return points/pointsPerLevel + 1
}

// recomputeUser rebuilds the materialized gamification columns on users from
// completed sessions, unlocked achievements and completed challenges.
func recomputeUser(q querier, userID int64) error {
	completions, err := completionTimes(q, userID)
	if err != nil {
		return err
	}

	var sessionPts, achievementPts, challengePts int
	if err := q.QueryRow(
		`SELECT COALESCE(SUM(points_earned), 0) FROM ritual_sessions WHERE user_id = ? AND completed_at IS NOT NULL`,
		userID,
	).Scan(&sessionPts); err != nil {
		return fmt.Errorf("sum session points: %w", err)
	}
	if err := q.QueryRow(
		`SELECT COALESCE(SUM(a.points), 0)
		 FROM user_achievements ua JOIN achievements a ON a.id = ua.achievement_id
		 WHERE ua.user_id = ?`,
		userID,
	).Scan(&achievementPts); err != nil {
		return fmt.Errorf("sum achievement points: %w", err)
	}
	if err := q.QueryRow(
		`SELECT COALESCE(SUM(c.points), 0)
		 FROM user_challenges uc JOIN challenges c ON c.id = uc.challenge_id
		 WHERE uc.user_id = ? AND uc.status = 'completed'`,
		userID,
	).Scan(&challengePts); err != nil {
		return fmt.Errorf("sum challenge points: %w", err)
	}

	total := sessionPts + achievementPts + challengePts
	_, err = q.Exec(
		`UPDATE users SET streak_count = ?, total_points = ?, level = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		streak.Calculate(completions), total, LevelFor(total), userID,
	)
	if err != nil {
		return fmt.Errorf("update user totals: %w", err)
	}
	return nil
}

func completionTimes(q querier, userID int64) ([]*time.Time, error) {
	rows, err := q.Query(
		`SELECT completed_at FROM ritual_sessions WHERE user_id = ? AND completed_at IS NOT NULL`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer rows.Close()

	var out []*time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		t = t.UTC()
		out = append(out, &t)
	}
	return out, rows.Err()
}
