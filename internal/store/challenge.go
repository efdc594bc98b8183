package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/prem-prasad1710/ritualos/internal/challenge"
	"github.com/prem-prasad1710/ritualos/internal/model"
	"github.com/prem-prasad1710/ritualos/internal/streak"
)

type ChallengeStore struct {
	db *sql.DB
}

func NewChallengeStore(db *sql.DB) *ChallengeStore {
	return &ChallengeStore{db: db}
}

// CheckInResult is the outcome of a daily challenge check-in.
type CheckInResult struct {
	UserChallenge *model.UserChallenge
	Completed     bool
	PointsEarned  int
}

const challengeCols = `id, title, description, duration_days, points, category, created_at`

func scanChallenge(s scanner) (*model.Challenge, error) {
	var c model.Challenge
	if err := s.Scan(&c.ID, &c.Title, &c.Description, &c.DurationDays, &c.Points, &c.Category, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

const userChallengeCols = `id, user_id, challenge_id, completed_days, current_streak, status, started_at, completed_at`

func scanUserChallenge(s scanner) (*model.UserChallenge, error) {
	var uc model.UserChallenge
	var completedAt sql.NullTime
	err := s.Scan(&uc.ID, &uc.UserID, &uc.ChallengeID, &uc.CompletedDays, &uc.CurrentStreak,
		&uc.Status, &uc.StartedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		uc.CompletedAt = &completedAt.Time
	}
	return &uc, nil
}

// Seed inserts any catalog challenges that are missing, keyed by title.
func (s *ChallengeStore) Seed() error {
	for _, c := range challenge.Catalog {
		_, err := s.db.Exec(
			`INSERT INTO challenges (title, description, duration_days, points, category)
			 VALUES (?, ?, ?, ?, ?) ON CONFLICT(title) DO NOTHING`,
			c.Title, c.Description, c.DurationDays, c.Points, c.Category,
		)
		if err != nil {
			return fmt.Errorf("seed challenge %q: %w", c.Title, err)
		}
	}
	return nil
}

func (s *ChallengeStore) Create(title, description string, durationDays, points int, category string) (*model.Challenge, error) {
	result, err := s.db.Exec(
		`INSERT INTO challenges (title, description, duration_days, points, category) VALUES (?, ?, ?, ?, ?)`,
		title, description, durationDays, points, category,
	)
	if isUniqueViolation(err) {
		return nil, ErrChallengeExists
	}
	if err != nil {
		return nil, fmt.Errorf("insert challenge: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ChallengeStore) GetByID(id int64) (*model.Challenge, error) {
	return getChallenge(s.db, id)
}

func getChallenge(q querier, id int64) (*model.Challenge, error) {
	row := q.QueryRow(`SELECT `+challengeCols+` FROM challenges WHERE id = ?`, id)
	c, err := scanChallenge(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get challenge: %w", err)
	}
	return c, nil
}

// ListForUser returns every challenge with the user's participation attached
// where one exists.
func (s *ChallengeStore) ListForUser(userID int64) ([]model.ChallengeWithProgress, error) {
	rows, err := s.db.Query(`SELECT ` + challengeCols + ` FROM challenges ORDER BY duration_days ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}
	var out []model.ChallengeWithProgress
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan challenge: %w", err)
		}
		out = append(out, model.ChallengeWithProgress{Challenge: *c})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate challenges: %w", err)
	}
	rows.Close()

	for i := range out {
		uc, err := getUserChallenge(s.db, userID, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].UserChallenge = uc
	}
	return out, nil
}

// Join enrolls the user in a challenge. It returns ErrAlreadyJoined when the
// user already participates and (nil, nil) when the challenge does not exist.
func (s *ChallengeStore) Join(userID, challengeID int64, now time.Time) (*model.UserChallenge, error) {
	c, err := s.GetByID(challengeID)
	if err != nil || c == nil {
		return nil, err
	}
	_, err = s.db.Exec(
		`INSERT INTO user_challenges (user_id, challenge_id, status, started_at) VALUES (?, ?, ?, ?)`,
		userID, challengeID, model.ChallengeActive, now.UTC(),
	)
	if isUniqueViolation(err) {
		return nil, ErrAlreadyJoined
	}
	if err != nil {
		return nil, fmt.Errorf("join challenge: %w", err)
	}
	return getUserChallenge(s.db, userID, challengeID)
}

func (s *ChallengeStore) GetUserChallenge(userID, challengeID int64) (*model.UserChallenge, error) {
	return getUserChallenge(s.db, userID, challengeID)
}

func getUserChallenge(q querier, userID, challengeID int64) (*model.UserChallenge, error) {
	row := q.QueryRow(
		`SELECT `+userChallengeCols+` FROM user_challenges WHERE user_id = ? AND challenge_id = ?`,
		userID, challengeID,
	)
	uc, err := scanUserChallenge(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user challenge: %w", err)
	}

	rows, err := q.Query(`SELECT day FROM challenge_checkins WHERE user_challenge_id = ? ORDER BY day`, uc.ID)
	if err != nil {
		return nil, fmt.Errorf("list check-ins: %w", err)
	}
	defer rows.Close()
	uc.CheckIns = []string{}
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("scan check-in: %w", err)
		}
		uc.CheckIns = append(uc.CheckIns, day)
	}
	return uc, rows.Err()
}

// CheckIn records today's check-in for the user's active participation in
// challengeID. On the check-in that reaches the challenge duration the
// participation is completed and the challenge points are credited, in the
// same transaction. Days are UTC calendar days. It returns (nil, nil) for an
// unknown challenge, ErrNotJoined when the user never joined it,
// challenge.ErrNotActive once the participation is completed and
// challenge.ErrAlreadyCheckedIn on a second check-in the same day.
func (s *ChallengeStore) CheckIn(userID, challengeID int64, now time.Time) (*CheckInResult, error) {
	now = now.UTC()
	var res *CheckInResult
	err := withTx(s.db, func(tx *sql.Tx) error {
		c, err := getChallenge(tx, challengeID)
		if err != nil || c == nil {
			return err
		}
		uc, err := getUserChallenge(tx, userID, challengeID)
		if err != nil {
			return err
		}
		if uc == nil {
			return ErrNotJoined
		}

		next, completedNow, err := challenge.CheckIn(challenge.FromUserChallenge(*uc), now, c.DurationDays)
		if err != nil {
			return err
		}

		day := streak.StartOfDay(now).Format(streak.DayLayout)
		if _, err := tx.Exec(
			`INSERT INTO challenge_checkins (user_challenge_id, day, created_at) VALUES (?, ?, ?)`,
			uc.ID, day, now,
		); err != nil {
			if isUniqueViolation(err) {
				return challenge.ErrAlreadyCheckedIn
			}
			return fmt.Errorf("insert check-in: %w", err)
		}

		var completedAt any
		if next.CompletedAt != nil {
			completedAt = next.CompletedAt.UTC()
		}
		if _, err := tx.Exec(
			`UPDATE user_challenges SET completed_days = ?, current_streak = ?, status = ?, completed_at = ? WHERE id = ?`,
			next.CompletedDays, next.CurrentStreak, next.Status, completedAt, uc.ID,
		); err != nil {
			return fmt.Errorf("update user challenge: %w", err)
		}

		res = &CheckInResult{Completed: completedNow}
		if completedNow {
			res.PointsEarned = c.Points
			if err := recomputeUser(tx, userID); err != nil {
				return err
			}
		}
		res.UserChallenge, err = getUserChallenge(tx, userID, challengeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
