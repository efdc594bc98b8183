package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/prem-prasad1710/ritualos/internal/model"
)

// PointsPerRitual is awarded for each ritual finished in a completed session.
const PointsPerRitual = 10

type SessionStore struct {
	db *sql.DB
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

// Completion is the outcome of finishing a session.
type Completion struct {
	Session      *model.RitualSession
	PointsEarned int
	Unlocked     []model.Achievement
	User         *model.User
}

func scanSession(s scanner) (*model.RitualSession, error) {
	var rs model.RitualSession
	var loopID, ritualID sql.NullInt64
	var completedAt sql.NullTime
	err := s.Scan(&rs.ID, &rs.UserID, &loopID, &ritualID, &rs.StartedAt, &completedAt,
		&rs.MoodBefore, &rs.MoodAfter, &rs.PointsEarned)
	if err != nil {
		return nil, err
	}
	if loopID.Valid {
		rs.LoopID = &loopID.Int64
	}
	if ritualID.Valid {
		rs.RitualID = &ritualID.Int64
	}
	if completedAt.Valid {
		rs.CompletedAt = &completedAt.Time
	}
	return &rs, nil
}

const sessionCols = `id, user_id, loop_id, ritual_id, started_at, completed_at, mood_before, mood_after, points_earned`

// Start opens a session for a loop or a single ritual owned by userID.
// It returns ErrRitualNotFound when the target does not belong to the user.
func (s *SessionStore) Start(userID int64, loopID, ritualID *int64, moodBefore string, now time.Time) (*model.RitualSession, error) {
	if loopID != nil {
		l, err := getLoop(s.db, userID, *loopID)
		if err != nil {
			return nil, err
		}
		if l == nil {
			return nil, ErrRitualNotFound
		}
	}
	if ritualID != nil {
		var n int
		if err := s.db.QueryRow(
			`SELECT COUNT(*) FROM rituals WHERE id = ? AND user_id = ?`, *ritualID, userID,
		).Scan(&n); err != nil {
			return nil, fmt.Errorf("check ritual: %w", err)
		}
		if n == 0 {
			return nil, ErrRitualNotFound
		}
	}

	result, err := s.db.Exec(
		`INSERT INTO ritual_sessions (user_id, loop_id, ritual_id, started_at, mood_before) VALUES (?, ?, ?, ?, ?)`,
		userID, nullInt64(loopID), nullInt64(ritualID), now.UTC(), moodBefore,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(userID, id)
}

func (s *SessionStore) GetByID(userID, id int64) (*model.RitualSession, error) {
	return getSession(s.db, userID, id)
}

func getSession(q querier, userID, id int64) (*model.RitualSession, error) {
	row := q.QueryRow(`SELECT `+sessionCols+` FROM ritual_sessions WHERE id = ? AND user_id = ?`, id, userID)
	rs, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return rs, nil
}

// List returns the user's most recent sessions, newest first.
func (s *SessionStore) List(userID int64, limit int) ([]model.RitualSession, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT `+sessionCols+` FROM ritual_sessions WHERE user_id = ? ORDER BY started_at DESC, id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []model.RitualSession
	for rows.Next() {
		rs, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *rs)
	}
	return sessions, rows.Err()
}

// Complete finishes a session, credits its points, refreshes the user's
// totals and unlocks any achievements that became eligible, all in one
// transaction. A nil Completion with a nil error means the session does not
// exist.
func (s *SessionStore) Complete(userID, id int64, moodAfter string, now time.Time) (*Completion, error) {
	var c Completion
	found := true
	err := withTx(s.db, func(tx *sql.Tx) error {
		rs, err := getSession(tx, userID, id)
		if err != nil {
			return err
		}
		if rs == nil {
			found = false
			return nil
		}
		if rs.CompletedAt != nil {
			return ErrSessionCompleted
		}

		points, err := sessionPoints(tx, rs)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(
			`UPDATE ritual_sessions SET completed_at = ?, mood_after = ?, points_earned = ? WHERE id = ?`,
			now.UTC(), moodAfter, points, id,
		); err != nil {
			return fmt.Errorf("complete session: %w", err)
		}

		unlocked, err := unlockEligible(tx, userID, now)
		if err != nil {
			return err
		}
		if err := recomputeUser(tx, userID); err != nil {
			return err
		}

		c.PointsEarned = points
		c.Unlocked = unlocked
		if c.Session, err = getSession(tx, userID, id); err != nil {
			return err
		}
		c.User, err = getUser(tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	if c.Unlocked == nil {
		c.Unlocked = []model.Achievement{}
	}
	return &c, nil
}

func sessionPoints(q querier, rs *model.RitualSession) (int, error) {
	if rs.LoopID == nil {
		return PointsPerRitual, nil
	}
	var steps int
	if err := q.QueryRow(`SELECT COUNT(*) FROM ritual_loop_steps WHERE loop_id = ?`, *rs.LoopID).Scan(&steps); err != nil {
		return 0, fmt.Errorf("count loop steps: %w", err)
	}
	if steps == 0 {
		steps = 1
	}
	return steps * PointsPerRitual, nil
}
