package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/prem-prasad1710/ritualos/internal/invite"
	"github.com/prem-prasad1710/ritualos/internal/model"
)

// inviteAttempts bounds how many fresh codes Create tries before giving up.
const inviteAttempts = 5

var errInviteExhausted = errors.New("could not allocate a unique invite code")

type CircleStore struct {
	db *sql.DB
	// newCode is swapped in tests to force collisions.
	newCode func() (string, error)
}

func NewCircleStore(db *sql.DB) *CircleStore {
	return &CircleStore{
		db:      db,
		newCode: func() (string, error) { return invite.Generate(nil) },
	}
}

const circleCols = `id, name, description, invite_code, created_by, created_at`

func scanCircle(s scanner) (*model.Circle, error) {
	var c model.Circle
	if err := s.Scan(&c.ID, &c.Name, &c.Description, &c.InviteCode, &c.CreatedBy, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a circle with a fresh invite code and makes userID its
// owner. A collision on the invite code is retried with a new code.
func (s *CircleStore) Create(userID int64, name, description string, now time.Time) (*model.Circle, []model.Achievement, error) {
	var circle *model.Circle
	var unlocked []model.Achievement
	err := withTx(s.db, func(tx *sql.Tx) error {
		var id int64
		for attempt := 0; ; attempt++ {
			if attempt == inviteAttempts {
				return errInviteExhausted
			}
			code, err := s.newCode()
			if err != nil {
				return fmt.Errorf("generate invite code: %w", err)
			}
			result, err := tx.Exec(
				`INSERT INTO circles (name, description, invite_code, created_by, created_at) VALUES (?, ?, ?, ?, ?)`,
				name, description, code, userID, now.UTC(),
			)
			if isUniqueViolation(err) {
				continue
			}
			if err != nil {
				return fmt.Errorf("insert circle: %w", err)
			}
			if id, err = result.LastInsertId(); err != nil {
				return fmt.Errorf("last insert id: %w", err)
			}
			break
		}

		if _, err := tx.Exec(
			`INSERT INTO circle_members (circle_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)`,
			id, userID, model.CircleRoleOwner, now.UTC(),
		); err != nil {
			return fmt.Errorf("insert owner: %w", err)
		}

		var err error
		if unlocked, err = unlockSocial(tx, userID, now); err != nil {
			return err
		}
		circle, err = getCircle(tx, id)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return circle, unlocked, nil
}

// Join adds userID to the circle with the given invite code. It returns
// (nil, nil, nil) for an unknown code and ErrAlreadyMember when the user
// already belongs to the circle.
func (s *CircleStore) Join(userID int64, code string, now time.Time) (*model.Circle, []model.Achievement, error) {
	var circle *model.Circle
	var unlocked []model.Achievement
	err := withTx(s.db, func(tx *sql.Tx) error {
		row := tx.QueryRow(`SELECT `+circleCols+` FROM circles WHERE invite_code = ?`, invite.Normalize(code))
		c, err := scanCircle(row)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("find circle: %w", err)
		}

		_, err = tx.Exec(
			`INSERT INTO circle_members (circle_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)`,
			c.ID, userID, model.CircleRoleMember, now.UTC(),
		)
		if isUniqueViolation(err) {
			return ErrAlreadyMember
		}
		if err != nil {
			return fmt.Errorf("insert member: %w", err)
		}

		if unlocked, err = unlockSocial(tx, userID, now); err != nil {
			return err
		}
		circle, err = getCircle(tx, c.ID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return circle, unlocked, nil
}

// Leave removes userID from the circle. Owners cannot leave their circle.
func (s *CircleStore) Leave(userID, circleID int64) error {
	return withTx(s.db, func(tx *sql.Tx) error {
		var role string
		err := tx.QueryRow(
			`SELECT role FROM circle_members WHERE circle_id = ? AND user_id = ?`, circleID, userID,
		).Scan(&role)
		if err == sql.ErrNoRows {
			return ErrNotMember
		}
		if err != nil {
			return fmt.Errorf("get membership: %w", err)
		}
		if role == model.CircleRoleOwner {
			return ErrOwnerCannotLeave
		}
		if _, err := tx.Exec(
			`DELETE FROM circle_members WHERE circle_id = ? AND user_id = ?`, circleID, userID,
		); err != nil {
			return fmt.Errorf("delete member: %w", err)
		}
		return nil
	})
}

func (s *CircleStore) GetByID(id int64) (*model.Circle, error) {
	return getCircle(s.db, id)
}

func getCircle(q querier, id int64) (*model.Circle, error) {
	row := q.QueryRow(`SELECT `+circleCols+` FROM circles WHERE id = ?`, id)
	c, err := scanCircle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get circle: %w", err)
	}
	if c.Members, err = listMembers(q, c.ID); err != nil {
		return nil, err
	}
	return c, nil
}

// ListForUser returns the circles userID belongs to, each with its members.
func (s *CircleStore) ListForUser(userID int64) ([]model.Circle, error) {
	rows, err := s.db.Query(
		`SELECT c.id, c.name, c.description, c.invite_code, c.created_by, c.created_at
		 FROM circles c JOIN circle_members m ON m.circle_id = c.id
		 WHERE m.user_id = ? ORDER BY m.joined_at ASC, c.id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list circles: %w", err)
	}
	var circles []model.Circle
	for rows.Next() {
		c, err := scanCircle(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan circle: %w", err)
		}
		circles = append(circles, *c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate circles: %w", err)
	}
	rows.Close()

	for i := range circles {
		if circles[i].Members, err = listMembers(s.db, circles[i].ID); err != nil {
			return nil, err
		}
	}
	return circles, nil
}

// MateIDs returns the distinct users sharing at least one circle with userID,
// including userID itself.
func (s *CircleStore) MateIDs(userID int64) ([]int64, error) {
	rows, err := s.db.Query(
		`SELECT DISTINCT m2.user_id FROM circle_members m1
		 JOIN circle_members m2 ON m2.circle_id = m1.circle_id
		 WHERE m1.user_id = ? ORDER BY m2.user_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list circle mates: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan circle mate: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func listMembers(q querier, circleID int64) ([]model.CircleMember, error) {
	rows, err := q.Query(
		`SELECT m.id, m.circle_id, m.user_id, m.role, u.name, u.streak_count, m.joined_at
		 FROM circle_members m JOIN users u ON u.id = m.user_id
		 WHERE m.circle_id = ? ORDER BY m.joined_at ASC, m.id ASC`,
		circleID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := []model.CircleMember{}
	for rows.Next() {
		var m model.CircleMember
		if err := rows.Scan(&m.ID, &m.CircleID, &m.UserID, &m.Role, &m.Name, &m.StreakCount, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func unlockSocial(q querier, userID int64, now time.Time) ([]model.Achievement, error) {
	unlocked, err := unlockEligible(q, userID, now)
	if err != nil {
		return nil, err
	}
	if len(unlocked) > 0 {
		if err := recomputeUser(q, userID); err != nil {
			return nil, err
		}
	}
	return unlocked, nil
}
