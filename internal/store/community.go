package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"

	"github.com/prem-prasad1710/ritualos/internal/model"
)

const (
	SortPopular = "popular"
	SortRating  = "rating"
	SortNewest  = "newest"
)

type CommunityStore struct {
	db *sql.DB
}

func NewCommunityStore(db *sql.DB) *CommunityStore {
	return &CommunityStore{db: db}
}

const communitySelect = `SELECT c.id, c.author_id, u.name, c.title, c.description, c.category, c.steps,
	c.uses_count, c.rating, c.rating_count, c.created_at
	FROM community_rituals c JOIN users u ON u.id = c.author_id`

func scanCommunityRitual(s scanner) (*model.CommunityRitual, error) {
	var cr model.CommunityRitual
	var steps string
	err := s.Scan(&cr.ID, &cr.AuthorID, &cr.AuthorName, &cr.Title, &cr.Description, &cr.Category, &steps,
		&cr.UsesCount, &cr.Rating, &cr.RatingCount, &cr.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(steps), &cr.Steps); err != nil {
		return nil, fmt.Errorf("decode steps: %w", err)
	}
	if cr.Steps == nil {
		cr.Steps = []model.CommunityStep{}
	}
	return &cr, nil
}

// List returns shared rituals, optionally filtered by category. sort is one
// of SortPopular (default), SortRating or SortNewest.
func (s *CommunityStore) List(category, sort string) ([]model.CommunityRitual, error) {
	order := `c.uses_count DESC, c.rating DESC, c.id DESC`
	switch sort {
	case SortRating:
		order = `c.rating DESC, c.rating_count DESC, c.id DESC`
	case SortNewest:
		order = `c.created_at DESC, c.id DESC`
	}

	query := communitySelect
	var args []any
	if category != "" {
		query += ` WHERE c.category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY ` + order

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list community rituals: %w", err)
	}
	defer rows.Close()

	var out []model.CommunityRitual
	for rows.Next() {
		cr, err := scanCommunityRitual(rows)
		if err != nil {
			return nil, fmt.Errorf("scan community ritual: %w", err)
		}
		out = append(out, *cr)
	}
	return out, rows.Err()
}

func (s *CommunityStore) GetByID(id int64) (*model.CommunityRitual, error) {
	return getCommunityRitual(s.db, id)
}

func getCommunityRitual(q querier, id int64) (*model.CommunityRitual, error) {
	row := q.QueryRow(communitySelect+` WHERE c.id = ?`, id)
	cr, err := scanCommunityRitual(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get community ritual: %w", err)
	}
	return cr, nil
}

func (s *CommunityStore) Create(authorID int64, title, description, category string, steps []model.CommunityStep) (*model.CommunityRitual, error) {
	if steps == nil {
		steps = []model.CommunityStep{}
	}
	encoded, err := json.Marshal(steps)
	if err != nil {
		return nil, fmt.Errorf("encode steps: %w", err)
	}
	result, err := s.db.Exec(
		`INSERT INTO community_rituals (author_id, title, description, category, steps) VALUES (?, ?, ?, ?, ?)`,
		authorID, title, description, category, string(encoded),
	)
	if err != nil {
		return nil, fmt.Errorf("insert community ritual: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

// Use copies a shared ritual into userID's library: one ritual per step and
// a loop chaining them. It returns the new loop, or nil if id is unknown.
func (s *CommunityStore) Use(userID, id int64) (*model.RitualLoop, error) {
	var loop *model.RitualLoop
	err := withTx(s.db, func(tx *sql.Tx) error {
		cr, err := getCommunityRitual(tx, id)
		if err != nil || cr == nil {
			return err
		}

		ritualIDs := make([]int64, 0, len(cr.Steps))
		for _, st := range cr.Steps {
			category := st.Category
			if category == "" {
				category = cr.Category
			}
			rid, err := insertRitual(tx, userID, st.Name, "", category, st.DurationMinutes, nil)
			if err != nil {
				return err
			}
			ritualIDs = append(ritualIDs, rid)
		}

		loopID, err := insertLoop(tx, userID, cr.Title, cr.Description, ritualIDs)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`UPDATE community_rituals SET uses_count = uses_count + 1 WHERE id = ?`, id); err != nil {
			return fmt.Errorf("increment uses: %w", err)
		}
		loop, err = getLoop(tx, userID, loopID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return loop, nil
}

// Rate records userID's 1-5 rating, replacing any earlier one, and refreshes
// the ritual's average. It returns nil if id is unknown.
func (s *CommunityStore) Rate(userID, id int64, rating int) (*model.CommunityRitual, error) {
	var cr *model.CommunityRitual
	err := withTx(s.db, func(tx *sql.Tx) error {
		existing, err := getCommunityRitual(tx, id)
		if err != nil || existing == nil {
			return err
		}
		if _, err := tx.Exec(
			`INSERT INTO community_ritual_ratings (community_ritual_id, user_id, rating) VALUES (?, ?, ?)
			 ON CONFLICT(community_ritual_id, user_id) DO UPDATE SET rating = excluded.rating`,
			id, userID, rating,
		); err != nil {
			return fmt.Errorf("upsert rating: %w", err)
		}

		var avg float64
		var count int
		if err := tx.QueryRow(
			`SELECT COALESCE(AVG(rating), 0), COUNT(*) FROM community_ritual_ratings WHERE community_ritual_id = ?`, id,
		).Scan(&avg, &count); err != nil {
			return fmt.Errorf("average rating: %w", err)
		}
		if _, err := tx.Exec(
			`UPDATE community_rituals SET rating = ?, rating_count = ? WHERE id = ?`,
			math.Round(avg*10)/10, count, id,
		); err != nil {
			return fmt.Errorf("update rating: %w", err)
		}
		cr, err = getCommunityRitual(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cr, nil
}
