package store

import (
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrEmailTaken       = errors.New("email already registered")
	ErrRitualNotFound   = errors.New("ritual not found")
	ErrSessionCompleted = errors.New("session already completed")
	ErrChallengeExists  = errors.New("challenge title already exists")
	ErrAlreadyJoined    = errors.New("already joined this challenge")
	ErrNotJoined        = errors.New("not joined to this challenge")

	ErrAchievementNotFound = errors.New("achievement not found")
	ErrNotSpecial          = errors.New("only Special achievements can be awarded")
	ErrAlreadyMember    = errors.New("already a member of this circle")
	ErrNotMember        = errors.New("not a member of this circle")
	ErrOwnerCannotLeave = errors.New("circle owner cannot leave")
)

// querier is satisfied by both *sql.DB and *sql.Tx so helpers can run inside
// or outside a transaction.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

type scanner interface{ Scan(...any) error }

// withTx runs fn in a transaction, committing on success. fn must use tx for
// every statement.
func withTx(db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
