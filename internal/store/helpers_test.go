package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/prem-prasad1710/ritualos/internal/database"
	"github.com/prem-prasad1710/ritualos/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *sql.DB, email string) *model.User {
	t.Helper()
	u, err := NewUserStore(db).Create(email, "User "+email, "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func createTestRitual(t *testing.T, db *sql.DB, userID int64, name string) *model.Ritual {
	t.Helper()
	r, err := NewRitualStore(db).Create(userID, name, "", "Morning", 5, nil)
	if err != nil {
		t.Fatalf("create ritual: %v", err)
	}
	return r
}

func day(n int) time.Time {
	return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

// markLegacyStack flags a loop the way the legacy-stack migration flags
// loops that predate the habit_stacks table.
func markLegacyStack(t *testing.T, db *sql.DB, loopID int64) {
	t.Helper()
	if _, err := db.Exec(`UPDATE ritual_loops SET legacy_stack = 1 WHERE id = ?`, loopID); err != nil {
		t.Fatalf("mark legacy stack: %v", err)
	}
}
