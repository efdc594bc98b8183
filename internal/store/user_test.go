package store

import (
	"errors"
	"testing"
)

func TestUserCreate(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)

	u, err := us.Create("  Alice@Example.com ", "Alice", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.Email != "alice@example.com" {
		t.Errorf("email = %q, want %q", u.Email, "alice@example.com")
	}
	if u.Level != 1 {
		t.Errorf("level = %d, want 1", u.Level)
	}
	if u.TotalPoints != 0 || u.StreakCount != 0 {
		t.Errorf("totals = %d/%d, want 0/0", u.TotalPoints, u.StreakCount)
	}
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)

	if _, err := us.Create("alice@example.com", "Alice", "hash"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	_, err := us.Create("ALICE@example.com", "Alice2", "hash")
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}
}

func TestUserGetByIDNotFound(t *testing.T) {
	db := setupTestDB(t)

	u, err := NewUserStore(db).GetByID(999)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if u != nil {
		t.Error("expected nil for nonexistent user")
	}
}

func TestUserGetByEmail(t *testing.T) {
	db := setupTestDB(t)
	created := createTestUser(t, db, "bob@example.com")

	u, err := NewUserStore(db).GetByEmail("BOB@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if u == nil || u.ID != created.ID {
		t.Fatalf("got %+v, want user %d", u, created.ID)
	}
}

func TestUserUpdateProfile(t *testing.T) {
	db := setupTestDB(t)
	created := createTestUser(t, db, "carol@example.com")

	u, err := NewUserStore(db).UpdateProfile(created.ID, "Carol", "Sleep better")
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if u.Name != "Carol" || u.FocusGoal != "Sleep better" {
		t.Errorf("profile = %q/%q, want Carol/Sleep better", u.Name, u.FocusGoal)
	}
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		points int
		want   int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{250, 3},
		{-5, 1},
	}
	for _, tt := range tests {
		if got := LevelFor(tt.points); got != tt.want {
			t.Errorf("LevelFor(%d) = %d, want %d", tt.points, got, tt.want)
		}
	}
}

func TestUserRecomputeRepairsDrift(t *testing.T) {
	db := setupTestDB(t)
	u := createTestUser(t, db, "dan@example.com")
	r := createTestRitual(t, db, u.ID, "Stretch")

	ss := NewSessionStore(db)
	for i := 0; i < 3; i++ {
		s, err := ss.Start(u.ID, nil, &r.ID, "", day(i))
		if err != nil {
			t.Fatalf("start session: %v", err)
		}
		if _, err := ss.Complete(u.ID, s.ID, "", day(i)); err != nil {
			t.Fatalf("complete session: %v", err)
		}
	}

	if _, err := db.Exec(`UPDATE users SET total_points = 0, streak_count = 0, level = 1 WHERE id = ?`, u.ID); err != nil {
		t.Fatalf("corrupt totals: %v", err)
	}

	n, err := NewUserStore(db).RecomputeAll()
	if err != nil {
		t.Fatalf("recompute all: %v", err)
	}
	if n != 1 {
		t.Errorf("recomputed = %d, want 1", n)
	}

	got, err := NewUserStore(db).GetByID(u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	// 3 sessions x 10, First Steps 10, First Spark 30.
	if got.TotalPoints != 70 {
		t.Errorf("total points = %d, want 70", got.TotalPoints)
	}
	if got.StreakCount != 3 {
		t.Errorf("streak = %d, want 3", got.StreakCount)
	}
}
