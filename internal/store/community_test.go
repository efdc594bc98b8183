package store

import (
	"testing"

	"github.com/prem-prasad1710/ritualos/internal/model"
)

func TestCommunityUseCopiesIntoLibrary(t *testing.T) {
	db := setupTestDB(t)
	author := createTestUser(t, db, "author@example.com")
	user := createTestUser(t, db, "user@example.com")
	cs := NewCommunityStore(db)

	cr, err := cs.Create(author.ID, "Sunrise", "start strong", "Morning", []model.CommunityStep{
		{Name: "Water", DurationMinutes: 1},
		{Name: "Stretch", Category: "Fitness", DurationMinutes: 5},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if cr.AuthorName != author.Name || len(cr.Steps) != 2 {
		t.Errorf("community ritual = %+v", cr)
	}

	loop, err := cs.Use(user.ID, cr.ID)
	if err != nil {
		t.Fatalf("use: %v", err)
	}
	if loop.UserID != user.ID || loop.Name != "Sunrise" || len(loop.Steps) != 2 {
		t.Errorf("loop = %+v", loop)
	}

	rituals, err := NewRitualStore(db).List(user.ID)
	if err != nil {
		t.Fatalf("list rituals: %v", err)
	}
	if len(rituals) != 2 {
		t.Fatalf("len(rituals) = %d, want 2", len(rituals))
	}
	cats := map[string]string{}
	for _, r := range rituals {
		cats[r.Name] = r.Category
	}
	if cats["Water"] != "Morning" || cats["Stretch"] != "Fitness" {
		t.Errorf("categories = %v", cats)
	}

	after, err := cs.GetByID(cr.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if after.UsesCount != 1 {
		t.Errorf("uses = %d, want 1", after.UsesCount)
	}

	missing, err := cs.Use(user.ID, 999)
	if err != nil || missing != nil {
		t.Errorf("use unknown = %v, %v; want nil, nil", missing, err)
	}
}

func TestCommunityRateAverages(t *testing.T) {
	db := setupTestDB(t)
	author := createTestUser(t, db, "author@example.com")
	a := createTestUser(t, db, "a@example.com")
	b := createTestUser(t, db, "b@example.com")
	cs := NewCommunityStore(db)

	cr, err := cs.Create(author.ID, "Wind down", "", "Evening", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := cs.Rate(a.ID, cr.ID, 5); err != nil {
		t.Fatalf("rate: %v", err)
	}
	if _, err := cs.Rate(b.ID, cr.ID, 2); err != nil {
		t.Fatalf("rate: %v", err)
	}
	got, err := cs.Rate(a.ID, cr.ID, 3)
	if err != nil {
		t.Fatalf("re-rate: %v", err)
	}
	if got.RatingCount != 2 {
		t.Errorf("rating count = %d, want 2", got.RatingCount)
	}
	if got.Rating != 2.5 {
		t.Errorf("rating = %v, want 2.5", got.Rating)
	}
}

func TestCommunityListFilterAndSort(t *testing.T) {
	db := setupTestDB(t)
	author := createTestUser(t, db, "author@example.com")
	user := createTestUser(t, db, "user@example.com")
	cs := NewCommunityStore(db)

	m, err := cs.Create(author.ID, "Morning", "", "Morning", []model.CommunityStep{{Name: "Water", DurationMinutes: 1}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := cs.Create(author.ID, "Evening", "", "Evening", nil); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := cs.Use(user.ID, m.ID); err != nil {
		t.Fatalf("use: %v", err)
	}

	popular, err := cs.List("", SortPopular)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(popular) != 2 || popular[0].ID != m.ID {
		t.Errorf("popular order = %+v", popular)
	}

	evening, err := cs.List("Evening", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(evening) != 1 || evening[0].Category != "Evening" {
		t.Errorf("filtered = %+v", evening)
	}
}
