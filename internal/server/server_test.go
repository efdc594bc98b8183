package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prem-prasad1710/ritualos/internal/auth"
	"github.com/prem-prasad1710/ritualos/internal/database"
	"github.com/prem-prasad1710/ritualos/internal/store"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type testEnv struct {
	t      *testing.T
	router http.Handler
	clock  *fakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, store.NewAchievementStore(db).Seed())

	clock := &fakeClock{now: time.Date(2025, 6, 2, 8, 30, 0, 0, time.UTC)}
	srv := New(db, Config{
		Issuer: auth.NewTokenIssuer("server-test-secret-0123", time.Hour),
		Clock:  clock.Now,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return &testEnv{t: t, router: srv.Router(), clock: clock}
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

type userJSON struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	StreakCount int    `json:"streakCount"`
	TotalPoints int    `json:"totalPoints"`
	Level       int    `json:"level"`
	FocusGoal   string `json:"focusGoal"`
}

func (e *testEnv) register(email string) (string, userJSON) {
	e.t.Helper()
	rec := e.do("POST", "/api/auth/register", "", map[string]string{
		"email": email, "password": "correct-horse", "name": "Tester",
	})
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeBody[struct {
		Token string   `json:"token"`
		User  userJSON `json:"user"`
	}](e.t, rec)
	require.NotEmpty(e.t, body.Token)
	return body.Token, body.User
}

func (e *testEnv) createRitual(token, name string) int64 {
	e.t.Helper()
	rec := e.do("POST", "/api/rituals", token, map[string]any{
		"name": name, "category": "Morning", "durationMinutes": 5,
	})
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeBody[struct {
		Ritual struct {
			ID int64 `json:"id"`
		} `json:"ritual"`
	}](e.t, rec)
	return body.Ritual.ID
}

type errorJSON struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do("GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/me", "/api/rituals", "/api/achievements", "/api/circles", "/api/mood/insights"} {
		rec := env.do("GET", path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.JSONEq(t, `{"error":"Unauthorized","code":"unauthorized"}`, rec.Body.String(), path)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	_, u := env.register("Alice@Example.com")
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, 1, u.Level)

	rec := env.do("POST", "/api/auth/register", "", map[string]string{"email": "alice@example.com", "password": "another-pass"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", decodeBody[errorJSON](t, rec).Code)

	rec = env.do("POST", "/api/auth/login", "", map[string]string{"email": "alice@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do("POST", "/api/auth/login", "", map[string]string{"email": "alice@example.com", "password": "correct-horse"})
	require.Equal(t, http.StatusOK, rec.Code)
	login := decodeBody[struct {
		Token string   `json:"token"`
		User  userJSON `json:"user"`
	}](t, rec)

	rec = env.do("PUT", "/api/me", login.Token, map[string]string{"name": "Alice", "focusGoal": "Calm mornings"})
	require.Equal(t, http.StatusOK, rec.Code)
	me := decodeBody[struct {
		User userJSON `json:"user"`
	}](t, rec)
	assert.Equal(t, "Calm mornings", me.User.FocusGoal)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestValidationReportsField(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register("alice@example.com")

	rec := env.do("POST", "/api/rituals", token, map[string]any{"category": "Morning", "durationMinutes": 5})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errorJSON{Error: "name is required", Code: "validation"}, decodeBody[errorJSON](t, rec))

	rec = env.do("POST", "/api/mood", token, map[string]any{"mood": "happy", "energy": 9})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "energy must be at most 5", decodeBody[errorJSON](t, rec).Error)
}

func TestCircleCreateAndRejoin(t *testing.T) {
	env := newTestEnv(t)
	ownerToken, owner := env.register("owner@example.com")
	memberToken, member := env.register("member@example.com")

	rec := env.do("POST", "/api/circles", ownerToken, map[string]string{"name": "Focus Friends"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	type circleJSON struct {
		ID         int64  `json:"id"`
		Name       string `json:"name"`
		InviteCode string `json:"inviteCode"`
		Members    []struct {
			UserID int64  `json:"userId"`
			Role   string `json:"role"`
		} `json:"members"`
	}
	created := decodeBody[struct {
		Circle circleJSON `json:"circle"`
	}](t, rec).Circle

	assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{4}-[A-Z0-9]{4}-[A-Z0-9]{4}$`), created.InviteCode)
	require.Len(t, created.Members, 1)
	assert.Equal(t, owner.ID, created.Members[0].UserID)
	assert.Equal(t, "owner", created.Members[0].Role)

	rec = env.do("POST", "/api/circles/join", memberToken, map[string]string{"inviteCode": created.InviteCode})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	joined := decodeBody[struct {
		Circle circleJSON `json:"circle"`
	}](t, rec).Circle
	require.Len(t, joined.Members, 2)
	assert.Equal(t, member.ID, joined.Members[1].UserID)

	rec = env.do("POST", "/api/circles/join", memberToken, map[string]string{"inviteCode": created.InviteCode})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Already a member of this circle", decodeBody[errorJSON](t, rec).Error)

	rec = env.do("GET", "/api/circles", ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[struct {
		Circles []circleJSON `json:"circles"`
	}](t, rec)
	require.Len(t, list.Circles, 1)
	assert.Len(t, list.Circles[0].Members, 2)

	rec = env.do("POST", "/api/circles/join", memberToken, map[string]string{"inviteCode": "ZZZZ-ZZZZ-ZZZZ"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do("POST", fmt.Sprintf("/api/circles/%d/leave", created.ID), ownerToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do("POST", fmt.Sprintf("/api/circles/%d/leave", created.ID), memberToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestChallengeSevenDayScenario(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register("alice@example.com")

	rec := env.do("POST", "/api/challenges", token, map[string]any{
		"title": "Week of Focus", "duration": 7, "points": 100, "category": "Focus",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	challengeID := decodeBody[struct {
		Challenge struct {
			ID int64 `json:"id"`
		} `json:"challenge"`
	}](t, rec).Challenge.ID

	rec = env.do("POST", "/api/challenges/checkin", token, map[string]any{"challengeId": challengeID})
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not joined to this challenge", decodeBody[errorJSON](t, rec).Error)

	rec = env.do("POST", "/api/challenges/join", token, map[string]any{"challengeId": challengeID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	type checkInJSON struct {
		UserChallenge struct {
			CheckIns      []string `json:"checkIns"`
			CompletedDays int      `json:"completedDays"`
			CurrentStreak int      `json:"currentStreak"`
			Status        string   `json:"status"`
			CompletedAt   *string  `json:"completedAt"`
		} `json:"userChallenge"`
		Completed    bool `json:"completed"`
		PointsEarned int  `json:"pointsEarned"`
	}

	for i := 1; i <= 7; i++ {
		rec = env.do("POST", "/api/challenges/checkin", token, map[string]any{"challengeId": challengeID})
		require.Equal(t, http.StatusOK, rec.Code, "day %d: %s", i, rec.Body.String())
		res := decodeBody[checkInJSON](t, rec)

		assert.Equal(t, i, res.UserChallenge.CompletedDays)
		assert.Len(t, res.UserChallenge.CheckIns, i)
		assert.Equal(t, i, res.UserChallenge.CurrentStreak)
		if i < 7 {
			assert.False(t, res.Completed, "day %d", i)
			assert.Zero(t, res.PointsEarned, "day %d", i)

			rec = env.do("POST", "/api/challenges/checkin", token, map[string]any{"challengeId": challengeID})
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "Already checked in today", decodeBody[errorJSON](t, rec).Error)
		} else {
			assert.True(t, res.Completed)
			assert.Equal(t, 100, res.PointsEarned)
			assert.Equal(t, "completed", res.UserChallenge.Status)
			assert.NotNil(t, res.UserChallenge.CompletedAt)
		}
		env.clock.Advance(24 * time.Hour)
	}

	rec = env.do("GET", "/api/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decodeBody[struct {
		User userJSON `json:"user"`
	}](t, rec)
	assert.Equal(t, 100, me.User.TotalPoints)
	assert.Equal(t, 2, me.User.Level)

	rec = env.do("POST", "/api/challenges/checkin", token, map[string]any{"challengeId": challengeID})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Challenge is not active", decodeBody[errorJSON](t, rec).Error)

	rec = env.do("POST", "/api/challenges/checkin", token, map[string]any{"challengeId": 9999})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHabitStackRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register("alice@example.com")
	coffee := env.createRitual(token, "Coffee")
	read := env.createRitual(token, "Read")

	rec := env.do("POST", "/api/habit-stacks", token, map[string]any{
		"name":        "After coffee",
		"description": "ten pages",
		"ritualIds":   []int64{coffee, read},
		"trigger":     map[string]string{"type": "after_ritual", "value": "Coffee"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	type stackJSON struct {
		ID          int64  `json:"id"`
		Description string `json:"description"`
		Trigger     struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		} `json:"trigger"`
		IsActive bool `json:"isActive"`
		Steps    []struct {
			RitualName string `json:"ritualName"`
		} `json:"steps"`
	}
	stack := decodeBody[struct {
		Stack stackJSON `json:"stack"`
	}](t, rec).Stack
	assert.Equal(t, "after_ritual", stack.Trigger.Type)
	assert.True(t, stack.IsActive)
	require.Len(t, stack.Steps, 2)
	assert.Equal(t, "Coffee", stack.Steps[0].RitualName)

	rec = env.do("POST", fmt.Sprintf("/api/habit-stacks/%d/toggle", stack.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeBody[struct {
		Stack stackJSON `json:"stack"`
	}](t, rec).Stack.IsActive)

	rec = env.do("GET", "/api/habit-stacks", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[struct {
		Stacks []stackJSON `json:"stacks"`
	}](t, rec)
	require.Len(t, list.Stacks, 1)
	assert.Equal(t, "ten pages", list.Stacks[0].Description)

	rec = env.do("GET", "/api/loops", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"isHabitStack":true`)

	rec = env.do("POST", "/api/habit-stacks", token, map[string]any{
		"name": "Bad", "ritualIds": []int64{coffee},
		"trigger": map[string]string{"type": "whenever", "value": "x"},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[errorJSON](t, rec).Error, "type must be one of")

	rec = env.do("POST", "/api/habit-stacks", token, map[string]any{
		"name": "Bracket", "ritualIds": []int64{coffee},
		"trigger": map[string]string{"type": "location", "value": "desk]"},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, `value must not contain "]"`, decodeBody[errorJSON](t, rec).Error)

	rec = env.do("DELETE", fmt.Sprintf("/api/habit-stacks/%d", stack.ID), token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSessionCompletionUnlocksAchievements(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register("alice@example.com")
	ritual := env.createRitual(token, "Stretch")

	type completeJSON struct {
		PointsEarned int `json:"pointsEarned"`
		Unlocked     []struct {
			Name string `json:"name"`
		} `json:"unlocked"`
		User userJSON `json:"user"`
	}

	var last completeJSON
	for i := 0; i < 3; i++ {
		rec := env.do("POST", "/api/sessions", token, map[string]any{"ritualId": ritual, "moodBefore": "sleepy"})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		id := decodeBody[struct {
			Session struct {
				ID int64 `json:"id"`
			} `json:"session"`
		}](t, rec).Session.ID

		rec = env.do("POST", fmt.Sprintf("/api/sessions/%d/complete", id), token, map[string]string{"moodAfter": "awake"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		last = decodeBody[completeJSON](t, rec)
		assert.Equal(t, 10, last.PointsEarned)

		if i == 0 {
			rec = env.do("POST", fmt.Sprintf("/api/sessions/%d/complete", id), token, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		}
		env.clock.Advance(24 * time.Hour)
	}

	require.Len(t, last.Unlocked, 1)
	assert.Equal(t, "First Spark", last.Unlocked[0].Name)
	assert.Equal(t, 3, last.User.StreakCount)
	assert.Equal(t, 70, last.User.TotalPoints)

	rec := env.do("GET", "/api/achievements", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	views := decodeBody[struct {
		Achievements []struct {
			Name     string `json:"name"`
			Category string `json:"category"`
			Unlocked bool   `json:"unlocked"`
			Progress *int   `json:"progress"`
		} `json:"achievements"`
	}](t, rec).Achievements
	require.NotEmpty(t, views)

	assert.True(t, views[0].Unlocked)
	assert.True(t, views[1].Unlocked)
	assert.Equal(t, "Completion", views[0].Category)
	assert.Equal(t, "Streak", views[1].Category)
	for _, v := range views[2:] {
		assert.False(t, v.Unlocked, v.Name)
		require.NotNil(t, v.Progress, v.Name)
		if v.Name == "Week Warrior" {
			assert.Equal(t, 42, *v.Progress)
		}
	}

	rec = env.do("POST", "/api/sessions", token, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarketplaceUse(t *testing.T) {
	env := newTestEnv(t)
	authorToken, _ := env.register("author@example.com")
	userToken, _ := env.register("user@example.com")

	rec := env.do("POST", "/api/marketplace", authorToken, map[string]any{
		"title": "Sunrise", "category": "Morning",
		"steps": []map[string]any{
			{"name": "Water", "durationMinutes": 1},
			{"name": "Stretch", "durationMinutes": 5},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decodeBody[struct {
		Ritual struct {
			ID int64 `json:"id"`
		} `json:"ritual"`
	}](t, rec).Ritual.ID

	rec = env.do("POST", fmt.Sprintf("/api/marketplace/%d/use", id), userToken, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	loop := decodeBody[struct {
		Loop struct {
			Name  string `json:"name"`
			Steps []any  `json:"steps"`
		} `json:"loop"`
	}](t, rec).Loop
	assert.Equal(t, "Sunrise", loop.Name)
	assert.Len(t, loop.Steps, 2)

	rec = env.do("POST", fmt.Sprintf("/api/marketplace/%d/rate", id), userToken, map[string]int{"rating": 4})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rating":4`)

	rec = env.do("POST", fmt.Sprintf("/api/marketplace/%d/rate", id), userToken, map[string]int{"rating": 6})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do("GET", "/api/marketplace?sort=bogus", userToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMoodInsights(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register("alice@example.com")

	for _, energy := range []int{2, 4} {
		rec := env.do("POST", "/api/mood", token, map[string]any{"mood": "Calm", "energy": energy})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := env.do("GET", "/api/mood/insights?days=7", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ins := decodeBody[struct {
		Insights struct {
			Days []struct {
				Date          string  `json:"date"`
				AverageEnergy float64 `json:"averageEnergy"`
				Count         int     `json:"count"`
			} `json:"days"`
			TopMood      string `json:"topMood"`
			TotalEntries int    `json:"totalEntries"`
		} `json:"insights"`
	}](t, rec).Insights
	require.Len(t, ins.Days, 7)
	today := ins.Days[6]
	assert.Equal(t, "2025-06-02", today.Date)
	assert.Equal(t, 2, today.Count)
	assert.InDelta(t, 3.0, today.AverageEnergy, 0.001)
	assert.Equal(t, "calm", ins.TopMood)
	assert.Equal(t, 2, ins.TotalEntries)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.do("GET", "/api/me", "", nil)
	token, _ := env.register("alice@example.com")
	env.do("GET", "/api/rituals", token, nil)

	rec := env.do("GET", "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `ritualos_http_requests_total{route="GET /api/rituals",status="200"} 1`)
	assert.Contains(t, rec.Body.String(), `ritualos_http_requests_total{route="POST /api/auth/register",status="201"} 1`)
}
