package achievement

import (
	"sort"
	"time"

	"github.com/prem-prasad1710/ritualos/internal/model"
)

const (
	CategoryStreak     = "Streak"
	CategoryCompletion = "Completion"
	CategorySocial     = "Social"
	CategorySpecial    = "Special"
)

// Catalog is the built-in set of achievements seeded into the database by name.
var Catalog = []model.Achievement{
	{Name: "First Spark", Description: "Keep a 3-day streak", Category: CategoryStreak, Requirement: 3, Points: 30, Icon: "flame"},
	{Name: "Week Warrior", Description: "Keep a 7-day streak", Category: CategoryStreak, Requirement: 7, Points: 70, Icon: "flame"},
	{Name: "Unbreakable", Description: "Keep a 30-day streak", Category: CategoryStreak, Requirement: 30, Points: 300, Icon: "crown"},
	{Name: "First Steps", Description: "Complete your first ritual session", Category: CategoryCompletion, Requirement: 1, Points: 10, Icon: "check"},
	{Name: "Getting Into It", Description: "Complete 10 ritual sessions", Category: CategoryCompletion, Requirement: 10, Points: 50, Icon: "repeat"},
	{Name: "Ritual Master", Description: "Complete 100 ritual sessions", Category: CategoryCompletion, Requirement: 100, Points: 250, Icon: "star"},
	{Name: "Better Together", Description: "Join your first circle", Category: CategorySocial, Requirement: 1, Points: 20, Icon: "users"},
	{Name: "Community Builder", Description: "Belong to 3 circles", Category: CategorySocial, Requirement: 3, Points: 60, Icon: "globe"},
	{Name: "Early Bird", Description: "Awarded by the RitualOS team", Category: CategorySpecial, Requirement: 1, Points: 100, Icon: "sunrise"},
}

// Stats is the aggregate user state achievement progress is derived from.
type Stats struct {
	CurrentStreak     int
	CompletedSessions int
	CircleCount       int
}

// View is an achievement as presented to a single user.
type View struct {
	model.Achievement
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlockedAt,omitempty"`
	Progress   *int       `json:"progress,omitempty"`
}

// Value returns the raw progress value for a. Special achievements have no
// computed progress.
func Value(a model.Achievement, s Stats) int {
	switch a.Category {
	case CategoryStreak:
		return s.CurrentStreak
	case CategoryCompletion:
		return s.CompletedSessions
	case CategorySocial:
		return s.CircleCount
	default:
		return 0
	}
}

// Percent returns progress toward a as a percentage capped at 100.
func Percent(a model.Achievement, s Stats) int {
	if a.Requirement <= 0 {
		return 0
	}
	p := Value(a, s) * 100 / a.Requirement
	if p > 100 {
		p = 100
	}
	return p
}

// Build decorates the catalog with the user's unlock state and progress.
// Progress is omitted for unlocked achievements. Unlocked achievements sort
// first, then by category name, then by requirement.
func Build(catalog []model.Achievement, unlocked map[int64]time.Time, s Stats) []View {
	views := make([]View, 0, len(catalog))
	for _, a := range catalog {
		v := View{Achievement: a}
		if at, ok := unlocked[a.ID]; ok {
			v.Unlocked = true
			v.UnlockedAt = &at
		} else {
			p := Percent(a, s)
			v.Progress = &p
		}
		views = append(views, v)
	}

	sort.SliceStable(views, func(i, j int) bool {
		if views[i].Unlocked != views[j].Unlocked {
			return views[i].Unlocked
		}
		if views[i].Category != views[j].Category {
			return views[i].Category < views[j].Category
		}
		return views[i].Requirement < views[j].Requirement
	})
	return views
}

// Eligible returns the locked achievements whose requirement is met by s.
// Special achievements are never eligible.
func Eligible(catalog []model.Achievement, unlocked map[int64]time.Time, s Stats) []model.Achievement {
	var out []model.Achievement
	for _, a := range catalog {
		if a.Category == CategorySpecial {
			continue
		}
		if _, ok := unlocked[a.ID]; ok {
			continue
		}
		if a.Requirement > 0 && Value(a, s) >= a.Requirement {
			out = append(out, a)
		}
	}
	return out
}
