package model

import "time"

type Ritual struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"userId"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Category        string    `json:"category"`
	DurationMinutes int       `json:"durationMinutes"`
	MoodTag         *string   `json:"moodTag"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type RitualLoop struct {
	ID           int64            `json:"id"`
	UserID       int64            `json:"userId"`
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	IsHabitStack bool             `json:"isHabitStack"`
	Steps        []RitualLoopStep `json:"steps"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

type RitualLoopStep struct {
	ID              int64  `json:"id"`
	LoopID          int64  `json:"loopId"`
	RitualID        int64  `json:"ritualId"`
	Order           int    `json:"order"`
	RitualName      string `json:"ritualName"`
	DurationMinutes int    `json:"durationMinutes"`
}

// HabitTrigger describes when a habit stack should fire.
type HabitTrigger struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// HabitStack is a ritual loop annotated with a trigger and an active flag.
// ID is the underlying loop ID.
type HabitStack struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Trigger     HabitTrigger     `json:"trigger"`
	IsActive    bool             `json:"isActive"`
	Steps       []RitualLoopStep `json:"steps"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

type RitualSession struct {
	ID           int64      `json:"id"`
	UserID       int64      `json:"userId"`
	LoopID       *int64     `json:"loopId"`
	RitualID     *int64     `json:"ritualId"`
	StartedAt    time.Time  `json:"startedAt"`
	CompletedAt  *time.Time `json:"completedAt"`
	MoodBefore   string     `json:"moodBefore"`
	MoodAfter    string     `json:"moodAfter"`
	PointsEarned int        `json:"pointsEarned"`
}
