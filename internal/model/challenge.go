package model

import "time"

type Challenge struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	DurationDays int       `json:"duration"`
	Points       int       `json:"points"`
	Category     string    `json:"category"`
	CreatedAt    time.Time `json:"createdAt"`
}

const (
	ChallengeActive    = "active"
	ChallengeCompleted = "completed"
)

type UserChallenge struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"userId"`
	ChallengeID   int64      `json:"challengeId"`
	CheckIns      []string   `json:"checkIns"`
	CompletedDays int        `json:"completedDays"`
	CurrentStreak int        `json:"currentStreak"`
	Status        string     `json:"status"`
	StartedAt     time.Time  `json:"startedAt"`
	CompletedAt   *time.Time `json:"completedAt"`
}

// ChallengeWithProgress pairs a catalog challenge with the caller's
// participation, if any.
type ChallengeWithProgress struct {
	Challenge
	UserChallenge *UserChallenge `json:"userChallenge"`
}
