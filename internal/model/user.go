package model

import "time"

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	StreakCount  int       `json:"streakCount"`
	TotalPoints  int       `json:"totalPoints"`
	Level        int       `json:"level"`
	FocusGoal    string    `json:"focusGoal"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
