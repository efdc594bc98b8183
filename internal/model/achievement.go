package model

import "time"

type Achievement struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Requirement int    `json:"requirement"`
	Points      int    `json:"points"`
	Icon        string `json:"icon"`
}

type UserAchievement struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"userId"`
	AchievementID int64     `json:"achievementId"`
	UnlockedAt    time.Time `json:"unlockedAt"`
}
