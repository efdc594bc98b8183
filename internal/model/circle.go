package model

import "time"

const (
	CircleRoleOwner  = "owner"
	CircleRoleMember = "member"
)

type Circle struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InviteCode  string         `json:"inviteCode"`
	CreatedBy   int64          `json:"createdBy"`
	Members     []CircleMember `json:"members"`
	CreatedAt   time.Time      `json:"createdAt"`
}

type CircleMember struct {
	ID          int64     `json:"id"`
	CircleID    int64     `json:"circleId"`
	UserID      int64     `json:"userId"`
	Role        string    `json:"role"`
	Name        string    `json:"name"`
	StreakCount int       `json:"streakCount"`
	JoinedAt    time.Time `json:"joinedAt"`
}
