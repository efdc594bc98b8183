package model

import "time"

type MoodEntry struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Mood      string    `json:"mood"`
	Energy    int       `json:"energy"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"createdAt"`
}

type JournalEntry struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Mood      *string   `json:"mood"`
	CreatedAt time.Time `json:"createdAt"`
}
