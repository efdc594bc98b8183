package model

import "time"

// CommunityStep is one ritual template inside a shared community ritual.
type CommunityStep struct {
	Name            string `json:"name" validate:"required,max=100"`
	Category        string `json:"category" validate:"max=50"`
	DurationMinutes int    `json:"durationMinutes" validate:"gte=1,lte=240"`
}

type CommunityRitual struct {
	ID          int64           `json:"id"`
	AuthorID    int64           `json:"authorId"`
	AuthorName  string          `json:"authorName"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Steps       []CommunityStep `json:"steps"`
	UsesCount   int             `json:"usesCount"`
	Rating      float64         `json:"rating"`
	RatingCount int             `json:"ratingCount"`
	CreatedAt   time.Time       `json:"createdAt"`
}
