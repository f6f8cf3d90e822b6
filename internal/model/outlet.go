package model

import "time"

// Media is the player's news outlet
type Media struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Readers     int64   `json:"readers"`     // Never negative
	Credibility float64 `json:"credibility"` // Always within [1,10]
}

// Article is the outcome of one scoring round
type Article struct {
	ID            int64     `json:"id"`
	MediaID       int64     `json:"media_id"`
	EventID       int64     `json:"event_id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	VeracityScore float64   `json:"veracity_score"` // 1 (unreliable) to 10 (faithful)
	Verdict       string    `json:"verdict"`
	CreatedAt     time.Time `json:"created_at"`
}
