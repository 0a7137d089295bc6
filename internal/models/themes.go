package models

import (
	"time"

	"github.com/google/uuid"
)

// Theme represents a grouping of semantically similar feedback produced by one
// clustering run. Themes are archived by later runs, never hard-deleted; the active
// set is the rows where ArchivedAt is nil.
type Theme struct {
	ID         uuid.UUID  `json:"id"`
	Version    int        `json:"version"`
	Title      string     `json:"title"`
	Centroid   []float32  `json:"-"`
	Cohesion   float64    `json:"cohesion"`
	CreatedAt  time.Time  `json:"created_at"`
	ArchivedAt *time.Time `json:"archived_at,omitempty"`

	MemberCount    int            `json:"member_count"`
	CustomerCounts map[string]int `json:"customer_counts,omitempty"`
	SentimentDist  map[string]int `json:"sentiment_distribution,omitempty"`
}

// ThemeMember links a feedback record to a theme with its similarity to the centroid.
type ThemeMember struct {
	ThemeID    uuid.UUID `json:"theme_id"`
	FeedbackID uuid.UUID `json:"feedback_id"`
	Similarity float64   `json:"similarity"`
}

// ListThemesResponse represents the response for listing active themes.
type ListThemesResponse struct {
	Data  []Theme `json:"data"`
	Total int64   `json:"total"`
}
