package models

import (
	"time"

	"github.com/google/uuid"
)

// Sentiment labels attached to feedback, either by ingestion or by the keyword heuristic.
const (
	SentimentUrgent   = "urgent"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
	SentimentPositive = "positive"
)

// Feedback represents a single raw customer-input record. Feedback is never deleted;
// re-clustering supersedes its theme membership instead.
type Feedback struct {
	ID           uuid.UUID  `json:"id"`
	Text         string     `json:"text"`
	CustomerName *string    `json:"customer_name,omitempty"`
	Source       string     `json:"source"`
	Sentiment    *string    `json:"sentiment,omitempty"`
	Embedding    []float32  `json:"-"`
	HasEmbedding bool       `json:"has_embedding"`
	ThemeID      *uuid.UUID `json:"theme_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// CreateFeedbackRequest represents the request to create a feedback record.
type CreateFeedbackRequest struct {
	Text         string     `json:"text"`
	CustomerName *string    `json:"customer_name,omitempty"`
	Source       string     `json:"source"`
	Sentiment    *string    `json:"sentiment,omitempty"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
}

// ListFeedbackFilters represents filters for listing feedback records.
type ListFeedbackFilters struct {
	Source       *string    `json:"source,omitempty"`
	CustomerName *string    `json:"customer_name,omitempty"`
	Since        *time.Time `json:"since,omitempty"`
	Until        *time.Time `json:"until,omitempty"`
	Limit        int        `json:"limit,omitempty"`
	Offset       int        `json:"offset,omitempty"`
}

// ListFeedbackResponse represents the response for listing feedback records.
type ListFeedbackResponse struct {
	Data   []Feedback `json:"data"`
	Total  int64      `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}
