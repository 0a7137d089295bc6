package models

import (
	"time"

	"github.com/google/uuid"
)

// Insight severity levels (closed enumeration).
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// Insight effort levels (closed enumeration, ordinal small < medium < large < xlarge).
const (
	EffortSmall  = "small"
	EffortMedium = "medium"
	EffortLarge  = "large"
	EffortXLarge = "xlarge"
)

// ValidSeverity reports whether s is one of the recognized severity levels.
func ValidSeverity(s string) bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	default:
		return false
	}
}

// ValidEffort reports whether e is one of the recognized effort levels.
func ValidEffort(e string) bool {
	switch e {
	case EffortSmall, EffortMedium, EffortLarge, EffortXLarge:
		return true
	default:
		return false
	}
}

// AffectedCustomer is one customer referenced by an insight's supporting feedback.
// ACV is zero, never negative, when the customer directory has no contract data.
type AffectedCustomer struct {
	Name          string  `json:"name"`
	Segment       string  `json:"segment"`
	ACV           float64 `json:"acv"`
	FeedbackCount int     `json:"feedback_count"`
}

// Insight is an actionable synthesis derived from one theme. ThemeID is nil for
// competitive (cross-theme) insights. GenerationIncomplete marks stub insights
// produced when the text-generation collaborator failed.
type Insight struct {
	ID                   uuid.UUID          `json:"id"`
	ThemeID              *uuid.UUID         `json:"theme_id,omitempty"`
	Version              int                `json:"version"`
	Title                string             `json:"title"`
	Description          string             `json:"description"`
	Impact               string             `json:"impact"`
	Recommendation       string             `json:"recommendation"`
	Severity             string             `json:"severity"`
	Effort               string             `json:"effort"`
	GenerationIncomplete bool               `json:"generation_incomplete"`
	Excerpts             []string           `json:"excerpts"`
	AffectedCustomers    []AffectedCustomer `json:"affected_customers"`
	FeedbackCount        int                `json:"feedback_count"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
	ArchivedAt           *time.Time         `json:"archived_at,omitempty"`
}

// ListInsightsResponse represents the response for listing active insights.
type ListInsightsResponse struct {
	Data  []Insight `json:"data"`
	Total int64     `json:"total"`
}
