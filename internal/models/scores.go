package models

import (
	"time"

	"github.com/google/uuid"
)

// VOC score target types.
const (
	TargetFeedback = "feedback"
	TargetInsight  = "insight"
)

// VOCWeights configures the six scoring dimensions. Weights must sum to 1.0 within
// WeightSumTolerance before a set is accepted.
type VOCWeights struct {
	CustomerImpact float64 `json:"customer_impact"`
	Frequency      float64 `json:"frequency"`
	Recency        float64 `json:"recency"`
	Sentiment      float64 `json:"sentiment"`
	ThemeAlignment float64 `json:"theme_alignment"`
	Effort         float64 `json:"effort"`
}

// WeightSumTolerance is the allowed deviation of the weight sum from 1.0.
const WeightSumTolerance = 1e-6

// DefaultVOCWeights returns the process-start weight configuration.
func DefaultVOCWeights() VOCWeights {
	return VOCWeights{
		CustomerImpact: 0.30,
		Frequency:      0.20,
		Recency:        0.15,
		Sentiment:      0.15,
		ThemeAlignment: 0.10,
		Effort:         0.10,
	}
}

// Sum returns the total of all six weights.
func (w VOCWeights) Sum() float64 {
	return w.CustomerImpact + w.Frequency + w.Recency + w.Sentiment + w.ThemeAlignment + w.Effort
}

// VOCScore is one scoring record for a feedback item or insight. Records are
// append-only; re-scoring inserts a fresh record so trend queries can compare runs.
type VOCScore struct {
	ID         uuid.UUID `json:"id"`
	TargetID   uuid.UUID `json:"target_id"`
	TargetType string    `json:"target_type"`

	CustomerImpactScore float64 `json:"customer_impact_score"`
	FrequencyScore      float64 `json:"frequency_score"`
	RecencyScore        float64 `json:"recency_score"`
	SentimentScore      float64 `json:"sentiment_score"`
	ThemeAlignmentScore float64 `json:"theme_alignment_score"`
	EffortScore         float64 `json:"effort_score"`

	TotalScore   float64    `json:"total_score"`
	WeightsUsed  VOCWeights `json:"weights_used"`
	CalculatedAt time.Time  `json:"calculated_at"`

	// TargetCreatedAt is the creation timestamp of the scored entity, used as the
	// secondary ranking key (newest first on equal totals).
	TargetCreatedAt time.Time `json:"target_created_at"`
}

// RankedTarget is one entry of a top() query.
type RankedTarget struct {
	TargetID   uuid.UUID `json:"target_id"`
	TargetType string    `json:"target_type"`
	Title      string    `json:"title,omitempty"`
	TotalScore float64   `json:"total_score"`
	CreatedAt  time.Time `json:"created_at"`
}

// ScoreTrend reports the composite delta for one target between the oldest and
// newest score records inside a trend window.
type ScoreTrend struct {
	TargetID    uuid.UUID `json:"target_id"`
	TargetType  string    `json:"target_type"`
	Period      string    `json:"period"`
	OldestScore float64   `json:"oldest_score"`
	NewestScore float64   `json:"newest_score"`
	Delta       float64   `json:"delta"`
	Samples     int       `json:"samples"`
}
