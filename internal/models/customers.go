package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer segments, ordered by economic importance for impact scoring.
const (
	SegmentEnterprise = "enterprise"
	SegmentMidMarket  = "mid_market"
	SegmentSMB        = "smb"
	SegmentUnknown    = "unknown"
)

// Customer holds directory metadata used for impact scoring. ACV (annual contract
// value) is zero when no contract data exists for the customer.
type Customer struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Segment       string    `json:"segment"`
	ACV           float64   `json:"acv"`
	FeedbackCount int       `json:"feedback_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
