package models

import (
	"time"

	"github.com/google/uuid"
)

// Pipeline run statuses. A run is "degraded" when it completed but one or more
// insights fell back to mechanically derived stubs.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusDegraded  = "completed_degraded"
	RunStatusFailed    = "failed"
)

// ClusterRequest carries the clustering parameters for one pipeline run.
type ClusterRequest struct {
	MinClusterSize int     `json:"min_cluster_size"`
	MaxClusters    int     `json:"max_clusters"`
	MinSimilarity  float64 `json:"min_similarity"`
}

// ClusterResult summarizes a completed pipeline run.
type ClusterResult struct {
	Status           string `json:"status"`
	ThemesCreated    int    `json:"themes_created"`
	InsightsCreated  int    `json:"insights_created"`
	UnclusteredCount int    `json:"unclustered_count"`
	NotReadyCount    int    `json:"not_ready_count"`
	DegradedInsights int    `json:"degraded_insights"`
}

// PipelineRun is the persisted record of one clustering run.
type PipelineRun struct {
	ID               uuid.UUID  `json:"id"`
	Status           string     `json:"status"`
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	ThemesCreated    int        `json:"themes_created"`
	InsightsCreated  int        `json:"insights_created"`
	UnclusteredCount int        `json:"unclustered_count"`
	NotReadyCount    int        `json:"not_ready_count"`
	ErrorMessage     *string    `json:"error_message,omitempty"`
}
