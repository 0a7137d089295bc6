package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/produckai/voc-engine/internal/models"
)

type pipelineFeedbackReader interface {
	ListWithEmbeddings(ctx context.Context) ([]models.Feedback, error)
	CountMissingEmbeddings(ctx context.Context) (int, error)
}

type pipelineRunsStore interface {
	Begin(ctx context.Context) (*models.PipelineRun, error)
	Complete(ctx context.Context, id uuid.UUID, status string, result *models.ClusterResult) error
	Fail(ctx context.Context, id uuid.UUID, message string) error
	GetLatest(ctx context.Context) (*models.PipelineRun, error)
}

type clusterSaver interface {
	SaveRun(ctx context.Context, themes []models.Theme, members []models.ThemeMember, insights []models.Insight) (int, error)
}

// PipelineService runs the full cluster-build-synthesize pipeline under the
// exclusive run marker. On any unrecoverable error the prior theme set stays
// active; collaborator failures only degrade insights.
type PipelineService struct {
	clusterer   *ClusteringService
	builder     *ThemeBuilder
	synthesizer *InsightSynthesizer
	feedback    pipelineFeedbackReader
	runs        pipelineRunsStore
	store       clusterSaver
}

// NewPipelineService creates a pipeline service.
func NewPipelineService(clusterer *ClusteringService, builder *ThemeBuilder, synthesizer *InsightSynthesizer,
	feedback pipelineFeedbackReader, runs pipelineRunsStore, store clusterSaver) *PipelineService {
	return &PipelineService{
		clusterer:   clusterer,
		builder:     builder,
		synthesizer: synthesizer,
		feedback:    feedback,
		runs:        runs,
		store:       store,
	}
}

// Cluster executes one synchronous pipeline run. Parameter validation happens
// before the run marker is taken; a concurrent run surfaces as PipelineBusy.
func (s *PipelineService) Cluster(ctx context.Context, req models.ClusterRequest) (*models.ClusterResult, error) {
	params := ClusterParams{
		MinClusterSize: req.MinClusterSize,
		MaxClusters:    req.MaxClusters,
		MinSimilarity:  req.MinSimilarity,
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	run, err := s.runs.Begin(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.execute(ctx, params)
	if err != nil {
		if failErr := s.runs.Fail(ctx, run.ID, err.Error()); failErr != nil {
			slog.Error("failed to record pipeline failure", "run_id", run.ID, "error", failErr)
		}
		return nil, err
	}

	if err := s.runs.Complete(ctx, run.ID, result.Status, result); err != nil {
		return nil, fmt.Errorf("failed to record pipeline completion: %w", err)
	}

	return result, nil
}

func (s *PipelineService) execute(ctx context.Context, params ClusterParams) (*models.ClusterResult, error) {
	items, err := s.feedback.ListWithEmbeddings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load feedback: %w", err)
	}

	notReady, err := s.feedback.CountMissingEmbeddings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count unembedded feedback: %w", err)
	}

	partition, err := s.clusterer.Partition(items, params)
	if err != nil {
		return nil, err
	}

	themes, members := s.builder.Build(ctx, partition.Clusters)

	membersByTheme := make(map[uuid.UUID][]models.Feedback, len(themes))
	for i, theme := range themes {
		membersByTheme[theme.ID] = partition.Clusters[i]
	}

	insights, degraded := s.synthesizer.SynthesizeAll(ctx, themes, membersByTheme)

	version, err := s.store.SaveRun(ctx, themes, members, insights)
	if err != nil {
		return nil, fmt.Errorf("failed to install clustering run: %w", err)
	}

	status := models.RunStatusCompleted
	if degraded > 0 {
		status = models.RunStatusDegraded
	}

	slog.Info("clustering run installed",
		"version", version,
		"themes", len(themes),
		"insights", len(insights),
		"unclustered", len(partition.Unclustered),
		"not_ready", notReady,
		"degraded_insights", degraded)

	return &models.ClusterResult{
		Status:           status,
		ThemesCreated:    len(themes),
		InsightsCreated:  len(insights),
		UnclusteredCount: len(partition.Unclustered),
		NotReadyCount:    notReady,
		DegradedInsights: degraded,
	}, nil
}

// Status returns the most recent pipeline run record.
func (s *PipelineService) Status(ctx context.Context) (*models.PipelineRun, error) {
	return s.runs.GetLatest(ctx)
}
