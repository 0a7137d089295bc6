package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/produckai/voc-engine/internal/models"
	"github.com/produckai/voc-engine/internal/vocerrors"
)

type mockPipelineFeedback struct {
	listFunc  func(ctx context.Context) ([]models.Feedback, error)
	countFunc func(ctx context.Context) (int, error)
}

func (m *mockPipelineFeedback) ListWithEmbeddings(ctx context.Context) ([]models.Feedback, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}

	return nil, nil
}

func (m *mockPipelineFeedback) CountMissingEmbeddings(ctx context.Context) (int, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx)
	}

	return 0, nil
}

type mockRunsStore struct {
	beginFunc    func(ctx context.Context) (*models.PipelineRun, error)
	completeFunc func(ctx context.Context, id uuid.UUID, status string, result *models.ClusterResult) error
	failFunc     func(ctx context.Context, id uuid.UUID, message string) error
	latestFunc   func(ctx context.Context) (*models.PipelineRun, error)
}

func (m *mockRunsStore) Begin(ctx context.Context) (*models.PipelineRun, error) {
	if m.beginFunc != nil {
		return m.beginFunc(ctx)
	}

	return &models.PipelineRun{ID: uuid.New(), Status: models.RunStatusRunning}, nil
}

func (m *mockRunsStore) Complete(ctx context.Context, id uuid.UUID, status string, result *models.ClusterResult) error {
	if m.completeFunc != nil {
		return m.completeFunc(ctx, id, status, result)
	}

	return nil
}

func (m *mockRunsStore) Fail(ctx context.Context, id uuid.UUID, message string) error {
	if m.failFunc != nil {
		return m.failFunc(ctx, id, message)
	}

	return nil
}

func (m *mockRunsStore) GetLatest(ctx context.Context) (*models.PipelineRun, error) {
	if m.latestFunc != nil {
		return m.latestFunc(ctx)
	}

	return nil, vocerrors.NewNotFoundError("pipeline_run", "no pipeline runs recorded")
}

type mockClusterSaver struct {
	saveFunc func(ctx context.Context, themes []models.Theme, members []models.ThemeMember, insights []models.Insight) (int, error)
}

func (m *mockClusterSaver) SaveRun(ctx context.Context, themes []models.Theme, members []models.ThemeMember, insights []models.Insight) (int, error) {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, themes, members, insights)
	}

	return 1, nil
}

// pipelineGenerator answers both the title and the insight prompts with valid
// JSON so a run can complete without degradation.
var pipelineGenerator = &mockTextGenerator{
	generateFunc: func(_ context.Context, systemPrompt, _ string) (string, error) {
		if strings.Contains(systemPrompt, "theme title") {
			return `{"title": "Slow Dashboards"}`, nil
		}
		return `{"title": "Fix dashboards", "description": "d", "impact": "i",
			"recommendation": "r", "severity": "high", "effort": "medium"}`, nil
	},
}

func pipelineTestItems(base time.Time) []models.Feedback {
	return []models.Feedback{
		{ID: newTestUUID(1), Text: "dashboard slow", Embedding: []float32{1, 0}, CreatedAt: base},
		{ID: newTestUUID(2), Text: "dashboard very slow", Embedding: []float32{1, 0.05}, CreatedAt: base.Add(time.Minute)},
		{ID: newTestUUID(3), Text: "dashboard takes ages", Embedding: []float32{1, 0.1}, CreatedAt: base.Add(2 * time.Minute)},
	}
}

func newPipelineService(feedback *mockPipelineFeedback, runs *mockRunsStore, saver *mockClusterSaver, gen TextGenerator) *PipelineService {
	return NewPipelineService(
		NewClusteringService(),
		NewThemeBuilder(gen),
		NewInsightSynthesizer(gen, &mockDirectory{}),
		feedback, runs, saver,
	)
}

func TestPipelineService_Cluster(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	req := models.ClusterRequest{MinClusterSize: 2, MaxClusters: 20, MinSimilarity: 0.7}

	t.Run("invalid parameters are rejected before the run marker", func(t *testing.T) {
		beginCalled := false
		svc := newPipelineService(&mockPipelineFeedback{}, &mockRunsStore{
			beginFunc: func(_ context.Context) (*models.PipelineRun, error) {
				beginCalled = true
				return &models.PipelineRun{ID: uuid.New()}, nil
			},
		}, &mockClusterSaver{}, nil)

		result, err := svc.Cluster(context.Background(), models.ClusterRequest{MinClusterSize: 0, MaxClusters: 20, MinSimilarity: 0.7})
		assert.Nil(t, result)
		assert.ErrorIs(t, err, vocerrors.ErrValidation)
		assert.False(t, beginCalled)
	})

	t.Run("busy marker propagates", func(t *testing.T) {
		failCalled := false
		svc := newPipelineService(&mockPipelineFeedback{}, &mockRunsStore{
			beginFunc: func(_ context.Context) (*models.PipelineRun, error) {
				return nil, vocerrors.NewPipelineBusyError("")
			},
			failFunc: func(_ context.Context, _ uuid.UUID, _ string) error {
				failCalled = true
				return nil
			},
		}, &mockClusterSaver{}, nil)

		result, err := svc.Cluster(context.Background(), req)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, vocerrors.ErrPipelineBusy)
		assert.False(t, failCalled)
	})

	t.Run("execution error fails the run and keeps the prior state", func(t *testing.T) {
		runID := uuid.New()
		var failedMessage string
		saveCalled := false

		svc := newPipelineService(
			&mockPipelineFeedback{
				listFunc: func(_ context.Context) ([]models.Feedback, error) {
					return nil, errors.New("connection refused")
				},
			},
			&mockRunsStore{
				beginFunc: func(_ context.Context) (*models.PipelineRun, error) {
					return &models.PipelineRun{ID: runID, Status: models.RunStatusRunning}, nil
				},
				failFunc: func(_ context.Context, id uuid.UUID, message string) error {
					assert.Equal(t, runID, id)
					failedMessage = message
					return nil
				},
			},
			&mockClusterSaver{
				saveFunc: func(_ context.Context, _ []models.Theme, _ []models.ThemeMember, _ []models.Insight) (int, error) {
					saveCalled = true
					return 0, nil
				},
			},
			nil,
		)

		result, err := svc.Cluster(context.Background(), req)
		assert.Nil(t, result)
		require.Error(t, err)
		assert.Contains(t, failedMessage, "connection refused")
		assert.False(t, saveCalled)
	})

	t.Run("successful run completes with counts", func(t *testing.T) {
		var completedStatus string
		var saved struct {
			themes   int
			members  int
			insights int
		}

		svc := newPipelineService(
			&mockPipelineFeedback{
				listFunc: func(_ context.Context) ([]models.Feedback, error) {
					return pipelineTestItems(base)[:2], nil
				},
				countFunc: func(_ context.Context) (int, error) {
					return 4, nil
				},
			},
			&mockRunsStore{
				completeFunc: func(_ context.Context, _ uuid.UUID, status string, result *models.ClusterResult) error {
					completedStatus = status
					assert.Equal(t, result.Status, status)
					return nil
				},
			},
			&mockClusterSaver{
				saveFunc: func(_ context.Context, themes []models.Theme, members []models.ThemeMember, insights []models.Insight) (int, error) {
					saved.themes = len(themes)
					saved.members = len(members)
					saved.insights = len(insights)
					return 7, nil
				},
			},
			pipelineGenerator,
		)

		result, err := svc.Cluster(context.Background(), req)
		require.NoError(t, err)

		assert.Equal(t, models.RunStatusCompleted, result.Status)
		assert.Equal(t, models.RunStatusCompleted, completedStatus)
		assert.Equal(t, 1, result.ThemesCreated)
		assert.Equal(t, 1, result.InsightsCreated)
		assert.Equal(t, 0, result.UnclusteredCount)
		assert.Equal(t, 4, result.NotReadyCount)
		assert.Zero(t, result.DegradedInsights)

		assert.Equal(t, 1, saved.themes)
		assert.Equal(t, 2, saved.members)
		assert.Equal(t, 1, saved.insights)
	})

	t.Run("degraded insights mark the run completed_degraded", func(t *testing.T) {
		svc := newPipelineService(
			&mockPipelineFeedback{
				listFunc: func(_ context.Context) ([]models.Feedback, error) {
					return pipelineTestItems(base)[:2], nil
				},
			},
			&mockRunsStore{},
			&mockClusterSaver{},
			nil, // no generator: titles fall back, insights degrade to stubs
		)

		result, err := svc.Cluster(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, models.RunStatusDegraded, result.Status)
		assert.Equal(t, 1, result.DegradedInsights)
	})
}

func TestPipelineService_Status(t *testing.T) {
	t.Run("returns the latest run", func(t *testing.T) {
		run := &models.PipelineRun{ID: uuid.New(), Status: models.RunStatusCompleted}
		svc := newPipelineService(&mockPipelineFeedback{}, &mockRunsStore{
			latestFunc: func(_ context.Context) (*models.PipelineRun, error) {
				return run, nil
			},
		}, &mockClusterSaver{}, nil)

		got, err := svc.Status(context.Background())
		require.NoError(t, err)
		assert.Equal(t, run, got)
	})

	t.Run("no runs surfaces not found", func(t *testing.T) {
		svc := newPipelineService(&mockPipelineFeedback{}, &mockRunsStore{}, &mockClusterSaver{}, nil)

		got, err := svc.Status(context.Background())
		assert.Nil(t, got)
		assert.ErrorIs(t, err, vocerrors.ErrNotFound)
	})
}
