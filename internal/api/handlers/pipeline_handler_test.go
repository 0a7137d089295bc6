package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/produckai/voc-engine/internal/models"
	"github.com/produckai/voc-engine/internal/vocerrors"
)

type mockPipelineService struct {
	clusterFunc func(ctx context.Context, req models.ClusterRequest) (*models.ClusterResult, error)
	statusFunc  func(ctx context.Context) (*models.PipelineRun, error)
}

func (m *mockPipelineService) Cluster(ctx context.Context, req models.ClusterRequest) (*models.ClusterResult, error) {
	if m.clusterFunc != nil {
		return m.clusterFunc(ctx, req)
	}

	return &models.ClusterResult{Status: models.RunStatusCompleted}, nil
}

func (m *mockPipelineService) Status(ctx context.Context) (*models.PipelineRun, error) {
	if m.statusFunc != nil {
		return m.statusFunc(ctx)
	}

	return nil, vocerrors.NewNotFoundError("pipeline_run", "no pipeline runs recorded")
}

var testClusterDefaults = models.ClusterRequest{MinClusterSize: 3, MaxClusters: 20, MinSimilarity: 0.7}

func TestPipelineHandler_Cluster(t *testing.T) {
	t.Run("empty body uses the configured defaults", func(t *testing.T) {
		var captured models.ClusterRequest
		h := NewPipelineHandler(&mockPipelineService{
			clusterFunc: func(_ context.Context, req models.ClusterRequest) (*models.ClusterResult, error) {
				captured = req
				return &models.ClusterResult{Status: models.RunStatusCompleted, ThemesCreated: 2}, nil
			},
		}, testClusterDefaults)

		req := httptest.NewRequest(http.MethodPost, "http://test/v1/pipeline/cluster", http.NoBody)
		rec := httptest.NewRecorder()

		h.Cluster(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, testClusterDefaults, captured)

		var resp models.ClusterResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.ThemesCreated)
	})

	t.Run("partial body keeps defaults for omitted fields", func(t *testing.T) {
		var captured models.ClusterRequest
		h := NewPipelineHandler(&mockPipelineService{
			clusterFunc: func(_ context.Context, req models.ClusterRequest) (*models.ClusterResult, error) {
				captured = req
				return &models.ClusterResult{Status: models.RunStatusCompleted}, nil
			},
		}, testClusterDefaults)

		req := httptest.NewRequest(http.MethodPost, "http://test/v1/pipeline/cluster",
			strings.NewReader(`{"min_similarity": 0.85}`))
		rec := httptest.NewRecorder()

		h.Cluster(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.InDelta(t, 0.85, captured.MinSimilarity, 1e-9)
		assert.Equal(t, testClusterDefaults.MinClusterSize, captured.MinClusterSize)
		assert.Equal(t, testClusterDefaults.MaxClusters, captured.MaxClusters)
	})

	t.Run("a concurrent run maps to 409", func(t *testing.T) {
		h := NewPipelineHandler(&mockPipelineService{
			clusterFunc: func(_ context.Context, _ models.ClusterRequest) (*models.ClusterResult, error) {
				return nil, vocerrors.NewPipelineBusyError("")
			},
		}, testClusterDefaults)

		req := httptest.NewRequest(http.MethodPost, "http://test/v1/pipeline/cluster", http.NoBody)
		rec := httptest.NewRecorder()

		h.Cluster(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("validation errors map to 400", func(t *testing.T) {
		h := NewPipelineHandler(&mockPipelineService{
			clusterFunc: func(_ context.Context, _ models.ClusterRequest) (*models.ClusterResult, error) {
				return nil, vocerrors.NewValidationError("min_similarity", "min_similarity must be in (0, 1)")
			},
		}, testClusterDefaults)

		req := httptest.NewRequest(http.MethodPost, "http://test/v1/pipeline/cluster",
			strings.NewReader(`{"min_similarity": 1.5}`))
		rec := httptest.NewRecorder()

		h.Cluster(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("dimension mismatch maps to 500", func(t *testing.T) {
		h := NewPipelineHandler(&mockPipelineService{
			clusterFunc: func(_ context.Context, _ models.ClusterRequest) (*models.ClusterResult, error) {
				return nil, vocerrors.NewDimensionMismatchError(1536, 768)
			},
		}, testClusterDefaults)

		req := httptest.NewRequest(http.MethodPost, "http://test/v1/pipeline/cluster", http.NoBody)
		rec := httptest.NewRecorder()

		h.Cluster(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "dimension mismatch")
	})
}

func TestPipelineHandler_Status(t *testing.T) {
	t.Run("returns the latest run", func(t *testing.T) {
		run := &models.PipelineRun{ID: uuid.New(), Status: models.RunStatusDegraded}
		h := NewPipelineHandler(&mockPipelineService{
			statusFunc: func(_ context.Context) (*models.PipelineRun, error) {
				return run, nil
			},
		}, testClusterDefaults)

		req := httptest.NewRequest(http.MethodGet, "http://test/v1/pipeline/status", http.NoBody)
		rec := httptest.NewRecorder()

		h.Status(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp models.PipelineRun
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, models.RunStatusDegraded, resp.Status)
	})

	t.Run("no runs maps to 404", func(t *testing.T) {
		h := NewPipelineHandler(&mockPipelineService{}, testClusterDefaults)

		req := httptest.NewRequest(http.MethodGet, "http://test/v1/pipeline/status", http.NoBody)
		rec := httptest.NewRecorder()

		h.Status(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
