package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/produckai/voc-engine/internal/api/response"
	"github.com/produckai/voc-engine/internal/models"
	"github.com/produckai/voc-engine/internal/vocerrors"
)

// PipelineService defines the interface for running and inspecting clustering runs.
type PipelineService interface {
	Cluster(ctx context.Context, req models.ClusterRequest) (*models.ClusterResult, error)
	Status(ctx context.Context) (*models.PipelineRun, error)
}

// PipelineHandler handles HTTP requests for the clustering pipeline.
type PipelineHandler struct {
	service  PipelineService
	defaults models.ClusterRequest
}

// NewPipelineHandler creates a pipeline handler. Zero-valued request fields
// fall back to the configured defaults.
func NewPipelineHandler(service PipelineService, defaults models.ClusterRequest) *PipelineHandler {
	return &PipelineHandler{service: service, defaults: defaults}
}

// Cluster handles POST /v1/pipeline/cluster. The run is synchronous; a
// concurrent run yields 409.
func (h *PipelineHandler) Cluster(w http.ResponseWriter, r *http.Request) {
	req := h.defaults
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.RespondBadRequest(w, "Invalid request body")
			return
		}
		if req.MinClusterSize == 0 {
			req.MinClusterSize = h.defaults.MinClusterSize
		}
		if req.MaxClusters == 0 {
			req.MaxClusters = h.defaults.MaxClusters
		}
		if req.MinSimilarity == 0 {
			req.MinSimilarity = h.defaults.MinSimilarity
		}
	}

	result, err := h.service.Cluster(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, vocerrors.ErrValidation):
			response.RespondBadRequest(w, err.Error())
		case errors.Is(err, vocerrors.ErrPipelineBusy):
			response.RespondConflict(w, err.Error())
		case errors.Is(err, vocerrors.ErrDimensionMismatch):
			response.RespondError(w, http.StatusInternalServerError, "Embedding Dimension Mismatch", err.Error())
		default:
			response.RespondInternalServerError(w, "An unexpected error occurred")
		}
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// Status handles GET /v1/pipeline/status.
func (h *PipelineHandler) Status(w http.ResponseWriter, r *http.Request) {
	run, err := h.service.Status(r.Context())
	if err != nil {
		if errors.Is(err, vocerrors.ErrNotFound) {
			response.RespondNotFound(w, "No pipeline runs recorded")
			return
		}
		response.RespondInternalServerError(w, "An unexpected error occurred")
		return
	}

	response.RespondJSON(w, http.StatusOK, run)
}
