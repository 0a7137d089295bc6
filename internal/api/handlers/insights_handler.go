package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/produckai/voc-engine/internal/api/response"
	"github.com/produckai/voc-engine/internal/models"
	"github.com/produckai/voc-engine/internal/vocerrors"
)

// InsightsReader defines the read interface for insights.
type InsightsReader interface {
	ListActive(ctx context.Context) (*models.ListInsightsResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Insight, error)
}

// InsightsHandler handles HTTP requests for insights.
type InsightsHandler struct {
	insights InsightsReader
}

// NewInsightsHandler creates a new insights handler.
func NewInsightsHandler(insights InsightsReader) *InsightsHandler {
	return &InsightsHandler{insights: insights}
}

// List handles GET /v1/insights.
func (h *InsightsHandler) List(w http.ResponseWriter, r *http.Request) {
	resp, err := h.insights.ListActive(r.Context())
	if err != nil {
		response.RespondInternalServerError(w, "An unexpected error occurred")
		return
	}

	response.RespondJSON(w, http.StatusOK, resp)
}

// Get handles GET /v1/insights/{id}.
func (h *InsightsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		response.RespondBadRequest(w, "Invalid UUID format")
		return
	}

	insight, err := h.insights.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, vocerrors.ErrNotFound) {
			response.RespondNotFound(w, "Insight not found")
			return
		}
		response.RespondInternalServerError(w, "An unexpected error occurred")
		return
	}

	response.RespondJSON(w, http.StatusOK, insight)
}
