package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/produckai/voc-engine/internal/api/response"
	"github.com/produckai/voc-engine/internal/models"
	"github.com/produckai/voc-engine/internal/vocerrors"
)

// ScoringService defines the interface for running scoring batches.
type ScoringService interface {
	Score(ctx context.Context, targetType string, targetIDs []uuid.UUID) ([]models.VOCScore, error)
}

// WeightsStore owns the active VOC weight configuration.
type WeightsStore interface {
	Get() models.VOCWeights
	Configure(w models.VOCWeights) error
}

// RankingService defines the interface for ranked and trend views.
type RankingService interface {
	Top(ctx context.Context, targetType string, limit int, minScore float64) ([]models.RankedTarget, error)
	Trends(ctx context.Context, targetType string, daysBack int, groupBy string) ([]models.ScoreTrend, error)
}

// ScoresHandler handles HTTP requests for scoring, weights and rankings.
type ScoresHandler struct {
	scoring ScoringService
	weights WeightsStore
	ranking RankingService
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(scoring ScoringService, weights WeightsStore, ranking RankingService) *ScoresHandler {
	return &ScoresHandler{scoring: scoring, weights: weights, ranking: ranking}
}

// ScoreRequest is the body of POST /v1/scores.
type ScoreRequest struct {
	TargetType string      `json:"target_type"`
	TargetIDs  []uuid.UUID `json:"target_ids,omitempty"`
}

// Score handles POST /v1/scores.
func (h *ScoresHandler) Score(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondBadRequest(w, "Invalid request body")
		return
	}

	scores, err := h.scoring.Score(r.Context(), req.TargetType, req.TargetIDs)
	if err != nil {
		switch {
		case errors.Is(err, vocerrors.ErrValidation):
			response.RespondBadRequest(w, err.Error())
		case errors.Is(err, vocerrors.ErrNotFound):
			response.RespondNotFound(w, err.Error())
		default:
			response.RespondInternalServerError(w, "An unexpected error occurred")
		}
		return
	}

	response.RespondJSON(w, http.StatusOK, map[string]any{"data": scores, "total": len(scores)})
}

// GetWeights handles GET /v1/scores/weights.
func (h *ScoresHandler) GetWeights(w http.ResponseWriter, _ *http.Request) {
	response.RespondJSON(w, http.StatusOK, h.weights.Get())
}

// UpdateWeights handles PUT /v1/scores/weights. The six recognized keys are
// required; an invalid sum leaves the prior weights active.
func (h *ScoresHandler) UpdateWeights(w http.ResponseWriter, r *http.Request) {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var weights models.VOCWeights
	if err := decoder.Decode(&weights); err != nil {
		response.RespondBadRequest(w, "Invalid request body: "+err.Error())
		return
	}

	if err := h.weights.Configure(weights); err != nil {
		if errors.Is(err, vocerrors.ErrValidation) {
			response.RespondBadRequest(w, err.Error())
			return
		}
		response.RespondInternalServerError(w, "An unexpected error occurred")
		return
	}

	response.RespondJSON(w, http.StatusOK, h.weights.Get())
}

// Top handles GET /v1/scores/top.
func (h *ScoresHandler) Top(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	targetType := q.Get("target_type")
	if targetType == "" {
		targetType = models.TargetInsight
	}

	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			response.RespondBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	minScore := 0.0
	if v := q.Get("min_score"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			response.RespondBadRequest(w, "min_score must be a non-negative number")
			return
		}
		minScore = f
	}

	ranked, err := h.ranking.Top(r.Context(), targetType, limit, minScore)
	if err != nil {
		if errors.Is(err, vocerrors.ErrValidation) {
			response.RespondBadRequest(w, err.Error())
			return
		}
		response.RespondInternalServerError(w, "An unexpected error occurred")
		return
	}

	response.RespondJSON(w, http.StatusOK, map[string]any{"data": ranked, "total": len(ranked)})
}

// Trends handles GET /v1/scores/trends.
func (h *ScoresHandler) Trends(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	targetType := q.Get("target_type")
	if targetType == "" {
		targetType = models.TargetInsight
	}

	groupBy := q.Get("group_by")
	if groupBy == "" {
		groupBy = "day"
	}

	daysBack := 0
	if v := q.Get("days_back"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			response.RespondBadRequest(w, "days_back must be a non-negative integer")
			return
		}
		daysBack = n
	}

	trends, err := h.ranking.Trends(r.Context(), targetType, daysBack, groupBy)
	if err != nil {
		if errors.Is(err, vocerrors.ErrValidation) {
			response.RespondBadRequest(w, err.Error())
			return
		}
		response.RespondInternalServerError(w, "An unexpected error occurred")
		return
	}

	response.RespondJSON(w, http.StatusOK, map[string]any{"data": trends, "total": len(trends)})
}
