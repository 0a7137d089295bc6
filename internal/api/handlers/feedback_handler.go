package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/produckai/voc-engine/internal/api/response"
	"github.com/produckai/voc-engine/internal/models"
	"github.com/produckai/voc-engine/internal/vocerrors"
)

// FeedbackService defines the interface for feedback business logic.
type FeedbackService interface {
	Create(ctx context.Context, req *models.CreateFeedbackRequest) (*models.Feedback, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Feedback, error)
	List(ctx context.Context, filters *models.ListFeedbackFilters) (*models.ListFeedbackResponse, error)
}

// FeedbackHandler handles HTTP requests for feedback records.
type FeedbackHandler struct {
	service FeedbackService
}

// NewFeedbackHandler creates a new feedback handler.
func NewFeedbackHandler(service FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{service: service}
}

// Create handles POST /v1/feedback.
func (h *FeedbackHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondBadRequest(w, "Invalid request body")
		return
	}

	fb, err := h.service.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, vocerrors.ErrValidation) {
			response.RespondBadRequest(w, err.Error())
			return
		}
		response.RespondInternalServerError(w, "An unexpected error occurred")
		return
	}

	response.RespondJSON(w, http.StatusCreated, fb)
}

// Get handles GET /v1/feedback/{id}.
func (h *FeedbackHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		response.RespondBadRequest(w, "Invalid UUID format")
		return
	}

	fb, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, vocerrors.ErrNotFound) {
			response.RespondNotFound(w, "Feedback not found")
			return
		}
		response.RespondInternalServerError(w, "An unexpected error occurred")
		return
	}

	response.RespondJSON(w, http.StatusOK, fb)
}

// List handles GET /v1/feedback.
func (h *FeedbackHandler) List(w http.ResponseWriter, r *http.Request) {
	filters, err := parseListFilters(r)
	if err != nil {
		response.RespondBadRequest(w, err.Error())
		return
	}

	resp, err := h.service.List(r.Context(), filters)
	if err != nil {
		response.RespondInternalServerError(w, "An unexpected error occurred")
		return
	}

	response.RespondJSON(w, http.StatusOK, resp)
}

func parseListFilters(r *http.Request) (*models.ListFeedbackFilters, error) {
	filters := &models.ListFeedbackFilters{}
	q := r.URL.Query()

	if v := q.Get("source"); v != "" {
		filters.Source = &v
	}
	if v := q.Get("customer_name"); v != "" {
		filters.CustomerName = &v
	}
	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, errors.New("since must be an RFC 3339 timestamp")
		}
		filters.Since = &t
	}
	if v := q.Get("until"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, errors.New("until must be an RFC 3339 timestamp")
		}
		filters.Until = &t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, errors.New("limit must be a non-negative integer")
		}
		filters.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, errors.New("offset must be a non-negative integer")
		}
		filters.Offset = n
	}

	return filters, nil
}
