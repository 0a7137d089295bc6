package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/produckai/voc-engine/internal/models"
	"github.com/produckai/voc-engine/internal/vocerrors"
)

const defaultSource = "manual"

type feedbackStore interface {
	Create(ctx context.Context, req *models.CreateFeedbackRequest) (*models.Feedback, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Feedback, error)
	List(ctx context.Context, filters *models.ListFeedbackFilters) (*models.ListFeedbackResponse, error)
}

type embeddingEnqueuer interface {
	EnqueueEmbeddingJob(ctx context.Context, feedbackID uuid.UUID) error
}

// FeedbackService is the ingestion boundary. Created records get an embedding
// job enqueued when background processing is available; a failed enqueue is
// logged, not fatal, since the backfill command can catch up later.
type FeedbackService struct {
	store    feedbackStore
	enqueuer embeddingEnqueuer
}

// NewFeedbackService creates a feedback service. The enqueuer may be nil when
// background jobs are disabled.
func NewFeedbackService(store feedbackStore, enqueuer embeddingEnqueuer) *FeedbackService {
	return &FeedbackService{store: store, enqueuer: enqueuer}
}

// Create validates and persists one feedback record.
func (s *FeedbackService) Create(ctx context.Context, req *models.CreateFeedbackRequest) (*models.Feedback, error) {
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		return nil, vocerrors.NewValidationError("text", "text is required")
	}
	if req.Source == "" {
		req.Source = defaultSource
	}
	if req.Sentiment != nil {
		switch *req.Sentiment {
		case models.SentimentUrgent, models.SentimentNegative, models.SentimentNeutral, models.SentimentPositive:
		default:
			return nil, vocerrors.NewValidationError("sentiment",
				"sentiment must be urgent, negative, neutral or positive")
		}
	}

	fb, err := s.store.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create feedback: %w", err)
	}

	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueEmbeddingJob(ctx, fb.ID); err != nil {
			slog.Warn("failed to enqueue embedding job", "feedback_id", fb.ID, "error", err)
		}
	}

	return fb, nil
}

// Get retrieves one feedback record.
func (s *FeedbackService) Get(ctx context.Context, id uuid.UUID) (*models.Feedback, error) {
	return s.store.GetByID(ctx, id)
}

// List returns feedback records matching the filters.
func (s *FeedbackService) List(ctx context.Context, filters *models.ListFeedbackFilters) (*models.ListFeedbackResponse, error) {
	return s.store.List(ctx, filters)
}
