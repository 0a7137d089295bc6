package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/produckai/voc-engine/internal/models"
	"github.com/produckai/voc-engine/internal/vocerrors"
)

type mockFeedbackStore struct {
	createFunc func(ctx context.Context, req *models.CreateFeedbackRequest) (*models.Feedback, error)
}

func (m *mockFeedbackStore) Create(ctx context.Context, req *models.CreateFeedbackRequest) (*models.Feedback, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}

	return &models.Feedback{ID: uuid.New(), Text: req.Text, Source: req.Source}, nil
}

func (m *mockFeedbackStore) GetByID(_ context.Context, id uuid.UUID) (*models.Feedback, error) {
	return &models.Feedback{ID: id}, nil
}

func (m *mockFeedbackStore) List(_ context.Context, _ *models.ListFeedbackFilters) (*models.ListFeedbackResponse, error) {
	return &models.ListFeedbackResponse{}, nil
}

type mockEnqueuer struct {
	enqueueFunc func(ctx context.Context, feedbackID uuid.UUID) error
	calls       int
}

func (m *mockEnqueuer) EnqueueEmbeddingJob(ctx context.Context, feedbackID uuid.UUID) error {
	m.calls++
	if m.enqueueFunc != nil {
		return m.enqueueFunc(ctx, feedbackID)
	}

	return nil
}

func TestFeedbackService_Create(t *testing.T) {
	t.Run("rejects empty text", func(t *testing.T) {
		svc := NewFeedbackService(&mockFeedbackStore{}, nil)
		fb, err := svc.Create(context.Background(), &models.CreateFeedbackRequest{Text: "   "})
		assert.Nil(t, fb)
		assert.ErrorIs(t, err, vocerrors.ErrValidation)
	})

	t.Run("rejects unknown sentiment tags", func(t *testing.T) {
		svc := NewFeedbackService(&mockFeedbackStore{}, nil)
		fb, err := svc.Create(context.Background(), &models.CreateFeedbackRequest{
			Text:      "dashboard is slow",
			Sentiment: strRef("enraged"),
		})
		assert.Nil(t, fb)
		assert.ErrorIs(t, err, vocerrors.ErrValidation)
	})

	t.Run("defaults the source", func(t *testing.T) {
		var captured *models.CreateFeedbackRequest
		svc := NewFeedbackService(&mockFeedbackStore{
			createFunc: func(_ context.Context, req *models.CreateFeedbackRequest) (*models.Feedback, error) {
				captured = req
				return &models.Feedback{ID: uuid.New(), Text: req.Text, Source: req.Source}, nil
			},
		}, nil)

		fb, err := svc.Create(context.Background(), &models.CreateFeedbackRequest{Text: "dashboard is slow"})
		require.NoError(t, err)
		assert.Equal(t, "manual", fb.Source)
		require.NotNil(t, captured)
		assert.Equal(t, "manual", captured.Source)
	})

	t.Run("enqueues an embedding job for the created record", func(t *testing.T) {
		enqueuer := &mockEnqueuer{}
		created := uuid.New()
		svc := NewFeedbackService(&mockFeedbackStore{
			createFunc: func(_ context.Context, req *models.CreateFeedbackRequest) (*models.Feedback, error) {
				return &models.Feedback{ID: created, Text: req.Text, Source: req.Source}, nil
			},
		}, enqueuer)

		enqueuer.enqueueFunc = func(_ context.Context, feedbackID uuid.UUID) error {
			assert.Equal(t, created, feedbackID)
			return nil
		}

		_, err := svc.Create(context.Background(), &models.CreateFeedbackRequest{Text: "dashboard is slow"})
		require.NoError(t, err)
		assert.Equal(t, 1, enqueuer.calls)
	})

	t.Run("enqueue failure does not fail the create", func(t *testing.T) {
		enqueuer := &mockEnqueuer{
			enqueueFunc: func(_ context.Context, _ uuid.UUID) error {
				return errors.New("queue unavailable")
			},
		}
		svc := NewFeedbackService(&mockFeedbackStore{}, enqueuer)

		fb, err := svc.Create(context.Background(), &models.CreateFeedbackRequest{Text: "dashboard is slow"})
		require.NoError(t, err)
		assert.NotNil(t, fb)
	})
}
