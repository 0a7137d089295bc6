package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"golang.org/x/time/rate"

	"github.com/produckai/voc-engine/internal/embeddings"
	"github.com/produckai/voc-engine/internal/models"
	"github.com/produckai/voc-engine/internal/vocerrors"
)

// FeedbackEmbeddingStore is the repository capability the worker needs. The
// worker re-reads the record so it always embeds the current text.
type FeedbackEmbeddingStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Feedback, error)
	UpdateEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error
}

// EmbeddingWorkerDeps holds the dependencies for the embedding worker.
type EmbeddingWorkerDeps struct {
	EmbeddingClient embeddings.Client
	Feedback        FeedbackEmbeddingStore
	RateLimiter     *rate.Limiter
}

// EmbeddingWorker processes embedding generation jobs.
type EmbeddingWorker struct {
	river.WorkerDefaults[EmbeddingJobArgs]
	deps EmbeddingWorkerDeps
}

// NewEmbeddingWorker creates a new embedding worker with the given dependencies.
func NewEmbeddingWorker(deps EmbeddingWorkerDeps) *EmbeddingWorker {
	return &EmbeddingWorker{deps: deps}
}

// Work processes one embedding job.
func (w *EmbeddingWorker) Work(ctx context.Context, job *river.Job[EmbeddingJobArgs]) error {
	feedbackID := job.Args.FeedbackID

	slog.Debug("processing embedding job", "job_id", job.ID, "feedback_id", feedbackID)

	if w.deps.RateLimiter != nil {
		if err := w.deps.RateLimiter.Wait(ctx); err != nil {
			return err
		}
	}

	fb, err := w.deps.Feedback.GetByID(ctx, feedbackID)
	if err != nil {
		if errors.Is(err, vocerrors.ErrNotFound) {
			// Record gone before the job ran; retrying won't bring it back.
			slog.Info("feedback missing before embedding job completed",
				"job_id", job.ID, "feedback_id", feedbackID)
			return nil
		}
		return err
	}

	if fb.HasEmbedding {
		slog.Debug("feedback already embedded, skipping", "job_id", job.ID, "feedback_id", feedbackID)
		return nil
	}

	embedding, err := w.deps.EmbeddingClient.GetEmbedding(ctx, fb.Text)
	if err != nil {
		slog.Error("failed to generate embedding",
			"job_id", job.ID, "feedback_id", feedbackID, "error", err)
		return err // River retries based on configuration
	}

	if err := w.deps.Feedback.UpdateEmbedding(ctx, feedbackID, embedding); err != nil {
		if errors.Is(err, vocerrors.ErrNotFound) {
			slog.Info("feedback deleted before embedding could be stored",
				"job_id", job.ID, "feedback_id", feedbackID)
			return nil
		}
		slog.Error("failed to store embedding",
			"job_id", job.ID, "feedback_id", feedbackID, "error", err)
		return err
	}

	slog.Info("embedding generated successfully", "job_id", job.ID, "feedback_id", feedbackID)

	return nil
}
