package jobs

import (
	"context"

	"github.com/google/uuid"
)

// JobInserter enqueues background jobs. Services depend on this interface so
// tests and job-disabled deployments can substitute a no-op.
type JobInserter interface {
	EnqueueEmbeddingJob(ctx context.Context, feedbackID uuid.UUID) error
}
