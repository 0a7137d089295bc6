package jobs

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

// RiverJobInserter implements JobInserter using the River client.
type RiverJobInserter struct {
	client *river.Client[pgx.Tx]
}

// NewRiverJobInserter creates a new River-based job inserter.
func NewRiverJobInserter(client *river.Client[pgx.Tx]) *RiverJobInserter {
	return &RiverJobInserter{client: client}
}

// EnqueueEmbeddingJob enqueues an embedding generation job with uniqueness
// constraints so a record gets at most one pending job.
func (r *RiverJobInserter) EnqueueEmbeddingJob(ctx context.Context, feedbackID uuid.UUID) error {
	_, err := r.client.Insert(ctx, EmbeddingJobArgs{FeedbackID: feedbackID}, &river.InsertOpts{
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
			// JobStatePending is required by River when using ByState
			ByState: []rivertype.JobState{
				rivertype.JobStatePending,
				rivertype.JobStateAvailable,
				rivertype.JobStateRunning,
				rivertype.JobStateRetryable,
				rivertype.JobStateScheduled,
			},
		},
	})
	return err
}

var _ JobInserter = (*RiverJobInserter)(nil)
