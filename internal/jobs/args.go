// Package jobs defines the background job arguments, workers and inserters for
// the River queue.
package jobs

import "github.com/google/uuid"

// EmbeddingJobArgs are the arguments for generating the embedding of one
// feedback record.
type EmbeddingJobArgs struct {
	FeedbackID uuid.UUID `json:"feedback_id"`
}

// Kind returns the unique job kind for River.
func (EmbeddingJobArgs) Kind() string { return "feedback_embedding" }
