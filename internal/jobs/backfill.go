package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// backfillBatchLimit caps a single backfill pass. Re-run the command for
// backlogs larger than this; already-enqueued IDs are deduplicated by the
// job's unique options.
const backfillBatchLimit = 10000

// BackfillStats holds statistics from a backfill operation.
type BackfillStats struct {
	Enqueued int
	Errors   int
}

type missingEmbeddingLister interface {
	ListIDsMissingEmbeddings(ctx context.Context, limit int) ([]uuid.UUID, error)
}

// Backfill enqueues embedding jobs for every feedback record that is still
// missing an embedding. Individual enqueue failures are counted, not fatal.
func Backfill(ctx context.Context, feedback missingEmbeddingLister, inserter JobInserter) (*BackfillStats, error) {
	stats := &BackfillStats{}

	ids, err := feedback.ListIDsMissingEmbeddings(ctx, backfillBatchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list unembedded feedback: %w", err)
	}

	for _, id := range ids {
		if err := inserter.EnqueueEmbeddingJob(ctx, id); err != nil {
			slog.Error("failed to enqueue embedding job", "feedback_id", id, "error", err)
			stats.Errors++
			continue
		}
		stats.Enqueued++
	}

	return stats, nil
}
