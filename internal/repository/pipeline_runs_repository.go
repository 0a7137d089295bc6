package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/produckai/voc-engine/internal/models"
	"github.com/produckai/voc-engine/internal/vocerrors"
)

// PipelineRunsRepository persists clustering run records. A partial unique index
// on status = 'running' makes the running row the exclusive pipeline marker.
type PipelineRunsRepository struct {
	pool *pgxpool.Pool
}

// NewPipelineRunsRepository creates a new pipeline runs repository.
func NewPipelineRunsRepository(pool *pgxpool.Pool) *PipelineRunsRepository {
	return &PipelineRunsRepository{pool: pool}
}

const pipelineRunColumns = `id, status, started_at, completed_at, themes_created,
	insights_created, unclustered_count, not_ready_count, error_message`

func scanPipelineRun(row pgx.Row) (*models.PipelineRun, error) {
	var run models.PipelineRun

	err := row.Scan(
		&run.ID,
		&run.Status,
		&run.StartedAt,
		&run.CompletedAt,
		&run.ThemesCreated,
		&run.InsightsCreated,
		&run.UnclusteredCount,
		&run.NotReadyCount,
		&run.ErrorMessage,
	)
	if err != nil {
		return nil, err
	}

	return &run, nil
}

// Begin inserts a running record, acquiring the exclusive marker. Returns
// PipelineBusyError when another run is already in progress.
func (r *PipelineRunsRepository) Begin(ctx context.Context) (*models.PipelineRun, error) {
	query := fmt.Sprintf(`
		INSERT INTO pipeline_runs (status, started_at)
		VALUES ($1, NOW())
		RETURNING %s`, pipelineRunColumns)

	run, err := scanPipelineRun(r.pool.QueryRow(ctx, query, models.RunStatusRunning))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, vocerrors.NewPipelineBusyError("clustering pipeline already in progress")
		}
		return nil, fmt.Errorf("failed to begin pipeline run: %w", err)
	}

	return run, nil
}

// Complete marks the run finished with its result counts.
func (r *PipelineRunsRepository) Complete(ctx context.Context, id uuid.UUID, status string, result *models.ClusterResult) error {
	query := `
		UPDATE pipeline_runs
		SET status = $1, completed_at = NOW(), themes_created = $2, insights_created = $3,
			unclustered_count = $4, not_ready_count = $5
		WHERE id = $6`

	tag, err := r.pool.Exec(ctx, query, status,
		result.ThemesCreated, result.InsightsCreated, result.UnclusteredCount, result.NotReadyCount, id)
	if err != nil {
		return fmt.Errorf("failed to complete pipeline run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return vocerrors.NewNotFoundError("pipeline_run", fmt.Sprintf("pipeline run %s not found", id))
	}

	return nil
}

// Fail marks the run failed, releasing the exclusive marker.
func (r *PipelineRunsRepository) Fail(ctx context.Context, id uuid.UUID, message string) error {
	query := `
		UPDATE pipeline_runs
		SET status = $1, completed_at = NOW(), error_message = $2
		WHERE id = $3`

	tag, err := r.pool.Exec(ctx, query, models.RunStatusFailed, message, id)
	if err != nil {
		return fmt.Errorf("failed to mark pipeline run failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return vocerrors.NewNotFoundError("pipeline_run", fmt.Sprintf("pipeline run %s not found", id))
	}

	return nil
}

// GetLatest returns the most recently started run.
func (r *PipelineRunsRepository) GetLatest(ctx context.Context) (*models.PipelineRun, error) {
	query := fmt.Sprintf(`SELECT %s FROM pipeline_runs ORDER BY started_at DESC LIMIT 1`, pipelineRunColumns)

	run, err := scanPipelineRun(r.pool.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, vocerrors.NewNotFoundError("pipeline_run", "no pipeline runs recorded")
		}
		return nil, fmt.Errorf("failed to get latest pipeline run: %w", err)
	}

	return run, nil
}
