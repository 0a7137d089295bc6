package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/produckai/voc-engine/internal/models"
	"github.com/produckai/voc-engine/internal/vocerrors"
)

// InsightsRepository handles database operations for insights.
type InsightsRepository struct {
	pool *pgxpool.Pool
}

// NewInsightsRepository creates a new insights repository.
func NewInsightsRepository(pool *pgxpool.Pool) *InsightsRepository {
	return &InsightsRepository{pool: pool}
}

const insightColumns = `id, theme_id, version, title, description, impact, recommendation,
	severity, effort, generation_incomplete, excerpts, affected_customers, feedback_count,
	created_at, updated_at, archived_at`

func scanInsight(row pgx.Row) (*models.Insight, error) {
	var ins models.Insight

	err := row.Scan(
		&ins.ID,
		&ins.ThemeID,
		&ins.Version,
		&ins.Title,
		&ins.Description,
		&ins.Impact,
		&ins.Recommendation,
		&ins.Severity,
		&ins.Effort,
		&ins.GenerationIncomplete,
		&ins.Excerpts,
		&ins.AffectedCustomers,
		&ins.FeedbackCount,
		&ins.CreatedAt,
		&ins.UpdatedAt,
		&ins.ArchivedAt,
	)
	if err != nil {
		return nil, err
	}

	return &ins, nil
}

// ListActive returns the insights of the latest clustering run, largest
// supporting-feedback count first.
func (r *InsightsRepository) ListActive(ctx context.Context) (*models.ListInsightsResponse, error) {
	query := fmt.Sprintf(`SELECT %s FROM insights WHERE archived_at IS NULL ORDER BY feedback_count DESC, created_at ASC`, insightColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list insights: %w", err)
	}
	defer rows.Close()

	insights := make([]models.Insight, 0)
	for rows.Next() {
		ins, err := scanInsight(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan insight: %w", err)
		}
		insights = append(insights, *ins)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate insights: %w", err)
	}

	return &models.ListInsightsResponse{
		Data:  insights,
		Total: int64(len(insights)),
	}, nil
}

// ListActiveByIDs returns the active insights with the given IDs.
func (r *InsightsRepository) ListActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Insight, error) {
	query := fmt.Sprintf(`SELECT %s FROM insights WHERE archived_at IS NULL AND id = ANY($1)`, insightColumns)

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list insights by ids: %w", err)
	}
	defer rows.Close()

	insights := make([]models.Insight, 0, len(ids))
	for rows.Next() {
		ins, err := scanInsight(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan insight: %w", err)
		}
		insights = append(insights, *ins)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate insights: %w", err)
	}

	return insights, nil
}

// GetByID retrieves an insight by its ID, archived or not.
func (r *InsightsRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Insight, error) {
	query := fmt.Sprintf(`SELECT %s FROM insights WHERE id = $1`, insightColumns)

	ins, err := scanInsight(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, vocerrors.NewNotFoundError("insight", fmt.Sprintf("insight with ID %s not found", id))
		}
		return nil, fmt.Errorf("failed to get insight: %w", err)
	}

	return ins, nil
}
