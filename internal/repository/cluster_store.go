package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/produckai/voc-engine/internal/models"
)

// ClusterStore installs the output of one clustering run. The archive of the old
// active set and the insert of the new one happen in a single transaction, so
// readers always see either the previous complete set or the new complete set.
type ClusterStore struct {
	pool *pgxpool.Pool
}

// NewClusterStore creates a new cluster store.
func NewClusterStore(pool *pgxpool.Pool) *ClusterStore {
	return &ClusterStore{pool: pool}
}

// SaveRun archives the active themes and insights, clears feedback theme
// assignments, and installs the new set under the next run version. Returns the
// version assigned to the new rows.
func (s *ClusterStore) SaveRun(ctx context.Context, themes []models.Theme, members []models.ThemeMember, insights []models.Insight) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	var version int
	if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) + 1 FROM themes`).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to determine run version: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE themes SET archived_at = NOW() WHERE archived_at IS NULL`); err != nil {
		return 0, fmt.Errorf("failed to archive themes: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE insights SET archived_at = NOW(), updated_at = NOW() WHERE archived_at IS NULL`); err != nil {
		return 0, fmt.Errorf("failed to archive insights: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE feedback SET theme_id = NULL, updated_at = NOW() WHERE theme_id IS NOT NULL`); err != nil {
		return 0, fmt.Errorf("failed to clear theme assignments: %w", err)
	}

	for _, theme := range themes {
		_, err := tx.Exec(ctx, `
			INSERT INTO themes (id, version, title, centroid, cohesion, member_count,
				customer_counts, sentiment_distribution, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())`,
			theme.ID, version, theme.Title, pgvector.NewVector(theme.Centroid), theme.Cohesion,
			theme.MemberCount, theme.CustomerCounts, theme.SentimentDist)
		if err != nil {
			return 0, fmt.Errorf("failed to insert theme: %w", err)
		}
	}

	for _, m := range members {
		_, err := tx.Exec(ctx, `
			INSERT INTO theme_feedback (theme_id, feedback_id, similarity)
			VALUES ($1, $2, $3)`,
			m.ThemeID, m.FeedbackID, m.Similarity)
		if err != nil {
			return 0, fmt.Errorf("failed to insert theme member: %w", err)
		}

		_, err = tx.Exec(ctx, `UPDATE feedback SET theme_id = $1, updated_at = NOW() WHERE id = $2`,
			m.ThemeID, m.FeedbackID)
		if err != nil {
			return 0, fmt.Errorf("failed to assign feedback theme: %w", err)
		}
	}

	for _, ins := range insights {
		_, err := tx.Exec(ctx, `
			INSERT INTO insights (id, theme_id, version, title, description, impact,
				recommendation, severity, effort, generation_incomplete, excerpts,
				affected_customers, feedback_count, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())`,
			ins.ID, ins.ThemeID, version, ins.Title, ins.Description, ins.Impact,
			ins.Recommendation, ins.Severity, ins.Effort, ins.GenerationIncomplete,
			ins.Excerpts, ins.AffectedCustomers, ins.FeedbackCount)
		if err != nil {
			return 0, fmt.Errorf("failed to insert insight: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit clustering run: %w", err)
	}

	return version, nil
}
