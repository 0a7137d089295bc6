package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/produckai/voc-engine/internal/models"
)

// ScoresRepository handles database operations for VOC score records. Scores are
// append-only: a re-scoring run inserts fresh rows instead of updating old ones,
// which is what makes trend queries possible.
type ScoresRepository struct {
	pool *pgxpool.Pool
}

// NewScoresRepository creates a new scores repository.
func NewScoresRepository(pool *pgxpool.Pool) *ScoresRepository {
	return &ScoresRepository{pool: pool}
}

const scoreColumns = `id, target_id, target_type, customer_impact_score, frequency_score,
	recency_score, sentiment_score, theme_alignment_score, effort_score, total_score,
	weights_used, calculated_at, target_created_at`

func scanScore(row pgx.Row) (*models.VOCScore, error) {
	var s models.VOCScore

	err := row.Scan(
		&s.ID,
		&s.TargetID,
		&s.TargetType,
		&s.CustomerImpactScore,
		&s.FrequencyScore,
		&s.RecencyScore,
		&s.SentimentScore,
		&s.ThemeAlignmentScore,
		&s.EffortScore,
		&s.TotalScore,
		&s.WeightsUsed,
		&s.CalculatedAt,
		&s.TargetCreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// InsertBatch appends one score record per target in a single batch.
func (r *ScoresRepository) InsertBatch(ctx context.Context, scores []models.VOCScore) error {
	if len(scores) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, s := range scores {
		batch.Queue(`
			INSERT INTO voc_scores (id, target_id, target_type, customer_impact_score,
				frequency_score, recency_score, sentiment_score, theme_alignment_score,
				effort_score, total_score, weights_used, calculated_at, target_created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			s.ID, s.TargetID, s.TargetType, s.CustomerImpactScore,
			s.FrequencyScore, s.RecencyScore, s.SentimentScore, s.ThemeAlignmentScore,
			s.EffortScore, s.TotalScore, s.WeightsUsed, s.CalculatedAt, s.TargetCreatedAt)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range scores {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert score: %w", err)
		}
	}

	return nil
}

// ListLatest returns the most recent score record per target of the given type,
// highest composite first with newest target breaking ties.
func (r *ScoresRepository) ListLatest(ctx context.Context, targetType string) ([]models.VOCScore, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM (
			SELECT DISTINCT ON (target_id) %s
			FROM voc_scores
			WHERE target_type = $1
			ORDER BY target_id, calculated_at DESC
		) latest
		ORDER BY total_score DESC, target_created_at DESC, target_id ASC`, scoreColumns, scoreColumns)

	rows, err := r.pool.Query(ctx, query, targetType)
	if err != nil {
		return nil, fmt.Errorf("failed to list latest scores: %w", err)
	}
	defer rows.Close()

	scores := make([]models.VOCScore, 0)
	for rows.Next() {
		s, err := scanScore(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		scores = append(scores, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scores: %w", err)
	}

	return scores, nil
}

// ListSince returns every score record of the given type calculated at or after
// since, ordered by target then calculation time. Trend grouping happens in the
// service layer.
func (r *ScoresRepository) ListSince(ctx context.Context, targetType string, since time.Time) ([]models.VOCScore, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM voc_scores
		WHERE target_type = $1 AND calculated_at >= $2
		ORDER BY target_id ASC, calculated_at ASC`, scoreColumns)

	rows, err := r.pool.Query(ctx, query, targetType, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores since: %w", err)
	}
	defer rows.Close()

	scores := make([]models.VOCScore, 0)
	for rows.Next() {
		s, err := scanScore(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		scores = append(scores, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scores: %w", err)
	}

	return scores, nil
}
