// Package repository implements PostgreSQL persistence for feedback, themes,
// insights, VOC scores, customers and pipeline runs.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/produckai/voc-engine/internal/models"
	"github.com/produckai/voc-engine/internal/vocerrors"
)

// FeedbackRepository handles database operations for feedback records.
type FeedbackRepository struct {
	pool *pgxpool.Pool
}

// NewFeedbackRepository creates a new feedback repository.
func NewFeedbackRepository(pool *pgxpool.Pool) *FeedbackRepository {
	return &FeedbackRepository{pool: pool}
}

const feedbackColumns = `id, text, customer_name, source, sentiment, embedding, theme_id, created_at, updated_at`

// scanFeedback scans one feedback row. The embedding column is nullable.
func scanFeedback(row pgx.Row) (*models.Feedback, error) {
	var fb models.Feedback
	var emb *pgvector.Vector

	err := row.Scan(
		&fb.ID,
		&fb.Text,
		&fb.CustomerName,
		&fb.Source,
		&fb.Sentiment,
		&emb,
		&fb.ThemeID,
		&fb.CreatedAt,
		&fb.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if emb != nil {
		fb.Embedding = emb.Slice()
		fb.HasEmbedding = true
	}

	return &fb, nil
}

// Create inserts a new feedback record. CreatedAt defaults to now when the
// request does not carry an original timestamp.
func (r *FeedbackRepository) Create(ctx context.Context, req *models.CreateFeedbackRequest) (*models.Feedback, error) {
	query := fmt.Sprintf(`
		INSERT INTO feedback (text, customer_name, source, sentiment, created_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, NOW()))
		RETURNING %s`, feedbackColumns)

	fb, err := scanFeedback(r.pool.QueryRow(ctx, query,
		req.Text, req.CustomerName, req.Source, req.Sentiment, req.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create feedback: %w", err)
	}

	return fb, nil
}

// GetByID retrieves a feedback record by its ID.
func (r *FeedbackRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Feedback, error) {
	query := fmt.Sprintf(`SELECT %s FROM feedback WHERE id = $1`, feedbackColumns)

	fb, err := scanFeedback(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, vocerrors.NewNotFoundError("feedback", fmt.Sprintf("feedback record with ID %s not found", id))
		}
		return nil, fmt.Errorf("failed to get feedback: %w", err)
	}

	return fb, nil
}

// List returns feedback records matching the filters, newest first.
func (r *FeedbackRepository) List(ctx context.Context, filters *models.ListFeedbackFilters) (*models.ListFeedbackResponse, error) {
	whereClause, args := buildFeedbackFilterConditions(filters)

	var total int64
	countQuery := `SELECT COUNT(*) FROM feedback` + whereClause
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count feedback: %w", err)
	}

	limit := filters.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	offset := filters.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM feedback%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		feedbackColumns, whereClause, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	records := make([]models.Feedback, 0)
	for rows.Next() {
		fb, err := scanFeedback(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		records = append(records, *fb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feedback: %w", err)
	}

	return &models.ListFeedbackResponse{
		Data:   records,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}, nil
}

// buildFeedbackFilterConditions builds the WHERE clause and arguments for List.
func buildFeedbackFilterConditions(filters *models.ListFeedbackFilters) (string, []any) {
	conditions := []string{}
	args := []any{}

	if filters.Source != nil {
		args = append(args, *filters.Source)
		conditions = append(conditions, fmt.Sprintf("source = $%d", len(args)))
	}
	if filters.CustomerName != nil {
		args = append(args, *filters.CustomerName)
		conditions = append(conditions, fmt.Sprintf("customer_name = $%d", len(args)))
	}
	if filters.Since != nil {
		args = append(args, *filters.Since)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filters.Until != nil {
		args = append(args, *filters.Until)
		conditions = append(conditions, fmt.Sprintf("created_at < $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}

	return " WHERE " + strings.Join(conditions, " AND "), args
}

// UpdateEmbedding stores the embedding vector for a feedback record.
func (r *FeedbackRepository) UpdateEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error {
	query := `UPDATE feedback SET embedding = $1, updated_at = NOW() WHERE id = $2`

	tag, err := r.pool.Exec(ctx, query, pgvector.NewVector(embedding), id)
	if err != nil {
		return fmt.Errorf("failed to update embedding: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return vocerrors.NewNotFoundError("feedback", fmt.Sprintf("feedback record with ID %s not found", id))
	}

	return nil
}

// ListWithEmbeddings returns every feedback record that has an embedding,
// oldest first so clustering input order is stable across runs.
func (r *FeedbackRepository) ListWithEmbeddings(ctx context.Context) ([]models.Feedback, error) {
	query := fmt.Sprintf(`SELECT %s FROM feedback WHERE embedding IS NOT NULL ORDER BY created_at ASC, id ASC`, feedbackColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list embedded feedback: %w", err)
	}
	defer rows.Close()

	records := make([]models.Feedback, 0)
	for rows.Next() {
		fb, err := scanFeedback(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		records = append(records, *fb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feedback: %w", err)
	}

	return records, nil
}

// CountMissingEmbeddings returns how many records still await an embedding.
func (r *FeedbackRepository) CountMissingEmbeddings(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM feedback WHERE embedding IS NULL`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count missing embeddings: %w", err)
	}

	return count, nil
}

// ListIDsMissingEmbeddings returns IDs of records without an embedding, oldest
// first, capped at limit. Used by the backfill command.
func (r *FeedbackRepository) ListIDsMissingEmbeddings(ctx context.Context, limit int) ([]uuid.UUID, error) {
	query := `SELECT id FROM feedback WHERE embedding IS NULL AND text <> '' ORDER BY created_at ASC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list unembedded feedback: %w", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan feedback id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feedback ids: %w", err)
	}

	return ids, nil
}
