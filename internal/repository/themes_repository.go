package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/produckai/voc-engine/internal/models"
	"github.com/produckai/voc-engine/internal/vocerrors"
)

// ThemesRepository handles database operations for themes and their memberships.
type ThemesRepository struct {
	pool *pgxpool.Pool
}

// NewThemesRepository creates a new themes repository.
func NewThemesRepository(pool *pgxpool.Pool) *ThemesRepository {
	return &ThemesRepository{pool: pool}
}

const themeColumns = `id, version, title, centroid, cohesion, member_count, customer_counts, sentiment_distribution, created_at, archived_at`

func scanTheme(row pgx.Row) (*models.Theme, error) {
	var theme models.Theme
	var centroid *pgvector.Vector

	err := row.Scan(
		&theme.ID,
		&theme.Version,
		&theme.Title,
		&centroid,
		&theme.Cohesion,
		&theme.MemberCount,
		&theme.CustomerCounts,
		&theme.SentimentDist,
		&theme.CreatedAt,
		&theme.ArchivedAt,
	)
	if err != nil {
		return nil, err
	}

	if centroid != nil {
		theme.Centroid = centroid.Slice()
	}

	return &theme, nil
}

// ListActive returns the themes of the latest clustering run, largest first.
func (r *ThemesRepository) ListActive(ctx context.Context) (*models.ListThemesResponse, error) {
	query := fmt.Sprintf(`SELECT %s FROM themes WHERE archived_at IS NULL ORDER BY member_count DESC, created_at ASC`, themeColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list themes: %w", err)
	}
	defer rows.Close()

	themes := make([]models.Theme, 0)
	for rows.Next() {
		theme, err := scanTheme(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan theme: %w", err)
		}
		themes = append(themes, *theme)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate themes: %w", err)
	}

	return &models.ListThemesResponse{
		Data:  themes,
		Total: int64(len(themes)),
	}, nil
}

// GetByID retrieves a theme by its ID, archived or not.
func (r *ThemesRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Theme, error) {
	query := fmt.Sprintf(`SELECT %s FROM themes WHERE id = $1`, themeColumns)

	theme, err := scanTheme(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, vocerrors.NewNotFoundError("theme", fmt.Sprintf("theme with ID %s not found", id))
		}
		return nil, fmt.Errorf("failed to get theme: %w", err)
	}

	return theme, nil
}

// ListMembers returns the feedback memberships of a theme, most similar first.
func (r *ThemesRepository) ListMembers(ctx context.Context, themeID uuid.UUID) ([]models.ThemeMember, error) {
	query := `
		SELECT theme_id, feedback_id, similarity
		FROM theme_feedback
		WHERE theme_id = $1
		ORDER BY similarity DESC, feedback_id ASC`

	rows, err := r.pool.Query(ctx, query, themeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list theme members: %w", err)
	}
	defer rows.Close()

	members := make([]models.ThemeMember, 0)
	for rows.Next() {
		var m models.ThemeMember
		if err := rows.Scan(&m.ThemeID, &m.FeedbackID, &m.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan theme member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate theme members: %w", err)
	}

	return members, nil
}
