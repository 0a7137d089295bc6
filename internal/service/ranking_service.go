package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/produckai/voc-engine/internal/models"
	"github.com/produckai/voc-engine/internal/vocerrors"
)

// Trend grouping periods.
const (
	GroupByDay   = "day"
	GroupByWeek  = "week"
	GroupByMonth = "month"
)

const (
	defaultTopLimit  = 10
	maxTopLimit      = 100
	defaultTrendDays = 30
)

type rankedScoresReader interface {
	ListLatest(ctx context.Context, targetType string) ([]models.VOCScore, error)
	ListSince(ctx context.Context, targetType string, since time.Time) ([]models.VOCScore, error)
}

type rankedInsightsReader interface {
	ListActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Insight, error)
}

type rankedFeedbackReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Feedback, error)
}

// RankingService exposes sorted views over the latest score records and
// per-target score deltas over a trailing window.
type RankingService struct {
	scores   rankedScoresReader
	insights rankedInsightsReader
	feedback rankedFeedbackReader
}

// NewRankingService creates a ranking service.
func NewRankingService(scores rankedScoresReader, insights rankedInsightsReader, feedback rankedFeedbackReader) *RankingService {
	return &RankingService{scores: scores, insights: insights, feedback: feedback}
}

// Top returns up to limit targets ordered by composite descending, ties broken
// newest-first then by target ID. The repository query already emits that
// total order; Top applies the score floor and limit and attaches titles.
func (s *RankingService) Top(ctx context.Context, targetType string, limit int, minScore float64) ([]models.RankedTarget, error) {
	if err := validateTargetType(targetType); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultTopLimit
	}
	if limit > maxTopLimit {
		limit = maxTopLimit
	}

	latest, err := s.scores.ListLatest(ctx, targetType)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest scores: %w", err)
	}

	ranked := make([]models.RankedTarget, 0, limit)
	for _, score := range latest {
		if score.TotalScore < minScore {
			continue
		}
		ranked = append(ranked, models.RankedTarget{
			TargetID:   score.TargetID,
			TargetType: targetType,
			TotalScore: score.TotalScore,
			CreatedAt:  score.TargetCreatedAt,
		})
		if len(ranked) == limit {
			break
		}
	}

	if err := s.attachTitles(ctx, targetType, ranked); err != nil {
		return nil, err
	}

	return ranked, nil
}

func (s *RankingService) attachTitles(ctx context.Context, targetType string, ranked []models.RankedTarget) error {
	if len(ranked) == 0 {
		return nil
	}

	if targetType == models.TargetInsight {
		ids := make([]uuid.UUID, len(ranked))
		for i, r := range ranked {
			ids[i] = r.TargetID
		}
		insights, err := s.insights.ListActiveByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("failed to load insight titles: %w", err)
		}
		titles := make(map[uuid.UUID]string, len(insights))
		for _, ins := range insights {
			titles[ins.ID] = ins.Title
		}
		for i := range ranked {
			ranked[i].Title = titles[ranked[i].TargetID]
		}
		return nil
	}

	for i := range ranked {
		fb, err := s.feedback.GetByID(ctx, ranked[i].TargetID)
		if err != nil {
			// Target may have been scored before the record became
			// unavailable; the ranking entry stays, just untitled.
			if errors.Is(err, vocerrors.ErrNotFound) {
				continue
			}
			return fmt.Errorf("failed to load feedback title: %w", err)
		}
		ranked[i].Title = truncate(fb.Text, 80)
	}

	return nil
}

// Trends reports, per target, the composite delta between the oldest and newest
// score record in the trailing window. A target with a single record reports a
// zero delta. Samples counts the distinct periods that contain a record.
func (s *RankingService) Trends(ctx context.Context, targetType string, daysBack int, groupBy string) ([]models.ScoreTrend, error) {
	if err := validateTargetType(targetType); err != nil {
		return nil, err
	}
	switch groupBy {
	case GroupByDay, GroupByWeek, GroupByMonth:
	default:
		return nil, vocerrors.NewValidationError("group_by", "group_by must be day, week or month")
	}
	if daysBack <= 0 {
		daysBack = defaultTrendDays
	}

	since := time.Now().UTC().AddDate(0, 0, -daysBack)
	records, err := s.scores.ListSince(ctx, targetType, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load score history: %w", err)
	}

	type window struct {
		oldest, newest models.VOCScore
		periods        map[string]bool
	}
	byTarget := make(map[uuid.UUID]*window)
	order := make([]uuid.UUID, 0)
	for _, rec := range records {
		w, ok := byTarget[rec.TargetID]
		if !ok {
			w = &window{oldest: rec, newest: rec, periods: make(map[string]bool)}
			byTarget[rec.TargetID] = w
			order = append(order, rec.TargetID)
		}
		if rec.CalculatedAt.Before(w.oldest.CalculatedAt) {
			w.oldest = rec
		}
		if !rec.CalculatedAt.Before(w.newest.CalculatedAt) {
			w.newest = rec
		}
		w.periods[periodKey(rec.CalculatedAt, groupBy)] = true
	}

	trends := make([]models.ScoreTrend, 0, len(order))
	for _, id := range order {
		w := byTarget[id]
		trends = append(trends, models.ScoreTrend{
			TargetID:    id,
			TargetType:  targetType,
			Period:      groupBy,
			OldestScore: w.oldest.TotalScore,
			NewestScore: w.newest.TotalScore,
			Delta:       roundOneDecimal(w.newest.TotalScore - w.oldest.TotalScore),
			Samples:     len(w.periods),
		})
	}

	sort.Slice(trends, func(i, j int) bool {
		if trends[i].Delta != trends[j].Delta {
			return trends[i].Delta > trends[j].Delta
		}
		return trends[i].TargetID.String() < trends[j].TargetID.String()
	})

	return trends, nil
}

func periodKey(t time.Time, groupBy string) string {
	switch groupBy {
	case GroupByWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case GroupByMonth:
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}

func validateTargetType(targetType string) error {
	switch targetType {
	case models.TargetFeedback, models.TargetInsight:
		return nil
	default:
		return vocerrors.NewValidationError("target_type",
			fmt.Sprintf("target_type must be %q or %q", models.TargetFeedback, models.TargetInsight))
	}
}
