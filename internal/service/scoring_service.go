package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/produckai/voc-engine/internal/models"
	"github.com/produckai/voc-engine/internal/vocerrors"
)

type scoringFeedbackReader interface {
	ListWithEmbeddings(ctx context.Context) ([]models.Feedback, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Feedback, error)
}

type scoringThemesReader interface {
	ListActive(ctx context.Context) (*models.ListThemesResponse, error)
}

type scoringInsightsReader interface {
	ListActive(ctx context.Context) (*models.ListInsightsResponse, error)
	ListActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Insight, error)
}

type scoreWriter interface {
	InsertBatch(ctx context.Context, scores []models.VOCScore) error
}

// ScoringService assembles scoring context from repository state, runs the
// scorer over one batch, and appends the resulting records. Frequency
// normalization happens within the batch, so callers score comparable targets
// together.
type ScoringService struct {
	scorer    *VOCScorer
	feedback  scoringFeedbackReader
	themes    scoringThemesReader
	insights  scoringInsightsReader
	scores    scoreWriter
	directory CustomerDirectory
}

// NewScoringService creates a scoring service.
func NewScoringService(scorer *VOCScorer, feedback scoringFeedbackReader, themes scoringThemesReader,
	insights scoringInsightsReader, scores scoreWriter, directory CustomerDirectory) *ScoringService {
	return &ScoringService{
		scorer:    scorer,
		feedback:  feedback,
		themes:    themes,
		insights:  insights,
		scores:    scores,
		directory: directory,
	}
}

// Score runs one scoring batch for the given target type. With no explicit
// targetIDs, every active target of that type is scored.
func (s *ScoringService) Score(ctx context.Context, targetType string, targetIDs []uuid.UUID) ([]models.VOCScore, error) {
	var inputs []ScoreInput
	var err error

	switch targetType {
	case models.TargetInsight:
		inputs, err = s.insightInputs(ctx, targetIDs)
	case models.TargetFeedback:
		inputs, err = s.feedbackInputs(ctx, targetIDs)
	default:
		return nil, vocerrors.NewValidationError("target_type",
			fmt.Sprintf("target_type must be %q or %q", models.TargetFeedback, models.TargetInsight))
	}
	if err != nil {
		return nil, err
	}

	records := s.scorer.Score(inputs, time.Now().UTC())
	if err := s.scores.InsertBatch(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to persist scores: %w", err)
	}

	return records, nil
}

func (s *ScoringService) insightInputs(ctx context.Context, targetIDs []uuid.UUID) ([]ScoreInput, error) {
	var insights []models.Insight
	if len(targetIDs) > 0 {
		list, err := s.insights.ListActiveByIDs(ctx, targetIDs)
		if err != nil {
			return nil, err
		}
		insights = list
	} else {
		resp, err := s.insights.ListActive(ctx)
		if err != nil {
			return nil, err
		}
		insights = resp.Data
	}

	themesByID, err := s.activeThemes(ctx)
	if err != nil {
		return nil, err
	}

	latestByTheme, err := s.latestSupportByTheme(ctx)
	if err != nil {
		return nil, err
	}

	inputs := make([]ScoreInput, 0, len(insights))
	for _, ins := range insights {
		in := ScoreInput{
			TargetID:        ins.ID,
			TargetType:      models.TargetInsight,
			TargetCreatedAt: ins.CreatedAt,
			Customers:       ins.AffectedCustomers,
			SupportCount:    ins.FeedbackCount,
			LatestSupport:   ins.CreatedAt,
			Effort:          ins.Effort,
		}
		if ins.ThemeID != nil {
			if theme, ok := themesByID[*ins.ThemeID]; ok {
				in.HasTheme = true
				in.Cohesion = theme.Cohesion
				in.ThemeSize = theme.MemberCount
				in.SentimentDist = theme.SentimentDist
			}
			if latest, ok := latestByTheme[*ins.ThemeID]; ok {
				in.LatestSupport = latest
			}
		}
		inputs = append(inputs, in)
	}

	return inputs, nil
}

func (s *ScoringService) feedbackInputs(ctx context.Context, targetIDs []uuid.UUID) ([]ScoreInput, error) {
	var items []models.Feedback
	if len(targetIDs) > 0 {
		for _, id := range targetIDs {
			fb, err := s.feedback.GetByID(ctx, id)
			if err != nil {
				return nil, err
			}
			items = append(items, *fb)
		}
	} else {
		list, err := s.feedback.ListWithEmbeddings(ctx)
		if err != nil {
			return nil, err
		}
		items = list
	}

	themesByID, err := s.activeThemes(ctx)
	if err != nil {
		return nil, err
	}

	inputs := make([]ScoreInput, 0, len(items))
	for _, fb := range items {
		in := ScoreInput{
			TargetID:        fb.ID,
			TargetType:      models.TargetFeedback,
			TargetCreatedAt: fb.CreatedAt,
			SupportCount:    1,
			LatestSupport:   fb.CreatedAt,
			SentimentDist:   map[string]int{sentimentOf(fb): 1},
			Effort:          EstimateEffort(fb.Text),
		}

		if fb.ThemeID != nil {
			if theme, ok := themesByID[*fb.ThemeID]; ok {
				in.HasTheme = true
				in.Cohesion = theme.Cohesion
				in.ThemeSize = theme.MemberCount
				in.SupportCount = theme.MemberCount
			}
		}

		if hasCustomer(fb) {
			info, err := s.directory.Lookup(ctx, *fb.CustomerName)
			if err != nil {
				return nil, err
			}
			in.Customers = []models.AffectedCustomer{{
				Name:          *fb.CustomerName,
				Segment:       info.Segment,
				ACV:           info.ACV,
				FeedbackCount: 1,
			}}
		}

		inputs = append(inputs, in)
	}

	return inputs, nil
}

func (s *ScoringService) activeThemes(ctx context.Context) (map[uuid.UUID]models.Theme, error) {
	resp, err := s.themes.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]models.Theme, len(resp.Data))
	for _, theme := range resp.Data {
		byID[theme.ID] = theme
	}

	return byID, nil
}

// latestSupportByTheme maps each active theme to the newest creation timestamp
// among its member feedback.
func (s *ScoringService) latestSupportByTheme(ctx context.Context) (map[uuid.UUID]time.Time, error) {
	items, err := s.feedback.ListWithEmbeddings(ctx)
	if err != nil {
		return nil, err
	}

	latest := make(map[uuid.UUID]time.Time)
	for _, fb := range items {
		if fb.ThemeID == nil {
			continue
		}
		if current, ok := latest[*fb.ThemeID]; !ok || fb.CreatedAt.After(current) {
			latest[*fb.ThemeID] = fb.CreatedAt
		}
	}

	return latest, nil
}
