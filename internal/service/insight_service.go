package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/produckai/voc-engine/internal/models"
)

const insightSystemPrompt = `You are a product analyst. Given a feedback theme with supporting excerpts and affected customers, synthesize one actionable insight. Respond with JSON:
{"title": "...", "description": "...", "impact": "...", "recommendation": "...", "severity": "critical|high|medium|low", "effort": "small|medium|large|xlarge"}`

const maxExcerpts = 5

// InsightSynthesizer derives one insight per theme via the text-generation
// collaborator. Collaborator failures degrade to a mechanically derived stub
// flagged generation_incomplete; a theme is never dropped for a failed call.
type InsightSynthesizer struct {
	generator TextGenerator
	directory CustomerDirectory
}

// NewInsightSynthesizer creates an insight synthesizer.
func NewInsightSynthesizer(generator TextGenerator, directory CustomerDirectory) *InsightSynthesizer {
	return &InsightSynthesizer{generator: generator, directory: directory}
}

// SynthesizeAll produces one insight per theme. Returns the insights and the
// number that degraded to stubs.
func (s *InsightSynthesizer) SynthesizeAll(ctx context.Context, themes []models.Theme, membersByTheme map[uuid.UUID][]models.Feedback) ([]models.Insight, int) {
	insights := make([]models.Insight, 0, len(themes))
	degraded := 0

	for _, theme := range themes {
		insight := s.synthesize(ctx, theme, membersByTheme[theme.ID])
		if insight.GenerationIncomplete {
			degraded++
		}
		insights = append(insights, insight)
	}

	return insights, degraded
}

func (s *InsightSynthesizer) synthesize(ctx context.Context, theme models.Theme, members []models.Feedback) models.Insight {
	now := time.Now().UTC()
	excerpts := selectExcerpts(members, maxExcerpts)
	affected := s.affectedCustomers(ctx, members)

	insight := models.Insight{
		ID:                uuid.New(),
		ThemeID:           &theme.ID,
		Excerpts:          excerpts,
		AffectedCustomers: affected,
		FeedbackCount:     len(members),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	result := generate(ctx, s.generator, insightSystemPrompt, insightPrompt(theme, excerpts, affected))
	if result.Status == GenerationSuccess {
		var parsed struct {
			Title          string `json:"title"`
			Description    string `json:"description"`
			Impact         string `json:"impact"`
			Recommendation string `json:"recommendation"`
			Severity       string `json:"severity"`
			Effort         string `json:"effort"`
		}
		err := json.Unmarshal([]byte(result.Raw), &parsed)
		if err == nil && strings.TrimSpace(parsed.Title) != "" &&
			models.ValidSeverity(parsed.Severity) && models.ValidEffort(parsed.Effort) {
			insight.Title = strings.TrimSpace(parsed.Title)
			insight.Description = parsed.Description
			insight.Impact = parsed.Impact
			insight.Recommendation = parsed.Recommendation
			insight.Severity = parsed.Severity
			insight.Effort = parsed.Effort
			return insight
		}
		slog.Warn("insight response unparseable, degrading to stub", "theme_id", theme.ID)
	} else {
		slog.Warn("insight generation failed, degrading to stub", "theme_id", theme.ID, "reason", result.Reason)
	}

	insight.Title = theme.Title
	insight.Description = fmt.Sprintf("%d feedback items grouped under %q.", len(members), theme.Title)
	insight.Severity = severityFromSentiment(members)
	insight.Effort = aggregateEffort(members)
	insight.GenerationIncomplete = true

	return insight
}

func insightPrompt(theme models.Theme, excerpts []string, affected []models.AffectedCustomer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Theme: %s (%d feedback items)\n\nExcerpts:\n", theme.Title, theme.MemberCount)
	for _, e := range excerpts {
		fmt.Fprintf(&b, "- %s\n", truncate(e, 300))
	}
	if len(affected) > 0 {
		b.WriteString("\nAffected customers:\n")
		for _, c := range affected {
			fmt.Fprintf(&b, "- %s (%s, ACV %.0f, %d items)\n", c.Name, c.Segment, c.ACV, c.FeedbackCount)
		}
	}

	return b.String()
}

// selectExcerpts picks up to limit verbatim texts, favoring customer-attributed
// items, then negative or urgent sentiment, then longer texts, newest first on
// ties.
func selectExcerpts(members []models.Feedback, limit int) []string {
	ranked := make([]models.Feedback, len(members))
	copy(ranked, members)

	sort.SliceStable(ranked, func(i, j int) bool {
		ai, aj := hasCustomer(ranked[i]), hasCustomer(ranked[j])
		if ai != aj {
			return ai
		}
		ni, nj := isNegative(ranked[i]), isNegative(ranked[j])
		if ni != nj {
			return ni
		}
		if len(ranked[i].Text) != len(ranked[j].Text) {
			return len(ranked[i].Text) > len(ranked[j].Text)
		}
		return ranked[i].CreatedAt.After(ranked[j].CreatedAt)
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	excerpts := make([]string, len(ranked))
	for i, item := range ranked {
		excerpts[i] = item.Text
	}

	return excerpts
}

func hasCustomer(fb models.Feedback) bool {
	return fb.CustomerName != nil && *fb.CustomerName != ""
}

func isNegative(fb models.Feedback) bool {
	s := sentimentOf(fb)
	return s == models.SentimentNegative || s == models.SentimentUrgent
}

// affectedCustomers deduplicates customer references across members, attaching
// segment and ACV from the directory. Customers without contract data are
// included with ACV 0. Directory failures degrade a single entry to unknown.
func (s *InsightSynthesizer) affectedCustomers(ctx context.Context, members []models.Feedback) []models.AffectedCustomer {
	counts := make(map[string]int)
	for _, item := range members {
		if hasCustomer(item) {
			counts[*item.CustomerName]++
		}
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})

	affected := make([]models.AffectedCustomer, 0, len(names))
	for _, name := range names {
		info := CustomerInfo{Segment: models.SegmentUnknown}
		if s.directory != nil {
			resolved, err := s.directory.Lookup(ctx, name)
			if err != nil {
				slog.Warn("customer lookup failed, using unknown segment", "customer", name, "error", err)
			} else {
				info = resolved
			}
		}
		affected = append(affected, models.AffectedCustomer{
			Name:          name,
			Segment:       info.Segment,
			ACV:           info.ACV,
			FeedbackCount: counts[name],
		})
	}

	return affected
}

// severityFromSentiment infers stub severity from the urgent/negative share of
// supporting feedback.
func severityFromSentiment(members []models.Feedback) string {
	if len(members) == 0 {
		return models.SeverityLow
	}

	urgent, negative := 0, 0
	for _, item := range members {
		switch sentimentOf(item) {
		case models.SentimentUrgent:
			urgent++
		case models.SentimentNegative:
			negative++
		}
	}

	urgentRatio := float64(urgent) / float64(len(members))
	negativeRatio := float64(urgent+negative) / float64(len(members))

	switch {
	case urgentRatio >= 0.25:
		return models.SeverityCritical
	case negativeRatio >= 0.6:
		return models.SeverityHigh
	case negativeRatio >= 0.3:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// aggregateEffort takes a majority vote of per-item effort estimates,
// defaulting to medium.
func aggregateEffort(members []models.Feedback) string {
	counts := make(map[string]int)
	for _, item := range members {
		counts[EstimateEffort(item.Text)]++
	}

	effort := mostFrequent(counts)
	if effort == "" {
		return models.EffortMedium
	}

	return effort
}
