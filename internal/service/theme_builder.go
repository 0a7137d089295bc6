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

const themeTitleSystemPrompt = `You are a product analyst. Given customer feedback excerpts that share a common theme, produce a short descriptive theme title (at most 8 words). Respond with JSON: {"title": "..."}`

const maxTitleExcerpts = 5

// ThemeBuilder turns clustering output into Theme entities with aggregates.
// Title generation is delegated to the text-generation collaborator; when it
// fails the builder falls back to a deterministic keyword title, never blocking
// the pipeline.
type ThemeBuilder struct {
	generator TextGenerator
}

// NewThemeBuilder creates a theme builder. The generator may be nil, in which
// case every title comes from the keyword fallback.
func NewThemeBuilder(generator TextGenerator) *ThemeBuilder {
	return &ThemeBuilder{generator: generator}
}

// Build produces one theme per cluster plus the membership rows. Membership is
// a pure function of the input; only titles may vary between runs.
func (b *ThemeBuilder) Build(ctx context.Context, clusters [][]models.Feedback) ([]models.Theme, []models.ThemeMember) {
	themes := make([]models.Theme, 0, len(clusters))
	members := make([]models.ThemeMember, 0)
	now := time.Now().UTC()

	for _, cluster := range clusters {
		centroid := meanVector(embeddingsOf(cluster))

		var cohesion float64
		similarities := make([]float64, len(cluster))
		for i, item := range cluster {
			similarities[i] = cosineSimilarity(item.Embedding, centroid)
			cohesion += similarities[i]
		}
		cohesion /= float64(len(cluster))

		customerCounts := make(map[string]int)
		sentimentDist := make(map[string]int)
		for _, item := range cluster {
			if item.CustomerName != nil && *item.CustomerName != "" {
				customerCounts[*item.CustomerName]++
			}
			sentimentDist[sentimentOf(item)]++
		}

		theme := models.Theme{
			ID:             uuid.New(),
			Title:          b.titleFor(ctx, cluster),
			Centroid:       centroid,
			Cohesion:       cohesion,
			CreatedAt:      now,
			MemberCount:    len(cluster),
			CustomerCounts: customerCounts,
			SentimentDist:  sentimentDist,
		}
		themes = append(themes, theme)

		for i, item := range cluster {
			members = append(members, models.ThemeMember{
				ThemeID:    theme.ID,
				FeedbackID: item.ID,
				Similarity: similarities[i],
			})
		}
	}

	return themes, members
}

// titleFor asks the collaborator for a theme title, falling back to the
// deterministic keyword title on any failure.
func (b *ThemeBuilder) titleFor(ctx context.Context, cluster []models.Feedback) string {
	excerpts := make([]string, 0, maxTitleExcerpts)
	for _, item := range cluster {
		if len(excerpts) == maxTitleExcerpts {
			break
		}
		excerpts = append(excerpts, truncate(item.Text, 200))
	}

	prompt := "Feedback excerpts:\n- " + strings.Join(excerpts, "\n- ")
	result := generate(ctx, b.generator, themeTitleSystemPrompt, prompt)
	if result.Status != GenerationSuccess {
		slog.Warn("theme title generation failed, using keyword fallback", "reason", result.Reason)
		return fallbackTitle(cluster)
	}

	var parsed struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal([]byte(result.Raw), &parsed); err != nil || strings.TrimSpace(parsed.Title) == "" {
		slog.Warn("theme title response unparseable, using keyword fallback")
		return fallbackTitle(cluster)
	}

	return strings.TrimSpace(parsed.Title)
}

// fallbackTitle derives a title from the most frequent keyword and customer in
// the cluster plus its size. Deterministic for a given member set.
func fallbackTitle(cluster []models.Feedback) string {
	keyword := topKeyword(cluster)
	customer := topCustomer(cluster)

	switch {
	case keyword != "" && customer != "":
		return fmt.Sprintf("%s (%s, %d items)", titleCase(keyword), customer, len(cluster))
	case keyword != "":
		return fmt.Sprintf("%s (%d items)", titleCase(keyword), len(cluster))
	default:
		return fmt.Sprintf("Feedback Theme (%d items)", len(cluster))
	}
}

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "that": true, "this": true,
	"with": true, "are": true, "was": true, "have": true, "has": true,
	"but": true, "not": true, "you": true, "our": true, "your": true,
	"when": true, "from": true, "would": true, "could": true, "should": true,
	"its": true, "it's": true, "can": true, "cant": true, "very": true,
	"there": true, "their": true, "they": true, "been": true, "being": true,
	"will": true, "just": true, "about": true, "into": true, "some": true,
	"more": true, "also": true, "than": true, "then": true, "them": true,
	"were": true, "what": true, "which": true, "while": true, "where": true,
}

func topKeyword(cluster []models.Feedback) string {
	counts := make(map[string]int)
	for _, item := range cluster {
		for _, word := range tokenize(item.Text) {
			counts[word]++
		}
	}

	return mostFrequent(counts)
}

func topCustomer(cluster []models.Feedback) string {
	counts := make(map[string]int)
	for _, item := range cluster {
		if item.CustomerName != nil && *item.CustomerName != "" {
			counts[*item.CustomerName]++
		}
	}

	return mostFrequent(counts)
}

// mostFrequent returns the highest-count key, ties broken lexicographically so
// fallback titles are reproducible.
func mostFrequent(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best := ""
	bestCount := 0
	for _, k := range keys {
		if counts[k] > bestCount {
			best = k
			bestCount = counts[k]
		}
	}

	return best
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') && r != '\''
	})

	words := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) >= 3 && !stopwords[f] {
			words = append(words, f)
		}
	}

	return words
}

func titleCase(word string) string {
	if word == "" {
		return word
	}

	return strings.ToUpper(word[:1]) + word[1:]
}

func truncate(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}

	return text[:maxLen] + "..."
}
