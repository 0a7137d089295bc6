package service

import (
	"strings"

	"github.com/produckai/voc-engine/internal/models"
)

// Keyword heuristics for untagged feedback. Deliberately simple; ingestion may
// attach a real sentiment tag, which always wins over detection.

var urgentKeywords = []string{
	"critical", "blocker", "urgent", "asap", "immediately",
	"broken", "not working", "can't use", "unusable",
}

var negativeKeywords = []string{
	"frustrated", "annoying", "painful", "difficult", "confusing",
	"problem", "issue", "bug", "error", "missing",
}

var positiveKeywords = []string{
	"would be nice", "enhancement", "suggestion", "could improve",
	"minor", "nice to have",
}

// DetectSentiment classifies feedback text as urgent, negative, positive or
// neutral. Urgency indicators win over negative ones.
func DetectSentiment(text string) string {
	lower := strings.ToLower(text)

	if containsAny(lower, urgentKeywords) {
		return models.SentimentUrgent
	}
	if containsAny(lower, negativeKeywords) {
		return models.SentimentNegative
	}
	if containsAny(lower, positiveKeywords) {
		return models.SentimentPositive
	}

	return models.SentimentNeutral
}

var smallEffortKeywords = []string{
	"button", "label", "text", "color", "typo", "wording", "copy", "ui", "tooltip",
}

var largeEffortKeywords = []string{
	"integration", "api", "infrastructure", "architecture",
	"migration", "rebuild", "overhaul", "completely",
}

// EstimateEffort guesses implementation effort from feedback text. Surface
// tweaks read as small, platform work as large, everything else as medium.
func EstimateEffort(text string) string {
	lower := strings.ToLower(text)

	if containsAny(lower, smallEffortKeywords) {
		return models.EffortSmall
	}
	if containsAny(lower, largeEffortKeywords) {
		return models.EffortLarge
	}

	return models.EffortMedium
}

// sentimentOf returns the feedback's tag when present, otherwise the detected
// sentiment of its text.
func sentimentOf(fb models.Feedback) string {
	if fb.Sentiment != nil && *fb.Sentiment != "" {
		return *fb.Sentiment
	}

	return DetectSentiment(fb.Text)
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}

	return false
}
