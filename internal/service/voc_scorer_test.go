package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/produckai/voc-engine/internal/models"
	"github.com/produckai/voc-engine/internal/vocerrors"
)

func TestWeightsHolder_Configure(t *testing.T) {
	t.Run("accepts weights summing to 1.0", func(t *testing.T) {
		holder := NewWeightsHolder()
		err := holder.Configure(models.VOCWeights{
			CustomerImpact: 0.4, Frequency: 0.2, Recency: 0.1,
			Sentiment: 0.1, ThemeAlignment: 0.1, Effort: 0.1,
		})
		require.NoError(t, err)
		assert.InDelta(t, 0.4, holder.Get().CustomerImpact, 1e-9)
	})

	t.Run("rejects weights summing past tolerance", func(t *testing.T) {
		holder := NewWeightsHolder()
		before := holder.Get()

		err := holder.Configure(models.VOCWeights{
			CustomerImpact: 0.5, Frequency: 0.2, Recency: 0.1,
			Sentiment: 0.1, ThemeAlignment: 0.1, Effort: 0.1,
		})
		assert.ErrorIs(t, err, vocerrors.ErrValidation)
		assert.Equal(t, before, holder.Get())
	})

	t.Run("rejects negative weights", func(t *testing.T) {
		holder := NewWeightsHolder()
		before := holder.Get()

		err := holder.Configure(models.VOCWeights{
			CustomerImpact: -0.1, Frequency: 0.3, Recency: 0.2,
			Sentiment: 0.2, ThemeAlignment: 0.2, Effort: 0.2,
		})
		assert.ErrorIs(t, err, vocerrors.ErrValidation)
		assert.Equal(t, before, holder.Get())
	})

	t.Run("defaults sum to 1.0", func(t *testing.T) {
		assert.InDelta(t, 1.0, models.DefaultVOCWeights().Sum(), models.WeightSumTolerance)
	})
}

func newTestScorer() *VOCScorer {
	return NewVOCScorer(ScorerConfig{ACVCeiling: 1_000_000, RecencyHalfLifeDays: 30}, NewWeightsHolder())
}

func TestVOCScorer_CustomerImpact(t *testing.T) {
	scorer := newTestScorer()

	t.Run("enterprise customer blends ACV and tier", func(t *testing.T) {
		score := scorer.customerImpact([]models.AffectedCustomer{
			{Name: "Acme Corp", Segment: models.SegmentEnterprise, ACV: 250_000},
		})
		// 0.6 * (250000/1000000 * 100) + 0.4 * 100
		assert.InDelta(t, 55.0, score, 1e-9)
	})

	t.Run("ACV clamps at the ceiling", func(t *testing.T) {
		score := scorer.customerImpact([]models.AffectedCustomer{
			{Name: "Mega", Segment: models.SegmentEnterprise, ACV: 5_000_000},
		})
		assert.InDelta(t, 100.0, score, 1e-9)
	})

	t.Run("no customers reads as unknown", func(t *testing.T) {
		assert.InDelta(t, 4.0, scorer.customerImpact(nil), 1e-9)
	})

	t.Run("best tier wins across customers", func(t *testing.T) {
		score := scorer.customerImpact([]models.AffectedCustomer{
			{Name: "Small", Segment: models.SegmentSMB, ACV: 10_000},
			{Name: "Mid", Segment: models.SegmentMidMarket, ACV: 90_000},
		})
		// 0.6 * 10 + 0.4 * 70
		assert.InDelta(t, 34.0, score, 1e-9)
	})
}

func TestFrequencyScore(t *testing.T) {
	assert.InDelta(t, 100.0, frequencyScore(12, 12), 1e-9)
	assert.InDelta(t, 50.0, frequencyScore(6, 12), 1e-9)
	assert.InDelta(t, 0.0, frequencyScore(0, 12), 1e-9)
	assert.InDelta(t, 0.0, frequencyScore(5, 0), 1e-9)
}

func TestVOCScorer_RecencyScore(t *testing.T) {
	scorer := newTestScorer()
	now := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

	t.Run("fresh support scores 100", func(t *testing.T) {
		assert.InDelta(t, 100.0, scorer.recencyScore(now, now), 1e-9)
	})

	t.Run("one half-life decays to 50", func(t *testing.T) {
		assert.InDelta(t, 50.0, scorer.recencyScore(now.AddDate(0, 0, -30), now), 1e-9)
	})

	t.Run("decay is monotonic", func(t *testing.T) {
		newer := scorer.recencyScore(now.AddDate(0, 0, -5), now)
		older := scorer.recencyScore(now.AddDate(0, 0, -60), now)
		assert.Greater(t, newer, older)
	})

	t.Run("no support timestamp scores 0", func(t *testing.T) {
		assert.InDelta(t, 0.0, scorer.recencyScore(time.Time{}, now), 1e-9)
	})
}

func TestSentimentScore(t *testing.T) {
	t.Run("empty distribution sits at the midpoint", func(t *testing.T) {
		assert.InDelta(t, 50.0, sentimentScore(nil), 1e-9)
	})

	t.Run("averages per-item values", func(t *testing.T) {
		dist := map[string]int{
			models.SentimentUrgent:   1,
			models.SentimentPositive: 1,
		}
		assert.InDelta(t, 62.5, sentimentScore(dist), 1e-9)
	})

	t.Run("unknown labels contribute the midpoint", func(t *testing.T) {
		assert.InDelta(t, 50.0, sentimentScore(map[string]int{"mixed": 3}), 1e-9)
	})
}

func TestThemeAlignmentScore(t *testing.T) {
	t.Run("no theme sits at the midpoint", func(t *testing.T) {
		assert.InDelta(t, 50.0, themeAlignmentScore(false, 0, 0), 1e-9)
	})

	t.Run("tight large theme scores 100", func(t *testing.T) {
		assert.InDelta(t, 100.0, themeAlignmentScore(true, 1.0, 10), 1e-9)
	})

	t.Run("size factor discounts small themes", func(t *testing.T) {
		assert.InDelta(t, 64.0, themeAlignmentScore(true, 0.8, 5), 1e-9)
	})

	t.Run("cohesion is clamped", func(t *testing.T) {
		assert.InDelta(t, 100.0, themeAlignmentScore(true, 1.5, 10), 1e-9)
	})
}

func TestEffortScore(t *testing.T) {
	// Inverted: cheap wins score high, unknown sits at the midpoint.
	assert.InDelta(t, 100.0, effortScore(models.EffortSmall), 1e-9)
	assert.InDelta(t, 75.0, effortScore(models.EffortMedium), 1e-9)
	assert.InDelta(t, 50.0, effortScore(models.EffortLarge), 1e-9)
	assert.InDelta(t, 25.0, effortScore(models.EffortXLarge), 1e-9)
	assert.InDelta(t, 50.0, effortScore(""), 1e-9)
}

func TestVOCScorer_Score(t *testing.T) {
	now := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

	t.Run("composite is the weighted sum rounded to one decimal", func(t *testing.T) {
		scorer := newTestScorer()
		input := ScoreInput{
			TargetID:        uuid.New(),
			TargetType:      models.TargetInsight,
			TargetCreatedAt: now.AddDate(0, 0, -1),
			Customers: []models.AffectedCustomer{
				{Name: "Acme Corp", Segment: models.SegmentEnterprise, ACV: 250_000},
			},
			SupportCount:  4,
			LatestSupport: now,
			SentimentDist: map[string]int{models.SentimentUrgent: 4},
			HasTheme:      true,
			Cohesion:      1.0,
			ThemeSize:     10,
			Effort:        models.EffortMedium,
		}

		scores := scorer.Score([]ScoreInput{input}, now)
		require.Len(t, scores, 1)
		s := scores[0]

		assert.InDelta(t, 55.0, s.CustomerImpactScore, 1e-9)
		assert.InDelta(t, 100.0, s.FrequencyScore, 1e-9)
		assert.InDelta(t, 100.0, s.RecencyScore, 1e-9)
		assert.InDelta(t, 100.0, s.SentimentScore, 1e-9)
		assert.InDelta(t, 100.0, s.ThemeAlignmentScore, 1e-9)
		assert.InDelta(t, 75.0, s.EffortScore, 1e-9)

		// 0.3*55 + 0.2*100 + 0.15*100 + 0.15*100 + 0.1*100 + 0.1*75
		assert.InDelta(t, 84.0, s.TotalScore, 1e-9)
		assert.Equal(t, models.DefaultVOCWeights(), s.WeightsUsed)
		assert.Equal(t, now, s.CalculatedAt)
	})

	t.Run("frequency normalizes within the batch", func(t *testing.T) {
		scorer := newTestScorer()
		inputs := []ScoreInput{
			{TargetID: uuid.New(), TargetType: models.TargetInsight, SupportCount: 12, LatestSupport: now},
			{TargetID: uuid.New(), TargetType: models.TargetInsight, SupportCount: 3, LatestSupport: now},
		}

		scores := scorer.Score(inputs, now)
		require.Len(t, scores, 2)
		assert.InDelta(t, 100.0, scores[0].FrequencyScore, 1e-9)
		assert.InDelta(t, 25.0, scores[1].FrequencyScore, 1e-9)
	})

	t.Run("rescoring unchanged input reproduces the composite", func(t *testing.T) {
		scorer := newTestScorer()
		input := ScoreInput{
			TargetID:      uuid.New(),
			TargetType:    models.TargetFeedback,
			SupportCount:  1,
			LatestSupport: now.AddDate(0, 0, -7),
			SentimentDist: map[string]int{models.SentimentUrgent: 1},
			Effort:        models.EffortSmall,
		}

		first := scorer.Score([]ScoreInput{input}, now)
		for i := 0; i < 5; i++ {
			again := scorer.Score([]ScoreInput{input}, now)
			assert.Equal(t, first[0].TotalScore, again[0].TotalScore)
		}
	})

	t.Run("configured weights change the composite", func(t *testing.T) {
		holder := NewWeightsHolder()
		scorer := NewVOCScorer(ScorerConfig{ACVCeiling: 1_000_000, RecencyHalfLifeDays: 30}, holder)
		input := ScoreInput{
			TargetID:      uuid.New(),
			TargetType:    models.TargetInsight,
			SupportCount:  1,
			LatestSupport: now,
			Effort:        models.EffortSmall,
		}

		before := scorer.Score([]ScoreInput{input}, now)[0].TotalScore

		require.NoError(t, holder.Configure(models.VOCWeights{Effort: 1.0}))
		after := scorer.Score([]ScoreInput{input}, now)[0].TotalScore

		assert.NotEqual(t, before, after)
		assert.InDelta(t, 100.0, after, 1e-9)
	})
}
