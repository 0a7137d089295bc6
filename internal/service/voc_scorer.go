package service

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/produckai/voc-engine/internal/models"
	"github.com/produckai/voc-engine/internal/vocerrors"
)

// WeightsHolder owns the process-wide VOC weight configuration. Reconfiguration
// is all-or-nothing: an invalid set leaves the prior weights active.
type WeightsHolder struct {
	mu      sync.RWMutex
	weights models.VOCWeights
}

// NewWeightsHolder creates a holder initialized to the default weights.
func NewWeightsHolder() *WeightsHolder {
	return &WeightsHolder{weights: models.DefaultVOCWeights()}
}

// Get returns the active weight set.
func (h *WeightsHolder) Get() models.VOCWeights {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.weights
}

// Configure validates and installs a new weight set. Weights must sum to 1.0
// within tolerance and each must be non-negative.
func (h *WeightsHolder) Configure(w models.VOCWeights) error {
	for name, v := range map[string]float64{
		"customer_impact": w.CustomerImpact,
		"frequency":       w.Frequency,
		"recency":         w.Recency,
		"sentiment":       w.Sentiment,
		"theme_alignment": w.ThemeAlignment,
		"effort":          w.Effort,
	} {
		if v < 0 {
			return vocerrors.NewValidationError(name, fmt.Sprintf("weight %s must be non-negative", name))
		}
	}

	if sum := w.Sum(); math.Abs(sum-1.0) > models.WeightSumTolerance {
		return vocerrors.NewValidationError("weights", fmt.Sprintf("weights must sum to 1.0, got %g", sum))
	}

	h.mu.Lock()
	h.weights = w
	h.mu.Unlock()

	return nil
}

// ScorerConfig parameterizes the normalization functions so no magic constants
// hide in the scoring math.
type ScorerConfig struct {
	// ACVCeiling is the total ACV that maps to a full customer-impact ACV
	// component; larger totals clamp to 100.
	ACVCeiling float64
	// RecencyHalfLifeDays controls the exponential decay of the recency score.
	RecencyHalfLifeDays float64
}

// ScoreInput is the per-target context one scoring computation needs. The
// scoring service assembles these from repository state.
type ScoreInput struct {
	TargetID        uuid.UUID
	TargetType      string
	TargetCreatedAt time.Time

	Customers     []models.AffectedCustomer
	SupportCount  int
	LatestSupport time.Time
	SentimentDist map[string]int
	HasTheme      bool
	Cohesion      float64
	ThemeSize     int
	Effort        string
}

// VOCScorer computes the six sub-scores and the weighted composite. All
// sub-scores live in [0,100]; the composite is clamped and rounded to one
// decimal so re-runs over unchanged input are bit-for-bit deterministic.
type VOCScorer struct {
	cfg     ScorerConfig
	weights *WeightsHolder
}

// NewVOCScorer creates a scorer.
func NewVOCScorer(cfg ScorerConfig, weights *WeightsHolder) *VOCScorer {
	return &VOCScorer{cfg: cfg, weights: weights}
}

// Tier scores order segments by economic importance.
var tierScores = map[string]float64{
	models.SegmentEnterprise: 100,
	models.SegmentMidMarket:  70,
	models.SegmentSMB:        40,
	models.SegmentUnknown:    10,
}

var sentimentScores = map[string]float64{
	models.SentimentUrgent:   100,
	models.SentimentNegative: 75,
	models.SentimentNeutral:  50,
	models.SentimentPositive: 25,
}

// Effort is inverted: cheap wins score high.
var effortScores = map[string]float64{
	models.EffortSmall:  100,
	models.EffortMedium: 75,
	models.EffortLarge:  50,
	models.EffortXLarge: 25,
}

// Score computes one score record per input. Frequency is normalized against
// the maximum support count within this batch, so scores are comparable only
// within a single run.
func (s *VOCScorer) Score(inputs []ScoreInput, now time.Time) []models.VOCScore {
	weights := s.weights.Get()

	maxSupport := 0
	for _, in := range inputs {
		if in.SupportCount > maxSupport {
			maxSupport = in.SupportCount
		}
	}

	scores := make([]models.VOCScore, 0, len(inputs))
	for _, in := range inputs {
		score := models.VOCScore{
			ID:                  uuid.New(),
			TargetID:            in.TargetID,
			TargetType:          in.TargetType,
			CustomerImpactScore: s.customerImpact(in.Customers),
			FrequencyScore:      frequencyScore(in.SupportCount, maxSupport),
			RecencyScore:        s.recencyScore(in.LatestSupport, now),
			SentimentScore:      sentimentScore(in.SentimentDist),
			ThemeAlignmentScore: themeAlignmentScore(in.HasTheme, in.Cohesion, in.ThemeSize),
			EffortScore:         effortScore(in.Effort),
			WeightsUsed:         weights,
			CalculatedAt:        now,
			TargetCreatedAt:     in.TargetCreatedAt,
		}

		total := weights.CustomerImpact*score.CustomerImpactScore +
			weights.Frequency*score.FrequencyScore +
			weights.Recency*score.RecencyScore +
			weights.Sentiment*score.SentimentScore +
			weights.ThemeAlignment*score.ThemeAlignmentScore +
			weights.Effort*score.EffortScore
		score.TotalScore = roundOneDecimal(clamp(total, 0, 100))

		scores = append(scores, score)
	}

	return scores
}

// customerImpact blends total ACV against the configured ceiling with the best
// customer tier. No customers at all reads as an unknown singleton.
func (s *VOCScorer) customerImpact(customers []models.AffectedCustomer) float64 {
	var totalACV float64
	bestTier := tierScores[models.SegmentUnknown]
	for _, c := range customers {
		totalACV += c.ACV
		if tier, ok := tierScores[c.Segment]; ok && tier > bestTier {
			bestTier = tier
		}
	}

	acvScore := 0.0
	if s.cfg.ACVCeiling > 0 {
		acvScore = clamp(totalACV/s.cfg.ACVCeiling, 0, 1) * 100
	}

	return 0.6*acvScore + 0.4*bestTier
}

func frequencyScore(count, maxCount int) float64 {
	if maxCount <= 0 || count <= 0 {
		return 0
	}

	return 100 * float64(count) / float64(maxCount)
}

// recencyScore decays exponentially with the age of the newest supporting item.
func (s *VOCScorer) recencyScore(latest time.Time, now time.Time) float64 {
	if latest.IsZero() {
		return 0
	}

	days := now.Sub(latest).Hours() / 24
	if days <= 0 {
		return 100
	}

	halfLife := s.cfg.RecencyHalfLifeDays
	if halfLife <= 0 {
		halfLife = 30
	}

	return 100 * math.Pow(0.5, days/halfLife)
}

// sentimentScore averages per-item sentiment values; unknown labels contribute
// the 50 midpoint, as does an empty distribution.
func sentimentScore(dist map[string]int) float64 {
	total := 0
	var sum float64
	for label, count := range dist {
		value, ok := sentimentScores[label]
		if !ok {
			value = 50
		}
		sum += value * float64(count)
		total += count
	}

	if total == 0 {
		return 50
	}

	return sum / float64(total)
}

// themeAlignmentScore rewards tight, large themes. Targets without a theme sit
// at the midpoint.
func themeAlignmentScore(hasTheme bool, cohesion float64, size int) float64 {
	if !hasTheme {
		return 50
	}

	sizeFactor := 0.6 + 0.4*math.Min(1, float64(size)/10)

	return 100 * clamp(cohesion, 0, 1) * sizeFactor
}

func effortScore(effort string) float64 {
	if v, ok := effortScores[effort]; ok {
		return v
	}

	return 50
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func roundOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}
