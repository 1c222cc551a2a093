package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/credencehq/credence/internal/config"
	"github.com/credencehq/credence/internal/domain"
	"github.com/credencehq/credence/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrInvalidChallengeType = errors.New("invalid challenge event type")

const (
	// stabilityWindow is how far back the stability factor looks.
	stabilityWindow = 30 * 24 * time.Hour
	// stabilityFullSwing is the stddev (on the engine scale) that maps
	// to zero stability.
	stabilityFullSwing = 25.0
	// baselineFactor is the neutral starting point for factors with no
	// input signal yet.
	baselineFactor = 0.5
)

// ConfidenceEngine derives a belief's confidence interval from four
// weighted factors and maintains the bounded score history.
type ConfidenceEngine struct {
	beliefs    domain.BeliefStore
	evidence   domain.EvidenceStore
	challenges domain.ChallengeStore
	confidence domain.ConfidenceStore
	cfg        config.Scoring
	logger     *zap.Logger
}

func NewConfidenceEngine(beliefs domain.BeliefStore, evidence domain.EvidenceStore, challenges domain.ChallengeStore, confidence domain.ConfidenceStore, cfg config.Scoring, logger *zap.Logger) *ConfidenceEngine {
	return &ConfidenceEngine{
		beliefs:    beliefs,
		evidence:   evidence,
		challenges: challenges,
		confidence: confidence,
		cfg:        cfg,
		logger:     logger,
	}
}

// RecordChallenge stores a challenge/review event and returns the
// recomputed interval.
func (e *ConfidenceEngine) RecordChallenge(ctx context.Context, event *domain.ChallengeEvent) (*domain.ConfidenceInterval, error) {
	if !domain.ValidChallengeEventType(string(event.Type)) {
		return nil, ErrInvalidChallengeType
	}
	belief, err := e.beliefs.GetByID(ctx, event.BeliefID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrBeliefNotFound
		}
		return nil, err
	}
	if err := e.challenges.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("record challenge event: %w", err)
	}
	return e.Recompute(ctx, belief.ID, belief.AggregateScore)
}

// Recompute rebuilds the interval from current inputs and appends
// exactly one history point for this recompute. The versioned save is
// retried a bounded number of times on conflict; each retry re-reads
// the stored interval so the history append is never duplicated or
// lost.
func (e *ConfidenceEngine) Recompute(ctx context.Context, beliefID uuid.UUID, aggregate float64) (*domain.ConfidenceInterval, error) {
	events, err := e.challenges.GetByBelief(ctx, beliefID)
	if err != nil {
		return nil, fmt.Errorf("load challenge events: %w", err)
	}
	evidence, err := e.evidence.GetByBelief(ctx, beliefID)
	if err != nil {
		return nil, fmt.Errorf("load evidence: %w", err)
	}

	for attempt := 0; attempt < e.cfg.ConflictRetries; attempt++ {
		ci, err := e.confidence.GetByBelief(ctx, beliefID)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("load confidence interval: %w", err)
			}
			ci = &domain.ConfidenceInterval{BeliefID: beliefID}
		}

		e.applyFactors(ci, events, evidence)
		ci.ScoreHistory = appendHistory(ci.ScoreHistory, domain.ScorePoint{
			Timestamp: time.Now().UTC(),
			Score:     aggregate,
		})
		ci.ScoreStability = domain.Factor{
			Score:  e.stabilityScore(ci.ScoreHistory),
			Weight: e.cfg.StabilityWeight,
		}

		weighted := ci.UserExamination.Score*ci.UserExamination.Weight +
			ci.ScoreStability.Score*ci.ScoreStability.Weight +
			ci.Knowability.Score*ci.Knowability.Weight +
			ci.ChallengeResistance.Score*ci.ChallengeResistance.Weight
		ci.CIScore = math.Min(ci.Knowability.MaxCICap, 100*weighted)
		ci.Level = domain.ConfidenceLevelFor(ci.CIScore)

		if err := e.confidence.Save(ctx, ci); err != nil {
			if errors.Is(err, store.ErrConflict) {
				continue
			}
			return nil, fmt.Errorf("save confidence interval: %w", err)
		}
		return ci, nil
	}
	return nil, ErrConcurrencyConflict
}

func (e *ConfidenceEngine) applyFactors(ci *domain.ConfidenceInterval, events []domain.ChallengeEvent, evidence []domain.Evidence) {
	var reviews, survived, upheld, flags int
	for _, ev := range events {
		switch ev.Type {
		case domain.ExpertReview:
			reviews++
		case domain.ChallengeSurvived:
			survived++
		case domain.ChallengeUpheld:
			upheld++
		case domain.RedundancyFlag:
			flags++
		}
	}

	ci.UserExamination = domain.Factor{
		Score:  domain.ClampUnit(0.2*float64(reviews) + 0.05*float64(survived+upheld)),
		Weight: e.cfg.ExaminationWeight,
	}

	resistance := baselineFactor +
		0.1*float64(survived) +
		0.05*float64(reviews) -
		0.15*float64(upheld) -
		0.05*float64(flags)
	ci.ChallengeResistance = domain.Factor{
		Score:  domain.ClampUnit(resistance),
		Weight: e.cfg.ChallengeWeight,
	}

	category := e.knowabilityCategory(ci, evidence)
	ci.Knowability = domain.KnowabilityFactor{
		Factor: domain.Factor{
			Score:  knowabilityScore(category),
			Weight: e.cfg.KnowabilityWeight,
		},
		Category: category,
		MaxCICap: e.knowabilityCap(category),
	}
}

// knowabilityCategory derives the category from the Tier-1/2 share of
// attached evidence. An explicit unfalsifiable marking is sticky: no
// amount of attached material makes an untestable claim testable.
func (e *ConfidenceEngine) knowabilityCategory(ci *domain.ConfidenceInterval, evidence []domain.Evidence) domain.KnowabilityCategory {
	if ci.Knowability.Category == domain.KnowabilityUnfalsifiable {
		return domain.KnowabilityUnfalsifiable
	}
	if len(evidence) == 0 {
		return domain.KnowabilitySpeculative
	}
	var high int
	for _, ev := range evidence {
		if ev.Tier.HighTier() {
			high++
		}
	}
	share := float64(high) / float64(len(evidence))
	switch {
	case share >= 0.5:
		return domain.KnowabilityEmpirical
	case share > 0:
		return domain.KnowabilityInferential
	default:
		return domain.KnowabilitySpeculative
	}
}

func (e *ConfidenceEngine) knowabilityCap(category domain.KnowabilityCategory) float64 {
	if cap, ok := e.cfg.KnowabilityCaps[string(category)]; ok {
		return cap
	}
	e.logger.Warn("no cap configured for knowability category, using scale max",
		zap.String("category", string(category)))
	return domain.ScoreScaleMax
}

func knowabilityScore(category domain.KnowabilityCategory) float64 {
	switch category {
	case domain.KnowabilityEmpirical:
		return 0.9
	case domain.KnowabilityInferential:
		return 0.7
	case domain.KnowabilitySpeculative:
		return 0.4
	default:
		return 0.15
	}
}

// stabilityScore inverts the normalized stddev of recent history.
// Fewer than two recent points is an unknown, not stable: baseline.
func (e *ConfidenceEngine) stabilityScore(history []domain.ScorePoint) float64 {
	cutoff := time.Now().UTC().Add(-stabilityWindow)
	var recent []float64
	for _, p := range history {
		if p.Timestamp.After(cutoff) {
			recent = append(recent, p.Score)
		}
	}
	if len(recent) < 2 {
		return baselineFactor
	}

	var sum float64
	for _, v := range recent {
		sum += v
	}
	mean := sum / float64(len(recent))
	var variance float64
	for _, v := range recent {
		variance += (v - mean) * (v - mean)
	}
	stddev := math.Sqrt(variance / float64(len(recent)))
	return domain.ClampUnit(1 - stddev/stabilityFullSwing)
}

// MarkUnfalsifiable pins the belief's knowability category. The next
// recompute applies the corresponding cap.
func (e *ConfidenceEngine) MarkUnfalsifiable(ctx context.Context, beliefID uuid.UUID) (*domain.ConfidenceInterval, error) {
	belief, err := e.beliefs.GetByID(ctx, beliefID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrBeliefNotFound
		}
		return nil, err
	}

	ci, err := e.confidence.GetByBelief(ctx, beliefID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		ci = &domain.ConfidenceInterval{BeliefID: beliefID}
	}
	ci.Knowability.Category = domain.KnowabilityUnfalsifiable
	if err := e.confidence.Save(ctx, ci); err != nil {
		return nil, err
	}
	return e.Recompute(ctx, beliefID, belief.AggregateScore)
}

// appendHistory prepends the newest point and trims to the bound.
// History is most-recent-first.
func appendHistory(history []domain.ScorePoint, point domain.ScorePoint) []domain.ScorePoint {
	out := make([]domain.ScorePoint, 0, len(history)+1)
	out = append(out, point)
	out = append(out, history...)
	if len(out) > domain.ScoreHistoryLimit {
		out = out[:domain.ScoreHistoryLimit]
	}
	return out
}
