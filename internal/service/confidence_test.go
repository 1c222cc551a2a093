package service

import (
	"context"
	"testing"
	"time"

	"github.com/credencehq/credence/internal/config"
	"github.com/credencehq/credence/internal/domain"
	"go.uber.org/zap"
)

func newTestConfidenceEngine() (*ConfidenceEngine, *mockBeliefStore, *mockEvidenceStore, *mockChallengeStore, *mockConfidenceStore) {
	beliefs := newMockBeliefStore()
	evidence := newMockEvidenceStore()
	challenges := newMockChallengeStore()
	confidence := newMockConfidenceStore()
	engine := NewConfidenceEngine(beliefs, evidence, challenges, confidence, config.DefaultScoring(), zap.NewNop())
	return engine, beliefs, evidence, challenges, confidence
}

func TestRecomputeWeightsAndCap(t *testing.T) {
	engine, beliefs, _, _, _ := newTestConfidenceEngine()
	b := beliefs.add("claim", 70)

	ci, err := engine.Recompute(context.Background(), b.ID, 70)
	if err != nil {
		t.Fatalf("Recompute: %v", err)
	}

	weights := ci.UserExamination.Weight + ci.ScoreStability.Weight +
		ci.Knowability.Weight + ci.ChallengeResistance.Weight
	if weights != 1 {
		t.Errorf("factor weights sum to %v, want 1", weights)
	}
	// No evidence: speculative, capped at 55.
	if ci.Knowability.Category != domain.KnowabilitySpeculative {
		t.Errorf("category = %s, want speculative", ci.Knowability.Category)
	}
	if ci.CIScore > 55 {
		t.Errorf("ci score %v exceeds speculative cap 55", ci.CIScore)
	}
}

func TestRecomputeEmpiricalFromHighTierEvidence(t *testing.T) {
	engine, beliefs, evidence, _, _ := newTestConfidenceEngine()
	b := beliefs.add("well-evidenced claim", 80)

	ctx := context.Background()
	for _, tier := range []domain.EvidenceTier{domain.TierT1, domain.TierT2, domain.TierT4} {
		if err := evidence.Create(ctx, &domain.Evidence{
			BeliefID: b.ID, Side: domain.EvidenceSupporting, Tier: tier,
			SourceIndependenceWeight: 1, ConclusionRelevance: 1,
		}); err != nil {
			t.Fatalf("Create evidence: %v", err)
		}
	}

	ci, err := engine.Recompute(ctx, b.ID, 80)
	if err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	// 2 of 3 high tier → empirical, cap 95.
	if ci.Knowability.Category != domain.KnowabilityEmpirical {
		t.Errorf("category = %s, want empirical", ci.Knowability.Category)
	}
	if ci.Knowability.MaxCICap != 95 {
		t.Errorf("cap = %v, want 95", ci.Knowability.MaxCICap)
	}
}

func TestUnfalsifiableCapSticks(t *testing.T) {
	engine, beliefs, evidence, _, _ := newTestConfidenceEngine()
	b := beliefs.add("untestable claim", 90)

	ctx := context.Background()
	if _, err := engine.MarkUnfalsifiable(ctx, b.ID); err != nil {
		t.Fatalf("MarkUnfalsifiable: %v", err)
	}

	// High-tier evidence must not flip the category back.
	if err := evidence.Create(ctx, &domain.Evidence{
		BeliefID: b.ID, Side: domain.EvidenceSupporting, Tier: domain.TierT1,
		SourceIndependenceWeight: 1, ConclusionRelevance: 1,
	}); err != nil {
		t.Fatalf("Create evidence: %v", err)
	}
	ci, err := engine.Recompute(ctx, b.ID, 90)
	if err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if ci.Knowability.Category != domain.KnowabilityUnfalsifiable {
		t.Errorf("category = %s, want unfalsifiable", ci.Knowability.Category)
	}
	if ci.CIScore > 35 {
		t.Errorf("ci score %v exceeds unfalsifiable cap 35", ci.CIScore)
	}
}

func TestRecomputeAppendsOneHistoryPoint(t *testing.T) {
	engine, beliefs, _, _, confidence := newTestConfidenceEngine()
	b := beliefs.add("claim", 60)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := engine.Recompute(ctx, b.ID, 60); err != nil {
			t.Fatalf("Recompute %d: %v", i, err)
		}
	}
	stored, err := confidence.GetByBelief(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetByBelief: %v", err)
	}
	if len(stored.ScoreHistory) != 3 {
		t.Errorf("history length = %d, want 3", len(stored.ScoreHistory))
	}
}

func TestHistoryBoundedMostRecentFirst(t *testing.T) {
	points := make([]domain.ScorePoint, 0, domain.ScoreHistoryLimit)
	base := time.Now().Add(-time.Hour)
	for i := 0; i < domain.ScoreHistoryLimit; i++ {
		points = append(points, domain.ScorePoint{Timestamp: base, Score: float64(i)})
	}

	newest := domain.ScorePoint{Timestamp: time.Now(), Score: 99}
	out := appendHistory(points, newest)

	if len(out) != domain.ScoreHistoryLimit {
		t.Fatalf("history length = %d, want %d", len(out), domain.ScoreHistoryLimit)
	}
	if out[0].Score != 99 {
		t.Errorf("newest point not first: out[0].Score = %v", out[0].Score)
	}
	// The oldest surviving entry is the previous head's run, the
	// original tail entry is gone.
	if out[len(out)-1].Score == float64(domain.ScoreHistoryLimit-1) {
		t.Error("oldest entry was not trimmed")
	}
}

func TestChallengeEventsMoveResistance(t *testing.T) {
	engine, beliefs, _, _, _ := newTestConfidenceEngine()
	survivor := beliefs.add("survivor", 70)
	loser := beliefs.add("loser", 70)

	ctx := context.Background()
	ciSurvivor, err := engine.RecordChallenge(ctx, &domain.ChallengeEvent{
		BeliefID: survivor.ID, Type: domain.ChallengeSurvived,
	})
	if err != nil {
		t.Fatalf("RecordChallenge: %v", err)
	}
	ciLoser, err := engine.RecordChallenge(ctx, &domain.ChallengeEvent{
		BeliefID: loser.ID, Type: domain.ChallengeUpheld, ScoreDelta: -12,
	})
	if err != nil {
		t.Fatalf("RecordChallenge: %v", err)
	}

	if ciSurvivor.ChallengeResistance.Score <= ciLoser.ChallengeResistance.Score {
		t.Errorf("survived resistance %v should exceed upheld resistance %v",
			ciSurvivor.ChallengeResistance.Score, ciLoser.ChallengeResistance.Score)
	}

	if _, err := engine.RecordChallenge(ctx, &domain.ChallengeEvent{
		BeliefID: survivor.ID, Type: "shouting",
	}); err != ErrInvalidChallengeType {
		t.Errorf("err = %v, want ErrInvalidChallengeType", err)
	}
}

func TestConfidenceLevels(t *testing.T) {
	cases := []struct {
		score float64
		want  domain.ConfidenceLevel
	}{
		{95, domain.ConfidenceHigh},
		{85, domain.ConfidenceHigh},
		{84.9, domain.ConfidenceModerate},
		{50, domain.ConfidenceModerate},
		{49.9, domain.ConfidenceLow},
		{0, domain.ConfidenceLow},
	}
	for _, tc := range cases {
		if got := domain.ConfidenceLevelFor(tc.score); got != tc.want {
			t.Errorf("level(%v) = %s, want %s", tc.score, got, tc.want)
		}
	}
}
