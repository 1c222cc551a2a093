package service

import (
	"context"
	"math"
	"testing"

	"github.com/credencehq/credence/internal/config"
	"github.com/credencehq/credence/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func newTestCitationService() (*CitationService, *mockStudyStore, *mockBeliefStore) {
	studies := newMockStudyStore()
	beliefs := newMockBeliefStore()
	svc := NewCitationService(studies, beliefs, config.DefaultScoring(), zap.NewNop())
	return svc, studies, beliefs
}

func TestRankValidation(t *testing.T) {
	svc, studies, _ := newTestCitationService()
	st := studies.add("lone study")

	if _, err := svc.Rank(context.Background(), nil, 0, 0); err != ErrNoStudiesToRank {
		t.Errorf("empty ids: err = %v, want ErrNoStudiesToRank", err)
	}
	if _, err := svc.Rank(context.Background(), []uuid.UUID{st.ID}, 1.5, 0); err != ErrInvalidDamping {
		t.Errorf("damping 1.5: err = %v, want ErrInvalidDamping", err)
	}
	if _, err := svc.Rank(context.Background(), []uuid.UUID{uuid.New()}, 0, 0); err != ErrStudyNotFound {
		t.Errorf("all missing: err = %v, want ErrStudyNotFound", err)
	}
}

func TestRankUncitedFloorAndGrowth(t *testing.T) {
	svc, studies, _ := newTestCitationService()
	popular := studies.add("heavily cited")
	citerA := studies.add("citer a")
	citerB := studies.add("citer b")

	ctx := context.Background()
	if err := svc.AddReference(ctx, citerA.ID, popular.ID); err != nil {
		t.Fatalf("AddReference: %v", err)
	}
	if err := svc.AddReference(ctx, citerB.ID, popular.ID); err != nil {
		t.Fatalf("AddReference: %v", err)
	}

	scores, err := svc.Rank(ctx, []uuid.UUID{popular.ID, citerA.ID, citerB.ID}, 0.85, 20)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}

	floor := (1 - 0.85) / 3.0
	for id, score := range scores {
		if score < floor-1e-9 {
			t.Errorf("study %s score %v below floor %v", id, score, floor)
		}
	}
	if scores[popular.ID] <= scores[citerA.ID] {
		t.Errorf("cited study %v should outrank its citer %v", scores[popular.ID], scores[citerA.ID])
	}

	var total float64
	for _, score := range scores {
		total += score
	}
	if math.Abs(total-1) > 1e-9 {
		t.Errorf("scores sum to %v, want 1", total)
	}

	// Persisted on the study rows.
	if popular.NetworkMetrics.PageRankScore != scores[popular.ID] {
		t.Errorf("persisted score %v != returned %v", popular.NetworkMetrics.PageRankScore, scores[popular.ID])
	}
}

func TestRankDeterministic(t *testing.T) {
	svc, studies, _ := newTestCitationService()
	a := studies.add("a")
	b := studies.add("b")
	ctx := context.Background()
	if err := svc.AddReference(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("AddReference: %v", err)
	}

	ids := []uuid.UUID{a.ID, b.ID}
	first, err := svc.Rank(ctx, ids, 0, 0)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	second, err := svc.Rank(ctx, ids, 0, 0)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	for id := range first {
		if first[id] != second[id] {
			t.Errorf("study %s: %v != %v across identical runs", id, first[id], second[id])
		}
	}
}

func TestAddReferenceSelfCitation(t *testing.T) {
	svc, studies, _ := newTestCitationService()
	st := studies.add("self-absorbed")
	if err := svc.AddReference(context.Background(), st.ID, st.ID); err != ErrSelfCitation {
		t.Fatalf("err = %v, want ErrSelfCitation", err)
	}
}

func TestRecordStance(t *testing.T) {
	svc, studies, beliefs := newTestCitationService()
	st := studies.add("relevant study")
	b := beliefs.add("claim", domain.NeutralScore)

	stance := &domain.StudyStance{
		StudyID:         st.ID,
		BeliefID:        b.ID,
		Position:        domain.StanceSupporting,
		Relevance:       0.8,
		EvidenceQuality: 0.5,
	}
	if err := svc.RecordStance(context.Background(), stance); err != nil {
		t.Fatalf("RecordStance: %v", err)
	}
	if stance.StanceStrength != 0.4 {
		t.Errorf("stance strength = %v, want 0.4", stance.StanceStrength)
	}

	bad := &domain.StudyStance{StudyID: st.ID, BeliefID: b.ID, Position: "maybe"}
	if err := svc.RecordStance(context.Background(), bad); err != ErrInvalidStance {
		t.Errorf("err = %v, want ErrInvalidStance", err)
	}
}
