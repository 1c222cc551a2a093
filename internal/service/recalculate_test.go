package service

import (
	"context"
	"testing"

	"github.com/credencehq/credence/internal/config"
	"github.com/credencehq/credence/internal/domain"
	"go.uber.org/zap"
)

type recalcFixture struct {
	recalc     *Recalculator
	beliefs    *mockBeliefStore
	arguments  *mockArgumentStore
	evidence   *mockEvidenceStore
	links      *mockLinkStore
	studies    *mockStudyStore
	confidence *mockConfidenceStore
}

func newRecalcFixture() *recalcFixture {
	cfg := config.DefaultScoring()
	logger := zap.NewNop()
	beliefs := newMockBeliefStore()
	arguments := newMockArgumentStore()
	evidence := newMockEvidenceStore()
	links := newMockLinkStore()
	studies := newMockStudyStore()
	challenges := newMockChallengeStore()
	confidence := newMockConfidenceStore()

	scorer := NewArgumentScorer(beliefs, arguments, evidence, cfg, logger)
	engine := NewConfidenceEngine(beliefs, evidence, challenges, confidence, cfg, logger)
	network := NewNetworkAnalyzer(beliefs, links, logger)
	recalc := NewRecalculator(beliefs, arguments, studies, scorer, engine, network, cfg, logger)

	return &recalcFixture{
		recalc:     recalc,
		beliefs:    beliefs,
		arguments:  arguments,
		evidence:   evidence,
		links:      links,
		studies:    studies,
		confidence: confidence,
	}
}

func TestRecalculatePersistsAggregateAndImpacts(t *testing.T) {
	f := newRecalcFixture()
	parent := f.beliefs.add("parent", domain.NeutralScore)
	child := f.beliefs.add("reason", domain.NeutralScore)
	arg := f.arguments.add(parent.ID, child.ID, domain.SidePro, 80, 0.5, 1.0)

	bd, err := f.recalc.Recalculate(context.Background(), parent.ID)
	if err != nil {
		t.Fatalf("Recalculate: %v", err)
	}
	// round(80 × 0.5) = 40 → 50 + 40/4 = 60.
	if bd.Aggregate != 60 {
		t.Errorf("aggregate = %v, want 60", bd.Aggregate)
	}
	if f.beliefs.beliefs[parent.ID].AggregateScore != 60 {
		t.Errorf("stored aggregate = %v, want 60", f.beliefs.beliefs[parent.ID].AggregateScore)
	}
	if f.arguments.arguments[arg.ID].ImpactScore != 40 {
		t.Errorf("cached impact = %v, want 40", f.arguments.arguments[arg.ID].ImpactScore)
	}
	// Confidence recompute ran and logged one history point.
	ci, err := f.confidence.GetByBelief(context.Background(), parent.ID)
	if err != nil {
		t.Fatalf("confidence missing after recalculate: %v", err)
	}
	if len(ci.ScoreHistory) != 1 || ci.ScoreHistory[0].Score != 60 {
		t.Errorf("history = %+v, want single point at 60", ci.ScoreHistory)
	}
}

func TestRecalculateRetriesOnConflict(t *testing.T) {
	f := newRecalcFixture()
	b := f.beliefs.add("contested", domain.NeutralScore)
	f.beliefs.conflictsLeft = 1

	if _, err := f.recalc.Recalculate(context.Background(), b.ID); err != nil {
		t.Fatalf("Recalculate should survive one conflict: %v", err)
	}

	f.beliefs.conflictsLeft = config.DefaultScoring().ConflictRetries
	if _, err := f.recalc.Recalculate(context.Background(), b.ID); err != ErrConcurrencyConflict {
		t.Fatalf("err = %v, want ErrConcurrencyConflict", err)
	}
}

func TestRecalculateRefreshesLinkContributions(t *testing.T) {
	f := newRecalcFixture()
	target := f.beliefs.add("target", domain.NeutralScore)
	source := f.beliefs.add("source", domain.NeutralScore)
	child := f.beliefs.add("reason", domain.NeutralScore)
	f.arguments.add(target.ID, child.ID, domain.SidePro, 100, 1.0, 1.0)

	link := &domain.BeliefLink{
		SourceID:     source.ID,
		TargetID:     target.ID,
		LinkType:     domain.LinkSupports,
		LinkStrength: 0.5,
	}
	if err := f.links.Create(context.Background(), link); err != nil {
		t.Fatalf("create link: %v", err)
	}

	if _, err := f.recalc.Recalculate(context.Background(), target.ID); err != nil {
		t.Fatalf("Recalculate: %v", err)
	}
	// Target aggregate: 50 + 100/4 = 75; contribution = +0.5 × 75.
	if got := f.links.links[link.ID].TotalContribution; got != 37.5 {
		t.Errorf("link contribution = %v, want 37.5", got)
	}
	// The dependent source was cascaded into: its confidence exists.
	if _, err := f.confidence.GetByBelief(context.Background(), source.ID); err != nil {
		t.Errorf("cascade did not rescore dependent: %v", err)
	}
}

func TestBreakdownAlwaysAvailableAndCached(t *testing.T) {
	f := newRecalcFixture()
	b := f.beliefs.add("bare claim", domain.NeutralScore)

	ctx := context.Background()
	bd, err := f.recalc.Breakdown(ctx, b.ID)
	if err != nil {
		t.Fatalf("Breakdown: %v", err)
	}
	if !bd.NeutralDefault || bd.Aggregate != domain.NeutralScore {
		t.Errorf("bare belief breakdown = %+v, want neutral default", bd)
	}

	// Attach an argument without recomputing: the cached breakdown is
	// served until Recalculate invalidates it.
	child := f.beliefs.add("reason", domain.NeutralScore)
	f.arguments.add(b.ID, child.ID, domain.SidePro, 80, 1.0, 1.0)

	cached, err := f.recalc.Breakdown(ctx, b.ID)
	if err != nil {
		t.Fatalf("Breakdown: %v", err)
	}
	if len(cached.ArgumentTerms) != 0 {
		t.Error("expected cached breakdown before recompute")
	}

	if _, err := f.recalc.Recalculate(ctx, b.ID); err != nil {
		t.Fatalf("Recalculate: %v", err)
	}
	fresh, err := f.recalc.Breakdown(ctx, b.ID)
	if err != nil {
		t.Fatalf("Breakdown: %v", err)
	}
	if len(fresh.ArgumentTerms) != 1 {
		t.Errorf("argument terms = %d, want 1 after invalidation", len(fresh.ArgumentTerms))
	}
}

func TestBreakdownIncludesStanceAuthority(t *testing.T) {
	f := newRecalcFixture()
	b := f.beliefs.add("claim", domain.NeutralScore)
	study := f.studies.add("relevant study")
	study.NetworkMetrics.PageRankScore = 0.42

	if err := f.studies.CreateStance(context.Background(), &domain.StudyStance{
		StudyID:  study.ID,
		BeliefID: b.ID,
		Position: domain.StanceSupporting,
	}); err != nil {
		t.Fatalf("CreateStance: %v", err)
	}

	bd, err := f.recalc.Breakdown(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("Breakdown: %v", err)
	}
	if len(bd.StanceTerms) != 1 {
		t.Fatalf("stance terms = %d, want 1", len(bd.StanceTerms))
	}
	if bd.StanceTerms[0].Authority != 0.42 {
		t.Errorf("authority = %v, want 0.42", bd.StanceTerms[0].Authority)
	}
}

func TestExportOrdering(t *testing.T) {
	f := newRecalcFixture()
	parent := f.beliefs.add("exported claim", 62)

	// Con argument created first; export still lists pro before con.
	conArg := f.arguments.add(parent.ID, f.beliefs.add("con reason", 50).ID, domain.SideCon, 70, 0.6, 1.0)
	conArg.Statement = "the counterpoint"
	proArg := f.arguments.add(parent.ID, f.beliefs.add("pro reason", 50).ID, domain.SidePro, 90, 0.8, 1.0)
	proArg.Statement = "the support"

	ctx := context.Background()
	if _, err := f.recalc.Recalculate(ctx, parent.ID); err != nil {
		t.Fatalf("Recalculate: %v", err)
	}
	export, err := f.recalc.Export(ctx, parent.ID)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	if len(export.ProArguments) != 1 || len(export.ConArguments) != 1 {
		t.Fatalf("pro/con = %d/%d, want 1/1", len(export.ProArguments), len(export.ConArguments))
	}
	if export.ProArguments[0].Statement != "the support" {
		t.Errorf("pro argument = %q", export.ProArguments[0].Statement)
	}
	if export.Confidence.CIScore == 0 && export.Confidence.Level == "" {
		t.Error("export missing confidence block after recompute")
	}
	if len(export.RecentHistory) == 0 {
		t.Error("export missing history")
	}
}
