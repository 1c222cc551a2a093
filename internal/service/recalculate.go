package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/credencehq/credence/internal/config"
	"github.com/credencehq/credence/internal/domain"
	"github.com/credencehq/credence/internal/store"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

var ErrConcurrencyConflict = errors.New("belief was modified concurrently, retries exhausted")

const (
	breakdownCacheTTL     = 5 * time.Minute
	breakdownCacheCleanup = 10 * time.Minute
)

// Recalculator orchestrates a belief's full recompute: aggregate score,
// cached argument impacts, link contributions, confidence interval, and
// a bounded cascade to dependent beliefs. Each belief's recompute is
// individually atomic through version-checked writes; the cascade is
// eventually consistent.
type Recalculator struct {
	beliefs    domain.BeliefStore
	arguments  domain.ArgumentStore
	studies    domain.StudyStore
	scorer     *ArgumentScorer
	confidence *ConfidenceEngine
	network    *NetworkAnalyzer
	cfg        config.Scoring
	logger     *zap.Logger

	breakdowns *gocache.Cache
	locks      sync.Map // belief id → *sync.Mutex
}

func NewRecalculator(beliefs domain.BeliefStore, arguments domain.ArgumentStore, studies domain.StudyStore, scorer *ArgumentScorer, confidence *ConfidenceEngine, network *NetworkAnalyzer, cfg config.Scoring, logger *zap.Logger) *Recalculator {
	return &Recalculator{
		beliefs:    beliefs,
		arguments:  arguments,
		studies:    studies,
		scorer:     scorer,
		confidence: confidence,
		network:    network,
		cfg:        cfg,
		logger:     logger,
		breakdowns: gocache.New(breakdownCacheTTL, breakdownCacheCleanup),
	}
}

func (r *Recalculator) lockFor(beliefID uuid.UUID) *sync.Mutex {
	mu, _ := r.locks.LoadOrStore(beliefID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Recalculate rescores one belief and cascades to its dependents.
func (r *Recalculator) Recalculate(ctx context.Context, beliefID uuid.UUID) (*ScoreBreakdown, error) {
	visited := map[uuid.UUID]bool{}
	return r.recalculate(ctx, beliefID, visited, 0)
}

func (r *Recalculator) recalculate(ctx context.Context, beliefID uuid.UUID, cascadeVisited map[uuid.UUID]bool, cascadeDepth int) (*ScoreBreakdown, error) {
	cascadeVisited[beliefID] = true

	bd, err := r.rescoreOne(ctx, beliefID)
	if err != nil {
		return nil, err
	}

	if cascadeDepth >= r.cfg.CascadeDepth {
		return bd, nil
	}
	dependents, err := r.network.Dependents(ctx, beliefID)
	if err != nil {
		return nil, fmt.Errorf("load dependents: %w", err)
	}
	for _, dep := range dependents {
		if cascadeVisited[dep] {
			continue
		}
		if _, err := r.recalculate(ctx, dep, cascadeVisited, cascadeDepth+1); err != nil {
			// A dependent failing must not roll back the belief that
			// already committed.
			r.logger.Warn("cascade recompute failed",
				zap.String("belief_id", dep.String()),
				zap.Error(err))
		}
	}
	return bd, nil
}

// rescoreOne performs the per-belief atomic step: compute, CAS the
// aggregate, persist derived rows, refresh confidence.
func (r *Recalculator) rescoreOne(ctx context.Context, beliefID uuid.UUID) (*ScoreBreakdown, error) {
	mu := r.lockFor(beliefID)
	mu.Lock()
	defer mu.Unlock()

	var bd *ScoreBreakdown
	for attempt := 0; ; attempt++ {
		belief, err := r.beliefs.GetByID(ctx, beliefID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrBeliefNotFound
			}
			return nil, err
		}

		bd, err = r.scorer.Score(ctx, beliefID)
		if err != nil {
			return nil, err
		}

		err = r.beliefs.UpdateAggregate(ctx, beliefID, bd.Aggregate, belief.Version)
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrConflict) {
			return nil, fmt.Errorf("persist aggregate: %w", err)
		}
		if attempt+1 >= r.cfg.ConflictRetries {
			return nil, ErrConcurrencyConflict
		}
	}

	for _, term := range bd.ArgumentTerms {
		if err := r.arguments.UpdateImpact(ctx, term.ArgumentID, term.Impact); err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("persist argument impact: %w", err)
		}
	}

	if err := r.network.RefreshContributions(ctx, beliefID, bd.Aggregate); err != nil {
		return nil, err
	}

	if _, err := r.confidence.Recompute(ctx, beliefID, bd.Aggregate); err != nil {
		return nil, err
	}

	r.breakdowns.Delete(beliefID.String())
	r.network.Invalidate(beliefID)

	r.logger.Info("belief rescored",
		zap.String("belief_id", beliefID.String()),
		zap.Float64("aggregate", bd.Aggregate),
		zap.Float64("raw_sum", bd.RawSum))
	return bd, nil
}

// Breakdown returns the belief's fully-enumerated scoring terms without
// writing anything. Served from cache until the next recompute; always
// available for an existing belief, even one with no inputs.
func (r *Recalculator) Breakdown(ctx context.Context, beliefID uuid.UUID) (*ScoreBreakdown, error) {
	if cached, ok := r.breakdowns.Get(beliefID.String()); ok {
		bd := cached.(ScoreBreakdown)
		return &bd, nil
	}

	bd, err := r.scorer.Score(ctx, beliefID)
	if err != nil {
		return nil, err
	}

	stances, err := r.studies.GetStancesByBelief(ctx, beliefID)
	if err != nil {
		return nil, fmt.Errorf("load study stances: %w", err)
	}
	for _, stance := range stances {
		term := StanceTerm{
			StudyID:        stance.StudyID,
			Position:       stance.Position,
			StanceStrength: stance.StanceStrength,
		}
		study, err := r.studies.GetByID(ctx, stance.StudyID)
		if err == nil {
			term.Authority = study.NetworkMetrics.PageRankScore
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("load stance study: %w", err)
		}
		bd.StanceTerms = append(bd.StanceTerms, term)
	}

	r.breakdowns.Set(beliefID.String(), *bd, gocache.DefaultExpiration)
	return bd, nil
}

// Export assembles the interchange record for a belief: pro arguments
// before con, history most-recent-first.
func (r *Recalculator) Export(ctx context.Context, beliefID uuid.UUID) (*domain.BeliefExport, error) {
	belief, err := r.beliefs.GetByID(ctx, beliefID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrBeliefNotFound
		}
		return nil, err
	}

	export := &domain.BeliefExport{
		ID:         belief.ID,
		Statement:  belief.Statement,
		Status:     belief.Status,
		Aggregate:  belief.AggregateScore,
		ExportedAt: time.Now().UTC(),
	}

	args, err := r.arguments.GetByParent(ctx, beliefID, true)
	if err != nil {
		return nil, fmt.Errorf("load arguments: %w", err)
	}
	sort.SliceStable(args, func(i, j int) bool {
		return args[i].CreatedAt.Before(args[j].CreatedAt)
	})
	for i := range args {
		a := &args[i]
		ae := domain.ArgumentExport{
			ID:              a.ID,
			Statement:       a.Statement,
			Side:            a.Side,
			TruthScore:      a.TruthScore,
			LinkageScore:    a.LinkageScore,
			ImportanceScore: a.ImportanceScore,
			ImpactScore:     a.ImpactScore,
			CertifyingAgent: a.CertifyingAgent,
			Archived:        a.Archived,
		}
		if a.Side == domain.SidePro {
			export.ProArguments = append(export.ProArguments, ae)
		} else {
			export.ConArguments = append(export.ConArguments, ae)
		}
	}

	evidence, err := r.scorer.evidence.GetByBelief(ctx, beliefID)
	if err != nil {
		return nil, fmt.Errorf("load evidence: %w", err)
	}
	for i := range evidence {
		e := &evidence[i]
		export.Evidence = append(export.Evidence, domain.EvidenceExport{
			ID:      e.ID,
			Tier:    e.Tier,
			Linkage: e.ConclusionRelevance,
			Title:   e.Title,
			Side:    e.Side,
		})
	}

	stances, err := r.studies.GetStancesByBelief(ctx, beliefID)
	if err != nil {
		return nil, fmt.Errorf("load study stances: %w", err)
	}
	for _, stance := range stances {
		se := domain.StanceExport{
			StudyID:        stance.StudyID,
			Position:       stance.Position,
			StanceStrength: stance.StanceStrength,
		}
		if study, err := r.studies.GetByID(ctx, stance.StudyID); err == nil {
			se.Title = study.Title
			se.Authority = study.NetworkMetrics.PageRankScore
		}
		export.StudyStances = append(export.StudyStances, se)
	}

	ci, err := r.confidence.confidence.GetByBelief(ctx, beliefID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("load confidence interval: %w", err)
		}
	} else {
		export.Confidence = domain.ConfidenceExport{
			CIScore:             ci.CIScore,
			Level:               string(ci.Level),
			UserExamination:     domain.FactorExport{Score: ci.UserExamination.Score, Weight: ci.UserExamination.Weight},
			ScoreStability:      domain.FactorExport{Score: ci.ScoreStability.Score, Weight: ci.ScoreStability.Weight},
			Knowability:         domain.FactorExport{Score: ci.Knowability.Score, Weight: ci.Knowability.Weight},
			ChallengeResistance: domain.FactorExport{Score: ci.ChallengeResistance.Score, Weight: ci.ChallengeResistance.Weight},
			KnowabilityCategory: string(ci.Knowability.Category),
			MaxCICap:            ci.Knowability.MaxCICap,
		}
		for _, p := range ci.ScoreHistory {
			export.RecentHistory = append(export.RecentHistory, domain.HistoryEntryExport{
				Timestamp: p.Timestamp,
				Score:     p.Score,
			})
		}
	}

	return export, nil
}
