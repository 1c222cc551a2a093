package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/credencehq/credence/internal/config"
	"github.com/credencehq/credence/internal/domain"
	"github.com/credencehq/credence/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrBeliefNotFound       = errors.New("belief not found")
	ErrStatementEmpty       = errors.New("statement is required")
	ErrInvalidSide          = errors.New("invalid side")
	ErrTruthScoreOutOfRange = errors.New("truth_score must be in [0,100]")
	ErrUnitScoreOutOfRange  = errors.New("linkage_score and importance_score must be in [0,1]")
	ErrSelfArgument         = errors.New("a belief cannot be an argument for itself")
)

// TruthSource records where an argument term's effective truth score
// came from, for the breakdown output.
type TruthSource string

const (
	TruthStored         TruthSource = "stored"
	TruthChildAggregate TruthSource = "child_aggregate"
	TruthCachedCycle    TruthSource = "cached_cycle"
	TruthDefaulted      TruthSource = "defaulted"
)

type ArgumentTerm struct {
	ArgumentID     uuid.UUID   `json:"argument_id"`
	ChildBeliefID  uuid.UUID   `json:"child_belief_id"`
	Side           domain.Side `json:"side"`
	EffectiveTruth float64     `json:"effective_truth"`
	TruthSource    TruthSource `json:"truth_source"`
	Weight         float64     `json:"weight"`
	Redundant      bool        `json:"redundant,omitempty"`
	Impact         float64     `json:"impact"`
}

type EvidenceTerm struct {
	EvidenceID   uuid.UUID           `json:"evidence_id"`
	Tier         domain.EvidenceTier `json:"tier"`
	Side         domain.EvidenceSide `json:"side"`
	Score        float64             `json:"score"`
	Contribution float64             `json:"contribution"`
}

type StanceTerm struct {
	StudyID        uuid.UUID             `json:"study_id"`
	Position       domain.StancePosition `json:"position"`
	StanceStrength float64               `json:"stance_strength"`
	Authority      float64               `json:"authority"`
}

// ScoreBreakdown enumerates every weighted term behind an aggregate
// score. DefaultedInputs lists anything the scorer had to skip or
// default during the walk.
type ScoreBreakdown struct {
	BeliefID        uuid.UUID      `json:"belief_id"`
	Aggregate       float64        `json:"aggregate_score"`
	ArgumentSum     float64        `json:"argument_sum"`
	EvidenceSum     float64        `json:"evidence_sum"`
	RawSum          float64        `json:"raw_sum"`
	NeutralDefault  bool           `json:"neutral_default"`
	ArgumentTerms   []ArgumentTerm `json:"argument_terms"`
	EvidenceTerms   []EvidenceTerm `json:"evidence_terms"`
	StanceTerms     []StanceTerm   `json:"stance_terms,omitempty"`
	DefaultedInputs []string       `json:"defaulted_inputs,omitempty"`
	ComputedAt      time.Time      `json:"computed_at"`
}

// ArgumentScorer derives a belief's aggregate score from its argument
// tree and attached evidence. The scorer is read-only; persisting the
// result is the recalculator's job.
type ArgumentScorer struct {
	beliefs   domain.BeliefStore
	arguments domain.ArgumentStore
	evidence  domain.EvidenceStore
	cfg       config.Scoring
	logger    *zap.Logger
}

func NewArgumentScorer(beliefs domain.BeliefStore, arguments domain.ArgumentStore, evidence domain.EvidenceStore, cfg config.Scoring, logger *zap.Logger) *ArgumentScorer {
	return &ArgumentScorer{
		beliefs:   beliefs,
		arguments: arguments,
		evidence:  evidence,
		cfg:       cfg,
		logger:    logger,
	}
}

// Score walks the belief's argument tree and returns the full
// breakdown. Beliefs already on the walk stack contribute their cached
// aggregate instead of being descended into, so cyclic graphs
// terminate.
func (s *ArgumentScorer) Score(ctx context.Context, beliefID uuid.UUID) (*ScoreBreakdown, error) {
	belief, err := s.beliefs.GetByID(ctx, beliefID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrBeliefNotFound
		}
		return nil, fmt.Errorf("load belief: %w", err)
	}
	visited := map[uuid.UUID]bool{}
	return s.score(ctx, belief, visited, 0)
}

func (s *ArgumentScorer) score(ctx context.Context, belief *domain.Belief, visited map[uuid.UUID]bool, depth int) (*ScoreBreakdown, error) {
	visited[belief.ID] = true
	defer delete(visited, belief.ID)

	bd := &ScoreBreakdown{
		BeliefID:   belief.ID,
		ComputedAt: time.Now().UTC(),
	}

	args, err := s.arguments.GetByParent(ctx, belief.ID, false)
	if err != nil {
		return nil, fmt.Errorf("load arguments: %w", err)
	}
	evidence, err := s.evidence.GetByBelief(ctx, belief.ID)
	if err != nil {
		return nil, fmt.Errorf("load evidence: %w", err)
	}

	if len(args) == 0 && len(evidence) == 0 {
		bd.Aggregate = domain.NeutralScore
		bd.NeutralDefault = true
		return bd, nil
	}

	for i := range args {
		term, err := s.argumentTerm(ctx, &args[i], visited, depth)
		if err != nil {
			return nil, err
		}
		bd.ArgumentSum += term.Impact
		bd.ArgumentTerms = append(bd.ArgumentTerms, *term)
		if term.TruthSource == TruthDefaulted {
			bd.DefaultedInputs = append(bd.DefaultedInputs,
				fmt.Sprintf("argument %s: content belief %s missing, contribution zeroed", args[i].ID, args[i].ChildBeliefID))
		}
	}

	for i := range evidence {
		e := &evidence[i]
		contribution := e.Contribution()
		bd.EvidenceSum += contribution
		bd.EvidenceTerms = append(bd.EvidenceTerms, EvidenceTerm{
			EvidenceID:   e.ID,
			Tier:         e.Tier,
			Side:         e.Side,
			Score:        e.Score(),
			Contribution: contribution,
		})
	}

	bd.RawSum = bd.ArgumentSum + bd.EvidenceSum
	bd.Aggregate = domain.ClampScore(domain.NeutralScore + bd.RawSum/s.cfg.ScaleFactor)
	return bd, nil
}

// argumentTerm resolves one argument's effective truth and weighted
// impact. Redundant cluster members keep their term in the breakdown
// but carry the reduced weight.
func (s *ArgumentScorer) argumentTerm(ctx context.Context, arg *domain.Argument, visited map[uuid.UUID]bool, depth int) (*ArgumentTerm, error) {
	term := &ArgumentTerm{
		ArgumentID:    arg.ID,
		ChildBeliefID: arg.ChildBeliefID,
		Side:          arg.Side,
		Weight:        1.0,
	}

	truth, source, err := s.effectiveTruth(ctx, arg, visited, depth)
	if err != nil {
		return nil, err
	}
	term.EffectiveTruth = truth
	term.TruthSource = source
	if source == TruthDefaulted {
		term.Weight = 0
		term.Impact = 0
		return term, nil
	}

	if arg.RedundantOfID != nil && arg.EquivalencyScore >= s.cfg.RedundancyThreshold {
		term.Redundant = true
		term.Weight = s.cfg.RedundantWeight
	}

	term.Impact = term.Weight * arg.Impact(truth)
	return term, nil
}

func (s *ArgumentScorer) effectiveTruth(ctx context.Context, arg *domain.Argument, visited map[uuid.UUID]bool, depth int) (float64, TruthSource, error) {
	child, err := s.beliefs.GetByID(ctx, arg.ChildBeliefID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("argument references missing belief, skipping",
				zap.String("argument_id", arg.ID.String()),
				zap.String("child_belief_id", arg.ChildBeliefID.String()))
			return 0, TruthDefaulted, nil
		}
		return 0, "", fmt.Errorf("load argument content belief: %w", err)
	}

	if visited[child.ID] {
		return child.AggregateScore, TruthCachedCycle, nil
	}
	if depth >= s.cfg.MaxRecursionDepth {
		s.logger.Warn("recursion depth limit reached, using cached aggregate",
			zap.String("belief_id", child.ID.String()),
			zap.Int("depth", depth))
		return child.AggregateScore, TruthCachedCycle, nil
	}

	childArgs, err := s.arguments.GetByParent(ctx, child.ID, false)
	if err != nil {
		return 0, "", fmt.Errorf("load child arguments: %w", err)
	}
	childEvidence, err := s.evidence.GetByBelief(ctx, child.ID)
	if err != nil {
		return 0, "", fmt.Errorf("load child evidence: %w", err)
	}

	// A leaf content belief has no scored substructure of its own, so
	// the argument's stored truth score is authoritative.
	if len(childArgs) == 0 && len(childEvidence) == 0 {
		return arg.TruthScore, TruthStored, nil
	}

	childBD, err := s.score(ctx, child, visited, depth+1)
	if err != nil {
		return 0, "", err
	}
	return childBD.Aggregate, TruthChildAggregate, nil
}

// ValidateArgumentInputs rejects out-of-range scoring inputs before
// they reach storage.
func ValidateArgumentInputs(truth, linkage, importance float64) error {
	if truth < domain.ScoreScaleMin || truth > domain.ScoreScaleMax {
		return ErrTruthScoreOutOfRange
	}
	if linkage < 0 || linkage > 1 || importance < 0 || importance > 1 {
		return ErrUnitScoreOutOfRange
	}
	return nil
}
