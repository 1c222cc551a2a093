package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/credencehq/credence/internal/domain"
	"github.com/credencehq/credence/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidBeliefStatus  = errors.New("invalid belief status")
	ErrInvalidEvidenceSide  = errors.New("invalid evidence side")
	ErrInvalidEvidenceTier  = errors.New("invalid evidence tier")
	ErrEvidenceOutOfRange   = errors.New("independence, relevance and replication inputs out of range")
	ErrDimensionsOutOfRange = errors.New("specificity and sentiment must be in [0,1]")
)

// BeliefService is the write entry point for beliefs and their attached
// arguments and evidence. Every mutation that affects scoring ends in a
// recompute of the touched belief.
type BeliefService struct {
	beliefs    domain.BeliefStore
	arguments  domain.ArgumentStore
	evidence   domain.EvidenceStore
	embedder   domain.EmbeddingClient
	detector   *RedundancyDetector
	recalc     *Recalculator
	logger     *zap.Logger
}

func NewBeliefService(beliefs domain.BeliefStore, arguments domain.ArgumentStore, evidence domain.EvidenceStore, embedder domain.EmbeddingClient, detector *RedundancyDetector, recalc *Recalculator, logger *zap.Logger) *BeliefService {
	return &BeliefService{
		beliefs:   beliefs,
		arguments: arguments,
		evidence:  evidence,
		embedder:  embedder,
		detector:  detector,
		recalc:    recalc,
		logger:    logger,
	}
}

// Create stores a new belief at the neutral score. The statement is
// embedded for later similarity search; an embedding failure downgrades
// to a warning so belief creation does not depend on the provider.
func (s *BeliefService) Create(ctx context.Context, b *domain.Belief) error {
	if b.Statement == "" {
		return ErrStatementEmpty
	}
	if b.Status != "" && !domain.ValidBeliefStatus(string(b.Status)) {
		return ErrInvalidBeliefStatus
	}
	if b.Dimensions.Specificity < 0 || b.Dimensions.Specificity > 1 ||
		b.Dimensions.Sentiment < 0 || b.Dimensions.Sentiment > 1 {
		return ErrDimensionsOutOfRange
	}

	if s.embedder != nil {
		vec, err := s.embedder.Embed(ctx, b.Statement)
		if err != nil {
			s.logger.Warn("statement embedding failed, belief stored without one",
				zap.Error(err))
		} else {
			b.Embedding = vec
		}
	}

	b.AggregateScore = domain.NeutralScore
	return s.beliefs.Create(ctx, b)
}

func (s *BeliefService) Get(ctx context.Context, id uuid.UUID) (*domain.Belief, error) {
	b, err := s.beliefs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrBeliefNotFound
		}
		return nil, err
	}
	return b, nil
}

// AddArgument attaches a child belief as a pro/con reason, runs the
// sibling redundancy scan and rescores the parent.
func (s *BeliefService) AddArgument(ctx context.Context, arg *domain.Argument) (*ScoreBreakdown, error) {
	if !domain.ValidSide(string(arg.Side)) {
		return nil, ErrInvalidSide
	}
	if arg.Statement == "" {
		return nil, ErrStatementEmpty
	}
	if arg.ParentBeliefID == arg.ChildBeliefID {
		return nil, ErrSelfArgument
	}
	if err := ValidateArgumentInputs(arg.TruthScore, arg.LinkageScore, arg.ImportanceScore); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, arg.ParentBeliefID); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, arg.ChildBeliefID); err != nil {
		return nil, err
	}

	arg.ImpactScore = arg.Impact(arg.TruthScore)
	if err := s.arguments.Create(ctx, arg); err != nil {
		return nil, fmt.Errorf("create argument: %w", err)
	}

	if _, err := s.detector.ScanArguments(ctx, arg.ParentBeliefID); err != nil {
		return nil, err
	}
	return s.recalc.Recalculate(ctx, arg.ParentBeliefID)
}

// AddEvidence attaches tiered evidence and rescores the belief.
func (s *BeliefService) AddEvidence(ctx context.Context, e *domain.Evidence) (*ScoreBreakdown, error) {
	if !domain.ValidEvidenceSide(string(e.Side)) {
		return nil, ErrInvalidEvidenceSide
	}
	if !domain.ValidEvidenceTier(string(e.Tier)) {
		return nil, ErrInvalidEvidenceTier
	}
	if e.SourceIndependenceWeight < 0 || e.SourceIndependenceWeight > 1 ||
		e.ConclusionRelevance < 0 || e.ConclusionRelevance > 1 ||
		e.ReplicationQuantity < 0 ||
		e.ReplicationPercentage < 0 || e.ReplicationPercentage > 100 {
		return nil, ErrEvidenceOutOfRange
	}
	if _, err := s.Get(ctx, e.BeliefID); err != nil {
		return nil, err
	}

	if err := s.evidence.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create evidence: %w", err)
	}
	return s.recalc.Recalculate(ctx, e.BeliefID)
}
