package domain

import (
	"context"

	"github.com/google/uuid"
)

type BeliefStore interface {
	Create(ctx context.Context, b *Belief) error
	GetByID(ctx context.Context, id uuid.UUID) (*Belief, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]Belief, error)
	// UpdateAggregate persists a recomputed aggregate score. The write
	// succeeds only when the stored version matches expectedVersion;
	// otherwise the store returns a conflict and the caller must reload
	// and recompute.
	UpdateAggregate(ctx context.Context, id uuid.UUID, aggregate float64, expectedVersion int64) error
	UpdateLinkStats(ctx context.Context, id uuid.UUID, stats LinkStatistics) error
	SetStatus(ctx context.Context, id uuid.UUID, status BeliefStatus) error
	FindSimilar(ctx context.Context, embedding []float32, threshold float64, limit int) ([]BeliefWithScore, error)
}

type ArgumentStore interface {
	Create(ctx context.Context, a *Argument) error
	GetByID(ctx context.Context, id uuid.UUID) (*Argument, error)
	GetByParent(ctx context.Context, parentBeliefID uuid.UUID, includeArchived bool) ([]Argument, error)
	GetByChildBelief(ctx context.Context, childBeliefID uuid.UUID) ([]Argument, error)
	// Reparent moves every argument of fromBelief onto toBelief and
	// returns the number moved. Used by merge; arguments are never
	// deleted.
	Reparent(ctx context.Context, fromBeliefID, toBeliefID uuid.UUID) (int64, error)
	Archive(ctx context.Context, id uuid.UUID) error
	UpdateImpact(ctx context.Context, id uuid.UUID, impact float64) error
	UpdateEquivalency(ctx context.Context, id uuid.UUID, score float64, redundantOf *uuid.UUID) error
}

type EvidenceStore interface {
	Create(ctx context.Context, e *Evidence) error
	GetByBelief(ctx context.Context, beliefID uuid.UUID) ([]Evidence, error)
}

type LinkStore interface {
	Create(ctx context.Context, l *BeliefLink) error
	GetOutgoing(ctx context.Context, beliefID uuid.UUID) ([]BeliefLink, error)
	GetIncoming(ctx context.Context, beliefID uuid.UUID) ([]BeliefLink, error)
	ListActive(ctx context.Context) ([]BeliefLink, error)
	UpdateContribution(ctx context.Context, id uuid.UUID, contribution float64) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type StudyStore interface {
	Create(ctx context.Context, s *Study) error
	GetByID(ctx context.Context, id uuid.UUID) (*Study, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]Study, error)
	// AddReference records citingID → citedID. Both sides of the
	// denormalized edge (references, citedBy, citation count) are
	// written in one transaction; there is no way to mutate either list
	// independently.
	AddReference(ctx context.Context, citingID, citedID uuid.UUID) error
	UpdatePageRank(ctx context.Context, id uuid.UUID, score float64) error
	CreateStance(ctx context.Context, s *StudyStance) error
	GetStancesByBelief(ctx context.Context, beliefID uuid.UUID) ([]StudyStance, error)
}

type ConfidenceStore interface {
	GetByBelief(ctx context.Context, beliefID uuid.UUID) (*ConfidenceInterval, error)
	// Save upserts the interval. For an existing row the write is
	// version-checked; a mismatch returns a conflict so the history
	// append stays transactional with the recompute.
	Save(ctx context.Context, ci *ConfidenceInterval) error
}

type ChallengeStore interface {
	Create(ctx context.Context, e *ChallengeEvent) error
	GetByBelief(ctx context.Context, beliefID uuid.UUID) ([]ChallengeEvent, error)
}

type CriteriaStore interface {
	Create(ctx context.Context, c *ObjectiveCriteria) error
	GetByID(ctx context.Context, id uuid.UUID) (*ObjectiveCriteria, error)
	AddArgument(ctx context.Context, a *CriteriaArgument) error
	GetArguments(ctx context.Context, criteriaID uuid.UUID) ([]CriteriaArgument, error)
	UpdateScores(ctx context.Context, c *ObjectiveCriteria) error
	UpdateArgumentWeight(ctx context.Context, id uuid.UUID, weight float64) error
}

// SimilarityOracle scores how close two statements are in meaning,
// returning a value in [0,1]. The implementation is external to the
// engine; the engine only consumes the score.
type SimilarityOracle interface {
	Similarity(ctx context.Context, textA, textB string) (float64, error)
}

type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
