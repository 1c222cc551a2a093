package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/credencehq/credence/internal/config"
	"github.com/credencehq/credence/internal/domain"
	"github.com/credencehq/credence/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrSelfMerge  = errors.New("cannot merge a belief into itself")
	ErrQueryEmpty = errors.New("query statement is required")
)

// duplicateCandidateLimit bounds how many similar beliefs the duplicate
// check examines.
const duplicateCandidateLimit = 10

// DuplicateVerdict is the outcome of a duplicate check. MatchID and
// Score are set only when IsDuplicate is true.
type DuplicateVerdict struct {
	IsDuplicate bool       `json:"is_duplicate"`
	MatchID     *uuid.UUID `json:"match_id,omitempty"`
	Score       float64    `json:"score"`
}

// MergeResult reports what a merge actually did. A re-merge of an
// already-archived duplicate moves nothing and is still a success.
type MergeResult struct {
	CanonicalID    uuid.UUID `json:"canonical_id"`
	DuplicateID    uuid.UUID `json:"duplicate_id"`
	ArgumentsMoved int64     `json:"arguments_moved"`
	AlreadyMerged  bool      `json:"already_merged"`
}

// Recalculating is the slice of the recalculator the detector needs.
// Wired with a setter after construction; the two services reference
// each other.
type Recalculating interface {
	Recalculate(ctx context.Context, beliefID uuid.UUID) (*ScoreBreakdown, error)
}

// RedundancyDetector finds near-duplicate beliefs and arguments so the
// same point cannot be counted at full weight twice.
type RedundancyDetector struct {
	beliefs   domain.BeliefStore
	arguments domain.ArgumentStore
	oracle    domain.SimilarityOracle
	embedder  domain.EmbeddingClient
	cfg       config.Scoring
	logger    *zap.Logger
	recalc    Recalculating
}

func NewRedundancyDetector(beliefs domain.BeliefStore, arguments domain.ArgumentStore, oracle domain.SimilarityOracle, embedder domain.EmbeddingClient, cfg config.Scoring, logger *zap.Logger) *RedundancyDetector {
	return &RedundancyDetector{
		beliefs:   beliefs,
		arguments: arguments,
		oracle:    oracle,
		embedder:  embedder,
		cfg:       cfg,
		logger:    logger,
	}
}

func (d *RedundancyDetector) SetRecalculator(r Recalculating) {
	d.recalc = r
}

// FindSimilar returns existing beliefs close to the statement, most
// similar first; equal similarity breaks toward the higher-scoring
// belief.
func (d *RedundancyDetector) FindSimilar(ctx context.Context, statement string, limit int) ([]domain.BeliefWithScore, error) {
	if statement == "" {
		return nil, ErrQueryEmpty
	}
	if limit <= 0 {
		limit = 10
	}

	vec, err := d.embedder.Embed(ctx, statement)
	if err != nil {
		return nil, fmt.Errorf("embed query statement: %w", err)
	}

	matches, err := d.beliefs.FindSimilar(ctx, vec, d.cfg.RedundancyThreshold, limit)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].AggregateScore > matches[j].AggregateScore
	})
	return matches, nil
}

// DetectDuplicate decides whether the statement restates an existing
// belief. The best candidate at or above the redundancy threshold wins;
// equal similarity breaks toward the higher-scoring belief.
func (d *RedundancyDetector) DetectDuplicate(ctx context.Context, statement string) (*DuplicateVerdict, error) {
	matches, err := d.FindSimilar(ctx, statement, duplicateCandidateLimit)
	if err != nil {
		return nil, err
	}
	for i := range matches {
		if matches[i].Similarity < d.cfg.RedundancyThreshold {
			continue
		}
		matchID := matches[i].ID
		return &DuplicateVerdict{
			IsDuplicate: true,
			MatchID:     &matchID,
			Score:       matches[i].Similarity,
		}, nil
	}
	return &DuplicateVerdict{}, nil
}

// ScanArguments compares same-side sibling arguments pairwise and marks
// the weaker member of each near-duplicate pair as redundant. The
// first-created argument of a cluster keeps full weight.
func (d *RedundancyDetector) ScanArguments(ctx context.Context, parentBeliefID uuid.UUID) (int, error) {
	args, err := d.arguments.GetByParent(ctx, parentBeliefID, false)
	if err != nil {
		return 0, fmt.Errorf("load arguments: %w", err)
	}

	bySide := map[domain.Side][]domain.Argument{}
	for _, a := range args {
		bySide[a.Side] = append(bySide[a.Side], a)
	}

	flagged := 0
	for _, siblings := range bySide {
		// Creation order: earlier arguments anchor clusters.
		sort.Slice(siblings, func(i, j int) bool {
			return siblings[i].CreatedAt.Before(siblings[j].CreatedAt)
		})
		for i := range siblings {
			later := &siblings[i]
			if later.RedundantOfID != nil {
				continue
			}
			for j := 0; j < i; j++ {
				anchor := &siblings[j]
				if anchor.RedundantOfID != nil {
					continue
				}
				sim, err := d.oracle.Similarity(ctx, later.Statement, anchor.Statement)
				if err != nil {
					d.logger.Warn("similarity check failed, skipping pair",
						zap.String("argument_id", later.ID.String()),
						zap.String("other_id", anchor.ID.String()),
						zap.Error(err))
					continue
				}
				if sim < d.cfg.RedundancyThreshold {
					continue
				}
				if err := d.arguments.UpdateEquivalency(ctx, later.ID, sim, &anchor.ID); err != nil {
					return flagged, fmt.Errorf("mark argument redundant: %w", err)
				}
				later.RedundantOfID = &anchor.ID
				later.EquivalencyScore = sim
				flagged++
				d.logger.Info("argument flagged as near-duplicate",
					zap.String("argument_id", later.ID.String()),
					zap.String("redundant_of", anchor.ID.String()),
					zap.Float64("similarity", sim))
				break
			}
		}
	}
	return flagged, nil
}

// Merge folds the duplicate belief into the canonical one: arguments
// move over, the duplicate is archived, the canonical is rescored.
// Merging an already-archived duplicate is a no-op success.
func (d *RedundancyDetector) Merge(ctx context.Context, canonicalID, duplicateID uuid.UUID) (*MergeResult, error) {
	if canonicalID == duplicateID {
		return nil, ErrSelfMerge
	}

	canonical, err := d.beliefs.GetByID(ctx, canonicalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrBeliefNotFound
		}
		return nil, err
	}
	duplicate, err := d.beliefs.GetByID(ctx, duplicateID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrBeliefNotFound
		}
		return nil, err
	}

	result := &MergeResult{CanonicalID: canonical.ID, DuplicateID: duplicate.ID}
	if duplicate.Status == domain.BeliefArchived {
		result.AlreadyMerged = true
		return result, nil
	}

	moved, err := d.arguments.Reparent(ctx, duplicate.ID, canonical.ID)
	if err != nil {
		return nil, fmt.Errorf("move arguments: %w", err)
	}
	result.ArgumentsMoved = moved

	if err := d.beliefs.SetStatus(ctx, duplicate.ID, domain.BeliefArchived); err != nil {
		return nil, fmt.Errorf("archive duplicate: %w", err)
	}

	d.logger.Info("beliefs merged",
		zap.String("canonical_id", canonical.ID.String()),
		zap.String("duplicate_id", duplicate.ID.String()),
		zap.Int64("arguments_moved", moved))

	// Transferred arguments may duplicate existing ones.
	if _, err := d.ScanArguments(ctx, canonical.ID); err != nil {
		return nil, err
	}
	if d.recalc != nil {
		if _, err := d.recalc.Recalculate(ctx, canonical.ID); err != nil {
			return nil, fmt.Errorf("rescore canonical belief: %w", err)
		}
	}
	return result, nil
}
