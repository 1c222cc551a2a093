package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/credencehq/credence/internal/config"
	"github.com/credencehq/credence/internal/domain"
	"github.com/credencehq/credence/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrStudyNotFound      = errors.New("study not found")
	ErrStudyTitleEmpty    = errors.New("title is required")
	ErrSelfCitation       = errors.New("a study cannot cite itself")
	ErrNoStudiesToRank    = errors.New("at least one study id is required")
	ErrInvalidDamping     = errors.New("damping factor must be in (0,1)")
	ErrInvalidStance      = errors.New("invalid stance position")
	ErrStanceOutOfRange   = errors.New("relevance and evidence_quality must be in [0,1]")
	ErrInvalidIterations  = errors.New("iterations must be positive")
)

// CitationService manages the study citation graph and computes
// PageRank authority over a requested set of studies.
type CitationService struct {
	studies domain.StudyStore
	beliefs domain.BeliefStore
	cfg     config.Scoring
	logger  *zap.Logger
}

func NewCitationService(studies domain.StudyStore, beliefs domain.BeliefStore, cfg config.Scoring, logger *zap.Logger) *CitationService {
	return &CitationService{
		studies: studies,
		beliefs: beliefs,
		cfg:     cfg,
		logger:  logger,
	}
}

func (s *CitationService) CreateStudy(ctx context.Context, study *domain.Study) error {
	if study.Title == "" {
		return ErrStudyTitleEmpty
	}
	return s.studies.Create(ctx, study)
}

func (s *CitationService) GetStudy(ctx context.Context, id uuid.UUID) (*domain.Study, error) {
	study, err := s.studies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrStudyNotFound
		}
		return nil, err
	}
	return study, nil
}

// AddReference records citingID → citedID. Self-citations are rejected;
// they would otherwise inflate the citing study's own authority.
func (s *CitationService) AddReference(ctx context.Context, citingID, citedID uuid.UUID) error {
	if citingID == citedID {
		return ErrSelfCitation
	}
	if _, err := s.GetStudy(ctx, citingID); err != nil {
		return err
	}
	if _, err := s.GetStudy(ctx, citedID); err != nil {
		return err
	}
	if err := s.studies.AddReference(ctx, citingID, citedID); err != nil {
		return fmt.Errorf("add reference: %w", err)
	}
	return nil
}

func (s *CitationService) RecordStance(ctx context.Context, stance *domain.StudyStance) error {
	if !domain.ValidStancePosition(string(stance.Position)) {
		return ErrInvalidStance
	}
	if stance.Relevance < 0 || stance.Relevance > 1 || stance.EvidenceQuality < 0 || stance.EvidenceQuality > 1 {
		return ErrStanceOutOfRange
	}
	if _, err := s.GetStudy(ctx, stance.StudyID); err != nil {
		return err
	}
	if _, err := s.beliefs.GetByID(ctx, stance.BeliefID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrBeliefNotFound
		}
		return err
	}
	stance.StanceStrength = stance.ComputeStanceStrength()
	return s.studies.CreateStance(ctx, stance)
}

// Rank computes PageRank over the requested studies and persists each
// score. Zero damping or iterations fall back to configured defaults.
// The walk runs the full iteration count with no early-exit check, so
// identical inputs always produce identical outputs.
func (s *CitationService) Rank(ctx context.Context, ids []uuid.UUID, damping float64, iterations int) (map[uuid.UUID]float64, error) {
	if len(ids) == 0 {
		return nil, ErrNoStudiesToRank
	}
	if damping == 0 {
		damping = s.cfg.DampingFactor
	}
	if damping <= 0 || damping >= 1 {
		return nil, ErrInvalidDamping
	}
	if iterations == 0 {
		iterations = s.cfg.PageRankIterations
	}
	if iterations < 0 {
		return nil, ErrInvalidIterations
	}

	studies, err := s.studies.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load studies: %w", err)
	}
	if len(studies) == 0 {
		return nil, ErrStudyNotFound
	}
	if len(studies) < len(ids) {
		s.logger.Warn("some requested studies are missing, ranking the rest",
			zap.Int("requested", len(ids)),
			zap.Int("found", len(studies)))
	}

	inSet := make(map[uuid.UUID]bool, len(studies))
	for i := range studies {
		inSet[studies[i].ID] = true
	}

	// Outgoing edges restricted to the ranked set, self-citations
	// excluded from both degrees.
	outgoing := make(map[uuid.UUID][]uuid.UUID, len(studies))
	for i := range studies {
		st := &studies[i]
		for _, cited := range st.CitationMetrics.References {
			if cited == st.ID || !inSet[cited] {
				continue
			}
			outgoing[st.ID] = append(outgoing[st.ID], cited)
		}
	}

	n := float64(len(studies))
	scores := make(map[uuid.UUID]float64, len(studies))
	for i := range studies {
		scores[studies[i].ID] = 1.0 / n
	}

	for iter := 0; iter < iterations; iter++ {
		// Mass of studies citing nothing in the set is spread uniformly.
		var danglingMass float64
		for id, score := range scores {
			if len(outgoing[id]) == 0 {
				danglingMass += score
			}
		}

		next := make(map[uuid.UUID]float64, len(scores))
		base := (1-damping)/n + damping*danglingMass/n
		for id := range scores {
			next[id] = base
		}
		for id, targets := range outgoing {
			share := damping * scores[id] / float64(len(targets))
			for _, target := range targets {
				next[target] += share
			}
		}
		scores = next
	}

	for id, score := range scores {
		if err := s.studies.UpdatePageRank(ctx, id, score); err != nil {
			return nil, fmt.Errorf("persist pagerank for %s: %w", id, err)
		}
	}
	return scores, nil
}
