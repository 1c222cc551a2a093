package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/credencehq/credence/internal/config"
	"github.com/credencehq/credence/internal/domain"
	"github.com/credencehq/credence/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrCriteriaNotFound        = errors.New("criteria not found")
	ErrCriteriaNameEmpty       = errors.New("name is required")
	ErrInvalidDimension        = errors.New("invalid criteria dimension")
	ErrInvalidDirection        = errors.New("invalid criteria direction")
	ErrCriteriaInputOutOfRange = errors.New("evidence_quality, logical_validity and importance must be in [0,100]")
)

// sigmoidScale controls how fast net argument weight saturates a
// dimension score. A net weight equal to the scale moves the score from
// 50 to ~73.
const sigmoidScale = 50.0

// DimensionBreakdown enumerates one dimension's inputs.
type DimensionBreakdown struct {
	Dimension domain.CriteriaDimension `json:"dimension"`
	ProWeight float64                  `json:"pro_weight"`
	ConWeight float64                  `json:"con_weight"`
	Score     float64                  `json:"score"`
	Arguments int                      `json:"arguments"`
}

type CriteriaBreakdown struct {
	CriteriaID uuid.UUID            `json:"criteria_id"`
	Dimensions []DimensionBreakdown `json:"dimensions"`
	TotalScore float64              `json:"total_score"`
}

// CriteriaService scores objective measurement criteria from their
// per-dimension argument pools.
type CriteriaService struct {
	criteria domain.CriteriaStore
	cfg      config.Scoring
	logger   *zap.Logger
}

func NewCriteriaService(criteria domain.CriteriaStore, cfg config.Scoring, logger *zap.Logger) *CriteriaService {
	return &CriteriaService{
		criteria: criteria,
		cfg:      cfg,
		logger:   logger,
	}
}

func (s *CriteriaService) Create(ctx context.Context, c *domain.ObjectiveCriteria) error {
	if c.Name == "" {
		return ErrCriteriaNameEmpty
	}
	// Unargued dimensions start neutral.
	for _, d := range domain.AllCriteriaDimensions {
		c.SetDimensionScore(d, domain.NeutralScore)
	}
	c.TotalScore = domain.NeutralScore
	return s.criteria.Create(ctx, c)
}

func (s *CriteriaService) Get(ctx context.Context, id uuid.UUID) (*domain.ObjectiveCriteria, error) {
	c, err := s.criteria.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCriteriaNotFound
		}
		return nil, err
	}
	return c, nil
}

// AddArgument validates inputs, derives the geometric-mean weight and
// triggers a rescore.
func (s *CriteriaService) AddArgument(ctx context.Context, arg *domain.CriteriaArgument) (*CriteriaBreakdown, error) {
	if !domain.ValidCriteriaDimension(string(arg.Dimension)) {
		return nil, ErrInvalidDimension
	}
	if !domain.ValidCriteriaDirection(string(arg.Direction)) {
		return nil, ErrInvalidDirection
	}
	if arg.Content == "" {
		return nil, ErrStatementEmpty
	}
	for _, v := range []float64{arg.EvidenceQuality, arg.LogicalValidity, arg.Importance} {
		if v < 0 || v > 100 {
			return nil, ErrCriteriaInputOutOfRange
		}
	}
	if _, err := s.Get(ctx, arg.CriteriaID); err != nil {
		return nil, err
	}

	arg.Weight = ArgumentWeight(arg.EvidenceQuality, arg.LogicalValidity, arg.Importance)
	if err := s.criteria.AddArgument(ctx, arg); err != nil {
		return nil, fmt.Errorf("add criteria argument: %w", err)
	}
	return s.Rescore(ctx, arg.CriteriaID)
}

// Rescore recomputes every dimension score and the total from the
// current argument pool, with a version-checked write.
func (s *CriteriaService) Rescore(ctx context.Context, criteriaID uuid.UUID) (*CriteriaBreakdown, error) {
	args, err := s.criteria.GetArguments(ctx, criteriaID)
	if err != nil {
		return nil, fmt.Errorf("load criteria arguments: %w", err)
	}

	for attempt := 0; attempt < s.cfg.ConflictRetries; attempt++ {
		c, err := s.Get(ctx, criteriaID)
		if err != nil {
			return nil, err
		}

		bd := &CriteriaBreakdown{CriteriaID: criteriaID}
		var total float64
		for _, d := range domain.AllCriteriaDimensions {
			dim := DimensionBreakdown{Dimension: d}
			for i := range args {
				if args[i].Dimension != d {
					continue
				}
				dim.Arguments++
				if args[i].Direction == domain.CriteriaSupporting {
					dim.ProWeight += args[i].Weight
				} else {
					dim.ConWeight += args[i].Weight
				}
			}
			dim.Score = DimensionScore(dim.ProWeight, dim.ConWeight, dim.Arguments)
			c.SetDimensionScore(d, dim.Score)
			total += dim.Score
			bd.Dimensions = append(bd.Dimensions, dim)
		}
		c.TotalScore = total / float64(len(domain.AllCriteriaDimensions))
		bd.TotalScore = c.TotalScore

		if err := s.criteria.UpdateScores(ctx, c); err != nil {
			if errors.Is(err, store.ErrConflict) {
				continue
			}
			return nil, fmt.Errorf("persist criteria scores: %w", err)
		}
		return bd, nil
	}
	return nil, ErrConcurrencyConflict
}

// ArgumentWeight is the geometric mean of the three quality inputs, so
// one weak input drags the whole argument down.
func ArgumentWeight(evidenceQuality, logicalValidity, importance float64) float64 {
	if evidenceQuality <= 0 || logicalValidity <= 0 || importance <= 0 {
		return 0
	}
	return math.Cbrt(evidenceQuality * logicalValidity * importance)
}

// DimensionScore maps net argument weight through a sigmoid onto the
// engine scale. No arguments means no information: neutral 50.
func DimensionScore(proWeight, conWeight float64, argumentCount int) float64 {
	if argumentCount == 0 {
		return domain.NeutralScore
	}
	net := (proWeight - conWeight) / sigmoidScale
	return domain.ScoreScaleMax / (1 + math.Exp(-net))
}
