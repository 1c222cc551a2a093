package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// weightEpsilon is the tolerance when checking that factor weights sum to 1.
const weightEpsilon = 1e-6

// Scoring holds every tunable constant of the scoring engine. Defaults
// are compiled in; a SCORING_CONFIG YAML file may override any subset.
// Changing factor weights invalidates all stored confidence intervals:
// the host is expected to trigger a full recalculation after a change.
type Scoring struct {
	// ScaleFactor divides the raw argument/evidence sum before it is
	// added to the neutral baseline.
	ScaleFactor float64 `yaml:"scale_factor"`

	// RedundancyThreshold is the equivalency score above which an
	// argument counts as a near-duplicate of an already-counted one.
	RedundancyThreshold float64 `yaml:"redundancy_threshold"`
	// RedundantWeight is the reduced weight applied to near-duplicate
	// arguments. Non-zero so a rephrasing still counts for something,
	// but well below 1 so volume is not votes.
	RedundantWeight float64 `yaml:"redundant_weight"`

	// MaxRecursionDepth bounds aggregate scoring descent through
	// argument→child-belief chains.
	MaxRecursionDepth int `yaml:"max_recursion_depth"`

	// PageRank parameters.
	DampingFactor      float64 `yaml:"damping_factor"`
	PageRankIterations int     `yaml:"pagerank_iterations"`

	// Confidence factor weights. Must sum to 1.
	ExaminationWeight float64 `yaml:"examination_weight"`
	StabilityWeight   float64 `yaml:"stability_weight"`
	KnowabilityWeight float64 `yaml:"knowability_weight"`
	ChallengeWeight   float64 `yaml:"challenge_weight"`

	// KnowabilityCaps maps category name → maximum CI score.
	KnowabilityCaps map[string]float64 `yaml:"knowability_caps"`

	// CascadeDepth bounds score propagation to linked beliefs after a
	// recompute.
	CascadeDepth int `yaml:"cascade_depth"`
	// ConflictRetries bounds optimistic-concurrency retry loops.
	ConflictRetries int `yaml:"conflict_retries"`
}

// DefaultScoring returns the built-in scoring constants.
func DefaultScoring() Scoring {
	return Scoring{
		ScaleFactor:         4.0,
		RedundancyThreshold: 0.75,
		RedundantWeight:     0.25,
		MaxRecursionDepth:   12,
		DampingFactor:       0.85,
		PageRankIterations:  10,
		ExaminationWeight:   0.20,
		StabilityWeight:     0.30,
		KnowabilityWeight:   0.25,
		ChallengeWeight:     0.25,
		KnowabilityCaps: map[string]float64{
			"empirical":     95,
			"inferential":   80,
			"speculative":   55,
			"unfalsifiable": 35,
		},
		CascadeDepth:    3,
		ConflictRetries: 3,
	}
}

// LoadScoring returns the defaults merged with the YAML file at path,
// if any, and validates the result.
func LoadScoring(path string) (Scoring, error) {
	s := DefaultScoring()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return s, fmt.Errorf("read scoring config: %w", err)
		}
		if err := yaml.Unmarshal(data, &s); err != nil {
			return s, fmt.Errorf("parse scoring config: %w", err)
		}
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// Validate rejects configurations the engine cannot run with.
func (s Scoring) Validate() error {
	sum := s.ExaminationWeight + s.StabilityWeight + s.KnowabilityWeight + s.ChallengeWeight
	if math.Abs(sum-1) > weightEpsilon {
		return fmt.Errorf("confidence factor weights sum to %.4f, want 1", sum)
	}
	if s.DampingFactor <= 0 || s.DampingFactor >= 1 {
		return fmt.Errorf("damping factor %.2f out of (0,1)", s.DampingFactor)
	}
	if s.PageRankIterations < 1 {
		return fmt.Errorf("pagerank iterations must be >= 1")
	}
	if s.RedundantWeight < 0 || s.RedundantWeight >= 1 {
		return fmt.Errorf("redundant weight %.2f out of [0,1)", s.RedundantWeight)
	}
	if s.RedundancyThreshold <= 0 || s.RedundancyThreshold > 1 {
		return fmt.Errorf("redundancy threshold %.2f out of (0,1]", s.RedundancyThreshold)
	}
	if s.ScaleFactor <= 0 {
		return fmt.Errorf("scale factor must be positive")
	}
	if s.MaxRecursionDepth < 1 || s.CascadeDepth < 0 || s.ConflictRetries < 1 {
		return fmt.Errorf("recursion, cascade and retry bounds must be positive")
	}
	// The engine looks up a cap for every category it can derive; a
	// missing entry is a configuration error, not a runtime fallback.
	for _, cat := range []string{"empirical", "inferential", "speculative", "unfalsifiable"} {
		if _, ok := s.KnowabilityCaps[cat]; !ok {
			return fmt.Errorf("knowability cap for %q is required", cat)
		}
	}
	for cat, cap := range s.KnowabilityCaps {
		if cap < 0 || cap > 100 {
			return fmt.Errorf("knowability cap for %q out of [0,100]", cat)
		}
	}
	return nil
}
