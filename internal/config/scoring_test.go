package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultScoringIsValid(t *testing.T) {
	s := DefaultScoring()
	require.NoError(t, s.Validate())

	assert.Equal(t, 4.0, s.ScaleFactor)
	assert.Equal(t, 0.75, s.RedundancyThreshold)
	assert.Equal(t, 12, s.MaxRecursionDepth)
	assert.Equal(t, 0.85, s.DampingFactor)
	assert.Equal(t, 95.0, s.KnowabilityCaps["empirical"])
	assert.Equal(t, 35.0, s.KnowabilityCaps["unfalsifiable"])
}

func TestLoadScoringMergesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scoring.yaml")
	override := []byte("damping_factor: 0.5\npagerank_iterations: 25\n")
	require.NoError(t, os.WriteFile(path, override, 0o644))

	s, err := LoadScoring(path)
	require.NoError(t, err)

	assert.Equal(t, 0.5, s.DampingFactor)
	assert.Equal(t, 25, s.PageRankIterations)
	// Everything not named in the file keeps its default.
	assert.Equal(t, 4.0, s.ScaleFactor)
	assert.Equal(t, 0.25, s.RedundantWeight)
}

func TestLoadScoringEmptyPathUsesDefaults(t *testing.T) {
	s, err := LoadScoring("")
	require.NoError(t, err)
	assert.Equal(t, DefaultScoring(), s)
}

func TestLoadScoringMissingFile(t *testing.T) {
	_, err := LoadScoring(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestScoringValidateRejectsBadConfigs(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Scoring)
	}{
		{"weights not summing to one", func(s *Scoring) { s.ChallengeWeight = 0.5 }},
		{"damping at one", func(s *Scoring) { s.DampingFactor = 1.0 }},
		{"zero iterations", func(s *Scoring) { s.PageRankIterations = 0 }},
		{"redundant weight at one", func(s *Scoring) { s.RedundantWeight = 1.0 }},
		{"zero threshold", func(s *Scoring) { s.RedundancyThreshold = 0 }},
		{"negative scale factor", func(s *Scoring) { s.ScaleFactor = -1 }},
		{"cap above scale", func(s *Scoring) { s.KnowabilityCaps["empirical"] = 120 }},
		{"missing knowability cap", func(s *Scoring) { delete(s.KnowabilityCaps, "inferential") }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := DefaultScoring()
			tc.mutate(&s)
			assert.Error(t, s.Validate())
		})
	}
}
