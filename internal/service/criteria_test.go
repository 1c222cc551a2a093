package service

import (
	"context"
	"math"
	"testing"

	"github.com/credencehq/credence/internal/config"
	"github.com/credencehq/credence/internal/domain"
	"go.uber.org/zap"
)

func newTestCriteriaService() (*CriteriaService, *mockCriteriaStore) {
	criteria := newMockCriteriaStore()
	svc := NewCriteriaService(criteria, config.DefaultScoring(), zap.NewNop())
	return svc, criteria
}

func TestArgumentWeightGeometricMean(t *testing.T) {
	if got := ArgumentWeight(80, 80, 80); math.Abs(got-80) > 1e-9 {
		t.Errorf("uniform inputs: weight = %v, want 80", got)
	}
	// One weak input drags the whole argument down harder than an
	// arithmetic mean would.
	weak := ArgumentWeight(90, 90, 10)
	if weak >= (90+90+10)/3.0 {
		t.Errorf("weight %v should sit below the arithmetic mean", weak)
	}
	if got := ArgumentWeight(90, 90, 0); got != 0 {
		t.Errorf("zero input: weight = %v, want 0", got)
	}
}

func TestDimensionScoreNeutralAndMonotonic(t *testing.T) {
	if got := DimensionScore(0, 0, 0); got != domain.NeutralScore {
		t.Errorf("no arguments: score = %v, want neutral", got)
	}
	// Balanced weights sit at the midpoint.
	if got := DimensionScore(60, 60, 2); got != domain.NeutralScore {
		t.Errorf("balanced: score = %v, want 50", got)
	}
	low := DimensionScore(20, 0, 1)
	high := DimensionScore(80, 0, 1)
	if !(domain.NeutralScore < low && low < high && high < domain.ScoreScaleMax) {
		t.Errorf("scores not monotonic: 50 < %v < %v < 100 expected", low, high)
	}
	con := DimensionScore(0, 80, 1)
	if con >= domain.NeutralScore {
		t.Errorf("con-dominated score = %v, want below neutral", con)
	}
}

func TestCriteriaCreateStartsNeutral(t *testing.T) {
	svc, _ := newTestCriteriaService()
	c := &domain.ObjectiveCriteria{Name: "reproducibility"}
	if err := svc.Create(context.Background(), c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, d := range domain.AllCriteriaDimensions {
		if c.DimensionScore(d) != domain.NeutralScore {
			t.Errorf("dimension %s = %v, want neutral", d, c.DimensionScore(d))
		}
	}
	if c.TotalScore != domain.NeutralScore {
		t.Errorf("total = %v, want neutral", c.TotalScore)
	}

	if err := svc.Create(context.Background(), &domain.ObjectiveCriteria{}); err != ErrCriteriaNameEmpty {
		t.Errorf("err = %v, want ErrCriteriaNameEmpty", err)
	}
}

func TestAddArgumentRescoresDimension(t *testing.T) {
	svc, _ := newTestCriteriaService()
	c := &domain.ObjectiveCriteria{Name: "peer review"}
	if err := svc.Create(context.Background(), c); err != nil {
		t.Fatalf("Create: %v", err)
	}

	bd, err := svc.AddArgument(context.Background(), &domain.CriteriaArgument{
		CriteriaID:      c.ID,
		Dimension:       domain.DimensionValidity,
		Direction:       domain.CriteriaSupporting,
		Content:         "journals catch methodology errors",
		EvidenceQuality: 80,
		LogicalValidity: 80,
		Importance:      80,
	})
	if err != nil {
		t.Fatalf("AddArgument: %v", err)
	}

	var validity, linkage DimensionBreakdown
	for _, dim := range bd.Dimensions {
		switch dim.Dimension {
		case domain.DimensionValidity:
			validity = dim
		case domain.DimensionLinkage:
			linkage = dim
		}
	}
	if validity.Score <= domain.NeutralScore {
		t.Errorf("argued validity = %v, want above neutral", validity.Score)
	}
	if linkage.Score != domain.NeutralScore {
		t.Errorf("unargued linkage = %v, want neutral", linkage.Score)
	}
	if !(domain.NeutralScore < bd.TotalScore && bd.TotalScore < validity.Score) {
		t.Errorf("total %v should sit between neutral and the argued dimension %v", bd.TotalScore, validity.Score)
	}
}

func TestAddArgumentValidation(t *testing.T) {
	svc, _ := newTestCriteriaService()
	c := &domain.ObjectiveCriteria{Name: "transparency"}
	if err := svc.Create(context.Background(), c); err != nil {
		t.Fatalf("Create: %v", err)
	}

	cases := []struct {
		arg  domain.CriteriaArgument
		want error
	}{
		{domain.CriteriaArgument{CriteriaID: c.ID, Dimension: "vibes", Direction: domain.CriteriaSupporting, Content: "x", EvidenceQuality: 50, LogicalValidity: 50, Importance: 50}, ErrInvalidDimension},
		{domain.CriteriaArgument{CriteriaID: c.ID, Dimension: domain.DimensionValidity, Direction: "sideways", Content: "x", EvidenceQuality: 50, LogicalValidity: 50, Importance: 50}, ErrInvalidDirection},
		{domain.CriteriaArgument{CriteriaID: c.ID, Dimension: domain.DimensionValidity, Direction: domain.CriteriaSupporting, Content: "x", EvidenceQuality: 150, LogicalValidity: 50, Importance: 50}, ErrCriteriaInputOutOfRange},
		{domain.CriteriaArgument{CriteriaID: c.ID, Dimension: domain.DimensionValidity, Direction: domain.CriteriaSupporting, EvidenceQuality: 50, LogicalValidity: 50, Importance: 50}, ErrStatementEmpty},
	}
	for _, tc := range cases {
		if _, err := svc.AddArgument(context.Background(), &tc.arg); err != tc.want {
			t.Errorf("err = %v, want %v", err, tc.want)
		}
	}
}
