package domain

import "testing"

func TestEvidenceTierBaseScores(t *testing.T) {
	cases := []struct {
		tier EvidenceTier
		want float64
	}{
		{TierT1, 90},
		{TierT2, 70},
		{TierT3, 50},
		{TierT4, 30},
	}
	for _, tc := range cases {
		if got := tc.tier.BaseScore(); got != tc.want {
			t.Errorf("%s base = %v, want %v", tc.tier, got, tc.want)
		}
	}
	if !TierT1.HighTier() || !TierT2.HighTier() {
		t.Error("T1/T2 should be high tier")
	}
	if TierT3.HighTier() || TierT4.HighTier() {
		t.Error("T3/T4 should not be high tier")
	}
}

func TestEvidenceScoreReplicationBoost(t *testing.T) {
	e := Evidence{
		Tier:                     TierT2,
		SourceIndependenceWeight: 1.0,
		ReplicationQuantity:      2,
		ReplicationPercentage:    100,
	}
	// 70 × (1 + 0.05×2) = 77.
	if got := e.Score(); got != 77 {
		t.Errorf("score = %v, want 77", got)
	}

	// Boost saturates at five replications.
	e.ReplicationQuantity = 50
	if got := e.Score(); got != 87.5 {
		t.Errorf("saturated score = %v, want 87.5", got)
	}
}

func TestEvidenceContributionSigned(t *testing.T) {
	e := Evidence{
		Side:                     EvidenceWeakening,
		Tier:                     TierT1,
		SourceIndependenceWeight: 1.0,
		ConclusionRelevance:      0.5,
	}
	if got := e.Contribution(); got != -45 {
		t.Errorf("contribution = %v, want -45", got)
	}
	e.Side = EvidenceSupporting
	if got := e.Contribution(); got != 45 {
		t.Errorf("contribution = %v, want 45", got)
	}
}

func TestArgumentImpactRounding(t *testing.T) {
	a := Argument{Side: SidePro, LinkageScore: 0.8, ImportanceScore: 1.0}
	if got := a.Impact(90); got != 72 {
		t.Errorf("impact = %v, want 72", got)
	}
	a.Side = SideCon
	a.LinkageScore = 0.6
	if got := a.Impact(70); got != -42 {
		t.Errorf("impact = %v, want -42", got)
	}
	// Out-of-range truth is clamped, not propagated.
	a.Side = SidePro
	a.LinkageScore = 1.0
	if got := a.Impact(250); got != 100 {
		t.Errorf("impact = %v, want 100", got)
	}
}
