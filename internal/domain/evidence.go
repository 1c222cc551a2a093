package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type EvidenceSide string

const (
	EvidenceSupporting EvidenceSide = "supporting"
	EvidenceWeakening  EvidenceSide = "weakening"
)

func ValidEvidenceSide(s string) bool {
	switch EvidenceSide(s) {
	case EvidenceSupporting, EvidenceWeakening:
		return true
	}
	return false
}

func (s EvidenceSide) Sign() float64 {
	if s == EvidenceWeakening {
		return -1
	}
	return 1
}

// EvidenceTier ranks evidentiary quality from peer-reviewed/official
// record (T1) down to anecdote (T4).
type EvidenceTier string

const (
	TierT1 EvidenceTier = "T1"
	TierT2 EvidenceTier = "T2"
	TierT3 EvidenceTier = "T3"
	TierT4 EvidenceTier = "T4"
)

func ValidEvidenceTier(t string) bool {
	switch EvidenceTier(t) {
	case TierT1, TierT2, TierT3, TierT4:
		return true
	}
	return false
}

// BaseScore is the tier's starting score on the engine scale before
// independence and replication adjustments.
func (t EvidenceTier) BaseScore() float64 {
	switch t {
	case TierT1:
		return 90
	case TierT2:
		return 70
	case TierT3:
		return 50
	case TierT4:
		return 30
	default:
		return 30
	}
}

// HighTier reports whether the tier counts toward the knowability
// assessment's high-quality share (T1/T2 vs T3/T4).
func (t EvidenceTier) HighTier() bool {
	return t == TierT1 || t == TierT2
}

type Evidence struct {
	ID                       uuid.UUID    `json:"id"`
	BeliefID                 uuid.UUID    `json:"belief_id"`
	Side                     EvidenceSide `json:"side"`
	Tier                     EvidenceTier `json:"tier"`
	Title                    string       `json:"title"`
	SourceURL                string       `json:"source_url,omitempty"`
	SourceIndependenceWeight float64      `json:"source_independence_weight"` // [0,1]
	ReplicationQuantity      int          `json:"replication_quantity"`
	ReplicationPercentage    float64      `json:"replication_percentage"` // [0,100]
	ConclusionRelevance      float64      `json:"conclusion_relevance"`   // [0,1], evidence linkage
	CreatedAt                time.Time    `json:"created_at"`
}

// Score is the evidence's unsigned strength: tier base scaled by source
// independence, boosted up to 25% by successful replication.
func (e *Evidence) Score() float64 {
	replications := e.ReplicationQuantity
	if replications > 5 {
		replications = 5
	}
	boost := 1 + 0.05*float64(replications)*ClampUnit(e.ReplicationPercentage/100)
	return e.Tier.BaseScore() * ClampUnit(e.SourceIndependenceWeight) * boost
}

// Contribution is the signed, rounded amount the evidence adds to its
// belief's aggregate: sign × round(score × linkage).
func (e *Evidence) Contribution() float64 {
	return e.Side.Sign() * math.Round(e.Score()*ClampUnit(e.ConclusionRelevance))
}
