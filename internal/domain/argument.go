package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Side is the direction an argument pushes its parent belief.
type Side string

const (
	SidePro Side = "pro"
	SideCon Side = "con"
)

func ValidSide(s string) bool {
	switch Side(s) {
	case SidePro, SideCon:
		return true
	}
	return false
}

func (s Side) Sign() float64 {
	if s == SideCon {
		return -1
	}
	return 1
}

// Argument attaches a child belief to a parent belief as a pro or con
// reason. TruthScore is on [0,100] and is only consulted when the child
// belief has no scored sub-structure of its own; linkage and importance
// are on [0,1].
type Argument struct {
	ID              uuid.UUID `json:"id"`
	ParentBeliefID  uuid.UUID `json:"parent_belief_id"`
	ChildBeliefID   uuid.UUID `json:"child_belief_id"`
	Side            Side      `json:"side"`
	Statement       string    `json:"statement"`
	TruthScore      float64   `json:"truth_score"`
	LinkageScore    float64   `json:"linkage_score"`
	ImportanceScore float64   `json:"importance_score"`
	// ImpactScore is the cached signed contribution from the last
	// recompute; the scorer always rederives it.
	ImpactScore float64 `json:"impact_score"`
	// EquivalencyScore is the highest similarity found against any
	// sibling on the same side. RedundantOfID points at the sibling that
	// owns the full weight.
	EquivalencyScore float64    `json:"equivalency_score"`
	RedundantOfID    *uuid.UUID `json:"redundant_of_id,omitempty"`
	CertifyingAgent  string     `json:"certifying_agent,omitempty"`
	Archived         bool       `json:"archived"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Impact is the argument's signed contribution to its parent given an
// effective truth score: sign × round(truth × linkage × importance).
// Rounding happens per argument, before summation.
func (a *Argument) Impact(truth float64) float64 {
	t := ClampScore(truth)
	return a.Side.Sign() * math.Round(t*ClampUnit(a.LinkageScore)*ClampUnit(a.ImportanceScore))
}
