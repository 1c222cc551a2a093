package domain

import (
	"time"

	"github.com/google/uuid"
)

type LinkType string

const (
	LinkSupports LinkType = "SUPPORTS"
	LinkOpposes  LinkType = "OPPOSES"
)

func ValidLinkType(t string) bool {
	switch LinkType(t) {
	case LinkSupports, LinkOpposes:
		return true
	}
	return false
}

func (t LinkType) Sign() float64 {
	if t == LinkOpposes {
		return -1
	}
	return 1
}

// BeliefLink is a directed edge between two beliefs. Self-links are
// rejected at creation. Contribution is derived from the target belief's
// aggregate score and must be refreshed whenever that score changes.
type BeliefLink struct {
	ID           uuid.UUID `json:"id"`
	SourceID     uuid.UUID `json:"source_id"`
	TargetID     uuid.UUID `json:"target_id"`
	LinkType     LinkType  `json:"link_type"`
	LinkStrength float64   `json:"link_strength"` // [0,1]
	// TotalContribution = sign × linkStrength × target aggregate score.
	TotalContribution float64   `json:"total_contribution"`
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
}

// ContributionFor computes the link's signed contribution given the
// target belief's current aggregate score.
func (l *BeliefLink) ContributionFor(targetAggregate float64) float64 {
	return l.LinkType.Sign() * ClampUnit(l.LinkStrength) * targetAggregate
}

// NetworkMetrics is the analyzer's per-belief output.
type NetworkMetrics struct {
	BeliefID       uuid.UUID `json:"belief_id"`
	InfluenceScore float64   `json:"influence_score"`
	Centrality     float64   `json:"centrality"`
	Incoming       int       `json:"incoming"`
	Outgoing       int       `json:"outgoing"`
}
