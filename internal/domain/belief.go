package domain

import (
	"time"

	"github.com/google/uuid"
)

// Engine score scale. Every aggregate and confidence score lives on [0,100];
// a belief nobody has argued about sits at the neutral midpoint.
const (
	ScoreScaleMax = 100.0
	ScoreScaleMin = 0.0
	NeutralScore  = 50.0
)

type BeliefStatus string

const (
	BeliefProposed BeliefStatus = "proposed"
	BeliefAccepted BeliefStatus = "accepted"
	BeliefRejected BeliefStatus = "rejected"
	BeliefDebated  BeliefStatus = "debated"
	BeliefArchived BeliefStatus = "archived"
)

func ValidBeliefStatus(s string) bool {
	switch BeliefStatus(s) {
	case BeliefProposed, BeliefAccepted, BeliefRejected, BeliefDebated, BeliefArchived:
		return true
	}
	return false
}

// Dimensions are independent scalar attributes of a belief statement.
// They are set on creation and are not derived from arguments.
type Dimensions struct {
	Specificity float64 `json:"specificity"`
	Sentiment   float64 `json:"sentiment"`
}

// LinkStatistics is a derived snapshot of a belief's position in the
// SUPPORTS/OPPOSES link graph. Recomputed by the network analyzer.
type LinkStatistics struct {
	Incoming       int     `json:"incoming"`
	Outgoing       int     `json:"outgoing"`
	InfluenceScore float64 `json:"influence_score"`
	Centrality     float64 `json:"centrality"`
}

type Belief struct {
	ID             uuid.UUID      `json:"id"`
	Statement      string         `json:"statement"`
	Status         BeliefStatus   `json:"status"`
	AggregateScore float64        `json:"aggregate_score"`
	Dimensions     Dimensions     `json:"dimensions"`
	LinkStats      LinkStatistics `json:"link_stats"`
	Author         string         `json:"author,omitempty"`
	Embedding      []float32      `json:"-"`
	// Version guards read-modify-write of derived scores. Every score
	// update must carry the version it read; a mismatch is a conflict.
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type BeliefWithScore struct {
	Belief
	Similarity float64 `json:"similarity"`
}

// ClampScore bounds a value to the engine score scale.
func ClampScore(v float64) float64 {
	if v < ScoreScaleMin {
		return ScoreScaleMin
	}
	if v > ScoreScaleMax {
		return ScoreScaleMax
	}
	return v
}

// ClampUnit bounds a value to [0,1].
func ClampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
