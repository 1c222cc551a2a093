package domain

import (
	"time"

	"github.com/google/uuid"
)

// CitationMetrics holds both directions of the citation graph for a
// study. CitedBy is the denormalized inverse of References: the two
// lists are only ever mutated together by StudyStore.AddReference.
type CitationMetrics struct {
	References    []uuid.UUID `json:"references"`
	CitedBy       []uuid.UUID `json:"cited_by"`
	CitationCount int         `json:"citation_count"`
}

// StudyNetworkMetrics holds the authority score computed by the
// citation ranker.
type StudyNetworkMetrics struct {
	PageRankScore float64 `json:"page_rank_score"`
}

// ReplicationInfo tracks replication attempts independently of the
// citation score.
type ReplicationInfo struct {
	Attempts  int `json:"attempts"`
	Successes int `json:"successes"`
	Failures  int `json:"failures"`
}

type Study struct {
	ID              uuid.UUID           `json:"id"`
	Title           string              `json:"title"`
	DOI             string              `json:"doi,omitempty"`
	CitationMetrics CitationMetrics     `json:"citation_metrics"`
	NetworkMetrics  StudyNetworkMetrics `json:"network_metrics"`
	ReplicationInfo ReplicationInfo     `json:"replication_info"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

type StancePosition string

const (
	StanceSupporting   StancePosition = "supporting"
	StanceOpposing     StancePosition = "opposing"
	StanceNeutral      StancePosition = "neutral"
	StanceInconclusive StancePosition = "inconclusive"
)

func ValidStancePosition(p string) bool {
	switch StancePosition(p) {
	case StanceSupporting, StanceOpposing, StanceNeutral, StanceInconclusive:
		return true
	}
	return false
}

// StudyStance is a study's position on a belief. StanceStrength is
// derived as relevance × evidence quality.
type StudyStance struct {
	ID              uuid.UUID      `json:"id"`
	StudyID         uuid.UUID      `json:"study_id"`
	BeliefID        uuid.UUID      `json:"belief_id"`
	Position        StancePosition `json:"position"`
	Relevance       float64        `json:"relevance"`        // [0,1]
	EvidenceQuality float64        `json:"evidence_quality"` // [0,1]
	StanceStrength  float64        `json:"stance_strength"`
	CreatedAt       time.Time      `json:"created_at"`
}

// ComputeStanceStrength derives the stance strength from its inputs.
func (s *StudyStance) ComputeStanceStrength() float64 {
	return ClampUnit(s.Relevance) * ClampUnit(s.EvidenceQuality)
}
