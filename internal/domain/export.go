package domain

import (
	"time"

	"github.com/google/uuid"
)

// BeliefExport is the documented interchange record for a belief's full
// scored graph. Field names and ordering are stable: consumers depend on
// pro arguments preceding con arguments and on history being
// most-recent-first. Do not reorder or rename fields.
type BeliefExport struct {
	ID            uuid.UUID            `json:"id"`
	Statement     string               `json:"statement"`
	Status        BeliefStatus         `json:"status"`
	Aggregate     float64              `json:"aggregate_score"`
	Confidence    ConfidenceExport     `json:"confidence"`
	ProArguments  []ArgumentExport     `json:"pro_arguments"`
	ConArguments  []ArgumentExport     `json:"con_arguments"`
	Evidence      []EvidenceExport     `json:"evidence"`
	StudyStances  []StanceExport       `json:"study_stances,omitempty"`
	RecentHistory []HistoryEntryExport `json:"recent_history"`
	ExportedAt    time.Time            `json:"exported_at"`
}

type ConfidenceExport struct {
	CIScore             float64       `json:"ci_score"`
	Level               string        `json:"confidence_level"`
	UserExamination     FactorExport  `json:"user_examination"`
	ScoreStability      FactorExport  `json:"score_stability"`
	Knowability         FactorExport  `json:"knowability"`
	ChallengeResistance FactorExport  `json:"challenge_resistance"`
	KnowabilityCategory string        `json:"knowability_category"`
	MaxCICap            float64       `json:"max_ci_cap"`
}

type FactorExport struct {
	Score  float64 `json:"score"`
	Weight float64 `json:"weight"`
}

type ArgumentExport struct {
	ID              uuid.UUID `json:"id"`
	Statement       string    `json:"statement"`
	Side            Side      `json:"side"`
	TruthScore      float64   `json:"truth_score"`
	LinkageScore    float64   `json:"linkage_score"`
	ImportanceScore float64   `json:"importance_score"`
	ImpactScore     float64   `json:"impact_score"`
	CertifyingAgent string    `json:"certifying_agent,omitempty"`
	Archived        bool      `json:"archived,omitempty"`
}

type EvidenceExport struct {
	ID      uuid.UUID    `json:"id"`
	Tier    EvidenceTier `json:"tier"`
	Linkage float64      `json:"linkage"`
	Title   string       `json:"title"`
	Side    EvidenceSide `json:"side"`
}

type StanceExport struct {
	StudyID        uuid.UUID      `json:"study_id"`
	Title          string         `json:"title"`
	Position       StancePosition `json:"position"`
	StanceStrength float64        `json:"stance_strength"`
	Authority      float64        `json:"authority"`
}

type HistoryEntryExport struct {
	Timestamp time.Time `json:"timestamp"`
	Score     float64   `json:"score"`
}
