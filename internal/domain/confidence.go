package domain

import (
	"time"

	"github.com/google/uuid"
)

// ScoreHistoryLimit bounds the per-belief confidence history log.
// Oldest entries are trimmed; the log is ordered most-recent-first.
const ScoreHistoryLimit = 90

type ConfidenceLevel string

const (
	ConfidenceLow      ConfidenceLevel = "low"
	ConfidenceModerate ConfidenceLevel = "moderate"
	ConfidenceHigh     ConfidenceLevel = "high"
)

// ConfidenceLevelFor maps a CI score on the engine scale to its level.
func ConfidenceLevelFor(ciScore float64) ConfidenceLevel {
	switch {
	case ciScore >= 85:
		return ConfidenceHigh
	case ciScore >= 50:
		return ConfidenceModerate
	default:
		return ConfidenceLow
	}
}

// KnowabilityCategory describes how empirically resolvable a belief's
// truth is, independent of how much evidence it currently has.
type KnowabilityCategory string

const (
	KnowabilityEmpirical     KnowabilityCategory = "empirical"
	KnowabilityInferential   KnowabilityCategory = "inferential"
	KnowabilitySpeculative   KnowabilityCategory = "speculative"
	KnowabilityUnfalsifiable KnowabilityCategory = "unfalsifiable"
)

func ValidKnowabilityCategory(c string) bool {
	switch KnowabilityCategory(c) {
	case KnowabilityEmpirical, KnowabilityInferential, KnowabilitySpeculative, KnowabilityUnfalsifiable:
		return true
	}
	return false
}

// Factor is one of the four independently-scored confidence inputs.
// Score is on [0,1]; weights across the four factors sum to 1.
type Factor struct {
	Score  float64 `json:"score"`
	Weight float64 `json:"weight"`
}

// KnowabilityFactor carries the category and the confidence ceiling it
// imposes. The cap applies regardless of the other factors: some topics
// stay uncertain no matter how much support they accumulate.
type KnowabilityFactor struct {
	Factor
	Category KnowabilityCategory `json:"category"`
	MaxCICap float64             `json:"max_ci_cap"`
}

type ScorePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Score     float64   `json:"score"`
}

type ConfidenceInterval struct {
	BeliefID            uuid.UUID         `json:"belief_id"`
	UserExamination     Factor            `json:"user_examination"`
	ScoreStability      Factor            `json:"score_stability"`
	Knowability         KnowabilityFactor `json:"knowability"`
	ChallengeResistance Factor            `json:"challenge_resistance"`
	CIScore             float64           `json:"ci_score"`
	Level               ConfidenceLevel   `json:"confidence_level"`
	// ScoreHistory is most-recent-first and bounded to ScoreHistoryLimit.
	ScoreHistory []ScorePoint `json:"score_history"`
	Version      int64        `json:"version"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// ChallengeEventType classifies the explicit negative/positive signals
// consumed by the challenge-resistance factor.
type ChallengeEventType string

const (
	// ChallengeSurvived: the belief was challenged and its score held.
	ChallengeSurvived ChallengeEventType = "challenge_survived"
	// ChallengeUpheld: the challenge actually changed the score.
	ChallengeUpheld ChallengeEventType = "challenge_upheld"
	// ExpertReview: an expert reviewed the belief's argument tree.
	ExpertReview ChallengeEventType = "expert_review"
	// RedundancyFlag: an attached argument was flagged as a near-duplicate.
	RedundancyFlag ChallengeEventType = "redundancy_flag"
)

func ValidChallengeEventType(t string) bool {
	switch ChallengeEventType(t) {
	case ChallengeSurvived, ChallengeUpheld, ExpertReview, RedundancyFlag:
		return true
	}
	return false
}

type ChallengeEvent struct {
	ID         uuid.UUID          `json:"id"`
	BeliefID   uuid.UUID          `json:"belief_id"`
	Type       ChallengeEventType `json:"type"`
	ScoreDelta float64            `json:"score_delta,omitempty"`
	Notes      string             `json:"notes,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}
