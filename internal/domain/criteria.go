package domain

import (
	"time"

	"github.com/google/uuid"
)

// CriteriaDimension is one of the four measured aspects of an
// objective criterion.
type CriteriaDimension string

const (
	DimensionValidity     CriteriaDimension = "validity"
	DimensionReliability  CriteriaDimension = "reliability"
	DimensionIndependence CriteriaDimension = "independence"
	DimensionLinkage      CriteriaDimension = "linkage"
)

func ValidCriteriaDimension(d string) bool {
	switch CriteriaDimension(d) {
	case DimensionValidity, DimensionReliability, DimensionIndependence, DimensionLinkage:
		return true
	}
	return false
}

// AllCriteriaDimensions lists the dimensions in scoring order.
var AllCriteriaDimensions = []CriteriaDimension{
	DimensionValidity,
	DimensionReliability,
	DimensionIndependence,
	DimensionLinkage,
}

type CriteriaDirection string

const (
	CriteriaSupporting CriteriaDirection = "supporting"
	CriteriaOpposing   CriteriaDirection = "opposing"
)

func ValidCriteriaDirection(d string) bool {
	switch CriteriaDirection(d) {
	case CriteriaSupporting, CriteriaOpposing:
		return true
	}
	return false
}

// ObjectiveCriteria is a measurement standard proposed for a topic.
// Dimension scores and the total are derived from its arguments.
type ObjectiveCriteria struct {
	ID                uuid.UUID `json:"id"`
	TopicID           uuid.UUID `json:"topic_id"`
	Name              string    `json:"name"`
	Description       string    `json:"description,omitempty"`
	ValidityScore     float64   `json:"validity_score"`
	ReliabilityScore  float64   `json:"reliability_score"`
	IndependenceScore float64   `json:"independence_score"`
	LinkageScore      float64   `json:"linkage_score"`
	TotalScore        float64   `json:"total_score"`
	Version           int64     `json:"version"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// DimensionScore returns the stored score for a dimension.
func (c *ObjectiveCriteria) DimensionScore(d CriteriaDimension) float64 {
	switch d {
	case DimensionValidity:
		return c.ValidityScore
	case DimensionReliability:
		return c.ReliabilityScore
	case DimensionIndependence:
		return c.IndependenceScore
	case DimensionLinkage:
		return c.LinkageScore
	}
	return 0
}

// SetDimensionScore stores a computed score for a dimension.
func (c *ObjectiveCriteria) SetDimensionScore(d CriteriaDimension, score float64) {
	switch d {
	case DimensionValidity:
		c.ValidityScore = score
	case DimensionReliability:
		c.ReliabilityScore = score
	case DimensionIndependence:
		c.IndependenceScore = score
	case DimensionLinkage:
		c.LinkageScore = score
	}
}

// CriteriaArgument argues for or against one dimension of a criterion.
// All three quality inputs are on [0,100]; Weight is their geometric
// mean, so a single weak input drags the whole argument down.
type CriteriaArgument struct {
	ID              uuid.UUID         `json:"id"`
	CriteriaID      uuid.UUID         `json:"criteria_id"`
	Dimension       CriteriaDimension `json:"dimension"`
	Direction       CriteriaDirection `json:"direction"`
	Content         string            `json:"content"`
	EvidenceQuality float64           `json:"evidence_quality"`
	LogicalValidity float64           `json:"logical_validity"`
	Importance      float64           `json:"importance"`
	Weight          float64           `json:"weight"`
	CreatedAt       time.Time         `json:"created_at"`
}
