package models

import (
	"github.com/google/uuid"
)

// ============================================================================
// Pillars
// ============================================================================

// PillarCode identifies one of the three ESG pillars.
type PillarCode string

const (
	PillarEnvironmental PillarCode = "E"
	PillarSocial        PillarCode = "S"
	PillarGovernance    PillarCode = "G"
)

// PillarCodes lists the three pillars in canonical display order.
var PillarCodes = []PillarCode{PillarEnvironmental, PillarSocial, PillarGovernance}

// IsValidPillarCode checks if the given code is one of the three pillars.
func IsValidPillarCode(c PillarCode) bool {
	switch c {
	case PillarEnvironmental, PillarSocial, PillarGovernance:
		return true
	}
	return false
}

// DisplayName returns the human-readable pillar name.
func (c PillarCode) DisplayName() string {
	switch c {
	case PillarEnvironmental:
		return "Environmental"
	case PillarSocial:
		return "Social"
	case PillarGovernance:
		return "Governance"
	}
	return string(c)
}

// Pillar is immutable reference data for one ESG pillar.
// All three pillars carry equal weight in the overall score.
type Pillar struct {
	Code         PillarCode `json:"code"`
	Name         string     `json:"name"`
	DisplayOrder int        `json:"display_order"`
}

// ============================================================================
// Catalog hierarchy
// ============================================================================

// Theme is a named grouping of criteria under one pillar.
// Ordering matters for display, not for scoring.
type Theme struct {
	ID           uuid.UUID  `json:"id"`
	PillarCode   PillarCode `json:"pillar_code"`
	Name         string     `json:"name"`
	DisplayOrder int        `json:"display_order"`
}

// Criteria is a named grouping of questions under one theme.
type Criteria struct {
	ID           uuid.UUID `json:"id"`
	ThemeID      uuid.UUID `json:"theme_id"`
	Name         string    `json:"name"`
	DisplayOrder int       `json:"display_order"`
}

// Question is a single ESG assessment question belonging to exactly one
// criteria. Immutable once seeded.
type Question struct {
	ID           uuid.UUID  `json:"id"`
	CriteriaID   uuid.UUID  `json:"criteria_id"`
	PillarCode   PillarCode `json:"pillar_code"` // denormalized to avoid joins on the scoring path
	Text         string     `json:"text"`
	DisplayOrder int        `json:"display_order"`
}

// Questionnaire is the full catalog tree used for rendering and for the
// scoring denominator (questions per pillar).
type Questionnaire struct {
	Pillars   []Pillar   `json:"pillars"`
	Themes    []Theme    `json:"themes"`
	Criteria  []Criteria `json:"criteria"`
	Questions []Question `json:"questions"`
}

// QuestionCountByPillar returns the number of questions per pillar.
func (q *Questionnaire) QuestionCountByPillar() map[PillarCode]int {
	counts := make(map[PillarCode]int, len(PillarCodes))
	for _, question := range q.Questions {
		counts[question.PillarCode]++
	}
	return counts
}
