package models

import (
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// Importance
// ============================================================================

// Importance is the user-assigned weight of a question for their business.
// It is collected and stored but does not enter the score aggregate; it
// drives the priority-gap ordering in the action plan.
type Importance string

const (
	ImportanceNone      Importance = "none"
	ImportanceImportant Importance = "important"
	ImportanceVery      Importance = "very_important"
	ImportanceCritical  Importance = "critical"
)

// ValidImportances contains all valid importance values in ordinal order.
var ValidImportances = []Importance{
	ImportanceNone,
	ImportanceImportant,
	ImportanceVery,
	ImportanceCritical,
}

// IsValidImportance checks if the given importance is valid.
func IsValidImportance(i Importance) bool {
	for _, v := range ValidImportances {
		if v == i {
			return true
		}
	}
	return false
}

// Ordinal returns the 0-3 ordinal of the importance level.
func (i Importance) Ordinal() int {
	switch i {
	case ImportanceNone:
		return 0
	case ImportanceImportant:
		return 1
	case ImportanceVery:
		return 2
	case ImportanceCritical:
		return 3
	}
	return 0
}

// ============================================================================
// Evaluation
// ============================================================================

// Evaluation is the user's assessment of how well a practice is performed.
// Five levels; EvaluationNotApplicable is a sentinel excluded from scoring
// entirely (it contributes to neither numerator nor denominator).
type Evaluation string

const (
	EvaluationNotApplicable Evaluation = "not_applicable"
	EvaluationNotDone       Evaluation = "not_done"
	EvaluationPoorlyDone    Evaluation = "poorly_done"
	EvaluationDone          Evaluation = "done"
	EvaluationWellDone      Evaluation = "well_done"
)

// ValidEvaluations contains all valid evaluation values in ordinal order.
var ValidEvaluations = []Evaluation{
	EvaluationNotApplicable,
	EvaluationNotDone,
	EvaluationPoorlyDone,
	EvaluationDone,
	EvaluationWellDone,
}

// EvaluationMaxOrdinal is the highest scored ordinal (well_done).
const EvaluationMaxOrdinal = 4

// IsValidEvaluation checks if the given evaluation is valid.
func IsValidEvaluation(e Evaluation) bool {
	for _, v := range ValidEvaluations {
		if v == e {
			return true
		}
	}
	return false
}

// IsScored reports whether the evaluation contributes to scoring.
func (e Evaluation) IsScored() bool {
	return e != EvaluationNotApplicable && IsValidEvaluation(e)
}

// Ordinal returns the scored ordinal value of the evaluation (1-4).
// The second return is false for the not-applicable sentinel and for
// unknown values, which carry no ordinal.
func (e Evaluation) Ordinal() (int, bool) {
	switch e {
	case EvaluationNotDone:
		return 1, true
	case EvaluationPoorlyDone:
		return 2, true
	case EvaluationDone:
		return 3, true
	case EvaluationWellDone:
		return 4, true
	}
	return 0, false
}

// ============================================================================
// Response
// ============================================================================

// Response is the user-supplied answer to one question within one diagnosis.
// At most one response exists per (diagnosis, question) pair; writes are
// upserts with last-write-wins semantics.
type Response struct {
	ID           uuid.UUID  `json:"id"`
	DiagnosisID  uuid.UUID  `json:"diagnosis_id"`
	QuestionID   uuid.UUID  `json:"question_id"`
	PillarCode   PillarCode `json:"pillar_code"` // denormalized from the question at write time
	Importance   Importance `json:"importance"`
	Evaluation   Evaluation `json:"evaluation"`
	Observations string     `json:"observations,omitempty"` // free text, not used in scoring
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
