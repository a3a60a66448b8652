package models

import (
	"time"

	"github.com/google/uuid"
)

// DiagnosisStatus represents the lifecycle state of a diagnosis.
// The only transition is in_progress -> completed; there is no reopen.
type DiagnosisStatus string

const (
	DiagnosisInProgress DiagnosisStatus = "in_progress"
	DiagnosisCompleted  DiagnosisStatus = "completed"
)

// IsValidDiagnosisStatus checks if the given status is valid.
func IsValidDiagnosisStatus(s DiagnosisStatus) bool {
	return s == DiagnosisInProgress || s == DiagnosisCompleted
}

// Diagnosis is one assessment attempt owned by one user within one
// organization. Score fields are nil until finalization and immutable
// afterwards; they are the persisted snapshot taken at completion time.
type Diagnosis struct {
	ID                 uuid.UUID       `json:"id"`
	OrgID              uuid.UUID       `json:"org_id"`
	UserID             uuid.UUID       `json:"user_id"`
	Status             DiagnosisStatus `json:"status"`
	StartedAt          time.Time       `json:"started_at"`
	CompletedAt        *time.Time      `json:"completed_at,omitempty"`
	OverallScore       *float64        `json:"overall_score,omitempty"`
	EnvironmentalScore *float64        `json:"environmental_score,omitempty"`
	SocialScore        *float64        `json:"social_score,omitempty"`
	GovernanceScore    *float64        `json:"governance_score,omitempty"`
}

// IsInProgress reports whether the diagnosis can still be mutated.
func (d *Diagnosis) IsInProgress() bool {
	return d.Status == DiagnosisInProgress
}

// IsCompleted reports whether the diagnosis has been finalized.
func (d *Diagnosis) IsCompleted() bool {
	return d.Status == DiagnosisCompleted
}
