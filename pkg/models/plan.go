package models

import (
	"time"

	"github.com/google/uuid"
)

// Plan identifiers. Plan provisioning (billing, upgrades) is handled by the
// external subscription system; this service only reads the entitlement.
const (
	PlanFree    = "free"
	PlanPro     = "pro"
	PlanPremium = "premium"
)

// FreePlanDiagnosisLimit is the diagnosis limit assumed when an
// organization has no plan row.
const FreePlanDiagnosisLimit = 1

// OrgPlan is an organization's subscription entitlement.
// MaxDiagnoses of 0 means unlimited.
type OrgPlan struct {
	OrgID        uuid.UUID `json:"org_id"`
	Plan         string    `json:"plan"`
	MaxDiagnoses int       `json:"max_diagnoses"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AllowsDiagnosis reports whether a new diagnosis may be started given the
// number already used.
func (p *OrgPlan) AllowsDiagnosis(used int) bool {
	return p.MaxDiagnoses == 0 || used < p.MaxDiagnoses
}
