package models

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CertificateValidityMonths is how long an issued certificate remains valid.
const CertificateValidityMonths = 12

// Certificate is the persisted document issued when a diagnosis is
// finalized. The live certification tier shown during an assessment is
// computed on demand and is not stored; this record exists for the
// downloadable certificate and its validity window.
type Certificate struct {
	ID                uuid.UUID `json:"id"`
	OrgID             uuid.UUID `json:"org_id"`
	DiagnosisID       uuid.UUID `json:"diagnosis_id"`
	CertificateNumber string    `json:"certificate_number"`
	Level             string    `json:"level"` // bronze, silver, gold
	Score             float64   `json:"score"`
	IssuedAt          time.Time `json:"issued_at"`
	ExpiresAt         time.Time `json:"expires_at"`
	IsValid           bool      `json:"is_valid"`
}

// NewCertificateNumber generates a certificate number of the form
// ESG-<year>-<8 hex chars>.
func NewCertificateNumber(issuedAt time.Time) string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("ESG-%d-%s", issuedAt.Year(), hex.EncodeToString(buf))
}

// IsExpired reports whether the certificate validity window has passed.
func (c *Certificate) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
