package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/esgdiag/esg-engine/pkg/apperrors"
	"github.com/esgdiag/esg-engine/pkg/database"
	"github.com/esgdiag/esg-engine/pkg/models"
)

// CertificateRepository provides data access for issued certificates.
type CertificateRepository interface {
	// Create inserts a newly issued certificate.
	Create(ctx context.Context, cert *models.Certificate) error

	// GetByDiagnosis retrieves the certificate issued for a diagnosis.
	// Returns apperrors.ErrNotFound if none has been issued.
	GetByDiagnosis(ctx context.Context, diagnosisID uuid.UUID) (*models.Certificate, error)
}

type certificateRepository struct{}

// NewCertificateRepository creates a new CertificateRepository.
func NewCertificateRepository() CertificateRepository {
	return &certificateRepository{}
}

var _ CertificateRepository = (*certificateRepository)(nil)

func (r *certificateRepository) Create(ctx context.Context, cert *models.Certificate) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	if cert.ID == uuid.Nil {
		cert.ID = uuid.New()
	}

	query := `
		INSERT INTO esg_certificates (
			id, org_id, diagnosis_id, certificate_number,
			level, score, issued_at, expires_at, is_valid
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := scope.Conn.Exec(ctx, query,
		cert.ID, cert.OrgID, cert.DiagnosisID, cert.CertificateNumber,
		cert.Level, cert.Score, cert.IssuedAt, cert.ExpiresAt, cert.IsValid,
	)
	if err != nil {
		return fmt.Errorf("insert certificate: %w", err)
	}

	return nil
}

func (r *certificateRepository) GetByDiagnosis(ctx context.Context, diagnosisID uuid.UUID) (*models.Certificate, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `
		SELECT id, org_id, diagnosis_id, certificate_number,
		       level, score, issued_at, expires_at, is_valid
		FROM esg_certificates
		WHERE diagnosis_id = $1`

	var c models.Certificate
	err := scope.Conn.QueryRow(ctx, query, diagnosisID).Scan(
		&c.ID, &c.OrgID, &c.DiagnosisID, &c.CertificateNumber,
		&c.Level, &c.Score, &c.IssuedAt, &c.ExpiresAt, &c.IsValid,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get certificate by diagnosis: %w", err)
	}
	return &c, nil
}
