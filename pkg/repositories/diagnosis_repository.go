package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/esgdiag/esg-engine/pkg/apperrors"
	"github.com/esgdiag/esg-engine/pkg/database"
	"github.com/esgdiag/esg-engine/pkg/models"
	"github.com/esgdiag/esg-engine/pkg/scoring"
)

// DiagnosisRepository provides data access for diagnoses.
type DiagnosisRepository interface {
	// Create inserts a new in-progress diagnosis.
	Create(ctx context.Context, diagnosis *models.Diagnosis) error

	// GetByID retrieves a diagnosis by ID. Returns apperrors.ErrNotFound
	// if it does not exist (or belongs to another tenant).
	GetByID(ctx context.Context, id uuid.UUID) (*models.Diagnosis, error)

	// ListByUser returns a user's diagnoses, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Diagnosis, error)

	// HasInProgress reports whether the user already has an in-progress diagnosis.
	HasInProgress(ctx context.Context, userID uuid.UUID) (bool, error)

	// CountByOrg returns the number of diagnoses ever started in the organization.
	CountByOrg(ctx context.Context) (int, error)

	// Finalize persists the score snapshot and transitions the diagnosis to
	// completed. The update is conditional on status still being
	// in_progress so that concurrent finalize calls have a single winner;
	// the loser receives apperrors.ErrInvalidState.
	Finalize(ctx context.Context, id uuid.UUID, scores scoring.Scores, completedAt time.Time) error
}

type diagnosisRepository struct{}

// NewDiagnosisRepository creates a new DiagnosisRepository.
func NewDiagnosisRepository() DiagnosisRepository {
	return &diagnosisRepository{}
}

var _ DiagnosisRepository = (*diagnosisRepository)(nil)

func (r *diagnosisRepository) Create(ctx context.Context, diagnosis *models.Diagnosis) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	if diagnosis.ID == uuid.Nil {
		diagnosis.ID = uuid.New()
	}
	if diagnosis.Status == "" {
		diagnosis.Status = models.DiagnosisInProgress
	}
	if diagnosis.StartedAt.IsZero() {
		diagnosis.StartedAt = time.Now()
	}

	query := `
		INSERT INTO esg_diagnoses (id, org_id, user_id, status, started_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := scope.Conn.Exec(ctx, query,
		diagnosis.ID, diagnosis.OrgID, diagnosis.UserID,
		string(diagnosis.Status), diagnosis.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("insert diagnosis: %w", err)
	}

	return nil
}

func (r *diagnosisRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Diagnosis, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `
		SELECT id, org_id, user_id, status, started_at, completed_at,
		       overall_score, environmental_score, social_score, governance_score
		FROM esg_diagnoses
		WHERE id = $1`

	d, err := scanDiagnosisRow(scope.Conn.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get diagnosis by id: %w", err)
	}
	return d, nil
}

func (r *diagnosisRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Diagnosis, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `
		SELECT id, org_id, user_id, status, started_at, completed_at,
		       overall_score, environmental_score, social_score, governance_score
		FROM esg_diagnoses
		WHERE user_id = $1
		ORDER BY started_at DESC`

	rows, err := scope.Conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list diagnoses: %w", err)
	}
	defer rows.Close()

	diagnoses := make([]*models.Diagnosis, 0)
	for rows.Next() {
		d, err := scanDiagnosisRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan diagnosis: %w", err)
		}
		diagnoses = append(diagnoses, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diagnoses: %w", err)
	}

	return diagnoses, nil
}

func (r *diagnosisRepository) HasInProgress(ctx context.Context, userID uuid.UUID) (bool, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return false, fmt.Errorf("no tenant scope in context")
	}

	var exists bool
	err := scope.Conn.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM esg_diagnoses
			WHERE user_id = $1 AND status = 'in_progress'
		)`, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check in-progress diagnosis: %w", err)
	}
	return exists, nil
}

func (r *diagnosisRepository) CountByOrg(ctx context.Context) (int, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return 0, fmt.Errorf("no tenant scope in context")
	}

	// RLS scopes the table to the current org.
	var count int
	err := scope.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM esg_diagnoses`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count diagnoses: %w", err)
	}
	return count, nil
}

func (r *diagnosisRepository) Finalize(ctx context.Context, id uuid.UUID, scores scoring.Scores, completedAt time.Time) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `
		UPDATE esg_diagnoses
		SET status = 'completed', completed_at = $2,
		    overall_score = $3, environmental_score = $4,
		    social_score = $5, governance_score = $6
		WHERE id = $1 AND status = 'in_progress'`

	result, err := scope.Conn.Exec(ctx, query, id, completedAt,
		scores.Overall, scores.Environmental, scores.Social, scores.Governance)
	if err != nil {
		return fmt.Errorf("finalize diagnosis: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Either already completed or missing; disambiguate for the caller.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return apperrors.ErrInvalidState
	}

	return nil
}

func scanDiagnosisRow(row pgx.Row) (*models.Diagnosis, error) {
	var d models.Diagnosis
	var status string

	err := row.Scan(
		&d.ID, &d.OrgID, &d.UserID, &status, &d.StartedAt, &d.CompletedAt,
		&d.OverallScore, &d.EnvironmentalScore, &d.SocialScore, &d.GovernanceScore,
	)
	if err != nil {
		return nil, err
	}

	d.Status = models.DiagnosisStatus(status)
	return &d, nil
}
