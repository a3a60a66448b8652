package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/esgdiag/esg-engine/pkg/database"
	"github.com/esgdiag/esg-engine/pkg/models"
)

// ResponseRepository provides data access for diagnosis responses.
// Writes are upserts keyed on (diagnosis_id, question_id) with
// last-write-wins semantics.
type ResponseRepository interface {
	// Upsert inserts or replaces the response for the (diagnosis, question) pair.
	Upsert(ctx context.Context, response *models.Response) error

	// ListByDiagnosis returns all responses for a diagnosis in question display order.
	ListByDiagnosis(ctx context.Context, diagnosisID uuid.UUID) ([]*models.Response, error)

	// CountByDiagnosis returns the number of responses recorded for a diagnosis.
	CountByDiagnosis(ctx context.Context, diagnosisID uuid.UUID) (int, error)
}

type responseRepository struct{}

// NewResponseRepository creates a new ResponseRepository.
func NewResponseRepository() ResponseRepository {
	return &responseRepository{}
}

var _ ResponseRepository = (*responseRepository)(nil)

func (r *responseRepository) Upsert(ctx context.Context, response *models.Response) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	now := time.Now()
	if response.ID == uuid.Nil {
		response.ID = uuid.New()
	}
	if response.CreatedAt.IsZero() {
		response.CreatedAt = now
	}
	response.UpdatedAt = now

	query := `
		INSERT INTO esg_responses (
			id, diagnosis_id, question_id, pillar_code,
			importance, evaluation, observations, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (diagnosis_id, question_id) DO UPDATE SET
			pillar_code = $4, importance = $5, evaluation = $6,
			observations = $7, updated_at = $9`

	_, err := scope.Conn.Exec(ctx, query,
		response.ID, response.DiagnosisID, response.QuestionID, string(response.PillarCode),
		string(response.Importance), string(response.Evaluation),
		nullableString(response.Observations), response.CreatedAt, response.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert response: %w", err)
	}

	return nil
}

func (r *responseRepository) ListByDiagnosis(ctx context.Context, diagnosisID uuid.UUID) ([]*models.Response, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `
		SELECT r.id, r.diagnosis_id, r.question_id, r.pillar_code,
		       r.importance, r.evaluation, r.observations, r.created_at, r.updated_at
		FROM esg_responses r
		JOIN esg_questions q ON q.id = r.question_id
		WHERE r.diagnosis_id = $1
		ORDER BY q.display_order ASC`

	rows, err := scope.Conn.Query(ctx, query, diagnosisID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	responses := make([]*models.Response, 0)
	for rows.Next() {
		var resp models.Response
		var observations *string
		err := rows.Scan(
			&resp.ID, &resp.DiagnosisID, &resp.QuestionID, &resp.PillarCode,
			&resp.Importance, &resp.Evaluation, &observations, &resp.CreatedAt, &resp.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		if observations != nil {
			resp.Observations = *observations
		}
		responses = append(responses, &resp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate responses: %w", err)
	}

	return responses, nil
}

func (r *responseRepository) CountByDiagnosis(ctx context.Context, diagnosisID uuid.UUID) (int, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return 0, fmt.Errorf("no tenant scope in context")
	}

	var count int
	err := scope.Conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM esg_responses WHERE diagnosis_id = $1`, diagnosisID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count responses: %w", err)
	}
	return count, nil
}

// nullableString converts empty strings to NULL for optional text columns.
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
