package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/esgdiag/esg-engine/pkg/database"
	"github.com/esgdiag/esg-engine/pkg/models"
)

// PlanRepository reads organization plan entitlements. Plan rows are
// written by the external subscription system; a missing row means the
// organization is on the free plan.
type PlanRepository interface {
	// GetByOrg retrieves the plan for an organization, or nil if none exists.
	GetByOrg(ctx context.Context, orgID uuid.UUID) (*models.OrgPlan, error)
}

type planRepository struct{}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository() PlanRepository {
	return &planRepository{}
}

var _ PlanRepository = (*planRepository)(nil)

func (r *planRepository) GetByOrg(ctx context.Context, orgID uuid.UUID) (*models.OrgPlan, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `
		SELECT org_id, plan, max_diagnoses, updated_at
		FROM esg_org_plans
		WHERE org_id = $1`

	var p models.OrgPlan
	err := scope.Conn.QueryRow(ctx, query, orgID).Scan(
		&p.OrgID, &p.Plan, &p.MaxDiagnoses, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get org plan: %w", err)
	}
	return &p, nil
}
