package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/esgdiag/esg-engine/pkg/apperrors"
	"github.com/esgdiag/esg-engine/pkg/models"
	"github.com/esgdiag/esg-engine/pkg/repositories"
)

// EntitlementService checks whether an organization's plan allows starting
// a new diagnosis. Plan provisioning itself lives in the external
// subscription system.
type EntitlementService interface {
	// CheckCanStartDiagnosis returns nil when a new diagnosis may be
	// started. Returns apperrors.ErrDiagnosisInProgress when the user
	// already has an open diagnosis, or apperrors.ErrPlanLimitReached when
	// the plan's diagnosis quota is exhausted.
	CheckCanStartDiagnosis(ctx context.Context, orgID, userID uuid.UUID) error
}

type entitlementService struct {
	planRepo      repositories.PlanRepository
	diagnosisRepo repositories.DiagnosisRepository
	logger        *zap.Logger
}

// NewEntitlementService creates a new entitlement service with dependencies.
func NewEntitlementService(planRepo repositories.PlanRepository, diagnosisRepo repositories.DiagnosisRepository, logger *zap.Logger) EntitlementService {
	return &entitlementService{
		planRepo:      planRepo,
		diagnosisRepo: diagnosisRepo,
		logger:        logger,
	}
}

var _ EntitlementService = (*entitlementService)(nil)

func (s *entitlementService) CheckCanStartDiagnosis(ctx context.Context, orgID, userID uuid.UUID) error {
	open, err := s.diagnosisRepo.HasInProgress(ctx, userID)
	if err != nil {
		return fmt.Errorf("check open diagnosis: %w", err)
	}
	if open {
		return apperrors.ErrDiagnosisInProgress
	}

	plan, err := s.planRepo.GetByOrg(ctx, orgID)
	if err != nil {
		return fmt.Errorf("load org plan: %w", err)
	}
	if plan == nil {
		// No plan row means the free plan.
		plan = &models.OrgPlan{
			OrgID:        orgID,
			Plan:         models.PlanFree,
			MaxDiagnoses: models.FreePlanDiagnosisLimit,
		}
	}

	used, err := s.diagnosisRepo.CountByOrg(ctx)
	if err != nil {
		return fmt.Errorf("count diagnoses: %w", err)
	}

	if !plan.AllowsDiagnosis(used) {
		s.logger.Debug("Plan limit reached",
			zap.String("org_id", orgID.String()),
			zap.String("plan", plan.Plan),
			zap.Int("used", used),
			zap.Int("max", plan.MaxDiagnoses))
		return apperrors.ErrPlanLimitReached
	}

	return nil
}
