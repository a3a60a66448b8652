package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/esgdiag/esg-engine/pkg/apperrors"
	"github.com/esgdiag/esg-engine/pkg/models"
	"github.com/esgdiag/esg-engine/pkg/repositories"
	"github.com/esgdiag/esg-engine/pkg/scoring"
)

// ScoreReport bundles the live computation returned for partial-score reads.
// Nothing in it is persisted.
type ScoreReport struct {
	Scores        scoring.Scores        `json:"scores"`
	Certification scoring.Certification `json:"certification"`
	Insights      []scoring.Insight     `json:"insights"`
	Completion    float64               `json:"completion"`
}

// ActionPlanReport bundles the derived action plan with the respondent's
// importance-driven priority gaps.
type ActionPlanReport struct {
	Entries []scoring.ActionPlanEntry `json:"entries"`
	Gaps    []scoring.Gap             `json:"gaps"`
}

// FinalizeResult is returned from Finalize with the persisted snapshot.
type FinalizeResult struct {
	Diagnosis     *models.Diagnosis     `json:"diagnosis"`
	Certification scoring.Certification `json:"certification"`
	Certificate   *models.Certificate   `json:"certificate"`
}

// DiagnosisService orchestrates the diagnosis lifecycle: starting an
// assessment, recording responses while in progress, computing partial
// scores on demand, and the one-way transition to completed.
type DiagnosisService interface {
	Start(ctx context.Context, orgID, userID uuid.UUID) (*models.Diagnosis, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Diagnosis, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Diagnosis, error)
	RecordResponse(ctx context.Context, diagnosisID, questionID uuid.UUID, importance models.Importance, evaluation models.Evaluation, observations string) (*models.Response, error)
	ListResponses(ctx context.Context, diagnosisID uuid.UUID) ([]*models.Response, error)
	PartialScores(ctx context.Context, diagnosisID uuid.UUID) (*ScoreReport, error)
	Finalize(ctx context.Context, diagnosisID uuid.UUID) (*FinalizeResult, error)
	Insights(ctx context.Context, diagnosisID uuid.UUID) ([]scoring.Insight, error)
	ActionPlan(ctx context.Context, diagnosisID uuid.UUID) (*ActionPlanReport, error)
	Certificate(ctx context.Context, diagnosisID uuid.UUID) (*models.Certificate, error)
}

type diagnosisService struct {
	diagnosisRepo   repositories.DiagnosisRepository
	responseRepo    repositories.ResponseRepository
	catalogRepo     repositories.CatalogRepository
	certificateRepo repositories.CertificateRepository
	entitlements    EntitlementService
	logger          *zap.Logger
}

// NewDiagnosisService creates a new diagnosis service with dependencies.
func NewDiagnosisService(
	diagnosisRepo repositories.DiagnosisRepository,
	responseRepo repositories.ResponseRepository,
	catalogRepo repositories.CatalogRepository,
	certificateRepo repositories.CertificateRepository,
	entitlements EntitlementService,
	logger *zap.Logger,
) DiagnosisService {
	return &diagnosisService{
		diagnosisRepo:   diagnosisRepo,
		responseRepo:    responseRepo,
		catalogRepo:     catalogRepo,
		certificateRepo: certificateRepo,
		entitlements:    entitlements,
		logger:          logger,
	}
}

var _ DiagnosisService = (*diagnosisService)(nil)

// Start creates a new in-progress diagnosis after the entitlement check.
func (s *diagnosisService) Start(ctx context.Context, orgID, userID uuid.UUID) (*models.Diagnosis, error) {
	if err := s.entitlements.CheckCanStartDiagnosis(ctx, orgID, userID); err != nil {
		return nil, err
	}

	diagnosis := &models.Diagnosis{
		OrgID:     orgID,
		UserID:    userID,
		Status:    models.DiagnosisInProgress,
		StartedAt: time.Now(),
	}

	if err := s.diagnosisRepo.Create(ctx, diagnosis); err != nil {
		return nil, err
	}

	s.logger.Info("Started diagnosis",
		zap.String("diagnosis_id", diagnosis.ID.String()),
		zap.String("org_id", orgID.String()))
	return diagnosis, nil
}

func (s *diagnosisService) Get(ctx context.Context, id uuid.UUID) (*models.Diagnosis, error) {
	return s.diagnosisRepo.GetByID(ctx, id)
}

func (s *diagnosisService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Diagnosis, error) {
	return s.diagnosisRepo.ListByUser(ctx, userID)
}

// RecordResponse validates and upserts the answer to one question.
// Allowed only while the diagnosis is in progress; scores are not
// maintained incrementally, so recording has no scoring side effect.
func (s *diagnosisService) RecordResponse(ctx context.Context, diagnosisID, questionID uuid.UUID, importance models.Importance, evaluation models.Evaluation, observations string) (*models.Response, error) {
	if !models.IsValidImportance(importance) {
		return nil, fmt.Errorf("%w: invalid importance %q", apperrors.ErrValidation, importance)
	}
	if !models.IsValidEvaluation(evaluation) {
		return nil, fmt.Errorf("%w: invalid evaluation %q", apperrors.ErrValidation, evaluation)
	}

	diagnosis, err := s.diagnosisRepo.GetByID(ctx, diagnosisID)
	if err != nil {
		return nil, err
	}
	if !diagnosis.IsInProgress() {
		return nil, apperrors.ErrInvalidState
	}

	question, err := s.catalogRepo.GetQuestion(ctx, questionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("question %s: %w", questionID, apperrors.ErrNotFound)
		}
		return nil, err
	}

	response := &models.Response{
		DiagnosisID:  diagnosisID,
		QuestionID:   questionID,
		PillarCode:   question.PillarCode,
		Importance:   importance,
		Evaluation:   evaluation,
		Observations: observations,
	}

	if err := s.responseRepo.Upsert(ctx, response); err != nil {
		return nil, err
	}

	return response, nil
}

func (s *diagnosisService) ListResponses(ctx context.Context, diagnosisID uuid.UUID) ([]*models.Response, error) {
	if _, err := s.diagnosisRepo.GetByID(ctx, diagnosisID); err != nil {
		return nil, err
	}
	return s.responseRepo.ListByDiagnosis(ctx, diagnosisID)
}

// PartialScores computes the live score snapshot over whatever responses
// exist. Allowed only while in progress; completed diagnoses serve their
// persisted snapshot through Get and Insights instead.
func (s *diagnosisService) PartialScores(ctx context.Context, diagnosisID uuid.UUID) (*ScoreReport, error) {
	diagnosis, err := s.diagnosisRepo.GetByID(ctx, diagnosisID)
	if err != nil {
		return nil, err
	}
	if !diagnosis.IsInProgress() {
		return nil, apperrors.ErrInvalidState
	}

	responses, err := s.responseRepo.ListByDiagnosis(ctx, diagnosisID)
	if err != nil {
		return nil, err
	}

	questionnaire, err := s.catalogRepo.GetQuestionnaire(ctx)
	if err != nil {
		return nil, err
	}

	scores := scoring.ComputeScores(responses)
	return &ScoreReport{
		Scores:        scores,
		Certification: scoring.ResolveCertification(scores.Overall),
		Insights:      scoring.GenerateInsights(scores),
		Completion:    scoring.Completion(responses, len(questionnaire.Questions)),
	}, nil
}

// Finalize computes the final scores, persists them with the completed
// status, and issues the certificate. The repository update is conditional
// on status so concurrent finalize calls have exactly one winner; the loser
// gets apperrors.ErrInvalidState and the persisted snapshot stays intact.
func (s *diagnosisService) Finalize(ctx context.Context, diagnosisID uuid.UUID) (*FinalizeResult, error) {
	diagnosis, err := s.diagnosisRepo.GetByID(ctx, diagnosisID)
	if err != nil {
		return nil, err
	}
	if !diagnosis.IsInProgress() {
		return nil, apperrors.ErrInvalidState
	}

	responses, err := s.responseRepo.ListByDiagnosis(ctx, diagnosisID)
	if err != nil {
		return nil, err
	}

	scores := scoring.ComputeScores(responses)
	completedAt := time.Now()

	if err := s.diagnosisRepo.Finalize(ctx, diagnosisID, scores, completedAt); err != nil {
		return nil, err
	}

	diagnosis.Status = models.DiagnosisCompleted
	diagnosis.CompletedAt = &completedAt
	diagnosis.OverallScore = &scores.Overall
	diagnosis.EnvironmentalScore = &scores.Environmental
	diagnosis.SocialScore = &scores.Social
	diagnosis.GovernanceScore = &scores.Governance

	certification := scoring.ResolveCertification(scores.Overall)

	certificate := &models.Certificate{
		OrgID:             diagnosis.OrgID,
		DiagnosisID:       diagnosis.ID,
		CertificateNumber: models.NewCertificateNumber(completedAt),
		Level:             certification.Level,
		Score:             scores.Overall,
		IssuedAt:          completedAt,
		ExpiresAt:         completedAt.AddDate(0, models.CertificateValidityMonths, 0),
		IsValid:           true,
	}
	if err := s.certificateRepo.Create(ctx, certificate); err != nil {
		// The diagnosis is already completed; certificate issuance is not
		// worth failing the whole finalization over.
		s.logger.Error("Failed to issue certificate",
			zap.String("diagnosis_id", diagnosis.ID.String()),
			zap.Error(err))
		certificate = nil
	}

	s.logger.Info("Finalized diagnosis",
		zap.String("diagnosis_id", diagnosis.ID.String()),
		zap.Float64("overall_score", scores.Overall),
		zap.String("certification", certification.Level))

	return &FinalizeResult{
		Diagnosis:     diagnosis,
		Certification: certification,
		Certificate:   certificate,
	}, nil
}

// Insights returns the per-pillar insights. For completed diagnoses they
// derive from the persisted score snapshot; in-progress diagnoses recompute
// from the current responses.
func (s *diagnosisService) Insights(ctx context.Context, diagnosisID uuid.UUID) ([]scoring.Insight, error) {
	scores, err := s.scoresFor(ctx, diagnosisID)
	if err != nil {
		return nil, err
	}
	return scoring.GenerateInsights(scores), nil
}

// ActionPlan returns the derived action plan entries and priority gaps.
func (s *diagnosisService) ActionPlan(ctx context.Context, diagnosisID uuid.UUID) (*ActionPlanReport, error) {
	scores, err := s.scoresFor(ctx, diagnosisID)
	if err != nil {
		return nil, err
	}

	responses, err := s.responseRepo.ListByDiagnosis(ctx, diagnosisID)
	if err != nil {
		return nil, err
	}

	return &ActionPlanReport{
		Entries: scoring.GenerateActionPlan(scores),
		Gaps:    scoring.PriorityGaps(responses),
	}, nil
}

func (s *diagnosisService) Certificate(ctx context.Context, diagnosisID uuid.UUID) (*models.Certificate, error) {
	if _, err := s.diagnosisRepo.GetByID(ctx, diagnosisID); err != nil {
		return nil, err
	}
	return s.certificateRepo.GetByDiagnosis(ctx, diagnosisID)
}

// scoresFor returns the persisted snapshot for completed diagnoses and a
// live recomputation for in-progress ones.
func (s *diagnosisService) scoresFor(ctx context.Context, diagnosisID uuid.UUID) (scoring.Scores, error) {
	diagnosis, err := s.diagnosisRepo.GetByID(ctx, diagnosisID)
	if err != nil {
		return scoring.Scores{}, err
	}

	if diagnosis.IsCompleted() && diagnosis.OverallScore != nil {
		return scoring.Scores{
			Environmental: *diagnosis.EnvironmentalScore,
			Social:        *diagnosis.SocialScore,
			Governance:    *diagnosis.GovernanceScore,
			Overall:       *diagnosis.OverallScore,
		}, nil
	}

	responses, err := s.responseRepo.ListByDiagnosis(ctx, diagnosisID)
	if err != nil {
		return scoring.Scores{}, err
	}
	return scoring.ComputeScores(responses), nil
}
