package repositories_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/esgdiag/esg-engine/pkg/apperrors"
	"github.com/esgdiag/esg-engine/pkg/database"
	"github.com/esgdiag/esg-engine/pkg/models"
	"github.com/esgdiag/esg-engine/pkg/repositories"
	"github.com/esgdiag/esg-engine/pkg/scoring"
	"github.com/esgdiag/esg-engine/pkg/services"
	"github.com/esgdiag/esg-engine/pkg/testhelpers"
)

// tenantContext acquires a tenant-scoped connection for orgID and returns a
// context carrying it plus a cleanup function.
func tenantContext(t *testing.T, db *database.DB, orgID uuid.UUID) (context.Context, func()) {
	t.Helper()

	scope, err := db.WithTenant(context.Background(), orgID)
	require.NoError(t, err)
	return database.SetTenantScope(context.Background(), scope), scope.Close
}

// seedTestCatalog loads the repo seed file once per test database.
func seedTestCatalog(t *testing.T, db *database.DB) {
	t.Helper()

	scope, err := db.WithoutTenant(context.Background())
	require.NoError(t, err)
	defer scope.Close()

	ctx := database.SetTenantScope(context.Background(), scope)
	svc := services.NewCatalogService(repositories.NewCatalogRepository(), zap.NewNop())
	require.NoError(t, svc.SeedFromFile(ctx, "../../seed/questionnaire.yaml"))
}

func TestDiagnosisLifecycle_Integration(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	seedTestCatalog(t, testDB.DB)

	orgID := uuid.New()
	userID := uuid.New()

	ctx, closeScope := tenantContext(t, testDB.DB, orgID)
	defer closeScope()

	catalogRepo := repositories.NewCatalogRepository()
	diagnosisRepo := repositories.NewDiagnosisRepository()
	responseRepo := repositories.NewResponseRepository()
	certificateRepo := repositories.NewCertificateRepository()

	questionnaire, err := catalogRepo.GetQuestionnaire(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, questionnaire.Questions)

	diagnosis := &models.Diagnosis{OrgID: orgID, UserID: userID}
	require.NoError(t, diagnosisRepo.Create(ctx, diagnosis))
	assert.Equal(t, models.DiagnosisInProgress, diagnosis.Status)

	t.Run("has in-progress", func(t *testing.T) {
		open, err := diagnosisRepo.HasInProgress(ctx, userID)
		require.NoError(t, err)
		assert.True(t, open)
	})

	t.Run("upsert response twice keeps one row", func(t *testing.T) {
		question := questionnaire.Questions[0]

		first := &models.Response{
			DiagnosisID: diagnosis.ID,
			QuestionID:  question.ID,
			PillarCode:  question.PillarCode,
			Importance:  models.ImportanceImportant,
			Evaluation:  models.EvaluationDone,
		}
		require.NoError(t, responseRepo.Upsert(ctx, first))

		second := &models.Response{
			DiagnosisID: diagnosis.ID,
			QuestionID:  question.ID,
			PillarCode:  question.PillarCode,
			Importance:  models.ImportanceCritical,
			Evaluation:  models.EvaluationWellDone,
		}
		require.NoError(t, responseRepo.Upsert(ctx, second))

		responses, err := responseRepo.ListByDiagnosis(ctx, diagnosis.ID)
		require.NoError(t, err)
		require.Len(t, responses, 1)
		assert.Equal(t, models.EvaluationWellDone, responses[0].Evaluation)
	})

	t.Run("finalize persists snapshot and is one-shot", func(t *testing.T) {
		scores := scoring.Scores{Environmental: 100, Overall: 33.33}
		completedAt := time.Now()

		require.NoError(t, diagnosisRepo.Finalize(ctx, diagnosis.ID, scores, completedAt))

		got, err := diagnosisRepo.GetByID(ctx, diagnosis.ID)
		require.NoError(t, err)
		assert.Equal(t, models.DiagnosisCompleted, got.Status)
		require.NotNil(t, got.OverallScore)
		assert.InDelta(t, 33.33, *got.OverallScore, 0.001)

		err = diagnosisRepo.Finalize(ctx, diagnosis.ID, scores, time.Now())
		assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	})

	t.Run("certificate round trip", func(t *testing.T) {
		cert := &models.Certificate{
			OrgID:             orgID,
			DiagnosisID:       diagnosis.ID,
			CertificateNumber: models.NewCertificateNumber(time.Now()),
			Level:             scoring.LevelBronze,
			Score:             33.33,
			IssuedAt:          time.Now(),
			ExpiresAt:         time.Now().AddDate(0, models.CertificateValidityMonths, 0),
			IsValid:           true,
		}
		require.NoError(t, certificateRepo.Create(ctx, cert))

		got, err := certificateRepo.GetByDiagnosis(ctx, diagnosis.ID)
		require.NoError(t, err)
		assert.Equal(t, cert.CertificateNumber, got.CertificateNumber)
	})

	t.Run("missing certificate", func(t *testing.T) {
		_, err := certificateRepo.GetByDiagnosis(ctx, uuid.New())
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestTenantIsolation_Integration(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	seedTestCatalog(t, testDB.DB)

	orgA := uuid.New()
	orgB := uuid.New()
	userID := uuid.New()

	diagnosisRepo := repositories.NewDiagnosisRepository()

	ctxA, closeA := tenantContext(t, testDB.DB, orgA)
	defer closeA()

	diagnosis := &models.Diagnosis{OrgID: orgA, UserID: userID}
	require.NoError(t, diagnosisRepo.Create(ctxA, diagnosis))

	ctxB, closeB := tenantContext(t, testDB.DB, orgB)
	defer closeB()

	_, err := diagnosisRepo.GetByID(ctxB, diagnosis.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound, "other tenants must not see the diagnosis")

	count, err := diagnosisRepo.CountByOrg(ctxB)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPlanRepository_Integration(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)

	orgID := uuid.New()
	ctx, closeScope := tenantContext(t, testDB.DB, orgID)
	defer closeScope()

	planRepo := repositories.NewPlanRepository()

	plan, err := planRepo.GetByOrg(ctx, orgID)
	require.NoError(t, err)
	assert.Nil(t, plan, "missing plan row means the free plan")
}
