package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/esgdiag/esg-engine/pkg/apperrors"
	"github.com/esgdiag/esg-engine/pkg/auth"
	"github.com/esgdiag/esg-engine/pkg/models"
	"github.com/esgdiag/esg-engine/pkg/scoring"
	"github.com/esgdiag/esg-engine/pkg/services"
)

// ============================================================================
// Mock Implementations
// ============================================================================

// mockDiagnosisServiceForHandler implements services.DiagnosisService for handler tests.
type mockDiagnosisServiceForHandler struct {
	diagnosis   *models.Diagnosis
	diagnoses   []*models.Diagnosis
	response    *models.Response
	responses   []*models.Response
	report      *services.ScoreReport
	finalize    *services.FinalizeResult
	certificate *models.Certificate
	err         error
}

func (m *mockDiagnosisServiceForHandler) Start(ctx context.Context, orgID, userID uuid.UUID) (*models.Diagnosis, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.diagnosis, nil
}

func (m *mockDiagnosisServiceForHandler) Get(ctx context.Context, id uuid.UUID) (*models.Diagnosis, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.diagnosis, nil
}

func (m *mockDiagnosisServiceForHandler) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Diagnosis, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.diagnoses, nil
}

func (m *mockDiagnosisServiceForHandler) RecordResponse(ctx context.Context, diagnosisID, questionID uuid.UUID, importance models.Importance, evaluation models.Evaluation, observations string) (*models.Response, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *mockDiagnosisServiceForHandler) ListResponses(ctx context.Context, diagnosisID uuid.UUID) ([]*models.Response, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.responses, nil
}

func (m *mockDiagnosisServiceForHandler) PartialScores(ctx context.Context, diagnosisID uuid.UUID) (*services.ScoreReport, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.report, nil
}

func (m *mockDiagnosisServiceForHandler) Finalize(ctx context.Context, diagnosisID uuid.UUID) (*services.FinalizeResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.finalize, nil
}

func (m *mockDiagnosisServiceForHandler) Insights(ctx context.Context, diagnosisID uuid.UUID) ([]scoring.Insight, error) {
	if m.err != nil {
		return nil, m.err
	}
	return scoring.GenerateInsights(scoring.Scores{}), nil
}

func (m *mockDiagnosisServiceForHandler) ActionPlan(ctx context.Context, diagnosisID uuid.UUID) (*services.ActionPlanReport, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &services.ActionPlanReport{Entries: scoring.GenerateActionPlan(scoring.Scores{})}, nil
}

func (m *mockDiagnosisServiceForHandler) Certificate(ctx context.Context, diagnosisID uuid.UUID) (*models.Certificate, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.certificate, nil
}

var _ services.DiagnosisService = (*mockDiagnosisServiceForHandler)(nil)

// ============================================================================
// Helpers
// ============================================================================

func authenticatedRequest(method, target string, body []byte, orgID, userID uuid.UUID) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	claims := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID.String()},
		OrgID:            orgID.String(),
	}
	return req.WithContext(context.WithValue(req.Context(), auth.ClaimsKey, claims))
}

func newDiagnosisMux(svc services.DiagnosisService) *http.ServeMux {
	mux := http.NewServeMux()
	handler := NewDiagnosisHandler(svc, zap.NewNop())

	// Route patterns only; auth claims are injected per request.
	base := "/api/diagnoses"
	mux.HandleFunc("POST "+base, handler.Start)
	mux.HandleFunc("GET "+base, handler.List)
	mux.HandleFunc("GET "+base+"/{id}", handler.Get)
	mux.HandleFunc("POST "+base+"/{id}/responses", handler.RecordResponse)
	mux.HandleFunc("GET "+base+"/{id}/responses", handler.ListResponses)
	mux.HandleFunc("GET "+base+"/{id}/partial-scores", handler.PartialScores)
	mux.HandleFunc("POST "+base+"/{id}/finalize", handler.Finalize)
	mux.HandleFunc("GET "+base+"/{id}/insights", handler.Insights)
	mux.HandleFunc("GET "+base+"/{id}/action-plan", handler.ActionPlan)
	mux.HandleFunc("GET "+base+"/{id}/certificate", handler.Certificate)
	return mux
}

// ============================================================================
// Tests
// ============================================================================

func TestDiagnosisHandler_Start(t *testing.T) {
	orgID := uuid.New()
	userID := uuid.New()

	t.Run("created", func(t *testing.T) {
		diagnosis := &models.Diagnosis{
			ID:        uuid.New(),
			OrgID:     orgID,
			UserID:    userID,
			Status:    models.DiagnosisInProgress,
			StartedAt: time.Now(),
		}
		mux := newDiagnosisMux(&mockDiagnosisServiceForHandler{diagnosis: diagnosis})

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authenticatedRequest(http.MethodPost, "/api/diagnoses", nil, orgID, userID))

		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp struct {
			Success bool             `json:"success"`
			Data    models.Diagnosis `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, diagnosis.ID, resp.Data.ID)
		assert.Equal(t, models.DiagnosisInProgress, resp.Data.Status)
	})

	t.Run("missing claims", func(t *testing.T) {
		mux := newDiagnosisMux(&mockDiagnosisServiceForHandler{})
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/diagnoses", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("in-progress conflict", func(t *testing.T) {
		mux := newDiagnosisMux(&mockDiagnosisServiceForHandler{err: apperrors.ErrDiagnosisInProgress})
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authenticatedRequest(http.MethodPost, "/api/diagnoses", nil, orgID, userID))

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "diagnosis_in_progress")
	})

	t.Run("plan limit conflict", func(t *testing.T) {
		mux := newDiagnosisMux(&mockDiagnosisServiceForHandler{err: apperrors.ErrPlanLimitReached})
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authenticatedRequest(http.MethodPost, "/api/diagnoses", nil, orgID, userID))

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "plan_limit_reached")
	})
}

func TestDiagnosisHandler_Get(t *testing.T) {
	orgID := uuid.New()
	userID := uuid.New()
	diagnosisID := uuid.New()

	t.Run("found", func(t *testing.T) {
		mux := newDiagnosisMux(&mockDiagnosisServiceForHandler{
			diagnosis: &models.Diagnosis{ID: diagnosisID, Status: models.DiagnosisInProgress},
		})
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authenticatedRequest(http.MethodGet, "/api/diagnoses/"+diagnosisID.String(), nil, orgID, userID))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("not found", func(t *testing.T) {
		mux := newDiagnosisMux(&mockDiagnosisServiceForHandler{err: apperrors.ErrNotFound})
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authenticatedRequest(http.MethodGet, "/api/diagnoses/"+diagnosisID.String(), nil, orgID, userID))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		mux := newDiagnosisMux(&mockDiagnosisServiceForHandler{})
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authenticatedRequest(http.MethodGet, "/api/diagnoses/not-a-uuid", nil, orgID, userID))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDiagnosisHandler_RecordResponse(t *testing.T) {
	orgID := uuid.New()
	userID := uuid.New()
	diagnosisID := uuid.New()
	target := "/api/diagnoses/" + diagnosisID.String() + "/responses"

	body, _ := json.Marshal(RecordResponseRequest{
		QuestionID: uuid.New(),
		Importance: "important",
		Evaluation: "done",
	})

	t.Run("recorded", func(t *testing.T) {
		mux := newDiagnosisMux(&mockDiagnosisServiceForHandler{
			response: &models.Response{DiagnosisID: diagnosisID, Evaluation: models.EvaluationDone},
		})
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authenticatedRequest(http.MethodPost, target, body, orgID, userID))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		mux := newDiagnosisMux(&mockDiagnosisServiceForHandler{})
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authenticatedRequest(http.MethodPost, target, []byte("{"), orgID, userID))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid enum", func(t *testing.T) {
		mux := newDiagnosisMux(&mockDiagnosisServiceForHandler{err: apperrors.ErrValidation})
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authenticatedRequest(http.MethodPost, target, body, orgID, userID))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("completed diagnosis", func(t *testing.T) {
		mux := newDiagnosisMux(&mockDiagnosisServiceForHandler{err: apperrors.ErrInvalidState})
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authenticatedRequest(http.MethodPost, target, body, orgID, userID))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("unknown question", func(t *testing.T) {
		mux := newDiagnosisMux(&mockDiagnosisServiceForHandler{err: apperrors.ErrNotFound})
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authenticatedRequest(http.MethodPost, target, body, orgID, userID))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestDiagnosisHandler_PartialScores(t *testing.T) {
	orgID := uuid.New()
	userID := uuid.New()
	diagnosisID := uuid.New()
	target := "/api/diagnoses/" + diagnosisID.String() + "/partial-scores"

	t.Run("live snapshot", func(t *testing.T) {
		scores := scoring.Scores{Environmental: 87.5, Overall: 29.17}
		mux := newDiagnosisMux(&mockDiagnosisServiceForHandler{
			report: &services.ScoreReport{
				Scores:        scores,
				Certification: scoring.ResolveCertification(scores.Overall),
				Insights:      scoring.GenerateInsights(scores),
				Completion:    20,
			},
		})
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authenticatedRequest(http.MethodGet, target, nil, orgID, userID))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"bronze"`)
	})

	t.Run("completed diagnosis", func(t *testing.T) {
		mux := newDiagnosisMux(&mockDiagnosisServiceForHandler{err: apperrors.ErrInvalidState})
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authenticatedRequest(http.MethodGet, target, nil, orgID, userID))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestDiagnosisHandler_Finalize(t *testing.T) {
	orgID := uuid.New()
	userID := uuid.New()
	diagnosisID := uuid.New()
	target := "/api/diagnoses/" + diagnosisID.String() + "/finalize"

	t.Run("finalized", func(t *testing.T) {
		now := time.Now()
		overall := 75.0
		mux := newDiagnosisMux(&mockDiagnosisServiceForHandler{
			finalize: &services.FinalizeResult{
				Diagnosis: &models.Diagnosis{
					ID:           diagnosisID,
					Status:       models.DiagnosisCompleted,
					CompletedAt:  &now,
					OverallScore: &overall,
				},
				Certification: scoring.ResolveCertification(overall),
				Certificate:   &models.Certificate{CertificateNumber: "ESG-2026-deadbeef"},
			},
		})
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authenticatedRequest(http.MethodPost, target, nil, orgID, userID))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"gold"`)
		assert.Contains(t, rec.Body.String(), "ESG-2026-deadbeef")
	})

	t.Run("double finalize", func(t *testing.T) {
		mux := newDiagnosisMux(&mockDiagnosisServiceForHandler{err: apperrors.ErrInvalidState})
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authenticatedRequest(http.MethodPost, target, nil, orgID, userID))

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "already_finalized")
	})
}

func TestDiagnosisHandler_Certificate(t *testing.T) {
	orgID := uuid.New()
	userID := uuid.New()
	diagnosisID := uuid.New()
	target := "/api/diagnoses/" + diagnosisID.String() + "/certificate"

	t.Run("issued", func(t *testing.T) {
		mux := newDiagnosisMux(&mockDiagnosisServiceForHandler{
			certificate: &models.Certificate{
				DiagnosisID:       diagnosisID,
				CertificateNumber: "ESG-2026-0badcafe",
				Level:             scoring.LevelSilver,
			},
		})
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authenticatedRequest(http.MethodGet, target, nil, orgID, userID))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "ESG-2026-0badcafe")
	})

	t.Run("not yet issued", func(t *testing.T) {
		mux := newDiagnosisMux(&mockDiagnosisServiceForHandler{err: apperrors.ErrNotFound})
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authenticatedRequest(http.MethodGet, target, nil, orgID, userID))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "certificate_not_found")
	})
}
