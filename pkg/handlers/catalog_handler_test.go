package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/esgdiag/esg-engine/pkg/models"
)

// mockCatalogServiceForHandler implements services.CatalogService for handler tests.
type mockCatalogServiceForHandler struct {
	questionnaire *models.Questionnaire
	err           error
}

func (m *mockCatalogServiceForHandler) SeedFromFile(ctx context.Context, path string) error {
	return nil
}

func (m *mockCatalogServiceForHandler) GetQuestionnaire(ctx context.Context) (*models.Questionnaire, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.questionnaire, nil
}

func (m *mockCatalogServiceForHandler) GetQuestion(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	return nil, nil
}

func TestCatalogHandler_Get(t *testing.T) {
	t.Run("returns catalog tree", func(t *testing.T) {
		questionnaire := &models.Questionnaire{
			Pillars: []models.Pillar{
				{Code: models.PillarEnvironmental, Name: "Environmental", DisplayOrder: 1},
				{Code: models.PillarSocial, Name: "Social", DisplayOrder: 2},
				{Code: models.PillarGovernance, Name: "Governance", DisplayOrder: 3},
			},
			Questions: []models.Question{
				{ID: uuid.New(), PillarCode: models.PillarEnvironmental, Text: "Does the company monitor its energy consumption?"},
			},
		}
		handler := NewCatalogHandler(&mockCatalogServiceForHandler{questionnaire: questionnaire}, zap.NewNop())

		rec := httptest.NewRecorder()
		handler.Get(rec, httptest.NewRequest(http.MethodGet, "/api/questionnaire", nil))

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Success bool                  `json:"success"`
			Data    QuestionnaireResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Len(t, resp.Data.Pillars, 3)
		assert.Equal(t, 1, resp.Data.Total)
	})

	t.Run("service failure", func(t *testing.T) {
		handler := NewCatalogHandler(&mockCatalogServiceForHandler{err: assert.AnError}, zap.NewNop())

		rec := httptest.NewRecorder()
		handler.Get(rec, httptest.NewRequest(http.MethodGet, "/api/questionnaire", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "get_questionnaire_failed")
	})
}
