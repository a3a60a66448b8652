package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/esgdiag/esg-engine/pkg/auth"
	"github.com/esgdiag/esg-engine/pkg/models"
	"github.com/esgdiag/esg-engine/pkg/services"
)

// QuestionnaireResponse for GET /api/questionnaire
type QuestionnaireResponse struct {
	Pillars   []models.Pillar   `json:"pillars"`
	Themes    []models.Theme    `json:"themes"`
	Criteria  []models.Criteria `json:"criteria"`
	Questions []models.Question `json:"questions"`
	Total     int               `json:"total"`
}

// CatalogHandler serves the questionnaire catalog.
type CatalogHandler struct {
	catalogService services.CatalogService
	logger         *zap.Logger
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(catalogService services.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		logger:         logger,
	}
}

// RegisterRoutes registers the catalog handler's routes on the given mux.
func (h *CatalogHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, tenantMiddleware TenantMiddleware) {
	mux.HandleFunc("GET /api/questionnaire",
		authMiddleware.RequireAuth(tenantMiddleware(h.Get)))
}

// Get handles GET /api/questionnaire
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	q, err := h.catalogService.GetQuestionnaire(r.Context())
	if err != nil {
		h.logger.Error("Failed to load questionnaire", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "get_questionnaire_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := QuestionnaireResponse{
		Pillars:   q.Pillars,
		Themes:    q.Themes,
		Criteria:  q.Criteria,
		Questions: q.Questions,
		Total:     len(q.Questions),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
