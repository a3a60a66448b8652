package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/esgdiag/esg-engine/pkg/apperrors"
	"github.com/esgdiag/esg-engine/pkg/auth"
	"github.com/esgdiag/esg-engine/pkg/models"
	"github.com/esgdiag/esg-engine/pkg/services"
)

// TenantMiddleware wraps a handler with a tenant-scoped DB connection.
type TenantMiddleware func(http.HandlerFunc) http.HandlerFunc

// ============================================================================
// Request/Response Types
// ============================================================================

// RecordResponseRequest for POST /api/diagnoses/{id}/responses
type RecordResponseRequest struct {
	QuestionID   uuid.UUID `json:"question_id"`
	Importance   string    `json:"importance"`
	Evaluation   string    `json:"evaluation"`
	Observations string    `json:"observations,omitempty"`
}

// DiagnosisListResponse for GET /api/diagnoses
type DiagnosisListResponse struct {
	Diagnoses []*models.Diagnosis `json:"diagnoses"`
	Total     int                 `json:"total"`
}

// ResponseListResponse for GET /api/diagnoses/{id}/responses
type ResponseListResponse struct {
	Responses []*models.Response `json:"responses"`
	Total     int                `json:"total"`
}

// ============================================================================
// Handler
// ============================================================================

// DiagnosisHandler handles diagnosis lifecycle HTTP requests.
type DiagnosisHandler struct {
	diagnosisService services.DiagnosisService
	logger           *zap.Logger
}

// NewDiagnosisHandler creates a new diagnosis handler.
func NewDiagnosisHandler(diagnosisService services.DiagnosisService, logger *zap.Logger) *DiagnosisHandler {
	return &DiagnosisHandler{
		diagnosisService: diagnosisService,
		logger:           logger,
	}
}

// RegisterRoutes registers the diagnosis handler's routes on the given mux.
func (h *DiagnosisHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, tenantMiddleware TenantMiddleware) {
	base := "/api/diagnoses"

	mux.HandleFunc("POST "+base,
		authMiddleware.RequireAuth(tenantMiddleware(h.Start)))
	mux.HandleFunc("GET "+base,
		authMiddleware.RequireAuth(tenantMiddleware(h.List)))
	mux.HandleFunc("GET "+base+"/{id}",
		authMiddleware.RequireAuth(tenantMiddleware(h.Get)))
	mux.HandleFunc("POST "+base+"/{id}/responses",
		authMiddleware.RequireAuth(tenantMiddleware(h.RecordResponse)))
	mux.HandleFunc("GET "+base+"/{id}/responses",
		authMiddleware.RequireAuth(tenantMiddleware(h.ListResponses)))
	mux.HandleFunc("GET "+base+"/{id}/partial-scores",
		authMiddleware.RequireAuth(tenantMiddleware(h.PartialScores)))
	mux.HandleFunc("POST "+base+"/{id}/finalize",
		authMiddleware.RequireAuth(tenantMiddleware(h.Finalize)))
	mux.HandleFunc("GET "+base+"/{id}/insights",
		authMiddleware.RequireAuth(tenantMiddleware(h.Insights)))
	mux.HandleFunc("GET "+base+"/{id}/action-plan",
		authMiddleware.RequireAuth(tenantMiddleware(h.ActionPlan)))
	mux.HandleFunc("GET "+base+"/{id}/certificate",
		authMiddleware.RequireAuth(tenantMiddleware(h.Certificate)))
}

// parseDiagnosisID extracts and validates the {id} path value. Writes the
// error response itself when parsing fails.
func (h *DiagnosisHandler) parseDiagnosisID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_diagnosis_id", "Invalid diagnosis ID"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return id, true
}

// Start handles POST /api/diagnoses
func (h *DiagnosisHandler) Start(w http.ResponseWriter, r *http.Request) {
	orgID, userID, err := auth.ExtractClaimsFromContext(r.Context())
	if err != nil {
		if err := ErrorResponse(w, http.StatusUnauthorized, "unauthorized", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	diagnosis, err := h.diagnosisService.Start(r.Context(), orgID, userID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrDiagnosisInProgress):
			err = ErrorResponse(w, http.StatusConflict, "diagnosis_in_progress", "An in-progress diagnosis already exists")
		case errors.Is(err, apperrors.ErrPlanLimitReached):
			err = ErrorResponse(w, http.StatusConflict, "plan_limit_reached", "The organization's plan does not allow more diagnoses")
		default:
			h.logger.Error("Failed to start diagnosis", zap.Error(err))
			err = ErrorResponse(w, http.StatusInternalServerError, "start_diagnosis_failed", err.Error())
		}
		if err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: diagnosis}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/diagnoses
func (h *DiagnosisHandler) List(w http.ResponseWriter, r *http.Request) {
	_, userID, err := auth.ExtractClaimsFromContext(r.Context())
	if err != nil {
		if err := ErrorResponse(w, http.StatusUnauthorized, "unauthorized", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	diagnoses, err := h.diagnosisService.ListByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list diagnoses", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "list_diagnoses_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := DiagnosisListResponse{
		Diagnoses: diagnoses,
		Total:     len(diagnoses),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/diagnoses/{id}
func (h *DiagnosisHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseDiagnosisID(w, r)
	if !ok {
		return
	}

	diagnosis, err := h.diagnosisService.Get(r.Context(), id)
	if err != nil {
		h.writeDiagnosisError(w, err, "get_diagnosis_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: diagnosis}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// RecordResponse handles POST /api/diagnoses/{id}/responses
func (h *DiagnosisHandler) RecordResponse(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseDiagnosisID(w, r)
	if !ok {
		return
	}

	var req RecordResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response, err := h.diagnosisService.RecordResponse(r.Context(), id, req.QuestionID,
		models.Importance(req.Importance), models.Evaluation(req.Evaluation), req.Observations)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			err = ErrorResponse(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
		case errors.Is(err, apperrors.ErrNotFound):
			err = ErrorResponse(w, http.StatusNotFound, "not_found", err.Error())
		case errors.Is(err, apperrors.ErrInvalidState):
			err = ErrorResponse(w, http.StatusConflict, "diagnosis_completed", "Responses cannot be modified after finalization")
		default:
			h.logger.Error("Failed to record response",
				zap.String("diagnosis_id", id.String()),
				zap.Error(err))
			err = ErrorResponse(w, http.StatusInternalServerError, "record_response_failed", err.Error())
		}
		if err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListResponses handles GET /api/diagnoses/{id}/responses
func (h *DiagnosisHandler) ListResponses(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseDiagnosisID(w, r)
	if !ok {
		return
	}

	responses, err := h.diagnosisService.ListResponses(r.Context(), id)
	if err != nil {
		h.writeDiagnosisError(w, err, "list_responses_failed")
		return
	}

	response := ResponseListResponse{
		Responses: responses,
		Total:     len(responses),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// PartialScores handles GET /api/diagnoses/{id}/partial-scores
func (h *DiagnosisHandler) PartialScores(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseDiagnosisID(w, r)
	if !ok {
		return
	}

	report, err := h.diagnosisService.PartialScores(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			err = ErrorResponse(w, http.StatusNotFound, "diagnosis_not_found", "Diagnosis not found")
		case errors.Is(err, apperrors.ErrInvalidState):
			err = ErrorResponse(w, http.StatusConflict, "diagnosis_completed", "Partial scores are only available while in progress")
		default:
			h.logger.Error("Failed to compute partial scores",
				zap.String("diagnosis_id", id.String()),
				zap.Error(err))
			err = ErrorResponse(w, http.StatusInternalServerError, "partial_scores_failed", err.Error())
		}
		if err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: report}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Finalize handles POST /api/diagnoses/{id}/finalize
func (h *DiagnosisHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseDiagnosisID(w, r)
	if !ok {
		return
	}

	result, err := h.diagnosisService.Finalize(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			err = ErrorResponse(w, http.StatusNotFound, "diagnosis_not_found", "Diagnosis not found")
		case errors.Is(err, apperrors.ErrInvalidState):
			err = ErrorResponse(w, http.StatusConflict, "already_finalized", "The diagnosis has already been finalized")
		default:
			h.logger.Error("Failed to finalize diagnosis",
				zap.String("diagnosis_id", id.String()),
				zap.Error(err))
			err = ErrorResponse(w, http.StatusInternalServerError, "finalize_failed", err.Error())
		}
		if err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: result}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Insights handles GET /api/diagnoses/{id}/insights
func (h *DiagnosisHandler) Insights(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseDiagnosisID(w, r)
	if !ok {
		return
	}

	insights, err := h.diagnosisService.Insights(r.Context(), id)
	if err != nil {
		h.writeDiagnosisError(w, err, "get_insights_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: insights}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ActionPlan handles GET /api/diagnoses/{id}/action-plan
func (h *DiagnosisHandler) ActionPlan(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseDiagnosisID(w, r)
	if !ok {
		return
	}

	report, err := h.diagnosisService.ActionPlan(r.Context(), id)
	if err != nil {
		h.writeDiagnosisError(w, err, "get_action_plan_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: report}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Certificate handles GET /api/diagnoses/{id}/certificate
func (h *DiagnosisHandler) Certificate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseDiagnosisID(w, r)
	if !ok {
		return
	}

	certificate, err := h.diagnosisService.Certificate(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "certificate_not_found", "No certificate has been issued for this diagnosis"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.writeDiagnosisError(w, err, "get_certificate_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: certificate}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// writeDiagnosisError maps service errors for the read paths that only
// distinguish not-found from internal failures.
func (h *DiagnosisHandler) writeDiagnosisError(w http.ResponseWriter, err error, internalCode string) {
	var writeErr error
	if errors.Is(err, apperrors.ErrNotFound) {
		writeErr = ErrorResponse(w, http.StatusNotFound, "diagnosis_not_found", "Diagnosis not found")
	} else {
		h.logger.Error("Diagnosis request failed", zap.Error(err))
		writeErr = ErrorResponse(w, http.StatusInternalServerError, internalCode, err.Error())
	}
	if writeErr != nil {
		h.logger.Error("Failed to write error response", zap.Error(writeErr))
	}
}
