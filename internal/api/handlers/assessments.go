package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/carecompanion/go-care/internal/api/middleware"
	"github.com/carecompanion/go-care/internal/domain/clinical"
	"github.com/carecompanion/go-care/internal/observability/metrics"
)

// AssessmentStore is the persistence surface the ADL handler needs.
type AssessmentStore interface {
	RecordAssessment(ctx context.Context, a clinical.ADLAssessment) (*clinical.ADLAssessment, *clinical.DeclineReport, error)
	ListAssessments(ctx context.Context, patientID string) ([]clinical.ADLAssessment, error)
}

// AssessmentHandler handles ADL assessment endpoints
type AssessmentHandler struct {
	store   AssessmentStore
	rels    RelationshipChecker
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewAssessmentHandler creates a new handler
func NewAssessmentHandler(store AssessmentStore, rels RelationshipChecker, m *metrics.Metrics, logger *zap.Logger) *AssessmentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssessmentHandler{store: store, rels: rels, metrics: m, logger: logger}
}

// Routes returns the handler routes, mounted under /patients/{patientID}/adl
func (h *AssessmentHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Record)
	r.Get("/", h.List)
	r.Get("/decline", h.Decline)
	return r
}

func (h *AssessmentHandler) authorize(w http.ResponseWriter, r *http.Request) (string, bool) {
	return authorizePatient(w, r, h.rels, h.logger)
}

// RecordResponse pairs the stored assessment with the decline comparison
// against the previous one.
type RecordResponse struct {
	Assessment *clinical.ADLAssessment `json:"assessment"`
	Decline    *clinical.DeclineReport `json:"decline"`
}

// Record handles POST /patients/{patientID}/adl
func (h *AssessmentHandler) Record(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.authorize(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	var req clinical.ADLAssessment
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.PatientID = patientID
	if req.AssessedBy == "" {
		req.AssessedBy = middleware.GetUserID(ctx)
	}

	stored, report, err := h.store.RecordAssessment(ctx, req)
	if err != nil {
		if errors.Is(err, clinical.ErrInvalidSubscore) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("record assessment failed", zap.Error(err))
		jsonError(w, "failed to record assessment", http.StatusInternalServerError)
		return
	}
	if h.metrics != nil {
		h.metrics.AssessmentsRecorded.Inc()
		if report.AssessmentDue {
			h.metrics.DeclineFlagsRaised.Inc()
		}
	}

	writeJSON(w, http.StatusCreated, RecordResponse{Assessment: stored, Decline: report})
}

// List handles GET /patients/{patientID}/adl
func (h *AssessmentHandler) List(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	assessments, err := h.store.ListAssessments(r.Context(), patientID)
	if err != nil {
		h.logger.Error("list assessments failed", zap.Error(err))
	}
	if assessments == nil {
		assessments = []clinical.ADLAssessment{}
	}

	writeJSON(w, http.StatusOK, assessments)
}

// Decline handles GET /patients/{patientID}/adl/decline
func (h *AssessmentHandler) Decline(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	assessments, err := h.store.ListAssessments(r.Context(), patientID)
	if err != nil {
		h.logger.Error("list assessments failed", zap.Error(err))
	}

	writeJSON(w, http.StatusOK, clinical.AssessDecline(assessments))
}
