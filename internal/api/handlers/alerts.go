package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/carecompanion/go-care/internal/domain/clinical"
	"github.com/carecompanion/go-care/internal/observability/metrics"
)

// RelationshipChecker gates patient-scoped routes. A caregiver with no
// relationship sees 404, never 403, so roster membership is never disclosed.
type RelationshipChecker interface {
	HasRelationship(ctx context.Context, caregiverID, patientID string) (bool, error)
}

// AlertStore is the persistence surface the alert handler needs.
type AlertStore interface {
	ListAlerts(ctx context.Context, patientID string) ([]clinical.SafetyAlert, error)
	RaiseAlert(ctx context.Context, alert clinical.SafetyAlert) (*clinical.SafetyAlert, error)
	ResolveAlert(ctx context.Context, patientID, alertID string) (*clinical.SafetyAlert, error)
}

// AlertHandler handles safety alert endpoints
type AlertHandler struct {
	store   AlertStore
	rels    RelationshipChecker
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewAlertHandler creates a new handler
func NewAlertHandler(store AlertStore, rels RelationshipChecker, m *metrics.Metrics, logger *zap.Logger) *AlertHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlertHandler{store: store, rels: rels, metrics: m, logger: logger}
}

// Routes returns the handler routes, mounted under /patients/{patientID}/alerts
func (h *AlertHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Raise)
	r.Post("/{alertID}/resolve", h.Resolve)
	return r
}

func (h *AlertHandler) authorize(w http.ResponseWriter, r *http.Request) (string, bool) {
	return authorizePatient(w, r, h.rels, h.logger)
}

// List handles GET /patients/{patientID}/alerts, returning the triaged view
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	// Read failures degrade to an empty triage board, logged.
	alerts, err := h.store.ListAlerts(r.Context(), patientID)
	if err != nil {
		h.logger.Error("list alerts failed", zap.Error(err))
	}

	writeJSON(w, http.StatusOK, clinical.TriageAlerts(alerts))
}

// RaiseRequest is the request body for raising an alert
type RaiseRequest struct {
	Type              clinical.AlertType     `json:"type"`
	Category          clinical.AlertCategory `json:"category"`
	Title             string                 `json:"title"`
	Description       string                 `json:"description,omitempty"`
	Count             int                    `json:"count,omitempty"`
	RecommendedAction string                 `json:"recommended_action,omitempty"`
}

// Raise handles POST /patients/{patientID}/alerts
func (h *AlertHandler) Raise(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.authorize(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	tracer := otel.Tracer("alert-handler")
	ctx, span := tracer.Start(ctx, "raise_alert")
	defer span.End()

	var req RaiseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	switch req.Category {
	case clinical.CategoryRed, clinical.CategoryYellow, clinical.CategoryGreen:
	default:
		jsonError(w, "category must be red, yellow or green", http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		jsonError(w, "title is required", http.StatusBadRequest)
		return
	}

	alert, err := h.store.RaiseAlert(ctx, clinical.SafetyAlert{
		PatientID:         patientID,
		Type:              req.Type,
		Category:          req.Category,
		Title:             req.Title,
		Description:       req.Description,
		Count:             req.Count,
		RecommendedAction: req.RecommendedAction,
	})
	if err != nil {
		h.logger.Error("raise alert failed", zap.Error(err))
		jsonError(w, "failed to raise alert", http.StatusInternalServerError)
		return
	}
	span.SetAttributes(attribute.String("alert_id", alert.ID))
	if h.metrics != nil {
		h.metrics.AlertsRaised.WithLabelValues(string(alert.Category)).Inc()
	}

	writeJSON(w, http.StatusCreated, alert)
}

// Resolve handles POST /patients/{patientID}/alerts/{alertID}/resolve
func (h *AlertHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.authorize(w, r)
	if !ok {
		return
	}
	alertID := chi.URLParam(r, "alertID")

	alert, err := h.store.ResolveAlert(r.Context(), patientID, alertID)
	if errors.Is(err, clinical.ErrAlertNotFound) {
		jsonError(w, "alert not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("resolve alert failed", zap.Error(err))
		jsonError(w, "failed to resolve alert", http.StatusInternalServerError)
		return
	}
	if h.metrics != nil {
		h.metrics.AlertsResolved.Inc()
	}

	writeJSON(w, http.StatusOK, alert)
}
