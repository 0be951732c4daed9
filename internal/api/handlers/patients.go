package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/carecompanion/go-care/internal/api/middleware"
	"github.com/carecompanion/go-care/internal/domain/clinical"
	"github.com/carecompanion/go-care/internal/domain/patient"
	"github.com/carecompanion/go-care/internal/observability/metrics"
)

// PatientStore is the persistence surface the patient handler needs.
type PatientStore interface {
	Create(ctx context.Context, caregiverID string, input patient.NewPatient) (*patient.Patient, error)
	ListByCaregiver(ctx context.Context, caregiverID string) ([]patient.Patient, error)
	GetByID(ctx context.Context, caregiverID, patientID string) (*patient.Patient, error)
	RemoveFromRoster(ctx context.Context, caregiverID, patientID string) error
	AddNote(ctx context.Context, authorID, patientID, body string) (*patient.Note, error)
	ListNotes(ctx context.Context, authorID, patientID string) ([]patient.Note, error)
}

// AlertLister supplies alerts for the roster status roll-up.
type AlertLister interface {
	ListAlerts(ctx context.Context, patientID string) ([]clinical.SafetyAlert, error)
}

// PatientHandler handles patient and note endpoints
type PatientHandler struct {
	store   PatientStore
	alerts  AlertLister
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewPatientHandler creates a new handler
func NewPatientHandler(store PatientStore, alerts AlertLister, m *metrics.Metrics, logger *zap.Logger) *PatientHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PatientHandler{store: store, alerts: alerts, metrics: m, logger: logger}
}

// Create handles POST /patients
func (h *PatientHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tracer := otel.Tracer("patient-handler")
	ctx, span := tracer.Start(ctx, "create_patient")
	defer span.End()

	caregiverID := middleware.GetUserID(ctx)

	var req patient.NewPatient
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.DisplayName) == "" {
		jsonError(w, "display_name is required", http.StatusBadRequest)
		return
	}

	p, err := h.store.Create(ctx, caregiverID, req)
	if err != nil {
		h.logger.Error("create patient failed", zap.Error(err))
		jsonError(w, "failed to create patient", http.StatusInternalServerError)
		return
	}
	span.SetAttributes(attribute.String("patient_id", p.ID))
	if h.metrics != nil {
		h.metrics.PatientsCreated.Inc()
	}

	h.logger.Info("patient created",
		zap.String("patient_id", p.ID),
		zap.String("request_id", middleware.GetRequestID(ctx)))

	writeJSON(w, http.StatusCreated, p)
}

// rosterEntry is a patient plus the alert roll-up badge.
type rosterEntry struct {
	patient.Patient
	Status clinical.RosterStatus `json:"status"`
}

// List handles GET /patients
func (h *PatientHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caregiverID := middleware.GetUserID(ctx)

	// Read failures degrade to an empty roster rather than an error page.
	patients, err := h.store.ListByCaregiver(ctx, caregiverID)
	if err != nil {
		h.logger.Error("list patients failed", zap.Error(err))
		writeJSON(w, http.StatusOK, []rosterEntry{})
		return
	}

	roster := make([]rosterEntry, 0, len(patients))
	for _, p := range patients {
		entry := rosterEntry{Patient: p, Status: clinical.RosterStable}
		if h.alerts != nil {
			alerts, err := h.alerts.ListAlerts(ctx, p.ID)
			if err != nil {
				h.logger.Error("roster alert lookup failed",
					zap.String("patient_id", p.ID), zap.Error(err))
			} else {
				entry.Status = clinical.RosterStatusFor(alerts)
			}
		}
		roster = append(roster, entry)
	}

	writeJSON(w, http.StatusOK, roster)
}

// Get handles GET /patients/{patientID}
func (h *PatientHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caregiverID := middleware.GetUserID(ctx)
	patientID := chi.URLParam(r, "patientID")

	p, err := h.store.GetByID(ctx, caregiverID, patientID)
	if errors.Is(err, patient.ErrNotFound) {
		jsonError(w, "patient not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("get patient failed", zap.Error(err))
		jsonError(w, "failed to get patient", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// Remove handles DELETE /patients/{patientID}
func (h *PatientHandler) Remove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caregiverID := middleware.GetUserID(ctx)
	patientID := chi.URLParam(r, "patientID")

	err := h.store.RemoveFromRoster(ctx, caregiverID, patientID)
	if errors.Is(err, patient.ErrNotFound) {
		jsonError(w, "patient not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("remove patient failed", zap.Error(err))
		jsonError(w, "failed to remove patient", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// NoteRequest is the request body for adding a note
type NoteRequest struct {
	Body string `json:"body"`
}

// AddNote handles POST /patients/{patientID}/notes
func (h *PatientHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caregiverID := middleware.GetUserID(ctx)
	patientID := chi.URLParam(r, "patientID")

	var req NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Body) == "" {
		jsonError(w, "body is required", http.StatusBadRequest)
		return
	}

	n, err := h.store.AddNote(ctx, caregiverID, patientID, req.Body)
	if errors.Is(err, patient.ErrNotFound) {
		jsonError(w, "patient not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("add note failed", zap.Error(err))
		jsonError(w, "failed to add note", http.StatusInternalServerError)
		return
	}
	if h.metrics != nil {
		h.metrics.NotesCreated.Inc()
	}

	writeJSON(w, http.StatusCreated, n)
}

// ListNotes handles GET /patients/{patientID}/notes
func (h *PatientHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caregiverID := middleware.GetUserID(ctx)
	patientID := chi.URLParam(r, "patientID")

	notes, err := h.store.ListNotes(ctx, caregiverID, patientID)
	if err != nil {
		h.logger.Error("list notes failed", zap.Error(err))
	}
	if notes == nil {
		notes = []patient.Note{}
	}

	writeJSON(w, http.StatusOK, notes)
}
