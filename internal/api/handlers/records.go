package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/carecompanion/go-care/internal/api/middleware"
	"github.com/carecompanion/go-care/internal/domain/clinical"
	"github.com/carecompanion/go-care/internal/infrastructure/rediscache"
	"github.com/carecompanion/go-care/internal/scoring"
)

// RecordStore is the persistence surface for day-to-day care records.
type RecordStore interface {
	AddMood(ctx context.Context, m clinical.MoodEntry) (*clinical.MoodEntry, error)
	ListMoods(ctx context.Context, patientID string) ([]clinical.MoodEntry, error)
	AddBehavior(ctx context.Context, b clinical.BehaviorLog) (*clinical.BehaviorLog, error)
	ListBehaviors(ctx context.Context, patientID string) ([]clinical.BehaviorLog, error)
	CreateTask(ctx context.Context, t clinical.Task) (*clinical.Task, error)
	ListTasks(ctx context.Context, patientID string) ([]clinical.Task, error)
	SetTaskStatus(ctx context.Context, patientID, taskID, status string) error
	AddMedicationLog(ctx context.Context, m clinical.MedicationLog) (*clinical.MedicationLog, error)
	ListMedicationLogs(ctx context.Context, patientID string) ([]clinical.MedicationLog, error)
	CreateAppointment(ctx context.Context, ap clinical.Appointment) (*clinical.Appointment, error)
	ListAppointments(ctx context.Context, patientID string) ([]clinical.Appointment, error)
	GetCaregiverStatus(ctx context.Context, caregiverID, patientID string) (*clinical.CaregiverStatus, error)
	PutCaregiverStatus(ctx context.Context, s clinical.CaregiverStatus) (*clinical.CaregiverStatus, error)
}

// StatusScorer proposes a burnout tier from a snapshot, falling back to the
// stored tier when the scoring service is down.
type StatusScorer interface {
	ScoreWithFallback(ctx context.Context, in scoring.Input, stored clinical.CaregiverStatus) (scoring.Assessment, error)
}

// StatsInvalidator drops a cached dashboard when its inputs change.
type StatsInvalidator interface {
	Invalidate(ctx context.Context, key string) error
}

// RecordHandler handles mood, behavior, task, medication, appointment and
// caregiver status endpoints.
type RecordHandler struct {
	store  RecordStore
	rels   RelationshipChecker
	scorer StatusScorer
	cache  StatsInvalidator
	logger *zap.Logger
}

// NewRecordHandler creates a new handler. scorer may be nil, in which case
// check-ins keep their client-supplied tier. cache may be nil.
func NewRecordHandler(store RecordStore, rels RelationshipChecker, scorer StatusScorer, cache StatsInvalidator, logger *zap.Logger) *RecordHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordHandler{store: store, rels: rels, scorer: scorer, cache: cache, logger: logger}
}

// invalidateStats drops the patient's cached dashboard. Failures are logged
// only, the cache entry expires on its own TTL anyway.
func (h *RecordHandler) invalidateStats(ctx context.Context, patientID string) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Invalidate(ctx, rediscache.DashboardKey(patientID)); err != nil {
		h.logger.Warn("dashboard cache invalidation failed",
			zap.String("patient_id", patientID), zap.Error(err))
	}
}

// Register wires the record routes onto a patient-scoped router. The routes
// sit directly on the {patientID} node next to the other patient routes, so
// registration replaces a root-level mount here.
func (h *RecordHandler) Register(r chi.Router) {
	r.Post("/moods", h.AddMood)
	r.Get("/moods", h.ListMoods)
	r.Post("/behaviors", h.AddBehavior)
	r.Get("/behaviors", h.ListBehaviors)
	r.Post("/tasks", h.CreateTask)
	r.Get("/tasks", h.ListTasks)
	r.Patch("/tasks/{taskID}", h.SetTaskStatus)
	r.Post("/medications", h.AddMedicationLog)
	r.Get("/medications", h.ListMedicationLogs)
	r.Post("/appointments", h.CreateAppointment)
	r.Get("/appointments", h.ListAppointments)
	r.Get("/caregiver-status", h.GetStatus)
	r.Put("/caregiver-status", h.PutStatus)
}

func (h *RecordHandler) authorize(w http.ResponseWriter, r *http.Request) (string, bool) {
	return authorizePatient(w, r, h.rels, h.logger)
}

// AddMood handles POST /patients/{patientID}/moods
func (h *RecordHandler) AddMood(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req clinical.MoodEntry
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Mood == "" {
		jsonError(w, "mood is required", http.StatusBadRequest)
		return
	}
	req.PatientID = patientID
	req.RecordedBy = middleware.GetUserID(r.Context())

	m, err := h.store.AddMood(r.Context(), req)
	if err != nil {
		h.logger.Error("add mood failed", zap.Error(err))
		jsonError(w, "failed to add mood entry", http.StatusInternalServerError)
		return
	}
	h.invalidateStats(r.Context(), patientID)
	writeJSON(w, http.StatusCreated, m)
}

// ListMoods handles GET /patients/{patientID}/moods
func (h *RecordHandler) ListMoods(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	// Read failures degrade to an empty list, matching the dashboard's
	// loading-complete empty state.
	moods, err := h.store.ListMoods(r.Context(), patientID)
	if err != nil {
		h.logger.Error("list moods failed", zap.Error(err))
	}
	if moods == nil {
		moods = []clinical.MoodEntry{}
	}
	writeJSON(w, http.StatusOK, moods)
}

// AddBehavior handles POST /patients/{patientID}/behaviors
func (h *RecordHandler) AddBehavior(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req clinical.BehaviorLog
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Behavior == "" {
		jsonError(w, "behavior is required", http.StatusBadRequest)
		return
	}
	req.PatientID = patientID
	req.RecordedBy = middleware.GetUserID(r.Context())

	b, err := h.store.AddBehavior(r.Context(), req)
	if err != nil {
		h.logger.Error("add behavior failed", zap.Error(err))
		jsonError(w, "failed to add behavior log", http.StatusInternalServerError)
		return
	}
	h.invalidateStats(r.Context(), patientID)
	writeJSON(w, http.StatusCreated, b)
}

// ListBehaviors handles GET /patients/{patientID}/behaviors
func (h *RecordHandler) ListBehaviors(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	behaviors, err := h.store.ListBehaviors(r.Context(), patientID)
	if err != nil {
		h.logger.Error("list behaviors failed", zap.Error(err))
	}
	if behaviors == nil {
		behaviors = []clinical.BehaviorLog{}
	}
	writeJSON(w, http.StatusOK, behaviors)
}

// CreateTask handles POST /patients/{patientID}/tasks
func (h *RecordHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req clinical.Task
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		jsonError(w, "title is required", http.StatusBadRequest)
		return
	}
	req.PatientID = patientID

	t, err := h.store.CreateTask(r.Context(), req)
	if err != nil {
		h.logger.Error("create task failed", zap.Error(err))
		jsonError(w, "failed to create task", http.StatusInternalServerError)
		return
	}
	h.invalidateStats(r.Context(), patientID)
	writeJSON(w, http.StatusCreated, t)
}

// ListTasks handles GET /patients/{patientID}/tasks
func (h *RecordHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	tasks, err := h.store.ListTasks(r.Context(), patientID)
	if err != nil {
		h.logger.Error("list tasks failed", zap.Error(err))
	}
	if tasks == nil {
		tasks = []clinical.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

// TaskStatusRequest is the request body for transitioning a task
type TaskStatusRequest struct {
	Status string `json:"status"`
}

// SetTaskStatus handles PATCH /patients/{patientID}/tasks/{taskID}
func (h *RecordHandler) SetTaskStatus(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.authorize(w, r)
	if !ok {
		return
	}
	taskID := chi.URLParam(r, "taskID")

	var req TaskStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	switch req.Status {
	case clinical.TaskPending, clinical.TaskCompleted, clinical.TaskSkipped:
	default:
		jsonError(w, "status must be pending, completed or skipped", http.StatusBadRequest)
		return
	}

	err := h.store.SetTaskStatus(r.Context(), patientID, taskID, req.Status)
	if errors.Is(err, clinical.ErrTaskNotFound) {
		jsonError(w, "task not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("set task status failed", zap.Error(err))
		jsonError(w, "failed to update task", http.StatusInternalServerError)
		return
	}
	h.invalidateStats(r.Context(), patientID)
	w.WriteHeader(http.StatusNoContent)
}

// AddMedicationLog handles POST /patients/{patientID}/medications
func (h *RecordHandler) AddMedicationLog(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req clinical.MedicationLog
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.MedicationName == "" {
		jsonError(w, "medication_name is required", http.StatusBadRequest)
		return
	}
	req.PatientID = patientID
	req.RecordedBy = middleware.GetUserID(r.Context())

	m, err := h.store.AddMedicationLog(r.Context(), req)
	if err != nil {
		h.logger.Error("add medication log failed", zap.Error(err))
		jsonError(w, "failed to add medication log", http.StatusInternalServerError)
		return
	}
	h.invalidateStats(r.Context(), patientID)
	writeJSON(w, http.StatusCreated, m)
}

// ListMedicationLogs handles GET /patients/{patientID}/medications
func (h *RecordHandler) ListMedicationLogs(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	logs, err := h.store.ListMedicationLogs(r.Context(), patientID)
	if err != nil {
		h.logger.Error("list medication logs failed", zap.Error(err))
	}
	if logs == nil {
		logs = []clinical.MedicationLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

// CreateAppointment handles POST /patients/{patientID}/appointments
func (h *RecordHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req clinical.Appointment
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		jsonError(w, "title is required", http.StatusBadRequest)
		return
	}
	if req.ScheduledAt.IsZero() {
		jsonError(w, "scheduled_at is required", http.StatusBadRequest)
		return
	}
	req.PatientID = patientID

	ap, err := h.store.CreateAppointment(r.Context(), req)
	if err != nil {
		h.logger.Error("create appointment failed", zap.Error(err))
		jsonError(w, "failed to create appointment", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, ap)
}

// ListAppointments handles GET /patients/{patientID}/appointments
func (h *RecordHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	appointments, err := h.store.ListAppointments(r.Context(), patientID)
	if err != nil {
		h.logger.Error("list appointments failed", zap.Error(err))
	}
	if appointments == nil {
		appointments = []clinical.Appointment{}
	}
	writeJSON(w, http.StatusOK, appointments)
}

// GetStatus handles GET /patients/{patientID}/caregiver-status
func (h *RecordHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.authorize(w, r)
	if !ok {
		return
	}
	caregiverID := middleware.GetUserID(r.Context())

	s, err := h.store.GetCaregiverStatus(r.Context(), caregiverID, patientID)
	if errors.Is(err, clinical.ErrStatusNotFound) {
		jsonError(w, "caregiver status not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("get caregiver status failed", zap.Error(err))
		jsonError(w, "failed to get caregiver status", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, clinical.ViewStatus(*s, time.Now().UTC()))
}

// CheckInRequest is the request body for a caregiver check-in.
type CheckInRequest struct {
	StressLevel            string            `json:"stress_level"`
	SupportSystemStrength  string            `json:"support_system_strength"`
	HoursOfCareThisWeek    int               `json:"hours_of_care_this_week"`
	NightsInterruptedSleep int               `json:"nights_interrupted_sleep"`
	EmergencyCallsMade     int               `json:"emergency_calls_made"`
	LastRespiteBreak       time.Time         `json:"last_respite_break"`
	BurnoutRisk            clinical.RiskTier `json:"burnout_risk,omitempty"`
	RecommendedActions     []string          `json:"recommended_actions,omitempty"`
}

// PutStatus handles PUT /patients/{patientID}/caregiver-status. When a
// scorer is wired, its verdict replaces the client-supplied tier; on scorer
// outage the previously stored tier is kept.
func (h *RecordHandler) PutStatus(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.authorize(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	caregiverID := middleware.GetUserID(ctx)

	var req CheckInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	now := time.Now().UTC()
	status := clinical.CaregiverStatus{
		CaregiverID:            caregiverID,
		PatientID:              patientID,
		StressLevel:            req.StressLevel,
		SupportSystemStrength:  req.SupportSystemStrength,
		HoursOfCareThisWeek:    req.HoursOfCareThisWeek,
		NightsInterruptedSleep: req.NightsInterruptedSleep,
		EmergencyCallsMade:     req.EmergencyCallsMade,
		LastRespiteBreak:       req.LastRespiteBreak,
		LastCheckIn:            now,
		BurnoutRisk:            req.BurnoutRisk,
		RecommendedActions:     req.RecommendedActions,
	}
	if status.BurnoutRisk == "" {
		status.BurnoutRisk = clinical.RiskLow
	}

	if h.scorer != nil {
		stored := status
		if prev, err := h.store.GetCaregiverStatus(ctx, caregiverID, patientID); err == nil {
			stored = *prev
		}
		verdict, err := h.scorer.ScoreWithFallback(ctx, scoring.Input{
			StressLevel:            status.StressLevel,
			SupportSystemStrength:  status.SupportSystemStrength,
			HoursOfCareThisWeek:    status.HoursOfCareThisWeek,
			NightsInterruptedSleep: status.NightsInterruptedSleep,
			EmergencyCallsMade:     status.EmergencyCallsMade,
			DaysSinceRespite:       clinical.DaysSinceRespite(now, status.LastRespiteBreak),
		}, stored)
		if err != nil {
			h.logger.Error("burnout scoring failed", zap.Error(err))
			jsonError(w, "failed to score check-in", http.StatusInternalServerError)
			return
		}
		status.BurnoutRisk = verdict.Tier
		if len(verdict.RecommendedActions) > 0 {
			status.RecommendedActions = verdict.RecommendedActions
		}
	}

	saved, err := h.store.PutCaregiverStatus(ctx, status)
	if err != nil {
		h.logger.Error("put caregiver status failed", zap.Error(err))
		jsonError(w, "failed to save caregiver status", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, clinical.ViewStatus(*saved, now))
}
