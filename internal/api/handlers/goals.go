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
)

// GoalStore is the persistence surface the goal handler needs.
type GoalStore interface {
	CreateGoal(ctx context.Context, g clinical.Goal) (*clinical.Goal, error)
	ListGoals(ctx context.Context, patientID string) ([]clinical.Goal, error)
	UpdateGoalProgress(ctx context.Context, patientID, goalID string, progress int, status string) error
	CompleteMilestone(ctx context.Context, patientID, goalID, milestoneID string) (*clinical.Goal, error)
}

// GoalHandler handles therapeutic goal endpoints
type GoalHandler struct {
	store  GoalStore
	rels   RelationshipChecker
	logger *zap.Logger
}

// NewGoalHandler creates a new handler
func NewGoalHandler(store GoalStore, rels RelationshipChecker, logger *zap.Logger) *GoalHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoalHandler{store: store, rels: rels, logger: logger}
}

// Routes returns the handler routes, mounted under /patients/{patientID}/goals
func (h *GoalHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Patch("/{goalID}", h.UpdateProgress)
	r.Post("/{goalID}/milestones/{milestoneID}/complete", h.CompleteMilestone)
	return r
}

func (h *GoalHandler) authorize(w http.ResponseWriter, r *http.Request) (string, bool) {
	return authorizePatient(w, r, h.rels, h.logger)
}

// goalView pairs a goal with its computed milestone completion share. The
// clinician-entered progress value stays untouched next to it.
type goalView struct {
	clinical.Goal
	MilestoneRatio int `json:"milestone_ratio"`
}

// Create handles POST /patients/{patientID}/goals
func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req clinical.Goal
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		jsonError(w, "title is required", http.StatusBadRequest)
		return
	}
	req.PatientID = patientID
	req.CreatedBy = middleware.GetUserID(r.Context())

	g, err := h.store.CreateGoal(r.Context(), req)
	if err != nil {
		h.logger.Error("create goal failed", zap.Error(err))
		jsonError(w, "failed to create goal", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, goalView{Goal: *g, MilestoneRatio: clinical.MilestoneRatio(*g)})
}

// List handles GET /patients/{patientID}/goals
func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	goals, err := h.store.ListGoals(r.Context(), patientID)
	if err != nil {
		h.logger.Error("list goals failed", zap.Error(err))
	}

	views := make([]goalView, 0, len(goals))
	for _, g := range goals {
		views = append(views, goalView{Goal: g, MilestoneRatio: clinical.MilestoneRatio(g)})
	}
	writeJSON(w, http.StatusOK, views)
}

// ProgressRequest is the request body for updating goal progress
type ProgressRequest struct {
	Progress int    `json:"progress"`
	Status   string `json:"status"`
}

// UpdateProgress handles PATCH /patients/{patientID}/goals/{goalID}
func (h *GoalHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.authorize(w, r)
	if !ok {
		return
	}
	goalID := chi.URLParam(r, "goalID")

	var req ProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Status == "" {
		req.Status = "active"
	}
	if req.Progress < 0 || req.Progress > 100 {
		jsonError(w, "progress must be between 0 and 100", http.StatusBadRequest)
		return
	}

	err := h.store.UpdateGoalProgress(r.Context(), patientID, goalID, req.Progress, req.Status)
	if errors.Is(err, clinical.ErrGoalNotFound) {
		jsonError(w, "goal not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("update goal failed", zap.Error(err))
		jsonError(w, "failed to update goal", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CompleteMilestone handles POST /patients/{patientID}/goals/{goalID}/milestones/{milestoneID}/complete
func (h *GoalHandler) CompleteMilestone(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.authorize(w, r)
	if !ok {
		return
	}
	goalID := chi.URLParam(r, "goalID")
	milestoneID := chi.URLParam(r, "milestoneID")

	g, err := h.store.CompleteMilestone(r.Context(), patientID, goalID, milestoneID)
	if errors.Is(err, clinical.ErrGoalNotFound) {
		jsonError(w, "goal not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("complete milestone failed", zap.Error(err))
		jsonError(w, "failed to complete milestone", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, goalView{Goal: *g, MilestoneRatio: clinical.MilestoneRatio(*g)})
}
