package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/carecompanion/go-care/internal/domain/clinical"
	"github.com/carecompanion/go-care/internal/infrastructure/rediscache"
	"github.com/carecompanion/go-care/internal/observability/metrics"
)

// DashboardStore supplies the raw records the stats are rolled up from.
type DashboardStore interface {
	ListTasks(ctx context.Context, patientID string) ([]clinical.Task, error)
	ListMedicationLogs(ctx context.Context, patientID string) ([]clinical.MedicationLog, error)
	ListMoods(ctx context.Context, patientID string) ([]clinical.MoodEntry, error)
	ListBehaviors(ctx context.Context, patientID string) ([]clinical.BehaviorLog, error)
}

// StatsCache is the caching surface for computed dashboards.
type StatsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}) error
}

// DashboardHandler serves the per-patient dashboard roll-up
type DashboardHandler struct {
	store   DashboardStore
	cache   StatsCache
	rels    RelationshipChecker
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewDashboardHandler creates a new handler. cache may be nil, stats are
// then computed on every request.
func NewDashboardHandler(store DashboardStore, cache StatsCache, rels RelationshipChecker, m *metrics.Metrics, logger *zap.Logger) *DashboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardHandler{store: store, cache: cache, rels: rels, metrics: m, logger: logger}
}

// Routes returns the handler routes, mounted under /patients/{patientID}/dashboard
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Get)
	return r
}

// Get handles GET /patients/{patientID}/dashboard
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	patientID, ok := authorizePatient(w, r, h.rels, h.logger)
	if !ok {
		return
	}
	ctx := r.Context()

	if h.cache != nil {
		var cached clinical.DashboardStats
		err := h.cache.Get(ctx, rediscache.DashboardKey(patientID), &cached)
		if err == nil {
			if h.metrics != nil {
				h.metrics.DashboardCacheHits.Inc()
			}
			writeJSON(w, http.StatusOK, cached)
			return
		}
		if !errors.Is(err, rediscache.ErrMiss) {
			// Cache trouble is not worth a 500, fall through to compute.
			h.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
		if h.metrics != nil {
			h.metrics.DashboardCacheMisses.Inc()
		}
	}

	stats := h.compute(ctx, patientID)

	if h.cache != nil {
		if err := h.cache.Set(ctx, rediscache.DashboardKey(patientID), stats); err != nil {
			h.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, stats)
}

// compute rolls the stats up from the raw collections. Each read failure
// degrades that collection to empty, logged, so the dashboard always loads.
func (h *DashboardHandler) compute(ctx context.Context, patientID string) clinical.DashboardStats {
	tasks, err := h.store.ListTasks(ctx, patientID)
	if err != nil {
		h.logger.Error("dashboard task read failed", zap.Error(err))
	}
	medLogs, err := h.store.ListMedicationLogs(ctx, patientID)
	if err != nil {
		h.logger.Error("dashboard medication read failed", zap.Error(err))
	}
	moods, err := h.store.ListMoods(ctx, patientID)
	if err != nil {
		h.logger.Error("dashboard mood read failed", zap.Error(err))
	}
	behaviors, err := h.store.ListBehaviors(ctx, patientID)
	if err != nil {
		h.logger.Error("dashboard behavior read failed", zap.Error(err))
	}

	return clinical.BuildDashboardStats(patientID, tasks, medLogs, moods, behaviors, time.Now().UTC())
}
