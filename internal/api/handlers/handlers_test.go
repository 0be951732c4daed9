package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carecompanion/go-care/internal/api/middleware"
	"github.com/carecompanion/go-care/internal/domain/clinical"
	"github.com/carecompanion/go-care/internal/domain/patient"
)

var jwtSecret = []byte("handlers-test-secret")

// stubPatientStore records calls so tests can assert nothing was written.
type stubPatientStore struct {
	patients []patient.Patient
	notes    []patient.Note
	writes   int
}

func (s *stubPatientStore) Create(_ context.Context, caregiverID string, input patient.NewPatient) (*patient.Patient, error) {
	s.writes++
	p := patient.Patient{ID: "p-new", DisplayName: input.DisplayName, CreatedBy: caregiverID}
	s.patients = append(s.patients, p)
	return &p, nil
}

func (s *stubPatientStore) ListByCaregiver(context.Context, string) ([]patient.Patient, error) {
	return s.patients, nil
}

func (s *stubPatientStore) GetByID(_ context.Context, _, patientID string) (*patient.Patient, error) {
	for _, p := range s.patients {
		if p.ID == patientID {
			return &p, nil
		}
	}
	return nil, patient.ErrNotFound
}

func (s *stubPatientStore) RemoveFromRoster(_ context.Context, _, patientID string) error {
	for i, p := range s.patients {
		if p.ID == patientID {
			s.patients = append(s.patients[:i], s.patients[i+1:]...)
			return nil
		}
	}
	return patient.ErrNotFound
}

func (s *stubPatientStore) AddNote(_ context.Context, authorID, patientID, body string) (*patient.Note, error) {
	s.writes++
	n := patient.Note{ID: "n-1", PatientID: patientID, AuthorID: authorID, Body: body}
	s.notes = append(s.notes, n)
	return &n, nil
}

func (s *stubPatientStore) ListNotes(context.Context, string, string) ([]patient.Note, error) {
	return s.notes, nil
}

type stubRels struct{ allowed map[string]bool }

func (s *stubRels) HasRelationship(_ context.Context, _, patientID string) (bool, error) {
	return s.allowed[patientID], nil
}

type stubAlertStore struct {
	alerts []clinical.SafetyAlert
}

func (s *stubAlertStore) ListAlerts(context.Context, string) ([]clinical.SafetyAlert, error) {
	return s.alerts, nil
}

func (s *stubAlertStore) RaiseAlert(_ context.Context, a clinical.SafetyAlert) (*clinical.SafetyAlert, error) {
	a.ID = "a-new"
	a.CreatedAt = time.Now()
	s.alerts = append(s.alerts, a)
	return &a, nil
}

func (s *stubAlertStore) ResolveAlert(_ context.Context, _, alertID string) (*clinical.SafetyAlert, error) {
	for i := range s.alerts {
		if s.alerts[i].ID == alertID {
			s.alerts[i].IsResolved = true
			return &s.alerts[i], nil
		}
	}
	return nil, clinical.ErrAlertNotFound
}

type stubAssessmentStore struct{}

func (s *stubAssessmentStore) RecordAssessment(_ context.Context, a clinical.ADLAssessment) (*clinical.ADLAssessment, *clinical.DeclineReport, error) {
	if err := clinical.ValidateSubscores(a); err != nil {
		return nil, nil, err
	}
	return &a, &clinical.DeclineReport{}, nil
}

func (s *stubAssessmentStore) ListAssessments(context.Context, string) ([]clinical.ADLAssessment, error) {
	return nil, nil
}

type stubGoalStore struct{}

func (s *stubGoalStore) CreateGoal(_ context.Context, g clinical.Goal) (*clinical.Goal, error) {
	return &g, nil
}

func (s *stubGoalStore) ListGoals(context.Context, string) ([]clinical.Goal, error) {
	return nil, nil
}

func (s *stubGoalStore) UpdateGoalProgress(context.Context, string, string, int, string) error {
	return nil
}

func (s *stubGoalStore) CompleteMilestone(context.Context, string, string, string) (*clinical.Goal, error) {
	return nil, clinical.ErrGoalNotFound
}

// stubRecordStore satisfies both RecordStore and DashboardStore.
type stubRecordStore struct{}

func (s *stubRecordStore) AddMood(_ context.Context, m clinical.MoodEntry) (*clinical.MoodEntry, error) {
	return &m, nil
}

func (s *stubRecordStore) ListMoods(context.Context, string) ([]clinical.MoodEntry, error) {
	return nil, nil
}

func (s *stubRecordStore) AddBehavior(_ context.Context, b clinical.BehaviorLog) (*clinical.BehaviorLog, error) {
	return &b, nil
}

func (s *stubRecordStore) ListBehaviors(context.Context, string) ([]clinical.BehaviorLog, error) {
	return nil, nil
}

func (s *stubRecordStore) CreateTask(_ context.Context, tk clinical.Task) (*clinical.Task, error) {
	return &tk, nil
}

func (s *stubRecordStore) ListTasks(context.Context, string) ([]clinical.Task, error) {
	return nil, nil
}

func (s *stubRecordStore) SetTaskStatus(context.Context, string, string, string) error {
	return nil
}

func (s *stubRecordStore) AddMedicationLog(_ context.Context, m clinical.MedicationLog) (*clinical.MedicationLog, error) {
	return &m, nil
}

func (s *stubRecordStore) ListMedicationLogs(context.Context, string) ([]clinical.MedicationLog, error) {
	return nil, nil
}

func (s *stubRecordStore) CreateAppointment(_ context.Context, ap clinical.Appointment) (*clinical.Appointment, error) {
	return &ap, nil
}

func (s *stubRecordStore) ListAppointments(context.Context, string) ([]clinical.Appointment, error) {
	return nil, nil
}

func (s *stubRecordStore) GetCaregiverStatus(context.Context, string, string) (*clinical.CaregiverStatus, error) {
	return nil, clinical.ErrStatusNotFound
}

func (s *stubRecordStore) PutCaregiverStatus(_ context.Context, st clinical.CaregiverStatus) (*clinical.CaregiverStatus, error) {
	return &st, nil
}

// newTestRouter builds the same composed router shape the service runs, so
// route reachability problems surface here and not in production.
func newTestRouter(t *testing.T, store *stubPatientStore, alerts *stubAlertStore, rels *stubRels) http.Handler {
	t.Helper()
	if alerts == nil {
		alerts = &stubAlertStore{}
	}
	if rels == nil {
		rels = &stubRels{}
	}
	records := &stubRecordStore{}

	r := chi.NewRouter()
	r.Use(middleware.BearerAuth(jwtSecret))
	r.Mount("/", APIRouter(
		NewPatientHandler(store, alerts, nil, nil),
		NewAlertHandler(alerts, rels, nil, nil),
		NewAssessmentHandler(&stubAssessmentStore{}, rels, nil, nil),
		NewGoalHandler(&stubGoalStore{}, rels, nil),
		NewDashboardHandler(records, nil, rels, nil, nil),
		NewRecordHandler(records, rels, nil, nil, nil),
	))
	return r
}

func authedRequest(t *testing.T, method, target, body string) *http.Request {
	t.Helper()
	token, err := middleware.IssueToken(jwtSecret, "cg-1", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestAddNoteUnauthenticatedWritesNothing(t *testing.T) {
	store := &stubPatientStore{}
	h := newTestRouter(t, store, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/patients/p-1/notes", strings.NewReader(`{"body":"had a calm morning"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if store.writes != 0 {
		t.Errorf("store saw %d writes, want 0", store.writes)
	}
}

func TestCreatePatientRequiresDisplayName(t *testing.T) {
	store := &stubPatientStore{}
	h := newTestRouter(t, store, nil, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/patients", `{"display_name":"  "}`))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if store.writes != 0 {
		t.Errorf("store saw %d writes, want 0", store.writes)
	}
}

func TestGetPatientNotOnRoster(t *testing.T) {
	store := &stubPatientStore{patients: []patient.Patient{{ID: "p-1", DisplayName: "Rose"}}}
	h := newTestRouter(t, store, nil, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodGet, "/patients/p-other", ""))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestPatientRoutesReachableNextToScopedSubtrees(t *testing.T) {
	store := &stubPatientStore{patients: []patient.Patient{{ID: "p-1", DisplayName: "Rose"}}}
	rels := &stubRels{allowed: map[string]bool{"p-1": true}}
	h := newTestRouter(t, store, &stubAlertStore{}, rels)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodGet, "/patients/p-1", ""))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /patients/p-1 = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/patients/p-1/notes", `{"body":"slept well"}`))
	if rec.Code != http.StatusCreated {
		t.Errorf("POST /patients/p-1/notes = %d, want 201", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodGet, "/patients/p-1/moods", ""))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /patients/p-1/moods = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodGet, "/patients/p-1/dashboard", ""))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /patients/p-1/dashboard = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodDelete, "/patients/p-1", ""))
	if rec.Code != http.StatusNoContent {
		t.Errorf("DELETE /patients/p-1 = %d, want 204", rec.Code)
	}
}

type countingGoalStore struct {
	stubGoalStore
	progressUpdates int
}

func (s *countingGoalStore) UpdateGoalProgress(ctx context.Context, patientID, goalID string, progress int, status string) error {
	s.progressUpdates++
	return s.stubGoalStore.UpdateGoalProgress(ctx, patientID, goalID, progress, status)
}

func TestUpdateGoalProgressValidatesRange(t *testing.T) {
	store := &countingGoalStore{}
	rels := &stubRels{allowed: map[string]bool{"p-1": true}}

	r := chi.NewRouter()
	r.Use(middleware.BearerAuth(jwtSecret))
	r.Route("/patients/{patientID}", func(r chi.Router) {
		r.Mount("/goals", NewGoalHandler(store, rels, nil).Routes())
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, authedRequest(t, http.MethodPatch, "/patients/p-1/goals/g-1", `{"progress":150}`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("progress 150: status = %d, want 400", rec.Code)
	}
	if store.progressUpdates != 0 {
		t.Errorf("progress 150 reached the store %d times, want 0", store.progressUpdates)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, authedRequest(t, http.MethodPatch, "/patients/p-1/goals/g-1", `{"progress":60}`))
	if rec.Code != http.StatusNoContent {
		t.Errorf("progress 60: status = %d, want 204", rec.Code)
	}
	if store.progressUpdates != 1 {
		t.Errorf("progress 60 reached the store %d times, want 1", store.progressUpdates)
	}
}

func TestRecordAssessmentRejectsOutOfRangeSubscore(t *testing.T) {
	rels := &stubRels{allowed: map[string]bool{"p-1": true}}
	h := newTestRouter(t, &stubPatientStore{}, nil, rels)

	body := `{"dressing":2,"eating":2,"bathing":7,"toileting":2,"transferring":2,"continence":2,
		"meal_preparation":3,"medication_management":3,"phone_use":3,"finances":3,"transportation":3,"shopping":3}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/patients/p-1/adl", body))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bathing subscore 7: status = %d, want 400", rec.Code)
	}

	body = strings.Replace(body, `"bathing":7`, `"bathing":3`, 1)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/patients/p-1/adl", body))
	if rec.Code != http.StatusCreated {
		t.Errorf("valid assessment: status = %d, want 201", rec.Code)
	}
}

func TestAlertsForUnrelatedPatientIs404(t *testing.T) {
	store := &stubPatientStore{}
	alerts := &stubAlertStore{}
	rels := &stubRels{allowed: map[string]bool{"p-1": true}}
	h := newTestRouter(t, store, alerts, rels)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodGet, "/patients/p-2/alerts", ""))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestListAlertsReturnsTriagedTiers(t *testing.T) {
	now := time.Now()
	alerts := &stubAlertStore{alerts: []clinical.SafetyAlert{
		{ID: "a-1", Category: clinical.CategoryRed, CreatedAt: now},
		{ID: "a-2", Category: clinical.CategoryYellow, CreatedAt: now.Add(-time.Hour)},
		{ID: "a-3", Category: clinical.CategoryGreen, IsResolved: true, CreatedAt: now.Add(-2 * time.Hour)},
	}}
	rels := &stubRels{allowed: map[string]bool{"p-1": true}}
	h := newTestRouter(t, &stubPatientStore{}, alerts, rels)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodGet, "/patients/p-1/alerts", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var res clinical.TriageResult
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.UrgentCount != 1 || res.MonitorCount != 1 || res.StableCount != 1 {
		t.Errorf("counts = %d/%d/%d, want 1/1/1", res.UrgentCount, res.MonitorCount, res.StableCount)
	}
	if res.ActiveCount != 2 {
		t.Errorf("active = %d, want 2", res.ActiveCount)
	}
}

func TestRaiseAlertRejectsUnknownCategory(t *testing.T) {
	alerts := &stubAlertStore{}
	rels := &stubRels{allowed: map[string]bool{"p-1": true}}
	h := newTestRouter(t, &stubPatientStore{}, alerts, rels)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/patients/p-1/alerts", `{"category":"purple","title":"x"}`))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if len(alerts.alerts) != 0 {
		t.Error("alert was stored despite invalid category")
	}
}

func TestResolveAlert(t *testing.T) {
	alerts := &stubAlertStore{alerts: []clinical.SafetyAlert{
		{ID: "a-1", PatientID: "p-1", Category: clinical.CategoryRed},
	}}
	rels := &stubRels{allowed: map[string]bool{"p-1": true}}
	h := newTestRouter(t, &stubPatientStore{}, alerts, rels)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/patients/p-1/alerts/a-1/resolve", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !alerts.alerts[0].IsResolved {
		t.Error("alert not marked resolved")
	}
}
