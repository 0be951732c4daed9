package clinical

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/carecompanion/go-care/internal/infrastructure/postgres"
	"github.com/carecompanion/go-care/internal/infrastructure/redpanda"
)

// Repository errors.
var (
	ErrAlertNotFound  = errors.New("alert not found")
	ErrStatusNotFound = errors.New("caregiver status not found")
	ErrGoalNotFound   = errors.New("goal not found")
	ErrTaskNotFound   = errors.New("task not found")
)

// Repository persists clinical records and publishes their events through
// the transactional outbox.
type Repository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

// NewRepository creates a new clinical repository
func NewRepository(pool *pgxpool.Pool, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("clinical-repository"),
	}
}

// ListAlerts returns the patient's safety alerts newest first.
func (r *Repository) ListAlerts(ctx context.Context, patientID string) ([]SafetyAlert, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, type, category, title, description, count, last_occurred, recommended_action, is_resolved, created_at
		FROM safety_alerts
		WHERE patient_id = $1
		ORDER BY created_at DESC
	`, patientID)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []SafetyAlert
	for rows.Next() {
		var a SafetyAlert
		if err := rows.Scan(&a.ID, &a.PatientID, &a.Type, &a.Category, &a.Title, &a.Description, &a.Count, &a.LastOccurred, &a.RecommendedAction, &a.IsResolved, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// RaiseAlert inserts a new safety alert and queues the raised event in the
// same transaction.
func (r *Repository) RaiseAlert(ctx context.Context, alert SafetyAlert) (*SafetyAlert, error) {
	ctx, span := r.tracer.Start(ctx, "raise_alert",
		trace.WithAttributes(
			attribute.String("patient_id", alert.PatientID),
			attribute.String("category", string(alert.Category)),
		))
	defer span.End()

	alert.ID = uuid.NewString()
	alert.CreatedAt = time.Now().UTC()
	if alert.Count == 0 {
		alert.Count = 1
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO safety_alerts (id, patient_id, type, category, title, description, count, last_occurred, recommended_action, is_resolved, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, alert.ID, alert.PatientID, alert.Type, alert.Category, alert.Title, alert.Description, alert.Count, alert.LastOccurred, alert.RecommendedAction, alert.IsResolved, alert.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert alert: %w", err)
	}

	if err := r.queueAlertEvent(ctx, tx, alert, EventAlertRaised); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	r.logger.Info("safety alert raised",
		zap.String("alert_id", alert.ID),
		zap.String("patient_id", alert.PatientID),
		zap.String("category", string(alert.Category)))

	return &alert, nil
}

// ResolveAlert marks an alert resolved. Resolving is idempotent; resolving
// an already resolved alert is a no-op.
func (r *Repository) ResolveAlert(ctx context.Context, patientID, alertID string) (*SafetyAlert, error) {
	ctx, span := r.tracer.Start(ctx, "resolve_alert",
		trace.WithAttributes(attribute.String("alert_id", alertID)))
	defer span.End()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var a SafetyAlert
	err = tx.QueryRow(ctx, `
		UPDATE safety_alerts
		SET is_resolved = TRUE
		WHERE id = $1 AND patient_id = $2
		RETURNING id, patient_id, type, category, title, description, count, last_occurred, recommended_action, is_resolved, created_at
	`, alertID, patientID).Scan(&a.ID, &a.PatientID, &a.Type, &a.Category, &a.Title, &a.Description, &a.Count, &a.LastOccurred, &a.RecommendedAction, &a.IsResolved, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAlertNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update alert: %w", err)
	}

	if err := r.queueAlertEvent(ctx, tx, a, EventAlertResolved); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &a, nil
}

func (r *Repository) queueAlertEvent(ctx context.Context, tx pgx.Tx, alert SafetyAlert, eventType string) error {
	payload, err := json.Marshal(AlertEvent{
		AlertID:    alert.ID,
		PatientID:  alert.PatientID,
		Type:       alert.Type,
		Category:   alert.Category,
		Title:      alert.Title,
		IsResolved: alert.IsResolved,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal alert event: %w", err)
	}
	entry := &postgres.OutboxEntry{
		AggregateID:   alert.ID,
		AggregateType: "safety_alert",
		EventType:     eventType,
		Payload:       payload,
		Topic:         redpanda.TopicAlertEvents,
		Key:           alert.PatientID,
	}
	if err := postgres.WriteEntry(ctx, tx, entry); err != nil {
		return fmt.Errorf("write outbox entry: %w", err)
	}
	return nil
}

// RecordAssessment validates and inserts an ADL assessment. When the new
// assessment crosses the decline threshold against the previous one, a
// decline event is queued in the same transaction.
func (r *Repository) RecordAssessment(ctx context.Context, a ADLAssessment) (*ADLAssessment, *DeclineReport, error) {
	ctx, span := r.tracer.Start(ctx, "record_assessment",
		trace.WithAttributes(attribute.String("patient_id", a.PatientID)))
	defer span.End()

	if err := ValidateSubscores(a); err != nil {
		return nil, nil, err
	}

	a.ID = uuid.NewString()
	if a.Date.IsZero() {
		a.Date = time.Now().UTC()
	}

	history, err := r.ListAssessments(ctx, a.PatientID)
	if err != nil {
		return nil, nil, err
	}
	report := AssessDecline(append(history, a))

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO adl_assessments
		(id, patient_id, date, assessed_by,
		 dressing, eating, bathing, toileting, transferring, continence,
		 meal_preparation, medication_management, phone_use, finances, transportation, shopping,
		 notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`, a.ID, a.PatientID, a.Date, a.AssessedBy,
		a.Dressing, a.Eating, a.Bathing, a.Toileting, a.Transferring, a.Continence,
		a.MealPreparation, a.MedicationManagement, a.PhoneUse, a.Finances, a.Transportation, a.Shopping,
		a.Notes)
	if err != nil {
		return nil, nil, fmt.Errorf("insert assessment: %w", err)
	}

	if report.AssessmentDue {
		payload, err := json.Marshal(DeclineEvent{
			PatientID:     a.PatientID,
			AssessmentID:  a.ID,
			LatestTotal:   report.LatestTotal,
			PreviousTotal: report.PreviousTotal,
			Decline:       report.Decline,
			AssessedAt:    a.Date,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("marshal decline event: %w", err)
		}
		entry := &postgres.OutboxEntry{
			AggregateID:   a.ID,
			AggregateType: "adl_assessment",
			EventType:     EventDeclineDetected,
			Payload:       payload,
			Topic:         redpanda.TopicCareEvents,
			Key:           a.PatientID,
		}
		if err := postgres.WriteEntry(ctx, tx, entry); err != nil {
			return nil, nil, fmt.Errorf("write outbox entry: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit: %w", err)
	}

	if report.AssessmentDue {
		r.logger.Warn("functional decline detected",
			zap.String("patient_id", a.PatientID),
			zap.Int("decline", report.Decline))
	}

	return &a, &report, nil
}

// ListAssessments returns the patient's ADL history oldest first.
func (r *Repository) ListAssessments(ctx context.Context, patientID string) ([]ADLAssessment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, date, assessed_by,
		       dressing, eating, bathing, toileting, transferring, continence,
		       meal_preparation, medication_management, phone_use, finances, transportation, shopping,
		       notes
		FROM adl_assessments
		WHERE patient_id = $1
		ORDER BY date ASC
	`, patientID)
	if err != nil {
		return nil, fmt.Errorf("query assessments: %w", err)
	}
	defer rows.Close()

	var out []ADLAssessment
	for rows.Next() {
		var a ADLAssessment
		if err := rows.Scan(&a.ID, &a.PatientID, &a.Date, &a.AssessedBy,
			&a.Dressing, &a.Eating, &a.Bathing, &a.Toileting, &a.Transferring, &a.Continence,
			&a.MealPreparation, &a.MedicationManagement, &a.PhoneUse, &a.Finances, &a.Transportation, &a.Shopping,
			&a.Notes); err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetCaregiverStatus returns the stored snapshot for the pair.
func (r *Repository) GetCaregiverStatus(ctx context.Context, caregiverID, patientID string) (*CaregiverStatus, error) {
	var s CaregiverStatus
	err := r.pool.QueryRow(ctx, `
		SELECT caregiver_id, patient_id, stress_level, support_system_strength,
		       hours_of_care_this_week, nights_interrupted_sleep, emergency_calls_made,
		       last_respite_break, last_check_in, burnout_risk, recommended_actions, updated_at
		FROM caregiver_statuses
		WHERE caregiver_id = $1 AND patient_id = $2
	`, caregiverID, patientID).Scan(&s.CaregiverID, &s.PatientID, &s.StressLevel, &s.SupportSystemStrength,
		&s.HoursOfCareThisWeek, &s.NightsInterruptedSleep, &s.EmergencyCallsMade,
		&s.LastRespiteBreak, &s.LastCheckIn, &s.BurnoutRisk, &s.RecommendedActions, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrStatusNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query status: %w", err)
	}
	return &s, nil
}

// PutCaregiverStatus upserts the snapshot for the pair and queues the audit
// event.
func (r *Repository) PutCaregiverStatus(ctx context.Context, s CaregiverStatus) (*CaregiverStatus, error) {
	s.UpdatedAt = time.Now().UTC()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO caregiver_statuses
		(caregiver_id, patient_id, stress_level, support_system_strength,
		 hours_of_care_this_week, nights_interrupted_sleep, emergency_calls_made,
		 last_respite_break, last_check_in, burnout_risk, recommended_actions, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (caregiver_id, patient_id) DO UPDATE SET
			stress_level = EXCLUDED.stress_level,
			support_system_strength = EXCLUDED.support_system_strength,
			hours_of_care_this_week = EXCLUDED.hours_of_care_this_week,
			nights_interrupted_sleep = EXCLUDED.nights_interrupted_sleep,
			emergency_calls_made = EXCLUDED.emergency_calls_made,
			last_respite_break = EXCLUDED.last_respite_break,
			last_check_in = EXCLUDED.last_check_in,
			burnout_risk = EXCLUDED.burnout_risk,
			recommended_actions = EXCLUDED.recommended_actions,
			updated_at = EXCLUDED.updated_at
	`, s.CaregiverID, s.PatientID, s.StressLevel, s.SupportSystemStrength,
		s.HoursOfCareThisWeek, s.NightsInterruptedSleep, s.EmergencyCallsMade,
		s.LastRespiteBreak, s.LastCheckIn, s.BurnoutRisk, s.RecommendedActions, s.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert status: %w", err)
	}

	payload, err := json.Marshal(StatusUpdatedEvent{
		CaregiverID: s.CaregiverID,
		PatientID:   s.PatientID,
		BurnoutRisk: s.BurnoutRisk,
		UpdatedAt:   s.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal status event: %w", err)
	}
	entry := &postgres.OutboxEntry{
		AggregateID:   s.CaregiverID,
		AggregateType: "caregiver_status",
		EventType:     EventStatusUpdated,
		Payload:       payload,
		Topic:         redpanda.TopicAuditTrail,
		Key:           s.CaregiverID,
	}
	if err := postgres.WriteEntry(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("write outbox entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &s, nil
}

// AddMood inserts a mood entry.
func (r *Repository) AddMood(ctx context.Context, m MoodEntry) (*MoodEntry, error) {
	m.ID = uuid.NewString()
	if m.RecordedAt.IsZero() {
		m.RecordedAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO mood_entries (id, patient_id, mood, intensity, note, time_of_day, recorded_by, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, m.ID, m.PatientID, m.Mood, m.Intensity, m.Note, m.TimeOfDay, m.RecordedBy, m.RecordedAt)
	if err != nil {
		return nil, fmt.Errorf("insert mood: %w", err)
	}
	return &m, nil
}

// ListMoods returns the patient's mood entries newest first.
func (r *Repository) ListMoods(ctx context.Context, patientID string) ([]MoodEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, mood, intensity, note, time_of_day, recorded_by, recorded_at
		FROM mood_entries
		WHERE patient_id = $1
		ORDER BY recorded_at DESC
	`, patientID)
	if err != nil {
		return nil, fmt.Errorf("query moods: %w", err)
	}
	defer rows.Close()

	var out []MoodEntry
	for rows.Next() {
		var m MoodEntry
		if err := rows.Scan(&m.ID, &m.PatientID, &m.Mood, &m.Intensity, &m.Note, &m.TimeOfDay, &m.RecordedBy, &m.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan mood: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// AddBehavior inserts a behavior incident.
func (r *Repository) AddBehavior(ctx context.Context, b BehaviorLog) (*BehaviorLog, error) {
	b.ID = uuid.NewString()
	if b.RecordedAt.IsZero() {
		b.RecordedAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO behavior_logs
		(id, patient_id, behavior, description, severity, triggers, interventions, outcome, time_of_day, recorded_by, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, b.ID, b.PatientID, b.Behavior, b.Description, b.Severity, b.Triggers, b.Interventions, b.Outcome, b.TimeOfDay, b.RecordedBy, b.RecordedAt)
	if err != nil {
		return nil, fmt.Errorf("insert behavior: %w", err)
	}
	return &b, nil
}

// ListBehaviors returns the patient's behavior incidents newest first.
func (r *Repository) ListBehaviors(ctx context.Context, patientID string) ([]BehaviorLog, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, behavior, description, severity, triggers, interventions, outcome, time_of_day, recorded_by, recorded_at
		FROM behavior_logs
		WHERE patient_id = $1
		ORDER BY recorded_at DESC
	`, patientID)
	if err != nil {
		return nil, fmt.Errorf("query behaviors: %w", err)
	}
	defer rows.Close()

	var out []BehaviorLog
	for rows.Next() {
		var b BehaviorLog
		if err := rows.Scan(&b.ID, &b.PatientID, &b.Behavior, &b.Description, &b.Severity, &b.Triggers, &b.Interventions, &b.Outcome, &b.TimeOfDay, &b.RecordedBy, &b.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan behavior: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// CreateGoal inserts a goal with its milestones.
func (r *Repository) CreateGoal(ctx context.Context, g Goal) (*Goal, error) {
	g.ID = uuid.NewString()
	g.CreatedAt = time.Now().UTC()
	if g.Status == "" {
		g.Status = "active"
	}
	for i := range g.Milestones {
		if g.Milestones[i].ID == "" {
			g.Milestones[i].ID = uuid.NewString()
		}
	}

	milestones, err := json.Marshal(g.Milestones)
	if err != nil {
		return nil, fmt.Errorf("marshal milestones: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO goals (id, patient_id, title, description, category, status, progress, target_date, milestones, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, g.ID, g.PatientID, g.Title, g.Description, g.Category, g.Status, g.Progress, g.TargetDate, milestones, g.CreatedBy, g.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert goal: %w", err)
	}
	return &g, nil
}

// ListGoals returns the patient's goals newest first.
func (r *Repository) ListGoals(ctx context.Context, patientID string) ([]Goal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, title, description, category, status, progress, target_date, milestones, created_by, created_at
		FROM goals
		WHERE patient_id = $1
		ORDER BY created_at DESC
	`, patientID)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	var out []Goal
	for rows.Next() {
		var g Goal
		var milestones []byte
		if err := rows.Scan(&g.ID, &g.PatientID, &g.Title, &g.Description, &g.Category, &g.Status, &g.Progress, &g.TargetDate, &milestones, &g.CreatedBy, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		if len(milestones) > 0 {
			if err := json.Unmarshal(milestones, &g.Milestones); err != nil {
				return nil, fmt.Errorf("unmarshal milestones: %w", err)
			}
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// UpdateGoalProgress sets clinician-entered progress and status.
func (r *Repository) UpdateGoalProgress(ctx context.Context, patientID, goalID string, progress int, status string) error {
	if progress < 0 || progress > 100 {
		return fmt.Errorf("progress must be between 0 and 100, got %d", progress)
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE goals SET progress = $1, status = $2
		WHERE id = $3 AND patient_id = $4
	`, progress, status, goalID, patientID)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrGoalNotFound
	}
	return nil
}

// CompleteMilestone marks one milestone of a goal completed.
func (r *Repository) CompleteMilestone(ctx context.Context, patientID, goalID, milestoneID string) (*Goal, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var g Goal
	var raw []byte
	err = tx.QueryRow(ctx, `
		SELECT id, patient_id, title, description, category, status, progress, target_date, milestones, created_by, created_at
		FROM goals
		WHERE id = $1 AND patient_id = $2
		FOR UPDATE
	`, goalID, patientID).Scan(&g.ID, &g.PatientID, &g.Title, &g.Description, &g.Category, &g.Status, &g.Progress, &g.TargetDate, &raw, &g.CreatedBy, &g.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrGoalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query goal: %w", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &g.Milestones); err != nil {
			return nil, fmt.Errorf("unmarshal milestones: %w", err)
		}
	}

	found := false
	now := time.Now().UTC()
	for i := range g.Milestones {
		if g.Milestones[i].ID == milestoneID {
			g.Milestones[i].Completed = true
			g.Milestones[i].CompletedAt = &now
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("milestone not found: %s", milestoneID)
	}

	updated, err := json.Marshal(g.Milestones)
	if err != nil {
		return nil, fmt.Errorf("marshal milestones: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE goals SET milestones = $1 WHERE id = $2`, updated, goalID); err != nil {
		return nil, fmt.Errorf("update milestones: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &g, nil
}

// CreateTask inserts a care task.
func (r *Repository) CreateTask(ctx context.Context, t Task) (*Task, error) {
	t.ID = uuid.NewString()
	t.CreatedAt = time.Now().UTC()
	if t.Status == "" {
		t.Status = TaskPending
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO tasks (id, patient_id, title, description, time_of_day, scheduled_time, status, completed_at, is_recurring, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, t.ID, t.PatientID, t.Title, t.Description, t.TimeOfDay, t.ScheduledTime, t.Status, t.CompletedAt, t.IsRecurring, t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return &t, nil
}

// ListTasks returns the patient's tasks ordered by scheduled time.
func (r *Repository) ListTasks(ctx context.Context, patientID string) ([]Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, title, description, time_of_day, scheduled_time, status, completed_at, is_recurring, created_at
		FROM tasks
		WHERE patient_id = $1
		ORDER BY scheduled_time ASC
	`, patientID)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.PatientID, &t.Title, &t.Description, &t.TimeOfDay, &t.ScheduledTime, &t.Status, &t.CompletedAt, &t.IsRecurring, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SetTaskStatus transitions a task. Completed tasks get a completion time,
// any other status clears it.
func (r *Repository) SetTaskStatus(ctx context.Context, patientID, taskID, status string) error {
	var completedAt *time.Time
	if status == TaskCompleted {
		now := time.Now().UTC()
		completedAt = &now
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE tasks SET status = $1, completed_at = $2
		WHERE id = $3 AND patient_id = $4
	`, status, completedAt, taskID, patientID)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// AddMedicationLog inserts a dose record.
func (r *Repository) AddMedicationLog(ctx context.Context, m MedicationLog) (*MedicationLog, error) {
	m.ID = uuid.NewString()
	if m.Date.IsZero() {
		m.Date = time.Now().UTC()
	}
	if m.Status == "" {
		m.Status = DosePending
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO medication_logs (id, patient_id, medication_name, scheduled_time, taken_time, status, notes, recorded_by, date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, m.ID, m.PatientID, m.MedicationName, m.ScheduledTime, m.TakenTime, m.Status, m.Notes, m.RecordedBy, m.Date)
	if err != nil {
		return nil, fmt.Errorf("insert medication log: %w", err)
	}
	return &m, nil
}

// ListMedicationLogs returns the patient's dose records newest first.
func (r *Repository) ListMedicationLogs(ctx context.Context, patientID string) ([]MedicationLog, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, medication_name, scheduled_time, taken_time, status, notes, recorded_by, date
		FROM medication_logs
		WHERE patient_id = $1
		ORDER BY date DESC, scheduled_time DESC
	`, patientID)
	if err != nil {
		return nil, fmt.Errorf("query medication logs: %w", err)
	}
	defer rows.Close()

	var out []MedicationLog
	for rows.Next() {
		var m MedicationLog
		if err := rows.Scan(&m.ID, &m.PatientID, &m.MedicationName, &m.ScheduledTime, &m.TakenTime, &m.Status, &m.Notes, &m.RecordedBy, &m.Date); err != nil {
			return nil, fmt.Errorf("scan medication log: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CreateAppointment inserts an appointment.
func (r *Repository) CreateAppointment(ctx context.Context, ap Appointment) (*Appointment, error) {
	ap.ID = uuid.NewString()
	ap.CreatedAt = time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO appointments (id, patient_id, title, provider, location, scheduled_at, notes, reminder_set, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, ap.ID, ap.PatientID, ap.Title, ap.Provider, ap.Location, ap.ScheduledAt, ap.Notes, ap.ReminderSet, ap.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert appointment: %w", err)
	}
	return &ap, nil
}

// ListAppointments returns the patient's appointments soonest first.
func (r *Repository) ListAppointments(ctx context.Context, patientID string) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, title, provider, location, scheduled_at, notes, reminder_set, created_at
		FROM appointments
		WHERE patient_id = $1
		ORDER BY scheduled_at ASC
	`, patientID)
	if err != nil {
		return nil, fmt.Errorf("query appointments: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		var ap Appointment
		if err := rows.Scan(&ap.ID, &ap.PatientID, &ap.Title, &ap.Provider, &ap.Location, &ap.ScheduledAt, &ap.Notes, &ap.ReminderSet, &ap.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		out = append(out, ap)
	}
	return out, rows.Err()
}
