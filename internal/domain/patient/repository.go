package patient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/carecompanion/go-care/internal/infrastructure/postgres"
	"github.com/carecompanion/go-care/internal/infrastructure/redpanda"
)

// ErrNotFound is returned when a patient is absent or not visible to the
// requesting caregiver. Visibility failures are indistinguishable from
// missing rows on purpose.
var ErrNotFound = errors.New("patient not found")

// Repository persists patients, care relationships and notes.
type Repository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewRepository creates a new repository
func NewRepository(pool *pgxpool.Pool, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{pool: pool, logger: logger}
}

// Create inserts a patient, grants the creator the primary relationship and
// writes the audit event in one transaction. Either all three land or none.
func (r *Repository) Create(ctx context.Context, caregiverID string, input NewPatient) (*Patient, error) {
	now := time.Now().UTC()
	p := &Patient{
		ID:            uuid.NewString(),
		DisplayName:   input.DisplayName,
		PreferredName: input.PreferredName,
		DateOfBirth:   input.DateOfBirth,
		Location:      input.Location,
		DementiaStage: input.DementiaStage,
		CreatedBy:     caregiverID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO patients (id, display_name, preferred_name, date_of_birth, location, dementia_stage, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, p.ID, p.DisplayName, p.PreferredName, p.DateOfBirth, p.Location, p.DementiaStage, p.CreatedBy, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert patient: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO care_relationships (id, patient_id, caregiver_id, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.NewString(), p.ID, caregiverID, RolePrimary, now)
	if err != nil {
		return nil, fmt.Errorf("insert relationship: %w", err)
	}

	payload, err := json.Marshal(CreatedEvent{
		PatientID:   p.ID,
		CaregiverID: caregiverID,
		Role:        RolePrimary,
		DisplayName: p.DisplayName,
		CreatedAt:   now,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}

	entry := &postgres.OutboxEntry{
		AggregateID:   p.ID,
		AggregateType: "patient",
		EventType:     "patient.created",
		Payload:       payload,
		Topic:         redpanda.TopicAuditTrail,
		Key:           p.ID,
	}
	if err := postgres.WriteEntry(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("write outbox entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	r.logger.Info("patient created",
		zap.String("patient_id", p.ID),
		zap.String("caregiver_id", caregiverID))

	return p, nil
}

// ListByCaregiver returns every patient visible to the caregiver, newest
// relationship first.
func (r *Repository) ListByCaregiver(ctx context.Context, caregiverID string) ([]Patient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.display_name, p.preferred_name, p.date_of_birth, p.location, p.dementia_stage, p.created_by, p.created_at, p.updated_at
		FROM patients p
		JOIN care_relationships cr ON cr.patient_id = p.id
		WHERE cr.caregiver_id = $1
		ORDER BY cr.created_at DESC
	`, caregiverID)
	if err != nil {
		return nil, fmt.Errorf("query patients: %w", err)
	}
	defer rows.Close()

	var patients []Patient
	for rows.Next() {
		var p Patient
		if err := rows.Scan(&p.ID, &p.DisplayName, &p.PreferredName, &p.DateOfBirth, &p.Location, &p.DementiaStage, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}

// GetByID loads a patient the caregiver is related to.
func (r *Repository) GetByID(ctx context.Context, caregiverID, patientID string) (*Patient, error) {
	var p Patient
	err := r.pool.QueryRow(ctx, `
		SELECT p.id, p.display_name, p.preferred_name, p.date_of_birth, p.location, p.dementia_stage, p.created_by, p.created_at, p.updated_at
		FROM patients p
		JOIN care_relationships cr ON cr.patient_id = p.id
		WHERE p.id = $1 AND cr.caregiver_id = $2
	`, patientID, caregiverID).Scan(&p.ID, &p.DisplayName, &p.PreferredName, &p.DateOfBirth, &p.Location, &p.DementiaStage, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query patient: %w", err)
	}
	return &p, nil
}

// HasRelationship reports whether the caregiver has any relationship with
// the patient.
func (r *Repository) HasRelationship(ctx context.Context, caregiverID, patientID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM care_relationships
			WHERE caregiver_id = $1 AND patient_id = $2
		)
	`, caregiverID, patientID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query relationship: %w", err)
	}
	return exists, nil
}

// RemoveFromRoster deletes the caregiver's relationship with the patient.
// The patient row and its history stay intact.
func (r *Repository) RemoveFromRoster(ctx context.Context, caregiverID, patientID string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM care_relationships
		WHERE caregiver_id = $1 AND patient_id = $2
	`, caregiverID, patientID)
	if err != nil {
		return fmt.Errorf("delete relationship: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	r.logger.Info("patient removed from roster",
		zap.String("patient_id", patientID),
		zap.String("caregiver_id", caregiverID))
	return nil
}

// AddNote appends a note for the patient.
func (r *Repository) AddNote(ctx context.Context, authorID, patientID, body string) (*Note, error) {
	ok, err := r.HasRelationship(ctx, authorID, patientID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}

	n := &Note{
		ID:        uuid.NewString(),
		PatientID: patientID,
		AuthorID:  authorID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO notes (id, patient_id, author_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, n.ID, n.PatientID, n.AuthorID, n.Body, n.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}
	return n, nil
}

// ListNotes returns the patient's notes authored by the caregiver, newest
// first.
func (r *Repository) ListNotes(ctx context.Context, authorID, patientID string) ([]Note, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, author_id, body, created_at
		FROM notes
		WHERE patient_id = $1 AND author_id = $2
		ORDER BY created_at DESC
	`, patientID, authorID)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	var notes []Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.PatientID, &n.AuthorID, &n.Body, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
