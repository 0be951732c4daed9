// Package patient implements patients, care relationships and notes.
// A caregiver sees exactly the patients reachable through a care
// relationship; patient rows are never hard-deleted, removal only detaches
// them from a roster.
package patient

import "time"

// Relationship roles.
const (
	RolePrimary   = "primary"
	RoleSecondary = "secondary"
	RoleTherapist = "therapist"
)

// Patient is a person receiving care.
type Patient struct {
	ID            string     `json:"id"`
	DisplayName   string     `json:"display_name"`
	PreferredName string     `json:"preferred_name,omitempty"`
	DateOfBirth   *time.Time `json:"date_of_birth,omitempty"`
	Location      string     `json:"location,omitempty"`
	DementiaStage string     `json:"dementia_stage,omitempty"`
	CreatedBy     string     `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewPatient is the caller-supplied portion of a patient record.
type NewPatient struct {
	DisplayName   string     `json:"display_name"`
	PreferredName string     `json:"preferred_name,omitempty"`
	DateOfBirth   *time.Time `json:"date_of_birth,omitempty"`
	Location      string     `json:"location,omitempty"`
	DementiaStage string     `json:"dementia_stage,omitempty"`
}

// CareRelationship links a caregiver to a patient and grants visibility.
type CareRelationship struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patient_id"`
	CaregiverID string    `json:"caregiver_id"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// Note is a free-text entry owned by (patient, author). Notes are
// append-only and listed newest first.
type Note struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patient_id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// CreatedEvent is the audit payload emitted when a patient is created.
type CreatedEvent struct {
	PatientID   string    `json:"patient_id"`
	CaregiverID string    `json:"caregiver_id"`
	Role        string    `json:"role"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}
