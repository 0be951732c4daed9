// Package clinical holds the patient-scoped clinical record types and the
// aggregation rules the dashboards are built from.
package clinical

import "time"

// AlertCategory is the triage tier of a safety alert.
type AlertCategory string

const (
	CategoryRed    AlertCategory = "red"
	CategoryYellow AlertCategory = "yellow"
	CategoryGreen  AlertCategory = "green"
)

// AlertType identifies the safety-relevant pattern behind an alert.
type AlertType string

const (
	AlertFall               AlertType = "fall"
	AlertWandering          AlertType = "wandering"
	AlertMedicationRefusal  AlertType = "medication_refusal"
	AlertSundowning         AlertType = "sundowning"
	AlertSleepDisturbance   AlertType = "sleep_disturbance"
	AlertAppetiteChange     AlertType = "appetite_change"
	AlertStablePeriod       AlertType = "stable_period"
	AlertPositiveEngagement AlertType = "positive_engagement"
	AlertCaregiverCoping    AlertType = "caregiver_coping"
)

// SafetyAlert is one detected safety-relevant pattern for a patient.
type SafetyAlert struct {
	ID                string        `json:"id"`
	PatientID         string        `json:"patient_id"`
	Type              AlertType     `json:"type"`
	Category          AlertCategory `json:"category"`
	Title             string        `json:"title"`
	Description       string        `json:"description"`
	Count             int           `json:"count"`
	LastOccurred      *time.Time    `json:"last_occurred,omitempty"`
	RecommendedAction string        `json:"recommended_action,omitempty"`
	IsResolved        bool          `json:"is_resolved"`
	CreatedAt         time.Time     `json:"created_at"`
}

// ADLAssessment is one clinician assessment of functional independence.
// Subscores run 1 (independent) to 5 (dependent). Assessments are immutable
// once recorded; history is append-only.
type ADLAssessment struct {
	ID         string    `json:"id"`
	PatientID  string    `json:"patient_id"`
	Date       time.Time `json:"date"`
	AssessedBy string    `json:"assessed_by"`

	// Basic ADLs
	Dressing     int `json:"dressing"`
	Eating       int `json:"eating"`
	Bathing      int `json:"bathing"`
	Toileting    int `json:"toileting"`
	Transferring int `json:"transferring"`
	Continence   int `json:"continence"`

	// Instrumental ADLs
	MealPreparation      int `json:"meal_preparation"`
	MedicationManagement int `json:"medication_management"`
	PhoneUse             int `json:"phone_use"`
	Finances             int `json:"finances"`
	Transportation       int `json:"transportation"`
	Shopping             int `json:"shopping"`

	Notes string `json:"notes,omitempty"`
}

// RiskTier is the burnout risk level assigned to a caregiver.
type RiskTier string

const (
	RiskLow      RiskTier = "low"
	RiskModerate RiskTier = "moderate"
	RiskHigh     RiskTier = "high"
)

// CaregiverStatus is the current snapshot for a (caregiver, patient) pair.
// It is overwritten on each re-assessment, not appended.
type CaregiverStatus struct {
	CaregiverID            string    `json:"caregiver_id"`
	PatientID              string    `json:"patient_id"`
	StressLevel            string    `json:"stress_level"`
	SupportSystemStrength  string    `json:"support_system_strength"`
	HoursOfCareThisWeek    int       `json:"hours_of_care_this_week"`
	NightsInterruptedSleep int       `json:"nights_interrupted_sleep"`
	EmergencyCallsMade     int       `json:"emergency_calls_made"`
	LastRespiteBreak       time.Time `json:"last_respite_break"`
	LastCheckIn            time.Time `json:"last_check_in"`
	BurnoutRisk            RiskTier  `json:"burnout_risk"`
	RecommendedActions     []string  `json:"recommended_actions"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// MoodEntry is a timestamped mood observation.
type MoodEntry struct {
	ID         string    `json:"id"`
	PatientID  string    `json:"patient_id"`
	Mood       string    `json:"mood"`
	Intensity  int       `json:"intensity"`
	Note       string    `json:"note,omitempty"`
	TimeOfDay  string    `json:"time_of_day,omitempty"`
	RecordedBy string    `json:"recorded_by"`
	RecordedAt time.Time `json:"recorded_at"`
}

// BehaviorLog is a timestamped behavior incident.
type BehaviorLog struct {
	ID            string    `json:"id"`
	PatientID     string    `json:"patient_id"`
	Behavior      string    `json:"behavior"`
	Description   string    `json:"description,omitempty"`
	Severity      string    `json:"severity"`
	Triggers      []string  `json:"triggers,omitempty"`
	Interventions []string  `json:"interventions,omitempty"`
	Outcome       string    `json:"outcome,omitempty"`
	TimeOfDay     string    `json:"time_of_day,omitempty"`
	RecordedBy    string    `json:"recorded_by"`
	RecordedAt    time.Time `json:"recorded_at"`
}

// GoalMilestone is one step toward a therapeutic goal.
type GoalMilestone struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Goal is a per-patient therapeutic objective. Progress is clinician-entered
// and independent of the milestone completion ratio.
type Goal struct {
	ID          string          `json:"id"`
	PatientID   string          `json:"patient_id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category"`
	Status      string          `json:"status"`
	Progress    int             `json:"progress"`
	TargetDate  *time.Time      `json:"target_date,omitempty"`
	Milestones  []GoalMilestone `json:"milestones"`
	CreatedBy   string          `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Task is a scheduled care task for the current period.
type Task struct {
	ID            string     `json:"id"`
	PatientID     string     `json:"patient_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	TimeOfDay     string     `json:"time_of_day"`
	ScheduledTime string     `json:"scheduled_time"`
	Status        string     `json:"status"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	IsRecurring   bool       `json:"is_recurring"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Task statuses.
const (
	TaskPending   = "pending"
	TaskCompleted = "completed"
	TaskSkipped   = "skipped"
)

// MedicationLog records one scheduled dose and whether it was taken.
type MedicationLog struct {
	ID             string     `json:"id"`
	PatientID      string     `json:"patient_id"`
	MedicationName string     `json:"medication_name"`
	ScheduledTime  string     `json:"scheduled_time"`
	TakenTime      *time.Time `json:"taken_time,omitempty"`
	Status         string     `json:"status"`
	Notes          string     `json:"notes,omitempty"`
	RecordedBy     string     `json:"recorded_by"`
	Date           time.Time  `json:"date"`
}

// Medication log statuses.
const (
	DoseTaken   = "taken"
	DoseMissed  = "missed"
	DosePending = "pending"
	DoseSkipped = "skipped"
)

// Appointment is a scheduled visit with a provider.
type Appointment struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patient_id"`
	Title       string    `json:"title"`
	Provider    string    `json:"provider"`
	Location    string    `json:"location,omitempty"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Notes       string    `json:"notes,omitempty"`
	ReminderSet bool      `json:"reminder_set"`
	CreatedAt   time.Time `json:"created_at"`
}
