package clinical

import "time"

// Event types published through the outbox.
const (
	EventAlertRaised     = "alert.raised"
	EventAlertResolved   = "alert.resolved"
	EventDeclineDetected = "adl.decline.detected"
	EventStatusUpdated   = "caregiver.status.updated"
)

// AlertEvent is published when a safety alert is raised or resolved.
type AlertEvent struct {
	AlertID    string        `json:"alert_id"`
	PatientID  string        `json:"patient_id"`
	Type       AlertType     `json:"type"`
	Category   AlertCategory `json:"category"`
	Title      string        `json:"title"`
	IsResolved bool          `json:"is_resolved"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// DeclineEvent is published when an assessment crosses the decline
// threshold against the previous one.
type DeclineEvent struct {
	PatientID     string    `json:"patient_id"`
	AssessmentID  string    `json:"assessment_id"`
	LatestTotal   int       `json:"latest_total"`
	PreviousTotal int       `json:"previous_total"`
	Decline       int       `json:"decline"`
	AssessedAt    time.Time `json:"assessed_at"`
}

// StatusUpdatedEvent is the audit payload for caregiver status upserts.
type StatusUpdatedEvent struct {
	CaregiverID string    `json:"caregiver_id"`
	PatientID   string    `json:"patient_id"`
	BurnoutRisk RiskTier  `json:"burnout_risk"`
	UpdatedAt   time.Time `json:"updated_at"`
}
