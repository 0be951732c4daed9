package clinical

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidSubscore marks an assessment whose subscores fall outside the
// 1-5 ordinal scale. Callers match it with errors.Is.
var ErrInvalidSubscore = errors.New("subscore out of range")

// Basic-ADL subscore bounds.
const (
	SubscoreMin = 1
	SubscoreMax = 5
)

// declineThreshold is the basic-ADL total increase that marks a new
// assessment as due.
const declineThreshold = 2

// BasicTotal sums the six basic-ADL subscores. Range 6-30, higher means
// more dependent.
func BasicTotal(a ADLAssessment) int {
	return a.Dressing + a.Eating + a.Bathing + a.Toileting + a.Transferring + a.Continence
}

// ADLConcern is one basic-ADL domain that regressed between the two most
// recent assessments.
type ADLConcern struct {
	Domain   string `json:"domain"`
	Previous int    `json:"previous"`
	Latest   int    `json:"latest"`
}

// DeclineReport compares the two most recent assessments for a patient.
type DeclineReport struct {
	LatestTotal   int          `json:"latest_total"`
	PreviousTotal int          `json:"previous_total"`
	Decline       int          `json:"decline"`
	AssessmentDue bool         `json:"assessment_due"`
	Concerns      []ADLConcern `json:"concerns,omitempty"`

	Latest   *ADLAssessment `json:"latest,omitempty"`
	Previous *ADLAssessment `json:"previous,omitempty"`
}

// AssessDecline orders assessments by date and diffs the two most recent.
// Decline is plain integer subtraction of basic totals, zero when fewer than
// two assessments exist. A decline greater than the threshold flags a new
// assessment as due, and every basic domain whose score rose is listed as a
// concern.
func AssessDecline(assessments []ADLAssessment) DeclineReport {
	ordered := make([]ADLAssessment, len(assessments))
	copy(ordered, assessments)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	var report DeclineReport
	if len(ordered) == 0 {
		return report
	}

	latest := ordered[len(ordered)-1]
	report.Latest = &latest
	report.LatestTotal = BasicTotal(latest)

	if len(ordered) < 2 {
		return report
	}

	previous := ordered[len(ordered)-2]
	report.Previous = &previous
	report.PreviousTotal = BasicTotal(previous)
	report.Decline = report.LatestTotal - report.PreviousTotal
	report.AssessmentDue = report.Decline > declineThreshold
	report.Concerns = basicRegressions(previous, latest)
	return report
}

// basicRegressions lists basic-ADL domains where the latest score is worse
// (higher) than the previous one.
func basicRegressions(previous, latest ADLAssessment) []ADLConcern {
	domains := []struct {
		name string
		prev int
		curr int
	}{
		{"dressing", previous.Dressing, latest.Dressing},
		{"eating", previous.Eating, latest.Eating},
		{"bathing", previous.Bathing, latest.Bathing},
		{"toileting", previous.Toileting, latest.Toileting},
		{"transferring", previous.Transferring, latest.Transferring},
		{"continence", previous.Continence, latest.Continence},
	}

	var concerns []ADLConcern
	for _, d := range domains {
		if d.curr > d.prev {
			concerns = append(concerns, ADLConcern{Domain: d.name, Previous: d.prev, Latest: d.curr})
		}
	}
	return concerns
}

// ValidateSubscores rejects an assessment whose subscores fall outside the
// 1-5 ordinal scale. Rows from the persistence layer are checked at the
// boundary rather than trusted.
func ValidateSubscores(a ADLAssessment) error {
	scores := map[string]int{
		"dressing":              a.Dressing,
		"eating":                a.Eating,
		"bathing":               a.Bathing,
		"toileting":             a.Toileting,
		"transferring":          a.Transferring,
		"continence":            a.Continence,
		"meal_preparation":      a.MealPreparation,
		"medication_management": a.MedicationManagement,
		"phone_use":             a.PhoneUse,
		"finances":              a.Finances,
		"transportation":        a.Transportation,
		"shopping":              a.Shopping,
	}
	for name, v := range scores {
		if v < SubscoreMin || v > SubscoreMax {
			return fmt.Errorf("%w: %s is %d, must be between %d and %d", ErrInvalidSubscore, name, v, SubscoreMin, SubscoreMax)
		}
	}
	return nil
}
