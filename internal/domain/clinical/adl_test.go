package clinical

import (
	"errors"
	"testing"
	"time"
)

func assessment(date time.Time, basic [6]int) ADLAssessment {
	return ADLAssessment{
		PatientID:    "p1",
		Date:         date,
		Dressing:     basic[0],
		Eating:       basic[1],
		Bathing:      basic[2],
		Toileting:    basic[3],
		Transferring: basic[4],
		Continence:   basic[5],

		MealPreparation:      3,
		MedicationManagement: 3,
		PhoneUse:             3,
		Finances:             3,
		Transportation:       3,
		Shopping:             3,
	}
}

func TestAssessDeclineFlagsDue(t *testing.T) {
	d1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 1, 0)

	// previous total 15, latest total 18: decline 3, due
	prev := assessment(d1, [6]int{2, 3, 2, 3, 2, 3})
	latest := assessment(d2, [6]int{3, 3, 3, 3, 3, 3})

	report := AssessDecline([]ADLAssessment{prev, latest})

	if report.LatestTotal != 18 || report.PreviousTotal != 15 {
		t.Fatalf("totals = %d/%d, want 18/15", report.LatestTotal, report.PreviousTotal)
	}
	if report.Decline != 3 {
		t.Errorf("decline = %d, want 3", report.Decline)
	}
	if !report.AssessmentDue {
		t.Errorf("decline of 3 should flag an assessment as due")
	}
}

func TestAssessDeclineBelowThreshold(t *testing.T) {
	d1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 1, 0)

	// previous total 15, latest total 16: decline 1, not due
	prev := assessment(d1, [6]int{2, 3, 2, 3, 2, 3})
	latest := assessment(d2, [6]int{3, 3, 2, 3, 2, 3})

	report := AssessDecline([]ADLAssessment{prev, latest})

	if report.Decline != 1 {
		t.Errorf("decline = %d, want 1", report.Decline)
	}
	if report.AssessmentDue {
		t.Errorf("decline of 1 should not flag an assessment")
	}
}

func TestAssessDeclineWithFewAssessments(t *testing.T) {
	if report := AssessDecline(nil); report.Decline != 0 || report.AssessmentDue {
		t.Errorf("empty history: decline=%d due=%v, want 0/false", report.Decline, report.AssessmentDue)
	}

	one := assessment(time.Now(), [6]int{2, 2, 2, 2, 2, 2})
	report := AssessDecline([]ADLAssessment{one})
	if report.Decline != 0 || report.AssessmentDue {
		t.Errorf("single assessment: decline=%d due=%v, want 0/false", report.Decline, report.AssessmentDue)
	}
	if report.LatestTotal != 12 {
		t.Errorf("latest total = %d, want 12", report.LatestTotal)
	}
}

func TestAssessDeclineUsesTwoMostRecentByDate(t *testing.T) {
	d := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// Deliberately out of order; only the two latest dates should be diffed.
	history := []ADLAssessment{
		assessment(d.AddDate(0, 2, 0), [6]int{4, 4, 4, 4, 4, 4}), // latest, total 24
		assessment(d, [6]int{1, 1, 1, 1, 1, 1}),                  // oldest
		assessment(d.AddDate(0, 1, 0), [6]int{3, 3, 3, 3, 3, 3}), // previous, total 18
	}

	report := AssessDecline(history)
	if report.LatestTotal != 24 || report.PreviousTotal != 18 {
		t.Fatalf("totals = %d/%d, want 24/18", report.LatestTotal, report.PreviousTotal)
	}
	if report.Decline != 6 || !report.AssessmentDue {
		t.Errorf("decline=%d due=%v, want 6/true", report.Decline, report.AssessmentDue)
	}
}

func TestAssessDeclineListsRegressions(t *testing.T) {
	d1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	prev := assessment(d1, [6]int{2, 2, 2, 2, 2, 2})
	latest := assessment(d1.AddDate(0, 1, 0), [6]int{3, 2, 2, 4, 2, 1})

	report := AssessDecline([]ADLAssessment{prev, latest})

	got := map[string]ADLConcern{}
	for _, c := range report.Concerns {
		got[c.Domain] = c
	}
	if len(got) != 2 {
		t.Fatalf("got %d concerns, want 2: %v", len(got), report.Concerns)
	}
	if c := got["dressing"]; c.Previous != 2 || c.Latest != 3 {
		t.Errorf("dressing concern = %+v", c)
	}
	if c := got["toileting"]; c.Previous != 2 || c.Latest != 4 {
		t.Errorf("toileting concern = %+v", c)
	}
}

func TestValidateSubscores(t *testing.T) {
	ok := assessment(time.Now(), [6]int{1, 2, 3, 4, 5, 3})
	if err := ValidateSubscores(ok); err != nil {
		t.Fatalf("valid assessment rejected: %v", err)
	}

	bad := ok
	bad.Toileting = 6
	if err := ValidateSubscores(bad); !errors.Is(err, ErrInvalidSubscore) {
		t.Errorf("subscore 6: err = %v, want ErrInvalidSubscore", err)
	}

	bad = ok
	bad.Finances = 0
	if err := ValidateSubscores(bad); !errors.Is(err, ErrInvalidSubscore) {
		t.Errorf("subscore 0: err = %v, want ErrInvalidSubscore", err)
	}
}
