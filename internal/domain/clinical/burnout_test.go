package clinical

import (
	"testing"
	"time"
)

func TestDaysSinceRespiteFloors(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		last time.Time
		want int
	}{
		{"exactly five days", now.Add(-5 * 24 * time.Hour), 5},
		{"five point nine days", now.Add(-time.Duration(5.9 * 24 * float64(time.Hour))), 5},
		{"under a day", now.Add(-23 * time.Hour), 0},
		{"future timestamp clamps to zero", now.Add(24 * time.Hour), 0},
	}
	for _, tc := range cases {
		if got := DaysSinceRespite(now, tc.last); got != tc.want {
			t.Errorf("%s: got %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestViewStatusPassesStoredFieldsThrough(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	stored := CaregiverStatus{
		CaregiverID:        "c1",
		PatientID:          "p1",
		StressLevel:        "high",
		BurnoutRisk:        RiskModerate,
		RecommendedActions: []string{"schedule respite care"},
		LastRespiteBreak:   now.Add(-12 * 24 * time.Hour),
	}

	view := ViewStatus(stored, now)

	if view.BurnoutRisk != RiskModerate {
		t.Errorf("burnout risk = %s, want stored value %s", view.BurnoutRisk, RiskModerate)
	}
	if view.DaysSinceRespite != 12 {
		t.Errorf("days since respite = %d, want 12", view.DaysSinceRespite)
	}
	if len(view.RecommendedActions) != 1 {
		t.Errorf("recommended actions not passed through: %v", view.RecommendedActions)
	}
}
