package clinical

import "time"

// DaysSinceRespite is the whole number of days since the caregiver's last
// respite break, floored (5 days 21 hours reads as 5). Computed at read
// time, never stored.
func DaysSinceRespite(now, lastRespiteBreak time.Time) int {
	if lastRespiteBreak.After(now) {
		return 0
	}
	return int(now.Sub(lastRespiteBreak) / (24 * time.Hour))
}

// StatusView is the caregiver snapshot as the dashboard consumes it: the
// stored fields verbatim plus the derived respite age.
type StatusView struct {
	CaregiverStatus
	DaysSinceRespite int `json:"days_since_respite"`
}

// ViewStatus attaches the derived respite age to a stored snapshot. The
// burnout tier and recommended actions pass through untouched; they are
// assigned by the clinician or an external scoring engine, not derived here.
func ViewStatus(s CaregiverStatus, now time.Time) StatusView {
	return StatusView{
		CaregiverStatus:  s,
		DaysSinceRespite: DaysSinceRespite(now, s.LastRespiteBreak),
	}
}
