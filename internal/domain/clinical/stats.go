package clinical

import (
	"math"
	"time"
)

// negativeMoods is the closed set of moods counted as negative. Any mood
// outside it counts as positive; there is no neutral tier.
var negativeMoods = map[string]bool{
	"sad":      true,
	"anxious":  true,
	"angry":    true,
	"confused": true,
	"scared":   true,
	"worried":  true,
}

// MoodPolarity is the two-way classification of a mood entry.
type MoodPolarity string

const (
	MoodPositive MoodPolarity = "positive"
	MoodNegative MoodPolarity = "negative"
)

// ClassifyMood maps a mood value to exactly one polarity.
func ClassifyMood(mood string) MoodPolarity {
	if negativeMoods[mood] {
		return MoodNegative
	}
	return MoodPositive
}

// MoodTally counts positive and negative entries recorded at or after since.
func MoodTally(entries []MoodEntry, since time.Time) (positive, negative int) {
	for _, e := range entries {
		if e.RecordedAt.Before(since) {
			continue
		}
		if ClassifyMood(e.Mood) == MoodNegative {
			negative++
		} else {
			positive++
		}
	}
	return positive, negative
}

// CompletionRate is round(100 * completed / total), 0 when total is zero.
func CompletionRate(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}

// DashboardStats is the per-patient summary the dashboards render.
type DashboardStats struct {
	PatientID string `json:"patient_id"`

	TasksCompleted      int `json:"tasks_completed"`
	TasksTotal          int `json:"tasks_total"`
	TasksCompletionRate int `json:"tasks_completion_rate"`

	MedicationsTaken         int `json:"medications_taken"`
	MedicationsTotal         int `json:"medications_total"`
	MedicationsAdherenceRate int `json:"medications_adherence_rate"`

	MoodPositive7d    int `json:"mood_positive_7d"`
	MoodNegative7d    int `json:"mood_negative_7d"`
	BehaviorIncidents int `json:"behavior_incidents_7d"`

	// Pass-through labels, not computed here.
	MoodTrend    string `json:"mood_trend,omitempty"`
	SleepQuality string `json:"sleep_quality,omitempty"`
}

// statsWindow is the look-back for the mood/behavior tallies.
const statsWindow = 7 * 24 * time.Hour

// BuildDashboardStats rolls the patient's task, medication, mood and
// behavior records into summary counts and rates.
func BuildDashboardStats(patientID string, tasks []Task, medLogs []MedicationLog, moods []MoodEntry, behaviors []BehaviorLog, now time.Time) DashboardStats {
	stats := DashboardStats{PatientID: patientID}

	for _, t := range tasks {
		stats.TasksTotal++
		if t.Status == TaskCompleted {
			stats.TasksCompleted++
		}
	}
	stats.TasksCompletionRate = CompletionRate(stats.TasksCompleted, stats.TasksTotal)

	for _, m := range medLogs {
		stats.MedicationsTotal++
		if m.Status == DoseTaken {
			stats.MedicationsTaken++
		}
	}
	stats.MedicationsAdherenceRate = CompletionRate(stats.MedicationsTaken, stats.MedicationsTotal)

	since := now.Add(-statsWindow)
	stats.MoodPositive7d, stats.MoodNegative7d = MoodTally(moods, since)

	for _, b := range behaviors {
		if !b.RecordedAt.Before(since) {
			stats.BehaviorIncidents++
		}
	}

	return stats
}

// MilestoneRatio is the computed share of completed milestones on a goal,
// rounded to a whole percentage. It is reported alongside the
// clinician-entered progress value and does not replace it.
func MilestoneRatio(g Goal) int {
	if len(g.Milestones) == 0 {
		return 0
	}
	done := 0
	for _, m := range g.Milestones {
		if m.Completed {
			done++
		}
	}
	return CompletionRate(done, len(g.Milestones))
}
