package clinical

import (
	"testing"
	"time"
)

func TestCompletionRateRounding(t *testing.T) {
	cases := []struct {
		completed, total, want int
	}{
		{3, 9, 33},
		{1, 3, 33},
		{2, 3, 67},
		{9, 9, 100},
		{0, 9, 0},
		{0, 0, 0},
		{1, 2, 50},
	}
	for _, tc := range cases {
		if got := CompletionRate(tc.completed, tc.total); got != tc.want {
			t.Errorf("CompletionRate(%d, %d) = %d, want %d", tc.completed, tc.total, got, tc.want)
		}
	}
}

func TestClassifyMoodIsTotal(t *testing.T) {
	cases := []struct {
		mood string
		want MoodPolarity
	}{
		{"happy", MoodPositive},
		{"calm", MoodPositive},
		{"sad", MoodNegative},
		{"anxious", MoodNegative},
		{"angry", MoodNegative},
		{"confused", MoodNegative},
		{"scared", MoodNegative},
		{"worried", MoodNegative},
		// Outside the closed negative set: positive by default.
		{"surprised", MoodPositive},
		{"", MoodPositive},
	}
	for _, tc := range cases {
		if got := ClassifyMood(tc.mood); got != tc.want {
			t.Errorf("ClassifyMood(%q) = %s, want %s", tc.mood, got, tc.want)
		}
	}
}

func TestMoodTallyWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	since := now.Add(-7 * 24 * time.Hour)

	entries := []MoodEntry{
		{Mood: "happy", RecordedAt: now.Add(-time.Hour)},
		{Mood: "anxious", RecordedAt: now.Add(-2 * 24 * time.Hour)},
		{Mood: "sad", RecordedAt: now.Add(-8 * 24 * time.Hour)}, // outside window
		{Mood: "surprised", RecordedAt: now.Add(-6 * 24 * time.Hour)},
	}

	pos, neg := MoodTally(entries, since)
	if pos != 2 || neg != 1 {
		t.Errorf("tally = %d positive / %d negative, want 2/1", pos, neg)
	}
}

func TestBuildDashboardStats(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tasks := []Task{
		{Status: TaskCompleted},
		{Status: TaskCompleted},
		{Status: TaskCompleted},
		{Status: TaskPending},
		{Status: TaskPending},
		{Status: TaskPending},
		{Status: TaskSkipped},
		{Status: TaskPending},
		{Status: TaskPending},
	}
	meds := []MedicationLog{
		{Status: DoseTaken},
		{Status: DoseMissed},
		{Status: DosePending},
	}
	moods := []MoodEntry{
		{Mood: "happy", RecordedAt: now.Add(-time.Hour)},
		{Mood: "worried", RecordedAt: now.Add(-time.Hour)},
	}
	behaviors := []BehaviorLog{
		{RecordedAt: now.Add(-time.Hour)},
		{RecordedAt: now.Add(-10 * 24 * time.Hour)}, // outside window
	}

	stats := BuildDashboardStats("p1", tasks, meds, moods, behaviors, now)

	if stats.TasksCompletionRate != 33 {
		t.Errorf("tasks completion rate = %d, want 33", stats.TasksCompletionRate)
	}
	if stats.MedicationsAdherenceRate != 33 {
		t.Errorf("medications adherence rate = %d, want 33", stats.MedicationsAdherenceRate)
	}
	if stats.MoodPositive7d != 1 || stats.MoodNegative7d != 1 {
		t.Errorf("mood tally = %d/%d, want 1/1", stats.MoodPositive7d, stats.MoodNegative7d)
	}
	if stats.BehaviorIncidents != 1 {
		t.Errorf("behavior incidents = %d, want 1", stats.BehaviorIncidents)
	}
}

func TestMilestoneRatio(t *testing.T) {
	g := Goal{
		Progress: 75, // clinician-entered, independent of milestones
		Milestones: []GoalMilestone{
			{Completed: true},
			{Completed: true},
			{Completed: false},
		},
	}
	if got := MilestoneRatio(g); got != 67 {
		t.Errorf("milestone ratio = %d, want 67", got)
	}

	if got := MilestoneRatio(Goal{}); got != 0 {
		t.Errorf("milestone ratio with no milestones = %d, want 0", got)
	}
}
