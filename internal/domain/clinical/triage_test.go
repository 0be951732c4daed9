package clinical

import (
	"testing"
	"time"
)

func alert(id string, cat AlertCategory, resolved bool, createdAt time.Time) SafetyAlert {
	return SafetyAlert{
		ID:        id,
		PatientID: "p1",
		Category:  cat,
		IsResolved: resolved,
		CreatedAt: createdAt,
	}
}

func TestTriagePartitionsEveryAlertExactlyOnce(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	alerts := []SafetyAlert{
		alert("a1", CategoryRed, false, base),
		alert("a2", CategoryRed, true, base.Add(time.Hour)),
		alert("a3", CategoryYellow, false, base.Add(2*time.Hour)),
		alert("a4", CategoryYellow, true, base.Add(3*time.Hour)),
		alert("a5", CategoryGreen, false, base.Add(4*time.Hour)),
		alert("a6", CategoryGreen, true, base.Add(5*time.Hour)),
	}

	res := TriageAlerts(alerts)

	total := res.UrgentCount + res.MonitorCount + res.StableCount + res.ResolvedCount
	if total != len(alerts) {
		t.Fatalf("tier counts sum to %d, want %d", total, len(alerts))
	}

	seen := map[string]int{}
	for _, tier := range [][]SafetyAlert{res.Urgent, res.Monitor, res.Stable, res.Resolved} {
		for _, a := range tier {
			seen[a.ID]++
		}
	}
	for _, a := range alerts {
		if seen[a.ID] != 1 {
			t.Errorf("alert %s appears in %d tiers, want 1", a.ID, seen[a.ID])
		}
	}

	if res.UrgentCount != 1 || res.MonitorCount != 1 || res.StableCount != 2 || res.ResolvedCount != 2 {
		t.Errorf("got urgent=%d monitor=%d stable=%d resolved=%d",
			res.UrgentCount, res.MonitorCount, res.StableCount, res.ResolvedCount)
	}
	if res.ActiveCount != 2 {
		t.Errorf("active count = %d, want 2", res.ActiveCount)
	}
}

func TestTriageUnresolvedGreenStaysStable(t *testing.T) {
	res := TriageAlerts([]SafetyAlert{
		alert("g1", CategoryGreen, false, time.Now()),
	})

	if len(res.Stable) != 1 {
		t.Fatalf("stable tier has %d alerts, want 1", len(res.Stable))
	}
	if len(res.Monitor) != 0 {
		t.Errorf("unresolved green leaked into monitor tier")
	}
}

func TestTriageOrdersTiersNewestFirst(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	res := TriageAlerts([]SafetyAlert{
		alert("old", CategoryRed, false, base),
		alert("new", CategoryRed, false, base.Add(48*time.Hour)),
		alert("mid", CategoryRed, false, base.Add(24*time.Hour)),
	})

	want := []string{"new", "mid", "old"}
	for i, id := range want {
		if res.Urgent[i].ID != id {
			t.Fatalf("urgent[%d] = %s, want %s", i, res.Urgent[i].ID, id)
		}
	}
}

func TestRosterStatusFor(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name   string
		alerts []SafetyAlert
		want   RosterStatus
	}{
		{"unresolved red wins", []SafetyAlert{
			alert("y", CategoryYellow, false, now),
			alert("r", CategoryRed, false, now),
		}, RosterNeedsAttention},
		{"resolved red ignored", []SafetyAlert{
			alert("r", CategoryRed, true, now),
			alert("y", CategoryYellow, false, now),
		}, RosterMonitor},
		{"only green is stable", []SafetyAlert{
			alert("g", CategoryGreen, false, now),
		}, RosterStable},
		{"no alerts is stable", nil, RosterStable},
	}

	for _, tc := range cases {
		if got := RosterStatusFor(tc.alerts); got != tc.want {
			t.Errorf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}
