package clinical

import "sort"

// Tier is the display tier an alert lands in after triage.
type Tier string

const (
	TierUrgent   Tier = "urgent"
	TierMonitor  Tier = "monitor"
	TierStable   Tier = "stable"
	TierResolved Tier = "resolved"
)

// TriageResult partitions a patient's safety alerts into display tiers.
// Every alert appears in exactly one tier.
type TriageResult struct {
	Urgent   []SafetyAlert `json:"urgent"`
	Monitor  []SafetyAlert `json:"monitor"`
	Stable   []SafetyAlert `json:"stable"`
	Resolved []SafetyAlert `json:"resolved"`

	UrgentCount   int `json:"urgent_count"`
	MonitorCount  int `json:"monitor_count"`
	StableCount   int `json:"stable_count"`
	ResolvedCount int `json:"resolved_count"`
	ActiveCount   int `json:"active_count"`
}

// TriageAlerts classifies alerts by category and resolution state:
// urgent = unresolved red, monitor = unresolved yellow, stable = every green
// entry whether resolved or not (green is informational, so the category
// decides the tier, never the resolution flag). Resolved red and yellow
// alerts drop out of the active tiers but stay countable so the tiers always
// sum to the input. Tiers are ordered most-recently-created first.
func TriageAlerts(alerts []SafetyAlert) TriageResult {
	var res TriageResult
	for _, a := range alerts {
		switch {
		case a.Category == CategoryGreen:
			res.Stable = append(res.Stable, a)
		case a.IsResolved:
			res.Resolved = append(res.Resolved, a)
		case a.Category == CategoryRed:
			res.Urgent = append(res.Urgent, a)
		case a.Category == CategoryYellow:
			res.Monitor = append(res.Monitor, a)
		default:
			// Unknown category on an unresolved alert: surface it for
			// monitoring rather than hide it.
			res.Monitor = append(res.Monitor, a)
		}
	}

	for _, tier := range [][]SafetyAlert{res.Urgent, res.Monitor, res.Stable, res.Resolved} {
		sortNewestFirst(tier)
	}

	res.UrgentCount = len(res.Urgent)
	res.MonitorCount = len(res.Monitor)
	res.StableCount = len(res.Stable)
	res.ResolvedCount = len(res.Resolved)
	res.ActiveCount = res.UrgentCount + res.MonitorCount
	return res
}

func sortNewestFirst(alerts []SafetyAlert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].CreatedAt.After(alerts[j].CreatedAt)
	})
}

// RosterStatus is the patient-level roll-up shown on the caregiver roster.
type RosterStatus string

const (
	RosterNeedsAttention RosterStatus = "needs_attention"
	RosterMonitor        RosterStatus = "monitor"
	RosterStable         RosterStatus = "stable"
)

// RosterStatusFor reduces a patient's alerts to a single roster badge:
// any unresolved red wins, then any unresolved yellow, otherwise stable.
func RosterStatusFor(alerts []SafetyAlert) RosterStatus {
	hasYellow := false
	for _, a := range alerts {
		if a.IsResolved {
			continue
		}
		switch a.Category {
		case CategoryRed:
			return RosterNeedsAttention
		case CategoryYellow:
			hasYellow = true
		}
	}
	if hasYellow {
		return RosterMonitor
	}
	return RosterStable
}
