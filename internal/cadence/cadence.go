// Package cadence computes how a relationship stands against its target
// contact interval. Every function takes the current time as an argument —
// nothing here reads the clock — so results are reproducible in tests.
package cadence

import "math"

const msPerDay = 86400000

// Status is the three-band freshness classification.
type Status string

const (
	StatusFresh       Status = "fresh"
	StatusApproaching Status = "approaching"
	StatusOverdue     Status = "overdue"
)

// Elapsed is the floor-divided decomposition of time since last contact.
// Minutes do not carry into hours, hours do not carry into days beyond the
// stated buckets.
type Elapsed struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

// ElapsedSince decomposes now-last into day/hour/minute buckets.
// A nil last (never met) yields the zero value.
func ElapsedSince(last *int64, now int64) Elapsed {
	if last == nil {
		return Elapsed{}
	}
	ms := now - *last
	if ms < 0 {
		ms = 0
	}
	return Elapsed{
		Days:    int(ms / msPerDay),
		Hours:   int(ms % msPerDay / 3600000),
		Minutes: int(ms % 3600000 / 60000),
	}
}

// elapsedDays is the fractional number of days since last contact.
// DaysUntilDue and StatusFor both derive from this one value so the two
// can never disagree for the same (last, cadence, now) triple.
func elapsedDays(last *int64, now int64) float64 {
	ms := now - *last
	if ms < 0 {
		ms = 0
	}
	return float64(ms) / msPerDay
}

// DaysUntilDue returns ceil(cadenceDays - elapsed days). Negative means
// overdue by that many days. A friend never met is never due: the full
// cadence is returned.
func DaysUntilDue(last *int64, cadenceDays int, now int64) int {
	if last == nil {
		return cadenceDays
	}
	return int(math.Ceil(float64(cadenceDays) - elapsedDays(last, now)))
}

// StatusFor classifies elapsed time as a percentage of the cadence:
// under 60% fresh, 60-90% approaching, 90% and beyond overdue.
func StatusFor(last *int64, cadenceDays int, now int64) Status {
	if last == nil {
		return StatusFresh
	}
	pct := elapsedDays(last, now) / float64(cadenceDays) * 100
	switch {
	case pct < 60:
		return StatusFresh
	case pct < 90:
		return StatusApproaching
	default:
		return StatusOverdue
	}
}
