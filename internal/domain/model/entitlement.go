package model

import "time"

// Window is a half-open [Start, End) entitlement interval.
type Window struct {
	Start time.Time
	End   time.Time
}

// Duration returns End - Start.
func (w Window) Duration() time.Duration { return w.End.Sub(w.Start) }

// EntitlementWindow computes the entitlement interval granted by a purchase.
// It is a pure function of its inputs.
//
// The duration unit follows the tier: day-granular tiers consume durationDays,
// hour-granular tiers consume durationHours. When the unit-appropriate field is
// nil, hour-granular tiers fall back to durationDays reinterpreted as days*24
// hours; day-granular tiers never reinterpret hours. When both are nil the
// duration defaults to exactly one unit.
func EntitlementWindow(tier Tier, durationDays, durationHours *int, now time.Time) Window {
	n := 1
	switch tier.DurationUnit() {
	case UnitDay:
		if durationDays != nil {
			n = *durationDays
		}
	default:
		if durationHours != nil {
			n = *durationHours
		} else if durationDays != nil {
			n = *durationDays * 24
		}
	}
	if n < 1 {
		n = 1
	}
	return Window{Start: now, End: now.Add(time.Duration(n) * time.Duration(tier.DurationUnit()))}
}
