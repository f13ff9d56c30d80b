/*
burn.go - Three-tier value model transitions

PURPOSE:
  The math and state transitions that connect the raw burn model to the
  effective values: applying the reduction percentage, restoring the system
  baseline, and keeping the aggregate override flag consistent.

PRECISION:
  Percentage application uses decimal.Decimal and rounds to whole kcal, so
  repeated sync/reduce cycles cannot drift the effective value.
*/
package ledger

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// ReducedBurn applies a 0-100 percentage discount to an unreduced burn
// figure and returns the effective active calories, rounded to whole kcal.
func ReducedBurn(rawBurn float64, pct int) float64 {
	if pct <= 0 {
		return rawBurn
	}
	if pct >= 100 {
		return 0
	}
	reduced := decimal.NewFromFloat(rawBurn).
		Mul(decimal.NewFromInt(int64(100 - pct))).
		Div(decimal.NewFromInt(100)).
		Round(0)
	f, _ := reduced.Float64()
	return f
}

// restoreBaseline returns the entry's mutable state to the system baseline
// captured at creation: effective = system, raw model back to an unreduced
// system figure with a fresh provenance timestamp, no overrides.
// Vendor bookkeeping fields are history, not effective state; they stay.
func (e *DayEntry) restoreBaseline(now time.Time) {
	e.BMRCal = e.SystemBMRCal
	e.ActiveCal = e.SystemActiveCal
	e.TDEECal = e.SystemTDEECal
	e.BurnReductionPct = 0
	e.RawBurn = floatPtr(e.SystemActiveCal)
	e.RawTDEE = nil
	e.RawBurnSource = SourceSystem
	e.RawLastSyncedAt = &now
	e.BMROverridden = false
	e.ActiveOverridden = false
	e.TDEEOverridden = false
	e.Overridden = false
	e.Source = SourceSystem
	e.UpdatedAt = now
}

// recomputeOverridden keeps the aggregate flag equal to the OR of the
// per-metric flags.
func (e *DayEntry) recomputeOverridden() {
	e.Overridden = e.BMROverridden || e.ActiveOverridden || e.TDEEOverridden
}

// validKcal reports whether v is usable as a caloric value at all.
// Plausibility against the configured maximum is checked separately.
func validKcal(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
