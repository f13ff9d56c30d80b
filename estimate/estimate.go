/*
Package estimate provides the default baseline energy estimator.

PURPOSE:
  Maps a user's demographics plus a resolved body weight to baseline
  basal/active/total energy expenditure using Mifflin-St Jeor. This is a
  pure calculation: no clock beyond age derivation, no I/O, no state.

CONTRACT:
  Implements ledger.Estimator. ok=false means the inputs cannot support an
  estimate (missing field, unknown gender or activity level, implausible
  age or measurements) - it is never a fault.

ROUNDING:
  Results are whole kcal with TDEE == BMR + Active holding exactly, so the
  identity survives storage and later tdee = bmr + active re-derivations.
*/
package estimate

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/macrolog/burn-ledger/ledger"
)

const lbPerKg = 2.20462

// activityMultipliers maps activity level strings to their TDEE multiplier.
// This is the single source of truth for valid activity levels.
var activityMultipliers = map[string]float64{
	"sedentary":   1.2,
	"light":       1.375,
	"moderate":    1.55,
	"active":      1.725,
	"very_active": 1.9,
}

// ActivityLevels returns the accepted activity level names.
func ActivityLevels() []string {
	return []string{"sedentary", "light", "moderate", "active", "very_active"}
}

// MifflinStJeor is the default ledger.Estimator.
type MifflinStJeor struct{}

func New() MifflinStJeor { return MifflinStJeor{} }

// Baseline computes BMR via Mifflin-St Jeor and TDEE via the activity
// multiplier. Active is the difference, so the three values are consistent
// in whole kcal.
func (MifflinStJeor) Baseline(in ledger.BaselineInput) (ledger.Baseline, bool) {
	if in.Gender == nil || in.DOB == nil || in.HeightCm == nil ||
		in.WeightLb == nil || in.ActivityLevel == nil {
		return ledger.Baseline{}, false
	}

	// Age derived from date of birth, adjusted if the birthday hasn't
	// occurred yet this year.
	today := time.Now()
	age := today.Year() - in.DOB.Year()
	if today.Before(in.DOB.AddDate(age, 0, 0)) {
		age--
	}
	if age < 0 || age > 130 {
		return ledger.Baseline{}, false
	}

	weightKg := *in.WeightLb / lbPerKg
	if !plausibleMeasurement(weightKg) || !plausibleMeasurement(*in.HeightCm) {
		return ledger.Baseline{}, false
	}

	bmrF := 10*weightKg + 6.25**in.HeightCm - 5*float64(age)
	switch strings.ToLower(*in.Gender) {
	case "male":
		bmrF += 5
	case "female":
		bmrF -= 161
	default:
		return ledger.Baseline{}, false
	}
	if bmrF <= 0 || math.IsInf(bmrF, 0) {
		return ledger.Baseline{}, false
	}

	mult, found := activityMultipliers[strings.ToLower(*in.ActivityLevel)]
	if !found {
		return ledger.Baseline{}, false
	}

	// Extreme yet finite measurements can still overflow the arithmetic.
	tdeeF := bmrF * mult
	if math.IsInf(tdeeF, 0) {
		return ledger.Baseline{}, false
	}

	b := ledger.Baseline{
		BMR:  roundKcal(bmrF),
		TDEE: roundKcal(tdeeF),
	}
	b.Active = b.TDEE - b.BMR
	return b, true
}

// plausibleMeasurement reports whether v is usable as a body measurement:
// finite and strictly positive.
func plausibleMeasurement(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

func roundKcal(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(0).Float64()
	return f
}
