/*
Package ledger implements the daily energy-expenditure ledger.

PURPOSE:
  This package lazily materializes, defaults, overrides, and resets one
  record per user per calendar day describing energy burned: basal (BMR),
  active, and total (TDEE) calories.

KEY CONCEPTS IN THIS FILE (types.go):
  - DayEntry: The per-(user, day) row with its three-tier value model
  - Source: Provenance of values (system estimate, vendor sync, manual)
  - Profile/WeighIn/Baseline: Data exchanged with collaborators

THREE-TIER VALUE MODEL:
  system_*   What the estimator computed when the row was created.
             Captured once, never recomputed; the reset target.
  raw_*      The last unreduced burn figures, from the baseline or from a
             wearable sync, before any reduction percentage is applied.
  effective  What the app displays (BMRCal/ActiveCal/TDEECal). May equal the
             system baseline, reflect a reduced raw figure, or be a manual
             override.

DESIGN PRINCIPLES:
  1. Lazy materialization: rows exist only after first access for that day
  2. Point-in-time baselines: creation captures profile + historical weight
     as facts; later reads never rewrite them
  3. Single creator: only the Service inserts rows
  4. Optional fields are pointers, never sentinel values

SEE ALSO:
  - service.go: GetOrCreate/Reset and their peers
  - store.go: Persistence and collaborator ports
  - burn.go: Reduction math over the raw model
*/
package ledger

import (
	"time"

	"github.com/macrolog/burn-ledger/daykey"
)

// =============================================================================
// SOURCE - Value provenance
// =============================================================================

type Source string

const (
	SourceSystem Source = "system" // estimator baseline
	SourceVendor Source = "vendor" // synced from a wearable/vendor
	SourceManual Source = "manual" // user override
)

// =============================================================================
// DAY ENTRY - One row per (user, calendar day)
// =============================================================================

type DayEntry struct {
	ID     string     `json:"id"`
	UserID string     `json:"user_id"`
	Day    daykey.Key `json:"entry_date"`

	// Effective values - what the app displays and sums against intake.
	BMRCal    float64 `json:"bmr_cal"`
	ActiveCal float64 `json:"active_cal"`
	TDEECal   float64 `json:"tdee_cal"`

	// System baseline - computed once at creation, the reset target.
	SystemBMRCal    float64 `json:"system_bmr_cal"`
	SystemActiveCal float64 `json:"system_active_cal"`
	SystemTDEECal   float64 `json:"system_tdee_cal"`

	// Per-metric override flags plus the aggregate.
	BMROverridden    bool `json:"bmr_overridden"`
	ActiveOverridden bool `json:"active_overridden"`
	TDEEOverridden   bool `json:"tdee_overridden"`
	Overridden       bool `json:"is_overridden"`

	// Raw burn model. RawBurn/RawTDEE are the last unreduced figures;
	// BurnReductionPct (0-100) discounts RawBurn into the effective
	// ActiveCal. A present RawBurn always has a provenance timestamp.
	BurnReductionPct int        `json:"burn_reduction_pct_int"`
	RawBurn          *float64   `json:"raw_burn,omitempty"`
	RawTDEE          *float64   `json:"raw_tdee,omitempty"`
	RawBurnSource    Source     `json:"raw_burn_source"`
	RawLastSyncedAt  *time.Time `json:"raw_last_synced_at,omitempty"`

	Source Source `json:"source"`

	// Vendor sync bookkeeping.
	VendorExternalID  *string    `json:"vendor_external_id,omitempty"`
	VendorPayloadHash *string    `json:"vendor_payload_hash,omitempty"`
	SyncedAt          *time.Time `json:"synced_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// =============================================================================
// COLLABORATOR DATA
// =============================================================================

// Profile is a user's demographic/biometric snapshot. Every biometric is
// optional; the estimator decides whether enough inputs are present.
type Profile struct {
	UserID        string     `json:"user_id"`
	Gender        *string    `json:"gender,omitempty"`
	DOB           *time.Time `json:"dob,omitempty"`
	HeightCm      *float64   `json:"height_cm,omitempty"`
	WeightLb      *float64   `json:"weight_lb,omitempty"`
	ActivityLevel *string    `json:"activity_level,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// WeighIn is a recorded body-weight measurement.
type WeighIn struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	WeightLb   float64   `json:"weight_lb"`
	MeasuredAt time.Time `json:"measured_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// BaselineInput carries everything the estimator may need. Pointers signal
// optionality; the estimator returns ok=false when a required input is nil.
type BaselineInput struct {
	Gender        *string
	DOB           *time.Time
	HeightCm      *float64
	WeightLb      *float64
	ActivityLevel *string
}

// Baseline is an estimator result in whole kcal, with TDEE == BMR + Active.
type Baseline struct {
	BMR    float64
	Active float64
	TDEE   float64
}

// =============================================================================
// MUTATION INPUTS
// =============================================================================

// OverridePatch carries manual effective values. Nil fields are untouched.
type OverridePatch struct {
	BMRCal    *float64
	ActiveCal *float64
	TDEECal   *float64
}

// IsEmpty reports whether the patch changes nothing.
func (p OverridePatch) IsEmpty() bool {
	return p.BMRCal == nil && p.ActiveCal == nil && p.TDEECal == nil
}

// VendorBurn is a burn figure delivered by a wearable/vendor integration.
// ExternalID and PayloadHash are bookkeeping; empty strings mean not provided.
type VendorBurn struct {
	BurnCal     float64
	TDEECal     *float64
	ExternalID  string
	PayloadHash string
}

func floatPtr(v float64) *float64 { return &v }

func strPtr(s string) *string { return &s }
