/*
service.go - Ledger service: lazy creation, reset, and their peers

PURPOSE:
  The only code path that creates or mutates ledger rows. GetOrCreate
  materializes a day on first access; Reset returns a day to its system
  baseline; Override/SetBurnReduction/SyncVendorBurn are the mutation peers.

CREATION FLOW (GetOrCreate):
  1. Normalize the input to a local day key (zero time = today)
  2. Future day -> (nil, nil), nothing to estimate yet
  3. Existing row -> returned as-is (the common, cheap path)
  4. No profile -> ErrProfileMissing
  5. Resolve weight: latest weigh-in at or before the END of the target
     local day, falling back to the profile weight
  6. Estimator can't produce a baseline -> ErrDefaultsInputMissing
  7. Insert a fresh row: effective = system baseline, raw_burn =
     system_active_cal, reduction 0, provenance stamped, no overrides
  8. Insert conflict -> exactly one re-read; if the row is still not
     visible, (nil, nil) and the caller tries again later

RACE SAFETY:
  There is no in-process locking. The store's (user_id, entry_date)
  uniqueness constraint decides races; losers re-read instead of failing.
  The re-read happens once - this is not a retry loop.

RESET:
  Reset never recomputes a baseline. The system_* columns are point-in-time
  facts captured at creation; reset copies them back after checking they
  are still plausible (ErrMaxExceeded guards against reapplying a corrupt
  baseline).

SEE ALSO:
  - burn.go: Value-model transitions shared by the mutation paths
  - store.go: The ports this service drives
*/
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/macrolog/burn-ledger/daykey"
	"github.com/macrolog/burn-ledger/logger"
)

// DefaultMaxPlausibleKcal caps any single stored caloric value. Real-world
// TDEEs top out near half of this; anything beyond it is a corrupt or
// mis-computed baseline, not a big day.
const DefaultMaxPlausibleKcal = 20000

// Config tunes a Service. The zero value is usable.
type Config struct {
	// MaxPlausibleKcal bounds every caloric value written by this service.
	// Zero means DefaultMaxPlausibleKcal.
	MaxPlausibleKcal float64

	// Now supplies the clock. Nil means time.Now. Tests inject this to pin
	// "today" and provenance timestamps.
	Now func() time.Time

	// Logger receives debug/warn events. Nil means no logging.
	Logger *logger.Logger
}

// Service orchestrates the ledger. It owns row creation exclusively: no
// other code path may insert ledger rows, because defaults capture
// point-in-time profile and weight facts.
type Service struct {
	entries   EntryStore
	profiles  ProfileSource
	weights   WeightHistory
	estimator Estimator

	maxKcal float64
	now     func() time.Time
	log     *logger.Logger
}

// New wires a Service to its collaborators.
func New(entries EntryStore, profiles ProfileSource, weights WeightHistory, estimator Estimator, cfg Config) *Service {
	s := &Service{
		entries:   entries,
		profiles:  profiles,
		weights:   weights,
		estimator: estimator,
		maxKcal:   cfg.MaxPlausibleKcal,
		now:       cfg.Now,
		log:       cfg.Logger,
	}
	if s.maxKcal <= 0 {
		s.maxKcal = DefaultMaxPlausibleKcal
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = logger.NewNop()
	}
	return s
}

// =============================================================================
// GET OR CREATE
// =============================================================================

// GetOrCreate returns the ledger row for (userID, day), materializing it on
// first access. A zero `on` means today. Future days return (nil, nil): a
// nil row with a nil error is "not available yet", not a failure, and the
// same signal covers the rare unresolved insert race.
func (s *Service) GetOrCreate(ctx context.Context, userID string, on time.Time) (*DayEntry, error) {
	if on.IsZero() {
		on = s.now()
	}
	day := daykey.Normalize(on)
	today := daykey.Normalize(s.now())
	if day.After(today) {
		return nil, nil
	}

	existing, err := s.entries.FindByDay(ctx, userID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to look up ledger day: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	profile, err := s.profiles.Profile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if profile == nil {
		return nil, fmt.Errorf("user %s: %w", userID, ErrProfileMissing)
	}

	weightLb, err := s.resolveWeight(ctx, userID, day, profile)
	if err != nil {
		return nil, err
	}

	base, ok := s.estimator.Baseline(BaselineInput{
		Gender:        profile.Gender,
		DOB:           profile.DOB,
		HeightCm:      profile.HeightCm,
		WeightLb:      weightLb,
		ActivityLevel: profile.ActivityLevel,
	})
	if !ok {
		return nil, fmt.Errorf("user %s on %s: %w", userID, day, ErrDefaultsInputMissing)
	}

	now := s.now().UTC()
	entry := &DayEntry{
		ID:     uuid.NewString(),
		UserID: userID,
		Day:    day,

		BMRCal:    base.BMR,
		ActiveCal: base.Active,
		TDEECal:   base.TDEE,

		SystemBMRCal:    base.BMR,
		SystemActiveCal: base.Active,
		SystemTDEECal:   base.TDEE,

		BurnReductionPct: 0,
		RawBurn:          floatPtr(base.Active),
		RawBurnSource:    SourceSystem,
		RawLastSyncedAt:  &now,

		Source:    SourceSystem,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.entries.Insert(ctx, entry)
	if err == nil {
		s.log.Debug("materialized ledger day",
			"user", userID, "day", day.String(), "tdee", base.TDEE)
		return entry, nil
	}
	if !errors.Is(err, ErrDuplicateDay) {
		return nil, fmt.Errorf("failed to insert ledger day: %w", err)
	}

	// Lost the creation race. One re-read, never a loop: exactly one retry
	// is the contract, so a genuine storage outage surfaces instead of
	// being masked.
	winner, err := s.entries.FindByDay(ctx, userID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to re-read ledger day after conflict: %w", err)
	}
	if winner == nil {
		s.log.Warn("ledger day conflicted but is not visible yet",
			"user", userID, "day", day.String())
		return nil, nil
	}
	return winner, nil
}

// =============================================================================
// RESET
// =============================================================================

// Reset returns the row for (userID, day) to its system baseline, creating
// it first if needed (reset and create converge to the same state). The
// stored system_* values are verified against the plausibility cap before
// being reapplied; on ErrMaxExceeded nothing is written.
func (s *Service) Reset(ctx context.Context, userID string, on time.Time) (*DayEntry, error) {
	entry, err := s.GetOrCreate(ctx, userID, on)
	if err != nil || entry == nil {
		return entry, err
	}

	for _, c := range []struct {
		field string
		value float64
	}{
		{"system_bmr_cal", entry.SystemBMRCal},
		{"system_active_cal", entry.SystemActiveCal},
		{"system_tdee_cal", entry.SystemTDEECal},
	} {
		if err := s.checkPlausible(userID, entry.Day, c.field, c.value); err != nil {
			return nil, err
		}
	}

	entry.restoreBaseline(s.now().UTC())
	updated, err := s.entries.Update(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("failed to reset ledger day: %w", err)
	}
	s.log.Debug("reset ledger day", "user", userID, "day", entry.Day.String())
	return updated, nil
}

// =============================================================================
// OVERRIDE PEERS
// =============================================================================

// Override replaces one or more effective values with manual ones and marks
// them overridden. The system baseline and the raw model are untouched; an
// override hides them, it does not rewrite them.
func (s *Service) Override(ctx context.Context, userID string, on time.Time, patch OverridePatch) (*DayEntry, error) {
	if patch.IsEmpty() {
		return nil, fmt.Errorf("override patch is empty: %w", ErrValueOutOfRange)
	}
	if on.IsZero() {
		on = s.now()
	}
	day := daykey.Normalize(on)
	for _, c := range []struct {
		field string
		value *float64
	}{
		{"bmr_cal", patch.BMRCal},
		{"active_cal", patch.ActiveCal},
		{"tdee_cal", patch.TDEECal},
	} {
		if c.value == nil {
			continue
		}
		if !validKcal(*c.value) {
			return nil, fmt.Errorf("%s %v: %w", c.field, *c.value, ErrValueOutOfRange)
		}
		if err := s.checkPlausible(userID, day, c.field, *c.value); err != nil {
			return nil, err
		}
	}

	entry, err := s.GetOrCreate(ctx, userID, on)
	if err != nil || entry == nil {
		return entry, err
	}

	if patch.BMRCal != nil {
		entry.BMRCal = *patch.BMRCal
		entry.BMROverridden = true
	}
	if patch.ActiveCal != nil {
		entry.ActiveCal = *patch.ActiveCal
		entry.ActiveOverridden = true
	}
	if patch.TDEECal != nil {
		entry.TDEECal = *patch.TDEECal
		entry.TDEEOverridden = true
	}
	entry.recomputeOverridden()
	entry.Source = SourceManual
	entry.UpdatedAt = s.now().UTC()

	updated, err := s.entries.Update(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("failed to store override: %w", err)
	}
	s.log.Debug("overrode ledger day", "user", userID, "day", entry.Day.String())
	return updated, nil
}

// SetBurnReduction sets the percentage discount applied to the raw burn and
// re-derives the effective active calories from it. A manual active
// override is cleared by this: the effective value is raw-derived again.
func (s *Service) SetBurnReduction(ctx context.Context, userID string, on time.Time, pct int) (*DayEntry, error) {
	if pct < 0 || pct > 100 {
		return nil, fmt.Errorf("burn reduction %d%%: %w", pct, ErrValueOutOfRange)
	}

	entry, err := s.GetOrCreate(ctx, userID, on)
	if err != nil || entry == nil {
		return entry, err
	}
	if entry.RawBurn == nil {
		return nil, fmt.Errorf("no raw burn on %s to reduce: %w", entry.Day, ErrValueOutOfRange)
	}
	if !validKcal(*entry.RawBurn) {
		return nil, fmt.Errorf("stored raw_burn %v on %s: %w", *entry.RawBurn, entry.Day, ErrValueOutOfRange)
	}

	entry.BurnReductionPct = pct
	entry.ActiveCal = ReducedBurn(*entry.RawBurn, pct)
	entry.ActiveOverridden = false
	if !entry.TDEEOverridden {
		entry.TDEECal = entry.BMRCal + entry.ActiveCal
	}
	entry.recomputeOverridden()
	entry.Source = effectiveSource(entry)
	entry.UpdatedAt = s.now().UTC()

	updated, err := s.entries.Update(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("failed to store burn reduction: %w", err)
	}
	s.log.Debug("set burn reduction",
		"user", userID, "day", entry.Day.String(), "pct", pct)
	return updated, nil
}

// SyncVendorBurn records an unreduced burn figure delivered by a wearable
// integration and re-derives the effective values that are not manually
// overridden. The current reduction percentage keeps applying to the new
// raw figure.
func (s *Service) SyncVendorBurn(ctx context.Context, userID string, on time.Time, in VendorBurn) (*DayEntry, error) {
	if on.IsZero() {
		on = s.now()
	}
	day := daykey.Normalize(on)
	if !validKcal(in.BurnCal) {
		return nil, fmt.Errorf("raw_burn %v: %w", in.BurnCal, ErrValueOutOfRange)
	}
	if err := s.checkPlausible(userID, day, "raw_burn", in.BurnCal); err != nil {
		return nil, err
	}
	if in.TDEECal != nil {
		if !validKcal(*in.TDEECal) {
			return nil, fmt.Errorf("raw_tdee %v: %w", *in.TDEECal, ErrValueOutOfRange)
		}
		if err := s.checkPlausible(userID, day, "raw_tdee", *in.TDEECal); err != nil {
			return nil, err
		}
	}

	entry, err := s.GetOrCreate(ctx, userID, on)
	if err != nil || entry == nil {
		return entry, err
	}

	now := s.now().UTC()
	entry.RawBurn = floatPtr(in.BurnCal)
	entry.RawTDEE = nil
	if in.TDEECal != nil {
		entry.RawTDEE = floatPtr(*in.TDEECal)
	}
	entry.RawBurnSource = SourceVendor
	entry.RawLastSyncedAt = &now
	if in.ExternalID != "" {
		entry.VendorExternalID = strPtr(in.ExternalID)
	}
	if in.PayloadHash != "" {
		entry.VendorPayloadHash = strPtr(in.PayloadHash)
	}
	entry.SyncedAt = &now

	if !entry.ActiveOverridden {
		entry.ActiveCal = ReducedBurn(in.BurnCal, entry.BurnReductionPct)
	}
	if !entry.TDEEOverridden {
		entry.TDEECal = entry.BMRCal + entry.ActiveCal
	}
	entry.Source = effectiveSource(entry)
	entry.UpdatedAt = now

	updated, err := s.entries.Update(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("failed to store vendor burn: %w", err)
	}
	s.log.Debug("synced vendor burn",
		"user", userID, "day", entry.Day.String(), "burn", in.BurnCal)
	return updated, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// resolveWeight picks the weight a target day's estimate should use: the
// most recent weigh-in at or before the end of that local day, falling back
// to the profile's stored weight. Returns nil when neither exists; the
// estimator then reports missing inputs.
func (s *Service) resolveWeight(ctx context.Context, userID string, day daykey.Key, profile *Profile) (*float64, error) {
	wi, err := s.weights.LatestAtOrBefore(ctx, userID, day.EndOfDay())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve weight: %w", err)
	}
	if wi != nil {
		return floatPtr(wi.WeightLb), nil
	}
	return profile.WeightLb, nil
}

func (s *Service) checkPlausible(userID string, day daykey.Key, field string, value float64) error {
	if value > s.maxKcal {
		return &MaxExceededError{
			UserID: userID,
			Day:    day,
			Field:  field,
			Value:  value,
			Max:    s.maxKcal,
		}
	}
	return nil
}

// effectiveSource derives the provenance of the effective values after a
// raw-model mutation: manual overrides win, then a vendor raw figure, then
// the system baseline.
func effectiveSource(e *DayEntry) Source {
	switch {
	case e.Overridden:
		return SourceManual
	case e.RawBurnSource == SourceVendor:
		return SourceVendor
	default:
		return SourceSystem
	}
}
