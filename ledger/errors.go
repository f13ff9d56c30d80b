/*
errors.go - Centralized error types for the energy ledger

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers match with errors.Is/errors.As; the service wraps these with
  user/day context before returning them.

ERROR CATEGORIES:
  1. Account-state errors - Fatal, surfaced to the caller (profile or
     estimator inputs incomplete)
  2. Integrity errors - Fatal, a stored baseline failed a plausibility check
  3. Store errors - The duplicate-day conflict, absorbed by the service via
     a single re-read and never surfaced

USAGE:
  entry, err := svc.GetOrCreate(ctx, userID, date)
  if ledger.IsAccountIncomplete(err) {
      // send the user back to onboarding
  }

SEE ALSO:
  - service.go: Produces and absorbs these errors
  - store/sqlite: Maps driver uniqueness violations to ErrDuplicateDay
*/
package ledger

import (
	"errors"
	"fmt"

	"github.com/macrolog/burn-ledger/daykey"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrProfileMissing is returned when a user has no biometric profile.
	// A baseline cannot be computed without demographic inputs.
	ErrProfileMissing = errors.New("profile missing")

	// ErrDefaultsInputMissing is returned when a profile exists but the
	// estimator still lacks a required input (height, weight, activity...).
	ErrDefaultsInputMissing = errors.New("defaults input missing")

	// ErrMaxExceeded is returned when a stored baseline value fails the
	// plausibility check before being reapplied.
	ErrMaxExceeded = errors.New("max plausible calories exceeded")

	// ErrDuplicateDay is returned by stores when an insert collides with the
	// (user_id, entry_date) uniqueness constraint. The service recovers from
	// it; callers should never see it.
	ErrDuplicateDay = errors.New("ledger day already exists")

	// ErrValueOutOfRange is returned when a mutation input fails bounds
	// checking (negative calories, reduction outside 0-100, ...).
	ErrValueOutOfRange = errors.New("value out of range")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// MaxExceededError reports which stored baseline value failed the
// plausibility check.
type MaxExceededError struct {
	UserID string
	Day    daykey.Key
	Field  string
	Value  float64
	Max    float64
}

func (e *MaxExceededError) Error() string {
	return fmt.Sprintf("%s for %s on %s: %.0f kcal exceeds maximum plausible %.0f",
		e.Field, e.UserID, e.Day, e.Value, e.Max)
}

func (e *MaxExceededError) Unwrap() error {
	return ErrMaxExceeded
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsAccountIncomplete returns true if the error indicates the user's account
// state cannot support baseline estimation yet. The UI treats these as
// setup problems, not transient failures.
func IsAccountIncomplete(err error) bool {
	return errors.Is(err, ErrProfileMissing) ||
		errors.Is(err, ErrDefaultsInputMissing)
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrMaxExceeded)
}
