/*
store.go - Persistence and collaborator ports

PURPOSE:
  Defines the interfaces between the ledger service and everything it
  consumes: durable entry storage, the profile source, the weight history,
  and the baseline estimator. Implementations live elsewhere (store/sqlite,
  ledger/store for in-memory, estimate for the default estimator).

ROW-ABSENT CONVENTION:
  Lookups return (nil, nil) when no row exists. A nil error with a nil row
  is the normal "not found" signal, not a failure.

SINGLE CREATOR:
  EntryStore.Insert exists for the Service alone. Any other code path that
  creates ledger rows violates the point-in-time baseline rule, because
  defaults depend on profile/weight data captured exactly once.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production storage
  - ledger/store/memory.go: In-memory for tests and demos
*/
package ledger

import (
	"context"
	"time"

	"github.com/macrolog/burn-ledger/daykey"
)

// =============================================================================
// ENTRY STORE - Durable per-(user, day) persistence
// =============================================================================

// EntryStore persists ledger rows under a uniqueness constraint on
// (user_id, entry_date). That constraint is the subsystem's only
// concurrency control.
type EntryStore interface {
	// FindByDay returns the row for (userID, day), or (nil, nil).
	FindByDay(ctx context.Context, userID string, day daykey.Key) (*DayEntry, error)

	// Insert persists a new row. Returns ErrDuplicateDay when a concurrent
	// caller already created the same (user, day).
	Insert(ctx context.Context, e *DayEntry) error

	// Update rewrites the row's mutable columns (effective values, flags,
	// raw model, vendor bookkeeping, source, updated_at) by ID. Identity,
	// system_* baselines, and created_at are never written. Returns the
	// stored row after the write, or (nil, nil) if the row vanished.
	Update(ctx context.Context, e *DayEntry) (*DayEntry, error)
}

// =============================================================================
// COLLABORATORS
// =============================================================================

// ProfileSource resolves a user's biometric profile.
type ProfileSource interface {
	// Profile returns the user's profile, or (nil, nil) when none exists.
	Profile(ctx context.Context, userID string) (*Profile, error)
}

// WeightHistory resolves historical body weight. Lookups for a target day
// are bounded by the end of that local day so past days reconstruct the
// estimate they would have had, not today's weight retroactively.
type WeightHistory interface {
	// LatestAtOrBefore returns the most recent weigh-in measured at or
	// before the given instant, or (nil, nil) when there is none.
	LatestAtOrBefore(ctx context.Context, userID string, at time.Time) (*WeighIn, error)
}

// Estimator maps demographics plus a resolved weight to a baseline. It is a
// pure function: ok=false signals insufficient inputs, never a fault.
type Estimator interface {
	Baseline(in BaselineInput) (Baseline, bool)
}
