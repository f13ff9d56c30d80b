/*
sqlite_test.go - SQLite store behavior

PURPOSE:
  Verifies the persistence contract the service relies on: round-trip
  fidelity for every column, the (user_id, entry_date) uniqueness rule,
  update immutability of identity and baseline columns, and the
  latest-at-or-before weight lookup.

NOTE:
  Timestamps in fixtures are whole seconds in UTC because the store
  persists RFC3339 TEXT.
*/
package sqlite_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macrolog/burn-ledger/daykey"
	"github.com/macrolog/burn-ledger/ledger"
	"github.com/macrolog/burn-ledger/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err, "Failed to create test store")
	t.Cleanup(func() { store.Close() })
	return store
}

// fullEntry populates every nullable column.
func fullEntry() *ledger.DayEntry {
	now := time.Date(2024, time.January, 10, 18, 30, 0, 0, time.UTC)
	synced := time.Date(2024, time.January, 10, 7, 15, 0, 0, time.UTC)
	rawBurn, rawTDEE := 910.0, 2300.0
	extID, hash := "fit-abc", "8c01"
	return &ledger.DayEntry{
		ID:     "entry-1",
		UserID: "user-1",
		Day:    daykey.Key("2024-01-10"),

		BMRCal:    1355,
		ActiveCal: 683,
		TDEECal:   2038,

		SystemBMRCal:    1355,
		SystemActiveCal: 746,
		SystemTDEECal:   2101,

		TDEEOverridden: true,
		Overridden:     true,

		BurnReductionPct: 25,
		RawBurn:          &rawBurn,
		RawTDEE:          &rawTDEE,
		RawBurnSource:    ledger.SourceVendor,
		RawLastSyncedAt:  &synced,

		Source:            ledger.SourceManual,
		VendorExternalID:  &extID,
		VendorPayloadHash: &hash,
		SyncedAt:          &synced,

		CreatedAt: now,
		UpdatedAt: now,
	}
}

// bareEntry is a fresh creation-state row: raw_burn set, everything else
// nullable left null.
func bareEntry(userID string, day daykey.Key) *ledger.DayEntry {
	now := time.Date(2024, time.January, 10, 18, 0, 0, 0, time.UTC)
	raw := 746.0
	return &ledger.DayEntry{
		ID:              "e-" + userID + "-" + string(day),
		UserID:          userID,
		Day:             day,
		BMRCal:          1355,
		ActiveCal:       746,
		TDEECal:         2101,
		SystemBMRCal:    1355,
		SystemActiveCal: 746,
		SystemTDEECal:   2101,
		RawBurn:         &raw,
		RawBurnSource:   ledger.SourceSystem,
		RawLastSyncedAt: &now,
		Source:          ledger.SourceSystem,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// =============================================================================
// ENTRY STORE
// =============================================================================

func TestStore_InsertAndFindRoundTrip(t *testing.T) {
	store := newTestStore(t)
	e := fullEntry()

	require.NoError(t, store.Insert(context.Background(), e))

	got, err := store.FindByDay(context.Background(), "user-1", "2024-01-10")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, e, got)
}

func TestStore_NullableColumnsStayNull(t *testing.T) {
	store := newTestStore(t)
	now := time.Date(2024, time.January, 10, 18, 0, 0, 0, time.UTC)
	e := &ledger.DayEntry{
		ID:              "entry-null",
		UserID:          "user-1",
		Day:             daykey.Key("2024-01-09"),
		BMRCal:          1355,
		ActiveCal:       746,
		TDEECal:         2101,
		SystemBMRCal:    1355,
		SystemActiveCal: 746,
		SystemTDEECal:   2101,
		RawBurnSource:   ledger.SourceSystem,
		Source:          ledger.SourceSystem,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	require.NoError(t, store.Insert(context.Background(), e))

	got, err := store.FindByDay(context.Background(), "user-1", "2024-01-09")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.RawBurn)
	assert.Nil(t, got.RawTDEE)
	assert.Nil(t, got.RawLastSyncedAt)
	assert.Nil(t, got.VendorExternalID)
	assert.Nil(t, got.VendorPayloadHash)
	assert.Nil(t, got.SyncedAt)
}

func TestStore_FindByDayMiss(t *testing.T) {
	store := newTestStore(t)

	got, err := store.FindByDay(context.Background(), "user-1", "2024-01-10")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_DuplicateDayRejected(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Insert(context.Background(), bareEntry("user-1", "2024-01-10")))

	// same (user, day) under a new ID collides
	dup := bareEntry("user-1", "2024-01-10")
	dup.ID = "another-id"
	require.ErrorIs(t, store.Insert(context.Background(), dup), ledger.ErrDuplicateDay)

	// a different day or a different user does not
	require.NoError(t, store.Insert(context.Background(), bareEntry("user-1", "2024-01-11")))
	require.NoError(t, store.Insert(context.Background(), bareEntry("user-2", "2024-01-10")))
}

func TestStore_IDCollisionIsNotADuplicateDay(t *testing.T) {
	store := newTestStore(t)
	first := bareEntry("user-1", "2024-01-10")
	require.NoError(t, store.Insert(context.Background(), first))

	// a reused primary key on a different (user, day) is a storage fault,
	// not a lost creation race
	clash := bareEntry("user-2", "2024-01-11")
	clash.ID = first.ID
	err := store.Insert(context.Background(), clash)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ledger.ErrDuplicateDay)
}

func TestStore_ConcurrentInsert_OneWinner(t *testing.T) {
	store := newTestStore(t)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e := bareEntry("user-1", "2024-01-10")
			e.ID = fmt.Sprintf("entry-%d", i)
			errs[i] = store.Insert(context.Background(), e)
		}(i)
	}
	wg.Wait()

	var dupes int
	for _, err := range errs {
		if err != nil {
			require.ErrorIs(t, err, ledger.ErrDuplicateDay)
			dupes++
		}
	}
	assert.Equal(t, 1, dupes, "Exactly one insert should lose the race")
}

func TestStore_UpdateWritesMutableColumnsOnly(t *testing.T) {
	store := newTestStore(t)
	orig := bareEntry("user-1", "2024-01-10")
	require.NoError(t, store.Insert(context.Background(), orig))

	// mutate the effective state, and scribble on the frozen columns too
	mod := bareEntry("user-1", "2024-01-10")
	mod.ActiveCal = 597
	mod.TDEECal = 1952
	mod.BurnReductionPct = 20
	mod.TDEEOverridden = true
	mod.Overridden = true
	mod.Source = ledger.SourceManual
	mod.UpdatedAt = time.Date(2024, time.January, 10, 20, 0, 0, 0, time.UTC)
	mod.SystemBMRCal = 9999
	mod.SystemActiveCal = 9999
	mod.SystemTDEECal = 9999
	mod.CreatedAt = time.Date(2030, time.June, 1, 0, 0, 0, 0, time.UTC)

	got, err := store.Update(context.Background(), mod)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, float64(597), got.ActiveCal)
	assert.Equal(t, float64(1952), got.TDEECal)
	assert.Equal(t, 20, got.BurnReductionPct)
	assert.True(t, got.TDEEOverridden)
	assert.Equal(t, ledger.SourceManual, got.Source)
	assert.Equal(t, mod.UpdatedAt, got.UpdatedAt)

	// the frozen columns kept their stored values
	assert.Equal(t, float64(1355), got.SystemBMRCal)
	assert.Equal(t, float64(746), got.SystemActiveCal)
	assert.Equal(t, float64(2101), got.SystemTDEECal)
	assert.Equal(t, orig.CreatedAt, got.CreatedAt)
}

func TestStore_UpdateVanishedRow(t *testing.T) {
	store := newTestStore(t)

	got, err := store.Update(context.Background(), bareEntry("user-1", "2024-01-10"))
	require.NoError(t, err)
	assert.Nil(t, got)

	// a row exists for the day but under a different ID
	require.NoError(t, store.Insert(context.Background(), bareEntry("user-1", "2024-01-11")))
	stale := bareEntry("user-1", "2024-01-11")
	stale.ID = "stale-id"
	got, err = store.Update(context.Background(), stale)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_RecentEntries(t *testing.T) {
	store := newTestStore(t)
	for _, day := range []daykey.Key{"2024-01-08", "2024-01-10", "2024-01-09"} {
		require.NoError(t, store.Insert(context.Background(), bareEntry("user-1", day)))
	}
	require.NoError(t, store.Insert(context.Background(), bareEntry("user-2", "2024-01-10")))

	entries, err := store.RecentEntries(context.Background(), "user-1", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, daykey.Key("2024-01-10"), entries[0].Day)
	assert.Equal(t, daykey.Key("2024-01-09"), entries[1].Day)

	entries, err = store.RecentEntries(context.Background(), "user-1", 10)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

// =============================================================================
// PROFILES
// =============================================================================

func TestStore_ProfileSaveAndLoad(t *testing.T) {
	store := newTestStore(t)

	got, err := store.Profile(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	gender, activity := "female", "moderate"
	dob := time.Date(1994, time.March, 2, 0, 0, 0, 0, time.UTC)
	heightCm, weightLb := 165.0, 142.0
	require.NoError(t, store.SaveProfile(context.Background(), ledger.Profile{
		UserID:        "user-1",
		Gender:        &gender,
		DOB:           &dob,
		HeightCm:      &heightCm,
		WeightLb:      &weightLb,
		ActivityLevel: &activity,
	}))

	got, err = store.Profile(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "female", *got.Gender)
	assert.Equal(t, dob, *got.DOB)
	assert.Equal(t, 165.0, *got.HeightCm)
	assert.Equal(t, 142.0, *got.WeightLb)
	assert.Equal(t, "moderate", *got.ActivityLevel)
	assert.False(t, got.CreatedAt.IsZero())

	// saving again upserts in place
	weightLb = 140.0
	require.NoError(t, store.SaveProfile(context.Background(), ledger.Profile{
		UserID:        "user-1",
		Gender:        &gender,
		DOB:           &dob,
		HeightCm:      &heightCm,
		WeightLb:      &weightLb,
		ActivityLevel: &activity,
	}))
	got, err = store.Profile(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 140.0, *got.WeightLb)
}

func TestStore_ProfileWithNoBiometrics(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.SaveProfile(context.Background(), ledger.Profile{UserID: "bare-user"}))

	got, err := store.Profile(context.Background(), "bare-user")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.Gender)
	assert.Nil(t, got.DOB)
	assert.Nil(t, got.HeightCm)
	assert.Nil(t, got.WeightLb)
	assert.Nil(t, got.ActivityLevel)
}

// =============================================================================
// WEIGHT HISTORY
// =============================================================================

func TestStore_LatestAtOrBefore(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2024, time.January, 10, 8, 0, 0, 0, time.UTC)
	for i, w := range []ledger.WeighIn{
		{ID: "w1", UserID: "user-1", WeightLb: 150, MeasuredAt: base.AddDate(0, 0, -7)},
		{ID: "w2", UserID: "user-1", WeightLb: 142, MeasuredAt: base},
		{ID: "w3", UserID: "user-1", WeightLb: 140, MeasuredAt: base.AddDate(0, 0, 2)},
	} {
		w.CreatedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, store.AddWeighIn(context.Background(), w))
	}

	// the boundary instant itself is included
	got, err := store.LatestAtOrBefore(context.Background(), "user-1", base)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "w2", got.ID)
	assert.Equal(t, float64(142), got.WeightLb)
	assert.Equal(t, base, got.MeasuredAt)

	// later bounds pick up later measurements
	got, err = store.LatestAtOrBefore(context.Background(), "user-1", base.AddDate(0, 1, 0))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "w3", got.ID)

	// nothing measured early enough
	got, err = store.LatestAtOrBefore(context.Background(), "user-1", base.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Nil(t, got)

	// other users' history is invisible
	got, err = store.LatestAtOrBefore(context.Background(), "someone-else", base)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_ListWeighIns_NewestFirst(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2024, time.January, 10, 8, 0, 0, 0, time.UTC)
	for _, w := range []ledger.WeighIn{
		{ID: "w1", UserID: "user-1", WeightLb: 150, MeasuredAt: base.AddDate(0, 0, -7), CreatedAt: base},
		{ID: "w3", UserID: "user-1", WeightLb: 140, MeasuredAt: base.AddDate(0, 0, 2), CreatedAt: base},
		{ID: "w2", UserID: "user-1", WeightLb: 142, MeasuredAt: base, CreatedAt: base},
	} {
		require.NoError(t, store.AddWeighIn(context.Background(), w))
	}

	weighIns, err := store.ListWeighIns(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, weighIns, 3)
	assert.Equal(t, "w3", weighIns[0].ID)
	assert.Equal(t, "w2", weighIns[1].ID)
	assert.Equal(t, "w1", weighIns[2].ID)
}

// =============================================================================
// RESET
// =============================================================================

func TestStore_ResetClearsEverything(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Insert(context.Background(), bareEntry("user-1", "2024-01-10")))
	require.NoError(t, store.SaveProfile(context.Background(), ledger.Profile{UserID: "user-1"}))
	require.NoError(t, store.AddWeighIn(context.Background(), ledger.WeighIn{
		ID: "w1", UserID: "user-1", WeightLb: 142,
		MeasuredAt: time.Date(2024, time.January, 10, 8, 0, 0, 0, time.UTC),
		CreatedAt:  time.Date(2024, time.January, 10, 8, 0, 0, 0, time.UTC),
	}))

	require.NoError(t, store.Reset(context.Background()))

	entry, err := store.FindByDay(context.Background(), "user-1", "2024-01-10")
	require.NoError(t, err)
	assert.Nil(t, entry)

	profile, err := store.Profile(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Nil(t, profile)

	weighIns, err := store.ListWeighIns(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, weighIns)
}
