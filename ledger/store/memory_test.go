package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macrolog/burn-ledger/daykey"
	"github.com/macrolog/burn-ledger/ledger"
	"github.com/macrolog/burn-ledger/ledger/store"
)

func testEntry(userID string, day daykey.Key) *ledger.DayEntry {
	now := time.Date(2024, time.January, 10, 18, 0, 0, 0, time.UTC)
	raw := 746.0
	return &ledger.DayEntry{
		ID:              "e-" + string(day),
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

func TestMemory_InsertAndFind(t *testing.T) {
	m := store.NewMemory()
	e := testEntry("user-1", "2024-01-10")
	require.NoError(t, m.Insert(context.Background(), e))

	got, err := m.FindByDay(context.Background(), "user-1", "2024-01-10")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, e, got)
	assert.Equal(t, 1, m.InsertCount())

	missing, err := m.FindByDay(context.Background(), "user-1", "2024-01-11")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemory_DuplicateInsert(t *testing.T) {
	m := store.NewMemory()
	require.NoError(t, m.Insert(context.Background(), testEntry("user-1", "2024-01-10")))

	dup := testEntry("user-1", "2024-01-10")
	dup.ID = "different-id"
	err := m.Insert(context.Background(), dup)

	require.ErrorIs(t, err, ledger.ErrDuplicateDay)
	assert.Equal(t, 1, m.InsertCount())
	assert.Equal(t, 1, m.Len())
}

func TestMemory_UpdatePreservesFrozenColumns(t *testing.T) {
	m := store.NewMemory()
	e := testEntry("user-1", "2024-01-10")
	require.NoError(t, m.Insert(context.Background(), e))

	// a buggy caller scribbles on the frozen columns too
	mod := testEntry("user-1", "2024-01-10")
	mod.ActiveCal = 600
	mod.TDEECal = 1955
	mod.BurnReductionPct = 20
	mod.SystemBMRCal = 9999
	mod.SystemActiveCal = 9999
	mod.SystemTDEECal = 9999
	mod.CreatedAt = mod.CreatedAt.Add(time.Hour)

	got, err := m.Update(context.Background(), mod)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, float64(600), got.ActiveCal)
	assert.Equal(t, float64(1955), got.TDEECal)
	assert.Equal(t, 20, got.BurnReductionPct)

	// identity, baseline, and created_at kept their stored values
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, float64(1355), got.SystemBMRCal)
	assert.Equal(t, float64(746), got.SystemActiveCal)
	assert.Equal(t, float64(2101), got.SystemTDEECal)
	assert.Equal(t, e.CreatedAt, got.CreatedAt)
}

func TestMemory_UpdateVanishedRow(t *testing.T) {
	m := store.NewMemory()

	got, err := m.Update(context.Background(), testEntry("user-1", "2024-01-10"))
	require.NoError(t, err)
	assert.Nil(t, got)

	// a row exists but under a different ID: treated as vanished
	require.NoError(t, m.Insert(context.Background(), testEntry("user-1", "2024-01-11")))
	stale := testEntry("user-1", "2024-01-11")
	stale.ID = "stale-id"
	got, err = m.Update(context.Background(), stale)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemory_ReturnsCopies(t *testing.T) {
	m := store.NewMemory()
	require.NoError(t, m.Insert(context.Background(), testEntry("user-1", "2024-01-10")))

	first, err := m.FindByDay(context.Background(), "user-1", "2024-01-10")
	require.NoError(t, err)
	first.ActiveCal = 1
	*first.RawBurn = 1

	second, err := m.FindByDay(context.Background(), "user-1", "2024-01-10")
	require.NoError(t, err)
	assert.Equal(t, float64(746), second.ActiveCal)
	assert.Equal(t, float64(746), *second.RawBurn)
}

func TestMemory_LatestAtOrBefore(t *testing.T) {
	m := store.NewMemory()
	base := time.Date(2024, time.January, 10, 8, 0, 0, 0, time.UTC)
	m.AddWeighIn(ledger.WeighIn{ID: "w1", UserID: "user-1", WeightLb: 150, MeasuredAt: base.AddDate(0, 0, -7)})
	m.AddWeighIn(ledger.WeighIn{ID: "w2", UserID: "user-1", WeightLb: 142, MeasuredAt: base})
	m.AddWeighIn(ledger.WeighIn{ID: "w3", UserID: "user-1", WeightLb: 140, MeasuredAt: base.AddDate(0, 0, 2)})

	// the boundary is inclusive
	got, err := m.LatestAtOrBefore(context.Background(), "user-1", base)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "w2", got.ID)

	got, err = m.LatestAtOrBefore(context.Background(), "user-1", base.AddDate(0, 1, 0))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "w3", got.ID)

	got, err = m.LatestAtOrBefore(context.Background(), "user-1", base.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = m.LatestAtOrBefore(context.Background(), "someone-else", base)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemory_ProfileRoundTrip(t *testing.T) {
	m := store.NewMemory()

	got, err := m.Profile(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	gender := "female"
	weight := 142.0
	m.PutProfile(ledger.Profile{UserID: "user-1", Gender: &gender, WeightLb: &weight})

	got, err = m.Profile(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "female", *got.Gender)
	assert.Equal(t, 142.0, *got.WeightLb)
	assert.Nil(t, got.HeightCm)

	// a second put replaces wholesale
	weight2 := 140.0
	m.PutProfile(ledger.Profile{UserID: "user-1", WeightLb: &weight2})
	got, err = m.Profile(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.Gender)
	assert.Equal(t, 140.0, *got.WeightLb)
}
