// Package store provides in-memory implementations of the ledger ports.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/macrolog/burn-ledger/daykey"
	"github.com/macrolog/burn-ledger/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements ledger.EntryStore, ledger.ProfileSource, and
// ledger.WeightHistory. Rows are copied in and out so callers never alias
// stored state, matching how a durable store behaves.
type Memory struct {
	mu       sync.RWMutex
	entries  map[entryKey]*ledger.DayEntry
	profiles map[string]*ledger.Profile
	weighIns map[string][]ledger.WeighIn
	inserts  int
}

type entryKey struct {
	UserID string
	Day    daykey.Key
}

func NewMemory() *Memory {
	return &Memory{
		entries:  make(map[entryKey]*ledger.DayEntry),
		profiles: make(map[string]*ledger.Profile),
		weighIns: make(map[string][]ledger.WeighIn),
	}
}

// =============================================================================
// ENTRY STORE (ledger.EntryStore interface)
// =============================================================================

func (m *Memory) FindByDay(_ context.Context, userID string, day daykey.Key) (*ledger.DayEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[entryKey{UserID: userID, Day: day}]
	if !ok {
		return nil, nil
	}
	return cloneEntry(e), nil
}

// Insert stores a new row. The uniqueness check and the write happen under
// one lock, which is the in-memory stand-in for a database constraint.
func (m *Memory) Insert(_ context.Context, e *ledger.DayEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := entryKey{UserID: e.UserID, Day: e.Day}
	if _, exists := m.entries[k]; exists {
		return ledger.ErrDuplicateDay
	}
	m.entries[k] = cloneEntry(e)
	m.inserts++
	return nil
}

// Update rewrites the mutable columns of an existing row. Identity, the
// system_* baselines, and created_at are never touched, mirroring the
// durable store's UPDATE statement.
func (m *Memory) Update(_ context.Context, e *ledger.DayEntry) (*ledger.DayEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.entries[entryKey{UserID: e.UserID, Day: e.Day}]
	if !ok || cur.ID != e.ID {
		return nil, nil
	}

	next := cloneEntry(e)
	next.ID = cur.ID
	next.UserID = cur.UserID
	next.Day = cur.Day
	next.SystemBMRCal = cur.SystemBMRCal
	next.SystemActiveCal = cur.SystemActiveCal
	next.SystemTDEECal = cur.SystemTDEECal
	next.CreatedAt = cur.CreatedAt
	m.entries[entryKey{UserID: e.UserID, Day: e.Day}] = next

	return cloneEntry(next), nil
}

// InsertCount reports how many inserts succeeded. Tests use it to prove
// creation is idempotent.
func (m *Memory) InsertCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.inserts
}

// Len reports how many rows exist.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// =============================================================================
// PROFILE SOURCE (ledger.ProfileSource interface)
// =============================================================================

func (m *Memory) Profile(_ context.Context, userID string) (*ledger.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[userID]
	if !ok {
		return nil, nil
	}
	return cloneProfile(p), nil
}

// PutProfile stores or replaces a user's profile.
func (m *Memory) PutProfile(p ledger.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.UserID] = cloneProfile(&p)
}

// =============================================================================
// WEIGHT HISTORY (ledger.WeightHistory interface)
// =============================================================================

func (m *Memory) LatestAtOrBefore(_ context.Context, userID string, at time.Time) (*ledger.WeighIn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var best *ledger.WeighIn
	for i := range m.weighIns[userID] {
		wi := &m.weighIns[userID][i]
		if wi.MeasuredAt.After(at) {
			continue
		}
		if best == nil || wi.MeasuredAt.After(best.MeasuredAt) {
			best = wi
		}
	}
	if best == nil {
		return nil, nil
	}
	out := *best
	return &out, nil
}

// AddWeighIn records a weight measurement.
func (m *Memory) AddWeighIn(w ledger.WeighIn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.weighIns[w.UserID] = append(m.weighIns[w.UserID], w)
}

// =============================================================================
// COPY HELPERS
// =============================================================================

func cloneEntry(e *ledger.DayEntry) *ledger.DayEntry {
	c := *e
	c.RawBurn = cloneFloat(e.RawBurn)
	c.RawTDEE = cloneFloat(e.RawTDEE)
	c.RawLastSyncedAt = cloneTime(e.RawLastSyncedAt)
	c.VendorExternalID = cloneString(e.VendorExternalID)
	c.VendorPayloadHash = cloneString(e.VendorPayloadHash)
	c.SyncedAt = cloneTime(e.SyncedAt)
	return &c
}

func cloneProfile(p *ledger.Profile) *ledger.Profile {
	c := *p
	c.Gender = cloneString(p.Gender)
	c.DOB = cloneTime(p.DOB)
	c.HeightCm = cloneFloat(p.HeightCm)
	c.WeightLb = cloneFloat(p.WeightLb)
	c.ActivityLevel = cloneString(p.ActivityLevel)
	return &c
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
