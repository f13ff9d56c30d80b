/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements all persistence interfaces (ledger.EntryStore, ledger.ProfileSource,
  ledger.WeightHistory) using SQLite. In production, the same patterns apply to
  PostgreSQL - only minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  ledger.EntryStore:    Daily energy-expenditure rows
  ledger.ProfileSource: User demographics for baseline estimation
  ledger.WeightHistory: Timestamped body-weight measurements

SINGLE-CREATOR ENFORCEMENT:
  The energy_ledger table carries a UNIQUE index on (user_id, entry_date).
  Concurrent creations race on the INSERT itself; the loser receives
  ledger.ErrDuplicateDay and re-reads the winner's row. There is no
  SELECT-then-INSERT window at this layer.

KEY TABLES:
  energy_ledger: One row per (user_id, entry_date) holding effective values,
                 the frozen system baseline, and the raw burn model
  profiles:      User demographics (every biometric nullable)
  weigh_ins:     Timestamped weight measurements

INDEXES:
  - idx_energy_ledger_user_day: UNIQUE, enforces the one-row-per-day rule
  - idx_weigh_ins_user_measured: latest-at-or-before weight lookups (hot path)

CONCURRENCY:
  Uses sync.RWMutex for thread-safety plus a single pooled connection, so
  ":memory:" databases stay one database. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

TIMESTAMPS:
  All timestamps are stored as RFC3339 TEXT in UTC, so lexicographic
  comparison in SQL matches chronological order. Calendar days are stored
  as YYYY-MM-DD TEXT.

USAGE:
  store, err := sqlite.New("./data/burn.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := ledger.New(store, store, store, estimate.New(), ledger.Config{})

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - ledger/store.go: Interface definitions
  - ledger/service.go: Higher-level service using this store
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/macrolog/burn-ledger/daykey"
	"github.com/macrolog/burn-ledger/ledger"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: every handle in the pool would otherwise open its
	// own ":memory:" database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Daily energy-expenditure rows (one per user per calendar day)
	CREATE TABLE IF NOT EXISTS energy_ledger (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		entry_date TEXT NOT NULL,
		bmr_cal REAL NOT NULL,
		active_cal REAL NOT NULL,
		tdee_cal REAL NOT NULL,
		system_bmr_cal REAL NOT NULL,
		system_active_cal REAL NOT NULL,
		system_tdee_cal REAL NOT NULL,
		bmr_overridden BOOLEAN NOT NULL DEFAULT FALSE,
		active_overridden BOOLEAN NOT NULL DEFAULT FALSE,
		tdee_overridden BOOLEAN NOT NULL DEFAULT FALSE,
		is_overridden BOOLEAN NOT NULL DEFAULT FALSE,
		burn_reduction_pct_int INTEGER NOT NULL DEFAULT 0,
		raw_burn REAL,
		raw_tdee REAL,
		raw_burn_source TEXT NOT NULL DEFAULT 'system',
		raw_last_synced_at TEXT,
		source TEXT NOT NULL DEFAULT 'system',
		vendor_external_id TEXT,
		vendor_payload_hash TEXT,
		synced_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- CRITICAL: Enforce one row per (user, day). Concurrent first reads of
	-- the same day race on INSERT; exactly one wins, the rest re-read.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_energy_ledger_user_day
		ON energy_ledger(user_id, entry_date);

	-- User demographics. Biometrics are nullable: a profile may exist long
	-- before it can support a baseline estimate.
	CREATE TABLE IF NOT EXISTS profiles (
		user_id TEXT PRIMARY KEY,
		gender TEXT,
		date_of_birth TEXT,
		height_cm REAL,
		weight_lb REAL,
		activity_level TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Weigh-ins (append-only measurement history)
	CREATE TABLE IF NOT EXISTS weigh_ins (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		weight_lb REAL NOT NULL,
		measured_at TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- For latest-at-or-before lookups during row creation (hot path)
	CREATE INDEX IF NOT EXISTS idx_weigh_ins_user_measured
		ON weigh_ins(user_id, measured_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// entryColumns is the canonical column list shared by every energy_ledger
// SELECT and INSERT. Keep in sync with scanEntry.
const entryColumns = `id, user_id, entry_date,
	bmr_cal, active_cal, tdee_cal,
	system_bmr_cal, system_active_cal, system_tdee_cal,
	bmr_overridden, active_overridden, tdee_overridden, is_overridden,
	burn_reduction_pct_int, raw_burn, raw_tdee, raw_burn_source, raw_last_synced_at,
	source, vendor_external_id, vendor_payload_hash, synced_at,
	created_at, updated_at`

// =============================================================================
// ENTRY STORE (ledger.EntryStore interface)
// =============================================================================

// FindByDay returns the entry for (userID, day), or (nil, nil) when no row
// exists.
func (s *Store) FindByDay(ctx context.Context, userID string, day daykey.Key) (*ledger.DayEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.findByDay(ctx, userID, day)
}

func (s *Store) findByDay(ctx context.Context, userID string, day daykey.Key) (*ledger.DayEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM energy_ledger WHERE user_id = ? AND entry_date = ?`,
		userID, string(day),
	)

	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entry: %w", err)
	}
	return entry, nil
}

// Insert adds a new entry. A second insert for the same (user, day) returns
// ledger.ErrDuplicateDay.
func (s *Store) Insert(ctx context.Context, e *ledger.DayEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO energy_ledger
		(` + entryColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		e.ID, e.UserID, string(e.Day),
		e.BMRCal, e.ActiveCal, e.TDEECal,
		e.SystemBMRCal, e.SystemActiveCal, e.SystemTDEECal,
		e.BMROverridden, e.ActiveOverridden, e.TDEEOverridden, e.Overridden,
		e.BurnReductionPct,
		nullFloat(e.RawBurn), nullFloat(e.RawTDEE), string(e.RawBurnSource), nullTime(e.RawLastSyncedAt),
		string(e.Source), nullString(e.VendorExternalID), nullString(e.VendorPayloadHash), nullTime(e.SyncedAt),
		e.CreatedAt.UTC().Format(time.RFC3339), e.UpdatedAt.UTC().Format(time.RFC3339),
	)

	if err != nil {
		if isDayUniquenessError(err) {
			return ledger.ErrDuplicateDay
		}
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	return nil
}

// Update rewrites the mutable columns of an existing row and returns the
// stored result. Identity, the system baseline, and created_at never change
// after insert. Returns (nil, nil) when the row no longer exists.
func (s *Store) Update(ctx context.Context, e *ledger.DayEntry) (*ledger.DayEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		UPDATE energy_ledger SET
			bmr_cal = ?, active_cal = ?, tdee_cal = ?,
			bmr_overridden = ?, active_overridden = ?, tdee_overridden = ?, is_overridden = ?,
			burn_reduction_pct_int = ?,
			raw_burn = ?, raw_tdee = ?, raw_burn_source = ?, raw_last_synced_at = ?,
			source = ?, vendor_external_id = ?, vendor_payload_hash = ?, synced_at = ?,
			updated_at = ?
		WHERE id = ?
	`

	res, err := s.db.ExecContext(ctx, query,
		e.BMRCal, e.ActiveCal, e.TDEECal,
		e.BMROverridden, e.ActiveOverridden, e.TDEEOverridden, e.Overridden,
		e.BurnReductionPct,
		nullFloat(e.RawBurn), nullFloat(e.RawTDEE), string(e.RawBurnSource), nullTime(e.RawLastSyncedAt),
		string(e.Source), nullString(e.VendorExternalID), nullString(e.VendorPayloadHash), nullTime(e.SyncedAt),
		e.UpdatedAt.UTC().Format(time.RFC3339),
		e.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update ledger entry: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, nil
	}

	return s.findByDay(ctx, e.UserID, e.Day)
}

// RecentEntries returns up to limit entries for a user, newest day first.
func (s *Store) RecentEntries(ctx context.Context, userID string, limit int) ([]ledger.DayEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT ` + entryColumns + `
		FROM energy_ledger
		WHERE user_id = ?
		ORDER BY entry_date DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []ledger.DayEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, *entry)
	}

	return entries, rows.Err()
}

// =============================================================================
// PROFILE SOURCE (ledger.ProfileSource interface)
// =============================================================================

// Profile returns the user's demographic record, or (nil, nil) when the user
// has none.
func (s *Store) Profile(ctx context.Context, userID string) (*ledger.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		p                    ledger.Profile
		gender, activity     sql.NullString
		dob                  sql.NullString
		heightCm, weightLb   sql.NullFloat64
		createdAt, updatedAt string
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, gender, date_of_birth, height_cm, weight_lb, activity_level, created_at, updated_at
		 FROM profiles WHERE user_id = ?`,
		userID,
	).Scan(&p.UserID, &gender, &dob, &heightCm, &weightLb, &activity, &createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	p.Gender = stringPtr(gender)
	p.DOB = timePtr(dob)
	p.HeightCm = floatPtr(heightCm)
	p.WeightLb = floatPtr(weightLb)
	p.ActivityLevel = stringPtr(activity)
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &p, nil
}

// SaveProfile inserts or updates a user's demographic record.
func (s *Store) SaveProfile(ctx context.Context, p ledger.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO profiles (user_id, gender, date_of_birth, height_cm, weight_lb, activity_level, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			gender = excluded.gender,
			date_of_birth = excluded.date_of_birth,
			height_cm = excluded.height_cm,
			weight_lb = excluded.weight_lb,
			activity_level = excluded.activity_level,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, query,
		p.UserID,
		nullString(p.Gender),
		nullTime(p.DOB),
		nullFloat(p.HeightCm),
		nullFloat(p.WeightLb),
		nullString(p.ActivityLevel),
		now, now,
	)
	return err
}

// =============================================================================
// WEIGHT HISTORY (ledger.WeightHistory interface)
// =============================================================================

// LatestAtOrBefore returns the most recent weigh-in measured at or before the
// given instant, or (nil, nil) when none exists.
func (s *Store) LatestAtOrBefore(ctx context.Context, userID string, at time.Time) (*ledger.WeighIn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		w                     ledger.WeighIn
		measuredAt, createdAt string
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, weight_lb, measured_at, created_at
		 FROM weigh_ins
		 WHERE user_id = ? AND measured_at <= ?
		 ORDER BY measured_at DESC
		 LIMIT 1`,
		userID, at.UTC().Format(time.RFC3339),
	).Scan(&w.ID, &w.UserID, &w.WeightLb, &measuredAt, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	w.MeasuredAt, _ = time.Parse(time.RFC3339, measuredAt)
	w.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &w, nil
}

// AddWeighIn records a weight measurement.
func (s *Store) AddWeighIn(ctx context.Context, w ledger.WeighIn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO weigh_ins (id, user_id, weight_lb, measured_at, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		w.ID, w.UserID, w.WeightLb,
		w.MeasuredAt.UTC().Format(time.RFC3339),
		w.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// ListWeighIns returns all weigh-ins for a user, newest first.
func (s *Store) ListWeighIns(ctx context.Context, userID string) ([]ledger.WeighIn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, weight_lb, measured_at, created_at
		 FROM weigh_ins
		 WHERE user_id = ?
		 ORDER BY measured_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var weighIns []ledger.WeighIn
	for rows.Next() {
		var (
			w                     ledger.WeighIn
			measuredAt, createdAt string
		)
		if err := rows.Scan(&w.ID, &w.UserID, &w.WeightLb, &measuredAt, &createdAt); err != nil {
			return nil, err
		}
		w.MeasuredAt, _ = time.Parse(time.RFC3339, measuredAt)
		w.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		weighIns = append(weighIns, w)
	}
	return weighIns, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"energy_ledger", "weigh_ins", "profiles"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// SCANNING AND NULL HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*ledger.DayEntry, error) {
	var (
		e                    ledger.DayEntry
		rawBurn, rawTDEE     sql.NullFloat64
		rawSynced            sql.NullString
		vendorID, vendorHash sql.NullString
		syncedAt             sql.NullString
		createdAt, updatedAt string
	)

	err := row.Scan(
		&e.ID, &e.UserID, &e.Day,
		&e.BMRCal, &e.ActiveCal, &e.TDEECal,
		&e.SystemBMRCal, &e.SystemActiveCal, &e.SystemTDEECal,
		&e.BMROverridden, &e.ActiveOverridden, &e.TDEEOverridden, &e.Overridden,
		&e.BurnReductionPct,
		&rawBurn, &rawTDEE, &e.RawBurnSource, &rawSynced,
		&e.Source, &vendorID, &vendorHash, &syncedAt,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.RawBurn = floatPtr(rawBurn)
	e.RawTDEE = floatPtr(rawTDEE)
	e.RawLastSyncedAt = timePtr(rawSynced)
	e.VendorExternalID = stringPtr(vendorID)
	e.VendorPayloadHash = stringPtr(vendorHash)
	e.SyncedAt = timePtr(syncedAt)
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return &e, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

func timePtr(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, _ := time.Parse(time.RFC3339, s.String)
	return &t
}

// isDayUniquenessError reports whether err is a violation of the one-row-
// per-(user, day) rule specifically. SQLite names the violated columns in
// its message; PostgreSQL names the index. Any other constraint violation,
// a colliding primary key included, surfaces as a plain storage error.
func isDayUniquenessError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return contains(msg, "UNIQUE constraint failed: energy_ledger.user_id, energy_ledger.entry_date") ||
		contains(msg, `"idx_energy_ledger_user_day"`)
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || len(s) > 0 && containsAt(s, substr, 0))
}

func containsAt(s, substr string, start int) bool {
	for i := start; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
