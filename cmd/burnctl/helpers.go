package main

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/macrolog/burn-ledger/config"
	"github.com/macrolog/burn-ledger/estimate"
	"github.com/macrolog/burn-ledger/ledger"
	"github.com/macrolog/burn-ledger/logger"
	"github.com/macrolog/burn-ledger/store/sqlite"
)

// withService wires config -> logger -> store -> service for one command run.
// The store is passed alongside the service for the commands that manage
// profiles and weigh-ins directly.
func withService(run func(svc *ledger.Service, store *sqlite.Store) error) error {
	cfg := config.Load()
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if logMode != "" {
		cfg.LogMode = logMode
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return err
	}
	defer log.Sync()

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	svc := ledger.New(store, store, store, estimate.New(), ledger.Config{
		MaxPlausibleKcal: cfg.MaxPlausibleKcal,
		Logger:           log,
	})
	return run(svc, store)
}

// parseDay turns an optional --date flag into an instant on that local day.
// Empty means today (the zero time, which the service normalizes itself).
func parseDay(date string) (time.Time, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q (expected YYYY-MM-DD)", date)
	}
	return t, nil
}

func parseDateTimeOrNow(date, timeStr string) (time.Time, error) {
	date = strings.TrimSpace(date)
	timeStr = strings.TrimSpace(timeStr)
	if date == "" && timeStr == "" {
		return time.Now(), nil
	}
	if date == "" {
		return time.Time{}, fmt.Errorf("--date is required when --time is set")
	}
	if timeStr == "" {
		t, err := time.ParseInLocation("2006-01-02", date, time.Local)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --date %q (expected YYYY-MM-DD)", date)
		}
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+timeStr, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date/--time (expected YYYY-MM-DD and HH:MM)")
	}
	return t, nil
}

// optionalFloat maps the -1 flag sentinel and non-finite values to
// "not provided". Inf and NaN parse as floats but are never usable figures.
func optionalFloat(v float64) *float64 {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func printEntry(cmd *cobra.Command, entry *ledger.DayEntry) error {
	if entry == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "no entry (future days are never materialized)")
		return nil
	}
	out, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
