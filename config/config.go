/*
Package config loads process configuration from the environment.

PURPOSE:
  Centralizes the few knobs the ledger needs (database path, log mode, the
  kcal plausibility ceiling), read from environment variables with an
  optional .env file for local development.

ENVIRONMENT:
  BURNLEDGER_DB        SQLite database path (default ./burn.db)
  BURNLEDGER_LOG_MODE  "dev" or "prod" logging (default dev)
  BURNLEDGER_MAX_KCAL  Max plausible kcal for any stored figure (default 20000)
*/
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/macrolog/burn-ledger/ledger"
)

const (
	envDB      = "BURNLEDGER_DB"
	envLogMode = "BURNLEDGER_LOG_MODE"
	envMaxKcal = "BURNLEDGER_MAX_KCAL"
)

// Config is everything the process reads from its environment.
type Config struct {
	DBPath           string
	LogMode          string
	MaxPlausibleKcal float64
}

// Load reads a .env file when present, then the environment. Unset or
// malformed values fall back to defaults; an absent .env file is the normal
// production case.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		DBPath:           String(envDB, "./burn.db"),
		LogMode:          String(envLogMode, "dev"),
		MaxPlausibleKcal: Float(envMaxKcal, ledger.DefaultMaxPlausibleKcal),
	}
}

// String returns the named variable, or def when unset or blank.
func String(name, def string) string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	return v
}

// Float returns the named variable parsed as a float64, or def when unset,
// blank, or unparseable.
func Float(name string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
