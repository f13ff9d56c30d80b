package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	dbPath  string
	logMode string
)

var rootCmd = &cobra.Command{
	Use:   "burnctl",
	Short: "burnctl administers the daily energy-expenditure ledger",
	Long:  "burnctl reads and repairs per-day burn rows: materialize, reset, override, reduce, and replay vendor syncs against a local SQLite database.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite database (default BURNLEDGER_DB)")
	rootCmd.PersistentFlags().StringVar(&logMode, "log-mode", "", "Log mode: dev or prod (default BURNLEDGER_LOG_MODE)")
}
