package main

import (
	"github.com/spf13/cobra"

	"github.com/macrolog/burn-ledger/ledger"
	"github.com/macrolog/burn-ledger/store/sqlite"
)

var (
	resetUser string
	resetDate string
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Return a day entry to its system baseline",
	RunE: func(cmd *cobra.Command, args []string) error {
		on, err := parseDay(resetDate)
		if err != nil {
			return err
		}
		return withService(func(svc *ledger.Service, _ *sqlite.Store) error {
			entry, err := svc.Reset(cmd.Context(), resetUser, on)
			if err != nil {
				return err
			}
			return printEntry(cmd, entry)
		})
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
	resetCmd.Flags().StringVar(&resetUser, "user", "", "User ID")
	resetCmd.Flags().StringVar(&resetDate, "date", "", "Date YYYY-MM-DD (default today)")
	_ = resetCmd.MarkFlagRequired("user")
}
