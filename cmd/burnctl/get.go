package main

import (
	"github.com/spf13/cobra"

	"github.com/macrolog/burn-ledger/ledger"
	"github.com/macrolog/burn-ledger/store/sqlite"
)

var (
	getUser string
	getDate string
)

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Fetch a user's day entry, materializing it on first access",
	RunE: func(cmd *cobra.Command, args []string) error {
		on, err := parseDay(getDate)
		if err != nil {
			return err
		}
		return withService(func(svc *ledger.Service, _ *sqlite.Store) error {
			entry, err := svc.GetOrCreate(cmd.Context(), getUser, on)
			if err != nil {
				return err
			}
			return printEntry(cmd, entry)
		})
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().StringVar(&getUser, "user", "", "User ID")
	getCmd.Flags().StringVar(&getDate, "date", "", "Date YYYY-MM-DD (default today)")
	_ = getCmd.MarkFlagRequired("user")
}
