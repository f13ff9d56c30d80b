package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/macrolog/burn-ledger/ledger"
	"github.com/macrolog/burn-ledger/store/sqlite"
)

var (
	historyUser  string
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List a user's recent day entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(_ *ledger.Service, store *sqlite.Store) error {
			entries, err := store.RecentEntries(cmd.Context(), historyUser, historyLimit)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "DATE\tBMR\tACTIVE\tTDEE\tSOURCE\tOVERRIDDEN\tREDUCTION%")
			for _, e := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%.0f\t%.0f\t%.0f\t%s\t%t\t%d\n",
					e.Day, e.BMRCal, e.ActiveCal, e.TDEECal, e.Source, e.Overridden, e.BurnReductionPct)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringVar(&historyUser, "user", "", "User ID")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 30, "Result limit")
	_ = historyCmd.MarkFlagRequired("user")
}
