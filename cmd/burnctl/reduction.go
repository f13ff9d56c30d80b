package main

import (
	"github.com/spf13/cobra"

	"github.com/macrolog/burn-ledger/ledger"
	"github.com/macrolog/burn-ledger/store/sqlite"
)

var (
	reductionUser string
	reductionDate string
	reductionPct  int
)

var reductionCmd = &cobra.Command{
	Use:   "reduction",
	Short: "Set the burn reduction percentage applied to the raw burn",
	RunE: func(cmd *cobra.Command, args []string) error {
		on, err := parseDay(reductionDate)
		if err != nil {
			return err
		}
		return withService(func(svc *ledger.Service, _ *sqlite.Store) error {
			entry, err := svc.SetBurnReduction(cmd.Context(), reductionUser, on, reductionPct)
			if err != nil {
				return err
			}
			return printEntry(cmd, entry)
		})
	},
}

func init() {
	rootCmd.AddCommand(reductionCmd)
	reductionCmd.Flags().StringVar(&reductionUser, "user", "", "User ID")
	reductionCmd.Flags().StringVar(&reductionDate, "date", "", "Date YYYY-MM-DD (default today)")
	reductionCmd.Flags().IntVar(&reductionPct, "pct", 0, "Reduction percentage 0-100")
	_ = reductionCmd.MarkFlagRequired("user")
	_ = reductionCmd.MarkFlagRequired("pct")
}
