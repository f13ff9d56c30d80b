package main

import (
	"github.com/spf13/cobra"

	"github.com/macrolog/burn-ledger/ledger"
	"github.com/macrolog/burn-ledger/store/sqlite"
)

var (
	overrideUser   string
	overrideDate   string
	overrideBMR    float64
	overrideActive float64
	overrideTDEE   float64
)

var overrideCmd = &cobra.Command{
	Use:   "override",
	Short: "Manually override effective values for a day",
	RunE: func(cmd *cobra.Command, args []string) error {
		on, err := parseDay(overrideDate)
		if err != nil {
			return err
		}
		patch := ledger.OverridePatch{
			BMRCal:    optionalFloat(overrideBMR),
			ActiveCal: optionalFloat(overrideActive),
			TDEECal:   optionalFloat(overrideTDEE),
		}
		return withService(func(svc *ledger.Service, _ *sqlite.Store) error {
			entry, err := svc.Override(cmd.Context(), overrideUser, on, patch)
			if err != nil {
				return err
			}
			return printEntry(cmd, entry)
		})
	},
}

func init() {
	rootCmd.AddCommand(overrideCmd)
	overrideCmd.Flags().StringVar(&overrideUser, "user", "", "User ID")
	overrideCmd.Flags().StringVar(&overrideDate, "date", "", "Date YYYY-MM-DD (default today)")
	overrideCmd.Flags().Float64Var(&overrideBMR, "bmr", -1, "Override BMR kcal (optional)")
	overrideCmd.Flags().Float64Var(&overrideActive, "active", -1, "Override active kcal (optional)")
	overrideCmd.Flags().Float64Var(&overrideTDEE, "tdee", -1, "Override TDEE kcal (optional)")
	_ = overrideCmd.MarkFlagRequired("user")
}
