package main

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/macrolog/burn-ledger/ledger"
	"github.com/macrolog/burn-ledger/store/sqlite"
)

var weightCmd = &cobra.Command{
	Use:   "weight",
	Short: "Manage weigh-ins",
}

var (
	weightUser string
	weightLb   float64
	weightDate string
	weightTime string
)

var weightAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a weigh-in",
	RunE: func(cmd *cobra.Command, args []string) error {
		if math.IsNaN(weightLb) || math.IsInf(weightLb, 0) || weightLb <= 0 {
			return fmt.Errorf("invalid --lb %v (expected a positive number)", weightLb)
		}
		measuredAt, err := parseDateTimeOrNow(weightDate, weightTime)
		if err != nil {
			return err
		}
		w := ledger.WeighIn{
			ID:         uuid.NewString(),
			UserID:     weightUser,
			WeightLb:   weightLb,
			MeasuredAt: measuredAt,
			CreatedAt:  time.Now().UTC(),
		}
		return withService(func(_ *ledger.Service, store *sqlite.Store) error {
			if err := store.AddWeighIn(cmd.Context(), w); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %.1f lb at %s\n",
				w.WeightLb, w.MeasuredAt.Local().Format("2006-01-02 15:04"))
			return nil
		})
	},
}

var weightListCmd = &cobra.Command{
	Use:   "list",
	Short: "List weigh-ins, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(_ *ledger.Service, store *sqlite.Store) error {
			items, err := store.ListWeighIns(cmd.Context(), weightUser)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "MEASURED_AT\tWEIGHT_LB")
			for _, w := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%.1f\n",
					w.MeasuredAt.Local().Format("2006-01-02 15:04"), w.WeightLb)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(weightCmd)
	weightCmd.AddCommand(weightAddCmd, weightListCmd)

	for _, c := range []*cobra.Command{weightAddCmd, weightListCmd} {
		c.Flags().StringVar(&weightUser, "user", "", "User ID")
		_ = c.MarkFlagRequired("user")
	}

	weightAddCmd.Flags().Float64Var(&weightLb, "lb", 0, "Weight in pounds")
	weightAddCmd.Flags().StringVar(&weightDate, "date", "", "Date YYYY-MM-DD")
	weightAddCmd.Flags().StringVar(&weightTime, "time", "", "Time HH:MM")
	_ = weightAddCmd.MarkFlagRequired("lb")
}
