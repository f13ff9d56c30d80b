package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/macrolog/burn-ledger/ledger"
	"github.com/macrolog/burn-ledger/store/sqlite"
)

var initSample bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the database schema, optionally seeded with a sample user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(svc *ledger.Service, store *sqlite.Store) error {
			fmt.Fprintln(cmd.OutOrStdout(), "Schema ready")
			if !initSample {
				return nil
			}
			return seedSample(cmd, svc, store)
		})
	},
}

// seedSample walks one user through the full lifecycle: profile, weigh-ins,
// first materialization, a vendor sync, and a burn reduction. It resets the
// database first, so only use it in development.
func seedSample(cmd *cobra.Command, svc *ledger.Service, store *sqlite.Store) error {
	ctx := cmd.Context()
	const userID = "demo-user"

	if err := store.Reset(ctx); err != nil {
		return err
	}

	gender, activity := "female", "moderate"
	dob := time.Now().AddDate(-30, 0, 0)
	heightCm, weightLb := 165.0, 142.0
	profile := ledger.Profile{
		UserID:        userID,
		Gender:        &gender,
		DOB:           &dob,
		HeightCm:      &heightCm,
		WeightLb:      &weightLb,
		ActivityLevel: &activity,
	}
	if err := store.SaveProfile(ctx, profile); err != nil {
		return err
	}

	weighIns := []ledger.WeighIn{
		{ID: uuid.NewString(), UserID: userID, WeightLb: 142, MeasuredAt: time.Now().AddDate(0, 0, -7), CreatedAt: time.Now().UTC()},
		{ID: uuid.NewString(), UserID: userID, WeightLb: 140, MeasuredAt: time.Now().Add(-2 * time.Hour), CreatedAt: time.Now().UTC()},
	}
	for _, w := range weighIns {
		if err := store.AddWeighIn(ctx, w); err != nil {
			return err
		}
	}

	entry, err := svc.GetOrCreate(ctx, userID, time.Time{})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Materialized %s: bmr=%.0f active=%.0f tdee=%.0f\n",
		entry.Day, entry.BMRCal, entry.ActiveCal, entry.TDEECal)

	entry, err = svc.SyncVendorBurn(ctx, userID, time.Time{}, ledger.VendorBurn{
		BurnCal:     910,
		ExternalID:  "sample-sync-1",
		PayloadHash: "1f0c9ab2",
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Vendor sync: active=%.0f tdee=%.0f source=%s\n",
		entry.ActiveCal, entry.TDEECal, entry.Source)

	entry, err = svc.SetBurnReduction(ctx, userID, time.Time{}, 25)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "25%% reduction: active=%.0f tdee=%.0f\n",
		entry.ActiveCal, entry.TDEECal)

	fmt.Fprintf(cmd.OutOrStdout(), "Sample user %q ready\n", userID)
	return nil
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initSample, "sample", false, "Seed a demo user (resets the database)")
}
