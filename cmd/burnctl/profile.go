package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/macrolog/burn-ledger/estimate"
	"github.com/macrolog/burn-ledger/ledger"
	"github.com/macrolog/burn-ledger/store/sqlite"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage user demographic profiles",
}

var (
	profileUser     string
	profileGender   string
	profileDOB      string
	profileHeightCm float64
	profileWeightLb float64
	profileActivity string
)

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Create or update a user's profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := ledger.Profile{
			UserID:   profileUser,
			HeightCm: optionalFloat(profileHeightCm),
			WeightLb: optionalFloat(profileWeightLb),
		}
		if profileGender != "" {
			p.Gender = &profileGender
		}
		if profileActivity != "" {
			p.ActivityLevel = &profileActivity
		}
		if profileDOB != "" {
			dob, err := time.ParseInLocation("2006-01-02", profileDOB, time.Local)
			if err != nil {
				return fmt.Errorf("invalid --dob %q (expected YYYY-MM-DD)", profileDOB)
			}
			p.DOB = &dob
		}
		return withService(func(_ *ledger.Service, store *sqlite.Store) error {
			if err := store.SaveProfile(cmd.Context(), p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved profile for %s\n", profileUser)
			return nil
		})
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a user's profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(_ *ledger.Service, store *sqlite.Store) error {
			p, err := store.Profile(cmd.Context(), profileUser)
			if err != nil {
				return err
			}
			if p == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "no profile")
				return nil
			}
			out, err := json.MarshalIndent(p, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileSetCmd, profileShowCmd)

	for _, c := range []*cobra.Command{profileSetCmd, profileShowCmd} {
		c.Flags().StringVar(&profileUser, "user", "", "User ID")
		_ = c.MarkFlagRequired("user")
	}

	profileSetCmd.Flags().StringVar(&profileGender, "gender", "", "male or female")
	profileSetCmd.Flags().StringVar(&profileDOB, "dob", "", "Date of birth YYYY-MM-DD")
	profileSetCmd.Flags().Float64Var(&profileHeightCm, "height-cm", -1, "Height in centimeters")
	profileSetCmd.Flags().Float64Var(&profileWeightLb, "weight-lb", -1, "Weight in pounds")
	profileSetCmd.Flags().StringVar(&profileActivity, "activity", "",
		"Activity level: "+strings.Join(estimate.ActivityLevels(), ", "))
}
