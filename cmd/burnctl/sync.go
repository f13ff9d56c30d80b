package main

import (
	"github.com/spf13/cobra"

	"github.com/macrolog/burn-ledger/ledger"
	"github.com/macrolog/burn-ledger/store/sqlite"
)

var (
	syncUser        string
	syncDate        string
	syncBurn        float64
	syncTDEE        float64
	syncExternalID  string
	syncPayloadHash string
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Replay a vendor burn sync into a day entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		on, err := parseDay(syncDate)
		if err != nil {
			return err
		}
		in := ledger.VendorBurn{
			BurnCal:     syncBurn,
			TDEECal:     optionalFloat(syncTDEE),
			ExternalID:  syncExternalID,
			PayloadHash: syncPayloadHash,
		}
		return withService(func(svc *ledger.Service, _ *sqlite.Store) error {
			entry, err := svc.SyncVendorBurn(cmd.Context(), syncUser, on, in)
			if err != nil {
				return err
			}
			return printEntry(cmd, entry)
		})
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().StringVar(&syncUser, "user", "", "User ID")
	syncCmd.Flags().StringVar(&syncDate, "date", "", "Date YYYY-MM-DD (default today)")
	syncCmd.Flags().Float64Var(&syncBurn, "burn", 0, "Unreduced burn kcal from the vendor")
	syncCmd.Flags().Float64Var(&syncTDEE, "tdee", -1, "Vendor-computed TDEE kcal (optional)")
	syncCmd.Flags().StringVar(&syncExternalID, "external-id", "", "Vendor record identifier (optional)")
	syncCmd.Flags().StringVar(&syncPayloadHash, "payload-hash", "", "Vendor payload hash (optional)")
	_ = syncCmd.MarkFlagRequired("user")
	_ = syncCmd.MarkFlagRequired("burn")
}
