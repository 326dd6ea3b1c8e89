package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"presyotect-monitor/internal/app"
)

var (
	recordProduct       string
	recordPersonnel     string
	recordEstablishment string
	recordPrice         string
	recordRemarks       string
	recordStatus        string
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a price observation under the current week's schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		if recordProduct == "" || recordEstablishment == "" || recordPrice == "" {
			return fmt.Errorf("--product, --establishment and --price must be provided")
		}

		opts := app.RecordOptions{
			ProductID:       recordProduct,
			PersonnelID:     recordPersonnel,
			EstablishmentID: recordEstablishment,
			Price:           recordPrice,
			Remarks:         recordRemarks,
			Status:          recordStatus,
		}

		return getApp().Record(cmd.Context(), opts)
	},
}

func init() {
	recordCmd.Flags().StringVar(&recordProduct, "product", "", "Product identifier")
	recordCmd.Flags().StringVar(&recordPersonnel, "personnel", "", "Recording personnel identifier")
	recordCmd.Flags().StringVar(&recordEstablishment, "establishment", "", "Establishment identifier")
	recordCmd.Flags().StringVar(&recordPrice, "price", "", "Observed price")
	recordCmd.Flags().StringVar(&recordRemarks, "remarks", "", "Optional remarks")
	recordCmd.Flags().StringVar(&recordStatus, "status", "", "Observation status (defaults from config)")
}
