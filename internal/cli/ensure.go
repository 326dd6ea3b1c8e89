package cli

import (
	"github.com/spf13/cobra"
)

var ensureCmd = &cobra.Command{
	Use:   "ensure",
	Short: "Ensure the current week's schedule exists and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Ensure(cmd.Context())
	},
}
