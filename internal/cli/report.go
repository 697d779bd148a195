package cli

import (
	"github.com/spf13/cobra"

	"treasury-monitor/internal/app"
)

var reportNotify bool

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Snapshot outstanding vault and lending rewards",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Report(cmd.Context(), app.ReportOptions{Notify: reportNotify})
	},
}

func init() {
	reportCmd.Flags().BoolVar(&reportNotify, "notify", false, "Dispatch priority alerts even when alerting.enabled is false")
}
