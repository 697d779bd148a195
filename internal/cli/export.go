package cli

import (
	"github.com/spf13/cobra"

	"treasury-monitor/internal/app"
)

var (
	exportVaultCSV        string
	exportLendingCSV      string
	exportTransactionsCSV string
	exportPNGPath         string
	exportTimelinePNG     string
	exportUpload          bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export reward tables and transactions as CSV and charts as PNG",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Export(cmd.Context(), app.ExportOptions{
			VaultCSV:        exportVaultCSV,
			LendingCSV:      exportLendingCSV,
			TransactionsCSV: exportTransactionsCSV,
			WorkloadPNG:     exportPNGPath,
			TimelinePNG:     exportTimelinePNG,
			Upload:          exportUpload,
		})
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportVaultCSV, "vault-csv", "", "Path to write vault rewards CSV")
	exportCmd.Flags().StringVar(&exportLendingCSV, "lending-csv", "", "Path to write lending rewards CSV")
	exportCmd.Flags().StringVar(&exportTransactionsCSV, "transactions-csv", "", "Path to write classified transactions CSV")
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write team workload bar chart")
	exportCmd.Flags().StringVar(&exportTimelinePNG, "timeline-png", "", "Path to write daily outflow chart")
	exportCmd.Flags().BoolVar(&exportUpload, "upload", false, "Upload written files to the configured object store")
}
