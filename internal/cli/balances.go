package cli

import "github.com/spf13/cobra"

var balancesCmd = &cobra.Command{
	Use:   "balances",
	Short: "Show valued treasury token balances",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Balances(cmd.Context())
	},
}
