package cli

import "github.com/spf13/cobra"

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the reward snapshot on the configured schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Watch(cmd.Context())
	},
}
