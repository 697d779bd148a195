package cli

import "github.com/spf13/cobra"

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the transaction cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the transaction cache file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().ClearCache()
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
}
