package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"treasury-monitor/internal/app"
	"treasury-monitor/internal/transactions"
)

var (
	txRefresh bool
	txLimit   int
	txSummary bool
	txTypes   []string
	txTokens  []string
	txTeams   []string
)

var transactionsCmd = &cobra.Command{
	Use:     "transactions",
	Aliases: []string{"tx"},
	Short:   "List classified treasury transfers (cache first)",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := transactions.Filter{Tokens: txTokens, Teams: txTeams}
		for _, t := range txTypes {
			dir, ok := transactions.ParseDirection(t)
			if !ok {
				return fmt.Errorf("invalid --type %q, want in or out", t)
			}
			filter.Types = append(filter.Types, dir)
		}
		if txLimit < 0 {
			return fmt.Errorf("--limit cannot be negative")
		}

		return getApp().Transactions(cmd.Context(), app.TransactionsOptions{
			Refresh: txRefresh,
			Limit:   txLimit,
			Summary: txSummary,
			Filter:  filter,
		})
	},
}

func init() {
	transactionsCmd.Flags().BoolVar(&txRefresh, "refresh", false, "Clear the cache and refetch from the API")
	transactionsCmd.Flags().IntVar(&txLimit, "limit", 50, "Maximum rows to print (0 for all)")
	transactionsCmd.Flags().BoolVar(&txSummary, "summary", true, "Print inflow/outflow summary tables")
	transactionsCmd.Flags().StringSliceVar(&txTypes, "type", nil, "Filter by direction (in, out)")
	transactionsCmd.Flags().StringSliceVar(&txTokens, "token", nil, "Filter by token symbol")
	transactionsCmd.Flags().StringSliceVar(&txTeams, "team", nil, "Filter by counterparty team")
}
