package app

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"treasury-monitor/internal/alerting"
	"treasury-monitor/internal/transactions"
)

// Transactions prints classified treasury transfers, served from the cache
// when it holds any.
func (a *App) Transactions(ctx context.Context, opts TransactionsOptions) error {
	res, err := a.loadTransactions(ctx, opts.Refresh)
	if err != nil {
		return err
	}

	txs := opts.Filter.Apply(res.Transactions)
	source := "api"
	if res.FromCache {
		source = "cache"
	}
	fmt.Fprintf(a.Out, "%d transactions (source: %s, last updated %s)\n", len(txs), source, res.LastUpdated.Format("2006-01-02 15:04:05 MST"))

	if opts.Summary {
		a.renderSummary(alerting.SummarizeTransactions(txs))
	}

	shown := txs
	if opts.Limit > 0 && len(shown) > opts.Limit {
		shown = shown[:opts.Limit]
	}
	if len(shown) == 0 {
		return nil
	}

	t := newTable(a.Out, "Transactions", table.Row{"Time (UTC)", "Type", "Token", "Amount", "Value", "Source", "Team", "Counterparty", "Signature"})
	alignNumbers(t, 4, 5)
	for _, tx := range shown {
		t.AppendRow(table.Row{
			tx.Timestamp.UTC().Format("2006-01-02 15:04"),
			tx.Type,
			tx.Token,
			formatAmount(tx.Amount),
			formatUSD(tx.ValueUSD),
			tx.ValueSource,
			tx.Team,
			shorten(tx.Counterparty),
			shorten(tx.Signature),
		})
	}
	t.Render()
	return nil
}

// loadTransactions clears the cache first when refresh is set.
func (a *App) loadTransactions(ctx context.Context, refresh bool) (transactions.Result, error) {
	fetcher, err := a.newTransactionFetcher(ctx)
	if err != nil {
		return transactions.Result{}, err
	}
	if refresh {
		if _, err := fetcher.Clear(); err != nil {
			return transactions.Result{}, fmt.Errorf("clear cache: %w", err)
		}
	}
	res, err := fetcher.Fetch(ctx)
	if err != nil {
		return transactions.Result{}, fmt.Errorf("fetch transactions: %w", err)
	}
	return res, nil
}

func (a *App) renderSummary(s alerting.TransactionSummary) {
	t := newTable(a.Out, "Summary", table.Row{"Transactions", "Inflows", "Outflows", "Volume"})
	t.AppendRow(table.Row{s.Total, s.Inflows, s.Outflows, formatUSD(s.Volume)})
	t.Render()

	if len(s.InflowByTeam) > 0 {
		t := newTable(a.Out, "Inflow by Team", table.Row{"Team", "Value"})
		alignNumbers(t, 2)
		for _, v := range s.InflowByTeam {
			t.AppendRow(table.Row{v.Team, formatUSD(v.Value)})
		}
		t.Render()
	}
	if len(s.OutflowByToken) > 0 {
		t := newTable(a.Out, "Outflow by Token", table.Row{"Token", "Value", "Count"})
		alignNumbers(t, 2, 3)
		for _, o := range s.OutflowByToken {
			t.AppendRow(table.Row{o.Token, formatUSD(o.Value), o.Count})
		}
		t.Render()
	}
}

// ClearCache removes the transaction cache file.
func (a *App) ClearCache() error {
	cache := a.newCache()
	removed, err := cache.Clear()
	if err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	if removed {
		fmt.Fprintf(a.Out, "Cache cleared: %s\n", cache.Path())
	} else {
		fmt.Fprintf(a.Out, "No cache to clear at %s\n", cache.Path())
	}
	return nil
}

func shorten(s string) string {
	if len(s) <= 12 {
		return s
	}
	return s[:6] + "…" + s[len(s)-4:]
}
