package app

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Balances prints the treasury's valued token holdings.
func (a *App) Balances(ctx context.Context) error {
	svc, err := a.newService(ctx, a.serviceOptions(), true)
	if err != nil {
		return err
	}
	report, err := svc.Balances(ctx)
	if err != nil {
		return err
	}

	if len(report.Balances) == 0 {
		fmt.Fprintln(a.Out, "No token balances found")
		return nil
	}

	t := newTable(a.Out, "Treasury Balances", table.Row{"Token", "Amount", "Price", "Value", "Price Source"})
	alignNumbers(t, 2, 3, 4)
	for _, b := range report.Balances {
		t.AppendRow(table.Row{b.Token, formatAmount(b.Amount), formatUSD(b.Price), formatUSD(b.USD), b.Source})
	}
	t.AppendFooter(table.Row{"Total", "", "", formatUSD(report.Total), ""})
	t.Render()
	return nil
}
