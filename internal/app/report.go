package app

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"treasury-monitor/internal/service"
)

// Report runs one snapshot and prints every report table.
func (a *App) Report(ctx context.Context, opts ReportOptions) error {
	svcOpts := a.serviceOptions()
	if opts.Notify {
		svcOpts.AlertsEnabled = true
	}
	svc, err := a.newService(ctx, svcOpts, false)
	if err != nil {
		return err
	}

	report, err := svc.Snapshot(ctx)
	if err != nil {
		return err
	}
	a.renderReport(report)
	return nil
}

func (a *App) renderReport(r service.Report) {
	fmt.Fprintf(a.Out, "Outstanding rewards as of %s (run %s)\n", r.GeneratedAt.Format("2006-01-02 15:04:05 MST"), r.RunID)
	fmt.Fprintf(a.Out, "Native price: %s (%s)\n\n", formatUSD(r.NativePrice.Price), r.NativePrice.Source)

	ov := newTable(a.Out, "Overview", table.Row{"Vault Supply", "Vault Borrow", "Lending", "Total"})
	ov.AppendRow(table.Row{formatUSD(r.Overview.VaultSupply), formatUSD(r.Overview.VaultBorrow), formatUSD(r.Overview.Lending), formatUSD(r.Overview.Total)})
	ov.Render()

	if len(r.Vaults) > 0 {
		t := newTable(a.Out, "Vault Rewards", table.Row{"ID", "Pair", "Supply", "Supply USD", "Borrow", "Borrow USD", "Team", "Type"})
		alignNumbers(t, 3, 4, 5, 6)
		for _, v := range r.Vaults {
			t.AppendRow(table.Row{v.VaultID, v.Pair, formatAmount(v.SupplyAmount), formatUSD(v.SupplyUSD), formatAmount(v.BorrowAmount), formatUSD(v.BorrowUSD), v.Team, v.Type})
		}
		t.Render()
	}

	if len(r.Lending) > 0 {
		t := newTable(a.Out, "Lending Rewards", table.Row{"ID", "Token", "Amount", "USD", "Total Assets", "Liquidity Supply", "Team"})
		alignNumbers(t, 3, 4, 5, 6)
		for _, l := range r.Lending {
			t.AppendRow(table.Row{l.LendingID, l.Symbol, formatAmount(l.Amount), formatUSD(l.USD), formatAmount(l.TotalAssets), formatAmount(l.LiquiditySupply), l.Team})
		}
		t.Render()
	}

	if len(r.Priorities) == 0 {
		fmt.Fprintln(a.Out, "No urgent rebalancing needed")
	} else {
		t := newTable(a.Out, "Priority Actions", table.Row{"Priority", "Category", "Item", "Amount", "Token Amount", "Team"})
		alignNumbers(t, 4, 5)
		for _, p := range r.Priorities {
			t.AppendRow(table.Row{p.Priority, p.Category, p.Item, formatUSD(p.AmountUSD), formatAmount(p.TokenAmount) + " " + p.Token, p.Team})
		}
		t.Render()
	}

	if len(r.Workload) > 0 {
		t := newTable(a.Out, "Team Workload", table.Row{"Team", "Vault Supply", "Vault Borrow", "Lending", "Total"})
		alignNumbers(t, 2, 3, 4, 5)
		for _, w := range r.Workload {
			t.AppendRow(table.Row{w.Team, formatUSD(w.VaultSupply), formatUSD(w.VaultBorrow), formatUSD(w.Lending), formatUSD(w.Total)})
		}
		t.Render()
	}

	if len(r.Pending) > 0 {
		t := newTable(a.Out, "Pending Rebalance", table.Row{"Token", "Amount Required", "USD Value"})
		alignNumbers(t, 2, 3)
		for _, p := range r.Pending {
			t.AppendRow(table.Row{p.Token, formatAmount(p.Amount), formatUSD(p.USD)})
		}
		t.Render()
	}

	if r.Notified {
		fmt.Fprintln(a.Out, "Alert dispatched.")
	}
}
