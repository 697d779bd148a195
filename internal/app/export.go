package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	chart "github.com/wcharczuk/go-chart/v2"

	"treasury-monitor/internal/alerting"
	"treasury-monitor/internal/rewards"
	"treasury-monitor/internal/service"
	"treasury-monitor/internal/transactions"
)

// Export writes report tables as CSV and charts as PNG, optionally uploading them.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.VaultCSV == "" && opts.LendingCSV == "" && opts.TransactionsCSV == "" && opts.WorkloadPNG == "" && opts.TimelinePNG == "" {
		return errors.New("at least one of --vault-csv, --lending-csv, --transactions-csv, --png or --timeline-png must be provided")
	}

	var written []string

	if opts.VaultCSV != "" || opts.LendingCSV != "" || opts.WorkloadPNG != "" {
		svc, err := a.newService(ctx, a.serviceOptions(), false)
		if err != nil {
			return err
		}
		report, err := svc.Snapshot(ctx)
		if err != nil {
			return err
		}
		files, err := a.exportReport(report, opts)
		written = append(written, files...)
		if err != nil {
			return err
		}
	}

	if opts.TransactionsCSV != "" || opts.TimelinePNG != "" {
		res, err := a.loadTransactions(ctx, false)
		if err != nil {
			return err
		}
		if opts.TransactionsCSV != "" {
			if err := writeTransactionsCSV(opts.TransactionsCSV, res.Transactions); err != nil {
				return err
			}
			written = append(written, opts.TransactionsCSV)
		}
		if opts.TimelinePNG != "" {
			daily := alerting.SummarizeTransactions(res.Transactions).OutflowDaily
			ok, err := writeTimelinePNG(opts.TimelinePNG, daily)
			if err != nil {
				return err
			}
			if ok {
				written = append(written, opts.TimelinePNG)
			} else {
				a.Logger.Warn().Msg("outflow timeline needs at least two days of outflows; chart skipped")
			}
		}
	}

	for _, path := range written {
		a.Logger.Info().Str("path", path).Msg("export written")
	}

	if opts.Upload {
		return a.upload(ctx, written)
	}
	return nil
}

func (a *App) exportReport(report service.Report, opts ExportOptions) ([]string, error) {
	var written []string
	if opts.VaultCSV != "" {
		if err := writeVaultCSV(opts.VaultCSV, report.Vaults); err != nil {
			return written, err
		}
		written = append(written, opts.VaultCSV)
	}
	if opts.LendingCSV != "" {
		if err := writeLendingCSV(opts.LendingCSV, report.Lending); err != nil {
			return written, err
		}
		written = append(written, opts.LendingCSV)
	}
	if opts.WorkloadPNG != "" {
		ok, err := writeWorkloadPNG(opts.WorkloadPNG, report.Workload)
		if err != nil {
			return written, err
		}
		if ok {
			written = append(written, opts.WorkloadPNG)
		} else {
			a.Logger.Warn().Msg("no team workload to chart; PNG skipped")
		}
	}
	return written, nil
}

func (a *App) upload(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		a.Logger.Info().Msg("nothing to upload")
		return nil
	}
	up, err := a.newUploader(ctx)
	if err != nil {
		return err
	}
	for _, p := range paths {
		key, err := up.UploadFile(ctx, p)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "uploaded %s -> %s\n", p, key)
	}
	return nil
}

func writeCSV(path string, header []string, rows [][]string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return err
	}
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	return writer.Error()
}

func writeVaultCSV(path string, rows []rewards.VaultReward) error {
	header := []string{"vault_id", "pair", "supply_token", "borrow_token", "supply_amount", "supply_usd", "supply_price", "borrow_amount", "borrow_usd", "borrow_price", "team", "type", "description"}
	records := make([][]string, 0, len(rows))
	for _, v := range rows {
		records = append(records, []string{
			v.VaultID, v.Pair, v.SupplySymbol, v.BorrowSymbol,
			v.SupplyAmount.String(), v.SupplyUSD.String(), v.SupplyPrice.String(),
			v.BorrowAmount.String(), v.BorrowUSD.String(), v.BorrowPrice.String(),
			v.Team, string(v.Type), v.Description,
		})
	}
	return writeCSV(path, header, records)
}

func writeLendingCSV(path string, rows []rewards.LendingReward) error {
	header := []string{"lending_id", "token", "name", "amount", "usd", "price", "total_assets", "liquidity_supply", "team", "type", "description"}
	records := make([][]string, 0, len(rows))
	for _, l := range rows {
		records = append(records, []string{
			l.LendingID, l.Symbol, l.Name,
			l.Amount.String(), l.USD.String(), l.Price.String(),
			l.TotalAssets.String(), l.LiquiditySupply.String(),
			l.Team, string(l.Type), l.Description,
		})
	}
	return writeCSV(path, header, records)
}

func writeTransactionsCSV(path string, txs []transactions.ClassifiedTransaction) error {
	header := []string{"signature", "timestamp", "type", "token", "amount", "value_usd", "value_source", "counterparty", "team", "block_id"}
	records := make([][]string, 0, len(txs))
	for _, tx := range txs {
		records = append(records, []string{
			tx.Signature,
			tx.Timestamp.UTC().Format(time.RFC3339),
			string(tx.Type),
			tx.Token,
			tx.Amount.String(),
			tx.ValueUSD.String(),
			string(tx.ValueSource),
			tx.Counterparty,
			tx.Team,
			fmt.Sprintf("%d", tx.BlockID),
		})
	}
	return writeCSV(path, header, records)
}

// writeWorkloadPNG renders team totals as a bar chart. It reports false and
// writes nothing when every total is zero.
func writeWorkloadPNG(path string, rows []alerting.TeamTotals) (bool, error) {
	bars := make([]chart.Value, 0, len(rows))
	lo, hi := decimal.Zero, decimal.Zero
	for _, r := range rows {
		bars = append(bars, chart.Value{Label: r.Team, Value: r.Total.InexactFloat64()})
		lo = decimal.Min(lo, r.Total)
		hi = decimal.Max(hi, r.Total)
	}
	if lo.IsZero() && hi.IsZero() {
		return false, nil
	}

	graph := chart.BarChart{
		Title:    "Outstanding rewards by team (USD)",
		Width:    1280,
		Height:   720,
		BarWidth: 60,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: lo.InexactFloat64(), Max: hi.InexactFloat64() * 1.1},
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.0f")
			},
		},
		Bars: bars,
	}
	return true, renderPNG(path, graph.Render)
}

// writeTimelinePNG plots daily outflow value per token. It reports false when
// fewer than two distinct days are present.
func writeTimelinePNG(path string, daily []alerting.DailyOutflow) (bool, error) {
	days := map[time.Time]struct{}{}
	byToken := map[string][]alerting.DailyOutflow{}
	hi := 0.0
	for _, d := range daily {
		days[d.Date] = struct{}{}
		byToken[d.Token] = append(byToken[d.Token], d)
		if v := d.Value.InexactFloat64(); v > hi {
			hi = v
		}
	}
	if len(days) < 2 || hi <= 0 {
		return false, nil
	}

	tokens := make([]string, 0, len(byToken))
	for tok := range byToken {
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)

	series := make([]chart.Series, 0, len(tokens))
	for _, tok := range tokens {
		points := byToken[tok]
		x := make([]time.Time, len(points))
		y := make([]float64, len(points))
		for i, p := range points {
			x[i] = p.Date
			y[i] = p.Value.InexactFloat64()
		}
		if len(points) == 1 {
			// 单点序列无法画线，补一个同值点。
			x = append(x, x[0].Add(time.Hour))
			y = append(y, y[0])
		}
		series = append(series, chart.TimeSeries{Name: tok, XValues: x, YValues: y})
	}

	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:  "Outflow (USD)",
			Range: &chart.ContinuousRange{Min: 0, Max: hi * 1.1},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return true, renderPNG(path, graph.Render)
}

func renderPNG(path string, render func(chart.RendererProvider, io.Writer) error) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
