package app

import (
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"
)

func newTable(out io.Writer, title string, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	t.AppendHeader(header)
	return t
}

// alignNumbers right-aligns the given 1-based columns.
func alignNumbers(t table.Writer, cols ...int) {
	configs := make([]table.ColumnConfig, 0, len(cols))
	for _, c := range cols {
		configs = append(configs, table.ColumnConfig{Number: c, Align: text.AlignRight, AlignFooter: text.AlignRight})
	}
	t.SetColumnConfigs(configs)
}

// formatUSD renders "$1,234.56", negatives as "-$1,234.56".
func formatUSD(d decimal.Decimal) string {
	s := groupThousands(d.Abs().StringFixed(2))
	if d.Round(2).IsNegative() {
		return "-$" + s
	}
	return "$" + s
}

func formatAmount(d decimal.Decimal) string {
	return groupThousands(d.StringFixed(4))
}

func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return sign + b.String()
}
