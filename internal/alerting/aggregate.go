package alerting

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"treasury-monitor/internal/rewards"
	"treasury-monitor/internal/transactions"
	"treasury-monitor/internal/valuation"
)

// Priority ranks an outstanding reward.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
)

// ParsePriority accepts "high" or "medium" in any case.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return PriorityHigh, nil
	case "medium", "":
		return PriorityMedium, nil
	}
	return "", fmt.Errorf("unknown priority %q", s)
}

// AtLeast reports whether p ranks at or above min.
func (p Priority) AtLeast(min Priority) bool {
	if min == PriorityHigh {
		return p == PriorityHigh
	}
	return p == PriorityHigh || p == PriorityMedium
}

// Category names the row kind in priority lists.
type Category string

const (
	CategoryVaultSupply Category = "Vault Supply"
	CategoryVaultBorrow Category = "Vault Borrow"
	CategoryLending     Category = "Lending"
)

// Tier is a pair of strict lower bounds.
type Tier struct {
	High   decimal.Decimal `mapstructure:"high"`
	Medium decimal.Decimal `mapstructure:"medium"`
}

// Classify returns the tier for amount; ok is false below Medium. Bounds are strict.
func (t Tier) Classify(amount decimal.Decimal) (Priority, bool) {
	switch {
	case amount.GreaterThan(t.High):
		return PriorityHigh, true
	case amount.GreaterThan(t.Medium):
		return PriorityMedium, true
	}
	return "", false
}

// Thresholds hold one tier per category.
type Thresholds struct {
	VaultSupply Tier `mapstructure:"vault_supply"`
	VaultBorrow Tier `mapstructure:"vault_borrow"`
	Lending     Tier `mapstructure:"lending"`
}

// DefaultThresholds are the production tiers.
func DefaultThresholds() Thresholds {
	return Thresholds{
		VaultSupply: Tier{High: decimal.NewFromInt(300_000), Medium: decimal.NewFromInt(100_000)},
		VaultBorrow: Tier{High: decimal.NewFromInt(100_000), Medium: decimal.NewFromInt(50_000)},
		Lending:     Tier{High: decimal.NewFromInt(300_000), Medium: decimal.NewFromInt(100_000)},
	}
}

// PriorityItem is one ranked row.
type PriorityItem struct {
	Category    Category        `json:"type"`
	Item        string          `json:"item"`
	AmountUSD   decimal.Decimal `json:"amount_usd"`
	TokenAmount decimal.Decimal `json:"token_amount"`
	Token       string          `json:"token"`
	Team        string          `json:"team"`
	Priority    Priority        `json:"priority"`
}

// Priorities ranks vault supply, |vault borrow| and lending rows against thresholds.
// Supply and lending compare the signed value, borrow the absolute value.
func Priorities(vaults []rewards.VaultReward, lending []rewards.LendingReward, th Thresholds) []PriorityItem {
	var out []PriorityItem
	for _, v := range vaults {
		if p, ok := th.VaultSupply.Classify(v.SupplyUSD); ok {
			out = append(out, PriorityItem{
				Category: CategoryVaultSupply, Item: v.Pair, AmountUSD: v.SupplyUSD,
				TokenAmount: v.SupplyAmount, Token: v.SupplySymbol, Team: v.Team, Priority: p,
			})
		}
		borrow := v.BorrowUSD.Abs()
		if p, ok := th.VaultBorrow.Classify(borrow); ok {
			out = append(out, PriorityItem{
				Category: CategoryVaultBorrow, Item: v.Pair, AmountUSD: borrow,
				TokenAmount: v.BorrowAmount.Abs(), Token: v.BorrowSymbol, Team: v.Team, Priority: p,
			})
		}
	}
	for _, l := range lending {
		if p, ok := th.Lending.Classify(l.USD); ok {
			out = append(out, PriorityItem{
				Category: CategoryLending, Item: l.Symbol, AmountUSD: l.USD,
				TokenAmount: l.Amount, Token: l.Symbol, Team: l.Team, Priority: p,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AmountUSD.GreaterThan(out[j].AmountUSD)
	})
	return out
}

// FilterPriorities keeps items at or above min.
func FilterPriorities(items []PriorityItem, min Priority) []PriorityItem {
	out := make([]PriorityItem, 0, len(items))
	for _, it := range items {
		if it.Priority.AtLeast(min) {
			out = append(out, it)
		}
	}
	return out
}

// TeamTotals is one row of the team workload table.
type TeamTotals struct {
	Team        string          `json:"team"`
	VaultSupply decimal.Decimal `json:"vault_supply"`
	VaultBorrow decimal.Decimal `json:"vault_borrow"`
	Lending     decimal.Decimal `json:"lending"`
	Total       decimal.Decimal `json:"total"`
}

// TeamWorkload sums reported rows per team. Borrow contributes its absolute value.
func TeamWorkload(vaults []rewards.VaultReward, lending []rewards.LendingReward) []TeamTotals {
	idx := map[string]*TeamTotals{}
	get := func(team string) *TeamTotals {
		if t, ok := idx[team]; ok {
			return t
		}
		t := &TeamTotals{Team: team}
		idx[team] = t
		return t
	}
	for _, v := range vaults {
		t := get(v.Team)
		t.VaultSupply = t.VaultSupply.Add(v.SupplyUSD)
		t.VaultBorrow = t.VaultBorrow.Add(v.BorrowUSD.Abs())
	}
	for _, l := range lending {
		t := get(l.Team)
		t.Lending = t.Lending.Add(l.USD)
	}

	out := make([]TeamTotals, 0, len(idx))
	for _, t := range idx {
		t.Total = t.VaultSupply.Add(t.VaultBorrow).Add(t.Lending)
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].Team < out[j].Team
	})
	return out
}

// OverviewTotals are the headline figures.
type OverviewTotals struct {
	VaultSupply decimal.Decimal `json:"vault_supply"`
	VaultBorrow decimal.Decimal `json:"vault_borrow"`
	Lending     decimal.Decimal `json:"lending"`
	Total       decimal.Decimal `json:"total"`
}

// Overview totals the reported rows. Borrow is the absolute value of the signed sum.
func Overview(vaults []rewards.VaultReward, lending []rewards.LendingReward) OverviewTotals {
	var o OverviewTotals
	borrow := decimal.Zero
	for _, v := range vaults {
		o.VaultSupply = o.VaultSupply.Add(v.SupplyUSD)
		borrow = borrow.Add(v.BorrowUSD)
	}
	for _, l := range lending {
		o.Lending = o.Lending.Add(l.USD)
	}
	o.VaultBorrow = borrow.Abs()
	o.Total = o.VaultSupply.Add(o.VaultBorrow).Add(o.Lending)
	return o
}

// RebalanceOptions choose the reward token buckets.
type RebalanceOptions struct {
	NativeBucket   string   `mapstructure:"native_bucket"`
	WrappedNative  string   `mapstructure:"wrapped_native"`
	BorrowBuckets  []string `mapstructure:"borrow_buckets"`
	LendingBuckets []string `mapstructure:"lending_buckets"`
}

// DefaultRebalanceOptions mirror the tokens the treasury pays rewards in.
func DefaultRebalanceOptions() RebalanceOptions {
	return RebalanceOptions{
		NativeBucket:   "SOL",
		WrappedNative:  "WSOL",
		BorrowBuckets:  []string{"USDC", "USDG", "EURC", "SOL"},
		LendingBuckets: []string{"USDC", "USDG", "USDT", "EURC", "USDS"},
	}
}

// PendingToken is the amount of one reward token needed to rebalance.
type PendingToken struct {
	Token  string          `json:"token"`
	Amount decimal.Decimal `json:"amount_required"`
	USD    decimal.Decimal `json:"usd_value"`
}

// PendingRebalance sums positive unfiltered deltas into reward token buckets.
// Only wrapped-native supply deltas go to the native bucket. Borrow and lending
// symbols must match a bucket exactly; negative deltas are ignored.
func PendingRebalance(vaults []rewards.VaultDelta, lending []rewards.LendingDelta, native valuation.Quote, opts RebalanceOptions) []PendingToken {
	borrowSet := bucketSet(opts.BorrowBuckets)
	lendingSet := bucketSet(opts.LendingBuckets)

	sums := map[string]decimal.Decimal{}
	var order []string
	add := func(bucket string, amount decimal.Decimal) {
		if !amount.IsPositive() {
			return
		}
		if _, ok := sums[bucket]; !ok {
			order = append(order, bucket)
		}
		sums[bucket] = sums[bucket].Add(amount)
	}

	for _, v := range vaults {
		if v.SupplySymbol == opts.WrappedNative {
			add(opts.NativeBucket, v.SupplyAmount)
		}
		if borrowSet[v.BorrowSymbol] {
			add(v.BorrowSymbol, v.BorrowAmount)
		}
	}
	for _, l := range lending {
		if lendingSet[l.Symbol] {
			add(l.Symbol, l.Amount)
		}
	}

	out := make([]PendingToken, 0, len(order))
	for _, token := range order {
		amount := sums[token]
		price := decimal.NewFromInt(1)
		if token == opts.NativeBucket {
			price = native.Price
		}
		out = append(out, PendingToken{Token: token, Amount: amount, USD: valuation.USD(amount, price)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].USD.GreaterThan(out[j].USD)
	})
	return out
}

func bucketSet(symbols []string) map[string]bool {
	set := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		set[s] = true
	}
	return set
}

// TokenOutflow is the outflow value and count for one token.
type TokenOutflow struct {
	Token string          `json:"token"`
	Value decimal.Decimal `json:"total_value"`
	Count int             `json:"count"`
}

// TeamValue is a team with a summed value.
type TeamValue struct {
	Team  string          `json:"team"`
	Value decimal.Decimal `json:"value_usd"`
}

// DailyOutflow is the outflow value of one token on one UTC day.
type DailyOutflow struct {
	Date  time.Time       `json:"date"`
	Token string          `json:"token"`
	Value decimal.Decimal `json:"value_usd"`
}

// TransactionSummary is the analytics view over classified transactions.
type TransactionSummary struct {
	Total          int             `json:"total"`
	Inflows        int             `json:"inflows"`
	Outflows       int             `json:"outflows"`
	Volume         decimal.Decimal `json:"volume_usd"`
	InflowByTeam   []TeamValue     `json:"inflow_by_team"`
	OutflowByToken []TokenOutflow  `json:"outflow_by_token"`
	OutflowDaily   []DailyOutflow  `json:"outflow_daily"`
}

// SummarizeTransactions builds counts, per-team inflow value, per-token outflow
// value and a daily outflow timeline.
func SummarizeTransactions(txs []transactions.ClassifiedTransaction) TransactionSummary {
	s := TransactionSummary{Total: len(txs)}
	inflow := map[string]decimal.Decimal{}
	outflow := map[string]*TokenOutflow{}
	type dayKey struct {
		day   time.Time
		token string
	}
	daily := map[dayKey]decimal.Decimal{}

	for _, tx := range txs {
		s.Volume = s.Volume.Add(tx.ValueUSD)
		switch tx.Type {
		case transactions.Inflow:
			s.Inflows++
			inflow[tx.Team] = inflow[tx.Team].Add(tx.ValueUSD)
		case transactions.Outflow:
			s.Outflows++
			o, ok := outflow[tx.Token]
			if !ok {
				o = &TokenOutflow{Token: tx.Token}
				outflow[tx.Token] = o
			}
			o.Value = o.Value.Add(tx.ValueUSD)
			o.Count++

			ts := tx.Timestamp.UTC()
			k := dayKey{day: time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC), token: tx.Token}
			daily[k] = daily[k].Add(tx.ValueUSD)
		}
	}

	for team, v := range inflow {
		s.InflowByTeam = append(s.InflowByTeam, TeamValue{Team: team, Value: v})
	}
	sort.Slice(s.InflowByTeam, func(i, j int) bool {
		if c := s.InflowByTeam[i].Value.Cmp(s.InflowByTeam[j].Value); c != 0 {
			return c > 0
		}
		return s.InflowByTeam[i].Team < s.InflowByTeam[j].Team
	})

	for _, o := range outflow {
		s.OutflowByToken = append(s.OutflowByToken, *o)
	}
	sort.Slice(s.OutflowByToken, func(i, j int) bool {
		if c := s.OutflowByToken[i].Value.Cmp(s.OutflowByToken[j].Value); c != 0 {
			return c > 0
		}
		return s.OutflowByToken[i].Token < s.OutflowByToken[j].Token
	})

	for k, v := range daily {
		s.OutflowDaily = append(s.OutflowDaily, DailyOutflow{Date: k.day, Token: k.token, Value: v})
	}
	sort.Slice(s.OutflowDaily, func(i, j int) bool {
		if !s.OutflowDaily[i].Date.Equal(s.OutflowDaily[j].Date) {
			return s.OutflowDaily[i].Date.Before(s.OutflowDaily[j].Date)
		}
		return s.OutflowDaily[i].Token < s.OutflowDaily[j].Token
	})
	return s
}
