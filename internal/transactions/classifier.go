// Package transactions classifies, caches and pages through treasury transfers.
package transactions

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"treasury-monitor/internal/solscan"
	"treasury-monitor/internal/valuation"
)

// Direction is treasury relative.
type Direction string

const (
	Inflow  Direction = "Inflow"
	Outflow Direction = "Outflow"
)

const defaultTokenDecimals int32 = 6

// DefaultMinValueUSD is the floor below which transfers are dropped.
var DefaultMinValueUSD = decimal.NewFromInt(1000)

// ClassifiedTransaction is a valued transfer that survived the minimum-value filter.
type ClassifiedTransaction struct {
	Signature    string               `json:"signature"`
	Timestamp    time.Time            `json:"timestamp"`
	Type         Direction            `json:"type"`
	Token        string               `json:"token"`
	Amount       decimal.Decimal      `json:"amount"`
	ValueUSD     decimal.Decimal      `json:"value_usd"`
	ValueSource  valuation.Provenance `json:"value_source"`
	Counterparty string               `json:"counterparty"`
	Team         string               `json:"team"`
	BlockID      int64                `json:"block_id"`
}

// AddressTagger names the team behind a counterparty.
type AddressTagger interface {
	Address(addr string) string
}

// ClassifierOptions configure a Classifier.
type ClassifierOptions struct {
	MinValueUSD   decimal.Decimal
	StableSymbols []string
	NativeSymbols []string
}

// Classifier values raw transfers. It holds no mutable state.
type Classifier struct {
	minValue decimal.Decimal
	stable   valuation.StableSource
	native   map[string]struct{}
	tagger   AddressTagger
}

// NewClassifier builds a Classifier.
func NewClassifier(opts ClassifierOptions, tagger AddressTagger) *Classifier {
	native := make(map[string]struct{}, len(opts.NativeSymbols))
	for _, s := range opts.NativeSymbols {
		native[s] = struct{}{}
	}
	return &Classifier{
		minValue: opts.MinValueUSD,
		stable:   valuation.NewStableSource(opts.StableSymbols),
		native:   native,
		tagger:   tagger,
	}
}

// Classify values one record. ok is false when the value is below the minimum.
// A malformed timestamp is an error regardless of value.
func (c *Classifier) Classify(rec solscan.TransferRecord, meta solscan.Metadata, native valuation.Quote) (ClassifiedTransaction, bool, error) {
	ts, err := ParseTimestamp(rec.Time)
	if err != nil {
		return ClassifiedTransaction{}, false, fmt.Errorf("transfer %s: %w", rec.TransID, err)
	}

	dir := Outflow
	counterparty := rec.ToAddress
	if rec.Flow == "in" {
		dir = Inflow
		counterparty = rec.FromAddress
	}

	decimals := defaultTokenDecimals
	if rec.TokenDecimals != nil {
		decimals = *rec.TokenDecimals
	}
	symbol := meta.Symbol(rec.TokenAddress)
	amount := valuation.ToHuman(rec.Amount.Int(), decimals)

	value, source := c.value(symbol, amount, rec.Value, native)
	if value.LessThan(c.minValue) {
		return ClassifiedTransaction{}, false, nil
	}

	return ClassifiedTransaction{
		Signature:    rec.TransID,
		Timestamp:    ts,
		Type:         dir,
		Token:        symbol,
		Amount:       amount,
		ValueUSD:     value,
		ValueSource:  source,
		Counterparty: counterparty,
		Team:         c.tagger.Address(counterparty),
		BlockID:      rec.BlockID,
	}, true, nil
}

func (c *Classifier) value(symbol string, amount decimal.Decimal, upstream decimal.NullDecimal, native valuation.Quote) (decimal.Decimal, valuation.Provenance) {
	if q, ok := c.stable.Lookup(symbol); ok {
		return valuation.USD(amount, q.Price), valuation.ProvenanceStablecoin
	}
	if _, ok := c.native[symbol]; ok {
		return valuation.USD(amount, native.Price), native.Source
	}
	// explorer-supplied value, not verified locally
	if upstream.Valid {
		return upstream.Decimal, valuation.ProvenanceUpstream
	}
	return decimal.Zero, valuation.ProvenanceUnpriced
}

// ClassifyPage classifies a page in order and stops at the first error.
func (c *Classifier) ClassifyPage(page solscan.TransferPage, native valuation.Quote) ([]ClassifiedTransaction, error) {
	out := make([]ClassifiedTransaction, 0, len(page.Records))
	for _, rec := range page.Records {
		tx, ok, err := c.Classify(rec, page.Metadata, native)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, tx)
		}
	}
	return out, nil
}

// ParseTimestamp reads an ISO-8601 instant. Timestamps without an offset are UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("parse timestamp: empty")
	}
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts.UTC(), nil
	}
	ts, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return ts, nil
}
