package transactions

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"treasury-monitor/internal/responsibility"
	"treasury-monitor/internal/solscan"
	"treasury-monitor/internal/valuation"
)

const (
	usdcMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	solMint  = "So11111111111111111111111111111111111111112"
	jupTeam  = "7b1zZUuae2F56e66GqpkKe1Tq1BK2ePRRuGGr8ahe2JB"
	treasury = "Cvnta5ecoiCgNbLEXYm6kvhJMmRv3JM3ksKgTLVPg4hk"
)

var testMeta = solscan.Metadata{Tokens: map[string]solscan.TokenMeta{
	usdcMint: {Symbol: "USDC"},
	solMint:  {Symbol: "WSOL"},
}}

var nativeQuote = valuation.Quote{Symbol: "WSOL", Price: decimal.NewFromInt(200), Source: valuation.ProvenanceAPI}

func newClassifier(t *testing.T) *Classifier {
	t.Helper()
	r, err := responsibility.NewResolver(responsibility.DefaultTables())
	require.NoError(t, err)
	return NewClassifier(ClassifierOptions{
		MinValueUSD:   DefaultMinValueUSD,
		StableSymbols: []string{"USDC", "USDT", "USDS", "USDG", "EURC"},
		NativeSymbols: []string{"SOL", "WSOL"},
	}, r)
}

func decimals(d int32) *int32 { return &d }

func usdcIn(raw int64) solscan.TransferRecord {
	return solscan.TransferRecord{
		TransID:       "sig-1",
		BlockID:       42,
		Time:          "2025-08-01T10:00:00Z",
		Flow:          "in",
		FromAddress:   jupTeam,
		ToAddress:     treasury,
		TokenAddress:  usdcMint,
		Amount:        valuation.RawFromInt64(raw),
		TokenDecimals: decimals(6),
	}
}

func TestSmallStablecoinTransferDropped(t *testing.T) {
	_, ok, err := newClassifier(t).Classify(usdcIn(5_000_000), testMeta, nativeQuote)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLargeStablecoinInflowKept(t *testing.T) {
	tx, ok, err := newClassifier(t).Classify(usdcIn(2_000_000_000_000), testMeta, nativeQuote)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, Inflow, tx.Type)
	assert.Equal(t, "USDC", tx.Token)
	assert.True(t, tx.Amount.Equal(decimal.NewFromInt(2_000_000)))
	assert.True(t, tx.ValueUSD.Equal(decimal.NewFromInt(2_000_000)))
	assert.Equal(t, valuation.ProvenanceStablecoin, tx.ValueSource)
	assert.Equal(t, jupTeam, tx.Counterparty)
	assert.Equal(t, "JUP Team", tx.Team)
	assert.Equal(t, int64(42), tx.BlockID)
	assert.Equal(t, time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC), tx.Timestamp)
}

func TestNativeOutflowUsesNativePrice(t *testing.T) {
	rec := solscan.TransferRecord{
		TransID:       "sig-2",
		Time:          "2025-08-02T00:00:00+00:00",
		Flow:          "out",
		FromAddress:   treasury,
		ToAddress:     "11111111111111111111111111111111",
		TokenAddress:  solMint,
		Amount:        valuation.RawFromInt64(10_000_000_000),
		TokenDecimals: decimals(9),
		Value:         decimal.NewNullDecimal(decimal.NewFromInt(1)),
	}
	tx, ok, err := newClassifier(t).Classify(rec, testMeta, nativeQuote)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Outflow, tx.Type)
	assert.True(t, tx.ValueUSD.Equal(decimal.NewFromInt(2000)), "got %s", tx.ValueUSD)
	assert.Equal(t, responsibility.UnknownTeam, tx.Team)
}

func TestUnknownTokenUsesUpstreamValueVerbatim(t *testing.T) {
	rec := usdcIn(1)
	rec.TokenAddress = "mystery"
	rec.TokenDecimals = nil
	rec.Value = decimal.NewNullDecimal(decimal.RequireFromString("1234.56"))

	tx, ok, err := newClassifier(t).Classify(rec, testMeta, nativeQuote)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, solscan.UnknownSymbol, tx.Token)
	assert.True(t, tx.ValueUSD.Equal(decimal.RequireFromString("1234.56")))
	assert.Equal(t, valuation.ProvenanceUpstream, tx.ValueSource)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("0.000001")), "default decimals is 6")
}

func TestUnparseableTimestampIsAnError(t *testing.T) {
	rec := usdcIn(5_000_000)
	rec.Time = "yesterday"
	_, _, err := newClassifier(t).Classify(rec, testMeta, nativeQuote)
	assert.Error(t, err)
}

func TestParseTimestampVariants(t *testing.T) {
	want := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	for _, in := range []string{"2025-01-02T03:04:05Z", "2025-01-02T03:04:05+00:00", "2025-01-02T05:04:05+02:00", "2025-01-02T03:04:05"} {
		got, err := ParseTimestamp(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), in)
	}
}

func TestClassifyPageStopsAtFirstError(t *testing.T) {
	bad := usdcIn(2_000_000_000)
	bad.Time = ""
	page := solscan.TransferPage{Records: []solscan.TransferRecord{usdcIn(2_000_000_000), bad}, Metadata: testMeta}

	_, err := newClassifier(t).ClassifyPage(page, nativeQuote)
	assert.Error(t, err)
}

func TestFilterApply(t *testing.T) {
	txs := []ClassifiedTransaction{
		{Signature: "1", Type: Inflow, Token: "USDC", Team: "JUP Team"},
		{Signature: "2", Type: Outflow, Token: "USDC", Team: "Unknown"},
		{Signature: "3", Type: Outflow, Token: "WSOL", Team: "Unknown"},
	}

	got := Filter{Types: []Direction{Outflow}, Tokens: []string{"USDC"}}.Apply(txs)
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].Signature)

	assert.Len(t, Filter{}.Apply(txs), 3)

	dir, ok := ParseDirection("in")
	assert.True(t, ok)
	assert.Equal(t, Inflow, dir)
}
