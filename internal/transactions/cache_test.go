package transactions

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"treasury-monitor/internal/valuation"
)

func sampleTransactions() []ClassifiedTransaction {
	return []ClassifiedTransaction{
		{
			Signature:    "a",
			Timestamp:    time.Date(2025, 8, 1, 10, 0, 0, 123456789, time.UTC),
			Type:         Inflow,
			Token:        "USDC",
			Amount:       decimal.RequireFromString("2000000.000001"),
			ValueUSD:     decimal.RequireFromString("2000000.000001"),
			ValueSource:  valuation.ProvenanceStablecoin,
			Counterparty: jupTeam,
			Team:         "JUP Team",
			BlockID:      1,
		},
		{
			Signature:    "b",
			Timestamp:    time.Date(2025, 7, 30, 0, 0, 0, 0, time.FixedZone("CEST", 2*3600)),
			Type:         Outflow,
			Token:        "JitoSOL",
			Amount:       decimal.NewFromInt(12),
			ValueUSD:     decimal.RequireFromString("2500.5"),
			ValueSource:  valuation.ProvenanceUpstream,
			Counterparty: "x",
			Team:         "Unknown",
			BlockID:      2,
		},
	}
}

func mustSave(t *testing.T, c *FileCache, txs []ClassifiedTransaction) time.Time {
	t.Helper()
	at, err := c.Save(txs)
	require.NoError(t, err)
	return at
}

func TestFileCacheRoundTrip(t *testing.T) {
	cache := NewFileCache(filepath.Join(t.TempDir(), "nested", "transaction_cache.json"))
	fixed := time.Date(2025, 8, 3, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return fixed }

	in := sampleTransactions()
	saved := mustSave(t, cache, in)
	assert.True(t, fixed.Equal(saved))

	entry, ok, err := cache.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, fixed.Equal(entry.LastUpdated))
	require.Len(t, entry.Transactions, len(in))

	for i := range in {
		got, want := entry.Transactions[i], in[i]
		assert.True(t, want.Timestamp.Equal(got.Timestamp))
		assert.True(t, want.Amount.Equal(got.Amount))
		assert.True(t, want.ValueUSD.Equal(got.ValueUSD))
		assert.Equal(t, want.Signature, got.Signature)
		assert.Equal(t, want.Type, got.Type)
		assert.Equal(t, want.ValueSource, got.ValueSource)
		assert.Equal(t, want.Team, got.Team)
		assert.Equal(t, want.BlockID, got.BlockID)
	}
}

func TestFileCacheClear(t *testing.T) {
	cache := NewFileCache(filepath.Join(t.TempDir(), "cache.json"))

	removed, err := cache.Clear()
	require.NoError(t, err)
	assert.False(t, removed)

	mustSave(t, cache, sampleTransactions())
	removed, err = cache.Clear()
	require.NoError(t, err)
	assert.True(t, removed)

	_, ok, err := cache.Load()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileCacheCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, ok, err := NewFileCache(path).Load()
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestFileCacheSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	cache := NewFileCache(filepath.Join(dir, "cache.json"))
	mustSave(t, cache, nil)
	mustSave(t, cache, sampleTransactions())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "cache.json", entries[0].Name())
}
