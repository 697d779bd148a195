package rewards

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"treasury-monitor/internal/fluid"
	"treasury-monitor/internal/responsibility"
	"treasury-monitor/internal/valuation"
)

func calculator(t *testing.T) *Calculator {
	t.Helper()
	r, err := responsibility.NewResolver(responsibility.DefaultTables())
	require.NoError(t, err)
	return NewCalculator(r, DefaultNoiseFloor)
}

func vault(supply, borrow string, supplyDec, borrowDec int32, supplyPrice, borrowPrice string, ts, tsl, tb, tbl int64) fluid.VaultSnapshot {
	return fluid.VaultSnapshot{
		ID:                   "1",
		Supply:               fluid.Token{Symbol: supply, Decimals: supplyDec, Price: decimal.RequireFromString(supplyPrice)},
		Borrow:               fluid.Token{Symbol: borrow, Decimals: borrowDec, Price: decimal.RequireFromString(borrowPrice)},
		TotalSupply:          valuation.RawFromInt64(ts),
		TotalSupplyLiquidity: valuation.RawFromInt64(tsl),
		TotalBorrow:          valuation.RawFromInt64(tb),
		TotalBorrowLiquidity: valuation.RawFromInt64(tbl),
	}
}

func TestVaultSupplyDeltaFormula(t *testing.T) {
	// (5_000_000_000_000 - 4_000_000_000_000) / 1e9 = 1000 WSOL at 172.5
	v := vault("WSOL", "USDC", 9, 6, "172.5", "1", 5_000_000_000_000, 4_000_000_000_000, 0, 0)

	row, ok := calculator(t).Vault(v)
	require.True(t, ok)
	assert.True(t, row.SupplyAmount.Equal(decimal.NewFromInt(1000)))
	assert.True(t, row.SupplyUSD.Equal(decimal.NewFromInt(172_500)))
	assert.True(t, row.BorrowUSD.IsZero())
	assert.Equal(t, "Fluid Team", row.Team)
	assert.Equal(t, responsibility.Supply, row.Type)
}

func TestVaultBelowNoiseFloorSuppressed(t *testing.T) {
	// supply 80 USD, borrow 0
	v := vault("WSOL", "USDC", 6, 6, "1", "1", 80_000_000, 0, 0, 0)
	_, ok := calculator(t).Vault(v)
	assert.False(t, ok)

	// exactly 100 is not above the floor
	v = vault("WSOL", "USDC", 6, 6, "1", "1", 100_000_000, 0, 0, 0)
	_, ok = calculator(t).Vault(v)
	assert.False(t, ok)
}

func TestVaultAboveFloorIncludedAndUnknownPair(t *testing.T) {
	v := vault("WSOL", "USDG", 6, 6, "1", "1", 150_000_000, 0, 0, 0)
	row, ok := calculator(t).Vault(v)
	require.True(t, ok)
	assert.Equal(t, "Fluid Team", row.Team)

	v = vault("FOO", "BAR", 6, 6, "1", "1", 150_000_000, 0, 0, 0)
	row, ok = calculator(t).Vault(v)
	require.True(t, ok)
	assert.Equal(t, responsibility.UnknownTeam, row.Team)
	assert.Equal(t, responsibility.Unknown, row.Type)
}

func TestNegativeDeltaKeptSigned(t *testing.T) {
	v := vault("JUPSOL", "USDG", 6, 6, "1", "1", 0, 0, 1_000_000_000, 61_000_000_000)
	row, ok := calculator(t).Vault(v)
	require.True(t, ok)
	assert.True(t, row.BorrowUSD.Equal(decimal.NewFromInt(-60_000)), "got %s", row.BorrowUSD)
	assert.Equal(t, "USDG Team", row.Team)
}

func TestZeroPriceYieldsZeroDelta(t *testing.T) {
	v := vault("WSOL", "USDC", 9, 6, "0", "0", 9_000_000_000_000, 0, 9_000_000_000_000, 0)
	_, ok := calculator(t).Vault(v)
	assert.False(t, ok)
}

func TestLargeMagnitudesStayExact(t *testing.T) {
	total, _ := new(big.Int).SetString("2000000000000000000000000", 10)
	avail, _ := new(big.Int).SetString("1000000000000000000000000", 10)
	v := fluid.VaultSnapshot{
		ID:                   "9",
		Supply:               fluid.Token{Symbol: "X", Decimals: 18, Price: decimal.NewFromInt(2)},
		Borrow:               fluid.Token{Symbol: "Y", Decimals: 6, Price: decimal.NewFromInt(1)},
		TotalSupply:          valuation.NewRawAmount(total),
		TotalSupplyLiquidity: valuation.NewRawAmount(avail),
		TotalBorrow:          valuation.RawFromInt64(0),
		TotalBorrowLiquidity: valuation.RawFromInt64(0),
	}
	row, ok := calculator(t).Vault(v)
	require.True(t, ok)
	assert.True(t, row.SupplyAmount.Equal(decimal.NewFromInt(1_000_000)))
	assert.True(t, row.SupplyUSD.Equal(decimal.NewFromInt(2_000_000)))
}

func TestLendingRewards(t *testing.T) {
	tokens := []fluid.LendingSnapshot{
		{
			ID:              "1",
			Asset:           fluid.Token{Symbol: "USDC", Name: "USD Coin", Decimals: 6, Price: decimal.NewFromInt(1)},
			TotalAssets:     valuation.RawFromInt64(900_000_000_000),
			LiquiditySupply: valuation.RawFromInt64(700_000_000_000),
		},
		{
			ID:              "2",
			Asset:           fluid.Token{Symbol: "USDT", Decimals: 6, Price: decimal.NewFromInt(1)},
			TotalAssets:     valuation.RawFromInt64(100_000_000),
			LiquiditySupply: valuation.RawFromInt64(50_000_000),
		},
		{
			ID:              "3",
			Asset:           fluid.Token{Symbol: "PYUSD", Decimals: 6, Price: decimal.NewFromInt(1)},
			TotalAssets:     valuation.RawFromInt64(1_000_000_000),
			LiquiditySupply: valuation.RawFromInt64(0),
		},
	}

	rows := calculator(t).LendingRewards(tokens)
	require.Len(t, rows, 2)

	assert.Equal(t, "USDC", rows[0].Symbol)
	assert.True(t, rows[0].USD.Equal(decimal.NewFromInt(200_000)))
	assert.True(t, rows[0].TotalAssets.Equal(decimal.NewFromInt(900_000)))
	assert.Equal(t, "Jupiter", rows[0].Team)
	assert.Equal(t, responsibility.Lending, rows[0].Type)

	assert.Equal(t, "PYUSD", rows[1].Symbol)
	assert.Equal(t, responsibility.UnknownTeam, rows[1].Team)
}

func TestVaultRewardsPreservesOrder(t *testing.T) {
	vaults := []fluid.VaultSnapshot{
		vault("INF", "SOL", 6, 6, "1", "1", 0, 0, 500_000_000, 0),
		vault("WSOL", "USDC", 6, 6, "1", "1", 10_000_000, 0, 0, 0),
		vault("PST", "USDC", 6, 6, "1", "1", 0, 0, 900_000_000, 0),
	}
	rows := calculator(t).VaultRewards(vaults)
	require.Len(t, rows, 2)
	assert.Equal(t, "INF/SOL", rows[0].Pair)
	assert.Equal(t, "PST/USDC", rows[1].Pair)
}
