// Package rewards turns vault and lending snapshots into outstanding reward
// deltas attributed to a responsible team.
package rewards

import (
	"github.com/shopspring/decimal"

	"treasury-monitor/internal/fluid"
	"treasury-monitor/internal/responsibility"
	"treasury-monitor/internal/valuation"
)

// DefaultNoiseFloor is the USD magnitude a row must exceed to be reported.
var DefaultNoiseFloor = decimal.NewFromInt(100)

// Assigner resolves responsibility for vault pairs and lending tokens.
type Assigner interface {
	Vault(pair string) responsibility.Assignment
	Lending(symbol string) responsibility.Assignment
}

// VaultReward is one reported vault row. Amounts are signed.
type VaultReward struct {
	VaultID      string                       `json:"vault_id"`
	Pair         string                       `json:"pair"`
	SupplySymbol string                       `json:"supply_token"`
	BorrowSymbol string                       `json:"borrow_token"`
	SupplyAmount decimal.Decimal              `json:"supply_delta_amount"`
	SupplyUSD    decimal.Decimal              `json:"supply_delta_usd"`
	BorrowAmount decimal.Decimal              `json:"borrow_delta_amount"`
	BorrowUSD    decimal.Decimal              `json:"borrow_delta_usd"`
	SupplyPrice  decimal.Decimal              `json:"supply_price"`
	BorrowPrice  decimal.Decimal              `json:"borrow_price"`
	Team         string                       `json:"team"`
	Type         responsibility.IncentiveType `json:"type"`
	Description  string                       `json:"description,omitempty"`
}

// LendingReward is one reported lending row.
type LendingReward struct {
	LendingID       string                       `json:"lending_id"`
	Symbol          string                       `json:"token"`
	Name            string                       `json:"name"`
	Amount          decimal.Decimal              `json:"rewards_amount"`
	USD             decimal.Decimal              `json:"rewards_usd"`
	Price           decimal.Decimal              `json:"price"`
	TotalAssets     decimal.Decimal              `json:"total_assets"`
	LiquiditySupply decimal.Decimal              `json:"liquidity_supply"`
	Team            string                       `json:"team"`
	Type            responsibility.IncentiveType `json:"type"`
	Description     string                       `json:"description,omitempty"`
}

// VaultDelta is the unfiltered supply and borrow delta of a vault in token units.
type VaultDelta struct {
	SupplySymbol string
	BorrowSymbol string
	SupplyAmount decimal.Decimal
	BorrowAmount decimal.Decimal
}

// ComputeVaultDelta returns the raw deltas without pricing or filtering.
func ComputeVaultDelta(v fluid.VaultSnapshot) VaultDelta {
	return VaultDelta{
		SupplySymbol: v.Supply.Symbol,
		BorrowSymbol: v.Borrow.Symbol,
		SupplyAmount: valuation.Delta(v.TotalSupply, v.TotalSupplyLiquidity, v.Supply.Decimals),
		BorrowAmount: valuation.Delta(v.TotalBorrow, v.TotalBorrowLiquidity, v.Borrow.Decimals),
	}
}

// LendingDelta is the unfiltered lending delta in token units.
type LendingDelta struct {
	Symbol string
	Amount decimal.Decimal
}

// ComputeLendingDelta returns the raw lending delta without filtering.
func ComputeLendingDelta(l fluid.LendingSnapshot) LendingDelta {
	return LendingDelta{
		Symbol: l.Asset.Symbol,
		Amount: valuation.Delta(l.TotalAssets, l.LiquiditySupply, l.Asset.Decimals),
	}
}

// Calculator applies pricing, attribution and the noise floor.
type Calculator struct {
	assigner Assigner
	floor    decimal.Decimal
}

// NewCalculator builds a Calculator. A negative floor falls back to DefaultNoiseFloor.
func NewCalculator(assigner Assigner, floor decimal.Decimal) *Calculator {
	if floor.IsNegative() {
		floor = DefaultNoiseFloor
	}
	return &Calculator{assigner: assigner, floor: floor}
}

// Vault computes one vault row. ok is false when both sides are at or below the noise floor.
func (c *Calculator) Vault(v fluid.VaultSnapshot) (VaultReward, bool) {
	delta := ComputeVaultDelta(v)
	supplyUSD := valuation.USD(delta.SupplyAmount, v.Supply.Price)
	borrowUSD := valuation.USD(delta.BorrowAmount, v.Borrow.Price)

	if supplyUSD.Abs().LessThanOrEqual(c.floor) && borrowUSD.Abs().LessThanOrEqual(c.floor) {
		return VaultReward{}, false
	}

	pair := v.Pair()
	a := c.assigner.Vault(pair)
	return VaultReward{
		VaultID:      string(v.ID),
		Pair:         pair,
		SupplySymbol: v.Supply.Symbol,
		BorrowSymbol: v.Borrow.Symbol,
		SupplyAmount: delta.SupplyAmount,
		SupplyUSD:    supplyUSD,
		BorrowAmount: delta.BorrowAmount,
		BorrowUSD:    borrowUSD,
		SupplyPrice:  v.Supply.Price,
		BorrowPrice:  v.Borrow.Price,
		Team:         a.Team,
		Type:         a.Type,
		Description:  a.Description,
	}, true
}

// Lending computes one lending row. ok is false when |USD| is at or below the noise floor.
func (c *Calculator) Lending(l fluid.LendingSnapshot) (LendingReward, bool) {
	delta := ComputeLendingDelta(l)
	usd := valuation.USD(delta.Amount, l.Asset.Price)
	if usd.Abs().LessThanOrEqual(c.floor) {
		return LendingReward{}, false
	}

	a := c.assigner.Lending(l.Asset.Symbol)
	return LendingReward{
		LendingID:       string(l.ID),
		Symbol:          l.Asset.Symbol,
		Name:            l.Asset.Name,
		Amount:          delta.Amount,
		USD:             usd,
		Price:           l.Asset.Price,
		TotalAssets:     valuation.ToHuman(l.TotalAssets.Int(), l.Asset.Decimals),
		LiquiditySupply: valuation.ToHuman(l.LiquiditySupply.Int(), l.Asset.Decimals),
		Team:            a.Team,
		Type:            a.Type,
		Description:     a.Description,
	}, true
}

// VaultRewards keeps the surviving rows in input order.
func (c *Calculator) VaultRewards(vaults []fluid.VaultSnapshot) []VaultReward {
	out := make([]VaultReward, 0, len(vaults))
	for _, v := range vaults {
		if row, ok := c.Vault(v); ok {
			out = append(out, row)
		}
	}
	return out
}

// LendingRewards keeps the surviving rows in input order.
func (c *Calculator) LendingRewards(tokens []fluid.LendingSnapshot) []LendingReward {
	out := make([]LendingReward, 0, len(tokens))
	for _, l := range tokens {
		if row, ok := c.Lending(l); ok {
			out = append(out, row)
		}
	}
	return out
}
