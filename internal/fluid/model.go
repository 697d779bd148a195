package fluid

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"treasury-monitor/internal/valuation"
)

// ID accepts either a JSON number or a JSON string.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Token is a validated asset descriptor.
type Token struct {
	Address  string          `json:"address,omitempty"`
	Symbol   string          `json:"symbol"`
	Name     string          `json:"name,omitempty"`
	Decimals int32           `json:"decimals"`
	Price    decimal.Decimal `json:"price"`
}

// Quote exposes the token price for the valuation chain.
func (t Token) Quote() valuation.Quote {
	return valuation.Quote{Symbol: t.Symbol, Price: t.Price, Source: valuation.ProvenanceAPI}
}

// VaultSnapshot is one borrowing vault at fetch time. Magnitudes are raw smallest-unit integers.
type VaultSnapshot struct {
	ID                   ID
	Supply               Token
	Borrow               Token
	TotalSupply          valuation.RawAmount
	TotalSupplyLiquidity valuation.RawAmount
	TotalBorrow          valuation.RawAmount
	TotalBorrowLiquidity valuation.RawAmount
}

// Pair is the "SUPPLY/BORROW" key.
func (v VaultSnapshot) Pair() string {
	return v.Supply.Symbol + "/" + v.Borrow.Symbol
}

// LendingSnapshot is one lending pool at fetch time.
type LendingSnapshot struct {
	ID              ID
	Asset           Token
	TotalAssets     valuation.RawAmount
	LiquiditySupply valuation.RawAmount
}

// SupplyQuotes returns the supply-side quote of every vault in order.
func SupplyQuotes(vaults []VaultSnapshot) []valuation.Quote {
	out := make([]valuation.Quote, 0, len(vaults))
	for _, v := range vaults {
		out = append(out, v.Supply.Quote())
	}
	return out
}

// Quotes returns supply then borrow quotes for every vault, in order.
func Quotes(vaults []VaultSnapshot) []valuation.Quote {
	out := make([]valuation.Quote, 0, 2*len(vaults))
	for _, v := range vaults {
		out = append(out, v.Supply.Quote(), v.Borrow.Quote())
	}
	return out
}

type tokenPayload struct {
	Address  string              `json:"address"`
	Symbol   string              `json:"symbol"`
	Name     string              `json:"name"`
	Decimals *int32              `json:"decimals"`
	Price    decimal.NullDecimal `json:"price"`
}

type vaultPayload struct {
	ID                   ID                  `json:"id"`
	SupplyToken          *tokenPayload       `json:"supplyToken"`
	BorrowToken          *tokenPayload       `json:"borrowToken"`
	TotalSupply          valuation.RawAmount `json:"totalSupply"`
	TotalSupplyLiquidity valuation.RawAmount `json:"totalSupplyLiquidity"`
	TotalBorrow          valuation.RawAmount `json:"totalBorrow"`
	TotalBorrowLiquidity valuation.RawAmount `json:"totalBorrowLiquidity"`
}

type lendingPayload struct {
	ID                  ID                  `json:"id"`
	Asset               *tokenPayload       `json:"asset"`
	TotalAssets         valuation.RawAmount `json:"totalAssets"`
	LiquiditySupplyData *struct {
		Supply valuation.RawAmount `json:"supply"`
	} `json:"liquiditySupplyData"`
}

func (p *tokenPayload) token(field string) (Token, error) {
	if p == nil {
		return Token{}, fmt.Errorf("%s missing", field)
	}
	symbol := strings.TrimSpace(p.Symbol)
	if symbol == "" {
		return Token{}, fmt.Errorf("%s.symbol empty", field)
	}
	if p.Decimals == nil {
		return Token{}, fmt.Errorf("%s.decimals missing", field)
	}
	if *p.Decimals < 0 {
		return Token{}, fmt.Errorf("%s.decimals negative: %d", field, *p.Decimals)
	}
	// a missing price is treated as 0 so the delta collapses to zero
	price := decimal.Zero
	if p.Price.Valid {
		price = p.Price.Decimal
	}
	if price.IsNegative() {
		return Token{}, fmt.Errorf("%s.price negative: %s", field, price)
	}
	return Token{Address: p.Address, Symbol: symbol, Name: p.Name, Decimals: *p.Decimals, Price: price}, nil
}

func (p vaultPayload) snapshot() (VaultSnapshot, error) {
	if p.ID == "" {
		return VaultSnapshot{}, errors.New("id missing")
	}
	supply, err := p.SupplyToken.token("supplyToken")
	if err != nil {
		return VaultSnapshot{}, err
	}
	borrow, err := p.BorrowToken.token("borrowToken")
	if err != nil {
		return VaultSnapshot{}, err
	}
	for name, amt := range map[string]valuation.RawAmount{
		"totalSupply":          p.TotalSupply,
		"totalSupplyLiquidity": p.TotalSupplyLiquidity,
		"totalBorrow":          p.TotalBorrow,
		"totalBorrowLiquidity": p.TotalBorrowLiquidity,
	} {
		if !amt.Valid() {
			return VaultSnapshot{}, fmt.Errorf("%s missing", name)
		}
	}
	return VaultSnapshot{
		ID:                   p.ID,
		Supply:               supply,
		Borrow:               borrow,
		TotalSupply:          p.TotalSupply,
		TotalSupplyLiquidity: p.TotalSupplyLiquidity,
		TotalBorrow:          p.TotalBorrow,
		TotalBorrowLiquidity: p.TotalBorrowLiquidity,
	}, nil
}

func (p lendingPayload) snapshot() (LendingSnapshot, error) {
	if p.ID == "" {
		return LendingSnapshot{}, errors.New("id missing")
	}
	asset, err := p.Asset.token("asset")
	if err != nil {
		return LendingSnapshot{}, err
	}
	if !p.TotalAssets.Valid() {
		return LendingSnapshot{}, errors.New("totalAssets missing")
	}
	if p.LiquiditySupplyData == nil || !p.LiquiditySupplyData.Supply.Valid() {
		return LendingSnapshot{}, errors.New("liquiditySupplyData.supply missing")
	}
	return LendingSnapshot{
		ID:              p.ID,
		Asset:           asset,
		TotalAssets:     p.TotalAssets,
		LiquiditySupply: p.LiquiditySupplyData.Supply,
	}, nil
}
