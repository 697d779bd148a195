package solscan

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"treasury-monitor/internal/valuation"
)

// TransferRecord is one transfer row. Optional fields are pointers so the
// classifier can apply its own defaults.
type TransferRecord struct {
	TransID       string              `json:"trans_id"`
	BlockID       int64               `json:"block_id"`
	Time          string              `json:"time"`
	Flow          string              `json:"flow"`
	FromAddress   string              `json:"from_address"`
	ToAddress     string              `json:"to_address"`
	TokenAddress  string              `json:"token_address"`
	Amount        valuation.RawAmount `json:"amount"`
	TokenDecimals *int32              `json:"token_decimals"`
	Value         decimal.NullDecimal `json:"value"`
}

// TokenMeta is the per-page asset metadata keyed by token address.
type TokenMeta struct {
	Symbol string `json:"token_symbol"`
	Name   string `json:"token_name"`
	Icon   string `json:"token_icon"`
}

// Metadata is the envelope side channel.
type Metadata struct {
	Tokens map[string]TokenMeta `json:"tokens"`
}

// Symbol resolves a token address, "UNKNOWN" when absent.
func (m Metadata) Symbol(tokenAddress string) string {
	if meta, ok := m.Tokens[tokenAddress]; ok && meta.Symbol != "" {
		return meta.Symbol
	}
	return UnknownSymbol
}

// UnknownSymbol is used when page metadata lacks a token.
const UnknownSymbol = "UNKNOWN"

// TransferPage is one decoded page.
type TransferPage struct {
	Page     int
	Records  []TransferRecord
	Metadata Metadata
}

// TokenAccount is one SPL token holding of the treasury.
type TokenAccount struct {
	TokenAccount  string              `json:"token_account"`
	TokenAddress  string              `json:"token_address"`
	Amount        valuation.RawAmount `json:"amount"`
	TokenDecimals *int32              `json:"token_decimals"`
	Owner         string              `json:"owner"`
}

// TokenAccountPage is one decoded page of token accounts.
type TokenAccountPage struct {
	Accounts []TokenAccount
	Metadata Metadata
}

type envelope struct {
	Success  bool            `json:"success"`
	Data     json.RawMessage `json:"data"`
	Metadata Metadata        `json:"metadata"`
	Errors   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}
