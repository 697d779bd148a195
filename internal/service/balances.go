package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"treasury-monitor/internal/fluid"
	"treasury-monitor/internal/solscan"
	"treasury-monitor/internal/valuation"
)

const defaultTokenDecimals int32 = 6

// BalanceOptions drive the balance price chain.
type BalanceOptions struct {
	PageSize        int
	StableSymbols   []string
	NativeSymbols   []string
	WrappedNative   string
	NativeFallback  decimal.Decimal
	ExcludedSymbols []string
}

// Balance is one non-zero treasury holding.
type Balance struct {
	Token        string               `json:"token"`
	TokenAddress string               `json:"token_address"`
	Amount       decimal.Decimal      `json:"amount"`
	Price        decimal.Decimal      `json:"price"`
	USD          decimal.Decimal      `json:"usd_value"`
	Source       valuation.Provenance `json:"price_source"`
}

// BalanceReport lists holdings sorted by USD value.
type BalanceReport struct {
	Balances    []Balance
	Total       decimal.Decimal
	NativePrice valuation.Quote
}

// BalanceReader reads token accounts and prices them.
type BalanceReader struct {
	accounts solscan.TokenAccountSource
	vaults   fluid.VaultFetcher
	opts     BalanceOptions
	logger   zerolog.Logger
}

// NewBalanceReader builds a reader. The page size defaults to 20.
func NewBalanceReader(opts BalanceOptions, accounts solscan.TokenAccountSource, vaults fluid.VaultFetcher, logger zerolog.Logger) *BalanceReader {
	if opts.PageSize <= 0 {
		opts.PageSize = 20
	}
	return &BalanceReader{
		accounts: accounts,
		vaults:   vaults,
		opts:     opts,
		logger:   logger.With().Str("component", "balances").Logger(),
	}
}

// Read returns the first page of holdings. Vault quotes are best effort: when
// the vault list cannot be fetched the chain falls through to the native
// fallback and unpriced.
func (r *BalanceReader) Read(ctx context.Context) (BalanceReport, error) {
	page, err := r.accounts.FetchTokenAccounts(ctx, 1, r.opts.PageSize)
	if err != nil {
		return BalanceReport{}, fmt.Errorf("fetch token accounts: %w", err)
	}

	var quotes []valuation.Quote
	native := valuation.Quote{Symbol: r.opts.WrappedNative, Price: r.opts.NativeFallback, Source: valuation.ProvenanceFallback}
	if vaults, err := r.vaults.FetchVaults(ctx); err != nil {
		r.logger.Warn().Err(err).Msg("vault quotes unavailable, balances priced without them")
	} else {
		quotes = fluid.Quotes(vaults)
		native = valuation.NativePrice(fluid.SupplyQuotes(vaults), r.opts.WrappedNative, r.opts.NativeFallback)
	}

	resolver := r.resolver(native, quotes)
	report := BalanceReport{NativePrice: native, Total: decimal.Zero}
	for _, acct := range page.Accounts {
		dec := defaultTokenDecimals
		if acct.TokenDecimals != nil {
			dec = *acct.TokenDecimals
		}
		amount := valuation.ToHuman(acct.Amount.Int(), dec)
		if !amount.IsPositive() {
			continue
		}
		symbol := page.Metadata.Symbol(acct.TokenAddress)
		q := resolver.Resolve(symbol)
		usd := valuation.USD(amount, q.Price)
		report.Balances = append(report.Balances, Balance{
			Token:        symbol,
			TokenAddress: acct.TokenAddress,
			Amount:       amount,
			Price:        q.Price,
			USD:          usd,
			Source:       q.Source,
		})
		report.Total = report.Total.Add(usd)
	}

	sort.SliceStable(report.Balances, func(i, j int) bool {
		return report.Balances[i].USD.GreaterThan(report.Balances[j].USD)
	})

	r.logger.Info().Int("holdings", len(report.Balances)).Str("total_usd", report.Total.StringFixed(2)).Msg("balances valued")
	return report, nil
}

// resolver chains: excluded, stablecoins, native aliases, vault quotes,
// native fallback constant, unpriced.
func (r *BalanceReader) resolver(native valuation.Quote, vaultQuotes []valuation.Quote) *valuation.Resolver {
	return valuation.NewResolver(valuation.ResolverOptions{
		Sources: []valuation.PriceSource{
			valuation.NewStableSource(r.opts.StableSymbols),
			valuation.NewAliasSource(r.opts.NativeSymbols, native),
			valuation.NewQuoteSource("vaults", vaultQuotes),
		},
		NativeSymbols:   r.opts.NativeSymbols,
		ExcludedSymbols: r.opts.ExcludedSymbols,
		NativeFallback:  r.opts.NativeFallback,
	})
}
