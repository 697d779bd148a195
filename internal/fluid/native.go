package fluid

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"treasury-monitor/internal/valuation"
)

// VaultFetcher is satisfied by Client.
type VaultFetcher interface {
	FetchVaults(ctx context.Context) ([]VaultSnapshot, error)
}

// NativePricer prices the wrapped native asset from the vault list. It never
// fails: an unreachable API yields the fallback constant.
type NativePricer struct {
	vaults   VaultFetcher
	wrapped  string
	fallback decimal.Decimal
	logger   zerolog.Logger
}

// NewNativePricer builds a pricer for the given wrapped symbol.
func NewNativePricer(vaults VaultFetcher, wrapped string, fallback decimal.Decimal, logger zerolog.Logger) *NativePricer {
	return &NativePricer{
		vaults:   vaults,
		wrapped:  wrapped,
		fallback: fallback,
		logger:   logger.With().Str("component", "native_pricer").Logger(),
	}
}

// NativePrice implements valuation.NativePricer.
func (p *NativePricer) NativePrice(ctx context.Context) valuation.Quote {
	vaults, err := p.vaults.FetchVaults(ctx)
	if err != nil {
		p.logger.Warn().Err(err).Str("fallback", p.fallback.String()).Msg("vault fetch failed, using native fallback price")
		return valuation.Quote{Symbol: p.wrapped, Price: p.fallback, Source: valuation.ProvenanceFallback}
	}
	return valuation.NativePrice(SupplyQuotes(vaults), p.wrapped, p.fallback)
}

var _ valuation.NativePricer = (*NativePricer)(nil)
