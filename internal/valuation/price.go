package valuation

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// Provenance records where a price or USD value came from.
type Provenance string

const (
	// ProvenanceAPI marks a price quoted by the lending protocol's snapshot API.
	ProvenanceAPI Provenance = "api"
	// ProvenanceStablecoin marks a 1:1 valuation by asset class.
	ProvenanceStablecoin Provenance = "stablecoin"
	// ProvenanceUpstream marks a USD value taken verbatim from the explorer. It is not verified locally.
	ProvenanceUpstream Provenance = "upstream"
	// ProvenanceFallback marks the configured native-asset constant.
	ProvenanceFallback Provenance = "fallback"
	// ProvenanceExcluded marks symbols deliberately valued at zero.
	ProvenanceExcluded Provenance = "excluded"
	// ProvenanceUnpriced marks a symbol no source could price. Zero here means unknown, not worthless.
	ProvenanceUnpriced Provenance = "unpriced"
)

// Quote is a unit price with its provenance.
type Quote struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
	Source Provenance      `json:"source"`
}

// Priced reports whether the quote carries a usable price.
func (q Quote) Priced() bool {
	return q.Source != ProvenanceUnpriced && q.Source != ""
}

// PriceSource is one named link in a price resolution chain.
type PriceSource interface {
	Name() string
	Lookup(symbol string) (Quote, bool)
}

// NativePricer resolves the chain's native asset price.
type NativePricer interface {
	NativePrice(ctx context.Context) Quote
}

// ResolverOptions configure a Resolver.
type ResolverOptions struct {
	Sources         []PriceSource
	NativeSymbols   []string
	ExcludedSymbols []string
	NativeFallback  decimal.Decimal
}

// Resolver walks price sources in order: excluded symbols, then each source,
// then the native fallback constant for native symbols, then unpriced.
type Resolver struct {
	sources  []PriceSource
	native   map[string]struct{}
	excluded map[string]struct{}
	fallback decimal.Decimal
}

// NewResolver builds a Resolver.
func NewResolver(opts ResolverOptions) *Resolver {
	return &Resolver{
		sources:  append([]PriceSource(nil), opts.Sources...),
		native:   symbolSet(opts.NativeSymbols),
		excluded: symbolSet(opts.ExcludedSymbols),
		fallback: opts.NativeFallback,
	}
}

// Resolve prices a symbol.
func (r *Resolver) Resolve(symbol string) Quote {
	if _, ok := r.excluded[symbol]; ok {
		return Quote{Symbol: symbol, Price: decimal.Zero, Source: ProvenanceExcluded}
	}
	for _, src := range r.sources {
		if q, ok := src.Lookup(symbol); ok {
			return q
		}
	}
	if _, ok := r.native[symbol]; ok {
		return Quote{Symbol: symbol, Price: r.fallback, Source: ProvenanceFallback}
	}
	return Quote{Symbol: symbol, Price: decimal.Zero, Source: ProvenanceUnpriced}
}

// StableSource values a fixed set of symbols at 1 USD.
type StableSource struct {
	symbols map[string]struct{}
}

// NewStableSource builds a StableSource.
func NewStableSource(symbols []string) StableSource {
	return StableSource{symbols: symbolSet(symbols)}
}

func (s StableSource) Name() string { return "stablecoin" }

func (s StableSource) Lookup(symbol string) (Quote, bool) {
	if _, ok := s.symbols[symbol]; !ok {
		return Quote{}, false
	}
	return Quote{Symbol: symbol, Price: decimal.NewFromInt(1), Source: ProvenanceStablecoin}, true
}

// Contains reports class membership.
func (s StableSource) Contains(symbol string) bool {
	_, ok := s.symbols[symbol]
	return ok
}

// QuoteSource serves prices from a list of quotes; the first quote per symbol wins.
type QuoteSource struct {
	name   string
	quotes map[string]Quote
}

// NewQuoteSource builds a QuoteSource. Quotes with an empty symbol are ignored.
func NewQuoteSource(name string, quotes []Quote) QuoteSource {
	idx := make(map[string]Quote, len(quotes))
	for _, q := range quotes {
		if q.Symbol == "" {
			continue
		}
		if _, seen := idx[q.Symbol]; seen {
			continue
		}
		idx[q.Symbol] = q
	}
	return QuoteSource{name: name, quotes: idx}
}

func (s QuoteSource) Name() string { return s.name }

func (s QuoteSource) Lookup(symbol string) (Quote, bool) {
	q, ok := s.quotes[symbol]
	return q, ok
}

// AliasSource answers for every alias with a single quote. Used to price both
// the wrapped and unwrapped native symbols from one resolved native quote.
type AliasSource struct {
	aliases map[string]struct{}
	quote   Quote
}

// NewAliasSource builds an AliasSource.
func NewAliasSource(aliases []string, quote Quote) AliasSource {
	return AliasSource{aliases: symbolSet(aliases), quote: quote}
}

func (s AliasSource) Name() string { return "alias" }

func (s AliasSource) Lookup(symbol string) (Quote, bool) {
	if _, ok := s.aliases[symbol]; !ok {
		return Quote{}, false
	}
	q := s.quote
	q.Symbol = symbol
	return q, true
}

// NativePrice takes the first supply-side quote whose symbol equals the wrapped
// native symbol. Without one, the fallback constant is returned.
func NativePrice(supplyQuotes []Quote, wrappedSymbol string, fallback decimal.Decimal) Quote {
	for _, q := range supplyQuotes {
		if q.Symbol == wrappedSymbol {
			return Quote{Symbol: wrappedSymbol, Price: q.Price, Source: ProvenanceAPI}
		}
	}
	return Quote{Symbol: wrappedSymbol, Price: fallback, Source: ProvenanceFallback}
}

// StaticNativePricer always answers with the same quote.
type StaticNativePricer struct {
	Quote Quote
}

func (s StaticNativePricer) NativePrice(context.Context) Quote { return s.Quote }

func symbolSet(symbols []string) map[string]struct{} {
	set := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		set[s] = struct{}{}
	}
	return set
}

var (
	_ PriceSource  = StableSource{}
	_ PriceSource  = QuoteSource{}
	_ PriceSource  = AliasSource{}
	_ NativePricer = StaticNativePricer{}
)
