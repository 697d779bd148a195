package transactions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"treasury-monitor/internal/solscan"
	"treasury-monitor/internal/valuation"
)

// ErrPageFailed wraps any failure that aborted a paginated fetch.
var ErrPageFailed = errors.New("transfer page failed")

// PageError records which page aborted the fetch.
type PageError struct {
	Page int
	Err  error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %d: %v", e.Page, e.Err)
}

// Unwrap exposes both the sentinel and the cause to errors.Is / errors.As.
func (e *PageError) Unwrap() []error {
	return []error{ErrPageFailed, e.Err}
}

// FetcherOptions bound a paginated fetch.
type FetcherOptions struct {
	MaxPages int
	PageSize int
}

// Result is the outcome of a successful fetch.
type Result struct {
	Transactions []ClassifiedTransaction
	FromCache    bool
	LastUpdated  time.Time
	Pages        int
	NativePrice  valuation.Quote
}

// Fetcher drives cache-first, sequential page retrieval.
type Fetcher struct {
	opts       FetcherOptions
	cache      Cache
	source     solscan.TransferSource
	pricer     valuation.NativePricer
	classifier *Classifier
	logger     zerolog.Logger
}

// NewFetcher wires a fetcher. Page bounds default to 5 pages of 40.
func NewFetcher(opts FetcherOptions, cache Cache, source solscan.TransferSource, pricer valuation.NativePricer, classifier *Classifier, logger zerolog.Logger) *Fetcher {
	if opts.MaxPages <= 0 {
		opts.MaxPages = 5
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 40
	}
	return &Fetcher{
		opts:       opts,
		cache:      cache,
		source:     source,
		pricer:     pricer,
		classifier: classifier,
		logger:     logger.With().Str("component", "transaction_fetcher").Logger(),
	}
}

// Fetch returns the cached entry when it holds transactions. Otherwise it checks
// the source's credentials, walks pages 1..MaxPages, stopping at the first empty
// page, and persists the result only when every page succeeded.
func (f *Fetcher) Fetch(ctx context.Context) (Result, error) {
	entry, ok, err := f.cache.Load()
	switch {
	case err != nil:
		f.logger.Warn().Err(err).Msg("cache unreadable, refetching")
	case ok && len(entry.Transactions) > 0:
		f.logger.Info().Int("transactions", len(entry.Transactions)).Time("last_updated", entry.LastUpdated).Msg("serving transactions from cache")
		return Result{Transactions: entry.Transactions, FromCache: true, LastUpdated: entry.LastUpdated}, nil
	}

	if cc, ok := f.source.(solscan.CredentialChecker); ok {
		if err := cc.CheckCredentials(); err != nil {
			return Result{}, err
		}
	}

	native := f.pricer.NativePrice(ctx)
	f.logger.Debug().Str("price", native.Price.String()).Str("source", string(native.Source)).Msg("native price resolved")

	var (
		all   []ClassifiedTransaction
		pages int
	)
	for page := 1; page <= f.opts.MaxPages; page++ {
		resp, err := f.source.FetchTransfers(ctx, page, f.opts.PageSize)
		if err != nil {
			return Result{}, &PageError{Page: page, Err: err}
		}
		if len(resp.Records) == 0 {
			f.logger.Debug().Int("page", page).Msg("empty page, stopping")
			break
		}
		pages++

		txs, err := f.classifier.ClassifyPage(resp, native)
		if err != nil {
			return Result{}, &PageError{Page: page, Err: err}
		}
		all = append(all, txs...)
		f.logger.Debug().Int("page", page).Int("records", len(resp.Records)).Int("kept", len(txs)).Msg("page classified")
	}

	if all == nil {
		all = []ClassifiedTransaction{}
	}
	saved, err := f.cache.Save(all)
	if err != nil {
		return Result{}, fmt.Errorf("save transaction cache: %w", err)
	}

	f.logger.Info().Int("pages", pages).Int("transactions", len(all)).Msg("transactions fetched")
	return Result{Transactions: all, Pages: pages, LastUpdated: saved, NativePrice: native}, nil
}

// Clear invalidates the cache.
func (f *Fetcher) Clear() (bool, error) {
	return f.cache.Clear()
}
