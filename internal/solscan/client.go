// Package solscan reads treasury transfers and token balances from the Solscan Pro API.
package solscan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"treasury-monitor/internal/httpclient"
)

const (
	defaultBaseURL      = "https://pro-api.solscan.io/v2.0"
	transferPath        = "/account/transfer"
	tokenAccountsPath   = "/account/token-accounts"
	defaultRequestsPerM = 60
)

var (
	// ErrMissingAPIKey is returned before any network call when no key is configured.
	ErrMissingAPIKey = errors.New("solscan api key not configured")
	// ErrAPI marks non-2xx responses and success=false envelopes.
	ErrAPI = errors.New("solscan api error")
	// ErrMalformedPayload marks bodies that could not be decoded.
	ErrMalformedPayload = errors.New("solscan malformed payload")
)

// Options parameterise the client.
type Options struct {
	BaseURL           string
	APIKey            string
	Address           string
	Timeout           time.Duration
	RequestsPerMinute int
	UserAgent         string
}

// TransferSource is what the transaction fetcher pages through.
type TransferSource interface {
	FetchTransfers(ctx context.Context, page, size int) (TransferPage, error)
}

// CredentialChecker is implemented by sources that can reject a fetch before
// issuing any request.
type CredentialChecker interface {
	CheckCredentials() error
}

// TokenAccountSource lists the treasury's token holdings.
type TokenAccountSource interface {
	FetchTokenAccounts(ctx context.Context, page, size int) (TokenAccountPage, error)
}

// Client talks to Solscan for a single account.
type Client struct {
	opts    Options
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewClient constructs a client. The address must be valid base58.
func NewClient(opts Options, logger zerolog.Logger) (*Client, error) {
	if _, err := solana.PublicKeyFromBase58(opts.Address); err != nil {
		return nil, fmt.Errorf("parse treasury address %q: %w", opts.Address, err)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = defaultRequestsPerM
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		opts:    opts,
		baseURL: baseURL,
		client:  httpclient.New(httpclient.Options{Provider: "solscan", Timeout: opts.Timeout}),
		limiter: rate.NewLimiter(rate.Limit(float64(opts.RequestsPerMinute)/60.0), 1),
		logger:  logger.With().Str("component", "solscan_client").Logger(),
	}, nil
}

// CheckCredentials reports ErrMissingAPIKey when no key is configured.
func (c *Client) CheckCredentials() error {
	if strings.TrimSpace(c.opts.APIKey) == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// FetchTransfers returns one page of transfers, newest first.
func (c *Client) FetchTransfers(ctx context.Context, page, size int) (TransferPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(size))
	q.Set("sort_by", "block_time")
	q.Set("sort_order", "desc")

	env, err := c.get(ctx, transferPath, q)
	if err != nil {
		return TransferPage{}, fmt.Errorf("fetch transfers page %d: %w", page, err)
	}

	var records []TransferRecord
	if err := decodeData(env.Data, &records); err != nil {
		return TransferPage{}, fmt.Errorf("fetch transfers page %d: %w", page, err)
	}
	c.logger.Debug().Int("page", page).Int("records", len(records)).Msg("transfer page fetched")
	return TransferPage{Page: page, Records: records, Metadata: env.Metadata}, nil
}

// FetchTokenAccounts returns one page of SPL token accounts owned by the address.
func (c *Client) FetchTokenAccounts(ctx context.Context, page, size int) (TokenAccountPage, error) {
	q := url.Values{}
	q.Set("type", "token")
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(size))

	env, err := c.get(ctx, tokenAccountsPath, q)
	if err != nil {
		return TokenAccountPage{}, fmt.Errorf("fetch token accounts: %w", err)
	}

	var accounts []TokenAccount
	if err := decodeData(env.Data, &accounts); err != nil {
		return TokenAccountPage{}, fmt.Errorf("fetch token accounts: %w", err)
	}
	return TokenAccountPage{Accounts: accounts, Metadata: env.Metadata}, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values) (envelope, error) {
	if err := c.CheckCredentials(); err != nil {
		return envelope{}, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return envelope{}, fmt.Errorf("wait for rate limiter: %w", err)
	}

	q.Set("address", c.opts.Address)
	endpoint := c.baseURL + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return envelope{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("token", c.opts.APIKey)
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return envelope{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return envelope{}, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return envelope{}, parseHTTPError(resp.StatusCode, body)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return envelope{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if !env.Success {
		if env.Errors != nil && env.Errors.Message != "" {
			return envelope{}, fmt.Errorf("%w: success=false: %s", ErrAPI, env.Errors.Message)
		}
		return envelope{}, fmt.Errorf("%w: success=false", ErrAPI)
	}
	return env, nil
}

func decodeData(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	return nil
}

func parseHTTPError(status int, payload []byte) error {
	var env envelope
	if err := json.Unmarshal(payload, &env); err == nil && env.Errors != nil && env.Errors.Message != "" {
		return fmt.Errorf("%w (%d): %s", ErrAPI, status, env.Errors.Message)
	}
	if text := strings.TrimSpace(string(payload)); text != "" {
		if len(text) > 200 {
			text = text[:200]
		}
		return fmt.Errorf("%w (%d): %s", ErrAPI, status, text)
	}
	return fmt.Errorf("%w (%d)", ErrAPI, status)
}

var (
	_ TransferSource     = (*Client)(nil)
	_ TokenAccountSource = (*Client)(nil)
	_ CredentialChecker  = (*Client)(nil)
)
