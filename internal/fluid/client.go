// Package fluid reads vault and lending snapshots from the Fluid Solana API.
package fluid

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"treasury-monitor/internal/httpclient"
)

const (
	defaultBaseURL = "https://api.solana.fluid.io/v1"
	vaultsPath     = "/borrowing/vaults"
	lendingPath    = "/lending/tokens"
)

var (
	// ErrAPI marks a non-2xx response.
	ErrAPI = errors.New("fluid api error")
	// ErrMalformedPayload marks a body that could not be decoded or validated.
	ErrMalformedPayload = errors.New("fluid malformed payload")
)

// Options parameterise the client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// SnapshotFetcher is the read surface the service depends on.
type SnapshotFetcher interface {
	FetchVaults(ctx context.Context) ([]VaultSnapshot, error)
	FetchLending(ctx context.Context) ([]LendingSnapshot, error)
}

// Client fetches snapshots over HTTP.
type Client struct {
	opts    Options
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewClient constructs a client. The timeout defaults to 30s.
func NewClient(opts Options, logger zerolog.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		opts:    opts,
		baseURL: baseURL,
		client:  httpclient.New(httpclient.Options{Provider: "fluid", Timeout: opts.Timeout}),
		logger:  logger.With().Str("component", "fluid_client").Logger(),
	}
}

// FetchVaults returns every borrowing vault in API order.
func (c *Client) FetchVaults(ctx context.Context) ([]VaultSnapshot, error) {
	var payload []vaultPayload
	if err := c.getJSON(ctx, vaultsPath, &payload); err != nil {
		return nil, fmt.Errorf("fetch vaults: %w", err)
	}

	out := make([]VaultSnapshot, 0, len(payload))
	for i, p := range payload {
		snap, err := p.snapshot()
		if err != nil {
			return nil, fmt.Errorf("fetch vaults: vault %d (id %q): %w: %w", i, p.ID, ErrMalformedPayload, err)
		}
		out = append(out, snap)
	}
	c.logger.Debug().Int("count", len(out)).Msg("vaults fetched")
	return out, nil
}

// FetchLending returns every lending token in API order.
func (c *Client) FetchLending(ctx context.Context) ([]LendingSnapshot, error) {
	var payload []lendingPayload
	if err := c.getJSON(ctx, lendingPath, &payload); err != nil {
		return nil, fmt.Errorf("fetch lending: %w", err)
	}

	out := make([]LendingSnapshot, 0, len(payload))
	for i, p := range payload {
		snap, err := p.snapshot()
		if err != nil {
			return nil, fmt.Errorf("fetch lending: token %d (id %q): %w: %w", i, p.ID, ErrMalformedPayload, err)
		}
		out = append(out, snap)
	}
	c.logger.Debug().Int("count", len(out)).Msg("lending tokens fetched")
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", "treasurywatch/1.0")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseHTTPError(resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	return nil
}

func parseHTTPError(status int, payload []byte) error {
	var apiErr struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(payload, &apiErr); err == nil {
		if apiErr.Message != "" {
			return fmt.Errorf("%w (%d): %s", ErrAPI, status, apiErr.Message)
		}
		if apiErr.Error != "" {
			return fmt.Errorf("%w (%d): %s", ErrAPI, status, apiErr.Error)
		}
	}
	if text := strings.TrimSpace(string(payload)); text != "" {
		if len(text) > 200 {
			text = text[:200]
		}
		return fmt.Errorf("%w (%d): %s", ErrAPI, status, text)
	}
	return fmt.Errorf("%w (%d)", ErrAPI, status)
}

var _ SnapshotFetcher = (*Client)(nil)
