package solscan

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const treasury = "Cvnta5ecoiCgNbLEXYm6kvhJMmRv3JM3ksKgTLVPg4hk"

const transferBody = `{
  "success": true,
  "data": [
    {
      "block_id": 350001234,
      "trans_id": "5xSig",
      "time": "2025-08-01T10:00:00.000Z",
      "flow": "in",
      "from_address": "7b1zZUuae2F56e66GqpkKe1Tq1BK2ePRRuGGr8ahe2JB",
      "to_address": "Cvnta5ecoiCgNbLEXYm6kvhJMmRv3JM3ksKgTLVPg4hk",
      "token_address": "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
      "amount": 2000000000000,
      "token_decimals": 6,
      "value": 2000000.5
    }
  ],
  "metadata": {
    "tokens": {
      "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": {"token_symbol": "USDC", "token_name": "USD Coin"}
    }
  }
}`

func newTestClient(t *testing.T, url, key string) *Client {
	t.Helper()
	c, err := NewClient(Options{BaseURL: url, APIKey: key, Address: treasury, Timeout: time.Second, RequestsPerMinute: 60000}, zerolog.Nop())
	require.NoError(t, err)
	return c
}

func TestFetchTransfers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, transferPath, r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("token"))
		assert.Equal(t, treasury, r.URL.Query().Get("address"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "40", r.URL.Query().Get("page_size"))
		assert.Equal(t, "block_time", r.URL.Query().Get("sort_by"))
		assert.Equal(t, "desc", r.URL.Query().Get("sort_order"))
		_, _ = w.Write([]byte(transferBody))
	}))
	defer srv.Close()

	page, err := newTestClient(t, srv.URL, "secret").FetchTransfers(context.Background(), 2, 40)
	require.NoError(t, err)
	require.Len(t, page.Records, 1)

	rec := page.Records[0]
	assert.Equal(t, "in", rec.Flow)
	assert.Equal(t, "2000000000000", rec.Amount.String())
	require.NotNil(t, rec.TokenDecimals)
	assert.Equal(t, int32(6), *rec.TokenDecimals)
	assert.True(t, rec.Value.Valid)
	assert.Equal(t, "USDC", page.Metadata.Symbol(rec.TokenAddress))
	assert.Equal(t, UnknownSymbol, page.Metadata.Symbol("nope"))
}

func TestMissingAPIKeySkipsNetwork(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, "").FetchTransfers(context.Background(), 1, 40)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingAPIKey))
	assert.Zero(t, atomic.LoadInt32(&calls))

	assert.ErrorIs(t, newTestClient(t, srv.URL, " ").CheckCredentials(), ErrMissingAPIKey)
	assert.NoError(t, newTestClient(t, srv.URL, "k").CheckCredentials())
}

func TestSuccessFalseIsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": false, "errors": {"code": 1100, "message": "invalid token"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, "k").FetchTransfers(context.Background(), 1, 40)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAPI))
	assert.Contains(t, err.Error(), "invalid token")
}

func TestHTTPErrorAndMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, "k")
	_, err := c.FetchTransfers(context.Background(), 1, 40)
	assert.True(t, errors.Is(err, ErrAPI))

	_, err = c.FetchTransfers(context.Background(), 2, 40)
	assert.True(t, errors.Is(err, ErrMalformedPayload))
}

func TestFetchTokenAccounts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, tokenAccountsPath, r.URL.Path)
		assert.Equal(t, "token", r.URL.Query().Get("type"))
		_, _ = w.Write([]byte(`{"success":true,"data":[{"token_account":"a","token_address":"m","amount":"1500000","token_decimals":6}],"metadata":{"tokens":{"m":{"token_symbol":"USDG"}}}}`))
	}))
	defer srv.Close()

	page, err := newTestClient(t, srv.URL, "k").FetchTokenAccounts(context.Background(), 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Accounts, 1)
	assert.Equal(t, "USDG", page.Metadata.Symbol("m"))
}

func TestNewClientRejectsInvalidAddress(t *testing.T) {
	_, err := NewClient(Options{Address: "not-base58!"}, zerolog.Nop())
	assert.Error(t, err)
}
