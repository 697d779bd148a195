package fluid

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"treasury-monitor/internal/valuation"
)

const vaultsBody = `[
  {
    "id": 3,
    "supplyToken": {"symbol": "WSOL", "decimals": 9, "price": "172.5"},
    "borrowToken": {"symbol": "USDC", "decimals": 6, "price": 1},
    "totalSupply": "5000000000000",
    "totalSupplyLiquidity": "4000000000000",
    "totalBorrow": 300000000000,
    "totalBorrowLiquidity": "250000000000"
  }
]`

const lendingBody = `[
  {
    "id": "7",
    "asset": {"symbol": "USDC", "name": "USD Coin", "decimals": 6, "price": "0.9999"},
    "totalAssets": "900000000000",
    "liquiditySupplyData": {"supply": "700000000000"}
  }
]`

func newServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"not found"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchVaults(t *testing.T) {
	srv := newServer(t, map[string]string{vaultsPath: vaultsBody})
	c := NewClient(Options{BaseURL: srv.URL, Timeout: time.Second}, zerolog.Nop())

	vaults, err := c.FetchVaults(context.Background())
	require.NoError(t, err)
	require.Len(t, vaults, 1)

	v := vaults[0]
	assert.Equal(t, ID("3"), v.ID)
	assert.Equal(t, "WSOL/USDC", v.Pair())
	assert.Equal(t, int32(9), v.Supply.Decimals)
	assert.True(t, v.Supply.Price.Equal(decimal.RequireFromString("172.5")))
	assert.Equal(t, "300000000000", v.TotalBorrow.String())
}

func TestFetchLending(t *testing.T) {
	srv := newServer(t, map[string]string{lendingPath: lendingBody})
	c := NewClient(Options{BaseURL: srv.URL}, zerolog.Nop())

	tokens, err := c.FetchLending(context.Background())
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "USD Coin", tokens[0].Asset.Name)
	assert.Equal(t, "700000000000", tokens[0].LiquiditySupply.String())
}

func TestFetchVaultsHTTPError(t *testing.T) {
	srv := newServer(t, nil)
	c := NewClient(Options{BaseURL: srv.URL}, zerolog.Nop())

	_, err := c.FetchVaults(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAPI))
	assert.Contains(t, err.Error(), "not found")
}

func TestFetchVaultsRejectsInvalidSnapshot(t *testing.T) {
	cases := map[string]string{
		"negative decimals": `[{"id":1,"supplyToken":{"symbol":"A","decimals":-1,"price":1},"borrowToken":{"symbol":"B","decimals":6,"price":1},"totalSupply":"1","totalSupplyLiquidity":"1","totalBorrow":"1","totalBorrowLiquidity":"1"}]`,
		"missing magnitude": `[{"id":1,"supplyToken":{"symbol":"A","decimals":6,"price":1},"borrowToken":{"symbol":"B","decimals":6,"price":1},"totalSupply":"1","totalBorrow":"1","totalBorrowLiquidity":"1"}]`,
		"negative price":    `[{"id":1,"supplyToken":{"symbol":"A","decimals":6,"price":-2},"borrowToken":{"symbol":"B","decimals":6,"price":1},"totalSupply":"1","totalSupplyLiquidity":"1","totalBorrow":"1","totalBorrowLiquidity":"1"}]`,
		"not an array":      `{"data":[]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := newServer(t, map[string]string{vaultsPath: body})
			c := NewClient(Options{BaseURL: srv.URL}, zerolog.Nop())

			_, err := c.FetchVaults(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedPayload), "got %v", err)
		})
	}
}

func TestNativePricer(t *testing.T) {
	srv := newServer(t, map[string]string{vaultsPath: vaultsBody})
	c := NewClient(Options{BaseURL: srv.URL}, zerolog.Nop())

	q := NewNativePricer(c, "WSOL", decimal.NewFromInt(150), zerolog.Nop()).NativePrice(context.Background())
	assert.Equal(t, valuation.ProvenanceAPI, q.Source)
	assert.True(t, q.Price.Equal(decimal.RequireFromString("172.5")))
}

func TestNativePricerFallsBackOnFailure(t *testing.T) {
	srv := newServer(t, nil)
	c := NewClient(Options{BaseURL: srv.URL}, zerolog.Nop())

	q := NewNativePricer(c, "WSOL", decimal.NewFromInt(150), zerolog.Nop()).NativePrice(context.Background())
	assert.Equal(t, valuation.ProvenanceFallback, q.Source)
	assert.True(t, q.Price.Equal(decimal.NewFromInt(150)))
}
