package responsibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTablesResolve(t *testing.T) {
	r, err := NewResolver(DefaultTables())
	require.NoError(t, err)

	a := r.Vault("WSOL/USDG")
	assert.Equal(t, "Fluid Team", a.Team)
	assert.Equal(t, Supply, a.Type)

	a = r.Vault("INF/SOL")
	assert.Equal(t, "Sanctum", a.Team)
	assert.Equal(t, Borrow, a.Type)
	assert.Equal(t, "Interest rate discounts", a.Description)

	assert.Equal(t, "Jupiter", r.Lending("USDC").Team)
	assert.Equal(t, "Maple", r.Address("FH9bgRZrEGFA1d4859wSBdNnHgtU5ZDqFUPccHDnYQ3p"))
}

func TestUnmappedFallsBackToUnknown(t *testing.T) {
	r, err := NewResolver(DefaultTables())
	require.NoError(t, err)

	a := r.Vault("FOO/BAR")
	assert.Equal(t, UnknownTeam, a.Team)
	assert.Equal(t, Unknown, a.Type)

	l := r.Lending("BONK")
	assert.Equal(t, UnknownTeam, l.Team)
	assert.Equal(t, Lending, l.Type)

	assert.Equal(t, UnknownTeam, r.Address("11111111111111111111111111111111"))
}

func TestAddressLookupIsCaseSensitive(t *testing.T) {
	r, err := NewResolver(Tables{Addresses: []AddressTag{{Address: "AbC", Team: "X"}}})
	require.NoError(t, err)

	assert.Equal(t, "X", r.Address("AbC"))
	assert.Equal(t, UnknownTeam, r.Address("abc"))
}

func TestNewResolverRejectsBadRules(t *testing.T) {
	_, err := NewResolver(Tables{Vaults: []VaultRule{{Pair: "WSOL", Team: "x", Type: "supply"}}})
	assert.Error(t, err)

	_, err = NewResolver(Tables{Vaults: []VaultRule{{Pair: "WSOL/USDC", Team: "x", Type: "airdrop"}}})
	assert.Error(t, err)

	_, err = NewResolver(Tables{Lending: []LendingRule{{Team: "x"}}})
	assert.Error(t, err)
}

func TestParseIncentiveType(t *testing.T) {
	typ, err := ParseIncentiveType(" Borrow ")
	require.NoError(t, err)
	assert.Equal(t, Borrow, typ)
}
