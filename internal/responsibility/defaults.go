package responsibility

const (
	descSupply  = "SOL collateral incentives"
	descBorrow  = "Interest rate discounts"
	descLending = "Lending incentives"
)

// DefaultTables returns the production mapping for the Solana deployment.
// Configuration replaces a table wholesale when it lists any entries.
func DefaultTables() Tables {
	return Tables{
		Vaults:    defaultVaults(),
		Lending:   defaultLending(),
		Addresses: defaultAddresses(),
	}
}

func defaultVaults() []VaultRule {
	supply := func(pair, team string) VaultRule {
		return VaultRule{Pair: pair, Team: team, Type: string(Supply), Description: descSupply}
	}
	borrow := func(pair, team string) VaultRule {
		return VaultRule{Pair: pair, Team: team, Type: string(Borrow), Description: descBorrow}
	}

	return []VaultRule{
		supply("WSOL/USDC", "Fluid Team"),
		supply("WSOL/USDT", "Fluid Team"),
		supply("WSOL/USDG", "Fluid Team"),
		supply("WSOL/EURC", "Fluid Team"),
		supply("WSOL/USDS", "Fluid Team"),
		supply("WSOL/cbBTC", "Fluid Team"),
		supply("WSOL/xBTC", "Fluid Team"),
		borrow("syrupUSDC/USDC", "Jup + Maple"),
		borrow("JUPSOL/USDG", "USDG Team"),
		borrow("xBTC/USDG", "USDG Team"),
		borrow("JitoSOL/USDG", "Jito + USDG"),
		borrow("syrupUSDC/USDG", "Maple + USDG"),
		borrow("LBTC/USDG", "Lombard + USDG"),
		borrow("INF/SOL", "Sanctum"),
		borrow("PST/USDC", "PST Team"),
		borrow("LBTC/USDC", "Lombard + Fluid"),
	}
}

func defaultLending() []LendingRule {
	return []LendingRule{
		{Symbol: "USDC", Team: "Jupiter", Description: descLending},
		{Symbol: "USDT", Team: "Fluid Team", Description: descLending},
		{Symbol: "EURC", Team: "Fluid Team", Description: descLending},
		{Symbol: "USDS", Team: "Fluid Team", Description: descLending},
		{Symbol: "USDG", Team: "Fluid Team", Description: descLending},
	}
}

func defaultAddresses() []AddressTag {
	return []AddressTag{
		{Address: "5AZYLkiU4SPYDeRMcPbPRPmiz2Ny85jWFeV4xmQsVBNo", Team: "Fluid Team"},
		{Address: "HUBLSmfDxXxxzgg4KM6Q5onHVwBG5KeKjeA2BnvE5D9r", Team: "Fluid Team"},
		{Address: "7b1zZUuae2F56e66GqpkKe1Tq1BK2ePRRuGGr8ahe2JB", Team: "JUP Team"},
		{Address: "FH9bgRZrEGFA1d4859wSBdNnHgtU5ZDqFUPccHDnYQ3p", Team: "Maple"},
		{Address: "DVBfCpHoAtVgcVLFHyUgXaWg5ZaKU8CkekXu23ZD4iod", Team: "Gauntlet"},
		{Address: "fr6yQkDmWy6R6pecbUsxXaw6EvRJznZ2HsK5frQgud8", Team: "USDG Team"},
		{Address: "8sjM83a4u2M8YZYshLGKzYxh1VHFfbgtaytwaoEg4bUJ", Team: "Jito Team"},
		{Address: "8JmDPG5BFQ6gpUPJV9xBixYJLqTKCSNotkXksTmNsQfj", Team: "Sky Team"},
		{Address: "62SJTxjWbyaPei1HPW9mFX7KMYCEp7Z9zwiL4hGa8WQv", Team: "LBTC Team"},
		{Address: "EeQmNqm1RcQnee8LTyx6ccVG9FnR8TezQuw2JXq2LC1T", Team: "Sanctum INF Team"},
		{Address: "41zCUJsKk6cMB94DDtm99qWmyMZfp4GkAhhuz4xTwePu", Team: "PST Team"},
		{Address: "JANAjsZKJhtHF9PUF8cwjVp5oQjdcHYiGiFgc8TWQjp2", Team: "Binance Campaign"},
		{Address: "3ssDYFbTpACkshGeYHMBovxB4aE2G6fbZNeVChi85J1k", Team: "Binance Campaign"},
		{Address: "7s1da8DduuBFqGra5bJBjpnvL5E9mGzCuMk1Qkh4or2Z", Team: "Liquidity Layer"},
	}
}
