// Package responsibility maps vault pairs, lending tokens and counterparty
// addresses to the team that owes the outstanding rewards.
package responsibility

import (
	"fmt"
	"strings"
)

// UnknownTeam is returned for anything missing from the tables.
const UnknownTeam = "Unknown"

// IncentiveType classifies which side of a position a reward is attributed to.
type IncentiveType string

const (
	Supply  IncentiveType = "supply"
	Borrow  IncentiveType = "borrow"
	Lending IncentiveType = "lending"
	Unknown IncentiveType = "unknown"
)

// ParseIncentiveType accepts the lower-case names used in configuration.
func ParseIncentiveType(s string) (IncentiveType, error) {
	switch IncentiveType(strings.ToLower(strings.TrimSpace(s))) {
	case Supply:
		return Supply, nil
	case Borrow:
		return Borrow, nil
	case Lending:
		return Lending, nil
	case Unknown:
		return Unknown, nil
	}
	return "", fmt.Errorf("unknown incentive type %q", s)
}

// Assignment is the answer for a vault pair or lending token.
type Assignment struct {
	Team        string        `json:"team"`
	Type        IncentiveType `json:"type"`
	Description string        `json:"description"`
}

// VaultRule maps one supply/borrow pair.
type VaultRule struct {
	Pair        string `mapstructure:"pair"`
	Team        string `mapstructure:"team"`
	Type        string `mapstructure:"type"`
	Description string `mapstructure:"description"`
}

// LendingRule maps one lending token symbol.
type LendingRule struct {
	Symbol      string `mapstructure:"symbol"`
	Team        string `mapstructure:"team"`
	Description string `mapstructure:"description"`
}

// AddressTag names the team behind a counterparty address.
type AddressTag struct {
	Address string `mapstructure:"address"`
	Team    string `mapstructure:"team"`
}

// Tables is the raw configuration input.
type Tables struct {
	Vaults    []VaultRule   `mapstructure:"vaults"`
	Lending   []LendingRule `mapstructure:"lending"`
	Addresses []AddressTag  `mapstructure:"addresses"`
}

// Resolver answers responsibility lookups. It is immutable once built.
type Resolver struct {
	vaults    map[string]Assignment
	lending   map[string]Assignment
	addresses map[string]string
}

// PairKey joins supply and borrow symbols into the lookup key.
func PairKey(supply, borrow string) string {
	return supply + "/" + borrow
}

// NewResolver validates the tables and builds a Resolver. Later duplicates
// override earlier ones.
func NewResolver(tables Tables) (*Resolver, error) {
	r := &Resolver{
		vaults:    make(map[string]Assignment, len(tables.Vaults)),
		lending:   make(map[string]Assignment, len(tables.Lending)),
		addresses: make(map[string]string, len(tables.Addresses)),
	}

	for _, rule := range tables.Vaults {
		pair := strings.TrimSpace(rule.Pair)
		if !strings.Contains(pair, "/") {
			return nil, fmt.Errorf("vault mapping %q: pair must be SUPPLY/BORROW", rule.Pair)
		}
		typ, err := ParseIncentiveType(rule.Type)
		if err != nil {
			return nil, fmt.Errorf("vault mapping %q: %w", rule.Pair, err)
		}
		r.vaults[pair] = Assignment{Team: teamOrUnknown(rule.Team), Type: typ, Description: rule.Description}
	}

	for _, rule := range tables.Lending {
		symbol := strings.TrimSpace(rule.Symbol)
		if symbol == "" {
			return nil, fmt.Errorf("lending mapping: empty symbol")
		}
		r.lending[symbol] = Assignment{Team: teamOrUnknown(rule.Team), Type: Lending, Description: rule.Description}
	}

	for _, tag := range tables.Addresses {
		addr := strings.TrimSpace(tag.Address)
		if addr == "" {
			return nil, fmt.Errorf("address tag: empty address")
		}
		r.addresses[addr] = teamOrUnknown(tag.Team)
	}

	return r, nil
}

// Vault resolves a "SUPPLY/BORROW" pair.
func (r *Resolver) Vault(pair string) Assignment {
	if a, ok := r.vaults[pair]; ok {
		return a
	}
	return Assignment{Team: UnknownTeam, Type: Unknown}
}

// Lending resolves a lending token symbol.
func (r *Resolver) Lending(symbol string) Assignment {
	if a, ok := r.lending[symbol]; ok {
		return a
	}
	return Assignment{Team: UnknownTeam, Type: Lending}
}

// Address resolves a counterparty address. Matching is exact; base58 is case sensitive.
func (r *Resolver) Address(addr string) string {
	if team, ok := r.addresses[addr]; ok {
		return team
	}
	return UnknownTeam
}

func teamOrUnknown(team string) string {
	team = strings.TrimSpace(team)
	if team == "" {
		return UnknownTeam
	}
	return team
}
