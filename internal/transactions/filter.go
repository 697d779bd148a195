package transactions

// Filter narrows a transaction list. Empty fields match everything.
type Filter struct {
	Types  []Direction
	Tokens []string
	Teams  []string
}

// Apply returns the matching transactions in input order.
func (f Filter) Apply(txs []ClassifiedTransaction) []ClassifiedTransaction {
	types := make(map[Direction]bool, len(f.Types))
	for _, t := range f.Types {
		types[t] = true
	}
	tokens := stringSet(f.Tokens)
	teams := stringSet(f.Teams)

	out := make([]ClassifiedTransaction, 0, len(txs))
	for _, tx := range txs {
		if len(types) > 0 && !types[tx.Type] {
			continue
		}
		if len(tokens) > 0 && !tokens[tx.Token] {
			continue
		}
		if len(teams) > 0 && !teams[tx.Team] {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// ParseDirection maps "in"/"inflow"/"out"/"outflow" to a Direction.
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "in", "inflow", "Inflow":
		return Inflow, true
	case "out", "outflow", "Outflow":
		return Outflow, true
	}
	return "", false
}

func stringSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
