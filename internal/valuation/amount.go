package valuation

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/shopspring/decimal"
)

// RawAmount is an on-chain integer magnitude expressed in the token's smallest unit.
// It decodes from JSON strings or bare numbers and keeps full uint256 precision.
type RawAmount struct {
	v *big.Int
}

// NewRawAmount wraps a big.Int. The value is copied.
func NewRawAmount(v *big.Int) RawAmount {
	if v == nil {
		return RawAmount{}
	}
	return RawAmount{v: new(big.Int).Set(v)}
}

// RawFromInt64 is a convenience constructor used mostly by tests and fixtures.
func RawFromInt64(v int64) RawAmount {
	return RawAmount{v: big.NewInt(v)}
}

// Valid reports whether a value was present in the payload.
func (r RawAmount) Valid() bool {
	return r.v != nil
}

// Int returns a copy of the magnitude, zero when absent.
func (r RawAmount) Int() *big.Int {
	if r.v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(r.v)
}

// String renders the magnitude in base 10.
func (r RawAmount) String() string {
	return r.Int().String()
}

// UnmarshalJSON accepts "123", 123, 1.2e21 and null.
func (r *RawAmount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		r.v = nil
		return nil
	}
	s = strings.Trim(s, `"`)
	if s == "" {
		r.v = nil
		return nil
	}

	if v, ok := math.ParseBig256(s); ok {
		r.v = v
		return nil
	}

	// large JSON numbers are sometimes emitted in exponent form
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("parse raw amount %q: %w", s, err)
	}
	r.v = d.BigInt()
	return nil
}

// MarshalJSON writes the magnitude as a quoted base-10 string.
func (r RawAmount) MarshalJSON() ([]byte, error) {
	if r.v == nil {
		return []byte("null"), nil
	}
	return []byte(`"` + r.v.String() + `"`), nil
}

// ToHuman converts a raw magnitude into token units: raw / 10^decimals.
func ToHuman(raw *big.Int, decimals int32) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	if decimals < 0 {
		decimals = 0
	}
	return decimal.NewFromBigInt(raw, -decimals)
}

// USD values a human amount at a unit price.
func USD(amount, price decimal.Decimal) decimal.Decimal {
	return amount.Mul(price)
}

// Delta returns (total - available) scaled to token units. Negative results are kept.
func Delta(total, available RawAmount, decimals int32) decimal.Decimal {
	diff := new(big.Int).Sub(total.Int(), available.Int())
	return ToHuman(diff, decimals)
}
