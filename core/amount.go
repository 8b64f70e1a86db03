package core

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

const monetaryPrecision int32 = 4 // 4 decimal places (0.0001 precision)

// ParseAmount converts a human-readable decimal amount (e.g. "3.5") into
// base escrow units at monetaryPrecision. Uses decimal arithmetic so the
// conversion is exact; amounts with more precision than the scale, negative
// amounts, and amounts exceeding 256 bits are rejected.
func ParseAmount(s string) (*uint256.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("parse amount %q: negative amounts are not allowed", s)
	}

	scaled := d.Shift(monetaryPrecision)
	if !scaled.IsInteger() {
		return nil, fmt.Errorf("parse amount %q: more than %d decimal places", s, monetaryPrecision)
	}

	u, overflow := uint256.FromBig(scaled.BigInt())
	if overflow {
		return nil, fmt.Errorf("parse amount %q: exceeds 256 bits", s)
	}
	return u, nil
}

// FormatAmount renders base escrow units back as a decimal string at
// monetaryPrecision, trailing zeros trimmed.
func FormatAmount(a *uint256.Int) string {
	return decimal.NewFromBigInt(a.ToBig(), -monetaryPrecision).String()
}
