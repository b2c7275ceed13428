// Package types provides common value types.
package types

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Quantity is a stock quantity with full decimal precision.
// Stored as NUMERIC(15,4); values are rounded to QuantityPlaces on the way in.
type Quantity = decimal.Decimal

// QuantityPlaces is the number of fractional digits kept for quantities.
const QuantityPlaces int32 = 4

// ZeroQuantity returns a zero quantity.
func ZeroQuantity() Quantity {
	return decimal.Zero
}

// NormalizeQuantity rounds q to QuantityPlaces.
func NormalizeQuantity(q Quantity) Quantity {
	return q.Round(QuantityPlaces)
}

// ParseQuantity parses a decimal string. Exponent form is rejected to keep
// parsing strict; an empty string is zero.
func ParseQuantity(s string) (Quantity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, fmt.Errorf("parse quantity %q: exponent form not allowed", s)
	}

	q, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse quantity %q: %w", s, err)
	}
	return NormalizeQuantity(q), nil
}

// MustQuantity parses s and panics on error. Use only for constants and tests.
func MustQuantity(s string) Quantity {
	q, err := ParseQuantity(s)
	if err != nil {
		panic(err)
	}
	return q
}
