package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrTooManyDecimals = errors.New("amount has too many decimal places")
)

// ParseMinor converts a user-entered amount like "1200.50" to minor units.
// At most two decimal places are accepted.
func ParseMinor(input string) (int64, error) {
	parsed, err := decimal.NewFromString(strings.TrimSpace(input))
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if parsed.Exponent() < -2 {
		return 0, ErrTooManyDecimals
	}
	return parsed.Shift(2).IntPart(), nil
}

// MinorFromDecimalString converts an aggregator amount string ("-75.00",
// "1200.5") to minor units, banker-rounding anything beyond two decimals.
func MinorFromDecimalString(input string) (int64, error) {
	parsed, err := decimal.NewFromString(strings.TrimSpace(input))
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return parsed.Shift(2).RoundBank(0).IntPart(), nil
}

// FormatMinor renders minor units as a two-decimal string.
func FormatMinor(value int64) string {
	return decimal.New(value, -2).StringFixed(2)
}
