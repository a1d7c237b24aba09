package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// ToMinorUnits parses a user-supplied major-unit amount such as "1500.50"
// or "1500,50" into integer minor units (150050). Decimal comma is accepted
// because that is what the admin UI sends.
func ToMinorUnits(s string) (int64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	minor := d.Shift(2).Round(0)
	if !minor.IsInteger() || !minor.BigInt().IsInt64() {
		return 0, ErrInvalidAmount
	}
	return minor.IntPart(), nil
}

// FormatMinor renders integer minor units as a major-unit string with two
// decimal places, e.g. 10500 -> "105.00".
func FormatMinor(v int64) string {
	return decimal.New(v, -2).StringFixed(2)
}
