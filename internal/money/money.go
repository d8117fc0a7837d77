// Package money provides integer minor-unit ("cents") arithmetic helpers.
// Stored amounts are always whole cents; floating point appears only at the
// format/parse boundary.
package money

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Format renders cents as a display string, e.g. Format(1250, "$") == "$12.50".
func Format(amountCents int64, symbol string) string {
	sign := ""
	if amountCents < 0 {
		sign = "-"
		amountCents = -amountCents
	}
	return fmt.Sprintf("%s%s%d.%02d", sign, symbol, amountCents/100, amountCents%100)
}

// Parse converts a user-entered amount like "$1,250.50" to cents.
func Parse(amount string) (int64, error) {
	clean := strings.NewReplacer("$", "", ",", "", " ", "").Replace(amount)
	if clean == "" {
		return 0, fmt.Errorf("empty amount")
	}
	dollars, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	return FromDollars(dollars), nil
}

// ToDollars converts cents to a major-unit float for display only.
func ToDollars(cents int64) float64 {
	return float64(cents) / 100
}

// FromDollars converts a major-unit float to cents, rounding to the nearest cent.
func FromDollars(dollars float64) int64 {
	return int64(math.Round(dollars * 100))
}

// ValidAmount reports whether cents is a legal buy-in amount.
func ValidAmount(cents int64) bool {
	return cents > 0
}

// Abs returns the absolute value of cents.
func Abs(cents int64) int64 {
	if cents < 0 {
		return -cents
	}
	return cents
}

// WithinTolerance reports whether a variance is acceptable under the
// configured tolerance.
func WithinTolerance(varianceCents, toleranceCents int64) bool {
	return Abs(varianceCents) <= toleranceCents
}
