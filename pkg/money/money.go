// Package money converts between numeric amounts used by the domain and the
// fixed two-fraction-digit decimal strings kept in storage.
package money

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "sales-crm/pkg/errors"
)

const Places = 2

// MaxQuantity is the largest item quantity the INT column holds.
const MaxQuantity = math.MaxInt32

// MaxAmount is the largest value a NUMERIC(14,2) column holds.
var MaxAmount = decimal.RequireFromString("999999999999.99")

// Format validates x and renders it with exactly two fraction digits.
// NaN, infinities, negative amounts and amounts above MaxAmount are rejected.
func Format(x float64) (string, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return "", apperrors.NewValidationError("amount must be a finite number")
	}
	if x < 0 {
		return "", apperrors.NewValidationError("amount must not be negative")
	}
	d, err := checkRange(decimal.NewFromFloat(x).Round(Places))
	if err != nil {
		return "", err
	}
	return d.StringFixed(Places), nil
}

func checkRange(d decimal.Decimal) (decimal.Decimal, error) {
	if d.GreaterThan(MaxAmount) {
		return decimal.Zero, apperrors.NewValidationError("amount must not exceed %s", MaxAmount.StringFixed(Places))
	}
	return d, nil
}

// Parse reads caller-supplied text. Unlike FromStorage it fails on bad input.
func Parse(s string) (float64, error) {
	d, err := ParseDecimal(s)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}

// ParseDecimal reads caller-supplied text into a decimal rounded to two places.
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return decimal.Zero, apperrors.NewValidationError("amount is required")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, apperrors.NewValidationError("amount %q is not a number", s)
	}
	if d.IsNegative() {
		return decimal.Zero, apperrors.NewValidationError("amount must not be negative")
	}
	return checkRange(d.Round(Places))
}

// FromStorage converts a stored decimal string back to a number. A corrupt
// value reads as 0 instead of failing the whole row.
func FromStorage(s string) float64 {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	f := d.Round(Places).InexactFloat64()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// LineTotal returns quantity*unitPrice as a storage string.
func LineTotal(quantity int, unitPrice float64) (string, error) {
	if quantity <= 0 {
		return "", apperrors.NewValidationError("quantity must be positive")
	}
	if quantity > MaxQuantity {
		return "", apperrors.NewValidationError("quantity must not exceed %d", MaxQuantity)
	}
	price, err := Format(unitPrice)
	if err != nil {
		return "", err
	}
	total, err := checkRange(decimal.RequireFromString(price).Mul(decimal.NewFromInt(int64(quantity))))
	if err != nil {
		return "", err
	}
	return total.StringFixed(Places), nil
}

// Sum adds storage strings. All inputs must already be valid; the total
// must still fit MaxAmount.
func Sum(values ...string) (string, error) {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.RequireFromString(v))
	}
	total, err := checkRange(total)
	if err != nil {
		return "", err
	}
	return total.StringFixed(Places), nil
}

// Normalize re-renders a stored value, mapping corrupt input to "0.00".
func Normalize(s string) string {
	return decimal.NewFromFloat(FromStorage(s)).StringFixed(Places)
}
