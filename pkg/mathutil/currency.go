// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/iwvelando/saas-metrics/pkg/constants"
)

// fixedLimit is the magnitude from which ToFixed falls back to exponent
// notation.
const fixedLimit = 1e21

// ToFixed renders val with exactly decimals digits after the point. The exact
// binary value of val is rounded, with ties going away from zero, so 1.005
// gives "1.00" and 0.125 gives "0.13".
func ToFixed(val float64, decimals int) string {
	switch {
	case math.IsNaN(val):
		return "NaN"
	case math.IsInf(val, 1):
		return "Infinity"
	case math.IsInf(val, -1):
		return "-Infinity"
	}
	if decimals < 0 {
		decimals = 0
	}

	sign := ""
	if val < 0 {
		sign = "-"
		val = -val
	}
	if val >= fixedLimit {
		return sign + strconv.FormatFloat(val, 'g', -1, 64)
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	r := new(big.Rat).SetFloat64(val)
	r.Mul(r, new(big.Rat).SetInt(scale))
	r.Add(r, big.NewRat(1, 2))
	digits := new(big.Int).Quo(r.Num(), r.Denom()).String()

	if decimals == 0 {
		return sign + digits
	}
	if len(digits) <= decimals {
		digits = strings.Repeat("0", decimals-len(digits)+1) + digits
	}
	cut := len(digits) - decimals
	return sign + digits[:cut] + "." + digits[cut:]
}

// RoundTo rounds a value to the given number of decimals using ToFixed.
// Non-finite values are returned unchanged.
func RoundTo(val float64, decimals int) float64 {
	if !IsFinite(val) {
		return val
	}
	rounded, err := strconv.ParseFloat(ToFixed(val, decimals), 64)
	if err != nil {
		return val
	}
	return rounded
}

// IsFinite reports whether val is neither NaN nor an infinity.
func IsFinite(val float64) bool {
	return !math.IsNaN(val) && !math.IsInf(val, 0)
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// ApplyPercentage applies a percentage to a value
func ApplyPercentage(value, percentage float64) float64 {
	return value * (percentage / constants.PercentageMultiplier)
}

// FiniteOrNil returns a pointer to val, or nil when val is not finite. It is
// used where the encoding (JSON) cannot carry NaN or infinities.
func FiniteOrNil(val float64) *float64 {
	if !IsFinite(val) {
		return nil
	}
	v := val
	return &v
}
