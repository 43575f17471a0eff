package utils

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// RoundPrice rounds the exact binary value half away from zero to the given
// number of decimals, so 1.005 (stored as 1.00499...) becomes 1.00.
func RoundPrice(value float64, places int32) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return value
	}
	rounded, _ := decimal.NewFromFloatWithExponent(value, -places).Float64()
	return rounded
}

// FormatPrice renders a price with exactly two decimals, e.g. 2500 -> "2500.00".
func FormatPrice(value float64) string {
	return decimal.NewFromFloat(value).StringFixed(2)
}

// FormatChangePercent renders an absolute change with a direction arrow, e.g. "▲1.25%".
func FormatChangePercent(value float64) string {
	arrow := "▲"
	if value < 0 {
		arrow = "▼"
	}
	return fmt.Sprintf("%s%s%%", arrow, decimal.NewFromFloat(math.Abs(value)).StringFixed(2))
}
