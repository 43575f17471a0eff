package helper

import (
	"math"
	"strings"

	"stock-analyzer/internal/dto"
)

var sparkBars = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders points as a one-line bar chart at most width runes wide.
// A width <= 0 renders every point.
func Sparkline(points []dto.ChartPoint, width int) string {
	if len(points) == 0 {
		return ""
	}
	if width <= 0 || width > len(points) {
		width = len(points)
	}

	sampled := make([]float64, width)
	for i := range sampled {
		idx := 0
		if width > 1 {
			idx = i * (len(points) - 1) / (width - 1)
		}
		sampled[i] = points[idx].Price
	}

	low, high := sampled[0], sampled[0]
	for _, p := range sampled {
		low = math.Min(low, p)
		high = math.Max(high, p)
	}

	var b strings.Builder
	for _, p := range sampled {
		level := len(sparkBars) / 2
		if high > low {
			level = int(math.Round((p - low) / (high - low) * float64(len(sparkBars)-1)))
		}
		b.WriteRune(sparkBars[level])
	}
	return b.String()
}

// PriceRange returns the lowest and highest price in points.
func PriceRange(points []dto.ChartPoint) (low, high float64) {
	for i, p := range points {
		if i == 0 || p.Price < low {
			low = p.Price
		}
		if i == 0 || p.Price > high {
			high = p.Price
		}
	}
	return low, high
}
