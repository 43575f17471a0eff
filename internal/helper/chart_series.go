package helper

import (
	"iter"
	"slices"

	"stock-analyzer/internal/dto"
	"stock-analyzer/pkg/utils"
)

// DefaultChartPoints is the length of the synthetic chart series.
const DefaultChartPoints = 60

const (
	lcgMultiplier = 9301
	lcgIncrement  = 49297
	lcgModulus    = 233280

	startDiscount  = 0.98
	noiseAmplitude = 0.004
	pricePrecision = 2
)

// Series yields a synthetic, reproducible price path of n points that ends
// exactly at target. It is a placeholder for real historical data, which the
// analysis backend does not provide, and must not be presented as market history.
//
// The path starts at 98% of target, is pulled linearly toward target and
// perturbed by noise from a linear congruential generator seeded with the sum
// of the character codes of seed. Emitted prices are rounded to two decimals.
func Series(seed string, target float64, n int) iter.Seq[dto.ChartPoint] {
	return func(yield func(dto.ChartPoint) bool) {
		if n <= 0 {
			return
		}

		rnd := newSeededRandom(seed)
		price := target * startDiscount
		steps := float64(n)

		for i := 0; i < n; i++ {
			if i == n-1 {
				yield(dto.ChartPoint{Time: i, Price: target})
				return
			}

			trend := (target - price) / steps
			noise := (rnd.next() - 0.5) * (target * noiseAmplitude)
			price = price + trend + noise

			if !yield(dto.ChartPoint{Time: i, Price: utils.RoundPrice(price, pricePrecision)}) {
				return
			}
		}
	}
}

// GenerateChartPoints collects Series into a slice.
func GenerateChartPoints(seed string, target float64, n int) []dto.ChartPoint {
	points := slices.Collect(Series(seed, target, n))
	if points == nil {
		return []dto.ChartPoint{}
	}
	return points
}

type seededRandom struct {
	state int64
}

func newSeededRandom(seed string) *seededRandom {
	var sum int64
	for _, r := range seed {
		sum += int64(charCode(r))
	}
	return &seededRandom{state: sum}
}

// next returns the following value in [0, 1).
func (s *seededRandom) next() float64 {
	s.state = (s.state*lcgMultiplier + lcgIncrement) % lcgModulus
	return float64(s.state) / lcgModulus
}

// charCode returns the sum of the UTF-16 code units of r.
func charCode(r rune) int {
	if r < 0x10000 {
		return int(r)
	}
	r -= 0x10000
	high := 0xD800 + int(r>>10)
	low := 0xDC00 + int(r&0x3FF)
	return high + low
}
