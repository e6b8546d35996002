package indicator

import (
	"math"

	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/volatility"
	"github.com/rs/zerolog"
)

// Divergence tolerances for the cross-check. The reference library smooths
// RSI slightly differently and fixes Bollinger Bands at 2 standard
// deviations around an SMA basis (ours are multiplier-scaled around a
// Vidya basis), so only gross disagreement is worth a warning.
const (
	rsiTolerance = 25.0
	bbTolerance  = 0.15 // relative to price level
)

// CrossCheck recomputes RSI and Bollinger values through
// github.com/cinar/indicator/v2 and logs the maximum divergence from the
// cache's own implementations. It is a development-time smoke test only:
// it never gates or alters the optimization run.
func CrossCheck(cache *Cache, closes []float64, rsiLength, bbLength int, logger zerolog.Logger) {
	if len(closes) <= bbLength || len(closes) <= rsiLength {
		logger.Debug().Msg("Series too short for indicator cross-check, skipping")
		return
	}

	rsiDiv := crossCheckRSI(cache, closes, rsiLength)
	logger.Debug().
		Int("length", rsiLength).
		Float64("max_divergence", rsiDiv).
		Msg("RSI cross-check against reference library")
	if rsiDiv > rsiTolerance {
		logger.Warn().
			Int("length", rsiLength).
			Float64("max_divergence", rsiDiv).
			Msg("RSI diverges from reference library beyond tolerance")
	}

	upperDiv, lowerDiv := crossCheckBollinger(cache, closes, bbLength)
	logger.Debug().
		Int("length", bbLength).
		Float64("max_upper_divergence", upperDiv).
		Float64("max_lower_divergence", lowerDiv).
		Msg("Bollinger cross-check against reference library")
	if upperDiv > bbTolerance || lowerDiv > bbTolerance {
		logger.Warn().
			Int("length", bbLength).
			Float64("max_upper_divergence", upperDiv).
			Float64("max_lower_divergence", lowerDiv).
			Msg("Bollinger bands diverge from reference library beyond tolerance")
	}
}

func crossCheckRSI(cache *Cache, closes []float64, length int) float64 {
	ours := cache.RSI(closes, length)

	in := sliceToChan(closes)
	rsi := momentum.NewRsiWithPeriod[float64](length)
	theirs := chanToSlice(rsi.Compute(in))

	// The streaming implementation drops warm-up bars; align on the tail.
	return maxTailDivergence(ours, theirs, 1.0)
}

func crossCheckBollinger(cache *Cache, closes []float64, length int) (upper, lower float64) {
	oursUpper := cache.BBUpper(closes, length, 2.0)
	oursLower := cache.BBLower(closes, length, 2.0)

	bb := volatility.NewBollingerBandsWithPeriod[float64](length)
	lowerCh, _, upperCh := bb.Compute(sliceToChan(closes))

	var theirsLower, theirsUpper []float64
	for {
		l, lok := <-lowerCh
		u, uok := <-upperCh
		if !lok || !uok {
			break
		}
		theirsLower = append(theirsLower, l)
		theirsUpper = append(theirsUpper, u)
	}

	// Normalize by the price level so the tolerance is scale-free.
	level := math.Abs(closes[len(closes)-1])
	if level == 0 {
		level = 1
	}
	return maxTailDivergence(oursUpper, theirsUpper, level),
		maxTailDivergence(oursLower, theirsLower, level)
}

// maxTailDivergence compares the overlapping tails of two series, skipping
// the first len/4 of the overlap where warm-up conventions dominate, and
// returns the maximum absolute difference divided by scale.
func maxTailDivergence(ours, theirs []float64, scale float64) float64 {
	n := min(len(ours), len(theirs))
	if n == 0 {
		return 0
	}
	maxDiv := 0.0
	for i := n / 4; i < n; i++ {
		div := math.Abs(ours[len(ours)-n+i]-theirs[len(theirs)-n+i]) / scale
		maxDiv = math.Max(maxDiv, div)
	}
	return maxDiv
}

func sliceToChan(data []float64) chan float64 {
	ch := make(chan float64, len(data))
	for _, v := range data {
		ch <- v
	}
	close(ch)
	return ch
}

func chanToSlice(ch <-chan float64) []float64 {
	var out []float64
	for v := range ch {
		out = append(out, v)
	}
	return out
}
