// Package indicator provides a shared, thread-safe memo of derived time
// series. Every operation computes once per distinct (source series,
// parameters) pair, except ATR, which keys on its period alone, and returns
// a stable reference to the stored vector; callers must not mutate the
// returned slices.
package indicator

import (
	"math"
	"sync"
)

// fingerprint identifies a source series cheaply. Length alone is not
// enough: two different series of equal length (say closes and an RSI of
// closes) fed into the same operation must not collide, so the first and
// last elements are folded in as well.
type fingerprint struct {
	n           int
	first, last float64
}

func fp(data []float64) fingerprint {
	if len(data) == 0 {
		return fingerprint{}
	}
	return fingerprint{n: len(data), first: data[0], last: data[len(data)-1]}
}

type periodKey struct {
	src    fingerprint
	period int
}

type multKey struct {
	src  fingerprint
	mult float64
}

type lengthMultKey struct {
	src    fingerprint
	length int
	mult   float64
}

// memo is one mutex-guarded sub-map of the cache. Lookups that hit return
// under the lock immediately; on a miss the computation runs outside the
// lock and the result is published under it. Racing misses may duplicate
// work, which is safe: the computations are deterministic.
type memo[K comparable] struct {
	mu sync.Mutex
	m  map[K][]float64
}

func (c *memo[K]) get(key K, compute func() []float64) []float64 {
	c.mu.Lock()
	if c.m != nil {
		if v, ok := c.m[key]; ok {
			c.mu.Unlock()
			return v
		}
	}
	c.mu.Unlock()

	v := compute()

	c.mu.Lock()
	if c.m == nil {
		c.m = make(map[K][]float64)
	}
	if existing, ok := c.m[key]; ok {
		c.mu.Unlock()
		return existing
	}
	c.m[key] = v
	c.mu.Unlock()
	return v
}

func (c *memo[K]) clear() {
	c.mu.Lock()
	c.m = nil
	c.mu.Unlock()
}

// Cache memoizes every derived series any strategy/parameter combination
// needs. One instance is shared across all workers of a multi-strategy run
// and cleared at the end of it. The underlying price vectors are assumed
// not to change during the cache's lifetime.
type Cache struct {
	stoch         memo[periodKey]
	rsi           memo[periodKey]
	vidya         memo[periodKey]
	ott           memo[multKey]
	atr           memo[int]
	bbUpper       memo[lengthMultKey]
	bbLower       memo[lengthMultKey]
	highest       memo[periodKey]
	lowest        memo[periodKey]
	absChange     memo[periodKey]
	sumAbsChanges memo[periodKey]
}

// NewCache creates an empty indicator cache.
func NewCache() *Cache { return &Cache{} }

// Clear drops every memoized series.
func (c *Cache) Clear() {
	c.stoch.clear()
	c.rsi.clear()
	c.vidya.clear()
	c.ott.clear()
	c.atr.clear()
	c.bbUpper.clear()
	c.bbLower.clear()
	c.highest.clear()
	c.lowest.clear()
	c.absChange.clear()
	c.sumAbsChanges.clear()
}

// Stochastic returns %K over a window of kLength bars. When the window has
// no range the output is 100.
func (c *Cache) Stochastic(closes, highs, lows []float64, kLength int) []float64 {
	return c.stoch.get(periodKey{fp(closes), kLength}, func() []float64 {
		result := make([]float64, len(closes))
		for i := kLength; i < len(closes); i++ {
			lowestLow := math.MaxFloat64
			highestHigh := -math.MaxFloat64
			for j := i - kLength + 1; j <= i; j++ {
				if j >= 0 {
					lowestLow = math.Min(lowestLow, lows[j])
					highestHigh = math.Max(highestHigh, highs[j])
				}
			}
			if highestHigh-lowestLow > 0 {
				result[i] = (closes[i] - lowestLow) / (highestHigh - lowestLow) * 100.0
			} else {
				result[i] = 100.0
			}
		}
		return result
	})
}

// RSI returns Wilder's RSI: seed averages are arithmetic means of gains and
// losses over the first length changes, then smoothed with factor
// (length-1)/length. Index length itself stays at its zero value; smoothing
// starts at length+1.
func (c *Cache) RSI(closes []float64, length int) []float64 {
	return c.rsi.get(periodKey{fp(closes), length}, func() []float64 {
		result := make([]float64, len(closes))
		gains := make([]float64, len(closes))
		losses := make([]float64, len(closes))

		for i := 1; i < len(closes); i++ {
			change := closes[i] - closes[i-1]
			if change > 0 {
				gains[i] = change
			} else {
				losses[i] = -change
			}
		}

		if len(closes) <= length {
			return result
		}

		var avgGain, avgLoss float64
		for i := 1; i <= length; i++ {
			avgGain += gains[i]
			avgLoss += losses[i]
		}
		avgGain /= float64(length)
		avgLoss /= float64(length)

		for i := length + 1; i < len(closes); i++ {
			avgGain = (avgGain*float64(length-1) + gains[i]) / float64(length)
			avgLoss = (avgLoss*float64(length-1) + losses[i]) / float64(length)

			if avgLoss == 0 {
				result[i] = 100
			} else {
				rs := avgGain / avgLoss
				result[i] = 100 - (100 / (1 + rs))
			}
		}
		return result
	})
}

// Vidya returns the Variable-Index Dynamic Average of data: an exponential
// smoothing whose alpha 2/(length+1) is scaled per bar by the 9-bar
// efficiency ratio |data[i]-data[i-9]| / sum of the last 9 one-bar absolute
// changes. A zero-volatility window yields ratio 0, freezing the average.
func (c *Cache) Vidya(data []float64, length int) []float64 {
	return c.vidya.get(periodKey{fp(data), length}, func() []float64 {
		result := make([]float64, len(data))

		momentum := c.AbsChange(data, 9)
		volatility := c.SumAbsChanges(data, 9)

		alpha := 2.0 / (float64(length) + 1.0)

		for i := 0; i < len(data); i++ {
			switch {
			case i == 0, length == 1:
				result[i] = data[i]
			default:
				er := 0.0
				if volatility[i] != 0 {
					er = momentum[i] / volatility[i]
				}
				result[i] = er*alpha*(data[i]-result[i-1]) + result[i-1]
			}
		}
		return result
	})
}

// OTT returns the Optimized Trend Tracker trail over a pre-smoothed series
// (callers supply a Vidya output). The trail published at bar i is the
// band line computed two bars earlier; the first two outputs are 0.
func (c *Cache) OTT(data []float64, multiplier float64) []float64 {
	return c.ott.get(multKey{fp(data), multiplier}, func() []float64 {
		result := make([]float64, len(data))

		a := multiplier / 100.0
		cBand := make([]float64, len(data))
		dBand := make([]float64, len(data))
		e := make([]float64, len(data))
		h := make([]float64, len(data))

		for i := 0; i < len(data); i++ {
			b := data[i] * a

			if i == 0 {
				cBand[i] = data[i] - b
				dBand[i] = data[i] + b
				e[i] = 0.0
			} else {
				if (data[i]-b) > cBand[i-1] || data[i] < cBand[i-1] {
					cBand[i] = data[i] - b
				} else {
					cBand[i] = cBand[i-1]
				}
				if (data[i]+b) < dBand[i-1] || data[i] > dBand[i-1] {
					dBand[i] = data[i] + b
				} else {
					dBand[i] = dBand[i-1]
				}
				switch {
				case data[i] > e[i-1]:
					e[i] = cBand[i]
				case data[i] < e[i-1]:
					e[i] = dBand[i]
				default:
					e[i] = e[i-1]
				}
			}

			if data[i] > e[i] {
				h[i] = e[i] * (1.0 + a/2.0)
			} else {
				h[i] = e[i] * (1.0 - a/2.0)
			}

			if i >= 2 {
				result[i] = h[i-2]
			}
		}
		return result
	})
}

// ATR returns Wilder's Average True Range. The seed at index period is the
// arithmetic mean of the first period true ranges; later values smooth with
// factor (period-1)/period. Bars before the seed are 0.
func (c *Cache) ATR(highs, lows, closes []float64, period int) []float64 {
	return c.atr.get(period, func() []float64 {
		result := make([]float64, len(highs))
		tr := make([]float64, len(highs))

		for i := 1; i < len(highs); i++ {
			tr1 := highs[i] - lows[i]
			tr2 := math.Abs(highs[i] - closes[i-1])
			tr3 := math.Abs(lows[i] - closes[i-1])
			tr[i] = math.Max(tr1, math.Max(tr2, tr3))
		}

		if len(highs) > period {
			sum := 0.0
			for i := 1; i <= period; i++ {
				sum += tr[i]
			}
			result[period] = sum / float64(period)

			for i := period + 1; i < len(highs); i++ {
				result[i] = (result[i-1]*float64(period-1) + tr[i]) / float64(period)
			}
		}
		return result
	})
}

// BBUpper returns the upper Bollinger band: Vidya(data, length) plus
// multiplier standard deviations of data around that basis over a trailing
// length-bar window.
func (c *Cache) BBUpper(data []float64, length int, multiplier float64) []float64 {
	return c.bbUpper.get(lengthMultKey{fp(data), length, multiplier}, func() []float64 {
		return c.bollinger(data, length, multiplier, +1)
	})
}

// BBLower returns the lower Bollinger band, mirroring BBUpper.
func (c *Cache) BBLower(data []float64, length int, multiplier float64) []float64 {
	return c.bbLower.get(lengthMultKey{fp(data), length, multiplier}, func() []float64 {
		return c.bollinger(data, length, multiplier, -1)
	})
}

func (c *Cache) bollinger(data []float64, length int, multiplier float64, sign float64) []float64 {
	basis := c.Vidya(data, length)
	result := make([]float64, len(data))

	for i := length; i < len(data); i++ {
		sumSq := 0.0
		for j := i - length + 1; j <= i; j++ {
			d := data[j] - basis[i]
			sumSq += d * d
		}
		stdev := math.Sqrt(sumSq / float64(length))
		result[i] = basis[i] + sign*multiplier*stdev
	}
	return result
}

// Highest returns the rolling maximum of data over a trailing period-bar
// window (clamped at the series start).
func (c *Cache) Highest(data []float64, period int) []float64 {
	return c.highest.get(periodKey{fp(data), period}, func() []float64 {
		result := make([]float64, len(data))
		for i := 0; i < len(data); i++ {
			highest := -math.MaxFloat64
			for j := max(0, i-period+1); j <= i; j++ {
				highest = math.Max(highest, data[j])
			}
			result[i] = highest
		}
		return result
	})
}

// Lowest returns the rolling minimum of data over a trailing period-bar
// window (clamped at the series start).
func (c *Cache) Lowest(data []float64, period int) []float64 {
	return c.lowest.get(periodKey{fp(data), period}, func() []float64 {
		result := make([]float64, len(data))
		for i := 0; i < len(data); i++ {
			lowest := math.MaxFloat64
			for j := max(0, i-period+1); j <= i; j++ {
				lowest = math.Min(lowest, data[j])
			}
			result[i] = lowest
		}
		return result
	})
}

// AbsChange returns |data[i] - data[i-period]|, 0 for the first period bars.
func (c *Cache) AbsChange(data []float64, period int) []float64 {
	return c.absChange.get(periodKey{fp(data), period}, func() []float64 {
		result := make([]float64, len(data))
		for i := period; i < len(data); i++ {
			result[i] = math.Abs(data[i] - data[i-period])
		}
		return result
	})
}

// SumAbsChanges returns the rolling period-bar sum of one-bar absolute
// changes, maintained with a running total.
func (c *Cache) SumAbsChanges(data []float64, period int) []float64 {
	return c.sumAbsChanges.get(periodKey{fp(data), period}, func() []float64 {
		result := make([]float64, len(data))
		changes := make([]float64, len(data))

		for i := 1; i < len(data); i++ {
			changes[i] = math.Abs(data[i] - data[i-1])
		}

		sum := 0.0
		for i := 0; i < len(data); i++ {
			sum += changes[i]
			if i >= period {
				sum -= changes[i-period]
			}
			result[i] = sum
		}
		return result
	})
}
