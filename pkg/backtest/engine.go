// Package backtest turns per-bar direction sequences into realized trade
// ledgers and performance summaries, and drives the parallel grid search
// over strategy parameter combinations.
package backtest

// ExitReason records how a trade was closed.
type ExitReason string

const (
	ExitSignal     ExitReason = "signal"
	ExitStopLoss   ExitReason = "sl"
	ExitTakeProfit ExitReason = "tp"
	ExitEndOfData  ExitReason = "end_of_data"
)

// Trade is one realized round trip. Profit is the raw price difference
// signed by direction; no position sizing is applied.
type Trade struct {
	EntryIndex int        `json:"entry_index"`
	ExitIndex  int        `json:"exit_index"`
	EntryPrice float64    `json:"entry_price"`
	ExitPrice  float64    `json:"exit_price"`
	Profit     float64    `json:"profit"`
	IsLong     bool       `json:"is_long"`
	ExitReason ExitReason `json:"exit_reason"`
}

// SimConfig carries the simulator's stop-loss/take-profit/pyramiding
// settings for one backtest run.
type SimConfig struct {
	UseSL      bool
	UseTP      bool
	Pyramiding bool
	SLPercent  float64
	TPPercent  float64
}

// openPosition is one not-yet-closed entry. With pyramiding enabled
// several can be open at once, each tracked independently.
type openPosition struct {
	entryIndex int
	entryPrice float64
	isLong     bool
}

func closeTrade(pos openPosition, exitIndex int, exitPrice float64, reason ExitReason) Trade {
	sign := 1.0
	if !pos.isLong {
		sign = -1.0
	}
	return Trade{
		EntryIndex: pos.entryIndex,
		ExitIndex:  exitIndex,
		EntryPrice: pos.entryPrice,
		ExitPrice:  exitPrice,
		Profit:     (exitPrice - pos.entryPrice) * sign,
		IsLong:     pos.isLong,
		ExitReason: reason,
	}
}

// Simulate walks the direction sequence left to right and produces the
// trade ledger. A non-zero dir[i-1] is an entry signal executed at bar i's
// open. Each bar first checks intrabar SL/TP exits for every open
// position (SL wins when both levels fall inside the bar's range), then
// applies the signal transition; a signal reaching the last bar can still
// close positions but opens none. Any position still open at the last bar
// is flushed at its close.
func Simulate(dir []int, opens, highs, lows, closes []float64, cfg SimConfig) []Trade {
	trades := []Trade{}
	var open []openPosition
	lastSignal := 0

	n := len(dir)
	for i := 1; i < n; i++ {
		// Intrabar SL/TP exits, evaluated per open entry.
		if len(open) > 0 && (cfg.UseSL || cfg.UseTP) {
			remaining := open[:0]
			for _, pos := range open {
				if t, hit := checkIntrabarExit(pos, i, highs[i], lows[i], cfg); hit {
					trades = append(trades, t)
				} else {
					remaining = append(remaining, pos)
				}
			}
			open = remaining
		}

		// Signal generated on the previous bar executes at this bar's open.
		// No entry is taken on the last bar: the flush would close it on
		// the same bar, breaking entry < exit.
		sig := dir[i-1]
		lastBar := i == n-1
		if sig != 0 {
			switch {
			case len(open) == 0:
				if !lastBar && (cfg.Pyramiding || sig != lastSignal) {
					open = append(open, openPosition{entryIndex: i, entryPrice: opens[i], isLong: sig > 0})
				}
			case (sig > 0) != open[0].isLong:
				// Opposite signal: close everything, then reverse.
				for _, pos := range open {
					trades = append(trades, closeTrade(pos, i, opens[i], ExitSignal))
				}
				open = open[:0]
				if !lastBar {
					open = append(open, openPosition{entryIndex: i, entryPrice: opens[i], isLong: sig > 0})
				}
			case cfg.Pyramiding && !lastBar:
				// Same-direction signal stacks an additional independent entry.
				open = append(open, openPosition{entryIndex: i, entryPrice: opens[i], isLong: sig > 0})
			}
			lastSignal = sig
		}
	}

	// End-of-series flush.
	if n > 0 {
		for _, pos := range open {
			trades = append(trades, closeTrade(pos, n-1, closes[n-1], ExitEndOfData))
		}
	}

	return trades
}

// checkIntrabarExit tests one open position against bar i's range. The
// stop loss is checked first so a bar spanning both levels exits at SL.
func checkIntrabarExit(pos openPosition, i int, high, low float64, cfg SimConfig) (Trade, bool) {
	if pos.entryIndex >= i {
		return Trade{}, false
	}

	if pos.isLong {
		slPrice := pos.entryPrice * (1 - cfg.SLPercent/100)
		tpPrice := pos.entryPrice * (1 + cfg.TPPercent/100)
		if cfg.UseSL && low <= slPrice {
			return closeTrade(pos, i, slPrice, ExitStopLoss), true
		}
		if cfg.UseTP && high >= tpPrice {
			return closeTrade(pos, i, tpPrice, ExitTakeProfit), true
		}
		return Trade{}, false
	}

	slPrice := pos.entryPrice * (1 + cfg.SLPercent/100)
	tpPrice := pos.entryPrice * (1 - cfg.TPPercent/100)
	if cfg.UseSL && high >= slPrice {
		return closeTrade(pos, i, slPrice, ExitStopLoss), true
	}
	if cfg.UseTP && low <= tpPrice {
		return closeTrade(pos, i, tpPrice, ExitTakeProfit), true
	}
	return Trade{}, false
}
