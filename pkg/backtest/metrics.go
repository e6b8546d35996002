package backtest

import "math"

// Result summarizes one backtest run: the trade ledger folded into the
// metrics the grid search filters and ranks on.
type Result struct {
	NetProfit     float64 `json:"net_profit"`
	ProfitFactor  float64 `json:"profit_factor"`
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`
	MaxDrawdown   float64 `json:"max_drawdown"`
	ProfitPercent float64 `json:"profit_percent"`
	SLTrades      int     `json:"sl_trades"`
	SLWinRate     float64 `json:"sl_win_rate"`
	Trades        []Trade `json:"trades"`
	ParamsStr     string  `json:"params_str"`
	StrategyName  string  `json:"strategy_name"`
}

// Aggregate folds a trade ledger into a Result. Capital anchors the equity
// curve for the drawdown and profit-percent figures; profits themselves are
// raw price differences with no position sizing.
func Aggregate(trades []Trade, capital float64, paramsStr, strategyName string) Result {
	r := Result{
		Trades:       trades,
		ParamsStr:    paramsStr,
		StrategyName: strategyName,
		TotalTrades:  len(trades),
	}

	grossProfit := 0.0
	grossLoss := 0.0
	slWins, slCounted := 0, 0

	equity := capital
	peak := capital

	for _, t := range trades {
		r.NetProfit += t.Profit
		if t.Profit > 0 {
			r.WinningTrades++
			grossProfit += t.Profit
		} else {
			r.LosingTrades++
			grossLoss += -t.Profit
		}

		if t.ExitReason == ExitStopLoss {
			r.SLTrades++
		} else {
			slCounted++
			if t.Profit > 0 {
				slWins++
			}
		}

		equity += t.Profit
		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			dd := (peak - equity) / peak * 100
			if dd > r.MaxDrawdown {
				r.MaxDrawdown = dd
			}
		}
	}

	switch {
	case grossLoss > 0:
		r.ProfitFactor = grossProfit / grossLoss
	case grossProfit > 0:
		r.ProfitFactor = math.Inf(1)
	}

	if r.TotalTrades > 0 {
		r.WinRate = float64(r.WinningTrades) / float64(r.TotalTrades) * 100
	}
	if slCounted > 0 {
		r.SLWinRate = float64(slWins) / float64(slCounted) * 100
	}
	if capital != 0 {
		r.ProfitPercent = r.NetProfit / capital * 100
	}

	return r
}
