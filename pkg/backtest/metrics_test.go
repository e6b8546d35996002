package backtest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregate_EmptyLedgerYieldsDefaults(t *testing.T) {
	r := Aggregate(nil, 10000, "params", "OTT")

	assert.Equal(t, 0, r.TotalTrades)
	assert.Equal(t, 0.0, r.NetProfit)
	assert.Equal(t, 0.0, r.ProfitFactor)
	assert.Equal(t, 0.0, r.WinRate)
	assert.Equal(t, 0.0, r.SLWinRate)
	assert.Equal(t, 0.0, r.MaxDrawdown)
	assert.Equal(t, 0.0, r.ProfitPercent)
	assert.Equal(t, "params", r.ParamsStr)
	assert.Equal(t, "OTT", r.StrategyName)
}

func TestAggregate_CountsAndNetProfit(t *testing.T) {
	trades := []Trade{
		{Profit: 5, ExitReason: ExitSignal},
		{Profit: -2, ExitReason: ExitSignal},
		{Profit: 3, ExitReason: ExitTakeProfit},
		{Profit: 0, ExitReason: ExitEndOfData}, // zero profit counts as a loss
	}

	r := Aggregate(trades, 10000, "p", "OTT")

	assert.Equal(t, 4, r.TotalTrades)
	assert.Equal(t, 2, r.WinningTrades)
	assert.Equal(t, 2, r.LosingTrades)
	assert.InDelta(t, 6.0, r.NetProfit, 1e-9)
	assert.InDelta(t, 50.0, r.WinRate, 1e-9)
	assert.InDelta(t, 8.0/2.0, r.ProfitFactor, 1e-9)
	assert.InDelta(t, 6.0/10000*100, r.ProfitPercent, 1e-9)
}

// Net profit always equals gross gains minus gross losses.
func TestAggregate_ProfitFactorIdentity(t *testing.T) {
	trades := []Trade{
		{Profit: 7}, {Profit: -3}, {Profit: 2}, {Profit: -5}, {Profit: 1},
	}

	r := Aggregate(trades, 10000, "p", "OTT")

	gains, losses := 10.0, 8.0
	assert.InDelta(t, gains-losses, r.NetProfit, 1e-9)
	assert.InDelta(t, gains/losses, r.ProfitFactor, 1e-9)
}

func TestAggregate_NoLossesGivesInfiniteProfitFactor(t *testing.T) {
	r := Aggregate([]Trade{{Profit: 4}, {Profit: 1}}, 10000, "p", "OTT")

	assert.True(t, math.IsInf(r.ProfitFactor, 1))
	assert.Equal(t, 100.0, r.WinRate)
}

func TestAggregate_SLWinRateExcludesSLExits(t *testing.T) {
	trades := []Trade{
		{Profit: -1, ExitReason: ExitStopLoss},
		{Profit: -1, ExitReason: ExitStopLoss},
		{Profit: 5, ExitReason: ExitSignal},
		{Profit: -2, ExitReason: ExitSignal},
	}

	r := Aggregate(trades, 10000, "p", "OTT")

	assert.Equal(t, 2, r.SLTrades)
	assert.InDelta(t, 25.0, r.WinRate, 1e-9)   // 1 of 4
	assert.InDelta(t, 50.0, r.SLWinRate, 1e-9) // 1 of the 2 non-SL trades
}

func TestAggregate_AllSLTradesGiveZeroSLWinRate(t *testing.T) {
	trades := []Trade{
		{Profit: -1, ExitReason: ExitStopLoss},
		{Profit: -1, ExitReason: ExitStopLoss},
	}

	r := Aggregate(trades, 10000, "p", "OTT")

	assert.Equal(t, 2, r.SLTrades)
	assert.Equal(t, 0.0, r.SLWinRate)
}

func TestAggregate_MaxDrawdownFromEquityCurve(t *testing.T) {
	// Equity: 10000 -> 10100 -> 10050 -> 10150 -> 9950.
	trades := []Trade{
		{Profit: 100}, {Profit: -50}, {Profit: 100}, {Profit: -200},
	}

	r := Aggregate(trades, 10000, "p", "OTT")

	// Peak 10150, trough 9950.
	assert.InDelta(t, (10150.0-9950.0)/10150.0*100, r.MaxDrawdown, 1e-9)
}

func TestAggregate_WinRateStaysInDomain(t *testing.T) {
	trades := []Trade{{Profit: 1}, {Profit: -1}, {Profit: 2}, {Profit: -0.5}}

	r := Aggregate(trades, 10000, "p", "OTT")

	assert.GreaterOrEqual(t, r.WinRate, 0.0)
	assert.LessOrEqual(t, r.WinRate, 100.0)
	assert.GreaterOrEqual(t, r.SLWinRate, 0.0)
	assert.LessOrEqual(t, r.SLWinRate, 100.0)
}
