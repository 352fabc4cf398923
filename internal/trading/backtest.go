// Package trading provides the SMA crossover backtester.
package trading

import (
	"math"

	"stocklab/internal/analysis/indicators"
	"stocklab/internal/models"
)

// DefaultInitialCapital is the starting cash when the caller does not
// specify one. The summary ratios are scale-free, so the exact figure only
// matters for the equity curve's absolute level.
const DefaultInitialCapital = 10_000

// tradingDaysPerYear annualizes the CAGR from daily bars.
const tradingDaysPerYear = 252

// CrossoverConfig parameterizes one backtest run.
type CrossoverConfig struct {
	FastPeriod     int
	SlowPeriod     int
	InitialCapital float64
}

// Trade is one round trip: opened on a bullish SMA cross, closed on a
// bearish cross or force-closed at the end of the series.
type Trade struct {
	EntryDate     string
	ExitDate      string
	EntryPrice    float64
	ExitPrice     float64
	ReturnPercent float64
}

// EquityPoint is the portfolio value at one bar.
type EquityPoint struct {
	Date   string
	Equity float64
}

// Result aggregates the trades, equity curve and summary ratios of one
// backtest run. It is owned by the caller and never persisted.
type Result struct {
	Trades      []Trade
	EquityCurve []EquityPoint
	TotalReturn float64
	CAGR        float64
	MaxDrawdown float64
	TradeCount  int
	WinRate     float64
	FinalEquity float64
}

// RunCrossover simulates a single-position SMA crossover strategy: fully
// invested after a bullish cross, fully in cash after a bearish one, no
// shorting, fees or partial sizing. The run is deterministic: the same
// bars and config always produce identical trades and equity curve.
func RunCrossover(bars []models.Bar, cfg CrossoverConfig) *Result {
	if cfg.InitialCapital <= 0 {
		cfg.InitialCapital = DefaultInitialCapital
	}

	result := &Result{}
	if len(bars) < 2 {
		return result
	}

	closes := models.Closes(bars)
	fast := indicators.CalculateSMA(closes, cfg.FastPeriod)
	slow := indicators.CalculateSMA(closes, cfg.SlowPeriod)

	cash := cfg.InitialCapital
	var shares float64
	invested := false
	var entryDate string
	var entryPrice float64

	for i := 1; i < len(bars); i++ {
		prevFast, okPF := fast.At(i - 1)
		prevSlow, okPS := slow.At(i - 1)
		curFast, okCF := fast.At(i)
		curSlow, okCS := slow.At(i)

		// Bars inside either SMA's warm-up carry no signal. A warm-up
		// previous bar counts as flat, so the first bar where both
		// averages are defined can already fire a cross.
		if okCF && okCS {
			havePrev := okPF && okPS
			price := bars[i].Close
			bullishCross := (!havePrev || prevFast <= prevSlow) && curFast > curSlow
			bearishCross := (!havePrev || prevFast >= prevSlow) && curFast < curSlow

			if bullishCross && !invested && price > 0 {
				shares = cash / price
				cash = 0
				invested = true
				entryDate = bars[i].Date
				entryPrice = price
			} else if bearishCross && invested {
				cash = shares * price
				shares = 0
				invested = false
				result.Trades = append(result.Trades, Trade{
					EntryDate:     entryDate,
					ExitDate:      bars[i].Date,
					EntryPrice:    entryPrice,
					ExitPrice:     price,
					ReturnPercent: (price - entryPrice) / entryPrice * 100,
				})
			}
		}

		equity := cash
		if invested {
			equity = shares * bars[i].Close
		}
		result.EquityCurve = append(result.EquityCurve, EquityPoint{
			Date:   bars[i].Date,
			Equity: equity,
		})
	}

	// Mark-to-market: force-close any position left open at the end.
	if invested {
		last := bars[len(bars)-1]
		cash = shares * last.Close
		result.Trades = append(result.Trades, Trade{
			EntryDate:     entryDate,
			ExitDate:      last.Date,
			EntryPrice:    entryPrice,
			ExitPrice:     last.Close,
			ReturnPercent: (last.Close - entryPrice) / entryPrice * 100,
		})
	}

	result.FinalEquity = cash
	summarize(result, cfg.InitialCapital, len(bars))
	return result
}

func summarize(result *Result, initialCapital float64, barCount int) {
	result.TradeCount = len(result.Trades)
	result.TotalReturn = (result.FinalEquity - initialCapital) / initialCapital * 100

	years := math.Max(float64(barCount-1)/tradingDaysPerYear, 1.0/tradingDaysPerYear)
	if result.FinalEquity > 0 {
		result.CAGR = (math.Pow(result.FinalEquity/initialCapital, 1/years) - 1) * 100
	}

	var peak, maxDD float64
	for _, point := range result.EquityCurve {
		if point.Equity > peak {
			peak = point.Equity
		}
		if peak > 0 {
			dd := (peak - point.Equity) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	result.MaxDrawdown = maxDD * 100

	if result.TradeCount > 0 {
		wins := 0
		for _, trade := range result.Trades {
			if trade.ReturnPercent > 0 {
				wins++
			}
		}
		result.WinRate = float64(wins) / float64(result.TradeCount) * 100
	}
}
