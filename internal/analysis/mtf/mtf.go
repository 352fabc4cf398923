// Package mtf provides the multi-timeframe summarizer: one categorical
// signal per timeframe, assembled into a comparison table.
package mtf

import (
	"context"
	"sort"
	"sync"

	"stocklab/internal/analysis"
	"stocklab/internal/analysis/indicators"
	"stocklab/internal/models"
	"stocklab/internal/series"
)

// Timeframe labels one bar interval of the comparison table.
type Timeframe string

const (
	TimeframeDaily   Timeframe = "1d"
	TimeframeWeekly  Timeframe = "1wk"
	TimeframeMonthly Timeframe = "1mo"
)

// AllTimeframes returns the timeframes of the standard comparison table.
func AllTimeframes() []Timeframe {
	return []Timeframe{TimeframeDaily, TimeframeWeekly, TimeframeMonthly}
}

// TimeframeSignal is the per-timeframe summary row. Indicator fields are
// the most recent defined value of each series and stay invalid when the
// history is too short for the warm-up.
type TimeframeSignal struct {
	Timeframe  Timeframe
	Signal     analysis.Signal
	Score      int
	Close      float64
	SMA20      series.Value
	EMA20      series.Value
	RSI14      series.Value
	MACD       series.Value
	MACDSignal series.Value
}

// Comparison is the assembled multi-timeframe table.
type Comparison struct {
	Rows    []TimeframeSignal
	Bullish int
	Bearish int
	Neutral int
}

// maxScore is the number of scored conditions.
const maxScore = 4

// Summarize computes the composite signal for one timeframe's normalized
// series: one point each for close above SMA20, close above EMA20, RSI14
// above 55 and MACD above its signal line. Score >= 3 reads Bullish,
// <= 1 Bearish, otherwise Neutral.
func Summarize(tf Timeframe, bars []models.Bar) TimeframeSignal {
	row := TimeframeSignal{Timeframe: tf, Signal: analysis.Neutral}
	if len(bars) == 0 {
		return row
	}

	closes := models.Closes(bars)
	row.Close = closes[len(closes)-1]

	if v, ok := indicators.CalculateSMA(closes, 20).Last(); ok {
		row.SMA20 = series.Of(v)
	}
	if v, ok := indicators.CalculateEMA(closes, 20).Last(); ok {
		row.EMA20 = series.Of(v)
	}
	if v, ok := indicators.CalculateRSI(closes, 14).Last(); ok {
		row.RSI14 = series.Of(v)
	}
	macd := indicators.NewMACD(12, 26, 9).Calculate(bars)
	if v, ok := macd.MACD.Last(); ok {
		row.MACD = series.Of(v)
	}
	if v, ok := macd.Signal.Last(); ok {
		row.MACDSignal = series.Of(v)
	}

	if row.SMA20.Valid && row.Close > row.SMA20.Float64 {
		row.Score++
	}
	if row.EMA20.Valid && row.Close > row.EMA20.Float64 {
		row.Score++
	}
	if row.RSI14.Valid && row.RSI14.Float64 > 55 {
		row.Score++
	}
	if row.MACD.Valid && row.MACDSignal.Valid && row.MACD.Float64 > row.MACDSignal.Float64 {
		row.Score++
	}

	switch {
	case row.Score >= 3:
		row.Signal = analysis.Bullish
	case row.Score <= 1:
		row.Signal = analysis.Bearish
	}

	return row
}

// SummarizeAll summarizes every supplied timeframe concurrently and
// assembles the comparison table. Each timeframe operates on its own
// series, so the only coordination is result collection.
func SummarizeAll(ctx context.Context, barsByTimeframe map[Timeframe][]models.Bar) *Comparison {
	comparison := &Comparison{}

	var wg sync.WaitGroup
	var mu sync.Mutex

	for tf, bars := range barsByTimeframe {
		wg.Add(1)
		go func(tf Timeframe, bars []models.Bar) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				return
			default:
			}
			row := Summarize(tf, bars)
			mu.Lock()
			comparison.Rows = append(comparison.Rows, row)
			mu.Unlock()
		}(tf, bars)
	}
	wg.Wait()

	sort.Slice(comparison.Rows, func(i, j int) bool {
		return timeframeOrder(comparison.Rows[i].Timeframe) < timeframeOrder(comparison.Rows[j].Timeframe)
	})

	for _, row := range comparison.Rows {
		switch row.Signal {
		case analysis.Bullish:
			comparison.Bullish++
		case analysis.Bearish:
			comparison.Bearish++
		default:
			comparison.Neutral++
		}
	}

	return comparison
}

func timeframeOrder(tf Timeframe) int {
	for i, known := range AllTimeframes() {
		if tf == known {
			return i
		}
	}
	return len(AllTimeframes())
}
