package mtf

import (
	"context"
	"fmt"
	"testing"

	"stocklab/internal/analysis"
	"stocklab/internal/models"
)

func barsFromCloses(closes []float64) []models.Bar {
	bars := make([]models.Bar, len(closes))
	for i, c := range closes {
		bars[i] = models.Bar{
			Date:   fmt.Sprintf("2024-%02d-%02d", i/28+1, i%28+1),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

func risingBars(n int) []models.Bar {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	return barsFromCloses(closes)
}

func fallingBars(n int) []models.Bar {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 200 - float64(i)
	}
	return barsFromCloses(closes)
}

func TestSummarizeRisingSeriesIsBullish(t *testing.T) {
	row := Summarize(TimeframeDaily, risingBars(80))

	// All four conditions hold on a steady rise: close above both
	// averages, RSI pinned at 100 and MACD above its signal.
	if row.Score != 4 {
		t.Errorf("score = %d, want 4", row.Score)
	}
	if row.Signal != analysis.Bullish {
		t.Errorf("signal = %q, want Bullish", row.Signal)
	}
	if !row.SMA20.Valid || !row.EMA20.Valid || !row.RSI14.Valid || !row.MACD.Valid {
		t.Error("all indicator fields should be defined with 80 bars")
	}
	if row.Close != 179 {
		t.Errorf("close = %v, want the last bar's close", row.Close)
	}
}

func TestSummarizeFallingSeriesIsBearish(t *testing.T) {
	row := Summarize(TimeframeWeekly, fallingBars(80))

	if row.Score != 0 {
		t.Errorf("score = %d, want 0", row.Score)
	}
	if row.Signal != analysis.Bearish {
		t.Errorf("signal = %q, want Bearish", row.Signal)
	}
}

func TestSummarizeShortHistoryStaysDefined(t *testing.T) {
	// Five bars: every indicator is still warming up, so nothing scores
	// and the label falls through to Bearish (score 0 <= 1).
	row := Summarize(TimeframeMonthly, risingBars(5))

	if row.SMA20.Valid || row.EMA20.Valid || row.RSI14.Valid || row.MACD.Valid {
		t.Error("indicator fields should be undefined with five bars")
	}
	if row.Score != 0 {
		t.Errorf("score = %d, want 0", row.Score)
	}
}

func TestSummarizeEmptySeries(t *testing.T) {
	row := Summarize(TimeframeDaily, nil)
	if row.Signal != analysis.Neutral || row.Score != 0 {
		t.Errorf("row = %+v, want a neutral zero row", row)
	}
}

func TestSummarizeAllOrdersAndCounts(t *testing.T) {
	barsByTimeframe := map[Timeframe][]models.Bar{
		TimeframeMonthly: fallingBars(80),
		TimeframeDaily:   risingBars(80),
		TimeframeWeekly:  risingBars(80),
	}

	comparison := SummarizeAll(context.Background(), barsByTimeframe)

	if len(comparison.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(comparison.Rows))
	}
	wantOrder := []Timeframe{TimeframeDaily, TimeframeWeekly, TimeframeMonthly}
	for i, tf := range wantOrder {
		if comparison.Rows[i].Timeframe != tf {
			t.Errorf("row %d timeframe = %q, want %q", i, comparison.Rows[i].Timeframe, tf)
		}
	}
	if comparison.Bullish != 2 || comparison.Bearish != 1 || comparison.Neutral != 0 {
		t.Errorf("counts = %d/%d/%d, want 2 bullish, 1 bearish, 0 neutral",
			comparison.Bullish, comparison.Bearish, comparison.Neutral)
	}
}

func TestSummarizeAllCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	comparison := SummarizeAll(ctx, map[Timeframe][]models.Bar{
		TimeframeDaily: risingBars(80),
	})

	if len(comparison.Rows) != 0 {
		t.Errorf("rows = %d, want 0 after cancellation", len(comparison.Rows))
	}
}
