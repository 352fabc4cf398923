// Package integration exercises the full pipeline end to end: a fake
// chart API feeding the provider, normalization, the SQLite cache, the
// indicator engine, the crossover backtester and the multi-timeframe
// summary.
package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"stocklab/internal/analysis/indicators"
	"stocklab/internal/analysis/mtf"
	"stocklab/internal/models"
	"stocklab/internal/provider"
	"stocklab/internal/store"
	"stocklab/internal/trading"
)

// chartServer serves a synthetic rising daily series in the chart API
// shape, with one null row to exercise normalization.
func chartServer(t *testing.T, bars int) *httptest.Server {
	t.Helper()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	timestamps := make([]int64, bars)
	open := make([]*float64, bars)
	high := make([]*float64, bars)
	low := make([]*float64, bars)
	closes := make([]*float64, bars)
	volume := make([]*float64, bars)

	f := func(v float64) *float64 { return &v }
	for i := 0; i < bars; i++ {
		timestamps[i] = base.AddDate(0, 0, i).Unix()
		price := 100.0 + float64(i)
		open[i] = f(price - 0.5)
		high[i] = f(price + 1)
		low[i] = f(price - 1)
		closes[i] = f(price)
		volume[i] = f(1000 + float64(i)*10)
	}
	// A market holiday shows up as an all-null row.
	if bars > 3 {
		open[3], high[3], low[3], closes[3], volume[3] = nil, nil, nil, nil, nil
	}

	payload := map[string]any{
		"chart": map[string]any{
			"result": []map[string]any{{
				"timestamp": timestamps,
				"indicators": map[string]any{
					"quote": []map[string]any{{
						"open":   open,
						"high":   high,
						"low":    low,
						"close":  closes,
						"volume": volume,
					}},
				},
			}},
		},
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(payload)
	}))
}

func TestFetchNormalizeCacheBacktest(t *testing.T) {
	ctx := context.Background()
	server := chartServer(t, 80)
	defer server.Close()

	p := provider.NewYahooProvider(provider.WithBaseURL(server.URL), provider.WithRateLimit(1000))
	raw, err := p.FetchHistory(ctx, "AAPL", "1d", "3mo")
	if err != nil {
		t.Fatalf("FetchHistory: %v", err)
	}
	if len(raw) != 80 {
		t.Fatalf("raw rows = %d, want 80", len(raw))
	}

	bars := models.Normalize(raw)
	if len(bars) != 79 {
		t.Fatalf("normalized bars = %d, want the null row dropped", len(bars))
	}

	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "bars.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()

	if err := s.SaveBars(ctx, "AAPL", "1d", bars); err != nil {
		t.Fatalf("SaveBars: %v", err)
	}
	if err := s.SetLastFetched(ctx, "AAPL", "1d", time.Now()); err != nil {
		t.Fatalf("SetLastFetched: %v", err)
	}

	cached, err := s.GetBars(ctx, "AAPL", "1d", "", "")
	if err != nil {
		t.Fatalf("GetBars: %v", err)
	}
	if !reflect.DeepEqual(cached, bars) {
		t.Fatal("cached bars differ from the normalized input")
	}

	fetched, err := s.LastFetched(ctx, "AAPL", "1d")
	if err != nil {
		t.Fatal(err)
	}
	if fetched.IsZero() {
		t.Error("fetch log entry missing after SetLastFetched")
	}

	// Indicators over the cached series stay aligned to its length.
	engine := indicators.NewEngine(4)
	engine.Register(indicators.NewSMA(20))
	engine.Register(indicators.NewEMA(20))
	engine.Register(indicators.NewRSI(14))
	for name, out := range engine.CalculateAll(ctx, cached) {
		if out.Len() != len(cached) {
			t.Errorf("%s length = %d, want %d", name, out.Len(), len(cached))
		}
	}

	// A monotone rising series produces exactly one round trip: entry at
	// the first defined cross, forced close at the final bar.
	result := trading.RunCrossover(cached, trading.CrossoverConfig{
		FastPeriod:     5,
		SlowPeriod:     10,
		InitialCapital: 10000,
	})
	if result.TradeCount != 1 {
		t.Fatalf("trades = %d, want 1", result.TradeCount)
	}
	if result.Trades[0].ExitDate != cached[len(cached)-1].Date {
		t.Errorf("exit = %s, want forced close on the final bar", result.Trades[0].ExitDate)
	}
	if result.FinalEquity <= 10000 {
		t.Errorf("final equity = %v, want a gain on a rising series", result.FinalEquity)
	}

	again := trading.RunCrossover(cached, trading.CrossoverConfig{
		FastPeriod:     5,
		SlowPeriod:     10,
		InitialCapital: 10000,
	})
	if !reflect.DeepEqual(result, again) {
		t.Error("backtest is not deterministic across runs")
	}
}

func TestMultiTimeframeSummaryFromProvider(t *testing.T) {
	ctx := context.Background()
	server := chartServer(t, 60)
	defer server.Close()

	p := provider.NewYahooProvider(provider.WithBaseURL(server.URL), provider.WithRateLimit(1000))

	barsByTF := make(map[mtf.Timeframe][]models.Bar)
	for _, tf := range mtf.AllTimeframes() {
		raw, err := p.FetchHistory(ctx, "AAPL", string(tf), "1y")
		if err != nil {
			t.Fatalf("FetchHistory %s: %v", tf, err)
		}
		barsByTF[tf] = models.Normalize(raw)
	}

	cmp := mtf.SummarizeAll(ctx, barsByTF)
	if len(cmp.Rows) != 3 {
		t.Fatalf("rows = %d, want one per timeframe", len(cmp.Rows))
	}
	for _, row := range cmp.Rows {
		// The synthetic series rises steadily, so every timeframe
		// reads bullish with a full score.
		if row.Signal != "Bullish" {
			t.Errorf("%s signal = %s, want Bullish", row.Timeframe, row.Signal)
		}
		if row.Score != 4 {
			t.Errorf("%s score = %d, want 4", row.Timeframe, row.Score)
		}
	}
	if cmp.Bullish != 3 || cmp.Bearish != 0 || cmp.Neutral != 0 {
		t.Errorf("counts = %d/%d/%d, want 3/0/0", cmp.Bullish, cmp.Bearish, cmp.Neutral)
	}
}
