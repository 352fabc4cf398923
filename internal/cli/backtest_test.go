package cli

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"stocklab/internal/config"
	"stocklab/internal/models"
)

// stubHistory serves a fixed raw series without touching the network.
type stubHistory struct {
	bars []models.RawBar
}

func (s *stubHistory) FetchHistory(ctx context.Context, symbol, interval, rng string) ([]models.RawBar, error) {
	return s.bars, nil
}

func risingRawBars(n int) []models.RawBar {
	f := func(v float64) *float64 { return &v }
	bars := make([]models.RawBar, n)
	for i := range bars {
		price := 100.0 + float64(i)
		bars[i] = models.RawBar{
			Date:   fmt.Sprintf("2024-01-%02d", i+1),
			Open:   f(price - 0.5),
			High:   f(price + 1),
			Low:    f(price - 1),
			Close:  f(price),
			Volume: f(1000),
		}
	}
	return bars
}

func TestBacktestCommandRendersPercentUnits(t *testing.T) {
	app := &App{
		Config:   config.Default(),
		Logger:   zerolog.Nop(),
		Provider: &stubHistory{bars: risingRawBars(60)},
	}

	cmd := newBacktestCmd(app)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"AAPL", "--fast", "5", "--slow", "10", "--capital", "10000"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("backtest command: %v", err)
	}
	out := buf.String()

	// Entry at the first defined cross (close 109), forced close at 159:
	// the single round trip returns (159-109)/109 = 45.87%.
	for _, want := range []string{"+45.87%", "0.00%", "100.0%"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	for _, bad := range []string{"+4587", "10000.0%"} {
		if strings.Contains(out, bad) {
			t.Errorf("output contains rescaled value %q:\n%s", bad, out)
		}
	}
}
