package indicators

import (
	"fmt"

	"stocklab/internal/models"
	"stocklab/internal/series"
)

// ATR calculates the Average True Range with Wilder smoothing.
type ATR struct {
	period int
}

// NewATR creates a new ATR indicator.
func NewATR(period int) *ATR {
	return &ATR{period: period}
}

func (a *ATR) Name() string {
	return fmt.Sprintf("ATR_%d", a.period)
}

func (a *ATR) MinBars() int {
	return a.period
}

func (a *ATR) Calculate(bars []models.Bar) series.Series {
	n := len(bars)
	out := series.Make(n)
	if a.period <= 0 || n < a.period {
		return out
	}

	tr := make([]float64, n)
	tr[0] = bars[0].High - bars[0].Low
	for i := 1; i < n; i++ {
		tr[i] = trueRange(bars[i], bars[i-1])
	}

	atr := mean(tr[:a.period])
	out.Set(a.period-1, atr)
	for i := a.period; i < n; i++ {
		atr = (atr*float64(a.period-1) + tr[i]) / float64(a.period)
		out.Set(i, atr)
	}

	return out
}

// CalculateStdDev calculates the rolling population standard deviation of
// the trailing window, the variance measured against the trailing-window
// mean at each index.
func CalculateStdDev(values []float64, period int) series.Series {
	out := series.Make(len(values))
	if period <= 1 {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		out.Set(i, stdDev(values[i-period+1:i+1]))
	}
	return out
}

// BollingerBands calculates the Bollinger band triple around a trailing
// SMA.
type BollingerBands struct {
	period    int
	stdDevMul float64
}

// BandsSeries holds the aligned upper/middle/lower band series.
type BandsSeries struct {
	Upper  series.Series
	Middle series.Series
	Lower  series.Series
}

// NewBollingerBands creates a new Bollinger Bands indicator (20, 2.0 are
// the conventional defaults).
func NewBollingerBands(period int, stdDevMul float64) *BollingerBands {
	return &BollingerBands{
		period:    period,
		stdDevMul: stdDevMul,
	}
}

func (b *BollingerBands) Name() string {
	return fmt.Sprintf("BollingerBands_%d_%.1f", b.period, b.stdDevMul)
}

func (b *BollingerBands) MinBars() int {
	return b.period
}

func (b *BollingerBands) Calculate(bars []models.Bar) *BandsSeries {
	n := len(bars)
	result := &BandsSeries{
		Upper:  series.Make(n),
		Middle: series.Make(n),
		Lower:  series.Make(n),
	}
	if b.period <= 1 {
		return result
	}

	closes := models.Closes(bars)
	middle := CalculateSMA(closes, b.period)
	sd := CalculateStdDev(closes, b.period)

	for i := 0; i < n; i++ {
		m, okM := middle.At(i)
		s, okS := sd.At(i)
		if okM && okS {
			result.Middle.Set(i, m)
			result.Upper.Set(i, m+b.stdDevMul*s)
			result.Lower.Set(i, m-b.stdDevMul*s)
		}
	}

	return result
}
