package indicators

import (
	"fmt"

	"stocklab/internal/models"
	"stocklab/internal/series"
)

// CalculateSMA calculates a Simple Moving Average on raw values. Values
// inside the warm-up region are undefined; period <= 1 is the identity.
func CalculateSMA(values []float64, period int) series.Series {
	if period <= 1 {
		return series.FromFloats(values)
	}
	out := series.Make(len(values))
	for i := period - 1; i < len(values); i++ {
		out.Set(i, mean(values[i-period+1:i+1]))
	}
	return out
}

// CalculateEMA calculates an Exponential Moving Average on raw values.
// The seed at index period-1 is the simple average of the first period
// values; earlier indices are undefined.
func CalculateEMA(values []float64, period int) series.Series {
	if period <= 1 {
		return series.FromFloats(values)
	}
	out := series.Make(len(values))
	if len(values) < period {
		return out
	}
	multiplier := 2.0 / float64(period+1)

	ema := mean(values[:period])
	out.Set(period-1, ema)
	for i := period; i < len(values); i++ {
		ema = (values[i]-ema)*multiplier + ema
		out.Set(i, ema)
	}
	return out
}

// CalculateWMA calculates a linearly weighted moving average with weights
// 1..period over the trailing window.
func CalculateWMA(values []float64, period int) series.Series {
	if period <= 1 {
		return series.FromFloats(values)
	}
	out := series.Make(len(values))
	weightSum := float64(period*(period+1)) / 2
	for i := period - 1; i < len(values); i++ {
		var weighted float64
		for j := 0; j < period; j++ {
			weighted += values[i-period+1+j] * float64(j+1)
		}
		out.Set(i, weighted/weightSum)
	}
	return out
}

// SMA calculates Simple Moving Average over closes.
type SMA struct {
	period int
}

// NewSMA creates a new SMA indicator.
func NewSMA(period int) *SMA {
	return &SMA{period: period}
}

func (s *SMA) Name() string {
	return fmt.Sprintf("SMA_%d", s.period)
}

func (s *SMA) MinBars() int {
	return s.period
}

func (s *SMA) Calculate(bars []models.Bar) series.Series {
	return CalculateSMA(models.Closes(bars), s.period)
}

// EMA calculates Exponential Moving Average over closes.
type EMA struct {
	period int
}

// NewEMA creates a new EMA indicator.
func NewEMA(period int) *EMA {
	return &EMA{period: period}
}

func (e *EMA) Name() string {
	return fmt.Sprintf("EMA_%d", e.period)
}

func (e *EMA) MinBars() int {
	return e.period
}

func (e *EMA) Calculate(bars []models.Bar) series.Series {
	return CalculateEMA(models.Closes(bars), e.period)
}

// WMA calculates Weighted Moving Average over closes.
type WMA struct {
	period int
}

// NewWMA creates a new WMA indicator.
func NewWMA(period int) *WMA {
	return &WMA{period: period}
}

func (w *WMA) Name() string {
	return fmt.Sprintf("WMA_%d", w.period)
}

func (w *WMA) MinBars() int {
	return w.period
}

func (w *WMA) Calculate(bars []models.Bar) series.Series {
	return CalculateWMA(models.Closes(bars), w.period)
}

// MACD calculates Moving Average Convergence Divergence.
type MACD struct {
	fastPeriod   int
	slowPeriod   int
	signalPeriod int
}

// MACDSeries holds the three aligned MACD output series.
type MACDSeries struct {
	MACD      series.Series
	Signal    series.Series
	Histogram series.Series
}

// NewMACD creates a new MACD indicator with the given periods (12, 26, 9
// are the conventional defaults).
func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{
		fastPeriod:   fast,
		slowPeriod:   slow,
		signalPeriod: signal,
	}
}

func (m *MACD) Name() string {
	return fmt.Sprintf("MACD_%d_%d_%d", m.fastPeriod, m.slowPeriod, m.signalPeriod)
}

func (m *MACD) MinBars() int {
	return m.slowPeriod + m.signalPeriod - 1
}

func (m *MACD) Calculate(bars []models.Bar) *MACDSeries {
	n := len(bars)
	result := &MACDSeries{
		MACD:      series.Make(n),
		Signal:    series.Make(n),
		Histogram: series.Make(n),
	}
	if m.fastPeriod <= 0 || m.slowPeriod <= 0 || m.signalPeriod <= 0 {
		return result
	}

	closes := models.Closes(bars)
	fastEMA := CalculateEMA(closes, m.fastPeriod)
	slowEMA := CalculateEMA(closes, m.slowPeriod)

	// MACD line wherever both EMAs are defined.
	for i := 0; i < n; i++ {
		fast, okFast := fastEMA.At(i)
		slow, okSlow := slowEMA.At(i)
		if okFast && okSlow {
			result.MACD.Set(i, fast-slow)
		}
	}

	// Signal line: EMA over a zero-filled copy of the MACD line,
	// re-masked to the MACD line's own validity.
	signalEMA := CalculateEMA(result.MACD.Floats(), m.signalPeriod)
	for i := 0; i < n; i++ {
		sig, okSig := signalEMA.At(i)
		if okSig && result.MACD[i].Valid {
			result.Signal.Set(i, sig)
		}
	}

	for i := 0; i < n; i++ {
		macd, okMACD := result.MACD.At(i)
		sig, okSig := result.Signal.At(i)
		if okMACD && okSig {
			result.Histogram.Set(i, macd-sig)
		}
	}

	return result
}

// ADX calculates Average Directional Index with +DI and -DI per Wilder.
type ADX struct {
	period int
}

// DMISeries holds the aligned ADX/DMI output series.
type DMISeries struct {
	ADX     series.Series
	PlusDI  series.Series
	MinusDI series.Series
}

// NewADX creates a new ADX indicator.
func NewADX(period int) *ADX {
	return &ADX{period: period}
}

func (a *ADX) Name() string {
	return fmt.Sprintf("ADX_%d", a.period)
}

func (a *ADX) MinBars() int {
	return a.period*2 + 1
}

func (a *ADX) Calculate(bars []models.Bar) *DMISeries {
	n := len(bars)
	result := &DMISeries{
		ADX:     series.Make(n),
		PlusDI:  series.Make(n),
		MinusDI: series.Make(n),
	}
	p := a.period
	if p <= 0 || n < 2*p+1 {
		return result
	}

	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	tr := make([]float64, n)
	for i := 1; i < n; i++ {
		upMove := bars[i].High - bars[i-1].High
		downMove := bars[i-1].Low - bars[i].Low
		if upMove > downMove && upMove > 0 {
			plusDM[i] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i] = downMove
		}
		tr[i] = trueRange(bars[i], bars[i-1])
	}

	// Wilder running totals: smooth = smooth - smooth/period + new,
	// seeded by the plain sum of the first period values.
	smoothTR := sum(tr[1 : p+1])
	smoothPlus := sum(plusDM[1 : p+1])
	smoothMinus := sum(minusDM[1 : p+1])

	dx := make([]float64, n)
	for i := p; i < n; i++ {
		if i > p {
			smoothTR = smoothTR - smoothTR/float64(p) + tr[i]
			smoothPlus = smoothPlus - smoothPlus/float64(p) + plusDM[i]
			smoothMinus = smoothMinus - smoothMinus/float64(p) + minusDM[i]
		}

		var plusDI, minusDI float64
		if smoothTR != 0 {
			plusDI = 100 * smoothPlus / smoothTR
			minusDI = 100 * smoothMinus / smoothTR
		}
		result.PlusDI.Set(i, plusDI)
		result.MinusDI.Set(i, minusDI)

		diSum := plusDI + minusDI
		if diSum != 0 {
			diff := plusDI - minusDI
			if diff < 0 {
				diff = -diff
			}
			dx[i] = 100 * diff / diSum
		}
	}

	// ADX seeds as the simple mean of the first period DX values, then
	// Wilder-smooths.
	adx := mean(dx[p : 2*p])
	result.ADX.Set(2*p-1, adx)
	for i := 2 * p; i < n; i++ {
		adx = (adx*float64(p-1) + dx[i]) / float64(p)
		result.ADX.Set(i, adx)
	}

	return result
}

// Ichimoku calculates the Ichimoku cloud components. Senkou spans are
// shifted forward by the displacement and the Chikou span backward; the
// output stays aligned to the input length.
type Ichimoku struct {
	tenkanPeriod  int
	kijunPeriod   int
	senkouBPeriod int
	displacement  int
}

// IchimokuSeries holds the five aligned Ichimoku output series.
type IchimokuSeries struct {
	Tenkan  series.Series
	Kijun   series.Series
	SenkouA series.Series
	SenkouB series.Series
	Chikou  series.Series
}

// NewIchimoku creates a new Ichimoku indicator with the given periods
// (9, 26, 52, 26 are the conventional defaults).
func NewIchimoku(tenkan, kijun, senkouB, displacement int) *Ichimoku {
	return &Ichimoku{
		tenkanPeriod:  tenkan,
		kijunPeriod:   kijun,
		senkouBPeriod: senkouB,
		displacement:  displacement,
	}
}

func (ic *Ichimoku) Name() string {
	return "Ichimoku"
}

func (ic *Ichimoku) MinBars() int {
	return ic.senkouBPeriod + ic.displacement
}

func (ic *Ichimoku) Calculate(bars []models.Bar) *IchimokuSeries {
	n := len(bars)
	result := &IchimokuSeries{
		Tenkan:  series.Make(n),
		Kijun:   series.Make(n),
		SenkouA: series.Make(n),
		SenkouB: series.Make(n),
		Chikou:  series.Make(n),
	}
	if ic.tenkanPeriod <= 0 || ic.kijunPeriod <= 0 || ic.senkouBPeriod <= 0 {
		return result
	}

	highs := models.Highs(bars)
	lows := models.Lows(bars)

	midpoint := func(i, period int) float64 {
		h := highest(highs[i-period+1 : i+1])
		l := lowest(lows[i-period+1 : i+1])
		return (h + l) / 2
	}

	for i := ic.tenkanPeriod - 1; i < n; i++ {
		result.Tenkan.Set(i, midpoint(i, ic.tenkanPeriod))
	}
	for i := ic.kijunPeriod - 1; i < n; i++ {
		result.Kijun.Set(i, midpoint(i, ic.kijunPeriod))
	}

	// Senkou spans are projected displacement bars into the future;
	// projections past the end of the series are trimmed.
	for i := ic.kijunPeriod - 1; i < n; i++ {
		if i+ic.displacement < n {
			tenkan, _ := result.Tenkan.At(i)
			kijun, _ := result.Kijun.At(i)
			result.SenkouA.Set(i+ic.displacement, (tenkan+kijun)/2)
		}
	}
	for i := ic.senkouBPeriod - 1; i < n; i++ {
		if i+ic.displacement < n {
			result.SenkouB.Set(i+ic.displacement, midpoint(i, ic.senkouBPeriod))
		}
	}

	// Chikou span is the close shifted displacement bars backward.
	for i := ic.displacement; i < n; i++ {
		result.Chikou.Set(i-ic.displacement, bars[i].Close)
	}

	return result
}
