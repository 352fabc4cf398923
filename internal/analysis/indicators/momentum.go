package indicators

import (
	"fmt"

	"stocklab/internal/models"
	"stocklab/internal/series"
)

// RSI calculates the Relative Strength Index using Wilder's smoothing.
type RSI struct {
	period int
}

// NewRSI creates a new RSI indicator.
func NewRSI(period int) *RSI {
	return &RSI{period: period}
}

func (r *RSI) Name() string {
	return fmt.Sprintf("RSI_%d", r.period)
}

func (r *RSI) MinBars() int {
	return r.period + 1
}

func (r *RSI) Calculate(bars []models.Bar) series.Series {
	return CalculateRSI(models.Closes(bars), r.period)
}

// CalculateRSI calculates RSI on raw values. The first period deltas seed
// the average gain/loss; later values use Wilder smoothing. When the
// average loss is zero RSI is exactly 100.
func CalculateRSI(values []float64, period int) series.Series {
	n := len(values)
	out := series.Make(n)
	if period <= 0 || n < period+1 {
		return out
	}

	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	avgGain := mean(gains[1 : period+1])
	avgLoss := mean(losses[1 : period+1])
	out.Set(period, rsiValue(avgGain, avgLoss))

	for i := period + 1; i < n; i++ {
		avgGain = (avgGain*float64(period-1) + gains[i]) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + losses[i]) / float64(period)
		out.Set(i, rsiValue(avgGain, avgLoss))
	}

	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// Stochastic calculates the Stochastic Oscillator (%K and %D).
type Stochastic struct {
	period  int
	smoothK int
	smoothD int
}

// StochasticSeries holds the aligned %K and %D series.
type StochasticSeries struct {
	K series.Series
	D series.Series
}

// NewStochastic creates a new Stochastic indicator (14, 3, 3 are the
// conventional defaults).
func NewStochastic(period, smoothK, smoothD int) *Stochastic {
	return &Stochastic{
		period:  period,
		smoothK: smoothK,
		smoothD: smoothD,
	}
}

func (s *Stochastic) Name() string {
	return fmt.Sprintf("Stochastic_%d_%d_%d", s.period, s.smoothK, s.smoothD)
}

func (s *Stochastic) MinBars() int {
	return s.period + s.smoothK + s.smoothD - 2
}

func (s *Stochastic) Calculate(bars []models.Bar) *StochasticSeries {
	n := len(bars)
	result := &StochasticSeries{
		K: series.Make(n),
		D: series.Make(n),
	}
	if s.period <= 0 {
		return result
	}

	highs := models.Highs(bars)
	lows := models.Lows(bars)

	rawK := series.Make(n)
	for i := s.period - 1; i < n; i++ {
		highestHigh := highest(highs[i-s.period+1 : i+1])
		lowestLow := lowest(lows[i-s.period+1 : i+1])
		if highestHigh == lowestLow {
			// Flat market convention.
			rawK.Set(i, 50)
			continue
		}
		rawK.Set(i, 100*(bars[i].Close-lowestLow)/(highestHigh-lowestLow))
	}

	// %K and %D are SMA-smoothed over zero-filled copies, then re-masked
	// to the raw %K validity.
	smoothedK := CalculateSMA(rawK.Floats(), s.smoothK)
	for i := 0; i < n; i++ {
		k, ok := smoothedK.At(i)
		if ok && rawK[i].Valid {
			result.K.Set(i, k)
		}
	}

	smoothedD := CalculateSMA(result.K.Floats(), s.smoothD)
	for i := 0; i < n; i++ {
		d, ok := smoothedD.At(i)
		if ok && result.K[i].Valid {
			result.D.Set(i, d)
		}
	}

	return result
}
