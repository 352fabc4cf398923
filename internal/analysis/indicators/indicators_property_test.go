package indicators

import (
	"fmt"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"stocklab/internal/models"
)

// barGen generates valid bar data with realistic OHLCV values
func barGen() gopter.Gen {
	return gen.Struct(reflect.TypeOf(models.Bar{}), map[string]gopter.Gen{
		"Open":   gen.Float64Range(100.0, 1000.0),
		"High":   gen.Float64Range(100.0, 1000.0),
		"Low":    gen.Float64Range(100.0, 1000.0),
		"Close":  gen.Float64Range(100.0, 1000.0),
		"Volume": gen.Float64Range(1000, 10000000),
	}).Map(func(b models.Bar) models.Bar {
		return fixBar(b)
	})
}

// fixBar enforces the OHLC ordering constraints after generation and
// after shrinking.
func fixBar(b models.Bar) models.Bar {
	if b.Open <= 0 {
		b.Open = 100.0
	}
	if b.Close <= 0 {
		b.Close = 100.0
	}
	b.High = math.Max(b.High, math.Max(b.Open, b.Close))
	b.Low = math.Min(b.Low, math.Min(b.Open, b.Close))
	if b.Low <= 0 {
		b.Low = math.Min(b.Open, b.Close)
	}
	if b.Low > b.High {
		b.Low, b.High = b.High, b.Low
	}
	if b.High <= b.Low {
		b.High = b.Low + 1.0
	}
	return b
}

// barSliceGen generates a slice of valid bars with ascending dates
func barSliceGen(minLen, maxLen int) gopter.Gen {
	return gen.SliceOfN(maxLen, barGen()).Map(func(bars []models.Bar) []models.Bar {
		if len(bars) == 0 {
			bars = append(bars, fixBar(models.Bar{}))
		}
		for len(bars) < minLen {
			bars = append(bars, bars[len(bars)-1])
		}
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		for i := range bars {
			bars[i] = fixBar(bars[i])
			bars[i].Date = base.AddDate(0, 0, i).Format("2006-01-02")
		}
		return bars
	})
}

func TestProperty_AllOutputsAlignedWithInput(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("every indicator series has the input length", prop.ForAll(
		func(bars []models.Bar) bool {
			n := len(bars)

			if len(NewSMA(20).Calculate(bars)) != n {
				return false
			}
			if len(NewEMA(20).Calculate(bars)) != n {
				return false
			}
			if len(NewWMA(20).Calculate(bars)) != n {
				return false
			}
			if len(NewRSI(14).Calculate(bars)) != n {
				return false
			}
			if len(NewATR(14).Calculate(bars)) != n {
				return false
			}
			if len(NewVWAP().Calculate(bars)) != n {
				return false
			}
			if len(NewOBV().Calculate(bars)) != n {
				return false
			}

			macd := NewMACD(12, 26, 9).Calculate(bars)
			if len(macd.MACD) != n || len(macd.Signal) != n || len(macd.Histogram) != n {
				return false
			}
			stoch := NewStochastic(14, 3, 3).Calculate(bars)
			if len(stoch.K) != n || len(stoch.D) != n {
				return false
			}
			dmi := NewADX(14).Calculate(bars)
			if len(dmi.ADX) != n || len(dmi.PlusDI) != n || len(dmi.MinusDI) != n {
				return false
			}
			bands := NewBollingerBands(20, 2).Calculate(bars)
			if len(bands.Upper) != n || len(bands.Middle) != n || len(bands.Lower) != n {
				return false
			}
			ich := NewIchimoku(9, 26, 52, 26).Calculate(bars)
			if len(ich.Tenkan) != n || len(ich.Kijun) != n ||
				len(ich.SenkouA) != n || len(ich.SenkouB) != n || len(ich.Chikou) != n {
				return false
			}
			return true
		},
		barSliceGen(0, 80),
	))

	properties.TestingRun(t)
}

func TestProperty_SMAWarmupRegion(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("SMA is undefined before the window fills and defined after", prop.ForAll(
		func(bars []models.Bar) bool {
			period := 10
			out := NewSMA(period).Calculate(bars)
			for i := range out {
				_, ok := out.At(i)
				if i < period-1 && ok {
					return false
				}
				if i >= period-1 && !ok {
					return false
				}
			}
			return true
		},
		barSliceGen(15, 60),
	))

	properties.TestingRun(t)
}

func TestProperty_EMASeedEqualsSMA(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("EMA seed equals the simple average of the first period values", prop.ForAll(
		func(bars []models.Bar) bool {
			period := 10
			closes := models.Closes(bars)
			ema := CalculateEMA(closes, period)
			sma := CalculateSMA(closes, period)

			e, okE := ema.At(period - 1)
			s, okS := sma.At(period - 1)
			if !okE || !okS {
				return false
			}
			return math.Abs(e-s) < 1e-9
		},
		barSliceGen(15, 60),
	))

	properties.TestingRun(t)
}

func TestProperty_RSIWithinBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("RSI values are within [0, 100]", prop.ForAll(
		func(bars []models.Bar) bool {
			out := NewRSI(14).Calculate(bars)
			for i := range out {
				if v, ok := out.At(i); ok {
					if v < 0 || v > 100 || math.IsNaN(v) {
						return false
					}
				}
			}
			return true
		},
		barSliceGen(20, 100),
	))

	properties.TestingRun(t)
}

func TestProperty_StochasticWithinBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("Stochastic %K and %D values are within [0, 100]", prop.ForAll(
		func(bars []models.Bar) bool {
			stoch := NewStochastic(14, 3, 3).Calculate(bars)
			for i := range stoch.K {
				if v, ok := stoch.K.At(i); ok && (v < 0 || v > 100 || math.IsNaN(v)) {
					return false
				}
				if v, ok := stoch.D.At(i); ok && (v < 0 || v > 100 || math.IsNaN(v)) {
					return false
				}
			}
			return true
		},
		barSliceGen(20, 100),
	))

	properties.TestingRun(t)
}

func TestProperty_ADXAndDIWithinBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("ADX, +DI and -DI values are within [0, 100]", prop.ForAll(
		func(bars []models.Bar) bool {
			dmi := NewADX(14).Calculate(bars)
			check := func(v float64, ok bool) bool {
				return !ok || (v >= 0 && v <= 100 && !math.IsNaN(v))
			}
			for i := range dmi.ADX {
				a, okA := dmi.ADX.At(i)
				p, okP := dmi.PlusDI.At(i)
				m, okM := dmi.MinusDI.At(i)
				if !check(a, okA) || !check(p, okP) || !check(m, okM) {
					return false
				}
			}
			return true
		},
		barSliceGen(35, 120),
	))

	properties.TestingRun(t)
}

func TestProperty_BollingerBandOrdering(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("lower <= middle <= upper wherever the bands are defined", prop.ForAll(
		func(bars []models.Bar) bool {
			bands := NewBollingerBands(20, 2).Calculate(bars)
			for i := range bands.Middle {
				u, okU := bands.Upper.At(i)
				m, okM := bands.Middle.At(i)
				l, okL := bands.Lower.At(i)
				if okU != okM || okM != okL {
					return false
				}
				if okM && (l > m+1e-9 || m > u+1e-9) {
					return false
				}
			}
			return true
		},
		barSliceGen(25, 100),
	))

	properties.TestingRun(t)
}

func TestProperty_VWAPWithinTypicalPriceRange(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("VWAP stays between the lowest and highest typical price seen so far", prop.ForAll(
		func(bars []models.Bar) bool {
			out := NewVWAP().Calculate(bars)
			lo := math.Inf(1)
			hi := math.Inf(-1)
			for i := range out {
				tp := bars[i].TypicalPrice()
				lo = math.Min(lo, tp)
				hi = math.Max(hi, tp)
				if v, ok := out.At(i); ok {
					if v < lo-1e-6 || v > hi+1e-6 {
						return false
					}
				}
			}
			return true
		},
		barSliceGen(5, 60),
	))

	properties.TestingRun(t)
}

func TestProperty_VolumeProfilePercentsSumTo100(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("bin percentages sum to 100 and the POC has the largest volume", prop.ForAll(
		func(bars []models.Bar) bool {
			result := NewVolumeProfile(12).Calculate(bars)
			if len(result.Bins) == 0 {
				return true
			}
			var total float64
			for _, b := range result.Bins {
				total += b.Percent
			}
			if math.Abs(total-100) > 1e-6 {
				return false
			}
			poc, ok := result.POC()
			if !ok {
				return false
			}
			for _, b := range result.Bins {
				if b.Volume > poc.Volume {
					return false
				}
			}
			return true
		},
		barSliceGen(5, 80),
	))

	properties.TestingRun(t)
}

// Guards the engine against name collisions when registering periods
// programmatically.
func TestProperty_IndicatorNamesIncludePeriod(t *testing.T) {
	for _, period := range []int{5, 9, 14, 20, 50, 200} {
		want := fmt.Sprintf("SMA_%d", period)
		if got := NewSMA(period).Name(); got != want {
			t.Errorf("SMA name = %q, want %q", got, want)
		}
		want = fmt.Sprintf("RSI_%d", period)
		if got := NewRSI(period).Name(); got != want {
			t.Errorf("RSI name = %q, want %q", got, want)
		}
	}
}
