// Package transforms provides alternative chart representations of a
// normalized OHLCV series: Heikin-Ashi recoloring and Renko brick
// aggregation.
package transforms

import (
	"stocklab/internal/models"
)

// HeikinAshi recomputes each bar as a Heikin-Ashi candle. The walk is
// strictly sequential: each HA open depends on the previous HA candle.
func HeikinAshi(bars []models.Bar) []models.Bar {
	out := make([]models.Bar, len(bars))
	if len(bars) == 0 {
		return out
	}

	for i, bar := range bars {
		haClose := (bar.Open + bar.High + bar.Low + bar.Close) / 4
		var haOpen float64
		if i == 0 {
			haOpen = (bar.Open + bar.Close) / 2
		} else {
			haOpen = (out[i-1].Open + out[i-1].Close) / 2
		}

		haHigh := bar.High
		if haOpen > haHigh {
			haHigh = haOpen
		}
		if haClose > haHigh {
			haHigh = haClose
		}
		haLow := bar.Low
		if haOpen < haLow {
			haLow = haOpen
		}
		if haClose < haLow {
			haLow = haClose
		}

		out[i] = models.Bar{
			Date:   bar.Date,
			Open:   haOpen,
			High:   haHigh,
			Low:    haLow,
			Close:  haClose,
			Volume: bar.Volume,
		}
	}

	return out
}
