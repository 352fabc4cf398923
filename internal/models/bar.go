// Package models provides domain models for the stock research engine.
package models

import (
	"math"
	"sort"
)

// RawBar is one OHLCV row as delivered by a history provider. Optional
// fields are pointers so that absent and null values survive decoding.
type RawBar struct {
	Date   string   `json:"date"`
	Open   *float64 `json:"open"`
	High   *float64 `json:"high"`
	Low    *float64 `json:"low"`
	Close  *float64 `json:"close"`
	Volume *float64 `json:"volume"`
}

// Bar is one canonical OHLCV point of a normalized series. Date is an
// ISO-8601 calendar date, so lexicographic order equals chronological order.
type Bar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// TypicalPrice returns (H+L+C)/3 for the bar.
func (b Bar) TypicalPrice() float64 {
	return (b.High + b.Low + b.Close) / 3
}

// Normalize validates and repairs raw provider rows into a canonical
// ascending-by-date series. Rows with an empty date or a non-finite close
// are dropped; open/high/low fall back to close and volume to zero; rows
// sharing a date collapse to the last one seen. The input is not mutated.
func Normalize(rows []RawBar) []Bar {
	bars := make([]Bar, 0, len(rows))
	for _, row := range rows {
		if row.Date == "" {
			continue
		}
		close, ok := finite(row.Close)
		if !ok {
			continue
		}
		bar := Bar{Date: row.Date, Close: close}
		if v, ok := finite(row.Open); ok {
			bar.Open = v
		} else {
			bar.Open = close
		}
		if v, ok := finite(row.High); ok {
			bar.High = v
		} else {
			bar.High = close
		}
		if v, ok := finite(row.Low); ok {
			bar.Low = v
		} else {
			bar.Low = close
		}
		if v, ok := finite(row.Volume); ok {
			bar.Volume = v
		}
		bars = append(bars, bar)
	}

	// Stable sort keeps input order within a date so last-wins below is
	// well defined for unsorted duplicates too.
	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Date < bars[j].Date
	})

	out := bars[:0]
	for _, bar := range bars {
		if n := len(out); n > 0 && out[n-1].Date == bar.Date {
			out[n-1] = bar
			continue
		}
		out = append(out, bar)
	}
	return out
}

// Closes extracts close prices from bars.
func Closes(bars []Bar) []float64 {
	prices := make([]float64, len(bars))
	for i, b := range bars {
		prices[i] = b.Close
	}
	return prices
}

// Highs extracts high prices from bars.
func Highs(bars []Bar) []float64 {
	prices := make([]float64, len(bars))
	for i, b := range bars {
		prices[i] = b.High
	}
	return prices
}

// Lows extracts low prices from bars.
func Lows(bars []Bar) []float64 {
	prices := make([]float64, len(bars))
	for i, b := range bars {
		prices[i] = b.Low
	}
	return prices
}

func finite(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	if math.IsNaN(*p) || math.IsInf(*p, 0) {
		return 0, false
	}
	return *p, true
}
