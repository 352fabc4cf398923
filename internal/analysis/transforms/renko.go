package transforms

import (
	"stocklab/internal/analysis/indicators"
	"stocklab/internal/models"
)

// DefaultBrickSize returns the Renko brick size used when the caller does
// not supply one: max(0.8 * ATR14, 0.25% of the last close).
func DefaultBrickSize(bars []models.Bar) float64 {
	if len(bars) == 0 {
		return 0
	}
	lastClose := bars[len(bars)-1].Close
	size := lastClose * 0.0025

	atr := indicators.NewATR(14).Calculate(bars)
	if v, ok := atr.Last(); ok && 0.8*v > size {
		size = 0.8 * v
	}
	return size
}

// Renko aggregates the series into Renko bricks of the given size; a
// non-positive size falls back to DefaultBrickSize. Each emitted bar is
// one brick: open at the previous boundary, close exactly one brick away,
// stamped with the date and volume of the source bar that produced it. A
// single input bar can emit zero or many bricks. If no bricks form at all
// the most recent raw bar is returned unchanged so downstream charting
// never sees an empty series.
func Renko(bars []models.Bar, brickSize float64) []models.Bar {
	if len(bars) == 0 {
		return nil
	}
	if brickSize <= 0 {
		brickSize = DefaultBrickSize(bars)
	}
	if brickSize <= 0 {
		return []models.Bar{bars[len(bars)-1]}
	}

	var bricks []models.Bar
	boundary := bars[0].Close

	for _, bar := range bars[1:] {
		for bar.Close-boundary >= brickSize {
			bricks = append(bricks, brick(bar, boundary, boundary+brickSize))
			boundary += brickSize
		}
		for boundary-bar.Close >= brickSize {
			bricks = append(bricks, brick(bar, boundary, boundary-brickSize))
			boundary -= brickSize
		}
	}

	if len(bricks) == 0 {
		return []models.Bar{bars[len(bars)-1]}
	}
	return bricks
}

func brick(src models.Bar, open, close float64) models.Bar {
	high, low := close, open
	if open > close {
		high, low = open, close
	}
	return models.Bar{
		Date:   src.Date,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  close,
		Volume: src.Volume,
	}
}
