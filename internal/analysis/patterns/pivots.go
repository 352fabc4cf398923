// Package patterns provides chart pattern detection and support/resistance
// level extraction from pivot structure.
package patterns

import (
	"stocklab/internal/models"
)

// Pivot is a local price extremum over a symmetric window.
type Pivot struct {
	Index  int
	Price  float64
	IsHigh bool
}

// pivotWindow is the symmetric neighborhood a bar must strictly dominate
// to count as a pivot.
const pivotWindow = 3

// FindPivots extracts pivot highs and lows: a bar is a pivot high (low)
// only if its high (low) strictly dominates every bar within the window on
// both sides. Results are in index order.
func FindPivots(bars []models.Bar) []Pivot {
	var pivots []Pivot
	n := len(bars)

	for i := pivotWindow; i < n-pivotWindow; i++ {
		isHigh := true
		isLow := true
		for j := 1; j <= pivotWindow; j++ {
			if bars[i].High <= bars[i-j].High || bars[i].High <= bars[i+j].High {
				isHigh = false
			}
			if bars[i].Low >= bars[i-j].Low || bars[i].Low >= bars[i+j].Low {
				isLow = false
			}
			if !isHigh && !isLow {
				break
			}
		}
		if isHigh {
			pivots = append(pivots, Pivot{Index: i, Price: bars[i].High, IsHigh: true})
		}
		if isLow {
			pivots = append(pivots, Pivot{Index: i, Price: bars[i].Low, IsHigh: false})
		}
	}

	return pivots
}

// pivotHighs returns only the pivot highs.
func pivotHighs(pivots []Pivot) []Pivot {
	var highs []Pivot
	for _, p := range pivots {
		if p.IsHigh {
			highs = append(highs, p)
		}
	}
	return highs
}

// pivotLows returns only the pivot lows.
func pivotLows(pivots []Pivot) []Pivot {
	var lows []Pivot
	for _, p := range pivots {
		if !p.IsHigh {
			lows = append(lows, p)
		}
	}
	return lows
}
