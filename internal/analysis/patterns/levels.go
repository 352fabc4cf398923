package patterns

import (
	"math"
	"sort"

	"stocklab/internal/analysis"
	"stocklab/internal/models"
)

const (
	// minLevelBars is the minimum history before levels are computed.
	minLevelBars = 20
	// levelTolerancePct is the clustering band as a fraction of the
	// current close.
	levelTolerancePct = 0.015
	// maxLevels caps how many levels are reported per side.
	maxLevels = 3
)

type cluster struct {
	mean    float64
	touches int
}

// FindLevels clusters pivot prices into support and resistance levels
// around the current close. Pivots within 1.5% of a cluster's running
// mean join it; levels rank by touch count with nearer prices breaking
// ties, top three per side.
func FindLevels(bars []models.Bar) analysis.LevelSet {
	if len(bars) < minLevelBars {
		return analysis.LevelSet{}
	}

	currentClose := bars[len(bars)-1].Close
	tolerance := currentClose * levelTolerancePct

	pivots := FindPivots(bars)
	if len(pivots) == 0 {
		return analysis.LevelSet{}
	}

	prices := make([]float64, len(pivots))
	for i, p := range pivots {
		prices[i] = p.Price
	}
	sort.Float64s(prices)

	var clusters []cluster
	for _, price := range prices {
		best := -1
		bestDist := math.MaxFloat64
		for i, c := range clusters {
			dist := math.Abs(price - c.mean)
			if dist <= tolerance && dist < bestDist {
				best = i
				bestDist = dist
			}
		}
		if best < 0 {
			clusters = append(clusters, cluster{mean: price, touches: 1})
			continue
		}
		c := &clusters[best]
		c.mean = (c.mean*float64(c.touches) + price) / float64(c.touches+1)
		c.touches++
	}

	var supports, resistances []analysis.Level
	for _, c := range clusters {
		level := analysis.Level{Price: c.mean, Touches: c.touches}
		if c.mean < currentClose {
			supports = append(supports, level)
		} else if c.mean > currentClose {
			resistances = append(resistances, level)
		}
	}

	// Touch count first; ties go to the level nearer the current price.
	sort.Slice(supports, func(i, j int) bool {
		if supports[i].Touches != supports[j].Touches {
			return supports[i].Touches > supports[j].Touches
		}
		return supports[i].Price > supports[j].Price
	})
	sort.Slice(resistances, func(i, j int) bool {
		if resistances[i].Touches != resistances[j].Touches {
			return resistances[i].Touches > resistances[j].Touches
		}
		return resistances[i].Price < resistances[j].Price
	})

	if len(supports) > maxLevels {
		supports = supports[:maxLevels]
	}
	if len(resistances) > maxLevels {
		resistances = resistances[:maxLevels]
	}

	return analysis.LevelSet{Supports: supports, Resistances: resistances}
}
