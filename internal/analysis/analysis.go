// Package analysis provides shared types for technical analysis results:
// pattern signals, support/resistance levels, and timeframe summaries.
package analysis

// Signal represents the directional reading of a pattern or summary.
type Signal string

const (
	Bullish Signal = "Bullish"
	Bearish Signal = "Bearish"
	Neutral Signal = "Neutral"
)

// Pattern represents a detected chart pattern. Confidence is a
// deterministic measure of how closely the pattern's thresholds were met,
// not a probability.
type Pattern struct {
	Name        string
	Direction   Signal
	Confidence  float64
	Description string
}

// Level represents a support or resistance price level produced by pivot
// clustering. Touches counts the pivots merged into the level.
type Level struct {
	Price   float64
	Touches int
}

// LevelSet holds the ranked support and resistance levels for a series.
type LevelSet struct {
	Supports    []Level
	Resistances []Level
}
