package patterns

import (
	"fmt"
	"math"

	"stocklab/internal/analysis"
	"stocklab/internal/models"
)

const (
	// minPatternBars is the minimum history before any pattern detection.
	minPatternBars = 60
	// triangleWindow limits triangle construction to recent pivots.
	triangleWindow = 80

	headShoulderRatio   = 1.03
	shoulderSymmetryMax = 0.08
	doubleTolerancePct  = 0.03
	flatSlopeThreshold  = 0.001
	trendSlopeThreshold = 0.0007
	maxDetectedPatterns = 4
)

// Detector detects chart patterns from pivot structure.
type Detector struct{}

// NewDetector creates a chart pattern detector.
func NewDetector() *Detector {
	return &Detector{}
}

// Detect scans the series for head-and-shoulders, double top/bottom and
// triangle formations. Detection order is fixed and at most four signals
// are returned. Fewer than 60 bars yields no signals.
func (d *Detector) Detect(bars []models.Bar) []analysis.Pattern {
	if len(bars) < minPatternBars {
		return nil
	}

	pivots := FindPivots(bars)
	highs := pivotHighs(pivots)
	lows := pivotLows(pivots)

	var out []analysis.Pattern
	if p := d.detectHeadAndShoulders(highs); p != nil {
		out = append(out, *p)
	}
	if p := d.detectDouble(highs, true); p != nil {
		out = append(out, *p)
	}
	if p := d.detectDouble(lows, false); p != nil {
		out = append(out, *p)
	}
	if p := d.detectTriangle(bars, highs, lows); p != nil {
		out = append(out, *p)
	}

	if len(out) > maxDetectedPatterns {
		out = out[:maxDetectedPatterns]
	}
	return out
}

// detectHeadAndShoulders checks the last three pivot highs for a bearish
// head-and-shoulders: the head clears both shoulders by 3% and the
// shoulders sit within 8% of each other relative to the head.
func (d *Detector) detectHeadAndShoulders(highs []Pivot) *analysis.Pattern {
	if len(highs) < 3 {
		return nil
	}
	h1 := highs[len(highs)-3].Price
	h2 := highs[len(highs)-2].Price
	h3 := highs[len(highs)-1].Price

	if h2 <= headShoulderRatio*h1 || h2 <= headShoulderRatio*h3 {
		return nil
	}
	symmetry := math.Abs(h1-h3) / h2
	if symmetry >= shoulderSymmetryMax {
		return nil
	}

	headMargin := math.Min(h2/h1, h2/h3) - headShoulderRatio
	confidence := clamp01(0.5 + 5*headMargin + 2.5*(shoulderSymmetryMax-symmetry))

	return &analysis.Pattern{
		Name:        "Head and Shoulders",
		Direction:   analysis.Bearish,
		Confidence:  confidence,
		Description: fmt.Sprintf("head %.2f above shoulders %.2f / %.2f", h2, h1, h3),
	}
}

// detectDouble checks the last two pivot highs (or lows) for a double
// top (bottom): the two extremes within 3% of each other.
func (d *Detector) detectDouble(pivots []Pivot, top bool) *analysis.Pattern {
	if len(pivots) < 2 {
		return nil
	}
	a := pivots[len(pivots)-2].Price
	b := pivots[len(pivots)-1].Price
	ref := math.Max(a, b)
	if ref == 0 {
		return nil
	}
	diff := math.Abs(a-b) / ref
	if diff >= doubleTolerancePct {
		return nil
	}

	name := "Double Top"
	direction := analysis.Bearish
	if !top {
		name = "Double Bottom"
		direction = analysis.Bullish
	}

	return &analysis.Pattern{
		Name:        name,
		Direction:   direction,
		Confidence:  clamp01(1 - diff/doubleTolerancePct*0.5),
		Description: fmt.Sprintf("two pivots at %.2f and %.2f within %.1f%%", a, b, diff*100),
	}
}

// detectTriangle fits least-squares trendlines through the last five
// recent pivot highs and lows and classifies the pair of slopes.
func (d *Detector) detectTriangle(bars []models.Bar, highs, lows []Pivot) *analysis.Pattern {
	lastClose := bars[len(bars)-1].Close
	if lastClose == 0 {
		return nil
	}

	cutoff := len(bars) - triangleWindow
	recentHighs := lastN(recentPivots(highs, cutoff), 5)
	recentLows := lastN(recentPivots(lows, cutoff), 5)
	if len(recentHighs) < 3 || len(recentLows) < 3 {
		return nil
	}

	highSlope := regressionSlope(recentHighs) / lastClose
	lowSlope := regressionSlope(recentLows) / lastClose

	flatHigh := math.Abs(highSlope) < flatSlopeThreshold
	fallingHigh := highSlope < -trendSlopeThreshold
	flatLow := math.Abs(lowSlope) < flatSlopeThreshold
	risingLow := lowSlope > trendSlopeThreshold

	var name string
	var direction analysis.Signal
	var slack float64

	switch {
	case flatHigh && risingLow:
		name = "Ascending Triangle"
		direction = analysis.Bullish
		slack = math.Min(flatSlack(highSlope), trendSlack(lowSlope))
	case fallingHigh && risingLow:
		name = "Symmetrical Triangle"
		direction = analysis.Neutral
		slack = math.Min(trendSlack(-highSlope), trendSlack(lowSlope))
	case fallingHigh && flatLow:
		name = "Descending Triangle"
		direction = analysis.Bearish
		slack = math.Min(trendSlack(-highSlope), flatSlack(lowSlope))
	default:
		return nil
	}

	return &analysis.Pattern{
		Name:        name,
		Direction:   direction,
		Confidence:  clamp01(0.5 + 0.5*slack),
		Description: fmt.Sprintf("high slope %.5f, low slope %.5f (normalized)", highSlope, lowSlope),
	}
}

// regressionSlope fits a least-squares line through (index, price) pairs.
func regressionSlope(pivots []Pivot) float64 {
	n := float64(len(pivots))
	var sumX, sumY, sumXY, sumXX float64
	for _, p := range pivots {
		x := float64(p.Index)
		sumX += x
		sumY += p.Price
		sumXY += x * p.Price
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

func recentPivots(pivots []Pivot, cutoff int) []Pivot {
	var recent []Pivot
	for _, p := range pivots {
		if p.Index >= cutoff {
			recent = append(recent, p)
		}
	}
	return recent
}

func lastN(pivots []Pivot, n int) []Pivot {
	if len(pivots) <= n {
		return pivots
	}
	return pivots[len(pivots)-n:]
}

// flatSlack measures how comfortably a normalized slope sits inside the
// flatness threshold, in [0, 1].
func flatSlack(slope float64) float64 {
	return clamp01((flatSlopeThreshold - math.Abs(slope)) / flatSlopeThreshold)
}

// trendSlack measures how far past the directional threshold a normalized
// slope is, capped at 1.
func trendSlack(slope float64) float64 {
	return clamp01((slope - trendSlopeThreshold) / trendSlopeThreshold)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
