package indicators

import (
	"fmt"

	"stocklab/internal/models"
	"stocklab/internal/series"
)

// VWAP calculates the cumulative Volume Weighted Average Price from the
// start of the supplied window. Callers slice the series to the session or
// range they care about; this is not a rolling window.
type VWAP struct{}

// NewVWAP creates a new VWAP indicator.
func NewVWAP() *VWAP {
	return &VWAP{}
}

func (v *VWAP) Name() string {
	return "VWAP"
}

func (v *VWAP) MinBars() int {
	return 1
}

func (v *VWAP) Calculate(bars []models.Bar) series.Series {
	out := series.Make(len(bars))
	var cumPV, cumVol float64
	for i, bar := range bars {
		cumPV += bar.TypicalPrice() * bar.Volume
		cumVol += bar.Volume
		if cumVol > 0 {
			out.Set(i, cumPV/cumVol)
		}
	}
	return out
}

// OBV calculates On-Balance Volume, the running volume total signed by the
// direction of each close-to-close move.
type OBV struct{}

// NewOBV creates a new OBV indicator.
func NewOBV() *OBV {
	return &OBV{}
}

func (o *OBV) Name() string {
	return "OBV"
}

func (o *OBV) MinBars() int {
	return 1
}

func (o *OBV) Calculate(bars []models.Bar) series.Series {
	out := series.Make(len(bars))
	if len(bars) == 0 {
		return out
	}
	var obv float64
	out.Set(0, obv)
	for i := 1; i < len(bars); i++ {
		switch {
		case bars[i].Close > bars[i-1].Close:
			obv += bars[i].Volume
		case bars[i].Close < bars[i-1].Close:
			obv -= bars[i].Volume
		}
		out.Set(i, obv)
	}
	return out
}

// DefaultProfileBins is the default bin count for the volume profile.
const DefaultProfileBins = 12

// ProfileBin is one price bucket of a volume profile.
type ProfileBin struct {
	From    float64
	To      float64
	Mid     float64
	Volume  float64
	Percent float64
}

// VolumeProfileResult holds the histogram of traded volume by price.
// PointOfControl indexes the bin with the maximum volume (the first such
// bin on ties); it is -1 for an empty profile.
type VolumeProfileResult struct {
	Bins           []ProfileBin
	PointOfControl int
}

// POC returns the point-of-control bin.
func (r *VolumeProfileResult) POC() (ProfileBin, bool) {
	if r.PointOfControl < 0 || r.PointOfControl >= len(r.Bins) {
		return ProfileBin{}, false
	}
	return r.Bins[r.PointOfControl], true
}

// VolumeProfile builds a fixed-bin histogram of traded volume by price
// over the full [min(low), max(high)] range of the series.
type VolumeProfile struct {
	bins int
}

// NewVolumeProfile creates a volume profile with the given bin count;
// non-positive counts fall back to the default.
func NewVolumeProfile(bins int) *VolumeProfile {
	if bins <= 0 {
		bins = DefaultProfileBins
	}
	return &VolumeProfile{bins: bins}
}

func (p *VolumeProfile) Name() string {
	return fmt.Sprintf("VolumeProfile_%d", p.bins)
}

func (p *VolumeProfile) Calculate(bars []models.Bar) *VolumeProfileResult {
	result := &VolumeProfileResult{PointOfControl: -1}
	if len(bars) == 0 {
		return result
	}

	low := bars[0].Low
	high := bars[0].High
	var total float64
	for _, bar := range bars {
		if bar.Low < low {
			low = bar.Low
		}
		if bar.High > high {
			high = bar.High
		}
		total += bar.Volume
	}

	if high == low {
		// Degenerate flat range: one bin holding everything.
		percent := 0.0
		if total > 0 {
			percent = 100
		}
		result.Bins = []ProfileBin{{From: low, To: high, Mid: low, Volume: total, Percent: percent}}
		result.PointOfControl = 0
		return result
	}

	width := (high - low) / float64(p.bins)
	result.Bins = make([]ProfileBin, p.bins)
	for i := range result.Bins {
		from := low + float64(i)*width
		result.Bins[i] = ProfileBin{
			From: from,
			To:   from + width,
			Mid:  from + width/2,
		}
	}

	// Each bar's volume goes to the bin containing its close.
	for _, bar := range bars {
		idx := int((bar.Close - low) / width)
		if idx < 0 {
			idx = 0
		}
		if idx >= p.bins {
			idx = p.bins - 1
		}
		result.Bins[idx].Volume += bar.Volume
	}

	for i := range result.Bins {
		if total > 0 {
			result.Bins[i].Percent = result.Bins[i].Volume / total * 100
		}
		if result.PointOfControl < 0 || result.Bins[i].Volume > result.Bins[result.PointOfControl].Volume {
			result.PointOfControl = i
		}
	}

	return result
}
