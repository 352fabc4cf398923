package cli

import (
	"fmt"
	"strings"

	"stocklab/internal/series"
	"stocklab/internal/trading"
)

// FormatPrice formats a price with two decimals.
func FormatPrice(price float64) string {
	return fmt.Sprintf("%.2f", price)
}

// FormatPercent formats a ratio in [0,1] as a percentage.
func FormatPercent(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

// FormatVolume formats volume compactly (K/M/B).
func FormatVolume(volume float64) string {
	switch {
	case volume >= 1e9:
		return fmt.Sprintf("%.2fB", volume/1e9)
	case volume >= 1e6:
		return fmt.Sprintf("%.2fM", volume/1e6)
	case volume >= 1e3:
		return fmt.Sprintf("%.2fK", volume/1e3)
	default:
		return fmt.Sprintf("%.0f", volume)
	}
}

// FormatValue formats an optional series value, "-" when undefined.
func FormatValue(v series.Value) string {
	if !v.Valid {
		return "-"
	}
	return fmt.Sprintf("%.2f", v.Float64)
}

// TruncateString truncates a string to maxLen characters.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// PadRight pads a string on the right to the given length.
func PadRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

// PadLeft pads a string on the left to the given length.
func PadLeft(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return strings.Repeat(" ", length-len(s)) + s
}

// EquityCurveASCII renders an equity curve as an ASCII chart.
func EquityCurveASCII(curve []trading.EquityPoint, width, height int) string {
	if len(curve) == 0 || width <= 0 || height <= 0 {
		return "No data to display"
	}

	minEquity := curve[0].Equity
	maxEquity := curve[0].Equity
	for _, point := range curve {
		if point.Equity < minEquity {
			minEquity = point.Equity
		}
		if point.Equity > maxEquity {
			maxEquity = point.Equity
		}
	}

	equityRange := maxEquity - minEquity
	if equityRange == 0 {
		equityRange = 1
	}
	minEquity -= equityRange * 0.05
	maxEquity += equityRange * 0.05
	equityRange = maxEquity - minEquity

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = make([]rune, width)
		for j := range grid[i] {
			grid[i][j] = ' '
		}
	}

	step := len(curve) / width
	if step == 0 {
		step = 1
	}

	for x := 0; x < width && x*step < len(curve); x++ {
		point := curve[x*step]
		y := int((point.Equity - minEquity) / equityRange * float64(height-1))
		if y >= 0 && y < height {
			grid[height-1-y][x] = '█'
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Equity Curve (%.0f - %.0f)\n", minEquity, maxEquity))
	sb.WriteString(strings.Repeat("─", width+2) + "\n")
	for _, row := range grid {
		sb.WriteRune('│')
		sb.WriteString(string(row))
		sb.WriteRune('│')
		sb.WriteRune('\n')
	}
	sb.WriteString(strings.Repeat("─", width+2))

	return sb.String()
}
