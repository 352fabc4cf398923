package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"stocklab/internal/analysis"
	"stocklab/internal/analysis/indicators"
	"stocklab/internal/analysis/patterns"
	"stocklab/internal/analysis/transforms"
	"stocklab/internal/models"
	"stocklab/internal/series"
)

func newAnalyzeCmd(app *App) *cobra.Command {
	var (
		days       int
		timeframe  string
		heikinAshi bool
		renko      bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <symbol>",
		Short: "Calculate an indicator snapshot for a symbol",
		Long: `Fetches history and prints the latest value of the standard
indicator set: moving averages, RSI, MACD, stochastic, ADX, Bollinger
bands, VWAP, ATR, OBV and Ichimoku.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := args[0]
			output := NewOutput(cmd)

			bars, err := app.LoadBars(cmd.Context(), symbol, timeframe, days)
			if err != nil {
				return err
			}
			if len(bars) == 0 {
				return fmt.Errorf("no usable bars for %s", symbol)
			}

			if heikinAshi {
				bars = transforms.HeikinAshi(bars)
			}
			if renko {
				bars = transforms.Renko(bars, transforms.DefaultBrickSize(bars))
			}

			return runAnalyze(cmd, output, app, symbol, bars)
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "lookback window in calendar days")
	cmd.Flags().StringVar(&timeframe, "timeframe", "1d", "bar timeframe (1d, 1wk, 1mo)")
	cmd.Flags().BoolVar(&heikinAshi, "heikin-ashi", false, "analyze Heikin-Ashi bars")
	cmd.Flags().BoolVar(&renko, "renko", false, "analyze Renko bricks")

	return cmd
}

func runAnalyze(cmd *cobra.Command, output *Output, app *App, symbol string, bars []models.Bar) error {
	engine := indicators.NewEngine(4)
	engine.Register(indicators.NewSMA(20))
	engine.Register(indicators.NewSMA(50))
	engine.Register(indicators.NewEMA(20))
	engine.Register(indicators.NewWMA(20))
	engine.Register(indicators.NewRSI(14))
	engine.Register(indicators.NewATR(14))
	engine.Register(indicators.NewVWAP())
	engine.Register(indicators.NewOBV())

	results := engine.CalculateAll(cmd.Context(), bars)

	macd := indicators.NewMACD(12, 26, 9).Calculate(bars)
	stoch := indicators.NewStochastic(14, 3, 3).Calculate(bars)
	dmi := indicators.NewADX(14).Calculate(bars)
	bands := indicators.NewBollingerBands(20, 2).Calculate(bars)
	ichimoku := indicators.NewIchimoku(9, 26, 52, 26).Calculate(bars)

	last := bars[len(bars)-1]

	if output.IsJSON() {
		snapshot := map[string]interface{}{
			"symbol": symbol,
			"date":   last.Date,
			"close":  last.Close,
			"bars":   len(bars),
		}
		for name, s := range results {
			snapshot[name] = lastOrNil(s)
		}
		snapshot["MACD_12_26_9"] = map[string]interface{}{
			"macd":      lastOrNil(macd.MACD),
			"signal":    lastOrNil(macd.Signal),
			"histogram": lastOrNil(macd.Histogram),
		}
		snapshot["STOCH_14_3_3"] = map[string]interface{}{
			"k": lastOrNil(stoch.K),
			"d": lastOrNil(stoch.D),
		}
		snapshot["ADX_14"] = map[string]interface{}{
			"adx":      lastOrNil(dmi.ADX),
			"plus_di":  lastOrNil(dmi.PlusDI),
			"minus_di": lastOrNil(dmi.MinusDI),
		}
		snapshot["BB_20"] = map[string]interface{}{
			"upper":  lastOrNil(bands.Upper),
			"middle": lastOrNil(bands.Middle),
			"lower":  lastOrNil(bands.Lower),
		}
		snapshot["ICHIMOKU"] = map[string]interface{}{
			"tenkan":   lastOrNil(ichimoku.Tenkan),
			"kijun":    lastOrNil(ichimoku.Kijun),
			"senkou_a": lastOrNil(ichimoku.SenkouA),
			"senkou_b": lastOrNil(ichimoku.SenkouB),
		}
		return output.JSON(snapshot)
	}

	output.Bold("%s  %s  close %s  (%d bars)", symbol, last.Date, FormatPrice(last.Close), len(bars))
	output.Println()

	table := NewTable(output, "Indicator", "Value")
	for _, name := range engine.List() {
		table.AddRow(name, formatLast(results[name]))
	}
	table.AddRow("MACD_12_26_9", fmt.Sprintf("%s / %s / %s",
		formatLast(macd.MACD), formatLast(macd.Signal), formatLast(macd.Histogram)))
	table.AddRow("STOCH_14_3_3", fmt.Sprintf("%%K %s  %%D %s",
		formatLast(stoch.K), formatLast(stoch.D)))
	table.AddRow("ADX_14", fmt.Sprintf("%s  +DI %s  -DI %s",
		formatLast(dmi.ADX), formatLast(dmi.PlusDI), formatLast(dmi.MinusDI)))
	table.AddRow("BB_20", fmt.Sprintf("%s / %s / %s",
		formatLast(bands.Upper), formatLast(bands.Middle), formatLast(bands.Lower)))
	table.AddRow("ICHIMOKU", fmt.Sprintf("T %s  K %s  A %s  B %s",
		formatLast(ichimoku.Tenkan), formatLast(ichimoku.Kijun),
		formatLast(ichimoku.SenkouA), formatLast(ichimoku.SenkouB)))
	table.Render()

	return nil
}

func lastOrNil(s series.Series) interface{} {
	if v, ok := s.Last(); ok {
		return v
	}
	return nil
}

func formatLast(s series.Series) string {
	if v, ok := s.Last(); ok {
		return fmt.Sprintf("%.2f", v)
	}
	return "-"
}

func newPatternsCmd(app *App) *cobra.Command {
	var (
		days      int
		timeframe string
	)

	cmd := &cobra.Command{
		Use:   "patterns <symbol>",
		Short: "Detect chart patterns and support/resistance levels",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := args[0]
			output := NewOutput(cmd)

			bars, err := app.LoadBars(cmd.Context(), symbol, timeframe, days)
			if err != nil {
				return err
			}

			detector := patterns.NewDetector()
			detected := detector.Detect(bars)
			levels := patterns.FindLevels(bars)

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"symbol":   symbol,
					"patterns": detected,
					"levels":   levels,
				})
			}

			if len(detected) == 0 {
				output.Dim("no chart patterns detected")
			} else {
				table := NewTable(output, "Pattern", "Direction", "Confidence")
				for _, p := range detected {
					table.AddRow(p.Name, colorDirection(output, p.Direction), FormatPercent(p.Confidence))
				}
				table.Render()
			}

			output.Println()
			printLevels(output, levels)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "lookback window in calendar days")
	cmd.Flags().StringVar(&timeframe, "timeframe", "1d", "bar timeframe (1d, 1wk, 1mo)")

	return cmd
}

func printLevels(output *Output, levels analysis.LevelSet) {
	if len(levels.Supports) == 0 && len(levels.Resistances) == 0 {
		output.Dim("no support/resistance levels found")
		return
	}

	table := NewTable(output, "Type", "Price", "Touches")
	for _, l := range levels.Resistances {
		table.AddRow(output.Red("resistance"), FormatPrice(l.Price), fmt.Sprintf("%d", l.Touches))
	}
	for _, l := range levels.Supports {
		table.AddRow(output.Green("support"), FormatPrice(l.Price), fmt.Sprintf("%d", l.Touches))
	}
	table.Render()
}

func colorDirection(output *Output, d analysis.Signal) string {
	switch d {
	case analysis.Bullish:
		return output.Green(string(d))
	case analysis.Bearish:
		return output.Red(string(d))
	default:
		return output.Yellow(string(d))
	}
}

func newProfileCmd(app *App) *cobra.Command {
	var (
		days      int
		timeframe string
		bins      int
	)

	cmd := &cobra.Command{
		Use:   "profile <symbol>",
		Short: "Calculate the volume-by-price profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := args[0]
			output := NewOutput(cmd)

			bars, err := app.LoadBars(cmd.Context(), symbol, timeframe, days)
			if err != nil {
				return err
			}

			result := indicators.NewVolumeProfile(bins).Calculate(bars)

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"symbol":  symbol,
					"profile": result,
				})
			}

			if len(result.Bins) == 0 {
				output.Dim("no volume data")
				return nil
			}

			_, hasPOC := result.POC()
			table := NewTable(output, "Range", "Volume", "Share", "")
			for i, b := range result.Bins {
				marker := ""
				if hasPOC && i == result.PointOfControl {
					marker = output.Yellow("POC")
				}
				table.AddRow(
					fmt.Sprintf("%s - %s", FormatPrice(b.From), FormatPrice(b.To)),
					FormatVolume(b.Volume),
					fmt.Sprintf("%.1f%%", b.Percent),
					marker,
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "lookback window in calendar days")
	cmd.Flags().StringVar(&timeframe, "timeframe", "1d", "bar timeframe (1d, 1wk, 1mo)")
	cmd.Flags().IntVar(&bins, "bins", indicators.DefaultProfileBins, "price bin count")

	return cmd
}
