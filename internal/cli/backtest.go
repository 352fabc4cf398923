package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"stocklab/internal/trading"
)

func newBacktestCmd(app *App) *cobra.Command {
	var (
		days      int
		timeframe string
		fast      int
		slow      int
		capital   float64
		showCurve bool
	)

	cmd := &cobra.Command{
		Use:   "backtest <symbol>",
		Short: "Backtest a moving-average crossover strategy",
		Long: `Runs a long-only SMA crossover backtest over the fetched history.
A bullish cross of the fast average over the slow one buys with all
available capital; a bearish cross sells the whole position.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := args[0]
			output := NewOutput(cmd)

			if fast <= 0 {
				fast = app.Config.Analysis.FastPeriod
			}
			if slow <= 0 {
				slow = app.Config.Analysis.SlowPeriod
			}
			if capital <= 0 {
				capital = app.Config.Analysis.InitialCapital
			}
			if fast >= slow {
				return fmt.Errorf("fast period (%d) must be less than slow period (%d)", fast, slow)
			}

			bars, err := app.LoadBars(cmd.Context(), symbol, timeframe, days)
			if err != nil {
				return err
			}

			result := trading.RunCrossover(bars, trading.CrossoverConfig{
				FastPeriod:     fast,
				SlowPeriod:     slow,
				InitialCapital: capital,
			})

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"symbol": symbol,
					"fast":   fast,
					"slow":   slow,
					"result": result,
				})
			}

			output.Bold("%s  SMA %d/%d crossover  (%d bars)", symbol, fast, slow, len(bars))
			output.Println()

			table := NewTable(output, "Metric", "Value")
			table.AddRow("Initial capital", FormatPrice(capital))
			table.AddRow("Final equity", FormatPrice(result.FinalEquity))
			// Result ratios are already in percent units.
			table.AddRow("Total return", output.FormatSignedPercent(result.TotalReturn))
			table.AddRow("CAGR", output.FormatSignedPercent(result.CAGR))
			table.AddRow("Max drawdown", fmt.Sprintf("%.2f%%", result.MaxDrawdown))
			table.AddRow("Trades", fmt.Sprintf("%d", result.TradeCount))
			table.AddRow("Win rate", fmt.Sprintf("%.1f%%", result.WinRate))
			table.Render()

			if len(result.Trades) > 0 {
				output.Println()
				trades := NewTable(output, "Entry", "Exit", "In", "Out", "Return")
				for _, t := range result.Trades {
					trades.AddRow(
						t.EntryDate,
						t.ExitDate,
						FormatPrice(t.EntryPrice),
						FormatPrice(t.ExitPrice),
						output.FormatSignedPercent(t.ReturnPercent),
					)
				}
				trades.Render()
			}

			if showCurve {
				output.Println()
				output.Println(EquityCurveASCII(result.EquityCurve, 60, 12))
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "lookback window in calendar days")
	cmd.Flags().StringVar(&timeframe, "timeframe", "1d", "bar timeframe (1d, 1wk, 1mo)")
	cmd.Flags().IntVar(&fast, "fast", 0, "fast SMA period")
	cmd.Flags().IntVar(&slow, "slow", 0, "slow SMA period")
	cmd.Flags().Float64Var(&capital, "capital", 0, "initial capital")
	cmd.Flags().BoolVar(&showCurve, "curve", false, "render an ASCII equity curve")

	return cmd
}
