package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"stocklab/internal/analysis/mtf"
	"stocklab/internal/models"
)

func newMTFCmd(app *App) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "mtf <symbol>",
		Short: "Compare signals across daily, weekly and monthly timeframes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := args[0]
			output := NewOutput(cmd)

			barsByTimeframe := make(map[mtf.Timeframe][]models.Bar)
			for _, tf := range mtf.AllTimeframes() {
				bars, err := app.LoadBars(cmd.Context(), symbol, string(tf), days)
				if err != nil {
					app.Logger.Warn().Err(err).Str("timeframe", string(tf)).Msg("timeframe fetch failed")
					continue
				}
				barsByTimeframe[tf] = bars
			}
			if len(barsByTimeframe) == 0 {
				return fmt.Errorf("no history available for %s", symbol)
			}

			comparison := mtf.SummarizeAll(cmd.Context(), barsByTimeframe)

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"symbol":     symbol,
					"comparison": comparison,
				})
			}

			table := NewTable(output, "Timeframe", "Signal", "Score", "Close", "SMA20", "EMA20", "RSI14", "MACD")
			for _, row := range comparison.Rows {
				table.AddRow(
					string(row.Timeframe),
					colorDirection(output, row.Signal),
					fmt.Sprintf("%d/4", row.Score),
					FormatPrice(row.Close),
					FormatValue(row.SMA20),
					FormatValue(row.EMA20),
					FormatValue(row.RSI14),
					FormatValue(row.MACD),
				)
			}
			table.Render()

			output.Println()
			output.Printf("bullish %d  bearish %d  neutral %d\n",
				comparison.Bullish, comparison.Bearish, comparison.Neutral)

			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "lookback window in calendar days")

	return cmd
}
