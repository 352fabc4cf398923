package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"stocklab/internal/config"
	"stocklab/internal/logging"
	"stocklab/internal/models"
	"stocklab/internal/provider"
	"stocklab/internal/store"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Store    store.BarStore
	Provider provider.HistoryProvider
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	app.Provider = provider.NewYahooProvider(
		provider.WithBaseURL(cfg.Provider.BaseURL),
		provider.WithTimeout(cfg.Provider.Timeout),
		provider.WithMaxRetries(cfg.Provider.MaxRetries),
		provider.WithRateLimit(cfg.Provider.RequestsPerSecond),
		provider.WithLogger(logger),
	)

	if cfg.Cache.Enabled {
		barStore, err := store.NewSQLiteStore(cfg.Cache.Path)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to open bar cache, fetching without cache")
		} else {
			app.Store = barStore
			logger.Debug().Str("path", cfg.Cache.Path).Msg("bar cache opened")
		}
	}

	rootCmd := &cobra.Command{
		Use:   "stocklab",
		Short: "stocklab - technical analysis and backtesting CLI",
		Long: `stocklab analyzes OHLCV stock history: indicators, chart patterns,
support/resistance levels, volume profile, a moving-average crossover
backtester and a multi-timeframe summary.

Use 'stocklab help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/stocklab)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newAnalyzeCmd(app))
	rootCmd.AddCommand(newPatternsCmd(app))
	rootCmd.AddCommand(newProfileCmd(app))
	rootCmd.AddCommand(newBacktestCmd(app))
	rootCmd.AddCommand(newMTFCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"version": Version})
			} else {
				output.Printf("stocklab v%s\n", Version)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("configuration is valid")
			return nil
		},
	})

	return cmd
}

// timeframeInterval maps a timeframe name onto a provider interval string.
func timeframeInterval(timeframe string) (string, error) {
	switch timeframe {
	case "1d", "1wk", "1mo":
		return timeframe, nil
	default:
		return "", fmt.Errorf("unsupported timeframe %q (use 1d, 1wk or 1mo)", timeframe)
	}
}

// LoadBars returns normalized bars for the symbol, serving from the cache
// when the last provider fetch is fresh enough.
func (a *App) LoadBars(ctx context.Context, symbol, timeframe string, days int) ([]models.Bar, error) {
	interval, err := timeframeInterval(timeframe)
	if err != nil {
		return nil, err
	}
	if days <= 0 {
		days = a.Config.Analysis.DefaultLookback
	}

	if a.Store != nil {
		fetched, err := a.Store.LastFetched(ctx, symbol, timeframe)
		if err == nil && !fetched.IsZero() && time.Since(fetched) < a.Config.Cache.MaxAge {
			bars, err := a.Store.GetBars(ctx, symbol, timeframe, "", "")
			if err == nil && len(bars) > 0 {
				a.Logger.Debug().Str("symbol", symbol).Int("bars", len(bars)).Msg("serving bars from cache")
				return bars, nil
			}
		}
	}

	raw, err := a.Provider.FetchHistory(ctx, symbol, interval, provider.RangeForDays(days))
	if err != nil {
		return nil, err
	}
	bars := models.Normalize(raw)

	if a.Store != nil && len(bars) > 0 {
		if err := a.Store.SaveBars(ctx, symbol, timeframe, bars); err != nil {
			a.Logger.Warn().Err(err).Msg("failed to cache bars")
		} else if err := a.Store.SetLastFetched(ctx, symbol, timeframe, time.Now()); err != nil {
			a.Logger.Warn().Err(err).Msg("failed to record fetch time")
		}
	}

	return bars, nil
}
