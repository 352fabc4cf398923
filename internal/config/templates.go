package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# stocklab configuration

[provider]
# History provider base URL
base_url = "https://query1.finance.yahoo.com"
# HTTP timeout (e.g. "15s")
timeout = "15s"
# Retry attempts for transient failures
max_retries = 3
# Outbound request rate
requests_per_second = 2.0

[cache]
# Cache fetched bars in a local SQLite database
enabled = true
# Database path (defaults to the config directory)
path = ""
# Re-fetch history older than this (e.g. "12h")
max_age = "12h"

[analysis]
# Default history window in calendar days
default_lookback = 365
# Volume profile bin count
profile_bins = 12
# Backtest starting capital
initial_capital = 10000.0
# Crossover periods
fast_period = 20
slow_period = 50

[logging]
level = "info"
console = true
file = true
# Log file path (defaults to the config directory)
file_path = ""
max_size = 100
max_backups = 7
max_age = 30

[ui]
color_enabled = true
date_format = "2006-01-02"
`

// writeTemplate creates the config directory and a commented template the
// user can edit. Defaults remain in effect until they do.
func writeTemplate(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
