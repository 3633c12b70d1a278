package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# derivscan Configuration

[analysis]
# Strikes to select strictly above the reference price
k_above = 3
# Strikes to select strictly below the reference price
k_below = 3
# Contraction threshold for the drawdown crossing check, in percent
reduction_threshold_pct = 50.0
# Tie-break fields, checked for presence in order
priority_fields = ["close", "open", "high", "low", "last"]

[catalog]
# SQLite catalog database path
db_path = "~/.config/derivscan/catalog.db"

[report]
# Directory for generated reports
output_dir = "~/.config/derivscan/reports"
# Report format: "xlsx" or "csv"
format = "xlsx"

[logging]
# Log level: debug, info, warn, error
level = "info"
# Also write logs to a rotating file
file = true
`

// createTemplateConfig writes a commented config.toml the user can edit.
func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	return os.WriteFile(path, []byte(configTemplate), 0644)
}
