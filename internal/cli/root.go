// Package cli provides the command-line interface for the market data toolkit.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"derivscan/internal/catalog"
	"derivscan/internal/config"
	"derivscan/internal/logging"
)

// Version information
const (
	Version   = "0.3.0"
	BuildDate = "2026-08-25"
)

// App holds the application dependencies.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Catalog catalog.Store
}

// OpenCatalog lazily opens the SQLite catalog.
func (a *App) OpenCatalog() (catalog.Store, error) {
	if a.Catalog != nil {
		return a.Catalog, nil
	}
	cat, err := catalog.NewSQLiteCatalog(a.Config.Catalog.DBPath, a.Config.Analysis.PriorityFields)
	if err != nil {
		return nil, err
	}
	a.Catalog = cat
	a.Logger.Debug().Str("path", a.Config.Catalog.DBPath).Msg("SQLite catalog opened")
	return cat, nil
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	rootCmd := &cobra.Command{
		Use:   "derivscan",
		Short: "derivscan - derivatives market data ETL and drawdown reporting",
		Long: `derivscan is an ETL and reporting toolkit for equity and derivatives market data.

It loads bulk contract files into a local catalog, selects strike neighborhoods
around reference prices, and detects large price contractions in contract
histories, producing spreadsheet or CSV reports.

Use 'derivscan help <command>' for more information about a command.`,
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
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Catalog != nil {
				app.Catalog.Close()
			}
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/derivscan)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addCoreCommands(rootCmd, app)
	addDataCommands(rootCmd, app)
	addAnalysisCommands(rootCmd, app)

	return rootCmd
}

func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("derivscan v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			return showConfig(output, app.Config)
		},
	})

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
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("✓ Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) error {
	output.Bold("Analysis Configuration")
	output.Printf("  Strikes Above:   %d\n", cfg.Analysis.KAbove)
	output.Printf("  Strikes Below:   %d\n", cfg.Analysis.KBelow)
	output.Printf("  Threshold:       %.1f%%\n", cfg.Analysis.ReductionThresholdPct)
	output.Printf("  Priority Fields: %v\n", cfg.Analysis.PriorityFields)
	output.Println()

	output.Bold("Catalog Configuration")
	output.Printf("  Database:        %s\n", cfg.Catalog.DBPath)
	output.Println()

	output.Bold("Report Configuration")
	output.Printf("  Output Dir:      %s\n", cfg.Report.OutputDir)
	output.Printf("  Format:          %s\n", cfg.Report.Format)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:           %s\n", cfg.Logging.Level)
	output.Printf("  File:            %v\n", cfg.Logging.File)

	return nil
}
