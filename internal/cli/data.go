// Package cli provides the command-line interface for the market data toolkit.
package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"derivscan/internal/catalog"
	"derivscan/internal/logging"
)

// addDataCommands adds catalog ETL commands.
func addDataCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newImportCmd(app))
	rootCmd.AddCommand(newCatalogCmd(app))
}

func newImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>...",
		Short: "Load bulk contract CSV files into the catalog",
		Long: `Load one or more derivatives bulk CSV files into the local catalog.

Each file becomes a source batch named after the file. Malformed rows are
skipped and counted; re-importing a file overwrites its earlier batch.`,
		Example: `  derivscan import fo01JAN2026bhav.csv
  derivscan import data/*.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()

			cat, err := app.OpenCatalog()
			if err != nil {
				output.Error("Failed to open catalog: %v", err)
				return err
			}

			totalLoaded, totalSkipped := 0, 0
			for _, path := range args {
				res, err := catalog.ImportCSV(ctx, cat, app.Logger, path)
				if err != nil {
					output.Error("Failed to import %s: %v", path, err)
					return err
				}
				logging.LogIngest(app.Logger, res.File, res.Loaded, res.Skipped)
				totalLoaded += res.Loaded
				totalSkipped += res.Skipped
				if !output.IsJSON() {
					output.Printf("  %s: %d rows loaded, %d skipped\n", res.File, res.Loaded, res.Skipped)
				}
			}

			if output.IsJSON() {
				return output.JSON(map[string]int{
					"files":   len(args),
					"loaded":  totalLoaded,
					"skipped": totalSkipped,
				})
			}
			output.Success("✓ Imported %d files (%d rows, %d skipped)", len(args), totalLoaded, totalSkipped)
			return nil
		},
	}
}

func newCatalogCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the local instrument catalog",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show catalog contents summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			cat, err := app.OpenCatalog()
			if err != nil {
				output.Error("Failed to open catalog: %v", err)
				return err
			}

			count, err := cat.ContractCount(ctx)
			if err != nil {
				return err
			}
			symbols, err := cat.Symbols(ctx)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"contracts": count,
					"symbols":   symbols,
				})
			}

			output.Bold("Catalog Status")
			output.Printf("  Contracts: %d\n", count)
			output.Printf("  Symbols:   %d\n", len(symbols))
			for _, s := range symbols {
				output.Printf("    %s\n", s)
			}
			return nil
		},
	})

	return cmd
}
