// Package cli provides the command-line interface for the market data toolkit.
package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"derivscan/internal/analysis/drawdown"
	"derivscan/internal/analysis/selector"
	"derivscan/internal/analysis/severity"
	"derivscan/internal/models"
	"derivscan/internal/report"
	"derivscan/internal/scan"
)

// addAnalysisCommands adds strike selection and drawdown analysis commands.
func addAnalysisCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newStrikesCmd(app))
	rootCmd.AddCommand(newDrawdownCmd(app))
	rootCmd.AddCommand(newScanCmd(app))
}

func (a *App) selectorParams() selector.Params {
	return selector.Params{
		KAbove:         a.Config.Analysis.KAbove,
		KBelow:         a.Config.Analysis.KBelow,
		PriorityFields: a.Config.Analysis.PriorityFields,
	}
}

func newStrikesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "strikes <symbol>",
		Short: "Select the strike neighborhood around a reference price",
		Long: `Select a bounded neighborhood of strikes around a reference price.

Picks the configured number of strikes above and below the reference, plus
an exact match when one exists, and shows the contracts available for each
selected strike.`,
		Example: `  derivscan strikes NIFTY --price 24500
  derivscan strikes BANKNIFTY --price 51200 --date 2026-08-21`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			symbol := strings.ToUpper(args[0])
			price, _ := cmd.Flags().GetFloat64("price")
			dateStr, _ := cmd.Flags().GetString("date")

			asOf, err := parseDateFlag(dateStr)
			if err != nil {
				output.Error("Invalid date format. Use YYYY-MM-DD")
				return err
			}

			cat, err := app.OpenCatalog()
			if err != nil {
				output.Error("Failed to open catalog: %v", err)
				return err
			}

			ref := models.ReferencePoint{Symbol: symbol, AsOfDate: asOf, ReferencePrice: price}
			sel, err := selector.SelectContracts(ctx, cat, app.Logger, ref, app.selectorParams())
			if err != nil {
				output.Error("Selection failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(sel)
			}
			return displaySelection(output, sel)
		},
	}

	cmd.Flags().Float64("price", 0, "Reference price (required)")
	cmd.Flags().String("date", "", "As-of date (YYYY-MM-DD, default today)")
	cmd.MarkFlagRequired("price")

	return cmd
}

func displaySelection(output *Output, sel models.Selection) error {
	output.Bold("Strike Neighborhood - %s", sel.Reference.Symbol)
	output.Printf("  Reference: %s  As of: %s\n\n",
		FormatPrice(sel.Reference.ReferencePrice), FormatDate(sel.Reference.AsOfDate))

	if len(sel.Strikes) == 0 {
		output.Warning("No strikes available for %s", sel.Reference.Symbol)
		return nil
	}
	if sel.StrikeShortfall > 0 {
		output.Warning("Only %d strikes available (%d short of target)",
			len(sel.Strikes), sel.StrikeShortfall)
	}

	table := NewTable(output, "Strike", "Position", "Rank", "Classes", "Close (C/P)", "Volume (C/P)")
	for _, st := range sel.Strikes {
		var call, put *models.Contract
		for i := range st.Contracts {
			if st.Contracts[i].Class == models.Call {
				call = &st.Contracts[i]
			} else {
				put = &st.Contracts[i]
			}
		}
		table.AddRow(
			FormatPrice(st.StrikePrice),
			string(st.Position),
			strconv.Itoa(st.Rank),
			fmt.Sprintf("%d", len(st.Contracts)),
			contractPair(call, put, func(c *models.Contract) string { return FormatPrice(c.Close) }),
			contractPair(call, put, func(c *models.Contract) string { return FormatVolume(c.Volume) }),
		)
	}
	table.Render()
	return nil
}

func contractPair(call, put *models.Contract, f func(*models.Contract) string) string {
	cs, ps := "-", "-"
	if call != nil {
		cs = f(call)
	}
	if put != nil {
		ps = f(put)
	}
	return cs + " / " + ps
}

func newDrawdownCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drawdown <symbol> <strike> <class>",
		Short: "Analyze the price contraction of one contract",
		Long: `Scan one contract's close-price history for its largest contraction.

Reports global extremes, total reduction, worst single-step drop, longest
consecutive decline run, and the first threshold-crossing date.`,
		Example: `  derivscan drawdown NIFTY 24500 CALL
  derivscan drawdown BANKNIFTY 51000 PUT --from 2026-01-01 --threshold 40`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			symbol := strings.ToUpper(args[0])
			strike, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				output.Error("Invalid strike: %s", args[1])
				return err
			}
			class, ok := models.ParseOptionClass(args[2])
			if !ok {
				output.Error("Invalid option class: %s (use CALL or PUT)", args[2])
				return fmt.Errorf("invalid option class: %s", args[2])
			}

			fromStr, _ := cmd.Flags().GetString("from")
			threshold, _ := cmd.Flags().GetFloat64("threshold")
			if threshold == 0 {
				threshold = app.Config.Analysis.ReductionThresholdPct
			}

			from := time.Time{}
			if fromStr != "" {
				from, err = time.Parse("2006-01-02", fromStr)
				if err != nil {
					output.Error("Invalid from date. Use YYYY-MM-DD")
					return err
				}
			}

			cat, err := app.OpenCatalog()
			if err != nil {
				output.Error("Failed to open catalog: %v", err)
				return err
			}

			series, err := cat.GetPriceSeries(ctx, symbol, strike, class, from)
			if err != nil {
				output.Error("Failed to load price series: %v", err)
				return err
			}

			result, err := drawdown.Analyze(series, threshold)
			if err != nil {
				output.Error("Analysis failed: %v", err)
				return err
			}
			result.Severity, result.RiskLevel = severity.Classify(result)

			if output.IsJSON() {
				return output.JSON(result)
			}
			return displayDrawdown(output, symbol, strike, class, len(series), threshold, result)
		},
	}

	cmd.Flags().String("from", "", "History start date (YYYY-MM-DD)")
	cmd.Flags().Float64("threshold", 0, "Contraction threshold percent (default from config)")

	return cmd
}

func displayDrawdown(output *Output, symbol string, strike float64, class models.OptionClass, points int, threshold float64, r models.DrawdownResult) error {
	output.Bold("Drawdown Analysis - %s %s @ %s", symbol, class, FormatPrice(strike))
	output.Printf("  Points: %d  Threshold: %.1f%%\n\n", points, threshold)

	if r.Insufficient() {
		output.Warning("Insufficient data: %d more point(s) needed", r.PointShortfall)
		return nil
	}

	output.Printf("  Max Price:       %s on %s\n", FormatPrice(r.MaxPrice), FormatDate(r.MaxDate))
	output.Printf("  Min Price:       %s on %s\n", FormatPrice(r.MinPrice), FormatDate(r.MinDate))
	output.Printf("  Total Reduction: %.2f%%\n", r.Reduction())
	output.Printf("  Worst Step:      %.2f%% on %s\n", r.MaxSingleStepDropPct, FormatDate(r.MaxSingleStepDate))
	output.Printf("  Decline Run:     %d steps (%.2f%%)\n", r.MaxConsecutiveDeclineLen, r.MaxConsecutiveDeclinePct)
	output.Printf("  Crossed:         %v  First Crossing: %s\n", r.CrossesThreshold, FormatOptionalDate(r.FirstCrossingDate))
	output.Printf("  Avg Volume:      %.0f  Price StdDev: %.2f\n", r.AvgDailyVolume, r.PriceStdDev)
	output.Printf("  Severity:        %s  Risk: %s\n", output.SeverityText(r.Severity), output.RiskText(r.RiskLevel))
	return nil
}

// referenceRow mirrors one row of a reference points CSV file.
type referenceRow struct {
	Symbol         string  `csv:"symbol"`
	AsOfDate       string  `csv:"as_of_date"`
	ReferencePrice float64 `csv:"reference_price"`
}

func newScanCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run the drawdown scan across reference points and emit a report",
		Long: `Run the full pipeline for a set of reference points: strike neighborhood
selection, per-contract drawdown analysis, severity classification, and
report generation.

Reference points come from repeated --ref SYMBOL=PRICE flags or from a CSV
file with columns symbol, as_of_date, reference_price.`,
		Example: `  derivscan scan --ref NIFTY=24500 --ref BANKNIFTY=51200
  derivscan scan --refs references.csv --format csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()

			refFlags, _ := cmd.Flags().GetStringArray("ref")
			refsFile, _ := cmd.Flags().GetString("refs")
			dateStr, _ := cmd.Flags().GetString("date")
			format, _ := cmd.Flags().GetString("format")
			outDir, _ := cmd.Flags().GetString("out")
			workers, _ := cmd.Flags().GetInt("workers")

			if format == "" {
				format = app.Config.Report.Format
			}
			if outDir == "" {
				outDir = app.Config.Report.OutputDir
			}

			asOf, err := parseDateFlag(dateStr)
			if err != nil {
				output.Error("Invalid date format. Use YYYY-MM-DD")
				return err
			}

			refs, err := collectReferences(refFlags, refsFile, asOf)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			if len(refs) == 0 {
				output.Error("No reference points given. Use --ref or --refs.")
				return fmt.Errorf("no reference points")
			}

			cat, err := app.OpenCatalog()
			if err != nil {
				output.Error("Failed to open catalog: %v", err)
				return err
			}

			scanner := scan.NewScanner(cat, app.Logger, scan.Config{
				Params:       app.selectorParams(),
				ThresholdPct: app.Config.Analysis.ReductionThresholdPct,
				Workers:      workers,
			})

			records, err := scanner.ScanAll(ctx, refs)
			if err != nil {
				output.Error("Scan failed: %v", err)
				return err
			}

			sink, path, err := report.NewSink(outDir, format, time.Now())
			if err != nil {
				output.Error("%v", err)
				return err
			}
			if err := sink.Emit(ctx, records); err != nil {
				output.Error("Failed to write report: %v", err)
				return err
			}

			crossed := 0
			for _, rec := range records {
				if rec.Result.CrossesThreshold {
					crossed++
				}
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"references": len(refs),
					"records":    len(records),
					"crossed":    crossed,
					"report":     path,
				})
			}
			output.Printf("  References: %d  Records: %d  Crossed threshold: %d\n",
				len(refs), len(records), crossed)
			output.Success("✓ Report written to %s", path)
			return nil
		},
	}

	cmd.Flags().StringArray("ref", nil, "Reference point as SYMBOL=PRICE (repeatable)")
	cmd.Flags().String("refs", "", "CSV file of reference points")
	cmd.Flags().String("date", "", "As-of date for --ref points (YYYY-MM-DD, default today)")
	cmd.Flags().String("format", "", "Report format: xlsx or csv (default from config)")
	cmd.Flags().String("out", "", "Report output directory (default from config)")
	cmd.Flags().Int("workers", 4, "Concurrent reference scans")

	return cmd
}

// collectReferences merges --ref flags and the --refs CSV file.
func collectReferences(refFlags []string, refsFile string, asOf time.Time) ([]models.ReferencePoint, error) {
	var refs []models.ReferencePoint

	for _, flag := range refFlags {
		parts := strings.SplitN(flag, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid --ref %q: use SYMBOL=PRICE", flag)
		}
		price, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --ref price %q: %w", parts[1], err)
		}
		refs = append(refs, models.ReferencePoint{
			Symbol:         strings.ToUpper(strings.TrimSpace(parts[0])),
			AsOfDate:       asOf,
			ReferencePrice: price,
		})
	}

	if refsFile != "" {
		f, err := os.Open(refsFile)
		if err != nil {
			return nil, fmt.Errorf("opening references file: %w", err)
		}
		defer f.Close()

		var rows []*referenceRow
		if err := gocsv.UnmarshalFile(f, &rows); err != nil {
			return nil, fmt.Errorf("parsing references file: %w", err)
		}
		for _, row := range rows {
			date, err := time.Parse("2006-01-02", strings.TrimSpace(row.AsOfDate))
			if err != nil {
				return nil, fmt.Errorf("invalid as_of_date %q: %w", row.AsOfDate, err)
			}
			refs = append(refs, models.ReferencePoint{
				Symbol:         strings.ToUpper(strings.TrimSpace(row.Symbol)),
				AsOfDate:       date,
				ReferencePrice: row.ReferencePrice,
			})
		}
	}

	return refs, nil
}

func parseDateFlag(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	return time.Parse("2006-01-02", s)
}
