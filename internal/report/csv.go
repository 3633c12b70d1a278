package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"derivscan/internal/models"
)

// CSVSink writes scan records to a CSV file.
type CSVSink struct {
	path string
}

// NewCSVSink creates a sink writing to the given .csv path.
func NewCSVSink(path string) *CSVSink {
	return &CSVSink{path: path}
}

// scanRow is the flat CSV projection of one scan record.
type scanRow struct {
	Symbol             string  `csv:"symbol"`
	Strike             float64 `csv:"strike"`
	Class              string  `csv:"class"`
	Position           string  `csv:"position"`
	Rank               int     `csv:"rank"`
	Points             int     `csv:"points"`
	MaxPrice           float64 `csv:"max_price"`
	MaxDate            string  `csv:"max_date"`
	MinPrice           float64 `csv:"min_price"`
	MinDate            string  `csv:"min_date"`
	ReductionPct       string  `csv:"reduction_pct"`
	MaxStepDropPct     float64 `csv:"max_step_drop_pct"`
	MaxStepDate        string  `csv:"max_step_date"`
	DeclineRunLen      int     `csv:"decline_run_len"`
	DeclineRunPct      float64 `csv:"decline_run_pct"`
	CrossedThreshold   bool    `csv:"crossed_threshold"`
	FirstCrossingDate  string  `csv:"first_crossing_date"`
	AvgDailyVolume     float64 `csv:"avg_daily_volume"`
	PriceStdDev        float64 `csv:"price_stddev"`
	Severity           string  `csv:"severity"`
	Risk               string  `csv:"risk"`
}

// Emit writes all records as CSV rows.
func (s *CSVSink) Emit(ctx context.Context, records []models.ScanRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}

	rows := make([]*scanRow, 0, len(records))
	for _, rec := range records {
		r := rec.Result
		rows = append(rows, &scanRow{
			Symbol:            rec.Symbol,
			Strike:            rec.StrikePrice,
			Class:             string(rec.Class),
			Position:          string(rec.Position),
			Rank:              rec.Rank,
			Points:            rec.SeriesLen,
			MaxPrice:          r.MaxPrice,
			MaxDate:           formatDate(r.MaxDate),
			MinPrice:          r.MinPrice,
			MinDate:           formatDate(r.MinDate),
			ReductionPct:      formatReduction(r),
			MaxStepDropPct:    r.MaxSingleStepDropPct,
			MaxStepDate:       formatDate(r.MaxSingleStepDate),
			DeclineRunLen:     r.MaxConsecutiveDeclineLen,
			DeclineRunPct:     r.MaxConsecutiveDeclinePct,
			CrossedThreshold:  r.CrossesThreshold,
			FirstCrossingDate: formatCrossingDate(r),
			AvgDailyVolume:    r.AvgDailyVolume,
			PriceStdDev:       r.PriceStdDev,
			Severity:          string(r.Severity),
			Risk:              string(r.RiskLevel),
		})
	}

	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	defer f.Close()

	return gocsv.MarshalFile(&rows, f)
}
