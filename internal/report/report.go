// Package report renders scan results into spreadsheets and CSV files.
package report

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"derivscan/internal/models"
)

// Sink receives plain scan records for rendering. The analysis core never
// formats; callers choose a sink.
type Sink interface {
	Emit(ctx context.Context, records []models.ScanRecord) error
}

// NewSink returns a sink writing into dir with a timestamped file name,
// in the given format ("xlsx" or "csv").
func NewSink(dir, format string, now time.Time) (Sink, string, error) {
	name := fmt.Sprintf("drawdown_scan_%s.%s", now.Format("20060102_150405"), format)
	path := filepath.Join(dir, name)

	switch format {
	case "xlsx":
		return NewExcelSink(path), path, nil
	case "csv":
		return NewCSVSink(path), path, nil
	}
	return nil, "", fmt.Errorf("unsupported report format: %s", format)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatReduction(r models.DrawdownResult) string {
	if r.Insufficient() {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", r.Reduction())
}

func formatCrossingDate(r models.DrawdownResult) string {
	if r.FirstCrossingDate == nil {
		return ""
	}
	return formatDate(*r.FirstCrossingDate)
}
