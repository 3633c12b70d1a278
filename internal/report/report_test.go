package report

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"derivscan/internal/models"
)

func sampleRecords() []models.ScanRecord {
	reduction := 55.0
	crossing := time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC)
	analyzed := models.DrawdownResult{
		MaxPrice:                 100,
		MaxDate:                  time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC),
		MinPrice:                 45,
		MinDate:                  time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC),
		TotalReductionPct:        &reduction,
		MaxSingleStepDropPct:     25,
		MaxSingleStepDate:        time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
		MaxConsecutiveDeclineLen: 3,
		MaxConsecutiveDeclinePct: 70,
		CrossesThreshold:         true,
		FirstCrossingDate:        &crossing,
		AvgDailyVolume:           1200,
		PriceStdDev:              18.4,
		Severity:                 models.SeverityHigh,
		RiskLevel:                models.RiskHigh,
	}
	sentinel := models.DrawdownResult{
		PointShortfall: 1,
		Severity:       models.SeverityMinimal,
		RiskLevel:      models.RiskMinimal,
	}

	return []models.ScanRecord{
		{Symbol: "NIFTY", StrikePrice: 22000, Class: models.Call, Position: models.PositionBelow, Rank: 1, SeriesLen: 12, Result: analyzed},
		{Symbol: "NIFTY", StrikePrice: 22500, Class: models.Put, Position: models.PositionAbove, Rank: 2, SeriesLen: 1, Result: sentinel},
	}
}

func TestNewSink_Formats(t *testing.T) {
	now := time.Date(2026, 8, 21, 15, 4, 5, 0, time.UTC)

	sink, path, err := NewSink("/tmp/reports", "xlsx", now)
	require.NoError(t, err)
	assert.IsType(t, &ExcelSink{}, sink)
	assert.Equal(t, filepath.Join("/tmp/reports", "drawdown_scan_20260821_150405.xlsx"), path)

	sink, path, err = NewSink("/tmp/reports", "csv", now)
	require.NoError(t, err)
	assert.IsType(t, &CSVSink{}, sink)
	assert.Equal(t, filepath.Join("/tmp/reports", "drawdown_scan_20260821_150405.csv"), path)

	_, _, err = NewSink("/tmp/reports", "pdf", now)
	assert.Error(t, err)
}

func TestCSVSink_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	sink := NewCSVSink(path)

	require.NoError(t, sink.Emit(context.Background(), sampleRecords()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var rows []*scanRow
	require.NoError(t, gocsv.UnmarshalFile(f, &rows))
	require.Len(t, rows, 2)

	assert.Equal(t, "NIFTY", rows[0].Symbol)
	assert.Equal(t, 22000.0, rows[0].Strike)
	assert.Equal(t, "CALL", rows[0].Class)
	assert.Equal(t, "55.00", rows[0].ReductionPct)
	assert.Equal(t, "2026-08-03", rows[0].MaxDate)
	assert.Equal(t, "2026-08-14", rows[0].FirstCrossingDate)
	assert.True(t, rows[0].CrossedThreshold)

	// Sentinel row renders without numbers pretending to be analysis.
	assert.Equal(t, "N/A", rows[1].ReductionPct)
	assert.Empty(t, rows[1].MaxDate)
	assert.Empty(t, rows[1].FirstCrossingDate)
	assert.False(t, rows[1].CrossedThreshold)
}

func TestCSVSink_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := NewCSVSink(filepath.Join(t.TempDir(), "out.csv"))
	assert.ErrorIs(t, sink.Emit(ctx, sampleRecords()), context.Canceled)
}

func TestExcelSink_WritesWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	sink := NewExcelSink(path)

	require.NoError(t, sink.Emit(context.Background(), sampleRecords()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(scanSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus two records")

	assert.Equal(t, excelHeaders, rows[0])
	assert.Equal(t, "NIFTY", rows[1][0])
	assert.Equal(t, "CALL", rows[1][2])
	assert.Equal(t, "55.00", rows[1][10], "reduction column")
	assert.Equal(t, "N/A", rows[2][10])
}

func TestExcelSink_EmptyRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, NewExcelSink(path).Emit(context.Background(), nil))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(scanSheet)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, excelHeaders, rows[0])
}
