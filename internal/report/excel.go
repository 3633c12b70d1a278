package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"derivscan/internal/models"
)

// ExcelSink writes scan records into an Excel workbook.
type ExcelSink struct {
	path string
}

// NewExcelSink creates a sink writing to the given .xlsx path.
func NewExcelSink(path string) *ExcelSink {
	return &ExcelSink{path: path}
}

const scanSheet = "Drawdown Scan"

var excelHeaders = []string{
	"Symbol", "Strike", "Class", "Position", "Rank", "Points",
	"Max Price", "Max Date", "Min Price", "Min Date",
	"Reduction %", "Max Step Drop %", "Max Step Date",
	"Decline Run", "Decline Run %", "Crossed", "First Crossing",
	"Avg Volume", "Price StdDev", "Severity", "Risk",
}

// Emit writes all records to one sheet, one row per analyzed contract.
func (s *ExcelSink) Emit(ctx context.Context, records []models.ScanRecord) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(scanSheet)
	if err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	for col, h := range excelHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(scanSheet, cell, h); err != nil {
			return err
		}
	}
	endHeader, _ := excelize.CoordinatesToCellName(len(excelHeaders), 1)
	if err := f.SetCellStyle(scanSheet, "A1", endHeader, headerStyle); err != nil {
		return err
	}

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		r := rec.Result
		row := []interface{}{
			rec.Symbol, rec.StrikePrice, string(rec.Class), string(rec.Position), rec.Rank, rec.SeriesLen,
			r.MaxPrice, formatDate(r.MaxDate), r.MinPrice, formatDate(r.MinDate),
			formatReduction(r), r.MaxSingleStepDropPct, formatDate(r.MaxSingleStepDate),
			r.MaxConsecutiveDeclineLen, r.MaxConsecutiveDeclinePct,
			r.CrossesThreshold, formatCrossingDate(r),
			r.AvgDailyVolume, r.PriceStdDev, string(r.Severity), string(r.RiskLevel),
		}
		for col, v := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(scanSheet, cell, v); err != nil {
				return err
			}
		}
	}

	return f.SaveAs(s.path)
}
