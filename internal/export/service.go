// Package export renders the reconciled record set as CSV or XLSX.
// Exports always include the derived pricing columns so a reviewer can
// see unit counts and mismatches without the dashboard.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/dray-ops/ratecon-tracker/constants"
	"github.com/dray-ops/ratecon-tracker/internal/entity"
)

// Service produces export bytes from reconciled records.
type Service struct {
	sheetName string
	logger    *slog.Logger
}

func NewService(sheetName string, logger *slog.Logger) *Service {
	if sheetName == "" {
		sheetName = "RateCons"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{sheetName: sheetName, logger: logger}
}

func row(r entity.ReconciledRecord) []string {
	return []string{
		r.DateAdded.Format("2006-01-02"),
		r.Customer,
		r.Reference,
		r.Equipment,
		r.Container,
		r.Rate,
		strconv.Itoa(r.UnitCount),
		fmt.Sprintf("%.2f", r.ExpectedRate),
		strconv.FormatBool(r.Mismatch),
		r.SourceFile,
		r.Status,
		r.Notes,
	}
}

// CSV returns the record set as UTF-8 CSV bytes.
func (s *Service) CSV(recs []entity.ReconciledRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(constants.ExportColumns); err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}
	for _, r := range recs {
		if err := w.Write(row(r)); err != nil {
			return nil, fmt.Errorf("csv row %s: %w", r.Reference, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv flush: %w", err)
	}
	s.logger.Info("export.csv.ok", "rows", len(recs), "bytes", buf.Len())
	return buf.Bytes(), nil
}

// XLSX returns an XLSX workbook. Mismatched rows get a red fill so they
// stand out for manual review.
func (s *Service) XLSX(recs []entity.ReconciledRecord) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	sheet := s.sheetName
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	if defaultIndex, _ := f.GetSheetIndex("Sheet1"); defaultIndex != -1 && sheet != "Sheet1" {
		_ = f.DeleteSheet("Sheet1")
	}

	mismatchStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"9C0006"}},
		Font: &excelize.Font{Color: "FFFFFF"},
	})
	if err != nil {
		return nil, fmt.Errorf("mismatch style: %w", err)
	}

	for i, h := range constants.ExportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, r := range recs {
		rowIdx := i + 2
		for col, v := range row(r) {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx)
			_ = f.SetCellValue(sheet, cell, v)
		}
		if r.Mismatch {
			first, _ := excelize.CoordinatesToCellName(1, rowIdx)
			last, _ := excelize.CoordinatesToCellName(len(constants.ExportColumns), rowIdx)
			_ = f.SetCellStyle(sheet, first, last, mismatchStyle)
		}
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 12) // date
	_ = f.SetColWidth(sheet, "B", "B", 16) // customer
	_ = f.SetColWidth(sheet, "C", "C", 16) // reference
	_ = f.SetColWidth(sheet, "D", "E", 18) // equipment / container
	_ = f.SetColWidth(sheet, "F", "I", 14) // rate columns
	_ = f.SetColWidth(sheet, "J", "J", 32) // file
	_ = f.SetColWidth(sheet, "L", "L", 40) // notes

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
