package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/dray-ops/ratecon-tracker/internal/entity"
	"github.com/dray-ops/ratecon-tracker/internal/reconcile"
)

func sampleRecords() []entity.ReconciledRecord {
	pricing := reconcile.Pricing{BaseRate: 400, UnitRate: 35}
	return pricing.Records([]entity.LoadRecord{
		{
			DateAdded:  time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC),
			Customer:   "Covenant",
			Reference:  "R-1",
			Equipment:  "Chassis",
			Container:  "MSCU1234567",
			Rate:       "785.00",
			SourceFile: "a.pdf",
			Status:     "Active",
		},
		{
			DateAdded:  time.Date(2026, 2, 4, 0, 0, 0, 0, time.UTC),
			Customer:   "Covenant",
			Reference:  "R-2",
			Rate:       "800.00", // off-model
			SourceFile: "b.pdf",
			Status:     "Active",
		},
	})
}

func TestCSV_IncludesReconciledColumns(t *testing.T) {
	svc := NewService("RateCons", nil)
	out, err := svc.CSV(sampleRecords())
	if err != nil {
		t.Fatalf("csv: %v", err)
	}

	rows, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	header := strings.Join(rows[0], ",")
	for _, col := range []string{"Chassis Count", "Expected Rate", "Mismatch"} {
		if !strings.Contains(header, col) {
			t.Fatalf("header %q missing %q", header, col)
		}
	}
	if rows[1][6] != "11" || rows[1][8] != "false" {
		t.Fatalf("model-fit row wrong: %v", rows[1])
	}
	if rows[2][6] != "11" || rows[2][7] != "785.00" || rows[2][8] != "true" {
		t.Fatalf("mismatch row wrong: %v", rows[2])
	}
}

func TestXLSX_RoundTrip(t *testing.T) {
	svc := NewService("RateCons", nil)
	out, err := svc.XLSX(sampleRecords())
	if err != nil {
		t.Fatalf("xlsx: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("RateCons")
	if err != nil {
		t.Fatalf("get rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if rows[1][2] != "R-1" || rows[2][2] != "R-2" {
		t.Fatalf("references wrong: %v / %v", rows[1], rows[2])
	}

	// Mismatched row carries a distinct style from the clean row.
	cleanStyle, err := f.GetCellStyle("RateCons", "A2")
	if err != nil {
		t.Fatalf("style A2: %v", err)
	}
	mismatchStyle, err := f.GetCellStyle("RateCons", "A3")
	if err != nil {
		t.Fatalf("style A3: %v", err)
	}
	if cleanStyle == mismatchStyle {
		t.Fatal("mismatched row not styled differently")
	}
}

func TestCSV_EmptySetStillHasHeader(t *testing.T) {
	svc := NewService("", nil)
	out, err := svc.CSV(nil)
	if err != nil {
		t.Fatalf("csv: %v", err)
	}
	rows, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want header only", len(rows))
	}
}
