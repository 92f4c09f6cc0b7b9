package reconcile

import (
	"testing"

	"github.com/dray-ops/ratecon-tracker/internal/entity"
)

var pricing = Pricing{BaseRate: 400, UnitRate: 35}

func TestParseRate(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"$785.00", 785},
		{"1,750.50", 1750.50},
		{"$1,000,000", 1000000},
		{"  435.00 ", 435},
		{"abc", 0},
		{"", 0},
		{"0.00", 0},
	}
	for _, tt := range tests {
		if got := ParseRate(tt.in); got != tt.want {
			t.Errorf("ParseRate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestUnitCount(t *testing.T) {
	tests := []struct {
		rate float64
		want int
	}{
		{785, 11},  // (785-400)/35 = 11 exactly
		{800, 11},  // 11.43 rounds down
		{820, 12},  // 12.0 exactly
		{400, 0},   // base only
		{100, 0},   // below base clamps to 0
		{0, 0},     // unparseable rates coerce here
		{417.5, 1}, // 0.5 rounds half away from zero
	}
	for _, tt := range tests {
		if got := pricing.UnitCount(tt.rate); got != tt.want {
			t.Errorf("UnitCount(%v) = %d, want %d", tt.rate, got, tt.want)
		}
	}
}

func TestRecord_ModelFit(t *testing.T) {
	rec := pricing.Record(entity.LoadRecord{Rate: "$785.00"})
	if rec.ParsedRate != 785 {
		t.Fatalf("ParsedRate = %v, want 785", rec.ParsedRate)
	}
	if rec.UnitCount != 11 {
		t.Fatalf("UnitCount = %d, want 11", rec.UnitCount)
	}
	if rec.ExpectedRate != 785 {
		t.Fatalf("ExpectedRate = %v, want 785", rec.ExpectedRate)
	}
	if rec.Mismatch {
		t.Fatal("Mismatch = true for a model-fitting rate")
	}
}

func TestRecord_Mismatch(t *testing.T) {
	rec := pricing.Record(entity.LoadRecord{Rate: "$800.00"})
	if rec.UnitCount != 11 {
		t.Fatalf("UnitCount = %d, want 11", rec.UnitCount)
	}
	if rec.ExpectedRate != 785 {
		t.Fatalf("ExpectedRate = %v, want 785", rec.ExpectedRate)
	}
	if !rec.Mismatch {
		t.Fatal("Mismatch = false, want true for off-model rate")
	}
}

func TestRecord_ExpectedAlwaysReachable(t *testing.T) {
	// expectedRate must always be a value the linear model can produce,
	// and mismatch must be exactly parsed != expected.
	for _, raw := range []string{"$400.00", "$435.00", "$785.00", "$50.00", "garbage", "$10,135.00"} {
		rec := pricing.Record(entity.LoadRecord{Rate: raw})
		if rec.ExpectedRate != pricing.ExpectedRate(rec.UnitCount) {
			t.Fatalf("%q: expected rate %v not reachable from unit count %d", raw, rec.ExpectedRate, rec.UnitCount)
		}
		if rec.Mismatch != (rec.ParsedRate != rec.ExpectedRate) {
			t.Fatalf("%q: mismatch flag inconsistent", raw)
		}
	}
}

func TestRecord_Idempotent(t *testing.T) {
	in := entity.LoadRecord{Reference: "R1", Rate: "$820.00"}
	first := pricing.Record(in)
	second := pricing.Record(in)
	if first != second {
		t.Fatalf("reconciliation not idempotent: %+v vs %+v", first, second)
	}
}

func TestRecords_PreservesOrder(t *testing.T) {
	recs := pricing.Records([]entity.LoadRecord{
		{Reference: "A", Rate: "$400.00"},
		{Reference: "B", Rate: "$435.00"},
	})
	if len(recs) != 2 || recs[0].Reference != "A" || recs[1].Reference != "B" {
		t.Fatalf("order not preserved: %+v", recs)
	}
	if recs[0].UnitCount != 0 || recs[1].UnitCount != 1 {
		t.Fatalf("unit counts wrong: %d, %d", recs[0].UnitCount, recs[1].UnitCount)
	}
}
