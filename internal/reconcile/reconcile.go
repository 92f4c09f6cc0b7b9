// Package reconcile checks extracted rates against the linear pricing
// model: a flat base (drayage) fee plus a per-unit (chassis day) fee.
// Documents only report a total, so the unit count is back-solved from
// the rate and loads that don't fit the model are flagged for review.
package reconcile

import (
	"math"
	"strconv"
	"strings"

	"github.com/dray-ops/ratecon-tracker/internal/entity"
)

// Pricing holds the model constants.
type Pricing struct {
	BaseRate float64
	UnitRate float64
}

// ParseRate strips currency symbols and grouping separators and parses
// the remainder. Malformed input coerces to 0 so stored data always
// renders.
func ParseRate(raw string) float64 {
	cleaned := strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(raw))
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}

// UnitCount infers the billable unit count from a parsed rate.
// Rounding is half away from zero (math.Round); the count is clamped at
// zero when the rate is below the base fee.
func (p Pricing) UnitCount(parsedRate float64) int {
	n := math.Round((parsedRate - p.BaseRate) / p.UnitRate)
	if n < 0 {
		return 0
	}
	return int(n)
}

// ExpectedRate reconstructs the model total for a unit count.
func (p Pricing) ExpectedRate(unitCount int) float64 {
	return p.BaseRate + float64(unitCount)*p.UnitRate
}

// Record derives the reconciled view of a load record. The mismatch
// comparison is exact, not tolerance-banded, so representation noise in
// stored rates surfaces as a mismatch rather than being hidden.
func (p Pricing) Record(rec entity.LoadRecord) entity.ReconciledRecord {
	parsed := ParseRate(rec.Rate)
	units := p.UnitCount(parsed)
	expected := p.ExpectedRate(units)
	return entity.ReconciledRecord{
		LoadRecord:   rec,
		ParsedRate:   parsed,
		UnitCount:    units,
		ExpectedRate: expected,
		Mismatch:     parsed != expected,
	}
}

// Records reconciles a record set, preserving order.
func (p Pricing) Records(recs []entity.LoadRecord) []entity.ReconciledRecord {
	out := make([]entity.ReconciledRecord, len(recs))
	for i, r := range recs {
		out[i] = p.Record(r)
	}
	return out
}
