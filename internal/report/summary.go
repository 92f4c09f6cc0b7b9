// Package report computes the dashboard aggregates over the reconciled
// record set.
package report

import (
	"sort"
	"strconv"

	"github.com/dray-ops/ratecon-tracker/internal/entity"
	"github.com/dray-ops/ratecon-tracker/internal/reconcile"
)

// Summary holds the headline numbers and breakdowns for a record set.
type Summary struct {
	TotalLoads   int     `json:"total_loads"`
	TotalRevenue float64 `json:"total_revenue"`
	AvgRate      float64 `json:"avg_rate_per_load"`

	BaseRevenue       float64 `json:"base_revenue"`
	UnitRevenue       float64 `json:"unit_revenue"`
	MismatchedRevenue float64 `json:"mismatched_revenue"`

	TotalUnits      int     `json:"total_units"`
	AvgUnitsPerLoad float64 `json:"avg_units_per_load"`
	MismatchCount   int     `json:"mismatch_count"`

	UnitCountDist []DistEntry `json:"unit_count_distribution"`
	EquipmentDist []DistEntry `json:"equipment_distribution"`
}

// DistEntry is one bucket of a distribution.
type DistEntry struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// TopEquipment caps the equipment distribution at the dashboard's chart
// size.
const TopEquipment = 10

// Summarize derives the dashboard aggregates. Base revenue is the flat
// fee times load count; unit revenue is billed units times the unit
// rate; mismatched revenue sums the reported totals of off-model loads.
func Summarize(recs []entity.ReconciledRecord, pricing reconcile.Pricing) Summary {
	s := Summary{TotalLoads: len(recs)}

	unitDist := make(map[int]int)
	equipDist := make(map[string]int)
	for _, r := range recs {
		s.TotalRevenue += r.ParsedRate
		s.TotalUnits += r.UnitCount
		if r.Mismatch {
			s.MismatchCount++
			s.MismatchedRevenue += r.ParsedRate
		}
		unitDist[r.UnitCount]++
		equipDist[r.Equipment]++
	}

	s.BaseRevenue = float64(s.TotalLoads) * pricing.BaseRate
	s.UnitRevenue = float64(s.TotalUnits) * pricing.UnitRate
	if s.TotalLoads > 0 {
		s.AvgRate = s.TotalRevenue / float64(s.TotalLoads)
		s.AvgUnitsPerLoad = float64(s.TotalUnits) / float64(s.TotalLoads)
	}

	s.UnitCountDist = unitCountEntries(unitDist)
	s.EquipmentDist = equipmentEntries(equipDist, TopEquipment)
	return s
}

func unitCountEntries(dist map[int]int) []DistEntry {
	counts := make([]int, 0, len(dist))
	for k := range dist {
		counts = append(counts, k)
	}
	sort.Ints(counts)
	out := make([]DistEntry, 0, len(counts))
	for _, k := range counts {
		out = append(out, DistEntry{Label: strconv.Itoa(k), Count: dist[k]})
	}
	return out
}

func equipmentEntries(dist map[string]int, top int) []DistEntry {
	out := make([]DistEntry, 0, len(dist))
	for k, v := range dist {
		out = append(out, DistEntry{Label: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	if len(out) > top {
		out = out[:top]
	}
	return out
}
