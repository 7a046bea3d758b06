package schools

import (
	"encoding/json"
	"math"
)

// RegionStats is one row of the aggregate: school count and mean total
// revenue for a region. AvgBudget is NaN when no row had a numeric revenue.
type RegionStats struct {
	Region       string
	SchoolsCount int
	AvgBudget    float64
}

// MarshalJSON encodes a NaN budget as null.
func (r RegionStats) MarshalJSON() ([]byte, error) {
	var avg *float64
	if !math.IsNaN(r.AvgBudget) && !math.IsInf(r.AvgBudget, 0) {
		v := r.AvgBudget
		avg = &v
	}
	return json.Marshal(struct {
		Region       string   `json:"region"`
		SchoolsCount int      `json:"schools_count"`
		AvgBudget    *float64 `json:"avg_budget"`
	}{r.Region, r.SchoolsCount, avg})
}

// Aggregate is the per-region summary table, sorted by region.
type Aggregate struct {
	Rows []RegionStats `json:"rows"`
}

// Len returns the number of regions.
func (a *Aggregate) Len() int {
	if a == nil {
		return 0
	}
	return len(a.Rows)
}

// Regions returns region names in row order.
func (a *Aggregate) Regions() []string {
	out := make([]string, 0, a.Len())
	for _, r := range a.rows() {
		out = append(out, r.Region)
	}
	return out
}

// Counts returns school counts in row order.
func (a *Aggregate) Counts() []float64 {
	out := make([]float64, 0, a.Len())
	for _, r := range a.rows() {
		out = append(out, float64(r.SchoolsCount))
	}
	return out
}

// AvgBudgets returns average budgets in row order.
func (a *Aggregate) AvgBudgets() []float64 {
	out := make([]float64, 0, a.Len())
	for _, r := range a.rows() {
		out = append(out, r.AvgBudget)
	}
	return out
}

func (a *Aggregate) rows() []RegionStats {
	if a == nil {
		return nil
	}
	return a.Rows
}

// TotalSchools sums SchoolsCount over all regions.
func (a *Aggregate) TotalSchools() int {
	total := 0
	for _, r := range a.rows() {
		total += r.SchoolsCount
	}
	return total
}

// Find returns the row for region.
func (a *Aggregate) Find(region string) (RegionStats, bool) {
	for _, r := range a.rows() {
		if r.Region == region {
			return r, true
		}
	}
	return RegionStats{}, false
}
