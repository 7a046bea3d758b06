package schools

import (
	"context"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/schoolstats/internal/db"
)

// Aggregator groups a dataset by region and computes count and mean revenue.
// Implementations must return rows sorted by region.
type Aggregator interface {
	Aggregate(ctx context.Context, d *Dataset) (*Aggregate, error)
}

// FrameAggregator groups with gota and averages with gonum.
type FrameAggregator struct{}

// Aggregate implements Aggregator.
func (FrameAggregator) Aggregate(_ context.Context, d *Dataset) (*Aggregate, error) {
	df, err := d.groupable()
	if err != nil {
		return nil, err
	}
	agg := &Aggregate{Rows: []RegionStats{}}
	if df.Nrow() == 0 {
		return agg, nil
	}

	cols := d.Columns()
	groups := df.GroupBy(cols.Region)
	if groups == nil {
		return nil, fmt.Errorf("failed to group by %s", cols.Region)
	}
	if groups.Err != nil {
		return nil, fmt.Errorf("failed to group by %s: %w", cols.Region, groups.Err)
	}

	for _, g := range groups.GetGroups() {
		if g.Nrow() == 0 {
			continue
		}
		agg.Rows = append(agg.Rows, RegionStats{
			Region:       g.Col(cols.Region).Elem(0).String(),
			SchoolsCount: g.Nrow(),
			AvgBudget:    meanSkipNaN(g.Col(cols.Revenue).Float()),
		})
	}
	sort.Slice(agg.Rows, func(i, j int) bool { return agg.Rows[i].Region < agg.Rows[j].Region })
	return agg, nil
}

// meanSkipNaN averages the finite values of xs, or returns NaN if none.
func meanSkipNaN(xs []float64) float64 {
	vals := make([]float64, 0, len(xs))
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			continue
		}
		vals = append(vals, x)
	}
	if len(vals) == 0 {
		return math.NaN()
	}
	return stat.Mean(vals, nil)
}

// SQLAggregator loads the dataset into an in-memory SQLite table and lets
// SQLite do the grouping. Each call replaces the table contents.
type SQLAggregator struct {
	DB *db.DB
}

// NewSQLAggregator opens its own in-memory database.
func NewSQLAggregator() (*SQLAggregator, error) {
	store, err := db.OpenMemory()
	if err != nil {
		return nil, err
	}
	return &SQLAggregator{DB: store}, nil
}

// Close releases the database.
func (a *SQLAggregator) Close() error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

// Aggregate implements Aggregator.
func (a *SQLAggregator) Aggregate(ctx context.Context, d *Dataset) (*Aggregate, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("sql aggregator has no database")
	}
	regions, revenues, err := d.records()
	if err != nil {
		return nil, err
	}

	records := make([]db.SchoolRecord, len(regions))
	for i := range regions {
		records[i] = db.SchoolRecord{Region: regions[i], Revenue: revenues[i]}
	}

	if err := a.DB.Reset(ctx); err != nil {
		return nil, err
	}
	if err := a.DB.InsertRecords(ctx, records); err != nil {
		return nil, err
	}
	summaries, err := a.DB.RegionSummaries(ctx)
	if err != nil {
		return nil, err
	}

	agg := &Aggregate{Rows: make([]RegionStats, 0, len(summaries))}
	for _, s := range summaries {
		agg.Rows = append(agg.Rows, RegionStats{
			Region:       s.Region,
			SchoolsCount: s.Count,
			AvgBudget:    s.AvgRevenue,
		})
	}
	return agg, nil
}
