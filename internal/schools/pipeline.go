// Package schools implements the school statistics pipeline: load a CSV of
// school records, keep the configured regions, aggregate per region and hand
// the result to a renderer. Every step is wrapped by monitoring.Step.
package schools

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/banshee-data/schoolstats/internal/fsutil"
	"github.com/banshee-data/schoolstats/internal/monitoring"
)

var (
	// ErrNotLoaded is returned by FilterStates and ProcessData before LoadData.
	ErrNotLoaded = errors.New("data not loaded")
	// ErrNoAggregate is returned by PlotStatistics when given nil.
	ErrNoAggregate = errors.New("no aggregate to plot")
	// ErrNoRenderer is returned by PlotStatistics when no renderer is set.
	ErrNoRenderer = errors.New("no renderer configured")
)

// Renderer draws an aggregate. Implementations live in internal/charts.
type Renderer interface {
	Render(agg *Aggregate) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(agg *Aggregate) error

// Render implements Renderer.
func (f RendererFunc) Render(agg *Aggregate) error { return f(agg) }

// SchoolStatistics runs the load → filter → aggregate → plot sequence over
// one dataset. It is not safe for concurrent use.
type SchoolStatistics struct {
	filePath   string
	fs         fsutil.FileSystem
	columns    Columns
	aggregator Aggregator
	renderer   Renderer
	runID      string
	logf       monitoring.LogFunc

	dataset *Dataset
}

// Option configures a SchoolStatistics.
type Option func(*SchoolStatistics)

// WithFileSystem sets the filesystem the CSV is read from.
func WithFileSystem(fs fsutil.FileSystem) Option {
	return func(s *SchoolStatistics) { s.fs = fs }
}

// WithColumns overrides the region and revenue column names.
func WithColumns(cols Columns) Option {
	return func(s *SchoolStatistics) { s.columns = cols }
}

// WithAggregator selects the aggregation engine.
func WithAggregator(a Aggregator) Option {
	return func(s *SchoolStatistics) { s.aggregator = a }
}

// WithRenderer sets the renderer used by PlotStatistics.
func WithRenderer(r Renderer) Option {
	return func(s *SchoolStatistics) { s.renderer = r }
}

// New returns a pipeline for the CSV at filePath. Defaults: OS filesystem,
// DefaultColumns, FrameAggregator, no renderer.
func New(filePath string, opts ...Option) *SchoolStatistics {
	s := &SchoolStatistics{
		filePath:   filePath,
		fs:         fsutil.OSFileSystem{},
		columns:    DefaultColumns,
		aggregator: FrameAggregator{},
		runID:      uuid.NewString(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logf = monitoring.WithPrefix("run " + s.runID[:8])
	return s
}

// RunID identifies this pipeline instance in log output.
func (s *SchoolStatistics) RunID() string { return s.runID }

// Dataset returns the loaded dataset, or nil before LoadData.
func (s *SchoolStatistics) Dataset() *Dataset { return s.dataset }

// Loaded reports whether LoadData has succeeded.
func (s *SchoolStatistics) Loaded() bool { return s.dataset != nil }

// LoadData reads the CSV into memory. Missing or malformed files return an
// error; the caller decides whether that is fatal.
func (s *SchoolStatistics) LoadData() error {
	return monitoring.Step(s.logf, "load_data", s.loadData)()
}

func (s *SchoolStatistics) loadData() error {
	f, err := s.fs.Open(s.filePath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", s.filePath, err)
	}
	defer f.Close()

	d, err := ReadDataset(f, s.columns)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", s.filePath, err)
	}
	s.dataset = d
	s.logf("data loaded: %d rows, %d columns from %s", d.Nrow(), len(d.Names()), s.filePath)
	return nil
}

// FilterStates keeps only rows whose region is in regions. Before LoadData it
// logs an error and returns ErrNotLoaded without touching anything.
func (s *SchoolStatistics) FilterStates(regions []string) error {
	return monitoring.Step(s.logf, "filter_states", func() error {
		if s.dataset == nil {
			s.logf("error: data not loaded")
			return ErrNotLoaded
		}
		before := s.dataset.Nrow()
		if err := s.dataset.FilterRegions(regions); err != nil {
			return err
		}
		s.logf("filtering complete: kept %d of %d rows for %d regions", s.dataset.Nrow(), before, len(regions))
		return nil
	})()
}

// ProcessData groups the remaining rows by region. Before LoadData it logs an
// error and returns (nil, ErrNotLoaded).
func (s *SchoolStatistics) ProcessData(ctx context.Context) (*Aggregate, error) {
	return monitoring.StepValue(s.logf, "process_data", func() (*Aggregate, error) {
		if s.dataset == nil {
			s.logf("error: data not loaded")
			return nil, ErrNotLoaded
		}
		agg, err := s.aggregator.Aggregate(ctx, s.dataset)
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate: %w", err)
		}
		s.logf("aggregated %d regions, %d schools", agg.Len(), agg.TotalSchools())
		return agg, nil
	})()
}

// PlotStatistics passes agg to the configured renderer.
func (s *SchoolStatistics) PlotStatistics(agg *Aggregate) error {
	return monitoring.Step(s.logf, "plot_statistics", func() error {
		if agg == nil {
			return ErrNoAggregate
		}
		if s.renderer == nil {
			return ErrNoRenderer
		}
		return s.renderer.Render(agg)
	})()
}
