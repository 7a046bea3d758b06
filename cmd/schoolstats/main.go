// Command schoolstats loads a CSV of school records, keeps a fixed set of
// states, counts schools and averages their total revenue per state, and
// draws the result as an interactive 3D bar chart.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/schoolstats/internal/charts"
	"github.com/banshee-data/schoolstats/internal/config"
	"github.com/banshee-data/schoolstats/internal/fsutil"
	"github.com/banshee-data/schoolstats/internal/monitoring"
	"github.com/banshee-data/schoolstats/internal/schools"
	"github.com/banshee-data/schoolstats/internal/version"
)

// options holds the parsed command line.
type options struct {
	configPath  string
	outDir      string
	writePNG    bool
	listen      string
	autoRotate  bool
	showVersion bool
}

func parseFlags(fs *flag.FlagSet, args []string) (options, error) {
	var o options
	fs.StringVar(&o.configPath, "config", "", "Path to JSON pipeline config (optional)")
	fs.StringVar(&o.outDir, "out", ".", "Directory for rendered charts")
	fs.BoolVar(&o.writePNG, "png", true, "Also write a static PNG chart")
	fs.StringVar(&o.listen, "listen", "", "Serve charts on this address until interrupted (e.g. :8080)")
	fs.BoolVar(&o.autoRotate, "rotate", false, "Auto-rotate the 3D chart")
	fs.BoolVar(&o.showVersion, "version", false, "Print version and exit")
	err := fs.Parse(args)
	return o, err
}

func main() {
	o, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("failed to parse flags: %v", err)
	}
	if o.showVersion {
		fmt.Println(version.String())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o, fsutil.OSFileSystem{}, os.Stdout); err != nil {
		log.Fatalf("schoolstats: %v", err)
	}
}

// run executes load → filter → process → plot and, with -listen, serves the
// charts until ctx is cancelled.
func run(ctx context.Context, o options, fs fsutil.FileSystem, stdout io.Writer) error {
	cfg := config.EmptyPipelineConfig()
	if o.configPath != "" {
		loaded, err := config.LoadPipelineConfig(o.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	aggregator, closeAgg, err := newAggregator(cfg.GetEngine())
	if err != nil {
		return err
	}
	defer closeAgg()

	chartOpts := charts.Options{AutoRotate: o.autoRotate}
	renderers := charts.Multi{charts.HTMLRenderer{FS: fs, Dir: o.outDir, Options: chartOpts}}
	if o.writePNG {
		renderers = append(renderers, charts.PNGRenderer{FS: fs, Dir: o.outDir})
	}

	stats := schools.New(cfg.GetDataPath(),
		schools.WithFileSystem(fs),
		schools.WithColumns(schools.Columns{Region: cfg.GetRegionColumn(), Revenue: cfg.GetRevenueColumn()}),
		schools.WithAggregator(aggregator),
		schools.WithRenderer(renderers),
	)
	monitoring.Logf("schoolstats %s run %s: engine=%s data=%s", version.Version, stats.RunID(), cfg.GetEngine(), cfg.GetDataPath())

	if err := stats.LoadData(); err != nil {
		return fmt.Errorf("failed to load data: %w", err)
	}
	if err := stats.FilterStates(cfg.GetRegions()); err != nil {
		return fmt.Errorf("failed to filter states: %w", err)
	}
	agg, err := stats.ProcessData(ctx)
	if err != nil {
		return fmt.Errorf("failed to process data: %w", err)
	}
	if agg == nil {
		return nil
	}
	if err := stats.PlotStatistics(agg); err != nil {
		return fmt.Errorf("failed to plot statistics: %w", err)
	}
	printSummary(stdout, agg)

	if o.listen == "" {
		return nil
	}
	srv, err := charts.NewServer(charts.ServerConfig{Address: o.listen, Aggregate: agg, Options: chartOpts})
	if err != nil {
		return err
	}
	return srv.Start(ctx)
}

// newAggregator returns the configured engine and its cleanup func.
func newAggregator(engine string) (schools.Aggregator, func(), error) {
	switch engine {
	case config.EngineSQL:
		a, err := schools.NewSQLAggregator()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sql engine: %w", err)
		}
		return a, func() {
			if err := a.Close(); err != nil {
				monitoring.Logf("failed to close sql engine: %v", err)
			}
		}, nil
	case config.EngineFrame, "":
		return schools.FrameAggregator{}, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown engine %q", engine)
	}
}

func printSummary(w io.Writer, agg *schools.Aggregate) {
	fmt.Fprintf(w, "%-12s %8s %16s\n", "STATE", "SCHOOLS", "AVG BUDGET")
	for _, r := range agg.Rows {
		fmt.Fprintf(w, "%-12s %8d %16.2f\n", r.Region, r.SchoolsCount, r.AvgBudget)
	}
}
