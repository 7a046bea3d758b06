package main

import (
	"bytes"
	"context"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/schoolstats/internal/fsutil"
	"github.com/banshee-data/schoolstats/internal/testutil"
)

var header = []string{"STATE", "NAME", "TOTALREV"}

func seed(t *testing.T) *fsutil.MemoryFileSystem {
	t.Helper()
	return testutil.SeedCSV(t, "school_data.csv", header,
		[]string{"Texas", "Alamo", "10"},
		[]string{"Texas", "Bexar", "30"},
		[]string{"Iowa", "Ames", "5"},
		[]string{"Hawaii", "Hilo", "NA"},
		[]string{"Ohio", "Akron", "99"},
	)
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want options
	}{
		{"defaults", nil, options{outDir: ".", writePNG: true}},
		{"all", []string{"-config", "c.json", "-out", "charts", "-png=false", "-listen", ":8080", "-rotate", "-version"},
			options{configPath: "c.json", outDir: "charts", listen: ":8080", autoRotate: true, showVersion: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("schoolstats", flag.ContinueOnError)
			got, err := parseFlags(fs, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	fs := flag.NewFlagSet("schoolstats", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	_, err := parseFlags(fs, []string{"-bogus"})
	assert.Error(t, err)
}

func TestRun_WritesCharts(t *testing.T) {
	for _, engine := range []string{"frame", "sql"} {
		t.Run(engine, func(t *testing.T) {
			logs := testutil.CaptureLogs(t)
			mfs := seed(t)

			cfgPath := filepath.Join(t.TempDir(), "pipeline.json")
			require.NoError(t, os.WriteFile(cfgPath, []byte(`{"engine":"`+engine+`"}`), 0o644))

			var out bytes.Buffer
			err := run(context.Background(), options{configPath: cfgPath, outDir: "/charts", writePNG: true}, mfs, &out)
			require.NoError(t, err)

			assert.Equal(t, []string{"/charts/school_statistics.html", "/charts/school_statistics.png"}, mfs.Files("/charts"))
			assert.Contains(t, out.String(), "Hawaii")
			assert.Contains(t, out.String(), "Texas")
			assert.NotContains(t, out.String(), "Ohio")
			assert.Contains(t, logs.String(), "engine="+engine)
			assert.Contains(t, logs.String(), "aggregated 3 regions, 4 schools")
		})
	}
}

func TestRun_HTMLOnly(t *testing.T) {
	testutil.CaptureLogs(t)
	mfs := seed(t)

	require.NoError(t, run(context.Background(), options{outDir: "/out"}, mfs, io.Discard))
	assert.Equal(t, []string{"/out/school_statistics.html"}, mfs.Files("/out"))
}

func TestRun_MissingDataIsError(t *testing.T) {
	testutil.CaptureLogs(t)

	err := run(context.Background(), options{outDir: "/out"}, fsutil.NewMemoryFileSystem(), io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load data")
}

func TestRun_BadConfig(t *testing.T) {
	testutil.CaptureLogs(t)

	err := run(context.Background(), options{configPath: "pipeline.yaml"}, seed(t), io.Discard)
	assert.Error(t, err)
}

func TestNewAggregator(t *testing.T) {
	for _, engine := range []string{"", "frame", "sql"} {
		a, closeFn, err := newAggregator(engine)
		require.NoError(t, err, engine)
		assert.NotNil(t, a)
		closeFn()
	}

	_, _, err := newAggregator("spark")
	assert.EqualError(t, err, `unknown engine "spark"`)
}
