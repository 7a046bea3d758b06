package charts

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/banshee-data/schoolstats/internal/fsutil"
	"github.com/banshee-data/schoolstats/internal/monitoring"
	"github.com/banshee-data/schoolstats/internal/schools"
)

// Output file names, relative to the renderer directory.
const (
	HTMLFileName = "school_statistics.html"
	PNGFileName  = "school_statistics.png"
)

// HTMLRenderer writes the interactive Bar3D page to Dir/HTMLFileName.
type HTMLRenderer struct {
	FS      fsutil.FileSystem
	Dir     string
	Options Options
}

// Path returns the file the renderer writes.
func (r HTMLRenderer) Path() string { return filepath.Join(r.Dir, HTMLFileName) }

// Render implements schools.Renderer.
func (r HTMLRenderer) Render(agg *schools.Aggregate) error {
	var buf bytes.Buffer
	if err := RenderHTML(&buf, agg, r.Options); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return writeOutput(r.FS, r.Dir, r.Path(), buf.Bytes())
}

// PNGRenderer writes the static two-panel chart to Dir/PNGFileName.
type PNGRenderer struct {
	FS  fsutil.FileSystem
	Dir string
}

// Path returns the file the renderer writes.
func (r PNGRenderer) Path() string { return filepath.Join(r.Dir, PNGFileName) }

// Render implements schools.Renderer.
func (r PNGRenderer) Render(agg *schools.Aggregate) error {
	var buf bytes.Buffer
	if err := RenderPNG(&buf, agg); err != nil {
		return err
	}
	return writeOutput(r.FS, r.Dir, r.Path(), buf.Bytes())
}

// Multi runs each renderer in order and stops at the first failure.
type Multi []schools.Renderer

// Render implements schools.Renderer.
func (m Multi) Render(agg *schools.Aggregate) error {
	for _, r := range m {
		if err := r.Render(agg); err != nil {
			return err
		}
	}
	return nil
}

func writeOutput(fs fsutil.FileSystem, dir, path string, data []byte) error {
	if fs == nil {
		fs = fsutil.OSFileSystem{}
	}
	if dir != "" {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}
	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	monitoring.Logf("wrote %s (%d bytes)", path, len(data))
	return nil
}

// formatCount renders n with noun pluralised by a trailing "s".
func formatCount(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
