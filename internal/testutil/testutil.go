// Package testutil provides shared test helpers: HTTP request plumbing, log
// capture and CSV fixtures.
package testutil

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/banshee-data/schoolstats/internal/fsutil"
	"github.com/banshee-data/schoolstats/internal/monitoring"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t testing.TB, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// NewTestRequest creates a test HTTP request.
func NewTestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

// NewTestRecorder creates a test response recorder.
func NewTestRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}

// LogCapture collects lines written through monitoring.Logf.
type LogCapture struct {
	mu    sync.Mutex
	lines []string
}

// CaptureLogs redirects monitoring.Logf into a LogCapture until the test ends.
func CaptureLogs(t testing.TB) *LogCapture {
	t.Helper()
	c := &LogCapture{}
	original := monitoring.Logf
	monitoring.SetLogger(func(format string, v ...interface{}) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.lines = append(c.lines, fmt.Sprintf(format, v...))
	})
	t.Cleanup(func() { monitoring.Logf = original })
	return c
}

// Lines returns a copy of the captured lines.
func (c *LogCapture) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

// String joins the captured lines with newlines.
func (c *LogCapture) String() string {
	return strings.Join(c.Lines(), "\n")
}

// SchoolCSV encodes a header and rows as CSV.
func SchoolCSV(t testing.TB, header []string, rows ...[]string) []byte {
	t.Helper()
	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.Write(header); err != nil {
		t.Fatalf("write header: %v", err)
	}
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("write rows: %v", err)
	}
	return []byte(b.String())
}

// SeedCSV writes a CSV fixture into a fresh memory filesystem at path.
func SeedCSV(t testing.TB, path string, header []string, rows ...[]string) *fsutil.MemoryFileSystem {
	t.Helper()
	mfs := fsutil.NewMemoryFileSystem()
	mfs.WriteFile(path, SchoolCSV(t, header, rows...))
	return mfs
}
