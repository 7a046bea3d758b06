package monitoring

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/schoolstats/internal/timeutil"
)

type recorder struct {
	lines []string
}

func (r *recorder) logf(format string, v ...interface{}) {
	r.lines = append(r.lines, fmt.Sprintf(format, v...))
}

func TestStep_LogsEntryAndCompletion(t *testing.T) {
	rec := &recorder{}
	ran := false

	err := Step(rec.logf, "load_data", func() error {
		ran = true
		return nil
	})()

	require.NoError(t, err)
	assert.True(t, ran)
	require.Len(t, rec.lines, 2)
	assert.Equal(t, "calling load_data", rec.lines[0])
	assert.True(t, strings.HasPrefix(rec.lines[1], "load_data done in "), rec.lines[1])
}

func TestStep_PassesErrorThrough(t *testing.T) {
	rec := &recorder{}
	sentinel := errors.New("boom")

	err := Step(rec.logf, "filter_states", func() error { return sentinel })()

	assert.ErrorIs(t, err, sentinel)
	require.Len(t, rec.lines, 2)
	assert.Contains(t, rec.lines[1], "filter_states failed")
	assert.Contains(t, rec.lines[1], "boom")
}

func TestStep_NilLoggerUsesPackageLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	rec := &recorder{}
	SetLogger(rec.logf)

	require.NoError(t, Step(nil, "noop", func() error { return nil })())
	assert.Len(t, rec.lines, 2)
}

func TestStepValue(t *testing.T) {
	rec := &recorder{}

	got, err := StepValue(rec.logf, "process_data", func() (int, error) { return 42, nil })()
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, "calling process_data", rec.lines[0])

	got, err = StepValue(rec.logf, "process_data", func() (int, error) { return 7, errors.New("bad") })()
	assert.Error(t, err)
	assert.Equal(t, 7, got)
}

func TestStep_ReportsElapsedTime(t *testing.T) {
	original := Clock
	defer func() { Clock = original }()

	mock := timeutil.NewMockClock(time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC))
	Clock = mock

	rec := &recorder{}
	require.NoError(t, Step(rec.logf, "load_data", func() error {
		mock.Advance(1500 * time.Millisecond)
		return nil
	})())
	assert.Equal(t, "load_data done in 1.5s", rec.lines[1])

	_ = Step(rec.logf, "plot_statistics", func() error {
		mock.Advance(2 * time.Second)
		return errors.New("no display")
	})()
	assert.Equal(t, "plot_statistics failed after 2s: no display", rec.lines[3])
}
