package testutil

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/schoolstats/internal/monitoring"
)

func TestAssertStatusCode(t *testing.T) {
	AssertStatusCode(t, http.StatusOK, http.StatusOK)
	AssertStatusCode(t, http.StatusNotFound, http.StatusNotFound)
}

func TestNewTestRequest(t *testing.T) {
	req := NewTestRequest(http.MethodGet, "/api/stats")
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/api/stats", req.URL.Path)

	rec := NewTestRecorder()
	rec.WriteHeader(http.StatusAccepted)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestCaptureLogs(t *testing.T) {
	var logs *LogCapture
	t.Run("captures", func(t *testing.T) {
		logs = CaptureLogs(t)
		monitoring.Logf("hello %s", "world")
		monitoring.WithPrefix("run 1")("step %d", 2)

		assert.Equal(t, []string{"hello world", "[run 1] step 2"}, logs.Lines())
		assert.Equal(t, "hello world\n[run 1] step 2", logs.String())
	})

	// Restored after the subtest: later lines are not captured.
	monitoring.Logf("after")
	assert.Len(t, logs.Lines(), 2)
}

func TestSchoolCSV(t *testing.T) {
	data := SchoolCSV(t, []string{"STATE", "NAME", "TOTALREV"},
		[]string{"Texas", "Alamo, Elementary", "10"},
		[]string{"Iowa", "Ames", "NA"},
	)
	assert.Equal(t, "STATE,NAME,TOTALREV\nTexas,\"Alamo, Elementary\",10\nIowa,Ames,NA\n", string(data))
}

func TestSeedCSV(t *testing.T) {
	mfs := SeedCSV(t, "/data/in.csv", []string{"STATE", "TOTALREV"}, []string{"Ohio", "4"})
	got, err := mfs.ReadFile("/data/in.csv")
	require.NoError(t, err)
	assert.Equal(t, "STATE,TOTALREV\nOhio,4\n", string(got))
}
