package trace

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64p(v int64) *int64 { return &v }

func TestMemoryGB_PrefersRequestedMemory(t *testing.T) {
	r := Record{
		Name:         "align",
		MemoryBytes:  int64p(7_000_000_000),
		PeakRSSBytes: int64p(3_000_000_000),
	}
	got, err := r.MemoryGB()
	require.NoError(t, err)
	assert.InDelta(t, 7.0, got, 1e-9)
}

func TestMemoryGB_FallsBackToPeakRSS(t *testing.T) {
	r := Record{Name: "align", PeakRSSBytes: int64p(3_500_000_000)}
	got, err := r.MemoryGB()
	require.NoError(t, err)
	assert.InDelta(t, 3.5, got, 1e-9)
}

func TestMemoryGB_MissingValue(t *testing.T) {
	r := Record{Name: "align"}
	_, err := r.MemoryGB()
	assert.ErrorIs(t, err, ErrMissingValue)
}

func TestRecord_Times(t *testing.T) {
	r := Record{
		StartEpochMs:    1_700_000_000_000,
		CompleteEpochMs: 1_700_003_600_000,
		DurationMs:      3_600_000,
	}
	assert.Equal(t, time.Hour, r.Duration())
	assert.Equal(t, time.Hour, r.Complete().Sub(r.Start()))
}

func TestReadFile(t *testing.T) {
	raw := `[
		{"name":"fastqc","cpus":2,"cpuUtilization":0.85,"memoryBytes":4000000000,
		 "durationMs":120000,"cpuModel":"Intel(R) Xeon(R) Gold 6148 CPU @ 2.40GHz",
		 "startEpochMs":1700000000000,"completeEpochMs":1700000120000,"status":"COMPLETED"},
		{"name":"align","cpus":8,"cpuUtilization":0.5,"peakRssBytes":9000000000,
		 "durationMs":600000,"startEpochMs":1700000000000,"completeEpochMs":1700000600000,"status":"COMPLETED"}
	]`
	path := filepath.Join(t.TempDir(), "trace.json")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	records, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "fastqc", records[0].Name)
	assert.Equal(t, 2, records[0].CPUs)
	require.NotNil(t, records[0].MemoryBytes)
	assert.Nil(t, records[0].PeakRSSBytes)
	assert.Equal(t, "", records[1].CPUModel)
}

func TestReadFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := ReadFile(path)
	assert.Error(t, err)
}
