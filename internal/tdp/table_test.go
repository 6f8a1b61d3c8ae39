package tdp

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenlab/co2footprint/internal/config"
	"github.com/greenlab/co2footprint/internal/matrix"
)

func newTestTable(t *testing.T, opts Options) (*Table, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	opts.Logger = zerolog.New(buf)
	tbl, err := NewTable(opts)
	require.NoError(t, err)
	return tbl, buf
}

func warnCount(buf *bytes.Buffer) int {
	return strings.Count(buf.String(), `"level":"warn"`)
}

func TestNewTable_FallbackRowsPresent(t *testing.T) {
	for _, key := range []string{KeyDefault, KeyDefaultLocal, KeyDefaultCluster, KeyDefaultCloud} {
		_, err := NewTable(Options{FallbackKey: key, Logger: zerolog.Nop()})
		assert.NoError(t, err, "fallback %q", key)
	}
}

func TestNewTable_MissingFallbackIsConfigurationError(t *testing.T) {
	_, err := NewTable(Options{FallbackKey: "default quantum", Logger: zerolog.Nop()})
	assert.ErrorIs(t, err, config.ErrConfiguration)
}

func TestMatchModel_ExactAfterNormalization(t *testing.T) {
	tbl, buf := newTestTable(t, Options{})

	variants := []string{
		"Intel(R) Xeon(R) Gold 6148 CPU @ 2.40GHz",
		"Intel® Xeon® Gold 6148 CPU @ 2.40GHz",
		"xeon gold 6148",
	}
	for _, raw := range variants {
		row := tbl.MatchModel(raw)
		assert.Equal(t, "Xeon Gold 6148", row.Model(), "raw %q", raw)
		assert.InDelta(t, 150.0, row.TDP(), 1e-9)
		assert.InDelta(t, 7.5, row.CoreTDP(), 1e-9)
		assert.InDelta(t, 3.75, row.ThreadTDP(), 1e-9)
	}
	assert.Zero(t, warnCount(buf), "matched models must not warn")
}

func TestMatchModel_CaseGlyphVariantsShareRow(t *testing.T) {
	tbl, _ := newTestTable(t, Options{})

	a := tbl.MatchModel("Intel® i3-Fantasy™")
	b := tbl.MatchModel("Intel(R) i3-Fantasy(TM)")
	c := tbl.MatchModel("intel i3-fantasy")

	assert.Equal(t, a.Model(), b.Model())
	assert.Equal(t, b.Model(), c.Model())
}

func TestMatchModel_FallbackWarnsOncePerRawString(t *testing.T) {
	tbl, buf := newTestTable(t, Options{})

	for i := 0; i < 3; i++ {
		row := tbl.MatchModel("Non-existent")
		assert.Equal(t, KeyDefault, row.Model())
	}
	assert.Equal(t, 1, warnCount(buf), "same raw string must warn exactly once")

	// A different raw string warns again, even if it normalizes the same.
	tbl.MatchModel("Non-existent CPU")
	assert.Equal(t, 2, warnCount(buf))
}

func TestMatchModel_MachineTypeSelectsFallback(t *testing.T) {
	tbl, _ := newTestTable(t, Options{FallbackKey: KeyDefaultCloud})

	row := tbl.MatchModel("Unknown model")
	assert.Equal(t, KeyDefaultCloud, row.Model())
	assert.InDelta(t, 200.0/64.0, row.CoreTDP(), 1e-9)
}

func TestMatchModel_DefaultRowFixture(t *testing.T) {
	tbl, _ := newTestTable(t, Options{})

	row := tbl.MatchModel("Unknown model")
	assert.Equal(t, KeyDefault, row.Model())
	assert.InDelta(t, 11.455, row.CoreTDP(), 1e-6)
}

func TestNewTable_CustomOverrideTakesPrecedence(t *testing.T) {
	custom := "model,tdp (W),cores,threads\nRyzen 7 3700X,80,8,16\nLab CPU X1,42,2,4\n"
	path := filepath.Join(t.TempDir(), "custom.csv")
	require.NoError(t, os.WriteFile(path, []byte(custom), 0o644))

	tbl, buf := newTestTable(t, Options{CustomFile: path})

	// Overlapping key overwritten.
	row := tbl.MatchModel("AMD Ryzen 7 3700X 8-Core Processor")
	assert.Equal(t, "Ryzen 7 3700X", row.Model())
	assert.InDelta(t, 80.0, row.TDP(), 1e-9)

	// New key appended and matchable.
	row = tbl.MatchModel("Lab CPU X1")
	assert.Equal(t, "Lab CPU X1", row.Model())
	assert.InDelta(t, 21.0, row.CoreTDP(), 1e-9)

	assert.Zero(t, warnCount(buf))
}

func TestNewTable_MalformedCustomFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.csv")
	require.NoError(t, os.WriteFile(path, []byte("model,tdp (W)\nonly-key\n"), 0o644))

	_, err := NewTable(Options{CustomFile: path, Logger: zerolog.Nop()})
	assert.ErrorIs(t, err, matrix.ErrParse)
}

func TestRow_ThreadsFallsBackToCores(t *testing.T) {
	custom := "model,tdp (W),cores,threads\nNo Threads CPU,100,4,\n"
	path := filepath.Join(t.TempDir(), "custom.csv")
	require.NoError(t, os.WriteFile(path, []byte(custom), 0o644))

	tbl, _ := newTestTable(t, Options{CustomFile: path})
	row := tbl.MatchModel("No Threads CPU")
	assert.InDelta(t, 4.0, row.Threads(), 1e-9)
	assert.InDelta(t, 25.0, row.ThreadTDP(), 1e-9)
}
