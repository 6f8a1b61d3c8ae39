// Package tdp resolves CPU model names to power-draw characteristics.
//
// The reference dataset (thermal design power, core and thread counts per
// model) is embedded at build time and may be overlaid with a user-supplied
// table. Model names are matched after normalization; a miss substitutes a
// reserved fallback row selected by machine type, so resolution never fails
// once a table is constructed.
package tdp

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/greenlab/co2footprint/internal/config"
	"github.com/greenlab/co2footprint/internal/matrix"
	"github.com/greenlab/co2footprint/internal/telemetry"
)

// Column labels of the power-draw table.
const (
	ColTDP     = "tdp (W)"
	ColCores   = "cores"
	ColThreads = "threads"
)

// Reserved fallback row keys.
const (
	KeyDefault        = "default"
	KeyDefaultLocal   = "default local"
	KeyDefaultCluster = "default compute cluster"
	KeyDefaultCloud   = "default cloud"
)

//go:embed data/tdp_cpu.csv
var referenceDataset string

// Table is a power-draw lookup keyed by CPU model name. It is read-only
// after construction and safe for unsynchronized concurrent reads; the
// warn-once set is the only mutable state in the matching path.
type Table struct {
	m           *matrix.Matrix
	fallbackKey string
	logger      zerolog.Logger

	// normalized maps NormalizeModelName(key) to the table row key.
	normalized map[string]string

	// warned dedups unmatched-model warnings by raw string for the
	// lifetime of the table.
	warned sync.Map
}

// Options configures table construction.
type Options struct {
	// FallbackKey is the reserved row substituted on a model miss. It must
	// exist in the table. Empty selects "default".
	FallbackKey string

	// CustomFile, when non-empty, is a delimited-text table of the same
	// shape merged over the reference dataset, taking precedence for
	// overlapping model keys.
	CustomFile string

	// Logger receives unmatched-model warnings.
	Logger zerolog.Logger
}

// NewTable builds the power-draw table from the embedded reference dataset,
// optionally overlaid with a custom table. It fails with
// config.ErrConfiguration if the selected fallback row does not exist, and
// with matrix.ErrParse if the custom file is malformed.
func NewTable(opts Options) (*Table, error) {
	m, err := matrix.Parse(strings.NewReader(referenceDataset), matrix.ReadOptions{KeyColumnName: "model"})
	if err != nil {
		return nil, fmt.Errorf("reference power-draw dataset: %w", err)
	}

	if opts.CustomFile != "" {
		custom, err := matrix.FromDelimitedText(opts.CustomFile, matrix.ReadOptions{KeyColumnName: "model"})
		if err != nil {
			return nil, fmt.Errorf("custom power-draw table: %w", err)
		}
		m.Update(custom)
	}

	fallback := opts.FallbackKey
	if fallback == "" {
		fallback = KeyDefault
	}
	if !m.HasRow(fallback) {
		return nil, fmt.Errorf("%w: fallback row %q not present in power-draw table", config.ErrConfiguration, fallback)
	}

	t := &Table{
		m:           m,
		fallbackKey: fallback,
		logger:      opts.Logger,
		normalized:  make(map[string]string, len(m.RowKeys())),
	}
	for _, key := range m.RowKeys() {
		t.normalized[NormalizeModelName(key)] = key
	}
	return t, nil
}

// FallbackKey returns the reserved row key substituted on a model miss.
func (t *Table) FallbackKey() string {
	return t.fallbackKey
}

// Matrix returns the underlying labeled matrix.
func (t *Table) Matrix() *matrix.Matrix {
	return t.m
}

// MatchModel resolves a raw CPU model name to a power-draw row. The raw name
// is normalized and matched exactly against the normalized table keys; on a
// miss the configured fallback row is substituted and a warning is emitted
// once per unique raw string for the lifetime of the table.
func (t *Table) MatchModel(rawModelName string) Row {
	if key, ok := t.normalized[NormalizeModelName(rawModelName)]; ok {
		return t.row(key)
	}
	telemetry.CPUModelFallbacks.Inc()
	if _, seen := t.warned.LoadOrStore(rawModelName, struct{}{}); !seen {
		t.logger.Warn().
			Str("cpu_model", rawModelName).
			Str("fallback", t.fallbackKey).
			Msg("CPU model not found in power-draw table; using fallback row. " +
				"Provide a custom table entry for this model to improve accuracy")
	}
	return t.row(t.fallbackKey)
}

// Fallback returns the configured fallback row directly, bypassing matching.
func (t *Table) Fallback() Row {
	return t.row(t.fallbackKey)
}

func (t *Table) row(key string) Row {
	sel, err := t.m.Select([]string{key}, t.m.ColKeys())
	if err != nil {
		// Keys handed to row are validated at construction or match time.
		panic(fmt.Sprintf("tdp: row %q vanished from table: %v", key, err))
	}
	return Row{m: sel, key: key}
}

// Row is a single matched power-draw table row.
type Row struct {
	m   *matrix.Matrix
	key string
}

// Model returns the table key the row was matched to (which is the fallback
// key when the raw name missed).
func (r Row) Model() string {
	return r.key
}

// Matrix returns the single-row labeled matrix backing the match.
func (r Row) Matrix() *matrix.Matrix {
	return r.m
}

// TDP returns the row's thermal design power in watts.
func (r Row) TDP() float64 {
	return r.number(ColTDP)
}

// Cores returns the row's physical core count.
func (r Row) Cores() float64 {
	return r.number(ColCores)
}

// Threads returns the row's thread count, or the core count when the
// threads column is absent for this model.
func (r Row) Threads() float64 {
	if !r.m.HasCol(ColThreads) {
		return r.Cores()
	}
	v, err := r.m.Get(r.key, ColThreads)
	if err != nil || v == nil {
		return r.Cores()
	}
	if f, ok := v.(float64); ok && f > 0 {
		return f
	}
	return r.Cores()
}

// CoreTDP returns the per-core power draw in watts.
func (r Row) CoreTDP() float64 {
	cores := r.Cores()
	if cores <= 0 {
		return 0
	}
	return r.TDP() / cores
}

// ThreadTDP returns the per-thread power draw in watts.
func (r Row) ThreadTDP() float64 {
	threads := r.Threads()
	if threads <= 0 {
		return 0
	}
	return r.TDP() / threads
}

func (r Row) number(col string) float64 {
	v, err := r.m.Get(r.key, col)
	if err != nil {
		return 0
	}
	if f, ok := v.(float64); ok {
		return f
	}
	return 0
}
