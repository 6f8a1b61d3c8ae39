// Package matrix provides a generic two-dimensional container addressed by
// row and column labels rather than raw indices. Cells hold either a float64,
// a string, or nil (absent). Key order is insertion order and is preserved
// across selection and serialization.
package matrix

import (
	"errors"
	"fmt"
)

// ErrUnknownKey is returned when a row or column label is not present in the
// matrix. Lookups against internal keys are expected to recover via a
// caller-chosen fallback.
var ErrUnknownKey = errors.New("unknown key")

// Matrix is a rectangular grid of heterogeneous cells with labeled rows and
// columns. Row and column label sets each contain unique keys; every
// (row, column) label pair maps to exactly one cell.
//
// A Matrix is not safe for concurrent mutation. The intended lifecycle is
// build once (from literal data or a delimited-text file), optionally overlay
// a second matrix via Update, then read-only for the rest of its lifetime.
type Matrix struct {
	rowKeys []string
	colKeys []string
	rowIdx  map[string]int
	colIdx  map[string]int
	cells   [][]any

	// keyHeader is the header label of the row-key column, kept so a
	// delimited-text round trip reproduces the original header.
	keyHeader string
}

// New creates a matrix with the given row and column labels and all cells
// absent. Returns an error if either label set contains duplicates.
func New(rowKeys, colKeys []string) (*Matrix, error) {
	m := &Matrix{
		rowIdx: make(map[string]int, len(rowKeys)),
		colIdx: make(map[string]int, len(colKeys)),
	}
	for _, k := range colKeys {
		if _, dup := m.colIdx[k]; dup {
			return nil, fmt.Errorf("duplicate column key %q", k)
		}
		m.colIdx[k] = len(m.colKeys)
		m.colKeys = append(m.colKeys, k)
	}
	for _, k := range rowKeys {
		if _, dup := m.rowIdx[k]; dup {
			return nil, fmt.Errorf("duplicate row key %q", k)
		}
		m.rowIdx[k] = len(m.rowKeys)
		m.rowKeys = append(m.rowKeys, k)
		m.cells = append(m.cells, make([]any, len(m.colKeys)))
	}
	return m, nil
}

// SetKeyHeader sets the header label written for the row-key column by
// WriteDelimited. Matrices parsed from delimited text carry the label of the
// source's key column; matrices built with New start with an empty label.
func (m *Matrix) SetKeyHeader(label string) {
	m.keyHeader = label
}

// RowKeys returns the row labels in insertion order.
func (m *Matrix) RowKeys() []string {
	out := make([]string, len(m.rowKeys))
	copy(out, m.rowKeys)
	return out
}

// ColKeys returns the column labels in insertion order.
func (m *Matrix) ColKeys() []string {
	out := make([]string, len(m.colKeys))
	copy(out, m.colKeys)
	return out
}

// HasRow reports whether a row with the given label exists.
func (m *Matrix) HasRow(rowKey string) bool {
	_, ok := m.rowIdx[rowKey]
	return ok
}

// HasCol reports whether a column with the given label exists.
func (m *Matrix) HasCol(colKey string) bool {
	_, ok := m.colIdx[colKey]
	return ok
}

// Get returns the cell at (rowKey, colKey). An absent cell is returned as
// nil. Fails with ErrUnknownKey if either label does not exist.
func (m *Matrix) Get(rowKey, colKey string) (any, error) {
	ri, ok := m.rowIdx[rowKey]
	if !ok {
		return nil, fmt.Errorf("row %q: %w", rowKey, ErrUnknownKey)
	}
	ci, ok := m.colIdx[colKey]
	if !ok {
		return nil, fmt.Errorf("column %q: %w", colKey, ErrUnknownKey)
	}
	return m.cells[ri][ci], nil
}

// Set updates the cell at (rowKey, colKey) in place. Fails with ErrUnknownKey
// if either label does not exist; use PutRow to add new rows.
func (m *Matrix) Set(value any, rowKey, colKey string) error {
	ri, ok := m.rowIdx[rowKey]
	if !ok {
		return fmt.Errorf("row %q: %w", rowKey, ErrUnknownKey)
	}
	ci, ok := m.colIdx[colKey]
	if !ok {
		return fmt.Errorf("column %q: %w", colKey, ErrUnknownKey)
	}
	m.cells[ri][ci] = value
	return nil
}

// PutRow replaces the row if rowKey already exists, otherwise appends a new
// row. The column set is unchanged; values must align positionally with the
// existing column order.
func (m *Matrix) PutRow(values []any, rowKey string) error {
	if len(values) != len(m.colKeys) {
		return fmt.Errorf("row %q: got %d values for %d columns", rowKey, len(values), len(m.colKeys))
	}
	row := make([]any, len(values))
	copy(row, values)
	if ri, ok := m.rowIdx[rowKey]; ok {
		m.cells[ri] = row
		return nil
	}
	m.rowIdx[rowKey] = len(m.rowKeys)
	m.rowKeys = append(m.rowKeys, rowKey)
	m.cells = append(m.cells, row)
	return nil
}

// Select returns a new matrix restricted to the requested row and column
// labels, preserving their relative insertion order from the source matrix.
// Fails with ErrUnknownKey if any requested label does not exist.
func (m *Matrix) Select(rowKeys, colKeys []string) (*Matrix, error) {
	wantRow := make(map[string]bool, len(rowKeys))
	for _, k := range rowKeys {
		if _, ok := m.rowIdx[k]; !ok {
			return nil, fmt.Errorf("row %q: %w", k, ErrUnknownKey)
		}
		wantRow[k] = true
	}
	wantCol := make(map[string]bool, len(colKeys))
	for _, k := range colKeys {
		if _, ok := m.colIdx[k]; !ok {
			return nil, fmt.Errorf("column %q: %w", k, ErrUnknownKey)
		}
		wantCol[k] = true
	}

	var selRows, selCols []string
	for _, k := range m.rowKeys {
		if wantRow[k] {
			selRows = append(selRows, k)
		}
	}
	for _, k := range m.colKeys {
		if wantCol[k] {
			selCols = append(selCols, k)
		}
	}

	out, err := New(selRows, selCols)
	if err != nil {
		return nil, err
	}
	out.keyHeader = m.keyHeader
	for _, rk := range selRows {
		for _, ck := range selCols {
			v, _ := m.Get(rk, ck)
			_ = out.Set(v, rk, ck)
		}
	}
	return out, nil
}

// Update overlays other onto m row-wise. For each row key in other, its
// columns are merged into m, creating the row if absent. Columns present in
// other but not in m are appended to m's column set. Cells defined by
// neither matrix stay absent.
func (m *Matrix) Update(other *Matrix) {
	for _, ck := range other.colKeys {
		if _, ok := m.colIdx[ck]; !ok {
			m.colIdx[ck] = len(m.colKeys)
			m.colKeys = append(m.colKeys, ck)
			for ri := range m.cells {
				m.cells[ri] = append(m.cells[ri], nil)
			}
		}
	}
	for ori, rk := range other.rowKeys {
		ri, ok := m.rowIdx[rk]
		if !ok {
			ri = len(m.rowKeys)
			m.rowIdx[rk] = ri
			m.rowKeys = append(m.rowKeys, rk)
			m.cells = append(m.cells, make([]any, len(m.colKeys)))
		}
		for oci, ck := range other.colKeys {
			m.cells[ri][m.colIdx[ck]] = other.cells[ori][oci]
		}
	}
}

// Equal reports whether two matrices have the same row keys, column keys
// (in the same order) and cell values.
func (m *Matrix) Equal(other *Matrix) bool {
	if len(m.rowKeys) != len(other.rowKeys) || len(m.colKeys) != len(other.colKeys) {
		return false
	}
	for i, k := range m.rowKeys {
		if other.rowKeys[i] != k {
			return false
		}
	}
	for i, k := range m.colKeys {
		if other.colKeys[i] != k {
			return false
		}
	}
	for ri := range m.cells {
		for ci := range m.cells[ri] {
			if m.cells[ri][ci] != other.cells[ri][ci] {
				return false
			}
		}
	}
	return true
}
