package matrix

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

// ErrParse is returned for malformed delimited-text input at load time.
// Parse failures are fatal and abort initialization.
var ErrParse = errors.New("parse error")

// ReadOptions controls how a delimited-text file is interpreted.
type ReadOptions struct {
	// Separator is the field delimiter. Defaults to ','.
	Separator rune

	// HeaderRow is the zero-based position of the header row; rows before
	// it are skipped.
	HeaderRow int

	// KeyColumnName selects the row-key column by header label. When set it
	// takes precedence over KeyColumn.
	KeyColumnName string

	// KeyColumn is the zero-based position of the row-key column.
	KeyColumn int
}

// FromDelimitedText reads a labeled matrix from a delimited-text file.
// The header row provides the column labels; the key column provides the row
// labels and is excluded from the column set.
//
// Cell typing is established at parse time: a cell accepted by Go's
// floating-point literal grammar (integers, decimals, scientific notation,
// leading zeros included) becomes a float64, an empty cell becomes absent,
// anything else stays a string.
func FromDelimitedText(path string, opts ReadOptions) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	m, err := Parse(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse reads a labeled matrix from delimited text. See FromDelimitedText.
func Parse(r io.Reader, opts ReadOptions) (*Matrix, error) {
	cr := csv.NewReader(r)
	if opts.Separator != 0 {
		cr.Comma = opts.Separator
	}
	cr.FieldsPerRecord = -1

	for skip := 0; skip < opts.HeaderRow; skip++ {
		if _, err := cr.Read(); err != nil {
			return nil, fmt.Errorf("%w: missing header row %d: %v", ErrParse, opts.HeaderRow, err)
		}
	}
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrParse, err)
	}

	keyIdx := opts.KeyColumn
	if opts.KeyColumnName != "" {
		keyIdx = -1
		for i, name := range header {
			if name == opts.KeyColumnName {
				keyIdx = i
				break
			}
		}
		if keyIdx < 0 {
			return nil, fmt.Errorf("%w: key column %q not in header", ErrParse, opts.KeyColumnName)
		}
	}
	if keyIdx < 0 || keyIdx >= len(header) {
		return nil, fmt.Errorf("%w: key column position %d out of range", ErrParse, keyIdx)
	}

	colKeys := make([]string, 0, len(header)-1)
	for i, name := range header {
		if i != keyIdx {
			colKeys = append(colKeys, name)
		}
	}

	m, err := New(nil, colKeys)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	m.keyHeader = header[keyIdx]

	for line := opts.HeaderRow + 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrParse, line, err)
		}
		if len(record) != len(header) {
			return nil, fmt.Errorf("%w: line %d: got %d fields, want %d", ErrParse, line, len(record), len(header))
		}
		rowKey := record[keyIdx]
		if m.HasRow(rowKey) {
			return nil, fmt.Errorf("%w: line %d: duplicate row key %q", ErrParse, line, rowKey)
		}
		values := make([]any, 0, len(colKeys))
		for i, cell := range record {
			if i != keyIdx {
				values = append(values, parseCell(cell))
			}
		}
		if err := m.PutRow(values, rowKey); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrParse, line, err)
		}
	}
	return m, nil
}

// parseCell applies the numeric-vs-string typing rule to a raw cell.
func parseCell(cell string) any {
	if cell == "" {
		return nil
	}
	if v, err := strconv.ParseFloat(cell, 64); err == nil {
		return v
	}
	return cell
}

// ToDelimitedText writes the matrix as delimited text. A subsequent
// FromDelimitedText with the same separator reproduces an equal matrix.
func (m *Matrix) ToDelimitedText(path string, separator rune) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := m.WriteDelimited(f, separator); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// WriteDelimited writes the matrix as delimited text to w.
func (m *Matrix) WriteDelimited(w io.Writer, separator rune) error {
	cw := csv.NewWriter(w)
	if separator != 0 {
		cw.Comma = separator
	}

	header := make([]string, 0, len(m.colKeys)+1)
	header = append(header, m.keyHeader)
	header = append(header, m.colKeys...)
	if err := cw.Write(header); err != nil {
		return err
	}

	record := make([]string, len(m.colKeys)+1)
	for ri, rk := range m.rowKeys {
		record[0] = rk
		for ci := range m.colKeys {
			record[ci+1] = formatCell(m.cells[ri][ci])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// formatCell renders a cell so that parseCell recovers the same value and
// type. Floats use the shortest representation that round-trips exactly.
func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
