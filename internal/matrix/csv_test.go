package matrix

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tdpFixture = `model,tdp (W),cores,threads
Xeon E5-2690 v2,130,10,20
Ryzen 7 3700X,65,8,16
default,91.64,8,16
`

func TestParse_TypesAndOrder(t *testing.T) {
	m, err := Parse(strings.NewReader(tdpFixture), ReadOptions{KeyColumnName: "model"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Xeon E5-2690 v2", "Ryzen 7 3700X", "default"}, m.RowKeys())
	assert.Equal(t, []string{"tdp (W)", "cores", "threads"}, m.ColKeys())

	got, err := m.Get("Xeon E5-2690 v2", "tdp (W)")
	require.NoError(t, err)
	assert.Equal(t, 130.0, got)

	got, err = m.Get("default", "tdp (W)")
	require.NoError(t, err)
	assert.Equal(t, 91.64, got)
}

func TestParse_NumericGrammar(t *testing.T) {
	tests := []struct {
		name string
		cell string
		want any
	}{
		{"integer", "42", 42.0},
		{"decimal", "3.14", 3.14},
		{"negative", "-7.5", -7.5},
		{"scientific", "1.2e3", 1200.0},
		{"leading zeros", "007", 7.0},
		{"empty is absent", "", nil},
		{"text stays string", "Xeon", "Xeon"},
		{"number with unit stays string", "95 W", "95 W"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := "key,val\nrow," + tt.cell + "\n"
			m, err := Parse(strings.NewReader(in), ReadOptions{})
			require.NoError(t, err)
			got, err := m.Get("row", "val")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_HeaderRowAndKeyPosition(t *testing.T) {
	in := "index,in Watt,,\nmodel,TDP,n_cores,threads\nEPYC 7251,120,8,16\n"
	m, err := Parse(strings.NewReader(in), ReadOptions{HeaderRow: 1, KeyColumn: 0})
	require.NoError(t, err)
	assert.Equal(t, []string{"EPYC 7251"}, m.RowKeys())
	assert.Equal(t, []string{"TDP", "n_cores", "threads"}, m.ColKeys())
}

func TestParse_KeyColumnNotFirst(t *testing.T) {
	in := "tdp,name\n95,CPU A\n65,CPU B\n"
	m, err := Parse(strings.NewReader(in), ReadOptions{KeyColumnName: "name"})
	require.NoError(t, err)
	assert.Equal(t, []string{"CPU A", "CPU B"}, m.RowKeys())
	assert.Equal(t, []string{"tdp"}, m.ColKeys())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		opts ReadOptions
	}{
		{"empty input", "", ReadOptions{}},
		{"missing key column name", "a,b\n1,2\n", ReadOptions{KeyColumnName: "model"}},
		{"key position out of range", "a,b\n1,2\n", ReadOptions{KeyColumn: 5}},
		{"ragged row", "a,b,c\nk,1\n", ReadOptions{}},
		{"duplicate row key", "a,b\nk,1\nk,2\n", ReadOptions{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.in), tt.opts)
			assert.ErrorIs(t, err, ErrParse)
		})
	}
}

func TestDelimitedText_RoundTrip(t *testing.T) {
	src := "model;tdp (W);cores;threads;note\nXeon Gold 6148;150;20;40;server\ndefault;91.64;8;;\n"
	m, err := Parse(strings.NewReader(src), ReadOptions{Separator: ';', KeyColumnName: "model"})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "tdp.csv")
	require.NoError(t, m.ToDelimitedText(path, ';'))

	back, err := FromDelimitedText(path, ReadOptions{Separator: ';', KeyColumnName: "model"})
	require.NoError(t, err)
	assert.True(t, m.Equal(back))
	assert.Equal(t, m.RowKeys(), back.RowKeys())
	assert.Equal(t, m.ColKeys(), back.ColKeys())

	// Numeric typing survives the round trip.
	got, err := back.Get("Xeon Gold 6148", "tdp (W)")
	require.NoError(t, err)
	assert.Equal(t, 150.0, got)
	got, err = back.Get("Xeon Gold 6148", "note")
	require.NoError(t, err)
	assert.Equal(t, "server", got)
	got, err = back.Get("default", "threads")
	require.NoError(t, err)
	assert.Nil(t, got)
}
