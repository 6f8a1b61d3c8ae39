// Package main provides a tool to refresh the bundled CPU power-draw dataset.
//
// The tool downloads the Green Algorithms CPU TDP CSV, reshapes it into the
// schema the table package embeds (model key plus tdp/cores/threads columns),
// and writes it to internal/tdp/data/tdp_cpu.csv for embedding at build time.
// Rows with a missing or non-positive TDP or core count are dropped. The
// reserved fallback rows are preserved from the existing dataset, so a
// refresh never removes them.
//
// Usage:
//
//	go run ./tools/generate-tdp-data [--out-dir DIR] [--validate]
//
// Flags:
//
//	--out-dir   Output directory (default: ./internal/tdp/data)
//	--validate  Validate the reshaped dataset before writing
package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/greenlab/co2footprint/internal/matrix"
)

const (
	// tdpDataURL is the raw GitHub URL for the Green Algorithms CPU TDP
	// dataset. License: CC BY 4.0.
	tdpDataURL = "https://raw.githubusercontent.com/GreenAlgorithms/green-algorithms-tool/master/data/latest/TDP_cpu.csv"

	// outputFileName is the name of the generated CSV file.
	outputFileName = "tdp_cpu.csv"

	// expectedMinRows guards against truncated downloads. The upstream
	// dataset lists a few hundred CPU models.
	expectedMinRows = 50
)

// Upstream and embedded column names.
const (
	srcColTDP   = "TDP"
	srcColCores = "n_cores"

	dstColTDP     = "tdp (W)"
	dstColCores   = "cores"
	dstColThreads = "threads"
)

func main() {
	outDir := flag.String("out-dir", "./internal/tdp/data", "Output directory for the CSV file")
	validate := flag.Bool("validate", true, "Validate the reshaped dataset before writing")
	flag.Parse()

	fmt.Println("Fetching Green Algorithms CPU TDP dataset...")
	fmt.Printf("Source: %s\n", tdpDataURL)

	data, err := fetchTDPData()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching TDP data: %v\n", err)
		os.Exit(1)
	}

	upstream, err := matrix.Parse(strings.NewReader(string(data)), matrix.ReadOptions{KeyColumnName: "model"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing upstream CSV: %v\n", err)
		os.Exit(1)
	}

	outPath := filepath.Join(*outDir, outputFileName)
	reshaped, err := reshape(upstream, outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reshaping dataset: %v\n", err)
		os.Exit(1)
	}

	if *validate {
		if err := validateDataset(reshaped); err != nil {
			fmt.Fprintf(os.Stderr, "Validation error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Validation passed")
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}
	if err := reshaped.ToDelimitedText(outPath, ','); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully wrote %s (%d models)\n", outPath, len(reshaped.RowKeys()))
}

// fetchTDPData downloads the upstream CPU TDP CSV.
func fetchTDPData() ([]byte, error) {
	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(tdpDataURL)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

// reshape converts the upstream matrix into the embedded schema and carries
// over the reserved fallback rows from the existing dataset at outPath. Rows
// that fail the numeric sanity checks are dropped with a note.
func reshape(upstream *matrix.Matrix, outPath string) (*matrix.Matrix, error) {
	for _, col := range []string{srcColTDP, srcColCores} {
		if !upstream.HasCol(col) {
			return nil, fmt.Errorf("upstream dataset has no %q column", col)
		}
	}

	out, err := matrix.New(nil, []string{dstColTDP, dstColCores, dstColThreads})
	if err != nil {
		return nil, err
	}
	out.SetKeyHeader("model")

	existing, err := matrix.FromDelimitedText(outPath, matrix.ReadOptions{KeyColumnName: "model"})
	if err != nil {
		return nil, fmt.Errorf("existing dataset: %w", err)
	}
	for _, key := range existing.RowKeys() {
		if !strings.HasPrefix(key, "default") {
			continue
		}
		tdp, _ := existing.Get(key, dstColTDP)
		cores, _ := existing.Get(key, dstColCores)
		threads, _ := existing.Get(key, dstColThreads)
		if err := out.PutRow([]any{tdp, cores, threads}, key); err != nil {
			return nil, err
		}
	}

	dropped := 0
	for _, key := range upstream.RowKeys() {
		tdp := number(upstream, key, srcColTDP)
		cores := number(upstream, key, srcColCores)
		if tdp <= 0 || cores <= 0 {
			dropped++
			continue
		}
		var threads any
		if upstream.HasCol(dstColThreads) {
			if v := number(upstream, key, dstColThreads); v > 0 {
				threads = v
			}
		}
		if err := out.PutRow([]any{tdp, cores, threads}, key); err != nil {
			return nil, err
		}
	}
	if dropped > 0 {
		fmt.Printf("Dropped %d rows with missing TDP or core counts\n", dropped)
	}

	return out, nil
}

// validateDataset checks the reshaped dataset is plausibly complete: the
// generic fallback row is present and the model count is not suspiciously low.
func validateDataset(m *matrix.Matrix) error {
	if !m.HasRow("default") {
		return fmt.Errorf("reserved fallback row %q is missing", "default")
	}
	if n := len(m.RowKeys()); n < expectedMinRows {
		return fmt.Errorf("only %d models found, expected at least %d", n, expectedMinRows)
	}
	return nil
}

func number(m *matrix.Matrix, rowKey, colKey string) float64 {
	v, err := m.Get(rowKey, colKey)
	if err != nil {
		return -1
	}
	f, ok := v.(float64)
	if !ok {
		return -1
	}
	return f
}
