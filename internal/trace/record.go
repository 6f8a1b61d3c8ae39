// Package trace defines the per-task resource-usage record consumed by the
// footprint computer, and decodes trace files holding one record per
// completed task.
package trace

import (
	"errors"
	"fmt"
	"os"
	"time"

	json "github.com/goccy/go-json"
)

// ErrMissingValue marks a required numeric input that is absent, such as a
// task whose memory cannot be resolved. It is fatal for the single task
// being computed and must not abort the batch.
var ErrMissingValue = errors.New("missing value")

// bytesPerGB converts byte counts to gigabytes.
const bytesPerGB = 1e9

// Record is the immutable usage telemetry of one completed task.
type Record struct {
	// Name identifies the task within the run.
	Name string `json:"name"`

	// CPUs is the number of CPU cores allocated to the task.
	CPUs int `json:"cpus"`

	// CPUUtilization is the average CPU utilization as a fraction in [0,1].
	CPUUtilization float64 `json:"cpuUtilization"`

	// MemoryBytes is the requested memory, if known.
	MemoryBytes *int64 `json:"memoryBytes"`

	// PeakRSSBytes is the peak resident set size, if measured.
	PeakRSSBytes *int64 `json:"peakRssBytes"`

	// DurationMs is the wall-clock runtime in milliseconds.
	DurationMs int64 `json:"durationMs"`

	// CPUModel is the raw CPU model name string, if reported.
	CPUModel string `json:"cpuModel"`

	// StartEpochMs and CompleteEpochMs bound the task interval.
	StartEpochMs    int64 `json:"startEpochMs"`
	CompleteEpochMs int64 `json:"completeEpochMs"`

	// Status is the completion status reported by the host runtime.
	Status string `json:"status"`
}

// Start returns the task start time.
func (r *Record) Start() time.Time {
	return time.UnixMilli(r.StartEpochMs)
}

// Complete returns the task completion time.
func (r *Record) Complete() time.Time {
	return time.UnixMilli(r.CompleteEpochMs)
}

// Duration returns the task wall-clock runtime.
func (r *Record) Duration() time.Duration {
	return time.Duration(r.DurationMs) * time.Millisecond
}

// MemoryGB resolves the task memory in gigabytes, preferring requested
// memory over peak resident set size. Fails with ErrMissingValue when
// neither is present.
func (r *Record) MemoryGB() (float64, error) {
	if r.MemoryBytes != nil {
		return float64(*r.MemoryBytes) / bytesPerGB, nil
	}
	if r.PeakRSSBytes != nil {
		return float64(*r.PeakRSSBytes) / bytesPerGB, nil
	}
	return 0, fmt.Errorf("task %q memory unknown: %w", r.Name, ErrMissingValue)
}

// ReadFile decodes a JSON trace file holding an array of records.
func ReadFile(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading trace file %s: %w", path, err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing trace file %s: %w", path, err)
	}
	return records, nil
}
