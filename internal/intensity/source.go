package intensity

import (
	"github.com/greenlab/co2footprint/internal/trace"
)

// Source yields the carbon intensity to apply to one task. The variant is
// selected at construction time: a constant configured value, or a
// time-weighted average over collected samples.
type Source interface {
	// CI returns the carbon intensity in gCO2eq/kWh for the task interval.
	CI(rec *trace.Record) (float64, error)
}

// ConstantSource applies one static intensity to every task.
type ConstantSource struct {
	Value float64
}

// CI returns the configured value.
func (s ConstantSource) CI(*trace.Record) (float64, error) {
	return s.Value, nil
}

// TimeWeightedSource averages collected samples over each task's interval.
type TimeWeightedSource struct {
	Collector *Collector
}

// CI returns the weighted average intensity over the task interval.
func (s TimeWeightedSource) CI(rec *trace.Record) (float64, error) {
	return s.Collector.WeightedAverage(rec.Start(), rec.Complete())
}
