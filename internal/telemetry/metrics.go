// Package telemetry registers prometheus instrumentation for the footprint
// core: task computation outcomes, CPU-model fallbacks, and carbon-intensity
// sampling activity.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "co2footprint"

var (
	// TasksComputed counts per-task footprint computations by result
	// ("success" or "error").
	TasksComputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_computed_total",
			Help:      "Number of per-task CO2 footprint computations by result",
		},
		[]string{"result"},
	)

	// CPUModelFallbacks counts model lookups that fell back to a reserved
	// default row.
	CPUModelFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cpu_model_fallbacks_total",
			Help:      "Number of CPU model lookups resolved via the fallback row",
		},
	)

	// CISamples counts carbon-intensity samples inserted into the
	// collector, split by origin ("api" or "fallback").
	CISamples = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "carbon_intensity_samples_total",
			Help:      "Number of carbon-intensity samples collected by origin",
		},
		[]string{"origin"},
	)

	// CIFetchErrors counts failed carbon-intensity API fetches.
	CIFetchErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "carbon_intensity_fetch_errors_total",
			Help:      "Number of failed carbon-intensity retrievals",
		},
	)
)
