package footprint

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/greenlab/co2footprint/internal/config"
	"github.com/greenlab/co2footprint/internal/intensity"
	"github.com/greenlab/co2footprint/internal/tdp"
)

// BenchmarkComputeTaskCO2Footprint measures the per-task cost of the full
// computation path with a matched CPU model, the shape of the hot loop when
// reporting on a large run.
//
// Run with: go test -bench=BenchmarkComputeTaskCO2Footprint -benchmem ./internal/footprint/...
func BenchmarkComputeTaskCO2Footprint(b *testing.B) {
	cfg := config.Default()
	tbl, err := tdp.NewTable(tdp.Options{Logger: zerolog.Nop()})
	if err != nil {
		b.Fatal(err)
	}
	c := NewComputer(cfg, tbl, intensity.ConstantSource{Value: config.DefaultCI}, nil, zerolog.Nop())

	rec := referenceTask()
	rec.CPUModel = "Intel(R) Xeon(R) Gold 6248 CPU @ 2.50GHz"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.ComputeTaskCO2Footprint(rec); err != nil {
			b.Fatal(err)
		}
	}
}
