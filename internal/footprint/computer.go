package footprint

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/greenlab/co2footprint/internal/config"
	"github.com/greenlab/co2footprint/internal/intensity"
	"github.com/greenlab/co2footprint/internal/tdp"
	"github.com/greenlab/co2footprint/internal/telemetry"
	"github.com/greenlab/co2footprint/internal/trace"
)

// Computer turns task usage records into CO2 records. It is read-only after
// construction and safe for concurrent use from task-completion callbacks.
type Computer struct {
	cfg          *config.Config
	table        *tdp.Table
	source       intensity.Source
	marketSource intensity.Source
	logger       zerolog.Logger
}

// NewComputer wires a footprint computer. The table resolves CPU power draw
// unless a polynomial power model is configured; source yields the carbon
// intensity per task; marketSource may be nil.
func NewComputer(cfg *config.Config, table *tdp.Table, source, marketSource intensity.Source, logger zerolog.Logger) *Computer {
	return &Computer{
		cfg:          cfg,
		table:        table,
		source:       source,
		marketSource: marketSource,
		logger:       logger,
	}
}

// ComputeTaskCO2Footprint computes energy and emissions for one completed
// task:
//
//	energy_Wh = duration_h × (cpus × powerdrawCPU_W × utilization + memory_GB × powerdrawMem_W) × PUE
//	co2e_g    = energy_kWh × CI_gPerKWh
//
// A missing-value failure aborts only this task's computation.
func (c *Computer) ComputeTaskCO2Footprint(rec *trace.Record) (*CO2Record, error) {
	powerdrawCPU := c.resolvePowerDraw(rec)

	memoryGB, err := rec.MemoryGB()
	if err != nil {
		telemetry.TasksComputed.WithLabelValues("error").Inc()
		return nil, err
	}

	ci, err := c.source.CI(rec)
	if err != nil {
		telemetry.TasksComputed.WithLabelValues("error").Inc()
		return nil, err
	}

	durationHours := rec.Duration().Hours()
	utilization := rec.CPUUtilization

	energyWh := durationHours *
		(float64(rec.CPUs)*powerdrawCPU*utilization + memoryGB*c.cfg.PowerdrawMem) *
		c.cfg.PUE
	co2eGrams := energyWh / 1000.0 * ci

	out := &CO2Record{
		TaskName:        rec.Name,
		EnergyWh:        energyWh,
		CO2eGrams:       co2eGrams,
		CarbonIntensity: ci,
		CPUs:            rec.CPUs,
		PowerDrawCPU:    powerdrawCPU,
		CPUUtilization:  utilization,
		MemoryGB:        memoryGB,
		DurationHours:   durationHours,
		CPUModel:        rec.CPUModel,
	}

	if c.marketSource != nil {
		ciMarket, err := c.marketSource.CI(rec)
		if err != nil {
			telemetry.TasksComputed.WithLabelValues("error").Inc()
			return nil, err
		}
		market := energyWh / 1000.0 * ciMarket
		out.CO2eMarketGrams = &market
	}

	telemetry.TasksComputed.WithLabelValues("success").Inc()
	c.logger.Debug().
		Str("task", rec.Name).
		Float64("energy_wh", energyWh).
		Float64("co2e_g", co2eGrams).
		Float64("carbon_intensity", ci).
		Float64("powerdraw_cpu", powerdrawCPU).
		Msg("task footprint computed")
	return out, nil
}

// resolvePowerDraw picks the per-core CPU power draw in watts. A configured
// polynomial power model wins; otherwise the model name is matched against
// the power-draw table, with ignoreCpuModel short-circuiting to the
// configured default draw or the fallback row.
func (c *Computer) resolvePowerDraw(rec *trace.Record) float64 {
	if len(c.cfg.CPUPowerModel) > 0 {
		// The model maps utilization percent to watts.
		return EvalPolynomial(c.cfg.CPUPowerModel, rec.CPUUtilization*100.0)
	}
	if c.cfg.IgnoreCPUModel {
		if c.cfg.PowerdrawCPUDefault != nil {
			return *c.cfg.PowerdrawCPUDefault
		}
		return c.table.Fallback().CoreTDP()
	}
	return c.table.MatchModel(rec.CPUModel).CoreTDP()
}

// EvalPolynomial evaluates a polynomial with coefficients ordered highest
// degree first at x, using Horner's method.
func EvalPolynomial(coefficients []float64, x float64) float64 {
	var acc float64
	for _, c := range coefficients {
		acc = acc*x + c
	}
	return acc
}

// Summarize aggregates per-task records into run totals and equivalences.
func Summarize(runID string, records []CO2Record) Summary {
	s := Summary{RunID: runID, Tasks: records}
	var market float64
	var haveMarket bool
	for _, r := range records {
		s.TotalEnergyWh += r.EnergyWh
		s.TotalCO2eGrams += r.CO2eGrams
		if r.CO2eMarketGrams != nil {
			market += *r.CO2eMarketGrams
			haveMarket = true
		}
	}
	if haveMarket {
		s.TotalCO2eMarketGrams = &market
	}
	s.Equivalences = ComputeEquivalences(s.TotalCO2eGrams)
	return s
}

// ComputeEquivalences converts a total CO2e figure into everyday terms:
// car kilometers, tree-months of sequestration, and reference-flight
// percentage split into whole flights plus a remainder.
func ComputeEquivalences(totalCO2eGrams float64) Equivalences {
	flightPercent := totalCO2eGrams / gramsPerFlight * 100.0
	flights := int(math.Floor(flightPercent / 100.0))
	return Equivalences{
		CarKilometers:          totalCO2eGrams / gramsPerCarKm,
		TreeMonths:             totalCO2eGrams / gramsPerTreeMonth,
		FlightPercent:          flightPercent,
		Flights:                flights,
		FlightRemainderPercent: flightPercent - float64(flights)*100.0,
	}
}
