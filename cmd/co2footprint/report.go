package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/greenlab/co2footprint/internal/config"
	"github.com/greenlab/co2footprint/internal/footprint"
	"github.com/greenlab/co2footprint/internal/intensity"
	"github.com/greenlab/co2footprint/internal/matrix"
	"github.com/greenlab/co2footprint/internal/tdp"
	"github.com/greenlab/co2footprint/internal/trace"
)

type reportOptions struct {
	traceFile  string
	configFile string
	zone       string
	outJSON    string
	outCSV     string
}

func newReportCmd(logger zerolog.Logger) *cobra.Command {
	o := &reportOptions{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Compute the footprint of a completed run from its trace file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runReport(ctx, o, logger)
		},
	}

	cmd.Flags().StringVarP(&o.traceFile, "trace", "t", "", "JSON trace file with per-task resource usage (required)")
	cmd.Flags().StringVarP(&o.configFile, "config", "c", envOr("CO2FOOTPRINT_CONFIG", ""), "YAML configuration file")
	cmd.Flags().StringVar(&o.zone, "zone", envOr("CO2FOOTPRINT_ZONE", ""), "carbon-intensity zone, overrides the configured one")
	cmd.Flags().StringVar(&o.outJSON, "out-json", "", "write the full report as JSON to this file")
	cmd.Flags().StringVar(&o.outCSV, "out-csv", "", "write the per-task summary as CSV to this file")
	_ = cmd.MarkFlagRequired("trace")

	return cmd
}

// envOr returns the environment variable's value, or def when unset. Flags
// take precedence over the environment because the env value only seeds the
// flag default.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func runReport(ctx context.Context, o *reportOptions, logger zerolog.Logger) error {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return err
	}
	if o.zone != "" {
		cfg.CIZone = o.zone
	}

	table, err := tdp.NewTable(tdp.Options{
		FallbackKey: cfg.FallbackKey(),
		CustomFile:  cfg.CustomCPUTDPFile,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	source, err := resolveSource(cfg, logger)
	if err != nil {
		return err
	}
	var marketSource intensity.Source
	if cfg.CIMarket != nil {
		marketSource = intensity.ConstantSource{Value: *cfg.CIMarket}
	}

	records, err := trace.ReadFile(o.traceFile)
	if err != nil {
		return err
	}
	logger.Info().Int("tasks", len(records)).Str("trace", o.traceFile).Msg("trace loaded")

	computer := footprint.NewComputer(cfg, table, source, marketSource, logger)

	computed := make([]footprint.CO2Record, 0, len(records))
	for i := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := computer.ComputeTaskCO2Footprint(&records[i])
		if err != nil {
			logger.Warn().Err(err).Str("task", records[i].Name).Msg("skipping task")
			continue
		}
		computed = append(computed, *rec)
	}
	if len(computed) == 0 {
		return errors.New("no task in the trace could be computed")
	}

	summary := footprint.Summarize(uuid.NewString(), computed)
	logger.Info().
		Str("run_id", summary.RunID).
		Int("tasks", len(summary.Tasks)).
		Float64("energy_wh", summary.TotalEnergyWh).
		Float64("co2e_g", summary.TotalCO2eGrams).
		Msg("footprint computed")

	if o.outJSON != "" {
		if err := writeJSONReport(o.outJSON, summary); err != nil {
			return err
		}
	}
	if o.outCSV != "" {
		if err := writeCSVReport(o.outCSV, summary); err != nil {
			return err
		}
	}
	if o.outJSON == "" && o.outCSV == "" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	return nil
}

// resolveSource picks the carbon-intensity source for the run. A configured
// static ci wins; otherwise the zone table supplies the value, falling back
// to the global average.
func resolveSource(cfg *config.Config, logger zerolog.Logger) (intensity.Source, error) {
	if cfg.CI != nil {
		return intensity.ConstantSource{Value: *cfg.CI}, nil
	}
	if cfg.CIZone != "" {
		value, ok := intensity.ZoneIntensity(cfg.CIZone)
		if !ok {
			return nil, fmt.Errorf("%w: unknown carbon-intensity zone %q", config.ErrConfiguration, cfg.CIZone)
		}
		logger.Info().Str("zone", cfg.CIZone).Float64("ci", value).Msg("using zone carbon intensity")
		return intensity.ConstantSource{Value: value}, nil
	}
	return intensity.ConstantSource{Value: config.DefaultCI}, nil
}

func writeJSONReport(path string, summary footprint.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// writeCSVReport renders the per-task records as a labeled table, one row per
// task, plus a trailing TOTAL row.
func writeCSVReport(path string, summary footprint.Summary) error {
	cols := []string{
		"energy (Wh)", "co2e (g)", "carbon intensity (gCO2eq/kWh)",
		"cpus", "powerdraw cpu (W)", "cpu utilization",
		"memory (GB)", "duration (h)", "cpu model",
	}
	rows := make([]string, 0, len(summary.Tasks)+1)
	for _, t := range summary.Tasks {
		rows = append(rows, t.TaskName)
	}
	rows = append(rows, "TOTAL")

	m, err := matrix.New(rows, cols)
	if err != nil {
		return fmt.Errorf("summary table: %w", err)
	}
	m.SetKeyHeader("task")
	for _, t := range summary.Tasks {
		err := m.PutRow([]any{
			t.EnergyWh, t.CO2eGrams, t.CarbonIntensity,
			float64(t.CPUs), t.PowerDrawCPU, t.CPUUtilization,
			t.MemoryGB, t.DurationHours, t.CPUModel,
		}, t.TaskName)
		if err != nil {
			return fmt.Errorf("summary table: %w", err)
		}
	}
	err = m.PutRow([]any{
		summary.TotalEnergyWh, summary.TotalCO2eGrams, nil,
		nil, nil, nil, nil, nil, nil,
	}, "TOTAL")
	if err != nil {
		return fmt.Errorf("summary table: %w", err)
	}
	return m.ToDelimitedText(path, ',')
}
