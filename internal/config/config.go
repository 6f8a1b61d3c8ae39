// Package config loads and validates the footprint configuration. Values are
// read from a YAML file with defaults applied first, so a partial file only
// overrides what it names.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrConfiguration marks configuration that cannot be acted on: an unknown
// machine type, a fallback row missing from the power-draw table, and the
// like. Configuration errors are fatal at initialization, before any task
// computation begins.
var ErrConfiguration = errors.New("configuration error")

// Duration wraps time.Duration so YAML files can use Go duration strings
// such as "30m" or "1h".
type Duration time.Duration

// UnmarshalYAML decodes a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("%w: duration must be a string like \"30m\": %v", ErrConfiguration, err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("%w: invalid duration %q: %v", ErrConfiguration, s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration as a string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Machine types select which reserved fallback row of the power-draw table
// substitutes for an unmatched CPU model.
const (
	MachineLocal          = "local"
	MachineComputeCluster = "compute cluster"
	MachineCloud          = "cloud"
)

// Defaults applied when the configuration file leaves a value unset.
const (
	// DefaultPUE assumes no data-centre overhead.
	DefaultPUE = 1.0

	// DefaultPowerdrawMemPerGB is the memory power draw in W/GB, from the
	// GreenAlgorithms model.
	DefaultPowerdrawMemPerGB = 0.3725

	// DefaultCI is the fallback carbon intensity in gCO2eq/kWh (global
	// electricity average).
	DefaultCI = 480.0

	// DefaultCIPollInterval is the sampling period for dynamically
	// retrieved carbon intensity.
	DefaultCIPollInterval = time.Hour
)

// Config holds the environmental parameters and power-model selection handed
// to the calculation core.
type Config struct {
	// PUE is the data-centre Power Usage Effectiveness multiplier.
	PUE float64 `yaml:"pue"`

	// PowerdrawMem is the memory power draw in W/GB.
	PowerdrawMem float64 `yaml:"powerdrawMem"`

	// PowerdrawCPUDefault, when set, is used as the per-core power draw
	// whenever the CPU model is ignored or unknown.
	PowerdrawCPUDefault *float64 `yaml:"powerdrawCpuDefault"`

	// IgnoreCPUModel disables model matching entirely; every task uses
	// PowerdrawCPUDefault or the configured fallback row.
	IgnoreCPUModel bool `yaml:"ignoreCpuModel"`

	// CustomCPUTDPFile is a user-supplied table merged over the reference
	// dataset at startup, taking precedence for overlapping model keys.
	CustomCPUTDPFile string `yaml:"customCpuTdpFile"`

	// CPUPowerModel holds polynomial coefficients (highest degree first)
	// mapping CPU utilization to power draw in watts. When set it replaces
	// table-based model matching.
	CPUPowerModel []float64 `yaml:"cpuPowerModel"`

	// CI is a static carbon intensity in gCO2eq/kWh. When set, no
	// time-series sampling takes place.
	CI *float64 `yaml:"ci"`

	// CIMarket is an optional market-based carbon intensity in gCO2eq/kWh.
	CIMarket *float64 `yaml:"ciMarket"`

	// CIZone selects a zone from the bundled intensity table, used as the
	// fallback when dynamic retrieval fails.
	CIZone string `yaml:"ciZone"`

	// CIPollInterval is the period of the carbon-intensity sampling task.
	CIPollInterval Duration `yaml:"ciPollInterval"`

	// MachineType selects the fallback power-draw row: "local",
	// "compute cluster", "cloud", or empty for the generic default.
	MachineType string `yaml:"machineType"`
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	return &Config{
		PUE:            DefaultPUE,
		PowerdrawMem:   DefaultPowerdrawMemPerGB,
		CIPollInterval: Duration(DefaultCIPollInterval),
	}
}

// Load reads a YAML configuration file over the defaults and validates the
// result. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrConfiguration, path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: parsing %s: %v", ErrConfiguration, path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and cross-field consistency.
func (c *Config) Validate() error {
	if c.PUE < 1.0 {
		return fmt.Errorf("%w: pue %g must be >= 1.0", ErrConfiguration, c.PUE)
	}
	if c.PowerdrawMem < 0 {
		return fmt.Errorf("%w: powerdrawMem %g must be >= 0", ErrConfiguration, c.PowerdrawMem)
	}
	if c.PowerdrawCPUDefault != nil && *c.PowerdrawCPUDefault <= 0 {
		return fmt.Errorf("%w: powerdrawCpuDefault %g must be > 0", ErrConfiguration, *c.PowerdrawCPUDefault)
	}
	if c.CI != nil && *c.CI <= 0 {
		return fmt.Errorf("%w: ci %g must be > 0", ErrConfiguration, *c.CI)
	}
	if c.CIMarket != nil && *c.CIMarket <= 0 {
		return fmt.Errorf("%w: ciMarket %g must be > 0", ErrConfiguration, *c.CIMarket)
	}
	if c.CPUPowerModel != nil && len(c.CPUPowerModel) == 0 {
		return fmt.Errorf("%w: cpuPowerModel must list at least one coefficient", ErrConfiguration)
	}
	if c.CIPollInterval <= 0 {
		return fmt.Errorf("%w: ciPollInterval %s must be positive", ErrConfiguration, c.CIPollInterval.Std())
	}
	switch c.MachineType {
	case "", MachineLocal, MachineComputeCluster, MachineCloud:
	default:
		return fmt.Errorf("%w: unknown machine type %q", ErrConfiguration, c.MachineType)
	}
	return nil
}

// FallbackKey returns the reserved power-draw table row key selected by the
// machine type.
func (c *Config) FallbackKey() string {
	switch c.MachineType {
	case MachineLocal:
		return "default local"
	case MachineComputeCluster:
		return "default compute cluster"
	case MachineCloud:
		return "default cloud"
	default:
		return "default"
	}
}
