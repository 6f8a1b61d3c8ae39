package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "co2footprint.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPUE, cfg.PUE)
	assert.Equal(t, DefaultPowerdrawMemPerGB, cfg.PowerdrawMem)
	assert.Equal(t, DefaultCIPollInterval, cfg.CIPollInterval.Std())
	assert.Nil(t, cfg.CI)
	assert.False(t, cfg.IgnoreCPUModel)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "pue: 1.4\nciZone: DE\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1.4, cfg.PUE)
	assert.Equal(t, "DE", cfg.CIZone)
	assert.Equal(t, DefaultPowerdrawMemPerGB, cfg.PowerdrawMem)
}

func TestLoad_FullFile(t *testing.T) {
	path := writeConfig(t, `
pue: 1.67
powerdrawMem: 0.5
powerdrawCpuDefault: 12.0
ignoreCpuModel: true
cpuPowerModel: [2.0, 5.0]
ci: 300
ciMarket: 120
ciPollInterval: 30m
machineType: compute cluster
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1.67, cfg.PUE)
	require.NotNil(t, cfg.PowerdrawCPUDefault)
	assert.Equal(t, 12.0, *cfg.PowerdrawCPUDefault)
	assert.True(t, cfg.IgnoreCPUModel)
	assert.Equal(t, []float64{2.0, 5.0}, cfg.CPUPowerModel)
	require.NotNil(t, cfg.CI)
	assert.Equal(t, 300.0, *cfg.CI)
	assert.Equal(t, 30*time.Minute, cfg.CIPollInterval.Std())
	assert.Equal(t, MachineComputeCluster, cfg.MachineType)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "pue: [not a number\n")
	_, err := Load(path)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestLoad_InvalidPollInterval(t *testing.T) {
	path := writeConfig(t, "ciPollInterval: soon\n")
	_, err := Load(path)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"pue below one", func(c *Config) { c.PUE = 0.9 }, false},
		{"negative mem draw", func(c *Config) { c.PowerdrawMem = -1 }, false},
		{"zero static ci", func(c *Config) { v := 0.0; c.CI = &v }, false},
		{"negative market ci", func(c *Config) { v := -5.0; c.CIMarket = &v }, false},
		{"empty polynomial", func(c *Config) { c.CPUPowerModel = []float64{} }, false},
		{"zero poll interval", func(c *Config) { c.CIPollInterval = 0 }, false},
		{"unknown machine type", func(c *Config) { c.MachineType = "mainframe" }, false},
		{"cloud machine type", func(c *Config) { c.MachineType = MachineCloud }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrConfiguration)
			}
		})
	}
}

func TestFallbackKey(t *testing.T) {
	tests := []struct {
		machineType string
		want        string
	}{
		{"", "default"},
		{MachineLocal, "default local"},
		{MachineComputeCluster, "default compute cluster"},
		{MachineCloud, "default cloud"},
	}
	for _, tt := range tests {
		cfg := Default()
		cfg.MachineType = tt.machineType
		assert.Equal(t, tt.want, cfg.FallbackKey())
	}
}
