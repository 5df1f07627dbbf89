// Package config loads and saves run configurations. The core itself
// never reads files or environment variables; the CLI hands a validated
// Config into the experiment layer.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rai-v/cvdyn/internal/quantum"
	"github.com/rai-v/cvdyn/internal/solver"
)

type Config struct {
	System  SystemConfig  `yaml:"system"`
	Solver  SolverConfig  `yaml:"solver"`
	Measure MeasureConfig `yaml:"measure"`
	Sweep   SweepConfig   `yaml:"sweep"`
	Cache   bool          `yaml:"cache"`
	DataDir string        `yaml:"data_dir"`
}

type SystemConfig struct {
	Name   string             `yaml:"name"`
	Params map[string]float64 `yaml:"params"`
}

type SolverConfig struct {
	Method string  `yaml:"method"`
	TMin   float64 `yaml:"t_min"`
	TMax   float64 `yaml:"t_max"`
	TDim   int     `yaml:"t_dim"`
	ATol   float64 `yaml:"atol"`
	RTol   float64 `yaml:"rtol"`
}

type MeasureConfig struct {
	// Type is one of occupancy, entan_ln, sync_c, sync_p.
	Type string `yaml:"type"`
	// ModeI and ModeJ pick the mode pair for two-mode measures.
	ModeI int `yaml:"mode_i"`
	ModeJ int `yaml:"mode_j"`
	// RangeMin/RangeMax window the trajectory before averaging;
	// RangeMax 0 means the full length.
	RangeMin int `yaml:"range_min"`
	RangeMax int `yaml:"range_max"`
}

type SweepConfig struct {
	Var     string  `yaml:"var"`
	Min     float64 `yaml:"min"`
	Max     float64 `yaml:"max"`
	Dim     int     `yaml:"dim"`
	Workers int     `yaml:"workers"`
}

func Default() *Config {
	so := solver.DefaultOptions()
	return &Config{
		System: SystemConfig{Name: "cavity"},
		Solver: SolverConfig{
			Method: so.Method,
			TMin:   so.TMin,
			TMax:   so.TMax,
			TDim:   so.TDim,
			ATol:   so.ATol,
			RTol:   so.RTol,
		},
		Measure: MeasureConfig{Type: "occupancy"},
		Sweep:   SweepConfig{Dim: 11},
		DataDir: ".cvdyn",
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.System.Name == "" {
		return fmt.Errorf("%w: system name is empty", quantum.ErrConfig)
	}
	for name, v := range c.System.Params {
		switch name {
		case "Gamma", "kappa", "gamma_norm", "kappa_norm", "gamma_LC_norm", "gamma_m_norm", "Gamma_m", "gamma":
			if v < 0 {
				return fmt.Errorf("%w: decay rate %s is negative (%g)", quantum.ErrConfig, name, v)
			}
		}
	}
	if c.Measure.RangeMin < 0 || (c.Measure.RangeMax != 0 && c.Measure.RangeMax <= c.Measure.RangeMin) {
		return fmt.Errorf("%w: measure range [%d, %d) is empty", quantum.ErrConfig,
			c.Measure.RangeMin, c.Measure.RangeMax)
	}
	if c.Sweep.Var != "" && c.Sweep.Dim < 1 {
		return fmt.Errorf("%w: sweep dim must be at least 1, got %d", quantum.ErrConfig, c.Sweep.Dim)
	}
	return c.SolverOptions().Validate()
}

// SolverOptions converts the solver section to core options.
func (c *Config) SolverOptions() solver.Options {
	return solver.Options{
		Method:   c.Solver.Method,
		TMin:     c.Solver.TMin,
		TMax:     c.Solver.TMax,
		TDim:     c.Solver.TDim,
		ATol:     c.Solver.ATol,
		RTol:     c.Solver.RTol,
		MinStep:  1e-14,
		MaxSteps: 100000,
	}
}
