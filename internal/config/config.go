package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt        = 0.1
	DefaultDuration  = 24.0
	DefaultTolerance = 1e-6
)

var (
	ErrInvalid     = errors.New("config: invalid")
	ErrUnsupported = errors.New("config: unsupported file format")
)

type Config struct {
	Model      string             `yaml:"model" toml:"model"`
	Integrator string             `yaml:"integrator" toml:"integrator"`
	Dt         float64            `yaml:"dt" toml:"dt"`
	Duration   float64            `yaml:"duration" toml:"duration"`
	Adaptive   bool               `yaml:"adaptive" toml:"adaptive"`
	Tolerance  float64            `yaml:"tolerance,omitempty" toml:"tolerance,omitempty"`
	Outputs    *int               `yaml:"outputs,omitempty" toml:"outputs,omitempty"`
	Params     map[string]float64 `yaml:"params" toml:"params"`
	InitState  []float64          `yaml:"init_state" toml:"init_state"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:      "twostep",
		Integrator: "rk4",
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		Tolerance:  DefaultTolerance,
		Params:     map[string]float64{"kw": 0.1, "mu": 0.5, "K": 10},
		InitState:  []float64{0.01, 0},
	}
}

type format int

const (
	formatYAML format = iota
	formatTOML
)

func formatOf(path string) (format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return formatYAML, nil
	case ".toml":
		return formatTOML, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupported, path)
}

// Load reads a run file, YAML or TOML by extension, on top of the defaults.
// Params and init_state replace the defaults rather than merging with them;
// when the file omits them they come from the named model's default preset.
func Load(path string) (*Config, error) {
	f, err := formatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	cfg.Params = nil
	cfg.InitState = nil

	switch f {
	case formatTOML:
		err = toml.Unmarshal(data, cfg)
	default:
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	def := DefaultFor(cfg.Model)
	if cfg.Params == nil {
		cfg.Params = def.Params
	}
	if cfg.InitState == nil {
		cfg.InitState = def.InitState
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	f, err := formatOf(path)
	if err != nil {
		return err
	}

	var data []byte
	switch f {
	case formatTOML:
		data, err = toml.Marshal(cfg)
	default:
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the fields that do not depend on the chosen model.
func (c *Config) Validate() error {
	switch {
	case c.Model == "":
		return fmt.Errorf("%w: model is required", ErrInvalid)
	case c.Integrator == "":
		return fmt.Errorf("%w: integrator is required", ErrInvalid)
	case c.Dt <= 0:
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalid, c.Dt)
	case c.Duration <= 0:
		return fmt.Errorf("%w: duration must be positive, got %g", ErrInvalid, c.Duration)
	case c.Adaptive && c.Tolerance <= 0:
		return fmt.Errorf("%w: adaptive runs need a positive tolerance", ErrInvalid)
	case c.Outputs != nil && *c.Outputs < 0:
		return fmt.Errorf("%w: outputs must not be negative, got %d", ErrInvalid, *c.Outputs)
	}
	return nil
}

func (c *Config) Clone() *Config {
	out := *c
	out.Params = make(map[string]float64, len(c.Params))
	for k, v := range c.Params {
		out.Params[k] = v
	}
	out.InitState = append([]float64(nil), c.InitState...)
	if c.Outputs != nil {
		n := *c.Outputs
		out.Outputs = &n
	}
	return &out
}
