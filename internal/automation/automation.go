package automation

import (
	"context"
	"fmt"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/growthrates/internal/config"
	"github.com/san-kum/growthrates/internal/dynamo"
	"github.com/san-kum/growthrates/internal/experiment"
)

// Scenario is a scripted sequence of growth runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one run. Preset, when set, is applied first and the
// remaining fields override it.
type ScenarioStep struct {
	Name       string             `yaml:"name"`
	Model      string             `yaml:"model"`
	Preset     string             `yaml:"preset"`
	Integrator string             `yaml:"integrator"`
	Duration   float64            `yaml:"duration"`
	Dt         float64            `yaml:"dt"`
	Adaptive   *bool              `yaml:"adaptive"`
	Tolerance  float64            `yaml:"tolerance"`
	Outputs    *int               `yaml:"outputs"`
	InitState  []float64          `yaml:"init_state"`
	Params     map[string]float64 `yaml:"params"`
}

// StepResult pairs a finished run with the configuration it ran with.
type StepResult struct {
	Name   string
	Config *config.Config
	Result *dynamo.Result
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}
	return &scenario, nil
}

// Resolve builds the run configuration of a step.
func (s ScenarioStep) Resolve() (*config.Config, error) {
	cfg := config.DefaultFor(s.Model)
	if s.Preset != "" {
		cfg = config.GetPreset(s.Model, s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %s for %s", s.Preset, s.Model)
		}
	}

	if s.Integrator != "" {
		cfg.Integrator = s.Integrator
	}
	if s.Duration > 0 {
		cfg.Duration = s.Duration
	}
	if s.Dt > 0 {
		cfg.Dt = s.Dt
	}
	if s.Adaptive != nil {
		cfg.Adaptive = *s.Adaptive
	}
	if s.Tolerance > 0 {
		cfg.Tolerance = s.Tolerance
	}
	if s.Outputs != nil {
		n := *s.Outputs
		cfg.Outputs = &n
	}
	if s.InitState != nil {
		cfg.InitState = append([]float64(nil), s.InitState...)
	}
	for k, v := range s.Params {
		cfg.Params[k] = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RunScenario executes the steps in order and stops at the first failure,
// returning the results of the steps that completed.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, logger log.Logger) ([]StepResult, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("%s#%d", step.Model, i+1)
		}
		level.Info(logger).Log("msg", "running step", "step", i+1, "of", len(scenario.Steps), "name", name)

		cfg, err := step.Resolve()
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, name, err)
		}

		exp := experiment.New(experiment.Config{
			Model:      cfg.Model,
			Integrator: cfg.Integrator,
			InitState:  cfg.InitState,
			Params:     cfg.Params,
			Outputs:    cfg.Outputs,
			Dt:         cfg.Dt,
			Duration:   cfg.Duration,
			Adaptive:   cfg.Adaptive,
			Tolerance:  cfg.Tolerance,
		}, registry)
		exp.SetLogger(log.With(logger, "step", name))
		if err := exp.Setup(registry.DefaultMetrics()); err != nil {
			return results, fmt.Errorf("step %d (%s) setup: %w", i+1, name, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d (%s) run: %w", i+1, name, err)
		}

		results = append(results, StepResult{Name: name, Config: cfg, Result: result})
	}

	return results, nil
}
