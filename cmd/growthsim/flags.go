package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/growthrates/internal/config"
	"github.com/san-kum/growthrates/internal/experiment"
	"github.com/san-kum/growthrates/internal/sweep"
)

// runFlags are shared by every command that builds a simulation.
type runFlags struct {
	integrator string
	dt         float64
	duration   float64
	adaptive   bool
	tolerance  float64
	nout       int
	params     map[string]string
	initState  []float64
	configFile string
	preset     string
}

func (f *runFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.integrator, "integrator", "rk4", "integrator (euler, rk4, rk45)")
	fs.Float64Var(&f.dt, "dt", config.DefaultDt, "timestep")
	fs.Float64Var(&f.duration, "time", config.DefaultDuration, "duration")
	fs.BoolVar(&f.adaptive, "adaptive", false, "adaptive stepping (rk45)")
	fs.Float64Var(&f.tolerance, "tol", config.DefaultTolerance, "adaptive error tolerance")
	fs.IntVar(&f.nout, "nout", 0, "output request passed to the model (default: all outputs)")
	fs.StringToStringVar(&f.params, "param", nil, "model parameter, name=value (repeatable)")
	fs.Float64SliceVar(&f.initState, "init", nil, "initial state, comma separated")
	fs.StringVar(&f.configFile, "config", "", "run file (yaml or toml)")
	fs.StringVar(&f.preset, "preset", "", "use preset configuration")
}

// resolve layers defaults, preset, run file and changed flags, in that order.
func (f *runFlags) resolve(cmd *cobra.Command, args []string) (*config.Config, error) {
	model := ""
	if len(args) > 0 {
		model = args[0]
	}

	var cfg *config.Config
	switch {
	case f.configFile != "":
		loaded, err := config.Load(f.configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if model != "" && model != loaded.Model {
			return nil, fmt.Errorf("model %s does not match %s in %s", model, loaded.Model, f.configFile)
		}
		cfg = loaded
	case f.preset != "":
		if model == "" {
			return nil, fmt.Errorf("--preset needs a model")
		}
		cfg = config.GetPreset(model, f.preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", f.preset, config.ListPresets(model))
		}
	default:
		if model == "" {
			return nil, fmt.Errorf("a model or --config is required")
		}
		cfg = config.DefaultFor(model)
	}

	changed := cmd.Flags().Changed
	if changed("integrator") {
		cfg.Integrator = f.integrator
	}
	if changed("dt") {
		cfg.Dt = f.dt
	}
	if changed("time") {
		cfg.Duration = f.duration
	}
	if changed("adaptive") {
		cfg.Adaptive = f.adaptive
	}
	if changed("tol") {
		cfg.Tolerance = f.tolerance
	}
	if changed("nout") {
		n := f.nout
		cfg.Outputs = &n
	}
	if changed("init") {
		cfg.InitState = append([]float64(nil), f.initState...)
	}
	if len(f.params) > 0 {
		named, err := parseParams(f.params)
		if err != nil {
			return nil, err
		}
		for k, v := range named {
			cfg.Params[k] = v
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseParams(raw map[string]string) (map[string]float64, error) {
	out := make(map[string]float64, len(raw))
	for k, v := range raw {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", k, err)
		}
		out[k] = f
	}
	return out, nil
}

func toExperiment(cfg *config.Config) experiment.Config {
	return experiment.Config{
		Model:      cfg.Model,
		Integrator: cfg.Integrator,
		InitState:  append([]float64(nil), cfg.InitState...),
		Params:     cfg.Params,
		Outputs:    cfg.Outputs,
		Dt:         cfg.Dt,
		Duration:   cfg.Duration,
		Adaptive:   cfg.Adaptive,
		Tolerance:  cfg.Tolerance,
	}
}

// parseGrid reads sweep axes written as name=lo:hi:n or name=v1,v2,...
func parseGrid(specs []string) (*sweep.Grid, error) {
	type axis struct {
		name   string
		values []float64
	}
	axes := make([]axis, 0, len(specs))

	for _, spec := range specs {
		name, rest, ok := strings.Cut(spec, "=")
		if !ok || name == "" || rest == "" {
			return nil, fmt.Errorf("bad grid axis %q, want name=lo:hi:n or name=v1,v2", spec)
		}

		var values []float64
		if parts := strings.Split(rest, ":"); len(parts) == 3 {
			lo, err1 := strconv.ParseFloat(parts[0], 64)
			hi, err2 := strconv.ParseFloat(parts[1], 64)
			n, err3 := strconv.Atoi(parts[2])
			if err1 != nil || err2 != nil || err3 != nil || n < 1 {
				return nil, fmt.Errorf("bad grid range %q", spec)
			}
			values = sweep.Linspace(lo, hi, n)
		} else {
			for _, field := range strings.Split(rest, ",") {
				v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
				if err != nil {
					return nil, fmt.Errorf("bad grid value in %q: %w", spec, err)
				}
				values = append(values, v)
			}
		}
		axes = append(axes, axis{name: name, values: values})
	}

	names := make([]string, len(axes))
	ranges := make([][]float64, len(axes))
	for i, a := range axes {
		names[i], ranges[i] = a.name, a.values
	}
	return sweep.NewGrid(names, ranges)
}

func sortedMetricNames(m map[string]float64) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
