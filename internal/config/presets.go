package config

import "sort"

var Presets = map[string]map[string]*Config{
	"twostep": {
		"lag": {
			Model: "twostep", Integrator: "rk4", Dt: 0.1, Duration: 48.0,
			Params:    map[string]float64{"kw": 0.1, "mu": 0.5, "K": 10},
			InitState: []float64{0.01, 0},
		},
		"fast": {
			Model: "twostep", Integrator: "rk4", Dt: 0.05, Duration: 24.0,
			Params:    map[string]float64{"kw": 2.0, "mu": 1.0, "K": 10},
			InitState: []float64{0.01, 0},
		},
		"dormant": {
			Model: "twostep", Integrator: "rk45", Dt: 0.1, Duration: 72.0, Adaptive: true, Tolerance: 1e-8,
			Params:    map[string]float64{"kw": 0.02, "mu": 0.8, "K": 5},
			InitState: []float64{0.1, 0},
		},
	},
	"genlogistic": {
		"logistic": {
			Model: "genlogistic", Integrator: "rk4", Dt: 0.1, Duration: 30.0,
			Params:    map[string]float64{"mumax": 0.5, "K": 10, "alpha": 1, "beta": 1, "gamma": 1},
			InitState: []float64{0.1},
		},
		"richards": {
			Model: "genlogistic", Integrator: "rk4", Dt: 0.1, Duration: 30.0,
			Params:    map[string]float64{"mumax": 0.5, "K": 10, "alpha": 1, "beta": 0.5, "gamma": 1},
			InitState: []float64{0.1},
		},
		"blumberg": {
			Model: "genlogistic", Integrator: "rk45", Dt: 0.1, Duration: 40.0, Adaptive: true, Tolerance: 1e-8,
			Params:    map[string]float64{"mumax": 0.3, "K": 10, "alpha": 0.75, "beta": 1, "gamma": 1.5},
			InitState: []float64{0.1},
		},
	},
	"twostep_legacy": {
		"shared": {
			Model: "twostep_legacy", Integrator: "rk4", Dt: 0.1, Duration: 24.0,
			Params:    map[string]float64{"mu": 0.5, "K": 10},
			InitState: []float64{0.01, 0},
		},
	},
}

// defaultPresets names the preset each model starts from when no file or
// preset is given.
var defaultPresets = map[string]string{
	"twostep":        "lag",
	"genlogistic":    "logistic",
	"twostep_legacy": "shared",
}

// DefaultFor returns the starting configuration for model: its default
// preset when it has one, DefaultConfig otherwise.
func DefaultFor(model string) *Config {
	if cfg := GetPreset(model, defaultPresets[model]); cfg != nil {
		return cfg
	}
	cfg := DefaultConfig()
	if model != "" {
		cfg.Model = model
	}
	return cfg
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	out := cfg.Clone()
	if out.Tolerance == 0 {
		out.Tolerance = DefaultTolerance
	}
	return out
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
