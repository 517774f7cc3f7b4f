package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/growthrates/internal/dynamo"
	"github.com/san-kum/growthrates/internal/growth"
	"github.com/san-kum/growthrates/internal/integrators"
	"github.com/san-kum/growthrates/internal/metrics"
)

// Routine is one entry of the registration table exposed to hosts.
type Routine struct {
	Name  string
	Arity int
}

// ModelInfo describes a registered model.
type ModelInfo struct {
	Name       string
	Params     []string
	StateDim   int
	MinOutputs int
	NumOutputs int
	Deprecated bool
}

type Registry struct {
	models      map[string]func() growth.Model
	deprecated  map[string]bool
	integrators map[string]func() dynamo.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		models:      make(map[string]func() growth.Model),
		deprecated:  make(map[string]bool),
		integrators: make(map[string]func() dynamo.Integrator),
	}

	r.models["twostep"] = func() growth.Model { return growth.NewTwoStep() }
	r.models["genlogistic"] = func() growth.Model { return growth.NewGenLogistic() }
	r.models["twostep_legacy"] = func() growth.Model { return growth.NewTwoStepShared() }
	r.deprecated["twostep_legacy"] = true

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }
	r.integrators["rk45"] = func() dynamo.Integrator { return integrators.NewRK45() }

	return r
}

// GetModel returns a new, uninitialized model instance.
func (r *Registry) GetModel(name string) (growth.Model, error) {
	fn, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}
	return fn(), nil
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIntegrator, name)
	}
	return fn(), nil
}

func (r *Registry) Describe(name string) (ModelInfo, error) {
	m, err := r.GetModel(name)
	if err != nil {
		return ModelInfo{}, err
	}
	return ModelInfo{
		Name:       name,
		Params:     m.ParamNames(),
		StateDim:   m.StateDim(),
		MinOutputs: m.MinOutputs(),
		NumOutputs: m.NumOutputs(),
		Deprecated: r.deprecated[name],
	}, nil
}

func (r *Registry) ListModels() []string {
	return sortedKeys(r.models)
}

func (r *Registry) ListIntegrators() []string {
	return sortedKeys(r.integrators)
}

// Routines returns the initializer and derivative entry points of every
// registered model, in the host calling convention: ini_<model> takes the
// deliver callback, d_<model> takes (neq, t, y, ydot, yout, nout).
func (r *Registry) Routines() []Routine {
	names := r.ListModels()
	routines := make([]Routine, 0, 2*len(names))
	for _, name := range names {
		routines = append(routines,
			Routine{Name: "ini_" + name, Arity: 1},
			Routine{Name: "d_" + name, Arity: 6},
		)
	}
	return routines
}

// DefaultMetrics returns fresh instances of the growth metrics every run records.
func (r *Registry) DefaultMetrics() []dynamo.Metric {
	return metrics.Defaults()
}

// ParamVector marshals named parameters into the model's flat layout.
func ParamVector(m growth.Model, named map[string]float64) ([]float64, error) {
	names := m.ParamNames()
	index := make(map[string]int, len(names))
	for i, n := range names {
		index[n] = i
	}

	for k := range named {
		if _, ok := index[k]; !ok {
			return nil, fmt.Errorf("%w: %s has no parameter %q (want %v)", ErrUnknownParam, m.Name(), k, names)
		}
	}

	vec := make([]float64, len(names))
	for i, n := range names {
		v, ok := named[n]
		if !ok {
			return nil, fmt.Errorf("%w: %s needs %q", ErrMissingParam, m.Name(), n)
		}
		vec[i] = v
	}
	return vec, nil
}

// ParamMap is the inverse of ParamVector.
func ParamMap(m growth.Model, vec []float64) map[string]float64 {
	out := make(map[string]float64, len(vec))
	for i, n := range m.ParamNames() {
		if i < len(vec) {
			out[n] = vec[i]
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
