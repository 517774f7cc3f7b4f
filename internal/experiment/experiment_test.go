package experiment

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/san-kum/growthrates/internal/dynamo"
	"github.com/san-kum/growthrates/internal/growth"
)

func intPtr(v int) *int { return &v }

func TestRegistryLists(t *testing.T) {
	r := NewRegistry()

	if diff := cmp.Diff([]string{"genlogistic", "twostep", "twostep_legacy"}, r.ListModels()); diff != "" {
		t.Errorf("ListModels() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"euler", "rk4", "rk45"}, r.ListIntegrators()); diff != "" {
		t.Errorf("ListIntegrators() mismatch (-want +got):\n%s", diff)
	}
}

func TestRoutines(t *testing.T) {
	want := []Routine{
		{Name: "ini_genlogistic", Arity: 1},
		{Name: "d_genlogistic", Arity: 6},
		{Name: "ini_twostep", Arity: 1},
		{Name: "d_twostep", Arity: 6},
		{Name: "ini_twostep_legacy", Arity: 1},
		{Name: "d_twostep_legacy", Arity: 6},
	}
	if diff := cmp.Diff(want, NewRegistry().Routines()); diff != "" {
		t.Errorf("Routines() mismatch (-want +got):\n%s", diff)
	}
}

func TestDescribe(t *testing.T) {
	r := NewRegistry()

	got, err := r.Describe("twostep")
	if err != nil {
		t.Fatal(err)
	}
	want := ModelInfo{
		Name:       "twostep",
		Params:     []string{"kw", "mu", "K"},
		StateDim:   2,
		MinOutputs: 1,
		NumOutputs: 2,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Describe(twostep) mismatch (-want +got):\n%s", diff)
	}

	legacy, err := r.Describe("twostep_legacy")
	if err != nil {
		t.Fatal(err)
	}
	if !legacy.Deprecated {
		t.Error("twostep_legacy should be marked deprecated")
	}

	if _, err := r.Describe("gompertz"); !errors.Is(err, ErrUnknownModel) {
		t.Errorf("expected ErrUnknownModel, got %v", err)
	}
}

func TestRegistryReturnsFreshModels(t *testing.T) {
	r := NewRegistry()
	a, _ := r.GetModel("twostep")
	b, _ := r.GetModel("twostep")

	if err := growth.Init(a, []float64{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{0, 0, 0}, growth.Params(b)); diff != "" {
		t.Errorf("second instance saw the first one's parameters:\n%s", diff)
	}
}

func TestDefaultMetricsAreFresh(t *testing.T) {
	r := NewRegistry()
	a, b := r.DefaultMetrics(), r.DefaultMetrics()

	var names []string
	for i, m := range a {
		names = append(names, m.Name())
		if m == b[i] {
			t.Errorf("metric %s shared between runs", m.Name())
		}
	}
	want := []string{"final_biomass", "max_biomass", "mumax_observed", "doubling_time"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("metric names mismatch (-want +got):\n%s", diff)
	}
}

func TestUnknownIntegrator(t *testing.T) {
	if _, err := NewRegistry().GetIntegrator("leapfrog"); !errors.Is(err, ErrUnknownIntegrator) {
		t.Errorf("expected ErrUnknownIntegrator, got %v", err)
	}
}

func TestParamVector(t *testing.T) {
	m := growth.NewGenLogistic()

	vec, err := ParamVector(m, map[string]float64{
		"mumax": 0.5, "K": 10, "alpha": 1, "beta": 1, "gamma": 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{0.5, 10, 1, 1, 1}, vec); diff != "" {
		t.Errorf("ParamVector mismatch (-want +got):\n%s", diff)
	}

	back := ParamMap(m, vec)
	if diff := cmp.Diff(map[string]float64{"mumax": 0.5, "K": 10, "alpha": 1, "beta": 1, "gamma": 1}, back); diff != "" {
		t.Errorf("ParamMap mismatch (-want +got):\n%s", diff)
	}
}

func TestParamVectorErrors(t *testing.T) {
	m := growth.NewTwoStep()

	tests := []struct {
		name  string
		named map[string]float64
		want  error
	}{
		{"missing", map[string]float64{"kw": 1, "mu": 1}, ErrMissingParam},
		{"unknown", map[string]float64{"kw": 1, "mu": 1, "K": 1, "lambda": 2}, ErrUnknownParam},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParamVector(m, tt.named); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestEvaluate(t *testing.T) {
	m := growth.NewTwoStep()
	if err := growth.Init(m, []float64{0.5, 1.0, 10.0}); err != nil {
		t.Fatal(err)
	}

	ydot, yout, err := Evaluate(m, []float64{1, 0}, 1)
	if err != nil {
		t.Fatal(err)
	}
	approx := cmpopts.EquateApprox(0, 1e-12)
	if diff := cmp.Diff([]float64{-0.5, 0.5}, ydot, approx); diff != "" {
		t.Errorf("ydot mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{1.0}, yout, approx); diff != "" {
		t.Errorf("yout mismatch (-want +got):\n%s", diff)
	}

	if _, _, err := Evaluate(m, []float64{1, 0}, 0); !errors.Is(err, growth.ErrInsufficientOutputRequest) {
		t.Errorf("expected ErrInsufficientOutputRequest, got %v", err)
	}
}

func TestVectorfieldOutputs(t *testing.T) {
	m := growth.NewTwoStep()
	if err := growth.Init(m, []float64{0.5, 1.0, 10.0}); err != nil {
		t.Fatal(err)
	}
	vf := NewVectorfield(m, 2)

	if vf.StateDim() != 2 || vf.NumOutputs() != 2 {
		t.Fatalf("unexpected layout dim=%d outputs=%d", vf.StateDim(), vf.NumOutputs())
	}

	out, err := vf.Outputs(dynamo.State{1, 2}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{3, math.Log(3)}, out, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("outputs mismatch (-want +got):\n%s", diff)
	}

	// The returned slice is a copy; the next evaluation must not change it.
	if _, err := vf.Outputs(dynamo.State{5, 5}, 0); err != nil {
		t.Fatal(err)
	}
	if out[0] != 3 {
		t.Errorf("outputs aliased the internal buffer: %v", out)
	}
}

func TestExperimentRun(t *testing.T) {
	cfg := Config{
		Model:      "genlogistic",
		Integrator: "rk4",
		InitState:  []float64{0.1},
		Params:     map[string]float64{"mumax": 0.5, "K": 10, "alpha": 1, "beta": 1, "gamma": 1},
		Dt:         0.01,
		Duration:   10,
	}

	exp := New(cfg, nil)
	if err := exp.Setup(NewRegistry().DefaultMetrics()); err != nil {
		t.Fatal(err)
	}

	result, err := exp.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	want := 10 / (1 + 99*math.Exp(-0.5*10))
	got := result.Final()[0]
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("final biomass = %.9f, want %.9f", got, want)
	}
	if math.Abs(result.Metrics["final_biomass"]-got) > 1e-12 {
		t.Errorf("final_biomass metric = %v, want %v", result.Metrics["final_biomass"], got)
	}
	if math.Abs(result.Times[len(result.Times)-1]-10) > 1e-9 {
		t.Errorf("run ended at t=%v", result.Times[len(result.Times)-1])
	}
}

func TestExperimentOutputs(t *testing.T) {
	cfg := Config{
		Model:      "twostep",
		Integrator: "rk45",
		InitState:  []float64{1, 0},
		Params:     map[string]float64{"kw": 0.5, "mu": 1, "K": 10},
		Dt:         0.1,
		Duration:   5,
		Adaptive:   true,
		Tolerance:  1e-8,
	}

	exp := New(cfg, nil)
	if err := exp.Setup(nil); err != nil {
		t.Fatal(err)
	}
	result, err := exp.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	for i, x := range result.States {
		out := result.Outputs[i]
		if len(out) != 2 {
			t.Fatalf("step %d: got %d outputs", i, len(out))
		}
		total := x[0] + x[1]
		if math.Abs(out[0]-total) > 1e-12 || math.Abs(out[1]-math.Log(total)) > 1e-12 {
			t.Fatalf("step %d: outputs %v do not match state %v", i, out, x)
		}
	}
}

func TestExperimentInsufficientOutputs(t *testing.T) {
	cfg := Config{
		Model:      "twostep",
		Integrator: "euler",
		InitState:  []float64{1, 0},
		Params:     map[string]float64{"kw": 0.5, "mu": 1, "K": 10},
		Outputs:    intPtr(0),
		Dt:         0.1,
		Duration:   1,
	}

	exp := New(cfg, nil)
	if err := exp.Setup(nil); err != nil {
		t.Fatal(err)
	}

	_, err := exp.Run(context.Background())
	var reqErr *growth.OutputRequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected OutputRequestError, got %v", err)
	}
	if reqErr.Required != 1 || reqErr.Requested != 0 {
		t.Errorf("unexpected request error: %+v", reqErr)
	}
	var simErr *dynamo.SimulationError
	if !errors.As(err, &simErr) || simErr.Step != 0 {
		t.Errorf("expected failure on the first step, got %v", err)
	}
}

func TestExperimentSetupErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"model", Config{Model: "monod", Integrator: "rk4"}, ErrUnknownModel},
		{"integrator", Config{Model: "twostep_legacy", Integrator: "verlet", Params: map[string]float64{"mu": 1, "K": 1}}, ErrUnknownIntegrator},
		{"params", Config{Model: "twostep", Integrator: "rk4", Params: map[string]float64{"mu": 1}}, ErrMissingParam},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := New(tt.cfg, nil).Setup(nil); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRunBeforeSetup(t *testing.T) {
	if _, err := New(Config{}, nil).Run(context.Background()); !errors.Is(err, ErrNotSetup) {
		t.Errorf("expected ErrNotSetup, got %v", err)
	}
}
