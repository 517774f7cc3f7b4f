package experiment

import (
	"context"
	"fmt"

	"github.com/go-kit/log"

	"github.com/san-kum/growthrates/internal/dynamo"
	"github.com/san-kum/growthrates/internal/growth"
)

type Config struct {
	Model      string
	Integrator string
	InitState  []float64
	Params     map[string]float64
	// Outputs is the output request passed to the model; nil asks for
	// every output the model defines.
	Outputs   *int
	Dt        float64
	Duration  float64
	Adaptive  bool
	Tolerance float64
}

type Experiment struct {
	cfg       Config
	registry  *Registry
	model     growth.Model
	simulator *dynamo.Simulator
	logger    log.Logger
}

func New(cfg Config, registry *Registry) *Experiment {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Experiment{
		cfg:      cfg,
		registry: registry,
		logger:   log.NewNopLogger(),
	}
}

func (e *Experiment) SetLogger(l log.Logger) {
	if l != nil {
		e.logger = l
	}
}

// Setup creates a fresh model instance, delivers the parameters to it and
// wires it to the integrator.
func (e *Experiment) Setup(metrics []dynamo.Metric) error {
	model, err := e.registry.GetModel(e.cfg.Model)
	if err != nil {
		return err
	}

	params, err := ParamVector(model, e.cfg.Params)
	if err != nil {
		return err
	}
	if err := growth.Init(model, params); err != nil {
		return err
	}

	integ, err := e.registry.GetIntegrator(e.cfg.Integrator)
	if err != nil {
		return err
	}

	nout := model.NumOutputs()
	if e.cfg.Outputs != nil {
		nout = *e.cfg.Outputs
	}

	e.model = model
	e.simulator = dynamo.New(NewVectorfield(model, nout), integ)
	e.simulator.SetLogger(log.With(e.logger, "model", model.Name(), "integrator", e.cfg.Integrator))
	for _, m := range metrics {
		e.simulator.AddMetric(m)
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	if e.simulator == nil {
		return nil, ErrNotSetup
	}

	x0 := make(dynamo.State, len(e.cfg.InitState))
	copy(x0, e.cfg.InitState)

	result, err := e.simulator.Run(ctx, x0, e.SimConfig())
	if err != nil {
		return result, fmt.Errorf("run %s: %w", e.cfg.Model, err)
	}
	return result, nil
}

// SimConfig converts the experiment settings into a dynamo.Config.
func (e *Experiment) SimConfig() dynamo.Config {
	cfg := dynamo.DefaultConfig()
	cfg.Dt = e.cfg.Dt
	cfg.Duration = e.cfg.Duration
	cfg.Adaptive = e.cfg.Adaptive
	if e.cfg.Tolerance > 0 {
		cfg.Tolerance = e.cfg.Tolerance
	}
	if cfg.MaxDt < cfg.Dt {
		cfg.MaxDt = cfg.Dt
	}
	return cfg
}

func (e *Experiment) Config() Config { return e.cfg }

// Model returns the initialized model, or nil before Setup.
func (e *Experiment) Model() growth.Model { return e.model }

// Simulator returns the underlying simulator for adding observers.
func (e *Experiment) Simulator() *dynamo.Simulator {
	return e.simulator
}
