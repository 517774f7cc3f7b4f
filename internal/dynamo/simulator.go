package dynamo

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

type Simulator struct {
	sys        System
	integrator Integrator
	metrics    []Metric
	observers  []Observer
	logger     log.Logger
}

func New(sys System, integrator Integrator) *Simulator {
	return &Simulator{
		sys:        sys,
		integrator: integrator,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
		logger:     log.NewNopLogger(),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// SetLogger replaces the default no-op logger.
func (s *Simulator) SetLogger(l log.Logger) {
	if l == nil {
		l = log.NewNopLogger()
	}
	s.logger = l
}

func (s *Simulator) System() System { return s.sys }

func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}
	if len(x0) != s.sys.StateDim() {
		return nil, fmt.Errorf("%w: initial state has %d values, system wants %d", ErrDimensionMismatch, len(x0), s.sys.StateDim())
	}

	steps := int(math.Ceil(cfg.Duration / cfg.Dt))
	result := &Result{
		States:  make([]State, 0, steps+1),
		Outputs: make([][]float64, 0, steps+1),
		Times:   make([]float64, 0, steps+1),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	t := 0.0
	dt := cfg.Dt

	level.Debug(s.logger).Log("msg", "run started", "dim", len(x0), "dt", cfg.Dt, "duration", cfg.Duration, "adaptive", cfg.Adaptive)

	if err := s.record(result, x, t); err != nil {
		return nil, &SimulationError{Step: 0, Time: t, State: x.Clone(), Wrapped: err}
	}

	for i := 0; cfg.Duration-t > 1e-9*cfg.Dt; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		h := math.Min(dt, cfg.Duration-t)

		var newX State
		var err error
		next := cfg.Dt

		if cfg.Adaptive {
			newX, h, next, err = s.adaptiveStep(x, t, h, cfg)
		} else {
			newX, err = s.integrator.Step(s.sys, x, t, h)
		}
		if err != nil {
			level.Error(s.logger).Log("msg", "step failed", "step", i, "t", t, "err", err)
			return result, &SimulationError{Step: i, Time: t, State: x.Clone(), Wrapped: err}
		}

		if cfg.ValidateState && !newX.IsValid() {
			simErr := SimError{Time: t, Step: i, Message: "invalid state (NaN/Inf)"}
			result.Errors = append(result.Errors, simErr)
			level.Warn(s.logger).Log("msg", "stopping on invalid state", "step", i, "t", t)
			break
		}

		x = newX
		t += h
		dt = next
		result.StepsTaken++

		if err := s.record(result, x, t); err != nil {
			return result, &SimulationError{Step: i, Time: t, State: x.Clone(), Wrapped: err}
		}
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	level.Debug(s.logger).Log("msg", "run finished", "steps", result.StepsTaken, "t", t)
	return result, nil
}

func (s *Simulator) record(result *Result, x State, t float64) error {
	var out []float64
	if osys, ok := s.sys.(OutputSystem); ok && osys.NumOutputs() > 0 {
		o, err := osys.Outputs(x, t)
		if err != nil {
			return err
		}
		out = o
	}

	result.States = append(result.States, x.Clone())
	result.Outputs = append(result.Outputs, out)
	result.Times = append(result.Times, t)

	for _, m := range s.metrics {
		m.Observe(x, out, t)
	}
	for _, obs := range s.observers {
		obs.OnStep(x, out, t)
	}
	return nil
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidConfig, cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %f", ErrInvalidConfig, cfg.Duration)
	}
	if cfg.Adaptive && cfg.Tolerance <= 0 {
		return fmt.Errorf("%w: tolerance must be positive for adaptive stepping", ErrInvalidConfig)
	}
	return nil
}

// adaptiveStep returns the new state, the step actually taken and the
// suggested next step.
func (s *Simulator) adaptiveStep(x State, t, dt float64, cfg Config) (State, float64, float64, error) {
	minDt := cfg.MinDt
	if minDt <= 0 {
		minDt = 1e-12 * cfg.Duration
	}
	if adaptive, ok := s.integrator.(AdaptiveIntegrator); ok {
		for {
			newX, next, err := adaptive.StepAdaptive(s.sys, x, t, dt, cfg.Tolerance)
			if err == nil {
				return newX, dt, s.clampDt(next, cfg), nil
			}
			if !errors.Is(err, ErrStepRejected) {
				return nil, 0, 0, err
			}
			if next < minDt {
				return nil, 0, 0, fmt.Errorf("%w: dt=%g at t=%g", ErrStepTooSmall, next, t)
			}
			dt = next
		}
	}

	x1, err := s.integrator.Step(s.sys, x, t, dt)
	if err != nil {
		return nil, 0, 0, err
	}
	xHalf, err := s.integrator.Step(s.sys, x, t, dt/2)
	if err != nil {
		return nil, 0, 0, err
	}
	x2, err := s.integrator.Step(s.sys, xHalf, t+dt/2, dt/2)
	if err != nil {
		return nil, 0, 0, err
	}

	errNorm := x1.Sub(x2).Norm()

	if errNorm > cfg.Tolerance {
		if dt/2 < minDt {
			return nil, 0, 0, fmt.Errorf("%w: dt=%g at t=%g", ErrStepTooSmall, dt/2, t)
		}
		return s.adaptiveStep(x, t, dt/2, cfg)
	}

	next := dt
	if errNorm < cfg.Tolerance/10 {
		next = dt * 2
	}

	return x2, dt, s.clampDt(next, cfg), nil
}

func (s *Simulator) clampDt(dt float64, cfg Config) float64 {
	if cfg.MaxDt > 0 && dt > cfg.MaxDt {
		dt = cfg.MaxDt
	}
	if cfg.MinDt > 0 && dt < cfg.MinDt {
		dt = cfg.MinDt
	}
	return dt
}
