package growth

import (
	"fmt"
	"math"
)

const (
	twoStepName    = "twostep"
	twoStepParams  = 3
	twoStepDim     = 2
	twoStepMinOut  = 1
	twoStepOutputs = 2
)

// TwoStepParams are the named parameters of the two-step model.
type TwoStepParams struct {
	TransitionRate float64 // kw, lag pool -> active pool
	GrowthRate     float64 // mu
	Capacity       float64 // K
}

// TwoStepParamsFromVector reads the flat layout (kw, mu, K).
func TwoStepParamsFromVector(v []float64) (TwoStepParams, error) {
	if len(v) != twoStepParams {
		return TwoStepParams{}, fmt.Errorf("%w: %s wants %d, got %d", ErrParamCount, twoStepName, twoStepParams, len(v))
	}
	return TwoStepParams{TransitionRate: v[0], GrowthRate: v[1], Capacity: v[2]}, nil
}

// Vector returns the flat layout (kw, mu, K).
func (p TwoStepParams) Vector() []float64 {
	return []float64{p.TransitionRate, p.GrowthRate, p.Capacity}
}

// Rates computes dy/dt for y = (lag, active).
func (p TwoStepParams) Rates(y0, y1 float64) (float64, float64) {
	d0 := -p.TransitionRate * y0
	d1 := p.TransitionRate*y0 + p.GrowthRate*(1.0-(y0+y1)/p.Capacity)*y1
	return d0, d1
}

// TwoStep is two-compartment logistic growth. State y[0] is the lag pool,
// y[1] the actively growing pool. Outputs are total biomass and its log.
type TwoStep struct {
	parms [twoStepParams]float64
}

func NewTwoStep() *TwoStep {
	return &TwoStep{}
}

// NewTwoStepWith returns an initialized model.
func NewTwoStepWith(p TwoStepParams) *TwoStep {
	m := &TwoStep{}
	copy(m.parms[:], p.Vector())
	return m
}

var _ Model = (*TwoStep)(nil)

func (m *TwoStep) Name() string         { return twoStepName }
func (m *TwoStep) NumParams() int       { return twoStepParams }
func (m *TwoStep) StateDim() int        { return twoStepDim }
func (m *TwoStep) NumOutputs() int      { return twoStepOutputs }
func (m *TwoStep) ParamNames() []string { return []string{"kw", "mu", "K"} }

// MinOutputs is 1: only total biomass is mandatory. The compiled d_twostep
// routine required 2; TwoStepShared keeps that rule.
func (m *TwoStep) MinOutputs() int { return twoStepMinOut }

func (m *TwoStep) Initialize(deliver Deliver) {
	deliver(twoStepParams, m.parms[:])
}

func (m *TwoStep) Params() TwoStepParams {
	return TwoStepParams{TransitionRate: m.parms[0], GrowthRate: m.parms[1], Capacity: m.parms[2]}
}

func (m *TwoStep) Derivs(neq int, t float64, y, ydot, yout []float64, nout int) error {
	if err := checkOutputs(twoStepName, yout, nout, twoStepMinOut, twoStepOutputs); err != nil {
		return err
	}
	if err := checkDims(twoStepName, twoStepDim, neq, y, ydot); err != nil {
		return err
	}

	ydot[0], ydot[1] = m.Params().Rates(y[0], y[1])

	total := y[0] + y[1]
	yout[0] = total
	if nout >= 2 {
		yout[1] = math.Log(total)
	}
	return nil
}
