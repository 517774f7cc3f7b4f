package growth

import (
	"fmt"
	"math"
)

const (
	twoStepSharedName   = "twostep_legacy"
	twoStepSharedParams = 2
	twoStepSharedMinOut = 2
)

// TwoStepSharedParams is the legacy two-step layout in which the transition
// and growth rates are one parameter.
type TwoStepSharedParams struct {
	Rate     float64
	Capacity float64
}

func TwoStepSharedParamsFromVector(v []float64) (TwoStepSharedParams, error) {
	if len(v) != twoStepSharedParams {
		return TwoStepSharedParams{}, fmt.Errorf("%w: %s wants %d, got %d", ErrParamCount, twoStepSharedName, twoStepSharedParams, len(v))
	}
	return TwoStepSharedParams{Rate: v[0], Capacity: v[1]}, nil
}

func (p TwoStepSharedParams) Vector() []float64 {
	return []float64{p.Rate, p.Capacity}
}

// TwoStepParams expands the shared rate into the canonical layout.
func (p TwoStepSharedParams) TwoStepParams() TwoStepParams {
	return TwoStepParams{TransitionRate: p.Rate, GrowthRate: p.Rate, Capacity: p.Capacity}
}

// TwoStepShared is the two-parameter two-step model. It always writes both
// outputs and rejects requests for fewer than two. Its vector is (mu, K);
// the compiled ini_twostep routine took a third, unused value, which Init
// here rejects with ErrParamCount.
//
// Deprecated: use TwoStep, which separates the transition and growth rates.
type TwoStepShared struct {
	parms [twoStepSharedParams]float64
}

var _ Model = (*TwoStepShared)(nil)

func NewTwoStepShared() *TwoStepShared {
	return &TwoStepShared{}
}

func (m *TwoStepShared) Name() string         { return twoStepSharedName }
func (m *TwoStepShared) NumParams() int       { return twoStepSharedParams }
func (m *TwoStepShared) StateDim() int        { return twoStepDim }
func (m *TwoStepShared) MinOutputs() int      { return twoStepSharedMinOut }
func (m *TwoStepShared) NumOutputs() int      { return twoStepOutputs }
func (m *TwoStepShared) ParamNames() []string { return []string{"mu", "K"} }

func (m *TwoStepShared) Initialize(deliver Deliver) {
	deliver(twoStepSharedParams, m.parms[:])
}

func (m *TwoStepShared) Params() TwoStepSharedParams {
	return TwoStepSharedParams{Rate: m.parms[0], Capacity: m.parms[1]}
}

func (m *TwoStepShared) Derivs(neq int, t float64, y, ydot, yout []float64, nout int) error {
	if err := checkOutputs(twoStepSharedName, yout, nout, twoStepSharedMinOut, twoStepOutputs); err != nil {
		return err
	}
	if err := checkDims(twoStepSharedName, twoStepDim, neq, y, ydot); err != nil {
		return err
	}

	ydot[0], ydot[1] = m.Params().TwoStepParams().Rates(y[0], y[1])

	yout[0] = y[0] + y[1]
	yout[1] = math.Log(y[0] + y[1])
	return nil
}
