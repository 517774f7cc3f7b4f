package experiment

import (
	"github.com/san-kum/growthrates/internal/dynamo"
	"github.com/san-kum/growthrates/internal/growth"
)

// Vectorfield drives an initialized growth model as a dynamo.OutputSystem.
// It owns the output buffer handed to the model on every evaluation.
type Vectorfield struct {
	model growth.Model
	nout  int
	yout  []float64
}

// NewVectorfield wraps m with the output request nout used on every call.
func NewVectorfield(m growth.Model, nout int) *Vectorfield {
	return &Vectorfield{
		model: m,
		nout:  nout,
		yout:  make([]float64, max(m.NumOutputs(), 0)),
	}
}

func (v *Vectorfield) Model() growth.Model { return v.model }
func (v *Vectorfield) StateDim() int       { return v.model.StateDim() }

// NumOutputs is the number of outputs the model writes for this request.
func (v *Vectorfield) NumOutputs() int {
	return max(min(v.nout, v.model.NumOutputs()), 0)
}

func (v *Vectorfield) Derive(x dynamo.State, t float64) (dynamo.State, error) {
	dx := make(dynamo.State, len(x))
	if err := v.model.Derivs(len(x), t, x, dx, v.yout, v.nout); err != nil {
		return nil, err
	}
	return dx, nil
}

func (v *Vectorfield) Outputs(x dynamo.State, t float64) ([]float64, error) {
	dx := make([]float64, len(x))
	if err := v.model.Derivs(len(x), t, x, dx, v.yout, v.nout); err != nil {
		return nil, err
	}
	out := make([]float64, v.NumOutputs())
	copy(out, v.yout)
	return out, nil
}

// Evaluate runs a single derivative evaluation outside a simulation.
func Evaluate(m growth.Model, y []float64, nout int) (ydot, yout []float64, err error) {
	ydot = make([]float64, len(y))
	yout = make([]float64, max(m.NumOutputs(), 0))
	if err := m.Derivs(len(y), 0, y, ydot, yout, nout); err != nil {
		return nil, nil, err
	}
	return ydot, yout[:max(min(nout, len(yout)), 0)], nil
}

var _ dynamo.OutputSystem = (*Vectorfield)(nil)
