package growth

import "fmt"

// Deliver receives a model's parameter count and its parameter storage.
// The receiver may write into buf until the next call to Initialize.
type Deliver func(n int, buf []float64)

// Model is the contract between a growth model and a host integrator.
type Model interface {
	// Name is the registration name, e.g. "twostep".
	Name() string
	// NumParams is the fixed length of the parameter vector.
	NumParams() int
	// ParamNames lists the parameters in vector order.
	ParamNames() []string
	// StateDim is the length of the state and derivative vectors.
	StateDim() int
	// MinOutputs is the smallest output request the model accepts.
	MinOutputs() int
	// NumOutputs is the number of auxiliary outputs the model defines.
	NumOutputs() int
	// Initialize calls deliver exactly once with the model's parameter storage.
	Initialize(deliver Deliver)
	// Derivs writes dy/dt into ydot and, if nout permits, outputs into yout.
	Derivs(neq int, t float64, y, ydot, yout []float64, nout int) error
}

// Init initializes m and copies params into the delivered storage.
// The storage is left untouched when the lengths disagree.
func Init(m Model, params []float64) error {
	var err error
	m.Initialize(func(n int, buf []float64) {
		if len(params) != n || len(buf) != n {
			err = fmt.Errorf("%w: %s wants %d, got %d", ErrParamCount, m.Name(), n, len(params))
			return
		}
		copy(buf, params)
	})
	return err
}

// Params returns a copy of the values currently held by m.
func Params(m Model) []float64 {
	var out []float64
	m.Initialize(func(n int, buf []float64) {
		out = make([]float64, n)
		copy(out, buf)
	})
	return out
}

func checkDims(model string, dim, neq int, y, ydot []float64) error {
	if neq != dim || len(y) < dim || len(ydot) < dim {
		return fmt.Errorf("%w: %s wants %d, got neq=%d len(y)=%d len(ydot)=%d",
			ErrStateDim, model, dim, neq, len(y), len(ydot))
	}
	return nil
}

func checkOutputs(model string, yout []float64, nout, required, defined int) error {
	if nout < required {
		return &OutputRequestError{Model: model, Requested: nout, Required: required}
	}
	if want := min(nout, defined); len(yout) < want {
		return fmt.Errorf("%w: %s writes %d, len(yout)=%d", ErrShortOutput, model, want, len(yout))
	}
	return nil
}
