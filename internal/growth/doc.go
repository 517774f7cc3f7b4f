// Package growth provides the vector fields of the growth-curve models.
//
// Each model follows the same two-operation contract used by host ODE
// integrators:
//
//   - [Model.Initialize] hands the model's parameter storage to the host
//     through a [Deliver] callback, exactly once per call.
//   - [Model.Derivs] writes dy/dt for the current state and, when the host
//     asks for them, auxiliary outputs derived from the state.
//
// Models:
//
//   - [TwoStep]: two-compartment logistic growth (lag pool feeding an active pool)
//   - [GenLogistic]: generalized logistic growth after Tsoularis (2001)
//   - [TwoStepShared]: deprecated two-parameter form of [TwoStep]
//
// # Example
//
//	m := growth.NewTwoStep()
//	if err := growth.Init(m, []float64{0.5, 1.0, 10.0}); err != nil {
//	    return err
//	}
//	ydot := make([]float64, 2)
//	yout := make([]float64, 2)
//	err := m.Derivs(2, 0, []float64{1, 0}, ydot, yout, 2)
//
// # Thread Safety
//
// A model value is the parameter context of one run. Distinct values share
// nothing; a single value must not be re-initialized while another goroutine
// evaluates it.
package growth
