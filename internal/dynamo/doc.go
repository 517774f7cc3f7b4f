// Package dynamo provides the host side of an ODE simulation: the loop that
// drives a vector field through an integrator.
//
// The package defines the fundamental interfaces and types:
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [OutputSystem]: a System that also reports auxiliary outputs
//   - [Integrator]: numerical stepper interface
//   - [Simulator]: orchestrates simulation runs
//
// # Example
//
//	sys := experiment.NewVectorfield(model, 2)
//	integ := integrators.NewRK4()
//	sim := dynamo.New(sys, integ)
//	result, err := sim.Run(ctx, x0, cfg)
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe. For parallel simulations,
// use the [Ensemble] type, giving each member its own System.
package dynamo
