package experiment

import "errors"

var (
	ErrUnknownModel      = errors.New("experiment: unknown model")
	ErrUnknownIntegrator = errors.New("experiment: unknown integrator")
	ErrUnknownParam      = errors.New("experiment: unknown parameter")
	ErrMissingParam      = errors.New("experiment: missing parameter")
	ErrNotSetup          = errors.New("experiment: not setup")
)
