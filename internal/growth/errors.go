package growth

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientOutputRequest indicates the host declared fewer auxiliary
	// outputs than the model requires.
	ErrInsufficientOutputRequest = errors.New("growth: insufficient output request")

	// ErrParamCount indicates a parameter vector whose length differs from the
	// model's fixed parameter count.
	ErrParamCount = errors.New("growth: parameter count mismatch")

	// ErrStateDim indicates state or derivative vectors of the wrong length.
	ErrStateDim = errors.New("growth: state dimension mismatch")

	// ErrShortOutput indicates an output buffer shorter than the declared request.
	ErrShortOutput = errors.New("growth: output buffer shorter than request")
)

// OutputRequestError reports a rejected output request.
type OutputRequestError struct {
	Model     string
	Requested int
	Required  int
}

func (e *OutputRequestError) Error() string {
	return fmt.Sprintf("%s: nout should be >= %d, got %d", e.Model, e.Required, e.Requested)
}

func (e *OutputRequestError) Unwrap() error {
	return ErrInsufficientOutputRequest
}
