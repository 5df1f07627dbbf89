package quantum

import (
	"errors"
	"fmt"
)

// Domain errors for simulation runs.
var (
	// ErrConfig indicates malformed or physically inconsistent input,
	// detected before any integration starts.
	ErrConfig = errors.New("quantum: invalid configuration")

	// ErrDiverged indicates NaN or Inf appeared in the mode or
	// covariance state during integration.
	ErrDiverged = errors.New("quantum: state diverged (NaN or Inf)")

	// ErrNonConvergence indicates step-size control could not satisfy
	// the requested tolerances. Distinct from ErrDiverged so callers can
	// tell "stiffness too high" from "blew up".
	ErrNonConvergence = errors.New("quantum: step control failed to converge")

	// ErrNoSteadyState indicates the occupancy polynomial has no real
	// non-negative root. A sweep records this as a valid outcome.
	ErrNoSteadyState = errors.New("quantum: no physical steady state")
)

// DivergenceError reports the grid index at which the state became
// non-finite, together with the last valid state for diagnosis.
type DivergenceError struct {
	Index     int
	Time      float64
	LastModes Modes
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("state diverged at grid index %d (t=%.6g)", e.Index, e.Time)
}

func (e *DivergenceError) Unwrap() error { return ErrDiverged }

// ConvergenceError reports where adaptive stepping gave up.
type ConvergenceError struct {
	Time    float64
	Step    float64
	Message string
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("step control failed at t=%.6g (h=%.3g): %s", e.Time, e.Step, e.Message)
}

func (e *ConvergenceError) Unwrap() error { return ErrNonConvergence }
