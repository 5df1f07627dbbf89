package solver

import (
	"fmt"

	"github.com/rai-v/cvdyn/internal/quantum"
)

// Integration methods.
const (
	MethodBDF  = "bdf"
	MethodRK45 = "rk45"
)

// Options configures a single integration run. The zero value is not
// usable; start from DefaultOptions.
type Options struct {
	// Method selects the stepper, MethodBDF or MethodRK45.
	Method string

	// Time grid: TDim points spanning [TMin, TMax], inclusive.
	TMin, TMax float64
	TDim       int

	// Absolute and relative local error tolerances.
	ATol, RTol float64

	// Step-size bounds for the adaptive steppers. InitStep <= 0 picks a
	// fraction of the first grid interval.
	InitStep, MinStep float64

	// MaxSteps bounds internal steps per grid interval; exceeding it
	// surfaces as non-convergence rather than silent truncation.
	MaxSteps int
}

// DefaultOptions mirrors the tolerances these models are routinely run
// with: tight absolute tolerance because vacuum-level covariance entries
// sit near 0.5 while drive terms can reach 1e6.
func DefaultOptions() Options {
	return Options{
		Method:   MethodBDF,
		TMin:     0.0,
		TMax:     100.0,
		TDim:     1001,
		ATol:     1e-12,
		RTol:     1e-6,
		MinStep:  1e-14,
		MaxSteps: 100000,
	}
}

// Validate checks the option set before any stepping begins.
func (o Options) Validate() error {
	if o.Method != MethodBDF && o.Method != MethodRK45 {
		return fmt.Errorf("%w: unknown method %q", quantum.ErrConfig, o.Method)
	}
	if o.TDim < 2 {
		return fmt.Errorf("%w: time grid needs at least 2 points, got %d", quantum.ErrConfig, o.TDim)
	}
	if o.TMax <= o.TMin {
		return fmt.Errorf("%w: t_max (%g) must exceed t_min (%g)", quantum.ErrConfig, o.TMax, o.TMin)
	}
	if o.ATol <= 0 || o.RTol <= 0 {
		return fmt.Errorf("%w: tolerances must be positive (atol=%g, rtol=%g)", quantum.ErrConfig, o.ATol, o.RTol)
	}
	if o.MaxSteps <= 0 {
		return fmt.Errorf("%w: max steps must be positive, got %d", quantum.ErrConfig, o.MaxSteps)
	}
	return nil
}
