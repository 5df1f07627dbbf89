package solver

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/rai-v/cvdyn/internal/quantum"
)

type stepper interface {
	integrate(f rhsFunc, t0, t1 float64, y []float64) error
}

// Solve integrates sys over the configured time grid and returns the
// full trajectory, one snapshot per grid point including the initial
// one. If sys implements quantum.Linearized the covariance matrix is
// propagated alongside the classical modes; otherwise only the mode
// block is integrated.
//
// The run owns every buffer it touches; Solve is safe to call from
// many goroutines with distinct systems, which is how the sweep layer
// parallelizes parameter grids.
func Solve(ctx context.Context, sys quantum.System, opts Options) (*Trajectory, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	n := sys.NumModes()
	if n <= 0 {
		return nil, fmt.Errorf("%w: system reports %d modes", quantum.ErrConfig, n)
	}

	initModes := sys.InitialModes()
	if len(initModes) != n {
		return nil, fmt.Errorf("%w: initial modes have length %d, want %d",
			quantum.ErrConfig, len(initModes), n)
	}

	lin, withCorrs := sys.(quantum.Linearized)
	rhs, dim := newRHS(sys)

	// A non-finite derivative poisons every later stage, so the stepper
	// would report non-convergence. Latch the first occurrence and
	// classify it as divergence instead.
	divergedAt := math.NaN()
	f := func(t float64, y, dy []float64) {
		rhs(t, y, dy)
		if math.IsNaN(divergedAt) && !isFinite(dy) {
			divergedAt = t
		}
	}

	y := make([]float64, dim)
	packModes(initModes, y)
	if withCorrs {
		c0 := lin.InitialCorrs()
		r, cols := c0.Dims()
		if r != 2*n || cols != 2*n {
			return nil, fmt.Errorf("%w: initial covariance is %dx%d, want %dx%d",
				quantum.ErrConfig, r, cols, 2*n, 2*n)
		}
		copy(y[2*n:], c0.RawMatrix().Data)
	}

	times := make([]float64, opts.TDim)
	floats.Span(times, opts.TMin, opts.TMax)

	var step stepper
	switch opts.Method {
	case MethodRK45:
		step = newRK45(opts)
	default:
		step = newBDF(opts)
	}

	traj := &Trajectory{
		Times: times,
		Modes: make([]quantum.Modes, 0, opts.TDim),
	}
	if withCorrs {
		traj.Corrs = make([]*mat.Dense, 0, opts.TDim)
	}

	traj.Modes = append(traj.Modes, initModes.Clone())
	if withCorrs {
		traj.Corrs = append(traj.Corrs, unpackCorrs(y, n))
	}

	for i := 1; i < opts.TDim; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		err := step.integrate(f, times[i-1], times[i], y)
		if !math.IsNaN(divergedAt) || !isFinite(y) {
			at := times[i]
			if !math.IsNaN(divergedAt) {
				at = divergedAt
			}
			return nil, &quantum.DivergenceError{
				Index:     i,
				Time:      at,
				LastModes: traj.Modes[i-1],
			}
		}
		if err != nil {
			return nil, fmt.Errorf("grid index %d: %w", i, err)
		}

		traj.Modes = append(traj.Modes, unpackModes(y, n))
		if withCorrs {
			traj.Corrs = append(traj.Corrs, unpackCorrs(y, n))
		}
	}
	return traj, nil
}
