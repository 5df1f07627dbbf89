package analysis

import (
	"context"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/rai-v/cvdyn/internal/quantum"
	"github.com/rai-v/cvdyn/internal/solver"
)

// Options configures a Lyapunov estimation run.
type Options struct {
	// Method and tolerances are handed to the underlying solver.
	Method     string
	ATol, RTol float64

	// Time span and number of grid steps of the trajectory.
	TMin, TMax float64
	Steps      int

	// RenormEvery is the number of grid steps between QR
	// re-orthonormalizations of the tangent basis. It must be short
	// enough that tangent norms stay within floating-point range:
	// keep λ_max·(span/Steps)·RenormEvery well below ~700, where
	// λ_max is of the order of the largest decay rate in the system.
	RenormEvery int

	// Exponents is the number of tangent directions tracked; 0 tracks
	// the full quadrature dimension 2n.
	Exponents int
}

func DefaultOptions() Options {
	return Options{
		Method:      solver.MethodRK45,
		ATol:        1e-10,
		RTol:        1e-8,
		TMin:        0.0,
		TMax:        100.0,
		Steps:       1000,
		RenormEvery: 10,
	}
}

// tangentSystem augments a linearized system with k tangent columns
// evolving under dU/dt = A(α, t)·U. Tangent entries ride along in the
// complex mode vector, pairing quadratures (u_{2j}, u_{2j+1}) into one
// complex slot, which lets the shared solver advance everything at
// once.
type tangentSystem struct {
	base  quantum.Linearized
	k     int
	state quantum.Modes

	a  *mat.Dense
	u  []float64
	du []float64
}

func newTangentSystem(base quantum.Linearized, k int) *tangentSystem {
	n := base.NumModes()
	d := 2 * n
	return &tangentSystem{
		base: base,
		k:    k,
		a:    mat.NewDense(d, d, nil),
		u:    make([]float64, d),
		du:   make([]float64, d),
	}
}

func (s *tangentSystem) Name() string { return s.base.Name() + "+tangent" }

func (s *tangentSystem) NumModes() int {
	return s.base.NumModes() * (1 + s.k)
}

func (s *tangentSystem) InitialModes() quantum.Modes { return s.state.Clone() }

func (s *tangentSystem) ModeRates(modes quantum.Modes, t float64) quantum.Modes {
	n := s.base.NumModes()
	d := 2 * n

	rates := make(quantum.Modes, len(modes))
	copy(rates[:n], s.base.ModeRates(modes[:n], t))

	s.base.DriftMatrix(modes[:n], t, s.a)
	for col := 0; col < s.k; col++ {
		off := n * (1 + col)
		for j := 0; j < n; j++ {
			s.u[2*j] = real(modes[off+j])
			s.u[2*j+1] = imag(modes[off+j])
		}
		for i := 0; i < d; i++ {
			sum := 0.0
			for j := 0; j < d; j++ {
				sum += s.a.At(i, j) * s.u[j]
			}
			s.du[i] = sum
		}
		for j := 0; j < n; j++ {
			rates[off+j] = complex(s.du[2*j], s.du[2*j+1])
		}
	}
	return rates
}

// Spectrum estimates Lyapunov exponents of sys along its own
// trajectory, returned in descending order. Any solver failure is
// propagated unchanged; exponents are never computed from a truncated
// trajectory.
func Spectrum(ctx context.Context, sys quantum.Linearized, opts Options) ([]float64, error) {
	n := sys.NumModes()
	d := 2 * n
	k := opts.Exponents
	if k <= 0 || k > d {
		k = d
	}
	if opts.Steps < 1 || opts.RenormEvery < 1 {
		return nil, fmt.Errorf("%w: steps and renorm interval must be positive", quantum.ErrConfig)
	}
	if opts.TMax <= opts.TMin {
		return nil, fmt.Errorf("%w: t_max must exceed t_min", quantum.ErrConfig)
	}

	ts := newTangentSystem(sys, k)
	ts.state = make(quantum.Modes, n*(1+k))
	copy(ts.state[:n], sys.InitialModes())

	// Orthonormal initial basis: e_col in quadrature space.
	basis := mat.NewDense(d, k, nil)
	for col := 0; col < k; col++ {
		basis.Set(col, col, 1.0)
	}
	packBasis(ts.state, basis, n, k)

	span := opts.TMax - opts.TMin
	dt := span / float64(opts.Steps)
	sums := make([]float64, k)

	var qr mat.QR
	var q, r mat.Dense

	t := opts.TMin
	for step := 0; step < opts.Steps; step += opts.RenormEvery {
		segSteps := opts.RenormEvery
		if step+segSteps > opts.Steps {
			segSteps = opts.Steps - step
		}
		segOpts := solver.Options{
			Method:   opts.Method,
			TMin:     t,
			TMax:     t + dt*float64(segSteps),
			TDim:     segSteps + 1,
			ATol:     opts.ATol,
			RTol:     opts.RTol,
			MinStep:  1e-14,
			MaxSteps: 100000,
		}
		traj, err := solver.Solve(ctx, ts, segOpts)
		if err != nil {
			return nil, fmt.Errorf("tangent propagation: %w", err)
		}
		ts.state = traj.FinalModes()
		t = segOpts.TMax

		unpackBasis(ts.state, basis, n, k)
		qr.Factorize(basis)
		qr.QTo(&q)
		qr.RTo(&r)

		for col := 0; col < k; col++ {
			diag := r.At(col, col)
			sums[col] += math.Log(math.Abs(diag))
			// Re-orthonormalized basis keeps the orientation of the
			// growth directions.
			sign := 1.0
			if diag < 0 {
				sign = -1.0
			}
			for row := 0; row < d; row++ {
				basis.Set(row, col, sign*q.At(row, col))
			}
		}
		packBasis(ts.state, basis, n, k)
	}

	for i := range sums {
		sums[i] /= span
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(sums)))
	return sums, nil
}

// MaxExponent returns only the largest exponent, the usual stability
// classifier.
func MaxExponent(ctx context.Context, sys quantum.Linearized, opts Options) (float64, error) {
	spec, err := Spectrum(ctx, sys, opts)
	if err != nil {
		return 0, err
	}
	return spec[0], nil
}

func packBasis(state quantum.Modes, basis *mat.Dense, n, k int) {
	for col := 0; col < k; col++ {
		off := n * (1 + col)
		for j := 0; j < n; j++ {
			state[off+j] = complex(basis.At(2*j, col), basis.At(2*j+1, col))
		}
	}
}

func unpackBasis(state quantum.Modes, basis *mat.Dense, n, k int) {
	for col := 0; col < k; col++ {
		off := n * (1 + col)
		for j := 0; j < n; j++ {
			v := state[off+j]
			basis.Set(2*j, col, real(v))
			basis.Set(2*j+1, col, imag(v))
		}
	}
}
