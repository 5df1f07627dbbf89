package solver

import (
	"gonum.org/v1/gonum/mat"

	"github.com/rai-v/cvdyn/internal/quantum"
)

// rhsFunc evaluates the derivative of the packed real state into dy.
type rhsFunc func(t float64, y, dy []float64)

// Packed layout: [Re α_0, Im α_0, ..., Re α_{n-1}, Im α_{n-1}] followed,
// for linearized systems, by the row-major covariance matrix.

func packDim(n int, withCorrs bool) int {
	d := 2 * n
	if withCorrs {
		d += (2 * n) * (2 * n)
	}
	return d
}

func packModes(modes quantum.Modes, y []float64) {
	for i, v := range modes {
		y[2*i] = real(v)
		y[2*i+1] = imag(v)
	}
}

func unpackModes(y []float64, n int) quantum.Modes {
	modes := make(quantum.Modes, n)
	for i := range modes {
		modes[i] = complex(y[2*i], y[2*i+1])
	}
	return modes
}

func unpackCorrs(y []float64, n int) *mat.Dense {
	d := 2 * n
	c := mat.NewDense(d, d, nil)
	copy(c.RawMatrix().Data, y[2*n:2*n+d*d])
	quantum.Symmetrize(c)
	return c
}

// newRHS builds the packed derivative function for sys. The returned
// closure owns its scratch buffers, so one rhsFunc must never be shared
// between concurrent runs; each Solve call builds its own.
func newRHS(sys quantum.System) (rhsFunc, int) {
	n := sys.NumModes()
	lin, withCorrs := sys.(quantum.Linearized)
	dim := packDim(n, withCorrs)

	modes := make(quantum.Modes, n)
	if !withCorrs {
		f := func(t float64, y, dy []float64) {
			for i := range modes {
				modes[i] = complex(y[2*i], y[2*i+1])
			}
			rates := sys.ModeRates(modes, t)
			for i, r := range rates {
				dy[2*i] = real(r)
				dy[2*i+1] = imag(r)
			}
		}
		return f, dim
	}

	d := 2 * n
	a := mat.NewDense(d, d, nil)
	noise := mat.NewDense(d, d, nil)
	ac := mat.NewDense(d, d, nil)
	cat := mat.NewDense(d, d, nil)

	f := func(t float64, y, dy []float64) {
		for i := range modes {
			modes[i] = complex(y[2*i], y[2*i+1])
		}
		rates := sys.ModeRates(modes, t)
		for i, r := range rates {
			dy[2*i] = real(r)
			dy[2*i+1] = imag(r)
		}

		c := mat.NewDense(d, d, y[2*n:2*n+d*d])
		lin.DriftMatrix(modes, t, a)
		lin.NoiseMatrix(modes, c, t, noise)

		ac.Mul(a, c)
		cat.Mul(c, a.T())

		out := dy[2*n:]
		acd := ac.RawMatrix().Data
		catd := cat.RawMatrix().Data
		nd := noise.RawMatrix().Data
		for i := range out {
			out[i] = acd[i] + catd[i] + nd[i]
		}
	}
	return f, dim
}

func isFinite(y []float64) bool {
	for _, v := range y {
		// NaN check via self-comparison also catches NaN from Inf-Inf.
		if v != v || v > 1e308 || v < -1e308 {
			return false
		}
	}
	return true
}
