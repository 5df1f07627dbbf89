package solver

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/rai-v/cvdyn/internal/quantum"
)

const (
	bdfMaxOrder  = 5
	bdfMaxNewton = 7
	bdfSafety    = 0.9
)

// bdf implements adaptive variable-order backward differentiation
// formulas on non-uniform past nodes. The implicit equation at each
// step,
//
//	c₀·y_{n+1} + Σ_j c_j·y_{n+1-j} = f(t_{n+1}, y_{n+1}),
//
// uses derivative-of-Lagrange weights c_j computed from the actual node
// times, so no interpolation is needed when the step size changes. The
// corrector is a modified Newton iteration with a finite-difference
// Jacobian that is reused across steps and refreshed on failure.
type bdf struct {
	opts  Options
	order int
	h     float64

	// Accepted history, newest first. Length never exceeds bdfMaxOrder+1.
	ts []float64
	ys [][]float64

	stepsAtOrder int

	n        int
	jac      *mat.Dense
	iter     *mat.Dense
	lu       mat.LU
	jacStale bool

	f0, fval, ypred, ynew, g, resid []float64
	delta                           *mat.VecDense
	rhsVec                          *mat.VecDense
}

func newBDF(opts Options) *bdf {
	return &bdf{opts: opts, order: 1, jacStale: true}
}

func (b *bdf) ensureScratch(n int) {
	if b.n == n {
		return
	}
	b.n = n
	b.jac = mat.NewDense(n, n, nil)
	b.iter = mat.NewDense(n, n, nil)
	b.f0 = make([]float64, n)
	b.fval = make([]float64, n)
	b.ypred = make([]float64, n)
	b.ynew = make([]float64, n)
	b.g = make([]float64, n)
	b.resid = make([]float64, n)
	b.delta = mat.NewVecDense(n, nil)
	b.rhsVec = mat.NewVecDense(n, nil)
	b.ts = nil
	b.ys = nil
}

func (b *bdf) reset(t0 float64, y []float64) {
	b.ts = []float64{t0}
	b.ys = [][]float64{append([]float64(nil), y...)}
	b.order = 1
	b.stepsAtOrder = 0
	b.jacStale = true
}

// integrate advances y in place from t0 to t1. History carries over
// between consecutive grid intervals of the same run.
func (b *bdf) integrate(f rhsFunc, t0, t1 float64, y []float64) error {
	b.ensureScratch(len(y))
	if len(b.ts) == 0 || b.ts[0] != t0 {
		b.reset(t0, y)
	}
	if b.h <= 0 {
		b.h = b.opts.InitStep
		if b.h <= 0 {
			b.h = (t1 - t0) / 100.0
		}
	}

	failures := 0
	for steps := 0; b.ts[0] < t1; steps++ {
		if steps >= b.opts.MaxSteps {
			return &quantum.ConvergenceError{Time: b.ts[0], Step: b.h, Message: "max steps exceeded in grid interval"}
		}

		t := b.ts[0]
		h := math.Min(b.h, t1-t)
		k := b.order
		if k > len(b.ts) {
			k = len(b.ts)
		}
		tNew := t + h

		c0 := b.weights(tNew, k)
		b.predict(tNew, k)

		if err := b.newton(f, tNew, c0); err != nil {
			// Corrector failed: refresh the Jacobian and retry with a
			// smaller step before giving up.
			b.jacStale = true
			b.h = h * 0.25
			if b.h < b.opts.MinStep {
				return &quantum.ConvergenceError{Time: t, Step: b.h, Message: "Newton corrector failed at minimum step"}
			}
			continue
		}

		errNorm := b.errorNorm(k)
		if errNorm > 1.0 && h > b.opts.MinStep {
			failures++
			shrink := math.Max(0.1, bdfSafety*math.Pow(errNorm, -1.0/float64(k+1)))
			b.h = h * shrink
			if failures >= 2 && b.order > 1 {
				b.order--
				b.stepsAtOrder = 0
			}
			if b.h < b.opts.MinStep {
				return &quantum.ConvergenceError{Time: t, Step: b.h, Message: "error test failed at minimum step"}
			}
			continue
		}

		// Accepted.
		failures = 0
		b.push(tNew, b.ynew)
		b.stepsAtOrder++

		if errNorm > 0 {
			grow := bdfSafety * math.Pow(errNorm, -1.0/float64(k+1))
			b.h = h * math.Min(10.0, math.Max(0.2, grow))
		} else {
			b.h = h * 10.0
		}

		if b.stepsAtOrder >= b.order+2 && b.order < bdfMaxOrder && len(b.ts) > b.order+1 {
			b.order++
			b.stepsAtOrder = 0
		}
	}

	copy(y, b.ys[0])
	return nil
}

// weights fills g with Σ_j c_j·y_j over the k history points and
// returns c₀, where the c's are the derivatives at tNew of the Lagrange
// basis over nodes (tNew, ts[0], ..., ts[k-1]).
func (b *bdf) weights(tNew float64, k int) float64 {
	c0 := 0.0
	for j := 0; j < k; j++ {
		c0 += 1.0 / (tNew - b.ts[j])
	}

	for i := range b.g {
		b.g[i] = 0
	}
	for j := 0; j < k; j++ {
		num := 1.0
		den := b.ts[j] - tNew
		for m := 0; m < k; m++ {
			if m == j {
				continue
			}
			num *= tNew - b.ts[m]
			den *= b.ts[j] - b.ts[m]
		}
		cj := num / den
		yj := b.ys[j]
		for i := range b.g {
			b.g[i] += cj * yj[i]
		}
	}
	return c0
}

// predict extrapolates the history polynomial to tNew as the Newton
// starting guess and the reference for the local error estimate.
func (b *bdf) predict(tNew float64, k int) {
	for i := range b.ypred {
		b.ypred[i] = 0
	}
	for j := 0; j < k; j++ {
		lj := 1.0
		for m := 0; m < k; m++ {
			if m == j {
				continue
			}
			lj *= (tNew - b.ts[m]) / (b.ts[j] - b.ts[m])
		}
		yj := b.ys[j]
		for i := range b.ypred {
			b.ypred[i] += lj * yj[i]
		}
	}
}

func (b *bdf) newton(f rhsFunc, tNew, c0 float64) error {
	n := b.n
	copy(b.ynew, b.ypred)

	if b.jacStale {
		b.numericJacobian(f, tNew, b.ypred)
		b.jacStale = false
	}

	// Iteration matrix c₀·I - J, refactored each step because c₀
	// follows the step size.
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := -b.jac.At(i, j)
			if i == j {
				v += c0
			}
			b.iter.Set(i, j, v)
		}
	}
	b.lu.Factorize(b.iter)
	if math.Abs(b.lu.Det()) == 0 {
		return &quantum.ConvergenceError{Time: tNew, Step: b.h, Message: "singular Newton iteration matrix"}
	}

	for it := 0; it < bdfMaxNewton; it++ {
		f(tNew, b.ynew, b.fval)
		for i := 0; i < n; i++ {
			b.resid[i] = b.fval[i] - c0*b.ynew[i] - b.g[i]
		}

		for i := 0; i < n; i++ {
			b.rhsVec.SetVec(i, b.resid[i])
		}
		if err := b.lu.SolveVecTo(b.delta, false, b.rhsVec); err != nil {
			return &quantum.ConvergenceError{Time: tNew, Step: b.h, Message: "linear solve failed"}
		}

		dNorm := 0.0
		for i := 0; i < n; i++ {
			d := b.delta.AtVec(i)
			b.ynew[i] += d
			scale := b.opts.ATol + b.opts.RTol*math.Abs(b.ynew[i])
			e := d / scale
			dNorm += e * e
		}
		dNorm = math.Sqrt(dNorm / float64(n))

		if dNorm < 0.1 {
			return nil
		}
	}
	return &quantum.ConvergenceError{Time: tNew, Step: b.h, Message: "Newton corrector did not converge"}
}

// errorNorm scales the corrector-predictor difference, the standard
// quasi-estimate of the order-k truncation error.
func (b *bdf) errorNorm(k int) float64 {
	coeff := 1.0 / float64(k+1)
	sum := 0.0
	for i := 0; i < b.n; i++ {
		scale := b.opts.ATol + b.opts.RTol*math.Max(math.Abs(b.ynew[i]), math.Abs(b.ypred[i]))
		e := coeff * (b.ynew[i] - b.ypred[i]) / scale
		sum += e * e
	}
	return math.Sqrt(sum / float64(b.n))
}

func (b *bdf) push(t float64, y []float64) {
	keep := bdfMaxOrder + 1
	b.ts = append([]float64{t}, b.ts...)
	b.ys = append([][]float64{append([]float64(nil), y...)}, b.ys...)
	if len(b.ts) > keep {
		b.ts = b.ts[:keep]
		b.ys = b.ys[:keep]
	}
}

func (b *bdf) numericJacobian(f rhsFunc, t float64, y []float64) {
	n := b.n
	f(t, y, b.f0)
	eps := math.Sqrt(2.2e-16)
	for j := 0; j < n; j++ {
		yj := y[j]
		d := eps * math.Max(math.Abs(yj), 1.0)
		y[j] = yj + d
		f(t, y, b.fval)
		y[j] = yj
		inv := 1.0 / d
		for i := 0; i < n; i++ {
			b.jac.Set(i, j, (b.fval[i]-b.f0[i])*inv)
		}
	}
}
