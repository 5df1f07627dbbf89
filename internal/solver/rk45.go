package solver

import (
	"math"

	"github.com/rai-v/cvdyn/internal/quantum"
)

// Dormand-Prince coefficients.
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

type rk45 struct {
	opts Options
	h    float64

	k1, k2, k3, k4, k5, k6, k7 []float64
	ytmp, ynew                 []float64
}

func newRK45(opts Options) *rk45 {
	return &rk45{opts: opts}
}

func (r *rk45) ensureScratch(n int) {
	if len(r.k1) == n {
		return
	}
	r.k1 = make([]float64, n)
	r.k2 = make([]float64, n)
	r.k3 = make([]float64, n)
	r.k4 = make([]float64, n)
	r.k5 = make([]float64, n)
	r.k6 = make([]float64, n)
	r.k7 = make([]float64, n)
	r.ytmp = make([]float64, n)
	r.ynew = make([]float64, n)
}

// integrate advances y in place from t0 to t1, keeping the step size
// across calls so consecutive grid intervals continue smoothly.
func (r *rk45) integrate(f rhsFunc, t0, t1 float64, y []float64) error {
	n := len(y)
	r.ensureScratch(n)

	if r.h <= 0 {
		r.h = r.opts.InitStep
		if r.h <= 0 {
			r.h = (t1 - t0) / 10.0
		}
	}

	const (
		safety   = 0.9
		minScale = 0.2
		maxScale = 10.0
	)

	t := t0
	for steps := 0; t < t1; steps++ {
		if steps >= r.opts.MaxSteps {
			return &quantum.ConvergenceError{Time: t, Step: r.h, Message: "max steps exceeded in grid interval"}
		}

		h := r.h
		clipped := false
		if t+h >= t1 {
			h = t1 - t
			clipped = true
		}

		f(t, y, r.k1)

		for i := 0; i < n; i++ {
			r.ytmp[i] = y[i] + h*b21*r.k1[i]
		}
		f(t+a2*h, r.ytmp, r.k2)

		for i := 0; i < n; i++ {
			r.ytmp[i] = y[i] + h*(b31*r.k1[i]+b32*r.k2[i])
		}
		f(t+a3*h, r.ytmp, r.k3)

		for i := 0; i < n; i++ {
			r.ytmp[i] = y[i] + h*(b41*r.k1[i]+b42*r.k2[i]+b43*r.k3[i])
		}
		f(t+a4*h, r.ytmp, r.k4)

		for i := 0; i < n; i++ {
			r.ytmp[i] = y[i] + h*(b51*r.k1[i]+b52*r.k2[i]+b53*r.k3[i]+b54*r.k4[i])
		}
		f(t+a5*h, r.ytmp, r.k5)

		for i := 0; i < n; i++ {
			r.ytmp[i] = y[i] + h*(b61*r.k1[i]+b62*r.k2[i]+b63*r.k3[i]+b64*r.k4[i]+b65*r.k5[i])
		}
		f(t+h, r.ytmp, r.k6)

		for i := 0; i < n; i++ {
			r.ynew[i] = y[i] + h*(c1*r.k1[i]+c3*r.k3[i]+c4*r.k4[i]+c5*r.k5[i]+c6*r.k6[i])
		}
		f(t+h, r.ynew, r.k7)

		errNorm := 0.0
		for i := 0; i < n; i++ {
			est := h * (dc1*r.k1[i] + dc3*r.k3[i] + dc4*r.k4[i] + dc5*r.k5[i] + dc6*r.k6[i] + dc7*r.k7[i])
			scale := r.opts.ATol + r.opts.RTol*math.Max(math.Abs(y[i]), math.Abs(r.ynew[i]))
			e := est / scale
			errNorm += e * e
		}
		errNorm = math.Sqrt(errNorm / float64(n))

		if errNorm <= 1.0 || h <= r.opts.MinStep {
			copy(y, r.ynew)
			t += h
			if errNorm > 0 {
				grow := safety * math.Pow(errNorm, -0.2)
				r.h = h * math.Min(maxScale, math.Max(minScale, grow))
			} else if !clipped {
				r.h = h * maxScale
			}
			continue
		}

		shrink := math.Max(minScale, safety*math.Pow(errNorm, -0.25))
		r.h = h * shrink
		if r.h < r.opts.MinStep {
			return &quantum.ConvergenceError{Time: t, Step: r.h, Message: "step size below minimum"}
		}
	}
	return nil
}
