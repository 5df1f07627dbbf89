package quantum

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// Modes holds the classical (mean-field) amplitude of each bosonic mode.
type Modes []complex128

func (m Modes) Clone() Modes {
	c := make(Modes, len(m))
	copy(c, m)
	return c
}

func (m Modes) IsValid() bool {
	for _, v := range m {
		if cmplx.IsNaN(v) || cmplx.IsInf(v) {
			return false
		}
	}
	return true
}

func (m Modes) Norm() float64 {
	sum := 0.0
	for _, v := range m {
		sum += real(v)*real(v) + imag(v)*imag(v)
	}
	return math.Sqrt(sum)
}

// Occupancy returns |α_i|², the mean occupancy of mode i.
func (m Modes) Occupancy(i int) float64 {
	v := m[i]
	return real(v)*real(v) + imag(v)*imag(v)
}

// System describes the nonlinear classical dynamics of a set of modes.
// All physical parameters are fixed at construction; ModeRates must be a
// pure function of its arguments.
type System interface {
	Name() string
	NumModes() int
	InitialModes() Modes
	ModeRates(modes Modes, t float64) Modes
}

// Linearized extends System with the linearized quantum fluctuation
// model: a drift matrix A (the Jacobian of the quadrature dynamics,
// re-evaluated along the classical trajectory) and a noise matrix D.
// Both functions fill a caller-owned 2n×2n destination so consecutive
// calls never alias.
type Linearized interface {
	System
	InitialCorrs() *mat.Dense
	DriftMatrix(modes Modes, t float64, dst *mat.Dense)
	NoiseMatrix(modes Modes, corrs *mat.Dense, t float64, dst *mat.Dense)
}

// OccupancyModel is implemented by single-cavity systems whose steady
// states reduce to a real polynomial in the mean optical occupancy.
type OccupancyModel interface {
	System

	// OccupancyCoeffs returns polynomial coefficients in descending
	// degree order: coeffs[0]·N^d + ... + coeffs[d] = 0.
	OccupancyCoeffs() []float64

	// SteadyModes maps an admissible occupancy root back to the
	// closed-form steady-state mode amplitudes.
	SteadyModes(occupancy float64) Modes
}

// Configurable allows runtime parameter adjustment, used by the sweep
// and CLI layers to rebuild systems point by point.
type Configurable interface {
	Params() map[string]float64
	SetParam(name string, value float64) error
}

// CorrsDim returns the quadrature dimension for n modes.
func CorrsDim(n int) int { return 2 * n }

// Symmetrize overwrites c with (c + cᵀ)/2. The covariance ODE preserves
// symmetry exactly; this removes the round-off drift that accumulates
// over long integrations.
func Symmetrize(c *mat.Dense) {
	r, _ := c.Dims()
	for i := 0; i < r; i++ {
		for j := i + 1; j < r; j++ {
			v := 0.5 * (c.At(i, j) + c.At(j, i))
			c.Set(i, j, v)
			c.Set(j, i, v)
		}
	}
}

// Asymmetry returns max |c_ij - c_ji|.
func Asymmetry(c *mat.Dense) float64 {
	r, _ := c.Dims()
	worst := 0.0
	for i := 0; i < r; i++ {
		for j := i + 1; j < r; j++ {
			if d := math.Abs(c.At(i, j) - c.At(j, i)); d > worst {
				worst = d
			}
		}
	}
	return worst
}

// MinEigenvalue returns the smallest eigenvalue of the symmetric part
// of c. Physically valid covariance matrices keep it ≥ 0 up to
// numerical tolerance.
func MinEigenvalue(c *mat.Dense) float64 {
	r, _ := c.Dims()
	sym := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			sym.SetSym(i, j, 0.5*(c.At(i, j)+c.At(j, i)))
		}
	}
	var eig mat.EigenSym
	if !eig.Factorize(sym, false) {
		return math.NaN()
	}
	vals := eig.Values(nil)
	min := vals[0]
	for _, v := range vals[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

// MatIsValid reports whether every entry of c is finite.
func MatIsValid(c *mat.Dense) bool {
	r, cols := c.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < cols; j++ {
			v := c.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}
