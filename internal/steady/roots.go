package steady

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"github.com/rai-v/cvdyn/internal/quantum"
)

// polyRoots returns all complex roots of the polynomial with
// coefficients in descending degree order, via the eigenvalues of its
// companion matrix. Leading coefficients that are numerically zero are
// stripped so near-degenerate models do not poison the eigensolver.
func polyRoots(coeffs []float64) ([]complex128, error) {
	maxAbs := 0.0
	for _, c := range coeffs {
		if a := math.Abs(c); a > maxAbs {
			maxAbs = a
		}
	}
	if maxAbs == 0 {
		return nil, fmt.Errorf("%w: all polynomial coefficients are zero", quantum.ErrConfig)
	}

	lead := 0
	for lead < len(coeffs)-1 && math.Abs(coeffs[lead]) < 1e-14*maxAbs {
		lead++
	}
	coeffs = coeffs[lead:]
	deg := len(coeffs) - 1
	if deg == 0 {
		return nil, nil
	}
	if deg == 1 {
		return []complex128{complex(-coeffs[1]/coeffs[0], 0)}, nil
	}

	// Monic companion matrix: subdiagonal ones, last column holds the
	// negated normalized coefficients.
	comp := mat.NewDense(deg, deg, nil)
	for i := 1; i < deg; i++ {
		comp.Set(i, i-1, 1)
	}
	inv := 1.0 / coeffs[0]
	for i := 0; i < deg; i++ {
		comp.Set(i, deg-1, -coeffs[deg-i]*inv)
	}

	var eig mat.Eigen
	if !eig.Factorize(comp, mat.EigenNone) {
		return nil, fmt.Errorf("%w: companion eigendecomposition failed", quantum.ErrConfig)
	}
	return eig.Values(nil), nil
}

func absc(v complex128) float64 { return cmplx.Abs(v) }
func absf(v float64) float64    { return math.Abs(v) }
