// Package measures extracts scalar quantities from covariance matrices
// and trajectories: occupancies, entanglement between mode pairs, and
// the synchronization measures used for coupled mechanical oscillators.
// Everything here is a pure read-only consumer of solver output.
package measures

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"github.com/rai-v/cvdyn/internal/quantum"
	"github.com/rai-v/cvdyn/internal/solver"
)

// MeanOccupancy returns the fluctuation occupancy of mode i,
// (⟨δq²⟩ + ⟨δp²⟩ − 1)/2. A nil corrs yields NaN; mode-only systems
// carry no covariances.
func MeanOccupancy(corrs *mat.Dense, i int) float64 {
	if corrs == nil {
		return math.NaN()
	}
	return (corrs.At(2*i, 2*i) + corrs.At(2*i+1, 2*i+1) - 1.0) / 2.0
}

// LogNegativity returns the logarithmic negativity between modes i and
// j, computed from the smaller symplectic eigenvalue of the partially
// transposed two-mode covariance submatrix. Zero means separable.
func LogNegativity(corrs *mat.Dense, i, j int) float64 {
	if corrs == nil {
		return math.NaN()
	}
	var a, b, c mat.Dense
	a.CloneFrom(corrs.Slice(2*i, 2*i+2, 2*i, 2*i+2))
	b.CloneFrom(corrs.Slice(2*j, 2*j+2, 2*j, 2*j+2))
	c.CloneFrom(corrs.Slice(2*i, 2*i+2, 2*j, 2*j+2))

	detA := mat.Det(&a)
	detB := mat.Det(&b)
	detC := mat.Det(&c)

	full := mat.NewDense(4, 4, nil)
	full.Slice(0, 2, 0, 2).(*mat.Dense).Copy(&a)
	full.Slice(0, 2, 2, 4).(*mat.Dense).Copy(&c)
	full.Slice(2, 4, 0, 2).(*mat.Dense).Copy(c.T())
	full.Slice(2, 4, 2, 4).(*mat.Dense).Copy(&b)
	detV := mat.Det(full)

	// Partial transposition flips the sign of det C.
	sigma := detA + detB - 2.0*detC
	disc := sigma*sigma - 4.0*detV
	if disc < 0 {
		disc = 0
	}
	nuSq := (sigma - math.Sqrt(disc)) / 2.0
	if nuSq <= 0 {
		return 0
	}
	en := -math.Log(2.0 * math.Sqrt(nuSq))
	if en < 0 {
		return 0
	}
	return en
}

// SyncComplete returns the complete synchronization of the mechanical
// modes i and j, S_c = 1/(2⟨δq_-² + δp_-²⟩) with q_- = (q_i − q_j)/√2.
// The quantum limit is S_c ≤ 1.
func SyncComplete(corrs *mat.Dense, i, j int) float64 {
	if corrs == nil {
		return math.NaN()
	}
	qq := 0.5 * (corrs.At(2*i, 2*i) + corrs.At(2*j, 2*j) - 2.0*corrs.At(2*i, 2*j))
	pp := 0.5 * (corrs.At(2*i+1, 2*i+1) + corrs.At(2*j+1, 2*j+1) - 2.0*corrs.At(2*i+1, 2*j+1))
	denom := qq + pp
	if denom <= 0 {
		return 0
	}
	return 0.5 / denom
}

// SyncPhase returns the phase synchronization of mechanical modes i and
// j: the error quadrature p'_- is measured perpendicular to each mode's
// mean-field phase, so the classical amplitudes set the rotation.
func SyncPhase(modes quantum.Modes, corrs *mat.Dense, i, j int) float64 {
	if corrs == nil {
		return math.NaN()
	}
	phiI := cmplx.Phase(modes[i])
	phiJ := cmplx.Phase(modes[j])

	// ⟨δp'_a δp'_b⟩ with p' = −q·sinφ + p·cosφ.
	pp := func(a int, phiA float64, b int, phiB float64) float64 {
		sa, ca := math.Sin(phiA), math.Cos(phiA)
		sb, cb := math.Sin(phiB), math.Cos(phiB)
		return sa*sb*corrs.At(2*a, 2*b) -
			sa*cb*corrs.At(2*a, 2*b+1) -
			ca*sb*corrs.At(2*a+1, 2*b) +
			ca*cb*corrs.At(2*a+1, 2*b+1)
	}

	denom := 0.5 * (pp(i, phiI, i, phiI) + pp(j, phiJ, j, phiJ) - 2.0*pp(i, phiI, j, phiJ))
	if denom <= 0 {
		return 0
	}
	return 0.5 / denom
}

// Average maps fn over every snapshot of a trajectory and returns the
// mean, the "mav" reduction the sweep scripts apply to a tail window.
func Average(traj *solver.Trajectory, fn func(modes quantum.Modes, corrs *mat.Dense) float64) float64 {
	if traj.Len() == 0 {
		return math.NaN()
	}
	sum := 0.0
	for s := 0; s < traj.Len(); s++ {
		var c *mat.Dense
		if traj.Corrs != nil {
			c = traj.Corrs[s]
		}
		sum += fn(traj.Modes[s], c)
	}
	return sum / float64(traj.Len())
}
