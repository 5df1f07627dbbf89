// Package steady finds the physically admissible fixed points of a
// single-cavity classical mode equation through its occupancy
// polynomial: real non-negative roots in N = |α|² are mapped back to
// complex steady-state amplitudes by the model.
package steady

import (
	"fmt"
	"sort"

	"github.com/rai-v/cvdyn/internal/quantum"
)

// Class labels the steady-state structure of a parameter point.
type Class int

const (
	// NoSteadyState means every polynomial root was complex or negative.
	NoSteadyState Class = iota
	// Monostable means exactly one admissible occupancy.
	Monostable
	// Bistable means two or more coexisting occupancies.
	Bistable
)

func (c Class) String() string {
	switch c {
	case Monostable:
		return "monostable"
	case Bistable:
		return "bistable"
	default:
		return "none"
	}
}

// Solution holds the admissible steady states of one parameter point,
// sorted by ascending occupancy for reproducibility.
type Solution struct {
	Occupancies []float64
	Modes       []quantum.Modes
}

func (s *Solution) Class() Class {
	switch len(s.Occupancies) {
	case 0:
		return NoSteadyState
	case 1:
		return Monostable
	default:
		return Bistable
	}
}

// Options tunes root admission. DefaultOptions matches the tolerances
// the polynomials in these models need near bistability boundaries.
type Options struct {
	// ImagTol admits a root as real when |Im| ≤ ImagTol·max(1, |root|).
	ImagTol float64
	// DedupeTol merges near-degenerate roots (multiplicity > 1 at a
	// bistability boundary) before counting.
	DedupeTol float64
}

func DefaultOptions() Options {
	return Options{ImagTol: 1e-9, DedupeTol: 1e-9}
}

// Resolve computes all admissible steady states of m. An empty solution
// (Class NoSteadyState) is a valid outcome, not an error; errors are
// reserved for malformed polynomials.
func Resolve(m quantum.OccupancyModel, opts Options) (*Solution, error) {
	coeffs := m.OccupancyCoeffs()
	if len(coeffs) < 2 {
		return nil, fmt.Errorf("%w: occupancy polynomial needs degree >= 1, got %d coefficients",
			quantum.ErrConfig, len(coeffs))
	}

	roots, err := polyRoots(coeffs)
	if err != nil {
		return nil, err
	}

	occ := make([]float64, 0, len(roots))
	for _, r := range roots {
		scale := 1.0
		if abs := absc(r); abs > scale {
			scale = abs
		}
		if absf(imag(r)) > opts.ImagTol*scale {
			continue
		}
		n := real(r)
		if n < -opts.ImagTol {
			continue
		}
		if n < 0 {
			n = 0
		}
		occ = append(occ, n)
	}
	sort.Float64s(occ)
	occ = dedupe(occ, opts.DedupeTol)

	sol := &Solution{
		Occupancies: occ,
		Modes:       make([]quantum.Modes, len(occ)),
	}
	for i, n := range occ {
		sol.Modes[i] = m.SteadyModes(n)
	}
	return sol, nil
}

func dedupe(sorted []float64, tol float64) []float64 {
	if len(sorted) < 2 {
		return sorted
	}
	out := sorted[:1]
	for _, v := range sorted[1:] {
		prev := out[len(out)-1]
		scale := 1.0
		if prev > scale {
			scale = prev
		}
		if v-prev > tol*scale {
			out = append(out, v)
		}
	}
	return out
}
