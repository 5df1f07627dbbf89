package solver

import (
	"gonum.org/v1/gonum/mat"

	"github.com/rai-v/cvdyn/internal/quantum"
)

// Trajectory is the time-ordered output of a run: one snapshot per grid
// point, inclusive of the initial point. Corrs is nil for mode-only
// systems. Consumers treat it as read-only.
type Trajectory struct {
	Times []float64
	Modes []quantum.Modes
	Corrs []*mat.Dense
}

// Len returns the number of snapshots.
func (tr *Trajectory) Len() int { return len(tr.Times) }

// FinalModes returns the mode vector at the last grid point.
func (tr *Trajectory) FinalModes() quantum.Modes {
	return tr.Modes[len(tr.Modes)-1]
}

// FinalCorrs returns the covariance matrix at the last grid point, or
// nil for mode-only runs.
func (tr *Trajectory) FinalCorrs() *mat.Dense {
	if tr.Corrs == nil {
		return nil
	}
	return tr.Corrs[len(tr.Corrs)-1]
}

// Window truncates to grid indices [lo, hi), sharing the underlying
// snapshots. Used to discard transients before averaging measures.
func (tr *Trajectory) Window(lo, hi int) *Trajectory {
	if lo < 0 {
		lo = 0
	}
	if hi > len(tr.Times) || hi <= 0 {
		hi = len(tr.Times)
	}
	if lo >= hi {
		lo = hi - 1
	}
	w := &Trajectory{
		Times: tr.Times[lo:hi],
		Modes: tr.Modes[lo:hi],
	}
	if tr.Corrs != nil {
		w.Corrs = tr.Corrs[lo:hi]
	}
	return w
}
