package physics

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"

	"github.com/rai-v/cvdyn/internal/quantum"
)

// Lattice models an array of optomechanical cells supporting slowly
// moving solitons: optical amplitudes tunnel between nearest neighbors
// at rate J while each cell's mirror provides a local Kerr-like
// nonlinearity. Modes interleave as (α₀, β₀, α₁, β₁, ...) and the
// lattice never instantiates a covariance matrix, so only the classical
// block is integrated.
type Lattice struct {
	// Cells is the number of lattice sites.
	Cells int
	// GammaM is the mechanical damping rate.
	GammaM float64
	// G0 is the single-photon optomechanical coupling.
	G0 float64
	// GammaO is the optical loss rate.
	GammaO float64
	// J is the nearest-neighbor tunneling rate.
	J float64
	// Omega is the mechanical frequency.
	Omega float64
	// Width is the soliton width in sites.
	Width float64
	// Solitons is 1 or 2 launched solitons.
	Solitons int
	// DistNorm is the two-soliton separation in units of Width.
	DistNorm float64
	// Phi is the relative phase of the second soliton.
	Phi float64
	// Order is the soliton order.
	Order float64
}

func NewLattice() *Lattice {
	return &Lattice{
		Cells:    150,
		GammaM:   0.0,
		G0:       1e-4,
		GammaO:   0.0,
		J:        2.0,
		Omega:    1.0,
		Width:    10.0,
		Solitons: 1,
		DistNorm: 0.0,
		Phi:      0.0,
		Order:    1.0,
	}
}

func (l *Lattice) Name() string  { return "lattice" }
func (l *Lattice) NumModes() int { return 2 * l.Cells }

// InitialModes launches sech-profile solitons on the optical sublattice
// with the mirrors at rest.
func (l *Lattice) InitialModes() quantum.Modes {
	n := l.Cells
	profile := make([]float64, n)
	grid := make([]float64, n)
	floats.Span(grid, -(float64(n)-1.0)/2.0, (float64(n)-1.0)/2.0)

	amp := l.Order * math.Sqrt(l.Omega*l.J/2.0/(l.G0*l.G0)/(l.Width*l.Width))
	for i, x := range grid {
		profile[i] = amp / math.Cosh(x/l.Width)
	}

	modes := make(quantum.Modes, 2*n)
	if l.Solitons == 2 {
		offset := int(l.DistNorm * l.Width / 2.0)
		phase := cmplx.Exp(complex(0, l.Phi))
		for i := 0; i < n; i++ {
			modes[2*i] = complex(profile[mod(i+offset, n)], 0) +
				phase*complex(profile[mod(i-offset, n)], 0)
		}
	} else {
		for i := 0; i < n; i++ {
			modes[2*i] = complex(profile[i], 0)
		}
	}
	return modes
}

// ModeRates couples each optical site to its nearest neighbors (open
// boundary) and each mirror to its local intensity. Time is measured in
// units of x_w²/J, the soliton dispersion scale.
func (l *Lattice) ModeRates(modes quantum.Modes, t float64) quantum.Modes {
	n := l.Cells
	divisor := complex(l.J/(l.Width*l.Width), 0)
	hop := complex(0, l.J/2.0)

	rates := make(quantum.Modes, 2*n)
	for i := 0; i < n; i++ {
		alpha := modes[2*i]
		beta := modes[2*i+1]

		onsite := complex(-l.GammaO, 2.0*l.G0*real(beta)-l.J)
		d := onsite * alpha
		if i > 0 {
			d += hop * modes[2*(i-1)]
		}
		if i < n-1 {
			d += hop * modes[2*(i+1)]
		}
		rates[2*i] = d / divisor

		rates[2*i+1] = (complex(0, l.G0)*cmplx.Conj(alpha)*alpha -
			complex(l.GammaM, l.Omega)*beta) / divisor
	}
	return rates
}

func mod(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

func (l *Lattice) Params() map[string]float64 {
	return map[string]float64{
		"n": float64(l.Cells), "Gamma_m": l.GammaM, "g_0": l.G0,
		"gamma": l.GammaO, "J": l.J, "Omega": l.Omega, "x_0": l.Width,
		"n_solitons": float64(l.Solitons), "dist_norm": l.DistNorm,
		"phi": l.Phi, "order": l.Order,
	}
}

func (l *Lattice) SetParam(name string, v float64) error {
	switch name {
	case "n":
		l.Cells = int(v)
	case "Gamma_m":
		l.GammaM = v
	case "g_0":
		l.G0 = v
	case "gamma":
		l.GammaO = v
	case "J":
		l.J = v
	case "Omega":
		l.Omega = v
	case "x_0":
		l.Width = v
	case "n_solitons":
		l.Solitons = int(v)
	case "dist_norm":
		l.DistNorm = v
	case "phi":
		l.Phi = v
	case "order":
		l.Order = v
	default:
		return fmt.Errorf("lattice: unknown parameter %q", name)
	}
	return nil
}
