package physics

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"github.com/rai-v/cvdyn/internal/quantum"
)

// Cavity models a driven optical cavity with a single mechanical
// mirror in units of the mechanical frequency. The classical dynamics
//
//	dα/dt = (iΔ − κ/2)α − 2iα·Re(β) − i/2
//	dβ/dt = (−i − Γ/2)β − i(P/2)·|α|²
//
// are bistable for strong enough pump P: the steady-state occupancy
// N = |α|² obeys a cubic with up to two admissible branches.
type Cavity struct {
	// Delta is the normalized laser detuning Δ/ω_m.
	Delta float64
	// Gamma is the normalized mechanical damping Γ/ω_m.
	Gamma float64
	// Kappa is the normalized optical decay κ/ω_m.
	Kappa float64
	// P is the pump parameter.
	P float64
}

// NewCavity returns the model at its reference parameter point.
func NewCavity() *Cavity {
	return &Cavity{Delta: 0.0, Gamma: 1e-3, Kappa: 1.0, P: 1.4}
}

func (c *Cavity) Name() string  { return "cavity" }
func (c *Cavity) NumModes() int { return 2 }

func (c *Cavity) InitialModes() quantum.Modes {
	return make(quantum.Modes, 2)
}

func (c *Cavity) InitialCorrs() *mat.Dense {
	corrs := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		corrs.Set(i, i, 0.5)
	}
	return corrs
}

func (c *Cavity) ModeRates(modes quantum.Modes, t float64) quantum.Modes {
	alpha, beta := modes[0], modes[1]
	dAlpha := (complex(-c.Kappa/2.0, c.Delta))*alpha -
		2i*alpha*complex(real(beta), 0) - 0.5i
	dBeta := complex(-c.Gamma/2.0, -1.0)*beta -
		complex(0, c.P/2.0)*cmplx.Conj(alpha)*alpha
	return quantum.Modes{dAlpha, dBeta}
}

func (c *Cavity) DriftMatrix(modes quantum.Modes, t float64, dst *mat.Dense) {
	alpha, beta := modes[0], modes[1]
	dst.Zero()
	// optical quadratures
	dst.Set(0, 0, -c.Kappa/2.0)
	dst.Set(0, 1, -c.Delta+2.0*real(beta))
	dst.Set(0, 2, 2.0*imag(alpha))
	dst.Set(1, 0, c.Delta-2.0*real(beta))
	dst.Set(1, 1, -c.Kappa/2.0)
	dst.Set(1, 2, -2.0*real(alpha))
	// mechanical quadratures
	dst.Set(2, 2, -c.Gamma/2.0)
	dst.Set(2, 3, 1.0)
	dst.Set(3, 0, -c.P*real(alpha))
	dst.Set(3, 1, -c.P*imag(alpha))
	dst.Set(3, 2, -1.0)
	dst.Set(3, 3, -c.Gamma/2.0)
}

func (c *Cavity) NoiseMatrix(modes quantum.Modes, corrs *mat.Dense, t float64, dst *mat.Dense) {
	dst.Zero()
	dst.Set(0, 0, c.Kappa)
	dst.Set(1, 1, c.Kappa)
	dst.Set(2, 2, c.Gamma)
	dst.Set(3, 3, c.Gamma)
}

// OccupancyCoeffs builds the cubic 4C²N³ + 8CΔN² + (4Δ²+κ²)N − 1 with
// C = 4P/(Γ²+4), the radiation-pressure shift per photon.
func (c *Cavity) OccupancyCoeffs() []float64 {
	shift := 4.0 * c.P / (c.Gamma*c.Gamma + 4.0)
	return []float64{
		4.0 * shift * shift,
		8.0 * shift * c.Delta,
		4.0*c.Delta*c.Delta + c.Kappa*c.Kappa,
		-1.0,
	}
}

// SteadyModes reconstructs the steady-state amplitudes from an
// occupancy root: the mirror displacement shifts the effective
// detuning, which in turn fixes the optical phase.
func (c *Cavity) SteadyModes(occupancy float64) quantum.Modes {
	beta := complex(0, -c.P*occupancy/2.0) / complex(c.Gamma/2.0, 1.0)
	deltaEff := c.Delta - 2.0*real(beta)
	alpha := complex(0, -0.5) / complex(c.Kappa/2.0, -deltaEff)
	return quantum.Modes{alpha, beta}
}

func (c *Cavity) Params() map[string]float64 {
	return map[string]float64{
		"Delta": c.Delta, "Gamma": c.Gamma, "kappa": c.Kappa, "P": c.P,
	}
}

func (c *Cavity) SetParam(name string, v float64) error {
	switch name {
	case "Delta":
		c.Delta = v
	case "Gamma":
		c.Gamma = v
	case "kappa":
		c.Kappa = v
	case "P":
		c.P = v
	default:
		return fmt.Errorf("cavity: unknown parameter %q", name)
	}
	return nil
}
