package physics

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"github.com/rai-v/cvdyn/internal/quantum"
)

// Coupled models two driven optomechanical oscillators whose mechanical
// modes exchange phonons at rate μ. Mode order is (α₁, β₁, α₂, β₂) and
// frequencies are normalized to the first mechanical frequency, with
// time in units of its period 2π.
//
// The coupling sweep of this system is the standard synchronization
// benchmark: complete and phase synchronization of the mirrors grow
// continuously with μ.
type Coupled struct {
	// ENorm is the drive amplitude in units of κ·ω₁.
	ENorm float64
	// GNorm is the single-photon coupling g/ω₁.
	GNorm float64
	// GammaNorm is the mechanical damping γ/ω₁.
	GammaNorm float64
	// KappaNorm is the optical decay κ/ω₁.
	KappaNorm float64
	// MuNorm is the mechanical coupling μ/ω₁.
	MuNorm float64
	// NBath is the thermal occupation of both mechanical baths.
	NBath float64
	// Omega2Norm is the second mechanical frequency ω₂/ω₁.
	Omega2Norm float64
}

func NewCoupled() *Coupled {
	return &Coupled{
		ENorm:      320.0,
		GNorm:      0.005,
		GammaNorm:  0.005,
		KappaNorm:  0.15,
		MuNorm:     0.02,
		NBath:      0.0,
		Omega2Norm: 1.005,
	}
}

func (c *Coupled) Name() string  { return "coupled" }
func (c *Coupled) NumModes() int { return 4 }

func (c *Coupled) InitialModes() quantum.Modes {
	return make(quantum.Modes, 4)
}

func (c *Coupled) InitialCorrs() *mat.Dense {
	corrs := mat.NewDense(8, 8, nil)
	for i := 0; i < 2; i++ {
		corrs.Set(4*i+0, 4*i+0, 0.5)
		corrs.Set(4*i+1, 4*i+1, 0.5)
		corrs.Set(4*i+2, 4*i+2, c.NBath+0.5)
		corrs.Set(4*i+3, 4*i+3, c.NBath+0.5)
	}
	return corrs
}

func (c *Coupled) ModeRates(modes quantum.Modes, t float64) quantum.Modes {
	e := c.ENorm * c.KappaNorm
	tau := 2.0 * math.Pi

	alphas := [2]complex128{modes[0], modes[2]}
	betas := [2]complex128{modes[1], modes[3]}
	omegas := [2]float64{1.0, c.Omega2Norm}

	rates := make(quantum.Modes, 4)
	for i := 0; i < 2; i++ {
		delta := omegas[i] + 2.0*c.GNorm*real(betas[i])
		g := complex(c.GNorm, 0) * alphas[i]

		dAlpha := complex(-c.KappaNorm, delta)*alphas[i] + complex(e, 0)
		dBeta := 1i*g*cmplx.Conj(alphas[i]) +
			complex(-c.GammaNorm, -omegas[i])*betas[i] +
			complex(0, c.MuNorm)*betas[1-i]

		rates[2*i] = dAlpha * complex(tau, 0)
		rates[2*i+1] = dBeta * complex(tau, 0)
	}
	return rates
}

func (c *Coupled) DriftMatrix(modes quantum.Modes, t float64, dst *mat.Dense) {
	tau := 2.0 * math.Pi
	alphas := [2]complex128{modes[0], modes[2]}
	betas := [2]complex128{modes[1], modes[3]}
	omegas := [2]float64{1.0, c.Omega2Norm}

	dst.Zero()
	for i := 0; i < 2; i++ {
		delta := omegas[i] + 2.0*c.GNorm*real(betas[i])
		g := complex(c.GNorm, 0) * alphas[i]

		// optical quadratures
		dst.Set(4*i+0, 4*i+0, -c.KappaNorm)
		dst.Set(4*i+0, 4*i+1, -delta)
		dst.Set(4*i+0, 4*i+2, -2.0*imag(g))
		dst.Set(4*i+1, 4*i+0, delta)
		dst.Set(4*i+1, 4*i+1, -c.KappaNorm)
		dst.Set(4*i+1, 4*i+2, 2.0*real(g))
		// mechanical position quadrature
		dst.Set(4*i+2, 4*i+2, -c.GammaNorm)
		dst.Set(4*i+2, 4*i+3, omegas[i])
		dst.Set(4*i+2, 4*(1-i)+3, -c.MuNorm)
		// mechanical momentum quadrature
		dst.Set(4*i+3, 4*i+0, 2.0*real(g))
		dst.Set(4*i+3, 4*i+1, 2.0*imag(g))
		dst.Set(4*i+3, 4*i+2, -omegas[i])
		dst.Set(4*i+3, 4*i+3, -c.GammaNorm)
		dst.Set(4*i+3, 4*(1-i)+2, c.MuNorm)
	}
	dst.Scale(tau, dst)
}

func (c *Coupled) NoiseMatrix(modes quantum.Modes, corrs *mat.Dense, t float64, dst *mat.Dense) {
	tau := 2.0 * math.Pi
	dst.Zero()
	for i := 0; i < 2; i++ {
		dst.Set(4*i+0, 4*i+0, c.KappaNorm*tau)
		dst.Set(4*i+1, 4*i+1, c.KappaNorm*tau)
		dst.Set(4*i+2, 4*i+2, c.GammaNorm*(2.0*c.NBath+1.0)*tau)
		dst.Set(4*i+3, 4*i+3, c.GammaNorm*(2.0*c.NBath+1.0)*tau)
	}
}

func (c *Coupled) Params() map[string]float64 {
	return map[string]float64{
		"E_norm": c.ENorm, "g_norm": c.GNorm, "gamma_norm": c.GammaNorm,
		"kappa_norm": c.KappaNorm, "mu": c.MuNorm, "n_b": c.NBath,
		"omega_2_norm": c.Omega2Norm,
	}
}

func (c *Coupled) SetParam(name string, v float64) error {
	switch name {
	case "E_norm":
		c.ENorm = v
	case "g_norm":
		c.GNorm = v
	case "gamma_norm":
		c.GammaNorm = v
	case "kappa_norm":
		c.KappaNorm = v
	case "mu":
		c.MuNorm = v
	case "n_b":
		c.NBath = v
	case "omega_2_norm":
		c.Omega2Norm = v
	default:
		return fmt.Errorf("coupled: unknown parameter %q", name)
	}
	return nil
}
