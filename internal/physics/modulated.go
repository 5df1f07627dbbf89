package physics

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"github.com/rai-v/cvdyn/internal/quantum"
)

// Physical constants (SI).
const (
	hbar   = 1.054571817e-34
	kB     = 1.380649e-23
	cLight = 2.99792458e8
)

// Modulated models a cavity-mirror system driven by mildly
// amplitude-modulated light: a base drive E0 plus sidebands E1 at twice
// the mechanical frequency. Time is measured in units of the modulation
// period 2π/Ω.
type Modulated struct {
	// User-facing physical parameters.
	Finesse    float64 // cavity finesse
	Length     float64 // cavity length, m
	Wavelength float64 // laser wavelength, m
	Mass       float64 // mirror mass, kg
	OmegaM     float64 // mechanical frequency, rad/s
	P0, P1     float64 // base and sideband input powers, W
	Q          float64 // mechanical quality factor
	Temp       float64 // bath temperature, K

	// Derived once; immutable during a run.
	delta0, e0, e1 float64
	g0, gammaM     float64
	kappa          float64
	bigOmega       float64
	tau, nTh       float64
}

// NewModulated returns the system at the reference parameter point of
// the modulated-entanglement study.
func NewModulated() *Modulated {
	m := &Modulated{
		Finesse:    1.4e4,
		Length:     25e-3,
		Wavelength: 1064e-9,
		Mass:       150e-12,
		OmegaM:     2.0 * math.Pi * 1e6,
		P0:         10e-3,
		P1:         2e-3,
		Q:          1e6,
		Temp:       0.1,
	}
	m.derive()
	return m
}

// derive reduces the physical parameters to the constants vector.
func (m *Modulated) derive() {
	m.delta0 = m.OmegaM
	m.gammaM = m.OmegaM / m.Q
	m.kappa = math.Pi * cLight / (2.0 * m.Finesse * m.Length)
	omegaL := 2.0 * math.Pi * cLight / m.Wavelength
	omegaC := m.delta0 + omegaL
	m.g0 = math.Sqrt(hbar/(m.Mass*m.OmegaM)) * omegaC / m.Length
	m.bigOmega = 2.0 * m.OmegaM
	m.tau = 2.0 * math.Pi / m.bigOmega

	if m.Temp > 0 {
		m.nTh = 1.0 / (math.Exp(hbar*m.OmegaM/(kB*m.Temp)) - 1.0)
	} else {
		m.nTh = 0.0
	}

	m.e0 = math.Sqrt(2.0 * m.kappa * m.P0 / (hbar * omegaL))
	m.e1 = math.Sqrt(2.0 * m.kappa * m.P1 / (hbar * omegaL))
}

func (m *Modulated) Name() string  { return "modulated" }
func (m *Modulated) NumModes() int { return 2 }

func (m *Modulated) InitialModes() quantum.Modes {
	return make(quantum.Modes, 2)
}

func (m *Modulated) InitialCorrs() *mat.Dense {
	corrs := mat.NewDense(4, 4, nil)
	corrs.Set(0, 0, 0.5)
	corrs.Set(1, 1, 0.5)
	corrs.Set(2, 2, m.nTh+0.5)
	corrs.Set(3, 3, m.nTh+0.5)
	return corrs
}

func (m *Modulated) ModeRates(modes quantum.Modes, t float64) quantum.Modes {
	alpha, beta := modes[0], modes[1]
	delta := m.delta0 - math.Sqrt2*m.g0*real(beta)
	g := complex(math.Sqrt2*m.g0, 0) * alpha

	phase := m.bigOmega * t * m.tau
	drive := complex(m.e0, 0) +
		complex(m.e1, 0)*(cmplx.Exp(complex(0, -phase))+cmplx.Exp(complex(0, phase)))

	dAlpha := -complex(m.kappa, delta)*alpha + drive
	dBeta := 0.5i*g*cmplx.Conj(alpha) - complex(m.gammaM, m.OmegaM)*beta

	tc := complex(m.tau, 0)
	return quantum.Modes{dAlpha * tc, dBeta * tc}
}

func (m *Modulated) DriftMatrix(modes quantum.Modes, t float64, dst *mat.Dense) {
	alpha, beta := modes[0], modes[1]
	delta := m.delta0 - math.Sqrt2*m.g0*real(beta)
	g := complex(math.Sqrt2*m.g0, 0) * alpha

	dst.Zero()
	dst.Set(0, 0, -m.kappa)
	dst.Set(0, 1, delta)
	dst.Set(0, 2, -imag(g))
	dst.Set(1, 0, -delta)
	dst.Set(1, 1, -m.kappa)
	dst.Set(1, 2, real(g))
	dst.Set(2, 3, m.OmegaM)
	dst.Set(3, 0, real(g))
	dst.Set(3, 1, imag(g))
	dst.Set(3, 2, -m.OmegaM)
	dst.Set(3, 3, -m.gammaM)
	dst.Scale(m.tau, dst)
}

func (m *Modulated) NoiseMatrix(modes quantum.Modes, corrs *mat.Dense, t float64, dst *mat.Dense) {
	dst.Zero()
	dst.Set(0, 0, m.kappa*m.tau)
	dst.Set(1, 1, m.kappa*m.tau)
	dst.Set(3, 3, m.gammaM*(2.0*m.nTh+1.0)*m.tau)
}

func (m *Modulated) Params() map[string]float64 {
	return map[string]float64{
		"F": m.Finesse, "L": m.Length, "lambda_l": m.Wavelength,
		"m": m.Mass, "omega_m": m.OmegaM, "P_0": m.P0, "P_1": m.P1,
		"Q": m.Q, "T": m.Temp,
	}
}

func (m *Modulated) SetParam(name string, v float64) error {
	switch name {
	case "F":
		m.Finesse = v
	case "L":
		m.Length = v
	case "lambda_l":
		m.Wavelength = v
	case "m":
		m.Mass = v
	case "omega_m":
		m.OmegaM = v
	case "P_0":
		m.P0 = v
	case "P_1":
		m.P1 = v
	case "Q":
		m.Q = v
	case "T":
		m.Temp = v
	default:
		return fmt.Errorf("modulated: unknown parameter %q", name)
	}
	m.derive()
	return nil
}
