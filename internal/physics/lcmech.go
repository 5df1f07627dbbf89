package physics

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/rai-v/cvdyn/internal/quantum"
)

// LCMech models an optical cavity coupled to a mechanical mirror that
// is itself coupled to an LC circuit. The linearized dynamics are
// already expressed around the classical working point, so the drift
// matrix is constant and the classical rates are the linear quadrature
// map itself.
type LCMech struct {
	// DeltaNorm is the cavity-laser detuning Δ/ω_m.
	DeltaNorm float64
	// GNorm is the effective optomechanical coupling G/(κ·ω_m).
	GNorm float64
	// SmallGNorm is the effective electromechanical coupling g/(κ·ω_m).
	SmallGNorm float64
	// GammaLCNorm is the LC damping γ_LC/ω_LC.
	GammaLCNorm float64
	// GammaMNorm is the mechanical damping γ_m/ω_m.
	GammaMNorm float64
	// KappaNorm is the optical decay κ/ω_m.
	KappaNorm float64
	// OmegaLCNorm is the LC frequency ω_LC/ω_m.
	OmegaLCNorm float64
	// OmegaM is the mechanical frequency in rad/s.
	OmegaM float64
	// TLC and TM are the circuit and mirror bath temperatures in K.
	TLC, TM float64
}

func NewLCMech() *LCMech {
	return &LCMech{
		DeltaNorm:   1.0,
		GNorm:       3.0,
		SmallGNorm:  3.0,
		GammaLCNorm: 1e-5,
		GammaMNorm:  1e-6,
		KappaNorm:   0.1,
		OmegaLCNorm: 1.0,
		OmegaM:      2.0 * 3.141592653589793 * 1e6,
		TLC:         1e-2,
		TM:          1e-2,
	}
}

func (l *LCMech) Name() string  { return "lcmech" }
func (l *LCMech) NumModes() int { return 3 }

// Derived rates in absolute units.
func (l *LCMech) rates() (delta, gEff, gSmall, gammaLC, gammaM, kappa, omegaLC float64) {
	delta = l.DeltaNorm * l.OmegaM
	gEff = l.GNorm * l.KappaNorm * l.OmegaM
	gSmall = l.SmallGNorm * l.KappaNorm * l.OmegaM
	omegaLC = l.OmegaLCNorm * l.OmegaM
	gammaLC = l.GammaLCNorm * omegaLC
	gammaM = l.GammaMNorm * l.OmegaM
	kappa = l.KappaNorm * l.OmegaM
	return
}

// Bath occupations in the high-temperature limit k_B·T ≫ ħγ.
func (l *LCMech) occupations() (nM, nLC float64) {
	omegaLC := l.OmegaLCNorm * l.OmegaM
	nM = kB * l.TM / (hbar * l.OmegaM)
	nLC = kB * l.TLC / (hbar * omegaLC)
	return
}

func (l *LCMech) InitialModes() quantum.Modes {
	return make(quantum.Modes, 3)
}

func (l *LCMech) InitialCorrs() *mat.Dense {
	nM, nLC := l.occupations()
	corrs := mat.NewDense(6, 6, nil)
	corrs.Set(0, 0, 0.5)
	corrs.Set(1, 1, 0.5)
	corrs.Set(2, 2, nM+0.5)
	corrs.Set(3, 3, nM+0.5)
	corrs.Set(4, 4, nLC+0.5)
	corrs.Set(5, 5, nLC+0.5)
	return corrs
}

// ModeRates applies the constant quadrature map to the classical
// amplitudes; the fluctuation dynamics and the mean-field dynamics
// coincide for a fully linearized model.
func (l *LCMech) ModeRates(modes quantum.Modes, t float64) quantum.Modes {
	var a mat.Dense
	a.ReuseAs(6, 6)
	l.DriftMatrix(modes, t, &a)

	q := make([]float64, 6)
	for i, m := range modes {
		q[2*i] = real(m)
		q[2*i+1] = imag(m)
	}
	rates := make(quantum.Modes, 3)
	for i := 0; i < 3; i++ {
		var re, im float64
		for j := 0; j < 6; j++ {
			re += a.At(2*i, j) * q[j]
			im += a.At(2*i+1, j) * q[j]
		}
		rates[i] = complex(re, im)
	}
	return rates
}

func (l *LCMech) DriftMatrix(modes quantum.Modes, t float64, dst *mat.Dense) {
	delta, gEff, gSmall, gammaLC, gammaM, kappa, omegaLC := l.rates()

	dst.Zero()
	// optical quadratures
	dst.Set(0, 0, -kappa)
	dst.Set(0, 1, delta)
	dst.Set(1, 0, -delta)
	dst.Set(1, 1, -kappa)
	dst.Set(1, 2, gEff)
	// mechanical quadratures
	dst.Set(2, 3, l.OmegaM)
	dst.Set(3, 0, gEff)
	dst.Set(3, 2, -l.OmegaM)
	dst.Set(3, 3, -gammaM)
	dst.Set(3, 4, -gSmall)
	// LC quadratures
	dst.Set(4, 5, omegaLC)
	dst.Set(5, 2, -gSmall)
	dst.Set(5, 4, -omegaLC)
	dst.Set(5, 5, -gammaLC)
}

func (l *LCMech) NoiseMatrix(modes quantum.Modes, corrs *mat.Dense, t float64, dst *mat.Dense) {
	_, _, _, gammaLC, gammaM, kappa, _ := l.rates()
	nM, nLC := l.occupations()

	dst.Zero()
	dst.Set(0, 0, kappa)
	dst.Set(1, 1, kappa)
	dst.Set(3, 3, gammaM*(2.0*nM+1.0))
	dst.Set(5, 5, gammaLC*(2.0*nLC+1.0))
}

func (l *LCMech) Params() map[string]float64 {
	return map[string]float64{
		"Delta_norm": l.DeltaNorm, "G_norm": l.GNorm, "g_norm": l.SmallGNorm,
		"gamma_LC_norm": l.GammaLCNorm, "gamma_m_norm": l.GammaMNorm,
		"kappa_norm": l.KappaNorm, "omega_LC_norm": l.OmegaLCNorm,
		"omega_m": l.OmegaM, "T_LC": l.TLC, "T_m": l.TM,
	}
}

func (l *LCMech) SetParam(name string, v float64) error {
	switch name {
	case "Delta_norm":
		l.DeltaNorm = v
	case "G_norm":
		l.GNorm = v
	case "g_norm":
		l.SmallGNorm = v
	case "gamma_LC_norm":
		l.GammaLCNorm = v
	case "gamma_m_norm":
		l.GammaMNorm = v
	case "kappa_norm":
		l.KappaNorm = v
	case "omega_LC_norm":
		l.OmegaLCNorm = v
	case "omega_m":
		l.OmegaM = v
	case "T_LC":
		l.TLC = v
	case "T_m":
		l.TM = v
	default:
		return fmt.Errorf("lcmech: unknown parameter %q", name)
	}
	return nil
}
