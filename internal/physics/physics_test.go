package physics

import (
	"context"
	"math"
	"math/cmplx"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/rai-v/cvdyn/internal/quantum"
	"github.com/rai-v/cvdyn/internal/solver"
	"github.com/rai-v/cvdyn/internal/steady"
)

func TestAllImplementLinearized(t *testing.T) {
	systems := []quantum.System{
		NewCavity(), NewModulated(), NewCoupled(), NewLCMech(),
	}
	for _, sys := range systems {
		if _, ok := sys.(quantum.Linearized); !ok {
			t.Errorf("%s should carry drift and noise matrices", sys.Name())
		}
		if _, ok := sys.(quantum.Configurable); !ok {
			t.Errorf("%s should accept parameter overrides", sys.Name())
		}
	}
}

func TestInitialModesLength(t *testing.T) {
	systems := []quantum.System{
		NewCavity(), NewModulated(), NewCoupled(), NewLCMech(), NewLattice(),
	}
	for _, sys := range systems {
		modes := sys.InitialModes()
		if len(modes) != sys.NumModes() {
			t.Errorf("%s: initial modes length %d, want %d",
				sys.Name(), len(modes), sys.NumModes())
		}
		if !modes.IsValid() {
			t.Errorf("%s: initial modes contain non-finite values", sys.Name())
		}
	}
}

func TestInitialCorrsVacuumLevel(t *testing.T) {
	systems := []quantum.Linearized{
		NewCavity(), NewModulated(), NewCoupled(), NewLCMech(),
	}
	for _, sys := range systems {
		c := sys.InitialCorrs()
		d := quantum.CorrsDim(sys.NumModes())
		r, cols := c.Dims()
		if r != d || cols != d {
			t.Errorf("%s: initial corrs %dx%d, want %dx%d", sys.Name(), r, cols, d, d)
			continue
		}
		for i := 0; i < d; i++ {
			if c.At(i, i) < 0.5-1e-12 {
				t.Errorf("%s: variance %d below the vacuum level: %g",
					sys.Name(), i, c.At(i, i))
			}
		}
		if quantum.Asymmetry(c) != 0 {
			t.Errorf("%s: initial corrs not symmetric", sys.Name())
		}
	}
}

func TestRatesAreIdempotent(t *testing.T) {
	systems := []quantum.Linearized{
		NewCavity(), NewModulated(), NewCoupled(), NewLCMech(),
	}
	for _, sys := range systems {
		modes := sys.InitialModes()
		for i := range modes {
			modes[i] = complex(0.1*float64(i+1), -0.05*float64(i+1))
		}
		d := quantum.CorrsDim(sys.NumModes())

		r1 := sys.ModeRates(modes, 0.7)
		r2 := sys.ModeRates(modes, 0.7)
		for i := range r1 {
			if r1[i] != r2[i] {
				t.Errorf("%s: mode rates not repeatable at index %d", sys.Name(), i)
			}
		}

		a1 := mat.NewDense(d, d, nil)
		a2 := mat.NewDense(d, d, nil)
		sys.DriftMatrix(modes, 0.7, a1)
		sys.DriftMatrix(modes, 0.7, a2)
		if !mat.Equal(a1, a2) {
			t.Errorf("%s: drift matrix not repeatable", sys.Name())
		}

		n1 := mat.NewDense(d, d, nil)
		sys.NoiseMatrix(modes, sys.InitialCorrs(), 0.7, n1)
		if quantum.Asymmetry(n1) != 0 {
			t.Errorf("%s: noise matrix not symmetric", sys.Name())
		}
	}
}

func TestCavitySteadySelfConsistent(t *testing.T) {
	c := NewCavity()
	c.Delta = -2.0
	c.Kappa = 0.2

	sol, err := steady.Resolve(c, steady.DefaultOptions())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(sol.Occupancies) == 0 {
		t.Fatal("expected at least one steady state")
	}
	for b, modes := range sol.Modes {
		rates := c.ModeRates(modes, 0)
		for i, r := range rates {
			if cmplx.Abs(r) > 1e-9 {
				t.Errorf("branch %d: rate %d not zero at fixed point: %v", b, i, r)
			}
		}
		n := sol.Occupancies[b]
		if math.Abs(modes.Occupancy(0)-n) > 1e-9*math.Max(1, n) {
			t.Errorf("branch %d: |α|² = %g disagrees with root %g",
				b, modes.Occupancy(0), n)
		}
	}
}

func TestCavityBistabilityWindow(t *testing.T) {
	c := NewCavity()
	c.Delta = -2.0
	c.Kappa = 0.2

	sol, err := steady.Resolve(c, steady.DefaultOptions())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if sol.Class() != steady.Bistable {
		t.Errorf("strong red detuning should be bistable, got %s with %v",
			sol.Class(), sol.Occupancies)
	}

	// At zero detuning the cubic has a single admissible branch.
	c2 := NewCavity()
	sol2, err := steady.Resolve(c2, steady.DefaultOptions())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if sol2.Class() != steady.Monostable {
		t.Errorf("reference point should be monostable, got %s with %v",
			sol2.Class(), sol2.Occupancies)
	}
}

func TestCavityTrajectoryReachesSteadyState(t *testing.T) {
	// A weak pump with a well-damped mirror keeps the fixed point
	// linearly stable; the reference pump P=1.4 self-oscillates instead.
	c := &Cavity{Delta: 0.0, Gamma: 0.5, Kappa: 1.0, P: 0.1}

	sol, err := steady.Resolve(c, steady.DefaultOptions())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if sol.Class() != steady.Monostable {
		t.Fatalf("expected a single branch, got %s", sol.Class())
	}

	traj, err := solver.Solve(context.Background(), c, solver.DefaultOptions())
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}

	final := traj.FinalModes()
	want := sol.Modes[0]
	for i := range want {
		relErr := cmplx.Abs(final[i]-want[i]) / cmplx.Abs(want[i])
		if relErr > 1e-4 {
			t.Errorf("mode %d off steady state by %g: got %v, want %v",
				i, relErr, final[i], want[i])
		}
	}
}

func TestCavityDriftIsModeJacobian(t *testing.T) {
	// The drift matrix doubles as the Jacobian of the quadrature-space
	// classical flow; check it against finite differences of ModeRates.
	c := NewCavity()
	modes := quantum.Modes{complex(0.3, -0.2), complex(-0.1, 0.4)}
	d := quantum.CorrsDim(c.NumModes())

	a := mat.NewDense(d, d, nil)
	c.DriftMatrix(modes, 0, a)

	const eps = 1e-7
	for j := 0; j < d; j++ {
		bumped := modes.Clone()
		if j%2 == 0 {
			bumped[j/2] += complex(eps, 0)
		} else {
			bumped[j/2] += complex(0, eps)
		}
		r0 := c.ModeRates(modes, 0)
		r1 := c.ModeRates(bumped, 0)
		for i := 0; i < d; i++ {
			var diff float64
			if i%2 == 0 {
				diff = (real(r1[i/2]) - real(r0[i/2])) / eps
			} else {
				diff = (imag(r1[i/2]) - imag(r0[i/2])) / eps
			}
			if math.Abs(diff-a.At(i, j)) > 1e-5 {
				t.Errorf("drift[%d][%d] = %g, finite difference %g", i, j, a.At(i, j), diff)
			}
		}
	}
}

func TestModulatedDriveIsPeriodic(t *testing.T) {
	m := NewModulated()
	modes := quantum.Modes{complex(1, 0.5), complex(0.2, -0.1)}

	r0 := m.ModeRates(modes, 0.25)
	r1 := m.ModeRates(modes, 0.25+1.0)
	for i := range r0 {
		if cmplx.Abs(r0[i]-r1[i]) > 1e-6*cmplx.Abs(r0[i]) {
			t.Errorf("mode %d: rates at one modulation period apart differ: %v vs %v",
				i, r0[i], r1[i])
		}
	}
}

func TestCoupledDetunedSecondOscillator(t *testing.T) {
	c := NewCoupled()
	if c.Omega2Norm == 1.0 {
		t.Error("second oscillator should be detuned by default")
	}

	// Zero coupling decouples the pairs: rates of oscillator 1 must not
	// react to oscillator 2 amplitudes.
	c.MuNorm = 0
	a := quantum.Modes{complex(0.5, 0.1), complex(0.2, 0), 0, 0}
	b := quantum.Modes{complex(0.5, 0.1), complex(0.2, 0), complex(3, -1), complex(-2, 0.7)}
	ra := c.ModeRates(a, 0)
	rb := c.ModeRates(b, 0)
	for i := 0; i < 2; i++ {
		if cmplx.Abs(ra[i]-rb[i]) > 1e-12 {
			t.Errorf("mode %d of oscillator 1 coupled at μ=0", i)
		}
	}
}

func TestLCMechRatesMatchDrift(t *testing.T) {
	// The model is linear: mode rates are exactly the drift matrix
	// applied to the quadrature vector.
	l := NewLCMech()
	modes := quantum.Modes{complex(0.4, -0.3), complex(-0.2, 0.1), complex(0.05, 0.6)}
	d := quantum.CorrsDim(l.NumModes())

	a := mat.NewDense(d, d, nil)
	l.DriftMatrix(modes, 0, a)

	q := make([]float64, d)
	for i := 0; i < l.NumModes(); i++ {
		q[2*i] = real(modes[i])
		q[2*i+1] = imag(modes[i])
	}
	rates := l.ModeRates(modes, 0)
	for i := 0; i < l.NumModes(); i++ {
		var dq, dp float64
		for j := 0; j < d; j++ {
			dq += a.At(2*i, j) * q[j]
			dp += a.At(2*i+1, j) * q[j]
		}
		got := rates[i]
		if math.Abs(real(got)-dq) > 1e-9*math.Max(1, math.Abs(dq)) ||
			math.Abs(imag(got)-dp) > 1e-9*math.Max(1, math.Abs(dp)) {
			t.Errorf("mode %d: rates %v, drift application (%g, %g)", i, got, dq, dp)
		}
	}
}

func TestLatticeSolitonProfile(t *testing.T) {
	l := NewLattice()
	modes := l.InitialModes()
	if len(modes) != 2*l.Cells {
		t.Fatalf("expected %d modes, got %d", 2*l.Cells, len(modes))
	}

	// Peak occupancy sits at the profile center, tails decay toward
	// the edges.
	peak := 0
	for i := 1; i < l.Cells; i++ {
		if modes.Occupancy(2*i) > modes.Occupancy(2*peak) {
			peak = i
		}
	}
	if d := peak - l.Cells/2; d < -1 || d > 1 {
		t.Errorf("peak at cell %d, want the lattice center", peak)
	}
	edge := mod(peak+l.Cells/2, l.Cells)
	if modes.Occupancy(2*edge) >= modes.Occupancy(2*peak)*1e-5 {
		t.Errorf("sech tail too heavy: peak %g, opposite cell %g",
			modes.Occupancy(2*peak), modes.Occupancy(2*edge))
	}
}

func TestLatticeTwoSolitons(t *testing.T) {
	l := NewLattice()
	l.Solitons = 2
	l.DistNorm = 0.4
	l.Phi = math.Pi

	modes := l.InitialModes()
	if !modes.IsValid() {
		t.Fatal("two-soliton profile contains non-finite values")
	}

	// Count local maxima of the optical occupancy profile.
	occ := make([]float64, l.Cells)
	for i := range occ {
		occ[i] = modes.Occupancy(2 * i)
	}
	peaks := 0
	for i := range occ {
		left := occ[mod(i-1, l.Cells)]
		right := occ[mod(i+1, l.Cells)]
		if occ[i] > left && occ[i] > right && occ[i] > 1e-6 {
			peaks++
		}
	}
	if peaks != 2 {
		t.Errorf("expected 2 solitons, found %d peaks", peaks)
	}
}

func TestSetParamUnknown(t *testing.T) {
	systems := []quantum.Configurable{
		NewCavity(), NewModulated(), NewCoupled(), NewLCMech(), NewLattice(),
	}
	for _, sys := range systems {
		if err := sys.SetParam("no_such_parameter", 1.0); err == nil {
			t.Errorf("%T accepted an unknown parameter", sys)
		}
	}
}

func TestSetParamRoundTrip(t *testing.T) {
	c := NewCavity()
	if err := c.SetParam("P", 2.5); err != nil {
		t.Fatalf("SetParam: %v", err)
	}
	if got := c.Params()["P"]; got != 2.5 {
		t.Errorf("P = %g after SetParam, want 2.5", got)
	}
}

func TestSetParamAcceptsEveryAdvertisedKey(t *testing.T) {
	// Sweeps and scans take their keys from Params(), so every
	// advertised key must have a SetParam case.
	systems := []quantum.System{
		NewCavity(), NewModulated(), NewCoupled(), NewLCMech(), NewLattice(),
	}
	for _, sys := range systems {
		cfg := sys.(quantum.Configurable)
		for name, v := range cfg.Params() {
			if err := cfg.SetParam(name, v); err != nil {
				t.Errorf("%s: advertised key %q rejected: %v", sys.Name(), name, err)
			}
		}
	}
}
