package experiment

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/rai-v/cvdyn/internal/config"
	"github.com/rai-v/cvdyn/internal/quantum"
	"github.com/rai-v/cvdyn/internal/solver"
)

func quickConfig() *config.Config {
	cfg := config.Default()
	cfg.System.Params = map[string]float64{
		"Delta": 0.0, "Gamma": 0.5, "kappa": 1.0, "P": 0.1,
	}
	cfg.Solver.Method = solver.MethodRK45
	cfg.Solver.TMax = 10.0
	cfg.Solver.TDim = 101
	return cfg
}

func TestRegistryList(t *testing.T) {
	names := NewRegistry().List()
	want := []string{"cavity", "coupled", "lattice", "lcmech", "modulated"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("name %d = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestRegistryBuild(t *testing.T) {
	sys, err := NewRegistry().Build("cavity", map[string]float64{"P": 0.7})
	if err != nil {
		t.Fatal(err)
	}
	cfg, ok := sys.(quantum.Configurable)
	if !ok {
		t.Fatal("cavity should be configurable")
	}
	if got := cfg.Params()["P"]; got != 0.7 {
		t.Errorf("P = %g, want 0.7", got)
	}
}

func TestRegistryBuildIsFresh(t *testing.T) {
	r := NewRegistry()
	a, _ := r.Build("cavity", map[string]float64{"P": 0.7})
	b, _ := r.Build("cavity", nil)
	if got := b.(quantum.Configurable).Params()["P"]; got == 0.7 {
		t.Error("parameter override leaked between builds")
	}
	_ = a
}

func TestRegistryBuildUnknown(t *testing.T) {
	if _, err := NewRegistry().Build("pendulum", nil); err == nil {
		t.Error("unknown system must not build")
	}
}

func TestRegistryBuildBadParam(t *testing.T) {
	if _, err := NewRegistry().Build("cavity", map[string]float64{"mass": 1.0}); err == nil {
		t.Error("unknown parameter must not build")
	}
}

func TestRun(t *testing.T) {
	traj, err := New(quickConfig()).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if traj.Len() != 101 {
		t.Fatalf("trajectory length %d, want 101", traj.Len())
	}
	if traj.Corrs == nil {
		t.Fatal("cavity run should carry covariances")
	}
	if !traj.FinalModes().IsValid() {
		t.Error("final modes not finite")
	}
}

func TestRunWithCache(t *testing.T) {
	cfg := quickConfig()
	cfg.Cache = true
	cfg.DataDir = t.TempDir()

	e := New(cfg)
	first, err := e.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if first.Len() != second.Len() {
		t.Fatalf("cached run length %d != %d", second.Len(), first.Len())
	}
	for k := range first.Times {
		d := first.Modes[k][0] - second.Modes[k][0]
		if math.Hypot(real(d), imag(d)) > 1e-14 {
			t.Fatalf("cached trajectory differs at snapshot %d", k)
		}
	}
}

func TestMeasureFunc(t *testing.T) {
	for _, typ := range []string{"occupancy", "entan_ln", "sync_c", "sync_p"} {
		cfg := quickConfig()
		cfg.Measure.Type = typ
		if _, err := New(cfg).MeasureFunc(); err != nil {
			t.Errorf("measure %q rejected: %v", typ, err)
		}
	}

	cfg := quickConfig()
	cfg.Measure.Type = "purity"
	if _, err := New(cfg).MeasureFunc(); err == nil {
		t.Error("unknown measure accepted")
	}
}

func TestAveraged(t *testing.T) {
	cfg := quickConfig()
	cfg.Measure.RangeMin = 50
	v, err := New(cfg).Averaged(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if math.IsNaN(v) || v < 0 {
		t.Errorf("averaged occupancy = %g", v)
	}
}

func TestAveragedRejectsCovarianceMeasureOnModeOnlySystem(t *testing.T) {
	cfg := config.Default()
	cfg.System.Name = "lattice"
	cfg.System.Params = map[string]float64{"n": 10}
	cfg.Solver.Method = solver.MethodRK45
	cfg.Solver.TMax = 1.0
	cfg.Solver.TDim = 11
	cfg.Measure.Type = "entan_ln"

	_, err := New(cfg).Averaged(context.Background())
	if err == nil {
		t.Fatal("covariance measure on a mode-only system must fail")
	}
	if !errors.Is(err, quantum.ErrConfig) {
		t.Errorf("error %v, want %v", err, quantum.ErrConfig)
	}
}

func TestSweepRejectsCovarianceMeasureOnModeOnlySystem(t *testing.T) {
	cfg := config.Default()
	cfg.System.Name = "lattice"
	cfg.System.Params = map[string]float64{"n": 10}
	cfg.Solver.Method = solver.MethodRK45
	cfg.Solver.TMax = 1.0
	cfg.Solver.TDim = 11
	cfg.Measure.Type = "sync_c"
	cfg.Sweep = config.SweepConfig{Var: "J", Min: 1.0, Max: 2.0, Dim: 2, Workers: 1}

	points, err := New(cfg).Sweep(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range points {
		if p.Err == nil {
			t.Fatalf("point %d succeeded, want config error", i)
		}
		if !errors.Is(p.Err, quantum.ErrConfig) {
			t.Errorf("point %d: error %v, want %v", i, p.Err, quantum.ErrConfig)
		}
	}
}

func TestSweepRequiresVar(t *testing.T) {
	if _, err := New(quickConfig()).Sweep(context.Background()); err == nil {
		t.Error("sweep without a variable should fail")
	}
}

func TestSweepOverPump(t *testing.T) {
	cfg := quickConfig()
	cfg.Solver.TMax = 5.0
	cfg.Solver.TDim = 51
	cfg.Sweep = config.SweepConfig{Var: "P", Min: 0.05, Max: 0.2, Dim: 4, Workers: 2}

	points, err := New(cfg).Sweep(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 4 {
		t.Fatalf("got %d points, want 4", len(points))
	}
	for i, p := range points {
		if p.Err != nil {
			t.Fatalf("point %d failed: %v", i, p.Err)
		}
		if math.IsNaN(p.Value) || p.Value < 0 {
			t.Errorf("point %d: value %g", i, p.Value)
		}
	}
	// A stronger pump stores more photons.
	if points[3].Value <= points[0].Value {
		t.Errorf("occupancy not increasing with pump: %g then %g",
			points[0].Value, points[3].Value)
	}
}

// Two identical oscillators swept over the mutual coupling. The
// tail-averaged synchronization rises smoothly from zero with mu and
// must not show an isolated jump anywhere on the grid.
func TestSweepOverCouplingIsContinuous(t *testing.T) {
	cfg := config.Default()
	cfg.System.Name = "coupled"
	cfg.System.Params = map[string]float64{"omega_2_norm": 1.0}
	cfg.Solver.Method = solver.MethodRK45
	cfg.Solver.TMax = 200.0
	cfg.Solver.TDim = 2001
	cfg.Measure = config.MeasureConfig{Type: "sync_c", ModeI: 1, ModeJ: 3, RangeMin: 1371}
	cfg.Sweep = config.SweepConfig{Var: "mu", Min: 0.0, Max: 0.04, Dim: 11, Workers: 4}

	points, err := New(cfg).Sweep(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 11 {
		t.Fatalf("got %d points, want 11", len(points))
	}

	vals := make([]float64, len(points))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, p := range points {
		if p.Err != nil {
			t.Fatalf("mu=%g failed: %v", p.X, p.Err)
		}
		if math.IsNaN(p.Value) || p.Value < 0 || p.Value > 1 {
			t.Fatalf("mu=%g: sync_c = %g outside [0,1]", p.X, p.Value)
		}
		vals[i] = p.Value
		lo = math.Min(lo, p.Value)
		hi = math.Max(hi, p.Value)
	}

	// Uncoupled oscillators stay unsynchronized; any coupling helps.
	if vals[0] > 1e-3 {
		t.Errorf("sync_c at mu=0 is %g, want ~0", vals[0])
	}
	if vals[1] <= vals[0] {
		t.Errorf("sync_c did not rise with coupling: %g then %g", vals[0], vals[1])
	}

	// Continuity: every interior value stays within the band spanned by
	// its neighbors, widened by 10% of the sweep's full range. A genuine
	// discontinuity shows up as a point escaping that band.
	tol := 0.1 * (hi - lo)
	for k := 1; k < len(vals)-1; k++ {
		floor := math.Min(vals[k-1], vals[k+1]) - tol
		ceil := math.Max(vals[k-1], vals[k+1]) + tol
		if vals[k] < floor || vals[k] > ceil {
			t.Errorf("sync_c jumps at mu=%g: %g outside [%g, %g]",
				points[k].X, vals[k], floor, ceil)
		}
	}
}
