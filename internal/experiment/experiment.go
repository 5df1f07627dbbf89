// Package experiment wires a validated configuration to the core:
// system construction, integration, measure extraction, and optional
// sweep orchestration. The core packages below it stay oblivious of
// configuration files and caching.
package experiment

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/rai-v/cvdyn/internal/config"
	"github.com/rai-v/cvdyn/internal/measures"
	"github.com/rai-v/cvdyn/internal/quantum"
	"github.com/rai-v/cvdyn/internal/solver"
	"github.com/rai-v/cvdyn/internal/storage"
	"github.com/rai-v/cvdyn/internal/sweep"
)

type Experiment struct {
	cfg      *config.Config
	registry *Registry
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{cfg: cfg, registry: NewRegistry()}
}

func (e *Experiment) Registry() *Registry { return e.registry }

// Run integrates the configured system once and returns the full
// trajectory. With caching enabled a repeated configuration is served
// from disk instead of re-solved.
func (e *Experiment) Run(ctx context.Context) (*solver.Trajectory, error) {
	sys, err := e.registry.Build(e.cfg.System.Name, e.cfg.System.Params)
	if err != nil {
		return nil, err
	}
	if e.cfg.Cache {
		cache := storage.NewCache(storage.New(e.cfg.DataDir))
		traj, _, err := cache.Solve(ctx, sys, e.cfg.System.Params, e.cfg.SolverOptions())
		return traj, err
	}
	return solver.Solve(ctx, sys, e.cfg.SolverOptions())
}

// MeasureNeedsCorrs reports whether a measure type reads covariances.
// Mode-only systems cannot serve these measures.
func MeasureNeedsCorrs(typ string) bool {
	switch typ {
	case "entan_ln", "sync_c", "sync_p":
		return true
	}
	return false
}

// MeasureFunc resolves the configured measure to a snapshot function.
func (e *Experiment) MeasureFunc() (func(quantum.Modes, *mat.Dense) float64, error) {
	m := e.cfg.Measure
	switch m.Type {
	case "occupancy":
		return func(modes quantum.Modes, corrs *mat.Dense) float64 {
			return modes.Occupancy(m.ModeI)
		}, nil
	case "entan_ln":
		return func(modes quantum.Modes, corrs *mat.Dense) float64 {
			return measures.LogNegativity(corrs, m.ModeI, m.ModeJ)
		}, nil
	case "sync_c":
		return func(modes quantum.Modes, corrs *mat.Dense) float64 {
			return measures.SyncComplete(corrs, m.ModeI, m.ModeJ)
		}, nil
	case "sync_p":
		return func(modes quantum.Modes, corrs *mat.Dense) float64 {
			return measures.SyncPhase(modes, corrs, m.ModeI, m.ModeJ)
		}, nil
	default:
		return nil, fmt.Errorf("unknown measure type: %s", m.Type)
	}
}

// Averaged runs one point and reduces the configured measure over the
// configured trajectory window.
func (e *Experiment) Averaged(ctx context.Context) (float64, error) {
	fn, err := e.MeasureFunc()
	if err != nil {
		return 0, err
	}
	traj, err := e.Run(ctx)
	if err != nil {
		return 0, err
	}
	if traj.Corrs == nil && MeasureNeedsCorrs(e.cfg.Measure.Type) {
		return 0, fmt.Errorf("%w: measure %q needs covariances, system %q is mode-only",
			quantum.ErrConfig, e.cfg.Measure.Type, e.cfg.System.Name)
	}
	w := traj.Window(e.cfg.Measure.RangeMin, e.cfg.Measure.RangeMax)
	return measures.Average(w, fn), nil
}

// Sweep evaluates the averaged measure across the configured axis, one
// fresh system per point.
func (e *Experiment) Sweep(ctx context.Context) ([]sweep.Point, error) {
	sc := e.cfg.Sweep
	if sc.Var == "" {
		return nil, fmt.Errorf("sweep variable not configured")
	}
	fn, err := e.MeasureFunc()
	if err != nil {
		return nil, err
	}
	axis := sweep.Axis{Var: sc.Var, Min: sc.Min, Max: sc.Max, Dim: sc.Dim}

	points := sweep.Run(ctx, axis, sc.Workers, func(ctx context.Context, x float64) (float64, error) {
		params := make(map[string]float64, len(e.cfg.System.Params)+1)
		for k, v := range e.cfg.System.Params {
			params[k] = v
		}
		params[sc.Var] = x

		sys, err := e.registry.Build(e.cfg.System.Name, params)
		if err != nil {
			return 0, err
		}
		traj, err := solver.Solve(ctx, sys, e.cfg.SolverOptions())
		if err != nil {
			return 0, err
		}
		if traj.Corrs == nil && MeasureNeedsCorrs(e.cfg.Measure.Type) {
			return 0, fmt.Errorf("%w: measure %q needs covariances, system %q is mode-only",
				quantum.ErrConfig, e.cfg.Measure.Type, e.cfg.System.Name)
		}
		w := traj.Window(e.cfg.Measure.RangeMin, e.cfg.Measure.RangeMax)
		return measures.Average(w, fn), nil
	})
	return points, nil
}
