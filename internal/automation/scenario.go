// Package automation runs scripted batches of simulations from a
// single YAML scenario file, for parameter studies that mix several
// systems or solver settings in one go.
package automation

import (
	"context"
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"github.com/rai-v/cvdyn/internal/experiment"
	"github.com/rai-v/cvdyn/internal/measures"
	"github.com/rai-v/cvdyn/internal/quantum"
	"github.com/rai-v/cvdyn/internal/solver"
	"github.com/rai-v/cvdyn/internal/storage"
)

type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

type Step struct {
	System  string             `yaml:"system"`
	Params  map[string]float64 `yaml:"params"`
	Method  string             `yaml:"method"`
	TMin    float64            `yaml:"t_min"`
	TMax    float64            `yaml:"t_max"`
	TDim    int                `yaml:"t_dim"`
	Measure string             `yaml:"measure"`
	ModeI   int                `yaml:"mode_i"`
	ModeJ   int                `yaml:"mode_j"`
	SaveAs  string             `yaml:"save_as"`
}

// StepResult pairs a step with its averaged measure.
type StepResult struct {
	Step  Step
	Value float64
	RunID string
	Err   error
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}
	return &scenario, nil
}

// RunScenario executes every step in order. A failing step records its
// error and the batch continues; cancellation stops the batch.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, store *storage.Store) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))
	for _, step := range scenario.Steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, runStep(ctx, step, registry, store))
	}
	return results, nil
}

func runStep(ctx context.Context, step Step, registry *experiment.Registry, store *storage.Store) StepResult {
	res := StepResult{Step: step}

	sys, err := registry.Build(step.System, step.Params)
	if err != nil {
		res.Err = err
		return res
	}

	opts := solver.DefaultOptions()
	if step.Method != "" {
		opts.Method = step.Method
	}
	if step.TMax != 0 {
		opts.TMin = step.TMin
		opts.TMax = step.TMax
	}
	if step.TDim != 0 {
		opts.TDim = step.TDim
	}

	traj, err := solver.Solve(ctx, sys, opts)
	if err != nil {
		res.Err = err
		return res
	}

	if traj.Corrs == nil && experiment.MeasureNeedsCorrs(step.Measure) {
		res.Err = fmt.Errorf("%w: measure %q needs covariances, system %q is mode-only",
			quantum.ErrConfig, step.Measure, step.System)
		return res
	}

	switch step.Measure {
	case "", "occupancy":
		res.Value = measures.Average(traj, func(modes quantum.Modes, corrs *mat.Dense) float64 {
			return modes.Occupancy(step.ModeI)
		})
	case "entan_ln":
		res.Value = measures.Average(traj, func(modes quantum.Modes, corrs *mat.Dense) float64 {
			return measures.LogNegativity(corrs, step.ModeI, step.ModeJ)
		})
	case "sync_c":
		res.Value = measures.Average(traj, func(modes quantum.Modes, corrs *mat.Dense) float64 {
			return measures.SyncComplete(corrs, step.ModeI, step.ModeJ)
		})
	case "sync_p":
		res.Value = measures.Average(traj, func(modes quantum.Modes, corrs *mat.Dense) float64 {
			return measures.SyncPhase(modes, corrs, step.ModeI, step.ModeJ)
		})
	default:
		res.Err = fmt.Errorf("unknown measure type: %s", step.Measure)
		return res
	}

	if step.SaveAs != "" && store != nil {
		if err := store.Init(); err == nil {
			if err := store.Save(step.SaveAs, step.System, opts, traj); err != nil {
				res.Err = err
				return res
			}
			res.RunID = step.SaveAs
		}
	}
	return res
}
