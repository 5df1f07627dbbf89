// Package optim searches parameter grids for the extremum of an
// averaged measure, for instance the coupling that maximizes
// entanglement between two modes.
package optim

import (
	"context"
	"math"
)

// Axis is one searched parameter with its candidate values.
type Axis struct {
	Name   string
	Values []float64
}

// EvalFunc scores one parameter combination. Failed evaluations are
// skipped rather than aborting the search.
type EvalFunc func(ctx context.Context, params map[string]float64) (float64, error)

type GridSearch struct {
	axes     []Axis
	maximize bool
}

func NewGridSearch(axes []Axis, maximize bool) *GridSearch {
	return &GridSearch{axes: axes, maximize: maximize}
}

// Search walks the full cartesian grid and returns the best parameter
// combination with its score. An all-failed grid returns ok=false.
func (g *GridSearch) Search(ctx context.Context, eval EvalFunc) (map[string]float64, float64, bool) {
	best := math.Inf(1)
	if g.maximize {
		best = math.Inf(-1)
	}
	var bestParams map[string]float64

	g.walk(ctx, 0, make(map[string]float64), eval, &best, &bestParams)
	return bestParams, best, bestParams != nil
}

func (g *GridSearch) walk(ctx context.Context, depth int, current map[string]float64, eval EvalFunc, best *float64, bestParams *map[string]float64) {
	if ctx.Err() != nil {
		return
	}
	if depth == len(g.axes) {
		val, err := eval(ctx, current)
		if err != nil || math.IsNaN(val) {
			return
		}
		better := val < *best
		if g.maximize {
			better = val > *best
		}
		if better {
			*best = val
			snapshot := make(map[string]float64, len(current))
			for k, v := range current {
				snapshot[k] = v
			}
			*bestParams = snapshot
		}
		return
	}

	axis := g.axes[depth]
	for _, v := range axis.Values {
		current[axis.Name] = v
		g.walk(ctx, depth+1, current, eval, best, bestParams)
	}
	delete(current, axis.Name)
}
