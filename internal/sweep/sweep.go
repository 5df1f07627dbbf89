// Package sweep drives independent simulation runs over parameter
// grids. Every grid point owns a freshly built system, so the runs
// share nothing and parallelize freely; a failed point records NaN and
// its error instead of aborting the rest of the sweep.
package sweep

import (
	"context"
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/floats"
)

// Axis describes one swept parameter.
type Axis struct {
	Var string
	Min float64
	Max float64
	Dim int
}

// Values expands the axis to its grid.
func (a Axis) Values() []float64 {
	vals := make([]float64, a.Dim)
	if a.Dim == 1 {
		vals[0] = a.Min
		return vals
	}
	floats.Span(vals, a.Min, a.Max)
	return vals
}

// Point is the outcome of a single grid point. Value is NaN when Err is
// non-nil.
type Point struct {
	X, Y  float64
	Value float64
	Err   error
}

// EvalFunc computes one parameter point. Implementations build their
// own system and must not share mutable state with other points.
type EvalFunc func(ctx context.Context, x float64) (float64, error)

// EvalFunc2D is the two-axis analogue.
type EvalFunc2D func(ctx context.Context, x, y float64) (float64, error)

// Run evaluates eval over the axis using workers goroutines (0 means
// GOMAXPROCS). Results come back in grid order.
func Run(ctx context.Context, axis Axis, workers int, eval EvalFunc) []Point {
	xs := axis.Values()
	points := make([]Point, len(xs))
	for i, x := range xs {
		points[i] = Point{X: x, Value: math.NaN(), Err: context.Canceled}
	}

	parallelFor(ctx, len(xs), workers, func(i int) {
		v, err := eval(ctx, xs[i])
		if err != nil {
			points[i] = Point{X: xs[i], Value: math.NaN(), Err: err}
			return
		}
		points[i] = Point{X: xs[i], Value: v}
	})
	return points
}

// Run2D evaluates eval over the outer product of two axes, row-major in
// (y, x) order.
func Run2D(ctx context.Context, xAxis, yAxis Axis, workers int, eval EvalFunc2D) []Point {
	xs := xAxis.Values()
	ys := yAxis.Values()
	points := make([]Point, len(xs)*len(ys))
	for i := range points {
		points[i] = Point{X: xs[i%len(xs)], Y: ys[i/len(xs)], Value: math.NaN(), Err: context.Canceled}
	}

	parallelFor(ctx, len(points), workers, func(i int) {
		x := xs[i%len(xs)]
		y := ys[i/len(xs)]
		v, err := eval(ctx, x, y)
		if err != nil {
			points[i] = Point{X: x, Y: y, Value: math.NaN(), Err: err}
			return
		}
		points[i] = Point{X: x, Y: y, Value: v}
	})
	return points
}

func parallelFor(ctx context.Context, n, workers int, fn func(i int)) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}

	idx := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				fn(i)
			}
		}()
	}

feed:
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			break feed
		case idx <- i:
		}
	}
	close(idx)
	wg.Wait()
}
