package sweep

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"testing"
)

func TestAxisValues(t *testing.T) {
	axis := Axis{Var: "mu", Min: 0.0, Max: 1.0, Dim: 5}
	vals := axis.Values()
	want := []float64{0.0, 0.25, 0.5, 0.75, 1.0}
	if len(vals) != len(want) {
		t.Fatalf("got %d values, want %d", len(vals), len(want))
	}
	for i := range want {
		if math.Abs(vals[i]-want[i]) > 1e-15 {
			t.Errorf("value %d = %g, want %g", i, vals[i], want[i])
		}
	}
}

func TestAxisValuesSinglePoint(t *testing.T) {
	vals := Axis{Var: "p", Min: 1.4, Max: 2.0, Dim: 1}.Values()
	if len(vals) != 1 || vals[0] != 1.4 {
		t.Errorf("single-point axis = %v, want [1.4]", vals)
	}
}

func TestRunOrderAndValues(t *testing.T) {
	axis := Axis{Var: "x", Min: 0.0, Max: 2.0, Dim: 21}
	points := Run(context.Background(), axis, 4, func(_ context.Context, x float64) (float64, error) {
		return x * x, nil
	})

	if len(points) != 21 {
		t.Fatalf("got %d points, want 21", len(points))
	}
	for i, p := range points {
		if p.Err != nil {
			t.Fatalf("point %d failed: %v", i, p.Err)
		}
		if math.Abs(p.Value-p.X*p.X) > 1e-15 {
			t.Errorf("point %d: f(%g) = %g, want %g", i, p.X, p.Value, p.X*p.X)
		}
		if i > 0 && p.X <= points[i-1].X {
			t.Errorf("points out of grid order at %d: %g after %g", i, p.X, points[i-1].X)
		}
	}
}

func TestRunRecordsPointErrors(t *testing.T) {
	errBad := errors.New("model blew up")
	axis := Axis{Var: "x", Min: 0.0, Max: 4.0, Dim: 5}
	points := Run(context.Background(), axis, 2, func(_ context.Context, x float64) (float64, error) {
		if x == 2.0 {
			return 0, errBad
		}
		return x, nil
	})

	for i, p := range points {
		if p.X == 2.0 {
			if !errors.Is(p.Err, errBad) {
				t.Errorf("point %d: err = %v, want errBad", i, p.Err)
			}
			if !math.IsNaN(p.Value) {
				t.Errorf("point %d: failed value = %g, want NaN", i, p.Value)
			}
			continue
		}
		if p.Err != nil {
			t.Errorf("point %d unexpectedly failed: %v", i, p.Err)
		}
	}
}

func TestRunCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	axis := Axis{Var: "x", Min: 0.0, Max: 1.0, Dim: 100}

	var done atomic.Int32
	points := Run(ctx, axis, 1, func(ctx context.Context, x float64) (float64, error) {
		if done.Add(1) == 3 {
			cancel()
		}
		return x, nil
	})

	evaluated, skipped := 0, 0
	for _, p := range points {
		switch {
		case p.Err == nil:
			evaluated++
		case errors.Is(p.Err, context.Canceled):
			skipped++
			if !math.IsNaN(p.Value) {
				t.Errorf("skipped point %g has value %g, want NaN", p.X, p.Value)
			}
		default:
			t.Errorf("point %g: unexpected error %v", p.X, p.Err)
		}
	}
	if evaluated >= 100 {
		t.Error("cancellation did not stop the sweep")
	}
	if skipped == 0 {
		t.Error("no points marked canceled")
	}
	if evaluated+skipped != 100 {
		t.Errorf("evaluated %d + skipped %d != 100", evaluated, skipped)
	}
}

func TestRun2DRowMajor(t *testing.T) {
	xAxis := Axis{Var: "x", Min: 0.0, Max: 2.0, Dim: 3}
	yAxis := Axis{Var: "y", Min: 10.0, Max: 30.0, Dim: 3}
	points := Run2D(context.Background(), xAxis, yAxis, 3, func(_ context.Context, x, y float64) (float64, error) {
		return y + x, nil
	})

	if len(points) != 9 {
		t.Fatalf("got %d points, want 9", len(points))
	}
	for i, p := range points {
		wantX := float64(i%3) * 1.0
		wantY := 10.0 + float64(i/3)*10.0
		if p.X != wantX || p.Y != wantY {
			t.Errorf("point %d at (%g, %g), want (%g, %g)", i, p.X, p.Y, wantX, wantY)
		}
		if p.Err != nil || math.Abs(p.Value-(p.Y+p.X)) > 1e-15 {
			t.Errorf("point %d: value %g err %v", i, p.Value, p.Err)
		}
	}
}

func TestRunWorkerCounts(t *testing.T) {
	axis := Axis{Var: "x", Min: 0.0, Max: 1.0, Dim: 10}
	for _, workers := range []int{0, 1, 4, 32} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			points := Run(context.Background(), axis, workers, func(_ context.Context, x float64) (float64, error) {
				return 2 * x, nil
			})
			for i, p := range points {
				if p.Err != nil || p.Value != 2*p.X {
					t.Errorf("point %d wrong: %+v", i, p)
				}
			}
		})
	}
}
