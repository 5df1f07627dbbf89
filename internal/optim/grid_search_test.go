package optim

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestSearchMaximize(t *testing.T) {
	axes := []Axis{
		{Name: "x", Values: []float64{-1, 0, 1, 2}},
		{Name: "y", Values: []float64{-2, 0, 2}},
	}
	// Peak at (1, 0).
	eval := func(_ context.Context, p map[string]float64) (float64, error) {
		dx := p["x"] - 1.0
		return -(dx*dx + p["y"]*p["y"]), nil
	}

	params, score, ok := NewGridSearch(axes, true).Search(context.Background(), eval)
	if !ok {
		t.Fatal("search found nothing")
	}
	if params["x"] != 1.0 || params["y"] != 0.0 {
		t.Errorf("best params = %v, want x=1 y=0", params)
	}
	if score != 0.0 {
		t.Errorf("best score = %g, want 0", score)
	}
}

func TestSearchMinimize(t *testing.T) {
	axes := []Axis{{Name: "x", Values: []float64{0, 1, 2, 3}}}
	eval := func(_ context.Context, p map[string]float64) (float64, error) {
		return (p["x"] - 2.0) * (p["x"] - 2.0), nil
	}

	params, score, ok := NewGridSearch(axes, false).Search(context.Background(), eval)
	if !ok || params["x"] != 2.0 || score != 0.0 {
		t.Errorf("got %v score=%g ok=%v, want x=2 score=0", params, score, ok)
	}
}

func TestSearchVisitsFullGrid(t *testing.T) {
	axes := []Axis{
		{Name: "a", Values: []float64{0, 1}},
		{Name: "b", Values: []float64{0, 1, 2}},
		{Name: "c", Values: []float64{0, 1}},
	}
	calls := 0
	_, _, ok := NewGridSearch(axes, true).Search(context.Background(),
		func(_ context.Context, p map[string]float64) (float64, error) {
			calls++
			if len(p) != 3 {
				t.Errorf("eval saw %d params, want 3", len(p))
			}
			return 0, nil
		})
	if !ok {
		t.Fatal("search found nothing")
	}
	if calls != 12 {
		t.Errorf("evaluated %d points, want 12", calls)
	}
}

func TestSearchSkipsFailures(t *testing.T) {
	axes := []Axis{{Name: "x", Values: []float64{0, 1, 2}}}
	eval := func(_ context.Context, p map[string]float64) (float64, error) {
		if p["x"] == 2.0 {
			return 0, errors.New("diverged")
		}
		return p["x"], nil
	}

	params, score, ok := NewGridSearch(axes, true).Search(context.Background(), eval)
	if !ok {
		t.Fatal("search found nothing")
	}
	if params["x"] != 1.0 || score != 1.0 {
		t.Errorf("got %v score=%g, failed point should be skipped", params, score)
	}
}

func TestSearchSkipsNaN(t *testing.T) {
	axes := []Axis{{Name: "x", Values: []float64{0, 1}}}
	eval := func(_ context.Context, p map[string]float64) (float64, error) {
		if p["x"] == 1.0 {
			return math.NaN(), nil
		}
		return -5.0, nil
	}

	params, score, ok := NewGridSearch(axes, true).Search(context.Background(), eval)
	if !ok || params["x"] != 0.0 || score != -5.0 {
		t.Errorf("got %v score=%g ok=%v, NaN point should be skipped", params, score, ok)
	}
}

func TestSearchAllFailed(t *testing.T) {
	axes := []Axis{{Name: "x", Values: []float64{0, 1}}}
	params, _, ok := NewGridSearch(axes, true).Search(context.Background(),
		func(_ context.Context, _ map[string]float64) (float64, error) {
			return 0, errors.New("nope")
		})
	if ok || params != nil {
		t.Error("all-failed search must report ok=false")
	}
}

func TestSearchBestParamsAreSnapshot(t *testing.T) {
	axes := []Axis{{Name: "x", Values: []float64{0, 1, 2}}}
	params, _, ok := NewGridSearch(axes, true).Search(context.Background(),
		func(_ context.Context, p map[string]float64) (float64, error) {
			return -p["x"], nil
		})
	if !ok {
		t.Fatal("search found nothing")
	}
	// Best is at x=0 even though the walk mutated its map afterwards.
	if params["x"] != 0.0 {
		t.Errorf("best params = %v, want the snapshot taken at x=0", params)
	}
}

func TestSearchCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	axes := []Axis{{Name: "x", Values: make([]float64, 100)}}
	calls := 0
	_, _, _ = NewGridSearch(axes, true).Search(ctx,
		func(_ context.Context, _ map[string]float64) (float64, error) {
			calls++
			if calls == 5 {
				cancel()
			}
			return 0, nil
		})
	if calls > 6 {
		t.Errorf("evaluated %d points after cancellation", calls)
	}
}
