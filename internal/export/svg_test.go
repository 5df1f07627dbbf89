package export

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/rai-v/cvdyn/internal/quantum"
	"github.com/rai-v/cvdyn/internal/solver"
	"github.com/rai-v/cvdyn/internal/sweep"
)

func rampTrajectory(nModes, steps int) *solver.Trajectory {
	traj := &solver.Trajectory{}
	for k := 0; k < steps; k++ {
		t := float64(k) * 0.1
		modes := make(quantum.Modes, nModes)
		for i := range modes {
			modes[i] = complex(t*float64(i+1), 0)
		}
		traj.Times = append(traj.Times, t)
		traj.Modes = append(traj.Modes, modes)
	}
	return traj
}

func TestTrajectorySVG(t *testing.T) {
	svg := TrajectorySVG(rampTrajectory(2, 50), 800, 400)

	if !strings.HasPrefix(svg, `<?xml version="1.0"`) {
		t.Error("missing XML declaration")
	}
	if !strings.Contains(svg, `width="800" height="400"`) {
		t.Error("missing dimensions")
	}
	if !strings.HasSuffix(svg, "</svg>") {
		t.Error("document not closed")
	}
	if got := strings.Count(svg, "<path"); got != 2 {
		t.Errorf("got %d paths, want one per mode (2)", got)
	}
	for i := 0; i < 2; i++ {
		if !strings.Contains(svg, palette[i]) {
			t.Errorf("palette color %d unused", i)
		}
	}
}

func TestTrajectorySVGTruncatesModes(t *testing.T) {
	svg := TrajectorySVG(rampTrajectory(10, 20), 800, 400)
	if got := strings.Count(svg, "<path"); got != len(palette) {
		t.Errorf("got %d paths, want palette limit %d", got, len(palette))
	}
}

func TestTrajectorySVGTooShort(t *testing.T) {
	if svg := TrajectorySVG(rampTrajectory(1, 1), 800, 400); svg != "" {
		t.Error("single-snapshot trajectory should render nothing")
	}
}

func TestTrajectorySVGFlatLine(t *testing.T) {
	// A constant trajectory must not divide by a zero value range.
	traj := &solver.Trajectory{
		Times: []float64{0, 1, 2},
		Modes: []quantum.Modes{{complex(1, 0)}, {complex(1, 0)}, {complex(1, 0)}},
	}
	svg := TrajectorySVG(traj, 200, 100)
	if strings.Contains(svg, "NaN") || strings.Contains(svg, "Inf") {
		t.Error("flat trajectory produced non-finite coordinates")
	}
}

func TestSweepSVG(t *testing.T) {
	points := []sweep.Point{
		{X: 0.0, Value: 1.0},
		{X: 0.1, Value: 2.0},
		{X: 0.2, Value: 1.5},
	}
	svg := SweepSVG(points, 640, 480)
	if !strings.Contains(svg, `viewBox="0 0 640 480"`) {
		t.Error("missing viewBox")
	}
	// One continuous path segment: a single M followed by L commands.
	if got := strings.Count(svg, "M"); got != 1 {
		t.Errorf("got %d pen-down moves, want 1", got)
	}
	if got := strings.Count(svg, " L"); got != 2 {
		t.Errorf("got %d line segments, want 2", got)
	}
}

func TestSweepSVGBreaksOnFailedPoints(t *testing.T) {
	points := []sweep.Point{
		{X: 0.0, Value: 1.0},
		{X: 0.1, Value: 2.0},
		{X: 0.2, Value: math.NaN(), Err: errors.New("diverged")},
		{X: 0.3, Value: 1.2},
		{X: 0.4, Value: 1.1},
	}
	svg := SweepSVG(points, 640, 480)
	if got := strings.Count(svg, "M"); got != 2 {
		t.Errorf("got %d pen-down moves, want 2 around the failed point", got)
	}
	if strings.Contains(svg, "NaN") {
		t.Error("failed point leaked into path data")
	}
}

func TestSweepSVGAllFailed(t *testing.T) {
	points := []sweep.Point{
		{X: 0.0, Err: errors.New("bad")},
		{X: 0.1, Err: errors.New("bad")},
	}
	if svg := SweepSVG(points, 640, 480); svg != "" {
		t.Error("all-failed sweep should render nothing")
	}
}
