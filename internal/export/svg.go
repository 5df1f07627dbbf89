// Package export renders trajectories and sweep results as standalone
// SVG documents, for reports where terminal plots do not travel well.
package export

import (
	"fmt"
	"strings"

	"github.com/rai-v/cvdyn/internal/solver"
	"github.com/rai-v/cvdyn/internal/sweep"
)

var palette = []string{"#00ff9f", "#00b8ff", "#ff2975", "#f5d300", "#bd00ff", "#ff901f"}

// TrajectorySVG plots mode occupancies against time, one polyline per
// mode. Lattice-sized systems get truncated to the first six modes.
func TrajectorySVG(traj *solver.Trajectory, width, height int) string {
	if traj.Len() < 2 {
		return ""
	}
	n := len(traj.Modes[0])
	if n > len(palette) {
		n = len(palette)
	}

	minY, maxY := traj.Modes[0].Occupancy(0), traj.Modes[0].Occupancy(0)
	for k := range traj.Times {
		for i := 0; i < n; i++ {
			v := traj.Modes[k].Occupancy(i)
			if v < minY {
				minY = v
			}
			if v > maxY {
				maxY = v
			}
		}
	}

	var sb strings.Builder
	writeHeader(&sb, width, height)
	tMin := traj.Times[0]
	tMax := traj.Times[traj.Len()-1]
	for i := 0; i < n; i++ {
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, palette[i]))
		for k := range traj.Times {
			x := scale(traj.Times[k], tMin, tMax, width)
			y := float64(height) - scale(traj.Modes[k].Occupancy(i), minY, maxY, height)
			if k == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString("\"/>\n")
	}
	sb.WriteString("</svg>")
	return sb.String()
}

// SweepSVG plots a swept measure against the parameter axis. Failed
// points break the polyline.
func SweepSVG(points []sweep.Point, width, height int) string {
	if len(points) < 2 {
		return ""
	}
	minY, maxY := 0.0, 0.0
	first := true
	for _, pt := range points {
		if pt.Err != nil {
			continue
		}
		if first || pt.Value < minY {
			minY = pt.Value
		}
		if first || pt.Value > maxY {
			maxY = pt.Value
		}
		first = false
	}
	if first {
		return ""
	}
	xMin := points[0].X
	xMax := points[len(points)-1].X

	var sb strings.Builder
	writeHeader(&sb, width, height)
	sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="`, palette[0]))
	pen := false
	for _, pt := range points {
		if pt.Err != nil {
			pen = false
			continue
		}
		x := scale(pt.X, xMin, xMax, width)
		y := float64(height) - scale(pt.Value, minY, maxY, height)
		if pen {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf("M%.1f,%.1f", x, y))
			pen = true
		}
	}
	sb.WriteString("\"/>\n</svg>")
	return sb.String()
}

func writeHeader(sb *strings.Builder, width, height int) {
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))
}

// scale maps v in [lo, hi] into [0.05, 0.95] of the span, leaving a
// margin so extreme points stay visible.
func scale(v, lo, hi float64, span int) float64 {
	r := hi - lo
	if r == 0 {
		r = 1
	}
	return (0.05 + 0.9*(v-lo)/r) * float64(span)
}
