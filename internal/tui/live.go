// Package tui provides an interactive trajectory viewer. The solver
// finishes first; the viewer plays the stored trajectory back with
// pause and speed controls.
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rai-v/cvdyn/internal/solver"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

type model struct {
	system string
	traj   *solver.Trajectory

	frame  int
	paused bool
	speed  int

	// occupancy history per mode, capped for the sparklines
	history [][]float64

	width  int
	height int
}

func newModel(system string, traj *solver.Trajectory) *model {
	n := len(traj.Modes[0])
	history := make([][]float64, n)
	for i := range history {
		history[i] = make([]float64, 0, 80)
	}
	return &model{
		system:  system,
		traj:    traj,
		speed:   1,
		history: history,
		width:   80,
		height:  24,
	}
}

func (m model) Init() tea.Cmd { return tick() }

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(33*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "escape":
			return m, tea.Quit
		case " ", "p":
			m.paused = !m.paused
		case "r":
			m.frame = 0
			for i := range m.history {
				m.history[i] = m.history[i][:0]
			}
		case "+", "=":
			if m.speed < 32 {
				m.speed *= 2
			}
		case "-", "_":
			if m.speed > 1 {
				m.speed /= 2
			}
		case "left", "h":
			m.frame -= 10
			if m.frame < 0 {
				m.frame = 0
			}
		case "right", "l":
			m.frame += 10
			if m.frame >= m.traj.Len() {
				m.frame = m.traj.Len() - 1
			}
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if !m.paused {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

func (m *model) advance() {
	for s := 0; s < m.speed; s++ {
		if m.frame >= m.traj.Len()-1 {
			m.paused = true
			return
		}
		m.frame++
		modes := m.traj.Modes[m.frame]
		for i := range m.history {
			m.history[i] = append(m.history[i], modes.Occupancy(i))
			if len(m.history[i]) > 80 {
				m.history[i] = m.history[i][1:]
			}
		}
	}
}

func (m model) View() string {
	var b strings.Builder

	t := m.traj.Times[m.frame]
	tMax := m.traj.Times[m.traj.Len()-1]
	modes := m.traj.Modes[m.frame]

	statusIcon := green.Render("●")
	statusText := green.Render("playing")
	if m.paused {
		statusIcon = yellow.Render("○")
		statusText = yellow.Render("paused")
	}
	b.WriteString(fmt.Sprintf("\n   %s %s  %s  %s\n",
		statusIcon, cyan.Render(m.system), statusText,
		dim.Render(fmt.Sprintf("%dx", m.speed))))

	progress := float64(m.frame) / float64(m.traj.Len()-1)
	barWidth := 40
	filled := int(progress * float64(barWidth))
	bar := cyan.Render(strings.Repeat("━", filled)) +
		dimmer.Render(strings.Repeat("─", barWidth-filled))
	b.WriteString(fmt.Sprintf("   %s %s\n\n", bar,
		dim.Render(fmt.Sprintf("t=%.2f/%.0f", t, tMax))))

	// One row per mode: amplitude, phase, occupancy sparkline. Large
	// lattices collapse to the first handful of modes.
	shown := len(modes)
	if shown > 8 {
		shown = 8
	}
	for i := 0; i < shown; i++ {
		amp := modes.Occupancy(i)
		phase := math.Atan2(imag(modes[i]), real(modes[i]))
		b.WriteString(fmt.Sprintf("   %s %s %s  %s\n",
			dim.Render(fmt.Sprintf("mode %d", i)),
			white.Render(fmt.Sprintf("|α|²=%-11.4g", amp)),
			dim.Render(fmt.Sprintf("φ=%+.2f", phase)),
			cyan.Render(sparkline(m.history[i], 32))))
	}
	if shown < len(modes) {
		b.WriteString(dim.Render(fmt.Sprintf("   ... %d more modes\n", len(modes)-shown)))
	}

	if m.traj.Corrs != nil {
		c := m.traj.Corrs[m.frame]
		b.WriteString("\n" + dim.Render("   quadrature variances"))
		b.WriteString("  ")
		d, _ := c.Dims()
		for i := 0; i < d && i < 8; i++ {
			b.WriteString(magenta.Render(fmt.Sprintf("%.3f ", c.At(i, i))))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n" + dim.Render("   space pause  ←→ seek  ±speed  r restart  q quit") + "\n")
	return b.String()
}

func sparkline(data []float64, width int) string {
	if len(data) == 0 {
		return ""
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	rang := maxVal - minVal
	if rang == 0 {
		rang = 1
	}
	step := len(data) / width
	if step < 1 {
		step = 1
	}
	var sb strings.Builder
	for i := 0; i < width && i*step < len(data); i++ {
		idx := int((data[i*step] - minVal) / rang * 7)
		if idx > 7 {
			idx = 7
		}
		if idx < 0 {
			idx = 0
		}
		sb.WriteRune(chars[idx])
	}
	return sb.String()
}

// Play opens the viewer on a finished trajectory.
func Play(system string, traj *solver.Trajectory) error {
	if traj.Len() < 2 {
		return fmt.Errorf("tui: trajectory too short to play")
	}
	p := tea.NewProgram(newModel(system, traj), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
