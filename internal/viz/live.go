package viz

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/forcesim/internal/dynamo"
	"github.com/san-kum/forcesim/internal/sim"
)

const (
	defaultWidth    = 80
	defaultHeight   = 24
	statsWidth      = 45
	fps             = 60
	historyCapacity = 600
	panStep         = 8.0
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(statsWidth)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/fps, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// param is one tunable value of a force or constraint.
type param struct {
	component, name string
}

func (p param) String() string { return p.component + "." + p.name }

// Model drives a simulation from Bubble Tea frames and draws it on a
// braille canvas. Each frame runs TicksPerFrame ticks until the layout
// settles.
type Model struct {
	sim           *sim.Simulation
	title         string
	canvas        *Canvas
	camera        *Camera
	theme         Theme
	running       bool
	TicksPerFrame int
	energy        []float64
	alpha         []float64
	params        []param
	selected      int
	showHelp      bool
	frame         int
}

func NewModel(s *sim.Simulation, title string) Model {
	m := Model{
		sim:           s,
		title:         title,
		canvas:        NewCanvas(defaultWidth, defaultHeight),
		camera:        NewCamera(fps),
		theme:         Themes[0],
		running:       true,
		TicksPerFrame: 1,
		energy:        make([]float64, 0, historyCapacity),
		alpha:         make([]float64, 0, historyCapacity),
	}
	m.params = tunables(s)
	m.fit()
	m.camera.Snap()
	m.draw()
	return m
}

func tunables(s *sim.Simulation) []param {
	var names []string
	for _, f := range s.Forces() {
		names = append(names, f.Name())
	}
	for _, c := range s.Constraints() {
		names = append(names, c.Name())
	}

	var out []param
	seen := make(map[string]bool)
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		c, ok := s.Component(name)
		if !ok {
			continue
		}
		keys := make([]string, 0)
		for k := range c.GetParams() {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = append(out, param{component: name, name: k})
		}
	}
	return out
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Simulation() *sim.Simulation { return m.sim }
func (m Model) Running() bool               { return m.running }
func (m Model) Theme() Theme                { return m.theme }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.sim.Reheat(0)
			m.running = true
		case "n":
			if !m.running {
				m.step()
			}
		case "tab":
			if len(m.params) > 0 {
				m.selected = (m.selected + 1) % len(m.params)
			}
		case "up", "k":
			m.adjustParam(1.05)
		case "down", "j":
			m.adjustParam(0.95)
		case "+", "=":
			m.camera.Zoom(1.25)
		case "-", "_":
			m.camera.Zoom(0.8)
		case "w":
			m.camera.Pan(0, -panStep)
		case "s":
			m.camera.Pan(0, panStep)
		case "a":
			m.camera.Pan(-panStep, 0)
		case "d":
			m.camera.Pan(panStep, 0)
		case "f":
			m.camera.Follow()
		case "t":
			m.theme = NextTheme(m.theme.Name)
		case "?":
			m.showHelp = !m.showHelp
		}
		m.draw()
	case tea.WindowSizeMsg:
		w := max(msg.Width-statsWidth-8, 20)
		h := max(msg.Height-4, 8)
		m.canvas = NewCanvas(w, h)
		m.draw()
	case TickMsg:
		m.frame++
		if m.running && !m.sim.Settled() {
			for i := 0; i < max(m.TicksPerFrame, 1); i++ {
				m.step()
				if m.sim.Settled() {
					break
				}
			}
		}
		m.camera.Step()
		m.draw()
		return m, tick()
	}
	return m, nil
}

// adjustParam scales the selected parameter and reheats so the layout
// responds. Values the component rejects are ignored.
func (m *Model) adjustParam(factor float64) {
	if len(m.params) == 0 {
		return
	}
	p := m.params[m.selected]
	c, ok := m.sim.Component(p.component)
	if !ok {
		return
	}
	if err := c.SetParam(p.name, c.GetParams()[p.name]*factor); err != nil {
		return
	}
	m.sim.Reheat(0)
}

func (m *Model) step() {
	m.sim.Tick()
	m.energy = appendCapped(m.energy, m.sim.KineticEnergy())
	m.alpha = appendCapped(m.alpha, m.sim.Alpha())
}

func appendCapped(s []float64, v float64) []float64 {
	s = append(s, v)
	if len(s) > historyCapacity {
		s = s[1:]
	}
	return s
}

func (m *Model) fit() {
	pos := m.sim.Positions()
	pts := make([]r2.Vec, 0, len(pos))
	for _, p := range pos {
		pts = append(pts, p)
	}
	w, h := m.canvas.Dots()
	m.camera.Fit(pts, w, h)
}

// draw renders springs and links as lines and particles as discs.
func (m *Model) draw() {
	if m.camera.Following() {
		m.fit()
	}
	m.canvas.Clear()
	w, h := m.canvas.Dots()

	line := func(a, b dynamo.ID) {
		pa, okA := m.sim.Particle(a)
		pb, okB := m.sim.Particle(b)
		if !okA || !okB {
			return
		}
		x0, y0 := m.camera.Project(pa.Pos, w, h)
		x1, y1 := m.camera.Project(pb.Pos, w, h)
		m.canvas.DrawLine(x0, y0, x1, y1)
	}
	for _, sp := range m.sim.Springs() {
		line(sp.Source, sp.Target)
	}
	for _, l := range m.sim.Links() {
		line(l.Source, l.Target)
	}

	zoom := m.camera.ZoomLevel()
	m.sim.Each(func(_ dynamo.ID, p dynamo.Particle) {
		x, y := m.camera.Project(p.Pos, w, h)
		r := int(math.Min(p.Radius*zoom, 3))
		if p.Fixed {
			r = max(r, 1)
		}
		m.canvas.DrawDisc(x, y, r)
	})
}

func (m Model) status() string {
	switch {
	case m.sim.Settled():
		return StatusSettled.Render("SETTLED")
	case !m.running:
		return StatusPaused.Render("PAUSED")
	}
	return StatusRunning.Render(AnimatedSpinner(m.frame) + " RUNNING")
}

// heat is the remaining share of the cooling schedule on a log scale.
func (m Model) heat() float64 {
	cfg := m.sim.Config()
	if m.sim.Settled() || cfg.AlphaEpsilon <= 0 || cfg.InitialAlpha <= cfg.AlphaEpsilon {
		return 0
	}
	h := math.Log(m.sim.Alpha()/cfg.AlphaEpsilon) / math.Log(cfg.InitialAlpha/cfg.AlphaEpsilon)
	return math.Max(0, math.Min(h, 1))
}

func (m Model) View() string {
	canvasView := canvasStyle.Foreground(m.theme.Canvas).Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(GradientText(strings.ToUpper(m.title), m.theme.Accent, m.theme.Canvas) + "\n")
	s.WriteString(m.status() + "\n\n")

	row := func(label, value string) {
		s.WriteString(MetricLabel.Render(label) + MetricValue.Render(value) + "\n")
	}
	row("Ticks", fmt.Sprintf("%d", m.sim.Ticks()))
	row("Alpha", fmt.Sprintf("%.4f", m.sim.Alpha()))
	s.WriteString(MetricLabel.Render("Heat") + ProgressBar(m.heat(), 20) + "\n")
	row("Particles", fmt.Sprintf("%d", m.sim.Len()))
	row("Springs", fmt.Sprintf("%d", len(m.sim.Springs())))
	row("Energy", fmt.Sprintf("%.4g", m.sim.KineticEnergy()))

	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("kinetic energy"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	if len(m.alpha) > 0 {
		s.WriteString(MetricLabel.Render("Alpha hist") + SparklineChart(m.alpha, 24) + "\n")
	}

	s.WriteString("\n" + Separator(statsWidth-6) + "\nPARAMETERS\n")
	if len(m.params) == 0 {
		s.WriteString(Subtle.Render("  (none)") + "\n")
	}
	for i, p := range m.params {
		value := 0.0
		if c, ok := m.sim.Component(p.component); ok {
			value = c.GetParams()[p.name]
		}
		line := fmt.Sprintf("%-24s %.4g", p.String(), value)
		if i == m.selected {
			s.WriteString(activeStyle.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + Subtle.Render(line) + "\n")
		}
	}
	s.WriteString("\n" + KeyHint.Render("SP:pause N:step R:reheat Q:quit\nTab ↑↓:tune +-:zoom WASD:pan F:fit\nT:theme ?:help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  N        - Single tick when paused  ║
║  R        - Reheat layout            ║
║  Tab      - Cycle parameters         ║
║  Up/K     - Increase parameter (+5%) ║
║  Down/J   - Decrease parameter (-5%) ║
║  + / -    - Zoom                     ║
║  W A S D  - Pan                      ║
║  F        - Fit layout to view       ║
║  T        - Cycle themes             ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝`
