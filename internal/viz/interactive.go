package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/forcesim/internal/config"
	"github.com/san-kum/forcesim/internal/experiment"
	"github.com/san-kum/forcesim/internal/graph"
)

var (
	cyan = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	dim  = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	red  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

var generatorInfo = map[string]string{
	"ring":   "cycle of n nodes",
	"grid":   "square lattice",
	"tree":   "random tree",
	"star":   "hub and spokes",
	"random": "sparse random graph",
}

const (
	stateMenu = iota
	stateSim
)

// App lets the user pick a generated graph and size, then runs it in a
// live Model. Esc returns to the menu.
type App struct {
	state  int
	cursor int
	kinds  []string
	size   int
	seed   uint64
	cfg    *config.Config
	live   Model
	err    error
}

func NewApp(cfg *config.Config) App {
	return App{
		kinds: graph.Generators(),
		size:  30,
		seed:  cfg.Placement.Seed,
		cfg:   cfg,
	}
}

func (a App) Init() tea.Cmd { return nil }

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.state == stateSim {
		if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
			a.state = stateMenu
			return a, nil
		}
		next, cmd := a.live.Update(msg)
		a.live = next.(Model)
		return a, cmd
	}

	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}
	switch k.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "up", "k":
		a.cursor = (a.cursor + len(a.kinds) - 1) % len(a.kinds)
	case "down", "j":
		a.cursor = (a.cursor + 1) % len(a.kinds)
	case "right", "l":
		a.size = min(a.size*2, 4096)
	case "left", "h":
		a.size = max(a.size/2, 2)
	case "enter":
		return a.start()
	}
	return a, nil
}

func (a App) start() (tea.Model, tea.Cmd) {
	kind := a.kinds[a.cursor]
	g, err := graph.Generate(kind, a.size, a.seed)
	if err != nil {
		a.err = err
		return a, nil
	}
	exp, err := experiment.New(a.cfg, g)
	if err != nil {
		a.err = err
		return a, nil
	}
	a.err = nil
	a.seed++
	a.live = NewModel(exp.Simulation(), fmt.Sprintf("%s %d", kind, a.size))
	a.state = stateSim
	return a, a.live.Init()
}

func (a App) View() string {
	if a.state == stateSim {
		return a.live.View()
	}

	var s strings.Builder
	s.WriteString(cyan.Bold(true).Render("FORCESIM") + "\n\n")
	for i, kind := range a.kinds {
		cursor := "  "
		name := kind
		if i == a.cursor {
			cursor = cyan.Render("> ")
			name = cyan.Render(kind)
		}
		s.WriteString(fmt.Sprintf("%s%-10s %s\n", cursor, name, dim.Render(generatorInfo[kind])))
	}
	s.WriteString(fmt.Sprintf("\n  nodes: %s\n", cyan.Render(fmt.Sprint(a.size))))
	if a.err != nil {
		s.WriteString("\n  " + red.Render(a.err.Error()) + "\n")
	}
	s.WriteString("\n" + dim.Render("↑↓:select ←→:size enter:start esc:back q:quit"))
	return s.String()
}

// Current returns the live model once a graph is running.
func (a App) Current() (Model, bool) { return a.live, a.state == stateSim }
