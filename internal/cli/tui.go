package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/grephite/pkg/errors"
	"github.com/matzehuels/grephite/pkg/graph"
	"github.com/matzehuels/grephite/pkg/render"
	"github.com/matzehuels/grephite/pkg/script"
	"github.com/matzehuels/grephite/pkg/sim"
)

// Viewer styles
var (
	viewerTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	viewerPanelStyle  = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(colorDim)
	viewerLabelStyle  = lipgloss.NewStyle().Foreground(colorGray)
	viewerActiveStyle = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	viewerErrorStyle  = lipgloss.NewStyle().Foreground(colorRed)
)

const (
	sidebarWidth = 28
	speedFactor  = 2.0
	forceFactor  = 1.25
)

// =============================================================================
// Key bindings
// =============================================================================

type viewerKeys struct {
	Quit        key.Binding
	Help        key.Binding
	Physics     key.Binding
	NextNode    key.Binding
	PrevNode    key.Binding
	Path        key.Binding
	ClearPath   key.Binding
	ScriptUp    key.Binding
	ScriptDown  key.Binding
	Load        key.Binding
	Step        key.Binding
	Run         key.Binding
	Stop        key.Binding
	Faster      key.Binding
	Slower      key.Binding
	MoreGravity key.Binding
	LessGravity key.Binding
	MoreRepel   key.Binding
	LessRepel   key.Binding
	Delete      key.Binding
}

var defaultViewerKeys = viewerKeys{
	Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Physics:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "physics")),
	NextNode:    key.NewBinding(key.WithKeys("tab", "right", "l"), key.WithHelp("tab", "next node")),
	PrevNode:    key.NewBinding(key.WithKeys("shift+tab", "left", "h"), key.WithHelp("shift+tab", "prev node")),
	Path:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "paths from node")),
	ClearPath:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear paths")),
	ScriptUp:    key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "prev script")),
	ScriptDown:  key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next script")),
	Load:        key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "load script")),
	Step:        key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "step")),
	Run:         key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "run/pause")),
	Stop:        key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop script")),
	Faster:      key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "faster")),
	Slower:      key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "slower")),
	MoreGravity: key.NewBinding(key.WithKeys("G"), key.WithHelp("G/g", "gravity")),
	LessGravity: key.NewBinding(key.WithKeys("g")),
	MoreRepel:   key.NewBinding(key.WithKeys("R"), key.WithHelp("R/r", "repulsion")),
	LessRepel:   key.NewBinding(key.WithKeys("r")),
	Delete:      key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete node")),
}

func (k viewerKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Physics, k.Path, k.Load, k.Step, k.Run, k.Help, k.Quit}
}

func (k viewerKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextNode, k.PrevNode, k.Path, k.ClearPath, k.Delete},
		{k.ScriptUp, k.ScriptDown, k.Load, k.Step, k.Run, k.Stop},
		{k.Physics, k.MoreGravity, k.MoreRepel, k.Faster, k.Slower},
		{k.Help, k.Quit},
	}
}

// =============================================================================
// Messages
// =============================================================================

type frameTickMsg time.Time

// scriptsMsg carries a fresh listing of the scripts directory.
type scriptsMsg []string

func frameTick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg { return frameTickMsg(t) })
}

// waitForScripts delivers the next directory listing from the watcher.
func waitForScripts(ch <-chan []string) tea.Cmd {
	return func() tea.Msg {
		names, ok := <-ch
		if !ok {
			return nil
		}
		return scriptsMsg(names)
	}
}

// =============================================================================
// Model
// =============================================================================

// viewerModel is the bubbletea model of the interactive viewer. It owns the
// tick cadence: every frame tick advances the world by the elapsed time.
type viewerModel struct {
	ctx      context.Context
	world    *sim.World
	lib      *script.Library
	interval time.Duration
	updates  <-chan []string

	keys viewerKeys
	help help.Model

	frame    sim.Frame
	last     time.Time
	selected int
	scripts  []string
	cursor   int
	status   string
	failed   bool

	width, height int
}

func newViewerModel(ctx context.Context, w *sim.World, lib *script.Library, scripts []string, interval time.Duration, updates <-chan []string) viewerModel {
	return viewerModel{
		ctx:      ctx,
		world:    w,
		lib:      lib,
		interval: interval,
		updates:  updates,
		keys:     defaultViewerKeys,
		help:     help.New(),
		frame:    w.View(),
		scripts:  scripts,
		width:    80,
		height:   24,
	}
}

func (m viewerModel) Init() tea.Cmd {
	cmds := []tea.Cmd{frameTick(m.interval)}
	if m.updates != nil {
		cmds = append(cmds, waitForScripts(m.updates))
	}
	return tea.Batch(cmds...)
}

func (m viewerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width

	case frameTickMsg:
		now := time.Time(msg)
		dt := m.interval
		if !m.last.IsZero() {
			dt = now.Sub(m.last)
		}
		m.last = now
		rep := m.world.Tick(m.ctx, dt)
		if rep.ScriptErr != nil {
			m.setStatus(errors.UserMessage(rep.ScriptErr)+": "+causeOf(rep.ScriptErr), true)
		}
		m.frame = m.world.View()
		m.clampSelection()
		return m, frameTick(m.interval)

	case scriptsMsg:
		m.scripts = msg
		m.cursor = min(m.cursor, max(len(m.scripts)-1, 0))
		return m, waitForScripts(m.updates)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m viewerModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	hosts := m.world.Scripts()
	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit
	case key.Matches(msg, k.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, k.Physics):
		on := !m.world.LayoutParams().Enabled
		m.world.SetPhysics(on)
		m.setStatus("physics "+onOff(on), false)
	case key.Matches(msg, k.MoreGravity), key.Matches(msg, k.LessGravity):
		p := m.world.LayoutParams()
		p.Gravity = scaleBy(p.Gravity, key.Matches(msg, k.MoreGravity))
		m.world.SetLayoutParams(p)
		m.setStatus("gravity "+formatFloat(p.Gravity), false)
	case key.Matches(msg, k.MoreRepel), key.Matches(msg, k.LessRepel):
		p := m.world.LayoutParams()
		p.Repulsion = scaleBy(p.Repulsion, key.Matches(msg, k.MoreRepel))
		m.world.SetLayoutParams(p)
		m.setStatus("repulsion "+formatFloat(p.Repulsion), false)

	case key.Matches(msg, k.NextNode):
		m.moveSelection(1)
	case key.Matches(msg, k.PrevNode):
		m.moveSelection(-1)
	case key.Matches(msg, k.Path):
		if id, ok := m.selectedID(); ok {
			m.world.RequestPath(id)
			m.setStatus(fmt.Sprintf("paths from node %d", m.frame.Nodes[m.selected].Label), false)
		}
	case key.Matches(msg, k.ClearPath):
		m.world.ClearPath()
		m.setStatus("paths cleared", false)
	case key.Matches(msg, k.Delete):
		if id, ok := m.selectedID(); ok {
			label := m.frame.Nodes[m.selected].Label
			m.world.DeleteNode(id)
			m.frame = m.world.View()
			m.clampSelection()
			m.setStatus(fmt.Sprintf("deleted node %d", label), false)
		}

	case key.Matches(msg, k.ScriptUp):
		m.cursor = max(m.cursor-1, 0)
	case key.Matches(msg, k.ScriptDown):
		m.cursor = min(m.cursor+1, max(len(m.scripts)-1, 0))
	case key.Matches(msg, k.Load):
		m.loadSelected()
	case key.Matches(msg, k.Step):
		if hosts.State() == script.Idle {
			m.setStatus("no script loaded", true)
			break
		}
		m.world.RequestStep()
	case key.Matches(msg, k.Run):
		m.setStatus("auto-run "+onOff(hosts.Toggle()), false)
	case key.Matches(msg, k.Stop):
		hosts.Stop()
		m.setStatus("script stopped", false)
	case key.Matches(msg, k.Faster):
		m.setStatus(fmt.Sprintf("%.1f steps/s", hosts.SetSpeed(hosts.Speed()*speedFactor)), false)
	case key.Matches(msg, k.Slower):
		m.setStatus(fmt.Sprintf("%.1f steps/s", hosts.SetSpeed(hosts.Speed()/speedFactor)), false)
	}
	return m, nil
}

func (m *viewerModel) loadSelected() {
	if len(m.scripts) == 0 {
		m.setStatus("no scripts in "+m.lib.Dir(), true)
		return
	}
	name := m.scripts[m.cursor]
	src, err := m.lib.Read(name)
	if err == nil {
		err = m.world.LoadScript(m.ctx, name, src)
	}
	if err != nil {
		m.setStatus(errors.UserMessage(err)+": "+causeOf(err), true)
		return
	}
	m.setStatus("loaded "+name, false)
}

func (m *viewerModel) setStatus(s string, failed bool) {
	m.status, m.failed = s, failed
}

func (m *viewerModel) moveSelection(delta int) {
	n := len(m.frame.Nodes)
	if n == 0 {
		return
	}
	m.selected = ((m.selected+delta)%n + n) % n
}

func (m *viewerModel) clampSelection() {
	m.selected = min(m.selected, max(len(m.frame.Nodes)-1, 0))
}

func (m viewerModel) selectedID() (graph.NodeID, bool) {
	if m.selected >= len(m.frame.Nodes) {
		return 0, false
	}
	return m.frame.Nodes[m.selected].ID, true
}

// =============================================================================
// View
// =============================================================================

func (m viewerModel) View() string {
	helpView := m.help.View(m.keys)
	canvasW := max(m.width-sidebarWidth-4, 10)
	canvasH := max(m.height-lipgloss.Height(helpView)-4, 5)

	sel, _ := m.selectedID()
	graphView := viewerPanelStyle.Render(drawFrame(m.frame, canvasW, canvasH, sel, render.ColorAuto))
	sidebar := viewerPanelStyle.Width(sidebarWidth).Height(canvasH).Render(m.sidebar())

	status := StyleDim.Render(m.status)
	if m.failed {
		status = viewerErrorStyle.Render(m.status)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, graphView, sidebar),
		status,
		helpView,
	)
}

func (m viewerModel) sidebar() string {
	f := m.frame
	var b strings.Builder
	b.WriteString(viewerTitleStyle.Render(appName))
	b.WriteString("\n\n")

	row := func(k, v string) {
		b.WriteString(viewerLabelStyle.Render(fmt.Sprintf("%-9s", k)) + " " + v + "\n")
	}
	row("tick", fmt.Sprint(f.Tick))
	row("nodes", fmt.Sprint(len(f.Nodes)))
	row("edges", fmt.Sprint(len(f.Edges)))
	row("physics", onOff(f.Physics))

	if len(f.Nodes) > 0 && m.selected < len(f.Nodes) {
		n := f.Nodes[m.selected]
		row("node", fmt.Sprint(n.Label))
		row("color", swatch(n.Color))
		if f.HasPath {
			d := 0.0
			if n.Distance != nil {
				d = *n.Distance
			}
			row("distance", formatDistance(d, n.Reachable))
		}
	}

	b.WriteString("\n")
	name := f.ScriptName
	if name == "" {
		name = iconNone
	}
	row("script", name)
	row("state", f.ScriptStatus)
	row("speed", fmt.Sprintf("%.1f/s", f.Speed))

	b.WriteString("\n")
	b.WriteString(viewerLabelStyle.Render("scripts") + "\n")
	if len(m.scripts) == 0 {
		b.WriteString(StyleDim.Render("  (none)") + "\n")
	}
	for i, s := range m.scripts {
		switch {
		case i == m.cursor:
			b.WriteString(viewerActiveStyle.Render("▸ "+s) + "\n")
		default:
			b.WriteString("  " + s + "\n")
		}
	}
	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

// scaleBy grows or shrinks a force constant, lifting zero so it can grow.
func scaleBy(v float64, up bool) float64 {
	if up {
		return max(v*forceFactor, 0.01)
	}
	return v / forceFactor
}

// causeOf returns the innermost message of err, usually the Lua error.
func causeOf(err error) string {
	var e *errors.Error
	if stderrors.As(err, &e) && e.Cause != nil {
		return e.Cause.Error()
	}
	return ""
}
