package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/overmenu/internal/lifecycle"
)

const maxHistory = 50

// Actions are the renderer requests the monitor can issue.
type Actions interface {
	ItemSelected() error
	SimulateShortcut() error
	HideWindow(delay time.Duration) error
	ShowDevTools() error
}

type showMenuMsg struct {
	at time.Time
	p  lifecycle.Presentation
}

type disconnectedMsg struct{ err error }

type actionResultMsg struct {
	name string
	err  error
}

type event struct {
	at time.Time
	p  lifecycle.Presentation
}

// model is the root bubbletea model of the renderer monitor.
type model struct {
	actions Actions
	socket  string
	keys    keyMap
	help    help.Model

	history []event
	sent    int
	lastAct string
	lastErr error

	disconnected bool
	disconnErr   error

	width  int
	height int
}

func newModel(actions Actions, socket string) model {
	return model{
		actions: actions,
		socket:  socket,
		keys:    defaultKeyMap(),
		help:    help.New(),
	}
}

func (m model) send(name string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return actionResultMsg{name: name, err: fn()}
	}
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case showMenuMsg:
		m.history = append(m.history, event{at: msg.at, p: msg.p})
		if len(m.history) > maxHistory {
			m.history = m.history[len(m.history)-maxHistory:]
		}
		return m, nil

	case actionResultMsg:
		m.lastAct = msg.name
		m.lastErr = msg.err
		if msg.err == nil {
			m.sent++
		}
		return m, nil

	case disconnectedMsg:
		m.disconnected = true
		m.disconnErr = msg.err
		return m, tea.Quit

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		if m.disconnected {
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Select):
			return m, m.send("item-selected", m.actions.ItemSelected)
		case key.Matches(msg, m.keys.Shortcut):
			return m, m.send("simulate-shortcut", m.actions.SimulateShortcut)
		case key.Matches(msg, m.keys.Hide):
			return m, m.send("hide-window", func() error { return m.actions.HideWindow(0) })
		case key.Matches(msg, m.keys.DevTools):
			return m, m.send("show-dev-tools", m.actions.ShowDevTools)
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	status := m.renderStatus()
	helpBar := m.help.View(m.keys)
	used := lipgloss.Height(status) + lipgloss.Height(helpBar)
	body := m.height - used - 1
	if body < 3 {
		body = 3
	}

	mapW := m.width / 2
	if mapW > 64 {
		mapW = 64
	}
	// Panes add two border rows and two border plus padding columns.
	innerH := max(body-2, 3)
	left := paneStyle.Render(m.renderLast(mapW-4, innerH))
	right := paneStyle.Render(m.renderHistory(innerH))

	return lipgloss.JoinVertical(lipgloss.Left,
		status,
		lipgloss.JoinHorizontal(lipgloss.Top, left, right),
		helpBar,
	)
}

func (m model) renderStatus() string {
	dot := okDot + " attached " + m.socket
	if m.disconnected {
		dot = offDot + " disconnected"
	}
	parts := []string{
		titleStyle.Render("overmenu"),
		dot,
		fmt.Sprintf("shows:%d", len(m.history)),
		fmt.Sprintf("sent:%d", m.sent),
	}
	if m.lastAct != "" {
		if m.lastErr != nil {
			parts = append(parts, errorStyle.Render(m.lastAct+": "+m.lastErr.Error()))
		} else {
			parts = append(parts, "last:"+m.lastAct)
		}
	}
	return statusBarStyle.Width(m.width).Render(strings.Join(parts, "  "))
}

func (m model) renderLast(width, height int) string {
	if len(m.history) == 0 {
		return dimStyle.Width(width).Render("waiting for show-menu…")
	}
	last := m.history[len(m.history)-1].p
	lines := []string{Describe(last)}
	lines = append(lines, renderMiniMap(last, width, height-1)...)
	return strings.Join(lines, "\n")
}

func (m model) renderHistory(height int) string {
	if len(m.history) == 0 {
		return dimStyle.Render("no events")
	}
	start := max(len(m.history)-height, 0)
	lines := make([]string, 0, height)
	for i := len(m.history) - 1; i >= start; i-- {
		e := m.history[i]
		lines = append(lines, dimStyle.Render(e.at.Format("15:04:05"))+" "+Describe(e.p))
	}
	return strings.Join(lines, "\n")
}

// Describe renders a presentation on one line.
func Describe(p lifecycle.Presentation) string {
	menu := p.Menu
	if menu == "" {
		menu = "(default)"
	}
	pos := "centered"
	if p.Position != nil {
		pos = fmt.Sprintf("%d,%d", p.Position.X, p.Position.Y)
	}
	var modes []string
	if p.Options.CenteredMode {
		modes = append(modes, "centered")
	}
	if p.Options.AnchoredMode {
		modes = append(modes, "anchored")
	}
	if p.Options.HoverMode {
		modes = append(modes, "hover")
	}
	s := fmt.Sprintf("show-menu menu=%s at=%s window=%dx%d zoom=%.2f",
		menu, pos, p.WindowSize.Width, p.WindowSize.Height, p.Options.ZoomFactor)
	if len(modes) > 0 {
		s += " modes=" + strings.Join(modes, ",")
	}
	if p.Options.SystemIconsChanged {
		s += " icons-changed"
	}
	return s
}
