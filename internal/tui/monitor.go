// Package tui is the interactive terminal renderer used by "overmenu attach".
package tui

import (
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/1broseidon/overmenu/internal/lifecycle"
)

// ErrDisconnected is returned by Run when the instance closed the channel.
var ErrDisconnected = errors.New("renderer channel closed")

// Monitor shows show-menu events and forwards key presses as renderer
// requests.
type Monitor struct {
	program *tea.Program
}

// New creates a monitor. socket is only displayed.
func New(actions Actions, socket string, opts ...tea.ProgramOption) *Monitor {
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	return &Monitor{program: tea.NewProgram(newModel(actions, socket), opts...)}
}

// ShowMenu delivers a show-menu event. Safe from any goroutine.
func (m *Monitor) ShowMenu(p lifecycle.Presentation) {
	m.program.Send(showMenuMsg{at: time.Now(), p: p})
}

// Disconnected ends the monitor after the channel closed.
func (m *Monitor) Disconnected(err error) {
	m.program.Send(disconnectedMsg{err: err})
}

// Quit stops the monitor.
func (m *Monitor) Quit() {
	m.program.Quit()
}

// Run blocks until the user detaches or the channel closes.
func (m *Monitor) Run() error {
	final, err := m.program.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(model); ok && fm.disconnected {
		if fm.disconnErr != nil {
			return fmt.Errorf("%w: %v", ErrDisconnected, fm.disconnErr)
		}
		return ErrDisconnected
	}
	return nil
}
