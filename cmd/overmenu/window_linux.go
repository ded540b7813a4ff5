//go:build linux

package main

import (
	"log/slog"

	"github.com/1broseidon/overmenu/internal/lifecycle"
	"github.com/1broseidon/overmenu/internal/platform"
	"github.com/1broseidon/overmenu/internal/x11"
)

const overlayTitle = "overmenu"

// overlayWindow adapts the X11 overlay to lifecycle.Window.
type overlayWindow struct {
	o         *x11.Overlay
	destroyed bool
}

func toX11Rect(r platform.Rect) x11.Rect {
	return x11.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

func (w *overlayWindow) SetBounds(bounds platform.Rect) error {
	if w.destroyed {
		return lifecycle.ErrWindowDestroyed
	}
	return w.o.SetBounds(toX11Rect(bounds))
}

func (w *overlayWindow) Show() error {
	if w.destroyed {
		return lifecycle.ErrWindowDestroyed
	}
	return w.o.Show()
}

func (w *overlayWindow) Hide() error {
	if w.destroyed {
		return nil
	}
	return w.o.Hide()
}

func (w *overlayWindow) Focus() error {
	if w.destroyed {
		return lifecycle.ErrWindowDestroyed
	}
	return w.o.Focus()
}

func (w *overlayWindow) ShowDevTools() error {
	if w.destroyed {
		return lifecycle.ErrWindowDestroyed
	}
	return w.o.ToggleDebug()
}

func (w *overlayWindow) Destroy() error {
	if w.destroyed {
		return nil
	}
	w.destroyed = true
	return w.o.Destroy()
}

func (w *overlayWindow) Visible() bool {
	return !w.destroyed && w.o.Visible()
}

// windowFactory returns an X11 overlay factory when backend owns an X
// connection. Other backends leave drawing to the renderer process.
func windowFactory(backend platform.Backend, logger *slog.Logger) lifecycle.WindowFactory {
	xb, ok := backend.(*platform.X11Backend)
	if !ok {
		return lifecycle.NewHeadlessWindow
	}
	return func(bounds platform.Rect, windowType string) (lifecycle.Window, error) {
		o, err := x11.NewOverlay(xb.Connection(), overlayTitle, windowType, toX11Rect(bounds))
		if err != nil {
			return nil, err
		}
		logger.Debug("x11 overlay created", "window", o.Window(), "argb", o.ARGB())
		return &overlayWindow{o: o}, nil
	}
}

// startEventLoop runs the X event loop for X11 backends. The loop ends when
// the backend is closed.
func startEventLoop(backend platform.Backend) {
	if xb, ok := backend.(*platform.X11Backend); ok {
		go xb.EventLoop()
	}
}
