package lifecycle

import (
	"errors"
	"sync"

	"github.com/1broseidon/overmenu/internal/platform"
)

// ErrWindowDestroyed is returned by window operations after Destroy.
var ErrWindowDestroyed = errors.New("window destroyed")

// Window is the overlay window the controller owns.
type Window interface {
	SetBounds(bounds platform.Rect) error
	Show() error
	Hide() error
	Focus() error
	ShowDevTools() error
	Destroy() error
	Visible() bool
}

// WindowFactory creates the overlay window, initially hidden.
type WindowFactory func(bounds platform.Rect, windowType string) (Window, error)

// Renderer receives show-menu events.
type Renderer interface {
	ShowMenu(p Presentation) error
}

// Releaser is the instance lock as seen by the controller.
type Releaser interface {
	Release() error
}

// HeadlessWindow tracks window state without drawing anything. It is used
// where the renderer owns its own surface, and in tests.
type HeadlessWindow struct {
	mu         sync.Mutex
	bounds     platform.Rect
	windowType string
	visible    bool
	destroyed  bool
	devTools   bool
	shows      int
	hides      int
	onHide     func()
}

// NewHeadlessWindow is a WindowFactory.
func NewHeadlessWindow(bounds platform.Rect, windowType string) (Window, error) {
	return &HeadlessWindow{bounds: bounds, windowType: windowType}, nil
}

func (w *HeadlessWindow) SetBounds(bounds platform.Rect) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return ErrWindowDestroyed
	}
	w.bounds = bounds
	return nil
}

func (w *HeadlessWindow) Show() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return ErrWindowDestroyed
	}
	w.visible = true
	w.shows++
	return nil
}

func (w *HeadlessWindow) Hide() error {
	w.mu.Lock()
	if w.destroyed {
		w.mu.Unlock()
		return ErrWindowDestroyed
	}
	w.visible = false
	w.hides++
	onHide := w.onHide
	w.mu.Unlock()

	if onHide != nil {
		onHide()
	}
	return nil
}

func (w *HeadlessWindow) Focus() error {
	return nil
}

func (w *HeadlessWindow) ShowDevTools() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.devTools = !w.devTools
	return nil
}

func (w *HeadlessWindow) Destroy() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.destroyed = true
	w.visible = false
	return nil
}

func (w *HeadlessWindow) Visible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.visible
}

// Bounds returns the last bounds set.
func (w *HeadlessWindow) Bounds() platform.Rect {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.bounds
}

// Destroyed reports whether Destroy ran.
func (w *HeadlessWindow) Destroyed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.destroyed
}

// DevToolsOpen reports whether the debug view is toggled on.
func (w *HeadlessWindow) DevToolsOpen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.devTools
}

// OnHide registers a callback run after each Hide.
func (w *HeadlessWindow) OnHide(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onHide = fn
}
