package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/overmenu/internal/platform"
)

const (
	eventQueueSize  = 64
	shortcutTimeout = 2 * time.Second
)

// Config wires a Controller.
type Config struct {
	Backend   platform.Backend
	NewWindow WindowFactory
	Renderer  Renderer
	Lock      Releaser
	Settings  Settings
	Logger    *slog.Logger
}

// Controller owns the overlay window and serializes every request through
// a single event loop. Public methods only enqueue work and never block on
// the backend.
type Controller struct {
	backend   platform.Backend
	newWindow WindowFactory
	renderer  Renderer
	lock      Releaser
	logger    *slog.Logger

	events chan func()
	done   chan struct{}

	// Owned by the event loop after Start.
	settings     Settings
	state        State
	window       Window
	workArea     platform.WorkArea
	pending      *ShowRequest
	probing      bool
	probeEpoch   uint64
	hideEpoch    uint64
	hideTimer    *time.Timer
	hideSeq      uint64
	lastPointer  *platform.PointerPosition
	menuPosition *platform.PointerPosition
	counters     counters

	snapMu sync.Mutex
	snap   Snapshot
}

type counters struct {
	shows, hides, selections, probeFailures, discardedProbes int
}

// NewController builds a controller in the Uninitialized state.
func NewController(cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	backend := cfg.Backend
	if backend == nil {
		backend = platform.NewNullBackend("no backend configured")
	}
	newWindow := cfg.NewWindow
	if newWindow == nil {
		newWindow = NewHeadlessWindow
	}
	settings := cfg.Settings
	if settings.ProbeTimeout <= 0 {
		settings.ProbeTimeout = DefaultSettings().ProbeTimeout
	}
	if settings.DefaultWorkArea.Width <= 0 || settings.DefaultWorkArea.Height <= 0 {
		settings.DefaultWorkArea = DefaultSettings().DefaultWorkArea
	}

	c := &Controller{
		backend:   backend,
		newWindow: newWindow,
		renderer:  cfg.Renderer,
		lock:      cfg.Lock,
		logger:    logger,
		events:    make(chan func(), eventQueueSize),
		done:      make(chan struct{}),
		settings:  settings,
	}
	c.publish()
	return c
}

// SetRenderer attaches the renderer. It must be called before Run.
func (c *Controller) SetRenderer(r Renderer) {
	c.renderer = r
}

// Start creates the hidden overlay window sized to the primary work area.
func (c *Controller) Start(ctx context.Context) error {
	if c.state != StateUninitialized {
		return fmt.Errorf("controller already started (state %s)", c.state)
	}

	wa := c.settings.DefaultWorkArea
	if p, ok := c.backend.(platform.WorkAreaProvider); ok {
		got, err := p.PrimaryWorkArea(ctx)
		switch {
		case err != nil:
			c.logger.Warn("primary work area unavailable, using default", "error", err,
				"width", wa.Width, "height", wa.Height)
		case got.Width > 0 && got.Height > 0:
			wa = got
		}
	}

	desc := c.backend.Descriptor()
	win, err := c.newWindow(wa.Rect(), desc.WindowType)
	if err != nil {
		return fmt.Errorf("create overlay window: %w", err)
	}
	c.window = win
	c.workArea = wa
	c.state = StateHidden
	c.publish()

	c.logger.Info("overlay window created", "backend", desc.Name, "window_type", desc.WindowType,
		"width", wa.Width, "height", wa.Height)
	return nil
}

// Run processes events until ctx is cancelled or Quit is called. Shutdown
// releases the window, the backend and the instance lock.
func (c *Controller) Run(ctx context.Context) error {
	if c.state == StateUninitialized {
		return errors.New("controller not started")
	}
	for {
		select {
		case <-ctx.Done():
			c.terminate("context cancelled")
			return nil
		case fn := <-c.events:
			fn()
			c.publish()
			if c.state == StateTerminated {
				return nil
			}
		}
	}
}

// Done is closed after shutdown completes.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// ShowMenu queues a show request. Requests arriving while a pointer query is
// in flight collapse into the newest one.
func (c *Controller) ShowMenu(req ShowRequest) {
	c.post(func() { c.handleShow(req) })
}

// HideWindow hides the window after delay. The menu counts as hidden
// immediately; only the physical hide is deferred.
func (c *Controller) HideWindow(delay time.Duration) {
	c.post(func() { c.handleHide(delay) })
}

// ItemSelected hides the window after the configured fade-out.
func (c *Controller) ItemSelected() {
	c.post(func() {
		if c.state == StateTerminated {
			return
		}
		c.counters.selections++
		c.handleHide(c.settings.FadeOut)
	})
}

// SimulateShortcut presses the configured shortcut through the backend.
func (c *Controller) SimulateShortcut() {
	c.post(c.handleSimulateShortcut)
}

// ShowDevTools toggles the window's debug view when enabled in settings.
func (c *Controller) ShowDevTools() {
	c.post(func() {
		if c.state == StateTerminated || c.window == nil {
			return
		}
		if !c.settings.DevTools {
			c.logger.Warn("dev tools requested but disabled in config")
			return
		}
		if err := c.window.ShowDevTools(); err != nil {
			c.logger.Warn("failed to toggle dev tools", "error", err)
			return
		}
		c.logger.Info("dev tools toggled", "state", c.state, "work_area_width", c.workArea.Width,
			"work_area_height", c.workArea.Height)
	})
}

// RendererLog records a message sent by the renderer.
func (c *Controller) RendererLog(msg string) {
	c.logger.Info(msg, "source", "renderer")
}

// UpdateSettings replaces the settings for subsequent events.
func (c *Controller) UpdateSettings(s Settings) {
	c.post(func() {
		if s.ProbeTimeout <= 0 {
			s.ProbeTimeout = c.settings.ProbeTimeout
		}
		if s.DefaultWorkArea.Width <= 0 || s.DefaultWorkArea.Height <= 0 {
			s.DefaultWorkArea = c.settings.DefaultWorkArea
		}
		c.settings = s
		c.logger.Info("settings updated", "probe_timeout", s.ProbeTimeout, "fade_out", s.FadeOut,
			"fallback", s.FallbackPosition)
	})
}

// Quit shuts the controller down.
func (c *Controller) Quit() {
	c.post(func() { c.terminate("quit requested") })
}

// Focus raises and focuses the window if it is shown, and otherwise shows
// the menu at the pointer.
func (c *Controller) Focus() {
	c.post(func() {
		if c.state == StateTerminated || c.window == nil {
			return
		}
		if c.state != StateVisible {
			c.handleShow(ShowRequest{})
			return
		}
		if err := c.window.Focus(); err != nil {
			c.logger.Debug("focus failed", "error", err)
		}
	})
}

// Snapshot returns the state as of the last processed event.
func (c *Controller) Snapshot() Snapshot {
	c.snapMu.Lock()
	defer c.snapMu.Unlock()
	return c.snap
}

func (c *Controller) post(fn func()) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.events <- fn:
		return true
	case <-c.done:
		return false
	}
}

func (c *Controller) publish() {
	s := Snapshot{
		State:           c.state,
		Backend:         c.backend.Descriptor(),
		WorkArea:        c.workArea,
		Probing:         c.probing,
		PendingShow:     c.pending != nil,
		Shows:           c.counters.shows,
		Hides:           c.counters.hides,
		Selections:      c.counters.selections,
		ProbeFailures:   c.counters.probeFailures,
		DiscardedProbes: c.counters.discardedProbes,
	}
	if c.window != nil && c.state != StateTerminated {
		s.WindowVisible = c.window.Visible()
	}
	if c.menuPosition != nil {
		p := *c.menuPosition
		s.MenuPosition = &p
	}
	c.snapMu.Lock()
	c.snap = s
	c.snapMu.Unlock()
}

func (c *Controller) handleShow(req ShowRequest) {
	if c.state == StateTerminated {
		return
	}
	c.cancelHideTimer()
	c.pending = &req
	if c.probing {
		c.logger.Debug("pointer query in flight, coalescing show request")
		return
	}
	c.startProbe()
}

func (c *Controller) startProbe() {
	c.probing = true
	c.probeEpoch = c.hideEpoch
	epoch := c.probeEpoch
	backend := c.backend
	timeout := c.settings.ProbeTimeout

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		g, err := queryGeometry(ctx, backend)
		c.post(func() { c.probeDone(epoch, g, err) })
	}()
}

func queryGeometry(ctx context.Context, backend platform.Backend) (g platform.Geometry, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: backend panic: %v", platform.ErrQueryFailed, r)
		}
	}()
	return backend.QueryPointerAndWorkArea(ctx)
}

func (c *Controller) probeDone(epoch uint64, g platform.Geometry, err error) {
	c.probing = false
	if c.state == StateTerminated {
		return
	}
	if c.pending == nil {
		c.counters.discardedProbes++
		c.logger.Debug("discarding pointer query result, show was cancelled")
		return
	}
	if epoch != c.hideEpoch {
		// A hide cancelled the show this query was for; the pending request
		// came later and gets a fresh query.
		c.counters.discardedProbes++
		c.startProbe()
		return
	}
	req := *c.pending
	c.pending = nil
	c.present(req, g, err)
}

func (c *Controller) present(req ShowRequest, g platform.Geometry, err error) {
	opts := c.settings.Menu
	if req.Options != nil {
		opts = *req.Options
	}
	opts = opts.Normalized()

	wa := c.workArea
	var (
		pos      platform.PointerPosition
		centered bool
	)
	if err == nil && g.WorkArea.Width > 0 && g.WorkArea.Height > 0 {
		wa = g.WorkArea
		pos = g.Pointer
		p := g.Pointer
		c.lastPointer = &p
	} else {
		if err == nil {
			err = fmt.Errorf("%w: empty work area", platform.ErrQueryFailed)
		}
		c.counters.probeFailures++
		c.logProbeFailure(err)
		if c.settings.FallbackPosition == FallbackLastPointer && c.lastPointer != nil &&
			inside(*c.lastPointer, wa) {
			pos = *c.lastPointer
		} else {
			centered = true
		}
	}

	if opts.CenteredMode || req.Centered {
		centered = true
	}
	if centered {
		pos = wa.Rect().Center()
	}

	if wa != c.workArea {
		if err := c.window.SetBounds(wa.Rect()); err != nil {
			c.logger.Warn("failed to resize overlay window", "error", err)
		} else {
			c.workArea = wa
		}
	}
	if err := c.window.Show(); err != nil {
		c.logger.Error("failed to show overlay window", "error", err)
		return
	}
	if err := c.window.Focus(); err != nil {
		c.logger.Debug("focus failed", "error", err)
	}

	c.state = StateVisible
	c.counters.shows++
	p := pos
	c.menuPosition = &p

	presentation := Presentation{
		Menu:       req.Menu,
		WindowSize: c.workArea,
		Options:    opts,
	}
	if !centered {
		presentation.Position = &p
	}
	if c.renderer != nil {
		if err := c.renderer.ShowMenu(presentation); err != nil {
			c.logger.Warn("failed to notify renderer", "error", err)
		}
	}
	c.logger.Debug("menu shown", "x", pos.X, "y", pos.Y, "centered", centered, "menu", req.Menu)
}

func (c *Controller) logProbeFailure(err error) {
	switch {
	case errors.Is(err, platform.ErrUnsupported):
		c.logger.Debug("pointer query unsupported, centering menu", "backend", c.backend.Descriptor().Name)
	case errors.Is(err, platform.ErrBusy):
		c.logger.Debug("pointer query busy", "error", err)
	default:
		c.logger.Warn("pointer query failed", "backend", c.backend.Descriptor().Name, "error", err)
	}
}

func inside(p platform.PointerPosition, wa platform.WorkArea) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < wa.Width && p.Y < wa.Height
}

func (c *Controller) handleHide(delay time.Duration) {
	if c.state == StateTerminated {
		return
	}
	if c.pending != nil {
		c.pending = nil
		c.hideEpoch++
	}
	if c.state != StateVisible {
		return
	}
	c.state = StateHidden
	c.hideEpoch++
	c.counters.hides++
	c.cancelHideTimer()

	if delay <= 0 {
		c.hideWindow()
		return
	}
	seq := c.hideSeq
	c.hideTimer = time.AfterFunc(delay, func() {
		c.post(func() {
			if seq != c.hideSeq || c.state != StateHidden {
				return
			}
			c.hideTimer = nil
			c.hideWindow()
		})
	})
}

func (c *Controller) hideWindow() {
	if err := c.window.Hide(); err != nil {
		c.logger.Warn("failed to hide overlay window", "error", err)
	}
}

// cancelHideTimer also invalidates a timer callback that has already fired
// and is waiting in the queue.
func (c *Controller) cancelHideTimer() {
	c.hideSeq++
	if c.hideTimer != nil {
		c.hideTimer.Stop()
		c.hideTimer = nil
	}
}

func (c *Controller) handleSimulateShortcut() {
	if c.state == StateTerminated {
		return
	}
	shortcut := c.settings.Shortcut
	if shortcut.Empty() {
		c.logger.Debug("simulate-shortcut ignored, no shortcut configured")
		return
	}
	backend := c.backend
	logger := c.logger
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("shortcut simulation panicked", "panic", r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), shortcutTimeout)
		defer cancel()
		err := backend.SimulateShortcut(ctx, shortcut)
		switch {
		case err == nil:
			logger.Debug("shortcut simulated", "shortcut", shortcut.String())
		case errors.Is(err, platform.ErrUnsupported):
			logger.Debug("shortcut simulation unsupported", "backend", backend.Descriptor().Name)
		default:
			logger.Warn("shortcut simulation failed", "shortcut", shortcut.String(), "error", err)
		}
	}()
}

func (c *Controller) terminate(reason string) {
	if c.state == StateTerminated {
		return
	}
	c.cancelHideTimer()
	c.pending = nil
	c.state = StateTerminated

	if c.window != nil {
		if err := c.window.Destroy(); err != nil {
			c.logger.Warn("failed to destroy overlay window", "error", err)
		}
	}
	if err := c.backend.Close(); err != nil {
		c.logger.Warn("failed to close backend", "error", err)
	}
	if c.lock != nil {
		if err := c.lock.Release(); err != nil {
			c.logger.Warn("failed to release instance lock", "error", err)
		}
	}
	c.publish()
	close(c.done)
	c.logger.Info("controller stopped", "reason", reason)
}
