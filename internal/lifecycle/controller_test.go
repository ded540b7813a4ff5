package lifecycle

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/1broseidon/overmenu/internal/keys"
	"github.com/1broseidon/overmenu/internal/platform"
)

type fakeBackend struct {
	mu        sync.Mutex
	geometry  platform.Geometry
	err       error
	gate      chan struct{}
	queries   int
	shortcuts []string
	closed    bool
}

func (b *fakeBackend) Descriptor() platform.Descriptor {
	return platform.Descriptor{Name: "fake", WindowType: platform.WindowTypeDock, SupportsPointerQuery: true}
}

func (b *fakeBackend) QueryPointerAndWorkArea(ctx context.Context) (platform.Geometry, error) {
	b.mu.Lock()
	b.queries++
	gate := b.gate
	b.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return platform.Geometry{}, platform.ErrQueryFailed
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.geometry, b.err
}

func (b *fakeBackend) SimulateShortcut(ctx context.Context, s keys.Shortcut) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shortcuts = append(b.shortcuts, s.String())
	return nil
}

func (b *fakeBackend) QueryActiveWindowInfo(ctx context.Context) (platform.WindowInfo, error) {
	return platform.WindowInfo{}, platform.ErrUnsupported
}

func (b *fakeBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *fakeBackend) PrimaryWorkArea(ctx context.Context) (platform.WorkArea, error) {
	return platform.WorkArea{Width: 2560, Height: 1400}, nil
}

func (b *fakeBackend) queryCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.queries
}

type recordingRenderer struct {
	mu    sync.Mutex
	shown []Presentation
}

func (r *recordingRenderer) ShowMenu(p Presentation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shown = append(r.shown, p)
	return nil
}

func (r *recordingRenderer) all() []Presentation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Presentation(nil), r.shown...)
}

type fakeLock struct {
	mu       sync.Mutex
	released bool
}

func (l *fakeLock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.released = true
	return nil
}

type harness struct {
	c        *Controller
	window   *HeadlessWindow
	renderer *recordingRenderer
	cancel   context.CancelFunc
}

func newHarness(t *testing.T, backend platform.Backend, settings Settings) *harness {
	t.Helper()
	h := &harness{renderer: &recordingRenderer{}}
	factory := func(bounds platform.Rect, windowType string) (Window, error) {
		w, _ := NewHeadlessWindow(bounds, windowType)
		h.window = w.(*HeadlessWindow)
		return w, nil
	}
	h.c = NewController(Config{
		Backend:   backend,
		NewWindow: factory,
		Renderer:  h.renderer,
		Settings:  settings,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err := h.c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go h.c.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-h.c.Done()
	})
	return h
}

func waitFor(t *testing.T, c *Controller, what string, cond func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s := c.Snapshot()
		if cond(s) {
			return s
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s; last snapshot %+v", what, c.Snapshot())
	return Snapshot{}
}

func TestShowMenu_PositionsAtPointer(t *testing.T) {
	backend := &fakeBackend{geometry: platform.Geometry{
		Pointer:  platform.PointerPosition{X: 500, Y: 300},
		WorkArea: platform.WorkArea{X: 2048, Y: 30, Width: 1920, Height: 1050},
	}}
	h := newHarness(t, backend, DefaultSettings())

	h.c.ShowMenu(ShowRequest{})
	s := waitFor(t, h.c, "visible", func(s Snapshot) bool { return s.State == StateVisible })

	if !s.WindowVisible {
		t.Fatalf("window should be visible")
	}
	if got := h.window.Bounds(); got != (platform.Rect{X: 2048, Y: 30, Width: 1920, Height: 1050}) {
		t.Fatalf("window bounds = %+v", got)
	}
	shown := h.renderer.all()
	if len(shown) != 1 {
		t.Fatalf("expected one show-menu, got %d", len(shown))
	}
	p := shown[0]
	if p.Position == nil || *p.Position != (platform.PointerPosition{X: 500, Y: 300}) {
		t.Fatalf("position = %+v", p.Position)
	}
	if p.WindowSize.Width != 1920 || p.WindowSize.Height != 1050 {
		t.Fatalf("window size = %+v", p.WindowSize)
	}
	if p.Options.ZoomFactor != 1 {
		t.Fatalf("zoom = %v", p.Options.ZoomFactor)
	}
}

func TestStart_UsesPrimaryWorkArea(t *testing.T) {
	h := newHarness(t, &fakeBackend{}, DefaultSettings())
	if got := h.window.Bounds(); got.Width != 2560 || got.Height != 1400 {
		t.Fatalf("bounds = %+v, want 2560x1400", got)
	}
	if s := h.c.Snapshot(); s.State != StateHidden || s.WindowVisible {
		t.Fatalf("after start: %+v", s)
	}
}

func TestShowMenu_NullBackendCenters(t *testing.T) {
	h := newHarness(t, platform.NewNullBackend("test"), DefaultSettings())

	h.c.ShowMenu(ShowRequest{})
	s := waitFor(t, h.c, "visible", func(s Snapshot) bool { return s.State == StateVisible })

	if s.MenuPosition == nil || *s.MenuPosition != (platform.PointerPosition{X: 960, Y: 540}) {
		t.Fatalf("menu position = %+v, want 960,540", s.MenuPosition)
	}
	if shown := h.renderer.all(); len(shown) != 1 || shown[0].Position != nil {
		t.Fatalf("expected centered show-menu with nil position, got %+v", shown)
	}
}

func TestShowMenu_TimeoutCenters(t *testing.T) {
	backend := &fakeBackend{gate: make(chan struct{})}
	settings := DefaultSettings()
	settings.ProbeTimeout = 20 * time.Millisecond
	h := newHarness(t, backend, settings)

	start := time.Now()
	h.c.ShowMenu(ShowRequest{})
	s := waitFor(t, h.c, "visible", func(s Snapshot) bool { return s.State == StateVisible })

	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("show took %v", elapsed)
	}
	// Window bounds stay at the primary work area from Start.
	if s.MenuPosition == nil || *s.MenuPosition != (platform.PointerPosition{X: 1280, Y: 700}) {
		t.Fatalf("menu position = %+v", s.MenuPosition)
	}
	if s.ProbeFailures != 1 {
		t.Fatalf("probe failures = %d", s.ProbeFailures)
	}
}

func TestShowMenu_CenteredModeOverridesPointer(t *testing.T) {
	backend := &fakeBackend{geometry: platform.Geometry{
		Pointer:  platform.PointerPosition{X: 10, Y: 10},
		WorkArea: platform.WorkArea{Width: 1000, Height: 800},
	}}
	h := newHarness(t, backend, DefaultSettings())

	h.c.ShowMenu(ShowRequest{Options: &ShowMenuOptions{CenteredMode: true}})
	s := waitFor(t, h.c, "visible", func(s Snapshot) bool { return s.State == StateVisible })
	if *s.MenuPosition != (platform.PointerPosition{X: 500, Y: 400}) {
		t.Fatalf("menu position = %+v", s.MenuPosition)
	}
}

func TestShowMenu_AnchoredFollowsPointer(t *testing.T) {
	backend := &fakeBackend{geometry: platform.Geometry{
		Pointer:  platform.PointerPosition{X: 100, Y: 200},
		WorkArea: platform.WorkArea{Width: 1000, Height: 800},
	}}
	settings := DefaultSettings()
	settings.Menu.AnchoredMode = true
	h := newHarness(t, backend, settings)

	h.c.ShowMenu(ShowRequest{})
	waitFor(t, h.c, "first show", func(s Snapshot) bool { return s.Shows == 1 })
	h.c.HideWindow(0)

	backend.mu.Lock()
	backend.geometry.Pointer = platform.PointerPosition{X: 700, Y: 600}
	backend.mu.Unlock()

	h.c.ShowMenu(ShowRequest{})
	s := waitFor(t, h.c, "second show", func(s Snapshot) bool { return s.Shows == 2 })
	if *s.MenuPosition != (platform.PointerPosition{X: 700, Y: 600}) {
		t.Fatalf("anchored position = %+v", s.MenuPosition)
	}
	h.c.HideWindow(0)

	h.c.ShowMenu(ShowRequest{Options: &ShowMenuOptions{AnchoredMode: true, CenteredMode: true}})
	s = waitFor(t, h.c, "third show", func(s Snapshot) bool { return s.Shows == 3 })
	if *s.MenuPosition != (platform.PointerPosition{X: 500, Y: 400}) {
		t.Fatalf("centered anchored position = %+v", s.MenuPosition)
	}

	shown := h.renderer.all()
	if len(shown) != 3 {
		t.Fatalf("renderer got %d show-menu messages, want 3", len(shown))
	}
	if !shown[1].Options.AnchoredMode || shown[1].Position == nil {
		t.Fatalf("second presentation = %+v", shown[1])
	}
	if shown[2].Position != nil {
		t.Fatalf("centered presentation position = %+v, want nil", shown[2].Position)
	}
}

func TestShowMenu_LastPointerFallback(t *testing.T) {
	backend := &fakeBackend{geometry: platform.Geometry{
		Pointer:  platform.PointerPosition{X: 42, Y: 24},
		WorkArea: platform.WorkArea{Width: 1000, Height: 800},
	}}
	settings := DefaultSettings()
	settings.FallbackPosition = FallbackLastPointer
	h := newHarness(t, backend, settings)

	h.c.ShowMenu(ShowRequest{})
	waitFor(t, h.c, "first show", func(s Snapshot) bool { return s.Shows == 1 })
	h.c.HideWindow(0)

	backend.mu.Lock()
	backend.err = platform.ErrQueryFailed
	backend.mu.Unlock()

	h.c.ShowMenu(ShowRequest{})
	s := waitFor(t, h.c, "second show", func(s Snapshot) bool { return s.Shows == 2 })
	if *s.MenuPosition != (platform.PointerPosition{X: 42, Y: 24}) {
		t.Fatalf("fallback position = %+v", s.MenuPosition)
	}
}

func TestShowMenu_CoalescesWhileProbing(t *testing.T) {
	gate := make(chan struct{})
	backend := &fakeBackend{gate: gate, geometry: platform.Geometry{
		Pointer:  platform.PointerPosition{X: 1, Y: 2},
		WorkArea: platform.WorkArea{Width: 100, Height: 100},
	}}
	h := newHarness(t, backend, DefaultSettings())

	h.c.ShowMenu(ShowRequest{Menu: "first"})
	waitFor(t, h.c, "probing", func(s Snapshot) bool { return s.Probing })
	h.c.ShowMenu(ShowRequest{Menu: "second"})
	h.c.ShowMenu(ShowRequest{Menu: "third"})
	close(gate)

	waitFor(t, h.c, "visible", func(s Snapshot) bool { return s.State == StateVisible })
	time.Sleep(20 * time.Millisecond)

	if n := backend.queryCount(); n != 1 {
		t.Fatalf("queries = %d, want 1", n)
	}
	shown := h.renderer.all()
	if len(shown) != 1 || shown[0].Menu != "third" {
		t.Fatalf("expected a single show for the newest request, got %+v", shown)
	}
}

func TestHideDuringProbe_DiscardsResult(t *testing.T) {
	gate := make(chan struct{})
	backend := &fakeBackend{gate: gate, geometry: platform.Geometry{
		Pointer:  platform.PointerPosition{X: 1, Y: 2},
		WorkArea: platform.WorkArea{Width: 100, Height: 100},
	}}
	h := newHarness(t, backend, DefaultSettings())

	h.c.ShowMenu(ShowRequest{})
	waitFor(t, h.c, "probing", func(s Snapshot) bool { return s.Probing })
	h.c.HideWindow(0)
	waitFor(t, h.c, "pending cleared", func(s Snapshot) bool { return !s.PendingShow })
	close(gate)

	s := waitFor(t, h.c, "probe finished", func(s Snapshot) bool { return !s.Probing })
	if s.State != StateHidden || s.WindowVisible {
		t.Fatalf("window resurrected after hide: %+v", s)
	}
	if s.DiscardedProbes != 1 {
		t.Fatalf("discarded = %d", s.DiscardedProbes)
	}
	if len(h.renderer.all()) != 0 {
		t.Fatalf("renderer should not be notified")
	}
}

func TestShowAfterHideDuringProbe_RequeriesPointer(t *testing.T) {
	gate := make(chan struct{})
	backend := &fakeBackend{gate: gate, geometry: platform.Geometry{
		Pointer:  platform.PointerPosition{X: 1, Y: 2},
		WorkArea: platform.WorkArea{Width: 100, Height: 100},
	}}
	h := newHarness(t, backend, DefaultSettings())

	h.c.ShowMenu(ShowRequest{})
	waitFor(t, h.c, "probing", func(s Snapshot) bool { return s.Probing })
	h.c.HideWindow(0)
	h.c.ShowMenu(ShowRequest{Menu: "again"})
	close(gate)

	s := waitFor(t, h.c, "visible", func(s Snapshot) bool { return s.State == StateVisible })
	if s.DiscardedProbes != 1 {
		t.Fatalf("discarded = %d", s.DiscardedProbes)
	}
	if n := backend.queryCount(); n != 2 {
		t.Fatalf("queries = %d, want 2", n)
	}
}

func TestHideWindow_Delayed(t *testing.T) {
	backend := &fakeBackend{geometry: platform.Geometry{
		Pointer:  platform.PointerPosition{X: 1, Y: 2},
		WorkArea: platform.WorkArea{Width: 100, Height: 100},
	}}
	h := newHarness(t, backend, DefaultSettings())

	h.c.ShowMenu(ShowRequest{})
	waitFor(t, h.c, "visible", func(s Snapshot) bool { return s.State == StateVisible })

	hidden := make(chan time.Time, 1)
	h.window.OnHide(func() { hidden <- time.Now() })

	start := time.Now()
	h.c.HideWindow(300 * time.Millisecond)
	s := waitFor(t, h.c, "logically hidden", func(s Snapshot) bool { return s.State == StateHidden })
	if !s.WindowVisible {
		t.Fatalf("window hid before the delay elapsed")
	}

	// Other events keep flowing while the hide is pending.
	h.c.RendererLog("still responsive")
	h.c.SimulateShortcut()

	select {
	case at := <-hidden:
		if d := at.Sub(start); d < 300*time.Millisecond {
			t.Fatalf("hid after %v, want >= 300ms", d)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("window never hidden")
	}
}

func TestHideWindow_Idempotent(t *testing.T) {
	backend := &fakeBackend{geometry: platform.Geometry{
		Pointer:  platform.PointerPosition{X: 1, Y: 2},
		WorkArea: platform.WorkArea{Width: 100, Height: 100},
	}}
	h := newHarness(t, backend, DefaultSettings())

	h.c.HideWindow(0)
	h.c.ShowMenu(ShowRequest{})
	waitFor(t, h.c, "visible", func(s Snapshot) bool { return s.State == StateVisible })
	h.c.HideWindow(0)
	h.c.HideWindow(0)
	h.c.HideWindow(50 * time.Millisecond)

	s := waitFor(t, h.c, "hidden", func(s Snapshot) bool { return s.State == StateHidden && !s.WindowVisible })
	if s.Hides != 1 {
		t.Fatalf("hides = %d, want 1", s.Hides)
	}
}

func TestShowCancelsDelayedHide(t *testing.T) {
	backend := &fakeBackend{geometry: platform.Geometry{
		Pointer:  platform.PointerPosition{X: 1, Y: 2},
		WorkArea: platform.WorkArea{Width: 100, Height: 100},
	}}
	h := newHarness(t, backend, DefaultSettings())

	h.c.ShowMenu(ShowRequest{})
	waitFor(t, h.c, "visible", func(s Snapshot) bool { return s.Shows == 1 })
	h.c.HideWindow(50 * time.Millisecond)
	h.c.ShowMenu(ShowRequest{})
	waitFor(t, h.c, "shown again", func(s Snapshot) bool { return s.Shows == 2 })

	time.Sleep(120 * time.Millisecond)
	if s := h.c.Snapshot(); s.State != StateVisible || !s.WindowVisible {
		t.Fatalf("stale hide timer fired: %+v", s)
	}
}

func TestItemSelected_HidesAfterFadeOut(t *testing.T) {
	backend := &fakeBackend{geometry: platform.Geometry{
		Pointer:  platform.PointerPosition{X: 1, Y: 2},
		WorkArea: platform.WorkArea{Width: 100, Height: 100},
	}}
	settings := DefaultSettings()
	settings.FadeOut = 30 * time.Millisecond
	h := newHarness(t, backend, settings)

	h.c.ShowMenu(ShowRequest{})
	waitFor(t, h.c, "visible", func(s Snapshot) bool { return s.State == StateVisible })
	h.c.ItemSelected()
	s := waitFor(t, h.c, "hidden", func(s Snapshot) bool { return !s.WindowVisible })
	if s.Selections != 1 || s.State != StateHidden {
		t.Fatalf("after selection: %+v", s)
	}
}

func TestSimulateShortcut_UsesConfiguredChord(t *testing.T) {
	backend := &fakeBackend{}
	settings := DefaultSettings()
	settings.Shortcut = keys.MustParse("Ctrl+Alt+T")
	h := newHarness(t, backend, settings)

	h.c.SimulateShortcut()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		backend.mu.Lock()
		n := len(backend.shortcuts)
		backend.mu.Unlock()
		if n == 1 {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}
	backend.mu.Lock()
	defer backend.mu.Unlock()
	if len(backend.shortcuts) != 1 || backend.shortcuts[0] != "Ctrl+Alt+T" {
		t.Fatalf("shortcuts = %v", backend.shortcuts)
	}
}

func TestShowDevTools_Gated(t *testing.T) {
	h := newHarness(t, &fakeBackend{}, DefaultSettings())
	h.c.ShowDevTools()
	time.Sleep(20 * time.Millisecond)
	if h.window.DevToolsOpen() {
		t.Fatalf("dev tools opened while disabled")
	}

	settings := DefaultSettings()
	settings.DevTools = true
	h.c.UpdateSettings(settings)
	h.c.ShowDevTools()
	deadline := time.Now().Add(2 * time.Second)
	for !h.window.DevToolsOpen() {
		if time.Now().After(deadline) {
			t.Fatalf("dev tools not opened")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestFocus_ShowsWhenHidden(t *testing.T) {
	backend := &fakeBackend{geometry: platform.Geometry{
		Pointer:  platform.PointerPosition{X: 300, Y: 250},
		WorkArea: platform.WorkArea{Width: 1000, Height: 800},
	}}
	h := newHarness(t, backend, DefaultSettings())

	h.c.Focus()
	s := waitFor(t, h.c, "visible", func(s Snapshot) bool { return s.State == StateVisible })
	if !s.WindowVisible || s.Shows != 1 {
		t.Fatalf("snapshot after focus = %+v", s)
	}
	if *s.MenuPosition != (platform.PointerPosition{X: 300, Y: 250}) {
		t.Fatalf("menu position = %+v", s.MenuPosition)
	}

	// Focusing a visible window does not present the menu again.
	h.c.Focus()
	h.c.ItemSelected()
	waitFor(t, h.c, "hidden", func(s Snapshot) bool { return s.State == StateHidden })
	if got := len(h.renderer.all()); got != 1 {
		t.Fatalf("renderer got %d show-menu messages, want 1", got)
	}
}

func TestQuit_ReleasesResources(t *testing.T) {
	backend := &fakeBackend{}
	lock := &fakeLock{}
	var window *HeadlessWindow
	c := NewController(Config{
		Backend: backend,
		Lock:    lock,
		NewWindow: func(bounds platform.Rect, windowType string) (Window, error) {
			w, _ := NewHeadlessWindow(bounds, windowType)
			window = w.(*HeadlessWindow)
			return w, nil
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(context.Background()) }()

	c.Quit()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return")
	}

	if !window.Destroyed() || !backend.closed || !lock.released {
		t.Fatalf("destroyed=%v closed=%v released=%v", window.Destroyed(), backend.closed, lock.released)
	}
	if s := c.Snapshot(); s.State != StateTerminated {
		t.Fatalf("state = %s", s.State)
	}

	// Requests after shutdown are dropped without blocking.
	c.ShowMenu(ShowRequest{})
	c.HideWindow(0)
}

func TestRun_RequiresStart(t *testing.T) {
	c := NewController(Config{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	if err := c.Run(context.Background()); err == nil {
		t.Fatalf("expected error before Start")
	}
}

func TestShowMenuOptions_Normalized(t *testing.T) {
	if got := (ShowMenuOptions{}).Normalized().ZoomFactor; got != 1 {
		t.Fatalf("zoom = %v", got)
	}
	if got := (ShowMenuOptions{ZoomFactor: 1.5}).Normalized().ZoomFactor; got != 1.5 {
		t.Fatalf("zoom = %v", got)
	}
}

func TestState_TextRoundTrip(t *testing.T) {
	for st := StateUninitialized; st <= StateTerminated; st++ {
		text, _ := st.MarshalText()
		var got State
		if err := got.UnmarshalText(text); err != nil || got != st {
			t.Fatalf("round trip %s = %s, %v", st, got, err)
		}
	}
	var s State
	if err := s.UnmarshalText([]byte("floating")); err == nil {
		t.Fatalf("expected error for unknown state")
	}
}
