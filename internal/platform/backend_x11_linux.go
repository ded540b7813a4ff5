//go:build linux

package platform

import (
	"context"
	"fmt"
	"runtime"

	"github.com/1broseidon/overmenu/internal/keys"
	"github.com/1broseidon/overmenu/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

// X11Backend wraps an X11 connection behind the platform Backend interface.
type X11Backend struct {
	conn *x11.Connection
}

var _ Backend = (*X11Backend)(nil)

// NewX11Backend wraps an existing connection.
func NewX11Backend(conn *x11.Connection) *X11Backend {
	return &X11Backend{conn: conn}
}

// NewX11BackendFromDisplay opens a fresh X11 connection.
func NewX11BackendFromDisplay() (*X11Backend, error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &X11Backend{conn: conn}, nil
}

// Connection exposes the underlying connection for the overlay window.
func (b *X11Backend) Connection() *x11.Connection {
	return b.conn
}

// XUtil returns the underlying xgbutil connection for X11-specific operations.
func (b *X11Backend) XUtil() *xgbutil.XUtil {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.XUtil
}

// RootWindow returns the X11 root window ID.
func (b *X11Backend) RootWindow() xproto.Window {
	if b == nil || b.conn == nil {
		return 0
	}
	return b.conn.Root
}

// EventLoop starts the X11 event loop (blocking).
func (b *X11Backend) EventLoop() {
	if b != nil && b.conn != nil {
		b.conn.EventLoop()
	}
}

func (b *X11Backend) Descriptor() Descriptor {
	return Descriptor{
		Name:                       NameX11,
		Platform:                   runtime.GOOS,
		WindowType:                 WindowTypeDock,
		SupportsPointerQuery:       true,
		SupportsWindowInfo:         true,
		SupportsShortcutSimulation: true,
	}
}

// QueryPointerAndWorkArea reads the pointer and the work area of the
// monitor it is on.
func (b *X11Backend) QueryPointerAndWorkArea(ctx context.Context) (Geometry, error) {
	return callWithContext(ctx, func() (Geometry, error) {
		x, y, mon, err := b.conn.PointerMonitor()
		if err != nil {
			return Geometry{}, fmt.Errorf("%w: %v", ErrQueryFailed, err)
		}
		wa := workAreaFromRect(mon.WorkArea)
		return Geometry{Pointer: relativeTo(wa, x, y), WorkArea: wa}, nil
	})
}

// PrimaryWorkArea returns the primary monitor's work area.
func (b *X11Backend) PrimaryWorkArea(ctx context.Context) (WorkArea, error) {
	return callWithContext(ctx, func() (WorkArea, error) {
		mon, err := b.conn.PrimaryMonitor()
		if err != nil {
			return WorkArea{}, err
		}
		return workAreaFromRect(mon.WorkArea), nil
	})
}

func (b *X11Backend) QueryActiveWindowInfo(ctx context.Context) (WindowInfo, error) {
	return callWithContext(ctx, func() (WindowInfo, error) {
		info, err := b.conn.ActiveWindowInfo()
		if err != nil {
			return WindowInfo{}, fmt.Errorf("%w: %v", ErrQueryFailed, err)
		}
		return WindowInfo{Name: info.Title, AppID: info.Class}, nil
	})
}

// SimulateShortcut presses the chord through XTEST.
func (b *X11Backend) SimulateShortcut(ctx context.Context, shortcut keys.Shortcut) error {
	if shortcut.Empty() {
		return nil
	}
	syms := make([]string, 0, len(shortcut.Keys))
	for _, k := range shortcut.Keys {
		syms = append(syms, k.Keysym)
	}
	_, err := callWithContext(ctx, func() (struct{}, error) {
		return struct{}{}, b.conn.PressChord(syms)
	})
	return err
}

// Close quits the event loop, if running, and disconnects.
func (b *X11Backend) Close() error {
	if b != nil && b.conn != nil {
		b.conn.Quit()
		b.conn.Close()
	}
	return nil
}

func workAreaFromRect(r x11.Rect) WorkArea {
	return WorkArea{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}
