//go:build linux

package platform

import (
	"context"
	"fmt"
	"runtime"

	"github.com/1broseidon/overmenu/internal/keys"
	"github.com/godbus/dbus/v5"
)

// GNOME Shell integration extension and Mutter D-Bus names.
const (
	gnomeShellService   = "org.gnome.Shell"
	gnomeExtensionPath  = "/org/gnome/shell/extensions/OvermenuIntegration"
	gnomeExtensionIface = "org.gnome.Shell.Extensions.OvermenuIntegration"

	mutterService   = "org.gnome.Mutter.DisplayConfig"
	mutterPath      = "/org/gnome/Mutter/DisplayConfig"
	mutterGetState  = "org.gnome.Mutter.DisplayConfig.GetCurrentState"
	mutterLayoutKey = "layout-mode"
)

// GnomeBackend uses the shell integration extension for pointer, focused
// window and key injection, and Mutter's DisplayConfig for monitor layout.
type GnomeBackend struct {
	conn      *dbus.Conn
	extension dbus.BusObject
	mutter    dbus.BusObject
}

var _ Backend = (*GnomeBackend)(nil)

// NewGnomeBackend connects to the session bus and checks the extension is
// loaded by calling it once.
func NewGnomeBackend(ctx context.Context) (*GnomeBackend, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	b := &GnomeBackend{
		conn:      conn,
		extension: conn.Object(gnomeShellService, gnomeExtensionPath),
		mutter:    conn.Object(mutterService, mutterPath),
	}
	if _, _, err := b.pointer(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("gnome shell integration extension not reachable: %w", err)
	}
	return b, nil
}

func (b *GnomeBackend) Descriptor() Descriptor {
	return Descriptor{
		Name:                       NameGnome,
		Platform:                   runtime.GOOS,
		WindowType:                 WindowTypeDock,
		SupportsPointerQuery:       true,
		SupportsWindowInfo:         true,
		SupportsShortcutSimulation: true,
	}
}

func (b *GnomeBackend) pointer(ctx context.Context) (int, int, error) {
	var x, y, mods int32
	call := b.extension.CallWithContext(ctx, gnomeExtensionIface+".GetPointer", 0)
	if err := call.Store(&x, &y, &mods); err != nil {
		return 0, 0, err
	}
	return int(x), int(y), nil
}

func (b *GnomeBackend) logicalMonitors(ctx context.Context) ([]gnomeLogical, error) {
	var (
		serial   uint32
		monitors []mutterMonitor
		logical  []mutterLogicalMonitor
		props    map[string]dbus.Variant
	)
	call := b.mutter.CallWithContext(ctx, mutterGetState, 0)
	if err := call.Store(&serial, &monitors, &logical, &props); err != nil {
		return nil, fmt.Errorf("mutter GetCurrentState: %w", err)
	}

	layoutMode := uint32(mutterLayoutLogical)
	if v, ok := props[mutterLayoutKey]; ok {
		if m, ok := v.Value().(uint32); ok {
			layoutMode = m
		}
	}
	return gnomeLogicalRects(monitors, logical, layoutMode), nil
}

func (b *GnomeBackend) QueryPointerAndWorkArea(ctx context.Context) (Geometry, error) {
	x, y, err := b.pointer(ctx)
	if err != nil {
		return Geometry{}, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	mons, err := b.logicalMonitors(ctx)
	if err != nil {
		return Geometry{}, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	if len(mons) == 0 {
		return Geometry{}, fmt.Errorf("%w: mutter reported no monitors", ErrQueryFailed)
	}

	wa := mons[0].area
	for _, m := range mons {
		if m.area.Rect().contains(x, y) {
			wa = m.area
			break
		}
	}
	return Geometry{Pointer: relativeTo(wa, x, y), WorkArea: wa}, nil
}

// PrimaryWorkArea returns the primary logical monitor.
func (b *GnomeBackend) PrimaryWorkArea(ctx context.Context) (WorkArea, error) {
	mons, err := b.logicalMonitors(ctx)
	if err != nil {
		return WorkArea{}, err
	}
	if len(mons) == 0 {
		return WorkArea{}, fmt.Errorf("mutter reported no monitors")
	}
	for _, m := range mons {
		if m.primary {
			return m.area, nil
		}
	}
	return mons[0].area, nil
}

func (b *GnomeBackend) QueryActiveWindowInfo(ctx context.Context) (WindowInfo, error) {
	var name, wmClass string
	call := b.extension.CallWithContext(ctx, gnomeExtensionIface+".GetFocusedWindow", 0)
	if err := call.Store(&name, &wmClass); err != nil {
		return WindowInfo{}, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	return WindowInfo{Name: name, AppID: wmClass}, nil
}

func (b *GnomeBackend) SimulateShortcut(ctx context.Context, shortcut keys.Shortcut) error {
	if shortcut.Empty() {
		return nil
	}
	var ok bool
	call := b.extension.CallWithContext(ctx, gnomeExtensionIface+".SimulateShortcut", 0, gdkAccelerator(shortcut))
	if err := call.Store(&ok); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("gnome shell refused to simulate %s", shortcut)
	}
	return nil
}

func (b *GnomeBackend) Close() error {
	return b.conn.Close()
}
