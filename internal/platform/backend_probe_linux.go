//go:build linux

package platform

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/1broseidon/overmenu/internal/geometry"
	"github.com/1broseidon/overmenu/internal/keys"
)

// ProbeBackend serves layer-shell compositors (niri, sway, river, KDE, ...)
// that have no pointer introspection API, by probing with a transient
// overlay surface from the native library.
type ProbeBackend struct {
	name     string
	lib      *geometry.NativeLibrary
	provider *geometry.Provider
	run      commandRunner
}

var _ Backend = (*ProbeBackend)(nil)

// NewProbeBackend loads the native library. Failure to find or load it is
// returned so the selector can fall back to the null backend.
func NewProbeBackend(name string, env Env, opts Options) (*ProbeBackend, error) {
	path, err := geometry.FindNativeLibrary(opts.NativeLibrary)
	if err != nil {
		return nil, err
	}
	lib, err := geometry.LoadNative(path)
	if err != nil {
		return nil, err
	}
	return &ProbeBackend{
		name:     name,
		lib:      lib,
		provider: geometry.NewProvider(lib, opts.ProbeTimeout),
		run:      newHostRunner(env),
	}, nil
}

func (b *ProbeBackend) Descriptor() Descriptor {
	return Descriptor{
		Name:                       b.name,
		Platform:                   runtime.GOOS,
		WindowType:                 WindowTypeSplash,
		SupportsPointerQuery:       true,
		SupportsWindowInfo:         b.name == NameNiri,
		SupportsShortcutSimulation: b.lib.CanSimulateKeys(),
	}
}

func (b *ProbeBackend) QueryPointerAndWorkArea(ctx context.Context) (Geometry, error) {
	sample, err := b.provider.Probe(ctx)
	if err != nil {
		if errors.Is(err, geometry.ErrBusy) {
			return Geometry{}, fmt.Errorf("%w: %v", ErrBusy, err)
		}
		return Geometry{}, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	return Geometry{
		Pointer:  PointerPosition{X: sample.X, Y: sample.Y},
		WorkArea: WorkArea{Width: sample.Width, Height: sample.Height},
	}, nil
}

func (b *ProbeBackend) QueryActiveWindowInfo(ctx context.Context) (WindowInfo, error) {
	if b.name != NameNiri {
		return WindowInfo{}, ErrUnsupported
	}
	out, err := b.run(ctx, "niri", "msg", "-j", "focused-window")
	if err != nil {
		return WindowInfo{}, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	return parseNiriFocusedWindow(out)
}

// SimulateShortcut presses the keys in order on the library's virtual
// keyboard and releases them in reverse.
func (b *ProbeBackend) SimulateShortcut(ctx context.Context, shortcut keys.Shortcut) error {
	if !b.lib.CanSimulateKeys() {
		return ErrUnsupported
	}
	var pressed []uint32
	defer func() {
		for i := len(pressed) - 1; i >= 0; i-- {
			_ = b.lib.SimulateKey(pressed[i], false)
		}
	}()
	for _, k := range shortcut.Keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := b.lib.SimulateKey(k.Evdev, true); err != nil {
			return err
		}
		pressed = append(pressed, k.Evdev)
	}
	return nil
}

func (b *ProbeBackend) Close() error {
	return b.lib.Close()
}
