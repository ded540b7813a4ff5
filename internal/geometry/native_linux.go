//go:build linux

package geometry

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/purego"
)

// NativeLibrary binds the compiled layer-shell probe through dlopen.
type NativeLibrary struct {
	path   string
	handle uintptr

	create      func() uintptr
	read        func(handle uintptr, timeoutMs int32, x, y, w, h *int32) int32
	destroy     func(handle uintptr)
	simulateKey func(code uint32, down bool) int32

	closeOnce sync.Once
}

// LoadNative dlopens path and resolves the probe symbols. A missing required
// symbol is an error; the key injection symbol is optional.
func LoadNative(path string) (*NativeLibrary, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return nil, fmt.Errorf("%w: dlopen %s: %v", ErrNativeUnavailable, path, err)
	}

	lib := &NativeLibrary{path: path, handle: handle}
	required := []struct {
		name string
		fptr any
	}{
		{symProbeCreate, &lib.create},
		{symProbeRead, &lib.read},
		{symProbeDestroy, &lib.destroy},
	}
	for _, r := range required {
		if err := registerFunc(handle, r.fptr, r.name); err != nil {
			purego.Dlclose(handle)
			return nil, fmt.Errorf("%w: %s: %v", ErrNativeUnavailable, path, err)
		}
	}
	if err := registerFunc(handle, &lib.simulateKey, symSimulateKey); err != nil {
		lib.simulateKey = nil
	}

	return lib, nil
}

func registerFunc(lib uintptr, fptr any, name string) error {
	sym, err := purego.Dlsym(lib, name)
	if err != nil {
		return fmt.Errorf("missing symbol %s: %w", name, err)
	}
	purego.RegisterFunc(fptr, sym)
	return nil
}

// Path returns the file the library was loaded from.
func (l *NativeLibrary) Path() string {
	return l.path
}

// CreateSurface maps a new probe surface.
func (l *NativeLibrary) CreateSurface(ctx context.Context) (Surface, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h := l.create()
	if h == 0 {
		return nil, fmt.Errorf("%s returned no surface", symProbeCreate)
	}
	return &nativeSurface{lib: l, handle: h}, nil
}

// CanSimulateKeys reports whether the library exports key injection.
func (l *NativeLibrary) CanSimulateKeys() bool {
	return l.simulateKey != nil
}

// SimulateKey presses or releases one evdev key on the library's virtual keyboard.
func (l *NativeLibrary) SimulateKey(code uint32, down bool) error {
	if l.simulateKey == nil {
		return ErrNoVirtualKeyboard
	}
	if rc := l.simulateKey(code, down); rc != 0 {
		return fmt.Errorf("%s(%d, %v) failed with code %d", symSimulateKey, code, down, rc)
	}
	return nil
}

// Close unloads the library.
func (l *NativeLibrary) Close() error {
	var err error
	l.closeOnce.Do(func() {
		err = purego.Dlclose(l.handle)
	})
	return err
}

type nativeSurface struct {
	lib       *NativeLibrary
	handle    uintptr
	destroyed bool
}

// Read blocks inside the library for at most the time left on ctx, so it
// always returns before Destroy can run.
func (s *nativeSurface) Read(ctx context.Context) (Sample, error) {
	timeout := timeoutMillis(ctx)
	if timeout <= 0 {
		return Sample{}, context.DeadlineExceeded
	}

	var x, y, w, h int32
	switch rc := s.lib.read(s.handle, timeout, &x, &y, &w, &h); rc {
	case readOK:
		return Sample{X: int(x), Y: int(y), Width: int(w), Height: int(h)}, nil
	case readTimeout:
		return Sample{}, context.DeadlineExceeded
	default:
		return Sample{}, fmt.Errorf("%s failed with code %d", symProbeRead, rc)
	}
}

func (s *nativeSurface) Destroy() error {
	if s.destroyed {
		return nil
	}
	s.destroyed = true
	s.lib.destroy(s.handle)
	return nil
}

func timeoutMillis(ctx context.Context) int32 {
	deadline, ok := ctx.Deadline()
	if !ok {
		return int32(DefaultTimeout / time.Millisecond)
	}
	ms := time.Until(deadline).Milliseconds()
	if ms > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(ms)
}
