//go:build !linux

package geometry

import (
	"context"
	"fmt"
)

// NativeLibrary is only available on Linux.
type NativeLibrary struct{}

// LoadNative always fails off Linux.
func LoadNative(path string) (*NativeLibrary, error) {
	return nil, fmt.Errorf("%w: layer-shell probing is Linux only", ErrNativeUnavailable)
}

func (l *NativeLibrary) Path() string { return "" }

func (l *NativeLibrary) CreateSurface(ctx context.Context) (Surface, error) {
	return nil, ErrNativeUnavailable
}

func (l *NativeLibrary) CanSimulateKeys() bool { return false }

func (l *NativeLibrary) SimulateKey(code uint32, down bool) error { return ErrNoVirtualKeyboard }

func (l *NativeLibrary) Close() error { return nil }
