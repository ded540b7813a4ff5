package platform

import (
	"context"
	"runtime"

	"github.com/1broseidon/overmenu/internal/keys"
)

// NullBackend is installed when nothing else matches. Every capability
// returns ErrUnsupported.
type NullBackend struct {
	reason string
}

var _ Backend = (*NullBackend)(nil)

// NewNullBackend returns a null backend; reason is kept for diagnostics.
func NewNullBackend(reason string) *NullBackend {
	return &NullBackend{reason: reason}
}

// Reason explains why the null backend was selected.
func (b *NullBackend) Reason() string {
	return b.reason
}

func (b *NullBackend) Descriptor() Descriptor {
	return Descriptor{Name: NameNull, Platform: runtime.GOOS, WindowType: WindowTypeSplash}
}

func (b *NullBackend) QueryPointerAndWorkArea(ctx context.Context) (Geometry, error) {
	return Geometry{}, ErrUnsupported
}

func (b *NullBackend) SimulateShortcut(ctx context.Context, shortcut keys.Shortcut) error {
	return ErrUnsupported
}

func (b *NullBackend) QueryActiveWindowInfo(ctx context.Context) (WindowInfo, error) {
	return WindowInfo{}, ErrUnsupported
}

func (b *NullBackend) Close() error {
	return nil
}
