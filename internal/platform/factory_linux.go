//go:build linux

package platform

import (
	"context"
	"fmt"
	"time"
)

const constructTimeout = 2 * time.Second

func newBackend(name string, env Env, opts Options) (Backend, error) {
	ctx, cancel := context.WithTimeout(context.Background(), constructTimeout)
	defer cancel()

	var (
		b   Backend
		err error
	)
	switch name {
	case NameX11:
		var xb *X11Backend
		if xb, err = NewX11BackendFromDisplay(); err == nil {
			b = xb
		}
	case NameHyprland:
		var hb *HyprlandBackend
		if hb, err = NewHyprlandBackend(ctx, env); err == nil {
			b = hb
		}
	case NameGnome:
		var gb *GnomeBackend
		if gb, err = NewGnomeBackend(ctx); err == nil {
			b = gb
		}
	case NameNiri, NameWlroots:
		var pb *ProbeBackend
		if pb, err = NewProbeBackend(name, env, opts); err == nil {
			b = pb
		}
	default:
		err = fmt.Errorf("backend %q is not available on linux", name)
	}
	return b, err
}
