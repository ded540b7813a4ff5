//go:build !linux && !windows

package platform

import (
	"fmt"
	"runtime"
)

func newBackend(name string, env Env, opts Options) (Backend, error) {
	return nil, fmt.Errorf("backend %q is not available on %s", name, runtime.GOOS)
}
