//go:build windows

package platform

import "fmt"

func newBackend(name string, env Env, opts Options) (Backend, error) {
	if name != NameWindows {
		return nil, fmt.Errorf("backend %q is not available on windows", name)
	}
	b, err := NewWindowsBackend()
	if err != nil {
		return nil, err
	}
	return b, nil
}
