package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Dir returns the runtime directory used for the lock file and both sockets.
// Priority:
// 1) XDG_RUNTIME_DIR (if set)
// 2) /run/user/<uid> (if present)
// 3) <tmp>/overmenu-runtime-<uid> (created)
func Dir() (string, error) {
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return runtimeDir, nil
	}

	uid := os.Getuid()
	if runtime.GOOS != "windows" {
		runUserDir := fmt.Sprintf("/run/user/%d", uid)
		if info, err := os.Stat(runUserDir); err == nil && info.IsDir() {
			return runUserDir, nil
		}
	}

	tmpDir := filepath.Join(os.TempDir(), fmt.Sprintf("overmenu-runtime-%d", uid))
	if err := os.MkdirAll(tmpDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create runtime dir: %w", err)
	}
	return tmpDir, nil
}

func join(name string) (string, error) {
	runtimeDir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(runtimeDir, name), nil
}

// SocketPath returns the control socket used by CLI commands and by a
// second instance to reach the running one.
func SocketPath() (string, error) {
	return join("overmenu.sock")
}

// RendererSocketPath returns the socket the renderer connects to.
// OVERMENU_IPC_SOCKET overrides it.
func RendererSocketPath() (string, error) {
	if p := os.Getenv("OVERMENU_IPC_SOCKET"); p != "" {
		return p, nil
	}
	return join("overmenu-ipc.sock")
}

// LockPath returns the single-instance lock file.
func LockPath() (string, error) {
	return join("overmenu.lock")
}
