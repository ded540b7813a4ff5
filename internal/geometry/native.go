package geometry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// NativeLibraryName is the file name searched for when no explicit path is configured.
const NativeLibraryName = "libovermenu-probe.so"

// NativeLibraryEnv overrides the library search.
const NativeLibraryEnv = "OVERMENU_NATIVE_LIB"

// Symbols the native library must export.
const (
	symProbeCreate  = "overmenu_probe_create"
	symProbeRead    = "overmenu_probe_read"
	symProbeDestroy = "overmenu_probe_destroy"
	// optional
	symSimulateKey = "overmenu_simulate_key"
)

// Return codes of overmenu_probe_read.
const (
	readOK      = 0
	readTimeout = 1
)

var (
	// ErrNativeUnavailable means no usable native library was found or it
	// could not be loaded on this platform.
	ErrNativeUnavailable = errors.New("native geometry library unavailable")
	// ErrNoVirtualKeyboard means the loaded library has no key injection.
	ErrNoVirtualKeyboard = errors.New("native library has no virtual keyboard")
)

// FindNativeLibrary resolves the library path. Order: configured path,
// $OVERMENU_NATIVE_LIB, next to the executable, /usr/lib/overmenu,
// /usr/local/lib/overmenu.
func FindNativeLibrary(configured string) (string, error) {
	if configured != "" {
		if _, err := os.Stat(configured); err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrNativeUnavailable, configured, err)
		}
		return configured, nil
	}

	var candidates []string
	if env := os.Getenv(NativeLibraryEnv); env != "" {
		candidates = append(candidates, env)
	}
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), NativeLibraryName))
	}
	candidates = append(candidates,
		filepath.Join("/usr/lib/overmenu", NativeLibraryName),
		filepath.Join("/usr/local/lib/overmenu", NativeLibraryName),
	)

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %s not found", ErrNativeUnavailable, NativeLibraryName)
}
