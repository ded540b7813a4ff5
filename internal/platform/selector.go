package platform

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"
)

// Backend names, also accepted by the `backend` config key.
const (
	NameAuto     = "auto"
	NameX11      = "x11"
	NameHyprland = "hyprland"
	NameGnome    = "gnome"
	NameNiri     = "niri"
	NameWlroots  = "wlroots"
	NameWindows  = "windows"
	NameNull     = "null"
)

// Names lists every selectable backend name.
var Names = []string{NameAuto, NameX11, NameHyprland, NameGnome, NameNiri, NameWlroots, NameWindows, NameNull}

// Wayland desktops whose compositor implements wlr-layer-shell well enough
// for the overlay probe.
var layerShellDesktops = []string{"sway", "river", "labwc", "wayfire", "kde", "hyprland", "niri"}

// Env is a snapshot of the signals backend selection looks at.
type Env struct {
	GOOS              string
	Desktop           string
	SessionType       string
	WaylandDisplay    string
	Display           string
	HyprlandSignature string
	NiriSocket        string
	Container         string
}

// DetectEnv reads Env from the running process.
func DetectEnv() Env {
	return Env{
		GOOS:              runtime.GOOS,
		Desktop:           os.Getenv("XDG_CURRENT_DESKTOP"),
		SessionType:       os.Getenv("XDG_SESSION_TYPE"),
		WaylandDisplay:    os.Getenv("WAYLAND_DISPLAY"),
		Display:           os.Getenv("DISPLAY"),
		HyprlandSignature: os.Getenv("HYPRLAND_INSTANCE_SIGNATURE"),
		NiriSocket:        os.Getenv("NIRI_SOCKET"),
		Container:         os.Getenv("container"),
	}
}

// Flatpak reports whether the process runs inside a flatpak sandbox.
func (e Env) Flatpak() bool {
	return e.Container == "flatpak"
}

func (e Env) session() string {
	s := strings.ToLower(strings.TrimSpace(e.SessionType))
	switch {
	case s == "x11" || s == "wayland":
		return s
	case e.WaylandDisplay != "":
		return "wayland"
	case e.Display != "":
		return "x11"
	}
	return s
}

// desktopIs matches against the colon separated XDG_CURRENT_DESKTOP list.
func (e Env) desktopIs(names ...string) bool {
	for _, d := range strings.Split(e.Desktop, ":") {
		d = strings.ToLower(strings.TrimSpace(d))
		for _, n := range names {
			if d == n {
				return true
			}
		}
	}
	return false
}

// ValidName reports whether name is a selectable backend.
func ValidName(name string) bool {
	for _, n := range Names {
		if n == name {
			return true
		}
	}
	return false
}

// ChooseBackend decides which backend to use. It never touches the
// environment itself; reason explains the choice.
func ChooseBackend(env Env, override string) (name, reason string) {
	override = strings.ToLower(strings.TrimSpace(override))
	if override != "" && override != NameAuto {
		return override, "configured"
	}

	switch env.GOOS {
	case "windows":
		return NameWindows, "windows"
	case "linux":
	default:
		return NameNull, fmt.Sprintf("no backend for %s", env.GOOS)
	}

	switch session := env.session(); session {
	case "x11":
		return NameX11, "x11 session"
	case "wayland":
		switch {
		case env.HyprlandSignature != "" || env.desktopIs("hyprland"):
			return NameHyprland, "hyprland compositor"
		case env.NiriSocket != "" || env.desktopIs("niri"):
			return NameNiri, "niri compositor"
		case env.desktopIs("gnome", "unity", "ubuntu"):
			return NameGnome, "gnome shell on wayland"
		case env.desktopIs(layerShellDesktops...):
			return NameWlroots, "layer-shell compositor " + env.Desktop
		}
		return NameNull, fmt.Sprintf("unsupported wayland desktop %q", env.Desktop)
	case "":
		return NameNull, "no graphical session detected"
	default:
		return NameNull, fmt.Sprintf("unsupported session type %q", session)
	}
}

// Options configure backend construction.
type Options struct {
	// Override forces a backend name; empty or "auto" detects.
	Override string
	// NativeLibrary is the configured probe library path, may be empty.
	NativeLibrary string
	// ProbeTimeout bounds overlay probes.
	ProbeTimeout time.Duration
	Logger       *slog.Logger
}

// Select instantiates the backend for env. It never returns nil: any
// construction failure degrades to the null backend.
func Select(env Env, opts Options) Backend {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	name, reason := ChooseBackend(env, opts.Override)
	if name == NameNull {
		logger.Info("no platform backend, pointer queries disabled", "reason", reason)
		return NewNullBackend(reason)
	}

	b, err := newBackend(name, env, opts)
	if err != nil {
		logger.Warn("platform backend unavailable, falling back to null backend", "backend", name, "error", err)
		return NewNullBackend(fmt.Sprintf("%s: %v", name, err))
	}

	d := b.Descriptor()
	logger.Info("platform backend selected",
		"backend", d.Name,
		"reason", reason,
		"pointer_query", d.SupportsPointerQuery,
		"window_info", d.SupportsWindowInfo,
		"shortcuts", d.SupportsShortcutSimulation)
	return b
}
