package platform

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/overmenu/internal/keys"
)

func TestChooseBackend(t *testing.T) {
	tests := []struct {
		name     string
		env      Env
		override string
		want     string
	}{
		{"windows", Env{GOOS: "windows"}, "", NameWindows},
		{"darwin has no backend", Env{GOOS: "darwin"}, "", NameNull},
		{"x11 session", Env{GOOS: "linux", SessionType: "x11", Desktop: "XFCE"}, "", NameX11},
		{"x11 inferred from DISPLAY", Env{GOOS: "linux", Display: ":0"}, "", NameX11},
		{"gnome wayland", Env{GOOS: "linux", SessionType: "wayland", Desktop: "ubuntu:GNOME"}, "", NameGnome},
		{"gnome on x11 uses x11", Env{GOOS: "linux", SessionType: "x11", Desktop: "GNOME"}, "", NameX11},
		{"hyprland by signature", Env{GOOS: "linux", SessionType: "wayland", HyprlandSignature: "abc"}, "", NameHyprland},
		{"hyprland by desktop", Env{GOOS: "linux", WaylandDisplay: "wayland-1", Desktop: "Hyprland"}, "", NameHyprland},
		{"niri by socket", Env{GOOS: "linux", SessionType: "wayland", NiriSocket: "/run/niri.sock"}, "", NameNiri},
		{"sway", Env{GOOS: "linux", SessionType: "wayland", Desktop: "sway"}, "", NameWlroots},
		{"kde wayland", Env{GOOS: "linux", SessionType: "wayland", Desktop: "KDE"}, "", NameWlroots},
		{"unknown wayland", Env{GOOS: "linux", SessionType: "wayland", Desktop: "weston"}, "", NameNull},
		{"tty", Env{GOOS: "linux", SessionType: "tty"}, "", NameNull},
		{"headless", Env{GOOS: "linux"}, "", NameNull},
		{"override", Env{GOOS: "linux", SessionType: "x11"}, "null", NameNull},
		{"auto override detects", Env{GOOS: "linux", SessionType: "x11"}, "auto", NameX11},
		{"override case insensitive", Env{GOOS: "linux"}, " Hyprland ", NameHyprland},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := ChooseBackend(tt.env, tt.override)
			if got != tt.want {
				t.Fatalf("ChooseBackend() = %q (%s), want %q", got, reason, tt.want)
			}
			if reason == "" {
				t.Fatalf("expected a reason")
			}
		})
	}
}

func TestSelect_NoMatchInstallsNullBackend(t *testing.T) {
	b := Select(Env{GOOS: "plan9"}, Options{})
	nb, ok := b.(*NullBackend)
	if !ok {
		t.Fatalf("Select() = %T, want *NullBackend", b)
	}
	if !strings.Contains(nb.Reason(), "plan9") {
		t.Fatalf("Reason() = %q, want it to mention the OS", nb.Reason())
	}
}

func TestSelect_ConstructionFailureFallsBack(t *testing.T) {
	// windows backend cannot be built off windows; on windows the x11
	// backend cannot be built. Either way the result is the null backend.
	override := NameWindows
	if DetectEnv().GOOS == "windows" {
		override = NameX11
	}
	b := Select(Env{GOOS: DetectEnv().GOOS}, Options{Override: override})
	if b.Descriptor().Name != NameNull {
		t.Fatalf("expected null backend, got %q", b.Descriptor().Name)
	}
}

func TestNullBackend_EverythingUnsupported(t *testing.T) {
	b := NewNullBackend("test")
	ctx := context.Background()

	if _, err := b.QueryPointerAndWorkArea(ctx); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("QueryPointerAndWorkArea err = %v, want ErrUnsupported", err)
	}
	if err := b.SimulateShortcut(ctx, keys.MustParse("Ctrl+T")); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("SimulateShortcut err = %v, want ErrUnsupported", err)
	}
	if _, err := b.QueryActiveWindowInfo(ctx); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("QueryActiveWindowInfo err = %v, want ErrUnsupported", err)
	}
	d := b.Descriptor()
	if d.SupportsPointerQuery || d.SupportsWindowInfo || d.SupportsShortcutSimulation {
		t.Fatalf("null backend advertises capabilities: %+v", d)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestValidName(t *testing.T) {
	for _, n := range Names {
		if !ValidName(n) {
			t.Fatalf("ValidName(%q) = false", n)
		}
	}
	if ValidName("wayland") {
		t.Fatalf("ValidName(wayland) = true")
	}
}

func TestCallWithContext_Timeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	block := make(chan struct{})
	defer close(block)
	_, err := callWithContext(ctx, func() (int, error) {
		<-block
		return 1, nil
	})
	if !errors.Is(err, ErrQueryFailed) {
		t.Fatalf("err = %v, want ErrQueryFailed", err)
	}
}

func TestCallWithContext_Panic(t *testing.T) {
	_, err := callWithContext(context.Background(), func() (int, error) {
		panic("x11 went away")
	})
	if !errors.Is(err, ErrQueryFailed) {
		t.Fatalf("err = %v, want ErrQueryFailed", err)
	}
}

func TestRelativeTo(t *testing.T) {
	wa := WorkArea{X: 1920, Y: 32, Width: 1920, Height: 1048}
	tests := []struct {
		x, y int
		want PointerPosition
	}{
		{2420, 332, PointerPosition{X: 500, Y: 300}},
		{100, 10, PointerPosition{X: 0, Y: 0}},
		{5000, 5000, PointerPosition{X: 1919, Y: 1047}},
	}
	for _, tt := range tests {
		if got := relativeTo(wa, tt.x, tt.y); got != tt.want {
			t.Fatalf("relativeTo(%d,%d) = %+v, want %+v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestRectCenter(t *testing.T) {
	got := WorkArea{Width: 1920, Height: 1080}.Rect().Center()
	if got != (PointerPosition{X: 960, Y: 540}) {
		t.Fatalf("Center() = %+v", got)
	}
}

func TestHostCommand(t *testing.T) {
	bin, args := hostCommand(Env{}, "hyprctl", "-j", "cursorpos")
	if bin != "hyprctl" || strings.Join(args, " ") != "-j cursorpos" {
		t.Fatalf("hostCommand = %s %v", bin, args)
	}

	bin, args = hostCommand(Env{Container: "flatpak"}, "hyprctl", "-j", "cursorpos")
	if bin != "flatpak-spawn" || strings.Join(args, " ") != "--host hyprctl -j cursorpos" {
		t.Fatalf("flatpak hostCommand = %s %v", bin, args)
	}
}

func TestParseNiriFocusedWindow(t *testing.T) {
	info, err := parseNiriFocusedWindow([]byte(`{"id":3,"title":"notes.md - Zed","app_id":"dev.zed.Zed","pid":42}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if info.Name != "notes.md - Zed" || info.AppID != "dev.zed.Zed" {
		t.Fatalf("unexpected info %+v", info)
	}

	if _, err := parseNiriFocusedWindow([]byte("null")); !errors.Is(err, ErrQueryFailed) {
		t.Fatalf("null window err = %v, want ErrQueryFailed", err)
	}
}
