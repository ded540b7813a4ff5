package config

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.ProbeTimeout() != 250*time.Millisecond || cfg.FadeOut() != 200*time.Millisecond {
		t.Fatalf("unexpected default durations: %v %v", cfg.ProbeTimeout(), cfg.FadeOut())
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Backend != "auto" || len(res.Files) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "# empty\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.ProbeTimeoutMS != 250 {
		t.Fatalf("expected default probe timeout, got %d", res.Config.ProbeTimeoutMS)
	}
}

func TestLoadFromPath_AllFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, strings.Join([]string{
		"backend: hyprland",
		"probe_timeout_ms: 500",
		"fallback_position: last-pointer",
		"fade_out_ms: 0",
		"default_work_area: {width: 2560}",
		"menu:",
		"  zoom_factor: 1.5",
		"  hover_mode: true",
		"simulate_shortcut: Ctrl+Alt+T",
		"hotkey: Mod4-space",
		"dev_tools: true",
		"native_library: /opt/lib/libovermenu-probe.so",
		"renderer_command: [overmenu-ui, --gpu]",
		"renderer_env_file: renderer.env",
		"log:",
		"  level: debug",
		"  file: /tmp/overmenu.log",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.Backend != "hyprland" || cfg.ProbeTimeoutMS != 500 || cfg.FallbackPosition != FallbackLastPointer {
		t.Fatalf("unexpected scalars: %+v", cfg)
	}
	if cfg.DefaultWorkArea.Width != 2560 || cfg.DefaultWorkArea.Height != 1080 {
		t.Fatalf("default_work_area = %+v", cfg.DefaultWorkArea)
	}
	if cfg.Menu.ZoomFactor != 1.5 || !cfg.Menu.HoverMode || cfg.Menu.CenteredMode {
		t.Fatalf("menu = %+v", cfg.Menu)
	}
	if len(cfg.RendererCommand) != 2 || cfg.RendererCommand[1] != "--gpu" {
		t.Fatalf("renderer_command = %v", cfg.RendererCommand)
	}
	if cfg.RendererEnvFile != "renderer.env" {
		t.Fatalf("renderer_env_file = %q", cfg.RendererEnvFile)
	}
	if cfg.Log.Level != "debug" || cfg.Log.File != "/tmp/overmenu.log" {
		t.Fatalf("log = %+v", cfg.Log)
	}

	s := cfg.Settings()
	if s.Shortcut.String() != "Ctrl+Alt+T" || s.FadeOut != 0 || !s.DevTools || s.DefaultWorkArea.Width != 2560 {
		t.Fatalf("settings = %+v", s)
	}
}

func TestLoadFromPath_StrictUnknownKeyErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "unknown_key: 1\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "unknown_key") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
	if !strings.Contains(err.Error(), filepath.Base(path)) {
		t.Fatalf("expected error to include file path, got %v", err)
	}
}

func TestLoadFromPath_ValidationHasSourceContext(t *testing.T) {
	tests := []struct {
		yaml string
		path string
	}{
		{"backend: wayland\n", "backend"},
		{"probe_timeout_ms: 5\n", "probe_timeout_ms"},
		{"probe_timeout_ms: 2001\n", "probe_timeout_ms"},
		{"fallback_position: random\n", "fallback_position"},
		{"fade_out_ms: -1\n", "fade_out_ms"},
		{"default_work_area: {width: 0}\n", "default_work_area"},
		{"menu: {zoom_factor: 0}\n", "menu.zoom_factor"},
		{"simulate_shortcut: Ctrl+Hyper\n", "simulate_shortcut"},
		{"renderer_command: [\"\"]\n", "renderer_command"},
		{"renderer_env_file: /tmp/renderer.env\n", "renderer_env_file"},
		{"log: {level: verbose}\n", "log.level"},
	}
	for _, tt := range tests {
		path := filepath.Join(t.TempDir(), "config.yaml")
		writeFile(t, path, "# header\n"+tt.yaml)

		_, err := LoadFromPath(path)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%q: expected ValidationError, got %v", tt.yaml, err)
		}
		if verr.Path != tt.path {
			t.Fatalf("%q: path = %q, want %q", tt.yaml, verr.Path, tt.path)
		}
		if verr.Source.Kind != SourceFile || verr.Source.Line != 2 {
			t.Fatalf("%q: source = %+v, want line 2", tt.yaml, verr.Source)
		}
	}
}

func TestLoadFromPath_IncludeDirectoryOrderAndMainOverrides(t *testing.T) {
	dir := t.TempDir()
	incDir := filepath.Join(dir, "conf.d")
	if err := os.Mkdir(incDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFile(t, filepath.Join(incDir, "10-a.yaml"), "fade_out_ms: 100\nmenu: {zoom_factor: 2}\n")
	writeFile(t, filepath.Join(incDir, "20-b.yaml"), "fade_out_ms: 150\nmenu: {hover_mode: true}\n")
	writeFile(t, filepath.Join(incDir, "notes.txt"), "fade_out_ms: 9999\n")
	main := filepath.Join(dir, "config.yaml")
	writeFile(t, main, "include: conf.d\nprobe_timeout_ms: 400\nmenu: {centered_mode: true}\n")

	res, err := LoadFromPath(main)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.FadeOutMS != 150 || cfg.ProbeTimeoutMS != 400 {
		t.Fatalf("fade=%d probe=%d", cfg.FadeOutMS, cfg.ProbeTimeoutMS)
	}
	if cfg.Menu.ZoomFactor != 2 || !cfg.Menu.HoverMode || !cfg.Menu.CenteredMode {
		t.Fatalf("menu merge = %+v", cfg.Menu)
	}
	if len(res.Files) != 3 {
		t.Fatalf("files = %v", res.Files)
	}

	_, src, err := Explain(res, "fade_out_ms")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if !strings.HasSuffix(src.File, "20-b.yaml") {
		t.Fatalf("fade_out_ms source = %+v", src)
	}
}

func TestLoadFromPath_IncludeCycleDetection(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.yaml")
	writeFile(t, a, "include: b.yaml\n")
	writeFile(t, b, "include: a.yaml\n")

	_, err := LoadFromPath(a)
	if err == nil || !strings.Contains(err.Error(), "include cycle") {
		t.Fatalf("expected include cycle error, got %v", err)
	}
}

func TestLoadFromPath_IncludeMissingPathHasContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "include: nope.yaml\n")

	_, err := LoadFromPath(path)
	if err == nil || !strings.Contains(err.Error(), `include "nope.yaml"`) {
		t.Fatalf("expected include context, got %v", err)
	}
}

func TestExplain_DefaultsAndUnknown(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	val, src, err := Explain(res, "log.level")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if val != "info" || src.Kind != SourceDefault {
		t.Fatalf("explain log.level = %v from %v", val, src)
	}
	if _, _, err := Explain(res, "layouts.grid"); err == nil {
		t.Fatalf("expected unknown path error")
	}
}

func TestConfig_MarshalRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SimulateShortcut = "Super+Space"
	data, err := cfg.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, string(data))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load marshalled config: %v", err)
	}
	if res.Config.SimulateShortcut != "Super+Space" {
		t.Fatalf("simulate_shortcut = %q", res.Config.SimulateShortcut)
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "fade_out_ms: 100\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 4)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := Watch(ctx, path, logger, func(c *Config) { changes <- c }); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	// Invalid edits are skipped.
	writeFile(t, path, "fade_out_ms: -5\n")
	select {
	case c := <-changes:
		t.Fatalf("unexpected reload of invalid config: %+v", c)
	case <-time.After(500 * time.Millisecond):
	}

	writeFile(t, path, "fade_out_ms: 300\n")
	select {
	case c := <-changes:
		if c.FadeOutMS != 300 {
			t.Fatalf("fade_out_ms = %d", c.FadeOutMS)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("no reload after write")
	}
}

func TestWatch_MissingDirectory(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "missing", "config.yaml"), nil, func(*Config) {})
	if err == nil {
		t.Fatalf("expected error for missing directory")
	}
}
