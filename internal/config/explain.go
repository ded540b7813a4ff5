package config

import (
	"fmt"
	"strings"
)

// Explain returns the effective value at a YAML path and where it came from.
//
// Supported paths are the top-level keys plus
//
//	default_work_area.width
//	menu.zoom_factor
//	log.level
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	switch strings.TrimSpace(path) {
	case "backend":
		return cfg.Backend, nil
	case "probe_timeout_ms":
		return cfg.ProbeTimeoutMS, nil
	case "fallback_position":
		return cfg.FallbackPosition, nil
	case "fade_out_ms":
		return cfg.FadeOutMS, nil
	case "default_work_area":
		return cfg.DefaultWorkArea, nil
	case "default_work_area.width":
		return cfg.DefaultWorkArea.Width, nil
	case "default_work_area.height":
		return cfg.DefaultWorkArea.Height, nil
	case "menu":
		return cfg.Menu, nil
	case "menu.zoom_factor":
		return cfg.Menu.ZoomFactor, nil
	case "menu.centered_mode":
		return cfg.Menu.CenteredMode, nil
	case "menu.anchored_mode":
		return cfg.Menu.AnchoredMode, nil
	case "menu.hover_mode":
		return cfg.Menu.HoverMode, nil
	case "menu.system_icons_changed":
		return cfg.Menu.SystemIconsChanged, nil
	case "simulate_shortcut":
		return cfg.SimulateShortcut, nil
	case "hotkey":
		return cfg.Hotkey, nil
	case "dev_tools":
		return cfg.DevTools, nil
	case "native_library":
		return cfg.NativeLibrary, nil
	case "renderer_command":
		return cfg.RendererCommand, nil
	case "renderer_env_file":
		return cfg.RendererEnvFile, nil
	case "log":
		return cfg.Log, nil
	case "log.level":
		return cfg.Log.Level, nil
	case "log.file":
		return cfg.Log.File, nil
	default:
		return nil, fmt.Errorf("unknown path: %s", path)
	}
}
