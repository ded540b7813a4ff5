package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawWorkArea struct {
	Width  *int `yaml:"width"`
	Height *int `yaml:"height"`
}

type RawMenu struct {
	ZoomFactor         *float64 `yaml:"zoom_factor"`
	CenteredMode       *bool    `yaml:"centered_mode"`
	AnchoredMode       *bool    `yaml:"anchored_mode"`
	HoverMode          *bool    `yaml:"hover_mode"`
	SystemIconsChanged *bool    `yaml:"system_icons_changed"`
}

type RawLogConfig struct {
	Level *string `yaml:"level"`
	File  *string `yaml:"file"`
}

// RawConfig is one file as written; nil fields were not set.
type RawConfig struct {
	Include          IncludeList   `yaml:"include"`
	Backend          *string       `yaml:"backend"`
	ProbeTimeoutMS   *int          `yaml:"probe_timeout_ms"`
	FallbackPosition *string       `yaml:"fallback_position"`
	FadeOutMS        *int          `yaml:"fade_out_ms"`
	DefaultWorkArea  *RawWorkArea  `yaml:"default_work_area"`
	Menu             *RawMenu      `yaml:"menu"`
	SimulateShortcut *string       `yaml:"simulate_shortcut"`
	Hotkey           *string       `yaml:"hotkey"`
	DevTools         *bool         `yaml:"dev_tools"`
	NativeLibrary    *string       `yaml:"native_library"`
	RendererCommand  []string      `yaml:"renderer_command"`
	RendererEnvFile  *string       `yaml:"renderer_env_file"`
	Log              *RawLogConfig `yaml:"log"`
}

func pick[T any](base, overlay *T) *T {
	if overlay != nil {
		return overlay
	}
	return base
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	out.Backend = pick(c.Backend, overlay.Backend)
	out.ProbeTimeoutMS = pick(c.ProbeTimeoutMS, overlay.ProbeTimeoutMS)
	out.FallbackPosition = pick(c.FallbackPosition, overlay.FallbackPosition)
	out.FadeOutMS = pick(c.FadeOutMS, overlay.FadeOutMS)
	out.SimulateShortcut = pick(c.SimulateShortcut, overlay.SimulateShortcut)
	out.Hotkey = pick(c.Hotkey, overlay.Hotkey)
	out.DevTools = pick(c.DevTools, overlay.DevTools)
	out.NativeLibrary = pick(c.NativeLibrary, overlay.NativeLibrary)
	out.RendererEnvFile = pick(c.RendererEnvFile, overlay.RendererEnvFile)

	if overlay.DefaultWorkArea != nil {
		wa := RawWorkArea{}
		if c.DefaultWorkArea != nil {
			wa = *c.DefaultWorkArea
		}
		wa.Width = pick(wa.Width, overlay.DefaultWorkArea.Width)
		wa.Height = pick(wa.Height, overlay.DefaultWorkArea.Height)
		out.DefaultWorkArea = &wa
	}

	if overlay.Menu != nil {
		m := RawMenu{}
		if c.Menu != nil {
			m = *c.Menu
		}
		m.ZoomFactor = pick(m.ZoomFactor, overlay.Menu.ZoomFactor)
		m.CenteredMode = pick(m.CenteredMode, overlay.Menu.CenteredMode)
		m.AnchoredMode = pick(m.AnchoredMode, overlay.Menu.AnchoredMode)
		m.HoverMode = pick(m.HoverMode, overlay.Menu.HoverMode)
		m.SystemIconsChanged = pick(m.SystemIconsChanged, overlay.Menu.SystemIconsChanged)
		out.Menu = &m
	}

	// Lists replace rather than append.
	if overlay.RendererCommand != nil {
		out.RendererCommand = append([]string(nil), overlay.RendererCommand...)
	}

	if overlay.Log != nil {
		l := RawLogConfig{}
		if c.Log != nil {
			l = *c.Log
		}
		l.Level = pick(l.Level, overlay.Log.Level)
		l.File = pick(l.File, overlay.Log.File)
		out.Log = &l
	}

	out.Include = nil
	return out
}
