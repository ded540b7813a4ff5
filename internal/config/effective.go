package config

import "fmt"

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// BuildEffectiveConfig applies raw on top of the defaults.
func BuildEffectiveConfig(raw RawConfig) *Config {
	cfg := DefaultConfig()

	if raw.Backend != nil {
		cfg.Backend = *raw.Backend
	}
	if raw.ProbeTimeoutMS != nil {
		cfg.ProbeTimeoutMS = *raw.ProbeTimeoutMS
	}
	if raw.FallbackPosition != nil {
		cfg.FallbackPosition = *raw.FallbackPosition
	}
	if raw.FadeOutMS != nil {
		cfg.FadeOutMS = *raw.FadeOutMS
	}
	if wa := raw.DefaultWorkArea; wa != nil {
		if wa.Width != nil {
			cfg.DefaultWorkArea.Width = *wa.Width
		}
		if wa.Height != nil {
			cfg.DefaultWorkArea.Height = *wa.Height
		}
	}
	if m := raw.Menu; m != nil {
		if m.ZoomFactor != nil {
			cfg.Menu.ZoomFactor = *m.ZoomFactor
		}
		if m.CenteredMode != nil {
			cfg.Menu.CenteredMode = *m.CenteredMode
		}
		if m.AnchoredMode != nil {
			cfg.Menu.AnchoredMode = *m.AnchoredMode
		}
		if m.HoverMode != nil {
			cfg.Menu.HoverMode = *m.HoverMode
		}
		if m.SystemIconsChanged != nil {
			cfg.Menu.SystemIconsChanged = *m.SystemIconsChanged
		}
	}
	if raw.SimulateShortcut != nil {
		cfg.SimulateShortcut = *raw.SimulateShortcut
	}
	if raw.Hotkey != nil {
		cfg.Hotkey = *raw.Hotkey
	}
	if raw.DevTools != nil {
		cfg.DevTools = *raw.DevTools
	}
	if raw.NativeLibrary != nil {
		cfg.NativeLibrary = *raw.NativeLibrary
	}
	if raw.RendererEnvFile != nil {
		cfg.RendererEnvFile = *raw.RendererEnvFile
	}
	if raw.RendererCommand != nil {
		cfg.RendererCommand = append([]string(nil), raw.RendererCommand...)
	}
	if l := raw.Log; l != nil {
		if l.Level != nil {
			cfg.Log.Level = *l.Level
		}
		if l.File != nil {
			cfg.Log.File = *l.File
		}
	}
	return cfg
}
