package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/overmenu/internal/keys"
	"github.com/1broseidon/overmenu/internal/lifecycle"
	"github.com/1broseidon/overmenu/internal/platform"
)

const (
	FallbackCenter      = lifecycle.FallbackCenter
	FallbackLastPointer = lifecycle.FallbackLastPointer

	minProbeTimeoutMS = 10
	maxProbeTimeoutMS = 2000
	maxFadeOutMS      = 10000
)

// WorkArea is the fallback size used before any backend reports one.
type WorkArea struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Config is the effective configuration.
type Config struct {
	Backend          string                    `yaml:"backend"`
	ProbeTimeoutMS   int                       `yaml:"probe_timeout_ms"`
	FallbackPosition string                    `yaml:"fallback_position"`
	FadeOutMS        int                       `yaml:"fade_out_ms"`
	DefaultWorkArea  WorkArea                  `yaml:"default_work_area"`
	Menu             lifecycle.ShowMenuOptions `yaml:"menu"`
	SimulateShortcut string                    `yaml:"simulate_shortcut"`
	Hotkey           string                    `yaml:"hotkey"`
	DevTools         bool                      `yaml:"dev_tools"`
	NativeLibrary    string                    `yaml:"native_library"`
	RendererCommand  []string                  `yaml:"renderer_command"`
	RendererEnvFile  string                    `yaml:"renderer_env_file"`
	Log              LogConfig                 `yaml:"log"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Backend:          platform.NameAuto,
		ProbeTimeoutMS:   250,
		FallbackPosition: FallbackCenter,
		FadeOutMS:        200,
		DefaultWorkArea:  WorkArea{Width: 1920, Height: 1080},
		Menu:             lifecycle.DefaultShowMenuOptions(),
		RendererCommand:  []string{},
		Log:              LogConfig{Level: "info"},
	}
}

func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "overmenu", "config.yaml"), nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if !platform.ValidName(c.Backend) {
		return &ValidationError{Path: "backend", Err: fmt.Errorf("backend must be one of: %s", strings.Join(platform.Names, ", "))}
	}
	if c.ProbeTimeoutMS < minProbeTimeoutMS || c.ProbeTimeoutMS > maxProbeTimeoutMS {
		return &ValidationError{Path: "probe_timeout_ms", Err: fmt.Errorf("probe_timeout_ms must be between %d and %d", minProbeTimeoutMS, maxProbeTimeoutMS)}
	}
	switch c.FallbackPosition {
	case FallbackCenter, FallbackLastPointer:
	default:
		return &ValidationError{Path: "fallback_position", Err: fmt.Errorf("fallback_position must be one of: center, last-pointer")}
	}
	if c.FadeOutMS < 0 || c.FadeOutMS > maxFadeOutMS {
		return &ValidationError{Path: "fade_out_ms", Err: fmt.Errorf("fade_out_ms must be between 0 and %d", maxFadeOutMS)}
	}
	if c.DefaultWorkArea.Width <= 0 || c.DefaultWorkArea.Height <= 0 {
		return &ValidationError{Path: "default_work_area", Err: fmt.Errorf("default_work_area width and height must be > 0")}
	}
	if c.Menu.ZoomFactor <= 0 {
		return &ValidationError{Path: "menu.zoom_factor", Err: fmt.Errorf("zoom_factor must be > 0")}
	}
	if _, err := keys.Parse(c.SimulateShortcut); err != nil {
		return &ValidationError{Path: "simulate_shortcut", Err: err}
	}
	for i, arg := range c.RendererCommand {
		if strings.TrimSpace(arg) == "" {
			return &ValidationError{Path: "renderer_command", Err: fmt.Errorf("argument %d is empty", i)}
		}
	}
	if c.RendererEnvFile != "" && len(c.RendererCommand) == 0 {
		return &ValidationError{Path: "renderer_env_file", Err: fmt.Errorf("renderer_env_file needs renderer_command")}
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Path: "log.level", Err: fmt.Errorf("log.level must be one of: debug, info, warn, error")}
	}
	return nil
}

// ProbeTimeout returns probe_timeout_ms as a duration.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutMS) * time.Millisecond
}

// FadeOut returns fade_out_ms as a duration.
func (c *Config) FadeOut() time.Duration {
	return time.Duration(c.FadeOutMS) * time.Millisecond
}

// Settings converts the config into controller settings. The config must
// have passed Validate.
func (c *Config) Settings() lifecycle.Settings {
	shortcut, _ := keys.Parse(c.SimulateShortcut)
	return lifecycle.Settings{
		ProbeTimeout:     c.ProbeTimeout(),
		FallbackPosition: c.FallbackPosition,
		FadeOut:          c.FadeOut(),
		DefaultWorkArea:  platform.WorkArea{Width: c.DefaultWorkArea.Width, Height: c.DefaultWorkArea.Height},
		Menu:             c.Menu,
		Shortcut:         shortcut,
		DevTools:         c.DevTools,
	}
}

// Marshal renders the effective config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
