package lifecycle

import (
	"fmt"
	"math"
	"time"

	"github.com/1broseidon/overmenu/internal/keys"
	"github.com/1broseidon/overmenu/internal/platform"
)

// State is the overlay window lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateHidden
	StateVisible
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateHidden:
		return "hidden"
	case StateVisible:
		return "visible"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText renders the state name in JSON status output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name produced by MarshalText.
func (s *State) UnmarshalText(text []byte) error {
	for st := StateUninitialized; st <= StateTerminated; st++ {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}

// Fallback positioning rules for a failed pointer query.
const (
	FallbackCenter      = "center"
	FallbackLastPointer = "last-pointer"
)

// ShowMenuOptions are passed through to the renderer. Only CenteredMode
// influences positioning here.
type ShowMenuOptions struct {
	ZoomFactor         float64 `json:"zoomFactor" yaml:"zoom_factor"`
	CenteredMode       bool    `json:"centeredMode" yaml:"centered_mode"`
	AnchoredMode       bool    `json:"anchoredMode" yaml:"anchored_mode"`
	HoverMode          bool    `json:"hoverMode" yaml:"hover_mode"`
	SystemIconsChanged bool    `json:"systemIconsChanged" yaml:"system_icons_changed"`
}

// DefaultShowMenuOptions returns zoom 1 and every mode off.
func DefaultShowMenuOptions() ShowMenuOptions {
	return ShowMenuOptions{ZoomFactor: 1}
}

// Normalized replaces an unusable zoom factor with 1.
func (o ShowMenuOptions) Normalized() ShowMenuOptions {
	if o.ZoomFactor <= 0 || math.IsNaN(o.ZoomFactor) || math.IsInf(o.ZoomFactor, 0) {
		o.ZoomFactor = 1
	}
	return o
}

// ShowRequest asks the controller to show the menu.
type ShowRequest struct {
	// Menu optionally names the menu to open; empty means the renderer's default.
	Menu string
	// Options overrides the configured defaults when set.
	Options *ShowMenuOptions
	// Centered forces the menu to the work-area centre.
	Centered bool
}

// Presentation is what the renderer receives on show-menu.
type Presentation struct {
	Menu string `json:"menu,omitempty"`
	// Position is nil when the menu should be centered.
	Position   *platform.PointerPosition `json:"position"`
	WindowSize platform.WorkArea         `json:"windowSize"`
	Options    ShowMenuOptions           `json:"options"`
}

// Settings are the tunables the controller reads on every event.
type Settings struct {
	ProbeTimeout     time.Duration
	FallbackPosition string
	FadeOut          time.Duration
	DefaultWorkArea  platform.WorkArea
	Menu             ShowMenuOptions
	Shortcut         keys.Shortcut
	DevTools         bool
}

// DefaultSettings mirrors the config defaults.
func DefaultSettings() Settings {
	return Settings{
		ProbeTimeout:     250 * time.Millisecond,
		FallbackPosition: FallbackCenter,
		FadeOut:          200 * time.Millisecond,
		DefaultWorkArea:  platform.WorkArea{Width: 1920, Height: 1080},
		Menu:             DefaultShowMenuOptions(),
	}
}

// Snapshot is a point-in-time view of the controller for status output.
type Snapshot struct {
	State         State                     `json:"state"`
	WindowVisible bool                      `json:"window_visible"`
	Backend       platform.Descriptor       `json:"backend"`
	WorkArea      platform.WorkArea         `json:"work_area"`
	MenuPosition  *platform.PointerPosition `json:"menu_position,omitempty"`
	Probing       bool                      `json:"probing"`
	PendingShow   bool                      `json:"pending_show"`

	Shows           int `json:"shows"`
	Hides           int `json:"hides"`
	Selections      int `json:"selections"`
	ProbeFailures   int `json:"probe_failures"`
	DiscardedProbes int `json:"discarded_probes"`
}
