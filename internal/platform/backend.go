package platform

import (
	"context"
	"errors"

	"github.com/1broseidon/overmenu/internal/keys"
)

var (
	// ErrUnsupported means the active backend does not implement the capability.
	ErrUnsupported = errors.New("unsupported by active backend")
	// ErrQueryFailed means a query ran but produced no usable data.
	ErrQueryFailed = errors.New("backend query failed")
	// ErrBusy means a geometry probe is already in flight.
	ErrBusy = errors.New("backend busy")
)

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Center returns the middle of r in r's own coordinate space.
func (r Rect) Center() PointerPosition {
	return PointerPosition{X: r.Width / 2, Y: r.Height / 2}
}

// PointerPosition is relative to the work area it was queried against.
type PointerPosition struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// WorkArea is the usable display area excluding panels. X/Y locate it in
// screen coordinates when the backend knows them; probe backends leave them 0.
type WorkArea struct {
	X      int `json:"-"`
	Y      int `json:"-"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect returns the work area as a screen rectangle.
func (w WorkArea) Rect() Rect {
	return Rect{X: w.X, Y: w.Y, Width: w.Width, Height: w.Height}
}

// Geometry is the result of one atomic pointer/work-area query.
type Geometry struct {
	Pointer  PointerPosition
	WorkArea WorkArea
}

// WindowInfo identifies the focused window.
type WindowInfo struct {
	Name  string `json:"name"`
	AppID string `json:"app_id"`
}

// Overlay window type hints.
const (
	WindowTypeDock   = "dock"
	WindowTypeSplash = "splash"
)

// Descriptor identifies the active backend and what it can do.
type Descriptor struct {
	Name                       string `json:"name"`
	Platform                   string `json:"platform"`
	WindowType                 string `json:"window_type"`
	SupportsPointerQuery       bool   `json:"supports_pointer_query"`
	SupportsWindowInfo         bool   `json:"supports_window_info"`
	SupportsShortcutSimulation bool   `json:"supports_shortcut_simulation"`
}

// Backend abstracts window-system queries and actions across platforms.
type Backend interface {
	Descriptor() Descriptor
	// QueryPointerAndWorkArea must honour ctx; failures wrap ErrQueryFailed.
	QueryPointerAndWorkArea(ctx context.Context) (Geometry, error)
	// SimulateShortcut is best effort.
	SimulateShortcut(ctx context.Context, shortcut keys.Shortcut) error
	QueryActiveWindowInfo(ctx context.Context) (WindowInfo, error)
	Close() error
}

// WorkAreaProvider is implemented by backends that can report the primary
// display's work area without a pointer query.
type WorkAreaProvider interface {
	PrimaryWorkArea(ctx context.Context) (WorkArea, error)
}

func (r Rect) contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}
