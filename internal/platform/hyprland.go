package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"runtime"
	"strings"

	"github.com/1broseidon/overmenu/internal/keys"
)

// HyprlandBackend talks to Hyprland through hyprctl's JSON output.
type HyprlandBackend struct {
	run commandRunner
}

var _ Backend = (*HyprlandBackend)(nil)

// NewHyprlandBackend checks that hyprctl answers before returning.
func NewHyprlandBackend(ctx context.Context, env Env) (*HyprlandBackend, error) {
	b := &HyprlandBackend{run: newHostRunner(env)}
	if _, err := b.run(ctx, "hyprctl", "-j", "version"); err != nil {
		return nil, fmt.Errorf("hyprctl not usable: %w", err)
	}
	return b, nil
}

func (b *HyprlandBackend) Descriptor() Descriptor {
	return Descriptor{
		Name:                       NameHyprland,
		Platform:                   runtime.GOOS,
		WindowType:                 WindowTypeDock,
		SupportsPointerQuery:       true,
		SupportsWindowInfo:         true,
		SupportsShortcutSimulation: true,
	}
}

func (b *HyprlandBackend) QueryPointerAndWorkArea(ctx context.Context) (Geometry, error) {
	cursorOut, err := b.run(ctx, "hyprctl", "-j", "cursorpos")
	if err != nil {
		return Geometry{}, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	x, y, err := parseHyprCursor(cursorOut)
	if err != nil {
		return Geometry{}, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}

	monOut, err := b.run(ctx, "hyprctl", "-j", "monitors")
	if err != nil {
		return Geometry{}, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	wa, err := hyprWorkAreaAt(monOut, x, y)
	if err != nil {
		return Geometry{}, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}

	return Geometry{Pointer: relativeTo(wa, x, y), WorkArea: wa}, nil
}

func (b *HyprlandBackend) QueryActiveWindowInfo(ctx context.Context) (WindowInfo, error) {
	out, err := b.run(ctx, "hyprctl", "-j", "activewindow")
	if err != nil {
		return WindowInfo{}, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	var win struct {
		Title string `json:"title"`
		Class string `json:"class"`
	}
	if err := json.Unmarshal(out, &win); err != nil {
		return WindowInfo{}, fmt.Errorf("%w: parse activewindow: %v", ErrQueryFailed, err)
	}
	return WindowInfo{Name: win.Title, AppID: win.Class}, nil
}

func (b *HyprlandBackend) SimulateShortcut(ctx context.Context, shortcut keys.Shortcut) error {
	if shortcut.Empty() {
		return nil
	}
	out, err := b.run(ctx, "hyprctl", "dispatch", "sendshortcut", hyprShortcutArg(shortcut))
	if err != nil {
		return err
	}
	if reply := strings.TrimSpace(string(out)); reply != "" && reply != "ok" {
		return fmt.Errorf("hyprctl sendshortcut: %s", reply)
	}
	return nil
}

func (b *HyprlandBackend) Close() error {
	return nil
}

// PrimaryWorkArea returns the focused monitor's work area.
func (b *HyprlandBackend) PrimaryWorkArea(ctx context.Context) (WorkArea, error) {
	out, err := b.run(ctx, "hyprctl", "-j", "monitors")
	if err != nil {
		return WorkArea{}, err
	}
	mons, err := parseHyprMonitors(out)
	if err != nil {
		return WorkArea{}, err
	}
	for _, m := range mons {
		if m.Focused {
			return m.workArea(), nil
		}
	}
	return mons[0].workArea(), nil
}

type hyprMonitor struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	X         int     `json:"x"`
	Y         int     `json:"y"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Scale     float64 `json:"scale"`
	Transform int     `json:"transform"`
	Focused   bool    `json:"focused"`
	// Reserved is left, top, right, bottom.
	Reserved []int `json:"reserved"`
}

// logical returns the monitor rect in layout coordinates, which is what
// cursorpos reports.
func (m hyprMonitor) logical() WorkArea {
	scale := m.Scale
	if scale <= 0 {
		scale = 1
	}
	w := int(math.Round(float64(m.Width) / scale))
	h := int(math.Round(float64(m.Height) / scale))
	if m.Transform%2 == 1 {
		w, h = h, w
	}
	return WorkArea{X: m.X, Y: m.Y, Width: w, Height: h}
}

func (m hyprMonitor) workArea() WorkArea {
	wa := m.logical()
	if len(m.Reserved) == 4 {
		left, top, right, bottom := m.Reserved[0], m.Reserved[1], m.Reserved[2], m.Reserved[3]
		wa.X += left
		wa.Y += top
		wa.Width = max(wa.Width-left-right, 1)
		wa.Height = max(wa.Height-top-bottom, 1)
	}
	return wa
}

func parseHyprCursor(data []byte) (int, int, error) {
	var pos struct {
		X *int `json:"x"`
		Y *int `json:"y"`
	}
	if err := json.Unmarshal(data, &pos); err != nil {
		return 0, 0, fmt.Errorf("parse cursorpos: %w", err)
	}
	if pos.X == nil || pos.Y == nil {
		return 0, 0, fmt.Errorf("parse cursorpos: missing coordinates")
	}
	return *pos.X, *pos.Y, nil
}

func parseHyprMonitors(data []byte) ([]hyprMonitor, error) {
	var mons []hyprMonitor
	if err := json.Unmarshal(data, &mons); err != nil {
		return nil, fmt.Errorf("parse monitors: %w", err)
	}
	if len(mons) == 0 {
		return nil, fmt.Errorf("hyprctl reported no monitors")
	}
	return mons, nil
}

// hyprWorkAreaAt picks the monitor under (x, y), else the focused one.
func hyprWorkAreaAt(data []byte, x, y int) (WorkArea, error) {
	mons, err := parseHyprMonitors(data)
	if err != nil {
		return WorkArea{}, err
	}
	focused := -1
	for i, m := range mons {
		if m.logical().Rect().contains(x, y) {
			return m.workArea(), nil
		}
		if m.Focused {
			focused = i
		}
	}
	if focused >= 0 {
		return mons[focused].workArea(), nil
	}
	return mons[0].workArea(), nil
}

var hyprModNames = map[string]string{
	"Ctrl":  "CTRL",
	"Alt":   "ALT",
	"Shift": "SHIFT",
	"Super": "SUPER",
}

// hyprShortcutArg renders "MOD MOD, key," for the sendshortcut dispatcher.
// The empty window field targets the active window.
func hyprShortcutArg(s keys.Shortcut) string {
	var mods []string
	key := ""
	for _, k := range s.Keys {
		if k.Modifier {
			mods = append(mods, hyprModNames[k.Name])
			continue
		}
		key = k.Keysym
	}
	return strings.Join(mods, " ") + ", " + key + ","
}
