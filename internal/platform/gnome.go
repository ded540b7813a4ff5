package platform

import (
	"math"
	"strings"

	"github.com/1broseidon/overmenu/internal/keys"
	"github.com/godbus/dbus/v5"
)

// Wire shapes of org.gnome.Mutter.DisplayConfig.GetCurrentState.
type mutterMonitorSpec struct {
	Connector string
	Vendor    string
	Product   string
	Serial    string
}

type mutterMode struct {
	ID              string
	Width           int32
	Height          int32
	Refresh         float64
	PreferredScale  float64
	SupportedScales []float64
	Props           map[string]dbus.Variant
}

type mutterMonitor struct {
	Spec  mutterMonitorSpec
	Modes []mutterMode
	Props map[string]dbus.Variant
}

type mutterLogicalMonitor struct {
	X         int32
	Y         int32
	Scale     float64
	Transform uint32
	Primary   bool
	Monitors  []mutterMonitorSpec
	Props     map[string]dbus.Variant
}

type gnomeLogical struct {
	area    WorkArea
	primary bool
}

// Mutter layout modes.
const (
	mutterLayoutLogical  = 1
	mutterLayoutPhysical = 2
)

// gnomeLogicalRects sizes each logical monitor from the current mode of its
// first physical monitor. In logical layout mode sizes are divided by scale.
func gnomeLogicalRects(monitors []mutterMonitor, logical []mutterLogicalMonitor, layoutMode uint32) []gnomeLogical {
	out := make([]gnomeLogical, 0, len(logical))
	for _, lm := range logical {
		if len(lm.Monitors) == 0 {
			continue
		}
		mode, ok := currentMode(monitors, lm.Monitors[0])
		if !ok {
			continue
		}
		w, h := float64(mode.Width), float64(mode.Height)
		if layoutMode != mutterLayoutPhysical && lm.Scale > 0 {
			w /= lm.Scale
			h /= lm.Scale
		}
		width, height := int(math.Round(w)), int(math.Round(h))
		if lm.Transform%2 == 1 {
			width, height = height, width
		}
		out = append(out, gnomeLogical{
			area:    WorkArea{X: int(lm.X), Y: int(lm.Y), Width: width, Height: height},
			primary: lm.Primary,
		})
	}
	return out
}

func currentMode(monitors []mutterMonitor, spec mutterMonitorSpec) (mutterMode, bool) {
	for _, m := range monitors {
		if m.Spec.Connector != spec.Connector {
			continue
		}
		for _, mode := range m.Modes {
			if v, ok := mode.Props["is-current"]; ok {
				if cur, ok := v.Value().(bool); ok && cur {
					return mode, true
				}
			}
		}
	}
	return mutterMode{}, false
}

var gdkModNames = map[string]string{
	"Ctrl":  "<Ctrl>",
	"Alt":   "<Alt>",
	"Shift": "<Shift>",
	"Super": "<Super>",
}

// gdkAccelerator renders a shortcut as a GTK accelerator, e.g. "<Ctrl><Alt>t".
func gdkAccelerator(s keys.Shortcut) string {
	var b strings.Builder
	for _, k := range s.Keys {
		if k.Modifier {
			b.WriteString(gdkModNames[k.Name])
			continue
		}
		b.WriteString(k.Keysym)
	}
	return b.String()
}
