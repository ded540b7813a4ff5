package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// Monitor represents a physical display
type Monitor struct {
	ID      int
	Name    string
	Primary bool
	Bounds  Rect
	// WorkArea is Bounds minus dock struts or the EWMH work area.
	WorkArea Rect
}

// Rect is an X11 root-relative rectangle.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Contains reports whether the root coordinate lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

func (r Rect) intersect(o Rect) Rect {
	x1 := max(r.X, o.X)
	y1 := max(r.Y, o.Y)
	x2 := min(r.X+r.Width, o.X+o.Width)
	y2 := min(r.Y+r.Height, o.Y+o.Height)
	if x2 <= x1 || y2 <= y1 {
		return Rect{}
	}
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

func (r Rect) empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// GetMonitors retrieves all active monitors using XRandR. Work areas are
// not computed here.
func (c *Connection) GetMonitors() ([]Monitor, error) {
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var primaryOutput randr.Output
	if reply, err := randr.GetOutputPrimary(c.XUtil.Conn(), c.Root).Reply(); err == nil {
		primaryOutput = reply.Output
	}

	var monitors []Monitor
	for i, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		if info.Width == 0 || info.Height == 0 || len(info.Outputs) == 0 {
			continue
		}

		name := fmt.Sprintf("Monitor%d", i)
		if out, err := randr.GetOutputInfo(c.XUtil.Conn(), info.Outputs[0], resources.ConfigTimestamp).Reply(); err == nil {
			name = string(out.Name)
		}

		primary := false
		for _, o := range info.Outputs {
			if primaryOutput != 0 && o == primaryOutput {
				primary = true
			}
		}

		bounds := Rect{X: int(info.X), Y: int(info.Y), Width: int(info.Width), Height: int(info.Height)}
		monitors = append(monitors, Monitor{
			ID:       i,
			Name:     name,
			Primary:  primary,
			Bounds:   bounds,
			WorkArea: bounds,
		})
	}

	if len(monitors) == 0 {
		// RandR without CRTCs (Xvfb, some nested servers): use the root window.
		geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
		if err != nil {
			return nil, fmt.Errorf("no monitors found: %w", err)
		}
		bounds := Rect{Width: int(geom.Width), Height: int(geom.Height)}
		monitors = append(monitors, Monitor{Name: "root", Primary: true, Bounds: bounds, WorkArea: bounds})
	}

	return monitors, nil
}

// PrimaryMonitor returns the RandR primary monitor (or the first one) with
// its work area resolved.
func (c *Connection) PrimaryMonitor() (Monitor, error) {
	monitors, err := c.GetMonitors()
	if err != nil {
		return Monitor{}, err
	}
	mon := monitors[0]
	for _, m := range monitors {
		if m.Primary {
			mon = m
			break
		}
	}
	mon.WorkArea = c.workAreaFor(mon.Bounds)
	return mon, nil
}

// PointerMonitor queries the pointer and returns its root coordinates
// together with the monitor underneath it, work area resolved.
func (c *Connection) PointerMonitor() (int, int, Monitor, error) {
	pointer, err := xproto.QueryPointer(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return 0, 0, Monitor{}, fmt.Errorf("query pointer failed: %w", err)
	}
	x, y := int(pointer.RootX), int(pointer.RootY)

	monitors, err := c.GetMonitors()
	if err != nil {
		return 0, 0, Monitor{}, err
	}
	mon := monitors[0]
	for _, m := range monitors {
		if m.Bounds.Contains(x, y) {
			mon = m
			break
		}
	}
	mon.WorkArea = c.workAreaFor(mon.Bounds)
	return x, y, mon, nil
}

// workAreaFor shrinks a monitor rectangle by dock struts, falling back to
// _NET_WORKAREA when no dock advertises any.
func (c *Connection) workAreaFor(bounds Rect) Rect {
	if wa, ok := c.applyDockStruts(bounds); ok {
		return wa
	}

	workArea, err := ewmh.WorkareaGet(c.XUtil)
	if err != nil || len(workArea) == 0 {
		return bounds
	}
	desktop := 0
	if current, err := ewmh.CurrentDesktopGet(c.XUtil); err == nil && int(current) < len(workArea) {
		desktop = int(current)
	}
	wa := workArea[desktop]
	isect := bounds.intersect(Rect{X: int(wa.X), Y: int(wa.Y), Width: int(wa.Width), Height: int(wa.Height)})
	if isect.empty() {
		return bounds
	}
	return isect
}

// struts accumulates the reserved edge thickness on one monitor.
type struts struct {
	left, right, top, bottom int
}

func (s struts) zero() bool {
	return s.left == 0 && s.right == 0 && s.top == 0 && s.bottom == 0
}

func (c *Connection) applyDockStruts(bounds Rect) (Rect, bool) {
	rootGeom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
	if err != nil {
		return bounds, false
	}
	root := Rect{Width: int(rootGeom.Width), Height: int(rootGeom.Height)}

	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return bounds, false
	}

	var acc struts
	for _, win := range clients {
		if !c.isDock(win) {
			continue
		}
		if sp, err := ewmh.WmStrutPartialGet(c.XUtil, win); err == nil {
			acc = accumulateStrut(acc, bounds, root, sp)
			continue
		}
		// Docks that only set _NET_WM_STRUT reserve the whole edge.
		if s, err := ewmh.WmStrutGet(c.XUtil, win); err == nil {
			acc = accumulateStrut(acc, bounds, root, fullEdgeStrut(s, root))
		}
	}

	if acc.zero() {
		return bounds, false
	}
	return shrink(bounds, acc), true
}

func (c *Connection) isDock(win xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, win)
	if err != nil {
		return false
	}
	for _, t := range types {
		if t == "_NET_WM_WINDOW_TYPE_DOCK" {
			return true
		}
	}
	return false
}

func fullEdgeStrut(s *ewmh.WmStrut, root Rect) *ewmh.WmStrutPartial {
	return &ewmh.WmStrutPartial{
		Left: s.Left, Right: s.Right, Top: s.Top, Bottom: s.Bottom,
		LeftEndY:   uint(root.Height - 1),
		RightEndY:  uint(root.Height - 1),
		TopEndX:    uint(root.Width - 1),
		BottomEndX: uint(root.Width - 1),
	}
}

// accumulateStrut adds the part of each reserved edge band that overlaps the
// monitor. Bands are expressed in root coordinates.
func accumulateStrut(acc struts, mon, root Rect, sp *ewmh.WmStrutPartial) struts {
	if sp.Top > 0 {
		band := Rect{X: int(sp.TopStartX), Y: 0, Width: int(sp.TopEndX) - int(sp.TopStartX) + 1, Height: int(sp.Top)}
		acc.top = max(acc.top, mon.intersect(band).Height)
	}
	if sp.Bottom > 0 {
		band := Rect{X: int(sp.BottomStartX), Y: root.Height - int(sp.Bottom), Width: int(sp.BottomEndX) - int(sp.BottomStartX) + 1, Height: int(sp.Bottom)}
		acc.bottom = max(acc.bottom, mon.intersect(band).Height)
	}
	if sp.Left > 0 {
		band := Rect{X: 0, Y: int(sp.LeftStartY), Width: int(sp.Left), Height: int(sp.LeftEndY) - int(sp.LeftStartY) + 1}
		acc.left = max(acc.left, mon.intersect(band).Width)
	}
	if sp.Right > 0 {
		band := Rect{X: root.Width - int(sp.Right), Y: int(sp.RightStartY), Width: int(sp.Right), Height: int(sp.RightEndY) - int(sp.RightStartY) + 1}
		acc.right = max(acc.right, mon.intersect(band).Width)
	}
	return acc
}

func shrink(r Rect, s struts) Rect {
	out := Rect{
		X:      r.X + s.left,
		Y:      r.Y + s.top,
		Width:  r.Width - s.left - s.right,
		Height: r.Height - s.top - s.bottom,
	}
	if out.Width < 1 {
		out.Width = 1
	}
	if out.Height < 1 {
		out.Height = 1
	}
	return out
}
