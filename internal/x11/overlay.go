package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/motif"
)

// Overlay window type hints accepted by NewOverlay.
const (
	WindowTypeDock   = "dock"
	WindowTypeSplash = "splash"
)

// debugTint is painted over the overlay while the debug view is on so the
// window bounds become visible.
const debugTint = 0x40ff0066

// Overlay is the frameless, always-on-top window the menu is drawn into.
// On a 32-bit visual its background is fully transparent.
type Overlay struct {
	conn    *Connection
	win     xproto.Window
	cmap    xproto.Colormap
	argb    bool
	mapped  bool
	debug   bool
	bounds  Rect
	destroy bool
}

// NewOverlay creates the overlay window unmapped. windowType is "dock" or
// "splash"; anything else is treated as splash.
func NewOverlay(conn *Connection, title, windowType string, bounds Rect) (*Overlay, error) {
	xc := conn.XUtil.Conn()
	screen := conn.XUtil.Screen()

	wid, err := xproto.NewWindowId(xc)
	if err != nil {
		return nil, err
	}

	o := &Overlay{conn: conn, win: wid, bounds: normalize(bounds)}

	depth := screen.RootDepth
	visual := screen.RootVisual
	if v, ok := findARGBVisual(screen); ok {
		cmap, err := xproto.NewColormapId(xc)
		if err != nil {
			return nil, err
		}
		if err := xproto.CreateColormapChecked(xc, xproto.ColormapAllocNone, cmap, conn.Root, v).Check(); err == nil {
			depth = 32
			visual = v
			o.cmap = cmap
			o.argb = true
		}
	}

	mask := uint32(xproto.CwBackPixel | xproto.CwBorderPixel)
	// Value list order follows the bit positions of the mask (low to high).
	values := []uint32{0, 0}
	if o.argb {
		mask |= xproto.CwColormap
		values = append(values, uint32(o.cmap))
	}

	err = xproto.CreateWindowChecked(
		xc,
		depth,
		wid,
		conn.Root,
		int16(o.bounds.X), int16(o.bounds.Y),
		uint16(o.bounds.Width), uint16(o.bounds.Height),
		0,
		xproto.WindowClassInputOutput,
		visual,
		mask,
		values,
	).Check()
	if err != nil {
		o.freeColormap()
		return nil, fmt.Errorf("failed to create overlay window: %w", err)
	}

	if err := o.setHints(title, windowType); err != nil {
		o.Destroy()
		return nil, err
	}
	return o, nil
}

func (o *Overlay) setHints(title, windowType string) error {
	xu := o.conn.XUtil

	wmType := "_NET_WM_WINDOW_TYPE_SPLASH"
	if windowType == WindowTypeDock {
		wmType = "_NET_WM_WINDOW_TYPE_DOCK"
	}
	if err := ewmh.WmWindowTypeSet(xu, o.win, []string{wmType}); err != nil {
		return fmt.Errorf("failed to set window type: %w", err)
	}
	if err := ewmh.WmStateSet(xu, o.win, []string{
		"_NET_WM_STATE_ABOVE",
		"_NET_WM_STATE_SKIP_TASKBAR",
		"_NET_WM_STATE_SKIP_PAGER",
	}); err != nil {
		return fmt.Errorf("failed to set window state: %w", err)
	}
	if err := motif.WmHintsSet(xu, o.win, &motif.Hints{
		Flags:      motif.HintDecorations,
		Decoration: motif.DecorationNone,
	}); err != nil {
		return fmt.Errorf("failed to set motif hints: %w", err)
	}

	// Names are cosmetic; failures are ignored.
	_ = ewmh.WmNameSet(xu, o.win, title)
	_ = icccm.WmClassSet(xu, o.win, &icccm.WmClass{Instance: title, Class: title})
	return nil
}

// Window returns the X11 window id.
func (o *Overlay) Window() xproto.Window {
	return o.win
}

// ARGB reports whether the overlay got a translucent visual.
func (o *Overlay) ARGB() bool {
	return o.argb
}

// SetBounds moves and resizes the overlay.
func (o *Overlay) SetBounds(bounds Rect) error {
	if o.destroy {
		return fmt.Errorf("overlay destroyed")
	}
	o.bounds = normalize(bounds)
	return xproto.ConfigureWindowChecked(
		o.conn.XUtil.Conn(),
		o.win,
		xproto.ConfigWindowX|xproto.ConfigWindowY|xproto.ConfigWindowWidth|xproto.ConfigWindowHeight,
		[]uint32{
			uint32(o.bounds.X),
			uint32(o.bounds.Y),
			uint32(o.bounds.Width),
			uint32(o.bounds.Height),
		},
	).Check()
}

// Show maps the overlay and raises it above everything else.
func (o *Overlay) Show() error {
	if o.destroy {
		return fmt.Errorf("overlay destroyed")
	}
	xc := o.conn.XUtil.Conn()
	if err := xproto.MapWindowChecked(xc, o.win).Check(); err != nil {
		return fmt.Errorf("failed to map overlay: %w", err)
	}
	xproto.ConfigureWindow(xc, o.win, xproto.ConfigWindowStackMode, []uint32{xproto.StackModeAbove})
	o.mapped = true
	return nil
}

// Hide unmaps the overlay without destroying it.
func (o *Overlay) Hide() error {
	if o.destroy || !o.mapped {
		return nil
	}
	o.mapped = false
	return xproto.UnmapWindowChecked(o.conn.XUtil.Conn(), o.win).Check()
}

// Focus asks the window manager to activate the overlay.
func (o *Overlay) Focus() error {
	if o.destroy || !o.mapped {
		return nil
	}
	return o.conn.FocusWindow(o.win)
}

// ToggleDebug paints or clears a translucent tint over the overlay.
func (o *Overlay) ToggleDebug() error {
	if o.destroy {
		return fmt.Errorf("overlay destroyed")
	}
	o.debug = !o.debug
	pixel := uint32(0)
	if o.debug {
		pixel = debugTint
		if !o.argb {
			pixel = debugTint & 0xffffff
		}
	}
	xc := o.conn.XUtil.Conn()
	xproto.ChangeWindowAttributes(xc, o.win, xproto.CwBackPixel, []uint32{pixel})
	return xproto.ClearAreaChecked(xc, false, o.win, 0, 0, 0, 0).Check()
}

// Visible reports whether the overlay is currently mapped.
func (o *Overlay) Visible() bool {
	return o.mapped
}

// Destroy destroys the window and its colormap. Safe to call twice.
func (o *Overlay) Destroy() error {
	if o.destroy {
		return nil
	}
	o.destroy = true
	o.mapped = false
	err := xproto.DestroyWindowChecked(o.conn.XUtil.Conn(), o.win).Check()
	o.freeColormap()
	return err
}

func (o *Overlay) freeColormap() {
	if o.cmap != 0 {
		xproto.FreeColormap(o.conn.XUtil.Conn(), o.cmap)
		o.cmap = 0
	}
}

func findARGBVisual(screen *xproto.ScreenInfo) (xproto.Visualid, bool) {
	for _, d := range screen.AllowedDepths {
		if d.Depth != 32 {
			continue
		}
		for _, v := range d.Visuals {
			if v.Class == xproto.VisualClassTrueColor {
				return v.VisualId, true
			}
		}
	}
	return 0, false
}

func normalize(r Rect) Rect {
	if r.Width < 1 {
		r.Width = 1
	}
	if r.Height < 1 {
		r.Height = 1
	}
	return r
}
