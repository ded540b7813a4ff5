package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
)

// WindowInfo is the title and class of a top-level window.
type WindowInfo struct {
	ID    xproto.Window
	Title string
	Class string
}

// ActiveWindowInfo returns the focused window's title and WM_CLASS.
func (c *Connection) ActiveWindowInfo() (WindowInfo, error) {
	win, err := ewmh.ActiveWindowGet(c.XUtil)
	if err != nil {
		return WindowInfo{}, fmt.Errorf("failed to get active window: %w", err)
	}
	if win == 0 {
		return WindowInfo{}, fmt.Errorf("no active window")
	}

	info := WindowInfo{ID: win, Title: c.windowTitle(win)}
	if wmClass, err := icccm.WmClassGet(c.XUtil, win); err == nil {
		info.Class = strings.TrimSpace(wmClass.Class)
	}
	return info, nil
}

func (c *Connection) windowTitle(win xproto.Window) string {
	if title, err := ewmh.WmNameGet(c.XUtil, win); err == nil {
		if title = strings.TrimSpace(title); title != "" {
			return title
		}
	}
	if title, err := icccm.WmNameGet(c.XUtil, win); err == nil {
		return strings.TrimSpace(title)
	}
	return ""
}

// FocusWindow activates and raises a window using _NET_ACTIVE_WINDOW.
// The client message is built by hand because the xgbutil ewmh request
// helpers panic on this library version.
func (c *Connection) FocusWindow(win xproto.Window) error {
	atom, err := c.atom("_NET_ACTIVE_WINDOW")
	if err != nil {
		return err
	}

	const sourceIndication = 2 // pager/direct action
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   atom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{sourceIndication, 0, 0, 0, 0}),
	}

	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		c.Root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}

func (c *Connection) atom(name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(c.XUtil.Conn(), false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, fmt.Errorf("failed to intern %s: %w", name, err)
	}
	return reply.Atom, nil
}
