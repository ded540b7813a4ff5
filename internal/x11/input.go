package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgb/xtest"
	"github.com/BurntSushi/xgbutil/keybind"
)

// PressChord synthesizes a key chord through XTEST: keysyms are pressed in
// order and released in reverse.
func (c *Connection) PressChord(keysyms []string) error {
	if len(keysyms) == 0 {
		return nil
	}
	if err := c.initXTest(); err != nil {
		return err
	}

	codes := make([]xproto.Keycode, 0, len(keysyms))
	for _, sym := range keysyms {
		kc := keybind.StrToKeycodes(c.XUtil, sym)
		if len(kc) == 0 {
			return fmt.Errorf("no keycode for keysym %q", sym)
		}
		codes = append(codes, kc[0])
	}

	conn := c.XUtil.Conn()
	var pressed []xproto.Keycode
	release := func() {
		for i := len(pressed) - 1; i >= 0; i-- {
			xtest.FakeInput(conn, xproto.KeyRelease, byte(pressed[i]), 0, c.Root, 0, 0, 0)
		}
		conn.Sync()
	}

	for _, code := range codes {
		if err := xtest.FakeInputChecked(conn, xproto.KeyPress, byte(code), 0, c.Root, 0, 0, 0).Check(); err != nil {
			release()
			return fmt.Errorf("xtest key press failed: %w", err)
		}
		pressed = append(pressed, code)
	}
	release()
	return nil
}
