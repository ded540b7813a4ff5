package keys

import "fmt"

// Evdev codes from linux/input-event-codes.h, VK codes from winuser.h.
var table = func() map[string]Key {
	t := map[string]Key{
		"ctrl":  {Name: "Ctrl", Keysym: "Control_L", Evdev: 29, VK: 0xA2, Modifier: true},
		"alt":   {Name: "Alt", Keysym: "Alt_L", Evdev: 56, VK: 0xA4, Modifier: true},
		"shift": {Name: "Shift", Keysym: "Shift_L", Evdev: 42, VK: 0xA0, Modifier: true},
		"super": {Name: "Super", Keysym: "Super_L", Evdev: 125, VK: 0x5B, Modifier: true},

		"space":     {Name: "Space", Keysym: "space", Evdev: 57, VK: 0x20},
		"enter":     {Name: "Enter", Keysym: "Return", Evdev: 28, VK: 0x0D},
		"tab":       {Name: "Tab", Keysym: "Tab", Evdev: 15, VK: 0x09},
		"escape":    {Name: "Escape", Keysym: "Escape", Evdev: 1, VK: 0x1B},
		"backspace": {Name: "Backspace", Keysym: "BackSpace", Evdev: 14, VK: 0x08},
		"delete":    {Name: "Delete", Keysym: "Delete", Evdev: 111, VK: 0x2E},
		"insert":    {Name: "Insert", Keysym: "Insert", Evdev: 110, VK: 0x2D},
		"home":      {Name: "Home", Keysym: "Home", Evdev: 102, VK: 0x24},
		"end":       {Name: "End", Keysym: "End", Evdev: 107, VK: 0x23},
		"pageup":    {Name: "PageUp", Keysym: "Prior", Evdev: 104, VK: 0x21},
		"pagedown":  {Name: "PageDown", Keysym: "Next", Evdev: 109, VK: 0x22},
		"up":        {Name: "Up", Keysym: "Up", Evdev: 103, VK: 0x26},
		"down":      {Name: "Down", Keysym: "Down", Evdev: 108, VK: 0x28},
		"left":      {Name: "Left", Keysym: "Left", Evdev: 105, VK: 0x25},
		"right":     {Name: "Right", Keysym: "Right", Evdev: 106, VK: 0x27},
		"minus":     {Name: "Minus", Keysym: "minus", Evdev: 12, VK: 0xBD},
		"equal":     {Name: "Equal", Keysym: "equal", Evdev: 13, VK: 0xBB},
		"comma":     {Name: "Comma", Keysym: "comma", Evdev: 51, VK: 0xBC},
		"period":    {Name: "Period", Keysym: "period", Evdev: 52, VK: 0xBE},
		"slash":     {Name: "Slash", Keysym: "slash", Evdev: 53, VK: 0xBF},
	}

	// Letter rows in evdev order.
	rows := []struct {
		letters string
		first   uint32
	}{
		{"qwertyuiop", 16},
		{"asdfghjkl", 30},
		{"zxcvbnm", 44},
	}
	for _, row := range rows {
		for i, r := range row.letters {
			upper := string(r - 'a' + 'A')
			t[string(r)] = Key{
				Name:   upper,
				Keysym: string(r),
				Evdev:  row.first + uint32(i),
				VK:     uint16('A' + (r - 'a')),
			}
		}
	}

	// KEY_1..KEY_9 are 2..10, KEY_0 is 11.
	for d := 0; d <= 9; d++ {
		code := uint32(d + 1)
		if d == 0 {
			code = 11
		}
		name := fmt.Sprintf("%d", d)
		t[name] = Key{Name: name, Keysym: name, Evdev: code, VK: uint16('0' + d)}
	}

	// F1..F10 are 59..68, F11/F12 are 87/88.
	for f := 1; f <= 12; f++ {
		code := uint32(58 + f)
		if f == 11 {
			code = 87
		} else if f == 12 {
			code = 88
		}
		name := fmt.Sprintf("F%d", f)
		t[fmt.Sprintf("f%d", f)] = Key{Name: name, Keysym: name, Evdev: code, VK: uint16(0x6F + f)}
	}

	return t
}()

var aliases = map[string]string{
	"control":          "ctrl",
	"ctl":              "ctrl",
	"cmdorctrl":        "ctrl",
	"commandorcontrol": "ctrl",
	"option":           "alt",
	"meta":             "super",
	"mod4":             "super",
	"win":              "super",
	"cmd":              "super",
	"command":          "super",
	"return":           "enter",
	"esc":              "escape",
	"del":              "delete",
	"ins":              "insert",
	"pgup":             "pageup",
	"pgdn":             "pagedown",
	"plus":             "equal",
}
