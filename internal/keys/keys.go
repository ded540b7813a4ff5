package keys

import (
	"fmt"
	"strings"
)

// Key describes one physical key in the encodings the backends need.
type Key struct {
	// Name is the canonical descriptor name, e.g. "Ctrl" or "T".
	Name string
	// Keysym is the X11 keysym name understood by xgbutil/keybind.
	Keysym string
	// Evdev is the Linux input event code (KEY_*).
	Evdev uint32
	// VK is the Windows virtual-key code.
	VK uint16
	// Modifier is true for Ctrl/Alt/Shift/Super.
	Modifier bool
}

// Shortcut is an ordered key chord. Modifiers come first, in the order given.
type Shortcut struct {
	Keys []Key
}

// Empty reports whether the shortcut has no keys.
func (s Shortcut) Empty() bool {
	return len(s.Keys) == 0
}

// String renders the shortcut back to "Ctrl+Alt+T" form.
func (s Shortcut) String() string {
	names := make([]string, 0, len(s.Keys))
	for _, k := range s.Keys {
		names = append(names, k.Name)
	}
	return strings.Join(names, "+")
}

// Modifiers returns the modifier keys of the chord.
func (s Shortcut) Modifiers() []Key {
	var out []Key
	for _, k := range s.Keys {
		if k.Modifier {
			out = append(out, k)
		}
	}
	return out
}

// Parse parses a descriptor such as "Ctrl+Alt+T" or "Super+Space".
// Names are case-insensitive. Exactly one non-modifier key is required.
func Parse(descriptor string) (Shortcut, error) {
	descriptor = strings.TrimSpace(descriptor)
	if descriptor == "" {
		return Shortcut{}, nil
	}

	parts := strings.Split(descriptor, "+")
	var (
		mods []Key
		main *Key
	)
	seen := make(map[string]bool, len(parts))
	for _, part := range parts {
		name := strings.TrimSpace(part)
		if name == "" {
			return Shortcut{}, fmt.Errorf("invalid shortcut %q: empty key name", descriptor)
		}
		key, ok := lookup(name)
		if !ok {
			return Shortcut{}, fmt.Errorf("invalid shortcut %q: unknown key %q", descriptor, name)
		}
		if seen[key.Name] {
			return Shortcut{}, fmt.Errorf("invalid shortcut %q: duplicate key %q", descriptor, key.Name)
		}
		seen[key.Name] = true

		if key.Modifier {
			mods = append(mods, key)
			continue
		}
		if main != nil {
			return Shortcut{}, fmt.Errorf("invalid shortcut %q: more than one non-modifier key", descriptor)
		}
		k := key
		main = &k
	}
	if main == nil {
		return Shortcut{}, fmt.Errorf("invalid shortcut %q: missing non-modifier key", descriptor)
	}

	return Shortcut{Keys: append(mods, *main)}, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(descriptor string) Shortcut {
	s, err := Parse(descriptor)
	if err != nil {
		panic(err)
	}
	return s
}

func lookup(name string) (Key, bool) {
	lower := strings.ToLower(name)
	if alias, ok := aliases[lower]; ok {
		lower = alias
	}
	k, found := table[lower]
	return k, found
}
