// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package seat

import (
	"fmt"
	"strings"
)

// Keysym is a symbolic key as produced by a keymap. Values follow the X11 keysym encoding
type Keysym uint32

const (
	KeysymNone      = Keysym(0)
	KeysymSpace     = Keysym(0x0020)
	KeysymBackSpace = Keysym(0xff08)
	KeysymTab       = Keysym(0xff09)
	KeysymReturn    = Keysym(0xff0d)
	KeysymEscape    = Keysym(0xff1b)
	KeysymDelete    = Keysym(0xffff)
	KeysymLeft      = Keysym(0xff51)
	KeysymUp        = Keysym(0xff52)
	KeysymRight     = Keysym(0xff53)
	KeysymDown      = Keysym(0xff54)
	KeysymF1        = Keysym(0xffbe)
	KeysymF12       = Keysym(0xffc9)
	KeysymShiftL    = Keysym(0xffe1)
	KeysymShiftR    = Keysym(0xffe2)
	KeysymControlL  = Keysym(0xffe3)
	KeysymControlR  = Keysym(0xffe4)
	KeysymCapsLock  = Keysym(0xffe5)
	KeysymAltL      = Keysym(0xffe9)
	KeysymAltR      = Keysym(0xffea)
	KeysymSuperL    = Keysym(0xffeb)
	KeysymSuperR    = Keysym(0xffec)
	KeysymQ         = Keysym('q')
)

var keysymNames = map[string]Keysym{
	"space":     KeysymSpace,
	"BackSpace": KeysymBackSpace,
	"Tab":       KeysymTab,
	"Return":    KeysymReturn,
	"Escape":    KeysymEscape,
	"Delete":    KeysymDelete,
	"Left":      KeysymLeft,
	"Up":        KeysymUp,
	"Right":     KeysymRight,
	"Down":      KeysymDown,
	"Shift_L":   KeysymShiftL,
	"Shift_R":   KeysymShiftR,
	"Control_L": KeysymControlL,
	"Control_R": KeysymControlR,
	"Caps_Lock": KeysymCapsLock,
	"Alt_L":     KeysymAltL,
	"Alt_R":     KeysymAltR,
	"Super_L":   KeysymSuperL,
	"Super_R":   KeysymSuperR,
}

// KeysymFromName resolves names like "Escape", "q", "F5" or "BackSpace"
func KeysymFromName(name string) (Keysym, bool) {
	if sym, ok := keysymNames[name]; ok {
		return sym, true
	}
	if len(name) == 1 && name[0] >= 0x20 && name[0] < 0x7f {
		return Keysym(name[0]), true
	}
	var n int
	if _, err := fmt.Sscanf(name, "F%d", &n); err == nil && n >= 1 && n <= 12 && name == fmt.Sprintf("F%d", n) {
		return KeysymF1 + Keysym(n-1), true
	}
	return KeysymNone, false
}

func (k Keysym) String() string {
	for name, sym := range keysymNames {
		if sym == k {
			return name
		}
	}
	if k >= KeysymF1 && k <= KeysymF12 {
		return fmt.Sprintf("F%d", k-KeysymF1+1)
	}
	if k >= 0x20 && k < 0x7f {
		return string(rune(k))
	}
	return fmt.Sprintf("0x%04x", uint32(k))
}

// Lower folds latin capital letters onto their lowercase keysym
func (k Keysym) Lower() Keysym {
	if k >= 'A' && k <= 'Z' {
		return k + ('a' - 'A')
	}
	return k
}

type Modifiers uint8

const (
	ModShift = Modifiers(1 << iota)
	ModCaps
	ModCtrl
	ModAlt
	ModLogo
)

var modifierNames = []struct {
	mod   Modifiers
	names []string
}{
	{ModShift, []string{"shift"}},
	{ModCaps, []string{"caps", "lock"}},
	{ModCtrl, []string{"ctrl", "control"}},
	{ModAlt, []string{"alt", "mod1"}},
	{ModLogo, []string{"logo", "super", "mod4", "win"}},
}

// ModifierFromName resolves names like "ctrl" or "super", ignoring case
func ModifierFromName(name string) (Modifiers, bool) {
	name = strings.ToLower(name)
	for _, m := range modifierNames {
		for _, n := range m.names {
			if n == name {
				return m.mod, true
			}
		}
	}
	return 0, false
}

func (m Modifiers) String() string {
	var parts []string
	for _, entry := range modifierNames {
		if m&entry.mod != 0 {
			parts = append(parts, entry.names[0])
		}
	}
	return strings.Join(parts, "+")
}

type KeyState int

const (
	KeyReleased = KeyState(iota)
	KeyPressed
)

type ButtonState int

const (
	ButtonReleased = ButtonState(iota)
	ButtonPressed
)

// Linux input event codes of the common pointer buttons
const (
	BtnLeft   = uint32(0x110)
	BtnRight  = uint32(0x111)
	BtnMiddle = uint32(0x112)
)

type AxisOrientation int

const (
	AxisVertical = AxisOrientation(iota)
	AxisHorizontal
)
