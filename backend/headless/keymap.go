// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package headless

import (
	"fmt"

	"github.com/mstarongithub/wayspace/seat"
)

// Linux evdev key codes
const (
	KeyEsc        = 1
	KeyBackSpace  = 14
	KeyTab        = 15
	KeyQ          = 16
	KeyEnter      = 28
	KeyLeftCtrl   = 29
	KeyLeftShift  = 42
	KeyRightShift = 54
	KeyLeftAlt    = 56
	KeySpace      = 57
	KeyCapsLock   = 58
	KeyF1         = 59
	KeyF10        = 68
	KeyF11        = 87
	KeyF12        = 88
	KeyRightCtrl  = 97
	KeyRightAlt   = 100
	KeyUp         = 103
	KeyLeft       = 105
	KeyRight      = 106
	KeyDown       = 108
	KeyDelete     = 111
	KeyLeftMeta   = 125
	KeyRightMeta  = 126
)

// Printable keys of the US layout, unshifted and shifted
var usRows = []struct {
	first          uint32
	plain, shifted string
}{
	{2, "1234567890-=", "!@#$%^&*()_+"},
	{16, "qwertyuiop[]", "QWERTYUIOP{}"},
	{30, "asdfghjkl;'`", "ASDFGHJKL:\"~"},
	{43, "\\zxcvbnm,./", "|ZXCVBNM<>?"},
}

var usSpecial = map[uint32]seat.Keysym{
	KeyEsc:        seat.KeysymEscape,
	KeyBackSpace:  seat.KeysymBackSpace,
	KeyTab:        seat.KeysymTab,
	KeyEnter:      seat.KeysymReturn,
	KeySpace:      seat.KeysymSpace,
	KeyLeftCtrl:   seat.KeysymControlL,
	KeyRightCtrl:  seat.KeysymControlR,
	KeyLeftShift:  seat.KeysymShiftL,
	KeyRightShift: seat.KeysymShiftR,
	KeyLeftAlt:    seat.KeysymAltL,
	KeyRightAlt:   seat.KeysymAltR,
	KeyLeftMeta:   seat.KeysymSuperL,
	KeyRightMeta:  seat.KeysymSuperR,
	KeyCapsLock:   seat.KeysymCapsLock,
	KeyUp:         seat.KeysymUp,
	KeyLeft:       seat.KeysymLeft,
	KeyRight:      seat.KeysymRight,
	KeyDown:       seat.KeysymDown,
	KeyDelete:     seat.KeysymDelete,
	KeyF11:        seat.KeysymF1 + 10,
	KeyF12:        seat.KeysymF12,
}

var usModifiers = map[uint32]seat.Modifiers{
	KeyLeftShift:  seat.ModShift,
	KeyRightShift: seat.ModShift,
	KeyLeftCtrl:   seat.ModCtrl,
	KeyRightCtrl:  seat.ModCtrl,
	KeyLeftAlt:    seat.ModAlt,
	KeyRightAlt:   seat.ModAlt,
	KeyLeftMeta:   seat.ModLogo,
	KeyRightMeta:  seat.ModLogo,
}

// Keymap is a fixed US layout keymap for evdev key codes
type Keymap struct {
	// Number of pressed keys per modifier, so left and right can overlap
	held map[seat.Modifiers]int
	caps bool
}

func NewKeymap() *Keymap {
	return &Keymap{held: map[seat.Modifiers]int{}}
}

// Feed updates the modifier state with the key and returns its keysym
func (k *Keymap) Feed(code uint32, state seat.KeyState) (seat.Keysym, seat.Modifiers) {
	if mod, ok := usModifiers[code]; ok {
		if state == seat.KeyPressed {
			k.held[mod]++
		} else if k.held[mod] > 0 {
			k.held[mod]--
		}
	}
	if code == KeyCapsLock && state == seat.KeyPressed {
		k.caps = !k.caps
	}
	mods := k.Modifiers()
	return k.lookup(code, mods), mods
}

func (k *Keymap) Modifiers() seat.Modifiers {
	var mods seat.Modifiers
	for mod, n := range k.held {
		if n > 0 {
			mods |= mod
		}
	}
	if k.caps {
		mods |= seat.ModCaps
	}
	return mods
}

func (k *Keymap) lookup(code uint32, mods seat.Modifiers) seat.Keysym {
	if sym, ok := usSpecial[code]; ok {
		return sym
	}
	if code >= KeyF1 && code <= KeyF10 {
		return seat.KeysymF1 + seat.Keysym(code-KeyF1)
	}
	shift := mods&seat.ModShift != 0
	for _, row := range usRows {
		if code < row.first || code >= row.first+uint32(len(row.plain)) {
			continue
		}
		i := code - row.first
		plain := seat.Keysym(row.plain[i])
		upper := seat.Keysym(row.shifted[i])
		letter := plain >= 'a' && plain <= 'z'
		if letter && mods&seat.ModCaps != 0 {
			shift = !shift
		}
		if shift {
			return upper
		}
		return plain
	}
	return seat.KeysymNone
}

// CodeForKeysym finds the key code and whether shift is needed to type sym
func CodeForKeysym(sym seat.Keysym) (code uint32, shift bool, ok bool) {
	for c, s := range usSpecial {
		if s == sym {
			return c, false, true
		}
	}
	if sym >= seat.KeysymF1 && sym < seat.KeysymF1+10 {
		return KeyF1 + uint32(sym-seat.KeysymF1), false, true
	}
	for _, row := range usRows {
		for i := range row.plain {
			if seat.Keysym(row.plain[i]) == sym {
				return row.first + uint32(i), false, true
			}
			if seat.Keysym(row.shifted[i]) == sym {
				return row.first + uint32(i), true, true
			}
		}
	}
	return 0, false, false
}

var modifierCodes = []struct {
	mod  seat.Modifiers
	code uint32
}{
	{seat.ModCtrl, KeyLeftCtrl},
	{seat.ModAlt, KeyLeftAlt},
	{seat.ModLogo, KeyLeftMeta},
	{seat.ModShift, KeyLeftShift},
}

// KeyCodes returns the codes to press, in order, to type sym while mods are held.
// Shift gets added when sym needs it. Caps lock is never pressed
func KeyCodes(mods seat.Modifiers, sym seat.Keysym) ([]uint32, error) {
	code, shift, ok := CodeForKeysym(sym)
	if !ok {
		return nil, fmt.Errorf("no key for keysym %s", sym)
	}
	if shift {
		mods |= seat.ModShift
	}
	var codes []uint32
	for _, m := range modifierCodes {
		if mods&m.mod != 0 {
			codes = append(codes, m.code)
		}
	}
	return append(codes, code), nil
}
