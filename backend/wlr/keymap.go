// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package wlr

import (
	"github.com/mstarongithub/wayspace/seat"
	"github.com/swaywm/go-wlroots/wlroots"
)

type resolvedKey struct {
	sym  seat.Keysym
	mods seat.Modifiers
}

// Keymap hands out the keysyms xkb resolved while the key callbacks ran.
// Every queued key event has exactly one entry, in the same order
type Keymap struct {
	pending []resolvedKey
}

func (k *Keymap) push(sym seat.Keysym, mods seat.Modifiers) {
	k.pending = append(k.pending, resolvedKey{sym: sym, mods: mods})
}

// Feed returns the next resolved key. Keys that never went through xkb resolve to nothing
func (k *Keymap) Feed(uint32, seat.KeyState) (seat.Keysym, seat.Modifiers) {
	if len(k.pending) == 0 {
		return seat.KeysymNone, 0
	}
	key := k.pending[0]
	k.pending = k.pending[1:]
	return key.sym, key.mods
}

var wlrModifiers = []struct {
	wlr  wlroots.KeyboardModifier
	mods seat.Modifiers
}{
	{wlroots.KeyboardModifierShift, seat.ModShift},
	{wlroots.KeyboardModifierCaps, seat.ModCaps},
	{wlroots.KeyboardModifierCtrl, seat.ModCtrl},
	{wlroots.KeyboardModifierAlt, seat.ModAlt},
	{wlroots.KeyboardModifierLogo, seat.ModLogo},
}

func modifiers(m wlroots.KeyboardModifier) seat.Modifiers {
	var mods seat.Modifiers
	for _, entry := range wlrModifiers {
		if m&entry.wlr != 0 {
			mods |= entry.mods
		}
	}
	return mods
}
