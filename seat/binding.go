// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package seat

import (
	"errors"
	"fmt"
	"strings"
)

type Action int

const (
	// Stop the compositor
	ActionQuit = Action(iota)
	// Run Binding.Command
	ActionSpawn
	// Move keyboard focus to the next window in the stack
	ActionCycleFocus
	// Arrange the windows on the output under the pointer
	ActionTile
)

var ErrBadCombo = errors.New("invalid key combo")

// Binding is a compositor keybinding. The key event that triggers it never reaches a client
type Binding struct {
	Mods Modifiers
	Sym  Keysym
	// Match regardless of which modifiers are held
	AnyMods bool
	Action  Action
	Command string
}

// DefaultBindings are the quit combos that are always active
func DefaultBindings() []Binding {
	return []Binding{
		{Mods: ModCtrl | ModAlt, Sym: KeysymBackSpace, Action: ActionQuit},
		{Mods: ModLogo, Sym: KeysymQ, Action: ActionQuit},
		{Sym: KeysymEscape, AnyMods: true, Action: ActionQuit},
	}
}

// ParseCombo turns strings like "ctrl+alt+BackSpace" or "logo+Return" into modifiers and a keysym.
// The key has to come last
func ParseCombo(combo string) (Modifiers, Keysym, error) {
	parts := strings.Split(combo, "+")
	if len(parts) == 0 || combo == "" {
		return 0, KeysymNone, fmt.Errorf("%w: empty", ErrBadCombo)
	}
	var mods Modifiers
	for _, part := range parts[:len(parts)-1] {
		mod, ok := ModifierFromName(strings.TrimSpace(part))
		if !ok {
			return 0, KeysymNone, fmt.Errorf("%w: unknown modifier %q in %q", ErrBadCombo, part, combo)
		}
		mods |= mod
	}
	key := strings.TrimSpace(parts[len(parts)-1])
	sym, ok := KeysymFromName(key)
	if !ok {
		return 0, KeysymNone, fmt.Errorf("%w: unknown key %q in %q", ErrBadCombo, key, combo)
	}
	return mods, sym.Lower(), nil
}

// ParseAction resolves the action names used in the configuration
func ParseAction(name string) (Action, error) {
	switch strings.ToLower(name) {
	case "quit", "exit":
		return ActionQuit, nil
	case "cycle-focus", "cycle":
		return ActionCycleFocus, nil
	case "tile":
		return ActionTile, nil
	case "spawn", "exec", "":
		return ActionSpawn, nil
	default:
		return 0, fmt.Errorf("unknown action %q", name)
	}
}

// Matches reports whether the binding fires for sym with mods held.
// Caps lock never takes part in matching
func (b Binding) Matches(sym Keysym, mods Modifiers) bool {
	if sym.Lower() != b.Sym {
		return false
	}
	if b.AnyMods {
		return true
	}
	return mods&^ModCaps == b.Mods
}
