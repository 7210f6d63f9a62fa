// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package seat

import (
	"sync/atomic"

	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/space"
)

// Serial correlates an input event with the client requests answering it
type Serial uint32

// SerialCounter hands out serials. Zero is never returned
type SerialCounter struct {
	last atomic.Uint32
}

func (c *SerialCounter) Next() Serial {
	return Serial(c.last.Add(1))
}

// Last returns the most recently handed out serial
func (c *SerialCounter) Last() Serial {
	return Serial(c.last.Load())
}

type Capability uint8

const (
	CapPointer = Capability(1 << iota)
	CapKeyboard
)

// KeyEvent is what a client receives for a key that wasn't intercepted
type KeyEvent struct {
	Serial Serial
	Time   uint32
	Code   uint32
	State  KeyState
	Sym    Keysym
	Mods   Modifiers
}

type MotionEvent struct {
	Serial Serial
	Time   uint32
	// Position in the global logical space
	Position generaldata.Vector2f
	// Position relative to the window receiving the event
	Local generaldata.Vector2f
}

type ButtonEvent struct {
	Serial Serial
	Time   uint32
	Button uint32
	State  ButtonState
}

type AxisEvent struct {
	Serial      Serial
	Time        uint32
	Orientation AxisOrientation
	Delta       float64
	Discrete    int32
}

// Sink delivers seat events to clients. It is the protocol side of the seat
// and is provided by the backend. A nil window means no client gets focus
type Sink interface {
	Capabilities() Capability
	KeyboardEnter(w *space.Window, serial Serial)
	KeyboardLeave(w *space.Window, serial Serial)
	KeyboardKey(w *space.Window, ev KeyEvent)
	PointerMotion(w *space.Window, ev MotionEvent)
	PointerButton(w *space.Window, ev ButtonEvent)
	PointerAxis(w *space.Window, ev AxisEvent)
	// Groups the events sent since the last frame so clients apply them at once
	PointerFrame(w *space.Window)
}

// Keymap translates key codes into keysyms, keeping track of modifier state
type Keymap interface {
	Feed(code uint32, state KeyState) (Keysym, Modifiers)
}

// Actions is how the router reaches the rest of the compositor when a binding fires
type Actions interface {
	Quit()
	Spawn(command string)
	// Arrange the windows on the output under the pointer
	Tile()
}
