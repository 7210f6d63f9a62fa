// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package wlr

import (
	"github.com/mstarongithub/wayspace/backend"
	"github.com/mstarongithub/wayspace/seat"
	"github.com/swaywm/go-wlroots/wlroots"
	"github.com/swaywm/go-wlroots/xkb"
)

func (b *Backend) handleNewInput(dev wlroots.InputDevice) {
	switch dev.Type() {
	case wlroots.InputDeviceTypePointer:
		/* Pointer handling all goes through the cursor */
		b.cursor.AttachInputDevice(dev)
	case wlroots.InputDeviceTypeKeyboard:
		b.handleNewKeyboard(dev)
	}

	/* There always is a cursor, even without pointer devices */
	caps := wlroots.SeatCapabilityPointer
	if len(b.keyboards) > 0 {
		caps |= wlroots.SeatCapabilityKeyboard
	}
	b.seat.SetCapabilities(caps)
}

func (b *Backend) handleNewKeyboard(dev wlroots.InputDevice) {
	keyboard := dev.Keyboard()

	/* Layout, variant and options come from the XKB_DEFAULT_* variables set on start */
	context := xkb.NewContext(xkb.KeySymFlagNoFlags)
	keymap := context.KeyMap()
	keyboard.SetKeymap(keymap)
	keymap.Destroy()
	context.Destroy()
	keyboard.SetRepeatInfo(b.opts.RepeatRate, b.opts.RepeatDelay)

	keyboard.OnModifiers(func(keyboard wlroots.Keyboard) {
		b.seat.SetKeyboard(dev)
		b.seat.NotifyKeyboardModifiers(keyboard)
	})
	keyboard.OnKey(b.handleKey)

	b.seat.SetKeyboard(dev)
	b.keyboards = append(b.keyboards, dev)
	b.log.WithField("keyboards", len(b.keyboards)).Debugln("New keyboard")
}

// handleKey resolves the key while xkb still has the matching state and queues it for the router
func (b *Backend) handleKey(keyboard wlroots.Keyboard, time uint32, keyCode uint32, _ bool, state wlroots.KeyState) {
	/* libinput key codes are offset by 8 in xkb */
	syms := keyboard.XKBState().Syms(xkb.KeyCode(keyCode + 8))
	sym := seat.KeysymNone
	if len(syms) > 0 {
		sym = seat.Keysym(syms[0])
	}
	b.keymap.push(sym, modifiers(keyboard.Modifiers()))
	b.lastKeyboard = keyboard

	keyState := seat.KeyReleased
	if state == wlroots.KeyStatePressed {
		keyState = seat.KeyPressed
	}
	b.emit(backend.KeyEvent{KeyInput: seat.KeyInput{Time: time, Code: keyCode, State: keyState}})
}

func (b *Backend) handleCursorMotion(dev wlroots.InputDevice, time uint32, dx float64, dy float64) {
	/* Moves the cursor image, the router keeps its own position */
	b.cursor.Move(dev, dx, dy)
	b.emit(backend.RelativeMotionEvent{RelativeMotionInput: seat.RelativeMotionInput{Time: time, DX: dx, DY: dy}})
}

func (b *Backend) handleCursorMotionAbsolute(dev wlroots.InputDevice, time uint32, x float64, y float64) {
	/* Happens when running nested, so there is one output to map onto */
	b.cursor.WarpAbsolute(dev, x, y)
	b.emit(backend.AbsoluteMotionEvent{AbsoluteMotionInput: seat.AbsoluteMotionInput{Time: time, X: x, Y: y}})
}

func (b *Backend) handleCursorButton(_ wlroots.InputDevice, time uint32, button uint32, state wlroots.ButtonState) {
	buttonState := seat.ButtonPressed
	if state == wlroots.ButtonStateReleased {
		buttonState = seat.ButtonReleased
	}
	b.emit(backend.ButtonEvent{ButtonInput: seat.ButtonInput{Time: time, Button: button, State: buttonState}})
}

func (b *Backend) handleCursorAxis(_ wlroots.InputDevice, time uint32, source wlroots.AxisSource, orientation wlroots.AxisOrientation, delta float64, deltaDiscrete int32) {
	b.axisSource = source
	b.emit(backend.AxisEvent{AxisInput: seat.AxisInput{
		Time:        time,
		Orientation: seat.AxisOrientation(orientation),
		Delta:       delta,
		Discrete:    deltaDiscrete,
	}})
}

func (b *Backend) handleSetCursorRequest(client wlroots.SeatClient, surface wlroots.Surface, _ uint32, hotspotX int32, hotspotY int32) {
	/* Any client can send this, only the one with pointer focus gets its way */
	if b.seat.PointerState().FocusedClient() == client {
		b.cursor.SetSurface(surface, hotspotX, hotspotY)
	}
}
