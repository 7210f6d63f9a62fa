// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package wlr

import (
	"github.com/mstarongithub/wayspace/seat"
	"github.com/mstarongithub/wayspace/space"
	"github.com/swaywm/go-wlroots/wlroots"
)

// seatSink passes what the router decided on to the wlroots seat
type seatSink struct {
	b *Backend
}

func (s *seatSink) toplevel(w *space.Window) (*toplevel, bool) {
	if w == nil {
		return nil, false
	}
	tl, ok := s.b.windows[w.ID()]
	return tl, ok
}

// Capabilities of the seat itself. Devices are only plugged in by Start,
// they change what clients are told in handleNewInput, not what the seat offers
func (s *seatSink) Capabilities() seat.Capability {
	return seat.CapPointer | seat.CapKeyboard
}

func (s *seatSink) KeyboardEnter(w *space.Window, _ seat.Serial) {
	tl, ok := s.toplevel(w)
	if !ok {
		return
	}
	tl.xdg.TopLevel().SetActivated(true)
	/* Tell the seat to have the keyboard enter this surface. wlroots keeps
	 * track of this and automatically sends key events to the right client */
	s.b.seat.NotifyKeyboardEnter(tl.xdg.Surface(), s.b.seat.Keyboard())
}

func (s *seatSink) KeyboardLeave(w *space.Window, _ seat.Serial) {
	if tl, ok := s.toplevel(w); ok {
		tl.xdg.TopLevel().SetActivated(false)
	}
}

func (s *seatSink) KeyboardKey(w *space.Window, ev seat.KeyEvent) {
	if _, ok := s.toplevel(w); !ok {
		return
	}
	state := wlroots.KeyStateReleased
	if ev.State == seat.KeyPressed {
		state = wlroots.KeyStatePressed
	}
	s.b.seat.SetKeyboard(s.b.lastKeyboard.Base())
	s.b.seat.NotifyKeyboardKey(ev.Time, ev.Code, state)
}

func (s *seatSink) PointerMotion(w *space.Window, ev seat.MotionEvent) {
	tl, ok := s.toplevel(w)
	if !ok {
		/* Nothing under the pointer, show the default image and drop focus */
		s.b.cursor.SetXCursor(s.b.cursorMgr, "default")
		s.b.seat.ClearPointerFocus()
		return
	}
	/* Enter is ignored by wlroots if the surface already has pointer focus */
	s.b.seat.NotifyPointerEnter(tl.xdg.Surface(), ev.Local.X, ev.Local.Y)
	s.b.seat.NotifyPointerMotion(ev.Time, ev.Local.X, ev.Local.Y)
}

func (s *seatSink) PointerButton(w *space.Window, ev seat.ButtonEvent) {
	if _, ok := s.toplevel(w); !ok {
		return
	}
	state := wlroots.ButtonStateReleased
	if ev.State == seat.ButtonPressed {
		state = wlroots.ButtonStatePressed
	}
	s.b.seat.NotifyPointerButton(ev.Time, ev.Button, state)
}

func (s *seatSink) PointerAxis(w *space.Window, ev seat.AxisEvent) {
	if _, ok := s.toplevel(w); !ok {
		return
	}
	s.b.seat.NotifyPointerAxis(ev.Time, wlroots.AxisOrientation(ev.Orientation), ev.Delta, ev.Discrete, s.b.axisSource)
}

func (s *seatSink) PointerFrame(w *space.Window) {
	if _, ok := s.toplevel(w); ok {
		s.b.seat.NotifyPointerFrame()
	}
}
