// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package headless

import (
	"fmt"
	"sync"

	"github.com/mstarongithub/wayspace/seat"
	"github.com/mstarongithub/wayspace/space"
	"github.com/sirupsen/logrus"
)

const deliveryHistory = 256

// Delivery is one seat event as a simulated client received it
type Delivery struct {
	Window space.WindowID
	Kind   string
	Serial seat.Serial
	Detail string
}

func (d Delivery) String() string {
	return fmt.Sprintf("%s window=%d serial=%d %s", d.Kind, d.Window, d.Serial, d.Detail)
}

// seatSink hands seat events to simulated clients. Since those don't
// do anything with them, the events get logged and kept in a short history
type seatSink struct {
	lock    sync.Mutex
	history []Delivery
	log     *logrus.Entry
}

func newSeatSink() *seatSink {
	return &seatSink{log: logrus.WithFields(logrus.Fields{"component": "headless", "part": "seat"})}
}

func (s *seatSink) record(w *space.Window, kind string, serial seat.Serial, detail string) {
	id := space.NoWindow
	if w != nil {
		id = w.ID()
	}
	d := Delivery{Window: id, Kind: kind, Serial: serial, Detail: detail}
	s.lock.Lock()
	s.history = append(s.history, d)
	if len(s.history) > deliveryHistory {
		s.history = s.history[len(s.history)-deliveryHistory:]
	}
	s.lock.Unlock()
	s.log.WithField("delivery", d.String()).Debugln("Seat event delivered")
}

// History returns the most recent deliveries, oldest first
func (s *seatSink) History() []Delivery {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]Delivery(nil), s.history...)
}

func (s *seatSink) Capabilities() seat.Capability {
	return seat.CapPointer | seat.CapKeyboard
}

func (s *seatSink) KeyboardEnter(w *space.Window, serial seat.Serial) {
	s.record(w, "keyboard-enter", serial, "")
}

func (s *seatSink) KeyboardLeave(w *space.Window, serial seat.Serial) {
	s.record(w, "keyboard-leave", serial, "")
}

func (s *seatSink) KeyboardKey(w *space.Window, ev seat.KeyEvent) {
	state := "released"
	if ev.State == seat.KeyPressed {
		state = "pressed"
	}
	s.record(w, "key", ev.Serial, fmt.Sprintf("code=%d sym=%s mods=%s %s", ev.Code, ev.Sym, ev.Mods, state))
}

func (s *seatSink) PointerMotion(w *space.Window, ev seat.MotionEvent) {
	s.record(w, "motion", ev.Serial, fmt.Sprintf("x=%.1f y=%.1f", ev.Local.X, ev.Local.Y))
}

func (s *seatSink) PointerButton(w *space.Window, ev seat.ButtonEvent) {
	state := "released"
	if ev.State == seat.ButtonPressed {
		state = "pressed"
	}
	s.record(w, "button", ev.Serial, fmt.Sprintf("button=%#x %s", ev.Button, state))
}

func (s *seatSink) PointerAxis(w *space.Window, ev seat.AxisEvent) {
	s.record(w, "axis", ev.Serial, fmt.Sprintf("orientation=%d delta=%.1f", ev.Orientation, ev.Delta))
}

func (s *seatSink) PointerFrame(w *space.Window) {
	s.record(w, "frame", 0, "")
}
