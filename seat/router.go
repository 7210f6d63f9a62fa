// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package seat routes keyboard and pointer input of the single seat to clients.
//
// Keysyms and modifiers are plain values using the X11 encoding instead of
// go-wlroots xkb types, so the seat and the headless backend build without cgo.
// The wlr backend resolves keys with xkb and hands over the same values
package seat

import (
	"errors"

	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/space"
	"github.com/sirupsen/logrus"
)

var (
	ErrNoKeyboard = errors.New("seat has no keyboard capability")
	ErrNoPointer  = errors.New("seat has no pointer capability")
)

// Raw device events, as handed over by the backend

type KeyInput struct {
	Time  uint32
	Code  uint32
	State KeyState
}

type AbsoluteMotionInput struct {
	Time uint32
	// Output the device is mapped to. Empty means the first output
	Output string
	// Normalized coordinates, 0..1 on each axis
	X, Y float64
}

type RelativeMotionInput struct {
	Time   uint32
	DX, DY float64
}

type ButtonInput struct {
	Time   uint32
	Button uint32
	State  ButtonState
}

type AxisInput struct {
	Time        uint32
	Orientation AxisOrientation
	Delta       float64
	Discrete    int32
}

type moveGrab struct {
	window space.WindowID
	// Pointer position relative to the window origin at grab start
	offset generaldata.Vector2f
}

// Router is the input state machine of the seat. It owns the keyboard focus and the pointer position.
// Windows are only ever referenced by ID and looked up in the space when needed
type Router struct {
	space    *space.Space
	sink     Sink
	keymap   Keymap
	actions  Actions
	bindings []Binding
	serials  *SerialCounter

	focus   space.WindowID
	pointer generaldata.Vector2f
	grab    *moveGrab
	// Key codes whose press got intercepted, their release is swallowed as well
	swallowed map[uint32]bool

	log *logrus.Entry
}

// NewRouter creates the router for a seat. The sink has to offer both keyboard and pointer.
// bindings are checked in order after the default quit bindings
func NewRouter(sp *space.Space, sink Sink, keymap Keymap, actions Actions, bindings []Binding) (*Router, error) {
	caps := sink.Capabilities()
	if caps&CapKeyboard == 0 {
		return nil, ErrNoKeyboard
	}
	if caps&CapPointer == 0 {
		return nil, ErrNoPointer
	}
	return &Router{
		space:     sp,
		sink:      sink,
		keymap:    keymap,
		actions:   actions,
		bindings:  append(DefaultBindings(), bindings...),
		serials:   &SerialCounter{},
		swallowed: map[uint32]bool{},
		log:       logrus.WithField("component", "seat"),
	}, nil
}

func (r *Router) Serials() *SerialCounter {
	return r.serials
}

// Focused returns the window with keyboard focus, or nil
func (r *Router) Focused() *space.Window {
	if r.focus == space.NoWindow {
		return nil
	}
	return r.space.Window(r.focus)
}

func (r *Router) Pointer() generaldata.Vector2f {
	return r.pointer
}

// WindowUnderPointer is recomputed on every call
func (r *Router) WindowUnderPointer() (*space.Window, generaldata.Vector2f, bool) {
	return r.space.HitTest(r.pointer)
}

// HandleKey intercepts compositor bindings and forwards every other key to the focused window
func (r *Router) HandleKey(ev KeyInput) {
	serial := r.serials.Next()
	sym, mods := r.keymap.Feed(ev.Code, ev.State)

	if ev.State == KeyPressed {
		for _, b := range r.bindings {
			if b.Matches(sym, mods) {
				r.swallowed[ev.Code] = true
				r.log.WithFields(logrus.Fields{
					"sym":  sym.String(),
					"mods": mods.String(),
				}).Debugln("Key binding triggered")
				r.run(b)
				return
			}
		}
	} else if r.swallowed[ev.Code] {
		delete(r.swallowed, ev.Code)
		return
	}

	w := r.Focused()
	if w == nil {
		return
	}
	r.sink.KeyboardKey(w, KeyEvent{
		Serial: serial,
		Time:   ev.Time,
		Code:   ev.Code,
		State:  ev.State,
		Sym:    sym,
		Mods:   mods,
	})
}

func (r *Router) run(b Binding) {
	switch b.Action {
	case ActionQuit:
		r.actions.Quit()
	case ActionSpawn:
		r.actions.Spawn(b.Command)
	case ActionCycleFocus:
		r.CycleFocus()
	case ActionTile:
		r.actions.Tile()
	}
}

// HandleAbsoluteMotion maps normalized device coordinates onto the output the event came from
func (r *Router) HandleAbsoluteMotion(ev AbsoluteMotionInput) {
	out := r.space.Output(ev.Output)
	if out == nil {
		outputs := r.space.Outputs()
		if len(outputs) == 0 {
			return
		}
		out = outputs[0]
	}
	geo := out.Geometry()
	r.pointer = generaldata.Vector2f{
		X: float64(geo.X) + ev.X*float64(geo.W),
		Y: float64(geo.Y) + ev.Y*float64(geo.H),
	}
	r.motion(ev.Time)
}

// HandleRelativeMotion moves the pointer by a delta, keeping it inside the outputs
func (r *Router) HandleRelativeMotion(ev RelativeMotionInput) {
	bounds := r.space.Bounds()
	if bounds.Empty() {
		return
	}
	r.pointer = bounds.Clamp(r.pointer.Add(generaldata.Vector2f{X: ev.DX, Y: ev.DY}))
	r.motion(ev.Time)
}

func (r *Router) motion(time uint32) {
	if r.grab != nil {
		r.processMove()
		return
	}

	serial := r.serials.Next()
	w, local, _ := r.space.HitTest(r.pointer)
	r.sink.PointerMotion(w, MotionEvent{
		Serial:   serial,
		Time:     time,
		Position: r.pointer,
		Local:    local,
	})
	r.sink.PointerFrame(w)
}

// HandleButton focuses and raises the window under the pointer on press, then delivers the button to it
func (r *Router) HandleButton(ev ButtonInput) {
	serial := r.serials.Next()

	if ev.State == ButtonPressed {
		if w, _, ok := r.space.HitTest(r.pointer); ok {
			r.space.Raise(w)
			r.setFocus(w, serial)
		}
	} else if r.grab != nil {
		r.log.WithField("window", r.grab.window).Debugln("Ending interactive move")
		r.grab = nil
	}

	w, _, _ := r.space.HitTest(r.pointer)
	r.sink.PointerButton(w, ButtonEvent{
		Serial: serial,
		Time:   ev.Time,
		Button: ev.Button,
		State:  ev.State,
	})
	r.sink.PointerFrame(w)
}

func (r *Router) HandleAxis(ev AxisInput) {
	serial := r.serials.Next()
	w, _, _ := r.space.HitTest(r.pointer)
	r.sink.PointerAxis(w, AxisEvent{
		Serial:      serial,
		Time:        ev.Time,
		Orientation: ev.Orientation,
		Delta:       ev.Delta,
		Discrete:    ev.Discrete,
	})
	r.sink.PointerFrame(w)
}

// SetFocus gives keyboard focus to w. A nil window clears the focus
func (r *Router) SetFocus(w *space.Window) {
	r.setFocus(w, r.serials.Next())
}

func (r *Router) setFocus(w *space.Window, serial Serial) {
	next := space.NoWindow
	if w != nil {
		next = w.ID()
	}
	if next == r.focus {
		return
	}
	if prev := r.Focused(); prev != nil {
		r.sink.KeyboardLeave(prev, serial)
	}
	r.focus = next
	if w != nil {
		r.sink.KeyboardEnter(w, serial)
	}
	r.log.WithField("window", next).Debugln("Keyboard focus changed")
}

// CycleFocus focuses and raises the bottommost window, walking through the whole stack on repeated calls
func (r *Router) CycleFocus() {
	windows := r.space.Windows()
	if len(windows) < 2 {
		return
	}
	next := windows[0]
	r.space.Raise(next)
	r.SetFocus(next)
}

// PruneFocus drops the keyboard focus if the focused window left the space.
// No leave notice is sent, the client surface is already gone
func (r *Router) PruneFocus() {
	if r.focus != space.NoWindow && r.space.Window(r.focus) == nil {
		r.log.WithField("window", r.focus).Debugln("Focused window is gone")
		r.focus = space.NoWindow
	}
	if r.grab != nil && r.space.Window(r.grab.window) == nil {
		r.grab = nil
	}
}

// BeginMove starts moving w with the pointer until the next button release.
// Requests for windows that aren't under the pointer are ignored
func (r *Router) BeginMove(id space.WindowID) bool {
	under, _, ok := r.space.HitTest(r.pointer)
	if !ok || under.ID() != id {
		return false
	}
	r.grab = &moveGrab{
		window: id,
		offset: r.pointer.Sub(under.Location.ToF()),
	}
	r.log.WithField("window", id).Debugln("Starting interactive move")
	return true
}

func (r *Router) Grabbing() bool {
	return r.grab != nil
}

func (r *Router) processMove() {
	w := r.space.Window(r.grab.window)
	if w == nil {
		r.grab = nil
		return
	}
	w.Location = r.pointer.Sub(r.grab.offset).Floor()
}
