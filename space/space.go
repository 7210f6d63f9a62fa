// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package space keeps track of the outputs making up the global compositing
// space and of the stack of windows painted onto them.
package space

import (
	"time"

	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/sirupsen/logrus"
	"gitlab.com/mstarongitlab/goutils/sliceutils"
)

// Placement is a configured override for one output
type Placement struct {
	// Nil keeps the position the backend picked
	Pos *generaldata.Vector2i
	// Values below or equal to 0 keep the output's scale
	Scale float64
}

// Placements supplies per output overrides, matched by output name
type Placements interface {
	OutputPlacement(name string) (Placement, bool)
}

// Space is the registry of outputs and the stack of windows.
// The stack is in paint order: the last window is the topmost one
type Space struct {
	outputs    []*Output
	windows    []*Window
	placements Placements
	start      time.Time
	log        *logrus.Entry
}

// New creates an empty space. placements may be nil
func New(placements Placements) *Space {
	return &Space{
		placements: placements,
		start:      time.Now(),
		log:        logrus.WithField("component", "space"),
	}
}

// MapOutput places an output at pos, or moves it there if it is already mapped.
// A configured position for the output's name takes precedence over pos
func (s *Space) MapOutput(output *Output, pos generaldata.Vector2i) {
	if s.placements != nil {
		if p, ok := s.placements.OutputPlacement(output.Name); ok {
			if p.Pos != nil {
				pos = *p.Pos
			}
			if p.Scale > 0 {
				output.Scale = p.Scale
			}
		}
	}
	output.location = pos
	output.mapped = true

	for i, o := range s.outputs {
		if o.Name == output.Name {
			s.outputs[i] = output
			s.log.WithFields(logrus.Fields{
				"output":   output.Name,
				"position": pos,
			}).Debugln("Relocated output")
			return
		}
	}
	s.outputs = append(s.outputs, output)
	s.log.WithFields(logrus.Fields{
		"output":   output.Name,
		"position": pos,
		"mode":     output.Mode.String(),
		"scale":    output.EffectiveScale(),
	}).Infoln("Mapped output")
}

func (s *Space) UnmapOutput(name string) {
	before := len(s.outputs)
	s.outputs = sliceutils.Filter(s.outputs, func(o *Output) bool {
		if o.Name == name {
			o.mapped = false
			return false
		}
		return true
	})
	if len(s.outputs) != before {
		s.log.WithField("output", name).Infoln("Unmapped output")
	}
}

func (s *Space) Output(name string) *Output {
	for _, o := range s.outputs {
		if o.Name == name {
			return o
		}
	}
	return nil
}

// Outputs returns the mapped outputs in mapping order
func (s *Space) Outputs() []*Output {
	return append([]*Output(nil), s.outputs...)
}

// OutputAt returns the output containing p, or nil
func (s *Space) OutputAt(p generaldata.Vector2f) *Output {
	for _, o := range s.outputs {
		if o.Geometry().Contains(p) {
			return o
		}
	}
	return nil
}

// Bounds is the bounding box of all mapped outputs
func (s *Space) Bounds() generaldata.Rect {
	var b generaldata.Rect
	for _, o := range s.outputs {
		b = b.Union(o.Geometry())
	}
	return b
}

// MapWindow puts w on top of the stack. Mapping an already mapped window does nothing
func (s *Space) MapWindow(w *Window) {
	if s.index(w.id) >= 0 {
		return
	}
	s.windows = append(s.windows, w)
	s.log.WithFields(logrus.Fields{
		"window":   w.id,
		"geometry": w.Geometry(),
		"stack":    len(s.windows),
	}).Debugln("Mapped window")
}

func (s *Space) UnmapWindow(w *Window) {
	i := s.index(w.id)
	if i < 0 {
		return
	}
	s.windows = append(s.windows[:i], s.windows[i+1:]...)
	s.log.WithFields(logrus.Fields{
		"window": w.id,
		"stack":  len(s.windows),
	}).Debugln("Unmapped window")
}

// Raise moves w to the top of the stack, keeping the order of every other window.
// Windows that aren't mapped stay unmapped
func (s *Space) Raise(w *Window) {
	i := s.index(w.id)
	if i < 0 || i == len(s.windows)-1 {
		return
	}
	copy(s.windows[i:], s.windows[i+1:])
	s.windows[len(s.windows)-1] = w
}

// Window looks up a mapped window by its ID
func (s *Space) Window(id WindowID) *Window {
	if i := s.index(id); i >= 0 {
		return s.windows[i]
	}
	return nil
}

// Windows returns the stack from bottom to top
func (s *Space) Windows() []*Window {
	return append([]*Window(nil), s.windows...)
}

func (s *Space) index(id WindowID) int {
	for i, w := range s.windows {
		if w.id == id {
			return i
		}
	}
	return -1
}

// HitTest returns the topmost window under p and p translated into the window's local coordinates
func (s *Space) HitTest(p generaldata.Vector2f) (*Window, generaldata.Vector2f, bool) {
	for i := len(s.windows) - 1; i >= 0; i-- {
		w := s.windows[i]
		local := p.Sub(w.Location.ToF())
		if w.accepts(local) {
			return w, local, true
		}
	}
	return nil, generaldata.Vector2f{}, false
}

// OutputsFor returns every output the window overlaps
func (s *Space) OutputsFor(w *Window) []*Output {
	ext := w.extents().Translate(w.Location)
	return sliceutils.Filter(s.Outputs(), func(o *Output) bool {
		return o.Geometry().Overlaps(ext)
	})
}

// Refresh drops every window whose surface died and tells the rest that a frame boundary happened.
// Returns the IDs of the dropped windows
func (s *Space) Refresh() []WindowID {
	var pruned []WindowID
	s.windows = sliceutils.Filter(s.windows, func(w *Window) bool {
		if w.surface != nil && !w.surface.Alive() {
			pruned = append(pruned, w.id)
			return false
		}
		return true
	})
	if len(pruned) > 0 {
		s.log.WithField("windows", pruned).Debugln("Pruned dead windows")
	}

	elapsed := time.Since(s.start)
	for _, w := range s.windows {
		if w.surface != nil {
			w.surface.SendFrame(elapsed)
		}
	}
	return pruned
}
