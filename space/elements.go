// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package space

import (
	generaldata "github.com/mstarongithub/wayspace/general-data"
)

// RenderElement is one primitive of one window, clipped to a single output
type RenderElement struct {
	Window WindowID
	// Index of the primitive inside the window's primitive list
	Index     int
	Primitive Primitive
	// Destination in output local physical pixels
	Geometry generaldata.Rect
	// Visible part of the primitive, in primitive local logical coordinates
	Source generaldata.Rect
	// Commit counter of the window when the element was produced
	Commit uint64
}

// Key identifies the element across frames
func (e RenderElement) Key() ElementKey {
	return ElementKey{Window: e.Window, Index: e.Index}
}

type ElementKey struct {
	Window WindowID
	Index  int
}

// RenderElementsFor returns the elements needed to composite every window
// overlapping the named output, bottom to top. Unknown outputs yield nothing
func (s *Space) RenderElementsFor(name string) []RenderElement {
	out := s.Output(name)
	if out == nil {
		return nil
	}
	og := out.Geometry()
	scale := out.EffectiveScale()

	var elements []RenderElement
	for _, w := range s.windows {
		if !og.Overlaps(w.extents().Translate(w.Location)) {
			continue
		}
		for i, p := range w.Primitives() {
			global := p.Bounds.Translate(w.Location)
			visible, ok := global.Intersect(og)
			if !ok {
				continue
			}
			elements = append(elements, RenderElement{
				Window:    w.id,
				Index:     i,
				Primitive: p,
				Geometry:  visible.Translate(og.Loc().Neg()).Scale(scale),
				Source:    visible.Translate(global.Loc().Neg()),
				Commit:    w.commit,
			})
		}
	}
	return elements
}
