// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package render

import (
	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/space"
)

type trackedElement struct {
	geometry generaldata.Rect
	commit   uint64
}

// DamageTracker remembers the elements of the last frame of one output
// and derives what changed since then
type DamageTracker struct {
	size  generaldata.Vector2i
	prev  map[space.ElementKey]trackedElement
	order []space.ElementKey
	full  bool
}

func NewDamageTracker() *DamageTracker {
	return &DamageTracker{
		prev: map[space.ElementKey]trackedElement{},
		full: true,
	}
}

// Reset makes the next computation damage the whole output
func (d *DamageTracker) Reset() {
	d.full = true
}

// Pending reports whether Compute would find anything changed for elements
func (d *DamageTracker) Pending(elements []space.RenderElement, size generaldata.Vector2i) bool {
	if d.full || size != d.size || len(elements) != len(d.order) {
		return true
	}
	for i, e := range elements {
		key := e.Key()
		old, ok := d.prev[key]
		if !ok || d.order[i] != key || old.geometry != e.Geometry || old.commit != e.Commit {
			return true
		}
	}
	return false
}

// Compute returns the damage between the last frame and elements, in output local physical pixels.
// changed is set when elements appeared, disappeared, got restacked or the whole output is damaged.
// A frame has to be submitted for those even if the damage turns out empty
func (d *DamageTracker) Compute(elements []space.RenderElement, size generaldata.Vector2i) (damage generaldata.Region, changed bool) {
	bounds := generaldata.Rect{W: size.X, H: size.Y}
	if size != d.size {
		d.full = true
	}

	next := make(map[space.ElementKey]trackedElement, len(elements))
	order := make([]space.ElementKey, 0, len(elements))
	for i, e := range elements {
		key := e.Key()
		next[key] = trackedElement{geometry: e.Geometry, commit: e.Commit}
		order = append(order, key)

		old, ok := d.prev[key]
		switch {
		case !ok:
			damage = damage.Add(e.Geometry)
			changed = true
		case old.geometry != e.Geometry:
			damage = damage.Add(old.geometry).Add(e.Geometry)
		case old.commit != e.Commit:
			damage = damage.Add(e.Geometry)
		case i >= len(d.order) || d.order[i] != key:
			// Same element, new place in the stack
			damage = damage.Add(e.Geometry)
			changed = true
		}
	}
	for key, old := range d.prev {
		if _, ok := next[key]; !ok {
			damage = damage.Add(old.geometry)
			changed = true
		}
	}

	if d.full {
		damage = generaldata.Region{bounds}
		changed = true
	}

	d.prev = next
	d.order = order
	d.size = size
	d.full = false
	return damage.Clip(bounds), changed
}
