// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package generaldata

// Region is an unordered set of rectangles. Rectangles may overlap,
// the region only grows by merging rectangles that are fully contained
type Region []Rect

// Add inserts r unless it is empty or already covered by another rectangle.
// Rectangles covered by r are dropped
func (g Region) Add(r Rect) Region {
	if r.Empty() {
		return g
	}
	for _, existing := range g {
		if covers(existing, r) {
			return g
		}
	}
	out := make(Region, 0, len(g)+1)
	for _, existing := range g {
		if !covers(r, existing) {
			out = append(out, existing)
		}
	}
	return append(out, r)
}

// Clip cuts every rectangle down to bounds
func (g Region) Clip(bounds Rect) Region {
	var out Region
	for _, r := range g {
		if c, ok := r.Intersect(bounds); ok {
			out = out.Add(c)
		}
	}
	return out
}

func (g Region) Bounds() Rect {
	var b Rect
	for _, r := range g {
		b = b.Union(r)
	}
	return b
}

func (g Region) Empty() bool {
	return len(g) == 0
}

func covers(outer, inner Rect) bool {
	return inner.X >= outer.X && inner.Y >= outer.Y &&
		inner.Right() <= outer.Right() && inner.Bottom() <= outer.Bottom()
}
