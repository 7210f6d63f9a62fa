// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package generaldata holds the small geometric value types shared by every
// part of the compositor. All rectangles are half-open: a point on the right
// or bottom edge is outside.
package generaldata

import "math"

type Vector2i struct {
	X, Y int
}

type Vector2f struct {
	X, Y float64
}

func (v Vector2i) Add(o Vector2i) Vector2i {
	return Vector2i{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vector2i) Sub(o Vector2i) Vector2i {
	return Vector2i{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vector2i) Neg() Vector2i {
	return Vector2i{X: -v.X, Y: -v.Y}
}

func (v Vector2i) ToF() Vector2f {
	return Vector2f{X: float64(v.X), Y: float64(v.Y)}
}

func (v Vector2f) Add(o Vector2f) Vector2f {
	return Vector2f{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vector2f) Sub(o Vector2f) Vector2f {
	return Vector2f{X: v.X - o.X, Y: v.Y - o.Y}
}

// Floor rounds both components towards negative infinity
func (v Vector2f) Floor() Vector2i {
	return Vector2i{X: int(math.Floor(v.X)), Y: int(math.Floor(v.Y))}
}

// Rect is an axis aligned rectangle with its origin in the top left corner
type Rect struct {
	X, Y int
	W, H int
}

func NewRect(loc, size Vector2i) Rect {
	return Rect{X: loc.X, Y: loc.Y, W: size.X, H: size.Y}
}

func (r Rect) Loc() Vector2i {
	return Vector2i{X: r.X, Y: r.Y}
}

func (r Rect) Size() Vector2i {
	return Vector2i{X: r.W, Y: r.H}
}

func (r Rect) Right() int {
	return r.X + r.W
}

func (r Rect) Bottom() int {
	return r.Y + r.H
}

func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

func (r Rect) Area() int {
	if r.Empty() {
		return 0
	}
	return r.W * r.H
}

// Contains reports whether p lies inside r
func (r Rect) Contains(p Vector2f) bool {
	if r.Empty() {
		return false
	}
	return p.X >= float64(r.X) && p.X < float64(r.Right()) &&
		p.Y >= float64(r.Y) && p.Y < float64(r.Bottom())
}

func (r Rect) Overlaps(o Rect) bool {
	_, ok := r.Intersect(o)
	return ok
}

// Intersect returns the overlap of r and o. ok is false if they don't overlap
func (r Rect) Intersect(o Rect) (res Rect, ok bool) {
	x1 := max(r.X, o.X)
	y1 := max(r.Y, o.Y)
	x2 := min(r.Right(), o.Right())
	y2 := min(r.Bottom(), o.Bottom())
	if x2 <= x1 || y2 <= y1 {
		return Rect{}, false
	}
	return Rect{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}, true
}

// Union returns the bounding box of r and o. Empty rectangles are ignored
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	x1 := min(r.X, o.X)
	y1 := min(r.Y, o.Y)
	x2 := max(r.Right(), o.Right())
	y2 := max(r.Bottom(), o.Bottom())
	return Rect{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

func (r Rect) Translate(by Vector2i) Rect {
	r.X += by.X
	r.Y += by.Y
	return r
}

// Scale multiplies the rectangle by f, growing it outwards to whole pixels
func (r Rect) Scale(f float64) Rect {
	if f == 1 {
		return r
	}
	x1 := int(math.Floor(float64(r.X) * f))
	y1 := int(math.Floor(float64(r.Y) * f))
	x2 := int(math.Ceil(float64(r.Right()) * f))
	y2 := int(math.Ceil(float64(r.Bottom()) * f))
	return Rect{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

// Clamp moves p to the closest point still inside r
func (r Rect) Clamp(p Vector2f) Vector2f {
	if r.Empty() {
		return p
	}
	// Right and bottom edges are exclusive, keep the point just inside
	maxX := math.Nextafter(float64(r.Right()), math.Inf(-1))
	maxY := math.Nextafter(float64(r.Bottom()), math.Inf(-1))
	return Vector2f{
		X: math.Min(math.Max(p.X, float64(r.X)), maxX),
		Y: math.Min(math.Max(p.Y, float64(r.Y)), maxY),
	}
}
