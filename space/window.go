// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package space

import (
	"image"
	"image/color"
	"time"

	generaldata "github.com/mstarongithub/wayspace/general-data"
)

type WindowID uint64

// NoWindow is never handed out as a window ID
const NoWindow = WindowID(0)

// Surface is the client owned side of a window.
// Implemented by the backends
type Surface interface {
	// Whether the client still backs this surface. Dead surfaces get pruned on the next refresh
	Alive() bool
	// Tells the client a frame boundary happened so it can draw the next one
	SendFrame(elapsed time.Duration)
}

type PrimitiveKind int

const (
	// Content is drawn by the backend from the client's own buffer
	PrimitiveSurface = PrimitiveKind(iota)
	// Rectangle filled with Color
	PrimitiveSolid
	// Rectangle filled with Image
	PrimitiveImage
)

// Primitive is one cached drawing instruction of a window, in window local coordinates
type Primitive struct {
	Kind   PrimitiveKind
	Bounds generaldata.Rect
	Color  color.RGBA
	Image  image.Image
}

// Subsurface is an area attached to a window that takes part in hit-testing.
// Bounds are relative to the origin of the parent
type Subsurface struct {
	Bounds   generaldata.Rect
	Children []Subsurface
}

type Window struct {
	id      WindowID
	surface Surface

	// Top left corner in the global logical space
	Location generaldata.Vector2i
	Toplevel bool
	// Free form identifier supplied by the client (app id, title)
	AppID string

	size        generaldata.Vector2i
	primitives  []Primitive
	subsurfaces []Subsurface
	commit      uint64
}

func NewWindow(id WindowID, surface Surface, size generaldata.Vector2i) *Window {
	return &Window{
		id:       id,
		surface:  surface,
		size:     size,
		Toplevel: true,
		commit:   1,
	}
}

func (w *Window) ID() WindowID {
	return w.id
}

func (w *Window) Surface() Surface {
	return w.surface
}

func (w *Window) Size() generaldata.Vector2i {
	return w.size
}

// Geometry of the window in the global logical space
func (w *Window) Geometry() generaldata.Rect {
	return generaldata.NewRect(w.Location, w.size)
}

// Commit is increased every time the content or size of the window changes
func (w *Window) Commit() uint64 {
	return w.commit
}

func (w *Window) Resize(size generaldata.Vector2i) {
	if size == w.size {
		return
	}
	w.size = size
	w.commit++
}

// SetPrimitives replaces the cached render primitives of the window
func (w *Window) SetPrimitives(p []Primitive) {
	w.primitives = append([]Primitive(nil), p...)
	w.commit++
}

// Damage marks the content of the window as changed without replacing the primitives
func (w *Window) Damage() {
	w.commit++
}

// Primitives returns the cached render primitives. A window without any
// primitives is drawn as one surface primitive covering its size
func (w *Window) Primitives() []Primitive {
	if len(w.primitives) == 0 {
		return []Primitive{{
			Kind:   PrimitiveSurface,
			Bounds: generaldata.Rect{W: w.size.X, H: w.size.Y},
		}}
	}
	return w.primitives
}

func (w *Window) SetSubsurfaces(s []Subsurface) {
	w.subsurfaces = append([]Subsurface(nil), s...)
}

// extents is the window local bounding box of everything the window draws or accepts input on
func (w *Window) extents() generaldata.Rect {
	b := generaldata.Rect{W: w.size.X, H: w.size.Y}
	for _, p := range w.Primitives() {
		b = b.Union(p.Bounds)
	}
	for _, s := range w.subsurfaces {
		b = b.Union(subsurfaceExtents(s, generaldata.Vector2i{}))
	}
	return b
}

func subsurfaceExtents(s Subsurface, offset generaldata.Vector2i) generaldata.Rect {
	own := s.Bounds.Translate(offset)
	b := own
	for _, c := range s.Children {
		b = b.Union(subsurfaceExtents(c, own.Loc()))
	}
	return b
}

// accepts reports whether the window local point hits the window or any of its subsurfaces
func (w *Window) accepts(local generaldata.Vector2f) bool {
	if (generaldata.Rect{W: w.size.X, H: w.size.Y}).Contains(local) {
		return true
	}
	for _, s := range w.subsurfaces {
		if subsurfaceAccepts(s, generaldata.Vector2i{}, local) {
			return true
		}
	}
	return false
}

func subsurfaceAccepts(s Subsurface, offset generaldata.Vector2i, p generaldata.Vector2f) bool {
	b := s.Bounds.Translate(offset)
	if b.Contains(p) {
		return true
	}
	for _, c := range s.Children {
		if subsurfaceAccepts(c, b.Loc(), p) {
			return true
		}
	}
	return false
}
