// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package wlr

import (
	"fmt"
	"time"

	"github.com/mstarongithub/wayspace/backend"
	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/seat"
	"github.com/mstarongithub/wayspace/space"
	"github.com/swaywm/go-wlroots/wlroots"
)

// toplevel is one xdg toplevel and, while mapped, its window in the space
type toplevel struct {
	xdg    wlroots.XDGSurface
	window *space.Window
	alive  bool
}

// Alive until the client destroys the xdg surface
func (t *toplevel) Alive() bool {
	return t.alive
}

// SendFrame is a no-op, frame done goes out for the whole output on submit
func (t *toplevel) SendFrame(time.Duration) {}

func (b *Backend) handleNewXDGSurface(xdgSurface wlroots.XDGSurface) {
	switch xdgSurface.Role() {
	case wlroots.XDGSurfaceRolePopup:
		/* Popups hang off the scene tree of their parent and move with it */
		parent := xdgSurface.Popup().Parent().XDGSurface()
		xdgSurface.SetData(parent.SceneTree().NewXDGSurface(xdgSurface))
		return
	case wlroots.XDGSurfaceRoleTopLevel:
	default:
		return
	}

	xdgSurface.SetData(b.scene.Tree().NewXDGSurface(xdgSurface.TopLevel().Base()))
	tl := &toplevel{xdg: xdgSurface, alive: true}
	b.toplevels[xdgSurface] = tl

	xdgSurface.OnMap(b.handleMap)
	xdgSurface.OnUnmap(b.handleUnmap)
	xdgSurface.OnDestroy(b.handleDestroy)
	xdgSurface.TopLevel().OnRequestMove(func(_ wlroots.SeatClient, serial uint32) {
		if tl.window == nil {
			return
		}
		b.emit(backend.MoveRequestedEvent{Window: tl.window.ID(), Serial: seat.Serial(serial)})
	})
}

func (b *Backend) handleMap(xdgSurface wlroots.XDGSurface) {
	tl, ok := b.toplevels[xdgSurface]
	if !ok {
		return
	}
	b.nextWindow++
	tl.window = space.NewWindow(b.nextWindow, tl, geoSize(xdgSurface.Geometry()))
	b.windows[tl.window.ID()] = tl
	b.log.WithField("window", tl.window.ID()).Debugln("Toplevel mapped")
	b.emit(backend.WindowCreatedEvent{Window: tl.window})
}

func (b *Backend) handleUnmap(xdgSurface wlroots.XDGSurface) {
	tl, ok := b.toplevels[xdgSurface]
	if !ok || tl.window == nil {
		return
	}
	id := tl.window.ID()
	delete(b.windows, id)
	tl.window = nil
	b.emit(backend.WindowUnmappedEvent{Window: id})
}

func (b *Backend) handleDestroy(xdgSurface wlroots.XDGSurface) {
	tl, ok := b.toplevels[xdgSurface]
	if !ok {
		return
	}
	tl.alive = false
	delete(b.toplevels, xdgSurface)
	if tl.window != nil {
		delete(b.windows, tl.window.ID())
	}
}

// syncSizes reports toplevels whose geometry changed since the last frame
func (b *Backend) syncSizes() {
	for id, tl := range b.windows {
		size := geoSize(tl.xdg.Geometry())
		if size == tl.window.Size() {
			continue
		}
		b.emit(backend.WindowCommittedEvent{Window: id, Size: &size})
	}
}

// Configure implements backend.Configurer. The client picks the size up on its next commit
func (b *Backend) Configure(id space.WindowID, size generaldata.Vector2i) error {
	tl, ok := b.windows[id]
	if !ok {
		return fmt.Errorf("%w: %d", backend.ErrUnknownWindow, id)
	}
	tl.xdg.TopLevel().Base().TopLevelSetSize(uint32(max(size.X, 1)), uint32(max(size.Y, 1)))
	return nil
}
