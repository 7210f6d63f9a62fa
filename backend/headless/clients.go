// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package headless

import (
	"image/color"
	"sync/atomic"
	"time"

	"github.com/mstarongithub/wayspace/backend"
	"github.com/mstarongithub/wayspace/space"
)

// surface is the client side of a simulated window. Its content is one solid color
type surface struct {
	id     space.WindowID
	client backend.ClientID
	fill   color.RGBA
	alive  atomic.Bool
	frames atomic.Uint64
	// Time of the last frame callback, as nanoseconds since the space was created
	lastFrame atomic.Int64
}

func newSurface(id space.WindowID, client backend.ClientID, fill color.RGBA) *surface {
	s := &surface{id: id, client: client, fill: fill}
	s.alive.Store(true)
	return s
}

// Alive implements space.Surface
func (s *surface) Alive() bool {
	return s.alive.Load()
}

// SendFrame implements space.Surface
func (s *surface) SendFrame(elapsed time.Duration) {
	s.frames.Add(1)
	s.lastFrame.Store(int64(elapsed))
}

func (s *surface) destroy() {
	s.alive.Store(false)
}

// Frames is the number of frame callbacks the surface received
func (s *surface) Frames() uint64 {
	return s.frames.Load()
}

type client struct {
	id       backend.ClientID
	surfaces []*surface
	// Set for clients that connected through the socket
	conn bool
}
