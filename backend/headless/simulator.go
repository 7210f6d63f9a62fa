// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package headless

import (
	"fmt"
	"image/color"

	"github.com/mstarongithub/wayspace/backend"
	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/space"
	"github.com/sirupsen/logrus"
	"gitlab.com/mstarongitlab/goutils/sliceutils"
)

func (b *Backend) ConnectClient() backend.ClientID {
	id := backend.ClientID(b.nextClient.Add(1))
	b.clients[id] = &client{id: id}
	b.queue = append(b.queue, backend.ClientConnectedEvent{Client: id})
	b.log.WithField("client", id).Debugln("Simulated client connected")
	return id
}

func (b *Backend) DisconnectClient(id backend.ClientID) error {
	if _, ok := b.clients[id]; !ok {
		return fmt.Errorf("%w: %d", backend.ErrUnknownClient, id)
	}
	b.dropClient(id)
	b.queue = append(b.queue, backend.ClientDisconnectedEvent{Client: id})
	return nil
}

// dropClient kills every surface of the client. The windows get pruned on the next refresh
func (b *Backend) dropClient(id backend.ClientID) {
	c := b.clients[id]
	for _, s := range c.surfaces {
		s.destroy()
		delete(b.surfaces, s.id)
	}
	delete(b.clients, id)
	b.log.WithFields(logrus.Fields{
		"client":   id,
		"surfaces": len(c.surfaces),
	}).Debugln("Client gone")
}

func (b *Backend) OpenWindow(clientID backend.ClientID, size generaldata.Vector2i, fill color.RGBA) (space.WindowID, error) {
	c, ok := b.clients[clientID]
	if !ok {
		return space.NoWindow, fmt.Errorf("%w: %d", backend.ErrUnknownClient, clientID)
	}
	if size.X <= 0 || size.Y <= 0 {
		return space.NoWindow, fmt.Errorf("invalid window size %dx%d", size.X, size.Y)
	}
	b.nextWindow++
	id := b.nextWindow
	s := newSurface(id, clientID, fill)
	c.surfaces = append(c.surfaces, s)
	b.surfaces[id] = s

	w := space.NewWindow(id, s, size)
	w.AppID = fmt.Sprintf("headless-%d", id)
	b.queue = append(b.queue, backend.WindowCreatedEvent{Client: clientID, Window: w})
	return id, nil
}

func (b *Backend) CloseWindow(id space.WindowID) error {
	s, ok := b.surfaces[id]
	if !ok {
		return fmt.Errorf("%w: %d", backend.ErrUnknownWindow, id)
	}
	s.destroy()
	delete(b.surfaces, id)
	if c, ok := b.clients[s.client]; ok {
		c.surfaces = sliceutils.Filter(c.surfaces, func(other *surface) bool {
			return other.id != id
		})
	}
	b.queue = append(b.queue, backend.WindowUnmappedEvent{Window: id})
	return nil
}

func (b *Backend) PaintWindow(id space.WindowID, fill color.RGBA) error {
	s, ok := b.surfaces[id]
	if !ok {
		return fmt.Errorf("%w: %d", backend.ErrUnknownWindow, id)
	}
	s.fill = fill
	b.queue = append(b.queue, backend.WindowCommittedEvent{Window: id})
	return nil
}

func (b *Backend) ResizeWindow(id space.WindowID, size generaldata.Vector2i) error {
	if _, ok := b.surfaces[id]; !ok {
		return fmt.Errorf("%w: %d", backend.ErrUnknownWindow, id)
	}
	b.queue = append(b.queue, backend.WindowCommittedEvent{Window: id, Size: &size})
	return nil
}

// Configure implements backend.Configurer. Simulated clients take the new size right away
func (b *Backend) Configure(id space.WindowID, size generaldata.Vector2i) error {
	return b.ResizeWindow(id, size)
}

func (b *Backend) RequestMove(id space.WindowID) error {
	if _, ok := b.surfaces[id]; !ok {
		return fmt.Errorf("%w: %d", backend.ErrUnknownWindow, id)
	}
	b.queue = append(b.queue, backend.MoveRequestedEvent{Window: id})
	return nil
}

// AddOutput plugs in a new virtual output to the right of the existing ones
func (b *Backend) AddOutput(name string, mode space.Mode) error {
	if b.find(name) != nil {
		return fmt.Errorf("output %s already exists", name)
	}
	if mode.Size.X <= 0 || mode.Size.Y <= 0 {
		return fmt.Errorf("invalid mode %s for output %s", mode, name)
	}
	var pos generaldata.Vector2i
	for _, o := range b.outputs {
		pos.X += o.output.LogicalSize().X
	}
	out := space.NewOutput(name, mode)
	b.outputs = append(b.outputs, &virtualOutput{
		output: out,
		fb:     newFramebuffer(mode.Size, b.surfaceFill),
		vsync:  b.now(),
	})
	b.queue = append(b.queue, backend.OutputAddedEvent{Output: out, Position: pos})
	b.log.WithFields(logrus.Fields{
		"output": name,
		"mode":   mode.String(),
	}).Debugln("Virtual output plugged in")
	return nil
}

func (b *Backend) RemoveOutput(name string) error {
	o := b.find(name)
	if o == nil {
		return fmt.Errorf("%w: %s", backend.ErrUnknownOutput, name)
	}
	b.outputs = sliceutils.Filter(b.outputs, func(other *virtualOutput) bool {
		return other != o
	})
	delete(b.redraws, name)
	o.fb.close()
	b.queue = append(b.queue, backend.OutputRemovedEvent{Output: name})
	return nil
}

func (b *Backend) SetMode(name string, mode space.Mode) error {
	o := b.find(name)
	if o == nil {
		return fmt.Errorf("%w: %s", backend.ErrUnknownOutput, name)
	}
	if mode.Size.X <= 0 || mode.Size.Y <= 0 {
		return fmt.Errorf("invalid mode %s for output %s", mode, name)
	}
	o.output.Mode = mode
	b.queue = append(b.queue, backend.OutputModeEvent{Output: name, Mode: mode})
	return nil
}
