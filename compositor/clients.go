// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package compositor

import (
	"sort"
	"time"

	"github.com/mstarongithub/wayspace/backend"
	"github.com/mstarongithub/wayspace/space"
	"gitlab.com/mstarongitlab/goutils/sliceutils"
)

// Client is what the compositor knows about one connected client
type Client struct {
	ID        backend.ClientID
	Connected time.Time
	// Windows of the client that are still mapped, in creation order
	Windows []space.WindowID
}

func (c *Compositor) addClient(id backend.ClientID) {
	if _, ok := c.clients[id]; ok {
		return
	}
	c.clients[id] = &Client{ID: id, Connected: time.Now()}
	c.log.WithField("client", id).Debugln("Client connected")
	c.notify(NoticeClient, "Client %d connected", id)
}

// removeClient forgets the client. Its windows stay on the stack until the next
// refresh notices their surfaces are dead
func (c *Compositor) removeClient(id backend.ClientID) {
	cl, ok := c.clients[id]
	if !ok {
		return
	}
	delete(c.clients, id)
	c.log.WithField("client", id).WithField("windows", len(cl.Windows)).Debugln("Client disconnected")
	c.notify(NoticeClient, "Client %d disconnected", id)
}

func (c *Compositor) forgetWindow(id space.WindowID) {
	c.untile(id)
	for _, cl := range c.clients {
		cl.Windows = sliceutils.Filter(cl.Windows, func(w space.WindowID) bool {
			return w != id
		})
	}
}

// Clients returns the connected clients ordered by ID
func (c *Compositor) Clients() []Client {
	clients := make([]Client, 0, len(c.clients))
	for _, cl := range c.clients {
		clients = append(clients, Client{
			ID:        cl.ID,
			Connected: cl.Connected,
			Windows:   append([]space.WindowID(nil), cl.Windows...),
		})
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].ID < clients[j].ID
	})
	return clients
}
