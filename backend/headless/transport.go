// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package headless

import (
	"errors"
	"fmt"
	"io"
	"net"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/mstarongithub/wayspace/backend"
	"github.com/sirupsen/logrus"
)

const maxSockets = 32

var errNoSocket = errors.New("no free socket name")

// listen opens the first free wayspace-headless-N socket in the runtime dir.
// Connections only count as clients, nothing is spoken on them
func (b *Backend) listen() error {
	for i := 0; i < maxSockets; i++ {
		name := fmt.Sprintf("wayspace-headless-%d", i)
		path := filepath.Join(xdg.RuntimeDir, name)
		removeStale(path)
		l, err := net.Listen("unix", path)
		if err != nil {
			b.log.WithError(err).WithField("path", path).Debugln("Socket taken")
			continue
		}
		b.listener = l
		b.socketName = name
		go b.accept(l)
		return nil
	}
	return errNoSocket
}

func (b *Backend) accept(l net.Listener) {
	for {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		id := backend.ClientID(b.nextClient.Add(1))
		if err := b.inject.TrySend(backend.ClientConnectedEvent{Client: id}); err != nil {
			b.log.WithError(err).Warnln("Dropping client connection")
			_ = conn.Close()
			continue
		}
		go b.serve(conn, id)
	}
}

func (b *Backend) serve(conn net.Conn, id backend.ClientID) {
	defer conn.Close()
	_, _ = io.Copy(io.Discard, conn)
	if err := b.inject.TrySend(backend.ClientDisconnectedEvent{Client: id}); err != nil {
		b.log.WithError(err).WithFields(logrus.Fields{"client": id}).Debugln("Lost client disconnect")
	}
}
