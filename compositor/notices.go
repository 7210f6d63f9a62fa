// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package compositor

import (
	"fmt"

	"github.com/mstarongithub/wayspace/space"
)

const noticeBuffer = 64

type NoticeKind int

const (
	NoticeClient = NoticeKind(iota)
	NoticeWindow
	NoticeOutput
	NoticeFocus
)

// Notice is a short note about something that changed on the loop, meant for people watching the console
type Notice struct {
	Kind NoticeKind
	Text string
}

// Subscribe returns a channel receiving every notice from now on.
// Notices are dropped for subscribers that don't keep up. Safe to call from any goroutine
func (c *Compositor) Subscribe(name string) (<-chan Notice, error) {
	return c.notices.MakeReceiver(name)
}

func (c *Compositor) Unsubscribe(name string) {
	c.notices.CloseReceiver(name)
}

func (c *Compositor) notify(kind NoticeKind, format string, args ...any) {
	if c.notices.Receivers() == 0 {
		return
	}
	if dropped := c.notices.Send(Notice{Kind: kind, Text: fmt.Sprintf(format, args...)}); dropped > 0 {
		c.log.WithField("dropped", dropped).Debugln("Subscribers missed a notice")
	}
}

// notifyFocus publishes a notice if the focus moved since it was last called
func (c *Compositor) notifyFocus() {
	id := space.NoWindow
	if w := c.router.Focused(); w != nil {
		id = w.ID()
	}
	if id == c.lastFocus {
		return
	}
	c.lastFocus = id
	c.focusTile(id)
	if id == space.NoWindow {
		c.notify(NoticeFocus, "Focus cleared")
		return
	}
	c.notify(NoticeFocus, "Focused window %d", id)
}
