// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package compositor

import (
	"github.com/mstarongithub/wayspace/backend"
	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/space"
	"github.com/sirupsen/logrus"
)

// New windows are cascaded by this much per window already on the stack
var cascadeStep = generaldata.Vector2i{X: 32, Y: 32}

const cascadeLength = 8

func (c *Compositor) dispatch(ev backend.Event) {
	switch ev := ev.(type) {
	case backend.KeyEvent:
		c.router.HandleKey(ev.KeyInput)
	case backend.AbsoluteMotionEvent:
		c.router.HandleAbsoluteMotion(ev.AbsoluteMotionInput)
	case backend.RelativeMotionEvent:
		c.router.HandleRelativeMotion(ev.RelativeMotionInput)
	case backend.ButtonEvent:
		c.router.HandleButton(ev.ButtonInput)
	case backend.AxisEvent:
		c.router.HandleAxis(ev.AxisInput)

	case backend.VBlankEvent:
		c.scheduler.VBlank(ev.Output)
	case backend.FrameCompleteEvent:
		c.scheduler.FrameComplete(ev.Output)
	case backend.RedrawEvent:
		c.scheduler.Redraw(ev.Output)

	case backend.OutputAddedEvent:
		c.space.MapOutput(ev.Output, ev.Position)
		c.scheduler.AddOutput(ev.Output.Name)
		c.notify(NoticeOutput, "Output %s added at %d,%d", ev.Output.Name, ev.Output.Location().X, ev.Output.Location().Y)
	case backend.OutputRemovedEvent:
		c.scheduler.RemoveOutput(ev.Output)
		delete(c.tiles, ev.Output)
		c.space.UnmapOutput(ev.Output)
		c.notify(NoticeOutput, "Output %s removed", ev.Output)
	case backend.OutputModeEvent:
		out := c.space.Output(ev.Output)
		if out == nil {
			return
		}
		out.Mode = ev.Mode
		c.log.WithFields(logrus.Fields{
			"output": ev.Output,
			"mode":   ev.Mode.String(),
		}).Infoln("Output mode changed")
		c.scheduler.ModeChanged(ev.Output)
		c.notify(NoticeOutput, "Output %s mode %s", ev.Output, ev.Mode.String())

	case backend.ClientConnectedEvent:
		c.addClient(ev.Client)
	case backend.ClientDisconnectedEvent:
		c.removeClient(ev.Client)

	case backend.WindowCreatedEvent:
		c.mapWindow(ev.Client, ev.Window)
	case backend.WindowUnmappedEvent:
		if w := c.space.Window(ev.Window); w != nil {
			c.space.UnmapWindow(w)
			c.notify(NoticeWindow, "Window %d unmapped", ev.Window)
		}
		c.forgetWindow(ev.Window)
	case backend.WindowCommittedEvent:
		c.commit(ev)
	case backend.MoveRequestedEvent:
		c.router.BeginMove(ev.Window)

	case backend.CloseEvent:
		c.log.Infoln("Backend closed")
		c.Quit()
	default:
		c.log.WithField("event", ev).Warnln("Unknown backend event")
	}
}

// mapWindow places a new window on the output under the pointer and puts it on top
func (c *Compositor) mapWindow(client backend.ClientID, w *space.Window) {
	out := c.space.OutputAt(c.router.Pointer())
	if out == nil {
		if outputs := c.space.Outputs(); len(outputs) > 0 {
			out = outputs[0]
		}
	}
	step := len(c.space.Windows()) % cascadeLength
	w.Location = generaldata.Vector2i{X: cascadeStep.X * step, Y: cascadeStep.Y * step}
	if out != nil {
		w.Location = w.Location.Add(out.Location())
	}

	c.space.MapWindow(w)
	if cl, ok := c.clients[client]; ok {
		cl.Windows = append(cl.Windows, w.ID())
	}
	c.log.WithFields(logrus.Fields{
		"window": w.ID(),
		"client": client,
		"app-id": w.AppID,
		"at":     w.Location,
	}).Infoln("New window")
	if c.conf.FocusNew() {
		c.router.SetFocus(w)
	}
}

func (c *Compositor) commit(ev backend.WindowCommittedEvent) {
	w := c.space.Window(ev.Window)
	if w == nil {
		return
	}
	if ev.Size != nil {
		w.Resize(*ev.Size)
	}
	if ev.Primitives != nil {
		w.SetPrimitives(ev.Primitives)
	}
	if ev.Size == nil && ev.Primitives == nil {
		w.Damage()
	}
}
