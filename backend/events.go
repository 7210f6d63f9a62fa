// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package backend

import (
	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/seat"
	"github.com/mstarongithub/wayspace/space"
)

// Event is anything a backend reports from Wait
type Event interface {
	backendEvent()
}

type (
	KeyEvent            struct{ seat.KeyInput }
	AbsoluteMotionEvent struct{ seat.AbsoluteMotionInput }
	RelativeMotionEvent struct{ seat.RelativeMotionInput }
	ButtonEvent         struct{ seat.ButtonInput }
	AxisEvent           struct{ seat.AxisInput }

	// The display of Output is ready for the next frame
	VBlankEvent struct{ Output string }
	// The frame last submitted for Output is on screen
	FrameCompleteEvent struct{ Output string }
	// Output wants to be redrawn. Software paced backends only
	RedrawEvent struct{ Output string }

	OutputAddedEvent struct {
		Output *space.Output
		// Default position, used unless the configuration places the output
		Position generaldata.Vector2i
	}
	OutputRemovedEvent struct{ Output string }
	OutputModeEvent    struct {
		Output string
		Mode   space.Mode
	}

	ClientConnectedEvent    struct{ Client ClientID }
	ClientDisconnectedEvent struct{ Client ClientID }

	// A client mapped a new window. Its surface stays alive until the client withdraws it
	WindowCreatedEvent struct {
		Client ClientID
		Window *space.Window
	}
	WindowUnmappedEvent  struct{ Window space.WindowID }
	WindowCommittedEvent struct {
		Window space.WindowID
		// New size, nil if unchanged
		Size *generaldata.Vector2i
		// New primitives, nil if only the content of the surface changed
		Primitives []space.Primitive
	}
	MoveRequestedEvent struct {
		Window space.WindowID
		Serial seat.Serial
	}

	// The backend is going away, the compositor should stop
	CloseEvent struct{}
)

func (KeyEvent) backendEvent()                {}
func (AbsoluteMotionEvent) backendEvent()     {}
func (RelativeMotionEvent) backendEvent()     {}
func (ButtonEvent) backendEvent()             {}
func (AxisEvent) backendEvent()               {}
func (VBlankEvent) backendEvent()             {}
func (FrameCompleteEvent) backendEvent()      {}
func (RedrawEvent) backendEvent()             {}
func (OutputAddedEvent) backendEvent()        {}
func (OutputRemovedEvent) backendEvent()      {}
func (OutputModeEvent) backendEvent()         {}
func (ClientConnectedEvent) backendEvent()    {}
func (ClientDisconnectedEvent) backendEvent() {}
func (WindowCreatedEvent) backendEvent()      {}
func (WindowUnmappedEvent) backendEvent()     {}
func (WindowCommittedEvent) backendEvent()    {}
func (MoveRequestedEvent) backendEvent()      {}
func (CloseEvent) backendEvent()              {}
