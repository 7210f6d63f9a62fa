// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package backend describes what the compositor needs from the hardware and protocol side.
// The implementations live in the subpackages
package backend

import (
	"errors"
	"image/color"
	"time"

	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/seat"
	"github.com/mstarongithub/wayspace/space"
)

var (
	ErrUnknownOutput  = errors.New("unknown output")
	ErrUnknownWindow  = errors.New("unknown window")
	ErrUnknownClient  = errors.New("unknown client")
	ErrClosed         = errors.New("backend closed")
	ErrNotStarted     = errors.New("backend not started")
	ErrUnknownBackend = errors.New("unknown backend")
)

// Pacing is fixed per backend and decides what drives frame submission
type Pacing int

const (
	// Frames are driven by the display's vblank signal
	PacingHardware = Pacing(iota)
	// Frames are driven by redraw requests, submit blocks until the frame is shown
	PacingSoftware
)

func (p Pacing) String() string {
	switch p {
	case PacingHardware:
		return "hardware"
	case PacingSoftware:
		return "software"
	default:
		return "unknown"
	}
}

// FrameTarget is a bound framebuffer of one output
type FrameTarget interface {
	// Render composites elements, bottom to top, over the clear color.
	// Only the damaged area has to be repainted
	Render(elements []space.RenderElement, clear color.RGBA, damage generaldata.Region) error
}

// Transport is the client connection side of the display server
type Transport interface {
	// Name of the socket clients connect to, as put into WAYLAND_DISPLAY
	SocketName() string
	// Writes out everything queued for clients
	FlushClients()
}

type Backend interface {
	Name() string
	Pacing() Pacing
	// Start brings up the transport and enumerates outputs and inputs.
	// Everything found is reported through Wait
	Start() error
	// Outputs currently known to the backend
	Outputs() []*space.Output
	// Bind makes the framebuffer of output current for rendering
	Bind(output string) (FrameTarget, error)
	// Submit presents the last rendered frame of output
	Submit(output string, damage generaldata.Region) error
	// RequestFrame asks for a redraw event of output. Hardware paced backends schedule a vblank instead
	RequestFrame(output string)
	// Wait blocks for at most timeout and returns every event that became ready
	Wait(timeout time.Duration) ([]Event, error)
	Seat() seat.Sink
	Keymap() seat.Keymap
	Transport() Transport
	Close() error
}

// Injector is implemented by backends that accept synthetic events
type Injector interface {
	Inject(ev Event) error
}

// KeyCoder is implemented by backends that know which key codes type a keysym
type KeyCoder interface {
	KeyCodes(mods seat.Modifiers, sym seat.Keysym) ([]uint32, error)
}

// Configurer is implemented by backends that can ask clients to resize their windows.
// The new size arrives later as a commit
type Configurer interface {
	Configure(id space.WindowID, size generaldata.Vector2i) error
}

// SceneSyncer is implemented by hardware paced backends that keep a scene graph of their own.
// Syncing damages the scene, which makes the backend send a vblank for output
type SceneSyncer interface {
	SyncScene(output string, elements []space.RenderElement)
}

// ModeInfo is a mode an output supports
type ModeInfo struct {
	space.Mode
	Preferred bool
}

// ModeLister is implemented by backends that can enumerate the modes of an output
type ModeLister interface {
	Modes(output string) ([]ModeInfo, error)
}

// ClientID identifies a client connection
type ClientID uint64

// Simulator is implemented by backends whose clients and outputs are simulated.
// All methods must be called from the goroutine calling Wait
type Simulator interface {
	ConnectClient() ClientID
	DisconnectClient(client ClientID) error
	// OpenWindow maps a new top level window filled with fill
	OpenWindow(client ClientID, size generaldata.Vector2i, fill color.RGBA) (space.WindowID, error)
	CloseWindow(id space.WindowID) error
	PaintWindow(id space.WindowID, fill color.RGBA) error
	ResizeWindow(id space.WindowID, size generaldata.Vector2i) error
	// RequestMove asks for an interactive move of the window, like a client dragging its title bar
	RequestMove(id space.WindowID) error
	AddOutput(name string, mode space.Mode) error
	RemoveOutput(name string) error
	SetMode(name string, mode space.Mode) error
}
