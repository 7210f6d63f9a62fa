// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package wlr is the hardware paced backend, running on wlroots.
// wlroots hands out everything through callbacks. Those only fire while Wait
// dispatches the event loop, so they just queue events for the compositor
package wlr

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/mstarongithub/wayspace/backend"
	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/seat"
	"github.com/mstarongithub/wayspace/space"
	"github.com/sirupsen/logrus"
	"github.com/swaywm/go-wlroots/wlroots"
)

type Options struct {
	// xkb rules for every keyboard, empty fields keep the xkb defaults
	Layout, Variant, Options string
	// Repeats per second and delay before repeating in ms
	RepeatRate, RepeatDelay int32
}

type Backend struct {
	opts Options

	display      wlroots.Display
	backend      wlroots.Backend
	renderer     wlroots.Renderer
	allocator    wlroots.Allocator
	scene        wlroots.Scene
	sceneLayout  wlroots.SceneOutputLayout
	outputLayout wlroots.OutputLayout
	xdgShell     wlroots.XDGShell

	cursor    wlroots.Cursor
	cursorMgr wlroots.XCursorManager
	seat      wlroots.Seat
	keyboards []wlroots.InputDevice
	// Keyboard of the last key event, seat key notifications go out for it
	lastKeyboard wlroots.Keyboard
	// wlroots wants the source of axis events passed back when notifying clients
	axisSource wlroots.AxisSource

	outputs    []*output
	toplevels  map[wlroots.XDGSurface]*toplevel
	windows    map[space.WindowID]*toplevel
	nextWindow space.WindowID

	queue  []backend.Event
	sink   *seatSink
	keymap *Keymap

	socket  string
	started bool
	closed  bool
	log     *logrus.Entry
}

// New sets up wlroots. It pins the calling goroutine to its OS thread,
// every other method has to be called from that goroutine as well
func New(opts Options) (*Backend, error) {
	runtime.LockOSThread()
	log := logrus.WithField("component", "wlr")

	importance := wlroots.LogImportanceError
	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		importance = wlroots.LogImportanceDebug
	}
	wlroots.OnLog(importance, func(importance wlroots.LogImportance, msg string) {
		switch importance {
		case wlroots.LogImportanceDebug:
			log.Debugln(msg)
		case wlroots.LogImportanceInfo:
			log.Infoln(msg)
		case wlroots.LogImportanceError:
			log.Errorln(msg)
		case wlroots.LogImportanceSilent:
			return
		}
	})

	b := &Backend{
		opts:      opts,
		toplevels: map[wlroots.XDGSurface]*toplevel{},
		windows:   map[space.WindowID]*toplevel{},
		keymap:    &Keymap{},
		log:       log,
	}
	b.sink = &seatSink{b: b}

	/* The display handles accepting clients from the Unix socket and the globals */
	b.display = wlroots.NewDisplay()

	var err error
	/* Picks DRM+KMS, or a window if running nested in X11 or Wayland */
	b.backend, err = b.display.BackendAutocreate()
	if err != nil {
		return nil, fmt.Errorf("creating wlroots backend: %w", err)
	}
	b.renderer, err = b.backend.RendererAutoCreate()
	if err != nil {
		return nil, fmt.Errorf("creating renderer: %w", err)
	}
	b.renderer.InitDisplay(b.display)
	b.allocator, err = b.backend.AllocatorAutocreate(b.renderer)
	if err != nil {
		return nil, fmt.Errorf("creating allocator: %w", err)
	}

	b.display.CompositorCreate(5, b.renderer)
	b.display.SubCompositorCreate()
	b.display.DataDeviceManagerCreate()

	b.outputLayout = wlroots.NewOutputLayout()
	b.backend.OnNewOutput(b.handleNewOutput)

	/* The scene graph does the actual drawing and its own damage tracking.
	 * The compositor decides where its nodes go and when to commit */
	b.scene = wlroots.NewScene()
	b.sceneLayout = b.scene.AttachOutputLayout(b.outputLayout)

	b.xdgShell = b.display.XDGShellCreate(3)
	b.xdgShell.OnNewSurface(b.handleNewXDGSurface)

	b.cursor = wlroots.NewCursor()
	b.cursor.AttachOutputLayout(b.outputLayout)
	b.cursorMgr = wlroots.NewXCursorManager("", 24)
	b.cursor.OnMotion(b.handleCursorMotion)
	b.cursor.OnMotionAbsolute(b.handleCursorMotionAbsolute)
	b.cursor.OnButton(b.handleCursorButton)
	b.cursor.OnAxis(b.handleCursorAxis)
	b.cursor.OnFrame(func() {
		/* The router sends its own frame after every pointer event */
	})
	b.cursorMgr.Load(1)

	b.backend.OnNewInput(b.handleNewInput)
	b.seat = b.display.SeatCreate("seat0")
	b.seat.OnSetCursorRequest(b.handleSetCursorRequest)
	return b, nil
}

func (b *Backend) Name() string {
	return "wlr"
}

func (b *Backend) Pacing() backend.Pacing {
	return backend.PacingHardware
}

// Start opens the client socket and starts the wlroots backend, which enumerates outputs and inputs
func (b *Backend) Start() error {
	if b.started {
		return nil
	}
	b.setKeymapEnv()

	socket, err := b.display.AddSocketAuto()
	if err != nil {
		b.backend.Destroy()
		return fmt.Errorf("adding socket: %w", err)
	}
	b.socket = socket
	b.log.WithField("socket", socket).Debugln("Got wayland socket")

	/* Become DRM master, enumerate outputs and inputs */
	if err = b.backend.Start(); err != nil {
		b.backend.Destroy()
		b.display.Destroy()
		return fmt.Errorf("starting wlroots backend: %w", err)
	}

	if res := os.Getenv("WAYLAND_DISPLAY"); res != "" {
		b.log.WithField("WAYLAND_DISPLAY", res).Debugln("Wayland display already set, overwriting")
	}
	if err = os.Setenv("WAYLAND_DISPLAY", socket); err != nil {
		return err
	}
	b.started = true
	b.log.WithField("WAYLAND_DISPLAY", socket).Infoln("Running Wayland compositor")
	return nil
}

// xkb picks its rules from the environment when a keymap is created without names
func (b *Backend) setKeymapEnv() {
	for name, value := range map[string]string{
		"XKB_DEFAULT_LAYOUT":  b.opts.Layout,
		"XKB_DEFAULT_VARIANT": b.opts.Variant,
		"XKB_DEFAULT_OPTIONS": b.opts.Options,
	} {
		if value == "" {
			continue
		}
		if err := os.Setenv(name, value); err != nil {
			b.log.WithError(err).WithField("variable", name).Warnln("Can't set keymap variable")
		}
	}
}

// Wait dispatches the wlroots event loop for at most timeout, unless callbacks already queued something
func (b *Backend) Wait(timeout time.Duration) ([]backend.Event, error) {
	if b.closed {
		return nil, backend.ErrClosed
	}
	if !b.started {
		return nil, backend.ErrNotStarted
	}
	if len(b.queue) == 0 {
		b.display.EventLoop().Dispatch(timeout)
	}
	events := b.queue
	b.queue = nil
	return events, nil
}

func (b *Backend) emit(ev backend.Event) {
	b.queue = append(b.queue, ev)
}

func (b *Backend) Seat() seat.Sink {
	return b.sink
}

func (b *Backend) Keymap() seat.Keymap {
	return b.keymap
}

func (b *Backend) Transport() backend.Transport {
	return b
}

func (b *Backend) SocketName() string {
	return b.socket
}

func (b *Backend) FlushClients() {
	b.display.FlushClients()
}

// Close destroys all clients and tears wlroots down
func (b *Backend) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	b.display.DestroyClients()
	b.scene.Tree().Node().Destroy()
	b.cursorMgr.Destroy()
	b.outputLayout.Destroy()
	b.display.Destroy()
	b.log.Infoln("wlroots shut down")
	return nil
}

func geoSize(box wlroots.GeoBox) generaldata.Vector2i {
	return generaldata.Vector2i{X: box.Width, Y: box.Height}
}
