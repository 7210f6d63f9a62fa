// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package headless is a software paced backend with virtual outputs and simulated clients.
// Frames are rendered into memory with gg and optionally dumped as PNG files
package headless

import (
	"fmt"
	"image"
	"image/color"
	"net"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/mstarongithub/wayspace/backend"
	"github.com/mstarongithub/wayspace/config"
	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/seat"
	"github.com/mstarongithub/wayspace/space"
	"github.com/mstarongithub/wayspace/util/multiplexer"
	"github.com/sirupsen/logrus"
)

const injectBuffer = 256

type OutputConfig struct {
	Name string
	Mode space.Mode
}

type Options struct {
	Outputs []OutputConfig
	// Directory every submitted frame gets written to as PNG. Empty disables dumping
	DumpDir string
	// Pace submits and redraws to the refresh rate of the outputs
	Throttle bool
	// Listen on a socket in the runtime dir so spawned programs have something to connect to
	Socket bool
}

// DefaultOutputs is used when no outputs are configured
func DefaultOutputs() []OutputConfig {
	return []OutputConfig{{
		Name: "HEADLESS-1",
		Mode: space.Mode{Size: generaldata.Vector2i{X: 1280, Y: 720}, Refresh: 60000},
	}}
}

// OptionsFromConfig converts the [headless] section. Refresh rates are configured in Hz
func OptionsFromConfig(c config.Headless) Options {
	opts := Options{DumpDir: c.DumpDir}
	if c.Throttle != nil {
		opts.Throttle = *c.Throttle
	}
	if c.Socket != nil {
		opts.Socket = *c.Socket
	}
	for _, o := range c.Outputs {
		refresh := o.Refresh
		if refresh <= 0 {
			refresh = 60
		}
		opts.Outputs = append(opts.Outputs, OutputConfig{
			Name: o.Name,
			Mode: space.Mode{Size: generaldata.Vector2i{X: o.Width, Y: o.Height}, Refresh: refresh * 1000},
		})
	}
	return opts
}

type virtualOutput struct {
	output *space.Output
	fb     *framebuffer
	// When the next frame of the output gets shown
	vsync  time.Time
	frames uint64
}

type Backend struct {
	opts Options

	outputs  []*virtualOutput
	clients  map[backend.ClientID]*client
	surfaces map[space.WindowID]*surface
	redraws  map[string]time.Time
	queue    []backend.Event
	inject   *multiplexer.ManyToOne[backend.Event]

	nextClient atomic.Uint64
	nextWindow space.WindowID

	seat   *seatSink
	keymap *Keymap

	listener   net.Listener
	socketName string

	start   time.Time
	now     func() time.Time
	sleep   func(time.Duration)
	started bool
	closed  bool
	log     *logrus.Entry
}

func New(opts Options) *Backend {
	if len(opts.Outputs) == 0 {
		opts.Outputs = DefaultOutputs()
	}
	b := &Backend{
		opts:     opts,
		clients:  map[backend.ClientID]*client{},
		surfaces: map[space.WindowID]*surface{},
		redraws:  map[string]time.Time{},
		inject:   multiplexer.NewManyToOne(make(chan backend.Event, injectBuffer)),
		seat:     newSeatSink(),
		keymap:   NewKeymap(),
		start:    time.Now(),
		now:      time.Now,
		sleep:    time.Sleep,
		log:      logrus.WithField("component", "headless"),
	}
	return b
}

func (b *Backend) Name() string {
	return "headless"
}

func (b *Backend) Pacing() backend.Pacing {
	return backend.PacingSoftware
}

// Start creates the configured outputs and, if enabled, the client socket
func (b *Backend) Start() error {
	if b.started {
		return nil
	}
	if b.opts.Socket {
		if err := b.listen(); err != nil {
			return fmt.Errorf("creating socket: %w", err)
		}
	}
	for _, o := range b.opts.Outputs {
		if err := b.AddOutput(o.Name, o.Mode); err != nil {
			return err
		}
	}
	b.started = true
	b.log.WithFields(logrus.Fields{
		"outputs":  len(b.outputs),
		"socket":   b.socketName,
		"dump-dir": b.opts.DumpDir,
	}).Infoln("Headless backend started")
	return nil
}

func (b *Backend) Outputs() []*space.Output {
	outputs := make([]*space.Output, 0, len(b.outputs))
	for _, o := range b.outputs {
		outputs = append(outputs, o.output)
	}
	return outputs
}

func (b *Backend) Modes(name string) ([]backend.ModeInfo, error) {
	o := b.find(name)
	if o == nil {
		return nil, fmt.Errorf("%w: %s", backend.ErrUnknownOutput, name)
	}
	modes := []backend.ModeInfo{{Mode: o.output.Mode, Preferred: true}}
	for _, size := range []generaldata.Vector2i{{X: 1920, Y: 1080}, {X: 1280, Y: 720}, {X: 1024, Y: 768}} {
		m := space.Mode{Size: size, Refresh: 60000}
		if m != o.output.Mode {
			modes = append(modes, backend.ModeInfo{Mode: m})
		}
	}
	return modes, nil
}

func (b *Backend) find(name string) *virtualOutput {
	for _, o := range b.outputs {
		if o.output.Name == name {
			return o
		}
	}
	return nil
}

func (b *Backend) Bind(name string) (backend.FrameTarget, error) {
	o := b.find(name)
	if o == nil {
		return nil, fmt.Errorf("%w: %s", backend.ErrUnknownOutput, name)
	}
	if err := o.fb.resize(o.output.Mode.Size); err != nil {
		return nil, fmt.Errorf("resizing framebuffer of %s: %w", name, err)
	}
	return o.fb, nil
}

// Submit "presents" the frame. With throttling it blocks until the output's next vsync
func (b *Backend) Submit(name string, damage generaldata.Region) error {
	o := b.find(name)
	if o == nil {
		return fmt.Errorf("%w: %s", backend.ErrUnknownOutput, name)
	}
	o.frames++
	if b.opts.DumpDir != "" {
		path := filepath.Join(b.opts.DumpDir, fmt.Sprintf("%s-%06d.png", name, o.frames))
		if err := o.fb.ctx.SavePNG(path); err != nil {
			return fmt.Errorf("dumping frame: %w", err)
		}
	}
	if b.opts.Throttle {
		now := b.now()
		if wait := o.vsync.Sub(now); wait > 0 {
			b.sleep(wait)
			now = o.vsync
		}
		o.vsync = now.Add(refreshPeriod(o.output.Mode))
	}
	b.log.WithFields(logrus.Fields{
		"output": name,
		"frame":  o.frames,
		"damage": len(damage),
	}).Debugln("Frame presented")
	return nil
}

// RequestFrame schedules a redraw event for the next vsync of the output
func (b *Backend) RequestFrame(name string) {
	o := b.find(name)
	if o == nil {
		return
	}
	due := b.now()
	if b.opts.Throttle {
		period := refreshPeriod(o.output.Mode)
		if !o.vsync.After(due) {
			missed := due.Sub(o.vsync)/period + 1
			o.vsync = o.vsync.Add(missed * period)
		}
		due = o.vsync
	}
	b.redraws[name] = due
}

func refreshPeriod(m space.Mode) time.Duration {
	if m.Refresh <= 0 {
		return time.Second / 60
	}
	return time.Duration(int64(time.Second) * 1000 / int64(m.Refresh))
}

// Wait returns everything queued or injected, plus the redraws that became due.
// If nothing is ready it blocks until something is injected, a redraw is due or timeout passed
func (b *Backend) Wait(timeout time.Duration) ([]backend.Event, error) {
	if b.closed {
		return nil, backend.ErrClosed
	}
	if !b.started {
		return nil, backend.ErrNotStarted
	}
	events := b.take()
	if len(events) > 0 {
		return events, nil
	}

	deadline := b.now().Add(timeout)
	for _, due := range b.redraws {
		if due.Before(deadline) {
			deadline = due
		}
	}
	if wait := deadline.Sub(b.now()); wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case ev, ok := <-b.inject.Receiver():
			if ok {
				if ev, keep := b.absorb(ev); keep {
					events = append(events, ev)
				}
			}
		case <-timer.C:
		}
		timer.Stop()
	}
	return append(events, b.take()...), nil
}

func (b *Backend) take() []backend.Event {
	events := b.queue
	b.queue = nil

drain:
	for {
		select {
		case ev, ok := <-b.inject.Receiver():
			if !ok {
				break drain
			}
			if ev, keep := b.absorb(ev); keep {
				events = append(events, ev)
			}
		default:
			break drain
		}
	}

	now := b.now()
	for _, o := range b.outputs {
		name := o.output.Name
		if due, ok := b.redraws[name]; ok && !due.After(now) {
			delete(b.redraws, name)
			events = append(events, backend.RedrawEvent{Output: name})
		}
	}
	return events
}

// absorb updates the client registry for client events arriving through the socket
func (b *Backend) absorb(ev backend.Event) (backend.Event, bool) {
	switch ev := ev.(type) {
	case backend.ClientConnectedEvent:
		if _, ok := b.clients[ev.Client]; !ok {
			b.clients[ev.Client] = &client{id: ev.Client, conn: true}
		}
	case backend.ClientDisconnectedEvent:
		if _, ok := b.clients[ev.Client]; !ok {
			return nil, false
		}
		b.dropClient(ev.Client)
	}
	return ev, true
}

// Inject queues an event as if it came from a device. Safe to call from any goroutine
func (b *Backend) Inject(ev backend.Event) error {
	return b.inject.TrySend(ev)
}

// Timestamp is the time since the backend was created in milliseconds, as used for input events
func (b *Backend) Timestamp() uint32 {
	return uint32(b.now().Sub(b.start) / time.Millisecond)
}

func (b *Backend) Seat() seat.Sink {
	return b.seat
}

func (b *Backend) Keymap() seat.Keymap {
	return b.keymap
}

// KeyCodes implements backend.KeyCoder with the built in US layout
func (b *Backend) KeyCodes(mods seat.Modifiers, sym seat.Keysym) ([]uint32, error) {
	return KeyCodes(mods, sym)
}

// Deliveries returns the most recent seat events received by simulated clients
func (b *Backend) Deliveries() []Delivery {
	return b.seat.History()
}

func (b *Backend) Transport() backend.Transport {
	return b
}

func (b *Backend) SocketName() string {
	return b.socketName
}

// FlushClients implements backend.Transport. Simulated clients read nothing
func (b *Backend) FlushClients() {}

// Snapshot returns the current framebuffer content of an output
func (b *Backend) Snapshot(name string) (image.Image, error) {
	o := b.find(name)
	if o == nil {
		return nil, fmt.Errorf("%w: %s", backend.ErrUnknownOutput, name)
	}
	return o.fb.image(), nil
}

// Frames returns how many frames were submitted for an output
func (b *Backend) Frames(name string) uint64 {
	if o := b.find(name); o != nil {
		return o.frames
	}
	return 0
}

// SurfaceFrames returns how many frame callbacks the surface of a window got
func (b *Backend) SurfaceFrames(id space.WindowID) uint64 {
	if s, ok := b.surfaces[id]; ok {
		return s.Frames()
	}
	return 0
}

func (b *Backend) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	if b.listener != nil {
		_ = b.listener.Close()
	}
	b.inject.Close()
	for _, o := range b.outputs {
		o.fb.close()
	}
	for _, s := range b.surfaces {
		s.destroy()
	}
	b.log.Infoln("Headless backend closed")
	return nil
}

func (b *Backend) surfaceFill(id space.WindowID) (color.RGBA, bool) {
	s, ok := b.surfaces[id]
	if !ok || !s.Alive() {
		return color.RGBA{}, false
	}
	return s.fill, true
}

// Removes a socket file that would keep a fresh listener from binding
func removeStale(path string) {
	if conn, err := net.Dial("unix", path); err == nil {
		_ = conn.Close()
		return
	}
	_ = os.Remove(path)
}
