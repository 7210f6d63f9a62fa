// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package compositor glues a backend to the space, the seat and the render scheduler.
// Everything in here runs on the goroutine calling Run, other goroutines talk to it through Execute
package compositor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync/atomic"
	"time"

	"github.com/mstarongithub/wayspace/backend"
	"github.com/mstarongithub/wayspace/config"
	"github.com/mstarongithub/wayspace/render"
	"github.com/mstarongithub/wayspace/seat"
	"github.com/mstarongithub/wayspace/space"
	"github.com/mstarongithub/wayspace/tiler"
	"github.com/mstarongithub/wayspace/util/multiplexer"
	"github.com/sirupsen/logrus"
)

// How long one loop iteration waits for backend events
const LoopTimeout = 16 * time.Millisecond

const controlBuffer = 32

var ErrStopped = errors.New("compositor stopped")

// Command is a console line waiting to be run on the loop
type Command struct {
	Line  string
	reply chan reply
}

type reply struct {
	text string
	err  error
}

type Compositor struct {
	backend   backend.Backend
	conf      *config.Config
	space     *space.Space
	router    *seat.Router
	scheduler *render.Scheduler

	clients map[backend.ClientID]*Client
	control *multiplexer.ManyToOne[Command]
	notices *multiplexer.OneToMany[Notice]
	// Tiling trees by output name, kept from one tile to the next
	tiles map[string]*tiler.Tree
	// Focus as of the last focus notice
	lastFocus space.WindowID

	quit    atomic.Bool
	started bool
	// Starts spawned commands. Swapped out by tests
	startCmd func(cmd *exec.Cmd) error

	log *logrus.Entry
}

// New wires up a compositor for b. The backend isn't started yet
func New(b backend.Backend, conf *config.Config) (*Compositor, error) {
	if conf == nil {
		conf = config.Default()
	}
	bindings, err := conf.Bindings()
	if err != nil {
		return nil, err
	}

	c := &Compositor{
		backend:  b,
		conf:     conf,
		space:    space.New(conf),
		clients:  map[backend.ClientID]*Client{},
		control:  multiplexer.NewManyToOne(make(chan Command, controlBuffer)),
		notices:  multiplexer.NewOneToMany[Notice](noticeBuffer),
		tiles:    map[string]*tiler.Tree{},
		startCmd: startCommand,
		log: logrus.WithFields(logrus.Fields{
			"component": "compositor",
			"backend":   b.Name(),
		}),
	}
	c.router, err = seat.NewRouter(c.space, b.Seat(), b.Keymap(), c, bindings)
	if err != nil {
		return nil, fmt.Errorf("creating seat: %w", err)
	}
	c.scheduler = render.NewScheduler(c.space, b, b.Pacing(), conf.Clear())
	return c, nil
}

func (c *Compositor) Space() *space.Space {
	return c.space
}

func (c *Compositor) Router() *seat.Router {
	return c.router
}

func (c *Compositor) Scheduler() *render.Scheduler {
	return c.scheduler
}

func (c *Compositor) Backend() backend.Backend {
	return c.backend
}

// Start starts the backend and, if configured, the start command
func (c *Compositor) Start() error {
	if err := c.backend.Start(); err != nil {
		return fmt.Errorf("starting backend %s: %w", c.backend.Name(), err)
	}
	c.started = true
	c.log.WithFields(logrus.Fields{
		"pacing": c.backend.Pacing().String(),
		"socket": c.backend.Transport().SocketName(),
	}).Infoln("Compositor started")

	if c.conf.StartType == config.START_SINGLE_COMMAND && c.conf.StartCommand != nil {
		c.Spawn(*c.conf.StartCommand)
	}
	return nil
}

// Run iterates the loop until something asks to quit, ctx is done or the backend fails
func (c *Compositor) Run(ctx context.Context) error {
	if !c.started {
		return backend.ErrNotStarted
	}
	for !c.quit.Load() {
		if ctx.Err() != nil {
			c.log.Infoln("Context done, stopping")
			return nil
		}
		if err := c.Iterate(LoopTimeout); err != nil {
			return err
		}
	}
	c.log.Infoln("Quit requested, stopping")
	return nil
}

// Iterate runs one loop iteration: wait for backend events and dispatch them,
// run pending console commands, then drop dead windows and flush the clients
func (c *Compositor) Iterate(timeout time.Duration) error {
	events, err := c.backend.Wait(timeout)
	if err != nil {
		return fmt.Errorf("waiting for backend events: %w", err)
	}
	for _, ev := range events {
		c.dispatch(ev)
	}
	c.drainControl()

	for _, id := range c.space.Refresh() {
		c.forgetWindow(id)
		c.notify(NoticeWindow, "Window %d gone", id)
	}
	c.router.PruneFocus()
	c.scheduler.ScheduleChanged()
	c.notifyFocus()
	c.backend.Transport().FlushClients()
	return nil
}

// Quit implements seat.Actions. Safe to call from any goroutine
func (c *Compositor) Quit() {
	if !c.quit.Swap(true) {
		c.log.Infoln("Quitting")
	}
}

func (c *Compositor) Quitting() bool {
	return c.quit.Load()
}

// Spawn implements seat.Actions. The command runs through sh with WAYLAND_DISPLAY pointing at our socket
func (c *Compositor) Spawn(command string) {
	cmd := exec.Command("sh", "-c", command)
	cmd.Env = os.Environ()
	if socket := c.backend.Transport().SocketName(); socket != "" {
		cmd.Env = append(cmd.Env, "WAYLAND_DISPLAY="+socket)
	}
	if err := c.startCmd(cmd); err != nil {
		c.log.WithError(err).WithField("command", command).Errorln("Command failed to start")
		return
	}
	c.log.WithField("command", command).Infoln("Spawned command")
}

func startCommand(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		err := cmd.Wait()
		if exiterr, ok := err.(*exec.ExitError); ok {
			logrus.WithError(err).WithFields(logrus.Fields{
				"component": "compositor",
				"exit-code": exiterr.ExitCode(),
				"command":   cmd.String(),
			}).Warningln("Bad command completion")
		}
	}()
	return nil
}

// Execute runs a console line on the loop and returns its output.
// Safe to call from any goroutine, blocks until the loop got to it or ctx is done
func (c *Compositor) Execute(ctx context.Context, line string) (string, error) {
	cmd := Command{Line: line, reply: make(chan reply, 1)}
	if err := c.control.TrySend(cmd); err != nil {
		if errors.Is(err, multiplexer.ErrClosed) {
			return "", ErrStopped
		}
		return "", fmt.Errorf("queueing command: %w", err)
	}
	select {
	case r := <-cmd.reply:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *Compositor) drainControl() {
	for {
		select {
		case cmd, ok := <-c.control.Receiver():
			if !ok {
				return
			}
			text, err := c.runCommand(cmd.Line)
			cmd.reply <- reply{text: text, err: err}
		default:
			return
		}
	}
}

// Close stops accepting console commands, ends all subscriptions and closes the backend
func (c *Compositor) Close() error {
	c.control.Close()
	c.notices.Close()
	// Anyone still waiting for an answer gets told the loop is gone
	for cmd := range c.control.Receiver() {
		cmd.reply <- reply{err: ErrStopped}
	}
	return c.backend.Close()
}
