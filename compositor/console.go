// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package compositor

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/mstarongithub/wayspace/backend"
	"github.com/mstarongithub/wayspace/common/ipc"
	"github.com/mstarongithub/wayspace/config"
	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/seat"
	"github.com/mstarongithub/wayspace/space"
	"github.com/mstarongithub/wayspace/util"
	"github.com/sirupsen/logrus"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrBadArguments   = errors.New("bad arguments")
	ErrUnsupported    = errors.New("not supported by this backend")
)

const helpText = `Commands:
  outputs                        List outputs and where they are
  modes <output>                 List the modes of an output
  windows                        List the window stack, bottom to top
  clients                        List connected clients
  focus <window|none>            Give a window keyboard focus
  raise <window>                 Move a window to the top
  cycle                          Focus the next window
  tile [output]                  Arrange the windows on an output side by side
  swap <window> <window>         Swap two tiled windows
  stats [output]                 Frame counters
  run <command>                  Spawn a command
  quit                           Stop the compositor
  key <combo>                    Type a key combo, like ctrl+alt+BackSpace
  keycode <code> <press|release> Send a raw key event
  pointer <x> <y> [output]       Move the pointer, x and y from 0 to 1
  move <dx> <dy>                 Move the pointer relative
  button <left|right|middle|code> [press|release|click]
  scroll <delta>
  client <connect|disconnect <id>>
  window open <client> <WxH> [#color]
  window <close|grab> <id>
  window paint <id> <#color>
  window resize <id> <WxH>
  output add <name> <WxH[@Hz]>
  output remove <name>
  output mode <name> <WxH[@Hz]>`

// timestamper is implemented by backends that hand out input timestamps
type timestamper interface {
	Timestamp() uint32
}

func (c *Compositor) runCommand(line string) (string, error) {
	var cmd, args string
	util.Unpack(strings.SplitN(strings.TrimSpace(line), " ", 2), &cmd, &args)
	args = strings.TrimSpace(args)
	c.log.WithFields(logrus.Fields{
		"cmd":  cmd,
		"args": args,
	}).Debugln("Running console command")

	switch cmd {
	case "", "help":
		return helpText, nil
	case "quit":
		c.Quit()
		return "Quitting", nil
	case "run":
		if args == "" {
			return "", fmt.Errorf("%w: run needs a command", ErrBadArguments)
		}
		c.Spawn(args)
		return "Running " + args, nil
	case "outputs":
		return c.listOutputs()
	case "modes":
		return c.listModes(args)
	case "windows":
		return c.listWindows(), nil
	case "clients":
		return c.listClients(), nil
	case "focus":
		if args == "none" {
			c.router.SetFocus(nil)
			return "Focus cleared", nil
		}
		w, err := c.window(args)
		if err != nil {
			return "", err
		}
		c.router.SetFocus(w)
		return fmt.Sprintf("Focused window %d", w.ID()), nil
	case "raise":
		w, err := c.window(args)
		if err != nil {
			return "", err
		}
		c.space.Raise(w)
		return fmt.Sprintf("Raised window %d", w.ID()), nil
	case "cycle":
		c.router.CycleFocus()
		return c.focusText(), nil
	case "tile":
		n, out, err := c.tile(args)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Tiled %d windows on %s", n, out), nil
	case "swap":
		var first, second string
		if util.Unpack(strings.Fields(args), &first, &second) != 2 {
			return "", fmt.Errorf("%w: swap needs two windows", ErrBadArguments)
		}
		a, err := c.window(first)
		if err != nil {
			return "", err
		}
		b, err := c.window(second)
		if err != nil {
			return "", err
		}
		if err := c.swap(a.ID(), b.ID()); err != nil {
			return "", err
		}
		return fmt.Sprintf("Swapped windows %d and %d", a.ID(), b.ID()), nil
	case "stats":
		return c.stats(args)
	case "key", "keycode", "pointer", "move", "button", "scroll":
		return c.input(cmd, args)
	case "client", "window", "output":
		return c.simulate(cmd, args)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
	}
}

func (c *Compositor) window(arg string) (*space.Window, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: window id %q", ErrBadArguments, arg)
	}
	w := c.space.Window(space.WindowID(id))
	if w == nil {
		return nil, fmt.Errorf("%w: %d", backend.ErrUnknownWindow, id)
	}
	return w, nil
}

func (c *Compositor) focusText() string {
	if w := c.router.Focused(); w != nil {
		return fmt.Sprintf("Focused window %d", w.ID())
	}
	return "No focus"
}

func (c *Compositor) listOutputs() (string, error) {
	resp, err := OutputReport(c.backend, c.space, ipc.OutputRequest{})
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for i, name := range resp.Outputs {
		p, ok := resp.Placements[name]
		if !ok {
			fmt.Fprintf(&b, "Output %d: %s (not mapped)\n", i, name)
			continue
		}
		fmt.Fprintf(&b, "Output %d: %s at %d,%d scale %g mode %dx%d@%d\n",
			i, name, p.X, p.Y, p.Scale, p.Current.Width, p.Current.Height, p.Current.RefreshRate)
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}

func (c *Compositor) listModes(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: modes needs an output", ErrBadArguments)
	}
	resp, err := OutputReport(c.backend, nil, ipc.OutputRequest{
		IncludeModes:    true,
		SpecifiesOutput: true,
		TargetOutput:    name,
	})
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Modes for output %s:", name)
	for _, m := range resp.OutputModes[name] {
		fmt.Fprintf(&b, "\n\t- %dx%d@%d", m.Width, m.Height, m.RefreshRate)
		if m.Preferred {
			b.WriteString(" (preferred)")
		}
	}
	return b.String(), nil
}

func (c *Compositor) listWindows() string {
	windows := c.space.Windows()
	if len(windows) == 0 {
		return "No windows"
	}
	focused := space.NoWindow
	if w := c.router.Focused(); w != nil {
		focused = w.ID()
	}
	var b strings.Builder
	for _, w := range windows {
		g := w.Geometry()
		fmt.Fprintf(&b, "Window %d: %dx%d at %d,%d", w.ID(), g.W, g.H, g.X, g.Y)
		if w.AppID != "" {
			fmt.Fprintf(&b, " app-id %s", w.AppID)
		}
		if w.ID() == focused {
			b.WriteString(" (focused)")
		}
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (c *Compositor) listClients() string {
	clients := c.Clients()
	if len(clients) == 0 {
		return "No clients"
	}
	lines := make([]string, 0, len(clients))
	for _, cl := range clients {
		lines = append(lines, fmt.Sprintf("Client %d: %d windows %v", cl.ID, len(cl.Windows), cl.Windows))
	}
	return strings.Join(lines, "\n")
}

func (c *Compositor) stats(name string) (string, error) {
	names := c.scheduler.Outputs()
	if name != "" {
		names = []string{name}
	}
	lines := []string{"Pacing: " + c.scheduler.Pacing().String()}
	for _, n := range names {
		st, ok := c.scheduler.Stats(n)
		if !ok {
			return "", fmt.Errorf("%w: %s", backend.ErrUnknownOutput, n)
		}
		lines = append(lines, fmt.Sprintf(
			"%s: submitted %d completed %d dropped %d failed %d idle %d in-flight %t",
			n, st.Submitted, st.Completed, st.Dropped, st.Failed, st.Idle, c.scheduler.InFlight(n),
		))
	}
	return strings.Join(lines, "\n"), nil
}

// input turns console commands into synthetic device events. They take the same
// route through the backend as real ones and get dispatched on the next iteration
func (c *Compositor) input(cmd, args string) (string, error) {
	inj, ok := c.backend.(backend.Injector)
	if !ok {
		return "", fmt.Errorf("%w: input injection", ErrUnsupported)
	}
	var now uint32
	if ts, ok := c.backend.(timestamper); ok {
		now = ts.Timestamp()
	}
	var a, b, d string
	util.Unpack(strings.Fields(args), &a, &b, &d)

	var events []backend.Event
	switch cmd {
	case "key":
		coder, ok := c.backend.(backend.KeyCoder)
		if !ok {
			return "", fmt.Errorf("%w: typing key combos", ErrUnsupported)
		}
		mods, sym, err := seat.ParseCombo(a)
		if err != nil {
			return "", err
		}
		codes, err := coder.KeyCodes(mods, sym)
		if err != nil {
			return "", err
		}
		for _, code := range codes {
			events = append(events, backend.KeyEvent{KeyInput: seat.KeyInput{Time: now, Code: code, State: seat.KeyPressed}})
		}
		for i := len(codes) - 1; i >= 0; i-- {
			events = append(events, backend.KeyEvent{KeyInput: seat.KeyInput{Time: now, Code: codes[i], State: seat.KeyReleased}})
		}
	case "keycode":
		code, err := strconv.ParseUint(a, 10, 32)
		if err != nil {
			return "", fmt.Errorf("%w: key code %q", ErrBadArguments, a)
		}
		state := seat.KeyPressed
		switch b {
		case "press", "":
		case "release":
			state = seat.KeyReleased
		default:
			return "", fmt.Errorf("%w: key state %q", ErrBadArguments, b)
		}
		events = append(events, backend.KeyEvent{KeyInput: seat.KeyInput{Time: now, Code: uint32(code), State: state}})
	case "pointer":
		x, errX := strconv.ParseFloat(a, 64)
		y, errY := strconv.ParseFloat(b, 64)
		if errX != nil || errY != nil {
			return "", fmt.Errorf("%w: pointer needs two numbers", ErrBadArguments)
		}
		events = append(events, backend.AbsoluteMotionEvent{AbsoluteMotionInput: seat.AbsoluteMotionInput{
			Time: now, Output: d, X: x, Y: y,
		}})
	case "move":
		dx, errX := strconv.ParseFloat(a, 64)
		dy, errY := strconv.ParseFloat(b, 64)
		if errX != nil || errY != nil {
			return "", fmt.Errorf("%w: move needs two numbers", ErrBadArguments)
		}
		events = append(events, backend.RelativeMotionEvent{RelativeMotionInput: seat.RelativeMotionInput{
			Time: now, DX: dx, DY: dy,
		}})
	case "button":
		button, err := parseButton(a)
		if err != nil {
			return "", err
		}
		press := backend.ButtonEvent{ButtonInput: seat.ButtonInput{Time: now, Button: button, State: seat.ButtonPressed}}
		release := backend.ButtonEvent{ButtonInput: seat.ButtonInput{Time: now, Button: button, State: seat.ButtonReleased}}
		switch b {
		case "click", "":
			events = append(events, press, release)
		case "press":
			events = append(events, press)
		case "release":
			events = append(events, release)
		default:
			return "", fmt.Errorf("%w: button state %q", ErrBadArguments, b)
		}
	case "scroll":
		delta, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return "", fmt.Errorf("%w: scroll delta %q", ErrBadArguments, a)
		}
		events = append(events, backend.AxisEvent{AxisInput: seat.AxisInput{
			Time: now, Orientation: seat.AxisVertical, Delta: delta,
		}})
	}

	for _, ev := range events {
		if err := inj.Inject(ev); err != nil {
			return "", fmt.Errorf("injecting %s: %w", cmd, err)
		}
	}
	return fmt.Sprintf("Injected %d events", len(events)), nil
}

func parseButton(name string) (uint32, error) {
	switch name {
	case "left", "":
		return seat.BtnLeft, nil
	case "right":
		return seat.BtnRight, nil
	case "middle":
		return seat.BtnMiddle, nil
	}
	code, err := strconv.ParseUint(name, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: button %q", ErrBadArguments, name)
	}
	return uint32(code), nil
}

// simulate drives the simulated clients and outputs of backends that have them
func (c *Compositor) simulate(cmd, args string) (string, error) {
	sim, ok := c.backend.(backend.Simulator)
	if !ok {
		return "", fmt.Errorf("%w: simulated %ss", ErrUnsupported, cmd)
	}
	var sub, a, b, d string
	util.Unpack(strings.Fields(args), &sub, &a, &b, &d)

	switch cmd + " " + sub {
	case "client connect":
		return fmt.Sprintf("Client %d", sim.ConnectClient()), nil
	case "client disconnect":
		id, err := strconv.ParseUint(a, 10, 64)
		if err != nil {
			return "", fmt.Errorf("%w: client id %q", ErrBadArguments, a)
		}
		return "Disconnected", sim.DisconnectClient(backend.ClientID(id))

	case "window open":
		client, err := strconv.ParseUint(a, 10, 64)
		if err != nil {
			return "", fmt.Errorf("%w: client id %q", ErrBadArguments, a)
		}
		size, _, err := parseSize(b)
		if err != nil {
			return "", err
		}
		fill := color.RGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xff}
		if d != "" {
			if fill, err = config.ParseColor(d); err != nil {
				return "", err
			}
		}
		id, err := sim.OpenWindow(backend.ClientID(client), size, fill)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Window %d", id), nil
	case "window close", "window grab", "window paint", "window resize":
		id, err := strconv.ParseUint(a, 10, 64)
		if err != nil {
			return "", fmt.Errorf("%w: window id %q", ErrBadArguments, a)
		}
		wid := space.WindowID(id)
		switch sub {
		case "close":
			return "Closed", sim.CloseWindow(wid)
		case "grab":
			return "Move requested", sim.RequestMove(wid)
		case "paint":
			fill, err := config.ParseColor(b)
			if err != nil {
				return "", err
			}
			return "Painted", sim.PaintWindow(wid, fill)
		default:
			size, _, err := parseSize(b)
			if err != nil {
				return "", err
			}
			return "Resized", sim.ResizeWindow(wid, size)
		}

	case "output add", "output mode":
		size, refresh, err := parseSize(b)
		if err != nil {
			return "", err
		}
		mode := space.Mode{Size: size, Refresh: refresh}
		if sub == "add" {
			return "Added " + a, sim.AddOutput(a, mode)
		}
		return "Mode set", sim.SetMode(a, mode)
	case "output remove":
		return "Removed " + a, sim.RemoveOutput(a)
	default:
		return "", fmt.Errorf("%w: %s %s", ErrUnknownCommand, cmd, sub)
	}
}

// parseSize reads WxH or WxH@Hz. The refresh is returned in mHz and defaults to 60Hz
func parseSize(s string) (generaldata.Vector2i, int, error) {
	dims, hz, hasRate := strings.Cut(s, "@")
	w, h, ok := strings.Cut(dims, "x")
	if !ok {
		return generaldata.Vector2i{}, 0, fmt.Errorf("%w: size %q is not WxH", ErrBadArguments, s)
	}
	width, errW := strconv.Atoi(w)
	height, errH := strconv.Atoi(h)
	if errW != nil || errH != nil || width <= 0 || height <= 0 {
		return generaldata.Vector2i{}, 0, fmt.Errorf("%w: size %q", ErrBadArguments, s)
	}
	refresh := 60000
	if hasRate {
		rate, err := strconv.ParseFloat(hz, 64)
		if err != nil || rate <= 0 {
			return generaldata.Vector2i{}, 0, fmt.Errorf("%w: refresh rate %q", ErrBadArguments, hz)
		}
		refresh = int(rate * 1000)
	}
	return generaldata.Vector2i{X: width, Y: height}, refresh, nil
}
