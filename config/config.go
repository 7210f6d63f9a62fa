// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"sort"

	"github.com/adrg/xdg"
	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/seat"
	"github.com/mstarongithub/wayspace/space"
	"github.com/pelletier/go-toml"
	"github.com/sirupsen/logrus"
)

// Where the config file is searched for inside the xdg config dirs
const ConfigFile = "wayspace/config.toml"

type StartType int

const (
	// Tells wayspace to start a repl in parallel for interacting with it
	START_REPL = StartType(iota)
	// Tells wayspace to execute a specific command on startup
	START_SINGLE_COMMAND
	// Tells wayspace to start without any specific targets
	// Note: Good luck interacting with it :3
	START_NONE
)

var ErrBadConfig = errors.New("bad config")

type Config struct {
	StartType StartType `toml:"start_type,omitempty"`
	// What command to execute on start. Only matters if StartType is set to START_SINGLE_COMMAND
	StartCommand *string `toml:"start_command,omitempty"`
	// Either "wlr" or "headless"
	Backend  string `toml:"backend,omitempty"`
	LogLevel string `toml:"log_level,omitempty"`
	// Background color as #rrggbb
	ClearColor string `toml:"clear_color,omitempty"`
	// Whether newly mapped windows get keyboard focus. Defaults to true
	FocusNewWindows *bool `toml:"focus_new_windows,omitempty"`

	Keyboard    Keyboard              `toml:"keyboard"`
	Keybindings map[string]Keybinding `toml:"keybindings"`
	Outputs     []Output              `toml:"outputs"`
	Headless    Headless              `toml:"headless"`
}

// Keyboard configures the xkb keymap of the wlroots backend
type Keyboard struct {
	Layout  string `toml:"layout,omitempty"`
	Variant string `toml:"variant,omitempty"`
	Options string `toml:"options,omitempty"`
	// Repeats per second
	RepeatRate int `toml:"repeat_rate,omitempty"`
	// Milliseconds before a held key starts repeating
	RepeatDelay int `toml:"repeat_delay,omitempty"`
}

type Keybinding struct {
	// For example "logo+Return"
	Combo   string `toml:"combo"`
	Command string `toml:"command,omitempty"`
	// One of spawn, quit or cycle-focus. Defaults to spawn
	Action string `toml:"action,omitempty"`
}

// Output places an output in the global space, overriding where the backend would put it
type Output struct {
	Name string `toml:"name"`
	Pos  []int  `toml:"pos,omitempty"`
	// Written as float, for example 2.0
	Scale float64 `toml:"scale,omitempty"`
}

type Headless struct {
	DumpDir  string           `toml:"dump_dir,omitempty"`
	Throttle *bool            `toml:"throttle,omitempty"`
	Socket   *bool            `toml:"socket,omitempty"`
	Outputs  []HeadlessOutput `toml:"outputs"`
}

type HeadlessOutput struct {
	Name   string `toml:"name"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	// In Hz
	Refresh int `toml:"refresh,omitempty"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Backend == "" {
		c.Backend = "wlr"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.ClearColor == "" {
		c.ClearColor = "#1e1e2e"
	}
	if c.FocusNewWindows == nil {
		focus := true
		c.FocusNewWindows = &focus
	}
	if c.Keyboard.Layout == "" {
		c.Keyboard.Layout = "us"
	}
	if c.Keyboard.RepeatRate <= 0 {
		c.Keyboard.RepeatRate = 25
	}
	if c.Keyboard.RepeatDelay <= 0 {
		c.Keyboard.RepeatDelay = 600
	}
	if c.Headless.Throttle == nil {
		throttle := true
		c.Headless.Throttle = &throttle
	}
	if c.Headless.Socket == nil {
		socket := true
		c.Headless.Socket = &socket
	}
	for i := range c.Headless.Outputs {
		if c.Headless.Outputs[i].Refresh <= 0 {
			c.Headless.Outputs[i].Refresh = 60
		}
	}
}

// Parse decodes a TOML document and fills in defaults for everything it leaves out
func Parse(data []byte) (*Config, error) {
	c := &Config{}
	if err := toml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadConfig, err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads the config at path, or searches the xdg config dirs if path is empty.
// A missing file in the xdg dirs isn't an error. On any error the defaults are returned
// alongside it so the caller can warn and carry on
func Load(path string) (*Config, error) {
	log := logrus.WithField("component", "config")
	if path == "" {
		found, err := xdg.SearchConfigFile(ConfigFile)
		if err != nil {
			log.WithField("file", ConfigFile).Debugln("No config file found, using defaults")
			return Default(), nil
		}
		path = found
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Default(), fmt.Errorf("reading config %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return Default(), fmt.Errorf("parsing config %s: %w", path, err)
	}
	log.WithField("file", path).Infoln("Loaded config")
	return c, nil
}

// Validate checks everything that can't be expressed through types
func (c *Config) Validate() error {
	switch c.Backend {
	case "wlr", "headless":
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrBadConfig, c.Backend)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrBadConfig, err)
	}
	if _, err := ParseColor(c.ClearColor); err != nil {
		return err
	}
	if c.StartType < START_REPL || c.StartType > START_NONE {
		return fmt.Errorf("%w: unknown start type %d", ErrBadConfig, c.StartType)
	}
	if c.StartType == START_SINGLE_COMMAND && (c.StartCommand == nil || *c.StartCommand == "") {
		return fmt.Errorf("%w: start type needs a start command", ErrBadConfig)
	}
	if _, err := c.Bindings(); err != nil {
		return err
	}
	for _, o := range c.Outputs {
		if o.Name == "" {
			return fmt.Errorf("%w: output without name", ErrBadConfig)
		}
		if len(o.Pos) != 0 && len(o.Pos) != 2 {
			return fmt.Errorf("%w: position of output %s needs two values", ErrBadConfig, o.Name)
		}
		if o.Scale < 0 {
			return fmt.Errorf("%w: negative scale for output %s", ErrBadConfig, o.Name)
		}
	}
	for _, o := range c.Headless.Outputs {
		if o.Name == "" || o.Width <= 0 || o.Height <= 0 {
			return fmt.Errorf("%w: headless output %q needs a name and a size", ErrBadConfig, o.Name)
		}
	}
	return nil
}

// OutputPlacement implements space.Placements
// An entry without pos only overrides the scale
func (c *Config) OutputPlacement(name string) (space.Placement, bool) {
	for _, o := range c.Outputs {
		if o.Name != name {
			continue
		}
		p := space.Placement{Scale: o.Scale}
		if len(o.Pos) == 2 {
			p.Pos = &generaldata.Vector2i{X: o.Pos[0], Y: o.Pos[1]}
		}
		return p, true
	}
	return space.Placement{}, false
}

// Bindings turns the configured keybindings into seat bindings, ordered by name
func (c *Config) Bindings() ([]seat.Binding, error) {
	names := make([]string, 0, len(c.Keybindings))
	for name := range c.Keybindings {
		names = append(names, name)
	}
	sort.Strings(names)

	bindings := make([]seat.Binding, 0, len(names))
	for _, name := range names {
		kb := c.Keybindings[name]
		mods, sym, err := seat.ParseCombo(kb.Combo)
		if err != nil {
			return nil, fmt.Errorf("%w: keybinding %s: %w", ErrBadConfig, name, err)
		}
		action, err := seat.ParseAction(kb.Action)
		if err != nil {
			return nil, fmt.Errorf("%w: keybinding %s: %w", ErrBadConfig, name, err)
		}
		if action == seat.ActionSpawn && kb.Command == "" {
			return nil, fmt.Errorf("%w: keybinding %s has nothing to spawn", ErrBadConfig, name)
		}
		bindings = append(bindings, seat.Binding{
			Mods:    mods,
			Sym:     sym,
			Action:  action,
			Command: kb.Command,
		})
	}
	return bindings, nil
}

// Clear returns the parsed clear color. Invalid colors fall back to black
func (c *Config) Clear() color.RGBA {
	col, err := ParseColor(c.ClearColor)
	if err != nil {
		return color.RGBA{A: 255}
	}
	return col
}

func (c *Config) FocusNew() bool {
	return c.FocusNewWindows == nil || *c.FocusNewWindows
}

// ParseColor reads colors written as #rrggbb or #rrggbbaa
func ParseColor(s string) (color.RGBA, error) {
	var r, g, b uint8
	a := uint8(255)
	switch len(s) {
	case 7:
		if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil {
			return color.RGBA{}, fmt.Errorf("%w: color %q: %w", ErrBadConfig, s, err)
		}
	case 9:
		if _, err := fmt.Sscanf(s, "#%02x%02x%02x%02x", &r, &g, &b, &a); err != nil {
			return color.RGBA{}, fmt.Errorf("%w: color %q: %w", ErrBadConfig, s, err)
		}
	default:
		return color.RGBA{}, fmt.Errorf("%w: color %q is not #rrggbb", ErrBadConfig, s)
	}
	return color.RGBA{R: r, G: g, B: b, A: a}, nil
}
