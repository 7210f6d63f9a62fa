package config

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/seat"
	"github.com/mstarongithub/wayspace/space"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
start_type = 1
start_command = "foot"
backend = "headless"
log_level = "debug"
clear_color = "#102030"
focus_new_windows = false

[keyboard]
layout = "de"
variant = "nodeadkeys"

[keybindings.terminal]
combo = "logo+Return"
command = "foot"

[keybindings.cycle]
combo = "alt+Tab"
action = "cycle-focus"

[[outputs]]
name = "DP-1"
pos = [100, 0]

[[outputs]]
name = "HDMI-A-1"
pos = [2020, 0]
scale = 2.0

[headless]
dump_dir = "/tmp/frames"
throttle = false

[[headless.outputs]]
name = "HEADLESS-1"
width = 800
height = 600
`

func TestParseSample(t *testing.T) {
	c, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, START_SINGLE_COMMAND, c.StartType)
	require.NotNil(t, c.StartCommand)
	assert.Equal(t, "foot", *c.StartCommand)
	assert.Equal(t, "headless", c.Backend)
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xff}, c.Clear())
	assert.False(t, c.FocusNew())

	assert.Equal(t, "de", c.Keyboard.Layout)
	assert.Equal(t, "nodeadkeys", c.Keyboard.Variant)
	assert.Equal(t, 25, c.Keyboard.RepeatRate)
	assert.Equal(t, 600, c.Keyboard.RepeatDelay)

	assert.Equal(t, "/tmp/frames", c.Headless.DumpDir)
	assert.False(t, *c.Headless.Throttle)
	assert.True(t, *c.Headless.Socket)
	require.Len(t, c.Headless.Outputs, 1)
	assert.Equal(t, HeadlessOutput{Name: "HEADLESS-1", Width: 800, Height: 600, Refresh: 60}, c.Headless.Outputs[0])
}

func TestBindingsAreSortedByName(t *testing.T) {
	c, err := Parse([]byte(sample))
	require.NoError(t, err)
	bindings, err := c.Bindings()
	require.NoError(t, err)
	require.Len(t, bindings, 2)

	assert.Equal(t, seat.Binding{Mods: seat.ModAlt, Sym: seat.KeysymTab, Action: seat.ActionCycleFocus}, bindings[0])
	assert.Equal(t, seat.Binding{Mods: seat.ModLogo, Sym: seat.KeysymReturn, Action: seat.ActionSpawn, Command: "foot"}, bindings[1])
}

func TestDefaults(t *testing.T) {
	c := Default()
	assert.NoError(t, c.Validate())
	assert.Equal(t, START_REPL, c.StartType)
	assert.Equal(t, "wlr", c.Backend)
	assert.Equal(t, "info", c.LogLevel)
	assert.True(t, c.FocusNew())
	assert.Equal(t, "us", c.Keyboard.Layout)
	assert.True(t, *c.Headless.Throttle)

	bindings, err := c.Bindings()
	require.NoError(t, err)
	assert.Empty(t, bindings)
}

func TestConfiguredPlacementOverridesDefault(t *testing.T) {
	c, err := Parse([]byte(sample))
	require.NoError(t, err)

	p, ok := c.OutputPlacement("DP-1")
	assert.True(t, ok)
	require.NotNil(t, p.Pos)
	assert.Equal(t, generaldata.Vector2i{X: 100}, *p.Pos)
	assert.Zero(t, p.Scale)
	_, ok = c.OutputPlacement("DP-2")
	assert.False(t, ok)

	sp := space.New(c)
	dp1 := space.NewOutput("DP-1", space.Mode{Size: generaldata.Vector2i{X: 1920, Y: 1080}})
	sp.MapOutput(dp1, generaldata.Vector2i{})
	assert.Equal(t, generaldata.Vector2i{X: 100}, dp1.Location())

	hdmi := space.NewOutput("HDMI-A-1", space.Mode{Size: generaldata.Vector2i{X: 3840, Y: 2160}})
	sp.MapOutput(hdmi, generaldata.Vector2i{X: 1920})
	assert.Equal(t, generaldata.Vector2i{X: 2020}, hdmi.Location())
	assert.Equal(t, generaldata.Vector2i{X: 1920, Y: 1080}, hdmi.LogicalSize())
}

func TestScaleOnlyPlacementKeepsPosition(t *testing.T) {
	c, err := Parse([]byte("[[outputs]]\nname = \"DP-2\"\nscale = 2.0"))
	require.NoError(t, err)

	p, ok := c.OutputPlacement("DP-2")
	require.True(t, ok)
	assert.Nil(t, p.Pos)

	sp := space.New(c)
	dp2 := space.NewOutput("DP-2", space.Mode{Size: generaldata.Vector2i{X: 3840, Y: 2160}})
	sp.MapOutput(dp2, generaldata.Vector2i{X: 1920})
	assert.Equal(t, generaldata.Vector2i{X: 1920}, dp2.Location())
	assert.Equal(t, 2.0, dp2.Scale)
}

func TestInvalidConfigs(t *testing.T) {
	tests := map[string]string{
		"syntax":        `backend = `,
		"backend":       `backend = "x11"`,
		"level":         `log_level = "loud"`,
		"color":         `clear_color = "red"`,
		"start command": `start_type = 1`,
		"start type":    `start_type = 7`,
		"combo":         "[keybindings.x]\ncombo = \"hyper+a\"\ncommand = \"foot\"",
		"action":        "[keybindings.x]\ncombo = \"a\"\naction = \"dance\"",
		"spawn nothing": "[keybindings.x]\ncombo = \"a\"",
		"pos":           "[[outputs]]\nname = \"DP-1\"\npos = [1]",
		"headless":      "[[headless.outputs]]\nname = \"H\"\nwidth = 0\nheight = 10",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.ErrorIs(t, err, ErrBadConfig)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "headless", c.Backend)

	c, err = Load(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
	assert.Equal(t, Default(), c)

	require.NoError(t, os.WriteFile(path, []byte(`backend = "x11"`), 0o600))
	c, err = Load(path)
	assert.ErrorIs(t, err, ErrBadConfig)
	assert.Equal(t, "wlr", c.Backend)
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#ff000080")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 255, A: 0x80}, c)
	_, err = ParseColor("#zzzzzz")
	assert.ErrorIs(t, err, ErrBadConfig)
}
