package compositor

import (
	"context"
	"image/color"
	"testing"
	"time"

	"github.com/mstarongithub/wayspace/backend"
	"github.com/mstarongithub/wayspace/backend/headless"
	"github.com/mstarongithub/wayspace/common/ipc"
	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/space"
	"github.com/mstarongithub/wayspace/util/multiplexer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHeadless(t *testing.T) (*Compositor, *headless.Backend) {
	t.Helper()
	b := headless.New(headless.Options{Outputs: []headless.OutputConfig{{
		Name: "HEADLESS-1",
		Mode: space.Mode{Size: generaldata.Vector2i{X: 200, Y: 100}, Refresh: 60000},
	}}})
	c := newCompositor(t, b, nil)
	t.Cleanup(func() { _ = c.Close() })
	iterate(t, c, 1)
	return c, b
}

func run(t *testing.T, c *Compositor, line string) string {
	t.Helper()
	out, err := c.runCommand(line)
	require.NoError(t, err, line)
	return out
}

func kinds(deliveries []headless.Delivery, window space.WindowID) []string {
	var out []string
	for _, d := range deliveries {
		if d.Window == window {
			out = append(out, d.Kind)
		}
	}
	return out
}

func TestDisconnectOfFocusedClientPrunesWindow(t *testing.T) {
	c, b := startHeadless(t)

	bottomClient := b.ConnectClient()
	bottom, err := b.OpenWindow(bottomClient, generaldata.Vector2i{X: 50, Y: 50}, color.RGBA{R: 255, A: 255})
	require.NoError(t, err)
	topClient := b.ConnectClient()
	top, err := b.OpenWindow(topClient, generaldata.Vector2i{X: 50, Y: 50}, color.RGBA{B: 255, A: 255})
	require.NoError(t, err)
	iterate(t, c, 1)

	require.NotNil(t, c.Router().Focused())
	assert.Equal(t, top, c.Router().Focused().ID())
	windows := c.Space().Windows()
	require.Len(t, windows, 2)
	assert.Equal(t, top, windows[1].ID())

	require.NoError(t, b.DisconnectClient(topClient))
	iterate(t, c, 1)

	assert.Nil(t, c.Router().Focused())
	windows = c.Space().Windows()
	require.Len(t, windows, 1)
	assert.Equal(t, bottom, windows[0].ID())
	clients := c.Clients()
	require.Len(t, clients, 1)
	assert.Equal(t, bottomClient, clients[0].ID)
	assert.Equal(t, []string{"keyboard-enter"}, kinds(b.Deliveries(), top), "a dead client gets no leave")
}

func TestSoftwarePacedRendering(t *testing.T) {
	c, b := startHeadless(t)
	iterate(t, c, 1)
	assert.Equal(t, uint64(1), b.Frames("HEADLESS-1"), "new output gets one full frame")

	iterate(t, c, 3)
	assert.Equal(t, uint64(1), b.Frames("HEADLESS-1"), "nothing changed, nothing submitted")

	id, err := b.OpenWindow(b.ConnectClient(), generaldata.Vector2i{X: 20, Y: 20}, color.RGBA{G: 255, A: 255})
	require.NoError(t, err)
	iterate(t, c, 2)
	assert.Equal(t, uint64(2), b.Frames("HEADLESS-1"))
	assert.NotZero(t, b.SurfaceFrames(id), "surfaces hear about frame boundaries")

	img, err := b.Snapshot("HEADLESS-1")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{G: 255, A: 255}, img.At(10, 10))
}

func TestConsoleDrivesSimulatedSession(t *testing.T) {
	c, b := startHeadless(t)

	assert.Equal(t, "Client 1", run(t, c, "client connect"))
	assert.Equal(t, "Window 1", run(t, c, "window open 1 50x50 #ff0000"))
	assert.Equal(t, "Window 2", run(t, c, "window open 1 50x50"))
	iterate(t, c, 1)
	assert.Equal(t,
		"Window 1: 50x50 at 0,0 app-id headless-1\nWindow 2: 50x50 at 32,32 app-id headless-2 (focused)",
		run(t, c, "windows"))
	assert.Equal(t, "Client 1: 2 windows [1 2]", run(t, c, "clients"))

	// Click the part of window 1 that window 2 doesn't cover
	run(t, c, "pointer 0.05 0.1")
	run(t, c, "button left click")
	iterate(t, c, 1)
	assert.Equal(t, "Focused window 1", c.focusText())
	assert.Equal(t, space.WindowID(1), c.Space().Windows()[1].ID())

	run(t, c, "focus 2")
	assert.Equal(t, "Focused window 2", c.focusText())
	run(t, c, "raise 2")
	assert.Equal(t, space.WindowID(2), c.Space().Windows()[1].ID())
	run(t, c, "focus none")
	assert.Equal(t, "No focus", c.focusText())
	assert.Equal(t, "Focused window 1", run(t, c, "cycle"))

	run(t, c, "window resize 1 80x40")
	run(t, c, "window close 2")
	iterate(t, c, 1)
	assert.Equal(t, "Window 1: 80x40 at 0,0 app-id headless-1 (focused)", run(t, c, "windows"))

	run(t, c, "key a")
	iterate(t, c, 1)
	assert.Contains(t, kinds(b.Deliveries(), 1), "key")
	assert.False(t, c.Quitting())

	run(t, c, "key logo+q")
	iterate(t, c, 1)
	assert.True(t, c.Quitting())
}

func TestConsoleOutputs(t *testing.T) {
	c, _ := startHeadless(t)

	assert.Equal(t, "Output 0: HEADLESS-1 at 0,0 scale 1 mode 200x100@60000", run(t, c, "outputs"))
	assert.Contains(t, run(t, c, "modes HEADLESS-1"), "\t- 200x100@60000 (preferred)")

	run(t, c, "output add HEADLESS-2 640x480@75")
	iterate(t, c, 1)
	assert.Equal(t,
		"Output 0: HEADLESS-1 at 0,0 scale 1 mode 200x100@60000\nOutput 1: HEADLESS-2 at 200,0 scale 1 mode 640x480@75000",
		run(t, c, "outputs"))

	run(t, c, "output mode HEADLESS-2 800x600")
	iterate(t, c, 1)
	assert.Equal(t, space.Mode{Size: generaldata.Vector2i{X: 800, Y: 600}, Refresh: 60000}, c.Space().Output("HEADLESS-2").Mode)

	stats := run(t, c, "stats")
	assert.Contains(t, stats, "Pacing: software")
	assert.Contains(t, stats, "HEADLESS-2: submitted")

	run(t, c, "output remove HEADLESS-2")
	iterate(t, c, 1)
	assert.Nil(t, c.Space().Output("HEADLESS-2"))
	_, err := c.runCommand("stats HEADLESS-2")
	assert.ErrorIs(t, err, backend.ErrUnknownOutput)
}

func TestConsoleErrors(t *testing.T) {
	c, _ := startHeadless(t)
	tests := []struct {
		line string
		want error
	}{
		{"dance", ErrUnknownCommand},
		{"window dance 1", ErrUnknownCommand},
		{"focus x", ErrBadArguments},
		{"focus 42", backend.ErrUnknownWindow},
		{"pointer a b", ErrBadArguments},
		{"button 0.5", ErrBadArguments},
		{"keycode x", ErrBadArguments},
		{"window open 1 10x10", backend.ErrUnknownClient},
		{"window open 1 10by10", ErrBadArguments},
		{"output add HEADLESS-3 1x1@0", ErrBadArguments},
		{"modes nope", backend.ErrUnknownOutput},
		{"run", ErrBadArguments},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, err := c.runCommand(tt.line)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Contains(t, run(t, c, "help"), "Commands:")
}

func TestConsoleNeedsCapableBackend(t *testing.T) {
	c := newCompositor(t, newFakeBackend(), nil)
	_, err := c.runCommand("pointer 0.5 0.5")
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = c.runCommand("client connect")
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = c.runCommand("modes DP-1")
	assert.Error(t, err)
}

func TestExecuteFromAnotherGoroutine(t *testing.T) {
	c, _ := startHeadless(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loopDone := make(chan error, 1)
	go func() { loopDone <- c.Run(ctx) }()

	out, err := c.Execute(ctx, "client connect")
	require.NoError(t, err)
	assert.Equal(t, "Client 1", out)

	out, err = c.Execute(ctx, "quit")
	require.NoError(t, err)
	assert.Equal(t, "Quitting", out)
	select {
	case err := <-loopDone:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("loop didn't stop")
	}
}

func TestOutputReport(t *testing.T) {
	c, b := startHeadless(t)

	resp, err := OutputReport(b, nil, ipc.OutputRequest{IncludeModes: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"HEADLESS-1"}, resp.Outputs)
	assert.Equal(t, 1, resp.OutputsFound)
	assert.Nil(t, resp.Placements)
	require.NotEmpty(t, resp.OutputModes["HEADLESS-1"])
	assert.Equal(t, ipc.OutputMode{Width: 200, Height: 100, RefreshRate: 60000, Preferred: true}, resp.OutputModes["HEADLESS-1"][0])

	resp, err = OutputReport(b, c.Space(), ipc.OutputRequest{SpecifiesOutput: true, TargetOutput: "HEADLESS-1"})
	require.NoError(t, err)
	assert.Equal(t, ipc.OutputPlacement{Scale: 1, Current: ipc.OutputMode{Width: 200, Height: 100, RefreshRate: 60000}}, resp.Placements["HEADLESS-1"])

	_, err = OutputReport(b, nil, ipc.OutputRequest{SpecifiesOutput: true, TargetOutput: "nope"})
	assert.ErrorIs(t, err, backend.ErrUnknownOutput)
	_, err = OutputReport(newFakeBackend(), nil, ipc.OutputRequest{IncludeModes: true})
	assert.ErrorIs(t, err, ErrNoModes)
}

func TestNoticesFollowTheLoop(t *testing.T) {
	c, b := startHeadless(t)
	notices, err := c.Subscribe("test")
	require.NoError(t, err)
	_, err = c.Subscribe("test")
	assert.ErrorIs(t, err, multiplexer.ErrReceiverExists)

	client := b.ConnectClient()
	_, err = b.OpenWindow(client, generaldata.Vector2i{X: 50, Y: 50}, color.RGBA{R: 255, A: 255})
	require.NoError(t, err)
	iterate(t, c, 1)
	require.NoError(t, b.DisconnectClient(client))
	iterate(t, c, 1)

	var texts []string
	for len(notices) > 0 {
		texts = append(texts, (<-notices).Text)
	}
	assert.Equal(t, []string{
		"Client 1 connected",
		"Window 1 mapped at 0,0",
		"Focused window 1",
		"Client 1 disconnected",
		"Window 1 gone",
		"Focus cleared",
	}, texts)

	c.Unsubscribe("test")
	_, ok := <-notices
	assert.False(t, ok)
}

func TestTileOutput(t *testing.T) {
	c, _ := startHeadless(t)
	run(t, c, "client connect")
	run(t, c, "window open 1 50x50")
	run(t, c, "window open 1 50x50")
	iterate(t, c, 1)

	assert.Equal(t, "Tiled 2 windows on HEADLESS-1", run(t, c, "tile HEADLESS-1"))
	iterate(t, c, 1)
	assert.Equal(t,
		"Window 1: 100x100 at 0,0 app-id headless-1\nWindow 2: 100x100 at 100,0 app-id headless-2 (focused)",
		run(t, c, "windows"))

	_, err := c.runCommand("tile DP-9")
	assert.ErrorIs(t, err, backend.ErrUnknownOutput)

	assert.Equal(t, "Swapped windows 1 and 2", run(t, c, "swap 1 2"))
	assert.Equal(t,
		"Window 1: 100x100 at 100,0 app-id headless-1\nWindow 2: 100x100 at 0,0 app-id headless-2 (focused)",
		run(t, c, "windows"))

	// The gap of a closed window closes
	run(t, c, "window close 2")
	iterate(t, c, 2)
	assert.Equal(t, "Window 1: 200x100 at 0,0 app-id headless-1", run(t, c, "windows"))

	// Tiling again keeps the tree and splits the focused window
	run(t, c, "window open 1 50x50")
	iterate(t, c, 1)
	assert.Equal(t, "Tiled 2 windows on HEADLESS-1", run(t, c, "tile"))
	iterate(t, c, 1)
	assert.Equal(t,
		"Window 1: 100x100 at 0,0 app-id headless-1\nWindow 3: 100x100 at 100,0 app-id headless-3 (focused)",
		run(t, c, "windows"))
}

func TestSwapNeedsTiledWindows(t *testing.T) {
	c, _ := startHeadless(t)
	run(t, c, "client connect")
	run(t, c, "window open 1 50x50")
	run(t, c, "window open 1 50x50")
	iterate(t, c, 1)

	_, err := c.runCommand("swap 1 2")
	assert.ErrorIs(t, err, ErrNotTiled)
	_, err = c.runCommand("swap 1")
	assert.ErrorIs(t, err, ErrBadArguments)
	run(t, c, "tile")
	_, err = c.runCommand("swap 1 9")
	assert.ErrorIs(t, err, backend.ErrUnknownWindow)
}
