package compositor

import (
	"context"
	"errors"
	"image/color"
	"os/exec"
	"testing"
	"time"

	"github.com/mstarongithub/wayspace/backend"
	"github.com/mstarongithub/wayspace/config"
	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/seat"
	"github.com/mstarongithub/wayspace/space"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTarget struct {
	backend *fakeBackend
	output  string
}

func (t fakeTarget) Render([]space.RenderElement, color.RGBA, generaldata.Region) error {
	t.backend.renders[t.output]++
	return nil
}

type fakeSink struct {
	kinds []string
}

func (s *fakeSink) Capabilities() seat.Capability { return seat.CapKeyboard | seat.CapPointer }

func (s *fakeSink) KeyboardEnter(*space.Window, seat.Serial) { s.kinds = append(s.kinds, "enter") }

func (s *fakeSink) KeyboardLeave(*space.Window, seat.Serial) { s.kinds = append(s.kinds, "leave") }

func (s *fakeSink) KeyboardKey(*space.Window, seat.KeyEvent) { s.kinds = append(s.kinds, "key") }

func (s *fakeSink) PointerMotion(*space.Window, seat.MotionEvent) {}

func (s *fakeSink) PointerButton(*space.Window, seat.ButtonEvent) {}

func (s *fakeSink) PointerAxis(*space.Window, seat.AxisEvent) {}

func (s *fakeSink) PointerFrame(*space.Window) {}

type fakeKeymap map[uint32]seat.Keysym

func (k fakeKeymap) Feed(code uint32, _ seat.KeyState) (seat.Keysym, seat.Modifiers) {
	return k[code], 0
}

// fakeBackend is hardware paced and hands out one batch of events per Wait
type fakeBackend struct {
	outputs  []*space.Output
	batches  [][]backend.Event
	waitErr  error
	renders  map[string]int
	submits  map[string]int
	requests map[string]int
	sink     *fakeSink
	flushes  int
	started  bool
	closed   bool
}

func newFakeBackend(batches ...[]backend.Event) *fakeBackend {
	return &fakeBackend{
		batches:  batches,
		renders:  map[string]int{},
		submits:  map[string]int{},
		requests: map[string]int{},
		sink:     &fakeSink{},
	}
}

func (b *fakeBackend) Name() string { return "fake" }
func (b *fakeBackend) Pacing() backend.Pacing { return backend.PacingHardware }
func (b *fakeBackend) Start() error { b.started = true; return nil }
func (b *fakeBackend) Outputs() []*space.Output { return b.outputs }
func (b *fakeBackend) RequestFrame(output string) { b.requests[output]++ }
func (b *fakeBackend) Seat() seat.Sink { return b.sink }
func (b *fakeBackend) Keymap() seat.Keymap { return fakeKeymap{1: seat.KeysymEscape, 16: seat.KeysymQ} }
func (b *fakeBackend) Transport() backend.Transport { return b }
func (b *fakeBackend) SocketName() string { return "wayland-test" }
func (b *fakeBackend) FlushClients() { b.flushes++ }
func (b *fakeBackend) Close() error { b.closed = true; return nil }
func (b *fakeBackend) Submit(o string, _ generaldata.Region) error {
	b.submits[o]++
	return nil
}

func (b *fakeBackend) Bind(output string) (backend.FrameTarget, error) {
	return fakeTarget{backend: b, output: output}, nil
}

func (b *fakeBackend) Wait(time.Duration) ([]backend.Event, error) {
	if b.waitErr != nil {
		return nil, b.waitErr
	}
	if len(b.batches) == 0 {
		return nil, nil
	}
	batch := b.batches[0]
	b.batches = b.batches[1:]
	return batch, nil
}

type fakeSurface struct {
	alive  bool
	frames int
}

func (s *fakeSurface) Alive() bool { return s.alive }
func (s *fakeSurface) SendFrame(time.Duration) { s.frames++ }

func dp1() *space.Output {
	return space.NewOutput("DP-1", space.Mode{Size: generaldata.Vector2i{X: 1000, Y: 1000}, Refresh: 60000})
}

func newCompositor(t *testing.T, b backend.Backend, conf *config.Config) *Compositor {
	t.Helper()
	c, err := New(b, conf)
	require.NoError(t, err)
	require.NoError(t, c.Start())
	return c
}

func iterate(t *testing.T, c *Compositor, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, c.Iterate(0))
	}
}

func TestHardwarePacedFrames(t *testing.T) {
	b := newFakeBackend(
		[]backend.Event{backend.OutputAddedEvent{Output: dp1()}},
		[]backend.Event{backend.VBlankEvent{Output: "DP-1"}},
		[]backend.Event{backend.FrameCompleteEvent{Output: "DP-1"}, backend.VBlankEvent{Output: "DP-1"}},
	)
	c := newCompositor(t, b, nil)

	iterate(t, c, 1)
	assert.Equal(t, 1, b.submits["DP-1"], "first frame goes out as soon as the output is added")
	iterate(t, c, 1)
	assert.Equal(t, 1, b.submits["DP-1"], "vblank while in flight is dropped")
	iterate(t, c, 1)
	assert.Equal(t, 2, b.submits["DP-1"])
	assert.Equal(t, 2, b.renders["DP-1"])

	st, ok := c.Scheduler().Stats("DP-1")
	require.True(t, ok)
	assert.Equal(t, 1, st.Dropped)
	assert.Equal(t, 1, st.Completed)
	assert.Equal(t, 3, b.flushes)
	assert.Empty(t, b.requests)
}

func TestConfiguredOutputPlacement(t *testing.T) {
	conf, err := config.Parse([]byte("[[outputs]]\nname = \"DP-1\"\npos = [100, 0]\n"))
	require.NoError(t, err)
	b := newFakeBackend([]backend.Event{backend.OutputAddedEvent{Output: dp1()}})
	c := newCompositor(t, b, conf)
	iterate(t, c, 1)

	out := c.Space().Output("DP-1")
	require.NotNil(t, out)
	assert.Equal(t, generaldata.Vector2i{X: 100}, out.Location())
}

func TestNewWindowsAreCascadedAndFocused(t *testing.T) {
	first := space.NewWindow(1, &fakeSurface{alive: true}, generaldata.Vector2i{X: 100, Y: 100})
	second := space.NewWindow(2, &fakeSurface{alive: true}, generaldata.Vector2i{X: 100, Y: 100})
	b := newFakeBackend(
		[]backend.Event{
			backend.OutputAddedEvent{Output: dp1(), Position: generaldata.Vector2i{X: 0, Y: 0}},
			backend.ClientConnectedEvent{Client: 7},
			backend.WindowCreatedEvent{Client: 7, Window: first},
			backend.WindowCreatedEvent{Client: 7, Window: second},
		},
	)
	c := newCompositor(t, b, nil)
	iterate(t, c, 1)

	assert.Equal(t, generaldata.Vector2i{}, first.Location)
	assert.Equal(t, generaldata.Vector2i{X: 32, Y: 32}, second.Location)
	assert.Equal(t, second, c.Router().Focused())
	assert.Equal(t, []string{"enter", "leave", "enter"}, b.sink.kinds)

	clients := c.Clients()
	require.Len(t, clients, 1)
	assert.Equal(t, []space.WindowID{1, 2}, clients[0].Windows)
}

func TestFocusNewWindowsCanBeDisabled(t *testing.T) {
	conf, err := config.Parse([]byte("focus_new_windows = false"))
	require.NoError(t, err)
	w := space.NewWindow(1, &fakeSurface{alive: true}, generaldata.Vector2i{X: 10, Y: 10})
	b := newFakeBackend([]backend.Event{
		backend.OutputAddedEvent{Output: dp1()},
		backend.WindowCreatedEvent{Window: w},
	})
	c := newCompositor(t, b, conf)
	iterate(t, c, 1)

	assert.Equal(t, []*space.Window{w}, c.Space().Windows())
	assert.Nil(t, c.Router().Focused())
}

func TestWindowCommitsAndUnmap(t *testing.T) {
	w := space.NewWindow(1, &fakeSurface{alive: true}, generaldata.Vector2i{X: 10, Y: 10})
	size := generaldata.Vector2i{X: 20, Y: 30}
	b := newFakeBackend(
		[]backend.Event{backend.OutputAddedEvent{Output: dp1()}, backend.WindowCreatedEvent{Window: w}},
		[]backend.Event{backend.WindowCommittedEvent{Window: 1, Size: &size}},
		[]backend.Event{backend.WindowCommittedEvent{Window: 1}, backend.WindowCommittedEvent{Window: 99}},
		[]backend.Event{backend.WindowUnmappedEvent{Window: 1}},
	)
	c := newCompositor(t, b, nil)

	iterate(t, c, 2)
	assert.Equal(t, size, w.Size())
	before := w.Commit()
	iterate(t, c, 1)
	assert.Greater(t, w.Commit(), before)

	iterate(t, c, 1)
	assert.Empty(t, c.Space().Windows())
	assert.Nil(t, c.Router().Focused())
}

func TestOutputModeAndRemoval(t *testing.T) {
	mode := space.Mode{Size: generaldata.Vector2i{X: 640, Y: 480}, Refresh: 75000}
	b := newFakeBackend(
		[]backend.Event{backend.OutputAddedEvent{Output: dp1()}},
		[]backend.Event{backend.OutputModeEvent{Output: "DP-1", Mode: mode}, backend.OutputModeEvent{Output: "nope", Mode: mode}},
		[]backend.Event{backend.OutputRemovedEvent{Output: "DP-1"}},
	)
	c := newCompositor(t, b, nil)

	iterate(t, c, 2)
	assert.Equal(t, mode, c.Space().Output("DP-1").Mode)
	iterate(t, c, 1)
	assert.Nil(t, c.Space().Output("DP-1"))
	assert.Empty(t, c.Scheduler().Outputs())
}

func TestEscapeStopsRun(t *testing.T) {
	w := space.NewWindow(1, &fakeSurface{alive: true}, generaldata.Vector2i{X: 10, Y: 10})
	b := newFakeBackend(
		[]backend.Event{backend.OutputAddedEvent{Output: dp1()}, backend.WindowCreatedEvent{Window: w}},
		[]backend.Event{backend.KeyEvent{KeyInput: seat.KeyInput{Code: 16, State: seat.KeyPressed}}},
		[]backend.Event{backend.KeyEvent{KeyInput: seat.KeyInput{Code: 1, State: seat.KeyPressed}}},
	)
	c := newCompositor(t, b, nil)

	require.NoError(t, c.Run(context.Background()))
	assert.True(t, c.Quitting())
	assert.Equal(t, []string{"enter", "key"}, b.sink.kinds, "escape never reaches the client")
}

func TestCloseEventStopsRun(t *testing.T) {
	b := newFakeBackend([]backend.Event{backend.CloseEvent{}})
	c := newCompositor(t, b, nil)
	require.NoError(t, c.Run(context.Background()))
	assert.True(t, c.Quitting())
}

func TestWaitErrorStopsRun(t *testing.T) {
	b := newFakeBackend()
	failure := errors.New("display went away")
	b.waitErr = failure
	c := newCompositor(t, b, nil)
	assert.ErrorIs(t, c.Run(context.Background()), failure)
}

func TestRunStopsWithContext(t *testing.T) {
	c := newCompositor(t, newFakeBackend(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, c.Run(ctx))
	assert.False(t, c.Quitting())
}

func TestRunNeedsStart(t *testing.T) {
	c, err := New(newFakeBackend(), nil)
	require.NoError(t, err)
	assert.ErrorIs(t, c.Run(context.Background()), backend.ErrNotStarted)
}

func TestSpawn(t *testing.T) {
	command := "foot --server"
	conf := config.Default()
	conf.StartType = config.START_SINGLE_COMMAND
	conf.StartCommand = &command

	c, err := New(newFakeBackend(), conf)
	require.NoError(t, err)
	var started []*exec.Cmd
	c.startCmd = func(cmd *exec.Cmd) error {
		started = append(started, cmd)
		return nil
	}
	require.NoError(t, c.Start())

	require.Len(t, started, 1)
	assert.Equal(t, []string{"sh", "-c", "foot --server"}, started[0].Args)
	assert.Contains(t, started[0].Env, "WAYLAND_DISPLAY=wayland-test")
}

func TestBadBindingsFailConstruction(t *testing.T) {
	conf := config.Default()
	conf.Keybindings = map[string]config.Keybinding{"x": {Combo: "hyper+a", Command: "foot"}}
	_, err := New(newFakeBackend(), conf)
	assert.ErrorIs(t, err, config.ErrBadConfig)
}

func TestCloseAnswersPendingCommands(t *testing.T) {
	b := newFakeBackend()
	c := newCompositor(t, b, nil)

	done := make(chan error, 1)
	go func() {
		_, err := c.Execute(context.Background(), "windows")
		done <- err
	}()
	// Wait until the command is queued
	require.Eventually(t, func() bool { return len(c.control.Receiver()) == 1 }, time.Second, time.Millisecond)
	require.NoError(t, c.Close())
	assert.ErrorIs(t, <-done, ErrStopped)
	assert.True(t, b.closed)

	_, err := c.Execute(context.Background(), "windows")
	assert.ErrorIs(t, err, ErrStopped)
}

// hotplugBackend only finds its input devices and outputs once started
type hotplugBackend struct {
	*fakeBackend
	window *space.Window
}

func (b *hotplugBackend) Start() error {
	b.started = true
	b.batches = append(b.batches, []backend.Event{
		backend.OutputAddedEvent{Output: dp1()},
		backend.WindowCreatedEvent{Window: b.window},
		backend.KeyEvent{KeyInput: seat.KeyInput{Code: 30, State: seat.KeyPressed}},
	})
	return nil
}

func TestDevicesAppearingOnStart(t *testing.T) {
	b := &hotplugBackend{
		fakeBackend: newFakeBackend(),
		window:      space.NewWindow(1, &fakeSurface{alive: true}, generaldata.Vector2i{X: 10, Y: 10}),
	}
	c, err := New(b, config.Default())
	require.NoError(t, err, "the seat exists before any device is plugged in")
	require.NoError(t, c.Start())
	iterate(t, c, 1)

	assert.Equal(t, []string{"enter", "key"}, b.sink.kinds)
}

func TestDraggedWindowRequestsFrame(t *testing.T) {
	w := space.NewWindow(1, &fakeSurface{alive: true}, generaldata.Vector2i{X: 100, Y: 100})
	b := newFakeBackend(
		[]backend.Event{backend.OutputAddedEvent{Output: dp1()}, backend.WindowCreatedEvent{Window: w}},
		[]backend.Event{backend.FrameCompleteEvent{Output: "DP-1"}, backend.VBlankEvent{Output: "DP-1"}},
		[]backend.Event{
			backend.MoveRequestedEvent{Window: 1},
			backend.RelativeMotionEvent{RelativeMotionInput: seat.RelativeMotionInput{DX: 40, DY: 10}},
		},
	)
	c := newCompositor(t, b, nil)

	iterate(t, c, 1)
	assert.Equal(t, 1, b.requests["DP-1"], "new window")
	iterate(t, c, 1)
	assert.Equal(t, 2, b.submits["DP-1"])
	assert.Equal(t, 1, b.requests["DP-1"])

	iterate(t, c, 1)
	assert.Equal(t, generaldata.Vector2i{X: 40, Y: 10}, w.Location)
	assert.Equal(t, 2, b.requests["DP-1"], "the drag alone asks for a frame")
}
