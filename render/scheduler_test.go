package render

import (
	"errors"
	"image/color"
	"math/rand"
	"testing"
	"time"

	"github.com/mstarongithub/wayspace/backend"
	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/space"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frame struct {
	output   string
	elements []space.RenderElement
	damage   generaldata.Region
}

type fakeTarget struct {
	frames   []frame
	requests map[string]int
	// Outputs whose bind fails
	broken map[string]bool
	bound  string
	last   []space.RenderElement
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{requests: map[string]int{}, broken: map[string]bool{}}
}

func (t *fakeTarget) Bind(output string) (backend.FrameTarget, error) {
	if t.broken[output] {
		return nil, errors.New("no buffer")
	}
	t.bound = output
	return t, nil
}

func (t *fakeTarget) Render(elements []space.RenderElement, _ color.RGBA, _ generaldata.Region) error {
	t.last = elements
	return nil
}

func (t *fakeTarget) Submit(output string, damage generaldata.Region) error {
	t.frames = append(t.frames, frame{output: output, elements: t.last, damage: damage})
	return nil
}

func (t *fakeTarget) RequestFrame(output string) {
	t.requests[output]++
}

func (t *fakeTarget) submits(output string) int {
	n := 0
	for _, f := range t.frames {
		if f.output == output {
			n++
		}
	}
	return n
}

type liveSurface struct{}

func (liveSurface) Alive() bool { return true }

func (liveSurface) SendFrame(time.Duration) {}

func newSpace(outputs ...string) *space.Space {
	sp := space.New(nil)
	for i, name := range outputs {
		sp.MapOutput(space.NewOutput(name, space.Mode{Size: generaldata.Vector2i{X: 800, Y: 600}, Refresh: 60000}), generaldata.Vector2i{X: i * 800})
	}
	return sp
}

func TestHardwarePacedCycle(t *testing.T) {
	sp := newSpace("DP-1")
	target := newFakeTarget()
	s := NewScheduler(sp, target, backend.PacingHardware, color.RGBA{A: 255})

	s.AddOutput("DP-1")
	assert.Equal(t, 1, target.submits("DP-1"), "first frame right after the output is added")
	assert.True(t, s.InFlight("DP-1"))

	s.VBlank("DP-1")
	s.VBlank("DP-1")
	assert.Equal(t, 1, target.submits("DP-1"))

	s.FrameComplete("DP-1")
	assert.False(t, s.InFlight("DP-1"))
	s.VBlank("DP-1")
	assert.Equal(t, 2, target.submits("DP-1"))

	stats, ok := s.Stats("DP-1")
	require.True(t, ok)
	assert.Equal(t, Stats{Submitted: 2, Completed: 1, Dropped: 2}, stats)
	assert.Zero(t, target.requests["DP-1"])
}

func TestHardwareSubmitsNeverOutrunCompletions(t *testing.T) {
	sp := newSpace("DP-1", "DP-2")
	target := newFakeTarget()
	s := NewScheduler(sp, target, backend.PacingHardware, color.RGBA{})
	s.AddOutput("DP-1")
	s.AddOutput("DP-2")

	rng := rand.New(rand.NewSource(7))
	outputs := []string{"DP-1", "DP-2"}
	for step := 0; step < 5000; step++ {
		name := outputs[rng.Intn(len(outputs))]
		switch rng.Intn(3) {
		case 0:
			s.FrameComplete(name)
		default:
			s.VBlank(name)
		}
		for _, o := range outputs {
			stats, _ := s.Stats(o)
			require.LessOrEqual(t, stats.Submitted, stats.Completed+1, "step %d output %s", step, o)
			require.Equal(t, stats.Submitted, target.submits(o))
		}
	}
}

func TestSoftwarePacedRedraw(t *testing.T) {
	sp := newSpace("HEADLESS-1")
	target := newFakeTarget()
	s := NewScheduler(sp, target, backend.PacingSoftware, color.RGBA{})

	s.AddOutput("HEADLESS-1")
	assert.Zero(t, target.submits("HEADLESS-1"))
	assert.Equal(t, 1, target.requests["HEADLESS-1"])

	// Freshly added outputs are fully damaged
	s.Redraw("HEADLESS-1")
	require.Len(t, target.frames, 1)
	assert.Equal(t, generaldata.Region{{W: 800, H: 600}}, target.frames[0].damage)
	assert.False(t, s.InFlight("HEADLESS-1"))

	// Nothing changed, no frame but still a new request
	s.Redraw("HEADLESS-1")
	assert.Len(t, target.frames, 1)
	assert.Equal(t, 3, target.requests["HEADLESS-1"])

	w := space.NewWindow(1, liveSurface{}, generaldata.Vector2i{X: 100, Y: 100})
	w.Location = generaldata.Vector2i{X: 10, Y: 20}
	sp.MapWindow(w)
	s.Redraw("HEADLESS-1")
	require.Len(t, target.frames, 2)
	assert.Equal(t, generaldata.Region{{X: 10, Y: 20, W: 100, H: 100}}, target.frames[1].damage)
	assert.Len(t, target.frames[1].elements, 1)

	w.Damage()
	s.Redraw("HEADLESS-1")
	require.Len(t, target.frames, 3)
	assert.Equal(t, generaldata.Region{{X: 10, Y: 20, W: 100, H: 100}}, target.frames[2].damage)

	stats, _ := s.Stats("HEADLESS-1")
	assert.Equal(t, 3, stats.Submitted)
	assert.Equal(t, 3, stats.Completed)
	assert.Equal(t, 1, stats.Idle)
}

func TestModeChangeDamagesEverything(t *testing.T) {
	sp := newSpace("HEADLESS-1")
	target := newFakeTarget()
	s := NewScheduler(sp, target, backend.PacingSoftware, color.RGBA{})
	s.AddOutput("HEADLESS-1")
	s.Redraw("HEADLESS-1")

	sp.Output("HEADLESS-1").Mode = space.Mode{Size: generaldata.Vector2i{X: 1024, Y: 768}}
	s.ModeChanged("HEADLESS-1")
	s.Redraw("HEADLESS-1")
	require.Len(t, target.frames, 2)
	assert.Equal(t, generaldata.Region{{W: 1024, H: 768}}, target.frames[1].damage)
}

func TestFailingOutputDoesNotStopOthers(t *testing.T) {
	sp := newSpace("DP-1", "DP-2")
	target := newFakeTarget()
	target.broken["DP-1"] = true
	s := NewScheduler(sp, target, backend.PacingHardware, color.RGBA{})

	s.AddOutput("DP-1")
	s.AddOutput("DP-2")
	s.VBlank("DP-1")

	assert.Zero(t, target.submits("DP-1"))
	assert.Equal(t, 1, target.submits("DP-2"))
	stats, _ := s.Stats("DP-1")
	assert.Equal(t, 2, stats.Failed)
	assert.False(t, s.InFlight("DP-1"))
}

func TestUnknownOutputsAreIgnored(t *testing.T) {
	sp := newSpace("DP-1")
	target := newFakeTarget()
	s := NewScheduler(sp, target, backend.PacingHardware, color.RGBA{})
	s.VBlank("nope")
	s.FrameComplete("nope")
	s.Redraw("nope")
	s.RemoveOutput("nope")
	assert.Empty(t, target.frames)
	_, ok := s.Stats("nope")
	assert.False(t, ok)

	s.AddOutput("DP-1")
	s.RemoveOutput("DP-1")
	assert.Empty(t, s.Outputs())
}

// sceneTarget keeps a scene of its own, like wlroots does
type sceneTarget struct {
	*fakeTarget
	synced map[string][]space.RenderElement
}

func (t *sceneTarget) SyncScene(output string, elements []space.RenderElement) {
	t.synced[output] = elements
}

func TestHardwarePacedOutputsHearAboutMovedWindows(t *testing.T) {
	sp := newSpace("DP-1", "DP-2")
	target := &sceneTarget{fakeTarget: newFakeTarget(), synced: map[string][]space.RenderElement{}}
	s := NewScheduler(sp, target, backend.PacingHardware, color.RGBA{})
	s.AddOutput("DP-1")
	s.AddOutput("DP-2")

	s.ScheduleChanged()
	assert.Empty(t, target.requests, "nothing changed since the first frames")

	w := space.NewWindow(1, liveSurface{}, generaldata.Vector2i{X: 100, Y: 100})
	sp.MapWindow(w)
	s.ScheduleChanged()
	assert.Equal(t, 1, target.requests["DP-1"])
	assert.Zero(t, target.requests["DP-2"])
	require.Len(t, target.synced["DP-1"], 1)

	s.ScheduleChanged()
	assert.Equal(t, 1, target.requests["DP-1"], "one request until the output draws")

	s.FrameComplete("DP-1")
	s.VBlank("DP-1")
	assert.Equal(t, 2, target.submits("DP-1"))

	// Dragged onto the second output without any client commit
	w.Location = generaldata.Vector2i{X: 750}
	s.ScheduleChanged()
	assert.Equal(t, 2, target.requests["DP-1"])
	assert.Equal(t, 1, target.requests["DP-2"])
	require.Len(t, target.synced["DP-2"], 1)
	assert.Equal(t, generaldata.Rect{W: 50, H: 100}, target.synced["DP-2"][0].Geometry)
}

func TestSoftwarePacedOutputsIgnoreScheduleChanged(t *testing.T) {
	sp := newSpace("HEADLESS-1")
	target := newFakeTarget()
	s := NewScheduler(sp, target, backend.PacingSoftware, color.RGBA{})
	s.AddOutput("HEADLESS-1")
	sp.MapWindow(space.NewWindow(1, liveSurface{}, generaldata.Vector2i{X: 100, Y: 100}))

	s.ScheduleChanged()
	assert.Equal(t, 1, target.requests["HEADLESS-1"], "only the request from AddOutput")
}
