// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package wlr

import (
	"fmt"
	"image/color"
	"time"

	"github.com/mstarongithub/wayspace/backend"
	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/space"
	"github.com/sirupsen/logrus"
	"github.com/swaywm/go-wlroots/wlroots"
)

type output struct {
	wlr   wlroots.Output
	space *space.Output
	// Where the output layout put the output. Outputs are added left to right
	layoutPos generaldata.Vector2i
}

func (b *Backend) handleNewOutput(wlrOutput wlroots.Output) {
	log := b.log.WithField("output", wlrOutput.Name())
	wlrOutput.InitRender(b.allocator, b.renderer)

	state := wlroots.NewOutputState()
	state.StateInit()
	state.StateSetEnabled(true)

	mode := space.Mode{}
	if preferred, err := wlrOutput.PrefferedMode(); err == nil {
		state.SetMode(preferred)
		mode = space.Mode{
			Size:    generaldata.Vector2i{X: int(preferred.Width()), Y: int(preferred.Height())},
			Refresh: int(preferred.Refresh()),
		}
	}
	wlrOutput.CommitState(state)
	state.Finish()
	if mode.Size.X == 0 {
		/* Nested outputs have no modes, only a window size */
		w, h := wlrOutput.EffectiveResolution()
		mode.Size = generaldata.Vector2i{X: w, Y: h}
	}

	out := &output{
		wlr:   wlrOutput,
		space: space.NewOutput(wlrOutput.Name(), mode),
	}
	for _, o := range b.outputs {
		out.layoutPos.X += o.space.Mode.Size.X
	}
	b.outputs = append(b.outputs, out)

	wlrOutput.OnFrame(func(wlroots.Output) {
		b.syncSizes()
		b.emit(backend.FrameCompleteEvent{Output: out.space.Name})
		b.emit(backend.VBlankEvent{Output: out.space.Name})
	})
	wlrOutput.OnRequestState(func(o wlroots.Output, state wlroots.OutputState) {
		o.CommitState(state)
		w, h := o.EffectiveResolution()
		b.emit(backend.OutputModeEvent{
			Output: out.space.Name,
			Mode:   space.Mode{Size: generaldata.Vector2i{X: w, Y: h}, Refresh: out.space.Mode.Refresh},
		})
	})
	wlrOutput.OnDestroy(func(wlroots.Output) {
		b.removeOutput(out)
	})

	lOutput := b.outputLayout.AddOutputAuto(wlrOutput)
	sceneOutput := b.scene.NewOutput(wlrOutput)
	b.sceneLayout.AddOutput(lOutput, sceneOutput)
	if err := wlrOutput.SetTitle(fmt.Sprintf("wayspace - %s", wlrOutput.Name())); err != nil {
		log.WithError(err).Debugln("Output has no title to set")
	}

	log.WithFields(logrus.Fields{
		"mode": mode.String(),
		"at":   out.layoutPos,
	}).Infoln("New output")
	b.emit(backend.OutputAddedEvent{Output: out.space, Position: out.layoutPos})
}

func (b *Backend) removeOutput(out *output) {
	for i, o := range b.outputs {
		if o == out {
			b.outputs = append(b.outputs[:i], b.outputs[i+1:]...)
			break
		}
	}
	b.log.WithField("output", out.space.Name).Infoln("Output gone")
	b.emit(backend.OutputRemovedEvent{Output: out.space.Name})
}

func (b *Backend) output(name string) (*output, error) {
	for _, o := range b.outputs {
		if o.space.Name == name {
			return o, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", backend.ErrUnknownOutput, name)
}

func (b *Backend) Outputs() []*space.Output {
	outputs := make([]*space.Output, 0, len(b.outputs))
	for _, o := range b.outputs {
		outputs = append(outputs, o.space)
	}
	return outputs
}

// Modes lists what the output advertises. Nested outputs advertise nothing
func (b *Backend) Modes(name string) ([]backend.ModeInfo, error) {
	out, err := b.output(name)
	if err != nil {
		return nil, err
	}
	var modes []backend.ModeInfo
	for _, mode := range out.wlr.Modes() {
		modes = append(modes, backend.ModeInfo{
			Mode: space.Mode{
				Size:    generaldata.Vector2i{X: int(mode.Width()), Y: int(mode.Height())},
				Refresh: int(mode.Refresh()),
			},
			Preferred: mode.Preferred(),
		})
	}
	return modes, nil
}

func (b *Backend) Bind(name string) (backend.FrameTarget, error) {
	out, err := b.output(name)
	if err != nil {
		return nil, err
	}
	return &frameTarget{b: b, out: out}, nil
}

// Submit commits the scene of the output and tells its surfaces the frame is done
func (b *Backend) Submit(name string, _ generaldata.Region) error {
	out, err := b.output(name)
	if err != nil {
		return err
	}
	sceneOutput, err := b.scene.SceneOutput(out.wlr)
	if err != nil {
		return fmt.Errorf("no scene for output %s: %w", name, err)
	}
	sceneOutput.Commit()
	sceneOutput.SendFrameDone(time.Now())
	return nil
}

// RequestFrame is a no-op. The scene schedules a frame on its own once
// SyncScene or a client commit damaged it
func (b *Backend) RequestFrame(string) {}

// SyncScene implements backend.SceneSyncer
func (b *Backend) SyncScene(name string, elements []space.RenderElement) {
	out, err := b.output(name)
	if err != nil {
		return
	}
	b.placeNodes(out, elements)
}

// placeNodes moves the scene nodes of the windows to where the space has them
// and restacks them in element order
func (b *Backend) placeNodes(out *output, elements []space.RenderElement) {
	origin := out.layoutPos.Sub(out.space.Location())
	seen := map[space.WindowID]bool{}
	for _, e := range elements {
		if seen[e.Window] {
			continue
		}
		seen[e.Window] = true
		tl, ok := b.windows[e.Window]
		if !ok || tl.window == nil {
			continue
		}
		pos := tl.window.Location.Add(origin)
		node := tl.xdg.SceneTree().Node()
		node.SetPosition(float64(pos.X), float64(pos.Y))
		/* Elements come bottom to top, so raising in order rebuilds the stack */
		node.RaiseToTop()
	}
}

// frameTarget moves the scene nodes of the windows to where the space has them.
// The scene graph draws them and tracks damage on its own
type frameTarget struct {
	b   *Backend
	out *output
}

func (t *frameTarget) Render(elements []space.RenderElement, _ color.RGBA, _ generaldata.Region) error {
	t.b.placeNodes(t.out, elements)
	return nil
}
