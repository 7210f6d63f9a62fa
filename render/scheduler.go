// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package render

import (
	"image/color"
	"sort"
	"sync"

	"github.com/mstarongithub/wayspace/backend"
	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/space"
	"github.com/sirupsen/logrus"
)

// Target is the part of a backend the scheduler renders through
type Target interface {
	Bind(output string) (backend.FrameTarget, error)
	Submit(output string, damage generaldata.Region) error
	RequestFrame(output string)
}

type outputState struct {
	cycle  FrameCycle
	damage *DamageTracker
	// A frame was asked for and no draw happened since
	requested bool
}

// Scheduler decides per output when a frame gets rendered and submitted
type Scheduler struct {
	// Guards the renderer. Held from bind to submit and nowhere else
	renderer sync.Mutex

	space   *space.Space
	target  Target
	pacing  backend.Pacing
	clear   color.RGBA
	outputs map[string]*outputState
	log     *logrus.Entry
}

func NewScheduler(sp *space.Space, target Target, pacing backend.Pacing, clear color.RGBA) *Scheduler {
	return &Scheduler{
		space:   sp,
		target:  target,
		pacing:  pacing,
		clear:   clear,
		outputs: map[string]*outputState{},
		log: logrus.WithFields(logrus.Fields{
			"component": "render",
			"pacing":    pacing.String(),
		}),
	}
}

func (s *Scheduler) Pacing() backend.Pacing {
	return s.pacing
}

// AddOutput starts the frame cycle of a mapped output.
// Hardware paced outputs get their first frame right away, software paced ones a redraw request
func (s *Scheduler) AddOutput(name string) {
	if _, ok := s.outputs[name]; ok {
		s.ModeChanged(name)
		return
	}
	st := &outputState{damage: NewDamageTracker()}
	s.outputs[name] = st
	s.log.WithField("output", name).Debugln("Output added to scheduler")

	switch s.pacing {
	case backend.PacingHardware:
		s.draw(name, st, true)
	case backend.PacingSoftware:
		s.target.RequestFrame(name)
	}
}

func (s *Scheduler) RemoveOutput(name string) {
	if _, ok := s.outputs[name]; !ok {
		return
	}
	delete(s.outputs, name)
	s.log.WithField("output", name).Debugln("Output removed from scheduler")
}

// ModeChanged damages the whole output on its next frame
func (s *Scheduler) ModeChanged(name string) {
	st, ok := s.outputs[name]
	if !ok {
		return
	}
	st.damage.Reset()
	if s.pacing == backend.PacingSoftware {
		s.target.RequestFrame(name)
	}
}

// VBlank renders a frame for an idle output. A vblank arriving while the
// previous frame is still in flight is dropped
func (s *Scheduler) VBlank(name string) {
	st, ok := s.outputs[name]
	if !ok {
		return
	}
	if st.cycle.InFlight() {
		st.cycle.stats.Dropped++
		s.log.WithField("output", name).Debugln("Dropped vblank, frame still in flight")
		return
	}
	s.draw(name, st, true)
}

// FrameComplete clears the in flight state of an output
func (s *Scheduler) FrameComplete(name string) {
	if st, ok := s.outputs[name]; ok {
		st.cycle.Completed()
	}
}

// Redraw renders and submits a frame if anything changed and asks for the next redraw either way
func (s *Scheduler) Redraw(name string) {
	st, ok := s.outputs[name]
	if !ok {
		return
	}
	if !st.cycle.InFlight() {
		s.draw(name, st, false)
	}
	s.target.RequestFrame(name)
}

// ScheduleChanged asks for a frame on every hardware paced output whose
// elements changed without a client commit, like a dragged or raised window.
// Backends with a retained scene get the new elements right away.
// Software paced outputs find the change on their next redraw
func (s *Scheduler) ScheduleChanged() {
	if s.pacing != backend.PacingHardware {
		return
	}
	syncer, canSync := s.target.(backend.SceneSyncer)
	for name, st := range s.outputs {
		if st.requested {
			continue
		}
		out := s.space.Output(name)
		if out == nil {
			continue
		}
		elements := s.space.RenderElementsFor(name)
		if !st.damage.Pending(elements, out.Mode.Size) {
			continue
		}
		st.requested = true
		if canSync {
			s.renderer.Lock()
			syncer.SyncScene(name, elements)
			s.renderer.Unlock()
		}
		s.target.RequestFrame(name)
		s.log.WithField("output", name).Debugln("Requested frame for changed space")
	}
}

// draw renders and submits one frame. Without force nothing happens unless damage exists
func (s *Scheduler) draw(name string, st *outputState, force bool) {
	out := s.space.Output(name)
	if out == nil {
		return
	}
	st.requested = false
	elements := s.space.RenderElementsFor(name)
	damage, changed := st.damage.Compute(elements, out.Mode.Size)
	if damage.Empty() && !changed && !force {
		st.cycle.stats.Idle++
		return
	}

	log := s.log.WithFields(logrus.Fields{
		"output":   name,
		"elements": len(elements),
		"damage":   len(damage),
	})
	if err := s.renderAndSubmit(name, elements, damage); err != nil {
		st.cycle.stats.Failed++
		// Everything has to be repainted once the output works again
		st.damage.Reset()
		log.WithError(err).Warnln("Skipping frame")
		return
	}
	st.cycle.Submitted()
	log.Debugln("Submitted frame")

	if s.pacing == backend.PacingSoftware {
		// Submit returned, so the frame is on screen
		st.cycle.Completed()
	}
}

func (s *Scheduler) renderAndSubmit(name string, elements []space.RenderElement, damage generaldata.Region) error {
	s.renderer.Lock()
	defer s.renderer.Unlock()

	ft, err := s.target.Bind(name)
	if err != nil {
		return err
	}
	if err = ft.Render(elements, s.clear, damage); err != nil {
		return err
	}
	return s.target.Submit(name, damage)
}

// Stats returns the counters of one output
func (s *Scheduler) Stats(name string) (Stats, bool) {
	st, ok := s.outputs[name]
	if !ok {
		return Stats{}, false
	}
	return st.cycle.Stats(), true
}

func (s *Scheduler) InFlight(name string) bool {
	st, ok := s.outputs[name]
	return ok && st.cycle.InFlight()
}

// Outputs returns the names of all scheduled outputs, sorted
func (s *Scheduler) Outputs() []string {
	names := make([]string, 0, len(s.outputs))
	for name := range s.outputs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
