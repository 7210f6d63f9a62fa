// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package render decides when a frame is composited for an output and what part of it changed.
package render

// FrameCycle tracks whether a frame for an output is waiting on the display.
// At most one frame is in flight at any time
type FrameCycle struct {
	inFlight bool
	stats    Stats
}

// Stats are the counters of one output's frame cycle
type Stats struct {
	Submitted int
	Completed int
	// Vblanks that arrived while a frame was still in flight
	Dropped int
	// Renders or submits that errored out
	Failed int
	// Redraws skipped because nothing changed
	Idle int
}

func (c *FrameCycle) InFlight() bool {
	return c.inFlight
}

// Submitted marks a frame as handed to the display
func (c *FrameCycle) Submitted() {
	c.inFlight = true
	c.stats.Submitted++
}

// Completed clears the in flight flag. Completions without a pending frame are ignored
func (c *FrameCycle) Completed() {
	if !c.inFlight {
		return
	}
	c.inFlight = false
	c.stats.Completed++
}

func (c *FrameCycle) Stats() Stats {
	return c.stats
}
