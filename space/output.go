// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package space

import (
	"fmt"
	"math"

	generaldata "github.com/mstarongithub/wayspace/general-data"
)

// Mode is a resolution in pixels together with a refresh rate in millihertz
type Mode struct {
	Size    generaldata.Vector2i
	Refresh int
}

func (m Mode) String() string {
	return fmt.Sprintf("%dx%d@%.3fHz", m.Size.X, m.Size.Y, float64(m.Refresh)/1000)
}

// Output is a display sink, either a physical monitor or a virtual one
type Output struct {
	// Unique name of the output, for example "DP-1". Used as the output's identity
	Name string
	// Physical size in millimeters. Zero if unknown
	PhysicalSize generaldata.Vector2i
	Mode         Mode
	// Scale between logical and physical pixels. Values below or equal to 0 count as 1
	Scale float64

	location generaldata.Vector2i
	mapped   bool
}

func NewOutput(name string, mode Mode) *Output {
	return &Output{
		Name:  name,
		Mode:  mode,
		Scale: 1,
	}
}

func (o *Output) EffectiveScale() float64 {
	if o.Scale <= 0 {
		return 1
	}
	return o.Scale
}

// Location of the output in the global logical space
func (o *Output) Location() generaldata.Vector2i {
	return o.location
}

// LogicalSize is the mode size divided by the scale
func (o *Output) LogicalSize() generaldata.Vector2i {
	s := o.EffectiveScale()
	return generaldata.Vector2i{
		X: int(math.Round(float64(o.Mode.Size.X) / s)),
		Y: int(math.Round(float64(o.Mode.Size.Y) / s)),
	}
}

// Geometry of the output in the global logical space
func (o *Output) Geometry() generaldata.Rect {
	return generaldata.NewRect(o.location, o.LogicalSize())
}

func (o *Output) Mapped() bool {
	return o.mapped
}
