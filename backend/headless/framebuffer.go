// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package headless

import (
	"fmt"
	"image"
	"image/color"

	"github.com/gogpu/gg"
	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/space"
)

// framebuffer is the software rendered image of one virtual output
type framebuffer struct {
	ctx *gg.Context
	// Looks up the content of client surfaces
	surfaceFill func(space.WindowID) (color.RGBA, bool)
	frames      uint64
}

func newFramebuffer(size generaldata.Vector2i, surfaceFill func(space.WindowID) (color.RGBA, bool)) *framebuffer {
	return &framebuffer{
		ctx:         gg.NewContext(size.X, size.Y),
		surfaceFill: surfaceFill,
	}
}

func (f *framebuffer) resize(size generaldata.Vector2i) error {
	if f.ctx.Width() == size.X && f.ctx.Height() == size.Y {
		return nil
	}
	return f.ctx.Resize(size.X, size.Y)
}

// Render implements backend.FrameTarget
func (f *framebuffer) Render(elements []space.RenderElement, clear color.RGBA, damage generaldata.Region) error {
	c := f.ctx
	defer c.ResetClip()

	full := generaldata.Rect{W: c.Width(), H: c.Height()}
	for _, area := range damage {
		c.ResetClip()
		if area == full {
			c.ClearWithColor(gg.FromColor(clear))
		} else {
			c.ClipRect(float64(area.X), float64(area.Y), float64(area.W), float64(area.H))
			if err := f.fill(area, clear); err != nil {
				return err
			}
		}
		for _, e := range elements {
			if !e.Geometry.Overlaps(area) {
				continue
			}
			if err := f.draw(e); err != nil {
				return fmt.Errorf("window %d primitive %d: %w", e.Window, e.Index, err)
			}
		}
	}
	return nil
}

func (f *framebuffer) draw(e space.RenderElement) error {
	switch e.Primitive.Kind {
	case space.PrimitiveSolid:
		return f.fill(e.Geometry, e.Primitive.Color)
	case space.PrimitiveSurface:
		fill, ok := f.surfaceFill(e.Window)
		if !ok {
			return nil
		}
		return f.fill(e.Geometry, fill)
	case space.PrimitiveImage:
		if e.Primitive.Image == nil {
			return nil
		}
		f.drawImage(e)
		return nil
	default:
		return fmt.Errorf("unknown primitive kind %d", e.Primitive.Kind)
	}
}

func (f *framebuffer) fill(r generaldata.Rect, fill color.RGBA) error {
	f.ctx.SetColor(fill)
	f.ctx.DrawRectangle(float64(r.X), float64(r.Y), float64(r.W), float64(r.H))
	return f.ctx.Fill()
}

// drawImage samples the visible part of the image, stretched over the primitive's bounds
func (f *framebuffer) drawImage(e space.RenderElement) {
	img := e.Primitive.Image
	ib := img.Bounds()
	pb := e.Primitive.Bounds
	if pb.Empty() {
		return
	}
	sx := float64(ib.Dx()) / float64(pb.W)
	sy := float64(ib.Dy()) / float64(pb.H)
	src := image.Rect(
		ib.Min.X+int(float64(e.Source.X)*sx),
		ib.Min.Y+int(float64(e.Source.Y)*sy),
		ib.Min.X+int(float64(e.Source.Right())*sx),
		ib.Min.Y+int(float64(e.Source.Bottom())*sy),
	)
	f.ctx.DrawImageEx(gg.ImageBufFromImage(img), gg.DrawImageOptions{
		X:         float64(e.Geometry.X),
		Y:         float64(e.Geometry.Y),
		DstWidth:  float64(e.Geometry.W),
		DstHeight: float64(e.Geometry.H),
		SrcRect:   &src,
	})
}

func (f *framebuffer) image() image.Image {
	return f.ctx.Image()
}

func (f *framebuffer) close() {
	_ = f.ctx.Close()
}
