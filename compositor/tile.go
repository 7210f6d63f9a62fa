// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package compositor

import (
	"errors"
	"fmt"

	"github.com/mstarongithub/wayspace/backend"
	"github.com/mstarongithub/wayspace/space"
	"github.com/mstarongithub/wayspace/tiler"
	"github.com/sirupsen/logrus"
	"gitlab.com/mstarongitlab/goutils/sliceutils"
)

var ErrNotTiled = errors.New("windows aren't tiled together")

// Tile implements seat.Actions, arranging the windows on the output under the pointer
func (c *Compositor) Tile() {
	if _, _, err := c.tile(""); err != nil {
		c.log.WithError(err).Warnln("Can't tile")
	}
}

// tile splits the named output, or the one under the pointer, between the top
// level windows overlapping it. An output tiled before keeps its tree: windows
// that left it are dropped, new ones split the focused window
func (c *Compositor) tile(name string) (int, string, error) {
	var out *space.Output
	if name == "" {
		out = c.space.OutputAt(c.router.Pointer())
		if out == nil {
			if outputs := c.space.Outputs(); len(outputs) > 0 {
				out = outputs[0]
			}
		}
	} else {
		out = c.space.Output(name)
	}
	if out == nil {
		return 0, "", fmt.Errorf("%w: %q", backend.ErrUnknownOutput, name)
	}

	area := out.Geometry()
	windows := sliceutils.Filter(c.space.Windows(), func(w *space.Window) bool {
		return w.Toplevel && w.Geometry().Overlaps(area)
	})
	onOutput := map[space.WindowID]bool{}
	for _, w := range windows {
		onOutput[w.ID()] = true
	}

	tree, ok := c.tiles[out.Name]
	if !ok {
		tree = tiler.NewTree()
		c.tiles[out.Name] = tree
	}
	for _, id := range tree.Windows() {
		if !onOutput[id] {
			_ = tree.RemoveWindow(id)
		}
	}
	if focused := c.router.Focused(); focused != nil && tree.Contains(focused.ID()) {
		_ = tree.Focus(focused.ID())
	}
	for _, w := range windows {
		if tree.Contains(w.ID()) {
			continue
		}
		// Windows are also tiled on the other outputs they overlap
		c.untile(w.ID())
		if err := tree.AddWindow(w.ID()); err != nil {
			return 0, "", err
		}
	}

	c.layout(out, tree)
	c.log.WithFields(logrus.Fields{
		"output":  out.Name,
		"windows": tree.Len(),
	}).Infoln("Tiled output")
	c.notify(NoticeWindow, "Tiled %d windows on %s", tree.Len(), out.Name)
	return tree.Len(), out.Name, nil
}

// layout moves the windows of tree into their slots on out. Their new size is
// only asked for if the backend can configure clients
func (c *Compositor) layout(out *space.Output, tree *tiler.Tree) {
	configurer, canConfigure := c.backend.(backend.Configurer)
	for id, slot := range tree.Layout(out.Geometry()) {
		w := c.space.Window(id)
		if w == nil {
			continue
		}
		w.Location = slot.Loc()
		if !canConfigure {
			continue
		}
		if err := configurer.Configure(id, slot.Size()); err != nil {
			c.log.WithError(err).WithField("window", id).Warnln("Can't resize tiled window")
		}
	}
}

// untile takes a window out of its tree and closes the gap it leaves
func (c *Compositor) untile(id space.WindowID) {
	for name, tree := range c.tiles {
		if !tree.Contains(id) {
			continue
		}
		_ = tree.RemoveWindow(id)
		if tree.Len() == 0 {
			delete(c.tiles, name)
			return
		}
		if out := c.space.Output(name); out != nil {
			c.layout(out, tree)
		}
		return
	}
}

// focusTile makes the focused window the one split by the next tile
func (c *Compositor) focusTile(id space.WindowID) {
	for _, tree := range c.tiles {
		if tree.Contains(id) {
			_ = tree.Focus(id)
			return
		}
	}
}

// swap exchanges the slots of two windows tiled on the same output
func (c *Compositor) swap(a, b space.WindowID) error {
	for name, tree := range c.tiles {
		if !tree.Contains(a) || !tree.Contains(b) {
			continue
		}
		if err := tree.SwapWindows(a, b); err != nil {
			return err
		}
		if out := c.space.Output(name); out != nil {
			c.layout(out, tree)
		}
		c.notify(NoticeWindow, "Swapped windows %d and %d", a, b)
		return nil
	}
	return fmt.Errorf("%w: %d and %d", ErrNotTiled, a, b)
}
