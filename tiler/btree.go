// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package tiler arranges windows in a binary split tree.
// The compositor itself stacks windows freely, a tree only exists while tiling an output
package tiler

import (
	"errors"
	"fmt"

	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/space"
)

type NodeType int
type Direction int

const (
	NodeTypeLeaf = NodeType(iota)
	NodeTypeBranch
)

const (
	// Children on top of each other, ChildLeft on top
	DirectionVertical = Direction(iota)
	// Children next to each other, ChildLeft on the left
	DirectionHorizontal
)

// Share of the area the split window keeps, in percent
const DefaultAspect = 50

var (
	ErrExists  = errors.New("window already in tree")
	ErrUnknown = errors.New("window not in tree")
)

type (
	// A tiling tree. One tree per output
	// Sizes are calculated down the tree when laying it out
	Tree struct {
		Root *Node
		// Leaf split by the next insert
		LastFocused *Node
		leaves      map[space.WindowID]*Node
	}

	Node struct {
		Type   NodeType
		Parent *Node

		// Branch only
		Direction  Direction
		ChildLeft  *Node // Is the top child if split vertically
		ChildRight *Node // Is the bottom child if split vertically
		AspectLeft int   // Percentage the left child has of the container space

		// Leaf only
		Window space.WindowID
	}
)

func NewTree() *Tree {
	return &Tree{leaves: map[space.WindowID]*Node{}}
}

func (t *Tree) Len() int {
	return len(t.leaves)
}

func (t *Tree) Contains(id space.WindowID) bool {
	_, ok := t.leaves[id]
	return ok
}

// Add a new window to the tree
// Splits the last focused leaf, alternating the direction with every level
func (t *Tree) AddWindow(id space.WindowID) error {
	if t.Contains(id) {
		return fmt.Errorf("%w: %d", ErrExists, id)
	}
	leaf := &Node{Type: NodeTypeLeaf, Window: id}
	t.leaves[id] = leaf
	if t.Root == nil {
		t.Root = leaf
		t.LastFocused = leaf
		return nil
	}

	target := t.LastFocused
	direction := DirectionHorizontal
	if target.Parent != nil && target.Parent.Direction == DirectionHorizontal {
		direction = DirectionVertical
	}
	branch := &Node{
		Type:       NodeTypeBranch,
		Direction:  direction,
		AspectLeft: DefaultAspect,
		ChildLeft:  target,
		ChildRight: leaf,
	}
	t.replace(target, branch)
	target.Parent = branch
	leaf.Parent = branch
	t.LastFocused = leaf
	return nil
}

// Remove a window from the tree
// Its parent branch goes away, the other child takes its place
func (t *Tree) RemoveWindow(id space.WindowID) error {
	leaf, ok := t.leaves[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknown, id)
	}
	delete(t.leaves, id)
	if leaf == t.Root {
		t.Root = nil
		t.LastFocused = nil
		return nil
	}

	parent := leaf.Parent
	sibling := parent.ChildLeft
	if sibling == leaf {
		sibling = parent.ChildRight
	}
	t.replace(parent, sibling)
	if t.LastFocused == leaf {
		t.LastFocused = sibling.lastLeaf()
	}
	return nil
}

// Windows returns the windows of the tree, left and top first
func (t *Tree) Windows() []space.WindowID {
	ids := make([]space.WindowID, 0, len(t.leaves))
	if t.Root != nil {
		ids = t.Root.windows(ids)
	}
	return ids
}

// Focus makes the window the one split by the next insert
func (t *Tree) Focus(id space.WindowID) error {
	leaf, ok := t.leaves[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknown, id)
	}
	t.LastFocused = leaf
	return nil
}

// Swap two windows
func (t *Tree) SwapWindows(a, b space.WindowID) error {
	leafA, ok := t.leaves[a]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknown, a)
	}
	leafB, ok := t.leaves[b]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknown, b)
	}
	leafA.Window, leafB.Window = b, a
	t.leaves[a], t.leaves[b] = leafB, leafA
	return nil
}

// Layout splits area between all windows of the tree
func (t *Tree) Layout(area generaldata.Rect) map[space.WindowID]generaldata.Rect {
	res := make(map[space.WindowID]generaldata.Rect, len(t.leaves))
	if t.Root != nil {
		t.Root.layout(area, res)
	}
	return res
}

// replace puts with where old hangs in the tree
func (t *Tree) replace(old, with *Node) {
	parent := old.Parent
	with.Parent = parent
	switch {
	case parent == nil:
		t.Root = with
	case parent.ChildLeft == old:
		parent.ChildLeft = with
	default:
		parent.ChildRight = with
	}
}

func (n *Node) lastLeaf() *Node {
	for n.Type == NodeTypeBranch {
		n = n.ChildRight
	}
	return n
}

func (n *Node) windows(ids []space.WindowID) []space.WindowID {
	if n.Type == NodeTypeLeaf {
		return append(ids, n.Window)
	}
	return n.ChildRight.windows(n.ChildLeft.windows(ids))
}

func (n *Node) layout(area generaldata.Rect, res map[space.WindowID]generaldata.Rect) {
	if n.Type == NodeTypeLeaf {
		res[n.Window] = area
		return
	}
	left, right := area, area
	switch n.Direction {
	case DirectionHorizontal:
		left.W = area.W * n.AspectLeft / 100
		right.X = area.X + left.W
		right.W = area.W - left.W
	case DirectionVertical:
		left.H = area.H * n.AspectLeft / 100
		right.Y = area.Y + left.H
		right.H = area.H - left.H
	}
	n.ChildLeft.layout(left, res)
	n.ChildRight.layout(right, res)
}

// checkNode verifies parent links and that branches have two children
func checkNode(node *Node, parent *Node) error {
	if node == nil {
		return errors.New("node is nil")
	}
	if node.Parent != parent {
		return errors.New("parent link broken")
	}
	switch node.Type {
	case NodeTypeLeaf:
		return nil
	case NodeTypeBranch:
		if err := checkNode(node.ChildLeft, node); err != nil {
			return fmt.Errorf("left child: %w", err)
		}
		if err := checkNode(node.ChildRight, node); err != nil {
			return fmt.Errorf("right child: %w", err)
		}
		return nil
	}
	return errors.New("invalid node type")
}
